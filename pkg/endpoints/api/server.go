// Package api provides the HTTP API: reference data below /info and
// telemetry queries below /data.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/f1data/telemetry-service/log"
	"github.com/f1data/telemetry-service/pkg/model"
	"github.com/f1data/telemetry-service/pkg/service/telemetry"
)

// max size of a request body
const maxBodyBytes = 1 << 20

type (
	TelemetryResolver interface {
		ResolveTelemetryRequest(
			ctx context.Context, req telemetry.Request,
		) ([]model.DriverLapTelemetry, error)
	}
	InfoProvider interface {
		Events(ctx context.Context) ([]model.Event, error)
		Sessions(ctx context.Context, eventID string) ([]model.Session, error)
		Drivers() []string
		Channels() []model.Channel
	}
	Option func(*Server)
	Server struct {
		telemetry     TelemetryResolver
		info          InfoProvider
		log           *log.Logger
		validate      *validator.Validate
		registry      *prometheus.Registry
		tracing       bool
		rateLimit     int
		rateWindow    time.Duration
		healthChecker func(ctx context.Context) error
	}
)

func WithTelemetry(t TelemetryResolver) Option {
	return func(s *Server) {
		s.telemetry = t
	}
}

func WithInfo(i InfoProvider) Option {
	return func(s *Server) {
		s.info = i
	}
}

func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		s.log = l
	}
}

// WithRegistry sets the registry for the http metrics exposed on /metrics.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) {
		s.registry = reg
	}
}

// WithTracing enables otel instrumentation of incoming requests.
func WithTracing(enabled bool) Option {
	return func(s *Server) {
		s.tracing = enabled
	}
}

// WithRateLimit limits telemetry queries per client ip. requests <= 0 disables the limit.
func WithRateLimit(requests int, window time.Duration) Option {
	return func(s *Server) {
		s.rateLimit = requests
		s.rateWindow = window
	}
}

// WithHealthCheck is called by /healthz. A failing check yields 503.
func WithHealthCheck(check func(ctx context.Context) error) Option {
	return func(s *Server) {
		s.healthChecker = check
	}
}

func NewServer(opts ...Option) *Server {
	ret := &Server{
		log:        log.Default().Named("http"),
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		rateWindow: time.Minute,
	}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.registry == nil {
		ret.registry = prometheus.NewRegistry()
	}
	return ret
}

// Handler assembles the router with all middlewares.
func (s *Server) Handler() http.Handler {
	m := newMetrics(s.registry)
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(m.middleware)
	if s.tracing {
		r.Use(traceIDHeader)
	}

	r.Get("/healthz", s.healthz)
	r.Method(http.MethodGet, "/metrics",
		promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	r.Route("/info", func(r chi.Router) {
		r.Get("/events", s.getEvents)
		r.Get("/sessions/{eventId}", s.getSessions)
		r.Get("/drivers", s.getDrivers)
		r.Get("/channels", s.getChannels)
	})
	r.Route("/data", func(r chi.Router) {
		if s.rateLimit > 0 {
			r.Use(httprate.LimitByIP(s.rateLimit, s.rateWindow))
		}
		r.Post("/telemetry", s.postTelemetry)
	})

	var h http.Handler = r
	if s.tracing {
		h = otelhttp.NewHandler(h, "f1ts",
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}))
	}
	return newCORS().Handler(h)
}
