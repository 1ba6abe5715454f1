package api

import (
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"go.opentelemetry.io/otel/trace"

	"github.com/f1data/telemetry-service/log"
)

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		reqLog := s.log.With(log.String("requestId", chimiddleware.GetReqID(r.Context())))
		next.ServeHTTP(ww, r.WithContext(log.AddToContext(r.Context(), reqLog)))
		reqLog.Debug("request",
			log.String("method", r.Method),
			log.String("path", r.URL.Path),
			log.String("remote", r.RemoteAddr),
			log.Int("status", ww.Status()),
			log.Int("bytes", ww.BytesWritten()),
			log.Duration("duration", time.Since(start)))
	})
}

// traceIDHeader exposes the trace id of the current request to the client.
func traceIDHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sc := trace.SpanContextFromContext(r.Context()); sc.HasTraceID() {
			w.Header().Set("X-Trace-ID", sc.TraceID().String())
		}
		next.ServeHTTP(w, r)
	})
}

// newCORS allows requests from any origin.
func newCORS() *cors.Cors {
	return cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowOriginFunc: func(origin string) bool {
			return true
		},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{
			"Accept",
			"Accept-Encoding",
			"Content-Encoding",
			"X-Request-Id",
			"X-Trace-ID",
		},
		// FF caps this value at 24h, Chrome at 2h.
		MaxAge: int(2 * time.Hour / time.Second),
	})
}
