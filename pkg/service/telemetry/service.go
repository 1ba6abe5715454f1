// Package telemetry resolves telemetry requests: drivers are mapped to their
// numbers, the selected laps are looked up and the telemetry of each lap is
// fetched for the requested channel.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/f1data/telemetry-service/log"
	"github.com/f1data/telemetry-service/pkg/lookup"
	"github.com/f1data/telemetry-service/pkg/model"
	"github.com/f1data/telemetry-service/pkg/repository/api"
)

type (
	Option  func(*Service)
	Service struct {
		store         api.Store
		maxConcurrent int
		log           *log.Logger
		tracer        trace.Tracer
	}
	resolvedDriver struct {
		abbreviation string
		number       string
	}
)

// WithMaxConcurrentDrivers limits the number of drivers resolved in parallel.
// Values < 1 resolve the drivers sequentially.
func WithMaxConcurrentDrivers(n int) Option {
	return func(s *Service) {
		s.maxConcurrent = n
	}
}

func WithLogger(l *log.Logger) Option {
	return func(s *Service) {
		s.log = l
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

func NewService(store api.Store, opts ...Option) *Service {
	ret := &Service{
		store:         store,
		maxConcurrent: 4,
		log:           log.Default().Named("service.telemetry"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.tracer == nil {
		ret.tracer = otel.Tracer("f1ts")
	}
	if ret.maxConcurrent < 1 {
		ret.maxConcurrent = 1
	}
	return ret
}

// ResolveTelemetryRequest returns the laps of all requested drivers grouped by
// the order of req.Drivers. Any failure fails the whole request.
//
//nolint:whitespace // editor/linter issue
func (s *Service) ResolveTelemetryRequest(
	ctx context.Context,
	req Request,
) ([]model.DriverLapTelemetry, error) {
	ctx, span := s.tracer.Start(ctx, "ResolveTelemetryRequest",
		trace.WithAttributes(
			attribute.String("session", req.Session),
			attribute.String("channel", req.Channel),
			attribute.String("selectBy", req.SelectBy),
			attribute.StringSlice("drivers", req.Drivers)))
	defer span.End()

	ret, err := s.resolve(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("laps", len(ret)))
	return ret, nil
}

func (s *Service) resolve(ctx context.Context, req Request) ([]model.DriverLapTelemetry, error) {
	sel, err := req.Selection()
	if err != nil {
		return nil, err
	}
	if req.Channel == "" {
		return nil, fmt.Errorf("%w: channel is required", model.ErrInvalidSelection)
	}
	if _, err := lookup.ChannelByName(req.Channel); err != nil {
		s.log.Debug("channel not in channel table", log.String("channel", req.Channel))
	}

	drivers := make([]resolvedDriver, len(req.Drivers))
	for i, abbr := range req.Drivers {
		number, err := lookup.DriverNumberFor(abbr)
		if err != nil {
			return nil, fmt.Errorf("driver %s: %w", abbr, err)
		}
		drivers[i] = resolvedDriver{abbreviation: abbr, number: number}
	}

	results := make([][]model.DriverLapTelemetry, len(drivers))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrent)
	for i := range drivers {
		g.Go(func() error {
			res, err := s.resolveDriver(gCtx, req.Session, drivers[i], sel, req.Channel)
			if err != nil {
				return fmt.Errorf("driver %s: %w", drivers[i].abbreviation, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ret := make([]model.DriverLapTelemetry, 0)
	for i := range results {
		ret = append(ret, results[i]...)
	}
	return ret, nil
}

//nolint:whitespace // editor/linter issue
func (s *Service) resolveDriver(
	ctx context.Context,
	session string,
	driver resolvedDriver,
	sel model.Selection,
	channel string,
) ([]model.DriverLapTelemetry, error) {
	ctx, span := s.tracer.Start(ctx, "resolveDriver",
		trace.WithAttributes(
			attribute.String("driver", driver.abbreviation),
			attribute.String("selection", sel.Kind.String())))
	defer span.End()

	records, err := api.FindTiming(ctx, s.store, session, driver.number, sel)
	if err != nil {
		return nil, err
	}
	s.log.Debug("timing records found",
		log.String("session", session),
		log.String("driver", driver.abbreviation),
		log.Int("records", len(records)))

	ret := make([]model.DriverLapTelemetry, 0, len(records))
	for i := range records {
		samples, err := s.store.FindTelemetry(ctx, session, records[i].ID, []string{channel})
		if err != nil {
			return nil, fmt.Errorf("lap %d: %w", records[i].LapNumber, err)
		}
		if samples == nil {
			samples = []model.TelemetrySample{}
		}
		ret = append(ret, model.DriverLapTelemetry{
			Driver:    driver.abbreviation,
			Telemetry: samples,
			LapTime:   records[i].LapTime,
			LapNumber: records[i].LapNumber,
		})
	}
	return ret, nil
}
