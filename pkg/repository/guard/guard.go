// Package guard decorates a store with a per call timeout and a circuit
// breaker. Calls are never retried.
package guard

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/f1data/telemetry-service/log"
	"github.com/f1data/telemetry-service/pkg/model"
	"github.com/f1data/telemetry-service/pkg/repository/api"
)

type (
	Option func(cfg *config)
	config struct {
		timeout         time.Duration
		failures        uint32
		breakerTimeout  time.Duration
		breakerInterval time.Duration
		l               *log.Logger
	}
	store struct {
		next    api.Store
		timeout time.Duration
		cb      *gobreaker.CircuitBreaker[any]
		l       *log.Logger
	}
)

var (
	_ api.Store    = (*store)(nil)
	_ api.TxRunner = (*store)(nil)
)

// WithTimeout limits the duration of each store call. 0 disables the limit.
func WithTimeout(d time.Duration) Option {
	return func(cfg *config) {
		cfg.timeout = d
	}
}

// WithBreaker opens the breaker after failures consecutive failures and keeps
// it open for openFor before probing the store again.
func WithBreaker(failures uint32, openFor time.Duration) Option {
	return func(cfg *config) {
		cfg.failures = failures
		cfg.breakerTimeout = openFor
	}
}

func WithLogger(l *log.Logger) Option {
	return func(cfg *config) {
		cfg.l = l
	}
}

func New(next api.Store, opts ...Option) api.Store {
	cfg := &config{
		timeout:         10 * time.Second,
		failures:        5,
		breakerTimeout:  30 * time.Second,
		breakerInterval: time.Minute,
		l:               log.Default().Named("store.guard"),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	s := &store{next: next, timeout: cfg.timeout, l: cfg.l}
	s.cb = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "store",
		MaxRequests: 1,
		Interval:    cfg.breakerInterval,
		Timeout:     cfg.breakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return cfg.failures > 0 && counts.ConsecutiveFailures >= cfg.failures
		},
		IsSuccessful: isSuccessful,
		OnStateChange: func(name string, from, to gobreaker.State) {
			s.l.Warn("circuit breaker state changed",
				log.String("name", name),
				log.String("from", from.String()),
				log.String("to", to.String()))
		},
	})
	return s
}

// only failures of the store itself count for the breaker
func isSuccessful(err error) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, model.ErrNotFound),
		errors.Is(err, model.ErrInvalidSelection),
		errors.Is(err, model.ErrAmbiguousLookup),
		errors.Is(err, context.Canceled):
		return true
	default:
		return false
	}
}

//nolint:whitespace // editor/linter issue
func execute[T any](
	ctx context.Context,
	s *store,
	op string,
	fn func(ctx context.Context) (T, error),
) (T, error) {
	var zero T
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	res, err := s.cb.Execute(func() (any, error) {
		return fn(ctx)
	})
	if err != nil {
		return zero, s.translate(ctx, op, err)
	}
	// res is nil for nil results of interface types
	v, _ := res.(T)
	return v, nil
}

func (s *store) translate(ctx context.Context, op string, err error) error {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState),
		errors.Is(err, gobreaker.ErrTooManyRequests):
		return fmt.Errorf("%s: %w: %w", op, model.ErrStoreUnavailable, err)
	case errors.Is(err, model.ErrStoreTimeout),
		errors.Is(err, model.ErrStoreUnavailable):
		return fmt.Errorf("%s: %w", op, err)
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(ctx.Err(), context.DeadlineExceeded):
		s.l.Warn("store call timed out",
			log.String("op", op), log.Duration("timeout", s.timeout))
		return fmt.Errorf("%s: %w: %w", op, model.ErrStoreTimeout, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
