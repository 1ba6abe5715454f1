// Package factory opens the store referenced by a database url.
package factory

import (
	"context"
	"fmt"
	"strings"

	"github.com/f1data/telemetry-service/log"
	"github.com/f1data/telemetry-service/pkg/config"
	database "github.com/f1data/telemetry-service/pkg/db/postgres"
	"github.com/f1data/telemetry-service/pkg/repository/api"
	"github.com/f1data/telemetry-service/pkg/repository/guard"
	"github.com/f1data/telemetry-service/pkg/repository/mongo"
	"github.com/f1data/telemetry-service/pkg/repository/postgres"
)

type (
	Option  func(cfg *options)
	options struct {
		poolOpts []database.PoolConfigOption
		guard    []guard.Option
		guarded  bool
		l        *log.Logger
	}
)

func WithPoolOptions(opts ...database.PoolConfigOption) Option {
	return func(cfg *options) {
		cfg.poolOpts = append(cfg.poolOpts, opts...)
	}
}

// WithGuard wraps the store with timeout and circuit breaker handling.
func WithGuard(opts ...guard.Option) Option {
	return func(cfg *options) {
		cfg.guarded = true
		cfg.guard = append(cfg.guard, opts...)
	}
}

func WithLogger(l *log.Logger) Option {
	return func(cfg *options) {
		cfg.l = l
	}
}

// IsPostgres reports whether url references a postgres database.
func IsPostgres(url string) bool {
	return strings.HasPrefix(url, "postgresql://") || strings.HasPrefix(url, "postgres://")
}

func IsMongo(url string) bool {
	return strings.HasPrefix(url, "mongodb://") || strings.HasPrefix(url, "mongodb+srv://")
}

// Open creates the store for url, postgresql:// and mongodb:// urls are supported.
func Open(ctx context.Context, url string, opts ...Option) (api.Store, error) {
	cfg := &options{l: log.Default().Named("store")}
	for _, opt := range opts {
		opt(cfg)
	}
	var (
		s   api.Store
		err error
	)
	switch {
	case IsPostgres(url):
		pool, perr := database.NewPool(ctx, url, cfg.poolOpts...)
		if perr != nil {
			return nil, fmt.Errorf("open postgres: %w", perr)
		}
		s = postgres.New(pool, postgres.WithLogger(cfg.l.Named("postgres")))
	case IsMongo(url):
		s, err = mongo.New(ctx, url, mongo.WithLogger(cfg.l.Named("mongo")))
		if err != nil {
			return nil, fmt.Errorf("open mongo: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported database url %q", config.RedactURL(url))
	}
	if cfg.guarded {
		s = guard.New(s, append([]guard.Option{guard.WithLogger(cfg.l.Named("guard"))},
			cfg.guard...)...)
	}
	return s, nil
}
