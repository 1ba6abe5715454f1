// Package util contains the setup shared by the commands.
package util

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/f1data/telemetry-service/log"
	"github.com/f1data/telemetry-service/pkg/config"
	"github.com/f1data/telemetry-service/pkg/db/postgres"
	"github.com/f1data/telemetry-service/pkg/repository/api"
	"github.com/f1data/telemetry-service/pkg/repository/factory"
	"github.com/f1data/telemetry-service/pkg/repository/guard"
	"github.com/f1data/telemetry-service/pkg/utils"
)

func ParseLogLevel(l string, defaultVal log.Level) log.Level {
	level, err := log.ParseLevel(l)
	if err != nil {
		return defaultVal
	}
	return level
}

// SetupLogger configures the default logger from the log flags and returns
// the logger used for sql statements.
func SetupLogger() (sqlLogger *log.Logger) {
	var logger *log.Logger
	switch config.LogFormat {
	case "json":
		logger = log.New(
			os.Stderr,
			ParseLogLevel(config.LogLevel, log.InfoLevel),
			log.WithCaller(true),
			log.AddCallerSkip(1))
		sqlLogger = log.New(
			os.Stderr,
			ParseLogLevel(config.SQLLogLevel, log.InfoLevel),
			log.WithCaller(true),
			log.AddCallerSkip(1))
	default:
		logger = log.DevLogger(
			os.Stderr,
			ParseLogLevel(config.LogLevel, log.DebugLevel),
			log.WithCaller(true),
			log.AddCallerSkip(1))
		sqlLogger = log.DevLogger(
			os.Stderr,
			ParseLogLevel(config.SQLLogLevel, log.InfoLevel),
			log.WithCaller(true),
			log.AddCallerSkip(1))
	}
	log.ResetDefault(logger)
	return sqlLogger.Named("sql")
}

// WaitForRequiredServices blocks until the database accepts connections.
func WaitForRequiredServices() {
	timeout, err := time.ParseDuration(config.WaitForServices)
	if err != nil {
		log.Warn("Invalid duration value. Setting default 60s", log.ErrorField(err))
		timeout = 60 * time.Second
	}

	wg := sync.WaitGroup{}
	checkTCP := func(addr string) {
		defer wg.Done()
		if err := utils.WaitForTCP(addr, timeout); err != nil {
			log.Fatal("required services not ready", log.ErrorField(err))
		}
	}

	if dbAddr := utils.ExtractFromDBURL(config.DB); dbAddr != "" {
		wg.Add(1)
		go checkTCP(dbAddr)
	}
	log.Debug("Waiting for connection checks to return")
	wg.Wait()
	log.Debug("Required services are available")
}

// OpenStore opens the store referenced by config.DB. The returned store is
// guarded by the query timeout and circuit breaker settings if guarded is set.
func OpenStore(ctx context.Context, sqlLogger *log.Logger, guarded bool) (api.Store, error) {
	poolOpts := []postgres.PoolConfigOption{
		postgres.WithTracer(sqlLogger, log.DebugLevel),
	}
	if config.EnableTelemetry {
		poolOpts = []postgres.PoolConfigOption{postgres.WithOtlpTracer()}
	}
	if config.MaxConns > 0 {
		poolOpts = append(poolOpts, postgres.WithMaxConns(config.MaxConns))
	}
	opts := []factory.Option{factory.WithPoolOptions(poolOpts...)}
	if guarded {
		opts = append(opts, factory.WithGuard(
			guard.WithTimeout(config.QueryTimeout),
			guard.WithBreaker(config.BreakerFailures, config.BreakerTimeout)))
	}
	log.Info("Opening store", log.String("db", config.RedactURL(config.DB)))
	return factory.Open(ctx, config.DB, opts...)
}
