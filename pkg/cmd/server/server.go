package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	_ "net/http/pprof" //nolint:gosec // profiling port is opt-in
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	otlpruntime "go.opentelemetry.io/contrib/instrumentation/runtime"

	"github.com/f1data/telemetry-service/log"
	"github.com/f1data/telemetry-service/pkg/cmd/util"
	"github.com/f1data/telemetry-service/pkg/config"
	"github.com/f1data/telemetry-service/pkg/endpoints/api"
	repoApi "github.com/f1data/telemetry-service/pkg/repository/api"
	"github.com/f1data/telemetry-service/pkg/service/info"
	"github.com/f1data/telemetry-service/pkg/service/telemetry"
	"github.com/f1data/telemetry-service/pkg/utils/certs"
)

const shutdownTimeout = 10 * time.Second

//nolint:funlen // flag definitions
func NewServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "starts the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return startServer(cmd.Context())
		},
	}
	cmd.Flags().StringVarP(&config.ServerAddr,
		"addr",
		"a",
		"localhost:5000",
		"HTTP server listen address")
	cmd.Flags().BoolVar(&config.EnableTelemetry,
		"enable-telemetry",
		false,
		"enables telemetry")
	cmd.Flags().StringVar(&config.TelemetryEndpoint,
		"telemetry-endpoint",
		"localhost:4317",
		"Endpoint that receives open telemetry data (use 'stdout' for local debugging)")
	cmd.Flags().IntVar(&config.ProfilingPort,
		"profiling-port",
		0,
		"port to use for providing profiling data")
	cmd.Flags().DurationVar(&config.QueryTimeout,
		"query-timeout",
		10*time.Second,
		"timeout for a single store call (0 disables the timeout)")
	cmd.Flags().Uint32Var(&config.BreakerFailures,
		"breaker-failures",
		5,
		"consecutive store failures that open the circuit breaker (0 disables the breaker)")
	cmd.Flags().DurationVar(&config.BreakerTimeout,
		"breaker-timeout",
		30*time.Second,
		"duration the circuit breaker stays open")
	cmd.Flags().DurationVar(&config.CacheExpiration,
		"cache-expiration",
		time.Minute,
		"expiration of cached events and sessions")
	cmd.Flags().IntVar(&config.MaxConcurrentDrivers,
		"max-concurrent-drivers",
		4,
		"max number of drivers resolved in parallel per telemetry request")
	cmd.Flags().Int32Var(&config.MaxConns,
		"max-conns",
		0,
		"max number of pooled database connections (0 uses the driver default)")
	cmd.Flags().IntVar(&config.RateLimit,
		"rate-limit",
		0,
		"telemetry requests per minute and client ip (0 disables the limit)")
	cmd.Flags().StringVar(&config.TLSCertFile,
		"tls-cert-file",
		"",
		"file containing the TLS certificate (enables https)")
	cmd.Flags().StringVar(&config.TLSKeyFile,
		"tls-key-file",
		"",
		"file containing the TLS key")
	cmd.Flags().StringVar(&config.TLSCAFile,
		"tls-ca-file",
		"",
		"file containing the CA to verify client certificates")
	cmd.Flags().StringVar(&config.ACMEStore,
		"acme-store",
		"",
		"traefik acme.json to take the TLS certificate from")
	cmd.Flags().StringVar(&config.ACMEDomain,
		"acme-domain",
		"",
		"domain of the certificate within --acme-store")
	return cmd
}

//nolint:funlen // by design
func startServer(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	sqlLogger := util.SetupLogger()
	log.Debug("Config:",
		log.String("db", config.RedactURL(config.DB)),
		log.String("addr", config.ServerAddr),
		log.Duration("queryTimeout", config.QueryTimeout),
		log.Int("maxConcurrentDrivers", config.MaxConcurrentDrivers),
	)

	if config.ProfilingPort > 0 {
		log.Info("Starting profiling server on port", log.Int("port", config.ProfilingPort))
		go func() {
			//nolint:gosec // profiling only
			err := http.ListenAndServe(
				fmt.Sprintf("localhost:%d", config.ProfilingPort),
				nil)
			if err != nil {
				log.Error("Profiling server stopped", log.ErrorField(err))
			}
		}()
	}

	util.WaitForRequiredServices()

	var tel *config.Telemetry
	if config.EnableTelemetry {
		log.Info("Enabling telemetry")
		var err error
		if tel, err = config.SetupTelemetry(ctx); err != nil {
			log.Warn("Could not setup telemetry", log.ErrorField(err))
			config.EnableTelemetry = false
		} else {
			err = otlpruntime.Start(otlpruntime.WithMinimumReadMemStatsInterval(time.Second))
			if err != nil {
				log.Warn("Could not start runtime metrics", log.ErrorField(err))
			}
		}
	}

	store, err := util.OpenStore(ctx, sqlLogger, true)
	if err != nil {
		log.Error("store could not be opened", log.ErrorField(err))
		return err
	}
	defer store.Close()

	handler := api.NewServer(
		api.WithTelemetry(telemetry.NewService(store,
			telemetry.WithMaxConcurrentDrivers(config.MaxConcurrentDrivers))),
		api.WithInfo(info.NewService(store,
			info.WithCacheExpiration(config.CacheExpiration))),
		api.WithRegistry(prometheus.NewRegistry()),
		api.WithTracing(config.EnableTelemetry),
		api.WithRateLimit(config.RateLimit, time.Minute),
		api.WithHealthCheck(func(ctx context.Context) error {
			_, err := store.FindEvents(ctx, repoApi.EventFilter{ID: "healthz"})
			return err
		}),
	).Handler()

	server := &http.Server{
		Addr:              config.ServerAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	certProvider := certs.NewProvider(
		certs.WithKeyPair(config.TLSCertFile, config.TLSKeyFile),
		certs.WithACMEStore(config.ACMEStore, config.ACMEDomain),
		certs.WithClientCA(config.TLSCAFile))
	if certProvider.Enabled() {
		if server.TLSConfig, err = certProvider.TLSConfig(ctx); err != nil {
			log.Error("TLS could not be configured", log.ErrorField(err))
			return err
		}
	}
	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server",
			log.String("addr", config.ServerAddr),
			log.Bool("tls", server.TLSConfig != nil))
		var err error
		if server.TLSConfig != nil {
			err = server.ListenAndServeTLS("", "")
		} else {
			err = server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()
	setupGoRoutinesDump()

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	select {
	case err := <-errChan:
		log.Error("server could not be started", log.ErrorField(err))
		return err
	case <-sigCtx.Done():
		log.Debug("Got signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("server shutdown", log.ErrorField(err))
	}
	if tel != nil {
		tel.Shutdown()
	}
	log.Info("Server terminated")
	return nil
}

func setupGoRoutinesDump() {
	go func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGQUIT)
		buf := make([]byte, 1<<20)
		for {
			<-sigs
			stacklen := runtime.Stack(buf, true)
			fmt.Printf("=== received SIGQUIT ===\n*** goroutine dump...\n%s\n*** end\n",
				buf[:stacklen])
		}
	}()
}
