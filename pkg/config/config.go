package config

import (
	"net/url"
	"time"
)

// this holds the resolved configuration values from CLI
//
//nolint:lll // readablity
var (
	DB                   string        // connection string for the database (postgresql:// or mongodb://)
	WaitForServices      string        // duration to wait for other services to be ready
	LogLevel             string        // sets the log level (zap log level values)
	SQLLogLevel          string        // sets the log level for sql subsystem
	LogFormat            string        // text vs json
	EnableTelemetry      bool          // enable telemetry
	TelemetryEndpoint    string        // endpoint for telemetry, "stdout" writes to stdout
	ProfilingPort        int           // port for profiling
	ServerAddr           string        // listen addr for the HTTP API
	QueryTimeout         time.Duration // timeout for a single store call
	BreakerFailures      uint32        // consecutive store failures that open the circuit breaker
	BreakerTimeout       time.Duration // duration the circuit breaker stays open
	CacheExpiration      time.Duration // expiration of cached session lists
	MaxConcurrentDrivers int           // max number of drivers resolved in parallel per request
	MaxConns             int32         // max number of pooled database connections
	RateLimit            int           // telemetry requests per minute and client ip, 0 disables
	MigrationSourceURL   string        // url of migration files, embedded migrations if empty
	TLSCertFile          string        // PEM encoded certificate for the HTTP server
	TLSKeyFile           string        // PEM encoded key for the HTTP server
	TLSCAFile            string        // CA used to verify client certificates
	ACMEStore            string        // traefik acme.json holding the server certificate
	ACMEDomain           string        // domain to look up in ACMEStore
)

// RedactURL removes the password of u for logging purposes.
func RedactURL(u string) string {
	parsed, err := url.Parse(u)
	if err != nil {
		return "<invalid url>"
	}
	return parsed.Redacted()
}
