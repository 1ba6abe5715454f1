//nolint:errcheck // testsetup
package tcpostgres

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/f1data/telemetry-service/pkg/db/migrate"
	database "github.com/f1data/telemetry-service/pkg/db/postgres"
)

// create a pg connection pool for the telemetry testdatabase
func SetupTestDB() *pgxpool.Pool {
	ctx := context.Background()
	port, err := nat.NewPort("tcp", "5432")
	if err != nil {
		log.Fatal(err)
	}
	container, err := SetupPostgres(ctx,
		WithPort(port.Port()),
		WithInitialDatabase("postgres", "password", "postgres"),
		WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second)),
		WithName("f1-telemetry-service-test"),
	)
	if err != nil {
		log.Fatal(err)
	}
	containerPort, _ := container.MappedPort(ctx, port)
	host, _ := container.Host(ctx)
	dbURL := fmt.Sprintf("postgresql://postgres:password@%s:%s/postgres",
		host, containerPort.Port())

	return setupWithURL(dbURL)
}

// SetupExternalTestDB uses the database referenced by TESTDB_URL
func SetupExternalTestDB() *pgxpool.Pool {
	return setupWithURL(os.Getenv("TESTDB_URL"))
}

func setupWithURL(dbURL string) *pgxpool.Pool {
	if err := migrate.MigrateDB(dbURL); err != nil {
		log.Fatal(err)
	}
	return database.InitWithURL(dbURL)
}

func ClearEventTables(pool *pgxpool.Pool) {
	pool.Exec(context.Background(), "delete from session")
	pool.Exec(context.Background(), "delete from event")
}

func ClearTimingTable(pool *pgxpool.Pool) {
	pool.Exec(context.Background(), "delete from timing")
}

func ClearTelemetryTable(pool *pgxpool.Pool) {
	pool.Exec(context.Background(), "delete from telemetry")
}

func ClearDocumentTables(pool *pgxpool.Pool) {
	pool.Exec(context.Background(), "delete from car_data")
	pool.Exec(context.Background(), "delete from document")
}

func ClearAllTables(pool *pgxpool.Pool) {
	ClearDocumentTables(pool)
	ClearTelemetryTable(pool)
	ClearTimingTable(pool)
	ClearEventTables(pool)
}
