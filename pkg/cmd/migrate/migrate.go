package migrate

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"

	"github.com/f1data/telemetry-service/log"
	"github.com/f1data/telemetry-service/pkg/cmd/util"
	"github.com/f1data/telemetry-service/pkg/config"
	dbMigrate "github.com/f1data/telemetry-service/pkg/db/migrate"
	"github.com/f1data/telemetry-service/pkg/repository/factory"
	"github.com/f1data/telemetry-service/pkg/utils"
)

func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "performs database migration (postgres only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return startMigration()
		},
	}

	cmd.Flags().StringVarP(&config.MigrationSourceURL,
		"migration-source-url",
		"m",
		"",
		"url to migration files (default: migrations embedded in the binary)")

	return cmd
}

func startMigration() error {
	util.SetupLogger()
	if !factory.IsPostgres(config.DB) {
		log.Info("No migration required for database", log.String("db", config.RedactURL(config.DB)))
		return nil
	}
	timeout, err := time.ParseDuration(config.WaitForServices)
	if err != nil {
		log.Warn("Invalid duration value. Setting default 60s", log.ErrorField(err))
		timeout = 60 * time.Second
	}
	postgresAddr := utils.ExtractFromDBURL(config.DB)
	if err = utils.WaitForTCP(postgresAddr, timeout); err != nil {
		log.Fatal("database not ready", log.ErrorField(err))
	}

	dbURL := prepareURLForDB(config.DB)
	log.Info("Using dbUrl", log.String("url", config.RedactURL(dbURL)))
	if config.MigrationSourceURL == "" {
		log.Info("Using embedded migrations")
		return dbMigrate.MigrateDB(dbURL)
	}

	log.Info("Using migrations files at", log.String("source", config.MigrationSourceURL))
	m, err := migrate.New(config.MigrationSourceURL, dbMigrate.ToMigrateURL(dbURL))
	if err != nil {
		log.Fatal("Could not create migration", log.ErrorField(err))
	}
	defer m.Close()
	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		log.Info("No Migration required")
		return nil
	}
	return err
}

func prepareURLForDB(url string) string {
	options := "sslmode=disable"
	if strings.Contains(url, "sslmode=") {
		return url
	}
	if strings.Contains(url, "?") {
		return fmt.Sprintf("%s&%s", url, options)
	}
	return fmt.Sprintf("%s?%s", url, options)
}
