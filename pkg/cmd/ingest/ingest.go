package ingest

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/f1data/telemetry-service/log"
	"github.com/f1data/telemetry-service/pkg/cmd/util"
	"github.com/f1data/telemetry-service/pkg/ingest"
	"github.com/f1data/telemetry-service/pkg/model"
)

type ingestConfig struct {
	session string
	file    string
	dir     string
	drop    bool
}

var cfg ingestConfig

func NewIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "loads exported session data into the database",
		Long: `loads exported session data into the database.
Runs are not idempotent: ingesting the same data twice duplicates it unless --drop is used.`,
	}
	cmd.AddCommand(newLapsCmd(), newTelemetryCmd(), newCarsCmd(), newEventCmd())
	return cmd
}

func addSessionFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&cfg.session, "session", "s", "",
		"session id, e.g. 2019-10-5")
	cmd.Flags().BoolVar(&cfg.drop, "drop", false,
		"drop the target collections before inserting")
	_ = cmd.MarkFlagRequired("session")
}

func newLapsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "laps",
		Short: "ingests the timing data of a session from a laps json file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), func(ctx context.Context, ing *ingest.Ingester) error {
				f, err := os.Open(cfg.file)
				if err != nil {
					return err
				}
				defer f.Close()
				n, err := ing.Laps(ctx, cfg.session, f, cfg.drop)
				log.Info("laps ingested", log.Int("laps", n))
				return err
			})
		},
	}
	addSessionFlags(cmd)
	cmd.Flags().StringVarP(&cfg.file, "file", "f", "", "laps json file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newTelemetryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "telemetry",
		Short: "ingests the telemetry of a session from a json file (lap id -> samples)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), func(ctx context.Context, ing *ingest.Ingester) error {
				f, err := os.Open(cfg.file)
				if err != nil {
					return err
				}
				defer f.Close()
				n, err := ing.Telemetry(ctx, cfg.session, f, cfg.drop)
				log.Info("telemetry ingested", log.Int("samples", n))
				return err
			})
		},
	}
	addSessionFlags(cmd)
	cmd.Flags().StringVarP(&cfg.file, "file", "f", "", "telemetry json file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newCarsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cars",
		Short: "ingests the per car data and position files of a directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), func(ctx context.Context, ing *ingest.Ingester) error {
				n, err := ing.Cars(ctx, cfg.session, os.DirFS(cfg.dir), cfg.drop)
				log.Info("car data ingested", log.Int("documents", n))
				return err
			})
		},
	}
	addSessionFlags(cmd)
	cmd.Flags().StringVarP(&cfg.dir, "dir", "d", ".",
		"directory containing {car}-data.json and {car}-position.json files")
	return cmd
}

func newEventCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "event",
		Short: "upserts events and sessions from an event metadata file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), func(ctx context.Context, ing *ingest.Ingester) error {
				f, err := os.Open(cfg.file)
				if err != nil {
					return err
				}
				defer f.Close()
				events, sessions, err := ing.Events(ctx, f)
				log.Info("events ingested",
					log.Int("events", events),
					log.Int("sessions", sessions))
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&cfg.file, "file", "f", "", "event metadata json file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

//nolint:whitespace // editor/linter issue
func run(
	ctx context.Context,
	fn func(ctx context.Context, ing *ingest.Ingester) error,
) error {
	if ctx == nil {
		ctx = context.Background()
	}
	sqlLogger := util.SetupLogger()
	if cfg.session != "" {
		if _, _, _, err := model.ParseSessionKey(cfg.session); err != nil {
			return err
		}
	}
	util.WaitForRequiredServices()
	store, err := util.OpenStore(ctx, sqlLogger, false)
	if err != nil {
		return err
	}
	defer store.Close()

	ing := ingest.NewIngester(store)
	log.Info("ingest run started", log.String("runId", ing.RunID()))
	err = fn(ctx, ing)
	ing.Report(os.Stdout)
	if err != nil {
		log.Error("ingest run failed",
			log.String("runId", ing.RunID()),
			log.ErrorField(err))
		return fmt.Errorf("run %s: %w", ing.RunID(), err)
	}
	return nil
}
