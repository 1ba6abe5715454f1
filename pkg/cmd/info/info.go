package info

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/f1data/telemetry-service/pkg/cmd/util"
	"github.com/f1data/telemetry-service/pkg/lookup"
	"github.com/f1data/telemetry-service/pkg/model"
	"github.com/f1data/telemetry-service/pkg/service/info"
)

func NewInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "shows reference data",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "drivers",
			Short: "lists the known drivers",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				renderDrivers(cmd.OutOrStdout(), lookup.AllDrivers())
			},
		},
		&cobra.Command{
			Use:   "channels",
			Short: "lists the telemetry channels",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				renderChannels(cmd.OutOrStdout(), lookup.AllChannels())
			},
		},
		&cobra.Command{
			Use:   "events",
			Short: "lists the events stored in the database",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withService(cmd.Context(), func(ctx context.Context, svc *info.Service) error {
					events, err := svc.Events(ctx)
					if err != nil {
						return err
					}
					renderEvents(cmd.OutOrStdout(), events)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "sessions <eventId>",
			Short: "lists the sessions of an event",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withService(cmd.Context(), func(ctx context.Context, svc *info.Service) error {
					sessions, err := svc.Sessions(ctx, args[0])
					if err != nil {
						return err
					}
					renderSessions(cmd.OutOrStdout(), sessions)
					return nil
				})
			},
		},
	)
	return cmd
}

//nolint:whitespace // editor/linter issue
func withService(
	ctx context.Context,
	fn func(ctx context.Context, svc *info.Service) error,
) error {
	if ctx == nil {
		ctx = context.Background()
	}
	sqlLogger := util.SetupLogger()
	util.WaitForRequiredServices()
	store, err := util.OpenStore(ctx, sqlLogger, false)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(ctx, info.NewService(store))
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	if w == nil {
		w = os.Stdout
	}
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	return t
}

func renderDrivers(w io.Writer, drivers []model.Driver) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Number", "Abbreviation", "Team"})
	for _, d := range drivers {
		t.AppendRow(table.Row{d.Number, d.Abbreviation, d.Team})
	}
	t.Render()
}

func renderChannels(w io.Writer, channels []model.Channel) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Id", "Name"})
	for _, c := range channels {
		t.AppendRow(table.Row{c.ID, c.Name})
	}
	t.Render()
}

func renderEvents(w io.Writer, events []model.Event) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Id", "Name"})
	for _, e := range events {
		t.AppendRow(table.Row{e.ID, e.Name})
	}
	t.Render()
}

func renderSessions(w io.Writer, sessions []model.Session) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Id", "Name", "Date", "Start", "End"})
	for _, s := range sessions {
		t.AppendRow(table.Row{s.ID, s.Name, s.Date.String(), optTime(s.StartTime), optTime(s.EndTime)})
	}
	t.Render()
}

func optTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}
