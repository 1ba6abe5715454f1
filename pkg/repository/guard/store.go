//nolint:whitespace // can't make both editor and linter happy
package guard

import (
	"context"
	"time"

	"github.com/f1data/telemetry-service/pkg/model"
	"github.com/f1data/telemetry-service/pkg/repository/api"
)

func (s *store) FindEvents(ctx context.Context, filter api.EventFilter) (
	[]model.Event, error,
) {
	return execute(ctx, s, "find events",
		func(ctx context.Context) ([]model.Event, error) {
			return s.next.FindEvents(ctx, filter)
		})
}

func (s *store) FindSessions(ctx context.Context, filter api.SessionFilter) (
	[]model.Session, error,
) {
	return execute(ctx, s, "find sessions",
		func(ctx context.Context) ([]model.Session, error) {
			return s.next.FindSessions(ctx, filter)
		})
}

func (s *store) GetSessionField(ctx context.Context, sessionID, field string) (
	any, error,
) {
	return execute(ctx, s, "get session field",
		func(ctx context.Context) (any, error) {
			return s.next.GetSessionField(ctx, sessionID, field)
		})
}

func (s *store) FindTimingByLapNumber(
	ctx context.Context, ns, driverNumber string, laps []int,
) ([]model.TimingRecord, error) {
	return execute(ctx, s, "find timing by lap number",
		func(ctx context.Context) ([]model.TimingRecord, error) {
			return s.next.FindTimingByLapNumber(ctx, ns, driverNumber, laps)
		})
}

func (s *store) FindFastestLap(
	ctx context.Context, ns, driverNumber string,
) ([]model.TimingRecord, error) {
	return execute(ctx, s, "find fastest lap",
		func(ctx context.Context) ([]model.TimingRecord, error) {
			return s.next.FindFastestLap(ctx, ns, driverNumber)
		})
}

func (s *store) FindTimingByTimeRange(
	ctx context.Context, ns, driverNumber string, r model.TimeRange,
) ([]model.TimingRecord, error) {
	return execute(ctx, s, "find timing by time range",
		func(ctx context.Context) ([]model.TimingRecord, error) {
			return s.next.FindTimingByTimeRange(ctx, ns, driverNumber, r)
		})
}

func (s *store) FindTelemetry(
	ctx context.Context, ns string, lapID int64, channels []string,
) ([]model.TelemetrySample, error) {
	return execute(ctx, s, "find telemetry",
		func(ctx context.Context) ([]model.TelemetrySample, error) {
			return s.next.FindTelemetry(ctx, ns, lapID, channels)
		})
}

func (s *store) FindTimeRange(
	ctx context.Context,
	ns, carNumber, dataType, channel string,
	start, end time.Time,
) ([]model.Document, error) {
	return execute(ctx, s, "find time range",
		func(ctx context.Context) ([]model.Document, error) {
			return s.next.FindTimeRange(ctx, ns, carNumber, dataType, channel, start, end)
		})
}

func (s *store) InsertMany(
	ctx context.Context, ns, collection string, docs []model.Document,
) error {
	_, err := execute(ctx, s, "insert many",
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, s.next.InsertMany(ctx, ns, collection, docs)
		})
	return err
}

func (s *store) DropCollection(ctx context.Context, ns, collection string) error {
	_, err := execute(ctx, s, "drop collection",
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, s.next.DropCollection(ctx, ns, collection)
		})
	return err
}

func (s *store) UpsertEvent(ctx context.Context, event model.Event) error {
	_, err := execute(ctx, s, "upsert event",
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, s.next.UpsertEvent(ctx, event)
		})
	return err
}

func (s *store) UpsertSession(
	ctx context.Context, session model.Session, extra model.Document,
) error {
	_, err := execute(ctx, s, "upsert session",
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, s.next.UpsertSession(ctx, session, extra)
		})
	return err
}

// RunInTx is not limited by the call timeout, the calls within fn are.
func (s *store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return api.RunInTx(ctx, s.next, fn)
}

func (s *store) Close() {
	s.next.Close()
}
