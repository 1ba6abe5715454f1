// Package api defines the data access facade used by the query layer,
// the info endpoints and the ingestion.
package api

import (
	"context"
	"fmt"
	"time"

	"github.com/f1data/telemetry-service/pkg/model"
)

// well known collection names within a session namespace
const (
	CollectionTiming    = "timingdata"
	CollectionTelemetry = "telemetry"
)

// CarCollection returns the legacy per car collection name, e.g. "44-data".
func CarCollection(carNumber, dataType string) string {
	return fmt.Sprintf("%s-%s", carNumber, dataType)
}

type EventFilter struct {
	ID   string
	Name string
}

type SessionFilter struct {
	ID      string
	EventID string
}

type Store interface {
	FindEvents(ctx context.Context, filter EventFilter) ([]model.Event, error)
	FindSessions(ctx context.Context, filter SessionFilter) ([]model.Session, error)
	// GetSessionField returns a single (possibly nested, dot separated) field
	// of the session document. model.ErrNotFound if session or field is absent.
	GetSessionField(ctx context.Context, sessionID, field string) (any, error)

	FindTimingByLapNumber(
		ctx context.Context, ns, driverNumber string, laps []int,
	) ([]model.TimingRecord, error)
	// FindFastestLap returns at most one record. Laps without lap time sort last.
	FindFastestLap(
		ctx context.Context, ns, driverNumber string,
	) ([]model.TimingRecord, error)
	FindTimingByTimeRange(
		ctx context.Context, ns, driverNumber string, r model.TimeRange,
	) ([]model.TimingRecord, error)
	// FindTelemetry returns the samples of a lap ordered by session time,
	// restricted to the given channels (all channels if empty).
	FindTelemetry(
		ctx context.Context, ns string, lapID int64, channels []string,
	) ([]model.TelemetrySample, error)
	// FindTimeRange queries a legacy per car collection for start <= time < end.
	FindTimeRange(
		ctx context.Context, ns, carNumber, dataType, channel string, start, end time.Time,
	) ([]model.Document, error)

	InsertMany(ctx context.Context, ns, collection string, docs []model.Document) error
	DropCollection(ctx context.Context, ns, collection string) error
	UpsertEvent(ctx context.Context, event model.Event) error
	UpsertSession(ctx context.Context, session model.Session, extra model.Document) error

	Close()
}

// TxRunner is implemented by stores supporting transactions. Store writes
// using the ctx passed to fn are part of the transaction.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// RunInTx uses a transaction if s supports them, otherwise fn is called directly.
func RunInTx(ctx context.Context, s Store, fn func(ctx context.Context) error) error {
	if tx, ok := s.(TxRunner); ok {
		return tx.RunInTx(ctx, fn)
	}
	return fn(ctx)
}

// FindTiming validates the selection and dispatches to the matching query.
func FindTiming(
	ctx context.Context, s Store, ns, driverNumber string, sel model.Selection,
) ([]model.TimingRecord, error) {
	switch sel.Kind {
	case model.SelectFastest:
		return s.FindFastestLap(ctx, ns, driverNumber)
	case model.SelectLaps:
		if len(sel.Laps) == 0 {
			return nil, fmt.Errorf("%w: no lap numbers", model.ErrInvalidSelection)
		}
		return s.FindTimingByLapNumber(ctx, ns, driverNumber, sel.Laps)
	case model.SelectTimeRange:
		if err := sel.Range.Validate(); err != nil {
			return nil, err
		}
		return s.FindTimingByTimeRange(ctx, ns, driverNumber, sel.Range)
	default:
		return nil, fmt.Errorf("%w: unknown selection %v", model.ErrInvalidSelection, sel.Kind)
	}
}
