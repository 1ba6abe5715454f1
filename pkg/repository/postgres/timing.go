//nolint:whitespace // can't make both editor and linter happy
package postgres

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dialect"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/scan"

	"github.com/f1data/telemetry-service/pkg/db/mytypes"
	"github.com/f1data/telemetry-service/pkg/model"
)

type timingRow struct {
	Doc mytypes.JSONDocument `db:"doc"`
}

func (s *store) FindTimingByLapNumber(
	ctx context.Context,
	ns, driverNumber string,
	laps []int,
) ([]model.TimingRecord, error) {
	if len(laps) == 0 {
		return []model.TimingRecord{}, nil
	}
	return s.findTiming(ctx, ns, driverNumber,
		sm.Where(psql.Quote("lap_number").In(psql.Arg(lo.ToAnySlice(laps)...))),
		sm.OrderBy("lap_number").Asc(),
	)
}

// lap_time is null for laps without lap time, ascending order puts them last
func (s *store) FindFastestLap(
	ctx context.Context,
	ns, driverNumber string,
) ([]model.TimingRecord, error) {
	return s.findTiming(ctx, ns, driverNumber,
		sm.OrderBy("lap_time").Asc(),
		sm.OrderBy("lap_number").Asc(),
		sm.Limit(1),
	)
}

// Missing lap boundaries are stored as null and never match a range condition.
func (s *store) FindTimingByTimeRange(
	ctx context.Context,
	ns, driverNumber string,
	r model.TimeRange,
) ([]model.TimingRecord, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	sqlMods := make(bob.Mods[*dialect.SelectQuery], 0)
	inRange := func(col string) {
		sqlMods = append(sqlMods,
			sm.Where(psql.Quote(col).GTE(psql.Arg(r.Start))),
			sm.Where(psql.Quote(col).LTE(psql.Arg(r.End))),
		)
	}
	if r.StartsIn {
		inRange("lap_start_date")
	}
	if r.EndsIn {
		inRange("lap_end_date")
	}
	sqlMods = append(sqlMods, sm.OrderBy("lap_number").Asc())
	return s.findTiming(ctx, ns, driverNumber, sqlMods...)
}

func (s *store) findTiming(
	ctx context.Context,
	ns, driverNumber string,
	mods ...bob.Mod[*dialect.SelectQuery],
) ([]model.TimingRecord, error) {
	sqlMods := make(bob.Mods[*dialect.SelectQuery], 0, len(mods)+4)
	sqlMods = append(sqlMods,
		sm.Columns("doc"),
		sm.From("timing"),
		sm.Where(psql.Quote("namespace").EQ(psql.Arg(ns))),
		sm.Where(psql.Quote("driver_number").EQ(psql.Arg(driverNumber))),
	)
	sqlMods = append(sqlMods, mods...)
	rows, err := bob.All(ctx, s.db, psql.Select(sqlMods...),
		scan.StructMapper[timingRow]())
	if err != nil {
		return nil, translateError(err)
	}
	ret := make([]model.TimingRecord, 0, len(rows))
	for i := range rows {
		rec, err := model.TimingRecordFromDocument(model.Document(rows[i].Doc))
		if err != nil {
			return nil, fmt.Errorf("namespace %s: %w", ns, err)
		}
		ret = append(ret, *rec)
	}
	return ret, nil
}
