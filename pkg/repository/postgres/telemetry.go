//nolint:whitespace // can't make both editor and linter happy
package postgres

import (
	"context"

	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/scan"

	"github.com/f1data/telemetry-service/pkg/db/mytypes"
	"github.com/f1data/telemetry-service/pkg/model"
)

type telemetryRow struct {
	SessionTime float64              `db:"session_time"`
	Channels    mytypes.JSONDocument `db:"channels"`
}

// the channel projection is done by the database, an empty channel list
// keeps all channels
//
//nolint:lll // readability
const telemetrySQL = `
select t.session_time,
       coalesce((select jsonb_object_agg(c.key, c.value)
                 from jsonb_each(t.channels) c
                 where cardinality(?::text[]) = 0 or c.key = any(?::text[])),
                '{}'::jsonb) as channels
from telemetry t
where t.namespace = ? and t.lap_id = ?
order by t.session_time`

func (s *store) FindTelemetry(
	ctx context.Context,
	ns string,
	lapID int64,
	channels []string,
) ([]model.TelemetrySample, error) {
	if channels == nil {
		channels = []string{}
	}
	q := psql.RawQuery(telemetrySQL,
		psql.Arg(channels),
		psql.Arg(channels),
		psql.Arg(ns),
		psql.Arg(lapID),
	)
	rows, err := bob.All(ctx, s.db, q, scan.StructMapper[telemetryRow]())
	if err != nil {
		return nil, translateError(err)
	}
	ret := make([]model.TelemetrySample, len(rows))
	for i := range rows {
		ret[i] = model.TelemetrySample{
			LapID:       lapID,
			SessionTime: rows[i].SessionTime,
			Channels:    map[string]any(rows[i].Channels),
		}
		if ret[i].Channels == nil {
			ret[i].Channels = map[string]any{}
		}
	}
	return ret, nil
}
