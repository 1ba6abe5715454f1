//nolint:whitespace // can't make both editor and linter happy
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/scan"

	"github.com/f1data/telemetry-service/log"
	"github.com/f1data/telemetry-service/pkg/db/mytypes"
	"github.com/f1data/telemetry-service/pkg/model"
	"github.com/f1data/telemetry-service/pkg/repository/api"
)

// key of the timestamp within legacy per car documents
const carTimeField = "time"

type (
	collectionKind int
	carRow         struct {
		Time time.Time            `db:"time"`
		Doc  mytypes.JSONDocument `db:"doc"`
	}
)

const (
	kindDocument collectionKind = iota
	kindTiming
	kindTelemetry
	kindCar
)

func kindOf(collection string) collectionKind {
	switch {
	case collection == api.CollectionTiming:
		return kindTiming
	case collection == api.CollectionTelemetry:
		return kindTelemetry
	case carCollectionRegex.MatchString(collection):
		return kindCar
	default:
		return kindDocument
	}
}

// InsertMany routes the documents to the table backing collection.
// Documents are not validated beyond what is needed to fill the key columns.
func (s *store) InsertMany(
	ctx context.Context,
	ns, collection string,
	docs []model.Document,
) error {
	if len(docs) == 0 {
		return nil
	}
	var (
		table   string
		columns []string
		rows    [][]any
		err     error
	)
	switch kindOf(collection) {
	case kindTiming:
		table = "timing"
		columns = []string{
			"namespace", "id", "driver_number", "lap_number",
			"lap_time", "lap_start_date", "lap_end_date", "doc",
		}
		rows, err = timingRows(ns, docs)
	case kindTelemetry:
		table = "telemetry"
		columns = []string{"namespace", "lap_id", "session_time", "channels"}
		rows, err = telemetryRows(ns, docs)
	case kindCar:
		table = "car_data"
		columns = []string{"namespace", "collection", "time", "doc"}
		rows, err = carRows(ns, collection, docs)
	default:
		table = "document"
		columns = []string{"namespace", "collection", "doc"}
		rows = make([][]any, len(docs))
		for i := range docs {
			rows[i] = []any{ns, collection, map[string]any(docs[i])}
		}
	}
	if err != nil {
		return fmt.Errorf("%s/%s: %w", ns, collection, err)
	}
	n, err := s.querier(ctx).CopyFrom(ctx,
		pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return translateError(err)
	}
	s.log.Debug("inserted documents",
		log.String("namespace", ns),
		log.String("collection", collection),
		log.Int64("count", n))
	return nil
}

func timingRows(ns string, docs []model.Document) ([][]any, error) {
	rows := make([][]any, len(docs))
	for i := range docs {
		rec, err := model.TimingRecordFromDocument(docs[i])
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		rows[i] = []any{
			ns, rec.ID, rec.DriverNumber, rec.LapNumber,
			rec.LapTime.Ptr(), rec.LapStartDate.Ptr(), rec.LapEndDate.Ptr(),
			map[string]any(docs[i]),
		}
	}
	return rows, nil
}

func telemetryRows(ns string, docs []model.Document) ([][]any, error) {
	rows := make([][]any, len(docs))
	for i := range docs {
		sample, err := model.TelemetrySampleFromDocument(docs[i])
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		rows[i] = []any{ns, sample.LapID, sample.SessionTime, sample.Channels}
	}
	return rows, nil
}

func carRows(ns, collection string, docs []model.Document) ([][]any, error) {
	rows := make([][]any, len(docs))
	for i := range docs {
		t, ok := docs[i].Time(carTimeField)
		if !ok {
			return nil, fmt.Errorf("document %d: invalid %s %v",
				i, carTimeField, docs[i][carTimeField])
		}
		rows[i] = []any{ns, collection, t, map[string]any(docs[i])}
	}
	return rows, nil
}

func (s *store) DropCollection(ctx context.Context, ns, collection string) error {
	var (
		sql  string
		args = []any{ns}
	)
	switch kindOf(collection) {
	case kindTiming:
		sql = "delete from timing where namespace=$1"
	case kindTelemetry:
		sql = "delete from telemetry where namespace=$1"
	case kindCar:
		sql = "delete from car_data where namespace=$1 and collection=$2"
		args = append(args, collection)
	default:
		sql = "delete from document where namespace=$1 and collection=$2"
		args = append(args, collection)
	}
	cmdTag, err := s.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return translateError(err)
	}
	s.log.Debug("dropped collection",
		log.String("namespace", ns),
		log.String("collection", collection),
		log.Int64("rows", cmdTag.RowsAffected()))
	return nil
}

// FindTimeRange returns the time and the requested channel of the per car
// documents with start <= time < end.
func (s *store) FindTimeRange(
	ctx context.Context,
	ns, carNumber, dataType, channel string,
	start, end time.Time,
) ([]model.Document, error) {
	q := psql.Select(
		sm.Columns("time", "doc"),
		sm.From("car_data"),
		sm.Where(psql.Quote("namespace").EQ(psql.Arg(ns))),
		sm.Where(psql.Quote("collection").EQ(psql.Arg(api.CarCollection(carNumber, dataType)))),
		sm.Where(psql.Quote("time").GTE(psql.Arg(start))),
		sm.Where(psql.Quote("time").LT(psql.Arg(end))),
		sm.OrderBy("time").Asc(),
	)
	rows, err := bob.All(ctx, s.db, q, scan.StructMapper[carRow]())
	if err != nil {
		return nil, translateError(err)
	}
	ret := make([]model.Document, len(rows))
	for i := range rows {
		doc := model.Document{carTimeField: rows[i].Time.UTC()}
		if v, ok := rows[i].Doc[channel]; ok {
			doc[channel] = v
		}
		ret[i] = doc
	}
	return ret, nil
}
