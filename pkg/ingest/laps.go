package ingest

import (
	"context"
	"fmt"
	"io"

	"github.com/goccy/go-json"

	"github.com/f1data/telemetry-service/log"
	"github.com/f1data/telemetry-service/pkg/model"
	"github.com/f1data/telemetry-service/pkg/repository/api"
)

// Laps reads a JSON array of lap documents and stores them in the timing
// collection of ns. Laps without _id get their position in the file.
// LapEndDate is computed, missing lap times and boundaries become "inf".
//
//nolint:whitespace // editor/linter issue
func (i *Ingester) Laps(
	ctx context.Context, ns string, r io.Reader, drop bool,
) (int, error) {
	var raw []model.Document
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return 0, fmt.Errorf("laps: %w", err)
	}
	docs := make([]model.Document, 0, len(raw))
	for idx, d := range raw {
		if _, ok := d[model.FieldID]; !ok {
			d[model.FieldID] = idx
		}
		rec, err := model.TimingRecordFromDocument(d)
		if err != nil {
			return 0, fmt.Errorf("laps: entry %d: %w", idx, err)
		}
		rec.ComputeLapEnd()
		docs = append(docs, rec.Document())
	}
	i.log.Info("laps read", log.String("namespace", ns), log.Int("laps", len(docs)))

	err := api.RunInTx(ctx, i.store, func(ctx context.Context) error {
		return i.insert(ctx, ns, api.CollectionTiming, docs, drop)
	})
	if err != nil {
		return 0, err
	}
	return len(docs), nil
}
