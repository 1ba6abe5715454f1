package ingest

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/samber/lo"

	"github.com/f1data/telemetry-service/log"
	"github.com/f1data/telemetry-service/pkg/model"
	"github.com/f1data/telemetry-service/pkg/repository/api"
)

// Telemetry reads a JSON object mapping lap ids to sample arrays and stores
// the samples in the telemetry collection of ns. Each sample gets its LapId.
// Laps are inserted one by one in ascending lap id order.
//
//nolint:whitespace // editor/linter issue
func (i *Ingester) Telemetry(
	ctx context.Context, ns string, r io.Reader, drop bool,
) (int, error) {
	var raw map[string][]model.Document
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return 0, fmt.Errorf("telemetry: %w", err)
	}
	lapIDs := make([]int64, 0, len(raw))
	byID := make(map[int64][]model.Document, len(raw))
	for k, v := range raw {
		id, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("telemetry: invalid lap id %q", k)
		}
		lapIDs = append(lapIDs, id)
		byID[id] = v
	}
	slices.Sort(lapIDs)

	if drop {
		if err := i.store.DropCollection(ctx, ns, api.CollectionTelemetry); err != nil {
			return 0, fmt.Errorf("drop %s/%s: %w", ns, api.CollectionTelemetry, err)
		}
	}
	total := 0
	for n, lapID := range lapIDs {
		samples := byID[lapID]
		if len(samples) == 0 {
			continue
		}
		docs := make([]model.Document, 0, len(samples))
		for idx, s := range samples {
			s[model.FieldLapID] = lapID
			if _, err := model.TelemetrySampleFromDocument(s); err != nil {
				return total, fmt.Errorf("telemetry: lap %d sample %d: %w", lapID, idx, err)
			}
			docs = append(docs, s)
		}
		if err := i.insert(ctx, ns, api.CollectionTelemetry, docs, false); err != nil {
			return total, fmt.Errorf("lap %d: %w", lapID, err)
		}
		total += len(docs)
		i.log.Info("lap telemetry inserted",
			log.Int64("lapId", lapID),
			log.Int("samples", len(docs)),
			log.String("progress", fmt.Sprintf("%d/%d", n+1, len(lapIDs))))
	}
	i.log.Info("telemetry done",
		log.String("namespace", ns),
		log.Int("laps", len(lo.Filter(lapIDs, func(id int64, _ int) bool {
			return len(byID[id]) > 0
		}))),
		log.Int("samples", total))
	return total, nil
}
