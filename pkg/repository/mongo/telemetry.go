//nolint:whitespace // can't make both editor and linter happy
package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/f1data/telemetry-service/pkg/model"
	"github.com/f1data/telemetry-service/pkg/repository/api"
)

func (s *store) FindTelemetry(
	ctx context.Context,
	ns string,
	lapID int64,
	channels []string,
) ([]model.TelemetrySample, error) {
	projection := bson.M{"_id": 0}
	if len(channels) > 0 {
		projection[model.FieldLapID] = 1
		projection[model.FieldSessionTime] = 1
		for _, c := range channels {
			projection[c] = 1
		}
	}
	docs, err := s.find(ctx, s.collection(ns, api.CollectionTelemetry),
		bson.M{model.FieldLapID: lapID},
		options.Find().
			SetProjection(projection).
			SetSort(bson.D{{Key: model.FieldSessionTime, Value: 1}}))
	if err != nil {
		return nil, err
	}
	ret := make([]model.TelemetrySample, len(docs))
	for i := range docs {
		if ret[i], err = model.TelemetrySampleFromDocument(docs[i]); err != nil {
			return nil, fmt.Errorf("namespace %s: %w", ns, err)
		}
	}
	return ret, nil
}
