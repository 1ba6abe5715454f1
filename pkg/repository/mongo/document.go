//nolint:whitespace // can't make both editor and linter happy
package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/f1data/telemetry-service/log"
	"github.com/f1data/telemetry-service/pkg/model"
	"github.com/f1data/telemetry-service/pkg/repository/api"
)

const carTimeField = "time"

func (s *store) InsertMany(
	ctx context.Context,
	ns, collection string,
	docs []model.Document,
) error {
	if len(docs) == 0 {
		return nil
	}
	items := make([]any, len(docs))
	for i := range docs {
		items[i] = bson.M(docs[i])
	}
	res, err := s.collection(ns, collection).InsertMany(ctx, items)
	if err != nil {
		return translateError(err)
	}
	s.log.Debug("inserted documents",
		log.String("namespace", ns),
		log.String("collection", collection),
		log.Int("count", len(res.InsertedIDs)))
	return nil
}

func (s *store) DropCollection(ctx context.Context, ns, collection string) error {
	return translateError(s.collection(ns, collection).Drop(ctx))
}

func (s *store) FindTimeRange(
	ctx context.Context,
	ns, carNumber, dataType, channel string,
	start, end time.Time,
) ([]model.Document, error) {
	return s.find(ctx, s.collection(ns, api.CarCollection(carNumber, dataType)),
		bson.M{carTimeField: bson.M{"$gte": start, "$lt": end}},
		options.Find().
			SetProjection(bson.M{"_id": 0, carTimeField: 1, channel: 1}).
			SetSort(bson.D{{Key: carTimeField, Value: 1}}))
}
