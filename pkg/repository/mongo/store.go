// Package mongo implements the data access facade on top of MongoDB using the
// original layout: events and sessions in the F1Info database, one database
// per session namespace for timing, telemetry and the per car collections.
// Missing lap times and lap boundaries are stored as the string "inf".
package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/f1data/telemetry-service/log"
	"github.com/f1data/telemetry-service/pkg/model"
	"github.com/f1data/telemetry-service/pkg/repository/api"
)

const (
	infoDatabase       = "F1Info"
	eventsCollection   = "Events"
	sessionsCollection = "Sessions"
)

type (
	store struct {
		client *mongo.Client
		log    *log.Logger
	}
	Option func(s *store)
)

var _ api.Store = (*store)(nil)

func WithLogger(l *log.Logger) Option {
	return func(s *store) {
		s.log = l
	}
}

// New connects to the mongodb referenced by uri.
func New(ctx context.Context, uri string, opts ...Option) (api.Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Join(model.ErrStoreUnavailable, err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, translateError(err)
	}
	s := &store{
		client: client,
		log:    log.Default().Named("store.mongo"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *store) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.client.Disconnect(ctx); err != nil {
		s.log.Warn("disconnect", log.ErrorField(err))
	}
}

func (s *store) collection(ns, name string) *mongo.Collection {
	return s.client.Database(ns).Collection(name)
}

func (s *store) info(name string) *mongo.Collection {
	return s.client.Database(infoDatabase).Collection(name)
}

// find runs the query and returns the normalized documents.
func (s *store) find(
	ctx context.Context,
	coll *mongo.Collection,
	filter any,
	opts ...*options.FindOptions,
) ([]model.Document, error) {
	cursor, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, translateError(err)
	}
	defer cursor.Close(ctx)
	ret := make([]model.Document, 0)
	for cursor.Next(ctx) {
		var raw bson.M
		if err := cursor.Decode(&raw); err != nil {
			return nil, err
		}
		ret = append(ret, normalizeDocument(raw))
	}
	if err := cursor.Err(); err != nil {
		return nil, translateError(err)
	}
	return ret, nil
}

func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return errors.Join(model.ErrNotFound, err)
	case errors.Is(err, context.DeadlineExceeded), mongo.IsTimeout(err):
		return errors.Join(model.ErrStoreTimeout, err)
	case mongo.IsNetworkError(err):
		return errors.Join(model.ErrStoreUnavailable, err)
	default:
		return err
	}
}

// normalizeDocument converts the driver specific types into plain maps,
// slices and time values.
func normalizeDocument(m bson.M) model.Document {
	ret := make(model.Document, len(m))
	for k, v := range m {
		ret[k] = normalize(v)
	}
	return ret
}

func normalize(v any) any {
	switch x := v.(type) {
	case bson.M:
		return map[string]any(normalizeDocument(x))
	case bson.D:
		ret := make(map[string]any, len(x))
		for _, e := range x {
			ret[e.Key] = normalize(e.Value)
		}
		return ret
	case bson.A:
		ret := make([]any, len(x))
		for i := range x {
			ret[i] = normalize(x[i])
		}
		return ret
	case primitive.DateTime:
		return x.Time().UTC()
	case primitive.ObjectID:
		return x.Hex()
	default:
		return v
	}
}
