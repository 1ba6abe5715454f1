//nolint:whitespace // can't make both editor and linter happy
package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/f1data/telemetry-service/pkg/model"
	"github.com/f1data/telemetry-service/pkg/repository/api"
)

func (s *store) FindEvents(ctx context.Context, filter api.EventFilter) (
	[]model.Event, error,
) {
	query := bson.M{}
	if filter.ID != "" {
		query["id"] = filter.ID
	}
	if filter.Name != "" {
		query["name"] = filter.Name
	}
	docs, err := s.find(ctx, s.info(eventsCollection), query,
		options.Find().
			SetProjection(bson.M{"_id": 0, "id": 1, "name": 1}).
			SetSort(bson.D{{Key: "id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	ret := make([]model.Event, len(docs))
	for i := range docs {
		ret[i] = model.Event{
			ID:   stringValue(docs[i]["id"]),
			Name: stringValue(docs[i]["name"]),
		}
	}
	return ret, nil
}

func (s *store) FindSessions(ctx context.Context, filter api.SessionFilter) (
	[]model.Session, error,
) {
	query := bson.M{}
	if filter.ID != "" {
		query[api.SessionFieldID] = filter.ID
	}
	if filter.EventID != "" {
		query[api.SessionFieldEventID] = filter.EventID
	}
	docs, err := s.find(ctx, s.info(sessionsCollection), query,
		options.Find().
			SetProjection(bson.M{
				"_id":                     0,
				api.SessionFieldID:        1,
				api.SessionFieldEventID:   1,
				api.SessionFieldName:      1,
				api.SessionFieldDate:      1,
				api.SessionFieldStartTime: 1,
				api.SessionFieldEndTime:   1,
			}).
			SetSort(bson.D{
				{Key: api.SessionFieldDate, Value: 1},
				{Key: api.SessionFieldID, Value: 1},
			}))
	if err != nil {
		return nil, err
	}
	ret := make([]model.Session, len(docs))
	for i := range docs {
		ret[i] = toSession(docs[i])
	}
	return ret, nil
}

func toSession(doc model.Document) model.Session {
	ret := model.Session{
		ID:      stringValue(doc[api.SessionFieldID]),
		EventID: stringValue(doc[api.SessionFieldEventID]),
		Name:    stringValue(doc[api.SessionFieldName]),
	}
	switch d := doc[api.SessionFieldDate].(type) {
	case string:
		if parsed, err := model.ParseDate(d); err == nil {
			ret.Date = parsed
		}
	default:
		if t, ok := doc.Time(api.SessionFieldDate); ok {
			ret.Date = model.NewDate(t.Year(), t.Month(), t.Day())
		}
	}
	if t, ok := doc.Time(api.SessionFieldStartTime); ok {
		ret.StartTime = &t
	}
	if t, ok := doc.Time(api.SessionFieldEndTime); ok {
		ret.EndTime = &t
	}
	return ret
}

func stringValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func (s *store) GetSessionField(ctx context.Context, sessionID, field string) (
	any, error,
) {
	var raw bson.M
	err := s.info(sessionsCollection).
		FindOne(ctx, bson.M{api.SessionFieldID: sessionID}).
		Decode(&raw)
	if err != nil {
		return nil, translateError(err)
	}
	return api.LookupField(normalizeDocument(raw), field)
}

func (s *store) UpsertEvent(ctx context.Context, event model.Event) error {
	_, err := s.info(eventsCollection).UpdateOne(ctx,
		bson.M{"id": event.ID},
		bson.M{"$set": bson.M{"id": event.ID, "name": event.Name}},
		options.Update().SetUpsert(true))
	return translateError(err)
}

func (s *store) UpsertSession(
	ctx context.Context,
	session model.Session,
	extra model.Document,
) error {
	_, err := s.info(sessionsCollection).ReplaceOne(ctx,
		bson.M{api.SessionFieldID: session.ID},
		bson.M(api.SessionDocument(session, extra)),
		options.Replace().SetUpsert(true))
	return translateError(err)
}
