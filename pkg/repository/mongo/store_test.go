//nolint:funlen // ok for this test code
package mongo

import (
	"context"
	"errors"
	"log"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"gotest.tools/v3/assert"

	"github.com/f1data/telemetry-service/pkg/model"
	"github.com/f1data/telemetry-service/pkg/repository/api"
	"github.com/f1data/telemetry-service/testsupport/tcmongo"
)

var lapStart = time.Date(2019, 7, 14, 13, 10, 0, 0, time.UTC)

func f(v float64) *float64 { return &v }

func lap(id int64, number int, lapTime *float64, startOffset time.Duration) model.Document {
	r := model.TimingRecord{
		ID:           id,
		DriverNumber: "44",
		LapNumber:    number,
		LapTime:      model.InfFromPtr(lapTime),
		LapStartDate: model.Value(lapStart.Add(startOffset)),
		Driver:       "HAM",
	}
	r.ComputeLapEnd()
	return r.Document()
}

// each test gets its own namespace, the info collections are shared
func setupStore(t *testing.T) (api.Store, string) {
	t.Helper()
	ctx := context.Background()
	s, err := New(ctx, tcmongo.SetupTestMongo())
	if err != nil {
		log.Fatalf("setupStore: %v", err)
	}
	ns := uuid.NewString()
	t.Cleanup(func() {
		_ = s.DropCollection(ctx, ns, api.CollectionTiming)
		_ = s.DropCollection(ctx, ns, api.CollectionTelemetry)
		s.Close()
	})
	// lap 1 has no lap time and is stored with "inf"
	timing := []model.Document{
		lap(1, 1, nil, 0),
		lap(2, 2, f(91.2), 100*time.Second),
		lap(3, 3, f(92.5), 192*time.Second),
	}
	assert.NilError(t, s.InsertMany(ctx, ns, api.CollectionTiming, timing))
	telemetry := []model.Document{
		{"LapId": int64(2), "SessionTime": 3600.1, "Speed": 280.0, "RPM": 11000.0},
		{"LapId": int64(2), "SessionTime": 3600.0, "Speed": 279.0, "RPM": 10900.0},
	}
	assert.NilError(t, s.InsertMany(ctx, ns, api.CollectionTelemetry, telemetry))
	return s, ns
}

func TestFindFastestLapSkipsInf(t *testing.T) {
	s, ns := setupStore(t)
	res, err := s.FindFastestLap(context.Background(), ns, "44")
	assert.NilError(t, err)
	assert.Equal(t, len(res), 1)
	assert.Equal(t, res[0].LapNumber, 2)
}

func TestFindTiming(t *testing.T) {
	s, ns := setupStore(t)
	ctx := context.Background()

	res, err := s.FindTimingByLapNumber(ctx, ns, "44", []int{3, 1, 9})
	assert.NilError(t, err)
	assert.Equal(t, len(res), 2)
	assert.Equal(t, res[0].LapNumber, 1)
	assert.Assert(t, res[0].LapTime.IsMissing())
	assert.Assert(t, res[0].LapEndDate.IsMissing())
	assert.Equal(t, res[1].LapNumber, 3)

	res, err = s.FindTimingByTimeRange(ctx, ns, "44", model.TimeRange{
		Start: lapStart, End: lapStart.Add(200 * time.Second), EndsIn: true,
	})
	assert.NilError(t, err)
	assert.Equal(t, len(res), 1)
	assert.Equal(t, res[0].LapNumber, 2)

	res, err = s.FindTimingByTimeRange(ctx, ns, "44", model.TimeRange{
		Start: lapStart, End: lapStart.Add(200 * time.Second), StartsIn: true,
	})
	assert.NilError(t, err)
	assert.Equal(t, len(res), 3)
}

func TestFindTelemetry(t *testing.T) {
	s, ns := setupStore(t)
	res, err := s.FindTelemetry(context.Background(), ns, 2, []string{"Speed"})
	assert.NilError(t, err)
	assert.DeepEqual(t, res, []model.TelemetrySample{
		{LapID: 2, SessionTime: 3600.0, Channels: map[string]any{"Speed": 279.0}},
		{LapID: 2, SessionTime: 3600.1, Channels: map[string]any{"Speed": 280.0}},
	})
}

func TestSessionField(t *testing.T) {
	s, _ := setupStore(t)
	ctx := context.Background()
	id := uuid.NewString()
	assert.NilError(t, s.UpsertSession(ctx, model.Session{
		ID: id, EventID: "2019-10", Name: "Race", Date: model.NewDate(2019, 7, 14),
	}, model.Document{"weather": map[string]any{"airTemp": 21.5}}))

	v, err := s.GetSessionField(ctx, id, "weather.airTemp")
	assert.NilError(t, err)
	assert.Equal(t, v, 21.5)

	sessions, err := s.FindSessions(ctx, api.SessionFilter{ID: id})
	assert.NilError(t, err)
	assert.Equal(t, len(sessions), 1)
	assert.Equal(t, sessions[0].Date.String(), "2019-07-14")

	_, err = s.GetSessionField(ctx, uuid.NewString(), "name")
	assert.Assert(t, errors.Is(err, model.ErrNotFound))
}

// sessions written by the legacy ingestion carry the event reference as "eventid"
func TestFindSessionsByLegacyEventID(t *testing.T) {
	s, _ := setupStore(t)
	ctx := context.Background()
	eventID := uuid.NewString()
	id := uuid.NewString()
	ms := s.(*store)
	_, err := ms.info(sessionsCollection).InsertOne(ctx, bson.M{
		"id": id, "eventid": eventID, "name": "Qualifying", "date": "2019-07-13",
	})
	assert.NilError(t, err)
	t.Cleanup(func() {
		_, _ = ms.info(sessionsCollection).DeleteOne(ctx, bson.M{"id": id})
	})

	sessions, err := s.FindSessions(ctx, api.SessionFilter{EventID: eventID})
	assert.NilError(t, err)
	assert.Equal(t, len(sessions), 1)
	assert.Equal(t, sessions[0].ID, id)
	assert.Equal(t, sessions[0].EventID, eventID)
}
