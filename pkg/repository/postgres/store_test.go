//nolint:funlen,errcheck // ok for this test code
package postgres

import (
	"context"
	"errors"
	"log"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"gotest.tools/v3/assert"

	"github.com/f1data/telemetry-service/pkg/model"
	"github.com/f1data/telemetry-service/pkg/repository/api"
	"github.com/f1data/telemetry-service/testsupport/testdb"
)

const testNS = "2019-10-5"

var lapStart = time.Date(2019, 7, 14, 13, 10, 0, 0, time.UTC)

func lap(id int64, number int, lapTime *float64, startOffset time.Duration) model.TimingRecord {
	r := model.TimingRecord{
		ID:           id,
		DriverNumber: "44",
		LapNumber:    number,
		LapTime:      model.InfFromPtr(lapTime),
		LapStartDate: model.Value(lapStart.Add(startOffset)),
		Compound:     "SOFT",
		Team:         "Mercedes",
		Driver:       "HAM",
	}
	r.ComputeLapEnd()
	return r
}

func f(v float64) *float64 { return &v }

func setupStore(t *testing.T) api.Store {
	t.Helper()
	pool := testdb.InitTestDB()
	s := New(pool)
	laps := []model.TimingRecord{
		lap(1, 1, f(95.5), 0),
		lap(2, 2, f(91.2), 96*time.Second),
		lap(3, 3, nil, 188*time.Second),
		lap(4, 4, f(92.0), 300*time.Second),
	}
	docs := make([]model.Document, len(laps))
	for i := range laps {
		docs[i] = laps[i].Document()
	}
	ctx := context.Background()
	if err := s.InsertMany(ctx, testNS, api.CollectionTiming, docs); err != nil {
		log.Fatalf("setupStore: %v", err)
	}
	telemetry := []model.Document{
		{"LapId": 2, "SessionTime": 3600.1, "Speed": 280.0, "RPM": 11000.0, "nGear": 7.0},
		{"LapId": 2, "SessionTime": 3600.0, "Speed": 279.0, "RPM": 10900.0, "nGear": 7.0},
		{"LapId": 1, "SessionTime": 3500.0, "Speed": 120.0, "RPM": 9000.0, "nGear": 3.0},
	}
	if err := s.InsertMany(ctx, testNS, api.CollectionTelemetry, telemetry); err != nil {
		log.Fatalf("setupStore: %v", err)
	}
	return s
}

func TestFindTimingByLapNumber(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	res, err := s.FindTimingByLapNumber(ctx, testNS, "44", []int{2, 4, 17})
	assert.NilError(t, err)
	assert.Equal(t, len(res), 2)
	assert.Equal(t, res[0].LapNumber, 2)
	assert.Equal(t, res[1].LapNumber, 4)

	res, err = s.FindTimingByLapNumber(ctx, testNS, "33", []int{1})
	assert.NilError(t, err)
	assert.Equal(t, len(res), 0)

	res, err = s.FindTimingByLapNumber(ctx, "2019-10-4", "44", []int{1})
	assert.NilError(t, err)
	assert.Equal(t, len(res), 0)
}

func TestFindFastestLap(t *testing.T) {
	s := setupStore(t)
	res, err := s.FindFastestLap(context.Background(), testNS, "44")
	assert.NilError(t, err)
	assert.Equal(t, len(res), 1)
	assert.Equal(t, res[0].LapNumber, 2)
	v, ok := res[0].LapTime.Get()
	assert.Assert(t, ok)
	assert.Equal(t, v, 91.2)
}

func TestFindTimingByTimeRange(t *testing.T) {
	s := setupStore(t)
	tests := []struct {
		name     string
		r        model.TimeRange
		wantLaps []int
		wantErr  error
	}{
		{
			name: "starts in",
			r: model.TimeRange{
				Start: lapStart.Add(90 * time.Second), End: lapStart.Add(200 * time.Second),
				StartsIn: true,
			},
			// lap 3 has no lap end but its start is within the range
			wantLaps: []int{2, 3},
		},
		{
			name: "ends in",
			r: model.TimeRange{
				Start: lapStart.Add(90 * time.Second), End: lapStart.Add(200 * time.Second),
				EndsIn: true,
			},
			wantLaps: []int{1, 2},
		},
		{
			name: "starts and ends in",
			r: model.TimeRange{
				Start: lapStart.Add(90 * time.Second), End: lapStart.Add(200 * time.Second),
				StartsIn: true, EndsIn: true,
			},
			wantLaps: []int{2},
		},
		{
			name: "neither",
			r: model.TimeRange{
				Start: lapStart, End: lapStart.Add(time.Hour),
			},
			wantErr: model.ErrInvalidSelection,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.FindTimingByTimeRange(context.Background(), testNS, "44", tt.r)
			if tt.wantErr != nil {
				assert.Assert(t, errors.Is(err, tt.wantErr))
				return
			}
			assert.NilError(t, err)
			got := make([]int, len(res))
			for i := range res {
				got[i] = res[i].LapNumber
			}
			assert.DeepEqual(t, got, tt.wantLaps)
		})
	}
}

func TestFindTelemetry(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	res, err := s.FindTelemetry(ctx, testNS, 2, []string{"Speed"})
	assert.NilError(t, err)
	want := []model.TelemetrySample{
		{LapID: 2, SessionTime: 3600.0, Channels: map[string]any{"Speed": 279.0}},
		{LapID: 2, SessionTime: 3600.1, Channels: map[string]any{"Speed": 280.0}},
	}
	if diff := cmp.Diff(want, res); diff != "" {
		t.Errorf("FindTelemetry() mismatch (-want +got):\n%s", diff)
	}

	res, err = s.FindTelemetry(ctx, testNS, 1, nil)
	assert.NilError(t, err)
	assert.Equal(t, len(res), 1)
	assert.DeepEqual(t, res[0].Channels,
		map[string]any{"Speed": 120.0, "RPM": 9000.0, "nGear": 3.0})

	res, err = s.FindTelemetry(ctx, testNS, 99, nil)
	assert.NilError(t, err)
	assert.Equal(t, len(res), 0)
}

func TestDropCollection(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	assert.NilError(t, s.DropCollection(ctx, testNS, api.CollectionTiming))
	res, err := s.FindFastestLap(ctx, testNS, "44")
	assert.NilError(t, err)
	assert.Equal(t, len(res), 0)
}

func TestFindTimeRange(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	docs := []model.Document{
		{"time": lapStart, "Speed": 100.0, "RPM": 8000.0},
		{"time": lapStart.Add(time.Second), "Speed": 110.0, "RPM": 8100.0},
		{"time": lapStart.Add(2 * time.Second), "Speed": 120.0, "RPM": 8200.0},
	}
	assert.NilError(t, s.InsertMany(ctx, testNS, api.CarCollection("44", "data"), docs))

	res, err := s.FindTimeRange(ctx, testNS, "44", "data", "Speed",
		lapStart, lapStart.Add(2*time.Second))
	assert.NilError(t, err)
	assert.DeepEqual(t, res, []model.Document{
		{"time": lapStart, "Speed": 100.0},
		{"time": lapStart.Add(time.Second), "Speed": 110.0},
	})

	err = s.InsertMany(ctx, testNS, api.CarCollection("44", "data"),
		[]model.Document{{"Speed": 1.0}})
	assert.ErrorContains(t, err, "invalid time")
}

func TestEventsAndSessions(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	start := time.Date(2019, 7, 14, 13, 10, 0, 0, time.UTC)

	assert.NilError(t, s.UpsertEvent(ctx, model.Event{ID: "2019-10", Name: "British Grand Prix"}))
	assert.NilError(t, s.UpsertEvent(ctx, model.Event{ID: "2019-9", Name: "Austrian Grand Prix"}))
	assert.NilError(t, s.UpsertSession(ctx, model.Session{
		ID: testNS, EventID: "2019-10", Name: "Race",
		Date: model.NewDate(2019, 7, 14), StartTime: &start,
	}, model.Document{"weather": map[string]any{"airTemp": 21.5}}))
	assert.NilError(t, s.UpsertSession(ctx, model.Session{
		ID: "2019-10-4", EventID: "2019-10", Name: "Qualifying",
		Date: model.NewDate(2019, 7, 13),
	}, nil))

	events, err := s.FindEvents(ctx, api.EventFilter{})
	assert.NilError(t, err)
	assert.DeepEqual(t, events, []model.Event{
		{ID: "2019-10", Name: "British Grand Prix"},
		{ID: "2019-9", Name: "Austrian Grand Prix"},
	})

	sessions, err := s.FindSessions(ctx, api.SessionFilter{EventID: "2019-10"})
	assert.NilError(t, err)
	assert.Equal(t, len(sessions), 2)
	assert.Equal(t, sessions[0].ID, "2019-10-4")
	assert.Assert(t, sessions[0].StartTime == nil)
	assert.Equal(t, sessions[1].ID, testNS)
	assert.Equal(t, sessions[1].Date.String(), "2019-07-14")
	assert.Assert(t, sessions[1].StartTime.Equal(start))

	v, err := s.GetSessionField(ctx, testNS, "weather.airTemp")
	assert.NilError(t, err)
	assert.Equal(t, v, 21.5)
	v, err = s.GetSessionField(ctx, testNS, "name")
	assert.NilError(t, err)
	assert.Equal(t, v, "Race")

	_, err = s.GetSessionField(ctx, testNS, "unknown")
	assert.Assert(t, errors.Is(err, model.ErrNotFound))
	_, err = s.GetSessionField(ctx, "2000-1-1", "name")
	assert.Assert(t, errors.Is(err, model.ErrNotFound))
}

func TestRunInTx(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	errAbort := errors.New("abort")
	err := api.RunInTx(ctx, s, func(ctx context.Context) error {
		if err := s.UpsertEvent(ctx, model.Event{ID: "2019-11", Name: "German Grand Prix"}); err != nil {
			return err
		}
		return errAbort
	})
	assert.Assert(t, errors.Is(err, errAbort))
	events, err := s.FindEvents(ctx, api.EventFilter{ID: "2019-11"})
	assert.NilError(t, err)
	assert.Equal(t, len(events), 0)
}
