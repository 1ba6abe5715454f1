package ingest

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/f1data/telemetry-service/pkg/model"
	"github.com/f1data/telemetry-service/pkg/repository/api"
	"github.com/f1data/telemetry-service/testsupport/memstore"
)

const ns = "2019-10-5"

const lapsFile = `[
 {"DriverNumber":"44","LapNumber":1,"LapTime":90.5,"LapStartDate":"2019-07-14T14:10:00Z",
  "Compound":"MEDIUM","Team":"Mercedes","Driver":"HAM","FreshTyre":true},
 {"DriverNumber":"44","LapNumber":2,"LapTime":null,"LapStartDate":"2019-07-14T14:11:30.5Z"},
 {"_id":7,"DriverNumber":"16","LapNumber":1,"LapTime":"inf","LapStartDate":"inf"}
]`

func TestLaps(t *testing.T) {
	store := memstore.New()
	ing := NewIngester(store, WithRunID("test-run"))
	n, err := ing.Laps(context.Background(), ns, strings.NewReader(lapsFile), false)
	assert.NilError(t, err)
	assert.Equal(t, n, 3)

	docs := store.Documents(ns, api.CollectionTiming)
	assert.Equal(t, len(docs), 3)

	first, err := model.TimingRecordFromDocument(docs[0])
	assert.NilError(t, err)
	assert.Equal(t, first.ID, int64(0))
	end, ok := first.LapEndDate.Get()
	assert.Assert(t, ok)
	assert.Assert(t, end.Equal(time.Date(2019, 7, 14, 14, 11, 30, 500000000, time.UTC)))

	assert.Equal(t, docs[1][model.FieldLapTime], model.InfSentinel)
	assert.Equal(t, docs[1][model.FieldLapEndDate], model.InfSentinel)
	assert.Equal(t, docs[2][model.FieldID], int64(7))
	assert.Equal(t, docs[2][model.FieldLapStartDate], model.InfSentinel)

	steps := ing.Steps()
	assert.Equal(t, len(steps), 1)
	assert.Equal(t, steps[0].Documents, 3)
}

func TestLapsDrop(t *testing.T) {
	store := memstore.New()
	ing := NewIngester(store)
	ctx := context.Background()
	_, err := ing.Laps(ctx, ns, strings.NewReader(lapsFile), false)
	assert.NilError(t, err)
	_, err = ing.Laps(ctx, ns, strings.NewReader(lapsFile), true)
	assert.NilError(t, err)
	assert.Equal(t, len(store.Documents(ns, api.CollectionTiming)), 3)
	assert.Equal(t, store.Calls["DropCollection"], 1)
}

func TestLapsInvalid(t *testing.T) {
	store := memstore.New()
	ing := NewIngester(store)
	_, err := ing.Laps(context.Background(), ns,
		strings.NewReader(`[{"DriverNumber":"44"}]`), false)
	assert.ErrorContains(t, err, "entry 0")
	assert.Equal(t, len(store.Documents(ns, api.CollectionTiming)), 0)
}

func TestTelemetry(t *testing.T) {
	store := memstore.New()
	ing := NewIngester(store)
	n, err := ing.Telemetry(context.Background(), ns, strings.NewReader(`{
		"12": [{"SessionTime": 10.5, "Speed": 280, "RPM": 11000}],
		"3":  [{"SessionTime": 1.0, "Speed": 100}, {"SessionTime": 1.2, "Speed": 110}],
		"4":  []
	}`), false)
	assert.NilError(t, err)
	assert.Equal(t, n, 3)

	samples, err := store.FindTelemetry(context.Background(), ns, 12, nil)
	assert.NilError(t, err)
	assert.Equal(t, len(samples), 1)
	assert.DeepEqual(t, samples[0].Channels, map[string]any{"Speed": 280.0, "RPM": 11000.0})

	steps := ing.Steps()
	assert.Equal(t, len(steps), 2)
	assert.Equal(t, steps[0].Documents, 2)
}

func TestTelemetryInvalid(t *testing.T) {
	ing := NewIngester(memstore.New())
	_, err := ing.Telemetry(context.Background(), ns,
		strings.NewReader(`{"x": [{"SessionTime": 1}]}`), false)
	assert.ErrorContains(t, err, "invalid lap id")

	_, err = ing.Telemetry(context.Background(), ns,
		strings.NewReader(`{"1": [{"Speed": 1}]}`), false)
	assert.ErrorContains(t, err, "SessionTime")
}

func TestCars(t *testing.T) {
	fsys := fstest.MapFS{
		"44-data.json": {Data: []byte(
			`[{"time":"2019-07-14T14:10:00Z","Speed":100},` +
				`{"time":"2019-07-14T14:10:01Z","Speed":110}]`)},
		"44-position.json": {Data: []byte(`[{"time":"2019-07-14T14:10:00Z","X":1,"Y":2}]`)},
		"5-data.json":      {Data: []byte(`[{"time":"2019-07-14T14:10:00Z","Speed":90}]`)},
		"readme.txt":       {Data: []byte(`ignored`)},
	}
	store := memstore.New()
	ing := NewIngester(store)
	n, err := ing.Cars(context.Background(), ns, fsys, false)
	assert.NilError(t, err)
	assert.Equal(t, n, 4)

	steps := ing.Steps()
	assert.Equal(t, len(steps), 3)
	assert.Equal(t, steps[0].Collection, "5-data")
	assert.Equal(t, steps[1].Collection, "44-data")
	assert.Equal(t, steps[2].Collection, "44-position")

	start := time.Date(2019, 7, 14, 14, 10, 0, 0, time.UTC)
	docs, err := store.FindTimeRange(context.Background(), ns, "44", "data", "Speed",
		start, start.Add(time.Second))
	assert.NilError(t, err)
	assert.Equal(t, len(docs), 1)
	assert.Equal(t, docs[0]["Speed"], 100.0)
}

func TestCarsAbortOnFailure(t *testing.T) {
	fsys := fstest.MapFS{
		"3-data.json":  {Data: []byte(`[{"time":"2019-07-14T14:10:00Z"}]`)},
		"16-data.json": {Data: []byte(`[{"Speed":90}]`)},
		"44-data.json": {Data: []byte(`[{"time":"2019-07-14T14:10:00Z"}]`)},
	}
	store := memstore.New()
	ing := NewIngester(store)
	n, err := ing.Cars(context.Background(), ns, fsys, false)
	assert.ErrorContains(t, err, "car 16")
	assert.Equal(t, n, 1)
	assert.Equal(t, len(store.Documents(ns, "44-data")), 0)
}

func TestCarsEmptyDir(t *testing.T) {
	_, err := NewIngester(memstore.New()).Cars(context.Background(), ns, fstest.MapFS{}, false)
	assert.ErrorContains(t, err, "no {car}-data.json files")
}

func TestEvents(t *testing.T) {
	store := memstore.New()
	ing := NewIngester(store)
	events, sessions, err := ing.Events(context.Background(), strings.NewReader(`{
		"events": [{
			"id": "2019-10", "name": "British Grand Prix",
			"sessions": [
				{"id": "2019-10-5", "name": "Race", "date": "2019-07-14",
				 "startTime": "2019-07-14T14:10:00Z", "laps": 52, "weather": {"air": 21.5}},
				{"id": "2019-10-4", "name": "Qualifying", "date": "2019-07-13"}
			]
		}]
	}`))
	assert.NilError(t, err)
	assert.Equal(t, events, 1)
	assert.Equal(t, sessions, 2)

	found, err := store.FindSessions(context.Background(), api.SessionFilter{EventID: "2019-10"})
	assert.NilError(t, err)
	assert.Check(t, is.Len(found, 2))

	v, err := store.GetSessionField(context.Background(), "2019-10-5", "weather.air")
	assert.NilError(t, err)
	assert.Equal(t, v, 21.5)
}

func TestEventsInvalidSessionID(t *testing.T) {
	_, _, err := NewIngester(memstore.New()).Events(context.Background(),
		strings.NewReader(`{"events":[{"id":"2019-10","sessions":[{"id":"race"}]}]}`))
	assert.ErrorContains(t, err, "malformed session id")
}

func TestReport(t *testing.T) {
	store := memstore.New()
	ing := NewIngester(store, WithRunID("run-1"))
	_, err := ing.Laps(context.Background(), ns, strings.NewReader(lapsFile), false)
	assert.NilError(t, err)
	var buf bytes.Buffer
	ing.Report(&buf)
	out := buf.String()
	assert.Check(t, is.Contains(out, "run-1"))
	assert.Check(t, is.Contains(out, api.CollectionTiming))
	assert.Check(t, is.Contains(out, "Total"))
}
