package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/f1data/telemetry-service/pkg/model"
	"github.com/f1data/telemetry-service/testsupport/memstore"
)

const ns = "2019-17-5"

var raceStart = time.Date(2019, 11, 3, 19, 10, 0, 0, time.UTC)

func lap(id int64, driverNumber string, lapNumber int, lapTime model.Inf[float64]) model.TimingRecord {
	r := model.TimingRecord{
		ID:           id,
		DriverNumber: driverNumber,
		LapNumber:    lapNumber,
		LapTime:      lapTime,
		LapStartDate: model.Value(raceStart.Add(time.Duration(lapNumber-1) * 100 * time.Second)),
	}
	r.ComputeLapEnd()
	return r
}

func sample(lapID int64, sessionTime, speed float64) model.TelemetrySample {
	return model.TelemetrySample{
		LapID:       lapID,
		SessionTime: sessionTime,
		Channels:    map[string]any{"Speed": speed, "RPM": 10000.0},
	}
}

func setupStore() *memstore.Store {
	s := memstore.New()
	s.AddLaps(ns,
		lap(1, "44", 1, model.Value(98.5)),
		lap(2, "44", 2, model.Value(95.1)),
		lap(3, "44", 3, model.Missing[float64]()),
		lap(4, "16", 1, model.Value(97.0)),
		lap(5, "16", 2, model.Value(96.0)),
	)
	s.AddTelemetry(ns,
		sample(2, 101.2, 280),
		sample(2, 101.0, 270),
		sample(1, 1.0, 120),
		sample(5, 102.0, 300),
		sample(4, 2.0, 110),
	)
	return s
}

func TestResolveFastest(t *testing.T) {
	svc := NewService(setupStore())
	res, err := svc.ResolveTelemetryRequest(context.Background(), Request{
		Session:  ns,
		Channel:  "Speed",
		Drivers:  []string{"HAM"},
		SelectBy: SelectByFastest,
	})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "HAM", res[0].Driver)
	assert.Equal(t, 2, res[0].LapNumber)
	lt, ok := res[0].LapTime.Get()
	assert.True(t, ok)
	assert.InDelta(t, 95.1, lt, 1e-9)
	require.Len(t, res[0].Telemetry, 2)
	assert.InDelta(t, 101.0, res[0].Telemetry[0].SessionTime, 1e-9)
	assert.Equal(t, map[string]any{"Speed": 270.0}, res[0].Telemetry[0].Channels)
}

func TestResolveKeepsDriverOrder(t *testing.T) {
	svc := NewService(setupStore(), WithMaxConcurrentDrivers(2))
	res, err := svc.ResolveTelemetryRequest(context.Background(), Request{
		Session:  ns,
		Channel:  "Speed",
		Drivers:  []string{"LEC", "HAM"},
		SelectBy: SelectByLaps,
		Laps:     LapList{1, 2},
	})
	require.NoError(t, err)
	require.Len(t, res, 4)
	got := make([]string, 0, len(res))
	for _, r := range res {
		got = append(got, r.Driver)
	}
	assert.Equal(t, []string{"LEC", "LEC", "HAM", "HAM"}, got)
	assert.Equal(t, 1, res[0].LapNumber)
	assert.Equal(t, 2, res[1].LapNumber)
}

func TestResolveLapsWithoutTelemetry(t *testing.T) {
	svc := NewService(setupStore())
	res, err := svc.ResolveTelemetryRequest(context.Background(), Request{
		Session:  ns,
		Channel:  "Speed",
		Drivers:  []string{"HAM"},
		SelectBy: SelectByLaps,
		Laps:     LapList{3, 99},
	})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, 3, res[0].LapNumber)
	assert.True(t, res[0].LapTime.IsMissing())
	assert.NotNil(t, res[0].Telemetry)
	assert.Empty(t, res[0].Telemetry)
}

func TestResolveTimeRange(t *testing.T) {
	svc := NewService(setupStore())
	startMs := float64(raceStart.UnixMilli())
	endMs := float64(raceStart.Add(150 * time.Second).UnixMilli())
	res, err := svc.ResolveTelemetryRequest(context.Background(), Request{
		Session:        ns,
		Channel:        "Speed",
		Drivers:        []string{"HAM"},
		SelectBy:       SelectByTime,
		TimeStartValue: &startMs,
		TimeEndValue:   &endMs,
		TimeStartIn:    true,
	})
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, 1, res[0].LapNumber)
	assert.Equal(t, 2, res[1].LapNumber)
}

func TestResolveUnknownDriverFailsFast(t *testing.T) {
	store := setupStore()
	svc := NewService(store)
	_, err := svc.ResolveTelemetryRequest(context.Background(), Request{
		Session:  ns,
		Channel:  "Speed",
		Drivers:  []string{"HAM", "XXX"},
		SelectBy: SelectByFastest,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.Zero(t, store.Calls["FindFastestLap"])
}

func TestResolveInvalidSelection(t *testing.T) {
	store := setupStore()
	svc := NewService(store)
	_, err := svc.ResolveTelemetryRequest(context.Background(), Request{
		Session:  ns,
		Channel:  "Speed",
		Drivers:  []string{"HAM"},
		SelectBy: SelectByLaps,
	})
	assert.ErrorIs(t, err, model.ErrInvalidSelection)
	assert.Zero(t, store.Calls["FindTimingByLapNumber"])
}

func TestResolveEmptyChannel(t *testing.T) {
	svc := NewService(setupStore())
	_, err := svc.ResolveTelemetryRequest(context.Background(), Request{
		Session:  ns,
		Drivers:  []string{"HAM"},
		SelectBy: SelectByFastest,
	})
	assert.ErrorIs(t, err, model.ErrInvalidSelection)
}

func TestResolveStoreError(t *testing.T) {
	store := setupStore()
	store.Err = model.ErrStoreTimeout
	svc := NewService(store)
	_, err := svc.ResolveTelemetryRequest(context.Background(), Request{
		Session:  ns,
		Channel:  "Speed",
		Drivers:  []string{"HAM", "LEC"},
		SelectBy: SelectByFastest,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrStoreTimeout))
}

func TestResolveUnknownSession(t *testing.T) {
	svc := NewService(setupStore())
	res, err := svc.ResolveTelemetryRequest(context.Background(), Request{
		Session:  "2000-1-1",
		Channel:  "Speed",
		Drivers:  []string{"HAM"},
		SelectBy: SelectByFastest,
	})
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestResolveTimeRangeExactMillisecond(t *testing.T) {
	store := memstore.New()
	start := time.Date(2019, 11, 3, 19, 10, 0, 123000000, time.UTC)
	r := model.TimingRecord{
		ID:           1,
		DriverNumber: "44",
		LapNumber:    7,
		LapTime:      model.Value(91.5),
		LapStartDate: model.Value(start),
	}
	r.ComputeLapEnd()
	store.AddLaps(ns, r)
	store.AddTelemetry(ns, sample(1, 600.0, 250))

	ms := float64(start.UnixMilli())
	res, err := NewService(store).ResolveTelemetryRequest(context.Background(), Request{
		Session:        ns,
		Channel:        "Speed",
		Drivers:        []string{"HAM"},
		SelectBy:       SelectByTime,
		TimeStartValue: &ms,
		TimeEndValue:   &ms,
		TimeStartIn:    true,
	})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, 7, res[0].LapNumber)
}

func TestResolveNoDrivers(t *testing.T) {
	store := setupStore()
	res, err := NewService(store).ResolveTelemetryRequest(context.Background(), Request{
		Session:  ns,
		Channel:  "Speed",
		Drivers:  []string{},
		SelectBy: SelectByFastest,
	})
	require.NoError(t, err)
	assert.NotNil(t, res)
	assert.Empty(t, res)
	assert.Zero(t, store.Calls["FindFastestLap"])
}
