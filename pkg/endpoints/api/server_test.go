package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/f1data/telemetry-service/pkg/model"
	"github.com/f1data/telemetry-service/pkg/service/info"
	"github.com/f1data/telemetry-service/pkg/service/telemetry"
	"github.com/f1data/telemetry-service/testsupport/memstore"
)

const ns = "2019-10-5"

type testEnvelope struct {
	Data   json.RawMessage `json:"data"`
	Status string          `json:"status"`
	Msg    string          `json:"msg"`
}

func setupStore(t *testing.T) *memstore.Store {
	t.Helper()
	ctx := context.Background()
	s := memstore.New()
	require.NoError(t, s.UpsertEvent(ctx, model.Event{ID: "2019-10", Name: "British Grand Prix"}))
	start := time.Date(2019, 7, 14, 14, 10, 0, 0, time.UTC)
	require.NoError(t, s.UpsertSession(ctx, model.Session{
		ID: ns, EventID: "2019-10", Name: "Race", Date: model.NewDate(2019, 7, 14),
		StartTime: &start,
	}, nil))
	fast := model.TimingRecord{
		ID: 10, DriverNumber: "44", LapNumber: 52,
		LapTime: model.Value(87.369), LapStartDate: model.Value(start.Add(time.Hour)),
	}
	fast.ComputeLapEnd()
	slow := model.TimingRecord{
		ID: 11, DriverNumber: "44", LapNumber: 1, LapTime: model.Missing[float64](),
	}
	s.AddLaps(ns, fast, slow)
	s.AddTelemetry(ns,
		model.TelemetrySample{LapID: 10, SessionTime: 3600.5, Channels: map[string]any{
			"Speed": 300.0, "RPM": 11000.0,
		}})
	return s
}

func setupServer(t *testing.T, store *memstore.Store, opts ...Option) http.Handler {
	t.Helper()
	all := append([]Option{
		WithTelemetry(telemetry.NewService(store)),
		WithInfo(info.NewService(store)),
	}, opts...)
	return NewServer(all...).Handler()
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) (
	*httptest.ResponseRecorder, testEnvelope,
) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var env testEnvelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func TestInfoEndpoints(t *testing.T) {
	h := setupServer(t, setupStore(t))

	rec, env := doRequest(t, h, http.MethodGet, "/info/events", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", env.Status)
	assert.JSONEq(t, `[{"id":"2019-10","name":"British Grand Prix"}]`, string(env.Data))

	rec, env = doRequest(t, h, http.MethodGet, "/info/sessions/2019-10", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t,
		`[{"id":"2019-10-5","name":"Race","date":"2019-07-14",`+
			`"startTime":"2019-07-14T14:10:00Z","endTime":null}]`,
		string(env.Data))

	_, env = doRequest(t, h, http.MethodGet, "/info/sessions/unknown", "")
	assert.JSONEq(t, `[]`, string(env.Data))

	_, env = doRequest(t, h, http.MethodGet, "/info/drivers", "")
	var drivers []string
	require.NoError(t, json.Unmarshal(env.Data, &drivers))
	assert.Equal(t, "HAM", drivers[0])

	_, env = doRequest(t, h, http.MethodGet, "/info/channels", "")
	var channels []model.Channel
	require.NoError(t, json.Unmarshal(env.Data, &channels))
	assert.Len(t, channels, 6)
	assert.Equal(t, model.Channel{ID: "45", Name: "DRS"}, channels[5])
}

func TestTelemetryFastest(t *testing.T) {
	h := setupServer(t, setupStore(t))
	rec, env := doRequest(t, h, http.MethodPost, "/data/telemetry",
		`{"session":"2019-10-5","channel":"Speed","drivers":["HAM"],"selectBy":"fastest"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "success", env.Status)
	assert.Equal(t, "", env.Msg)
	assert.JSONEq(t,
		`[{"driver":"HAM","laptime":87.369,"lapnumber":52,`+
			`"telemetry":[{"SessionTime":3600.5,"Speed":300}]}]`,
		string(env.Data))
}

func TestTelemetryMissingLapTime(t *testing.T) {
	h := setupServer(t, setupStore(t))
	rec, env := doRequest(t, h, http.MethodPost, "/data/telemetry",
		`{"session":"2019-10-5","channel":"Speed","drivers":["HAM"],"selectBy":"laps","laps":1}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t,
		`[{"driver":"HAM","laptime":"inf","lapnumber":1,"telemetry":[]}]`,
		string(env.Data))
}

func TestTelemetryNoDrivers(t *testing.T) {
	h := setupServer(t, setupStore(t))
	rec, env := doRequest(t, h, http.MethodPost, "/data/telemetry",
		`{"session":"2019-10-5","channel":"Speed","drivers":[],"selectBy":"fastest"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "success", env.Status)
	assert.JSONEq(t, `[]`, string(env.Data))
}

func TestTelemetryErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{
			name:       "malformed json",
			body:       `{"session":`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing drivers",
			body:       `{"session":"2019-10-5","channel":"Speed","selectBy":"fastest"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "unknown selectBy",
			body: `{"session":"2019-10-5","channel":"Speed","drivers":["HAM"],` +
				`"selectBy":"sector"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "time without flags",
			body: `{"session":"2019-10-5","channel":"Speed","drivers":["HAM"],` +
				`"selectBy":"time","timeStartValue":0,"timeEndValue":1000}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "unknown driver",
			body: `{"session":"2019-10-5","channel":"Speed","drivers":["XXX"],` +
				`"selectBy":"fastest"}`,
			wantStatus: http.StatusNotFound,
		},
	}
	h := setupServer(t, setupStore(t))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := doRequest(t, h, http.MethodPost, "/data/telemetry", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "error", env.Status)
			assert.NotEmpty(t, env.Msg)
			assert.Equal(t, "null", string(env.Data))
		})
	}
}

func TestStoreErrorsMapped(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
	}{
		{err: model.ErrStoreTimeout, wantStatus: http.StatusGatewayTimeout},
		{err: model.ErrStoreUnavailable, wantStatus: http.StatusServiceUnavailable},
		{err: errors.New("boom"), wantStatus: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			store := setupStore(t)
			store.Err = tt.err
			h := setupServer(t, store)
			rec, env := doRequest(t, h, http.MethodGet, "/info/events", "")
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "error", env.Status)
		})
	}
}

func TestCORS(t *testing.T) {
	h := setupServer(t, setupStore(t))
	req := httptest.NewRequest(http.MethodOptions, "/data/telemetry", nil)
	req.Header.Set("Origin", "http://example.org")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "http://example.org", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHealthAndMetrics(t *testing.T) {
	h := setupServer(t, setupStore(t))
	rec, env := doRequest(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", env.Status)

	doRequest(t, h, http.MethodGet, "/info/drivers", "")
	rec, _ = doRequest(t, h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(),
		`f1ts_http_requests_total{code="200",method="GET",route="/info/drivers"} 1`)
}

func TestHealthCheckFailing(t *testing.T) {
	h := setupServer(t, setupStore(t), WithHealthCheck(func(context.Context) error {
		return fmt.Errorf("db: %w", model.ErrStoreUnavailable)
	}))
	rec, env := doRequest(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "error", env.Status)
}

func TestRateLimit(t *testing.T) {
	h := setupServer(t, setupStore(t), WithRateLimit(1, time.Minute))
	body := `{"session":"2019-10-5","channel":"Speed","drivers":["HAM"],"selectBy":"fastest"}`
	rec, _ := doRequest(t, h, http.MethodPost, "/data/telemetry", body)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = doRequest(t, h, http.MethodPost, "/data/telemetry", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}
