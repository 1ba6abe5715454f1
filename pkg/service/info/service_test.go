package info

import (
	"context"
	"testing"
	"time"

	"gotest.tools/v3/assert"

	"github.com/f1data/telemetry-service/pkg/model"
	"github.com/f1data/telemetry-service/testsupport/memstore"
)

func setupStore(t *testing.T) *memstore.Store {
	t.Helper()
	ctx := context.Background()
	s := memstore.New()
	assert.NilError(t, s.UpsertEvent(ctx, model.Event{ID: "2019-17", Name: "Brazilian Grand Prix"}))
	assert.NilError(t, s.UpsertSession(ctx, model.Session{
		ID: "2019-17-5", EventID: "2019-17", Name: "Race", Date: model.NewDate(2019, 11, 17),
	}, nil))
	assert.NilError(t, s.UpsertSession(ctx, model.Session{
		ID: "2019-17-4", EventID: "2019-17", Name: "Qualifying", Date: model.NewDate(2019, 11, 16),
	}, nil))
	return s
}

func TestEventsCached(t *testing.T) {
	store := setupStore(t)
	svc := NewService(store, WithCacheExpiration(time.Hour))
	ctx := context.Background()

	events, err := svc.Events(ctx)
	assert.NilError(t, err)
	assert.DeepEqual(t, events, []model.Event{{ID: "2019-17", Name: "Brazilian Grand Prix"}})

	_, err = svc.Events(ctx)
	assert.NilError(t, err)
	assert.Equal(t, store.Calls["FindEvents"], 1)

	svc.Invalidate(ctx)
	_, err = svc.Events(ctx)
	assert.NilError(t, err)
	assert.Equal(t, store.Calls["FindEvents"], 2)
}

func TestSessionsPerEvent(t *testing.T) {
	store := setupStore(t)
	svc := NewService(store)
	ctx := context.Background()

	sessions, err := svc.Sessions(ctx, "2019-17")
	assert.NilError(t, err)
	assert.Equal(t, len(sessions), 2)

	none, err := svc.Sessions(ctx, "2020-1")
	assert.NilError(t, err)
	assert.Equal(t, len(none), 0)

	_, err = svc.Sessions(ctx, "2019-17")
	assert.NilError(t, err)
	assert.Equal(t, store.Calls["FindSessions"], 2)
}

func TestStoreErrorNotCached(t *testing.T) {
	store := setupStore(t)
	svc := NewService(store)
	ctx := context.Background()

	store.Err = model.ErrStoreUnavailable
	_, err := svc.Events(ctx)
	assert.ErrorIs(t, err, model.ErrStoreUnavailable)

	store.Err = nil
	events, err := svc.Events(ctx)
	assert.NilError(t, err)
	assert.Equal(t, len(events), 1)
}

func TestDriversAndChannels(t *testing.T) {
	svc := NewService(memstore.New())
	assert.Equal(t, svc.Drivers()[0], "HAM")
	assert.Equal(t, len(svc.Channels()), 6)
}
