package guard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/f1data/telemetry-service/pkg/model"
	"github.com/f1data/telemetry-service/pkg/repository/api"
)

// slowStore blocks FindFastestLap until the context is done and fails
// FindEvents with err.
type slowStore struct {
	api.Store
	err   error
	calls int
}

func (s *slowStore) FindFastestLap(ctx context.Context, ns, driverNumber string) (
	[]model.TimingRecord, error,
) {
	s.calls++
	<-ctx.Done()
	return nil, ctx.Err()
}

func (s *slowStore) FindEvents(ctx context.Context, filter api.EventFilter) (
	[]model.Event, error,
) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return []model.Event{{ID: "2019-10", Name: "British Grand Prix"}}, nil
}

func (s *slowStore) GetSessionField(ctx context.Context, sessionID, field string) (
	any, error,
) {
	return nil, nil
}

func TestTimeout(t *testing.T) {
	next := &slowStore{}
	s := New(next, WithTimeout(20*time.Millisecond), WithBreaker(0, time.Second))
	_, err := s.FindFastestLap(context.Background(), "2019-10-5", "44")
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrStoreTimeout)
}

func TestBreakerOpens(t *testing.T) {
	next := &slowStore{err: errors.New("connection refused")}
	s := New(next, WithBreaker(2, time.Minute))
	ctx := context.Background()

	for range 2 {
		_, err := s.FindEvents(ctx, api.EventFilter{})
		require.Error(t, err)
		assert.NotErrorIs(t, err, model.ErrStoreUnavailable)
	}
	_, err := s.FindEvents(ctx, api.EventFilter{})
	assert.ErrorIs(t, err, model.ErrStoreUnavailable)
	assert.Equal(t, 2, next.calls, "open breaker must not call the store")
}

func TestNotFoundKeepsBreakerClosed(t *testing.T) {
	next := &slowStore{err: model.ErrNotFound}
	s := New(next, WithBreaker(1, time.Minute))
	ctx := context.Background()
	for range 3 {
		_, err := s.FindEvents(ctx, api.EventFilter{})
		assert.ErrorIs(t, err, model.ErrNotFound)
	}
	assert.Equal(t, 3, next.calls)
}

func TestPassThrough(t *testing.T) {
	s := New(&slowStore{})
	events, err := s.FindEvents(context.Background(), api.EventFilter{})
	require.NoError(t, err)
	assert.Equal(t, []model.Event{{ID: "2019-10", Name: "British Grand Prix"}}, events)

	v, err := s.GetSessionField(context.Background(), "2019-10-5", "name")
	require.NoError(t, err)
	assert.Nil(t, v)
}
