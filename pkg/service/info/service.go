// Package info provides the reference data listings: events, sessions of an
// event, drivers and telemetry channels.
package info

import (
	"context"
	"time"

	"github.com/f1data/telemetry-service/log"
	"github.com/f1data/telemetry-service/pkg/lookup"
	"github.com/f1data/telemetry-service/pkg/model"
	"github.com/f1data/telemetry-service/pkg/repository/api"
	"github.com/f1data/telemetry-service/pkg/utils/cache"
	"github.com/f1data/telemetry-service/pkg/utils/cache/loadercache"
)

// events are cached under a single key
const allEvents = ""

type (
	Option  func(*Service)
	Service struct {
		store      api.Store
		expiration time.Duration
		log        *log.Logger
		events     cache.Cache[string, []model.Event]
		sessions   cache.Cache[string, []model.Session]
	}
)

// WithCacheExpiration sets the lifetime of cached events and sessions.
// A value <= 0 keeps cached entries until they are invalidated.
func WithCacheExpiration(d time.Duration) Option {
	return func(s *Service) {
		s.expiration = d
	}
}

func WithLogger(l *log.Logger) Option {
	return func(s *Service) {
		s.log = l
	}
}

func NewService(store api.Store, opts ...Option) *Service {
	ret := &Service{
		store:      store,
		expiration: time.Minute,
		log:        log.Default().Named("service.info"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	ret.events = loadercache.New(
		loadercache.WithExpiration[string, []model.Event](ret.expiration),
		loadercache.WithLogger[string, []model.Event](ret.log.Named("cache")),
		loadercache.WithLoader[string, []model.Event](ret.loadEvents),
	)
	ret.sessions = loadercache.New(
		loadercache.WithExpiration[string, []model.Session](ret.expiration),
		loadercache.WithLogger[string, []model.Session](ret.log.Named("cache")),
		loadercache.WithLoader[string, []model.Session](ret.loadSessions),
	)
	return ret
}

//nolint:whitespace // editor/linter issue
func (s *Service) loadEvents(ctx context.Context, _ string) (
	*[]model.Event, error,
) {
	events, err := s.store.FindEvents(ctx, api.EventFilter{})
	if err != nil {
		return nil, err
	}
	s.log.Debug("events loaded", log.Int("count", len(events)))
	return &events, nil
}

//nolint:whitespace // editor/linter issue
func (s *Service) loadSessions(ctx context.Context, eventID string) (
	*[]model.Session, error,
) {
	sessions, err := s.store.FindSessions(ctx, api.SessionFilter{EventID: eventID})
	if err != nil {
		return nil, err
	}
	s.log.Debug("sessions loaded",
		log.String("event", eventID),
		log.Int("count", len(sessions)))
	return &sessions, nil
}

func (s *Service) Events(ctx context.Context) ([]model.Event, error) {
	events, err := s.events.Get(ctx, allEvents)
	if err != nil {
		return nil, err
	}
	return *events, nil
}

// Sessions returns the sessions of an event. An unknown event yields an
// empty list.
func (s *Service) Sessions(ctx context.Context, eventID string) ([]model.Session, error) {
	sessions, err := s.sessions.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return *sessions, nil
}

// Invalidate drops all cached events and sessions.
func (s *Service) Invalidate(ctx context.Context) {
	s.events.InvalidateAll(ctx)
	s.sessions.InvalidateAll(ctx)
}

func (s *Service) Drivers() []string {
	return lookup.AllDriverAbbreviations()
}

func (s *Service) Channels() []model.Channel {
	return lookup.AllChannels()
}
