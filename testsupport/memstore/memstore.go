// Package memstore provides an in-memory api.Store for tests of the
// layers above the facade.
package memstore

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/f1data/telemetry-service/pkg/model"
	"github.com/f1data/telemetry-service/pkg/repository/api"
)

type (
	Store struct {
		mu       sync.Mutex
		events   []model.Event
		sessions []sessionEntry
		data     map[string]map[string][]model.Document
		// Err is returned by every call if set
		Err error
		// Calls counts the calls per operation
		Calls map[string]int
	}
	sessionEntry struct {
		session model.Session
		doc     model.Document
	}
)

var _ api.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		data:  map[string]map[string][]model.Document{},
		Calls: map[string]int{},
	}
}

// AddLaps stores the records in the timing collection of ns.
func (s *Store) AddLaps(ns string, records ...model.TimingRecord) {
	docs := make([]model.Document, len(records))
	for i := range records {
		docs[i] = records[i].Document()
	}
	_ = s.InsertMany(context.Background(), ns, api.CollectionTiming, docs)
}

// AddTelemetry stores the samples in the telemetry collection of ns.
func (s *Store) AddTelemetry(ns string, samples ...model.TelemetrySample) {
	docs := make([]model.Document, len(samples))
	for i := range samples {
		docs[i] = samples[i].Document()
	}
	_ = s.InsertMany(context.Background(), ns, api.CollectionTelemetry, docs)
}

func (s *Store) enter(op string) error {
	s.mu.Lock()
	s.Calls[op]++
	return s.Err
}

func (s *Store) FindEvents(ctx context.Context, filter api.EventFilter) ([]model.Event, error) {
	if err := s.enter("FindEvents"); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	defer s.mu.Unlock()
	ret := make([]model.Event, 0)
	for _, e := range s.events {
		if (filter.ID == "" || e.ID == filter.ID) && (filter.Name == "" || e.Name == filter.Name) {
			ret = append(ret, e)
		}
	}
	return ret, nil
}

func (s *Store) FindSessions(ctx context.Context, filter api.SessionFilter) (
	[]model.Session, error,
) {
	if err := s.enter("FindSessions"); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	defer s.mu.Unlock()
	ret := make([]model.Session, 0)
	for _, e := range s.sessions {
		if (filter.ID == "" || e.session.ID == filter.ID) &&
			(filter.EventID == "" || e.session.EventID == filter.EventID) {
			ret = append(ret, e.session)
		}
	}
	return ret, nil
}

func (s *Store) GetSessionField(ctx context.Context, sessionID, field string) (any, error) {
	if err := s.enter("GetSessionField"); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	defer s.mu.Unlock()
	for _, e := range s.sessions {
		if e.session.ID == sessionID {
			return api.LookupField(e.doc, field)
		}
	}
	return nil, model.ErrNotFound
}

func (s *Store) timing(ns, driverNumber string, keep func(r *model.TimingRecord) bool) (
	[]model.TimingRecord, error,
) {
	ret := make([]model.TimingRecord, 0)
	for _, doc := range s.data[ns][api.CollectionTiming] {
		r, err := model.TimingRecordFromDocument(doc)
		if err != nil {
			return nil, err
		}
		if r.DriverNumber == driverNumber && keep(r) {
			ret = append(ret, *r)
		}
	}
	slices.SortStableFunc(ret, func(a, b model.TimingRecord) int {
		return a.LapNumber - b.LapNumber
	})
	return ret, nil
}

func (s *Store) FindTimingByLapNumber(
	ctx context.Context, ns, driverNumber string, laps []int,
) ([]model.TimingRecord, error) {
	if err := s.enter("FindTimingByLapNumber"); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	defer s.mu.Unlock()
	return s.timing(ns, driverNumber, func(r *model.TimingRecord) bool {
		return slices.Contains(laps, r.LapNumber)
	})
}

func (s *Store) FindFastestLap(
	ctx context.Context, ns, driverNumber string,
) ([]model.TimingRecord, error) {
	if err := s.enter("FindFastestLap"); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	defer s.mu.Unlock()
	all, err := s.timing(ns, driverNumber, func(*model.TimingRecord) bool { return true })
	if err != nil || len(all) == 0 {
		return all, err
	}
	slices.SortStableFunc(all, func(a, b model.TimingRecord) int {
		return model.CompareLapTime(a.LapTime, b.LapTime)
	})
	return all[:1], nil
}

func (s *Store) FindTimingByTimeRange(
	ctx context.Context, ns, driverNumber string, r model.TimeRange,
) ([]model.TimingRecord, error) {
	if err := s.enter("FindTimingByTimeRange"); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	defer s.mu.Unlock()
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return s.timing(ns, driverNumber, func(rec *model.TimingRecord) bool {
		return r.Matches(rec.LapStartDate, rec.LapEndDate)
	})
}

func (s *Store) FindTelemetry(
	ctx context.Context, ns string, lapID int64, channels []string,
) ([]model.TelemetrySample, error) {
	if err := s.enter("FindTelemetry"); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	defer s.mu.Unlock()
	ret := make([]model.TelemetrySample, 0)
	for _, doc := range s.data[ns][api.CollectionTelemetry] {
		sample, err := model.TelemetrySampleFromDocument(doc)
		if err != nil {
			return nil, err
		}
		if sample.LapID == lapID {
			ret = append(ret, sample.Project(channels))
		}
	}
	slices.SortStableFunc(ret, func(a, b model.TelemetrySample) int {
		switch {
		case a.SessionTime < b.SessionTime:
			return -1
		case a.SessionTime > b.SessionTime:
			return 1
		default:
			return 0
		}
	})
	return ret, nil
}

func (s *Store) FindTimeRange(
	ctx context.Context,
	ns, carNumber, dataType, channel string,
	start, end time.Time,
) ([]model.Document, error) {
	if err := s.enter("FindTimeRange"); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	defer s.mu.Unlock()
	ret := make([]model.Document, 0)
	for _, doc := range s.data[ns][api.CarCollection(carNumber, dataType)] {
		t, ok := doc.Time("time")
		if !ok || t.Before(start) || !t.Before(end) {
			continue
		}
		item := model.Document{"time": t}
		if v, ok := doc[channel]; ok {
			item[channel] = v
		}
		ret = append(ret, item)
	}
	return ret, nil
}

func (s *Store) InsertMany(
	ctx context.Context, ns, collection string, docs []model.Document,
) error {
	if err := s.enter("InsertMany"); err != nil {
		s.mu.Unlock()
		return err
	}
	defer s.mu.Unlock()
	if s.data[ns] == nil {
		s.data[ns] = map[string][]model.Document{}
	}
	s.data[ns][collection] = append(s.data[ns][collection], docs...)
	return nil
}

// Documents returns the documents of a collection.
func (s *Store) Documents(ns, collection string) []model.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.data[ns][collection])
}

func (s *Store) DropCollection(ctx context.Context, ns, collection string) error {
	if err := s.enter("DropCollection"); err != nil {
		s.mu.Unlock()
		return err
	}
	defer s.mu.Unlock()
	delete(s.data[ns], collection)
	return nil
}

func (s *Store) UpsertEvent(ctx context.Context, event model.Event) error {
	if err := s.enter("UpsertEvent"); err != nil {
		s.mu.Unlock()
		return err
	}
	defer s.mu.Unlock()
	for i := range s.events {
		if s.events[i].ID == event.ID {
			s.events[i] = event
			return nil
		}
	}
	s.events = append(s.events, event)
	return nil
}

func (s *Store) UpsertSession(
	ctx context.Context, session model.Session, extra model.Document,
) error {
	if err := s.enter("UpsertSession"); err != nil {
		s.mu.Unlock()
		return err
	}
	defer s.mu.Unlock()
	entry := sessionEntry{session: session, doc: api.SessionDocument(session, extra)}
	for i := range s.sessions {
		if s.sessions[i].session.ID == session.ID {
			s.sessions[i] = entry
			return nil
		}
	}
	s.sessions = append(s.sessions, entry)
	return nil
}

func (s *Store) Close() {}
