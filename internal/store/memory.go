package store

import (
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/akovalyk/weather-resolver/internal/weather"
)

var (
	// ErrNotFound is returned when no data is cached for a location.
	ErrNotFound = errors.New("no weather data for location")

	// ErrStaleGeneration is returned when a resolution loses to a newer one
	// that already landed for the same location.
	ErrStaleGeneration = errors.New("resolution superseded by newer generation")
)

// entry keeps the winning resolution for one location plus a short history
// for debugging and range queries.
type entry struct {
	latest  *weather.Weather
	history []*weather.Weather
}

// MemoryStore is a concurrency-safe in-memory cache of resolved weather,
// keyed by rounded coordinates. Writes are generation-gated: a resolution
// that started before the currently stored one is rejected, so slow
// responses never overwrite fresher data.
type MemoryStore struct {
	mu    sync.RWMutex
	data  map[string]*entry
	clock clockwork.Clock

	maxHistory int           // max resolutions kept per location, <=0 unlimited
	maxAge     time.Duration // cache freshness window, <=0 never expires
}

// NewMemoryStore creates a MemoryStore. maxAge bounds how old a cached
// resolution may be before Latest reports a miss.
func NewMemoryStore(maxHistory int, maxAge time.Duration, clock clockwork.Clock) *MemoryStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MemoryStore{
		data:       make(map[string]*entry),
		clock:      clock,
		maxHistory: maxHistory,
		maxAge:     maxAge,
	}
}

// Save stores a resolution for a location. It enforces last-issued-wins:
// a write whose generation is not newer than the stored one is dropped.
func (s *MemoryStore) Save(loc weather.Location, w *weather.Weather) error {
	key := loc.Key()

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.data[key]
	if !ok {
		e = &entry{}
		s.data[key] = e
	}

	if e.latest != nil && w.Generation <= e.latest.Generation {
		return ErrStaleGeneration
	}

	e.latest = w
	e.history = append(e.history, w)
	if s.maxHistory > 0 && len(e.history) > s.maxHistory {
		over := len(e.history) - s.maxHistory
		e.history = e.history[over:]
	}
	return nil
}

// Latest returns the freshest resolution for a location, or ErrNotFound
// when nothing usable is cached.
func (s *MemoryStore) Latest(loc weather.Location) (*weather.Weather, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.data[loc.Key()]
	if !ok || e.latest == nil {
		return nil, ErrNotFound
	}
	if s.maxAge > 0 && s.clock.Since(e.latest.Issued) > s.maxAge {
		return nil, ErrNotFound
	}
	return e.latest, nil
}

// History returns resolutions for a location issued between from and to,
// inclusive, oldest first.
func (s *MemoryStore) History(loc weather.Location, from, to time.Time) ([]*weather.Weather, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.data[loc.Key()]
	if !ok || len(e.history) == 0 {
		return nil, ErrNotFound
	}

	var result []*weather.Weather
	for _, w := range e.history {
		if !w.Issued.Before(from) && !w.Issued.After(to) {
			result = append(result, w)
		}
	}
	if len(result) == 0 {
		return nil, ErrNotFound
	}
	return result, nil
}

// LocationSink adapts a MemoryStore to the resolver's dispatch interface
// for one location, so scheduled resolutions land in the cache.
type LocationSink struct {
	Store    *MemoryStore
	Location weather.Location

	mu          sync.Mutex
	attribution weather.Attribution
}

func (s *LocationSink) SetAttribution(a weather.Attribution) {
	s.mu.Lock()
	s.attribution = a
	s.mu.Unlock()
}

func (s *LocationSink) Dispatch(w *weather.Weather) {
	// Save enforces generation ordering; a stale dispatch is a no-op.
	_ = s.Store.Save(s.Location, w)
}

// Attribution returns the provider attribution of the last dispatch.
func (s *LocationSink) Attribution() weather.Attribution {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attribution
}
