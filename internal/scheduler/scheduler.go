package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/akovalyk/weather-resolver/internal/geocode"
	"github.com/akovalyk/weather-resolver/internal/store"
	"github.com/akovalyk/weather-resolver/internal/weather"
)

// Scheduler re-resolves tracked locations on a fixed interval so the cache
// always has a warm entry for them.
type Scheduler struct {
	scheduler *gocron.Scheduler
	resolver  *weather.Resolver
	geo       *geocode.Resolver
	memStore  *store.MemoryStore
	locations []weather.Location
	interval  time.Duration
	logger    *slog.Logger
}

// New creates a Scheduler over the tracked locations.
func New(locations []weather.Location, interval time.Duration, resolver *weather.Resolver, geo *geocode.Resolver, memStore *store.MemoryStore, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		resolver:  resolver,
		geo:       geo,
		memStore:  memStore,
		locations: locations,
		interval:  interval,
		logger:    logger.With("component", "scheduler"),
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if len(s.locations) == 0 {
		s.logger.Info("no tracked locations configured; nothing to schedule")
		return nil
	}

	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 15
	}

	_, err := s.scheduler.Every(minutes).Minutes().Do(s.runOnce)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// runOnce resolves every tracked location concurrently. Each result lands
// in the store through a generation-gated sink, so overlapping runs cannot
// regress the cache.
func (s *Scheduler) runOnce() {
	s.logger.Info("resolving tracked locations", "count", len(s.locations))

	var wg sync.WaitGroup
	for _, loc := range s.locations {
		loc := loc
		wg.Add(1)
		go func() {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()

			req := weather.Request{
				Latitude:     loc.Latitude,
				Longitude:    loc.Longitude,
				LocationName: loc.Name,
			}
			s.geo.Annotate(&req)

			sink := &store.LocationSink{Store: s.memStore, Location: loc}
			if err := s.resolver.ResolveAndDispatch(ctx, req, sink); err != nil {
				s.logger.Warn("scheduled resolution failed", "location", loc.Key(), "error", err)
			}
		}()
	}
	wg.Wait()
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
