package weather

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/akovalyk/weather-resolver/internal/metrics"
)

const defaultNowcastTimeout = 10 * time.Second

// Resolver walks an ordered provider chain until one produces a canonical
// weather object. Regional providers lead the chain for requests inside
// their home regions; global providers follow in a fixed order. A provider
// is never retried within a resolution; any stage failure advances the
// chain immediately.
type Resolver struct {
	regional []Provider
	global   []Provider

	clock          clockwork.Clock
	logger         *slog.Logger
	nowcastTimeout time.Duration

	// generation orders resolutions so a slow, stale result can never
	// supersede a later one at the store boundary.
	generation atomic.Uint64
}

// NewResolver builds a resolver over the given providers, preserving their
// order within the regional and global partitions.
func NewResolver(providers []Provider, logger *slog.Logger, clock clockwork.Clock) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	r := &Resolver{
		clock:          clock,
		logger:         logger,
		nowcastTimeout: defaultNowcastTimeout,
	}
	for _, p := range providers {
		if len(p.HomeRegions()) > 0 {
			r.regional = append(r.regional, p)
		} else {
			r.global = append(r.global, p)
		}
	}
	return r
}

// chainFor computes the provider order for a country code: regional
// providers whose home region matches come first, then every global
// provider in configured order.
func (r *Resolver) chainFor(countryCode string) []Provider {
	country := strings.ToUpper(strings.TrimSpace(countryCode))

	var chain []Provider
	if country != "" {
		for _, p := range r.regional {
			if slices.Contains(p.HomeRegions(), country) {
				chain = append(chain, p)
			}
		}
	}
	return append(chain, r.global...)
}

// Resolve executes the fallback chain for a request. It returns the first
// successful provider's canonical object, with the nowcast backfilled when
// the winner could not supply one. Only total exhaustion is an error.
func (r *Resolver) Resolve(ctx context.Context, req Request) (*Weather, error) {
	id := uuid.NewString()
	gen := r.generation.Add(1)

	chain := r.chainFor(req.CountryCode)
	for _, p := range chain {
		start := r.clock.Now()
		w, err := p.Resolve(ctx, req)
		metrics.ResolutionLatency.WithLabelValues(p.Name()).Observe(r.clock.Since(start).Seconds())

		if err != nil {
			outcome := "error"
			if errors.Is(err, ErrNoAPIKey) {
				outcome = "no_key"
			}
			metrics.ProviderAttempts.WithLabelValues(p.Name(), outcome).Inc()
			r.logger.Warn("provider failed, advancing chain",
				"provider", p.Name(),
				"resolution_id", id,
				"error", err,
			)
			continue
		}

		metrics.ProviderAttempts.WithLabelValues(p.Name(), "success").Inc()

		w.ResolutionID = id
		w.Generation = gen
		w.Issued = r.clock.Now()

		r.backfillNowcast(ctx, req, p, w)

		r.logger.Info("resolution complete",
			"provider", p.Name(),
			"resolution_id", id,
			"alerts", len(w.Alerts),
			"nowcast_available", w.Nowcast.Available,
		)
		return w, nil
	}

	metrics.ResolutionsExhausted.Inc()
	return nil, ErrExhausted
}

// ResolveAndDispatch resolves and hands the result to the display
// collaborator, reporting attribution first. Used by the scheduler; the
// HTTP surface calls Resolve directly.
func (r *Resolver) ResolveAndDispatch(ctx context.Context, req Request, d Dispatcher) error {
	w, err := r.Resolve(ctx, req)
	if err != nil {
		return err
	}
	d.SetAttribution(w.Attribution)
	d.Dispatch(w)
	return nil
}

// backfillNowcast replaces a missing nowcast with one fetched from a
// nowcast-capable provider. The winner keeps its own nowcast when it
// produced one; backfill failure silently leaves the pending placeholder, since
// nowcast is a degradation, never a resolution failure.
func (r *Resolver) backfillNowcast(ctx context.Context, req Request, winner Provider, w *Weather) {
	if w.Nowcast.Available {
		return
	}
	w.Nowcast = PendingNowcast()

	for _, p := range append(append([]Provider{}, r.regional...), r.global...) {
		np, ok := p.(NowcastProvider)
		if !ok || p == winner {
			continue
		}

		nctx, cancel := context.WithTimeout(ctx, r.nowcastTimeout)
		nc, err := np.FetchNowcast(nctx, req)
		cancel()

		if err != nil {
			if !errors.Is(err, ErrNoAPIKey) {
				r.logger.Debug("nowcast backfill failed", "provider", p.Name(), "error", err)
			}
			metrics.NowcastBackfills.WithLabelValues(p.Name(), "error").Inc()
			continue
		}
		if nc == nil || !nc.Available {
			metrics.NowcastBackfills.WithLabelValues(p.Name(), "empty").Inc()
			continue
		}

		metrics.NowcastBackfills.WithLabelValues(p.Name(), "success").Inc()
		w.Nowcast = *nc
		return
	}
}
