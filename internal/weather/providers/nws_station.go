package providers

import (
	"context"
	"sort"
	"time"

	"github.com/akovalyk/weather-resolver/internal/metrics"
	"github.com/akovalyk/weather-resolver/internal/weather"
)

const (
	// maxStationProbes bounds how many stations are queried per resolution.
	maxStationProbes = 5

	// maxObservationAge is the freshness cutoff for a usable reading.
	maxObservationAge = 2 * time.Hour
)

// stationCandidate is a transient record used only while ranking and
// probing stations; it is discarded once the pipeline completes.
type stationCandidate struct {
	url      string
	id       string
	name     string
	distance *float64 // miles; nil when the station has no coordinates
}

// candidatesFrom ranks discovered stations by great-circle distance from
// the request point. Stations without coordinates sort last, keeping their
// original order among themselves.
func candidatesFrom(stations nwsStationsResponse, lat, lon float64) []stationCandidate {
	candidates := make([]stationCandidate, 0, len(stations.Features))
	for _, f := range stations.Features {
		c := stationCandidate{
			url:  f.ID,
			id:   f.Properties.StationIdentifier,
			name: f.Properties.Name,
		}
		if f.Geometry != nil && len(f.Geometry.Coordinates) >= 2 {
			d := weather.HaversineMiles(lat, lon, f.Geometry.Coordinates[1], f.Geometry.Coordinates[0])
			c.distance = &d
		}
		candidates = append(candidates, c)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		di, dj := candidates[i].distance, candidates[j].distance
		switch {
		case di == nil:
			return false
		case dj == nil:
			return true
		default:
			return *di < *dj
		}
	})
	return candidates
}

// resolveBestObservation probes the nearest stations sequentially for a
// fresh, usable observation. Probing is deliberately serial: a
// satisfactory reading at station N means stations N+1.. are never fetched.
//
// Acceptance rules, first match wins:
//   - fresh reading (< 2h) with a non-empty text description: accept
//     immediately, stop probing.
//   - fresh reading without a description: keep as best-so-far only when
//     it is younger than the current best, keep probing.
//   - stale or unusable reading: discard, keep probing.
//
// A nil result is a graceful degradation, never a pipeline failure.
func (p *NWSProvider) resolveBestObservation(ctx context.Context, candidates []stationCandidate) (*nwsObservation, *stationCandidate) {
	if len(candidates) > maxStationProbes {
		candidates = candidates[:maxStationProbes]
	}

	var (
		best        *nwsObservation
		bestStation *stationCandidate
		bestAge     time.Duration
	)

	for i := range candidates {
		c := candidates[i]

		var resp nwsObservationResponse
		if err := p.get(ctx, c.url+"/observations/latest", &resp); err != nil {
			metrics.StationProbes.WithLabelValues("error").Inc()
			p.logger.Debug("station probe failed", "station", c.id, "error", err)
			continue
		}

		obs := resp.Properties
		if obs.Temperature.Value == nil {
			metrics.StationProbes.WithLabelValues("incomplete").Inc()
			continue
		}

		observedAt, err := time.Parse(time.RFC3339, obs.Timestamp)
		if err != nil {
			metrics.StationProbes.WithLabelValues("incomplete").Inc()
			continue
		}

		age := p.clock.Since(observedAt)
		if age >= maxObservationAge {
			metrics.StationProbes.WithLabelValues("stale").Inc()
			continue
		}

		if obs.TextDescription != "" {
			metrics.StationProbes.WithLabelValues("accepted").Inc()
			return &obs, &c
		}

		if best == nil || age < bestAge {
			o := obs
			best, bestStation, bestAge = &o, &c, age
		}
		metrics.StationProbes.WithLabelValues("recorded").Inc()
	}

	return best, bestStation
}
