// Package geocode labels coordinates for display and classifies them into
// a country code so the resolver can pick the right provider chain.
package geocode

import (
	"log/slog"
	"sync"

	"github.com/kelvins/geocoder"

	"github.com/akovalyk/weather-resolver/internal/weather"
)

// Continental US, Alaska and Hawaii bounding boxes. Used when reverse
// geocoding is unavailable or fails; a coarse box is enough to decide
// whether the official-station provider leads the chain.
var usBoxes = [][4]float64{
	{24.396308, 49.384358, -125.0, -66.93457}, // minLat, maxLat, minLon, maxLon
	{51.2, 71.5, -179.15, -129.97},            // Alaska
	{18.9, 22.25, -160.25, -154.8},            // Hawaii
}

// InUSBoundingBox reports whether the point falls in a coarse US box.
func InUSBoundingBox(lat, lon float64) bool {
	for _, box := range usBoxes {
		if lat >= box[0] && lat <= box[1] && lon >= box[2] && lon <= box[3] {
			return true
		}
	}
	return false
}

// Resolver reverse-geocodes coordinates into display labels and country
// codes. The underlying client keys on a package-level API key, so a
// process runs at most one Resolver.
type Resolver struct {
	enabled bool
	logger  *slog.Logger

	mu    sync.Mutex
	cache map[string]result
}

type result struct {
	label   string
	country string
}

func NewResolver(apiKey string, logger *slog.Logger) *Resolver {
	geocoder.ApiKey = apiKey
	return &Resolver{
		enabled: apiKey != "",
		logger:  logger.With("component", "geocode"),
		cache:   make(map[string]result),
	}
}

// Annotate fills in the request's missing LocationName and CountryCode.
// Caller-provided values always win. Failures degrade to the bounding-box
// country guess and a coordinate label; they never fail a resolution.
func (r *Resolver) Annotate(req *weather.Request) {
	if req.CountryCode == "" && InUSBoundingBox(req.Latitude, req.Longitude) {
		req.CountryCode = "US"
	}
	if req.LocationName != "" || !r.enabled {
		return
	}

	key := weather.CoordinateKey(req.Latitude, req.Longitude)

	r.mu.Lock()
	cached, ok := r.cache[key]
	r.mu.Unlock()

	if !ok {
		cached = r.lookup(req.Latitude, req.Longitude)
		r.mu.Lock()
		r.cache[key] = cached
		r.mu.Unlock()
	}

	if req.LocationName == "" {
		req.LocationName = cached.label
	}
	if req.CountryCode == "" {
		req.CountryCode = cached.country
	}
}

func (r *Resolver) lookup(lat, lon float64) result {
	addresses, err := geocoder.GeocodingReverse(geocoder.Location{Latitude: lat, Longitude: lon})
	if err != nil || len(addresses) == 0 {
		r.logger.Warn("reverse geocoding failed", "lat", lat, "lon", lon, "error", err)
		return result{}
	}

	addr := addresses[0]
	res := result{country: countryCode(addr.Country)}

	switch {
	case addr.City != "" && addr.State != "":
		res.label = addr.City + ", " + addr.State
	case addr.City != "":
		res.label = addr.City
	case addr.County != "" && addr.State != "":
		res.label = addr.County + ", " + addr.State
	default:
		res.label = addr.FormattedAddress
	}
	return res
}

// countryCode maps the geocoder's country names to ISO alpha-2 codes for
// the countries where a name-keyed provider chain differs from the global
// default. Unknown countries return empty, which selects the global chain.
func countryCode(name string) string {
	switch name {
	case "United States", "United States of America", "USA":
		return "US"
	case "Canada":
		return "CA"
	case "United Kingdom":
		return "GB"
	default:
		return ""
	}
}
