package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/akovalyk/weather-resolver/internal/weather"
)

type AppConfig struct {
	// Provider credentials. Empty or placeholder keys disable the
	// corresponding provider without failing startup.
	OpenWeatherAPIKey   string
	PirateWeatherAPIKey string
	GeocoderAPIKey      string

	// NWSUserAgent identifies this service to api.weather.gov, which
	// requires a contact string in the User-Agent header.
	NWSUserAgent string

	// FetchInterval controls how often tracked locations are re-resolved.
	FetchInterval time.Duration

	// Locations resolved on the schedule, kept warm in the cache.
	Locations []weather.Location

	// In-memory store retention.
	StoreMaxHistory int           // resolutions kept per location (0 = unlimited)
	StoreMaxAge     time.Duration // cache freshness window (0 = never expires)

	// HTTPTimeout bounds each outbound provider request.
	HTTPTimeout time.Duration

	Port string
}

// knownPlaceholders are key values that mean "not configured". Sample .env
// files ship with these and a copied sample must not count as a credential.
var knownPlaceholders = []string{
	"your_api_key", "your-api-key", "changeme", "change_me", "xxx", "todo", "placeholder",
}

// IsPlaceholderKey reports whether a key value should be treated as absent.
func IsPlaceholderKey(key string) bool {
	k := strings.ToLower(strings.TrimSpace(key))
	if k == "" {
		return true
	}
	for _, p := range knownPlaceholders {
		if k == p {
			return true
		}
	}
	return false
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file loaded", "error", err)
	}
	cfg := &AppConfig{}

	cfg.OpenWeatherAPIKey = realKey(os.Getenv("OPENWEATHER_API_KEY"))
	cfg.PirateWeatherAPIKey = realKey(os.Getenv("PIRATEWEATHER_API_KEY"))
	cfg.GeocoderAPIKey = realKey(os.Getenv("GEOCODER_API_KEY"))
	cfg.NWSUserAgent = getenvDefault("NWS_USER_AGENT", "weather-resolver (contact: ops@example.com)")

	interval, err := time.ParseDuration(getenvDefault("FETCH_INTERVAL", "15m"))
	if err != nil {
		return nil, fmt.Errorf("invalid FETCH_INTERVAL: %w", err)
	}
	cfg.FetchInterval = interval

	cfg.StoreMaxHistory = getenvInt("STORE_MAX_HISTORY", 96)

	maxAge, err := time.ParseDuration(getenvDefault("STORE_MAX_AGE", "30m"))
	if err != nil {
		return nil, fmt.Errorf("invalid STORE_MAX_AGE: %w", err)
	}
	cfg.StoreMaxAge = maxAge

	httpTimeout, err := time.ParseDuration(getenvDefault("HTTP_TIMEOUT", "15s"))
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = httpTimeout

	cfg.Port = getenvDefault("PORT", "8080")

	locs, err := ParseLocations(os.Getenv("TRACKED_LOCATIONS"))
	if err != nil {
		return nil, err
	}
	cfg.Locations = locs

	return cfg, nil
}

// ParseLocations parses the TRACKED_LOCATIONS format:
// "lat,lon,Name;lat,lon,Name". The name may contain commas beyond the
// first two fields. An empty value is valid and disables the scheduler.
func ParseLocations(raw string) ([]weather.Location, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	var locs []weather.Location
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		fields := strings.SplitN(part, ",", 3)
		if len(fields) < 2 {
			return nil, fmt.Errorf("invalid tracked location %q: want lat,lon[,name]", part)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(fields[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid latitude in %q: %w", part, err)
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid longitude in %q: %w", part, err)
		}
		if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
			return nil, fmt.Errorf("coordinates out of range in %q", part)
		}
		loc := weather.Location{Latitude: lat, Longitude: lon}
		if len(fields) == 3 {
			loc.Name = strings.TrimSpace(fields[2])
		}
		locs = append(locs, loc)
	}
	return locs, nil
}

func realKey(v string) string {
	if IsPlaceholderKey(v) {
		return ""
	}
	return strings.TrimSpace(v)
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}
