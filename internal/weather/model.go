package weather

import (
	"encoding/json"
	"time"
)

// Source identifies which upstream provider produced a Weather object.
// It is set once during normalization and never mutated afterwards.
type Source string

const (
	SourceOfficialStation        Source = "official-station"
	SourceConsolidatedGlobal     Source = "consolidated-global"
	SourceKeyGatedGlobal         Source = "key-gated-global"
	SourceMinuteResolutionGlobal Source = "minute-resolution-global"
)

// Icon is the canonical icon vocabulary shared by every normalizer.
type Icon string

const (
	IconClearDay          Icon = "clear-day"
	IconClearNight        Icon = "clear-night"
	IconPartlyCloudyDay   Icon = "partly-cloudy-day"
	IconPartlyCloudyNight Icon = "partly-cloudy-night"
	IconCloudy            Icon = "cloudy"
	IconRain              Icon = "rain"
	IconSnow              Icon = "snow"
	IconSleet             Icon = "sleet"
	IconWind              Icon = "wind"
	IconFog               Icon = "fog"
	IconThunderstorm      Icon = "thunderstorm"
)

// Severity is the canonical alert severity tier.
type Severity string

const (
	SeverityMinor    Severity = "minor"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
	SeverityExtreme  Severity = "extreme"
)

// Hazard is a categorical weather threat extracted from alert text.
// Classified hazards use the constants below; the primary-hazard fallback
// may carry an arbitrary lowercased title word.
type Hazard string

const (
	HazardTornado      Hazard = "tornado"
	HazardHurricane    Hazard = "hurricane"
	HazardFlashFlood   Hazard = "flash-flood"
	HazardThunderstorm Hazard = "thunderstorm"
	HazardFlood        Hazard = "flood"
	HazardHail         Hazard = "hail"
	HazardSnow         Hazard = "snow"
	HazardIce          Hazard = "ice"
	HazardWind         Hazard = "wind"
	HazardHeat         Hazard = "heat"
	HazardCold         Hazard = "cold"
	HazardFog          Hazard = "fog"
	HazardDust         Hazard = "dust"
	HazardSmoke        Hazard = "smoke"
	HazardRain         Hazard = "rain"
)

// PrecipType categorizes precipitation in nowcast data.
type PrecipType string

const (
	PrecipNone  PrecipType = "none"
	PrecipRain  PrecipType = "rain"
	PrecipSnow  PrecipType = "snow"
	PrecipSleet PrecipType = "sleet"
	PrecipMix   PrecipType = "mix"
)

// IntensityLabel is the precipitation intensity tier for nowcast points.
type IntensityLabel string

const (
	IntensityNone     IntensityLabel = "none"
	IntensityLight    IntensityLabel = "light"
	IntensityModerate IntensityLabel = "moderate"
	IntensityHeavy    IntensityLabel = "heavy"
)

// WindDirection carries the provider-native wind direction. Providers
// disagree on units (numeric degrees vs. compass strings) and values are
// passed through unconverted; at most one field is set.
type WindDirection struct {
	Degrees  *float64 `json:"degrees,omitempty"`
	Cardinal string   `json:"cardinal,omitempty"`
}

// Currently holds normalized current conditions.
type Currently struct {
	Temperature   float64       `json:"temperature"` // °F
	Icon          Icon          `json:"icon"`
	Summary       string        `json:"summary"`
	WindSpeed     float64       `json:"windSpeed"` // mph
	WindDirection WindDirection `json:"windDirection"`
	Humidity      float64       `json:"humidity"`   // 0–1
	Pressure      float64       `json:"pressure"`   // hPa
	Visibility    float64       `json:"visibility"` // miles
	IsDaytime     bool          `json:"isDaytime"`
}

// DailyEntry is one day of the daily forecast.
type DailyEntry struct {
	Time            int64   `json:"time"` // unix seconds, local midnight
	Icon            Icon    `json:"icon"`
	TemperatureHigh float64 `json:"temperatureHigh"` // °F
	TemperatureLow  float64 `json:"temperatureLow"`  // °F
	Summary         string  `json:"summary"`
	PrecipChance    int     `json:"precipChance"` // 0–100
}

// HourlyEntry is one hour (or provider-native step) of the hourly forecast.
type HourlyEntry struct {
	Time          int64   `json:"time"` // unix seconds
	FormattedTime string  `json:"formattedTime"`
	Temperature   float64 `json:"temperature"` // °F
	Icon          Icon    `json:"icon"`
	Summary       string  `json:"summary"`
	PrecipChance  int     `json:"precipChance"`
	IsDaytime     bool    `json:"isDaytime"`
}

// NowcastPoint is a single minute-resolution precipitation sample.
type NowcastPoint struct {
	Time              int64          `json:"time"`
	FormattedTime     string         `json:"formattedTime"`
	PrecipIntensity   float64        `json:"precipIntensity"` // mm/h
	PrecipProbability float64        `json:"precipProbability"`
	PrecipType        PrecipType     `json:"precipType"`
	IntensityLabel    IntensityLabel `json:"intensityLabel"`
}

// Nowcast is the short-horizon minute-resolution precipitation forecast.
// A resolution whose winning provider has no minute data returns a pending
// placeholder; the backfill step replaces the whole sub-object in place.
type Nowcast struct {
	Available   bool           `json:"available"`
	Pending     bool           `json:"pending"`
	Source      Source         `json:"source,omitempty"`
	Interval    int            `json:"interval,omitempty"` // minutes: 1 or 15
	StartTime   int64          `json:"startTime,omitempty"`
	EndTime     int64          `json:"endTime,omitempty"`
	Description string         `json:"description,omitempty"`
	Data        []NowcastPoint `json:"data,omitempty"`
}

// PendingNowcast returns the placeholder used until a backfill completes.
func PendingNowcast() Nowcast {
	return Nowcast{Pending: true}
}

// Alert is a normalized severe-weather alert.
type Alert struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	FullText      string          `json:"fullText"`
	Severity      Severity        `json:"severity"`
	Urgency       string          `json:"urgency,omitempty"`
	Expires       int64           `json:"expires,omitempty"` // unix seconds
	HazardTypes   []Hazard        `json:"hazardTypes"`
	PrimaryHazard Hazard          `json:"primaryHazard"`
	Geometry      json.RawMessage `json:"geometry,omitempty"`
}

// StationInfo describes the observation station backing current conditions.
// Only meaningful for SourceOfficialStation; zero-valued otherwise.
type StationInfo struct {
	Display                  bool     `json:"display"`
	StationName              string   `json:"stationName,omitempty"`
	StationDistance          *float64 `json:"stationDistance,omitempty"` // miles
	ObservationTime          int64    `json:"observationTime,omitempty"` // unix seconds
	UsingForecastDescription bool     `json:"usingForecastDescription"`
	DescriptionAdjusted      bool     `json:"descriptionAdjusted"`
	IsForecastData           bool     `json:"isForecastData"`
}

// Attribution names the upstream source for display.
type Attribution struct {
	Name    string `json:"name"`
	URL     string `json:"url"`
	License string `json:"license,omitempty"`
}

// Weather is the canonical, provider-agnostic output of a resolution.
// It is filled field-by-field during normalization and immutable once
// returned, except for the dedicated nowcast backfill which replaces
// only the Nowcast sub-object.
type Weather struct {
	Source      Source        `json:"source"`
	Timezone    string        `json:"timezone"` // display label, not an IANA zone
	Currently   Currently     `json:"currently"`
	Daily       []DailyEntry  `json:"daily"`
	Hourly      []HourlyEntry `json:"hourly"`
	Nowcast     Nowcast       `json:"nowcast"`
	Alerts      []Alert       `json:"alerts"`
	StationInfo StationInfo   `json:"stationInfo"`
	Attribution Attribution   `json:"attribution"`

	// Resolution bookkeeping. Generation increases monotonically per
	// resolver so late-arriving results never clobber newer ones.
	ResolutionID string    `json:"resolutionId,omitempty"`
	Generation   uint64    `json:"-"`
	Issued       time.Time `json:"issued,omitempty"`
}

// Location is a point the engine resolves weather for.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name,omitempty"`
}

// Key returns a canonical string key for indexing this location in stores.
// Coordinates are rounded so nearby requests share a cache entry.
func (l Location) Key() string {
	return CoordinateKey(l.Latitude, l.Longitude)
}
