package providers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/akovalyk/weather-resolver/internal/weather"
)

const pirateWeatherBaseURL = "https://api.pirateweather.net/forecast"

// nowcastIntervalPirate is Pirate Weather's minutely resolution.
const nowcastIntervalPirate = 1

// PirateWeatherProvider serves the minute-resolution global source. One
// request returns current, minutely, hourly, daily and alert blocks in the
// Dark Sky response shape.
type PirateWeatherProvider struct {
	name    string
	baseURL string
	apiKey  string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

func NewPirateWeatherProvider(client *http.Client, apiKey string, logger *slog.Logger) *PirateWeatherProvider {
	name := "pirate-weather"
	return &PirateWeatherProvider{
		name:    name,
		baseURL: pirateWeatherBaseURL,
		apiKey:  apiKey,
		httpCfg: HTTPClientConfig{Client: client},
		circuit: newBreaker(name),
		logger:  logger.With("provider", name),
	}
}

func (p *PirateWeatherProvider) Name() string           { return p.name }
func (p *PirateWeatherProvider) Source() weather.Source { return weather.SourceMinuteResolutionGlobal }
func (p *PirateWeatherProvider) RequiresAPIKey() bool   { return true }
func (p *PirateWeatherProvider) SupportsNowcast() bool  { return true }
func (p *PirateWeatherProvider) HomeRegions() []string  { return nil }

func (p *PirateWeatherProvider) endpoint(req weather.Request, exclude string) string {
	u := fmt.Sprintf("%s/%s/%.4f,%.4f?units=si", p.baseURL, p.apiKey, req.Latitude, req.Longitude)
	if exclude != "" {
		u += "&exclude=" + exclude
	}
	return u
}

func (p *PirateWeatherProvider) Resolve(ctx context.Context, req weather.Request) (*weather.Weather, error) {
	if p.apiKey == "" {
		return nil, weather.NewStageError(p.name, "configuration", weather.ErrNoAPIKey)
	}

	var payload pirateResponse
	err := fetchJSON(ctx, p.httpCfg, p.circuit, p.name, func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, p.endpoint(req, ""), nil)
	}, &payload)
	if err != nil {
		return nil, weather.NewStageError(p.name, "forecast", err)
	}
	if len(payload.Hourly.Data) == 0 || len(payload.Daily.Data) == 0 {
		return nil, weather.NewStageError(p.name, "forecast", fmt.Errorf("empty forecast payload"))
	}

	return p.normalize(req, &payload), nil
}

// FetchNowcast pulls only the minutely block.
func (p *PirateWeatherProvider) FetchNowcast(ctx context.Context, req weather.Request) (*weather.Nowcast, error) {
	if p.apiKey == "" {
		return nil, weather.NewStageError(p.name, "configuration", weather.ErrNoAPIKey)
	}

	var payload pirateResponse
	err := fetchJSON(ctx, p.httpCfg, p.circuit, p.name, func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, p.endpoint(req, "currently,hourly,daily,alerts"), nil)
	}, &payload)
	if err != nil {
		return nil, weather.NewStageError(p.name, "nowcast", err)
	}

	tz := p.location(&payload)
	nc := weather.BuildNowcast(p.Source(), nowcastIntervalPirate, p.nowcastPoints(&payload, tz), tz)
	return &nc, nil
}

func (p *PirateWeatherProvider) location(payload *pirateResponse) *time.Location {
	if loc, err := time.LoadLocation(payload.Timezone); err == nil {
		return loc
	}
	return time.UTC
}

func (p *PirateWeatherProvider) normalize(req weather.Request, payload *pirateResponse) *weather.Weather {
	tz := p.location(payload)

	w := &weather.Weather{
		Source:   p.Source(),
		Timezone: displayLabelFor(req),
		Attribution: weather.Attribution{
			Name: "Pirate Weather",
			URL:  "https://pirateweather.net",
		},
	}

	cur := payload.Currently
	daytime := isDaytimeIcon(cur.Icon)
	w.Currently = weather.Currently{
		Temperature: weather.CToF(cur.Temperature),
		Icon:        p.mapIcon(cur.Icon, daytime),
		Summary:     cur.Summary,
		WindSpeed:   weather.MSToMPH(cur.WindSpeed),
		Humidity:    cur.Humidity,
		Pressure:    cur.Pressure,
		Visibility:  weather.KMToMiles(cur.Visibility),
		IsDaytime:   daytime,
	}
	deg := cur.WindBearing
	w.Currently.WindDirection = weather.WindDirection{Degrees: &deg}

	w.Daily = weather.PadDaily(p.normalizeDaily(payload, tz))
	w.Hourly = p.normalizeHourly(payload, tz)
	w.Nowcast = weather.BuildNowcast(p.Source(), nowcastIntervalPirate, p.nowcastPoints(payload, tz), tz)
	w.Alerts = p.normalizeAlerts(payload)

	return w
}

func (p *PirateWeatherProvider) normalizeDaily(payload *pirateResponse, tz *time.Location) []weather.DailyEntry {
	entries := make([]weather.DailyEntry, 0, len(payload.Daily.Data))
	for _, d := range payload.Daily.Data {
		entries = append(entries, weather.DailyEntry{
			Time:            weather.LocalMidnight(time.Unix(d.Time, 0), tz),
			Icon:            p.mapIcon(d.Icon, true),
			TemperatureHigh: weather.CToF(d.TemperatureHigh),
			TemperatureLow:  weather.CToF(d.TemperatureLow),
			Summary:         d.Summary,
			PrecipChance:    int(d.PrecipProbability * 100),
		})
	}
	return entries
}

func (p *PirateWeatherProvider) normalizeHourly(payload *pirateResponse, tz *time.Location) []weather.HourlyEntry {
	entries := make([]weather.HourlyEntry, 0, weather.HourlyCount)
	for _, h := range payload.Hourly.Data {
		daytime := isDaytimeIcon(h.Icon)
		entries = append(entries, weather.HourlyEntry{
			Time:          h.Time,
			FormattedTime: weather.FormatClockTime(h.Time, tz),
			Temperature:   weather.CToF(h.Temperature),
			Icon:          p.mapIcon(h.Icon, daytime),
			Summary:       h.Summary,
			PrecipChance:  int(h.PrecipProbability * 100),
			IsDaytime:     daytime,
		})
		if len(entries) == weather.HourlyCount {
			break
		}
	}
	return entries
}

func (p *PirateWeatherProvider) nowcastPoints(payload *pirateResponse, tz *time.Location) []weather.NowcastPoint {
	points := make([]weather.NowcastPoint, 0, len(payload.Minutely.Data))
	for _, m := range payload.Minutely.Data {
		point := weather.NowcastPoint{
			Time:              m.Time,
			FormattedTime:     weather.FormatClockTime(m.Time, tz),
			PrecipIntensity:   m.PrecipIntensity,
			PrecipProbability: m.PrecipProbability,
			PrecipType:        mapPrecipType(m.PrecipType),
			IntensityLabel:    weather.LabelIntensity(m.PrecipIntensity),
		}
		if point.IntensityLabel == weather.IntensityNone {
			point.PrecipType = weather.PrecipNone
		}
		points = append(points, point)
	}
	return points
}

func (p *PirateWeatherProvider) normalizeAlerts(payload *pirateResponse) []weather.Alert {
	out := make([]weather.Alert, 0, len(payload.Alerts))
	for _, a := range payload.Alerts {
		alert := weather.Alert{
			ID:          fmt.Sprintf("%s-%d", a.Title, a.Time),
			Title:       a.Title,
			Description: a.Description,
			FullText:    a.Description,
			Expires:     a.Expires,
		}
		alert.Severity, alert.HazardTypes, alert.PrimaryHazard = weather.ClassifyAlert(a.Title, a.Description, a.Description, a.Severity)
		out = append(out, alert)
	}
	return out
}

func (p *PirateWeatherProvider) mapIcon(code string, daytime bool) weather.Icon {
	return weather.MapIcon(code, pirateIconTable, daytime, p.logger)
}

// isDaytimeIcon reads the -day/-night suffix Dark Sky icons carry; icons
// without a suffix default to day.
func isDaytimeIcon(code string) bool {
	return !strings.HasSuffix(code, "-night")
}

func mapPrecipType(t string) weather.PrecipType {
	switch t {
	case "snow":
		return weather.PrecipSnow
	case "sleet":
		return weather.PrecipSleet
	case "mixed":
		return weather.PrecipMix
	case "":
		return weather.PrecipNone
	default:
		return weather.PrecipRain
	}
}

// pirateIconTable is near-identity: Pirate Weather already speaks the Dark
// Sky icon vocabulary.
var pirateIconTable = map[string]weather.Icon{
	"clear-day":           weather.IconClearDay,
	"clear-night":         weather.IconClearNight,
	"partly-cloudy-day":   weather.IconPartlyCloudyDay,
	"partly-cloudy-night": weather.IconPartlyCloudyNight,
	"cloudy":              weather.IconCloudy,
	"rain":                weather.IconRain,
	"snow":                weather.IconSnow,
	"sleet":               weather.IconSleet,
	"wind":                weather.IconWind,
	"fog":                 weather.IconFog,
	"thunderstorm":        weather.IconThunderstorm,
}

type pirateResponse struct {
	Timezone  string `json:"timezone"`
	Currently struct {
		Time        int64   `json:"time"`
		Summary     string  `json:"summary"`
		Icon        string  `json:"icon"`
		Temperature float64 `json:"temperature"` // °C with units=si
		Humidity    float64 `json:"humidity"`    // 0–1
		Pressure    float64 `json:"pressure"`    // hPa
		WindSpeed   float64 `json:"windSpeed"`   // m/s
		WindBearing float64 `json:"windBearing"`
		Visibility  float64 `json:"visibility"` // km
	} `json:"currently"`
	Minutely struct {
		Summary string `json:"summary"`
		Data    []struct {
			Time              int64   `json:"time"`
			PrecipIntensity   float64 `json:"precipIntensity"` // mm/h with units=si
			PrecipProbability float64 `json:"precipProbability"`
			PrecipType        string  `json:"precipType"`
		} `json:"data"`
	} `json:"minutely"`
	Hourly struct {
		Data []struct {
			Time              int64   `json:"time"`
			Summary           string  `json:"summary"`
			Icon              string  `json:"icon"`
			Temperature       float64 `json:"temperature"`
			PrecipProbability float64 `json:"precipProbability"`
		} `json:"data"`
	} `json:"hourly"`
	Daily struct {
		Data []struct {
			Time              int64   `json:"time"`
			Summary           string  `json:"summary"`
			Icon              string  `json:"icon"`
			TemperatureHigh   float64 `json:"temperatureHigh"`
			TemperatureLow    float64 `json:"temperatureLow"`
			PrecipProbability float64 `json:"precipProbability"`
		} `json:"data"`
	} `json:"daily"`
	Alerts []struct {
		Title       string `json:"title"`
		Time        int64  `json:"time"`
		Expires     int64  `json:"expires"`
		Description string `json:"description"`
		Severity    string `json:"severity"`
	} `json:"alerts"`
}
