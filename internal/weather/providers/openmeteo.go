package providers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sony/gobreaker"

	"github.com/akovalyk/weather-resolver/internal/weather"
)

const openMeteoBaseURL = "https://api.open-meteo.com/v1/forecast"

// nowcastIntervalOpenMeteo is Open-Meteo's finest precipitation resolution.
const nowcastIntervalOpenMeteo = 15

// OpenMeteoProvider serves the consolidated global model. It needs no API
// key and returns current, hourly, daily and 15-minute precipitation data
// in a single request.
type OpenMeteoProvider struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
	logger  *slog.Logger
	clock   clockwork.Clock
}

func NewOpenMeteoProvider(client *http.Client, logger *slog.Logger, clock clockwork.Clock) *OpenMeteoProvider {
	name := "open-meteo"
	return &OpenMeteoProvider{
		name:    name,
		baseURL: openMeteoBaseURL,
		httpCfg: HTTPClientConfig{Client: client},
		circuit: newBreaker(name),
		logger:  logger.With("provider", name),
		clock:   clock,
	}
}

func (p *OpenMeteoProvider) Name() string           { return p.name }
func (p *OpenMeteoProvider) Source() weather.Source { return weather.SourceConsolidatedGlobal }
func (p *OpenMeteoProvider) RequiresAPIKey() bool   { return false }
func (p *OpenMeteoProvider) SupportsNowcast() bool  { return true }
func (p *OpenMeteoProvider) HomeRegions() []string  { return nil }

func (p *OpenMeteoProvider) forecastURL(req weather.Request) string {
	q := url.Values{}
	q.Set("latitude", fmt.Sprintf("%.4f", req.Latitude))
	q.Set("longitude", fmt.Sprintf("%.4f", req.Longitude))
	q.Set("current", "temperature_2m,relative_humidity_2m,weather_code,wind_speed_10m,wind_direction_10m,surface_pressure,is_day")
	q.Set("hourly", "temperature_2m,weather_code,precipitation_probability,is_day")
	q.Set("daily", "weather_code,temperature_2m_max,temperature_2m_min,precipitation_probability_max")
	q.Set("minutely_15", "precipitation")
	q.Set("forecast_days", "7")
	q.Set("forecast_minutely_15", "4")
	q.Set("timezone", "auto")
	return p.baseURL + "?" + q.Encode()
}

func (p *OpenMeteoProvider) nowcastURL(req weather.Request) string {
	q := url.Values{}
	q.Set("latitude", fmt.Sprintf("%.4f", req.Latitude))
	q.Set("longitude", fmt.Sprintf("%.4f", req.Longitude))
	q.Set("minutely_15", "precipitation")
	q.Set("forecast_minutely_15", "4")
	q.Set("timezone", "auto")
	return p.baseURL + "?" + q.Encode()
}

func (p *OpenMeteoProvider) Resolve(ctx context.Context, req weather.Request) (*weather.Weather, error) {
	var payload openMeteoResponse
	err := fetchJSON(ctx, p.httpCfg, p.circuit, p.name, func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, p.forecastURL(req), nil)
	}, &payload)
	if err != nil {
		return nil, weather.NewStageError(p.name, "forecast", err)
	}
	if len(payload.Hourly.Time) == 0 || len(payload.Daily.Time) == 0 {
		return nil, weather.NewStageError(p.name, "forecast", fmt.Errorf("empty forecast payload"))
	}

	return p.normalize(req, &payload), nil
}

// FetchNowcast requests only the 15-minute precipitation series, for
// backfilling resolutions won by a provider without minute data.
func (p *OpenMeteoProvider) FetchNowcast(ctx context.Context, req weather.Request) (*weather.Nowcast, error) {
	var payload openMeteoResponse
	err := fetchJSON(ctx, p.httpCfg, p.circuit, p.name, func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, p.nowcastURL(req), nil)
	}, &payload)
	if err != nil {
		return nil, weather.NewStageError(p.name, "nowcast", err)
	}

	tz := p.location(&payload)
	nc := weather.BuildNowcast(p.Source(), nowcastIntervalOpenMeteo, p.nowcastPoints(&payload, tz), tz)
	return &nc, nil
}

func (p *OpenMeteoProvider) location(payload *openMeteoResponse) *time.Location {
	if loc, err := time.LoadLocation(payload.Timezone); err == nil {
		return loc
	}
	return time.FixedZone("local", payload.UTCOffsetSeconds)
}

func (p *OpenMeteoProvider) normalize(req weather.Request, payload *openMeteoResponse) *weather.Weather {
	tz := p.location(payload)

	w := &weather.Weather{
		Source:   p.Source(),
		Timezone: displayLabelFor(req),
		Nowcast:  weather.Nowcast{Available: false},
		Attribution: weather.Attribution{
			Name:    "Open-Meteo",
			URL:     "https://open-meteo.com",
			License: "CC BY 4.0",
		},
	}

	cur := payload.Current
	daytime := cur.IsDay == 1
	w.Currently = weather.Currently{
		Temperature: weather.CToF(cur.Temperature),
		Icon:        p.mapIcon(cur.WeatherCode, daytime),
		Summary:     wmoDescription(cur.WeatherCode),
		WindSpeed:   weather.KMHToMPH(cur.WindSpeed),
		Humidity:    cur.RelativeHumidity / 100,
		Pressure:    cur.SurfacePressure,
		IsDaytime:   daytime,
	}
	deg := cur.WindDirection
	w.Currently.WindDirection = weather.WindDirection{Degrees: &deg}

	w.Daily = weather.PadDaily(p.normalizeDaily(payload, tz))
	w.Hourly = p.normalizeHourly(payload, tz)
	w.Nowcast = weather.BuildNowcast(p.Source(), nowcastIntervalOpenMeteo, p.nowcastPoints(payload, tz), tz)

	return w
}

func (p *OpenMeteoProvider) normalizeDaily(payload *openMeteoResponse, tz *time.Location) []weather.DailyEntry {
	d := payload.Daily
	entries := make([]weather.DailyEntry, 0, len(d.Time))
	for i, day := range d.Time {
		midnight, err := time.ParseInLocation("2006-01-02", day, tz)
		if err != nil {
			continue
		}
		entry := weather.DailyEntry{
			Time:    midnight.Unix(),
			Icon:    p.mapIcon(indexOrZero(d.WeatherCode, i), true),
			Summary: wmoDescription(indexOrZero(d.WeatherCode, i)),
		}
		if i < len(d.TemperatureMax) {
			entry.TemperatureHigh = weather.CToF(d.TemperatureMax[i])
		}
		if i < len(d.TemperatureMin) {
			entry.TemperatureLow = weather.CToF(d.TemperatureMin[i])
		}
		if i < len(d.PrecipProbabilityMax) {
			entry.PrecipChance = d.PrecipProbabilityMax[i]
		}
		entries = append(entries, entry)
	}
	return entries
}

// normalizeHourly keeps only hours from now forward; Open-Meteo's hourly
// series starts at local midnight of the current day.
func (p *OpenMeteoProvider) normalizeHourly(payload *openMeteoResponse, tz *time.Location) []weather.HourlyEntry {
	h := payload.Hourly
	now := p.clock.Now().Add(-time.Hour)

	entries := make([]weather.HourlyEntry, 0, weather.HourlyCount)
	for i, stamp := range h.Time {
		t, err := time.ParseInLocation("2006-01-02T15:04", stamp, tz)
		if err != nil || t.Before(now) {
			continue
		}
		unix := t.Unix()
		code := indexOrZero(h.WeatherCode, i)
		daytime := indexOrZero(h.IsDay, i) == 1
		entries = append(entries, weather.HourlyEntry{
			Time:          unix,
			FormattedTime: weather.FormatClockTime(unix, tz),
			Temperature:   weather.CToF(indexOrZeroF(h.Temperature, i)),
			Icon:          p.mapIcon(code, daytime),
			Summary:       wmoDescription(code),
			PrecipChance:  indexOrZero(h.PrecipProbability, i),
			IsDaytime:     daytime,
		})
		if len(entries) == weather.HourlyCount {
			break
		}
	}
	return entries
}

func (p *OpenMeteoProvider) nowcastPoints(payload *openMeteoResponse, tz *time.Location) []weather.NowcastPoint {
	m := payload.Minutely15
	points := make([]weather.NowcastPoint, 0, len(m.Time))
	for i, stamp := range m.Time {
		t, err := time.ParseInLocation("2006-01-02T15:04", stamp, tz)
		if err != nil {
			continue
		}
		// Precipitation is mm per 15-minute bucket; scale to mm/h.
		rate := indexOrZeroF(m.Precipitation, i) * 4
		point := weather.NowcastPoint{
			Time:            t.Unix(),
			FormattedTime:   weather.FormatClockTime(t.Unix(), tz),
			PrecipIntensity: rate,
			IntensityLabel:  weather.LabelIntensity(rate),
			PrecipType:      weather.PrecipNone,
		}
		if point.IntensityLabel != weather.IntensityNone {
			point.PrecipType = weather.PrecipRain
			point.PrecipProbability = 1
		}
		points = append(points, point)
	}
	return points
}

func (p *OpenMeteoProvider) mapIcon(code int, daytime bool) weather.Icon {
	return weather.MapIcon(strconv.Itoa(code), wmoIconTable, daytime, p.logger)
}

// displayLabelFor falls back to raw coordinates when the request carries
// no name. Global providers have no reverse-geocoded label of their own.
func displayLabelFor(req weather.Request) string {
	if req.LocationName != "" {
		return req.LocationName
	}
	return weather.CoordinateKey(req.Latitude, req.Longitude)
}

func indexOrZero(s []int, i int) int {
	if i < len(s) {
		return s[i]
	}
	return 0
}

func indexOrZeroF(s []float64, i int) float64 {
	if i < len(s) {
		return s[i]
	}
	return 0
}

// wmoIconTable maps WMO weather interpretation codes to canonical icons.
var wmoIconTable = map[string]weather.Icon{
	"0":  weather.IconClearDay,
	"1":  weather.IconClearDay,
	"2":  weather.IconPartlyCloudyDay,
	"3":  weather.IconCloudy,
	"45": weather.IconFog,
	"48": weather.IconFog,
	"51": weather.IconRain,
	"53": weather.IconRain,
	"55": weather.IconRain,
	"56": weather.IconSleet,
	"57": weather.IconSleet,
	"61": weather.IconRain,
	"63": weather.IconRain,
	"65": weather.IconRain,
	"66": weather.IconSleet,
	"67": weather.IconSleet,
	"71": weather.IconSnow,
	"73": weather.IconSnow,
	"75": weather.IconSnow,
	"77": weather.IconSnow,
	"80": weather.IconRain,
	"81": weather.IconRain,
	"82": weather.IconRain,
	"85": weather.IconSnow,
	"86": weather.IconSnow,
	"95": weather.IconThunderstorm,
	"96": weather.IconThunderstorm,
	"99": weather.IconThunderstorm,
}

var wmoDescriptions = map[int]string{
	0:  "Clear Sky",
	1:  "Mainly Clear",
	2:  "Partly Cloudy",
	3:  "Overcast",
	45: "Fog",
	48: "Depositing Rime Fog",
	51: "Light Drizzle",
	53: "Drizzle",
	55: "Dense Drizzle",
	56: "Light Freezing Drizzle",
	57: "Freezing Drizzle",
	61: "Light Rain",
	63: "Rain",
	65: "Heavy Rain",
	66: "Light Freezing Rain",
	67: "Freezing Rain",
	71: "Light Snow",
	73: "Snow",
	75: "Heavy Snow",
	77: "Snow Grains",
	80: "Light Showers",
	81: "Showers",
	82: "Violent Showers",
	85: "Light Snow Showers",
	86: "Snow Showers",
	95: "Thunderstorm",
	96: "Thunderstorm With Hail",
	99: "Thunderstorm With Heavy Hail",
}

func wmoDescription(code int) string {
	if s, ok := wmoDescriptions[code]; ok {
		return s
	}
	return "Unknown Conditions"
}

type openMeteoResponse struct {
	Timezone         string `json:"timezone"`
	UTCOffsetSeconds int    `json:"utc_offset_seconds"`
	Current          struct {
		Temperature      float64 `json:"temperature_2m"`
		RelativeHumidity float64 `json:"relative_humidity_2m"`
		WeatherCode      int     `json:"weather_code"`
		WindSpeed        float64 `json:"wind_speed_10m"`
		WindDirection    float64 `json:"wind_direction_10m"`
		SurfacePressure  float64 `json:"surface_pressure"`
		IsDay            int     `json:"is_day"`
	} `json:"current"`
	Hourly struct {
		Time              []string  `json:"time"`
		Temperature       []float64 `json:"temperature_2m"`
		WeatherCode       []int     `json:"weather_code"`
		PrecipProbability []int     `json:"precipitation_probability"`
		IsDay             []int     `json:"is_day"`
	} `json:"hourly"`
	Daily struct {
		Time                 []string  `json:"time"`
		WeatherCode          []int     `json:"weather_code"`
		TemperatureMax       []float64 `json:"temperature_2m_max"`
		TemperatureMin       []float64 `json:"temperature_2m_min"`
		PrecipProbabilityMax []int     `json:"precipitation_probability_max"`
	} `json:"daily"`
	Minutely15 struct {
		Time          []string  `json:"time"`
		Precipitation []float64 `json:"precipitation"`
	} `json:"minutely_15"`
}
