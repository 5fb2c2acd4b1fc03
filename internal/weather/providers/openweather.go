package providers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"github.com/akovalyk/weather-resolver/internal/weather"
)

const openWeatherBaseURL = "https://api.openweathermap.org/data/2.5"

// OpenWeatherProvider serves the key-gated global source. Without a valid
// key Resolve short-circuits before any network call so the fallback chain
// moves on instantly.
type OpenWeatherProvider struct {
	name    string
	baseURL string
	apiKey  string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

func NewOpenWeatherProvider(client *http.Client, apiKey string, logger *slog.Logger) *OpenWeatherProvider {
	name := "openweathermap"
	return &OpenWeatherProvider{
		name:    name,
		baseURL: openWeatherBaseURL,
		apiKey:  apiKey,
		httpCfg: HTTPClientConfig{Client: client},
		circuit: newBreaker(name),
		logger:  logger.With("provider", name),
	}
}

func (p *OpenWeatherProvider) Name() string           { return p.name }
func (p *OpenWeatherProvider) Source() weather.Source { return weather.SourceKeyGatedGlobal }
func (p *OpenWeatherProvider) RequiresAPIKey() bool   { return true }
func (p *OpenWeatherProvider) SupportsNowcast() bool  { return false }
func (p *OpenWeatherProvider) HomeRegions() []string  { return nil }

func (p *OpenWeatherProvider) endpoint(path string, req weather.Request) string {
	q := url.Values{}
	q.Set("lat", fmt.Sprintf("%.4f", req.Latitude))
	q.Set("lon", fmt.Sprintf("%.4f", req.Longitude))
	q.Set("units", "metric")
	q.Set("appid", p.apiKey)
	return p.baseURL + path + "?" + q.Encode()
}

func (p *OpenWeatherProvider) Resolve(ctx context.Context, req weather.Request) (*weather.Weather, error) {
	if p.apiKey == "" {
		return nil, weather.NewStageError(p.name, "configuration", weather.ErrNoAPIKey)
	}

	var (
		wg          sync.WaitGroup
		current     owmCurrentResponse
		forecast    owmForecastResponse
		currentErr  error
		forecastErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		currentErr = fetchJSON(ctx, p.httpCfg, p.circuit, p.name, func() (*http.Request, error) {
			return http.NewRequest(http.MethodGet, p.endpoint("/weather", req), nil)
		}, &current)
	}()
	go func() {
		defer wg.Done()
		forecastErr = fetchJSON(ctx, p.httpCfg, p.circuit, p.name, func() (*http.Request, error) {
			return http.NewRequest(http.MethodGet, p.endpoint("/forecast", req), nil)
		}, &forecast)
	}()
	wg.Wait()

	if currentErr != nil {
		return nil, weather.NewStageError(p.name, "current-conditions", currentErr)
	}
	if forecastErr != nil {
		return nil, weather.NewStageError(p.name, "forecast", forecastErr)
	}
	if len(forecast.List) == 0 {
		return nil, weather.NewStageError(p.name, "forecast", fmt.Errorf("empty forecast payload"))
	}

	return p.normalize(req, &current, &forecast), nil
}

func (p *OpenWeatherProvider) normalize(req weather.Request, current *owmCurrentResponse, forecast *owmForecastResponse) *weather.Weather {
	tz := time.FixedZone("local", forecast.City.Timezone)

	w := &weather.Weather{
		Source:   p.Source(),
		Timezone: p.displayLabel(req, current),
		Nowcast:  weather.Nowcast{Available: false},
		Attribution: weather.Attribution{
			Name:    "OpenWeather",
			URL:     "https://openweathermap.org",
			License: "CC BY-SA 4.0",
		},
	}

	iconCode := ""
	summary := ""
	if len(current.Weather) > 0 {
		iconCode = current.Weather[0].Icon
		summary = titleCase(current.Weather[0].Description)
	}
	daytime := owmDaytime(iconCode)

	w.Currently = weather.Currently{
		Temperature: weather.CToF(current.Main.Temp),
		Icon:        p.mapIcon(iconCode, daytime),
		Summary:     summary,
		WindSpeed:   weather.MSToMPH(current.Wind.Speed),
		Humidity:    current.Main.Humidity / 100,
		Pressure:    current.Main.Pressure,
		Visibility:  weather.MetersToMiles(current.Visibility),
		IsDaytime:   daytime,
	}
	deg := current.Wind.Deg
	w.Currently.WindDirection = weather.WindDirection{Degrees: &deg}

	w.Daily = weather.PadDaily(p.normalizeDaily(forecast, tz))
	w.Hourly = p.normalizeHourly(forecast, tz)

	return w
}

func (p *OpenWeatherProvider) displayLabel(req weather.Request, current *owmCurrentResponse) string {
	if current.Name != "" {
		if current.Sys.Country != "" {
			return current.Name + ", " + current.Sys.Country
		}
		return current.Name
	}
	return displayLabelFor(req)
}

// normalizeDaily buckets the 3-hour forecast entries by local calendar day,
// taking the day's extreme temperatures and its worst precipitation chance.
func (p *OpenWeatherProvider) normalizeDaily(forecast *owmForecastResponse, tz *time.Location) []weather.DailyEntry {
	type bucket struct {
		entry weather.DailyEntry
	}

	var order []int64
	buckets := make(map[int64]*bucket)

	for _, item := range forecast.List {
		t := time.Unix(item.Dt, 0).In(tz)
		midnight := weather.LocalMidnight(t, tz)

		b, ok := buckets[midnight]
		if !ok {
			b = &bucket{entry: weather.DailyEntry{
				Time:            midnight,
				TemperatureHigh: item.Main.TempMax,
				TemperatureLow:  item.Main.TempMin,
			}}
			buckets[midnight] = b
			order = append(order, midnight)
		}

		if item.Main.TempMax > b.entry.TemperatureHigh {
			b.entry.TemperatureHigh = item.Main.TempMax
		}
		if item.Main.TempMin < b.entry.TemperatureLow {
			b.entry.TemperatureLow = item.Main.TempMin
		}
		if pop := int(item.Pop * 100); pop > b.entry.PrecipChance {
			b.entry.PrecipChance = pop
		}

		// Prefer a midday slot for the day's icon and summary.
		hour := t.Hour()
		if len(item.Weather) > 0 && (b.entry.Summary == "" || (hour >= 11 && hour <= 14)) {
			b.entry.Icon = p.mapIcon(item.Weather[0].Icon, true)
			b.entry.Summary = titleCase(item.Weather[0].Description)
		}
	}

	entries := make([]weather.DailyEntry, 0, len(order))
	for _, midnight := range order {
		b := buckets[midnight]
		b.entry.TemperatureHigh = weather.CToF(b.entry.TemperatureHigh)
		b.entry.TemperatureLow = weather.CToF(b.entry.TemperatureLow)
		entries = append(entries, b.entry)
	}
	return entries
}

func (p *OpenWeatherProvider) normalizeHourly(forecast *owmForecastResponse, tz *time.Location) []weather.HourlyEntry {
	entries := make([]weather.HourlyEntry, 0, weather.HourlyCount)
	for _, item := range forecast.List {
		iconCode := ""
		summary := ""
		if len(item.Weather) > 0 {
			iconCode = item.Weather[0].Icon
			summary = titleCase(item.Weather[0].Description)
		}
		daytime := owmDaytime(iconCode)
		entries = append(entries, weather.HourlyEntry{
			Time:          item.Dt,
			FormattedTime: weather.FormatClockTime(item.Dt, tz),
			Temperature:   weather.CToF(item.Main.Temp),
			Icon:          p.mapIcon(iconCode, daytime),
			Summary:       summary,
			PrecipChance:  int(item.Pop * 100),
			IsDaytime:     daytime,
		})
		if len(entries) == weather.HourlyCount {
			break
		}
	}
	return entries
}

func (p *OpenWeatherProvider) mapIcon(code string, daytime bool) weather.Icon {
	return weather.MapIcon(code, owmIconTable, daytime, p.logger)
}

// owmDaytime reads the d/n suffix OpenWeatherMap puts on icon codes.
func owmDaytime(code string) bool {
	return len(code) == 0 || code[len(code)-1] != 'n'
}

func titleCase(s string) string {
	out := []byte(s)
	upper := true
	for i, c := range out {
		if c == ' ' {
			upper = true
			continue
		}
		if upper && c >= 'a' && c <= 'z' {
			out[i] = c - 'a' + 'A'
		}
		upper = false
	}
	return string(out)
}

// owmIconTable maps OpenWeatherMap icon codes (day and night variants) to
// canonical icons; MapIcon handles day/night resolution.
var owmIconTable = map[string]weather.Icon{
	"01d": weather.IconClearDay,
	"01n": weather.IconClearNight,
	"02d": weather.IconPartlyCloudyDay,
	"02n": weather.IconPartlyCloudyNight,
	"03d": weather.IconCloudy,
	"03n": weather.IconCloudy,
	"04d": weather.IconCloudy,
	"04n": weather.IconCloudy,
	"09d": weather.IconRain,
	"09n": weather.IconRain,
	"10d": weather.IconRain,
	"10n": weather.IconRain,
	"11d": weather.IconThunderstorm,
	"11n": weather.IconThunderstorm,
	"13d": weather.IconSnow,
	"13n": weather.IconSnow,
	"50d": weather.IconFog,
	"50n": weather.IconFog,
}

type owmCurrentResponse struct {
	Name string `json:"name"`
	Sys  struct {
		Country string `json:"country"`
	} `json:"sys"`
	Weather []owmCondition `json:"weather"`
	Main    struct {
		Temp     float64 `json:"temp"`     // °C with units=metric
		Humidity float64 `json:"humidity"` // percent
		Pressure float64 `json:"pressure"` // hPa
		TempMax  float64 `json:"temp_max"`
		TempMin  float64 `json:"temp_min"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"` // m/s with units=metric
		Deg   float64 `json:"deg"`
	} `json:"wind"`
	Visibility float64 `json:"visibility"` // meters
}

type owmCondition struct {
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type owmForecastResponse struct {
	List []struct {
		Dt      int64          `json:"dt"`
		Weather []owmCondition `json:"weather"`
		Main    struct {
			Temp    float64 `json:"temp"`
			TempMax float64 `json:"temp_max"`
			TempMin float64 `json:"temp_min"`
		} `json:"main"`
		Pop float64 `json:"pop"`
	} `json:"list"`
	City struct {
		Timezone int `json:"timezone"` // UTC offset seconds
	} `json:"city"`
}
