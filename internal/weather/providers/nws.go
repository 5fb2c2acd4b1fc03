package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/sony/gobreaker"

	"github.com/akovalyk/weather-resolver/internal/weather"
)

// NWSProvider implements the weather.Provider interface for the US
// National Weather Service (api.weather.gov). It is the only station-based
// provider: current conditions come from the nearest observation station
// that has a fresh, usable reading, while forecasts come from the NWS
// gridpoint endpoints.
//
// Pipeline stages, each a fallback trigger except station resolution:
//
//	points lookup → station discovery → station resolution (degrades
//	gracefully) → concurrent daily/hourly/alerts fan-out → normalization
type NWSProvider struct {
	name      string
	baseURL   string
	userAgent string
	httpCfg   HTTPClientConfig
	circuit   *gobreaker.CircuitBreaker
	clock     clockwork.Clock
	logger    *slog.Logger
}

func NewNWSProvider(client *http.Client, userAgent string, logger *slog.Logger, clock clockwork.Clock) *NWSProvider {
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &NWSProvider{
		name:      "nws",
		baseURL:   "https://api.weather.gov",
		userAgent: userAgent,
		httpCfg:   HTTPClientConfig{Client: client},
		circuit:   newBreaker("nws"),
		clock:     clock,
		logger:    logger,
	}
}

func (p *NWSProvider) Name() string           { return p.name }
func (p *NWSProvider) Source() weather.Source { return weather.SourceOfficialStation }
func (p *NWSProvider) RequiresAPIKey() bool   { return false }
func (p *NWSProvider) SupportsNowcast() bool  { return false }
func (p *NWSProvider) HomeRegions() []string  { return []string{"US"} }

// get issues one NWS request with the identifying User-Agent and geo-JSON
// accept header both endpoints require.
func (p *NWSProvider) get(ctx context.Context, url string, v any) error {
	return fetchJSON(ctx, p.httpCfg, p.circuit, p.name, func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", p.userAgent)
		req.Header.Set("Accept", "application/geo+json")
		return req, nil
	}, v)
}

func (p *NWSProvider) Resolve(ctx context.Context, req weather.Request) (*weather.Weather, error) {
	// Stage 1: coordinate → grid identifier and administrative location.
	var points nwsPointsResponse
	pointsURL := fmt.Sprintf("%s/points/%.4f,%.4f", p.baseURL, req.Latitude, req.Longitude)
	if err := p.get(ctx, pointsURL, &points); err != nil {
		return nil, weather.NewStageError(p.name, "grid-resolution", err)
	}
	if points.Properties.Forecast == "" || points.Properties.ForecastHourly == "" {
		return nil, weather.NewStageError(p.name, "grid-resolution", fmt.Errorf("points response missing forecast URLs"))
	}

	// Stage 2: nearby observation stations for the grid.
	var stations nwsStationsResponse
	if err := p.get(ctx, points.Properties.ObservationStations, &stations); err != nil {
		return nil, weather.NewStageError(p.name, "station-discovery", err)
	}

	// Stage 3: best available observation. A nil result is not a pipeline
	// failure; current conditions then degrade to forecast data.
	obs, station := p.resolveBestObservation(ctx, candidatesFrom(stations, req.Latitude, req.Longitude))

	// Stage 4: daily forecast, hourly forecast and active alerts fetched
	// concurrently. All three must succeed or the pipeline fails over.
	var (
		wg     sync.WaitGroup
		daily  nwsForecastResponse
		hourly nwsForecastResponse
		alerts nwsAlertsResponse

		dailyErr, hourlyErr, alertsErr error
	)
	alertsURL := fmt.Sprintf("%s/alerts/active?point=%.4f,%.4f", p.baseURL, req.Latitude, req.Longitude)

	wg.Add(3)
	go func() {
		defer wg.Done()
		dailyErr = p.get(ctx, points.Properties.Forecast, &daily)
	}()
	go func() {
		defer wg.Done()
		hourlyErr = p.get(ctx, points.Properties.ForecastHourly, &hourly)
	}()
	go func() {
		defer wg.Done()
		alertsErr = p.get(ctx, alertsURL, &alerts)
	}()
	wg.Wait()

	if dailyErr != nil {
		return nil, weather.NewStageError(p.name, "daily-forecast", dailyErr)
	}
	if hourlyErr != nil {
		return nil, weather.NewStageError(p.name, "hourly-forecast", hourlyErr)
	}
	if alertsErr != nil {
		return nil, weather.NewStageError(p.name, "alerts", alertsErr)
	}
	if len(daily.Properties.Periods) == 0 || len(hourly.Properties.Periods) == 0 {
		return nil, weather.NewStageError(p.name, "daily-forecast", fmt.Errorf("forecast response has no periods"))
	}

	w := p.normalize(req, &points, obs, station, &daily, &hourly, &alerts)
	// Periods with unparseable timestamps are dropped during
	// normalization; if none survive there is nothing to pad from.
	if len(w.Daily) == 0 {
		return nil, weather.NewStageError(p.name, "daily-forecast", fmt.Errorf("no parseable forecast periods"))
	}
	return w, nil
}

// --- upstream payload shapes ---

type nwsPointsResponse struct {
	Properties struct {
		GridID              string `json:"gridId"`
		GridX               int    `json:"gridX"`
		GridY               int    `json:"gridY"`
		Forecast            string `json:"forecast"`
		ForecastHourly      string `json:"forecastHourly"`
		ObservationStations string `json:"observationStations"`
		TimeZone            string `json:"timeZone"`
		RelativeLocation    struct {
			Properties struct {
				City  string `json:"city"`
				State string `json:"state"`
			} `json:"properties"`
		} `json:"relativeLocation"`
	} `json:"properties"`
}

type nwsStationsResponse struct {
	Features []struct {
		ID       string `json:"id"`
		Geometry *struct {
			Coordinates []float64 `json:"coordinates"` // [lon, lat]
		} `json:"geometry"`
		Properties struct {
			StationIdentifier string `json:"stationIdentifier"`
			Name              string `json:"name"`
		} `json:"properties"`
	} `json:"features"`
}

// nwsQuantity is the NWS measured-value envelope; Value is null when the
// station did not report the field.
type nwsQuantity struct {
	Value    *float64 `json:"value"`
	UnitCode string   `json:"unitCode"`
}

type nwsObservationResponse struct {
	Properties nwsObservation `json:"properties"`
}

type nwsObservation struct {
	Timestamp          string      `json:"timestamp"`
	TextDescription    string      `json:"textDescription"`
	Icon               string      `json:"icon"`
	Temperature        nwsQuantity `json:"temperature"`        // °C
	WindSpeed          nwsQuantity `json:"windSpeed"`          // km/h
	WindDirection      nwsQuantity `json:"windDirection"`      // degrees
	RelativeHumidity   nwsQuantity `json:"relativeHumidity"`   // percent
	BarometricPressure nwsQuantity `json:"barometricPressure"` // Pa
	Visibility         nwsQuantity `json:"visibility"`         // m
}

type nwsForecastResponse struct {
	Properties struct {
		Periods []nwsPeriod `json:"periods"`
	} `json:"properties"`
}

type nwsPeriod struct {
	Number                     int     `json:"number"`
	Name                       string  `json:"name"`
	StartTime                  string  `json:"startTime"`
	EndTime                    string  `json:"endTime"`
	IsDaytime                  bool    `json:"isDaytime"`
	Temperature                float64 `json:"temperature"` // °F
	TemperatureUnit            string  `json:"temperatureUnit"`
	ProbabilityOfPrecipitation struct {
		Value *float64 `json:"value"`
	} `json:"probabilityOfPrecipitation"`
	WindSpeed        string `json:"windSpeed"` // e.g. "5 to 10 mph"
	WindDirection    string `json:"windDirection"`
	Icon             string `json:"icon"`
	ShortForecast    string `json:"shortForecast"`
	DetailedForecast string `json:"detailedForecast"`
}

type nwsAlertsResponse struct {
	Features []struct {
		ID         string          `json:"id"`
		Geometry   json.RawMessage `json:"geometry"`
		Properties struct {
			Event       string `json:"event"`
			Headline    string `json:"headline"`
			Description string `json:"description"`
			Instruction string `json:"instruction"`
			Severity    string `json:"severity"`
			Urgency     string `json:"urgency"`
			Expires     string `json:"expires"`
		} `json:"properties"`
	} `json:"features"`
}
