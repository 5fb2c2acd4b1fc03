package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/akovalyk/weather-resolver/internal/weather"
)

func testOpenWeather(t *testing.T, apiKey string, handler http.Handler) *OpenWeatherProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	p := NewOpenWeatherProvider(server.Client(), apiKey, slog.New(slog.NewTextHandler(io.Discard, nil)))
	p.baseURL = server.URL
	return p
}

func TestOpenWeatherNoKeyShortCircuits(t *testing.T) {
	var hits int
	p := testOpenWeather(t, "", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))

	_, err := p.Resolve(context.Background(), weather.Request{Latitude: 40, Longitude: -75})
	if !errors.Is(err, weather.ErrNoAPIKey) {
		t.Fatalf("error = %v, want ErrNoAPIKey", err)
	}
	if hits != 0 {
		t.Errorf("upstream hit %d times without a key", hits)
	}
}

func openWeatherForecastJSON(base time.Time) string {
	var items []string
	// Two local days of 3-hour slots.
	for i := 0; i < 16; i++ {
		ts := base.Add(time.Duration(i*3) * time.Hour)
		items = append(items, fmt.Sprintf(`{
			"dt": %d,
			"weather": [{"main": "Rain", "description": "light rain", "icon": "10d"}],
			"main": {"temp": %d, "temp_max": %d, "temp_min": %d},
			"pop": 0.%d
		}`, ts.Unix(), 15+i%4, 17+i%4, 12+i%4, i%10))
	}
	return fmt.Sprintf(`{"list": [%s], "city": {"timezone": 0}}`, strings.Join(items, ","))
}

func TestOpenWeatherResolve(t *testing.T) {
	base := time.Now().UTC().Truncate(24 * time.Hour)

	mux := http.NewServeMux()
	mux.HandleFunc("/weather", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("appid") != "test-key" {
			t.Errorf("missing appid on current request")
		}
		fmt.Fprint(w, `{
			"name": "London",
			"sys": {"country": "GB"},
			"weather": [{"main": "Clouds", "description": "overcast clouds", "icon": "04n"}],
			"main": {"temp": 10, "humidity": 80, "pressure": 1020},
			"wind": {"speed": 5, "deg": 200},
			"visibility": 8000
		}`)
	})
	mux.HandleFunc("/forecast", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, openWeatherForecastJSON(base))
	})

	p := testOpenWeather(t, "test-key", mux)

	w, err := p.Resolve(context.Background(), weather.Request{Latitude: 51.5, Longitude: -0.12})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if w.Source != weather.SourceKeyGatedGlobal {
		t.Errorf("source = %q", w.Source)
	}
	if w.Timezone != "London, GB" {
		t.Errorf("display label = %q", w.Timezone)
	}

	// 10°C → 50°F, 5 m/s → ~11.2 mph.
	if w.Currently.Temperature != 50 {
		t.Errorf("temperature = %v, want 50", w.Currently.Temperature)
	}
	if w.Currently.WindSpeed < 11.1 || w.Currently.WindSpeed > 11.3 {
		t.Errorf("wind = %v, want ~11.18", w.Currently.WindSpeed)
	}
	if w.Currently.Icon != weather.IconCloudy {
		t.Errorf("icon = %q, want cloudy", w.Currently.Icon)
	}
	if w.Currently.IsDaytime {
		t.Errorf("night icon code 04n marked daytime")
	}
	if w.Currently.Summary != "Overcast Clouds" {
		t.Errorf("summary = %q, want title case", w.Currently.Summary)
	}

	if len(w.Daily) != weather.DailyCount {
		t.Fatalf("daily length = %d, want %d (bucketed and padded)", len(w.Daily), weather.DailyCount)
	}
	// Bucketed day takes extremes across its 3-hour slots, converted to °F.
	if w.Daily[0].TemperatureHigh <= w.Daily[0].TemperatureLow {
		t.Errorf("daily[0] high %v not above low %v", w.Daily[0].TemperatureHigh, w.Daily[0].TemperatureLow)
	}

	if len(w.Hourly) != weather.HourlyCount {
		t.Errorf("hourly length = %d, want %d", len(w.Hourly), weather.HourlyCount)
	}

	if w.Nowcast.Available {
		t.Errorf("source has no minute data, nowcast must be unavailable")
	}
}

func TestTitleCase(t *testing.T) {
	if got := titleCase("scattered clouds"); got != "Scattered Clouds" {
		t.Errorf("titleCase = %q", got)
	}
	if got := titleCase(""); got != "" {
		t.Errorf("titleCase empty = %q", got)
	}
}

func TestOWMDaytime(t *testing.T) {
	if owmDaytime("01n") {
		t.Errorf("night code reported daytime")
	}
	if !owmDaytime("01d") || !owmDaytime("") {
		t.Errorf("day/unknown codes must report daytime")
	}
}
