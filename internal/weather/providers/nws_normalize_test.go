package providers

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/akovalyk/weather-resolver/internal/weather"
)

func bareNWSProvider() *NWSProvider {
	return NewNWSProvider(nil, "test-agent", slog.New(slog.NewTextHandler(io.Discard, nil)), clockwork.NewFakeClockAt(testRefTime))
}

func TestCleanObservationText(t *testing.T) {
	cases := []struct {
		in           string
		want         string
		wantAdjusted bool
	}{
		{"Mostly Cloudy", "Mostly Cloudy", false},
		{"Rain likely", "Rain", true},
		{"Showers expected tonight", "Showers", true},
		{"Chance of thunderstorms", "thunderstorms", true},
		{"Snow will be heavy at times", "Snow heavy at times", true},
		// Stripping everything keeps the original text.
		{"Likely", "Likely", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, adjusted := cleanObservationText(tc.in)
		if got != tc.want || adjusted != tc.wantAdjusted {
			t.Errorf("cleanObservationText(%q) = (%q, %v), want (%q, %v)",
				tc.in, got, adjusted, tc.want, tc.wantAdjusted)
		}
	}
}

func TestNWSIconCode(t *testing.T) {
	cases := []struct {
		url     string
		code    string
		daytime bool
	}{
		{"https://api.weather.gov/icons/land/day/tsra,40?size=medium", "tsra", true},
		{"https://api.weather.gov/icons/land/night/sct", "sct", false},
		{"https://api.weather.gov/icons/land/day/rain_showers,30", "rain_showers", true},
		{"", "", true},
	}
	for _, tc := range cases {
		code, daytime := nwsIconCode(tc.url)
		if code != tc.code || daytime != tc.daytime {
			t.Errorf("nwsIconCode(%q) = (%q, %v), want (%q, %v)", tc.url, code, daytime, tc.code, tc.daytime)
		}
	}
}

func TestNWSIconMapping(t *testing.T) {
	p := bareNWSProvider()

	cases := []struct {
		url  string
		want weather.Icon
	}{
		{"https://api.weather.gov/icons/land/day/tsra,40", weather.IconThunderstorm},
		{"https://api.weather.gov/icons/land/night/sct", weather.IconPartlyCloudyNight},
		{"https://api.weather.gov/icons/land/day/snow_fzra", weather.IconSleet},
		{"https://api.weather.gov/icons/land/night/skc", weather.IconClearNight},
		{"https://api.weather.gov/icons/land/day/blizzard", weather.IconSnow},
	}
	for _, tc := range cases {
		if got := p.mapIcon(tc.url, true); got != tc.want {
			t.Errorf("mapIcon(%q) = %q, want %q", tc.url, got, tc.want)
		}
	}
}

func TestParseWindMPH(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"5 mph", 5},
		{"10 to 20 mph", 20},
		{"", 0},
		{"calm", 0},
	}
	for _, tc := range cases {
		if got := parseWindMPH(tc.in); got != tc.want {
			t.Errorf("parseWindMPH(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeObservationAppendsWindy(t *testing.T) {
	p := bareNWSProvider()

	temp := 25.0
	wind := 40.0 // km/h, ~24.9 mph
	obs := &nwsObservation{
		Timestamp:       testRefTime.Add(-10 * time.Minute).Format(time.RFC3339),
		TextDescription: "Mostly Sunny",
		Temperature:     nwsQuantity{Value: &temp},
		WindSpeed:       nwsQuantity{Value: &wind, UnitCode: "wmoUnit:km_h-1"},
	}

	cur, _ := p.normalizeObservation(obs, nil, nwsPeriod{IsDaytime: true})
	if cur.Summary != "Mostly Sunny and Windy" {
		t.Errorf("summary = %q, want wind note appended", cur.Summary)
	}

	// A summary already mentioning wind is left alone.
	obs.TextDescription = "Windy"
	cur, _ = p.normalizeObservation(obs, nil, nwsPeriod{IsDaytime: true})
	if cur.Summary != "Windy" {
		t.Errorf("summary = %q, wind note must not duplicate", cur.Summary)
	}
}

func TestNormalizeObservationUnitCodeVariants(t *testing.T) {
	p := bareNWSProvider()

	temp := 0.0
	wind := 10.0
	obs := &nwsObservation{
		Timestamp:       testRefTime.Format(time.RFC3339),
		TextDescription: "Clear",
		Temperature:     nwsQuantity{Value: &temp},
		WindSpeed:       nwsQuantity{Value: &wind, UnitCode: "wmoUnit:m_s-1"},
	}

	cur, _ := p.normalizeObservation(obs, nil, nwsPeriod{IsDaytime: true})
	if cur.Temperature != 32 {
		t.Errorf("temperature = %v, want 32", cur.Temperature)
	}
	// 10 m/s is ~22.4 mph; the km/h interpretation would be ~6.2.
	if cur.WindSpeed < 22 || cur.WindSpeed > 23 {
		t.Errorf("wind speed = %v, want ~22.4 (m/s reading)", cur.WindSpeed)
	}
}

func TestNormalizeDailyLeadingTonight(t *testing.T) {
	p := bareNWSProvider()
	tz := time.FixedZone("EDT", -4*3600)

	periods := []nwsPeriod{
		{Name: "Tonight", IsDaytime: false, Temperature: 60,
			StartTime: "2026-08-28T18:00:00-04:00", ShortForecast: "Clear"},
		{Name: "Saturday", IsDaytime: true, Temperature: 82,
			StartTime: "2026-08-29T06:00:00-04:00", ShortForecast: "Sunny"},
		{Name: "Saturday Night", IsDaytime: false, Temperature: 64,
			StartTime: "2026-08-29T18:00:00-04:00", ShortForecast: "Clear"},
	}

	entries := p.normalizeDaily(periods, tz)
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}

	// Leading night-only entry synthesizes its high.
	if entries[0].TemperatureLow != 60 || entries[0].TemperatureHigh != 70 {
		t.Errorf("leading night = %v/%v, want 70/60", entries[0].TemperatureHigh, entries[0].TemperatureLow)
	}
	// Regular day/night pair.
	if entries[1].TemperatureHigh != 82 || entries[1].TemperatureLow != 64 {
		t.Errorf("paired day = %v/%v, want 82/64", entries[1].TemperatureHigh, entries[1].TemperatureLow)
	}
}

func TestIsNightCounterpart(t *testing.T) {
	cases := []struct {
		day, night string
		want       bool
	}{
		{"Saturday", "Saturday Night", true},
		{"Today", "Tonight", true},
		{"This Afternoon", "Tonight", true},
		{"Saturday", "Sunday Night", false},
	}
	for _, tc := range cases {
		if got := isNightCounterpart(tc.day, tc.night); got != tc.want {
			t.Errorf("isNightCounterpart(%q, %q) = %v, want %v", tc.day, tc.night, got, tc.want)
		}
	}
}
