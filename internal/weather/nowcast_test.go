package weather

import (
	"strings"
	"testing"
	"time"
)

func TestLabelIntensity(t *testing.T) {
	cases := []struct {
		rate float64
		want IntensityLabel
	}{
		{0, IntensityNone},
		{0.04, IntensityNone},
		{0.1, IntensityLight},
		{2.4, IntensityLight},
		{2.5, IntensityModerate},
		{7.5, IntensityModerate},
		{7.6, IntensityHeavy},
		{25, IntensityHeavy},
	}
	for _, tc := range cases {
		if got := LabelIntensity(tc.rate); got != tc.want {
			t.Errorf("LabelIntensity(%v) = %q, want %q", tc.rate, got, tc.want)
		}
	}
}

func minutePoints(rates []float64, precipType PrecipType) []NowcastPoint {
	base := time.Date(2026, 5, 1, 14, 0, 0, 0, time.UTC).Unix()
	points := make([]NowcastPoint, len(rates))
	for i, r := range rates {
		points[i] = NowcastPoint{
			Time:            base + int64(i)*60,
			PrecipIntensity: r,
			PrecipType:      precipType,
			IntensityLabel:  LabelIntensity(r),
		}
	}
	return points
}

func TestDescribeNowcastDry(t *testing.T) {
	points := minutePoints(make([]float64, 60), PrecipNone)
	got := DescribeNowcast(points, 1, time.UTC)
	if got != "No precipitation expected for the next hour." {
		t.Errorf("dry description = %q", got)
	}
}

func TestDescribeNowcastSteadyRain(t *testing.T) {
	rates := make([]float64, 60)
	for i := range rates {
		rates[i] = 3.0
	}
	got := DescribeNowcast(minutePoints(rates, PrecipRain), 1, time.UTC)
	if got != "Rain for the next hour." {
		t.Errorf("steady rain description = %q", got)
	}
}

func TestDescribeNowcastStopping(t *testing.T) {
	rates := make([]float64, 60)
	for i := 0; i < 20; i++ {
		rates[i] = 3.0
	}
	got := DescribeNowcast(minutePoints(rates, PrecipSnow), 1, time.UTC)
	if !strings.HasPrefix(got, "Snow stopping around ") {
		t.Errorf("stopping description = %q", got)
	}
}

func TestDescribeNowcastStarting(t *testing.T) {
	rates := make([]float64, 60)
	for i := 30; i < 60; i++ {
		rates[i] = 3.0
	}
	got := DescribeNowcast(minutePoints(rates, PrecipRain), 1, time.UTC)
	if !strings.HasPrefix(got, "Rain starting around ") {
		t.Errorf("starting description = %q", got)
	}
}

func TestBuildNowcast(t *testing.T) {
	points := minutePoints([]float64{0, 3, 3, 0}, PrecipRain)
	nc := BuildNowcast(SourceMinuteResolutionGlobal, 1, points, time.UTC)

	if !nc.Available || nc.Pending {
		t.Fatalf("nowcast not marked available: %+v", nc)
	}
	if nc.Source != SourceMinuteResolutionGlobal || nc.Interval != 1 {
		t.Errorf("source/interval = %q/%d", nc.Source, nc.Interval)
	}
	if nc.StartTime != points[0].Time || nc.EndTime != points[3].Time {
		t.Errorf("time bounds = %d..%d", nc.StartTime, nc.EndTime)
	}
	if nc.Description == "" {
		t.Errorf("description empty")
	}
}

func TestBuildNowcastEmpty(t *testing.T) {
	nc := BuildNowcast(SourceConsolidatedGlobal, 15, nil, time.UTC)
	if nc.Available {
		t.Errorf("empty series marked available")
	}
}
