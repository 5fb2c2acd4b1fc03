package weather

import (
	"fmt"
	"time"
)

// Precipitation intensity tiers in mm/h, aligned with the usual
// light/moderate/heavy meteorological thresholds.
const (
	intensityTraceMMH    = 0.05
	intensityLightMMH    = 2.5
	intensityModerateMMH = 7.6
)

// LabelIntensity maps a precipitation rate in mm/h to its display tier.
func LabelIntensity(mmPerHour float64) IntensityLabel {
	switch {
	case mmPerHour < intensityTraceMMH:
		return IntensityNone
	case mmPerHour < intensityLightMMH:
		return IntensityLight
	case mmPerHour < intensityModerateMMH:
		return IntensityModerate
	default:
		return IntensityHeavy
	}
}

// precipNoun renders a PrecipType for use in a sentence.
func precipNoun(t PrecipType) string {
	switch t {
	case PrecipSnow:
		return "Snow"
	case PrecipSleet:
		return "Sleet"
	case PrecipMix:
		return "Mixed precipitation"
	default:
		return "Rain"
	}
}

// DescribeNowcast builds the human sentence summarizing a minute-level
// precipitation series. The description only depends on the points
// themselves so re-normalizing a payload yields the same sentence.
func DescribeNowcast(points []NowcastPoint, interval int, loc *time.Location) string {
	if len(points) == 0 {
		return "No precipitation data available."
	}

	horizon := "hour"
	if d := time.Duration(len(points)*interval) * time.Minute; d > 90*time.Minute {
		horizon = fmt.Sprintf("%d hours", int(d.Round(time.Hour).Hours()))
	}

	firstWet := -1
	lastWet := -1
	dominant := PrecipRain
	for i, p := range points {
		if p.IntensityLabel == IntensityNone {
			continue
		}
		if firstWet < 0 {
			firstWet = i
			if p.PrecipType != PrecipNone {
				dominant = p.PrecipType
			}
		}
		lastWet = i
	}

	if firstWet < 0 {
		return fmt.Sprintf("No precipitation expected for the next %s.", horizon)
	}

	noun := precipNoun(dominant)
	if firstWet == 0 {
		if lastWet == len(points)-1 {
			return fmt.Sprintf("%s for the next %s.", noun, horizon)
		}
		return fmt.Sprintf("%s stopping around %s.", noun, FormatClockTime(points[lastWet].Time, loc))
	}
	return fmt.Sprintf("%s starting around %s.", noun, FormatClockTime(points[firstWet].Time, loc))
}

// BuildNowcast assembles the canonical nowcast sub-object from normalized
// points. Points must be time-ordered.
func BuildNowcast(source Source, interval int, points []NowcastPoint, loc *time.Location) Nowcast {
	if len(points) == 0 {
		return Nowcast{Available: false}
	}
	return Nowcast{
		Available:   true,
		Source:      source,
		Interval:    interval,
		StartTime:   points[0].Time,
		EndTime:     points[len(points)-1].Time,
		Description: DescribeNowcast(points, interval, loc),
		Data:        points,
	}
}
