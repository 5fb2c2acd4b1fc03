package providers

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/akovalyk/weather-resolver/internal/weather"
)

// windyThresholdMPH is the measured wind speed above which a summary that
// does not already mention wind gets "and Windy" appended.
const windyThresholdMPH = 15

// nwsIconTable maps the condition code embedded in NWS icon URLs
// (e.g. https://api.weather.gov/icons/land/day/tsra,40) to canonical icons.
// Day/night resolution happens after lookup.
var nwsIconTable = map[string]weather.Icon{
	"skc":             weather.IconClearDay,
	"few":             weather.IconClearDay,
	"sct":             weather.IconPartlyCloudyDay,
	"bkn":             weather.IconPartlyCloudyDay,
	"ovc":             weather.IconCloudy,
	"wind_skc":        weather.IconWind,
	"wind_few":        weather.IconWind,
	"wind_sct":        weather.IconWind,
	"wind_bkn":        weather.IconWind,
	"wind_ovc":        weather.IconWind,
	"rain":            weather.IconRain,
	"rain_showers":    weather.IconRain,
	"rain_showers_hi": weather.IconRain,
	"snow":            weather.IconSnow,
	"blizzard":        weather.IconSnow,
	"rain_snow":       weather.IconSleet,
	"rain_sleet":      weather.IconSleet,
	"snow_sleet":      weather.IconSleet,
	"sleet":           weather.IconSleet,
	"fzra":            weather.IconSleet,
	"rain_fzra":       weather.IconSleet,
	"snow_fzra":       weather.IconSleet,
	"tsra":            weather.IconThunderstorm,
	"tsra_sct":        weather.IconThunderstorm,
	"tsra_hi":         weather.IconThunderstorm,
	"tornado":         weather.IconThunderstorm,
	"hurricane":       weather.IconThunderstorm,
	"tropical_storm":  weather.IconThunderstorm,
	"fog":             weather.IconFog,
	"haze":            weather.IconFog,
	"dust":            weather.IconFog,
	"smoke":           weather.IconFog,
	"hot":             weather.IconClearDay,
	"cold":            weather.IconClearDay,
}

// nwsIconCode extracts the condition code and day/night flag from an NWS
// icon URL. Unknown shapes fall through to substring matching on the whole
// URL inside MapIcon.
func nwsIconCode(iconURL string) (code string, daytime bool) {
	daytime = !strings.Contains(iconURL, "/night/")

	parts := strings.Split(iconURL, "/")
	last := parts[len(parts)-1]
	if q := strings.IndexByte(last, '?'); q >= 0 {
		last = last[:q]
	}
	if c := strings.IndexByte(last, ','); c >= 0 {
		last = last[:c]
	}
	return last, daytime
}

func (p *NWSProvider) mapIcon(iconURL string, daytimeHint bool) weather.Icon {
	code, daytime := nwsIconCode(iconURL)
	if iconURL == "" {
		daytime = daytimeHint
	}
	return weather.MapIcon(code, nwsIconTable, daytime, p.logger)
}

// forecastRegisterRe matches words that belong in a forecast, not in a
// statement of current conditions. Station observations occasionally leak
// forecast narrative through textDescription.
var forecastRegisterRe = regexp.MustCompile(`(?i)\b(?:likely|chance(?:\s+of)?|possible|expect(?:ed|s)?|will\s+be|tonight|tomorrow)\b`)

// cleanObservationText strips forecast-register words from an observation
// description and collapses the remaining whitespace. When stripping would
// leave nothing, the original text is kept unadjusted.
func cleanObservationText(s string) (cleaned string, adjusted bool) {
	original := strings.Join(strings.Fields(s), " ")

	stripped := forecastRegisterRe.ReplaceAllString(s, " ")
	stripped = strings.Join(strings.Fields(stripped), " ")
	stripped = strings.Trim(stripped, " ,.;")

	if stripped == "" {
		return original, false
	}
	return stripped, stripped != original
}

// parseWindMPH extracts the highest speed from an NWS wind string such as
// "5 mph" or "10 to 20 mph".
func parseWindMPH(s string) float64 {
	var speed float64
	for _, field := range strings.Fields(s) {
		if v, err := strconv.ParseFloat(field, 64); err == nil && v > speed {
			speed = v
		}
	}
	return speed
}

func (p *NWSProvider) normalize(req weather.Request, points *nwsPointsResponse, obs *nwsObservation, station *stationCandidate, daily, hourly *nwsForecastResponse, alerts *nwsAlertsResponse) *weather.Weather {
	tz := time.UTC
	if loc, err := time.LoadLocation(points.Properties.TimeZone); err == nil {
		tz = loc
	}

	w := &weather.Weather{
		Source:   weather.SourceOfficialStation,
		Timezone: p.displayLabel(req, points),
		Nowcast:  weather.Nowcast{Available: false},
		Attribution: weather.Attribution{
			Name:    "National Weather Service",
			URL:     "https://www.weather.gov",
			License: "Public domain (US Government work)",
		},
	}

	firstHourly := hourly.Properties.Periods[0]

	if obs != nil {
		w.Currently, w.StationInfo = p.normalizeObservation(obs, station, firstHourly)
	} else {
		w.Currently = p.forecastCurrently(firstHourly)
		w.StationInfo = weather.StationInfo{
			UsingForecastDescription: true,
			IsForecastData:           true,
		}
	}

	w.Daily = weather.PadDaily(p.normalizeDaily(daily.Properties.Periods, tz))
	w.Hourly = p.normalizeHourly(hourly.Properties.Periods, tz)
	w.Alerts = p.normalizeAlerts(alerts)

	return w
}

// displayLabel prefers the grid lookup's administrative location, then the
// caller's free-text name, then a raw coordinate string.
func (p *NWSProvider) displayLabel(req weather.Request, points *nwsPointsResponse) string {
	rel := points.Properties.RelativeLocation.Properties
	if rel.City != "" && rel.State != "" {
		return rel.City + ", " + rel.State
	}
	if req.LocationName != "" {
		return req.LocationName
	}
	return weather.CoordinateKey(req.Latitude, req.Longitude)
}

// normalizeObservation converts a station reading into canonical current
// conditions, falling back to the forecast narrative when the station did
// not report a description.
func (p *NWSProvider) normalizeObservation(obs *nwsObservation, station *stationCandidate, firstHourly nwsPeriod) (weather.Currently, weather.StationInfo) {
	cur := weather.Currently{
		Temperature: weather.CToF(*obs.Temperature.Value),
		IsDaytime:   firstHourly.IsDaytime,
	}

	if obs.WindSpeed.Value != nil {
		if strings.Contains(obs.WindSpeed.UnitCode, "m_s") {
			cur.WindSpeed = weather.MSToMPH(*obs.WindSpeed.Value)
		} else {
			cur.WindSpeed = weather.KMHToMPH(*obs.WindSpeed.Value)
		}
	}
	if obs.WindDirection.Value != nil {
		deg := *obs.WindDirection.Value
		cur.WindDirection = weather.WindDirection{Degrees: &deg}
	}
	if obs.RelativeHumidity.Value != nil {
		cur.Humidity = *obs.RelativeHumidity.Value / 100
	}
	if obs.BarometricPressure.Value != nil {
		cur.Pressure = weather.PaToHPa(*obs.BarometricPressure.Value)
	}
	if obs.Visibility.Value != nil {
		cur.Visibility = weather.MetersToMiles(*obs.Visibility.Value)
	}

	info := weather.StationInfo{Display: true}
	if station != nil {
		info.StationName = station.name
		if info.StationName == "" {
			info.StationName = station.id
		}
		info.StationDistance = station.distance
	}
	if observedAt, err := time.Parse(time.RFC3339, obs.Timestamp); err == nil {
		info.ObservationTime = observedAt.Unix()
	}

	summary := obs.TextDescription
	if summary == "" {
		summary = firstHourly.ShortForecast
		info.UsingForecastDescription = true
	} else {
		cleaned, adjusted := cleanObservationText(summary)
		if adjusted {
			p.logger.Debug("adjusted observation description", "from", summary, "to", cleaned)
		}
		summary = cleaned
		info.DescriptionAdjusted = adjusted
	}

	if !strings.Contains(strings.ToLower(summary), "wind") && cur.WindSpeed > windyThresholdMPH {
		summary += " and Windy"
	}
	cur.Summary = summary

	cur.Icon = p.mapIcon(obs.Icon, firstHourly.IsDaytime)
	cur.Icon = weather.ApplyThunderOverride(cur.Icon, obs.TextDescription+" "+firstHourly.ShortForecast)

	return cur, info
}

// forecastCurrently builds current conditions from the first hourly period
// when no usable station observation exists.
func (p *NWSProvider) forecastCurrently(period nwsPeriod) weather.Currently {
	cur := weather.Currently{
		Temperature: period.Temperature,
		Summary:     period.ShortForecast,
		WindSpeed:   parseWindMPH(period.WindSpeed),
		IsDaytime:   period.IsDaytime,
	}
	if period.WindDirection != "" {
		cur.WindDirection = weather.WindDirection{Cardinal: period.WindDirection}
	}
	cur.Icon = p.mapIcon(period.Icon, period.IsDaytime)
	cur.Icon = weather.ApplyThunderOverride(cur.Icon, period.ShortForecast)
	return cur
}

// normalizeDaily pairs NWS day periods with their "<Day> Night"
// counterparts. A leading night-only period ("Tonight") and an unpaired
// trailing day synthesize the missing temperature by ±10°F.
func (p *NWSProvider) normalizeDaily(periods []nwsPeriod, tz *time.Location) []weather.DailyEntry {
	var entries []weather.DailyEntry

	i := 0
	for i < len(periods) {
		period := periods[i]

		start, err := time.Parse(time.RFC3339, period.StartTime)
		if err != nil {
			i++
			continue
		}
		entryTime := weather.LocalMidnight(start, tz)

		if !period.IsDaytime {
			// Leading "Tonight"/"Overnight" with no day counterpart.
			entries = append(entries, weather.DailyEntry{
				Time:            entryTime,
				Icon:            p.dailyIcon(period, false),
				TemperatureHigh: period.Temperature + 10,
				TemperatureLow:  period.Temperature,
				Summary:         period.ShortForecast,
				PrecipChance:    popValue(period),
			})
			i++
			continue
		}

		entry := weather.DailyEntry{
			Time:            entryTime,
			Icon:            p.dailyIcon(period, true),
			TemperatureHigh: period.Temperature,
			Summary:         period.ShortForecast,
			PrecipChance:    popValue(period),
		}

		if i+1 < len(periods) && !periods[i+1].IsDaytime && isNightCounterpart(period.Name, periods[i+1].Name) {
			night := periods[i+1]
			entry.TemperatureLow = night.Temperature
			if pop := popValue(night); pop > entry.PrecipChance {
				entry.PrecipChance = pop
			}
			if weather.MentionsThunder(night.ShortForecast + " " + night.DetailedForecast) {
				entry.Icon = weather.IconThunderstorm
			}
			i += 2
		} else {
			// Unpaired trailing day period.
			entry.TemperatureLow = period.Temperature - 10
			i++
		}

		entries = append(entries, entry)
	}

	return entries
}

// isNightCounterpart checks whether nightName names the night half of
// dayName's calendar day.
func isNightCounterpart(dayName, nightName string) bool {
	if nightName == dayName+" Night" {
		return true
	}
	// First pair of the forecast uses "Today"/"This Afternoon" + "Tonight".
	return nightName == "Tonight"
}

func (p *NWSProvider) dailyIcon(period nwsPeriod, daytime bool) weather.Icon {
	icon := p.mapIcon(period.Icon, daytime)
	return weather.ApplyThunderOverride(icon, period.ShortForecast+" "+period.DetailedForecast)
}

func popValue(period nwsPeriod) int {
	if period.ProbabilityOfPrecipitation.Value == nil {
		return 0
	}
	return int(*period.ProbabilityOfPrecipitation.Value)
}

func (p *NWSProvider) normalizeHourly(periods []nwsPeriod, tz *time.Location) []weather.HourlyEntry {
	entries := make([]weather.HourlyEntry, 0, weather.HourlyCount)
	for _, period := range periods {
		start, err := time.Parse(time.RFC3339, period.StartTime)
		if err != nil {
			continue
		}
		unix := start.Unix()
		entries = append(entries, weather.HourlyEntry{
			Time:          unix,
			FormattedTime: weather.FormatClockTime(unix, tz),
			Temperature:   period.Temperature,
			Icon:          p.dailyIcon(period, period.IsDaytime),
			Summary:       period.ShortForecast,
			PrecipChance:  popValue(period),
			IsDaytime:     period.IsDaytime,
		})
		if len(entries) == weather.HourlyCount {
			break
		}
	}
	return entries
}

func (p *NWSProvider) normalizeAlerts(alerts *nwsAlertsResponse) []weather.Alert {
	out := make([]weather.Alert, 0, len(alerts.Features))
	for _, f := range alerts.Features {
		props := f.Properties

		a := weather.Alert{
			ID:          f.ID,
			Title:       props.Event,
			Description: props.Headline,
			FullText:    strings.TrimSpace(props.Description + "\n\n" + props.Instruction),
			Urgency:     props.Urgency,
			Geometry:    f.Geometry,
		}
		if a.Title == "" {
			a.Title = props.Headline
		}
		if expires, err := time.Parse(time.RFC3339, props.Expires); err == nil {
			a.Expires = expires.Unix()
		}

		a.Severity, a.HazardTypes, a.PrimaryHazard = weather.ClassifyAlert(a.Title, a.Description, a.FullText, props.Severity)
		out = append(out, a)
	}
	return out
}

// String implements fmt.Stringer for debugging station candidates.
func (c stationCandidate) String() string {
	if c.distance == nil {
		return fmt.Sprintf("%s (distance unknown)", c.id)
	}
	return fmt.Sprintf("%s (%.1f mi)", c.id, *c.distance)
}
