package weather

import (
	"fmt"
	"math"
	"time"
)

// Unit conversions shared by every normalizer. Each provider converts into
// the canonical units (°F, mph, hPa, miles) at the normalization boundary
// so nothing downstream needs to know what the upstream spoke.

// CToF converts Celsius to Fahrenheit.
func CToF(c float64) float64 {
	return c*9/5 + 32
}

// MSToMPH converts meters per second to miles per hour.
func MSToMPH(ms float64) float64 {
	return ms * 2.23694
}

// KMHToMPH converts kilometers per hour to miles per hour.
func KMHToMPH(kmh float64) float64 {
	return kmh * 0.621371
}

// PaToHPa converts Pascals to hectopascals.
func PaToHPa(pa float64) float64 {
	return pa / 100
}

// MetersToMiles converts meters to miles.
func MetersToMiles(m float64) float64 {
	return m * 0.000621371
}

// KMToMiles converts kilometers to miles.
func KMToMiles(km float64) float64 {
	return km * 0.621371
}

// HaversineMiles computes the great-circle distance between two points in
// statute miles. Used for station ranking and alert proximity.
func HaversineMiles(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusMiles = 3958.8

	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMiles * c
}

// CoordinateKey renders coordinates at 2-decimal precision (~0.7 mile cells)
// for cache keying and display fallbacks.
func CoordinateKey(lat, lon float64) string {
	return fmt.Sprintf("%.2f,%.2f", lat, lon)
}

// FormatClockTime renders a unix timestamp as a short display time in the
// given zone, e.g. "2 PM" or "2:40 PM".
func FormatClockTime(unix int64, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	t := time.Unix(unix, 0).In(loc)
	if t.Minute() == 0 {
		return t.Format("3 PM")
	}
	return t.Format("3:04 PM")
}

// LocalMidnight returns unix seconds for midnight of t's day in loc.
func LocalMidnight(t time.Time, loc *time.Location) int64 {
	if loc == nil {
		loc = time.UTC
	}
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc).Unix()
}
