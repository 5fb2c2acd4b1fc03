package weather

// DailyCount is the exact number of daily entries every canonical object
// carries, regardless of how many days the upstream returned.
const DailyCount = 7

const secondsPerDay = 86400

// PadDaily returns a slice of exactly DailyCount entries. Shorter input is
// padded by cloning the last known entry forward one day at a time; longer
// input is truncated. Empty input is returned unchanged, because a provider with
// no daily data at all has already failed its pipeline.
func PadDaily(entries []DailyEntry) []DailyEntry {
	if len(entries) == 0 {
		return entries
	}
	if len(entries) > DailyCount {
		return entries[:DailyCount]
	}
	for len(entries) < DailyCount {
		clone := entries[len(entries)-1]
		clone.Time += secondsPerDay
		entries = append(entries, clone)
	}
	return entries
}

// HourlyCount caps the hourly sequence length.
const HourlyCount = 12

// ClampHourly truncates the hourly sequence to its canonical maximum.
func ClampHourly(entries []HourlyEntry) []HourlyEntry {
	if len(entries) > HourlyCount {
		return entries[:HourlyCount]
	}
	return entries
}
