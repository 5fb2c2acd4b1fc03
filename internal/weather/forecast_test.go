package weather

import "testing"

func TestPadDailyShortInput(t *testing.T) {
	entries := []DailyEntry{
		{Time: 1000000, TemperatureHigh: 70, TemperatureLow: 50, Icon: IconClearDay},
		{Time: 1000000 + secondsPerDay, TemperatureHigh: 72, TemperatureLow: 52, Icon: IconRain},
	}

	padded := PadDaily(entries)
	if len(padded) != DailyCount {
		t.Fatalf("padded length = %d, want %d", len(padded), DailyCount)
	}

	// Padding clones the last real entry, stepping one day each time.
	for i := 2; i < DailyCount; i++ {
		if padded[i].TemperatureHigh != 72 || padded[i].Icon != IconRain {
			t.Errorf("pad entry %d does not clone last real entry: %+v", i, padded[i])
		}
		wantTime := int64(1000000) + int64(i)*secondsPerDay
		if padded[i].Time != wantTime {
			t.Errorf("pad entry %d time = %d, want %d", i, padded[i].Time, wantTime)
		}
	}
}

func TestPadDailyLongInputTruncates(t *testing.T) {
	entries := make([]DailyEntry, 10)
	for i := range entries {
		entries[i].Time = int64(i) * secondsPerDay
	}

	padded := PadDaily(entries)
	if len(padded) != DailyCount {
		t.Fatalf("truncated length = %d, want %d", len(padded), DailyCount)
	}
	if padded[DailyCount-1].Time != int64(DailyCount-1)*secondsPerDay {
		t.Errorf("truncation reordered entries")
	}
}

func TestPadDailyEmptyInput(t *testing.T) {
	if got := PadDaily(nil); len(got) != 0 {
		t.Errorf("empty input padded to %d entries", len(got))
	}
}

func TestClampHourly(t *testing.T) {
	entries := make([]HourlyEntry, HourlyCount+5)
	if got := ClampHourly(entries); len(got) != HourlyCount {
		t.Errorf("clamped length = %d, want %d", len(got), HourlyCount)
	}

	short := make([]HourlyEntry, 3)
	if got := ClampHourly(short); len(got) != 3 {
		t.Errorf("short input length changed to %d", len(got))
	}
}
