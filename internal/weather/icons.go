package weather

import (
	"log/slog"
	"strings"
)

// MapIcon resolves a provider-specific condition code to a canonical Icon.
// Resolution order: the provider's direct lookup table, then substring
// pattern matching on the code, then a logged "cloudy" default. Mapping
// never fails; an unknown code costs a warning, not an error.
func MapIcon(code string, table map[string]Icon, daytime bool, logger *slog.Logger) Icon {
	if icon, ok := table[code]; ok {
		return dayNightVariant(icon, daytime)
	}

	lower := strings.ToLower(code)
	switch {
	case containsAny(lower, "thunder", "tstm", "tsra", "lightning"):
		return IconThunderstorm
	case containsAny(lower, "sleet", "freezing", "fzra", "ice_pellets"):
		return IconSleet
	case containsAny(lower, "snow", "blizzard", "flurries"):
		return IconSnow
	case containsAny(lower, "rain", "shower", "drizzle"):
		return IconRain
	case containsAny(lower, "fog", "mist", "haze", "dust", "smoke"):
		return IconFog
	case containsAny(lower, "wind", "breezy", "gust"):
		return IconWind
	case containsAny(lower, "partly", "few", "scattered", "mostly sunny", "mostly clear"):
		return dayNightVariant(IconPartlyCloudyDay, daytime)
	case containsAny(lower, "cloud", "overcast", "ovc", "bkn"):
		return IconCloudy
	case containsAny(lower, "clear", "sunny", "fair", "skc"):
		return dayNightVariant(IconClearDay, daytime)
	}

	if logger != nil {
		logger.Warn("unmapped icon code, defaulting to cloudy", "code", code)
	}
	return IconCloudy
}

// dayNightVariant resolves day/night paired icons to the correct side.
// Icons without a paired variant are returned unchanged.
func dayNightVariant(icon Icon, daytime bool) Icon {
	switch icon {
	case IconClearDay, IconClearNight:
		if daytime {
			return IconClearDay
		}
		return IconClearNight
	case IconPartlyCloudyDay, IconPartlyCloudyNight:
		if daytime {
			return IconPartlyCloudyDay
		}
		return IconPartlyCloudyNight
	}
	return icon
}

// ApplyThunderOverride forces the thunderstorm icon when the descriptive
// text mentions thunder; the coded icon often lags the narrative.
func ApplyThunderOverride(icon Icon, text string) Icon {
	if MentionsThunder(text) {
		return IconThunderstorm
	}
	return icon
}

// MentionsThunder reports whether text carries any thunderstorm marker.
func MentionsThunder(text string) bool {
	return containsAny(strings.ToLower(text), "thunder", "tstm", "lightning")
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
