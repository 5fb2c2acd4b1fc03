package weather

import (
	"regexp"
	"strings"
)

// Alert classification is shared by every normalizer that carries alerts.
// Severity comes from the upstream field only when it claims extreme or
// severe; anything lower is re-derived from the title so providers that
// under-report severity cannot downgrade a tornado warning. Hazard types
// come from whole-word scans of the alert text, with extra guards so place
// names like "Snow Creek Rd" never register as weather.

type hazardPattern struct {
	hazard  Hazard
	re      *regexp.Regexp
	confirm bool // requires weather-register context and place-name suppression
}

// hazardPatterns is scanned in fixed order so repeated classification of
// the same text yields an identical hazard sequence.
var hazardPatterns = []hazardPattern{
	{HazardTornado, regexp.MustCompile(`\btornado(?:es)?\b|\bfunnel clouds?\b|\bwaterspouts?\b`), false},
	{HazardHurricane, regexp.MustCompile(`\bhurricanes?\b|\btropical (?:storm|cyclone|depression)s?\b|\btyphoons?\b`), true},
	{HazardHail, regexp.MustCompile(`\bhail(?:stones?)?\b`), false},
	{HazardFlood, regexp.MustCompile(`\bflood(?:s|ing|ed)?\b`), false},
	{HazardThunderstorm, regexp.MustCompile(`\bthunderstorms?\b|\bthunder\b|\btstm\b|\blightning\b`), false},
	{HazardSnow, regexp.MustCompile(`\bsnow(?:fall|storm|s)?\b|\bblizzard\b|\bwinter storm\b|\bwintry mix\b|\bsnow squalls?\b`), true},
	{HazardIce, regexp.MustCompile(`\bice\b|\bicy\b|\bice storm\b|\bfreezing (?:rain|drizzle|fog)\b|\bsleet\b|\bblack ice\b`), false},
	{HazardWind, regexp.MustCompile(`\bwinds?\b|\bgusts?\b|\bgusty\b|\bwindy\b`), false},
	{HazardDust, regexp.MustCompile(`\bdust\b|\bsandstorms?\b|\bhaboobs?\b`), false},
	{HazardSmoke, regexp.MustCompile(`\bsmoke\b|\bsmoky\b`), false},
	{HazardFog, regexp.MustCompile(`\bfog(?:gy)?\b`), false},
	{HazardHeat, regexp.MustCompile(`\bheat\b|\bexcessive heat\b|\bhot\b`), false},
	{HazardCold, regexp.MustCompile(`\bcold\b|\bwind chill\b|\bfreeze\b|\bfrost\b|\bhypothermia\b`), false},
	{HazardRain, regexp.MustCompile(`\brain(?:fall|s|y)?\b|\bshowers?\b|\bdownpours?\b`), false},
}

// placeIndicatorRe marks words that, next to a matched term, indicate a
// place name rather than a weather phenomenon.
var placeIndicatorRe = regexp.MustCompile(`\b(?:road|rd|street|st|creek|river|county|lake|valley|ridge|hills?|mountain|mtn|canyon|city|town|township|park|avenue|ave|drive|dr|lane|ln|boulevard|blvd|highway|hwy|route|trail)\b`)

// weatherContextRe marks register words confirming the text is actually
// about weather, required for the false-positive-prone hazards.
var weatherContextRe = regexp.MustCompile(`\b(?:warning|watch|advisory|emergency|storms?|winter|blizzard|squalls?|accumulations?|inch(?:es)?|heavy|visibility|whiteout|travel|conditions|expected|forecast|gusts?|freezing|cyclone|landfall|surge|evacuations?|category)\b`)

// Windows inspected for place-name indicators around a matched term.
// The trailing window is sized to catch "Snow Creek Rd" style names
// without reaching words that merely share the sentence.
const (
	suppressBefore = 10
	suppressAfter  = 14
)

// ClassifyAlert derives severity, hazard types and the primary hazard for
// an alert from its title, short description, full text and the upstream
// severity field (which may be empty).
func ClassifyAlert(title, short, full, upstreamSeverity string) (Severity, []Hazard, Hazard) {
	severity := classifySeverity(title, upstreamSeverity)
	hazards := ExtractHazards(title, short, full)
	primary := PrimaryHazard(title)
	return severity, hazards, primary
}

func classifySeverity(title, upstreamSeverity string) Severity {
	// The upstream field is trusted only upward: extreme and severe pass
	// through, lower tiers are re-derived from the title.
	switch strings.ToLower(strings.TrimSpace(upstreamSeverity)) {
	case "extreme":
		return SeverityExtreme
	case "severe":
		return SeveritySevere
	}

	lower := strings.ToLower(title)

	switch {
	case containsAny(lower,
		"tornado warning", "hurricane warning", "extreme wind",
		"flash flood emergency", "tsunami", "civil danger",
		"shelter in place", "particularly dangerous"):
		return SeverityExtreme
	case containsAny(lower,
		"severe thunderstorm warning", "tornado watch", "hurricane watch",
		"flash flood warning", "blizzard warning", "ice storm warning",
		"storm surge", "red flag"):
		return SeveritySevere
	case containsAny(lower,
		"winter storm", "flood warning", "high wind", "gale",
		"excessive heat", "freeze warning", "snow squall"):
		return SeverityModerate
	case containsAny(lower,
		"frost", "dense fog", "small craft", "special weather statement",
		"outlook", "air quality"):
		return SeverityMinor
	case strings.Contains(lower, "warning"):
		return SeveritySevere
	case strings.Contains(lower, "watch"):
		return SeverityModerate
	case strings.Contains(lower, "advisory"), strings.Contains(lower, "statement"):
		return SeverityMinor
	}
	return SeverityModerate
}

// ExtractHazards scans the concatenated alert text for hazard types.
// Hazards accumulate as a set; the returned slice follows the fixed
// pattern order so output is deterministic.
func ExtractHazards(title, short, full string) []Hazard {
	text := strings.ToLower(strings.Join([]string{title, short, full}, " "))

	var hazards []Hazard
	for _, p := range hazardPatterns {
		if hazardMatches(text, p) {
			hazards = append(hazards, p.hazard)
		}
	}
	return hazards
}

func hazardMatches(text string, p hazardPattern) bool {
	locs := p.re.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return false
	}
	if !p.confirm {
		return true
	}

	// Confirmation-gated hazards need at least one occurrence that is not
	// adjacent to a place-name indicator, plus a weather-register word
	// somewhere in the text.
	clean := false
	for _, loc := range locs {
		if !placeNameAdjacent(text, loc[0], loc[1]) {
			clean = true
			break
		}
	}
	return clean && weatherContextRe.MatchString(text)
}

// placeNameAdjacent reports whether the text immediately around
// text[start:end] contains a place-name indicator word.
func placeNameAdjacent(text string, start, end int) bool {
	lo := start - suppressBefore
	if lo < 0 {
		lo = 0
	}
	hi := end + suppressAfter
	if hi > len(text) {
		hi = len(text)
	}
	return placeIndicatorRe.MatchString(text[lo:hi])
}

// primaryPriority is the fixed priority order for the primary hazard.
var primaryPriority = []struct {
	hazard Hazard
	re     *regexp.Regexp
}{
	{HazardTornado, regexp.MustCompile(`\btornado(?:es)?\b`)},
	{HazardHurricane, regexp.MustCompile(`\bhurricanes?\b|\btropical storms?\b`)},
	{HazardFlashFlood, regexp.MustCompile(`\bflash flood(?:s|ing)?\b`)},
	{HazardThunderstorm, regexp.MustCompile(`\bthunderstorms?\b|\btstm\b`)},
	{HazardFlood, regexp.MustCompile(`\bflood(?:s|ing)?\b`)},
	{HazardSnow, regexp.MustCompile(`\bsnow(?:fall|storm|s)?\b|\bblizzard\b|\bwinter storm\b`)},
	{HazardIce, regexp.MustCompile(`\bice\b|\bfreezing\b|\bsleet\b`)},
	{HazardWind, regexp.MustCompile(`\bwinds?\b`)},
	{HazardHeat, regexp.MustCompile(`\bheat\b`)},
	{HazardCold, regexp.MustCompile(`\bcold\b|\bfreeze\b|\bfrost\b|\bwind chill\b`)},
	{HazardFog, regexp.MustCompile(`\bfog\b`)},
	{HazardDust, regexp.MustCompile(`\bdust\b`)},
	{HazardSmoke, regexp.MustCompile(`\bsmoke\b`)},
	{HazardRain, regexp.MustCompile(`\brain\b`)},
}

// PrimaryHazard picks the single headline hazard from the title alone,
// first match wins in priority order. Snow and hurricane matches still
// honor place-name suppression. When nothing matches, the fallback is the
// first title word, or the second when the first is a bare watch/warning/
// advisory qualifier.
func PrimaryHazard(title string) Hazard {
	lower := strings.ToLower(title)

	for _, p := range primaryPriority {
		locs := p.re.FindAllStringIndex(lower, -1)
		if len(locs) == 0 {
			continue
		}
		if p.hazard == HazardSnow || p.hazard == HazardHurricane {
			clean := false
			for _, loc := range locs {
				if !placeNameAdjacent(lower, loc[0], loc[1]) {
					clean = true
					break
				}
			}
			if !clean {
				continue
			}
		}
		return p.hazard
	}

	words := strings.Fields(lower)
	if len(words) == 0 {
		return ""
	}
	first := strings.Trim(words[0], ".,:;!-")
	if (first == "watch" || first == "warning" || first == "advisory") && len(words) > 1 {
		return Hazard(strings.Trim(words[1], ".,:;!-"))
	}
	return Hazard(first)
}
