package weather

import (
	"testing"
)

func TestClassifySeverityFromTitle(t *testing.T) {
	cases := []struct {
		title    string
		upstream string
		want     Severity
	}{
		{"Tornado Warning", "", SeverityExtreme},
		{"Hurricane Warning", "", SeverityExtreme},
		{"Severe Thunderstorm Warning", "", SeveritySevere},
		{"Flash Flood Warning", "", SeveritySevere},
		{"Blizzard Warning", "", SeveritySevere},
		{"Winter Storm Warning", "", SeverityModerate},
		{"High Wind Watch", "", SeverityModerate},
		{"Frost Advisory", "", SeverityMinor},
		{"Dense Fog Advisory", "", SeverityMinor},
		{"Special Weather Statement", "", SeverityMinor},
		// Generic qualifiers when nothing specific matches.
		{"Volcano Warning", "", SeveritySevere},
		{"Coastal Hazard Watch", "", SeverityModerate},
		{"Hydrologic Advisory", "", SeverityMinor},
		{"Unclassifiable Event", "", SeverityModerate},
	}

	for _, tc := range cases {
		sev, _, _ := ClassifyAlert(tc.title, "", "", tc.upstream)
		if sev != tc.want {
			t.Errorf("ClassifyAlert(%q): severity = %q, want %q", tc.title, sev, tc.want)
		}
	}
}

func TestClassifySeverityUpstreamTrustedOnlyUpward(t *testing.T) {
	// Upstream "extreme" passes through.
	sev, _, _ := ClassifyAlert("Minor Coastal Statement", "", "", "Extreme")
	if sev != SeverityExtreme {
		t.Errorf("upstream extreme: got %q, want %q", sev, SeverityExtreme)
	}

	// Upstream claiming a low tier on a tornado warning is overridden by
	// the title-derived classification.
	sev, _, _ = ClassifyAlert("Tornado Warning", "", "", "Moderate")
	if sev != SeverityExtreme {
		t.Errorf("under-reported tornado warning: got %q, want %q", sev, SeverityExtreme)
	}
}

func TestExtractHazardsMultiple(t *testing.T) {
	hazards := ExtractHazards(
		"Severe Thunderstorm Warning",
		"Damaging winds and large hail expected",
		"Quarter size hail and 60 mph wind gusts. Frequent lightning.",
	)

	want := map[Hazard]bool{
		HazardHail:         true,
		HazardThunderstorm: true,
		HazardWind:         true,
	}
	for _, h := range hazards {
		if !want[h] {
			t.Errorf("unexpected hazard %q", h)
		}
		delete(want, h)
	}
	for h := range want {
		t.Errorf("missing hazard %q", h)
	}
}

func TestExtractHazardsPlaceNameSuppression(t *testing.T) {
	// "Snow Creek Rd" must not register snow, but the winter storm context
	// in the body still does.
	hazards := ExtractHazards(
		"Winter Storm Warning",
		"",
		"Heavy snow expected. Travel along Snow Creek Rd will be hazardous. Accumulations of 8 inches.",
	)

	found := false
	for _, h := range hazards {
		if h == HazardSnow {
			found = true
		}
	}
	if !found {
		t.Fatalf("ExtractHazards missed snow in legitimate winter storm text: %v", hazards)
	}

	// Pure place-name mention with no weather register must not match.
	hazards = ExtractHazards(
		"Road Closure",
		"",
		"Snow Creek Rd is closed for resurfacing near the county line.",
	)
	for _, h := range hazards {
		if h == HazardSnow {
			t.Fatalf("place name registered as snow hazard: %v", hazards)
		}
	}
}

func TestExtractHazardsHurricaneNeedsContext(t *testing.T) {
	hazards := ExtractHazards("Hurricane Warning", "", "Category 3 hurricane expected to make landfall Tuesday.")
	found := false
	for _, h := range hazards {
		if h == HazardHurricane {
			found = true
		}
	}
	if !found {
		t.Fatalf("hurricane with full context not extracted: %v", hazards)
	}
}

func TestExtractHazardsDeterministicOrder(t *testing.T) {
	title := "Severe Thunderstorm Warning"
	full := "Hail, flooding, damaging winds and frequent lightning."

	first := ExtractHazards(title, "", full)
	for i := 0; i < 10; i++ {
		again := ExtractHazards(title, "", full)
		if len(again) != len(first) {
			t.Fatalf("hazard count changed between runs: %v vs %v", first, again)
		}
		for j := range first {
			if first[j] != again[j] {
				t.Fatalf("hazard order changed between runs: %v vs %v", first, again)
			}
		}
	}
}

func TestPrimaryHazardPriority(t *testing.T) {
	cases := []struct {
		title string
		want  Hazard
	}{
		{"Tornado Warning", HazardTornado},
		{"Flash Flood Warning", HazardFlashFlood},
		{"Flood Warning", HazardFlood},
		{"Severe Thunderstorm Warning", HazardThunderstorm},
		{"Winter Storm Warning", HazardSnow},
		{"High Wind Warning", HazardWind},
		{"Excessive Heat Warning", HazardHeat},
		{"Wind Chill Advisory", HazardWind}, // wind outranks cold
		{"Dense Fog Advisory", HazardFog},
	}
	for _, tc := range cases {
		if got := PrimaryHazard(tc.title); got != tc.want {
			t.Errorf("PrimaryHazard(%q) = %q, want %q", tc.title, got, tc.want)
		}
	}
}

func TestPrimaryHazardFallbackWord(t *testing.T) {
	if got := PrimaryHazard("Ashfall Advisory"); got != Hazard("ashfall") {
		t.Errorf("fallback primary hazard = %q, want %q", got, "ashfall")
	}
	// A bare qualifier first word defers to the next word.
	if got := PrimaryHazard("Warning Tsunami Imminent"); got != Hazard("tsunami") {
		t.Errorf("qualifier-led fallback = %q, want %q", got, "tsunami")
	}
}
