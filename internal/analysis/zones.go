package analysis

import "fmt"

// ZoneBand is one zone's band as a percentage of max HR
type ZoneBand struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// ZoneBounds defines the five heart-rate zones
type ZoneBounds [5]ZoneBand

// DefaultZoneBounds returns the standard %maxHR five-zone model
func DefaultZoneBounds() ZoneBounds {
	return ZoneBounds{
		{50, 60},
		{60, 70},
		{70, 80},
		{80, 90},
		{90, 100},
	}
}

// Validate checks that bands are well formed and ascending
func (b ZoneBounds) Validate() error {
	for i, band := range b {
		if band.Lower < 0 || band.Lower >= band.Upper {
			return &ConfigurationError{
				Field:  fmt.Sprintf("zones.zone%d", i+1),
				Reason: fmt.Sprintf("lower bound %v must be non-negative and below upper bound %v", band.Lower, band.Upper),
			}
		}
		if i > 0 && band.Lower < b[i-1].Upper {
			return &ConfigurationError{
				Field:  fmt.Sprintf("zones.zone%d", i+1),
				Reason: fmt.Sprintf("overlaps zone %d", i),
			}
		}
	}
	return nil
}

var zoneLabels = [5]string{"Recovery", "Endurance", "Tempo", "Threshold", "VO2 Max"}

// HeartRateZone is the time spent in one zone
type HeartRateZone struct {
	Zone       int     `json:"zone"`
	Label      string  `json:"label"`
	MinHR      float64 `json:"min_hr"`
	MaxHR      float64 `json:"max_hr"`
	Seconds    float64 `json:"seconds"`
	Percentage float64 `json:"percentage"`
}

// ClassifyZones bins every valid heart-rate sample into a zone, weighted by
// its duration. A sample on a boundary belongs to the higher zone. Returns an
// empty list when there is no valid heart-rate data.
func ClassifyZones(hr, durations []float64, maxHR float64, bounds ZoneBounds) []HeartRateZone {
	if maxHR <= 0 || !hasValid(hr, validHeartRate) {
		return []HeartRateZone{}
	}

	zones := make([]HeartRateZone, len(bounds))
	for i, band := range bounds {
		zones[i] = HeartRateZone{
			Zone:  i + 1,
			Label: zoneLabels[i],
			MinHR: band.Lower * maxHR / 100,
			MaxHR: band.Upper * maxHR / 100,
		}
	}

	var total float64
	for i, v := range hr {
		if !validHeartRate(v) {
			continue
		}
		dt := 1.0
		if i < len(durations) {
			dt = durations[i]
		}
		z := zoneIndex(v, zones)
		zones[z].Seconds += dt
		total += dt
	}

	if total > 0 {
		for i := range zones {
			zones[i].Percentage = zones[i].Seconds / total * 100
		}
	}
	return zones
}

// zoneIndex compares in bpm against the reported MinHR and scans from the
// top zone down, so a sample on a boundary resolves upward. Gaps between
// bands fall to the zone below.
func zoneIndex(hr float64, zones []HeartRateZone) int {
	for i := len(zones) - 1; i > 0; i-- {
		if hr >= zones[i].MinHR {
			return i
		}
	}
	return 0
}

// Max HR sources
const (
	MaxHRConfigured  = "configured"
	MaxHRAgeEstimate = "age_estimate"
	MaxHRObserved    = "observed"
)

// ResolveMaxHR picks the max HR used for zones: configured, then the Tanaka
// age estimate, then the highest observed value. Returns 0 when none exist.
func ResolveMaxHR(athlete AthleteProfile, activity ActivitySummary, hr []float64) (float64, string) {
	if athlete.MaxHR > 0 {
		return athlete.MaxHR, MaxHRConfigured
	}
	if athlete.Age > 0 {
		return 208 - 0.7*athlete.Age, MaxHRAgeEstimate
	}
	observed := Summarize(hr, validHeartRate).Max
	if activity.MaxHeartRate != nil && *activity.MaxHeartRate > observed {
		observed = *activity.MaxHeartRate
	}
	if observed > 0 {
		return observed, MaxHRObserved
	}
	return 0, ""
}

// sufferWeights are points per hour spent in each zone
var sufferWeights = [5]float64{12, 24, 45, 100, 120}

// SufferScore converts time in zone into a relative effort score.
// Returns nil when there are no zones.
func SufferScore(zones []HeartRateZone) *float64 {
	if len(zones) == 0 {
		return nil
	}
	var score float64
	for i, z := range zones {
		if i >= len(sufferWeights) {
			break
		}
		score += z.Seconds / 3600 * sufferWeights[i]
	}
	return &score
}
