package analysis

import (
	"fmt"
	"math"
)

// Rule maps a predicate over a result to a fixed sentence.
// Rules are evaluated in order; every matching rule contributes one line.
type Rule struct {
	ID   string
	When func(r *Result) bool
	Text func(r *Result) string
}

// EvaluateRules returns the text of every matching rule in table order.
// The result is never nil.
func EvaluateRules(rules []Rule, r *Result) []string {
	out := []string{}
	for _, rule := range rules {
		if rule.When(r) {
			out = append(out, rule.Text(r))
		}
	}
	return out
}

func acwrAbove(limit float64) func(*Result) bool {
	return func(r *Result) bool {
		return r.TrainingLoad.ACWR != nil && *r.TrainingLoad.ACWR > limit
	}
}

func zoneShare(r *Result, zones ...int) float64 {
	var pct float64
	for _, z := range r.HeartRateZones {
		for _, want := range zones {
			if z.Zone == want {
				pct += z.Percentage
			}
		}
	}
	return pct
}

// Rules returns the default insight table
func Rules() []Rule {
	return []Rule{
		{
			ID:   "acwr-high",
			When: acwrAbove(1.5),
			Text: func(r *Result) string {
				return fmt.Sprintf("ACWR of %.2f is above 1.5, which indicates elevated injury risk", *r.TrainingLoad.ACWR)
			},
		},
		{
			ID: "acwr-moderate",
			When: func(r *Result) bool {
				return acwrAbove(1.3)(r) && !acwrAbove(1.5)(r)
			},
			Text: func(r *Result) string {
				return fmt.Sprintf("ACWR of %.2f is in the caution range; hold load steady for a few days", *r.TrainingLoad.ACWR)
			},
		},
		{
			ID: "acwr-low",
			When: func(r *Result) bool {
				return r.TrainingLoad.ACWR != nil && *r.TrainingLoad.ACWR < 0.8
			},
			Text: func(r *Result) string {
				return fmt.Sprintf("ACWR of %.2f is below 0.8; recent load is well under what you are used to", *r.TrainingLoad.ACWR)
			},
		},
		{
			ID: "load-history",
			When: func(r *Result) bool {
				return r.TrainingLoad.ACWR == nil
			},
			Text: func(r *Result) string {
				return "Not enough training history in the last 28 days to assess workload"
			},
		},
		{
			ID: "zones-hard",
			When: func(r *Result) bool {
				return zoneShare(r, 4, 5) > 50
			},
			Text: func(r *Result) string {
				return fmt.Sprintf("%.0f%% of the session was at threshold or above", zoneShare(r, 4, 5))
			},
		},
		{
			ID: "zones-easy",
			When: func(r *Result) bool {
				return len(r.HeartRateZones) > 0 && zoneShare(r, 1, 2) >= 80
			},
			Text: func(r *Result) string {
				return fmt.Sprintf("Mostly easy aerobic work (%.0f%% in zones 1-2)", zoneShare(r, 1, 2))
			},
		},
		{
			ID: "decoupling",
			When: func(r *Result) bool {
				return r.PerformanceMetrics.AerobicDecoupling != nil
			},
			Text: func(r *Result) string {
				d := *r.PerformanceMetrics.AerobicDecoupling
				return fmt.Sprintf("Aerobic decoupling of %.1f%%: %s", d, DecouplingAssessment(d))
			},
		},
		{
			ID: "variability",
			When: func(r *Result) bool {
				pa := r.PerformanceMetrics.PowerAnalysis
				return pa != nil && pa.VariabilityIndex != nil && *pa.VariabilityIndex > 1.1
			},
			Text: func(r *Result) string {
				return fmt.Sprintf("Variability index of %.2f shows a surgy, uneven power output",
					*r.PerformanceMetrics.PowerAnalysis.VariabilityIndex)
			},
		},
		{
			ID: "intensity",
			When: func(r *Result) bool {
				pa := r.PerformanceMetrics.PowerAnalysis
				return pa != nil && pa.IntensityFactor != nil && *pa.IntensityFactor > 1.0
			},
			Text: func(r *Result) string {
				return fmt.Sprintf("Intensity factor of %.2f is above threshold; treat this as a race-level effort",
					*r.PerformanceMetrics.PowerAnalysis.IntensityFactor)
			},
		},
		{
			ID: "hr-power-coupling",
			When: func(r *Result) bool {
				c := r.Correlations.HeartRatePower
				return c != nil && *c >= 0.7
			},
			Text: func(r *Result) string {
				return fmt.Sprintf("Heart rate tracked power closely (r = %.2f)", *r.Correlations.HeartRatePower)
			},
		},
		{
			ID: "grade-hr",
			When: func(r *Result) bool {
				c := r.Correlations.GradeHeartRate
				return c != nil && *c >= 0.5
			},
			Text: func(r *Result) string {
				return fmt.Sprintf("Heart rate rose with gradient (r = %.2f, %s)",
					*r.Correlations.GradeHeartRate, CorrelationStrength(*r.Correlations.GradeHeartRate))
			},
		},
		{
			ID: "data-quality",
			When: func(r *Result) bool {
				q := r.PerformanceMetrics.DataQuality
				return q != nil && *q > 0 && *q < 0.8
			},
			Text: func(r *Result) string {
				return fmt.Sprintf("Only %.0f%% of samples carry heart rate; HR metrics may be unreliable",
					*r.PerformanceMetrics.DataQuality*100)
			},
		},
		{
			ID: "fatigue",
			When: func(r *Result) bool {
				return r.TrainingLoad.ACWR != nil && r.TrainingLoad.Readiness < -10
			},
			Text: func(r *Result) string {
				return fmt.Sprintf("Readiness of %.0f: %s", r.TrainingLoad.Readiness, r.TrainingLoad.ReadinessLabel)
			},
		},
	}
}

// RecommendationRules returns the table behind PhysicalStatus.Recommendations.
// It only reads TrainingLoad and PhysicalStatus.
func RecommendationRules() []Rule {
	status := func(r *Result) *PhysicalStatus {
		if r.PhysicalStatus == nil {
			return &PhysicalStatus{}
		}
		return r.PhysicalStatus
	}
	return []Rule{
		{
			ID: "reduce-load",
			When: func(r *Result) bool {
				return r.TrainingLoad.RiskLevel == RiskHigh
			},
			Text: func(r *Result) string {
				return "Cut volume this week to bring ACWR back under 1.3"
			},
		},
		{
			ID: "hold-load",
			When: func(r *Result) bool {
				return r.TrainingLoad.RiskLevel == RiskModerate
			},
			Text: func(r *Result) string {
				return "Keep this week's load flat before adding more"
			},
		},
		{
			ID: "build-load",
			When: func(r *Result) bool {
				return r.TrainingLoad.RiskLevel == RiskLow
			},
			Text: func(r *Result) string {
				return "Load can rise gradually; add no more than 10% per week"
			},
		},
		{
			ID: "ftp-test",
			When: func(r *Result) bool {
				return status(r).FTP == nil
			},
			Text: func(r *Result) string {
				return "Record a 20-minute maximal effort to establish FTP"
			},
		},
		{
			ID: "cp-model",
			When: func(r *Result) bool {
				return status(r).CriticalPower != nil
			},
			Text: func(r *Result) string {
				cp := status(r).CriticalPower
				target := math.Round(*cp.CP * 1.1)
				return fmt.Sprintf("Critical power %.0f W, W' %.1f kJ: %.0f W can be held for about %.0f min",
					*cp.CP, *cp.WPrime/1000, target, cp.TimeToExhaustion(target)/60)
			},
		},
		{
			ID: "cp-efforts",
			When: func(r *Result) bool {
				return status(r).CriticalPower == nil
			},
			Text: func(r *Result) string {
				return "Log maximal efforts at two or more durations between 3 and 20 minutes to model critical power"
			},
		},
		{
			ID: "hr-recovery-low",
			When: func(r *Result) bool {
				hrr := status(r).HRRecovery
				return hrr != nil && *hrr < 12
			},
			Text: func(r *Result) string {
				return fmt.Sprintf("Heart rate dropped only %.0f bpm in the first minute; prioritise sleep and easy days", *status(r).HRRecovery)
			},
		},
		{
			ID: "hr-recovery-good",
			When: func(r *Result) bool {
				hrr := status(r).HRRecovery
				return hrr != nil && *hrr >= 25
			},
			Text: func(r *Result) string {
				return fmt.Sprintf("Heart rate dropped %.0f bpm in the first minute, a sign of good cardiovascular fitness", *status(r).HRRecovery)
			},
		},
		{
			ID: "vo2max",
			When: func(r *Result) bool {
				return status(r).VO2Max != nil && status(r).VO2Max.Source == VO2MaxVDOT
			},
			Text: func(r *Result) string {
				v := status(r).VO2Max
				return fmt.Sprintf("Running fitness VDOT %.1f (%s)", v.Value, v.Label)
			},
		},
	}
}
