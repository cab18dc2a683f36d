package analysis

import (
	"fmt"
	"sort"
	"time"
)

// Load window weighting schemes
const (
	WeightingRolling = "rolling" // daily average over each window
	WeightingEWMA    = "ewma"    // exponentially weighted, seeded at each window start
)

// Risk levels derived from ACWR
const (
	RiskHigh             = "high"
	RiskModerate         = "moderate"
	RiskLow              = "low"
	RiskOptimal          = "optimal"
	RiskInsufficientData = "insufficient data"
)

// LoadModel configures the acute and chronic windows
type LoadModel struct {
	AcuteDays   int    `json:"acute_days"`
	ChronicDays int    `json:"chronic_days"`
	Weighting   string `json:"weighting"`
}

// DefaultLoadModel returns the 7/28-day rolling-average model
func DefaultLoadModel() LoadModel {
	return LoadModel{
		AcuteDays:   7,
		ChronicDays: 28,
		Weighting:   WeightingRolling,
	}
}

// Validate checks window sizes and weighting
func (m LoadModel) Validate() error {
	if m.AcuteDays <= 0 || m.ChronicDays <= 0 {
		return &ConfigurationError{Field: "model.acute_days", Reason: "windows must be positive"}
	}
	if m.AcuteDays > m.ChronicDays {
		return &ConfigurationError{
			Field:  "model.acute_days",
			Reason: fmt.Sprintf("acute window (%d) longer than chronic window (%d)", m.AcuteDays, m.ChronicDays),
		}
	}
	if m.Weighting != WeightingRolling && m.Weighting != WeightingEWMA {
		return &ConfigurationError{Field: "model.load_weighting", Reason: fmt.Sprintf("unknown weighting %q", m.Weighting)}
	}
	return nil
}

// DailyLoad represents the training load of one activity or day
type DailyLoad struct {
	Date time.Time
	Load float64
}

// Load sources
const (
	LoadSourceTSS   = "tss"
	LoadSourceTRIMP = "trimp"
)

// ActivityLoad scores a history entry: TSS, then TRIMP, then TRIMP from
// average HR. Returns nil when nothing can be derived.
func ActivityLoad(activity ActivitySummary, opts Options) (*float64, string, error) {
	if activity.TSS != nil {
		return activity.TSS, LoadSourceTSS, nil
	}
	if activity.TRIMP != nil {
		return activity.TRIMP, LoadSourceTRIMP, nil
	}
	trimp, err := TRIMPFromSummary(activity, opts.Athlete, opts.TRIMP)
	if err != nil || trimp == nil {
		return nil, "", err
	}
	return trimp, LoadSourceTRIMP, nil
}

// TrainingLoadState is the longitudinal load picture as of one moment
type TrainingLoadState struct {
	ActivityLoad   *float64         `json:"activity_load,omitempty"`
	LoadSource     string           `json:"load_source,omitempty"`
	AcuteLoad      float64          `json:"acute_load"`
	ChronicLoad    float64          `json:"chronic_load"`
	ACWR           *float64         `json:"acwr"`
	RiskLevel      string           `json:"risk_level"`
	Fitness        float64          `json:"fitness"`
	Fatigue        float64          `json:"fatigue"`
	Readiness      float64          `json:"readiness"`
	ReadinessLabel string           `json:"readiness_label"`
	SufferScore    *float64         `json:"suffer_score,omitempty"`
	Trend          []FitnessMetrics `json:"trend,omitempty"`
}

// ComputeTrainingLoad derives acute/chronic load and ACWR as of asOf from
// per-activity loads. Loads after asOf are ignored; negative loads count as 0.
// The loads slice is not modified.
func ComputeTrainingLoad(loads []DailyLoad, asOf time.Time, model LoadModel) TrainingLoadState {
	var state TrainingLoadState
	switch model.Weighting {
	case WeightingEWMA:
		state.AcuteLoad, state.ChronicLoad = ewmaLoads(loads, asOf, model)
	default:
		state.AcuteLoad = windowSum(loads, asOf, model.AcuteDays) / float64(model.AcuteDays)
		state.ChronicLoad = windowSum(loads, asOf, model.ChronicDays) / float64(model.ChronicDays)
	}

	if state.ChronicLoad > 0 {
		acwr := state.AcuteLoad / state.ChronicLoad
		state.ACWR = &acwr
	}
	state.RiskLevel = RiskLevel(state.ACWR)

	state.Fitness = state.ChronicLoad
	state.Fatigue = state.AcuteLoad
	state.Readiness = state.Fitness - state.Fatigue
	state.ReadinessLabel = FormDescription(state.Readiness)
	if state.ACWR == nil {
		state.ReadinessLabel = "Not enough training history"
	}
	state.Trend = CalculateFitnessTrend(loads)
	return state
}

// RiskLevel classifies ACWR with fixed thresholds
func RiskLevel(acwr *float64) string {
	switch {
	case acwr == nil:
		return RiskInsufficientData
	case *acwr > 1.5:
		return RiskHigh
	case *acwr > 1.3:
		return RiskModerate
	case *acwr < 0.8:
		return RiskLow
	default:
		return RiskOptimal
	}
}

// daysBefore returns whole days between t and asOf, or -1 when t is after asOf
func daysBefore(t, asOf time.Time) int {
	d := asOf.Sub(t)
	if d < 0 {
		return -1
	}
	return int(d / (24 * time.Hour))
}

func windowSum(loads []DailyLoad, asOf time.Time, days int) float64 {
	var sum float64
	for _, dl := range loads {
		if ago := daysBefore(dl.Date, asOf); ago >= 0 && ago < days && dl.Load > 0 {
			sum += dl.Load
		}
	}
	return sum
}

// ewmaLoads runs exponentially weighted averages with decay 1/N over daily
// bins, seeded at zero. Chronic covers its whole window and acute only its
// own, so chronic load is zero exactly when the window holds no load. With
// acute days <= chronic days a load inside the acute window weighs at least
// as much in acute as in chronic.
func ewmaLoads(loads []DailyLoad, asOf time.Time, model LoadModel) (acute, chronic float64) {
	bins := make([]float64, model.ChronicDays)
	for _, dl := range loads {
		if ago := daysBefore(dl.Date, asOf); ago >= 0 && ago < model.ChronicDays && dl.Load > 0 {
			bins[model.ChronicDays-1-ago] += dl.Load
		}
	}

	acuteDecay := 1.0 / float64(model.AcuteDays)
	chronicDecay := 1.0 / float64(model.ChronicDays)
	acuteStart := model.ChronicDays - model.AcuteDays
	for i, load := range bins {
		chronic += chronicDecay * (load - chronic)
		if i >= acuteStart {
			acute += acuteDecay * (load - acute)
		}
	}
	return acute, chronic
}

// FitnessMetrics represents CTL/ATL/TSB for a day
type FitnessMetrics struct {
	Date time.Time `json:"date"`
	CTL  float64   `json:"ctl"` // Chronic Training Load (42-day EMA) - "Fitness"
	ATL  float64   `json:"atl"` // Acute Training Load (7-day EMA) - "Fatigue"
	TSB  float64   `json:"tsb"` // Training Stress Balance (CTL - ATL) - "Form"
}

// CalculateFitnessTrend computes CTL/ATL/TSB from daily loads
func CalculateFitnessTrend(dailyLoads []DailyLoad) []FitnessMetrics {
	if len(dailyLoads) == 0 {
		return nil
	}

	// Sort a copy by date
	sorted := make([]DailyLoad, len(dailyLoads))
	copy(sorted, dailyLoads)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	// EMA decay constants
	ctlDecay := 2.0 / (42.0 + 1.0) // 42-day time constant
	atlDecay := 2.0 / (7.0 + 1.0)  // 7-day time constant

	var metrics []FitnessMetrics
	var ctl, atl float64

	// Fill in missing days with zero load
	startDate := sorted[0].Date.UTC().Truncate(24 * time.Hour)
	endDate := sorted[len(sorted)-1].Date.UTC().Truncate(24 * time.Hour)

	// Create map of loads by date
	loadMap := make(map[string]float64)
	for _, dl := range sorted {
		key := dl.Date.UTC().Format("2006-01-02")
		loadMap[key] += dl.Load // Sum multiple activities on same day
	}

	for d := startDate; !d.After(endDate); d = d.AddDate(0, 0, 1) {
		load := loadMap[d.Format("2006-01-02")] // 0 if no activity

		// Exponential moving average
		ctl = ctl + ctlDecay*(load-ctl)
		atl = atl + atlDecay*(load-atl)

		metrics = append(metrics, FitnessMetrics{
			Date: d,
			CTL:  ctl,
			ATL:  atl,
			TSB:  ctl - atl,
		})
	}

	return metrics
}

// FormDescription returns a human-readable description of form/readiness
func FormDescription(tsb float64) string {
	switch {
	case tsb > 25:
		return "Very fresh (possibly detrained)"
	case tsb > 10:
		return "Fresh and ready to race"
	case tsb > 0:
		return "Neutral - good for training"
	case tsb > -10:
		return "Slightly fatigued"
	case tsb > -25:
		return "Tired but building fitness"
	default:
		return "Very fatigued - rest needed"
	}
}
