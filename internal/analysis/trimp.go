package analysis

import (
	"errors"
	"math"
)

// Coefficient is the Banister weighting a·e^(b·ratio)
type Coefficient struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
}

// TRIMPCoefficients holds the sex-specific Banister coefficients
type TRIMPCoefficients struct {
	Male   Coefficient `json:"male"`
	Female Coefficient `json:"female"`
}

// DefaultTRIMPCoefficients returns Banister's published values
func DefaultTRIMPCoefficients() TRIMPCoefficients {
	return TRIMPCoefficients{
		Male:   Coefficient{A: 0.64, B: 1.92},
		Female: Coefficient{A: 0.86, B: 1.67},
	}
}

// For returns the coefficient for sex, defaulting to male
func (c TRIMPCoefficients) For(sex Sex) Coefficient {
	if sex == SexFemale {
		return c.Female
	}
	return c.Male
}

var errNoHRReserve = errors.New("heart rate reserve is not positive")

func checkHRReserve(athlete AthleteProfile) error {
	if athlete.RestingHR <= 0 {
		return &ConfigurationError{Field: "athlete.resting_hr", Reason: "required for TRIMP"}
	}
	if athlete.MaxHR <= 0 {
		return &ConfigurationError{Field: "athlete.max_hr", Reason: "required for TRIMP"}
	}
	if athlete.MaxHR <= athlete.RestingHR {
		return &ConfigurationError{Field: "athlete.max_hr", Reason: errNoHRReserve.Error()}
	}
	return nil
}

// hrReserveWeight is ratio·a·e^(b·ratio) with ratio clamped to [0,1]
func hrReserveWeight(hr float64, athlete AthleteProfile, c Coefficient) float64 {
	ratio := clamp((hr-athlete.RestingHR)/(athlete.MaxHR-athlete.RestingHR), 0, 1)
	return ratio * c.A * math.Exp(c.B*ratio)
}

// TRIMP integrates Banister's training impulse over the heart-rate stream:
// Σ dt(min) · ratio · a · e^(b·ratio). Returns nil when there are no valid
// HR samples, and a *ConfigurationError when resting or max HR is missing.
func TRIMP(hr, durations []float64, athlete AthleteProfile, coeffs TRIMPCoefficients) (*float64, error) {
	if !hasValid(hr, validHeartRate) {
		return nil, nil
	}
	if err := checkHRReserve(athlete); err != nil {
		return nil, err
	}

	c := coeffs.For(athlete.Sex)
	var total float64
	for i, v := range hr {
		if !validHeartRate(v) {
			continue
		}
		dt := 1.0
		if i < len(durations) {
			dt = durations[i]
		}
		total += dt / 60 * hrReserveWeight(v, athlete, c)
	}
	return &total, nil
}

// TRIMPFromSummary uses the activity's average HR over its whole duration.
// It is the fallback for history entries without streams.
func TRIMPFromSummary(activity ActivitySummary, athlete AthleteProfile, coeffs TRIMPCoefficients) (*float64, error) {
	if activity.AverageHeartRate == nil || *activity.AverageHeartRate <= 0 || activity.DurationSeconds <= 0 {
		return nil, nil
	}
	if err := checkHRReserve(athlete); err != nil {
		return nil, err
	}
	trimp := activity.DurationSeconds / 60 * hrReserveWeight(*activity.AverageHeartRate, athlete, coeffs.For(athlete.Sex))
	return &trimp, nil
}
