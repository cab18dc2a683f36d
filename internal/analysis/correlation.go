package analysis

import "math"

const (
	// CorrelationEpsilon is the sample variance below which a signal is constant
	CorrelationEpsilon = 1e-9
	// MinCorrelationPairs is the fewest aligned pairs a coefficient needs
	MinCorrelationPairs = 3
)

// CorrelationSet holds Pearson coefficients for the fixed signal pairs.
// nil means undefined: a signal is absent or constant.
type CorrelationSet struct {
	PowerSpeed     *float64 `json:"power_speed"`
	HeartRatePower *float64 `json:"heart_rate_power"`
	GradeHeartRate *float64 `json:"grade_heart_rate"`
}

// Correlate computes the three signal-pair correlations
func Correlate(s RawStreams) CorrelationSet {
	return CorrelationSet{
		PowerSpeed:     Pearson(s.Power, s.Velocity, validPower, validSpeed),
		HeartRatePower: Pearson(s.HeartRate, s.Power, validHeartRate, validPower),
		GradeHeartRate: Pearson(s.Grade, s.HeartRate, validFinite, validHeartRate),
	}
}

// Pearson returns the correlation of x and y over index-aligned pairs where
// both samples are valid, clamped to [-1,1] and rounded to 2 decimals.
func Pearson(x, y []float64, validX, validY func(float64) bool) *float64 {
	if len(x) == 0 || len(x) != len(y) {
		return nil
	}

	var xs, ys []float64
	for i := range x {
		if validX(x[i]) && validY(y[i]) {
			xs = append(xs, x[i])
			ys = append(ys, y[i])
		}
	}
	n := len(xs)
	if n < MinCorrelationPairs {
		return nil
	}

	mx, my := mean(xs), mean(ys)
	var sxx, syy, sxy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		sxx += dx * dx
		syy += dy * dy
		sxy += dx * dy
	}
	// Sample variance guard
	if sxx/float64(n-1) < CorrelationEpsilon || syy/float64(n-1) < CorrelationEpsilon {
		return nil
	}

	r := clamp(sxy/math.Sqrt(sxx*syy), -1, 1)
	r = round(r, 2)
	return &r
}

// CorrelationStrength classifies a coefficient by its absolute value
func CorrelationStrength(r float64) string {
	switch a := math.Abs(r); {
	case a < 0.1:
		return "none"
	case a < 0.3:
		return "weak"
	case a < 0.5:
		return "moderate"
	case a < 0.7:
		return "strong"
	default:
		return "very strong"
	}
}
