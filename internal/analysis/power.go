package analysis

import "math"

// NormalizedPowerWindow is the rolling window for normalized power (seconds)
const NormalizedPowerWindow = 30.0

// PowerAnalysis is present only when the activity has power data
type PowerAnalysis struct {
	AveragePower        float64       `json:"average_power"`
	MaxPower            float64       `json:"max_power"`
	NormalizedPower     float64       `json:"normalized_power"`
	IntensityFactor     *float64      `json:"intensity_factor,omitempty"`
	TrainingStressScore *float64      `json:"training_stress_score,omitempty"`
	VariabilityIndex    *float64      `json:"variability_index,omitempty"`
	WorkKilojoules      float64       `json:"work_kilojoules"`
	BestEfforts         []PowerEffort `json:"best_efforts,omitempty"`
}

// AnalyzePower computes the power block. Returns nil when the power stream is
// absent or holds no valid samples. ftp <= 0 leaves IF and TSS nil.
func AnalyzePower(power, durations []float64, ftp float64) *PowerAnalysis {
	stats := Summarize(power, validPower)
	if stats.Count == 0 {
		return nil
	}

	pa := &PowerAnalysis{
		AveragePower: stats.Avg,
		MaxPower:     stats.Max,
	}

	window := int(math.Round(NormalizedPowerWindow / medianDuration(durations)))
	pa.NormalizedPower = NormalizedPower(power, window)

	var work, seconds float64
	for i, p := range power {
		dt := 1.0
		if i < len(durations) {
			dt = durations[i]
		}
		seconds += dt
		if validPower(p) {
			work += p * dt
		}
	}
	pa.WorkKilojoules = work / 1000

	if pa.AveragePower > 0 {
		pa.VariabilityIndex = floatPtr(pa.NormalizedPower / pa.AveragePower)
	}
	if ftp > 0 {
		intensity := pa.NormalizedPower / ftp
		pa.IntensityFactor = &intensity
		tss := seconds * pa.NormalizedPower * intensity / (ftp * 3600) * 100
		pa.TrainingStressScore = &tss
	}
	pa.BestEfforts = PowerBestEfforts(power, durations)
	return pa
}

// NormalizedPower is the 4th root of the mean of the 4th power of the
// window-sample rolling average. Missing samples count as 0 W. Streams
// shorter than the window use the plain average. The result never drops
// below the average power, which only happens through window edge effects.
func NormalizedPower(power []float64, window int) float64 {
	if window < 1 {
		window = 1
	}
	clean := make([]float64, len(power))
	for i, p := range power {
		if validPower(p) {
			clean[i] = p
		}
	}
	avg := Summarize(power, validPower).Avg
	if len(clean) < window {
		return avg
	}

	var sum float64
	for i := 0; i < window; i++ {
		sum += clean[i]
	}

	var fourthPowerTotal float64
	count := 0
	for i := window - 1; i < len(clean); i++ {
		if i >= window {
			sum += clean[i] - clean[i-window]
		}
		rolling := sum / float64(window)
		fourthPowerTotal += math.Pow(rolling, 4)
		count++
	}
	np := math.Pow(fourthPowerTotal/float64(count), 0.25)
	return math.Max(np, avg)
}

// estimateFTP is 95% of the best 20-minute power
func estimateFTP(best20 float64) float64 {
	if best20 <= 0 {
		return 0
	}
	return best20 * 0.95
}
