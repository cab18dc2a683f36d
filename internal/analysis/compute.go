package analysis

import "math"

// PerformanceMetrics bundles the per-activity statistics.
// Pointer fields are nil when the underlying data is absent.
type PerformanceMetrics struct {
	DurationSeconds   float64        `json:"duration_seconds"`
	DistanceMeters    float64        `json:"distance_meters"`
	AverageSpeed      *float64       `json:"average_speed,omitempty"` // m/s
	MaxSpeed          *float64       `json:"max_speed,omitempty"`
	SpeedStdDev       *float64       `json:"speed_stddev,omitempty"`
	AveragePace       *float64       `json:"average_pace,omitempty"` // seconds per km
	PaceStdDev        *float64       `json:"pace_stddev,omitempty"`
	AverageHeartRate  *float64       `json:"average_heartrate,omitempty"`
	MaxHeartRate      *float64       `json:"max_heartrate,omitempty"`
	HeartRateStdDev   *float64       `json:"heartrate_stddev,omitempty"`
	AverageCadence    *float64       `json:"average_cadence,omitempty"`
	ElevationGain     *float64       `json:"elevation_gain,omitempty"`
	TRIMP             *float64       `json:"trimp,omitempty"`
	EfficiencyFactor  *float64       `json:"efficiency_factor,omitempty"`
	AerobicDecoupling *float64       `json:"aerobic_decoupling,omitempty"`
	DataQuality       *float64       `json:"data_quality,omitempty"` // fraction of samples with valid HR
	PowerAnalysis     *PowerAnalysis `json:"power_analysis,omitempty"`
}

// ComputePerformanceMetrics calculates all metrics for a single activity.
// Metrics that cannot be derived are nil and explained by a warning.
func ComputePerformanceMetrics(activity ActivitySummary, p *Prepared, opts Options) (PerformanceMetrics, []Warning) {
	var warn warnings
	m := computePerformanceMetrics(activity, p, opts, &warn)
	return m, warn
}

func computePerformanceMetrics(activity ActivitySummary, p *Prepared, opts Options, warn *warnings) PerformanceMetrics {
	s := p.Streams
	m := PerformanceMetrics{
		DurationSeconds: activity.DurationSeconds,
		DistanceMeters:  activity.DistanceMeters,
	}
	if m.DurationSeconds <= 0 {
		m.DurationSeconds = p.TotalSeconds()
	}
	if m.DistanceMeters <= 0 {
		m.DistanceMeters = streamDistance(s.Distance)
	}

	// Speed and pace
	if speed := Summarize(s.Velocity, validSpeed); speed.Count > 0 {
		m.AverageSpeed = floatPtr(speed.Avg)
		m.MaxSpeed = floatPtr(speed.Max)
		m.SpeedStdDev = floatPtr(speed.StdDev)
	} else if avg := activity.AverageSpeed(); avg > 0 {
		m.AverageSpeed = floatPtr(avg)
	}
	if pace := Summarize(paces(s.Velocity), validFinite); pace.Count > 0 {
		m.AveragePace = floatPtr(pace.Avg)
		m.PaceStdDev = floatPtr(pace.StdDev)
	} else if m.AverageSpeed != nil && *m.AverageSpeed > 0 {
		m.AveragePace = floatPtr(1000 / *m.AverageSpeed)
	}

	// Heart rate
	if hr := Summarize(s.HeartRate, validHeartRate); hr.Count > 0 {
		m.AverageHeartRate = floatPtr(hr.Avg)
		m.MaxHeartRate = floatPtr(hr.Max)
		m.HeartRateStdDev = floatPtr(hr.StdDev)
		m.DataQuality = floatPtr(float64(hr.Count) / float64(s.Len()))
	} else {
		if s.Len() > 0 {
			m.DataQuality = floatPtr(0)
		}
		warn.insufficient("heart_rate", "no valid heart-rate samples")
	}

	if cadence := Summarize(s.Cadence, validCadence); cadence.Count > 0 {
		m.AverageCadence = floatPtr(cadence.Avg)
	}

	if gain, ok := elevationGain(s.Altitude); ok {
		m.ElevationGain = &gain
	} else if activity.ElevationGainMeters > 0 {
		m.ElevationGain = floatPtr(activity.ElevationGainMeters)
	}

	// TRIMP
	trimp, err := TRIMP(s.HeartRate, p.Durations, opts.Athlete, opts.TRIMP)
	if err != nil {
		warn.config("trimp", err)
	}
	m.TRIMP = trimp

	// Efficiency
	m.EfficiencyFactor = EfficiencyFactor(s)
	m.AerobicDecoupling = AerobicDecoupling(s)
	if m.AverageHeartRate != nil && m.AerobicDecoupling == nil && len(s.HeartRate) > 0 {
		warn.insufficient("aerobic_decoupling", "each half needs 60 paired samples")
	}

	// Power
	m.PowerAnalysis = AnalyzePower(s.Power, p.Durations, opts.Athlete.FTP)
	if m.PowerAnalysis != nil && opts.Athlete.FTP <= 0 {
		warn.config("training_stress_score", &ConfigurationError{Field: "athlete.ftp", Reason: "required for IF and TSS"})
	}
	return m
}

// paces converts speed samples to seconds per km. Stopped samples are
// excluded rather than turned into infinite pace.
func paces(velocity []float64) []float64 {
	out := make([]float64, 0, len(velocity))
	for _, v := range velocity {
		if validSpeed(v) && v > 0 {
			out = append(out, 1000/v)
		}
	}
	return out
}

// streamDistance is the span between the first and last valid distance sample
func streamDistance(dist []float64) float64 {
	first, last := math.NaN(), math.NaN()
	for _, d := range dist {
		if !validFinite(d) {
			continue
		}
		if math.IsNaN(first) {
			first = d
		}
		last = d
	}
	if math.IsNaN(first) || last < first {
		return 0
	}
	return last - first
}

// elevationGain sums positive deltas between consecutive valid altitude samples
func elevationGain(alt []float64) (float64, bool) {
	var gain float64
	prev := math.NaN()
	found := false
	for _, a := range alt {
		if !validFinite(a) {
			continue
		}
		if !math.IsNaN(prev) && a > prev {
			gain += a - prev
		}
		prev = a
		found = true
	}
	return gain, found
}
