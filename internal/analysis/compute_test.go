package analysis

import (
	"errors"
	"math"
	"testing"
)

func prepare(t *testing.T, raw RawStreams) *Prepared {
	t.Helper()
	p, err := Preprocess(raw, DefaultChartPoints)
	if err != nil {
		t.Fatalf("Preprocess() error = %v", err)
	}
	return p
}

func TestComputePerformanceMetrics(t *testing.T) {
	opts := DefaultOptions()
	opts.Athlete = AthleteProfile{RestingHR: 50, MaxHR: 185, FTP: 250}

	raw := RawStreams{
		Time:      seconds(4),
		Velocity:  []float64{2, 4, 0, 4},
		HeartRate: []float64{140, 150, 0, 160},
		Altitude:  []float64{100, 105, 103, 110},
		Cadence:   []float64{170, 180, math.NaN(), 175},
	}

	m, _ := ComputePerformanceMetrics(ActivitySummary{DistanceMeters: 10}, prepare(t, raw), opts)

	tests := []struct {
		name string
		got  *float64
		want float64
	}{
		{"average speed", m.AverageSpeed, 2.5},
		{"max speed", m.MaxSpeed, 4},
		// stopped sample excluded: mean of 500, 250, 250 s/km
		{"average pace", m.AveragePace, 1000.0 / 3},
		{"average heart rate", m.AverageHeartRate, 150},
		{"max heart rate", m.MaxHeartRate, 160},
		{"average cadence", m.AverageCadence, 175},
		{"elevation gain", m.ElevationGain, 12},
		{"data quality", m.DataQuality, 0.75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got == nil {
				t.Fatalf("%s = nil, want %v", tt.name, tt.want)
			}
			if math.Abs(*tt.got-tt.want) > 0.001 {
				t.Errorf("%s = %v, want %v", tt.name, *tt.got, tt.want)
			}
		})
	}

	if m.DurationSeconds != 4 {
		t.Errorf("DurationSeconds = %v, want 4 from the streams", m.DurationSeconds)
	}
	if m.DistanceMeters != 10 {
		t.Errorf("DistanceMeters = %v, want 10 from the summary", m.DistanceMeters)
	}
	if m.TRIMP == nil {
		t.Error("TRIMP = nil, want a value with resting and max HR configured")
	}
	if m.PowerAnalysis != nil {
		t.Errorf("PowerAnalysis = %+v, want nil without a power stream", m.PowerAnalysis)
	}
}

func TestComputePerformanceMetrics_PaceNeverInfinite(t *testing.T) {
	raw := RawStreams{Time: seconds(3), Velocity: []float64{0, 0, 0}}
	m, _ := ComputePerformanceMetrics(ActivitySummary{}, prepare(t, raw), DefaultOptions())

	if m.AveragePace != nil {
		t.Errorf("AveragePace = %v, want nil when never moving", *m.AveragePace)
	}
	if m.AverageSpeed == nil || *m.AverageSpeed != 0 {
		t.Errorf("AverageSpeed = %v, want 0", m.AverageSpeed)
	}
}

func TestComputePerformanceMetrics_PowerWithoutHeartRate(t *testing.T) {
	raw := RawStreams{Time: seconds(60), Power: repeat(200, 60)}
	m, warnings := ComputePerformanceMetrics(ActivitySummary{}, prepare(t, raw), DefaultOptions())

	if m.AverageHeartRate != nil {
		t.Errorf("AverageHeartRate = %v, want nil", *m.AverageHeartRate)
	}
	if m.PowerAnalysis == nil {
		t.Fatal("PowerAnalysis = nil, want present")
	}
	if m.EfficiencyFactor != nil {
		t.Errorf("EfficiencyFactor = %v, want nil", *m.EfficiencyFactor)
	}

	kinds := map[string]WarningKind{}
	for _, w := range warnings {
		kinds[w.Metric] = w.Kind
	}
	if kinds["heart_rate"] != WarnInsufficientData {
		t.Errorf("warnings = %+v, want insufficient heart_rate", warnings)
	}
	if kinds["training_stress_score"] != WarnConfiguration {
		t.Errorf("warnings = %+v, want FTP configuration warning", warnings)
	}
}

func TestComputePerformanceMetrics_TRIMPConfiguration(t *testing.T) {
	raw := RawStreams{Time: seconds(60), HeartRate: repeat(150, 60)}
	m, warnings := ComputePerformanceMetrics(ActivitySummary{}, prepare(t, raw), DefaultOptions())

	if m.TRIMP != nil {
		t.Errorf("TRIMP = %v, want nil without resting and max HR", *m.TRIMP)
	}
	found := false
	for _, w := range warnings {
		if w.Metric == "trimp" && w.Kind == WarnConfiguration {
			found = true
		}
	}
	if !found {
		t.Errorf("warnings = %+v, want a trimp configuration warning", warnings)
	}
}

func TestComputePerformanceMetrics_SummaryFallbacks(t *testing.T) {
	activity := ActivitySummary{
		DurationSeconds:     1800,
		DistanceMeters:      5400,
		ElevationGainMeters: 42,
		AverageHeartRate:    floatPtr(148),
	}
	m, _ := ComputePerformanceMetrics(activity, prepare(t, RawStreams{}), DefaultOptions())

	if m.AverageSpeed == nil || *m.AverageSpeed != 3 {
		t.Errorf("AverageSpeed = %v, want 3 from the summary", m.AverageSpeed)
	}
	if m.AveragePace == nil || math.Abs(*m.AveragePace-333.333) > 0.001 {
		t.Errorf("AveragePace = %v, want 333.3 s/km", m.AveragePace)
	}
	// Summary HR feeds load and history, never the stream statistics
	if m.AverageHeartRate != nil {
		t.Errorf("AverageHeartRate = %v, want nil without heart-rate samples", *m.AverageHeartRate)
	}
	if m.ElevationGain == nil || *m.ElevationGain != 42 {
		t.Errorf("ElevationGain = %v, want 42", m.ElevationGain)
	}
	if m.DataQuality != nil {
		t.Errorf("DataQuality = %v, want nil without samples", *m.DataQuality)
	}
}

func TestErrorSentinels(t *testing.T) {
	err := error(&ConfigurationError{Field: "athlete.ftp", Reason: "required"})
	if !errors.Is(err, ErrConfiguration) || errors.Is(err, ErrMalformedStream) {
		t.Errorf("ConfigurationError matches the wrong sentinel: %v", err)
	}
	if err.Error() != "configuration athlete.ftp: required" {
		t.Errorf("Error() = %q", err.Error())
	}

	err = &MalformedStreamError{Stream: "power", Index: 3, Reason: "not a finite number"}
	if !errors.Is(err, ErrMalformedStream) {
		t.Errorf("MalformedStreamError does not match ErrMalformedStream: %v", err)
	}
}
