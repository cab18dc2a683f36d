package analysis

import (
	"math"
	"strings"
	"testing"
	"time"
)

func TestEstimatePhysicalStatus_FTP(t *testing.T) {
	efforts := []PowerEffort{{1200, 300}, {300, 340}}

	tests := []struct {
		name       string
		athlete    AthleteProfile
		efforts    []PowerEffort
		wantWatts  float64
		wantSource string
	}{
		{"configured", AthleteProfile{FTP: 260}, efforts, 260, FTPConfigured},
		{"best 20 minutes", AthleteProfile{}, efforts, 285, FTPBest20Min},
		{"no data", AthleteProfile{}, nil, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.Athlete = tt.athlete
			status := EstimatePhysicalStatus(StatusInput{
				History: []ActivitySummary{{Sport: SportRide, BestEfforts: tt.efforts}},
			}, opts)

			if tt.wantSource == "" {
				if status.FTP != nil {
					t.Errorf("FTP = %+v, want nil", status.FTP)
				}
				return
			}
			if status.FTP == nil {
				t.Fatal("FTP = nil")
			}
			if math.Abs(status.FTP.Watts-tt.wantWatts) > 0.001 || status.FTP.Source != tt.wantSource {
				t.Errorf("FTP = %+v, want %v from %s", status.FTP, tt.wantWatts, tt.wantSource)
			}
		})
	}
}

func TestEstimatePhysicalStatus_VO2Max(t *testing.T) {
	run5K := ActivitySummary{Sport: SportRun, DistanceMeters: 5000, DurationSeconds: 1140}
	easyRun := ActivitySummary{Sport: SportRun, DistanceMeters: 8000, DurationSeconds: 3000}
	shortRun := ActivitySummary{Sport: SportRun, DistanceMeters: 1000, DurationSeconds: 150}
	ride := ActivitySummary{Sport: SportRide, BestEfforts: []PowerEffort{{300, 350}}}

	tests := []struct {
		name       string
		mass       float64
		history    []ActivitySummary
		wantValue  float64
		wantSource string
	}{
		{"power with body mass", 70, []ActivitySummary{ride, run5K}, 61, VO2MaxPower},
		{"power without body mass falls back to VDOT", 0, []ActivitySummary{ride, run5K}, 50, VO2MaxVDOT},
		{"best VDOT in the window", 0, []ActivitySummary{easyRun, run5K}, 50, VO2MaxVDOT},
		{"runs under 1500 m are ignored", 0, []ActivitySummary{shortRun}, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.Athlete.BodyMassKg = tt.mass
			status := EstimatePhysicalStatus(StatusInput{History: tt.history}, opts)

			if tt.wantSource == "" {
				if status.VO2Max != nil {
					t.Errorf("VO2Max = %+v, want nil", status.VO2Max)
				}
				return
			}
			if status.VO2Max == nil {
				t.Fatal("VO2Max = nil")
			}
			if math.Abs(status.VO2Max.Value-tt.wantValue) > 0.1 || status.VO2Max.Source != tt.wantSource {
				t.Errorf("VO2Max = %+v, want %v from %s", status.VO2Max, tt.wantValue, tt.wantSource)
			}
		})
	}
}

func TestEstimatePhysicalStatus_CriticalPower(t *testing.T) {
	opts := DefaultOptions()

	two := EstimatePhysicalStatus(StatusInput{
		History: []ActivitySummary{
			{BestEfforts: []PowerEffort{{300, 300}}},
			{BestEfforts: []PowerEffort{{1200, 250}}},
		},
	}, opts)
	if two.CriticalPower == nil || two.CriticalPower.CP == nil || two.CriticalPower.WPrime == nil {
		t.Fatalf("CriticalPower = %+v, want a fitted model", two.CriticalPower)
	}
	if *two.CriticalPower.CP <= 0 || *two.CriticalPower.WPrime <= 0 {
		t.Errorf("CP/W' = %v/%v, want positive", *two.CriticalPower.CP, *two.CriticalPower.WPrime)
	}

	one := EstimatePhysicalStatus(StatusInput{
		History: []ActivitySummary{{BestEfforts: []PowerEffort{{300, 300}}}},
	}, opts)
	if one.CriticalPower != nil {
		t.Errorf("CriticalPower = %+v, want nil with one effort", one.CriticalPower)
	}
}

// recoveryStreams is 120 s of running at 160 bpm followed by 90 s standing,
// with HR falling 0.5 bpm per second after the last moving sample.
func recoveryStreams() RawStreams {
	n := 210
	s := RawStreams{
		Time:      seconds(n),
		Velocity:  make([]float64, n),
		HeartRate: make([]float64, n),
	}
	for i := 0; i < n; i++ {
		if i < 120 {
			s.Velocity[i] = 3.0
			s.HeartRate[i] = 160
			continue
		}
		s.HeartRate[i] = 160 - float64(i-119)*0.5
	}
	return s
}

func TestHeartRateRecovery(t *testing.T) {
	s := recoveryStreams()
	got := HeartRateRecovery(s)
	if got == nil || math.Abs(*got-30) > 0.001 {
		t.Errorf("HeartRateRecovery() = %v, want 30", got)
	}

	gap := recoveryStreams()
	gap.HeartRate[150] = 0
	if got := HeartRateRecovery(gap); got != nil {
		t.Errorf("HeartRateRecovery() with a dropout = %v, want nil", *got)
	}

	short := recoveryStreams()
	short.Time = short.Time[:150]
	short.Velocity = short.Velocity[:150]
	short.HeartRate = short.HeartRate[:150]
	if got := HeartRateRecovery(short); got != nil {
		t.Errorf("HeartRateRecovery() with 30 s of recovery = %v, want nil", *got)
	}

	if got := HeartRateRecovery(RawStreams{Time: seconds(3), HeartRate: repeat(150, 3)}); got != nil {
		t.Errorf("HeartRateRecovery() without movement data = %v, want nil", *got)
	}
}

func TestEstimatePhysicalStatus_HRRecoveryFallsBackToHistory(t *testing.T) {
	base := time.Date(2024, 5, 1, 7, 0, 0, 0, time.UTC)
	history := []ActivitySummary{
		{StartTime: base, HRRecovery: floatPtr(18)},
		{StartTime: base.AddDate(0, 0, 1), HRRecovery: floatPtr(22)},
		{StartTime: base.AddDate(0, 0, 2)},
	}

	status := EstimatePhysicalStatus(StatusInput{History: history}, DefaultOptions())
	if status.HRRecovery == nil || *status.HRRecovery != 22 {
		t.Errorf("HRRecovery = %v, want 22 from the latest entry that has it", status.HRRecovery)
	}
}

func TestEstimatePhysicalStatus_RunningEconomy(t *testing.T) {
	run := ActivitySummary{Sport: SportRun, DistanceMeters: 10000, DurationSeconds: 3000, AveragePower: floatPtr(250)}

	opts := DefaultOptions()
	status := EstimatePhysicalStatus(StatusInput{History: []ActivitySummary{run}}, opts)
	if status.RunningEconomy != nil {
		t.Errorf("RunningEconomy = %v, want nil without body mass", *status.RunningEconomy)
	}

	opts.Athlete.BodyMassKg = 70
	status = EstimatePhysicalStatus(StatusInput{History: []ActivitySummary{run}}, opts)
	// 250 W / (70 kg * 3.333 m/s)
	if status.RunningEconomy == nil || math.Abs(*status.RunningEconomy-1.0714) > 0.001 {
		t.Errorf("RunningEconomy = %v, want ~1.071 J/kg/m", status.RunningEconomy)
	}
}

func TestEstimatePhysicalStatus_Recommendations(t *testing.T) {
	load := TrainingLoadState{ACWR: floatPtr(1.8), RiskLevel: RiskHigh}
	status := EstimatePhysicalStatus(StatusInput{Load: load}, DefaultOptions())

	if status.ACWR == nil || *status.ACWR != 1.8 || status.RiskLevel != RiskHigh {
		t.Errorf("ACWR/risk = %v/%q, want 1.8/high", status.ACWR, status.RiskLevel)
	}

	joined := strings.Join(status.Recommendations, "\n")
	for _, want := range []string{"Cut volume", "20-minute maximal effort", "critical power"} {
		if !strings.Contains(joined, want) {
			t.Errorf("Recommendations missing %q:\n%s", want, joined)
		}
	}
}
