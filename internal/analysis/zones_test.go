package analysis

import (
	"errors"
	"math"
	"testing"
)

func TestClassifyZones(t *testing.T) {
	tests := []struct {
		name        string
		hr          []float64
		maxHR       float64
		wantSeconds [5]float64
	}{
		{
			// 52.6%, 57.9%, 63.2%, 68.4%, 73.7%, 78.9% of 190
			name:        "six samples across the lower zones",
			hr:          []float64{100, 110, 120, 130, 140, 150},
			maxHR:       190,
			wantSeconds: [5]float64{2, 2, 2, 0, 0},
		},
		{
			name:        "boundary belongs to the higher zone",
			hr:          []float64{120, 140, 160, 180},
			maxHR:       200,
			wantSeconds: [5]float64{0, 1, 1, 1, 1},
		},
		{
			name:        "below zone 1 and above zone 5",
			hr:          []float64{60, 210},
			maxHR:       200,
			wantSeconds: [5]float64{1, 0, 0, 0, 1},
		},
		{
			name:        "missing samples are skipped",
			hr:          []float64{150, 0, math.NaN(), 150},
			maxHR:       200,
			wantSeconds: [5]float64{0, 0, 2, 0, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			durations := SampleDurations(seconds(len(tt.hr)))
			zones := ClassifyZones(tt.hr, durations, tt.maxHR, DefaultZoneBounds())
			if len(zones) != 5 {
				t.Fatalf("ClassifyZones() returned %d zones, want 5", len(zones))
			}

			var pct float64
			for i, z := range zones {
				if z.Zone != i+1 {
					t.Errorf("zone %d numbered %d", i+1, z.Zone)
				}
				if z.Seconds != tt.wantSeconds[i] {
					t.Errorf("zone %d seconds = %v, want %v", z.Zone, z.Seconds, tt.wantSeconds[i])
				}
				pct += z.Percentage
			}
			if math.Abs(pct-100) > 0.01 {
				t.Errorf("percentages sum to %v, want 100", pct)
			}
		})
	}
}

func TestClassifyZones_TotalTime(t *testing.T) {
	hr := []float64{100, 110, 120, 130, 140, 150}
	zones := ClassifyZones(hr, SampleDurations(seconds(len(hr))), 190, DefaultZoneBounds())

	var total float64
	for _, z := range zones {
		total += z.Seconds
	}
	if total != 6 {
		t.Errorf("total time in zones = %v, want 6", total)
	}
}

func TestClassifyZones_NoHeartRate(t *testing.T) {
	tests := []struct {
		name      string
		hr        []float64
		durations []float64
	}{
		{"no stream", nil, nil},
		{"all missing", []float64{0, -1}, []float64{1, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			zones := ClassifyZones(tt.hr, tt.durations, 190, DefaultZoneBounds())
			if zones == nil || len(zones) != 0 {
				t.Errorf("ClassifyZones() = %#v, want an empty list", zones)
			}
		})
	}
}

func TestClassifyZones_FractionalBoundaries(t *testing.T) {
	tests := []struct {
		name     string
		hr       float64
		maxHR    float64
		wantZone int
	}{
		{"max HR 194 zone 4 edge", 155.2, 194, 4},
		{"max HR 194 just below zone 4", 155.1, 194, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			zones := ClassifyZones([]float64{tt.hr}, []float64{1}, tt.maxHR, DefaultZoneBounds())
			for _, z := range zones {
				if z.Seconds > 0 && z.Zone != tt.wantZone {
					t.Errorf("%v bpm of max %v landed in zone %d, want %d", tt.hr, tt.maxHR, z.Zone, tt.wantZone)
				}
			}
		})
	}
}

func TestClassifyZones_ReportedEdgesBelongToTheirZone(t *testing.T) {
	for age := 15.0; age <= 80; age++ {
		maxHR, source := ResolveMaxHR(AthleteProfile{Age: age}, ActivitySummary{}, nil)
		if source != MaxHRAgeEstimate {
			t.Fatalf("age %v source = %q, want %q", age, source, MaxHRAgeEstimate)
		}
		edges := ClassifyZones([]float64{maxHR}, []float64{1}, maxHR, DefaultZoneBounds())
		for i := 1; i < len(edges); i++ {
			zones := ClassifyZones([]float64{edges[i].MinHR}, []float64{1}, maxHR, DefaultZoneBounds())
			if zones[i].Seconds != 1 {
				t.Errorf("age %v max HR %v: edge %v bpm not in zone %d", age, maxHR, edges[i].MinHR, i+1)
			}
		}
	}
}

func TestClassifyZones_ZoneLimits(t *testing.T) {
	zones := ClassifyZones([]float64{150}, []float64{1}, 200, DefaultZoneBounds())
	if zones[2].MinHR != 140 || zones[2].MaxHR != 160 {
		t.Errorf("zone 3 = [%v, %v], want [140, 160]", zones[2].MinHR, zones[2].MaxHR)
	}
	if zones[2].Label != "Tempo" {
		t.Errorf("zone 3 label = %q, want Tempo", zones[2].Label)
	}
}

func TestZoneBoundsValidate(t *testing.T) {
	overlap := DefaultZoneBounds()
	overlap[2].Lower = 65

	inverted := DefaultZoneBounds()
	inverted[0] = ZoneBand{Lower: 60, Upper: 50}

	gapped := DefaultZoneBounds()
	gapped[3].Lower = 82

	tests := []struct {
		name    string
		bounds  ZoneBounds
		wantErr bool
	}{
		{"default", DefaultZoneBounds(), false},
		{"gap between bands", gapped, false},
		{"overlapping bands", overlap, true},
		{"lower above upper", inverted, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.bounds.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrConfiguration) {
				t.Errorf("Validate() error = %v, want ErrConfiguration", err)
			}
		})
	}
}

func TestResolveMaxHR(t *testing.T) {
	hr := []float64{150, 178, 165}

	tests := []struct {
		name       string
		athlete    AthleteProfile
		activity   ActivitySummary
		hr         []float64
		wantMax    float64
		wantSource string
	}{
		{"configured", AthleteProfile{MaxHR: 190, Age: 40}, ActivitySummary{}, hr, 190, MaxHRConfigured},
		{"age estimate", AthleteProfile{Age: 40}, ActivitySummary{}, hr, 180, MaxHRAgeEstimate},
		{"observed stream", AthleteProfile{}, ActivitySummary{}, hr, 178, MaxHRObserved},
		{"observed summary", AthleteProfile{}, ActivitySummary{MaxHeartRate: floatPtr(182)}, hr, 182, MaxHRObserved},
		{"nothing known", AthleteProfile{}, ActivitySummary{}, nil, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, source := ResolveMaxHR(tt.athlete, tt.activity, tt.hr)
			if math.Abs(got-tt.wantMax) > 1e-9 || source != tt.wantSource {
				t.Errorf("ResolveMaxHR() = %v, %q, want %v, %q", got, source, tt.wantMax, tt.wantSource)
			}
		})
	}
}

func TestSufferScore(t *testing.T) {
	zones := []HeartRateZone{
		{Zone: 1}, {Zone: 2}, {Zone: 3, Seconds: 3600}, {Zone: 4, Seconds: 1800}, {Zone: 5},
	}
	got := SufferScore(zones)
	// 1h * 45 + 0.5h * 100
	if got == nil || math.Abs(*got-95) > 1e-9 {
		t.Errorf("SufferScore() = %v, want 95", got)
	}
	if SufferScore(nil) != nil {
		t.Error("SufferScore(nil) should be nil")
	}
}
