package analysis

import (
	"math"
	"testing"
)

// twoHalves builds a 200 s run whose halves differ in speed and HR
func twoHalves(v1, hr1, v2, hr2 float64) RawStreams {
	return runStreams(
		append(repeat(v1, 100), repeat(v2, 100)...),
		append(repeat(hr1, 100), repeat(hr2, 100)...),
	)
}

func TestAerobicDecoupling(t *testing.T) {
	tests := []struct {
		name     string
		streams  RawStreams
		expected *float64
		delta    float64
	}{
		{
			name:     "empty streams",
			streams:  RawStreams{},
			expected: nil,
		},
		{
			name:     "insufficient data - fewer than 60 pairs per half",
			streams:  runStreams(repeat(3.0, 100), repeat(150, 100)),
			expected: nil,
		},
		{
			name:     "no decoupling - consistent efficiency",
			streams:  runStreams(repeat(3.0, 200), repeat(150, 200)),
			expected: floatPtr(0),
			delta:    0.1,
		},
		{
			name:    "positive decoupling - second half less efficient",
			streams: twoHalves(3.0, 150, 2.7, 150),
			// Decoupling = ((3.0/2.7) - 1) * 100 = 11.1%
			expected: floatPtr(11.1),
			delta:    0.5,
		},
		{
			name:    "positive decoupling - HR drift at same pace",
			streams: twoHalves(3.0, 150, 3.0, 165),
			// Decoupling = ((165/150) - 1) * 100 = 10%
			expected: floatPtr(10),
			delta:    0.5,
		},
		{
			name:    "negative decoupling - negative split (second half better)",
			streams: twoHalves(3.0, 150, 3.3, 150),
			// Decoupling = ((3.0/3.3) - 1) * 100 = -9.1%
			expected: floatPtr(-9.1),
			delta:    0.5,
		},
		{
			name:    "excellent aerobic base - minimal decoupling",
			streams: twoHalves(3.0, 150, 2.94, 150),
			// Decoupling = ((3.0/2.94) - 1) * 100 ≈ 2%
			expected: floatPtr(2.0),
			delta:    0.5,
		},
		{
			name: "filters invalid data points",
			streams: runStreams(
				append(append(repeat(3.0, 100), repeat(0.3, 50)...), repeat(3.0, 50)...),
				repeat(150, 200),
			),
			// 150 valid pairs, all at the same efficiency
			expected: floatPtr(0),
			delta:    0.5,
		},
		{
			name: "uses power when present",
			streams: RawStreams{
				Time:      seconds(200),
				HeartRate: repeat(150, 200),
				Power:     append(repeat(220, 100), repeat(200, 100)...),
			},
			// ((220/200) - 1) * 100 = 10%
			expected: floatPtr(10),
			delta:    0.01,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := AerobicDecoupling(tt.streams)
			switch {
			case tt.expected == nil && result != nil:
				t.Errorf("AerobicDecoupling() = %v, want nil", *result)
			case tt.expected != nil && result == nil:
				t.Errorf("AerobicDecoupling() = nil, want %v", *tt.expected)
			case tt.expected != nil && math.Abs(*result-*tt.expected) > tt.delta:
				t.Errorf("AerobicDecoupling() = %v, want %v (±%v)", *result, *tt.expected, tt.delta)
			}
		})
	}
}

func TestDecouplingAssessment(t *testing.T) {
	tests := []struct {
		decoupling float64
		want       string
	}{
		{1.5, "Excellent aerobic base"},
		{4.0, "Good aerobic fitness"},
		{6.5, "Developing aerobic base"},
		{10.0, "Needs more easy miles"},
		{15.0, "Aerobic system needs work"},
	}

	for _, tt := range tests {
		if got := DecouplingAssessment(tt.decoupling); got != tt.want {
			t.Errorf("DecouplingAssessment(%v) = %q, want %q", tt.decoupling, got, tt.want)
		}
	}
}
