package analysis

import (
	"math"
	"sort"
)

const (
	// MaxSampleGap caps the duration credited to one sample (seconds).
	// Longer gaps are recording pauses.
	MaxSampleGap = 30.0

	// Heart rate validation thresholds (bpm)
	MinValidHeartrate = 0
	MaxValidHeartrate = 250

	// MinMovingSpeed filters out stopped time (m/s)
	MinMovingSpeed = 0.5
)

// RawStreams holds per-second activity streams index-aligned to Time.
// A nil or empty slice means the stream is absent.
type RawStreams struct {
	Time      []float64 `json:"time"`
	HeartRate []float64 `json:"heartrate,omitempty"`
	Power     []float64 `json:"power,omitempty"`
	Distance  []float64 `json:"distance,omitempty"`
	Altitude  []float64 `json:"altitude,omitempty"`
	Velocity  []float64 `json:"velocity,omitempty"`
	Grade     []float64 `json:"grade,omitempty"`
	Cadence   []float64 `json:"cadence,omitempty"`
}

type namedStream struct {
	name   string
	values []float64
}

func (s RawStreams) named() []namedStream {
	return []namedStream{
		{"heartrate", s.HeartRate},
		{"power", s.Power},
		{"distance", s.Distance},
		{"altitude", s.Altitude},
		{"velocity", s.Velocity},
		{"grade", s.Grade},
		{"cadence", s.Cadence},
	}
}

// Len returns the number of samples on the time axis
func (s RawStreams) Len() int {
	return len(s.Time)
}

// Validate checks the structural invariants of the streams
func (s RawStreams) Validate() error {
	n := len(s.Time)
	for _, ns := range s.named() {
		if len(ns.values) == 0 {
			continue
		}
		if n == 0 {
			return &MalformedStreamError{Stream: ns.name, Index: -1, Reason: "time stream is absent"}
		}
		if len(ns.values) != n {
			return &MalformedStreamError{
				Stream: ns.name,
				Index:  -1,
				Reason: "length does not match time axis",
			}
		}
	}

	for i, t := range s.Time {
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return &MalformedStreamError{Stream: "time", Index: i, Reason: "not a finite number"}
		}
		if i > 0 && t < s.Time[i-1] {
			return &MalformedStreamError{Stream: "time", Index: i, Reason: "time decreases"}
		}
	}
	return nil
}

// ChartSeries is the downsampled view of the streams used for charting.
// Missing samples keep their position.
type ChartSeries struct {
	Indices   []int     `json:"indices,omitempty"`
	Time      []float64 `json:"time,omitempty"`
	HeartRate []float64 `json:"heartrate,omitempty"`
	Power     []float64 `json:"power,omitempty"`
	Distance  []float64 `json:"distance,omitempty"`
	Altitude  []float64 `json:"altitude,omitempty"`
	Velocity  []float64 `json:"velocity,omitempty"`
	Grade     []float64 `json:"grade,omitempty"`
	Cadence   []float64 `json:"cadence,omitempty"`
}

// Prepared is the cleaned view handed to the metric calculators
type Prepared struct {
	Streams         RawStreams
	Durations       []float64
	Chart           ChartSeries
	VelocityDerived bool
}

// TotalSeconds returns the summed sample durations
func (p *Prepared) TotalSeconds() float64 {
	var total float64
	for _, d := range p.Durations {
		total += d
	}
	return total
}

// Preprocess validates raw streams and builds the metric and chart views
func Preprocess(raw RawStreams, chartPoints int) (*Prepared, error) {
	if err := raw.Validate(); err != nil {
		return nil, err
	}

	p := &Prepared{}
	p.Streams, p.VelocityDerived = withDerivedVelocity(raw)
	p.Durations = SampleDurations(raw.Time)

	if chartPoints <= 0 {
		chartPoints = DefaultChartPoints
	}
	p.Chart = buildChart(p.Streams, chartPoints)
	return p, nil
}

func buildChart(s RawStreams, target int) ChartSeries {
	idx := DownsampleIndices(len(s.Time), target)
	pick := func(values []float64) []float64 {
		if len(values) == 0 {
			return nil
		}
		out := make([]float64, len(idx))
		for i, j := range idx {
			out[i] = values[j]
		}
		return out
	}
	return ChartSeries{
		Indices:   idx,
		Time:      pick(s.Time),
		HeartRate: pick(s.HeartRate),
		Power:     pick(s.Power),
		Distance:  pick(s.Distance),
		Altitude:  pick(s.Altitude),
		Velocity:  pick(s.Velocity),
		Grade:     pick(s.Grade),
		Cadence:   pick(s.Cadence),
	}
}

// DownsampleIndices returns the stride-sampled indices floor(i*n/target).
// All indices are returned when n <= target.
func DownsampleIndices(n, target int) []int {
	if n == 0 {
		return nil
	}
	if target <= 0 || n <= target {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		return idx
	}
	idx := make([]int, target)
	for i := range idx {
		idx[i] = i * n / target
	}
	return idx
}

// Downsample stride-samples s to target points. It returns s unchanged
// when it already fits.
func Downsample(s []float64, target int) []float64 {
	if target <= 0 || len(s) <= target {
		return s
	}
	out := make([]float64, target)
	for i := range out {
		out[i] = s[i*len(s)/target]
	}
	return out
}

// SampleDurations credits each sample with the time until the next one.
// The last sample repeats the previous duration.
func SampleDurations(t []float64) []float64 {
	n := len(t)
	if n == 0 {
		return nil
	}
	d := make([]float64, n)
	if n == 1 {
		d[0] = 1
		return d
	}
	for i := 0; i < n-1; i++ {
		d[i] = math.Min(t[i+1]-t[i], MaxSampleGap)
	}
	d[n-1] = d[n-2]
	return d
}

// medianDuration is used to convert second-based windows into sample counts
func medianDuration(durations []float64) float64 {
	var positive []float64
	for _, d := range durations {
		if d > 0 {
			positive = append(positive, d)
		}
	}
	if len(positive) == 0 {
		return 1
	}
	sort.Float64s(positive)
	return positive[len(positive)/2]
}

// withDerivedVelocity fills velocity from distance when the streams carry
// none. Reports whether it did.
func withDerivedVelocity(raw RawStreams) (RawStreams, bool) {
	if len(raw.Velocity) > 0 || len(raw.Distance) == 0 || len(raw.Distance) != len(raw.Time) {
		return raw, false
	}
	raw.Velocity = deriveVelocity(raw.Time, raw.Distance)
	return raw, true
}

func deriveVelocity(t, dist []float64) []float64 {
	v := make([]float64, len(t))
	if len(t) < 2 {
		return v
	}
	for i := 1; i < len(t); i++ {
		dt := t[i] - t[i-1]
		if dt <= 0 || !validFinite(dist[i]) || !validFinite(dist[i-1]) {
			v[i] = math.NaN()
			continue
		}
		v[i] = (dist[i] - dist[i-1]) / dt
		if v[i] < 0 {
			v[i] = 0
		}
	}
	v[0] = v[1]
	return v
}

// Missing-sample predicates

func validFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func validHeartRate(v float64) bool {
	return validFinite(v) && v > MinValidHeartrate && v <= MaxValidHeartrate
}

func validPower(v float64) bool {
	return validFinite(v) && v >= 0
}

func validSpeed(v float64) bool {
	return validFinite(v) && v >= 0
}

func validCadence(v float64) bool {
	return validFinite(v) && v >= 0
}

func hasValid(values []float64, valid func(float64) bool) bool {
	for _, v := range values {
		if valid(v) {
			return true
		}
	}
	return false
}
