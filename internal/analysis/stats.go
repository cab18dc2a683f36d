package analysis

import "math"

// SeriesStats holds aggregate statistics over the valid samples of a stream
type SeriesStats struct {
	Count  int
	Min    float64
	Max    float64
	Avg    float64
	StdDev float64
}

// Summarize computes stats over valid samples, left to right.
// Count is 0 when nothing is valid.
func Summarize(values []float64, valid func(float64) bool) SeriesStats {
	var s SeriesStats
	var sum float64
	for _, v := range values {
		if !valid(v) {
			continue
		}
		if s.Count == 0 || v < s.Min {
			s.Min = v
		}
		if s.Count == 0 || v > s.Max {
			s.Max = v
		}
		sum += v
		s.Count++
	}
	if s.Count == 0 {
		return s
	}
	s.Avg = sum / float64(s.Count)

	var sq float64
	for _, v := range values {
		if !valid(v) {
			continue
		}
		d := v - s.Avg
		sq += d * d
	}
	s.StdDev = math.Sqrt(sq / float64(s.Count))
	return s
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
