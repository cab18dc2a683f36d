package analysis

import "math"

// BestEffort represents the fastest segment of a given distance within an activity
type BestEffort struct {
	DistanceMeters  float64
	DurationSeconds float64
	StartOffset     float64 // time offset in stream where effort starts
	EndOffset       float64 // time offset in stream where effort ends
	AvgHeartrate    float64
}

// Standard effort distances in meters
const (
	Distance1500m      = 1500
	Distance1Mile      = 1609.34
	Distance5K         = 5000
	Distance10K        = 10000
	DistanceHalfMara   = 21097
	DistanceMarathon   = 42195
	MinPointsForEffort = 10 // minimum stream points needed
)

// EffortDistances defines the best effort distances used for VDOT
var EffortDistances = []float64{
	Distance1Mile,
	Distance5K,
	Distance10K,
	DistanceHalfMara,
}

// PowerEffortDurations are the standard best-power durations (seconds)
var PowerEffortDurations = []int{5, 60, 300, 1200, 3600}

// PowerBestEfforts returns the best rolling mean power for each standard
// duration that fits in the stream. Missing samples count as 0 W.
func PowerBestEfforts(power, durations []float64) []PowerEffort {
	if !hasValid(power, validPower) {
		return nil
	}
	step := medianDuration(durations)

	var efforts []PowerEffort
	for _, d := range PowerEffortDurations {
		window := int(math.Round(float64(d) / step))
		if window < 1 || window > len(power) {
			continue
		}
		efforts = append(efforts, PowerEffort{
			DurationSeconds: d,
			Watts:           bestRollingPower(power, window),
		})
	}
	return efforts
}

func bestRollingPower(power []float64, window int) float64 {
	value := func(i int) float64 {
		if validPower(power[i]) {
			return power[i]
		}
		return 0
	}

	var sum float64
	for i := 0; i < window; i++ {
		sum += value(i)
	}
	best := sum / float64(window)
	for i := window; i < len(power); i++ {
		sum += value(i) - value(i-window)
		if current := sum / float64(window); current > best {
			best = current
		}
	}
	return best
}

// bestEffortFor returns the best watts recorded for duration, or 0
func bestEffortFor(efforts []PowerEffort, duration int) float64 {
	var best float64
	for _, e := range efforts {
		if e.DurationSeconds == duration && e.Watts > best {
			best = e.Watts
		}
	}
	return best
}

// FindBestEffort finds the fastest segment of targetDistance meters within the streams.
// Uses a two-pointer sliding window over cumulative distance.
// Returns nil if the activity is shorter than targetDistance or has insufficient data.
func FindBestEffort(s RawStreams, targetDistance float64) *BestEffort {
	if len(s.Distance) < MinPointsForEffort {
		return nil
	}

	// Filter to points with valid distance data
	var points []distPoint
	for i, d := range s.Distance {
		if !validFinite(d) {
			continue
		}
		p := distPoint{distance: d, timeOffset: s.Time[i], heartrate: math.NaN()}
		if len(s.HeartRate) > 0 {
			p.heartrate = s.HeartRate[i]
		}
		points = append(points, p)
	}

	if len(points) < MinPointsForEffort {
		return nil
	}

	// Check if activity is long enough
	if points[len(points)-1].distance-points[0].distance < targetDistance {
		return nil
	}

	var bestEffort *BestEffort
	bestDuration := math.Inf(1)

	right := 0
	for left := 0; left < len(points); left++ {
		if right < left {
			right = left
		}
		// Advance until the segment covers targetDistance
		for right < len(points) && points[right].distance-points[left].distance < targetDistance {
			right++
		}
		if right == len(points) {
			break
		}

		duration := points[right].timeOffset - points[left].timeOffset
		if duration <= 0 || duration >= bestDuration {
			continue
		}
		bestDuration = duration
		bestEffort = &BestEffort{
			DistanceMeters:  points[right].distance - points[left].distance,
			DurationSeconds: duration,
			StartOffset:     points[left].timeOffset,
			EndOffset:       points[right].timeOffset,
			AvgHeartrate:    calculateSegmentAvgHR(points, left, right),
		}
	}

	return bestEffort
}

// distPoint is a helper struct for sliding window algorithm
type distPoint struct {
	distance   float64
	timeOffset float64
	heartrate  float64
}

// calculateSegmentAvgHR calculates average HR for a segment of points
func calculateSegmentAvgHR(points []distPoint, left, right int) float64 {
	var hrSum float64
	var hrCount int

	for i := left; i <= right; i++ {
		if validHeartRate(points[i].heartrate) {
			hrSum += points[i].heartrate
			hrCount++
		}
	}

	if hrCount > 0 {
		return hrSum / float64(hrCount)
	}
	return 0
}
