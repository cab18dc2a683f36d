package analysis

// effortPair is one time-aligned (output, HR) sample
type effortPair struct {
	output float64
	hr     float64
}

// effortPairs aligns the output signal with heart rate.
// Output is power when a power stream exists, otherwise speed in m/min
// so that speed-based values land in the familiar 1.0-2.0 range.
func effortPairs(s RawStreams) ([]effortPair, bool) {
	usePower := hasValid(s.Power, validPower)
	if len(s.HeartRate) == 0 || (!usePower && len(s.Velocity) == 0) {
		return nil, usePower
	}

	pairs := make([]effortPair, 0, len(s.HeartRate))
	for i, hr := range s.HeartRate {
		if !validHeartRate(hr) {
			continue
		}
		if usePower {
			if !validPower(s.Power[i]) {
				continue
			}
			pairs = append(pairs, effortPair{output: s.Power[i], hr: hr})
			continue
		}
		// Filter noise: must be actually moving
		vel := s.Velocity[i]
		if !validSpeed(vel) || vel <= MinMovingSpeed {
			continue
		}
		pairs = append(pairs, effortPair{output: vel * 60, hr: hr})
	}
	return pairs, usePower
}

// ratio returns mean(output)/mean(hr), or 0
func ratio(pairs []effortPair) float64 {
	if len(pairs) == 0 {
		return 0
	}
	var totalOut, totalHR float64
	for _, p := range pairs {
		totalOut += p.output
		totalHR += p.hr
	}
	if totalHR == 0 {
		return 0
	}
	return totalOut / totalHR
}

// EfficiencyFactor is average power (or speed in m/min) per heartbeat.
// Higher is better - more output for the same HR.
// Returns nil when HR is absent or averages zero.
func EfficiencyFactor(s RawStreams) *float64 {
	pairs, _ := effortPairs(s)
	ef := ratio(pairs)
	if ef == 0 {
		return nil
	}
	return &ef
}
