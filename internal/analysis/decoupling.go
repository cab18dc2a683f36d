package analysis

// MinDecouplingHalfSamples is the number of valid pairs each half needs
const MinDecouplingHalfSamples = 60

// AerobicDecoupling calculates the output:HR drift between first and second half
// Returns percentage - positive means second half was less efficient
// < 5% on long efforts indicates good aerobic base
func AerobicDecoupling(s RawStreams) *float64 {
	pairs, _ := effortPairs(s)
	mid := len(pairs) / 2
	if mid < MinDecouplingHalfSamples || len(pairs)-mid < MinDecouplingHalfSamples {
		return nil
	}

	firstEF := ratio(pairs[:mid])
	secondEF := ratio(pairs[mid:])
	if firstEF == 0 || secondEF == 0 {
		return nil
	}

	// Formula: ((first / second) - 1) * 100
	decoupling := ((firstEF / secondEF) - 1) * 100
	return &decoupling
}

// DecouplingAssessment returns a human-readable decoupling assessment
func DecouplingAssessment(decoupling float64) string {
	switch {
	case decoupling < 3:
		return "Excellent aerobic base"
	case decoupling < 5:
		return "Good aerobic fitness"
	case decoupling < 8:
		return "Developing aerobic base"
	case decoupling < 12:
		return "Needs more easy miles"
	default:
		return "Aerobic system needs work"
	}
}
