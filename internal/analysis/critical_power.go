package analysis

import "sort"

// MinCPEffortSeconds is the shortest effort admitted to the CP fit.
// Shorter efforts are dominated by neuromuscular power.
const MinCPEffortSeconds = 60

// CriticalPowerModel is the two-parameter hyperbolic power-duration model.
// CP and WPrime are nil when the fit is impossible or non-physiological.
type CriticalPowerModel struct {
	CP      *float64      `json:"cp"`
	WPrime  *float64      `json:"w_prime"` // joules
	RSquare *float64      `json:"r_square,omitempty"`
	Efforts []PowerEffort `json:"efforts"`
}

// FitCriticalPower fits W = CP·t + W' by least squares over the best effort
// per distinct duration. It needs at least two distinct durations.
func FitCriticalPower(efforts []PowerEffort) *CriticalPowerModel {
	best := make(map[int]float64)
	for _, e := range efforts {
		if e.DurationSeconds < MinCPEffortSeconds || e.Watts <= 0 {
			continue
		}
		if e.Watts > best[e.DurationSeconds] {
			best[e.DurationSeconds] = e.Watts
		}
	}

	model := &CriticalPowerModel{}
	for d, w := range best {
		model.Efforts = append(model.Efforts, PowerEffort{DurationSeconds: d, Watts: w})
	}
	sort.Slice(model.Efforts, func(i, j int) bool {
		return model.Efforts[i].DurationSeconds < model.Efforts[j].DurationSeconds
	})
	if len(model.Efforts) < 2 {
		return model
	}

	// Linear regression of work (J) on time (s)
	n := float64(len(model.Efforts))
	var sumT, sumW float64
	for _, e := range model.Efforts {
		sumT += float64(e.DurationSeconds)
		sumW += e.Watts * float64(e.DurationSeconds)
	}
	meanT, meanW := sumT/n, sumW/n

	var stt, stw, sww float64
	for _, e := range model.Efforts {
		dt := float64(e.DurationSeconds) - meanT
		dw := e.Watts*float64(e.DurationSeconds) - meanW
		stt += dt * dt
		stw += dt * dw
		sww += dw * dw
	}
	if stt == 0 {
		return model
	}

	cp := stw / stt
	wPrime := meanW - cp*meanT
	if cp <= 0 || wPrime <= 0 {
		return model
	}
	model.CP = &cp
	model.WPrime = &wPrime
	if sww > 0 {
		r2 := stw * stw / (stt * sww)
		model.RSquare = &r2
	}
	return model
}

// TimeToExhaustion predicts how long power above CP can be held (seconds).
// Returns 0 at or below CP, where the model predicts no limit.
func (m *CriticalPowerModel) TimeToExhaustion(watts float64) float64 {
	if m == nil || m.CP == nil || m.WPrime == nil || watts <= *m.CP {
		return 0
	}
	return *m.WPrime / (watts - *m.CP)
}
