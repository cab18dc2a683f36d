package analysis

const (
	// HRRecoveryWindow is the interval after effort cessation (seconds)
	HRRecoveryWindow = 60.0
	// MaxHRRecoveryGap is the largest gap tolerated in post-effort HR samples
	MaxHRRecoveryGap = 5.0
)

// FTP estimate sources
const (
	FTPConfigured = "configured"
	FTPBest20Min  = "best_20min"
)

// VO2max estimate sources
const (
	VO2MaxPower = "power_5min"
	VO2MaxVDOT  = "vdot"
)

// FTPEstimate is the functional threshold power and where it came from
type FTPEstimate struct {
	Watts  float64 `json:"watts"`
	Source string  `json:"source"`
}

// VO2MaxEstimate is ml/kg/min and where it came from
type VO2MaxEstimate struct {
	Value  float64 `json:"value"`
	Source string  `json:"source"`
	Label  string  `json:"label,omitempty"`
}

// PhysicalStatus aggregates athlete-level estimates over a history window.
// Every field degrades to nil on its own.
type PhysicalStatus struct {
	FTP             *FTPEstimate        `json:"ftp,omitempty"`
	VO2Max          *VO2MaxEstimate     `json:"vo2max,omitempty"`
	CriticalPower   *CriticalPowerModel `json:"critical_power,omitempty"`
	HRRecovery      *float64            `json:"hr_recovery,omitempty"`
	RunningEconomy  *float64            `json:"running_economy,omitempty"` // J/kg/m
	ACWR            *float64            `json:"acwr,omitempty"`
	RiskLevel       string              `json:"risk_level"`
	Recommendations []string            `json:"recommendations"`
}

// StatusInput is what the estimator sees: the latest activity (optionally with
// streams and its power block) plus the history window.
type StatusInput struct {
	Activity ActivitySummary
	Streams  *RawStreams
	Power    *PowerAnalysis
	History  []ActivitySummary
	Load     TrainingLoadState
}

// EstimatePhysicalStatus never fails; each field has its own precondition.
func EstimatePhysicalStatus(in StatusInput, opts Options) *PhysicalStatus {
	efforts := collectEfforts(in)

	status := &PhysicalStatus{
		FTP:       estimateFTPFrom(opts.Athlete, efforts),
		VO2Max:    estimateVO2Max(in, opts.Athlete, efforts),
		ACWR:      in.Load.ACWR,
		RiskLevel: in.Load.RiskLevel,
	}

	cp := FitCriticalPower(efforts)
	if cp.CP != nil {
		status.CriticalPower = cp
	}

	if in.Streams != nil {
		status.HRRecovery = HeartRateRecovery(*in.Streams)
	}
	if status.HRRecovery == nil {
		for i := len(in.History) - 1; i >= 0; i-- {
			if in.History[i].HRRecovery != nil {
				status.HRRecovery = in.History[i].HRRecovery
				break
			}
		}
	}

	status.RunningEconomy = estimateRunningEconomy(in, opts.Athlete.BodyMassKg)
	status.Recommendations = EvaluateRules(RecommendationRules(), &Result{TrainingLoad: in.Load, PhysicalStatus: status})
	return status
}

func collectEfforts(in StatusInput) []PowerEffort {
	var efforts []PowerEffort
	if in.Power != nil {
		efforts = append(efforts, in.Power.BestEfforts...)
	}
	efforts = append(efforts, in.Activity.BestEfforts...)
	for _, a := range in.History {
		efforts = append(efforts, a.BestEfforts...)
	}
	return efforts
}

func estimateFTPFrom(athlete AthleteProfile, efforts []PowerEffort) *FTPEstimate {
	if athlete.FTP > 0 {
		return &FTPEstimate{Watts: athlete.FTP, Source: FTPConfigured}
	}
	if ftp := estimateFTP(bestEffortFor(efforts, 1200)); ftp > 0 {
		return &FTPEstimate{Watts: ftp, Source: FTPBest20Min}
	}
	return nil
}

// estimateVO2Max prefers the ACSM cycling estimate from 5-minute power and
// falls back to the best running VDOT in the window.
func estimateVO2Max(in StatusInput, athlete AthleteProfile, efforts []PowerEffort) *VO2MaxEstimate {
	if athlete.BodyMassKg > 0 {
		if p5 := bestEffortFor(efforts, 300); p5 > 0 {
			return &VO2MaxEstimate{
				Value:  round(10.8*p5/athlete.BodyMassKg+7, 1),
				Source: VO2MaxPower,
			}
		}
	}

	var best *VO2MaxEstimate
	consider := func(distance, duration float64) {
		if e := VDOTEstimate(distance, duration); e != nil && (best == nil || e.Value > best.Value) {
			best = e
		}
	}
	for _, a := range in.History {
		if a.IsRun() {
			consider(a.DistanceMeters, a.DurationSeconds)
		}
	}
	if in.Activity.IsRun() {
		consider(in.Activity.DistanceMeters, in.Activity.DurationSeconds)
		if in.Streams != nil {
			for _, d := range EffortDistances {
				if e := FindBestEffort(*in.Streams, d); e != nil {
					consider(e.DistanceMeters, e.DurationSeconds)
				}
			}
		}
	}
	return best
}

// HeartRateRecovery is the HR drop over HRRecoveryWindow after the last
// moving sample. It needs continuous valid HR samples through the window.
func HeartRateRecovery(s RawStreams) *float64 {
	if len(s.HeartRate) == 0 || (len(s.Velocity) == 0 && len(s.Power) == 0) {
		return nil
	}

	cessation := -1
	for i := len(s.Time) - 1; i >= 0; i-- {
		moving := len(s.Velocity) > 0 && validSpeed(s.Velocity[i]) && s.Velocity[i] > MinMovingSpeed
		pedaling := len(s.Power) > 0 && validPower(s.Power[i]) && s.Power[i] > 0
		if moving || pedaling {
			cessation = i
			break
		}
	}
	if cessation < 0 || !validHeartRate(s.HeartRate[cessation]) {
		return nil
	}

	start := s.Time[cessation]
	for i := cessation + 1; i < len(s.Time); i++ {
		if !validHeartRate(s.HeartRate[i]) || s.Time[i]-s.Time[i-1] > MaxHRRecoveryGap {
			return nil
		}
		if s.Time[i]-start >= HRRecoveryWindow {
			drop := s.HeartRate[cessation] - s.HeartRate[i]
			return &drop
		}
	}
	return nil
}

// estimateRunningEconomy is average power per kg per metre (J/kg/m) for the
// latest run with power data.
func estimateRunningEconomy(in StatusInput, bodyMass float64) *float64 {
	if bodyMass <= 0 {
		return nil
	}
	economy := func(a ActivitySummary, avgPower float64) *float64 {
		speed := a.AverageSpeed()
		if !a.IsRun() || avgPower <= 0 || speed <= 0 {
			return nil
		}
		re := avgPower / (bodyMass * speed)
		return &re
	}

	if in.Power != nil {
		if re := economy(in.Activity, in.Power.AveragePower); re != nil {
			return re
		}
	}
	if in.Activity.AveragePower != nil {
		if re := economy(in.Activity, *in.Activity.AveragePower); re != nil {
			return re
		}
	}
	for i := len(in.History) - 1; i >= 0; i-- {
		a := in.History[i]
		if a.AveragePower == nil {
			continue
		}
		if re := economy(a, *a.AveragePower); re != nil {
			return re
		}
	}
	return nil
}
