package analysis

import (
	"fmt"
	"sort"
	"time"
)

// Analyze runs the full pipeline for one activity against its history.
// Only structural stream errors abort the run; every other problem degrades
// the affected metric to nil and is reported in Result.Warnings.
func Analyze(in Input, opts Options) (*Result, error) {
	p, err := Preprocess(in.Streams, opts.ChartPoints)
	if err != nil {
		return nil, fmt.Errorf("preprocess streams: %w", err)
	}

	var warn warnings
	opts = sanitizeOptions(opts, &warn)
	history := sortHistory(in.History)

	r := &Result{Chart: p.Chart}

	maxHR, source := ResolveMaxHR(opts.Athlete, in.Activity, p.Streams.HeartRate)
	if maxHR > 0 {
		r.MaxHR = &maxHR
		r.MaxHRSource = source
	}
	r.HeartRateZones = ClassifyZones(p.Streams.HeartRate, p.Durations, maxHR, opts.ZoneBounds)

	r.PerformanceMetrics = computePerformanceMetrics(in.Activity, p, opts, &warn)
	r.Correlations = Correlate(p.Streams)
	r.TrainingLoad = activityTrainingLoad(in.Activity, r, history, opts, &warn)
	r.TrainingLoad.SufferScore = SufferScore(r.HeartRateZones)

	status := StatusInput{
		Activity: in.Activity,
		Streams:  &p.Streams,
		Power:    r.PerformanceMetrics.PowerAnalysis,
		History:  history,
		Load:     r.TrainingLoad,
	}
	if len(history) > 0 || len(collectEfforts(status)) > 0 {
		r.PhysicalStatus = EstimatePhysicalStatus(status, opts)
	}

	r.Insights = EvaluateRules(Rules(), r)
	r.Warnings = warn
	return r, nil
}

// sanitizeOptions replaces invalid configuration with defaults and records
// a warning for each replacement.
func sanitizeOptions(opts Options, warn *warnings) Options {
	if err := opts.ZoneBounds.Validate(); err != nil {
		warn.config("heart_rate_zones", err)
		opts.ZoneBounds = DefaultZoneBounds()
	}
	if err := opts.Load.Validate(); err != nil {
		warn.config("training_load", err)
		opts.Load = DefaultLoadModel()
	}
	if opts.TRIMP == (TRIMPCoefficients{}) {
		opts.TRIMP = DefaultTRIMPCoefficients()
	}
	return opts
}

// sortHistory returns a start-time ordered copy; the input is not modified
func sortHistory(history []ActivitySummary) []ActivitySummary {
	sorted := make([]ActivitySummary, len(history))
	copy(sorted, history)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartTime.Before(sorted[j].StartTime)
	})
	return sorted
}

// activityTrainingLoad scores the analysed activity and evaluates the load
// windows over the history as of the end of that activity.
func activityTrainingLoad(activity ActivitySummary, r *Result, history []ActivitySummary, opts Options, warn *warnings) TrainingLoadState {
	loads, err := HistoryLoads(history, opts)
	if err != nil {
		warn.config("training_load", err)
	}

	state := ComputeTrainingLoad(loads, referenceTime(activity, history), opts.Load)

	pm := r.PerformanceMetrics
	switch {
	case pm.PowerAnalysis != nil && pm.PowerAnalysis.TrainingStressScore != nil:
		state.ActivityLoad = pm.PowerAnalysis.TrainingStressScore
		state.LoadSource = LoadSourceTSS
	case pm.TRIMP != nil:
		state.ActivityLoad = pm.TRIMP
		state.LoadSource = LoadSourceTRIMP
	default:
		if load, source, _ := ActivityLoad(activity, opts); load != nil {
			state.ActivityLoad = load
			state.LoadSource = source
		}
	}
	if state.ACWR == nil {
		warn.insufficient("acwr", fmt.Sprintf("no training load in the last %d days", opts.Load.ChronicDays))
	}
	return state
}

// HistoryLoads scores every history entry. Entries without any derivable
// load are skipped; the first configuration error is returned alongside the
// loads that could be scored.
func HistoryLoads(history []ActivitySummary, opts Options) ([]DailyLoad, error) {
	var loads []DailyLoad
	var firstErr error
	for _, a := range history {
		load, _, err := ActivityLoad(a, opts)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		if load == nil {
			continue
		}
		loads = append(loads, DailyLoad{Date: a.StartTime, Load: *load})
	}
	return loads, firstErr
}

// referenceTime is the end of the analysed activity, or the newest history
// start when the activity carries no timestamp.
func referenceTime(activity ActivitySummary, history []ActivitySummary) time.Time {
	if !activity.StartTime.IsZero() {
		return activity.StartTime.Add(time.Duration(activity.DurationSeconds * float64(time.Second)))
	}
	if len(history) > 0 {
		return history[len(history)-1].StartTime
	}
	return time.Time{}
}

// HistoryRecord folds what an analysis derived back into the activity
// summary so later runs can use it as history. Precomputed values on the
// summary win.
func HistoryRecord(activity ActivitySummary, streams RawStreams, r *Result) ActivitySummary {
	out := activity
	pm := r.PerformanceMetrics
	if out.TSS == nil && pm.PowerAnalysis != nil {
		out.TSS = pm.PowerAnalysis.TrainingStressScore
	}
	if out.TRIMP == nil {
		out.TRIMP = pm.TRIMP
	}
	if out.AverageHeartRate == nil {
		out.AverageHeartRate = pm.AverageHeartRate
	}
	if out.MaxHeartRate == nil {
		out.MaxHeartRate = pm.MaxHeartRate
	}
	if pm.PowerAnalysis != nil {
		if out.AveragePower == nil {
			avg := pm.PowerAnalysis.AveragePower
			out.AveragePower = &avg
		}
		if out.MaxPower == nil {
			peak := pm.PowerAnalysis.MaxPower
			out.MaxPower = &peak
		}
		if len(out.BestEfforts) == 0 {
			out.BestEfforts = append([]PowerEffort(nil), pm.PowerAnalysis.BestEfforts...)
		}
	}
	if out.HRRecovery == nil {
		moving, _ := withDerivedVelocity(streams)
		out.HRRecovery = HeartRateRecovery(moving)
	}
	if out.DurationSeconds == 0 {
		out.DurationSeconds = pm.DurationSeconds
	}
	if out.DistanceMeters == 0 {
		out.DistanceMeters = pm.DistanceMeters
	}
	return out
}
