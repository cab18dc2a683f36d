// Package batch recomputes training load and physical status for many
// athletes at once
package batch

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"training-insights/internal/analysis"
)

// EffortLookbackDays is how far back best efforts count towards FTP,
// critical power and VO2max
const EffortLookbackDays = 90

// HistorySource supplies an athlete's activities in [since, until]
type HistorySource interface {
	History(ctx context.Context, athleteID string, since, until time.Time) ([]analysis.ActivitySummary, error)
}

// AthleteStatus is the recomputed state of one athlete
type AthleteStatus struct {
	AthleteID      string                     `json:"athlete_id"`
	AsOf           time.Time                  `json:"as_of"`
	Activities     int                        `json:"activities"`
	TrainingLoad   analysis.TrainingLoadState `json:"training_load"`
	PhysicalStatus *analysis.PhysicalStatus   `json:"physical_status,omitempty"`
	Warnings       []string                   `json:"warnings,omitempty"`
}

// Since returns the start of the history window needed as of asOf
func Since(asOf time.Time, model analysis.LoadModel) time.Time {
	days := EffortLookbackDays
	if model.ChronicDays > days {
		days = model.ChronicDays
	}
	return asOf.AddDate(0, 0, -days)
}

// Recompute evaluates every athlete as of asOf using at most workers
// goroutines. Results are in the order of athletes. The first history error
// cancels the remaining work.
func Recompute(ctx context.Context, src HistorySource, athletes []string, asOf time.Time, opts analysis.Options, workers int) ([]AthleteStatus, error) {
	if workers <= 0 {
		workers = 1
	}
	results := make([]AthleteStatus, len(athletes))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, id := range athletes {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			status, err := recomputeAthlete(ctx, src, id, asOf, opts)
			if err != nil {
				return fmt.Errorf("athlete %s: %w", id, err)
			}
			results[i] = status
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func recomputeAthlete(ctx context.Context, src HistorySource, athleteID string, asOf time.Time, opts analysis.Options) (AthleteStatus, error) {
	history, err := src.History(ctx, athleteID, Since(asOf, opts.Load), asOf)
	if err != nil {
		return AthleteStatus{}, fmt.Errorf("loading history: %w", err)
	}

	status := AthleteStatus{
		AthleteID:  athleteID,
		AsOf:       asOf,
		Activities: len(history),
	}

	loads, err := analysis.HistoryLoads(history, opts)
	if err != nil {
		status.Warnings = append(status.Warnings, err.Error())
	}
	status.TrainingLoad = analysis.ComputeTrainingLoad(loads, asOf, opts.Load)

	if len(history) > 0 {
		status.PhysicalStatus = analysis.EstimatePhysicalStatus(analysis.StatusInput{
			History: history,
			Load:    status.TrainingLoad,
		}, opts)
	}
	return status, nil
}
