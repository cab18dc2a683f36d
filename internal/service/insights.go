// Package service ties the analysis engine to the activity store
package service

import (
	"context"
	"fmt"
	"time"

	"training-insights/internal/analysis"
	"training-insights/internal/batch"
	"training-insights/internal/store"
)

// DefaultWorkers bounds concurrent athletes in a status recompute
const DefaultWorkers = 4

// InsightsService analyses activities against stored history
type InsightsService struct {
	store *store.Store
	opts  analysis.Options
	now   func() time.Time
}

// NewInsightsService creates a service over the given store and options
func NewInsightsService(st *store.Store, opts analysis.Options) *InsightsService {
	return &InsightsService{
		store: st,
		opts:  opts,
		now:   time.Now,
	}
}

// Analyze runs the engine for one activity. Stored history for the athlete
// is merged with any history carried on the input; the activity itself is
// never part of its own history.
func (s *InsightsService) Analyze(ctx context.Context, athleteID string, in analysis.Input) (*analysis.Result, error) {
	history, err := s.history(ctx, athleteID, in.Activity)
	if err != nil {
		return nil, err
	}
	in.History = mergeHistory(history, in.History, in.Activity.ID)

	r, err := analysis.Analyze(in, s.opts)
	if err != nil {
		return nil, fmt.Errorf("analyzing activity %s: %w", in.Activity.ID, err)
	}
	return r, nil
}

// Save stores the activity with what the analysis derived, its streams and
// its headline metrics
func (s *InsightsService) Save(ctx context.Context, athleteID string, in analysis.Input, r *analysis.Result) error {
	record := analysis.HistoryRecord(in.Activity, in.Streams, r)
	if err := s.store.SaveActivity(ctx, athleteID, record); err != nil {
		return fmt.Errorf("saving activity: %w", err)
	}
	if err := s.store.SaveStreams(ctx, record.ID, in.Streams); err != nil {
		return fmt.Errorf("saving streams: %w", err)
	}
	if err := s.store.SaveActivityMetrics(ctx, store.MetricsFromResult(record.ID, r)); err != nil {
		return fmt.Errorf("saving metrics: %w", err)
	}
	return nil
}

// Reanalyze runs the engine again for a stored activity using its stored
// streams
func (s *InsightsService) Reanalyze(ctx context.Context, athleteID, activityID string) (analysis.ActivitySummary, *analysis.Result, error) {
	activity, err := s.store.GetActivity(ctx, activityID)
	if err != nil {
		return analysis.ActivitySummary{}, nil, err
	}
	streams, err := s.store.GetStreams(ctx, activityID)
	if err != nil {
		return activity, nil, err
	}
	r, err := s.Analyze(ctx, athleteID, analysis.Input{Activity: activity, Streams: streams})
	return activity, r, err
}

// ReanalyzeLatest runs the engine again for the athlete's most recent
// stored activity
func (s *InsightsService) ReanalyzeLatest(ctx context.Context, athleteID string) (analysis.ActivitySummary, *analysis.Result, error) {
	latest, err := s.store.Latest(ctx, athleteID)
	if err != nil {
		return analysis.ActivitySummary{}, nil, err
	}
	return s.Reanalyze(ctx, athleteID, latest.ID)
}

// Status recomputes training load and physical status as of now for the
// given athletes, or for every stored athlete when none are given
func (s *InsightsService) Status(ctx context.Context, athletes []string, workers int) ([]batch.AthleteStatus, error) {
	if len(athletes) == 0 {
		var err error
		athletes, err = s.store.Athletes(ctx)
		if err != nil {
			return nil, err
		}
	}
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return batch.Recompute(ctx, s.store, athletes, s.now(), s.opts, workers)
}

// history loads the stored window that precedes the activity
func (s *InsightsService) history(ctx context.Context, athleteID string, activity analysis.ActivitySummary) ([]analysis.ActivitySummary, error) {
	if athleteID == "" {
		return nil, nil
	}
	until := activity.StartTime
	if until.IsZero() {
		until = s.now()
	}
	history, err := s.store.History(ctx, athleteID, batch.Since(until, s.opts.Load), until)
	if err != nil {
		return nil, fmt.Errorf("loading history for %s: %w", athleteID, err)
	}
	return history, nil
}

// mergeHistory combines stored and supplied history. Supplied entries
// replace stored ones with the same ID.
func mergeHistory(stored, supplied []analysis.ActivitySummary, exclude string) []analysis.ActivitySummary {
	seen := make(map[string]bool, len(supplied))
	var out []analysis.ActivitySummary
	for _, a := range supplied {
		if a.ID != "" && a.ID == exclude {
			continue
		}
		if a.ID != "" {
			seen[a.ID] = true
		}
		out = append(out, a)
	}
	for _, a := range stored {
		if a.ID == exclude || seen[a.ID] {
			continue
		}
		out = append(out, a)
	}
	return out
}
