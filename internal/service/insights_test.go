package service

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"training-insights/internal/analysis"
	"training-insights/internal/store"
)

var start = time.Date(2024, 3, 20, 8, 0, 0, 0, time.UTC)

func floatPtr(f float64) *float64 {
	return &f
}

// setupService opens a store with ten days of rides before start and one
// ride after it
func setupService(t *testing.T) (*InsightsService, *store.Store) {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "insights.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})

	ctx := context.Background()
	for d := 1; d <= 10; d++ {
		a := analysis.ActivitySummary{
			ID:              "past-" + string(rune('a'+d)),
			Sport:           analysis.SportRide,
			StartTime:       start.AddDate(0, 0, -d),
			DurationSeconds: 3600,
			TSS:             floatPtr(60),
		}
		if err := st.SaveActivity(ctx, "athlete-1", a); err != nil {
			t.Fatal(err)
		}
	}
	future := analysis.ActivitySummary{
		ID:        "future",
		Sport:     analysis.SportRide,
		StartTime: start.AddDate(0, 0, 2),
		TSS:       floatPtr(500),
	}
	if err := st.SaveActivity(ctx, "athlete-1", future); err != nil {
		t.Fatal(err)
	}

	opts := analysis.DefaultOptions()
	opts.Athlete = analysis.AthleteProfile{RestingHR: 50, MaxHR: 190, FTP: 250}
	svc := NewInsightsService(st, opts)
	svc.now = func() time.Time { return start.Add(2 * time.Hour) }
	return svc, st
}

func rideInput() analysis.Input {
	n := 1800
	s := analysis.RawStreams{
		Time:      make([]float64, n),
		HeartRate: make([]float64, n),
		Power:     make([]float64, n),
		Velocity:  make([]float64, n),
		Distance:  make([]float64, n),
	}
	for i := 0; i < n; i++ {
		s.Time[i] = float64(i)
		s.HeartRate[i] = 140
		s.Power[i] = 200
		s.Velocity[i] = 9
		s.Distance[i] = 9 * float64(i)
	}
	return analysis.Input{
		Activity: analysis.ActivitySummary{
			ID:              "today",
			Sport:           analysis.SportRide,
			StartTime:       start,
			DurationSeconds: float64(n),
			DistanceMeters:  9 * float64(n),
		},
		Streams: s,
	}
}

func TestAnalyze_UsesStoredHistory(t *testing.T) {
	svc, _ := setupService(t)

	r, err := svc.Analyze(context.Background(), "athlete-1", rideInput())
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	tl := r.TrainingLoad
	if tl.ActivityLoad == nil {
		t.Fatal("ActivityLoad = nil, want TSS from the power stream")
	}
	if tl.ChronicLoad <= 0 || tl.AcuteLoad <= 0 {
		t.Errorf("acute/chronic = %v/%v, want stored history counted", tl.AcuteLoad, tl.ChronicLoad)
	}
	if r.PhysicalStatus == nil {
		t.Error("PhysicalStatus = nil, want estimates from history")
	}

	// Without an athlete the same activity has no history
	alone, err := svc.Analyze(context.Background(), "", rideInput())
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if alone.TrainingLoad.ChronicLoad != 0 {
		t.Errorf("ChronicLoad without history = %v, want 0", alone.TrainingLoad.ChronicLoad)
	}
}

func TestAnalyze_MalformedStreams(t *testing.T) {
	svc, _ := setupService(t)

	in := rideInput()
	in.Streams.HeartRate = in.Streams.HeartRate[:10]
	_, err := svc.Analyze(context.Background(), "athlete-1", in)

	var malformed *analysis.MalformedStreamError
	if !errors.As(err, &malformed) {
		t.Errorf("error = %v, want MalformedStreamError", err)
	}
}

func TestSaveAndReanalyze(t *testing.T) {
	svc, st := setupService(t)
	ctx := context.Background()
	in := rideInput()

	r, err := svc.Analyze(ctx, "athlete-1", in)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if err := svc.Save(ctx, "athlete-1", in, r); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	saved, err := st.GetActivity(ctx, "today")
	if err != nil {
		t.Fatalf("GetActivity() error = %v", err)
	}
	if saved.TSS == nil || saved.AveragePower == nil || *saved.AveragePower != 200 {
		t.Errorf("saved activity = %+v, want derived TSS and power", saved)
	}
	if ok, _ := st.HasStreams(ctx, "today"); !ok {
		t.Error("streams were not saved")
	}
	if m, err := st.GetActivityMetrics(ctx, "today"); err != nil || m == nil {
		t.Errorf("GetActivityMetrics() = %v, %v", m, err)
	}

	_, again, err := svc.Reanalyze(ctx, "athlete-1", "today")
	if err != nil {
		t.Fatalf("Reanalyze() error = %v", err)
	}
	if math.Abs(*again.TrainingLoad.ActivityLoad-*r.TrainingLoad.ActivityLoad) > 0.01 {
		t.Errorf("reanalysed load = %v, want %v", *again.TrainingLoad.ActivityLoad, *r.TrainingLoad.ActivityLoad)
	}
	if math.Abs(again.TrainingLoad.ChronicLoad-r.TrainingLoad.ChronicLoad) > 0.01 {
		t.Errorf("reanalysed chronic load = %v, want %v (activity excluded from its own history)",
			again.TrainingLoad.ChronicLoad, r.TrainingLoad.ChronicLoad)
	}

	latest, _, err := svc.ReanalyzeLatest(ctx, "athlete-1")
	if err != nil {
		t.Fatalf("ReanalyzeLatest() error = %v", err)
	}
	if latest.ID != "future" {
		t.Errorf("ReanalyzeLatest() activity = %q, want the newest stored ride", latest.ID)
	}

	if _, _, err := svc.Reanalyze(ctx, "athlete-1", "missing"); !errors.Is(err, store.ErrActivityNotFound) {
		t.Errorf("Reanalyze(missing) error = %v, want ErrActivityNotFound", err)
	}
}

func TestStatus(t *testing.T) {
	svc, _ := setupService(t)

	results, err := svc.Status(context.Background(), nil, 0)
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if len(results) != 1 || results[0].AthleteID != "athlete-1" {
		t.Fatalf("results = %+v, want the stored athlete", results)
	}
	// The ride after now is not counted
	if results[0].Activities != 10 {
		t.Errorf("Activities = %d, want 10", results[0].Activities)
	}
}

func TestMergeHistory(t *testing.T) {
	stored := []analysis.ActivitySummary{{ID: "a"}, {ID: "b"}, {ID: "self"}}

	tests := []struct {
		name     string
		supplied []analysis.ActivitySummary
		want     []string
	}{
		{"stored only", nil, []string{"a", "b"}},
		{"supplied replaces stored", []analysis.ActivitySummary{{ID: "b"}}, []string{"b", "a"}},
		{"supplied self dropped", []analysis.ActivitySummary{{ID: "self"}, {ID: "c"}}, []string{"c", "a", "b"}},
		{"unnamed supplied kept", []analysis.ActivitySummary{{}}, []string{"", "a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mergeHistory(stored, tt.supplied, "self")
			if len(got) != len(tt.want) {
				t.Fatalf("got %d entries, want %d", len(got), len(tt.want))
			}
			for i, id := range tt.want {
				if got[i].ID != id {
					t.Errorf("entry %d = %q, want %q", i, got[i].ID, id)
				}
			}
		})
	}
}
