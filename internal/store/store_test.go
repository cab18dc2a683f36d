package store

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"training-insights/internal/analysis"
)

// setupTestStore opens a fresh database in a temporary directory
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "nested", "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})
	return s
}

func floatPtr(f float64) *float64 {
	return &f
}

var base = time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

func TestSaveActivity_RoundTrip(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	a := analysis.ActivitySummary{
		ID:                  "ride-1",
		Sport:               analysis.SportRide,
		StartTime:           base.Add(1500 * time.Millisecond),
		DurationSeconds:     3600,
		DistanceMeters:      30000,
		ElevationGainMeters: 250,
		AverageHeartRate:    floatPtr(142),
		AveragePower:        floatPtr(210),
		TSS:                 floatPtr(75),
		BestEfforts:         []analysis.PowerEffort{{DurationSeconds: 300, Watts: 280}, {DurationSeconds: 1200, Watts: 250}},
	}
	if err := s.SaveActivity(ctx, "athlete-1", a); err != nil {
		t.Fatalf("SaveActivity() error = %v", err)
	}

	got, err := s.GetActivity(ctx, "ride-1")
	if err != nil {
		t.Fatalf("GetActivity() error = %v", err)
	}
	if !got.StartTime.Equal(a.StartTime) {
		t.Errorf("StartTime = %v, want %v", got.StartTime, a.StartTime)
	}
	if got.TSS == nil || *got.TSS != 75 || got.TRIMP != nil {
		t.Errorf("TSS/TRIMP = %v/%v, want 75/nil", got.TSS, got.TRIMP)
	}
	if got.MaxHeartRate != nil {
		t.Errorf("MaxHeartRate = %v, want nil", *got.MaxHeartRate)
	}
	if len(got.BestEfforts) != 2 || got.BestEfforts[1].Watts != 250 {
		t.Errorf("BestEfforts = %v", got.BestEfforts)
	}

	// Saving again replaces the row and its efforts
	a.TSS = floatPtr(80)
	a.BestEfforts = []analysis.PowerEffort{{DurationSeconds: 60, Watts: 400}}
	if err := s.SaveActivity(ctx, "athlete-1", a); err != nil {
		t.Fatalf("SaveActivity() update error = %v", err)
	}
	got, err = s.GetActivity(ctx, "ride-1")
	if err != nil {
		t.Fatalf("GetActivity() error = %v", err)
	}
	if *got.TSS != 80 || len(got.BestEfforts) != 1 {
		t.Errorf("after update TSS = %v, efforts = %v", *got.TSS, got.BestEfforts)
	}

	if n, _ := s.CountActivities(ctx, "athlete-1"); n != 1 {
		t.Errorf("CountActivities() = %d, want 1", n)
	}
}

func TestSaveActivity_EmptyID(t *testing.T) {
	s := setupTestStore(t)
	if err := s.SaveActivity(context.Background(), "athlete-1", analysis.ActivitySummary{}); err == nil {
		t.Error("SaveActivity() with no ID: error = nil")
	}
}

func TestHistory(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	for i, day := range []int{3, 0, 10, 1} {
		a := analysis.ActivitySummary{
			ID:        string(rune('a' + i)),
			Sport:     analysis.SportRun,
			StartTime: base.AddDate(0, 0, day),
		}
		if err := s.SaveActivity(ctx, "athlete-1", a); err != nil {
			t.Fatal(err)
		}
	}
	other := analysis.ActivitySummary{ID: "x", Sport: analysis.SportRun, StartTime: base}
	if err := s.SaveActivity(ctx, "athlete-2", other); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name         string
		since, until time.Time
		want         []string
	}{
		{"open range, oldest first", time.Time{}, time.Time{}, []string{"b", "d", "a", "c"}},
		{"bounded", base.AddDate(0, 0, 1), base.AddDate(0, 0, 3), []string{"d", "a"}},
		{"until only", time.Time{}, base, []string{"b"}},
		{"empty", base.AddDate(0, 0, 20), time.Time{}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			history, err := s.History(ctx, "athlete-1", tt.since, tt.until)
			if err != nil {
				t.Fatalf("History() error = %v", err)
			}
			var ids []string
			for _, a := range history {
				ids = append(ids, a.ID)
			}
			if len(ids) != len(tt.want) {
				t.Fatalf("History() = %v, want %v", ids, tt.want)
			}
			for i := range ids {
				if ids[i] != tt.want[i] {
					t.Errorf("History() = %v, want %v", ids, tt.want)
					break
				}
			}
		})
	}

	latest, err := s.Latest(ctx, "athlete-1")
	if err != nil || latest.ID != "c" {
		t.Errorf("Latest() = %q, %v; want c", latest.ID, err)
	}
	if _, err := s.Latest(ctx, "nobody"); !errors.Is(err, ErrActivityNotFound) {
		t.Errorf("Latest() for unknown athlete error = %v", err)
	}

	athletes, err := s.Athletes(ctx)
	if err != nil || len(athletes) != 2 || athletes[0] != "athlete-1" {
		t.Errorf("Athletes() = %v, %v", athletes, err)
	}
}

func TestDeleteActivity_Cascades(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	a := analysis.ActivitySummary{ID: "run-1", StartTime: base, BestEfforts: []analysis.PowerEffort{{DurationSeconds: 300, Watts: 300}}}
	if err := s.SaveActivity(ctx, "athlete-1", a); err != nil {
		t.Fatal(err)
	}
	streams := analysis.RawStreams{Time: []float64{0, 1}, HeartRate: []float64{140, 141}}
	if err := s.SaveStreams(ctx, "run-1", streams); err != nil {
		t.Fatal(err)
	}

	if err := s.DeleteActivity(ctx, "run-1"); err != nil {
		t.Fatalf("DeleteActivity() error = %v", err)
	}
	if _, err := s.GetActivity(ctx, "run-1"); !errors.Is(err, ErrActivityNotFound) {
		t.Errorf("GetActivity() after delete error = %v, want ErrActivityNotFound", err)
	}
	if has, _ := s.HasStreams(ctx, "run-1"); has {
		t.Error("streams survived the activity delete")
	}
	if err := s.DeleteActivity(ctx, "run-1"); !errors.Is(err, ErrActivityNotFound) {
		t.Errorf("second DeleteActivity() error = %v, want ErrActivityNotFound", err)
	}
}

func TestStreams_RoundTrip(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	if err := s.SaveActivity(ctx, "athlete-1", analysis.ActivitySummary{ID: "run-1", StartTime: base}); err != nil {
		t.Fatal(err)
	}
	in := analysis.RawStreams{
		Time:      []float64{0, 1, 2},
		HeartRate: []float64{140, math.NaN(), 150},
		Velocity:  []float64{3, 3.1, 3.2},
		Power:     []float64{math.NaN(), math.NaN(), math.NaN()},
	}
	if err := s.SaveStreams(ctx, "run-1", in); err != nil {
		t.Fatalf("SaveStreams() error = %v", err)
	}

	out, err := s.GetStreams(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetStreams() error = %v", err)
	}
	if len(out.Time) != 3 || out.Time[2] != 2 {
		t.Errorf("Time = %v", out.Time)
	}
	if len(out.HeartRate) != 3 || !math.IsNaN(out.HeartRate[1]) || out.HeartRate[2] != 150 {
		t.Errorf("HeartRate = %v, want [140 NaN 150]", out.HeartRate)
	}
	if out.Power != nil || out.Cadence != nil {
		t.Errorf("Power/Cadence = %v/%v, want absent", out.Power, out.Cadence)
	}

	bad := analysis.RawStreams{Time: []float64{0, 1}, HeartRate: []float64{140}}
	if err := s.SaveStreams(ctx, "run-1", bad); !errors.Is(err, analysis.ErrMalformedStream) {
		t.Errorf("SaveStreams() with mismatched lengths error = %v", err)
	}
}

func TestActivityMetrics(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	if err := s.SaveActivity(ctx, "athlete-1", analysis.ActivitySummary{ID: "run-1", StartTime: base}); err != nil {
		t.Fatal(err)
	}

	none, err := s.GetActivityMetrics(ctx, "run-1")
	if err != nil || none != nil {
		t.Fatalf("GetActivityMetrics() = %+v, %v; want nil, nil", none, err)
	}

	result := &analysis.Result{
		PerformanceMetrics: analysis.PerformanceMetrics{
			EfficiencyFactor: floatPtr(1.4),
			PowerAnalysis:    &analysis.PowerAnalysis{NormalizedPower: 230},
		},
		TrainingLoad: analysis.TrainingLoadState{
			ActivityLoad: floatPtr(88),
			LoadSource:   "tss",
			AcuteLoad:    60,
			ChronicLoad:  50,
			ACWR:         floatPtr(1.2),
			RiskLevel:    analysis.RiskOptimal,
		},
	}
	if err := s.SaveActivityMetrics(ctx, MetricsFromResult("run-1", result)); err != nil {
		t.Fatalf("SaveActivityMetrics() error = %v", err)
	}

	got, err := s.GetActivityMetrics(ctx, "run-1")
	if err != nil || got == nil {
		t.Fatalf("GetActivityMetrics() = %+v, %v", got, err)
	}
	if got.Load == nil || *got.Load != 88 || got.LoadSource != "tss" {
		t.Errorf("Load = %v from %q, want 88 from tss", got.Load, got.LoadSource)
	}
	if got.NormalizedPower == nil || *got.NormalizedPower != 230 {
		t.Errorf("NormalizedPower = %v, want 230", got.NormalizedPower)
	}
	if got.ACWR == nil || *got.ACWR != 1.2 || got.RiskLevel != analysis.RiskOptimal {
		t.Errorf("ACWR = %v (%s), want 1.2 (optimal)", got.ACWR, got.RiskLevel)
	}
	if got.AerobicDecoupling != nil {
		t.Errorf("AerobicDecoupling = %v, want nil", *got.AerobicDecoupling)
	}
}
