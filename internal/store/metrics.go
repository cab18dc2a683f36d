package store

import (
	"context"
	"database/sql"
	"errors"

	"training-insights/internal/analysis"
)

// ActivityMetrics is the stored digest of one analysis result
type ActivityMetrics struct {
	ActivityID        string   `db:"activity_id"`
	Load              *float64 `db:"load"`
	LoadSource        string   `db:"load_source"`
	EfficiencyFactor  *float64 `db:"efficiency_factor"`
	AerobicDecoupling *float64 `db:"aerobic_decoupling"`
	NormalizedPower   *float64 `db:"normalized_power"`
	DataQuality       *float64 `db:"data_quality"`
	AcuteLoad         float64  `db:"acute_load"`
	ChronicLoad       float64  `db:"chronic_load"`
	ACWR              *float64 `db:"acwr"`
	RiskLevel         string   `db:"risk_level"`
}

// MetricsFromResult extracts the stored digest from an analysis result
func MetricsFromResult(activityID string, r *analysis.Result) ActivityMetrics {
	m := ActivityMetrics{
		ActivityID:        activityID,
		Load:              r.TrainingLoad.ActivityLoad,
		LoadSource:        r.TrainingLoad.LoadSource,
		EfficiencyFactor:  r.PerformanceMetrics.EfficiencyFactor,
		AerobicDecoupling: r.PerformanceMetrics.AerobicDecoupling,
		DataQuality:       r.PerformanceMetrics.DataQuality,
		AcuteLoad:         r.TrainingLoad.AcuteLoad,
		ChronicLoad:       r.TrainingLoad.ChronicLoad,
		ACWR:              r.TrainingLoad.ACWR,
		RiskLevel:         r.TrainingLoad.RiskLevel,
	}
	if pa := r.PerformanceMetrics.PowerAnalysis; pa != nil {
		np := pa.NormalizedPower
		m.NormalizedPower = &np
	}
	return m
}

// SaveActivityMetrics stores computed metrics for an activity
func (s *Store) SaveActivityMetrics(ctx context.Context, m ActivityMetrics) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO activity_metrics (
			activity_id, load, load_source, efficiency_factor, aerobic_decoupling,
			normalized_power, data_quality, acute_load, chronic_load, acwr,
			risk_level, computed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(activity_id) DO UPDATE SET
			load = excluded.load,
			load_source = excluded.load_source,
			efficiency_factor = excluded.efficiency_factor,
			aerobic_decoupling = excluded.aerobic_decoupling,
			normalized_power = excluded.normalized_power,
			data_quality = excluded.data_quality,
			acute_load = excluded.acute_load,
			chronic_load = excluded.chronic_load,
			acwr = excluded.acwr,
			risk_level = excluded.risk_level,
			computed_at = CURRENT_TIMESTAMP
	`,
		m.ActivityID, m.Load, m.LoadSource, m.EfficiencyFactor, m.AerobicDecoupling,
		m.NormalizedPower, m.DataQuality, m.AcuteLoad, m.ChronicLoad, m.ACWR,
		m.RiskLevel,
	)
	return err
}

// GetActivityMetrics retrieves computed metrics for an activity.
// Returns nil when none have been computed.
func (s *Store) GetActivityMetrics(ctx context.Context, activityID string) (*ActivityMetrics, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT activity_id, load, load_source, efficiency_factor, aerobic_decoupling,
			normalized_power, data_quality, acute_load, chronic_load, acwr, risk_level
		FROM activity_metrics
		WHERE activity_id = ?
	`, activityID)

	var m ActivityMetrics
	var source, risk sql.NullString
	err := row.Scan(
		&m.ActivityID, &m.Load, &source, &m.EfficiencyFactor, &m.AerobicDecoupling,
		&m.NormalizedPower, &m.DataQuality, &m.AcuteLoad, &m.ChronicLoad, &m.ACWR, &risk,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	m.LoadSource, m.RiskLevel = source.String, risk.String
	return &m, nil
}
