package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"training-insights/internal/analysis"
)

// SaveStreams saves stream data for an activity
// It replaces any existing stream data for the activity
func (s *Store) SaveStreams(ctx context.Context, activityID string, streams analysis.RawStreams) error {
	if err := streams.Validate(); err != nil {
		return fmt.Errorf("saving streams: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// Delete existing streams for this activity
	if _, err := tx.ExecContext(ctx, "DELETE FROM streams WHERE activity_id = ?", activityID); err != nil {
		return fmt.Errorf("deleting existing streams: %w", err)
	}

	// Prepare insert statement
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO streams (
			activity_id, seq, time_offset, heartrate, power, distance,
			altitude, velocity_smooth, grade_smooth, cadence
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	// Insert all points
	for i, t := range streams.Time {
		_, err := stmt.ExecContext(ctx,
			activityID, i, t,
			sample(streams.HeartRate, i), sample(streams.Power, i), sample(streams.Distance, i),
			sample(streams.Altitude, i), sample(streams.Velocity, i), sample(streams.Grade, i),
			sample(streams.Cadence, i),
		)
		if err != nil {
			return fmt.Errorf("inserting stream point: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// GetStreams retrieves the streams of an activity. Streams with no stored
// samples are absent; NULL samples come back as NaN.
func (s *Store) GetStreams(ctx context.Context, activityID string) (analysis.RawStreams, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT time_offset, heartrate, power, distance, altitude,
			velocity_smooth, grade_smooth, cadence
		FROM streams
		WHERE activity_id = ?
		ORDER BY seq
	`, activityID)
	if err != nil {
		return analysis.RawStreams{}, err
	}
	defer rows.Close()

	var out analysis.RawStreams
	cols := []*[]float64{
		&out.HeartRate, &out.Power, &out.Distance, &out.Altitude,
		&out.Velocity, &out.Grade, &out.Cadence,
	}
	present := make([]bool, len(cols))

	for rows.Next() {
		var t float64
		vals := make([]sql.NullFloat64, len(cols))
		dest := []any{&t}
		for i := range vals {
			dest = append(dest, &vals[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return analysis.RawStreams{}, err
		}

		out.Time = append(out.Time, t)
		for i, v := range vals {
			if v.Valid {
				*cols[i] = append(*cols[i], v.Float64)
				present[i] = true
			} else {
				*cols[i] = append(*cols[i], math.NaN())
			}
		}
	}
	if err := rows.Err(); err != nil {
		return analysis.RawStreams{}, err
	}

	for i, ok := range present {
		if !ok {
			*cols[i] = nil
		}
	}
	return out, nil
}

// HasStreams checks if an activity has stream data
func (s *Store) HasStreams(ctx context.Context, activityID string) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `
		SELECT 1 FROM streams WHERE activity_id = ? LIMIT 1
	`, activityID).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// sample returns the i-th value as a nullable column
func sample(values []float64, i int) any {
	if i >= len(values) {
		return nil
	}
	v := values[i]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}
