package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"training-insights/internal/analysis"
)

const activityColumns = `id, sport, start_time, duration_seconds, distance_meters,
	elevation_gain_meters, average_heartrate, max_heartrate, average_power,
	max_power, tss, trimp, hr_recovery`

// SaveActivity stores or replaces an activity summary and its best efforts
func (s *Store) SaveActivity(ctx context.Context, athleteID string, a analysis.ActivitySummary) error {
	if a.ID == "" {
		return fmt.Errorf("saving activity: empty id")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO activities (
			id, athlete_id, sport, start_time, duration_seconds, distance_meters,
			elevation_gain_meters, average_heartrate, max_heartrate, average_power,
			max_power, tss, trimp, hr_recovery
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			athlete_id = excluded.athlete_id,
			sport = excluded.sport,
			start_time = excluded.start_time,
			duration_seconds = excluded.duration_seconds,
			distance_meters = excluded.distance_meters,
			elevation_gain_meters = excluded.elevation_gain_meters,
			average_heartrate = excluded.average_heartrate,
			max_heartrate = excluded.max_heartrate,
			average_power = excluded.average_power,
			max_power = excluded.max_power,
			tss = excluded.tss,
			trimp = excluded.trimp,
			hr_recovery = excluded.hr_recovery,
			updated_at = CURRENT_TIMESTAMP
	`,
		a.ID, athleteID, a.Sport, a.StartTime.UTC().Format(timeLayout), a.DurationSeconds, a.DistanceMeters,
		a.ElevationGainMeters, a.AverageHeartRate, a.MaxHeartRate, a.AveragePower,
		a.MaxPower, a.TSS, a.TRIMP, a.HRRecovery,
	)
	if err != nil {
		return fmt.Errorf("upserting activity: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM best_efforts WHERE activity_id = ?", a.ID); err != nil {
		return fmt.Errorf("deleting existing best efforts: %w", err)
	}
	for _, e := range a.BestEfforts {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO best_efforts (activity_id, duration_seconds, watts) VALUES (?, ?, ?)
			ON CONFLICT(activity_id, duration_seconds) DO UPDATE SET watts = MAX(watts, excluded.watts)
		`, a.ID, e.DurationSeconds, e.Watts)
		if err != nil {
			return fmt.Errorf("inserting best effort: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetActivity retrieves a single activity by ID
func (s *Store) GetActivity(ctx context.Context, id string) (analysis.ActivitySummary, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+activityColumns+` FROM activities WHERE id = ?`, id)
	a, err := scanActivity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return analysis.ActivitySummary{}, ErrActivityNotFound
	}
	if err != nil {
		return analysis.ActivitySummary{}, err
	}
	if err := s.attachEfforts(ctx, []*analysis.ActivitySummary{&a}); err != nil {
		return analysis.ActivitySummary{}, err
	}
	return a, nil
}

// History returns an athlete's activities that started in [since, until],
// oldest first. A zero since or until leaves that side open.
func (s *Store) History(ctx context.Context, athleteID string, since, until time.Time) ([]analysis.ActivitySummary, error) {
	lo, hi := "", "9999"
	if !since.IsZero() {
		lo = since.UTC().Format(timeLayout)
	}
	if !until.IsZero() {
		hi = until.UTC().Format(timeLayout)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+activityColumns+`
		FROM activities
		WHERE athlete_id = ? AND start_time >= ? AND start_time <= ?
		ORDER BY start_time, id
	`, athleteID, lo, hi)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var history []analysis.ActivitySummary
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		history = append(history, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	refs := make([]*analysis.ActivitySummary, len(history))
	for i := range history {
		refs[i] = &history[i]
	}
	if err := s.attachEfforts(ctx, refs); err != nil {
		return nil, err
	}
	return history, nil
}

// Latest returns an athlete's most recent activity
func (s *Store) Latest(ctx context.Context, athleteID string) (analysis.ActivitySummary, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM activities WHERE athlete_id = ?
		ORDER BY start_time DESC, id DESC LIMIT 1
	`, athleteID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return analysis.ActivitySummary{}, ErrActivityNotFound
	}
	if err != nil {
		return analysis.ActivitySummary{}, err
	}
	return s.GetActivity(ctx, id)
}

// Athletes returns every athlete with stored activities
func (s *Store) Athletes(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT athlete_id FROM activities ORDER BY athlete_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var athletes []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		athletes = append(athletes, id)
	}
	return athletes, rows.Err()
}

// DeleteActivity removes an activity and everything derived from it
func (s *Store) DeleteActivity(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM activities WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrActivityNotFound
	}
	return nil
}

// CountActivities returns the number of stored activities for an athlete
func (s *Store) CountActivities(ctx context.Context, athleteID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM activities WHERE athlete_id = ?", athleteID).Scan(&count)
	return count, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanActivity(row scanner) (analysis.ActivitySummary, error) {
	var a analysis.ActivitySummary
	var startTime string
	err := row.Scan(
		&a.ID, &a.Sport, &startTime, &a.DurationSeconds, &a.DistanceMeters,
		&a.ElevationGainMeters, &a.AverageHeartRate, &a.MaxHeartRate, &a.AveragePower,
		&a.MaxPower, &a.TSS, &a.TRIMP, &a.HRRecovery,
	)
	if err != nil {
		return a, err
	}
	a.StartTime, err = time.Parse(timeLayout, startTime)
	if err != nil {
		return a, fmt.Errorf("parsing start_time: %w", err)
	}
	return a, nil
}

// attachEfforts loads best efforts for the given activities in one query
func (s *Store) attachEfforts(ctx context.Context, activities []*analysis.ActivitySummary) error {
	if len(activities) == 0 {
		return nil
	}
	byID := make(map[string]*analysis.ActivitySummary, len(activities))
	args := make([]any, len(activities))
	placeholders := make([]byte, 0, 2*len(activities))
	for i, a := range activities {
		byID[a.ID] = a
		args[i] = a.ID
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT activity_id, duration_seconds, watts FROM best_efforts
		WHERE activity_id IN (`+string(placeholders)+`)
		ORDER BY activity_id, duration_seconds
	`, args...)
	if err != nil {
		return fmt.Errorf("querying best efforts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var e analysis.PowerEffort
		if err := rows.Scan(&id, &e.DurationSeconds, &e.Watts); err != nil {
			return err
		}
		if a := byID[id]; a != nil {
			a.BestEfforts = append(a.BestEfforts, e)
		}
	}
	return rows.Err()
}
