package store

import "database/sql"

// migrate runs all database migrations
func migrate(db *sql.DB) error {
	migrations := []string{
		// Activity summaries, one row per completed activity
		`CREATE TABLE IF NOT EXISTS activities (
			id TEXT PRIMARY KEY,
			athlete_id TEXT NOT NULL,
			sport TEXT NOT NULL,
			start_time TEXT NOT NULL,
			duration_seconds REAL NOT NULL,
			distance_meters REAL NOT NULL,
			elevation_gain_meters REAL NOT NULL,
			average_heartrate REAL,
			max_heartrate REAL,
			average_power REAL,
			max_power REAL,
			tss REAL,
			trimp REAL,
			hr_recovery REAL,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_activities_athlete_start ON activities(athlete_id, start_time)`,

		// Best mean-maximal power per duration
		`CREATE TABLE IF NOT EXISTS best_efforts (
			activity_id TEXT NOT NULL,
			duration_seconds INTEGER NOT NULL,
			watts REAL NOT NULL,
			PRIMARY KEY (activity_id, duration_seconds),
			FOREIGN KEY (activity_id) REFERENCES activities(id) ON DELETE CASCADE
		)`,

		// Per-sample streams, NULL where a sample is missing
		`CREATE TABLE IF NOT EXISTS streams (
			activity_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			time_offset REAL NOT NULL,
			heartrate REAL,
			power REAL,
			distance REAL,
			altitude REAL,
			velocity_smooth REAL,
			grade_smooth REAL,
			cadence REAL,
			PRIMARY KEY (activity_id, seq),
			FOREIGN KEY (activity_id) REFERENCES activities(id) ON DELETE CASCADE
		)`,

		// Computed Metrics (per activity)
		`CREATE TABLE IF NOT EXISTS activity_metrics (
			activity_id TEXT PRIMARY KEY,
			load REAL,
			load_source TEXT,
			efficiency_factor REAL,
			aerobic_decoupling REAL,
			normalized_power REAL,
			data_quality REAL,
			acute_load REAL,
			chronic_load REAL,
			acwr REAL,
			risk_level TEXT,
			computed_at TEXT DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (activity_id) REFERENCES activities(id) ON DELETE CASCADE
		)`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}

	return nil
}
