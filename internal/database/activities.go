package database

import (
	"database/sql"
	"fmt"
	"time"
)

// Activity represents one workout record pulled from Strava
type Activity struct {
	UserID           int64
	StravaID         int64
	Name             string
	Type             string
	MovingMinutes    int
	DistanceKm       float64
	StartDateLocal   string
	Date             string // YYYY-MM-DD
	AverageHeartrate *float64
	MaxHeartrate     *float64
	Calories         *float64
	UpdatedAt        int64
}

// UpsertActivity inserts or replaces an activity keyed by (user, Strava ID).
// Repeated syncs of the same window refresh fields instead of duplicating rows.
func (db *DB) UpsertActivity(a *Activity) error {
	now := time.Now().Unix()

	_, err := db.conn.Exec(`
		INSERT INTO activities (
			user_id, strava_id, name, type, moving_minutes, distance_km,
			start_date_local, date, average_heartrate, max_heartrate, calories,
			updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, strava_id) DO UPDATE SET
			name = excluded.name,
			type = excluded.type,
			moving_minutes = excluded.moving_minutes,
			distance_km = excluded.distance_km,
			start_date_local = excluded.start_date_local,
			date = excluded.date,
			average_heartrate = excluded.average_heartrate,
			max_heartrate = excluded.max_heartrate,
			calories = excluded.calories,
			updated_at = excluded.updated_at
	`, a.UserID, a.StravaID, a.Name, a.Type, a.MovingMinutes, a.DistanceKm,
		a.StartDateLocal, a.Date, a.AverageHeartrate, a.MaxHeartrate, a.Calories,
		now)

	if err != nil {
		return fmt.Errorf("failed to upsert activity: %w", err)
	}
	return nil
}

// GetActivity retrieves one activity by (user, Strava ID)
func (db *DB) GetActivity(userID, stravaID int64) (*Activity, error) {
	var a Activity
	err := db.conn.QueryRow(`
		SELECT user_id, strava_id, name, type, moving_minutes, distance_km,
		       start_date_local, date, average_heartrate, max_heartrate, calories,
		       updated_at
		FROM activities WHERE user_id = ? AND strava_id = ?
	`, userID, stravaID).Scan(
		&a.UserID, &a.StravaID, &a.Name, &a.Type, &a.MovingMinutes, &a.DistanceKm,
		&a.StartDateLocal, &a.Date, &a.AverageHeartrate, &a.MaxHeartrate, &a.Calories,
		&a.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}
	return &a, nil
}

// ListActivitiesByDate returns all of a user's activities on one calendar date
func (db *DB) ListActivitiesByDate(userID int64, date string) ([]*Activity, error) {
	return db.listActivities(`
		WHERE user_id = ? AND date = ? ORDER BY start_date_local
	`, userID, date)
}

// ListActivitiesInRange returns a user's activities with date in [from, to]
func (db *DB) ListActivitiesInRange(userID int64, from, to string) ([]*Activity, error) {
	return db.listActivities(`
		WHERE user_id = ? AND date >= ? AND date <= ? ORDER BY start_date_local
	`, userID, from, to)
}

// ListActivitiesByUser returns all of a user's activities ordered by date
func (db *DB) ListActivitiesByUser(userID int64) ([]*Activity, error) {
	return db.listActivities(`WHERE user_id = ? ORDER BY date, start_date_local`, userID)
}

func (db *DB) listActivities(where string, args ...any) ([]*Activity, error) {
	rows, err := db.conn.Query(`
		SELECT user_id, strava_id, name, type, moving_minutes, distance_km,
		       start_date_local, date, average_heartrate, max_heartrate, calories,
		       updated_at
		FROM activities `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	defer rows.Close()

	var activities []*Activity
	for rows.Next() {
		var a Activity
		err := rows.Scan(
			&a.UserID, &a.StravaID, &a.Name, &a.Type, &a.MovingMinutes, &a.DistanceKm,
			&a.StartDateLocal, &a.Date, &a.AverageHeartrate, &a.MaxHeartrate, &a.Calories,
			&a.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		activities = append(activities, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activities: %w", err)
	}

	return activities, nil
}

// DeleteActivitiesByUser removes all of a user's activities
func (db *DB) DeleteActivitiesByUser(userID int64) error {
	if _, err := db.conn.Exec(`DELETE FROM activities WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to delete activities: %w", err)
	}
	return nil
}
