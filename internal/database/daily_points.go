package database

import (
	"database/sql"
	"fmt"
	"time"
)

// DailyPoints is the derived score for one user on one calendar date
type DailyPoints struct {
	UserID         int64
	Date           string // YYYY-MM-DD
	WorkoutMinutes int
	Steps          int
	Points         int
	UpdatedAt      int64
}

// UpsertDailyPoints overwrites the record for (user, date) wholesale. Points
// are a pure function of that day's activities and the user's age, so a full
// overwrite is always safe.
func (db *DB) UpsertDailyPoints(p *DailyPoints) error {
	now := time.Now().Unix()

	_, err := db.conn.Exec(`
		INSERT INTO daily_points (
			user_id, date, workout_minutes, steps, points, updated_at
		) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, date) DO UPDATE SET
			workout_minutes = excluded.workout_minutes,
			steps = excluded.steps,
			points = excluded.points,
			updated_at = excluded.updated_at
	`, p.UserID, p.Date, p.WorkoutMinutes, p.Steps, p.Points, now)

	if err != nil {
		return fmt.Errorf("failed to upsert daily points: %w", err)
	}
	return nil
}

// GetDailyPoints retrieves the record for (user, date)
func (db *DB) GetDailyPoints(userID int64, date string) (*DailyPoints, error) {
	var p DailyPoints
	err := db.conn.QueryRow(`
		SELECT user_id, date, workout_minutes, steps, points, updated_at
		FROM daily_points WHERE user_id = ? AND date = ?
	`, userID, date).Scan(
		&p.UserID, &p.Date, &p.WorkoutMinutes, &p.Steps, &p.Points, &p.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get daily points: %w", err)
	}
	return &p, nil
}

// ListDailyPointsInRange returns a user's points with date in [from, to]
func (db *DB) ListDailyPointsInRange(userID int64, from, to string) ([]*DailyPoints, error) {
	return db.listDailyPoints(`
		WHERE user_id = ? AND date >= ? AND date <= ? ORDER BY date
	`, userID, from, to)
}

// ListRecentDailyPoints returns a user's most recent records, newest first
func (db *DB) ListRecentDailyPoints(userID int64, limit int) ([]*DailyPoints, error) {
	query := `WHERE user_id = ? ORDER BY date DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	return db.listDailyPoints(query, userID)
}

func (db *DB) listDailyPoints(where string, args ...any) ([]*DailyPoints, error) {
	rows, err := db.conn.Query(`
		SELECT user_id, date, workout_minutes, steps, points, updated_at
		FROM daily_points `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list daily points: %w", err)
	}
	defer rows.Close()

	var points []*DailyPoints
	for rows.Next() {
		var p DailyPoints
		err := rows.Scan(
			&p.UserID, &p.Date, &p.WorkoutMinutes, &p.Steps, &p.Points, &p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan daily points: %w", err)
		}
		points = append(points, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily points: %w", err)
	}

	return points, nil
}

// DeleteDailyPointsByUser removes all of a user's daily points
func (db *DB) DeleteDailyPointsByUser(userID int64) error {
	if _, err := db.conn.Exec(`DELETE FROM daily_points WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to delete daily points: %w", err)
	}
	return nil
}
