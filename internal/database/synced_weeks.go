package database

import (
	"database/sql"
	"fmt"
	"time"
)

// SyncedWeek marks a (user, Monday week start) window as synced
type SyncedWeek struct {
	UserID    int64
	WeekStart string // YYYY-MM-DD
	SyncedAt  int64
}

// MarkWeekSynced records (or refreshes) the sync marker for a week. An empty
// week is still marked so it is not re-fetched on every view.
func (db *DB) MarkWeekSynced(userID int64, weekStart string) error {
	now := time.Now().Unix()

	_, err := db.conn.Exec(`
		INSERT INTO synced_weeks (user_id, week_start, synced_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id, week_start) DO UPDATE SET
			synced_at = excluded.synced_at
	`, userID, weekStart, now)

	if err != nil {
		return fmt.Errorf("failed to mark week synced: %w", err)
	}
	return nil
}

// IsWeekSynced reports whether a sync marker exists for (user, week start)
func (db *DB) IsWeekSynced(userID int64, weekStart string) (bool, error) {
	var syncedAt int64
	err := db.conn.QueryRow(`
		SELECT synced_at FROM synced_weeks WHERE user_id = ? AND week_start = ?
	`, userID, weekStart).Scan(&syncedAt)

	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check synced week: %w", err)
	}
	return true, nil
}

// GetSyncedWeek retrieves the marker for (user, week start)
func (db *DB) GetSyncedWeek(userID int64, weekStart string) (*SyncedWeek, error) {
	var w SyncedWeek
	err := db.conn.QueryRow(`
		SELECT user_id, week_start, synced_at
		FROM synced_weeks WHERE user_id = ? AND week_start = ?
	`, userID, weekStart).Scan(&w.UserID, &w.WeekStart, &w.SyncedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get synced week: %w", err)
	}
	return &w, nil
}

// DeleteSyncedWeeksByUser removes all of a user's sync markers
func (db *DB) DeleteSyncedWeeksByUser(userID int64) error {
	if _, err := db.conn.Exec(`DELETE FROM synced_weeks WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to delete synced weeks: %w", err)
	}
	return nil
}
