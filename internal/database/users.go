package database

import (
	"database/sql"
	"fmt"
	"time"
)

// User represents a Strava-connected user
type User struct {
	ID              int64
	StravaAthleteID int64
	Name            string
	AccessToken     string
	RefreshToken    string
	TokenExpiresAt  int64
	DOB             *string
	CreatedAt       int64
	UpdatedAt       int64
}

// UpsertUser inserts a user keyed by Strava athlete ID, or updates the
// existing row's name and tokens. The stored row (with its local ID and any
// previously saved DOB) is returned.
func (db *DB) UpsertUser(u *User) (*User, error) {
	now := time.Now().Unix()

	_, err := db.conn.Exec(`
		INSERT INTO users (
			strava_athlete_id, name, access_token, refresh_token,
			token_expires_at, dob, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(strava_athlete_id) DO UPDATE SET
			name = excluded.name,
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			token_expires_at = excluded.token_expires_at,
			updated_at = excluded.updated_at
	`, u.StravaAthleteID, u.Name, u.AccessToken, u.RefreshToken,
		u.TokenExpiresAt, u.DOB, now, now)

	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	stored, err := db.GetUserByAthleteID(u.StravaAthleteID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, fmt.Errorf("user missing after upsert")
	}
	return stored, nil
}

// GetUser retrieves a user by local ID
func (db *DB) GetUser(userID int64) (*User, error) {
	return db.getUserWhere("id = ?", userID)
}

// GetUserByAthleteID retrieves a user by Strava athlete ID
func (db *DB) GetUserByAthleteID(athleteID int64) (*User, error) {
	return db.getUserWhere("strava_athlete_id = ?", athleteID)
}

func (db *DB) getUserWhere(where string, arg any) (*User, error) {
	var u User
	err := db.conn.QueryRow(`
		SELECT id, strava_athlete_id, name, access_token, refresh_token,
		       token_expires_at, dob, created_at, updated_at
		FROM users WHERE `+where,
		arg).Scan(
		&u.ID, &u.StravaAthleteID, &u.Name, &u.AccessToken, &u.RefreshToken,
		&u.TokenExpiresAt, &u.DOB, &u.CreatedAt, &u.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// UpdateUserTokens updates a user's OAuth tokens
func (db *DB) UpdateUserTokens(userID int64, accessToken, refreshToken string, expiresAt int64) error {
	result, err := db.conn.Exec(`
		UPDATE users
		SET access_token = ?, refresh_token = ?, token_expires_at = ?, updated_at = ?
		WHERE id = ?
	`, accessToken, refreshToken, expiresAt, time.Now().Unix(), userID)

	if err != nil {
		return fmt.Errorf("failed to update user tokens: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("user not found")
	}

	return nil
}

// UpdateUserDOB sets a user's date of birth (YYYY-MM-DD)
func (db *DB) UpdateUserDOB(userID int64, dob string) error {
	result, err := db.conn.Exec(`
		UPDATE users SET dob = ?, updated_at = ? WHERE id = ?
	`, dob, time.Now().Unix(), userID)

	if err != nil {
		return fmt.Errorf("failed to update user dob: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("user not found")
	}

	return nil
}

// ClearUserTokens blanks a user's tokens on disconnect. The row itself (and
// the DOB) is kept so a reconnect picks up where the user left off.
func (db *DB) ClearUserTokens(userID int64) error {
	result, err := db.conn.Exec(`
		UPDATE users
		SET access_token = '', refresh_token = '', token_expires_at = 0, updated_at = ?
		WHERE id = ?
	`, time.Now().Unix(), userID)

	if err != nil {
		return fmt.Errorf("failed to clear user tokens: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("user not found")
	}

	return nil
}

// ListUsers returns all users ordered by creation time
func (db *DB) ListUsers() ([]*User, error) {
	rows, err := db.conn.Query(`
		SELECT id, strava_athlete_id, name, access_token, refresh_token,
		       token_expires_at, dob, created_at, updated_at
		FROM users ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		var u User
		err := rows.Scan(
			&u.ID, &u.StravaAthleteID, &u.Name, &u.AccessToken, &u.RefreshToken,
			&u.TokenExpiresAt, &u.DOB, &u.CreatedAt, &u.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, &u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}
