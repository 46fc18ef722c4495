package database

// Schema contains all SQL statements for creating tables and indexes
const Schema = `
-- Users table: Strava-connected users of the application
CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    strava_athlete_id INTEGER NOT NULL UNIQUE,
    name TEXT NOT NULL,

    -- OAuth tokens
    access_token TEXT NOT NULL,
    refresh_token TEXT NOT NULL,
    token_expires_at INTEGER NOT NULL,

    -- Optional date of birth, YYYY-MM-DD
    dob TEXT,

    -- Metadata
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

-- Activities table: one row per (user, Strava activity)
CREATE TABLE IF NOT EXISTS activities (
    user_id INTEGER NOT NULL,
    strava_id INTEGER NOT NULL,

    name TEXT NOT NULL,
    type TEXT NOT NULL,
    moving_minutes INTEGER NOT NULL,
    distance_km REAL NOT NULL,
    start_date_local TEXT NOT NULL,
    date TEXT NOT NULL,  -- local calendar date, YYYY-MM-DD

    -- Optional physiological metrics
    average_heartrate REAL,
    max_heartrate REAL,
    calories REAL,

    updated_at INTEGER NOT NULL,

    PRIMARY KEY (user_id, strava_id),
    FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
);

-- Daily points table: derived score per (user, calendar date)
CREATE TABLE IF NOT EXISTS daily_points (
    user_id INTEGER NOT NULL,
    date TEXT NOT NULL,  -- YYYY-MM-DD

    workout_minutes INTEGER NOT NULL,
    steps INTEGER NOT NULL,
    points INTEGER NOT NULL,

    updated_at INTEGER NOT NULL,

    PRIMARY KEY (user_id, date),
    FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
);

-- Synced weeks table: lazy-sync markers per (user, Monday week start)
CREATE TABLE IF NOT EXISTS synced_weeks (
    user_id INTEGER NOT NULL,
    week_start TEXT NOT NULL,  -- YYYY-MM-DD, Monday, UTC semantics
    synced_at INTEGER NOT NULL,

    PRIMARY KEY (user_id, week_start),
    FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
);

-- Indexes for activities table
CREATE INDEX IF NOT EXISTS idx_activities_user_date ON activities(user_id, date);

-- Indexes for daily_points table
CREATE INDEX IF NOT EXISTS idx_daily_points_user_date ON daily_points(user_id, date DESC);
`
