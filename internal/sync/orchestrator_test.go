package sync

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"vitalite/internal/config"
	"vitalite/internal/database"
	"vitalite/internal/strava"
)

// syncNow is a Monday, two weeks after the default start date
var syncNow = time.Date(2025, 12, 15, 12, 0, 0, 0, time.UTC)

// fakeProvider drives the httptest Strava stand-in
type fakeProvider struct {
	activities []strava.RawActivity
	listStatus int // non-zero forces an error status on list
	listCalls  int
	tokenCalls int
}

func setupOrchestrator(t *testing.T, provider *fakeProvider) (*database.DB, *Orchestrator) {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth/token":
			provider.tokenCalls++
			w.Write([]byte(`{"access_token": "refreshed-acc", "refresh_token": "refreshed-ref", "expires_at": 1797000000}`))
		case "/athlete/activities":
			provider.listCalls++
			if provider.listStatus != 0 {
				http.Error(w, `{"message": "error"}`, provider.listStatus)
				return
			}
			json.NewEncoder(w).Encode(provider.activities)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	db, err := database.Open(t.TempDir() + "/test.db")
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Init(); err != nil {
		t.Fatalf("Failed to init db: %v", err)
	}

	cfg := &config.Config{
		StravaClientID:     "12345",
		StravaClientSecret: "secret",
		BaseURL:            "http://localhost:4200",
		StartDate:          "2025-12-01",
	}
	client := strava.NewClient(cfg)
	client.SetBaseURLs(server.URL, server.URL+"/oauth/token", server.URL+"/oauth/authorize")

	orch := NewOrchestrator(db, client, cfg)
	orch.SetNow(func() time.Time { return syncNow })
	return db, orch
}

func createSyncUser(t *testing.T, db *database.DB, expiresAt int64) *database.User {
	t.Helper()

	user, err := db.UpsertUser(&database.User{
		StravaAthleteID: 12345,
		Name:            "Test User",
		AccessToken:     "valid-acc",
		RefreshToken:    "valid-ref",
		TokenExpiresAt:  expiresAt,
	})
	if err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	return user
}

func rawActivity(id int64, date string, movingSeconds int, avgHR *float64) strava.RawActivity {
	return strava.RawActivity{
		ID:               id,
		Name:             "Workout",
		Type:             "Run",
		MovingTime:       movingSeconds,
		Distance:         5000,
		StartDate:        date + "T07:00:00Z",
		StartDateLocal:   date + "T07:00:00Z",
		AverageHeartrate: avgHR,
	}
}

func f64(v float64) *float64 { return &v }

func TestShouldSync(t *testing.T) {
	tests := []struct {
		name          string
		isCurrentWeek bool
		alreadySynced bool
		suppress      bool
		want          bool
	}{
		{"current week always syncs", true, true, false, true},
		{"current week first view", true, false, false, true},
		{"past week unsynced", false, false, false, true},
		{"past week synced", false, true, false, false},
		{"suppress wins over current week", true, false, true, false},
		{"suppress wins over unsynced", false, false, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ShouldSync(tt.isCurrentWeek, tt.alreadySynced, tt.suppress)
			if got != tt.want {
				t.Errorf("ShouldSync(%v, %v, %v) = %v, want %v",
					tt.isCurrentWeek, tt.alreadySynced, tt.suppress, got, tt.want)
			}
		})
	}
}

func TestSyncWeekIdempotent(t *testing.T) {
	provider := &fakeProvider{activities: []strava.RawActivity{
		rawActivity(1, "2025-12-01", 1800, f64(120)),
		rawActivity(2, "2025-12-03", 3900, f64(125)),
	}}
	db, orch := setupOrchestrator(t, provider)
	user := createSyncUser(t, db, syncNow.Unix()+3600)

	first, err := orch.SyncWeek(context.Background(), user.ID, "2025-12-01")
	if err != nil {
		t.Fatalf("Failed first sync: %v", err)
	}
	if first.Fetched != 2 || first.Upserted != 2 {
		t.Errorf("Expected 2 fetched/upserted, got %+v", first)
	}

	second, err := orch.SyncWeek(context.Background(), user.ID, "2025-12-01")
	if err != nil {
		t.Fatalf("Failed second sync: %v", err)
	}
	if second.Fetched != 2 {
		t.Errorf("Expected 2 fetched on re-sync, got %+v", second)
	}

	activities, err := db.ListActivitiesByUser(user.ID)
	if err != nil {
		t.Fatalf("Failed to list activities: %v", err)
	}
	if len(activities) != 2 {
		t.Errorf("Expected 2 stored activities after double sync, got %d", len(activities))
	}

	points, err := db.ListDailyPointsInRange(user.ID, "2025-12-01", "2025-12-07")
	if err != nil {
		t.Fatalf("Failed to list daily points: %v", err)
	}
	if len(points) != 2 {
		t.Errorf("Expected 2 daily points rows, got %d", len(points))
	}

	synced, err := db.IsWeekSynced(user.ID, "2025-12-01")
	if err != nil {
		t.Fatalf("Failed to check marker: %v", err)
	}
	if !synced {
		t.Error("Expected synced-week marker")
	}
}

func TestSyncWeekEmptyWeekStillMarked(t *testing.T) {
	provider := &fakeProvider{}
	db, orch := setupOrchestrator(t, provider)
	user := createSyncUser(t, db, syncNow.Unix()+3600)

	result, err := orch.SyncWeek(context.Background(), user.ID, "2025-12-08")
	if err != nil {
		t.Fatalf("Failed to sync empty week: %v", err)
	}
	if result.Fetched != 0 || result.Upserted != 0 {
		t.Errorf("Expected empty result, got %+v", result)
	}

	synced, err := db.IsWeekSynced(user.ID, "2025-12-08")
	if err != nil {
		t.Fatalf("Failed to check marker: %v", err)
	}
	if !synced {
		t.Error("Expected empty week to still be marked synced")
	}
}

func TestSyncWeekSkipsDatesBeforeStart(t *testing.T) {
	provider := &fakeProvider{activities: []strava.RawActivity{
		rawActivity(1, "2025-12-02", 1800, nil),
		rawActivity(2, "2025-12-04", 1800, nil),
	}}
	db, orch := setupOrchestrator(t, provider)
	orch.cfg.StartDate = "2025-12-03"
	user := createSyncUser(t, db, syncNow.Unix()+3600)

	result, err := orch.SyncWeek(context.Background(), user.ID, "2025-12-01")
	if err != nil {
		t.Fatalf("Failed to sync: %v", err)
	}
	if result.Fetched != 2 || result.Upserted != 1 {
		t.Errorf("Expected 2 fetched / 1 upserted, got %+v", result)
	}

	activities, err := db.ListActivitiesByUser(user.ID)
	if err != nil {
		t.Fatalf("Failed to list activities: %v", err)
	}
	if len(activities) != 1 || activities[0].Date != "2025-12-04" {
		t.Errorf("Expected only the post-start activity stored, got %+v", activities)
	}
}

func TestSyncWeekUserNotFound(t *testing.T) {
	_, orch := setupOrchestrator(t, &fakeProvider{})

	_, err := orch.SyncWeek(context.Background(), 999, "2025-12-01")
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Expected ErrUserNotFound, got %v", err)
	}
}

func TestSyncWeekProviderError(t *testing.T) {
	provider := &fakeProvider{listStatus: http.StatusUnauthorized}
	db, orch := setupOrchestrator(t, provider)
	user := createSyncUser(t, db, syncNow.Unix()+3600)

	_, err := orch.SyncWeek(context.Background(), user.ID, "2025-12-01")
	if err == nil {
		t.Fatal("Expected error on provider failure")
	}

	var fetchErr *ProviderFetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("Expected ProviderFetchError, got %T: %v", err, err)
	}
	if fetchErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", fetchErr.StatusCode)
	}

	// A failed sync must not mark the week as synced
	synced, err := db.IsWeekSynced(user.ID, "2025-12-01")
	if err != nil {
		t.Fatalf("Failed to check marker: %v", err)
	}
	if synced {
		t.Error("Expected no synced-week marker after provider failure")
	}
}

func TestValidAccessTokenNoRefreshWhenFresh(t *testing.T) {
	provider := &fakeProvider{}
	db, orch := setupOrchestrator(t, provider)
	user := createSyncUser(t, db, syncNow.Unix()+120)

	token, err := orch.ValidAccessToken(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("Failed to get token: %v", err)
	}
	if token != "valid-acc" {
		t.Errorf("Expected stored token, got %q", token)
	}
	if provider.tokenCalls != 0 {
		t.Errorf("Expected no refresh calls, got %d", provider.tokenCalls)
	}
}

func TestValidAccessTokenRefreshesInsideMargin(t *testing.T) {
	provider := &fakeProvider{}
	db, orch := setupOrchestrator(t, provider)

	// 30s to expiry is inside the 60s refresh margin
	user := createSyncUser(t, db, syncNow.Unix()+30)

	token, err := orch.ValidAccessToken(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("Failed to get token: %v", err)
	}
	if token != "refreshed-acc" {
		t.Errorf("Expected refreshed token, got %q", token)
	}
	if provider.tokenCalls != 1 {
		t.Errorf("Expected 1 refresh call, got %d", provider.tokenCalls)
	}

	stored, err := db.GetUser(user.ID)
	if err != nil {
		t.Fatalf("Failed to get user: %v", err)
	}
	if stored.AccessToken != "refreshed-acc" || stored.RefreshToken != "refreshed-ref" {
		t.Errorf("Expected persisted refreshed tokens, got %q / %q",
			stored.AccessToken, stored.RefreshToken)
	}
	if stored.TokenExpiresAt != 1797000000 {
		t.Errorf("Expected persisted expiry, got %d", stored.TokenExpiresAt)
	}
}

// A re-sync whose batch holds only a weak activity must not lose points earned
// by activities already in storage for the same date.
func TestSyncWeekRecomputeReadsStoredActivities(t *testing.T) {
	weakHR := 90.0
	provider := &fakeProvider{activities: []strava.RawActivity{
		rawActivity(2, "2025-12-02", 600, &weakHR),
	}}
	db, orch := setupOrchestrator(t, provider)
	user := createSyncUser(t, db, syncNow.Unix()+3600)
	if err := db.UpdateUserDOB(user.ID, "1995-06-01"); err != nil {
		t.Fatalf("Failed to set DOB: %v", err)
	}

	// Already stored: 65 minutes at HR 120 (age 30, 60% of max HR is 114),
	// worth 8 points on its own.
	strongHR := 120.0
	err := db.UpsertActivity(&database.Activity{
		UserID:           user.ID,
		StravaID:         1,
		Name:             "Long Run",
		Type:             "Run",
		MovingMinutes:    65,
		DistanceKm:       10,
		StartDateLocal:   "2025-12-02T07:00:00Z",
		Date:             "2025-12-02",
		AverageHeartrate: &strongHR,
	})
	if err != nil {
		t.Fatalf("Failed to pre-insert activity: %v", err)
	}

	if _, err := orch.SyncWeek(context.Background(), user.ID, "2025-12-01"); err != nil {
		t.Fatalf("Failed to sync: %v", err)
	}

	points, err := db.GetDailyPoints(user.ID, "2025-12-02")
	if err != nil {
		t.Fatalf("Failed to get daily points: %v", err)
	}
	if points == nil {
		t.Fatal("Expected daily points record")
	}
	if points.Points != 8 {
		t.Errorf("Expected 8 points from the stored activity, got %d", points.Points)
	}
	if points.WorkoutMinutes != 75 {
		t.Errorf("Expected 75 total minutes across both activities, got %d", points.WorkoutMinutes)
	}
}

func TestSyncAllSkipsSyncedPastWeeks(t *testing.T) {
	provider := &fakeProvider{}
	db, orch := setupOrchestrator(t, provider)
	user := createSyncUser(t, db, syncNow.Unix()+3600)

	// Weeks in range: 2025-12-01, 2025-12-08, 2025-12-15 (current)
	if err := db.MarkWeekSynced(user.ID, "2025-12-01"); err != nil {
		t.Fatalf("Failed to pre-mark week: %v", err)
	}

	if err := orch.SyncAll(context.Background(), user.ID); err != nil {
		t.Fatalf("Failed to sync all: %v", err)
	}
	if provider.listCalls != 2 {
		t.Errorf("Expected 2 provider fetches (pre-marked week skipped), got %d", provider.listCalls)
	}

	// A second pass skips both past weeks but still re-fetches the current one
	if err := orch.SyncAll(context.Background(), user.ID); err != nil {
		t.Fatalf("Failed second sync all: %v", err)
	}
	if provider.listCalls != 3 {
		t.Errorf("Expected 1 more fetch for the current week, got %d total", provider.listCalls)
	}
}
