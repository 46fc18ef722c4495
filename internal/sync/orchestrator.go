// Package sync implements the lazy, idempotent week synchronization protocol:
// it decides when to pull activities from Strava, merges them into storage
// without duplication, and recomputes the affected daily points.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"vitalite/internal/config"
	"vitalite/internal/database"
	"vitalite/internal/metrics"
	"vitalite/internal/scoring"
	"vitalite/internal/strava"
)

// tokenRefreshMargin is subtracted from the token expiry before comparing
// against the clock, so a token about to expire mid-request is refreshed
// up front.
const tokenRefreshMargin = 60 * time.Second

// ErrUserNotFound is returned when the user ID is unknown
var ErrUserNotFound = errors.New("user not found")

// ProviderFetchError wraps a failed provider call, carrying the provider
// status and body when available.
type ProviderFetchError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *ProviderFetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("provider fetch failed with status %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("provider fetch failed: %v", e.Err)
}

func (e *ProviderFetchError) Unwrap() error { return e.Err }

// Result summarizes one week sync run
type Result struct {
	WeekStart string `json:"weekStart"`
	Fetched   int    `json:"fetchedCount"`
	Upserted  int    `json:"upsertedCount"`
}

// Orchestrator coordinates provider fetches, storage merges, and points
// recomputation. Each operation runs to completion within one request.
type Orchestrator struct {
	db     *database.DB
	client *strava.Client
	cfg    *config.Config
	logger *slog.Logger
	now    func() time.Time
}

// NewOrchestrator creates a new sync orchestrator
func NewOrchestrator(db *database.DB, client *strava.Client, cfg *config.Config) *Orchestrator {
	return &Orchestrator{
		db:     db,
		client: client,
		cfg:    cfg,
		logger: slog.Default(),
		now:    time.Now,
	}
}

// SetNow overrides the clock. Used by tests.
func (o *Orchestrator) SetNow(now func() time.Time) {
	o.now = now
}

// ShouldSync is the lazy-sync decision for a viewed week: the current week is
// always re-checked, an unsynced week is fetched once, and the suppress
// signal (a sync already ran or failed for this view) wins over both so a
// render never loops back into another sync.
func ShouldSync(isCurrentWeek, alreadySynced, suppress bool) bool {
	if suppress {
		return false
	}
	return isCurrentWeek || !alreadySynced
}

// ValidAccessToken returns an access token valid for at least the refresh
// margin, refreshing and persisting tokens when needed.
func (o *Orchestrator) ValidAccessToken(ctx context.Context, userID int64) (string, error) {
	user, err := o.db.GetUser(userID)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", ErrUserNotFound
	}

	if o.now().Unix() < user.TokenExpiresAt-int64(tokenRefreshMargin.Seconds()) {
		return user.AccessToken, nil
	}

	o.logger.Info("refreshing token", "user_id", userID)
	tokenResp, err := o.client.RefreshToken(ctx, user.RefreshToken)
	if err != nil {
		metrics.TokenRefreshesTotal.WithLabelValues(metrics.ResultFailure).Inc()
		return "", fmt.Errorf("failed to refresh token: %w", err)
	}

	if err := o.db.UpdateUserTokens(userID, tokenResp.AccessToken, tokenResp.RefreshToken, tokenResp.ExpiresAt); err != nil {
		return "", fmt.Errorf("failed to persist refreshed tokens: %w", err)
	}
	metrics.TokenRefreshesTotal.WithLabelValues(metrics.ResultSuccess).Inc()

	return tokenResp.AccessToken, nil
}

// SyncWeek fetches the provider activities in the half-open UTC window
// [weekStart, weekStart+7d), merges them into storage, recomputes daily
// points for every affected date, and records the synced-week marker. Safe
// to call repeatedly for the same week.
func (o *Orchestrator) SyncWeek(ctx context.Context, userID int64, weekStart string) (*Result, error) {
	user, err := o.db.GetUser(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	token, err := o.ValidAccessToken(ctx, userID)
	if err != nil {
		metrics.WeekSyncsTotal.WithLabelValues(metrics.ResultFailure).Inc()
		return nil, err
	}

	after, before, err := scoring.WeekWindow(weekStart)
	if err != nil {
		return nil, err
	}

	rawActivities, err := o.client.ListActivities(ctx, token, after, before, 200)
	if err != nil {
		metrics.WeekSyncsTotal.WithLabelValues(metrics.ResultFailure).Inc()
		var httpErr *strava.HTTPError
		if errors.As(err, &httpErr) {
			return nil, &ProviderFetchError{StatusCode: httpErr.StatusCode, Body: httpErr.Body, Err: err}
		}
		return nil, &ProviderFetchError{Err: err}
	}

	result := &Result{WeekStart: weekStart, Fetched: len(rawActivities)}

	affectedDates := make(map[string]bool)
	for _, raw := range rawActivities {
		activity, ok := scoring.Normalize(userID, raw)
		if !ok {
			o.logger.Warn("skipping activity with no usable date", "user_id", userID, "strava_id", raw.ID)
			continue
		}
		// Days before the configured start date never score
		if activity.Date < o.cfg.StartDate {
			continue
		}
		if err := o.db.UpsertActivity(activity); err != nil {
			return nil, err
		}
		result.Upserted++
		affectedDates[activity.Date] = true
	}

	// Recompute each affected date from the full set of stored activities
	// for that date, not just this batch, so a re-sync from a narrower
	// window can never regress previously earned points.
	for date := range affectedDates {
		if err := o.recomputeDay(user, date); err != nil {
			return nil, err
		}
	}

	if err := o.db.MarkWeekSynced(userID, weekStart); err != nil {
		return nil, err
	}

	metrics.WeekSyncsTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	metrics.SyncActivitiesFetched.Observe(float64(result.Fetched))

	o.logger.Info("week synced",
		"user_id", userID,
		"week_start", weekStart,
		"fetched", result.Fetched,
		"upserted", result.Upserted)

	return result, nil
}

// SyncAll syncs every week from the configured start date through the
// current week. Past weeks already marked synced are skipped; the current
// week is always re-fetched.
func (o *Orchestrator) SyncAll(ctx context.Context, userID int64) error {
	weekStart, err := scoring.WeekStart(o.cfg.StartDate)
	if err != nil {
		return err
	}
	currentWeek := scoring.WeekStartOf(o.now())

	for weekStart <= currentWeek {
		synced, err := o.db.IsWeekSynced(userID, weekStart)
		if err != nil {
			return err
		}
		if ShouldSync(weekStart == currentWeek, synced, false) {
			if _, err := o.SyncWeek(ctx, userID, weekStart); err != nil {
				return fmt.Errorf("failed to sync week %s: %w", weekStart, err)
			}
		}
		weekStart, err = scoring.AddDays(weekStart, 7)
		if err != nil {
			return err
		}
	}
	return nil
}

// RecomputeUser recomputes daily points for every date the user has stored
// activities on, without touching the provider. Used by the maintenance CLI.
func (o *Orchestrator) RecomputeUser(userID int64) error {
	user, err := o.db.GetUser(userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	activities, err := o.db.ListActivitiesByUser(userID)
	if err != nil {
		return err
	}

	dates := make(map[string]bool)
	for _, a := range activities {
		dates[a.Date] = true
	}
	for date := range dates {
		if err := o.recomputeDay(user, date); err != nil {
			return err
		}
	}

	o.logger.Info("recomputed points", "user_id", userID, "days", len(dates))
	return nil
}

// recomputeDay rebuilds the DailyPoints record for one date from all stored
// activities on that date. Steps are always zero until a step source exists.
func (o *Orchestrator) recomputeDay(user *database.User, date string) error {
	dayActivities, err := o.db.ListActivitiesByDate(user.ID, date)
	if err != nil {
		return err
	}

	workoutMinutes := 0
	for _, a := range dayActivities {
		workoutMinutes += a.MovingMinutes
	}

	steps := 0
	points := scoring.DailyPoints(user.DOB, dayActivities, steps, o.now())

	if err := o.db.UpsertDailyPoints(&database.DailyPoints{
		UserID:         user.ID,
		Date:           date,
		WorkoutMinutes: workoutMinutes,
		Steps:          steps,
		Points:         points,
	}); err != nil {
		return err
	}

	metrics.DailyPointsComputedTotal.Inc()
	return nil
}
