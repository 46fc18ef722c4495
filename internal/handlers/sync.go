package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"vitalite/internal/sync"
)

// SyncHandler handles the explicit sync trigger endpoints
type SyncHandler struct {
	orchestrator *sync.Orchestrator
	logger       *slog.Logger
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(orchestrator *sync.Orchestrator) *SyncHandler {
	return &SyncHandler{
		orchestrator: orchestrator,
		logger:       slog.Default(),
	}
}

// HandleSync syncs everything since the configured start date for one user.
// The user ID comes from the query string, or from a JSON body on POST.
func (h *SyncHandler) HandleSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userIDRaw := r.URL.Query().Get("userId")
	if userIDRaw == "" && r.Method == http.MethodPost {
		var body struct {
			UserID json.Number `json:"userId"`
		}
		// Body parse errors fall through to validation below
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
			userIDRaw = body.UserID.String()
		}
	}

	userID, ok := parseUserID(userIDRaw)
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "Invalid userId")
		return
	}

	if err := h.orchestrator.SyncAll(r.Context(), userID); err != nil {
		if errors.Is(err, sync.ErrUserNotFound) {
			writeJSONError(w, http.StatusNotFound, "User not found")
			return
		}
		h.logger.Error("Sync failed", "user_id", userID, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to sync Strava activities")
		return
	}

	http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
}

// HandleSyncWeek syncs one explicit week. Success and provider failure both
// redirect back to the dashboard with status flags; the dashboard renders
// the status and never re-triggers a sync from a flagged view, so a failed
// sync cannot loop.
func (h *SyncHandler) HandleSyncWeek(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()

	userID, ok := parseUserID(query.Get("userId"))
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "Invalid userId")
		return
	}

	weekStart := query.Get("weekStart")
	if !isoDateRe.MatchString(weekStart) {
		writeJSONError(w, http.StatusBadRequest, "Invalid weekStart")
		return
	}

	back := url.Values{"weekStart": {weekStart}}

	result, err := h.orchestrator.SyncWeek(r.Context(), userID, weekStart)
	if err != nil {
		if errors.Is(err, sync.ErrUserNotFound) {
			writeJSONError(w, http.StatusNotFound, "User not found")
			return
		}
		h.logger.Error("Week sync failed",
			"user_id", userID,
			"week_start", weekStart,
			"error", err)
		back.Set("syncError", "1")
		http.Redirect(w, r, "/?"+back.Encode(), http.StatusTemporaryRedirect)
		return
	}

	h.logger.Info("Week sync completed",
		"user_id", userID,
		"week_start", result.WeekStart,
		"fetched", result.Fetched,
		"upserted", result.Upserted)

	back.Set("synced", "1")
	http.Redirect(w, r, "/?"+back.Encode(), http.StatusTemporaryRedirect)
}
