package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"vitalite/internal/database"
	"vitalite/internal/scoring"
	"vitalite/internal/sync"
)

// UserHandler handles user settings endpoints
type UserHandler struct {
	db           *database.DB
	orchestrator *sync.Orchestrator
	logger       *slog.Logger
	now          func() time.Time
}

// NewUserHandler creates a new user handler
func NewUserHandler(db *database.DB, orchestrator *sync.Orchestrator) *UserHandler {
	return &UserHandler{
		db:           db,
		orchestrator: orchestrator,
		logger:       slog.Default(),
		now:          time.Now,
	}
}

// normalizeDOB accepts ISO YYYY-MM-DD, tolerating MM/DD/YYYY, and returns
// the ISO form.
func normalizeDOB(raw string) (string, error) {
	if isoDateRe.MatchString(raw) {
		if _, err := time.Parse("2006-01-02", raw); err != nil {
			return "", err
		}
		return raw, nil
	}
	t, err := time.Parse("01/02/2006", raw)
	if err != nil {
		return "", fmt.Errorf("invalid dob %q", raw)
	}
	return t.Format("2006-01-02"), nil
}

// HandleDOB saves a user's date of birth and immediately syncs the current
// week so the newly scoreable days show up on the next view.
func (h *UserHandler) HandleDOB(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseForm(); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid form data")
		return
	}

	userID, ok := parseUserID(r.PostFormValue("userId"))
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "Invalid userId")
		return
	}

	dob, err := normalizeDOB(r.PostFormValue("dob"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid dob")
		return
	}

	user, err := h.db.GetUser(userID)
	if err != nil {
		h.logger.Error("Failed to load user", "user_id", userID, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to update dob")
		return
	}
	if user == nil {
		writeJSONError(w, http.StatusNotFound, "User not found")
		return
	}

	if err := h.db.UpdateUserDOB(userID, dob); err != nil {
		h.logger.Error("Failed to update dob", "user_id", userID, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to update dob")
		return
	}

	// Recompute the current week under the new age before redirecting. A
	// provider failure here is not fatal; the dashboard will surface it on
	// a later explicit sync.
	currentWeek := scoring.WeekStartOf(h.now())
	if _, err := h.orchestrator.SyncWeek(r.Context(), userID, currentWeek); err != nil {
		h.logger.Warn("Post-DOB sync failed", "user_id", userID, "week_start", currentWeek, "error", err)
	}

	http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
}

// HandleDisconnect clears the user's tokens and deletes their synced data.
// The user row and DOB are kept so a reconnect resumes cleanly.
func (h *UserHandler) HandleDisconnect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := parseUserID(r.URL.Query().Get("userId"))
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	user, err := h.db.GetUser(userID)
	if err != nil {
		h.logger.Error("Failed to load user", "user_id", userID, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to disconnect")
		return
	}
	if user == nil {
		writeJSONError(w, http.StatusNotFound, "User not found")
		return
	}

	if err := h.db.ClearUserTokens(userID); err != nil {
		h.logger.Error("Failed to clear tokens", "user_id", userID, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to disconnect")
		return
	}
	if err := h.db.DeleteActivitiesByUser(userID); err != nil {
		h.logger.Error("Failed to delete activities", "user_id", userID, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to disconnect")
		return
	}
	if err := h.db.DeleteDailyPointsByUser(userID); err != nil {
		h.logger.Error("Failed to delete daily points", "user_id", userID, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to disconnect")
		return
	}
	if err := h.db.DeleteSyncedWeeksByUser(userID); err != nil {
		h.logger.Error("Failed to delete synced weeks", "user_id", userID, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to disconnect")
		return
	}

	h.logger.Info("User disconnected", "user_id", userID)

	clearSessionCookie(w)
	http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
}

// userView is the redacted user shape exposed by the listing endpoint
type userView struct {
	ID              int64   `json:"id"`
	StravaAthleteID int64   `json:"stravaAthleteId"`
	Name            string  `json:"name"`
	DOB             *string `json:"dob,omitempty"`
	Connected       bool    `json:"connected"`
}

// HandleListUsers returns all users with tokens redacted
func (h *UserHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	users, err := h.db.ListUsers()
	if err != nil {
		h.logger.Error("Failed to list users", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to list users")
		return
	}

	views := make([]userView, 0, len(users))
	for _, u := range users {
		views = append(views, userView{
			ID:              u.ID,
			StravaAthleteID: u.StravaAthleteID,
			Name:            u.Name,
			DOB:             u.DOB,
			Connected:       u.AccessToken != "",
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(views)
}
