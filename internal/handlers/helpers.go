package handlers

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strconv"
	"time"
)

// SessionCookie ties a browser to a local user ID
const SessionCookie = "vitalite_user_id"

var isoDateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// writeJSONError writes a JSON error body with the given status
func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// parseUserID parses a user ID string, returning ok=false when malformed
func parseUserID(raw string) (int64, bool) {
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// setSessionCookie ties the browser to a local user for a year
func setSessionCookie(w http.ResponseWriter, userID int64) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    strconv.FormatInt(userID, 10),
		Path:     "/",
		MaxAge:   int((365 * 24 * time.Hour).Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearSessionCookie signs the browser out
func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:   SessionCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
}

// sessionUserID reads the local user ID from the session cookie
func sessionUserID(r *http.Request) (int64, bool) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return 0, false
	}
	return parseUserID(cookie.Value)
}
