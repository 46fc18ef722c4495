package handlers

import (
	"log/slog"
	"net/http"

	"vitalite/internal/oauth"
)

// OAuthHandler handles OAuth flow endpoints
type OAuthHandler struct {
	oauthManager *oauth.Manager
	logger       *slog.Logger
}

// NewOAuthHandler creates a new OAuth handler
func NewOAuthHandler(oauthManager *oauth.Manager) *OAuthHandler {
	return &OAuthHandler{
		oauthManager: oauthManager,
		logger:       slog.Default(),
	}
}

// HandleAuthStart initiates the OAuth flow by redirecting to Strava
func (h *OAuthHandler) HandleAuthStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	authURL, state, err := h.oauthManager.GenerateAuthURL()
	if err != nil {
		h.logger.Error("Failed to generate auth URL", "error", err)
		http.Error(w, "Failed to start OAuth flow", http.StatusInternalServerError)
		return
	}

	h.logger.Info("Starting OAuth flow", "state", state)

	http.Redirect(w, r, authURL, http.StatusTemporaryRedirect)
}

// HandleCallback processes the OAuth callback from Strava. A denied
// authorization goes quietly back home; a failed exchange goes home with an
// auth=failed flag so the page can show a notice. The process never crashes
// on a provider auth failure.
func (h *OAuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	errorParam := r.URL.Query().Get("error")

	if errorParam != "" || code == "" {
		h.logger.Warn("OAuth authorization denied or incomplete", "error", errorParam, "has_code", code != "")
		http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
		return
	}

	user, err := h.oauthManager.HandleCallback(r.Context(), code, state)
	if err != nil {
		h.logger.Error("Failed to handle OAuth callback", "error", err)
		http.Redirect(w, r, "/?auth=failed", http.StatusTemporaryRedirect)
		return
	}

	h.logger.Info("OAuth flow completed", "user_id", user.ID)

	setSessionCookie(w, user.ID)
	http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
}
