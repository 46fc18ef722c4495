package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"vitalite/internal/database"
	"vitalite/internal/strava"
)

// Manager handles the OAuth 2.0 flow with Strava
type Manager struct {
	db           *database.DB
	stravaClient *strava.Client
	logger       *slog.Logger
	states       *stateStore // CSRF protection
}

// stateStore tracks valid OAuth states for CSRF protection
type stateStore struct {
	mu     sync.Mutex
	states map[string]time.Time
}

// NewManager creates a new OAuth manager
func NewManager(db *database.DB, stravaClient *strava.Client) *Manager {
	mgr := &Manager{
		db:           db,
		stravaClient: stravaClient,
		logger:       slog.Default(),
		states: &stateStore{
			states: make(map[string]time.Time),
		},
	}

	// Background cleanup of expired states
	go mgr.cleanupStates()

	return mgr
}

// GenerateAuthURL generates a Strava authorization URL with CSRF protection
func (m *Manager) GenerateAuthURL() (string, string, error) {
	state, err := generateRandomState()
	if err != nil {
		return "", "", fmt.Errorf("failed to generate state: %w", err)
	}

	// Store state with expiration (10 minutes)
	m.states.mu.Lock()
	m.states.states[state] = time.Now().Add(10 * time.Minute)
	m.states.mu.Unlock()

	authURL := m.stravaClient.AuthorizeURL(state)

	m.logger.Info("Generated auth URL", "state", state)

	return authURL, state, nil
}

// athleteSummary is the subset of the athlete payload we keep
type athleteSummary struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
}

// HandleCallback exchanges the authorization code and creates or updates the
// local user record, returning the stored user.
func (m *Manager) HandleCallback(ctx context.Context, code, state string) (*database.User, error) {
	if !m.validateState(state) {
		return nil, fmt.Errorf("invalid or expired state")
	}

	m.logger.Info("Handling OAuth callback", "code_length", len(code))

	tokenResp, err := m.stravaClient.ExchangeCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}

	var athlete athleteSummary
	if err := json.Unmarshal(tokenResp.Athlete, &athlete); err != nil {
		return nil, fmt.Errorf("failed to parse athlete data: %w", err)
	}

	name := strings.TrimSpace(athlete.FirstName + " " + athlete.LastName)

	user, err := m.db.UpsertUser(&database.User{
		StravaAthleteID: athlete.ID,
		Name:            name,
		AccessToken:     tokenResp.AccessToken,
		RefreshToken:    tokenResp.RefreshToken,
		TokenExpiresAt:  tokenResp.ExpiresAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	m.logger.Info("Stored user record", "user_id", user.ID, "athlete_id", athlete.ID)

	return user, nil
}

// validateState checks if a state is valid and removes it (one-time use)
func (m *Manager) validateState(state string) bool {
	m.states.mu.Lock()
	defer m.states.mu.Unlock()

	expiry, exists := m.states.states[state]
	if !exists {
		return false
	}

	// Check if expired
	if time.Now().After(expiry) {
		delete(m.states.states, state)
		return false
	}

	// Remove state after use (one-time use)
	delete(m.states.states, state)

	return true
}

// cleanupStates removes expired states every minute
func (m *Manager) cleanupStates() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		m.states.mu.Lock()
		now := time.Now()
		for state, expiry := range m.states.states {
			if now.After(expiry) {
				delete(m.states.states, state)
			}
		}
		m.states.mu.Unlock()
	}
}

// generateRandomState generates a cryptographically secure random state
func generateRandomState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
