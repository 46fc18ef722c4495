package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"vitalite/internal/config"
	"vitalite/internal/database"
	"vitalite/internal/oauth"
	"vitalite/internal/strava"
	"vitalite/internal/sync"
)

// handlersNow is a Monday, two weeks after the default start date
var handlersNow = time.Date(2025, 12, 15, 12, 0, 0, 0, time.UTC)

// fakeProvider drives the httptest Strava stand-in
type fakeProvider struct {
	activities []strava.RawActivity
	listStatus int // non-zero forces an error status on list
	listCalls  int
	tokenCalls int
}

type testEnv struct {
	db       *database.DB
	cfg      *config.Config
	orch     *sync.Orchestrator
	manager  *oauth.Manager
	provider *fakeProvider
	authURL  string // the fake provider's authorize endpoint
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()

	provider := &fakeProvider{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth/token":
			provider.tokenCalls++
			w.Write([]byte(`{
				"access_token": "acc",
				"refresh_token": "ref",
				"expires_at": 1797000000,
				"athlete": {"id": 777, "firstname": "Ada", "lastname": "Lovelace"}
			}`))
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

	orch := sync.NewOrchestrator(db, client, cfg)
	orch.SetNow(func() time.Time { return handlersNow })

	return &testEnv{
		db:       db,
		cfg:      cfg,
		orch:     orch,
		manager:  oauth.NewManager(db, client),
		provider: provider,
		authURL:  server.URL + "/oauth/authorize",
	}
}

// createEnvUser stores a connected user, with a DOB unless dob is empty
func createEnvUser(t *testing.T, env *testEnv, dob string) *database.User {
	t.Helper()

	user, err := env.db.UpsertUser(&database.User{
		StravaAthleteID: 777,
		Name:            "Ada Lovelace",
		AccessToken:     "acc",
		RefreshToken:    "ref",
		TokenExpiresAt:  handlersNow.Unix() + 3600,
	})
	if err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	if dob != "" {
		if err := env.db.UpdateUserDOB(user.ID, dob); err != nil {
			t.Fatalf("Failed to set DOB: %v", err)
		}
		user.DOB = &dob
	}
	return user
}

func withSession(r *http.Request, userID int64) *http.Request {
	r.AddCookie(&http.Cookie{Name: SessionCookie, Value: strconv.FormatInt(userID, 10)})
	return r
}
