package handlers

import (
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"vitalite/internal/config"
	"vitalite/internal/database"
	"vitalite/internal/oauth"
	"vitalite/internal/scoring"
	"vitalite/internal/sync"
)

// Sync render states shown on the dashboard
const (
	syncStateSynced = "synced"
	syncStateCached = "cached"
	syncStateError  = "error"
)

var dayLabels = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// DashboardHandler renders the weekly points dashboard. The lazy-sync
// decision runs here: when a viewed week needs fetching, the sync runs
// inline within the same request and the page renders with an explicit
// synced/cached/error status. The dashboard never redirects, so a failed or
// suppressed sync cannot loop.
type DashboardHandler struct {
	db           *database.DB
	orchestrator *sync.Orchestrator
	oauthManager *oauth.Manager
	cfg          *config.Config
	logger       *slog.Logger
	tmpl         *template.Template
	now          func() time.Time
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(db *database.DB, orchestrator *sync.Orchestrator, oauthManager *oauth.Manager, cfg *config.Config) *DashboardHandler {
	return &DashboardHandler{
		db:           db,
		orchestrator: orchestrator,
		oauthManager: oauthManager,
		cfg:          cfg,
		logger:       slog.Default(),
		tmpl:         template.Must(template.New("dashboard").Parse(dashboardTemplate)),
		now:          time.Now,
	}
}

// SetNow overrides the clock. Used by tests.
func (h *DashboardHandler) SetNow(now func() time.Time) {
	h.now = now
}

type dayView struct {
	Date       string
	Label      string
	Points     int
	BarPct     int
	Activities []*database.Activity
}

type dashboardData struct {
	UserName    string
	UserID      int64
	AuthURL     string
	NeedsDOB    bool
	AuthFailed  bool
	WeekStart   string
	WeekEnd     string
	PrevWeek    string
	NextWeek    string
	Days        []dayView
	RawTotal    int
	CappedTotal int
	SyncState   string
	CurrentWeek bool
}

// HandleDashboard handles GET /
func (h *DashboardHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	// ServeMux routes every unmatched path here
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	query := r.URL.Query()
	authFailed := query.Get("auth") == "failed"

	var user *database.User
	if userID, ok := sessionUserID(r); ok {
		var err error
		user, err = h.db.GetUser(userID)
		if err != nil {
			h.logger.Error("Failed to load session user", "user_id", userID, "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
	}

	if user == nil {
		h.renderLanding(w, authFailed)
		return
	}

	if user.DOB == nil {
		h.render(w, "dob_prompt", &dashboardData{
			UserName:   user.Name,
			UserID:     user.ID,
			AuthFailed: authFailed,
		})
		return
	}

	weekStart, err := h.selectedWeekStart(user, query.Get("weekStart"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid weekStart")
		return
	}

	currentWeek := scoring.WeekStartOf(h.now())
	isCurrentWeek := weekStart == currentWeek

	alreadySynced, err := h.db.IsWeekSynced(user.ID, weekStart)
	if err != nil {
		h.logger.Error("Failed to check synced week", "user_id", user.ID, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	// Status flags from an explicit sync redirect suppress another sync
	// for this view; the page just reports what happened.
	suppress := query.Get("synced") != "" || query.Get("syncError") != ""

	syncState := syncStateCached
	switch {
	case query.Get("syncError") != "":
		syncState = syncStateError
	case query.Get("synced") != "":
		syncState = syncStateSynced
	case sync.ShouldSync(isCurrentWeek, alreadySynced, suppress):
		if _, err := h.orchestrator.SyncWeek(r.Context(), user.ID, weekStart); err != nil {
			h.logger.Error("Inline week sync failed",
				"user_id", user.ID,
				"week_start", weekStart,
				"error", err)
			syncState = syncStateError
		} else {
			syncState = syncStateSynced
		}
	}

	data, err := h.buildWeekView(user, weekStart)
	if err != nil {
		h.logger.Error("Failed to build week view", "user_id", user.ID, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	data.SyncState = syncState
	data.AuthFailed = authFailed
	data.CurrentWeek = isCurrentWeek

	h.render(w, "week", data)
}

// selectedWeekStart clamps the requested date to its Monday, defaulting to
// the week of the user's most recent points (or the start date).
func (h *DashboardHandler) selectedWeekStart(user *database.User, requested string) (string, error) {
	if requested != "" {
		return scoring.WeekStart(requested)
	}

	latest := h.cfg.StartDate
	recent, err := h.db.ListRecentDailyPoints(user.ID, 1)
	if err != nil {
		return "", err
	}
	if len(recent) > 0 {
		latest = recent[0].Date
	}
	return scoring.WeekStart(latest)
}

func (h *DashboardHandler) buildWeekView(user *database.User, weekStart string) (*dashboardData, error) {
	dates, err := scoring.WeekDates(weekStart)
	if err != nil {
		return nil, err
	}
	weekEnd := dates[6]

	points, err := h.db.ListDailyPointsInRange(user.ID, weekStart, weekEnd)
	if err != nil {
		return nil, err
	}
	pointsByDate := make(map[string]int, len(points))
	for _, p := range points {
		pointsByDate[p.Date] = p.Points
	}

	activities, err := h.db.ListActivitiesInRange(user.ID, weekStart, weekEnd)
	if err != nil {
		return nil, err
	}
	activitiesByDate := make(map[string][]*database.Activity)
	for _, a := range activities {
		activitiesByDate[a.Date] = append(activitiesByDate[a.Date], a)
	}

	days := make([]dayView, 7)
	daily := make([]int, 7)
	for i, date := range dates {
		p := pointsByDate[date]
		daily[i] = p
		days[i] = dayView{
			Date:       date,
			Label:      dayLabels[i],
			Points:     p,
			BarPct:     p * 100 / scoring.MaxDailyPoints,
			Activities: activitiesByDate[date],
		}
	}

	rawTotal, cappedTotal := scoring.WeeklyTotal(daily)

	prevWeek, err := scoring.AddDays(weekStart, -7)
	if err != nil {
		return nil, err
	}
	nextWeek, err := scoring.AddDays(weekStart, 7)
	if err != nil {
		return nil, err
	}

	return &dashboardData{
		UserName:    user.Name,
		UserID:      user.ID,
		WeekStart:   weekStart,
		WeekEnd:     weekEnd,
		PrevWeek:    prevWeek,
		NextWeek:    nextWeek,
		Days:        days,
		RawTotal:    rawTotal,
		CappedTotal: cappedTotal,
	}, nil
}

func (h *DashboardHandler) renderLanding(w http.ResponseWriter, authFailed bool) {
	authURL, _, err := h.oauthManager.GenerateAuthURL()
	if err != nil {
		h.logger.Error("Failed to generate auth URL", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	h.render(w, "landing", &dashboardData{AuthURL: authURL, AuthFailed: authFailed})
}

func (h *DashboardHandler) render(w http.ResponseWriter, name string, data *dashboardData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.tmpl.ExecuteTemplate(w, name, data); err != nil {
		h.logger.Error("Template render failed", "template", name, "error", err)
	}
}
