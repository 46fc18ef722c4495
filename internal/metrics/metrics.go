package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label value constants to prevent typos
const (
	// HTTP endpoints
	EndpointDashboard  = "dashboard"
	EndpointOAuthStart = "oauth_start"
	EndpointOAuthCb    = "oauth_callback"
	EndpointSync       = "sync"
	EndpointSyncWeek   = "sync_week"
	EndpointUserDOB    = "user_dob"
	EndpointDisconnect = "user_disconnect"
	EndpointUsers      = "users"
	EndpointHealth     = "health"

	// Strava API operations
	OpExchangeCode   = "exchange_code"
	OpRefreshToken   = "refresh_token"
	OpListActivities = "list_activities"

	// Sync results
	ResultSuccess = "success"
	ResultFailure = "failure"

	// Rate limit types
	RateLimit15Min = "15min"
	RateLimitDaily = "daily"

	// Rate limit buckets
	BucketLimit = "limit"
	BucketUsage = "usage"
)

// HTTP Metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"endpoint", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"endpoint", "status_code"},
	)
)

// Strava API Metrics
var (
	StravaAPIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strava_api_requests_total",
			Help: "Total number of Strava API requests",
		},
		[]string{"operation", "status_code"},
	)

	StravaAPIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "strava_api_request_duration_seconds",
			Help:    "Strava API request latency in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"operation", "status_code"},
	)

	StravaRateLimitUsage = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "strava_rate_limit_usage",
			Help: "Strava API rate limit usage",
		},
		[]string{"limit_type", "bucket"},
	)
)

// Sync Metrics
var (
	WeekSyncsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "week_syncs_total",
			Help: "Total number of week sync runs by result",
		},
		[]string{"result"},
	)

	SyncActivitiesFetched = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sync_activities_fetched",
			Help:    "Number of activities fetched per week sync run",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100, 200},
		},
	)

	DailyPointsComputedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "daily_points_computed_total",
			Help: "Total number of daily points recomputations",
		},
	)

	TokenRefreshesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "token_refreshes_total",
			Help: "Total number of OAuth token refreshes by result",
		},
		[]string{"result"},
	)
)
