package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"vitalite/internal/config"
	"vitalite/internal/metrics"
)

const (
	defaultBaseURL      = "https://www.strava.com/api/v3"
	defaultTokenURL     = "https://www.strava.com/oauth/token"
	defaultAuthorizeURL = "https://www.strava.com/oauth/authorize"

	// Scopes requested on authorize: profile plus all activities
	authorizeScope = "read,activity:read_all"
)

// Client is a Strava API client
type Client struct {
	httpClient   *http.Client
	clientID     string
	clientSecret string
	baseURL      string
	tokenURL     string
	authorizeURL string
	redirectURI  string
	logger       *slog.Logger
	rateLimiter  *RateLimiter
}

// HTTPError represents a non-success response from the Strava API
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("strava returned status %d: %s", e.StatusCode, e.Body)
}

// NewClient creates a new Strava API client
func NewClient(cfg *config.Config) *Client {
	return &Client{
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		clientID:     cfg.StravaClientID,
		clientSecret: cfg.StravaClientSecret,
		baseURL:      defaultBaseURL,
		tokenURL:     defaultTokenURL,
		authorizeURL: defaultAuthorizeURL,
		redirectURI:  strings.TrimSuffix(cfg.BaseURL, "/") + "/oauth-callback",
		logger:       slog.Default(),
		rateLimiter:  NewRateLimiter(),
	}
}

// SetBaseURLs overrides the provider endpoints. Used by tests to point the
// client at a local server.
func (c *Client) SetBaseURLs(api, token, authorize string) {
	c.baseURL = api
	c.tokenURL = token
	c.authorizeURL = authorize
}

// AuthorizeURL returns the provider authorization URL for the given state
func (c *Client) AuthorizeURL(state string) string {
	params := url.Values{
		"client_id":       {c.clientID},
		"redirect_uri":    {c.redirectURI},
		"response_type":   {"code"},
		"scope":           {authorizeScope},
		"approval_prompt": {"auto"},
		"state":           {state},
	}
	return fmt.Sprintf("%s?%s", c.authorizeURL, params.Encode())
}

// TokenResponse represents the response from a token exchange or refresh
type TokenResponse struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	ExpiresAt    int64           `json:"expires_at"`
	ExpiresIn    int             `json:"expires_in"`
	Athlete      json.RawMessage `json:"athlete"`
}

// ExchangeCode exchanges an authorization code for access and refresh tokens
func (c *Client) ExchangeCode(ctx context.Context, code string) (*TokenResponse, error) {
	return c.tokenRequest(ctx, metrics.OpExchangeCode, url.Values{
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"code":          {code},
		"grant_type":    {"authorization_code"},
	})
}

// RefreshToken refreshes an access token using a refresh token
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	return c.tokenRequest(ctx, metrics.OpRefreshToken, url.Values{
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"refresh_token": {refreshToken},
		"grant_type":    {"refresh_token"},
	})
}

// tokenRequest performs a form-encoded POST against the token endpoint
func (c *Client) tokenRequest(ctx context.Context, op string, data url.Values) (*TokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", c.tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.Error("token request failed", "operation", op, "error", err, "duration_ms", duration.Milliseconds())
		metrics.StravaAPIRequestsTotal.WithLabelValues(op, "error").Inc()
		return nil, fmt.Errorf("%s failed: %w", op, err)
	}
	defer resp.Body.Close()

	statusStr := strconv.Itoa(resp.StatusCode)
	metrics.StravaAPIRequestsTotal.WithLabelValues(op, statusStr).Inc()
	metrics.StravaAPIRequestDuration.WithLabelValues(op, statusStr).Observe(duration.Seconds())

	c.logger.Info("strava_token_request", "operation", op, "status", resp.StatusCode, "duration_ms", duration.Milliseconds())

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(bodyBytes)}
	}

	var tokenResp TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &tokenResp, nil
}

// doRequest performs an authenticated GET against the API.
// No retries: a failed provider call surfaces to the caller and the next
// user-triggered view is the retry path.
func (c *Client) doRequest(ctx context.Context, op, path, accessToken string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.Error("request failed", "operation", op, "path", path, "error", err)
		metrics.StravaAPIRequestsTotal.WithLabelValues(op, "error").Inc()
		return nil, fmt.Errorf("%s failed: %w", op, err)
	}
	defer resp.Body.Close()

	// Parse rate limit headers
	c.parseRateLimitHeaders(resp.Header)

	statusStr := strconv.Itoa(resp.StatusCode)
	metrics.StravaAPIRequestsTotal.WithLabelValues(op, statusStr).Inc()
	metrics.StravaAPIRequestDuration.WithLabelValues(op, statusStr).Observe(duration.Seconds())

	c.logger.Info("strava_api_request", "operation", op, "path", path, "status", resp.StatusCode, "duration_ms", duration.Milliseconds())

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return body, nil
}

// parseRateLimitHeaders extracts and updates rate limit information from response headers
func (c *Client) parseRateLimitHeaders(headers http.Header) {
	limitHeader := headers.Get("X-RateLimit-Limit")
	usageHeader := headers.Get("X-RateLimit-Usage")

	if limitHeader == "" || usageHeader == "" {
		return
	}

	limits := strings.Split(limitHeader, ",")
	usages := strings.Split(usageHeader, ",")

	if len(limits) == 2 && len(usages) == 2 {
		limit15, _ := strconv.Atoi(strings.TrimSpace(limits[0]))
		limitDaily, _ := strconv.Atoi(strings.TrimSpace(limits[1]))
		usage15, _ := strconv.Atoi(strings.TrimSpace(usages[0]))
		usageDaily, _ := strconv.Atoi(strings.TrimSpace(usages[1]))

		c.rateLimiter.Update(limit15, usage15, limitDaily, usageDaily)

		metrics.StravaRateLimitUsage.WithLabelValues(metrics.RateLimit15Min, metrics.BucketLimit).Set(float64(limit15))
		metrics.StravaRateLimitUsage.WithLabelValues(metrics.RateLimit15Min, metrics.BucketUsage).Set(float64(usage15))
		metrics.StravaRateLimitUsage.WithLabelValues(metrics.RateLimitDaily, metrics.BucketLimit).Set(float64(limitDaily))
		metrics.StravaRateLimitUsage.WithLabelValues(metrics.RateLimitDaily, metrics.BucketUsage).Set(float64(usageDaily))

		c.logger.Debug("rate_limit",
			"limit_15min", limit15,
			"usage_15min", usage15,
			"limit_daily", limitDaily,
			"usage_daily", usageDaily,
		)
	}
}

// GetRateLimitStatus returns the current rate limit status
func (c *Client) GetRateLimitStatus() RateLimitStatus {
	return c.rateLimiter.Status()
}
