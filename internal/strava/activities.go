package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"vitalite/internal/metrics"
)

// RawActivity is one activity record as returned by the list endpoint
type RawActivity struct {
	ID               int64    `json:"id"`
	Name             string   `json:"name"`
	Type             string   `json:"type"`
	MovingTime       int      `json:"moving_time"` // seconds
	Distance         float64  `json:"distance"`    // meters
	StartDate        string   `json:"start_date"`  // absolute, RFC 3339
	StartDateLocal   string   `json:"start_date_local"`
	AverageHeartrate *float64 `json:"average_heartrate"`
	MaxHeartrate     *float64 `json:"max_heartrate"`
	Calories         *float64 `json:"calories"`
	Kilojoules       *float64 `json:"kilojoules"`
}

// ListActivities fetches the athlete's activities whose start time falls in
// the (after, before) epoch-second window. Zero disables a bound.
func (c *Client) ListActivities(ctx context.Context, accessToken string, after, before int64, perPage int) ([]RawActivity, error) {
	if perPage < 1 || perPage > 200 {
		perPage = 200 // Strava max
	}

	params := url.Values{
		"per_page": {strconv.Itoa(perPage)},
	}
	if after > 0 {
		params.Set("after", strconv.FormatInt(after, 10))
	}
	if before > 0 {
		params.Set("before", strconv.FormatInt(before, 10))
	}

	path := "/athlete/activities?" + params.Encode()

	respBody, err := c.doRequest(ctx, metrics.OpListActivities, path, accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}

	var activities []RawActivity
	if err := json.Unmarshal(respBody, &activities); err != nil {
		return nil, fmt.Errorf("failed to unmarshal activities: %w", err)
	}

	return activities, nil
}
