package scoring

import (
	"math"
	"time"

	"vitalite/internal/database"
	"vitalite/internal/strava"
)

// Normalize maps one raw provider activity into the internal shape. The local
// calendar date comes from the local-time timestamp when present, falling
// back to the UTC date of the absolute timestamp. Records with no usable
// date are reported unusable so the caller can skip them without aborting
// the batch.
func Normalize(userID int64, raw strava.RawActivity) (*database.Activity, bool) {
	date, ok := localDate(raw)
	if !ok {
		return nil, false
	}

	a := &database.Activity{
		UserID:           userID,
		StravaID:         raw.ID,
		Name:             raw.Name,
		Type:             raw.Type,
		MovingMinutes:    int(math.Round(float64(raw.MovingTime) / 60)),
		DistanceKm:       math.Round(raw.Distance/1000*10) / 10,
		StartDateLocal:   raw.StartDateLocal,
		Date:             date,
		AverageHeartrate: raw.AverageHeartrate,
		MaxHeartrate:     raw.MaxHeartrate,
		Calories:         raw.Calories,
	}

	// Kilojoules stand in for calories when the provider omits them
	if a.Calories == nil && raw.Kilojoules != nil {
		kcal := math.Round(*raw.Kilojoules)
		a.Calories = &kcal
	}

	return a, true
}

func localDate(raw strava.RawActivity) (string, bool) {
	if len(raw.StartDateLocal) >= 10 {
		return raw.StartDateLocal[:10], true
	}
	if raw.StartDate != "" {
		t, err := time.Parse(time.RFC3339, raw.StartDate)
		if err == nil {
			return t.UTC().Format("2006-01-02"), true
		}
	}
	return "", false
}
