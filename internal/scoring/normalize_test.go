package scoring

import (
	"testing"

	"vitalite/internal/strava"
)

func TestNormalize(t *testing.T) {
	avgHR := 132.5
	raw := strava.RawActivity{
		ID:               98765,
		Name:             "Morning Run",
		Type:             "Run",
		MovingTime:       1890, // 31.5 min, rounds to 32
		Distance:         5049, // 5.049 km, rounds to 5.0
		StartDate:        "2025-12-03T06:30:00Z",
		StartDateLocal:   "2025-12-03T07:30:00Z",
		AverageHeartrate: &avgHR,
	}

	a, ok := Normalize(7, raw)
	if !ok {
		t.Fatal("Expected normalization to succeed")
	}

	if a.UserID != 7 {
		t.Errorf("Expected user id 7, got %d", a.UserID)
	}
	if a.StravaID != 98765 {
		t.Errorf("Expected strava id 98765, got %d", a.StravaID)
	}
	if a.Date != "2025-12-03" {
		t.Errorf("Expected date 2025-12-03, got %s", a.Date)
	}
	if a.MovingMinutes != 32 {
		t.Errorf("Expected 32 moving minutes, got %d", a.MovingMinutes)
	}
	if a.DistanceKm != 5.0 {
		t.Errorf("Expected 5.0 km, got %v", a.DistanceKm)
	}
	if a.AverageHeartrate == nil || *a.AverageHeartrate != 132.5 {
		t.Errorf("Expected avg HR 132.5, got %v", a.AverageHeartrate)
	}
	if a.Calories != nil {
		t.Errorf("Expected nil calories, got %v", a.Calories)
	}
}

func TestNormalizeLocalDatePreferred(t *testing.T) {
	// The local timestamp crosses midnight relative to UTC; the local
	// calendar date wins.
	raw := strava.RawActivity{
		ID:             1,
		StartDate:      "2025-12-03T23:30:00Z",
		StartDateLocal: "2025-12-04T00:30:00Z",
	}

	a, ok := Normalize(1, raw)
	if !ok {
		t.Fatal("Expected normalization to succeed")
	}
	if a.Date != "2025-12-04" {
		t.Errorf("Expected local date 2025-12-04, got %s", a.Date)
	}
}

func TestNormalizeFallsBackToAbsoluteDate(t *testing.T) {
	raw := strava.RawActivity{
		ID:        1,
		StartDate: "2025-12-03T06:30:00Z",
	}

	a, ok := Normalize(1, raw)
	if !ok {
		t.Fatal("Expected normalization to succeed")
	}
	if a.Date != "2025-12-03" {
		t.Errorf("Expected fallback date 2025-12-03, got %s", a.Date)
	}
}

func TestNormalizeSkipsRecordWithNoDate(t *testing.T) {
	raw := strava.RawActivity{ID: 1, StartDateLocal: "", StartDate: "garbage"}

	if _, ok := Normalize(1, raw); ok {
		t.Error("Expected record with no usable date to be skipped")
	}
}

func TestNormalizeKilojoulesFallback(t *testing.T) {
	kj := 412.4
	raw := strava.RawActivity{
		ID:             1,
		StartDateLocal: "2025-12-03T07:30:00Z",
		Kilojoules:     &kj,
	}

	a, ok := Normalize(1, raw)
	if !ok {
		t.Fatal("Expected normalization to succeed")
	}
	if a.Calories == nil || *a.Calories != 412 {
		t.Errorf("Expected calories 412 from kilojoules, got %v", a.Calories)
	}

	// Provider calories win over kilojoules
	cal := 500.0
	raw.Calories = &cal
	a, _ = Normalize(1, raw)
	if a.Calories == nil || *a.Calories != 500 {
		t.Errorf("Expected provider calories 500, got %v", a.Calories)
	}
}
