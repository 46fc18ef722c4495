// Package scoring implements the daily points computation. It is pure: a
// day's points are a function of that day's activities, the user's date of
// birth, and the step count, with no other inputs.
package scoring

import (
	"fmt"
	"time"

	"vitalite/internal/database"
)

// Points tiers. Rules are evaluated independently and the day's result is the
// maximum satisfied tier, never a sum.
const (
	MaxDailyPoints = 8

	stepsTier8 = 12_500
	stepsTier5 = 10_000
	stepsTier3 = 7_000
)

// Age returns whole years between dob (YYYY-MM-DD) and now, adjusted for
// whether the birth month/day has occurred yet this year.
func Age(dob string, now time.Time) (int, error) {
	birth, err := time.Parse("2006-01-02", dob)
	if err != nil {
		return 0, fmt.Errorf("invalid dob %q: %w", dob, err)
	}

	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	return age, nil
}

// MaxHeartRate returns the age-predicted maximum heart rate (220 - age)
func MaxHeartRate(age int) int {
	return 220 - age
}

// DailyPoints computes the points for one calendar day, in [0, MaxDailyPoints].
//
// Steps score regardless of date of birth. Heart-rate and calorie rules need
// the user's age, so without a DOB only the steps tier applies. A malformed
// DOB is treated the same as an absent one.
func DailyPoints(dob *string, activities []*database.Activity, steps int, now time.Time) int {
	points := stepsPoints(steps)

	if dob == nil {
		return points
	}
	age, err := Age(*dob, now)
	if err != nil {
		return points
	}

	maxHR := float64(MaxHeartRate(age))
	hr60 := maxHR * 0.6
	hr70 := maxHR * 0.7

	for _, a := range activities {
		points = max(points, heartRatePoints(a, hr60, hr70))
		points = max(points, caloriePoints(a))
	}

	return min(points, MaxDailyPoints)
}

func stepsPoints(steps int) int {
	switch {
	case steps >= stepsTier8:
		return 8
	case steps >= stepsTier5:
		return 5
	case steps >= stepsTier3:
		return 3
	default:
		return 0
	}
}

// heartRatePoints scores one activity from moving minutes and average heart
// rate. Activities without heart rate data contribute 0.
func heartRatePoints(a *database.Activity, hr60, hr70 float64) int {
	if a.AverageHeartrate == nil {
		return 0
	}
	mins := a.MovingMinutes
	avgHR := *a.AverageHeartrate

	switch {
	case mins >= 60 && avgHR >= hr60:
		return 8
	case mins >= 30 && avgHR >= hr70:
		return 8
	case mins >= 30 && avgHR >= hr60:
		return 5
	default:
		return 0
	}
}

// caloriePoints scores one activity from total calories and burn rate.
// Activities without calorie data, or with zero minutes, contribute 0.
func caloriePoints(a *database.Activity) int {
	if a.Calories == nil || a.MovingMinutes <= 0 {
		return 0
	}
	mins := a.MovingMinutes
	calories := *a.Calories
	kcalPerHour := calories / float64(mins) * 60

	switch {
	case calories >= 300 && kcalPerHour >= 600:
		return 8
	case mins >= 60 && calories >= 300 && kcalPerHour >= 300:
		return 8
	case mins >= 30 && calories >= 150 && kcalPerHour >= 300:
		return 5
	default:
		return 0
	}
}
