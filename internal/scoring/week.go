package scoring

import (
	"fmt"
	"time"
)

// MaxWeeklyPoints caps the displayed weekly total
const MaxWeeklyPoints = 40

const dateLayout = "2006-01-02"

// WeekStart returns the Monday (YYYY-MM-DD, UTC semantics) of the week
// containing the given date.
func WeekStart(date string) (string, error) {
	t, err := time.ParseInLocation(dateLayout, date, time.UTC)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: %w", date, err)
	}
	return WeekStartOf(t), nil
}

// WeekStartOf returns the Monday of the week containing t, in UTC
func WeekStartOf(t time.Time) string {
	t = t.UTC()
	// Weekday() has Sunday=0; shift so Monday=0
	back := (int(t.Weekday()) + 6) % 7
	monday := t.AddDate(0, 0, -back)
	return monday.Format(dateLayout)
}

// WeekWindow returns the half-open UTC interval [weekStart 00:00,
// weekStart+7d 00:00) as epoch seconds.
func WeekWindow(weekStart string) (after, before int64, err error) {
	start, err := time.ParseInLocation(dateLayout, weekStart, time.UTC)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid week start %q: %w", weekStart, err)
	}
	return start.Unix(), start.AddDate(0, 0, 7).Unix(), nil
}

// AddDays shifts an ISO date by n calendar days
func AddDays(date string, n int) (string, error) {
	t, err := time.ParseInLocation(dateLayout, date, time.UTC)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: %w", date, err)
	}
	return t.AddDate(0, 0, n).Format(dateLayout), nil
}

// WeekDates returns the seven consecutive dates starting at weekStart
func WeekDates(weekStart string) ([]string, error) {
	start, err := time.ParseInLocation(dateLayout, weekStart, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("invalid week start %q: %w", weekStart, err)
	}
	dates := make([]string, 7)
	for i := range dates {
		dates[i] = start.AddDate(0, 0, i).Format(dateLayout)
	}
	return dates, nil
}

// WeeklyTotal sums daily point values and returns the raw sum alongside the
// displayed total capped at MaxWeeklyPoints.
func WeeklyTotal(daily []int) (raw, capped int) {
	for _, p := range daily {
		raw += p
	}
	return raw, min(raw, MaxWeeklyPoints)
}
