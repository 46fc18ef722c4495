package scoring

import (
	"testing"
	"time"
)

func TestWeekStart(t *testing.T) {
	tests := []struct {
		date string
		want string
	}{
		{"2025-12-01", "2025-12-01"}, // Monday maps to itself
		{"2025-12-02", "2025-12-01"},
		{"2025-12-06", "2025-12-01"}, // Saturday
		{"2025-12-07", "2025-12-01"}, // Sunday belongs to the preceding Monday
		{"2025-12-08", "2025-12-08"},
		{"2026-01-01", "2025-12-29"}, // year boundary
	}

	for _, tt := range tests {
		got, err := WeekStart(tt.date)
		if err != nil {
			t.Fatalf("WeekStart(%s) returned error: %v", tt.date, err)
		}
		if got != tt.want {
			t.Errorf("WeekStart(%s) = %s, want %s", tt.date, got, tt.want)
		}
	}

	if _, err := WeekStart("12/01/2025"); err == nil {
		t.Error("Expected error for non-ISO date")
	}
}

func TestWeekStartOf(t *testing.T) {
	// Wednesday 2025-12-03 10:00 UTC
	got := WeekStartOf(time.Date(2025, 12, 3, 10, 0, 0, 0, time.UTC))
	if got != "2025-12-01" {
		t.Errorf("WeekStartOf = %s, want 2025-12-01", got)
	}
}

func TestWeekWindow(t *testing.T) {
	after, before, err := WeekWindow("2025-12-01")
	if err != nil {
		t.Fatalf("WeekWindow returned error: %v", err)
	}

	wantAfter := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC).Unix()
	wantBefore := time.Date(2025, 12, 8, 0, 0, 0, 0, time.UTC).Unix()

	if after != wantAfter {
		t.Errorf("Expected after %d, got %d", wantAfter, after)
	}
	if before != wantBefore {
		t.Errorf("Expected before %d, got %d", wantBefore, before)
	}
	if before-after != 7*24*60*60 {
		t.Errorf("Expected a 7-day window, got %d seconds", before-after)
	}
}

func TestWeekDates(t *testing.T) {
	dates, err := WeekDates("2025-12-01")
	if err != nil {
		t.Fatalf("WeekDates returned error: %v", err)
	}
	if len(dates) != 7 {
		t.Fatalf("Expected 7 dates, got %d", len(dates))
	}
	if dates[0] != "2025-12-01" || dates[6] != "2025-12-07" {
		t.Errorf("Unexpected week dates: %v", dates)
	}
}

func TestWeeklyTotal(t *testing.T) {
	raw, capped := WeeklyTotal([]int{8, 8, 8, 8, 8, 5, 3})
	if raw != 48 {
		t.Errorf("Expected raw 48, got %d", raw)
	}
	if capped != 40 {
		t.Errorf("Expected capped 40, got %d", capped)
	}

	raw, capped = WeeklyTotal([]int{3, 5, 0, 0, 8, 0, 0})
	if raw != 16 || capped != 16 {
		t.Errorf("Expected 16/16 under the cap, got %d/%d", raw, capped)
	}
}
