package core_test

import (
	"testing"
	"time"

	"stockbook/internal/core"
)

func TestBusinessDay_EarlyMorningBelongsToPreviousDay(t *testing.T) {
	tests := []struct {
		name string
		ts   string
		want string
	}{
		{"just after midnight", "2026-03-10T00:15:00", "2026-03-09"},
		{"half past five", "2026-03-10T05:30:00", "2026-03-09"},
		{"cutoff exactly", "2026-03-10T06:00:00", "2026-03-10"},
		{"just past cutoff", "2026-03-10T06:01:00", "2026-03-10"},
		{"midday", "2026-03-10T13:00:00", "2026-03-10"},
		{"late evening", "2026-03-10T23:59:00", "2026-03-10"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, err := time.ParseInLocation("2006-01-02T15:04:05", tt.ts, time.Local)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			got := core.BusinessDay(ts).Format("2006-01-02")
			if got != tt.want {
				t.Errorf("BusinessDay(%s) = %s, want %s", tt.ts, got, tt.want)
			}
		})
	}
}

func TestBusinessDayWindow_CoversSixToSix(t *testing.T) {
	day := time.Date(2026, 3, 9, 0, 0, 0, 0, time.Local)
	from, to := core.BusinessDayWindow(day)

	if from.Hour() != 6 || from.Day() != 9 {
		t.Errorf("window start = %s, want 2026-03-09 06:00", from)
	}
	if to.Hour() != 6 || to.Day() != 10 {
		t.Errorf("window end = %s, want 2026-03-10 06:00", to)
	}

	// A 05:59 sale next morning still falls inside the window.
	lateSale := time.Date(2026, 3, 10, 5, 59, 0, 0, time.Local)
	if lateSale.Before(from) || !lateSale.Before(to) {
		t.Errorf("expected %s inside window [%s, %s)", lateSale, from, to)
	}
}
