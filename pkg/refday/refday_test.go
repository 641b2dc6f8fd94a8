package refday

import (
	"testing"
	"time"
)

func TestDay_ReferenceZoneNotUTC(t *testing.T) {
	// 02:30 UTC is still the previous day in UTC-5.
	instant := time.Date(2025, 3, 10, 2, 30, 0, 0, time.UTC)
	if got := Day(instant); got != "2025-03-09" {
		t.Errorf("Day(02:30 UTC) = %s, want 2025-03-09", got)
	}

	// 05:00 UTC is exactly midnight in UTC-5 — the new day.
	midnight := time.Date(2025, 3, 10, 5, 0, 0, 0, time.UTC)
	if got := Day(midnight); got != "2025-03-10" {
		t.Errorf("Day(05:00 UTC) = %s, want 2025-03-10", got)
	}
}

func TestDay_ClientZoneIrrelevant(t *testing.T) {
	// The same instant expressed in two zones must yield the same day key.
	tokyo := time.FixedZone("UTC+9", 9*60*60)
	utc := time.Date(2025, 6, 1, 3, 0, 0, 0, time.UTC)
	if Day(utc) != Day(utc.In(tokyo)) {
		t.Error("Day must be independent of the input's zone")
	}
}

func TestSameDay(t *testing.T) {
	tests := []struct {
		name string
		a, b time.Time
		want bool
	}{
		{
			"same reference day",
			time.Date(2025, 1, 15, 6, 0, 0, 0, time.UTC),
			time.Date(2025, 1, 15, 23, 0, 0, 0, time.UTC),
			true,
		},
		{
			"straddles reference midnight",
			time.Date(2025, 1, 15, 4, 59, 0, 0, time.UTC),
			time.Date(2025, 1, 15, 5, 1, 0, 0, time.UTC),
			false,
		},
		{
			"next day",
			time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC),
			time.Date(2025, 1, 16, 12, 0, 0, 0, time.UTC),
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SameDay(tt.a, tt.b); got != tt.want {
				t.Errorf("SameDay() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNextReset(t *testing.T) {
	instant := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	reset := NextReset(instant)

	if !reset.After(instant) {
		t.Fatal("NextReset must be in the future")
	}
	if Day(reset) == Day(instant) {
		t.Error("NextReset must fall on the following reference day")
	}
	if Day(reset.Add(-time.Second)) != Day(instant) {
		t.Error("the second before NextReset must still be the same day")
	}
}
