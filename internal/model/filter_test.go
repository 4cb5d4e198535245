package model

import (
	"testing"
	"time"
)

func TestClampDate(t *testing.T) {
	now := time.Date(2025, 9, 27, 15, 30, 0, 0, time.UTC)

	cases := []struct {
		name string
		date string
		want string
	}{
		{"past date kept", "2025-09-25", "2025-09-25"},
		{"today kept", "2025-09-27", "2025-09-27"},
		{"future clamped", "2025-09-28", "2025-09-27"},
		{"empty falls back", "", "2025-09-27"},
		{"garbage falls back", "sept 25", "2025-09-27"},
		{"wrong layout falls back", "25-09-2025", "2025-09-27"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClampDate(tc.date, now); got != tc.want {
				t.Errorf("ClampDate(%q) = %q, want %q", tc.date, got, tc.want)
			}
		})
	}
}

func TestIsPastDate(t *testing.T) {
	now := time.Date(2025, 9, 27, 0, 5, 0, 0, time.UTC)

	if !IsPastDate("2025-09-26", now) {
		t.Error("yesterday should be past")
	}
	if IsPastDate("2025-09-27", now) {
		t.Error("today is not past, even just after midnight")
	}
	if IsPastDate("2025-09-28", now) {
		t.Error("tomorrow is not past")
	}
	if IsPastDate("not-a-date", now) {
		t.Error("unparseable dates are never past")
	}
}

func TestSelectionRouteKey(t *testing.T) {
	s := Selection{MaterialID: "M1", DeviceID: "D1", Tab: TabHistorical, Date: "2025-09-25"}
	key := s.RouteKey()
	if key.DeviceID != "D1" || key.Date != "2025-09-25" {
		t.Errorf("RouteKey() = %+v", key)
	}
}
