package domain

import (
	"testing"
	"time"
)

func TestDeriveStatus(t *testing.T) {
	e := NewPresenceEvaluator(15*time.Minute, 30*time.Minute)
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		elapsed time.Duration
		want    PresenceStatus
	}{
		{"just now", 0, PresenceActive},
		{"under idle", 14*time.Minute + 59*time.Second, PresenceActive},
		{"at idle", 15 * time.Minute, PresenceAway},
		{"between", 20 * time.Minute, PresenceAway},
		{"just under offline", 30*time.Minute - time.Nanosecond, PresenceAway},
		{"at offline", 30 * time.Minute, PresenceOffline},
		{"long gone", 72 * time.Hour, PresenceOffline},
		{"clock skew", -5 * time.Minute, PresenceActive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.DeriveStatus(now.Add(-tt.elapsed), now)
			if got != tt.want {
				t.Errorf("DeriveStatus(elapsed=%s) = %s, want %s", tt.elapsed, got, tt.want)
			}
		})
	}
}

func TestDeriveStatus_ZeroLastActivityIsOffline(t *testing.T) {
	e := NewPresenceEvaluator(15*time.Minute, 30*time.Minute)
	if got := e.DeriveStatus(time.Time{}, time.Now()); got != PresenceOffline {
		t.Errorf("DeriveStatus(zero) = %s, want OFFLINE", got)
	}
}

func TestDeriveStatus_MonotonicInElapsed(t *testing.T) {
	e := NewPresenceEvaluator(15*time.Minute, 30*time.Minute)
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	prev := PresenceActive
	for elapsed := time.Duration(0); elapsed <= 2*time.Hour; elapsed += 17 * time.Second {
		got := e.DeriveStatus(now.Add(-elapsed), now)
		if !got.Valid() {
			t.Fatalf("elapsed %s produced invalid status %q", elapsed, got)
		}
		if got.Rank() < prev.Rank() {
			t.Fatalf("status went from %s back to %s at elapsed %s", prev, got, elapsed)
		}
		if again := e.DeriveStatus(now.Add(-elapsed), now); again != got {
			t.Fatalf("DeriveStatus not idempotent at %s: %s then %s", elapsed, got, again)
		}
		prev = got
	}
}

func TestPresenceStatusAtLeast(t *testing.T) {
	if !PresenceOffline.AtLeast(PresenceAway) {
		t.Error("OFFLINE should be at least AWAY")
	}
	if PresenceActive.AtLeast(PresenceAway) {
		t.Error("ACTIVE should not be at least AWAY")
	}
	if !PresenceAway.AtLeast(PresenceAway) {
		t.Error("AWAY should be at least AWAY")
	}
}

func TestStartOfLocalDay(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	ts := time.Date(2026, 3, 2, 20, 30, 0, 0, time.UTC) // 01:30 next day local
	start := StartOfLocalDay(ts, loc)
	want := time.Date(2026, 3, 3, 0, 0, 0, 0, loc)
	if !start.Equal(want) {
		t.Errorf("StartOfLocalDay = %s, want %s", start, want)
	}
	if got := LocalDay(ts, loc); got != "2026-03-03" {
		t.Errorf("LocalDay = %q, want 2026-03-03", got)
	}
}
