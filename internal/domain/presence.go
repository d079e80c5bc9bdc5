package domain

import "time"

// PresenceStatus is the derived engagement state of a counselor.
type PresenceStatus string

const (
	PresenceActive  PresenceStatus = "ACTIVE"
	PresenceAway    PresenceStatus = "AWAY"
	PresenceOffline PresenceStatus = "OFFLINE"
)

// Rank orders statuses by severity: ACTIVE < AWAY < OFFLINE.
func (s PresenceStatus) Rank() int {
	switch s {
	case PresenceActive:
		return 0
	case PresenceAway:
		return 1
	default:
		return 2
	}
}

// AtLeast reports whether s is as severe as threshold or worse.
func (s PresenceStatus) AtLeast(threshold PresenceStatus) bool {
	return s.Rank() >= threshold.Rank()
}

// Valid reports whether s is one of the three known statuses.
func (s PresenceStatus) Valid() bool {
	switch s {
	case PresenceActive, PresenceAway, PresenceOffline:
		return true
	}
	return false
}

// PresenceEvaluator maps activity timestamps to a PresenceStatus.
type PresenceEvaluator struct {
	IdleAfter    time.Duration
	OfflineAfter time.Duration
}

// NewPresenceEvaluator builds an evaluator. offlineAfter must exceed idleAfter;
// callers validate thresholds at config load.
func NewPresenceEvaluator(idleAfter, offlineAfter time.Duration) PresenceEvaluator {
	return PresenceEvaluator{IdleAfter: idleAfter, OfflineAfter: offlineAfter}
}

// DeriveStatus is pure: the same inputs always yield the same status.
func (e PresenceEvaluator) DeriveStatus(lastActivityAt, now time.Time) PresenceStatus {
	if lastActivityAt.IsZero() {
		return PresenceOffline
	}
	elapsed := now.Sub(lastActivityAt)
	switch {
	case elapsed < e.IdleAfter:
		// includes negative elapsed from clock skew
		return PresenceActive
	case elapsed < e.OfflineAfter:
		return PresenceAway
	default:
		return PresenceOffline
	}
}

// Presence is the per-counselor presence record. Status is filled in on read
// and never persisted.
type Presence struct {
	CounselorID    string
	LastLoginAt    time.Time
	LastActivityAt time.Time
	ActiveToday    time.Duration
	TotalActive    time.Duration
	// ActiveDay is the counselor-local calendar day (YYYY-MM-DD) ActiveToday belongs to.
	ActiveDay string
	Status    PresenceStatus
	UpdatedAt time.Time
}

// ActiveMinutesToday returns whole minutes credited today.
func (p Presence) ActiveMinutesToday() int {
	return int(p.ActiveToday / time.Minute)
}

// TotalActiveMinutes returns whole minutes credited overall.
func (p Presence) TotalActiveMinutes() int {
	return int(p.TotalActive / time.Minute)
}

// InactiveFor returns how long ago the last activity happened; zero when never seen.
func (p Presence) InactiveFor(now time.Time) time.Duration {
	if p.LastActivityAt.IsZero() {
		return 0
	}
	if d := now.Sub(p.LastActivityAt); d > 0 {
		return d
	}
	return 0
}

// LocalDay formats t as a calendar day in loc.
func LocalDay(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("2006-01-02")
}

// StartOfLocalDay returns local midnight of the day containing t.
func StartOfLocalDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}
