package domain

import "time"

// Alert reports that a counselor's inactivity endangers owned work. Derived on
// every scan and never persisted.
type Alert struct {
	CounselorID          string
	CounselorName        string
	CurrentStatus        PresenceStatus
	InactiveMinutes      int
	LastActivityAt       time.Time
	AffectedWorkItems    []WorkItem
	RequiresReassignment bool
}
