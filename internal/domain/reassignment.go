package domain

import "time"

// ReassignmentTrigger records who initiated an ownership change.
type ReassignmentTrigger string

const (
	TriggerManual      ReassignmentTrigger = "MANUAL"
	TriggerAlertDriven ReassignmentTrigger = "ALERT_DRIVEN"
)

// Valid reports whether t is a known trigger.
func (t ReassignmentTrigger) Valid() bool {
	return t == TriggerManual || t == TriggerAlertDriven
}

// ReassignmentRecord is an append-only audit entry. ToCounselorID is empty for
// a release.
type ReassignmentRecord struct {
	ID              string
	WorkItemID      string
	WorkItemKind    WorkItemKind
	FromCounselorID string
	ToCounselorID   string
	Reason          string
	Trigger         ReassignmentTrigger
	ActorID         string
	Timestamp       time.Time
}

// Capacity summarizes a counselor's workload.
type Capacity struct {
	CounselorID       string
	CurrentLoad       int
	MaxCapacity       int
	LoadPercentage    float64
	RawLoadPercentage float64
	OverCapacity      bool
	Status            PresenceStatus
	Eligible          bool
}

// Candidate is one ranked reassignment target.
type Candidate struct {
	Counselor        Counselor
	LanguageMatch    bool
	ExpertiseOverlap int
	Capacity         Capacity
}
