package events

import (
	"time"

	"github.com/spec-kit/counselor-presence/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventPresenceLogin      EventType = "presence_login"
	EventCounselorInactive  EventType = "counselor_inactive"
	EventWorkItemReassigned EventType = "work_item_reassigned"
	EventWorkItemReleased   EventType = "work_item_released"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Role domain.Role `json:"role,omitempty"`
	ID   string      `json:"id,omitempty"`
}

// SystemActor marks events raised by the scanner or auto policy.
var SystemActor = Actor{ID: "system"}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	SubjectID string      `json:"subject_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// PresenceLoginPayload payload.
type PresenceLoginPayload struct {
	CounselorID string    `json:"counselor_id"`
	LoginAt     time.Time `json:"login_at"`
}

// CounselorInactivePayload payload.
type CounselorInactivePayload struct {
	CounselorID          string                `json:"counselor_id"`
	Status               domain.PresenceStatus `json:"status"`
	InactiveMinutes      int                   `json:"inactive_minutes"`
	AffectedWorkItemIDs  []string              `json:"affected_work_item_ids"`
	RequiresReassignment bool                  `json:"requires_reassignment"`
}

// WorkItemReassignedPayload payload.
type WorkItemReassignedPayload struct {
	WorkItemID      string                     `json:"work_item_id"`
	WorkItemKind    domain.WorkItemKind        `json:"work_item_kind"`
	FromCounselorID string                     `json:"from_counselor_id,omitempty"`
	ToCounselorID   string                     `json:"to_counselor_id"`
	Reason          string                     `json:"reason,omitempty"`
	Trigger         domain.ReassignmentTrigger `json:"trigger"`
}

// WorkItemReleasedPayload payload.
type WorkItemReleasedPayload struct {
	WorkItemID      string              `json:"work_item_id"`
	WorkItemKind    domain.WorkItemKind `json:"work_item_kind"`
	FromCounselorID string              `json:"from_counselor_id,omitempty"`
	Reason          string              `json:"reason,omitempty"`
}
