package domain

import "time"

// WorkItemKind distinguishes the two concrete work item kinds.
type WorkItemKind string

const (
	WorkItemLead    WorkItemKind = "LEAD"
	WorkItemSession WorkItemKind = "SESSION"
)

// Lead business statuses.
const (
	LeadStatusNew        = "NEW"
	LeadStatusContacted  = "CONTACTED"
	LeadStatusInProgress = "IN_PROGRESS"
	LeadStatusEnrolled   = "ENROLLED"
	LeadStatusRejected   = "REJECTED"
)

// Session business statuses.
const (
	SessionStatusScheduled   = "SCHEDULED"
	SessionStatusRescheduled = "RESCHEDULED"
	SessionStatusCompleted   = "COMPLETED"
	SessionStatusCancelled   = "CANCELLED"
	SessionStatusReleased    = "RELEASED"
)

// OwnershipState is the owner field's lifecycle, separate from business status.
type OwnershipState string

const (
	OwnershipUnowned  OwnershipState = "UNOWNED"
	OwnershipOwned    OwnershipState = "OWNED"
	OwnershipReleased OwnershipState = "RELEASED"
)

// WorkItem unifies leads and sessions for ownership transfer.
type WorkItem struct {
	ID                string
	Kind              WorkItemKind
	OwnerID           string
	Status            string
	Title             string
	PreferredLanguage string
	RequiredExpertise []string
	AutoAssigned      bool
	Released          bool
	LeadID            string
	ScheduledDate     *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// IsTerminal reports whether the item is closed for ownership changes.
func (w *WorkItem) IsTerminal() bool {
	if w.Released {
		return true
	}
	return IsTerminalStatus(w.Kind, w.Status)
}

// Ownership derives the ownership state.
func (w *WorkItem) Ownership() OwnershipState {
	switch {
	case w.Released || (w.Kind == WorkItemSession && w.Status == SessionStatusReleased):
		return OwnershipReleased
	case w.OwnerID == "":
		return OwnershipUnowned
	default:
		return OwnershipOwned
	}
}

// IsTerminalStatus reports terminal business statuses per kind.
func IsTerminalStatus(kind WorkItemKind, status string) bool {
	switch kind {
	case WorkItemLead:
		return status == LeadStatusEnrolled || status == LeadStatusRejected
	case WorkItemSession:
		return status == SessionStatusCompleted || status == SessionStatusCancelled || status == SessionStatusReleased
	}
	return false
}

// TerminalStatuses lists terminal statuses for kind, used by store queries.
func TerminalStatuses(kind WorkItemKind) []string {
	switch kind {
	case WorkItemLead:
		return []string{LeadStatusEnrolled, LeadStatusRejected}
	case WorkItemSession:
		return []string{SessionStatusCompleted, SessionStatusCancelled, SessionStatusReleased}
	}
	return nil
}
