package dto

import (
	"time"

	"github.com/spec-kit/counselor-presence/internal/domain"
)

// WorkItemResponse represents a lead or session.
type WorkItemResponse struct {
	ID                string                `json:"id"`
	Kind              domain.WorkItemKind   `json:"kind"`
	OwnerID           *string               `json:"owner_id"`
	Ownership         domain.OwnershipState `json:"ownership"`
	Status            string                `json:"status"`
	Title             string                `json:"title,omitempty"`
	PreferredLanguage string                `json:"preferred_language,omitempty"`
	RequiredExpertise []string              `json:"required_expertise,omitempty"`
	AutoAssigned      bool                  `json:"auto_assigned"`
	LeadID            string                `json:"lead_id,omitempty"`
	ScheduledDate     *time.Time            `json:"scheduled_date,omitempty"`
	UpdatedAt         time.Time             `json:"updated_at"`
}

// ReassignRequest payload.
type ReassignRequest struct {
	ToCounselorID string                     `json:"to_counselor_id"`
	Reason        string                     `json:"reason"`
	Trigger       domain.ReassignmentTrigger `json:"trigger"`
}

// BatchReassignRequest payload.
type BatchReassignRequest struct {
	WorkItemIDs   []string                   `json:"work_item_ids"`
	ToCounselorID string                     `json:"to_counselor_id"`
	Reason        string                     `json:"reason"`
	Trigger       domain.ReassignmentTrigger `json:"trigger"`
}

// ReleaseRequest payload.
type ReleaseRequest struct {
	Reason string `json:"reason"`
}

// ErrorBody mirrors the error envelope used by the error middleware.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ItemResultResponse is one entry of a batch response.
type ItemResultResponse struct {
	WorkItemID string            `json:"work_item_id"`
	OK         bool              `json:"ok"`
	WorkItem   *WorkItemResponse `json:"work_item,omitempty"`
	Error      *ErrorBody        `json:"error,omitempty"`
}

// BatchReassignResponse summarizes a batch.
type BatchReassignResponse struct {
	Results   []ItemResultResponse `json:"results"`
	Succeeded int                  `json:"succeeded"`
	Failed    int                  `json:"failed"`
}

// CandidateResponse is one ranked target.
type CandidateResponse struct {
	CounselorID      string           `json:"counselor_id"`
	Name             string           `json:"name"`
	LanguageMatch    bool             `json:"language_match"`
	ExpertiseOverlap int              `json:"expertise_overlap"`
	Capacity         CapacityResponse `json:"capacity"`
}

// ReassignmentRecordResponse is one audit entry.
type ReassignmentRecordResponse struct {
	ID              string                     `json:"id"`
	WorkItemID      string                     `json:"work_item_id"`
	WorkItemKind    domain.WorkItemKind        `json:"work_item_kind"`
	FromCounselorID *string                    `json:"from_counselor_id"`
	ToCounselorID   *string                    `json:"to_counselor_id"`
	Reason          string                     `json:"reason,omitempty"`
	Trigger         domain.ReassignmentTrigger `json:"trigger"`
	ActorID         string                     `json:"actor_id"`
	Timestamp       time.Time                  `json:"timestamp"`
}
