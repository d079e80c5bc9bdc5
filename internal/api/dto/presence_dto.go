package dto

import (
	"time"

	"github.com/spec-kit/counselor-presence/internal/domain"
)

// PresenceResponse is the derived presence view.
type PresenceResponse struct {
	CounselorID        string                `json:"counselor_id"`
	Status             domain.PresenceStatus `json:"status"`
	LastLoginAt        *time.Time            `json:"last_login_at"`
	LastActivityAt     *time.Time            `json:"last_activity_at"`
	ActiveMinutesToday int                   `json:"active_minutes_today"`
	TotalActiveMinutes int                   `json:"total_active_minutes"`
	ActiveDay          string                `json:"active_day,omitempty"`
}

// CapacityResponse summarizes counselor workload.
type CapacityResponse struct {
	CounselorID       string                `json:"counselor_id"`
	CurrentLoad       int                   `json:"current_load"`
	MaxCapacity       int                   `json:"max_capacity"`
	LoadPercentage    float64               `json:"load_percentage"`
	RawLoadPercentage float64               `json:"raw_load_percentage"`
	OverCapacity      bool                  `json:"over_capacity"`
	Status            domain.PresenceStatus `json:"status"`
	Eligible          bool                  `json:"eligible"`
}

// AlertResponse is one inactivity alert.
type AlertResponse struct {
	CounselorID          string                `json:"counselor_id"`
	CounselorName        string                `json:"counselor_name"`
	CurrentStatus        domain.PresenceStatus `json:"current_status"`
	InactiveMinutes      int                   `json:"inactive_minutes"`
	LastActivityAt       *time.Time            `json:"last_activity_at"`
	AffectedWorkItems    []WorkItemResponse    `json:"affected_work_items"`
	RequiresReassignment bool                  `json:"requires_reassignment"`
}

// ScanResponse wraps one scan result.
type ScanResponse struct {
	ScannedAt time.Time             `json:"scanned_at"`
	Threshold domain.PresenceStatus `json:"threshold"`
	Alerts    []AlertResponse       `json:"alerts"`
}
