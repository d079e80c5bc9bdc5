package handlers

import (
	"time"

	"github.com/spec-kit/counselor-presence/internal/api/dto"
	"github.com/spec-kit/counselor-presence/internal/domain"
)

func presenceResponse(p *domain.Presence) dto.PresenceResponse {
	return dto.PresenceResponse{
		CounselorID:        p.CounselorID,
		Status:             p.Status,
		LastLoginAt:        optionalTime(p.LastLoginAt),
		LastActivityAt:     optionalTime(p.LastActivityAt),
		ActiveMinutesToday: p.ActiveMinutesToday(),
		TotalActiveMinutes: p.TotalActiveMinutes(),
		ActiveDay:          p.ActiveDay,
	}
}

func capacityResponse(c *domain.Capacity) dto.CapacityResponse {
	return dto.CapacityResponse{
		CounselorID:       c.CounselorID,
		CurrentLoad:       c.CurrentLoad,
		MaxCapacity:       c.MaxCapacity,
		LoadPercentage:    c.LoadPercentage,
		RawLoadPercentage: c.RawLoadPercentage,
		OverCapacity:      c.OverCapacity,
		Status:            c.Status,
		Eligible:          c.Eligible,
	}
}

func workItemResponse(item *domain.WorkItem) dto.WorkItemResponse {
	return dto.WorkItemResponse{
		ID:                item.ID,
		Kind:              item.Kind,
		OwnerID:           optionalString(item.OwnerID),
		Ownership:         item.Ownership(),
		Status:            item.Status,
		Title:             item.Title,
		PreferredLanguage: item.PreferredLanguage,
		RequiredExpertise: item.RequiredExpertise,
		AutoAssigned:      item.AutoAssigned,
		LeadID:            item.LeadID,
		ScheduledDate:     item.ScheduledDate,
		UpdatedAt:         item.UpdatedAt,
	}
}

func workItemResponses(items []domain.WorkItem) []dto.WorkItemResponse {
	out := make([]dto.WorkItemResponse, 0, len(items))
	for i := range items {
		out = append(out, workItemResponse(&items[i]))
	}
	return out
}

func alertResponse(a *domain.Alert) dto.AlertResponse {
	return dto.AlertResponse{
		CounselorID:          a.CounselorID,
		CounselorName:        a.CounselorName,
		CurrentStatus:        a.CurrentStatus,
		InactiveMinutes:      a.InactiveMinutes,
		LastActivityAt:       optionalTime(a.LastActivityAt),
		AffectedWorkItems:    workItemResponses(a.AffectedWorkItems),
		RequiresReassignment: a.RequiresReassignment,
	}
}

func candidateResponse(c *domain.Candidate) dto.CandidateResponse {
	return dto.CandidateResponse{
		CounselorID:      c.Counselor.ID,
		Name:             c.Counselor.Name,
		LanguageMatch:    c.LanguageMatch,
		ExpertiseOverlap: c.ExpertiseOverlap,
		Capacity:         capacityResponse(&c.Capacity),
	}
}

func recordResponse(r *domain.ReassignmentRecord) dto.ReassignmentRecordResponse {
	return dto.ReassignmentRecordResponse{
		ID:              r.ID,
		WorkItemID:      r.WorkItemID,
		WorkItemKind:    r.WorkItemKind,
		FromCounselorID: optionalString(r.FromCounselorID),
		ToCounselorID:   optionalString(r.ToCounselorID),
		Reason:          r.Reason,
		Trigger:         r.Trigger,
		ActorID:         r.ActorID,
		Timestamp:       r.Timestamp,
	}
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
