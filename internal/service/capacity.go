package service

import (
	"context"

	"github.com/spec-kit/counselor-presence/internal/domain"
	"github.com/spec-kit/counselor-presence/internal/repository"
)

// CapacityModel computes load and reassignment eligibility.
type CapacityModel struct {
	counselors repository.CounselorRepository
	workItems  repository.WorkItemRepository
	presence   *PresenceService
}

// CapacityDependencies bundles collaborators for the capacity model.
type CapacityDependencies struct {
	CounselorRepo repository.CounselorRepository
	WorkItemRepo  repository.WorkItemRepository
	Presence      *PresenceService
}

// NewCapacityModel constructs the model.
func NewCapacityModel(deps CapacityDependencies) *CapacityModel {
	return &CapacityModel{
		counselors: deps.CounselorRepo,
		workItems:  deps.WorkItemRepo,
		presence:   deps.Presence,
	}
}

// Capacity reports a counselor's current load, presence and eligibility.
func (m *CapacityModel) Capacity(ctx context.Context, counselorID string) (*domain.Capacity, error) {
	counselor, err := m.counselors.GetByID(ctx, counselorID)
	if err != nil {
		return nil, storeError(err, "counselor", map[string]any{"counselor_id": counselorID})
	}
	return m.capacityOf(ctx, counselor)
}

func (m *CapacityModel) capacityOf(ctx context.Context, counselor *domain.Counselor) (*domain.Capacity, error) {
	owned, err := m.workItems.ListOwnedBy(ctx, counselor.ID)
	if err != nil {
		return nil, storeError(err, "work items", nil)
	}
	now := m.presence.Now()
	snapshot, err := m.presence.Snapshot(ctx, []domain.Counselor{*counselor}, now)
	if err != nil {
		return nil, err
	}
	result := ComputeCapacity(counselor, len(owned), snapshot[counselor.ID].Status)
	return &result, nil
}

// ComputeCapacity is the pure load calculation. LoadPercentage is clamped to
// [0,100]; RawLoadPercentage keeps the unclamped ratio for ordering. A
// counselor is eligible when the operator toggle is ACTIVE and presence is
// not OFFLINE; being at or over capacity never blocks eligibility.
func ComputeCapacity(counselor *domain.Counselor, load int, status domain.PresenceStatus) domain.Capacity {
	if load < 0 {
		load = 0
	}
	maxCap := counselor.Capacity()
	raw := float64(load) / float64(maxCap) * 100
	pct := raw
	if pct > 100 {
		pct = 100
	}
	return domain.Capacity{
		CounselorID:       counselor.ID,
		CurrentLoad:       load,
		MaxCapacity:       maxCap,
		LoadPercentage:    pct,
		RawLoadPercentage: raw,
		OverCapacity:      load > maxCap,
		Status:            status,
		Eligible:          IsEligible(counselor, status),
	}
}

// IsEligible reports whether a counselor may receive reassigned work.
func IsEligible(counselor *domain.Counselor, status domain.PresenceStatus) bool {
	return counselor.IsAvailable() && status != domain.PresenceOffline
}
