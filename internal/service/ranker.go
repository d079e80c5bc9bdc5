package service

import (
	"context"
	"sort"

	"github.com/spec-kit/counselor-presence/internal/domain"
	"github.com/spec-kit/counselor-presence/internal/repository"
	apperrors "github.com/spec-kit/counselor-presence/pkg/util/errorutil"
)

// CandidateRanker orders eligible counselors for a work item.
type CandidateRanker struct {
	counselors repository.CounselorRepository
	workItems  repository.WorkItemRepository
	presence   *PresenceService
}

// RankerDependencies bundles collaborators for the ranker.
type RankerDependencies struct {
	CounselorRepo repository.CounselorRepository
	WorkItemRepo  repository.WorkItemRepository
	Presence      *PresenceService
}

// NewCandidateRanker constructs the ranker.
func NewCandidateRanker(deps RankerDependencies) *CandidateRanker {
	return &CandidateRanker{
		counselors: deps.CounselorRepo,
		workItems:  deps.WorkItemRepo,
		presence:   deps.Presence,
	}
}

// RankCandidates loads the work item and ranks targets for it.
func (r *CandidateRanker) RankCandidates(ctx context.Context, workItemID string, excluding []string) ([]domain.Candidate, error) {
	item, err := r.workItems.GetByID(ctx, workItemID)
	if err != nil {
		return nil, storeError(err, "work item", map[string]any{"work_item_id": workItemID})
	}
	if item.IsTerminal() {
		return nil, apperrors.NewTerminalItem(map[string]any{"work_item_id": item.ID, "status": item.Status})
	}
	return r.RankFor(ctx, item, excluding)
}

// RankFor ranks targets for an already loaded work item. The current owner is
// always excluded.
func (r *CandidateRanker) RankFor(ctx context.Context, item *domain.WorkItem, excluding []string) ([]domain.Candidate, error) {
	active := domain.AvailabilityActive
	counselors, err := r.counselors.List(ctx, repository.CounselorFilter{Availability: &active})
	if err != nil {
		return nil, storeError(err, "counselors", nil)
	}
	loads, err := r.workItems.LoadByCounselor(ctx)
	if err != nil {
		return nil, storeError(err, "work items", nil)
	}
	presence, err := r.presence.Snapshot(ctx, counselors, r.presence.Now())
	if err != nil {
		return nil, err
	}
	return RankCandidates(item, counselors, loads, presence, excluding), nil
}

// RankCandidates is the pure ranking step. Language and expertise are soft
// preferences: they order candidates but never filter them out. Order is
// language match, expertise overlap desc, load asc, then id.
func RankCandidates(item *domain.WorkItem, counselors []domain.Counselor, loads map[string]int, presence map[string]domain.Presence, excluding []string) []domain.Candidate {
	skip := make(map[string]struct{}, len(excluding)+1)
	for _, id := range excluding {
		skip[id] = struct{}{}
	}
	if item.OwnerID != "" {
		skip[item.OwnerID] = struct{}{}
	}

	candidates := make([]domain.Candidate, 0, len(counselors))
	for i := range counselors {
		c := &counselors[i]
		if _, excluded := skip[c.ID]; excluded {
			continue
		}
		status := domain.PresenceOffline
		if p, ok := presence[c.ID]; ok {
			status = p.Status
		}
		capacity := ComputeCapacity(c, loads[c.ID], status)
		if !capacity.Eligible {
			continue
		}
		candidates = append(candidates, domain.Candidate{
			Counselor:        *c,
			LanguageMatch:    c.SpeaksLanguage(item.PreferredLanguage),
			ExpertiseOverlap: c.ExpertiseOverlap(item.RequiredExpertise),
			Capacity:         capacity,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.LanguageMatch != b.LanguageMatch {
			return a.LanguageMatch
		}
		if a.ExpertiseOverlap != b.ExpertiseOverlap {
			return a.ExpertiseOverlap > b.ExpertiseOverlap
		}
		if a.Capacity.RawLoadPercentage != b.Capacity.RawLoadPercentage {
			return a.Capacity.RawLoadPercentage < b.Capacity.RawLoadPercentage
		}
		return a.Counselor.ID < b.Counselor.ID
	})
	return candidates
}
