package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/counselor-presence/internal/domain"
	"github.com/spec-kit/counselor-presence/internal/events"
	"github.com/spec-kit/counselor-presence/internal/observability"
	"github.com/spec-kit/counselor-presence/internal/repository"
	apperrors "github.com/spec-kit/counselor-presence/pkg/util/errorutil"
)

// ReassignmentService moves work item ownership between counselors.
type ReassignmentService struct {
	counselors repository.CounselorRepository
	workItems  repository.WorkItemRepository
	audit      repository.ReassignmentRepository
	presence   *PresenceService
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// ReassignmentDependencies bundles collaborators for reassignment.
type ReassignmentDependencies struct {
	CounselorRepo    repository.CounselorRepository
	WorkItemRepo     repository.WorkItemRepository
	ReassignmentRepo repository.ReassignmentRepository
	Presence         *PresenceService
	Dispatcher       events.Dispatcher
	Logger           *zap.Logger
	Metrics          *observability.Metrics
}

// ReassignInput describes one ownership change.
type ReassignInput struct {
	WorkItemID    string
	ToCounselorID string
	Reason        string
	Trigger       domain.ReassignmentTrigger
	ActorID       string
	ActorRole     domain.Role
	// ExpectedOwner, when set, must still own the item; otherwise the move
	// fails with CONFLICT.
	ExpectedOwner string
}

// BatchReassignInput applies one target to many items.
type BatchReassignInput struct {
	WorkItemIDs   []string
	ToCounselorID string
	Reason        string
	Trigger       domain.ReassignmentTrigger
	ActorID       string
	ActorRole     domain.Role
}

// ItemResult is the outcome for one item of a batch.
type ItemResult struct {
	WorkItemID string
	WorkItem   *domain.WorkItem
	Err        error
}

// OK reports whether the item was reassigned.
func (r ItemResult) OK() bool {
	return r.Err == nil
}

// NewReassignmentService constructs the service.
func NewReassignmentService(deps ReassignmentDependencies) *ReassignmentService {
	s := &ReassignmentService{
		counselors: deps.CounselorRepo,
		workItems:  deps.WorkItemRepo,
		audit:      deps.ReassignmentRepo,
		presence:   deps.Presence,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		metrics:    deps.Metrics,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// Reassign transfers one work item to another counselor. Checks run in a
// fixed order so callers always see the most fundamental failure first.
func (s *ReassignmentService) Reassign(ctx context.Context, input ReassignInput) (*domain.WorkItem, error) {
	if input.Trigger == "" {
		input.Trigger = domain.TriggerManual
	}
	item, err := s.reassign(ctx, input)
	s.metrics.RecordReassignment(string(input.Trigger), outcome(err))
	return item, err
}

func (s *ReassignmentService) reassign(ctx context.Context, input ReassignInput) (*domain.WorkItem, error) {
	if strings.TrimSpace(input.WorkItemID) == "" {
		return nil, apperrors.NewValidationError("work item id is required", nil)
	}
	if strings.TrimSpace(input.ToCounselorID) == "" {
		return nil, apperrors.NewValidationError("target counselor id is required", nil)
	}
	if !input.Trigger.Valid() {
		return nil, apperrors.NewValidationError("unknown trigger", map[string]any{"trigger": input.Trigger})
	}

	item, err := s.workItems.GetByID(ctx, input.WorkItemID)
	if err != nil {
		return nil, storeError(err, "work item", map[string]any{"work_item_id": input.WorkItemID})
	}
	if item.IsTerminal() {
		return nil, apperrors.NewTerminalItem(map[string]any{"work_item_id": item.ID, "status": item.Status})
	}
	if input.ExpectedOwner != "" && input.ExpectedOwner != item.OwnerID {
		return nil, apperrors.NewConflict("work item owner changed since it was observed", map[string]any{
			"work_item_id":   item.ID,
			"expected_owner": input.ExpectedOwner,
			"current_owner":  item.OwnerID,
		})
	}
	target, err := s.counselors.GetByID(ctx, input.ToCounselorID)
	if err != nil {
		return nil, storeError(err, "counselor", map[string]any{"counselor_id": input.ToCounselorID})
	}
	if item.OwnerID == target.ID {
		return nil, apperrors.NewSameOwner(map[string]any{"work_item_id": item.ID, "counselor_id": target.ID})
	}
	now := s.presence.Now()
	snapshot, err := s.presence.Snapshot(ctx, []domain.Counselor{*target}, now)
	if err != nil {
		return nil, err
	}
	status := snapshot[target.ID].Status
	if !IsEligible(target, status) {
		return nil, apperrors.NewIneligibleTarget("target counselor cannot receive work", map[string]any{
			"counselor_id": target.ID,
			"availability": target.Availability,
			"status":       status,
		})
	}

	record := &domain.ReassignmentRecord{
		ID:              uuid.NewString(),
		WorkItemID:      item.ID,
		WorkItemKind:    item.Kind,
		FromCounselorID: item.OwnerID,
		ToCounselorID:   target.ID,
		Reason:          strings.TrimSpace(input.Reason),
		Trigger:         input.Trigger,
		ActorID:         input.ActorID,
		Timestamp:       now,
	}
	updated, err := s.workItems.TransferOwnership(ctx, repository.OwnershipTransfer{
		ItemID:        item.ID,
		Kind:          item.Kind,
		ExpectedOwner: item.OwnerID,
		ToCounselorID: target.ID,
		AutoAssigned:  input.Trigger == domain.TriggerAlertDriven,
		Record:        record,
	})
	if err != nil {
		return nil, transferError(err, item.ID)
	}

	s.logger.Info("work item reassigned",
		zap.String("work_item_id", item.ID),
		zap.String("from", record.FromCounselorID),
		zap.String("to", record.ToCounselorID),
		zap.String("trigger", string(record.Trigger)))
	s.emit(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventWorkItemReassigned,
		SubjectID: item.ID,
		Actor:     actorFor(input.ActorRole, input.ActorID),
		Timestamp: now,
		Payload: events.WorkItemReassignedPayload{
			WorkItemID:      item.ID,
			WorkItemKind:    item.Kind,
			FromCounselorID: record.FromCounselorID,
			ToCounselorID:   record.ToCounselorID,
			Reason:          record.Reason,
			Trigger:         record.Trigger,
		},
	})
	return updated, nil
}

// ReassignBatch reassigns each item independently. Results keep input order
// and a failure never rolls back or aborts its siblings.
func (s *ReassignmentService) ReassignBatch(ctx context.Context, input BatchReassignInput) []ItemResult {
	results := make([]ItemResult, 0, len(input.WorkItemIDs))
	for _, id := range input.WorkItemIDs {
		item, err := s.Reassign(ctx, ReassignInput{
			WorkItemID:    id,
			ToCounselorID: input.ToCounselorID,
			Reason:        input.Reason,
			Trigger:       input.Trigger,
			ActorID:       input.ActorID,
			ActorRole:     input.ActorRole,
		})
		results = append(results, ItemResult{WorkItemID: id, WorkItem: item, Err: err})
	}
	return results
}

// Release clears the owner and closes the item for further ownership changes.
func (s *ReassignmentService) Release(ctx context.Context, workItemID, reason, actorID string, actorRole domain.Role) (*domain.WorkItem, error) {
	item, err := s.release(ctx, workItemID, reason, actorID, actorRole)
	s.metrics.RecordReassignment("RELEASE", outcome(err))
	return item, err
}

func (s *ReassignmentService) release(ctx context.Context, workItemID, reason, actorID string, actorRole domain.Role) (*domain.WorkItem, error) {
	if strings.TrimSpace(workItemID) == "" {
		return nil, apperrors.NewValidationError("work item id is required", nil)
	}
	item, err := s.workItems.GetByID(ctx, workItemID)
	if err != nil {
		return nil, storeError(err, "work item", map[string]any{"work_item_id": workItemID})
	}
	if item.IsTerminal() {
		return nil, apperrors.NewTerminalItem(map[string]any{"work_item_id": item.ID, "status": item.Status})
	}

	now := s.presence.Now()
	record := &domain.ReassignmentRecord{
		ID:              uuid.NewString(),
		WorkItemID:      item.ID,
		WorkItemKind:    item.Kind,
		FromCounselorID: item.OwnerID,
		Reason:          strings.TrimSpace(reason),
		Trigger:         domain.TriggerManual,
		ActorID:         actorID,
		Timestamp:       now,
	}
	updated, err := s.workItems.TransferOwnership(ctx, repository.OwnershipTransfer{
		ItemID:        item.ID,
		Kind:          item.Kind,
		ExpectedOwner: item.OwnerID,
		Release:       true,
		Record:        record,
	})
	if err != nil {
		return nil, transferError(err, item.ID)
	}

	s.logger.Info("work item released",
		zap.String("work_item_id", item.ID),
		zap.String("from", record.FromCounselorID))
	s.emit(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventWorkItemReleased,
		SubjectID: item.ID,
		Actor:     actorFor(actorRole, actorID),
		Timestamp: now,
		Payload: events.WorkItemReleasedPayload{
			WorkItemID:      item.ID,
			WorkItemKind:    item.Kind,
			FromCounselorID: record.FromCounselorID,
			Reason:          record.Reason,
		},
	})
	return updated, nil
}

// ListReassignments returns the audit trail for a work item, oldest first.
func (s *ReassignmentService) ListReassignments(ctx context.Context, workItemID string) ([]domain.ReassignmentRecord, error) {
	if _, err := s.workItems.GetByID(ctx, workItemID); err != nil {
		return nil, storeError(err, "work item", map[string]any{"work_item_id": workItemID})
	}
	records, err := s.audit.ListByWorkItem(ctx, workItemID)
	if err != nil {
		return nil, storeError(err, "reassignment records", nil)
	}
	return records, nil
}

func (s *ReassignmentService) emit(ctx context.Context, event events.Event) {
	if err := publish(ctx, s.dispatcher, event); err != nil {
		s.logger.Warn("publish event",
			zap.String("type", string(event.Type)),
			zap.String("subject_id", event.SubjectID),
			zap.Error(err))
	}
}

// transferError maps a lost compare-and-set to CONFLICT.
func transferError(err error, itemID string) error {
	if errors.Is(err, repository.ErrOwnerConflict) {
		return apperrors.NewConflict("work item owner changed concurrently", map[string]any{"work_item_id": itemID})
	}
	return storeError(err, "work item", map[string]any{"work_item_id": itemID})
}

func outcome(err error) string {
	if err == nil {
		return "OK"
	}
	return apperrors.CodeOf(err)
}

func actorFor(role domain.Role, id string) events.Actor {
	if id == "" || id == events.SystemActor.ID {
		return events.SystemActor
	}
	return events.Actor{Role: role, ID: id}
}
