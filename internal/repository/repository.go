package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/spec-kit/counselor-presence/internal/domain"
)

var (
	// ErrNotFound is returned when a counselor, presence record or work item is missing.
	ErrNotFound = errors.New("record not found")
	// ErrOwnerConflict is returned when a compare-and-set on a work item owner loses.
	ErrOwnerConflict = errors.New("work item owner changed concurrently")
)

// validID reports whether id can name a row. Every key in the postgres
// schema is a uuid, so anything else cannot exist.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// CounselorRepository reads the counselor directory. It never writes.
type CounselorRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Counselor, error)
	List(ctx context.Context, filter CounselorFilter) ([]domain.Counselor, error)
}

// CounselorFilter defines query params for directory listing.
type CounselorFilter struct {
	Availability *domain.Availability
	Limit        int
	Offset       int
}

// PresenceMutator edits a presence record in place. Returning an error aborts the write.
type PresenceMutator func(p *domain.Presence) error

// PresenceRepository owns the presence sub-record of each counselor.
type PresenceRepository interface {
	Get(ctx context.Context, counselorID string) (*domain.Presence, error)
	List(ctx context.Context, counselorIDs []string) (map[string]domain.Presence, error)
	// Upsert runs fn against the current record (or a zero record carrying only
	// CounselorID) under a row lock and persists the result.
	Upsert(ctx context.Context, counselorID string, fn PresenceMutator) (*domain.Presence, error)
}

// OwnershipTransfer describes one compare-and-set on a work item owner.
type OwnershipTransfer struct {
	ItemID        string
	Kind          domain.WorkItemKind
	ExpectedOwner string
	ToCounselorID string
	AutoAssigned  bool
	Release       bool
	// Record is appended in the same unit of work as the owner swap.
	Record *domain.ReassignmentRecord
}

// WorkItemRepository reads leads and sessions and writes only their owner.
type WorkItemRepository interface {
	GetByID(ctx context.Context, id string) (*domain.WorkItem, error)
	// ListOwnedBy returns non-terminal items owned by the counselor.
	ListOwnedBy(ctx context.Context, counselorID string) ([]domain.WorkItem, error)
	// LoadByCounselor counts non-terminal owned items per counselor.
	LoadByCounselor(ctx context.Context) (map[string]int, error)
	// TransferOwnership fails with ErrOwnerConflict when the owner is no longer
	// ExpectedOwner or the item became terminal in between.
	TransferOwnership(ctx context.Context, transfer OwnershipTransfer) (*domain.WorkItem, error)
}

// ReassignmentRepository reads the append-only audit trail.
type ReassignmentRepository interface {
	ListByWorkItem(ctx context.Context, workItemID string) ([]domain.ReassignmentRecord, error)
}
