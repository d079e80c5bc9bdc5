// Package memory provides a mutex-guarded store implementing every repository
// interface. It backs dev mode when no Postgres DSN is configured, and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/spec-kit/counselor-presence/internal/domain"
	"github.com/spec-kit/counselor-presence/internal/repository"
)

// Store holds counselors, presence, work items and the audit trail.
type Store struct {
	mu         sync.RWMutex
	counselors map[string]domain.Counselor
	presence   map[string]domain.Presence
	items      map[string]domain.WorkItem
	records    []domain.ReassignmentRecord
	now        func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		counselors: make(map[string]domain.Counselor),
		presence:   make(map[string]domain.Presence),
		items:      make(map[string]domain.WorkItem),
		now:        time.Now,
	}
}

// PutCounselor inserts or replaces a directory entry.
func (s *Store) PutCounselor(c domain.Counselor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counselors[c.ID] = cloneCounselor(c)
}

// PutPresence seeds a presence record.
func (s *Store) PutPresence(p domain.Presence) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.Status = ""
	s.presence[p.CounselorID] = p
}

// PutWorkItem inserts or replaces a lead or session.
func (s *Store) PutWorkItem(item domain.WorkItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item.ID] = cloneItem(item)
}

// SetWorkItemStatus changes business status, as the CRM would when a lead enrolls.
func (s *Store) SetWorkItemStatus(id, status string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return false
	}
	item.Status = status
	item.UpdatedAt = s.now()
	s.items[id] = item
	return true
}

// Records returns a copy of the audit trail.
func (s *Store) Records() []domain.ReassignmentRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.ReassignmentRecord(nil), s.records...)
}

// Counselors returns the directory view.
func (s *Store) Counselors() repository.CounselorRepository { return counselorView{s} }

// Presence returns the presence view.
func (s *Store) Presence() repository.PresenceRepository { return presenceView{s} }

// WorkItems returns the lead/session view.
func (s *Store) WorkItems() repository.WorkItemRepository { return workItemView{s} }

// Reassignments returns the audit view.
func (s *Store) Reassignments() repository.ReassignmentRepository { return reassignmentView{s} }

type counselorView struct{ s *Store }

func (v counselorView) GetByID(_ context.Context, id string) (*domain.Counselor, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	c, ok := v.s.counselors[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c = cloneCounselor(c)
	return &c, nil
}

func (v counselorView) List(_ context.Context, filter repository.CounselorFilter) ([]domain.Counselor, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	result := make([]domain.Counselor, 0, len(v.s.counselors))
	for _, c := range v.s.counselors {
		if filter.Availability != nil && c.Availability != *filter.Availability {
			continue
		}
		result = append(result, cloneCounselor(c))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })

	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(result) {
		return nil, nil
	}
	result = result[offset:]
	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}
	return result, nil
}

type presenceView struct{ s *Store }

func (v presenceView) Get(_ context.Context, counselorID string) (*domain.Presence, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	p, ok := v.s.presence[counselorID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (v presenceView) List(_ context.Context, counselorIDs []string) (map[string]domain.Presence, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	result := make(map[string]domain.Presence, len(counselorIDs))
	for _, id := range counselorIDs {
		if p, ok := v.s.presence[id]; ok {
			result[id] = p
		}
	}
	return result, nil
}

func (v presenceView) Upsert(_ context.Context, counselorID string, fn repository.PresenceMutator) (*domain.Presence, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	p, ok := v.s.presence[counselorID]
	if !ok {
		p = domain.Presence{CounselorID: counselorID}
	}
	if err := fn(&p); err != nil {
		return nil, err
	}
	p.CounselorID = counselorID
	p.Status = ""
	p.UpdatedAt = v.s.now()
	v.s.presence[counselorID] = p
	return &p, nil
}

type workItemView struct{ s *Store }

func (v workItemView) GetByID(_ context.Context, id string) (*domain.WorkItem, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	item, ok := v.s.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	item = cloneItem(item)
	return &item, nil
}

func (v workItemView) ListOwnedBy(_ context.Context, counselorID string) ([]domain.WorkItem, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	var result []domain.WorkItem
	for _, item := range v.s.items {
		if item.OwnerID == counselorID && !item.IsTerminal() {
			result = append(result, cloneItem(item))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (v workItemView) LoadByCounselor(_ context.Context) (map[string]int, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	loads := make(map[string]int)
	for _, item := range v.s.items {
		if item.OwnerID != "" && !item.IsTerminal() {
			loads[item.OwnerID]++
		}
	}
	return loads, nil
}

func (v workItemView) TransferOwnership(_ context.Context, t repository.OwnershipTransfer) (*domain.WorkItem, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	item, ok := v.s.items[t.ItemID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if item.OwnerID != t.ExpectedOwner || item.IsTerminal() {
		return nil, repository.ErrOwnerConflict
	}

	if t.Release {
		item.OwnerID = ""
		item.Released = true
		if item.Kind == domain.WorkItemSession {
			item.Status = domain.SessionStatusReleased
		}
	} else {
		item.OwnerID = t.ToCounselorID
		item.AutoAssigned = t.AutoAssigned
	}
	item.UpdatedAt = v.s.now()
	v.s.items[item.ID] = item

	if t.Record != nil {
		v.s.records = append(v.s.records, *t.Record)
	}
	item = cloneItem(item)
	return &item, nil
}

type reassignmentView struct{ s *Store }

func (v reassignmentView) ListByWorkItem(_ context.Context, workItemID string) ([]domain.ReassignmentRecord, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	var result []domain.ReassignmentRecord
	for _, rec := range v.s.records {
		if rec.WorkItemID == workItemID {
			result = append(result, rec)
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].Timestamp.Before(result[j].Timestamp) })
	return result, nil
}

func cloneCounselor(c domain.Counselor) domain.Counselor {
	c.Expertise = append([]string(nil), c.Expertise...)
	c.Languages = append([]string(nil), c.Languages...)
	return c
}

func cloneItem(item domain.WorkItem) domain.WorkItem {
	item.RequiredExpertise = append([]string(nil), item.RequiredExpertise...)
	if item.ScheduledDate != nil {
		d := *item.ScheduledDate
		item.ScheduledDate = &d
	}
	return item
}
