package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/spec-kit/counselor-presence/internal/domain"
	"github.com/spec-kit/counselor-presence/internal/repository"
)

func TestTransferOwnership_CompareAndSet(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	s.PutWorkItem(domain.WorkItem{ID: "lead-1", Kind: domain.WorkItemLead, Status: domain.LeadStatusNew, OwnerID: "c1"})

	_, err := s.WorkItems().TransferOwnership(ctx, repository.OwnershipTransfer{
		ItemID: "lead-1", Kind: domain.WorkItemLead, ExpectedOwner: "someone-else", ToCounselorID: "c2",
	})
	if !errors.Is(err, repository.ErrOwnerConflict) {
		t.Fatalf("stale expected owner: err = %v, want ErrOwnerConflict", err)
	}

	item, err := s.WorkItems().TransferOwnership(ctx, repository.OwnershipTransfer{
		ItemID: "lead-1", Kind: domain.WorkItemLead, ExpectedOwner: "c1", ToCounselorID: "c2",
		Record: &domain.ReassignmentRecord{ID: "r1", WorkItemID: "lead-1", FromCounselorID: "c1", ToCounselorID: "c2"},
	})
	if err != nil {
		t.Fatalf("TransferOwnership: %v", err)
	}
	if item.OwnerID != "c2" {
		t.Errorf("OwnerID = %q, want c2", item.OwnerID)
	}
	if got := len(s.Records()); got != 1 {
		t.Errorf("records = %d, want 1", got)
	}
}

func TestTransferOwnership_ConcurrentExactlyOneWins(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	s.PutWorkItem(domain.WorkItem{ID: "lead-1", Kind: domain.WorkItemLead, Status: domain.LeadStatusNew, OwnerID: "c1"})

	const attempts = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			to := "c2"
			if i%2 == 1 {
				to = "c3"
			}
			_, err := s.WorkItems().TransferOwnership(ctx, repository.OwnershipTransfer{
				ItemID: "lead-1", Kind: domain.WorkItemLead, ExpectedOwner: "c1", ToCounselorID: to,
			})
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			} else if !errors.Is(err, repository.ErrOwnerConflict) {
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()
	if wins != 1 {
		t.Fatalf("wins = %d, want exactly 1", wins)
	}
}

func TestTransferOwnership_ReleaseIsTerminal(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	s.PutWorkItem(domain.WorkItem{ID: "sess-1", Kind: domain.WorkItemSession, Status: domain.SessionStatusScheduled, OwnerID: "c1"})

	item, err := s.WorkItems().TransferOwnership(ctx, repository.OwnershipTransfer{
		ItemID: "sess-1", Kind: domain.WorkItemSession, ExpectedOwner: "c1", Release: true,
	})
	if err != nil {
		t.Fatalf("release: %v", err)
	}
	if item.Ownership() != domain.OwnershipReleased || item.OwnerID != "" {
		t.Errorf("after release: ownership=%s owner=%q", item.Ownership(), item.OwnerID)
	}

	_, err = s.WorkItems().TransferOwnership(ctx, repository.OwnershipTransfer{
		ItemID: "sess-1", Kind: domain.WorkItemSession, ExpectedOwner: "", ToCounselorID: "c2",
	})
	if !errors.Is(err, repository.ErrOwnerConflict) {
		t.Errorf("transfer out of RELEASED: err = %v, want ErrOwnerConflict", err)
	}
}

func TestListOwnedBy_ExcludesTerminal(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	s.PutWorkItem(domain.WorkItem{ID: "a", Kind: domain.WorkItemLead, Status: domain.LeadStatusNew, OwnerID: "c1"})
	s.PutWorkItem(domain.WorkItem{ID: "b", Kind: domain.WorkItemLead, Status: domain.LeadStatusEnrolled, OwnerID: "c1"})
	s.PutWorkItem(domain.WorkItem{ID: "c", Kind: domain.WorkItemSession, Status: domain.SessionStatusScheduled, OwnerID: "c1"})
	s.PutWorkItem(domain.WorkItem{ID: "d", Kind: domain.WorkItemSession, Status: domain.SessionStatusScheduled, OwnerID: "c2"})

	items, err := s.WorkItems().ListOwnedBy(ctx, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 || items[0].ID != "a" || items[1].ID != "c" {
		t.Errorf("ListOwnedBy(c1) = %+v, want [a c]", items)
	}

	loads, _ := s.WorkItems().LoadByCounselor(ctx)
	if loads["c1"] != 2 || loads["c2"] != 1 {
		t.Errorf("loads = %v, want c1=2 c2=1", loads)
	}
}
