package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/spec-kit/counselor-presence/internal/domain"
	"github.com/spec-kit/counselor-presence/internal/events"
	apperrors "github.com/spec-kit/counselor-presence/pkg/util/errorutil"
)

func TestReassign_MovesOwnerAndLoad(t *testing.T) {
	h := newHarness(t)
	h.counselor("alice", 5, time.Hour)
	h.counselor("bob", 5, time.Minute)
	h.lead("l1", "alice")
	h.lead("l2", "alice")
	ctx := context.Background()

	item, err := h.reassign.Reassign(ctx, ReassignInput{
		WorkItemID:    "l1",
		ToCounselorID: "bob",
		Reason:        "alice offline",
		ActorID:       "op-1",
		ActorRole:     domain.RoleOperator,
	})
	if err != nil {
		t.Fatalf("Reassign: %v", err)
	}
	if item.OwnerID != "bob" || item.AutoAssigned {
		t.Errorf("item owner = %s auto = %v, want bob/false", item.OwnerID, item.AutoAssigned)
	}

	aliceCap, _ := h.capacity.Capacity(ctx, "alice")
	bobCap, _ := h.capacity.Capacity(ctx, "bob")
	if aliceCap.CurrentLoad != 1 || bobCap.CurrentLoad != 1 {
		t.Errorf("loads = alice %d bob %d, want 1/1", aliceCap.CurrentLoad, bobCap.CurrentLoad)
	}

	records, err := h.reassign.ListReassignments(ctx, "l1")
	if err != nil {
		t.Fatalf("ListReassignments: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	rec := records[0]
	if rec.FromCounselorID != "alice" || rec.ToCounselorID != "bob" || rec.Trigger != domain.TriggerManual || rec.ActorID != "op-1" {
		t.Errorf("record = %+v", rec)
	}
	if !rec.Timestamp.Equal(baseTime) || rec.ID == "" {
		t.Errorf("record timestamp/id = %v/%q", rec.Timestamp, rec.ID)
	}
	if got := h.recorder.count(events.EventWorkItemReassigned); got != 1 {
		t.Errorf("reassigned events = %d, want 1", got)
	}
	if got := h.metrics.Snapshot().Reassignments["MANUAL|OK"]; got != 1 {
		t.Errorf("metrics MANUAL|OK = %d, want 1", got)
	}
}

func TestReassign_Errors(t *testing.T) {
	h := newHarness(t)
	h.counselor("alice", 5, time.Hour)
	h.counselor("bob", 5, time.Minute)
	h.counselor("gone", 5, 2*time.Hour)
	h.store.PutCounselor(domain.Counselor{ID: "toggled", Availability: domain.AvailabilityInactive, MaxCapacity: 5})
	h.lead("l1", "alice")
	h.store.PutWorkItem(domain.WorkItem{ID: "done", Kind: domain.WorkItemLead, OwnerID: "alice", Status: domain.LeadStatusEnrolled})
	h.store.PutWorkItem(domain.WorkItem{ID: "bobs", Kind: domain.WorkItemSession, OwnerID: "bob", Status: domain.SessionStatusScheduled})

	tests := []struct {
		name string
		in   ReassignInput
		want string
	}{
		{"missing item", ReassignInput{WorkItemID: "nope", ToCounselorID: "bob"}, apperrors.CodeNotFound},
		{"terminal before missing target", ReassignInput{WorkItemID: "done", ToCounselorID: "ghost"}, apperrors.CodeTerminalItem},
		{"missing target", ReassignInput{WorkItemID: "l1", ToCounselorID: "ghost"}, apperrors.CodeNotFound},
		{"same owner", ReassignInput{WorkItemID: "bobs", ToCounselorID: "bob"}, apperrors.CodeSameOwner},
		{"offline target", ReassignInput{WorkItemID: "l1", ToCounselorID: "gone"}, apperrors.CodeIneligibleTarget},
		{"toggled off target", ReassignInput{WorkItemID: "l1", ToCounselorID: "toggled"}, apperrors.CodeIneligibleTarget},
		{"empty target", ReassignInput{WorkItemID: "l1"}, apperrors.CodeValidationFailed},
		{"bad trigger", ReassignInput{WorkItemID: "l1", ToCounselorID: "bob", Trigger: "WHIM"}, apperrors.CodeValidationFailed},
		{"stale expected owner", ReassignInput{WorkItemID: "l1", ToCounselorID: "bob", ExpectedOwner: "bob"}, apperrors.CodeConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.reassign.Reassign(context.Background(), tt.in)
			assertCode(t, err, tt.want)
		})
	}
	if owner := h.ownerOf(t, "l1"); owner != "alice" {
		t.Errorf("owner = %s, failed reassigns must not move the item", owner)
	}
	if n := len(h.store.Records()); n != 0 {
		t.Errorf("records = %d, want 0", n)
	}
}

func TestReassign_ConcurrentExactlyOneWins(t *testing.T) {
	h := newHarness(t)
	h.counselor("alice", 5, time.Hour)
	h.counselor("bob", 50, time.Minute)
	h.lead("l1", "alice")

	const workers = 16
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.reassign.Reassign(context.Background(), ReassignInput{
				WorkItemID:    "l1",
				ToCounselorID: "bob",
				ActorID:       fmt.Sprintf("op-%d", i),
			})
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		code := apperrors.CodeOf(err)
		if code != apperrors.CodeConflict && code != apperrors.CodeSameOwner {
			t.Errorf("loser code = %s, want CONFLICT or SAME_OWNER", code)
		}
	}
	if wins != 1 {
		t.Errorf("wins = %d, want 1", wins)
	}
	if n := len(h.store.Records()); n != 1 {
		t.Errorf("records = %d, want 1", n)
	}
}

func TestReassignBatch_OneTerminalItem(t *testing.T) {
	h := newHarness(t)
	h.counselor("alice", 5, time.Hour)
	h.counselor("bob", 5, time.Minute)
	h.lead("l1", "alice")
	h.store.PutWorkItem(domain.WorkItem{ID: "l2", Kind: domain.WorkItemLead, OwnerID: "alice", Status: domain.LeadStatusRejected})
	h.lead("l3", "alice")

	results := h.reassign.ReassignBatch(context.Background(), BatchReassignInput{
		WorkItemIDs:   []string{"l1", "l2", "l3"},
		ToCounselorID: "bob",
		Trigger:       domain.TriggerManual,
		ActorID:       "op-1",
	})
	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}
	for i, id := range []string{"l1", "l2", "l3"} {
		if results[i].WorkItemID != id {
			t.Errorf("results[%d] = %s, want %s (input order)", i, results[i].WorkItemID, id)
		}
	}
	if !results[0].OK() || !results[2].OK() {
		t.Errorf("siblings failed: %v / %v", results[0].Err, results[2].Err)
	}
	if results[1].OK() || apperrors.CodeOf(results[1].Err) != apperrors.CodeTerminalItem {
		t.Errorf("results[1] err = %v, want TERMINAL_ITEM", results[1].Err)
	}
	if h.ownerOf(t, "l1") != "bob" || h.ownerOf(t, "l3") != "bob" || h.ownerOf(t, "l2") != "alice" {
		t.Error("owners do not reflect per-item outcome")
	}
}

func TestRelease(t *testing.T) {
	h := newHarness(t)
	h.counselor("alice", 5, time.Hour)
	h.counselor("bob", 5, time.Minute)
	h.store.PutWorkItem(domain.WorkItem{ID: "s1", Kind: domain.WorkItemSession, OwnerID: "alice", Status: domain.SessionStatusScheduled})
	ctx := context.Background()

	item, err := h.reassign.Release(ctx, "s1", "no longer needed", "op-1", domain.RoleOperator)
	if err != nil {
		t.Fatalf("Release: %v", err)
	}
	if item.Ownership() != domain.OwnershipReleased || item.OwnerID != "" {
		t.Errorf("ownership = %s owner = %q, want RELEASED/empty", item.Ownership(), item.OwnerID)
	}

	_, err = h.reassign.Release(ctx, "s1", "", "op-1", domain.RoleOperator)
	assertCode(t, err, apperrors.CodeTerminalItem)
	_, err = h.reassign.Reassign(ctx, ReassignInput{WorkItemID: "s1", ToCounselorID: "bob"})
	assertCode(t, err, apperrors.CodeTerminalItem)

	records, _ := h.reassign.ListReassignments(ctx, "s1")
	if len(records) != 1 || records[0].ToCounselorID != "" || records[0].FromCounselorID != "alice" {
		t.Errorf("records = %+v, want one release record from alice", records)
	}
	if got := h.recorder.count(events.EventWorkItemReleased); got != 1 {
		t.Errorf("released events = %d, want 1", got)
	}
}

func TestListReassignments_Order(t *testing.T) {
	h := newHarness(t)
	h.counselor("alice", 5, time.Minute)
	h.counselor("bob", 5, time.Minute)
	h.lead("l1", "alice")
	ctx := context.Background()

	for _, to := range []string{"bob", "alice", "bob"} {
		h.clock.Advance(time.Second)
		if _, err := h.reassign.Reassign(ctx, ReassignInput{WorkItemID: "l1", ToCounselorID: to}); err != nil {
			t.Fatalf("Reassign to %s: %v", to, err)
		}
	}
	records, err := h.reassign.ListReassignments(ctx, "l1")
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 {
		t.Fatalf("records = %d, want 3", len(records))
	}
	for i := 1; i < len(records); i++ {
		if records[i].Timestamp.Before(records[i-1].Timestamp) {
			t.Errorf("records out of order at %d", i)
		}
	}

	_, err = h.reassign.ListReassignments(ctx, "missing")
	assertCode(t, err, apperrors.CodeNotFound)
}
