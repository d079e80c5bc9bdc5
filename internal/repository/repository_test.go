package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/spec-kit/counselor-presence/internal/domain"
)

// The repositories are built on a nil pool: malformed ids must be answered
// without a round trip, so any query would panic.
func TestMalformedIDsAreNotFound(t *testing.T) {
	ctx := context.Background()
	counselors := NewCounselorRepository(nil)
	presence := NewPresenceRepository(nil)
	items := NewWorkItemRepository(nil)
	records := NewReassignmentRepository(nil)

	tests := []struct {
		name string
		call func() error
	}{
		{"counselor", func() error { _, err := counselors.GetByID(ctx, "nope"); return err }},
		{"presence", func() error { _, err := presence.Get(ctx, "c-101"); return err }},
		{"presence upsert", func() error {
			_, err := presence.Upsert(ctx, "c-101", func(*domain.Presence) error { return nil })
			return err
		}},
		{"work item", func() error { _, err := items.GetByID(ctx, "lead 1"); return err }},
		{"transfer item", func() error {
			_, err := items.TransferOwnership(ctx, OwnershipTransfer{ItemID: "x", Kind: domain.WorkItemLead, ToCounselorID: "9b2f0c4e-6a43-4a53-9c33-1f1f3f0b8d11"})
			return err
		}},
		{"transfer target", func() error {
			_, err := items.TransferOwnership(ctx, OwnershipTransfer{ItemID: "9b2f0c4e-6a43-4a53-9c33-1f1f3f0b8d11", Kind: domain.WorkItemLead, ToCounselorID: "bob"})
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !errors.Is(err, ErrNotFound) {
				t.Errorf("err = %v, want ErrNotFound", err)
			}
		})
	}

	owned, err := items.ListOwnedBy(ctx, "alice")
	if err != nil || len(owned) != 0 {
		t.Errorf("ListOwnedBy = %v, %v, want empty", owned, err)
	}
	history, err := records.ListByWorkItem(ctx, "l1")
	if err != nil || len(history) != 0 {
		t.Errorf("ListByWorkItem = %v, %v, want empty", history, err)
	}
}

func TestValidID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"9b2f0c4e-6a43-4a53-9c33-1f1f3f0b8d11", true},
		{"", false},
		{"nope", false},
		{"9b2f0c4e-6a43-4a53-9c33", false},
	}
	for _, tt := range tests {
		if got := validID(tt.id); got != tt.want {
			t.Errorf("validID(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}
