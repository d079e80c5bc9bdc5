package service

import (
	"context"
	"testing"
	"time"

	"github.com/spec-kit/counselor-presence/internal/domain"
)

func TestAutoReassigner_SpreadsWorkByLoad(t *testing.T) {
	h := newHarness(t)
	h.counselor("alice", 10, 40*time.Minute)
	h.counselor("bob", 10, time.Minute)
	h.counselor("carol", 10, time.Minute)
	h.lead("l1", "alice")
	h.lead("l2", "alice")
	h.lead("l3", "alice")
	h.lead("b1", "bob")
	ctx := context.Background()

	alerts, err := h.scanner.Scan(ctx, baseTime)
	if err != nil {
		t.Fatal(err)
	}
	report := NewAutoReassigner(h.ranker, h.reassign, 0, nil).Handle(ctx, alerts)
	if report.Reassigned != 3 || report.Failed != 0 {
		t.Fatalf("report = %+v, want 3 reassigned", report)
	}

	loads, _ := h.store.WorkItems().LoadByCounselor(ctx)
	if loads["alice"] != 0 || loads["bob"] != 2 || loads["carol"] != 2 {
		t.Errorf("loads = %v, want alice 0 bob 2 carol 2", loads)
	}
	for _, rec := range h.store.Records() {
		if rec.Trigger != domain.TriggerAlertDriven || rec.ActorID != "system" {
			t.Errorf("record = %+v, want ALERT_DRIVEN by system", rec)
		}
	}
	item, _ := h.store.WorkItems().GetByID(ctx, "l1")
	if !item.AutoAssigned {
		t.Error("auto reassigned item should be flagged autoAssigned")
	}
}

func TestAutoReassigner_CapAndNoCandidates(t *testing.T) {
	h := newHarness(t)
	h.counselor("alice", 10, 40*time.Minute)
	h.lead("l1", "alice")
	h.lead("l2", "alice")
	h.lead("l3", "alice")
	ctx := context.Background()

	alerts, _ := h.scanner.Scan(ctx, baseTime)
	report := NewAutoReassigner(h.ranker, h.reassign, 2, nil).Handle(ctx, alerts)
	if report.Reassigned != 0 || report.Skipped != 3 || report.Attempted != 2 {
		t.Errorf("report = %+v, want 2 attempted and 3 skipped", report)
	}
	if n := len(h.store.Records()); n != 0 {
		t.Errorf("records = %d, want 0", n)
	}
}

func TestAutoReassigner_KeepsOperatorMoveAfterScan(t *testing.T) {
	h := newHarness(t)
	h.counselor("alice", 10, 40*time.Minute)
	h.counselor("bob", 10, time.Minute)
	h.counselor("carol", 10, time.Minute)
	h.lead("l1", "alice")
	h.lead("b1", "bob")
	ctx := context.Background()

	alerts, err := h.scanner.Scan(ctx, baseTime)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := h.reassign.Reassign(ctx, ReassignInput{WorkItemID: "l1", ToCounselorID: "bob", ActorID: "op-1"}); err != nil {
		t.Fatalf("operator move: %v", err)
	}

	report := NewAutoReassigner(h.ranker, h.reassign, 0, nil).Handle(ctx, alerts)
	if report.Reassigned != 0 || report.Skipped != 1 || report.Failed != 0 {
		t.Errorf("report = %+v, want 1 skipped", report)
	}
	if owner := h.ownerOf(t, "l1"); owner != "bob" {
		t.Errorf("owner = %s, want bob kept", owner)
	}
	records := h.store.Records()
	if len(records) != 1 || records[0].ActorID != "op-1" {
		t.Errorf("records = %+v, want only the operator move", records)
	}
}
