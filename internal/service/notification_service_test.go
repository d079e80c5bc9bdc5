package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spec-kit/counselor-presence/internal/events"
	"github.com/spec-kit/counselor-presence/internal/events/broker"
)

type capturePublisher struct {
	keys      []string
	envelopes []broker.Envelope
	err       error
}

func (p *capturePublisher) Publish(_ context.Context, key string, msg broker.Envelope) error {
	p.keys = append(p.keys, key)
	p.envelopes = append(p.envelopes, msg)
	return p.err
}

func (p *capturePublisher) Close() error { return nil }

func TestNotificationService_ForwardsEvents(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	pub := &capturePublisher{}
	NewNotificationService(dispatcher, pub, "counselor-presence", nil).RegisterHandlers()

	err := dispatcher.Publish(context.Background(), events.Event{
		ID:        "e1",
		Type:      events.EventWorkItemReassigned,
		SubjectID: "l1",
		Timestamp: time.Now(),
		Payload:   events.WorkItemReassignedPayload{WorkItemID: "l1", ToCounselorID: "bob"},
	})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(pub.envelopes) != 1 {
		t.Fatalf("envelopes = %d, want 1", len(pub.envelopes))
	}
	if pub.keys[0] != "presence.work_item_reassigned" {
		t.Errorf("routing key = %s", pub.keys[0])
	}
	meta := pub.envelopes[0].Meta
	if meta.ID != "e1" || meta.Subject != "l1" || meta.Producer != "counselor-presence" {
		t.Errorf("meta = %+v", meta)
	}
}

func TestNotificationService_SwallowsBrokerErrors(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	NewNotificationService(dispatcher, &capturePublisher{err: errors.New("broker down")}, "p", nil).RegisterHandlers()

	err := dispatcher.Publish(context.Background(), events.Event{ID: "e2", Type: events.EventCounselorInactive})
	if err != nil {
		t.Errorf("Publish = %v, broker failures must not surface", err)
	}
}
