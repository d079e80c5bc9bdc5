package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/spec-kit/counselor-presence/internal/clock"
	"github.com/spec-kit/counselor-presence/internal/domain"
	"github.com/spec-kit/counselor-presence/internal/events"
	"github.com/spec-kit/counselor-presence/internal/observability"
	"github.com/spec-kit/counselor-presence/internal/repository/memory"
	apperrors "github.com/spec-kit/counselor-presence/pkg/util/errorutil"
)

var baseTime = time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC)

type harness struct {
	store      *memory.Store
	clock      *clock.Fake
	metrics    *observability.Metrics
	recorder   *eventRecorder
	presence   *PresenceService
	capacity   *CapacityModel
	ranker     *CandidateRanker
	scanner    *InactivityScanner
	reassign   *ReassignmentService
	dispatcher events.Dispatcher
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		store:      memory.NewStore(),
		clock:      clock.NewFake(baseTime),
		metrics:    observability.NewMetrics(),
		recorder:   &eventRecorder{},
		dispatcher: events.NewInMemoryDispatcher(),
	}
	h.dispatcher.SubscribeAll(h.recorder.handle)
	h.presence = NewPresenceService(PresenceDependencies{
		CounselorRepo: h.store.Counselors(),
		PresenceRepo:  h.store.Presence(),
		Evaluator:     domain.NewPresenceEvaluator(15*time.Minute, 30*time.Minute),
		Clock:         h.clock,
		Dispatcher:    h.dispatcher,
		Metrics:       h.metrics,
		CreditCap:     5 * time.Minute,
	})
	h.capacity = NewCapacityModel(CapacityDependencies{
		CounselorRepo: h.store.Counselors(),
		WorkItemRepo:  h.store.WorkItems(),
		Presence:      h.presence,
	})
	h.ranker = NewCandidateRanker(RankerDependencies{
		CounselorRepo: h.store.Counselors(),
		WorkItemRepo:  h.store.WorkItems(),
		Presence:      h.presence,
	})
	h.scanner = NewInactivityScanner(ScannerDependencies{
		CounselorRepo: h.store.Counselors(),
		WorkItemRepo:  h.store.WorkItems(),
		Presence:      h.presence,
		Metrics:       h.metrics,
	})
	h.reassign = NewReassignmentService(ReassignmentDependencies{
		CounselorRepo:    h.store.Counselors(),
		WorkItemRepo:     h.store.WorkItems(),
		ReassignmentRepo: h.store.Reassignments(),
		Presence:         h.presence,
		Dispatcher:       h.dispatcher,
		Metrics:          h.metrics,
	})
	return h
}

// counselor seeds an available counselor last active `ago` before baseTime.
// A negative ago leaves the counselor without a presence record.
func (h *harness) counselor(id string, maxCap int, ago time.Duration, langs ...string) {
	h.store.PutCounselor(domain.Counselor{
		ID:           id,
		Name:         "Counselor " + id,
		Availability: domain.AvailabilityActive,
		MaxCapacity:  maxCap,
		Languages:    langs,
	})
	if ago >= 0 {
		h.store.PutPresence(domain.Presence{
			CounselorID:    id,
			LastLoginAt:    baseTime.Add(-ago),
			LastActivityAt: baseTime.Add(-ago),
			ActiveDay:      domain.LocalDay(baseTime, time.UTC),
		})
	}
}

func (h *harness) lead(id, owner string) {
	h.store.PutWorkItem(domain.WorkItem{
		ID:      id,
		Kind:    domain.WorkItemLead,
		OwnerID: owner,
		Status:  domain.LeadStatusNew,
	})
}

func (h *harness) ownerOf(t *testing.T, id string) string {
	t.Helper()
	item, err := h.store.WorkItems().GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetByID(%s): %v", id, err)
	}
	return item.OwnerID
}

type eventRecorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *eventRecorder) handle(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *eventRecorder) count(eventType events.EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Type == eventType {
			n++
		}
	}
	return n
}

func assertCode(t *testing.T, err error, want string) {
	t.Helper()
	if err == nil {
		t.Fatalf("err = nil, want %s", want)
	}
	if got := apperrors.CodeOf(err); got != want {
		t.Fatalf("code = %s, want %s (err: %v)", got, want, err)
	}
}
