package activity

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/spec-kit/counselor-presence/internal/domain"
)

type fakeRecorder struct {
	mu    sync.Mutex
	calls int
	fail  int
}

func (r *fakeRecorder) RecordActivity(context.Context, string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.fail > 0 {
		r.fail--
		return errors.New("store unavailable")
	}
	return nil
}

func (r *fakeRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

type statusLog struct {
	mu       sync.Mutex
	statuses []domain.PresenceStatus
}

func (s *statusLog) record(st domain.PresenceStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses = append(s.statuses, st)
}

func (s *statusLog) last() domain.PresenceStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.statuses) == 0 {
		return ""
	}
	return s.statuses[len(s.statuses)-1]
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestEventKind_Qualifies(t *testing.T) {
	for _, k := range []EventKind{PointerMove, PointerDown, KeyDown, Scroll, TouchStart} {
		if !k.Qualifies() {
			t.Errorf("%s should qualify", k)
		}
	}
	if EventKind("focus").Qualifies() {
		t.Error("focus should not qualify")
	}
}

func TestDetector_DebouncesWrites(t *testing.T) {
	rec := &fakeRecorder{}
	d := Start(context.Background(), "c1", rec,
		WithDebounce(time.Hour),
		WithHeartbeat(time.Hour),
	)
	defer d.Close()

	waitFor(t, "initial write", func() bool { return rec.count() == 1 })
	for i := 0; i < 50; i++ {
		d.Observe(PointerMove)
	}
	time.Sleep(50 * time.Millisecond)
	if got := rec.count(); got != 1 {
		t.Errorf("writes = %d, want 1 within one debounce window", got)
	}
	if d.Observe("blur") {
		t.Error("Observe(blur) = true, want false")
	}
}

func TestDetector_IdleThenOffline(t *testing.T) {
	rec := &fakeRecorder{}
	log := &statusLog{}
	d := Start(context.Background(), "c1", rec,
		WithThresholds(40*time.Millisecond, 120*time.Millisecond),
		WithHeartbeat(time.Hour),
		WithStatusHandler(log.record),
	)
	defer d.Close()

	waitFor(t, "AWAY", func() bool { return d.Status() == domain.PresenceAway })
	waitFor(t, "OFFLINE", func() bool { return d.Status() == domain.PresenceOffline })

	d.Observe(KeyDown)
	waitFor(t, "ACTIVE again", func() bool { return d.Status() == domain.PresenceActive })
	if log.last() != domain.PresenceActive {
		t.Errorf("last notified status = %s, want ACTIVE", log.last())
	}
}

func TestDetector_FailedWriteRetriesOnNextSignal(t *testing.T) {
	rec := &fakeRecorder{fail: 1}
	d := Start(context.Background(), "c1", rec,
		WithDebounce(time.Hour),
		WithHeartbeat(time.Hour),
	)
	defer d.Close()

	waitFor(t, "failed write", func() bool { return rec.count() == 1 })
	time.Sleep(20 * time.Millisecond)
	if d.Status() != domain.PresenceActive {
		t.Errorf("status = %s, a failed write must not change local state", d.Status())
	}
	d.Observe(Scroll)
	waitFor(t, "retry", func() bool { return rec.count() == 2 })
}

func TestDetector_HeartbeatFlushesPending(t *testing.T) {
	rec := &fakeRecorder{}
	d := Start(context.Background(), "c1", rec,
		WithDebounce(30*time.Millisecond),
		WithHeartbeat(20*time.Millisecond),
	)
	defer d.Close()

	waitFor(t, "initial write", func() bool { return rec.count() == 1 })
	d.Observe(PointerMove)
	waitFor(t, "flushed write", func() bool { return rec.count() == 2 })
}

func TestDetector_CloseIsIdempotent(t *testing.T) {
	rec := &fakeRecorder{}
	d := Start(context.Background(), "c1", rec, WithHeartbeat(time.Millisecond))
	d.Close()
	d.Close()

	before := rec.count()
	d.Observe(KeyDown)
	time.Sleep(20 * time.Millisecond)
	if rec.count() != before {
		t.Errorf("writes after Close = %d, want %d", rec.count(), before)
	}
}
