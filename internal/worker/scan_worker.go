package worker

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/counselor-presence/internal/domain"
	"github.com/spec-kit/counselor-presence/internal/events"
	"github.com/spec-kit/counselor-presence/internal/service"
)

const defaultScanInterval = 5 * time.Minute

// Scanner produces alerts for an instant.
type Scanner interface {
	Scan(ctx context.Context, now time.Time) ([]domain.Alert, error)
}

// AlertHandler acts on the alerts of one scan.
type AlertHandler interface {
	Handle(ctx context.Context, alerts []domain.Alert) service.AutoReassignReport
}

// ScanWorker runs the inactivity scan on an interval, publishes an event per
// alert and optionally hands alerts to the auto-reassign policy.
type ScanWorker struct {
	scanner    Scanner
	logger     *zap.Logger
	interval   time.Duration
	now        func() time.Time
	dispatcher events.Dispatcher
	auto       AlertHandler

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// ScanOption configures the worker.
type ScanOption func(*ScanWorker)

// WithScanInterval sets the tick interval.
func WithScanInterval(d time.Duration) ScanOption {
	return func(w *ScanWorker) {
		if d > 0 {
			w.interval = d
		}
	}
}

// WithDispatcher publishes counselor_inactive events for each alert.
func WithDispatcher(d events.Dispatcher) ScanOption {
	return func(w *ScanWorker) { w.dispatcher = d }
}

// WithAutoReassign enables the alert-driven reassignment policy.
func WithAutoReassign(h AlertHandler) ScanOption {
	return func(w *ScanWorker) { w.auto = h }
}

// WithNow overrides the scan instant source.
func WithNow(now func() time.Time) ScanOption {
	return func(w *ScanWorker) { w.now = now }
}

// NewScanWorker creates a worker.
func NewScanWorker(scanner Scanner, logger *zap.Logger, opts ...ScanOption) *ScanWorker {
	w := &ScanWorker{
		scanner:  scanner,
		logger:   logger,
		interval: defaultScanInterval,
		now:      time.Now,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	for _, o := range opts {
		o(w)
	}
	if w.logger == nil {
		w.logger = zap.NewNop()
	}
	return w
}

// Start runs the loop until ctx ends or Stop is called. It blocks.
func (w *ScanWorker) Start(ctx context.Context) {
	defer close(w.doneCh)
	w.logger.Info("scan worker started",
		zap.Duration("interval", w.interval),
		zap.Bool("auto_reassign", w.auto != nil))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("scan worker stopped", zap.String("reason", "context cancelled"))
			return
		case <-w.stopCh:
			w.logger.Info("scan worker stopped")
			return
		case <-ticker.C:
			if _, err := w.RunOnce(ctx); err != nil {
				w.logger.Warn("scheduled scan failed", zap.Error(err))
			}
		}
	}
}

// Stop ends the loop and waits for it to exit. Safe to call more than once
// but only after Start has been called.
func (w *ScanWorker) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	<-w.doneCh
}

// RunOnce performs one scan, publishes alert events and applies the
// auto-reassign policy when enabled.
func (w *ScanWorker) RunOnce(ctx context.Context) ([]domain.Alert, error) {
	now := w.now()
	alerts, err := w.scanner.Scan(ctx, now)
	if err != nil {
		return nil, err
	}

	requiring := 0
	for i := range alerts {
		a := &alerts[i]
		if a.RequiresReassignment {
			requiring++
		}
		w.publish(ctx, now, a)
	}
	w.logger.Info("inactivity scan complete",
		zap.Int("alerts", len(alerts)),
		zap.Int("requiring_reassignment", requiring))

	if w.auto != nil && requiring > 0 {
		report := w.auto.Handle(ctx, alerts)
		w.logger.Info("auto reassign pass",
			zap.Int("attempted", report.Attempted),
			zap.Int("reassigned", report.Reassigned),
			zap.Int("skipped", report.Skipped),
			zap.Int("failed", report.Failed))
	}
	return alerts, nil
}

func (w *ScanWorker) publish(ctx context.Context, now time.Time, a *domain.Alert) {
	if w.dispatcher == nil {
		return
	}
	ids := make([]string, 0, len(a.AffectedWorkItems))
	for _, item := range a.AffectedWorkItems {
		ids = append(ids, item.ID)
	}
	err := w.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventCounselorInactive,
		SubjectID: a.CounselorID,
		Actor:     events.SystemActor,
		Timestamp: now,
		Payload: events.CounselorInactivePayload{
			CounselorID:          a.CounselorID,
			Status:               a.CurrentStatus,
			InactiveMinutes:      a.InactiveMinutes,
			AffectedWorkItemIDs:  ids,
			RequiresReassignment: a.RequiresReassignment,
		},
	})
	if err != nil {
		w.logger.Warn("publish alert event", zap.String("counselor_id", a.CounselorID), zap.Error(err))
	}
}
