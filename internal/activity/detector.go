// Package activity turns a stream of client interaction events into debounced
// presence writes and a locally derived status.
package activity

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/counselor-presence/internal/clock"
	"github.com/spec-kit/counselor-presence/internal/domain"
)

const (
	defaultDebounce     = time.Minute
	defaultIdleAfter    = 15 * time.Minute
	defaultOfflineAfter = 30 * time.Minute
	defaultHeartbeat    = 2 * time.Minute
	defaultWriteTimeout = 10 * time.Second
)

// EventKind is an interaction type reported by a client.
type EventKind string

const (
	PointerMove EventKind = "pointermove"
	PointerDown EventKind = "pointerdown"
	KeyDown     EventKind = "keydown"
	Scroll      EventKind = "scroll"
	TouchStart  EventKind = "touchstart"
)

// Qualifies reports whether k counts as engagement.
func (k EventKind) Qualifies() bool {
	switch k {
	case PointerMove, PointerDown, KeyDown, Scroll, TouchStart:
		return true
	}
	return false
}

// Recorder persists an activity signal.
type Recorder interface {
	RecordActivity(ctx context.Context, counselorID string) error
}

// StatusHandler is called from the detector goroutine whenever the locally
// derived status changes. It must not block.
type StatusHandler func(domain.PresenceStatus)

// Detector tracks one client session.
type Detector struct {
	counselorID  string
	recorder     Recorder
	logger       *zap.Logger
	clock        clock.Clock
	debounce     time.Duration
	idleAfter    time.Duration
	offlineAfter time.Duration
	heartbeat    time.Duration
	writeTimeout time.Duration
	onStatus     StatusHandler

	events  chan struct{}
	results chan error
	status  atomic.Value
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	once    sync.Once
}

// Option configures a Detector.
type Option func(*Detector)

// WithDebounce sets the minimum spacing between writes.
func WithDebounce(d time.Duration) Option {
	return func(det *Detector) { det.debounce = d }
}

// WithThresholds sets the idle and offline timers.
func WithThresholds(idle, offline time.Duration) Option {
	return func(det *Detector) {
		det.idleAfter = idle
		det.offlineAfter = offline
	}
}

// WithHeartbeat sets the periodic status re-check interval.
func WithHeartbeat(d time.Duration) Option {
	return func(det *Detector) { det.heartbeat = d }
}

// WithWriteTimeout bounds each store write.
func WithWriteTimeout(d time.Duration) Option {
	return func(det *Detector) { det.writeTimeout = d }
}

// WithStatusHandler registers a status change callback.
func WithStatusHandler(fn StatusHandler) Option {
	return func(det *Detector) { det.onStatus = fn }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(det *Detector) { det.logger = l }
}

// WithClock overrides the time source read when deriving status and spacing
// writes. The idle, offline and heartbeat timers still fire on wall time, so a
// fake clock only changes what a firing timer concludes, not when it fires.
func WithClock(c clock.Clock) Option {
	return func(det *Detector) { det.clock = c }
}

// Start begins tracking counselorID. Starting counts as a first interaction.
// The returned detector owns a goroutine and timers until Close is called or
// ctx ends.
func Start(ctx context.Context, counselorID string, recorder Recorder, opts ...Option) *Detector {
	d := &Detector{
		counselorID:  counselorID,
		recorder:     recorder,
		logger:       zap.NewNop(),
		clock:        clock.Real(),
		debounce:     defaultDebounce,
		idleAfter:    defaultIdleAfter,
		offlineAfter: defaultOfflineAfter,
		heartbeat:    defaultHeartbeat,
		writeTimeout: defaultWriteTimeout,
		events:       make(chan struct{}, 1),
		results:      make(chan error, 1),
	}
	for _, o := range opts {
		o(d)
	}
	if d.idleAfter <= 0 || d.offlineAfter <= d.idleAfter {
		d.idleAfter, d.offlineAfter = defaultIdleAfter, defaultOfflineAfter
	}
	if d.heartbeat <= 0 {
		d.heartbeat = defaultHeartbeat
	}
	if d.writeTimeout <= 0 {
		d.writeTimeout = defaultWriteTimeout
	}
	if d.logger == nil {
		d.logger = zap.NewNop()
	}
	if d.clock == nil {
		d.clock = clock.Real()
	}
	d.status.Store(domain.PresenceActive)

	loopCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.wg.Add(1)
	go d.run(loopCtx)
	d.Observe(PointerDown)
	return d
}

// Observe feeds one interaction. Non-qualifying kinds are ignored and report
// false. Observe never blocks.
func (d *Detector) Observe(kind EventKind) bool {
	if !kind.Qualifies() {
		return false
	}
	select {
	case d.events <- struct{}{}:
	default:
		// one pending event already re-arms everything
	}
	return true
}

// Status returns the locally derived status.
func (d *Detector) Status() domain.PresenceStatus {
	return d.status.Load().(domain.PresenceStatus)
}

// Close stops the goroutine and every timer. In-flight writes are cancelled.
// Close is idempotent.
func (d *Detector) Close() {
	d.once.Do(func() {
		d.cancel()
		d.wg.Wait()
	})
}

func (d *Detector) run(ctx context.Context) {
	defer d.wg.Done()

	idle := time.NewTimer(d.idleAfter)
	offline := time.NewTimer(d.offlineAfter)
	heartbeat := time.NewTicker(d.heartbeat)
	defer idle.Stop()
	defer offline.Stop()
	defer heartbeat.Stop()

	evaluator := domain.NewPresenceEvaluator(d.idleAfter, d.offlineAfter)
	lastEvent := d.clock.Now()
	var (
		lastWrite time.Time
		pending   bool
		inflight  bool
	)

	write := func() {
		pending = false
		inflight = true
		lastWrite = d.clock.Now()
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			writeCtx, cancel := context.WithTimeout(ctx, d.writeTimeout)
			defer cancel()
			err := d.recorder.RecordActivity(writeCtx, d.counselorID)
			select {
			case d.results <- err:
			case <-ctx.Done():
			}
		}()
	}

	for {
		select {
		case <-ctx.Done():
			return

		case <-d.events:
			now := d.clock.Now()
			lastEvent = now
			rearm(idle, d.idleAfter)
			rearm(offline, d.offlineAfter)
			d.setStatus(domain.PresenceActive)
			switch {
			case inflight:
				pending = true
			case lastWrite.IsZero() || now.Sub(lastWrite) >= d.debounce:
				write()
			default:
				pending = true
			}

		case err := <-d.results:
			inflight = false
			if err != nil {
				d.logger.Warn("activity write failed",
					zap.String("counselor_id", d.counselorID),
					zap.Error(err))
				// retried on the next natural signal
				lastWrite = time.Time{}
			}

		case <-idle.C:
			d.setStatus(evaluator.DeriveStatus(lastEvent, d.clock.Now()))

		case <-offline.C:
			d.setStatus(evaluator.DeriveStatus(lastEvent, d.clock.Now()))

		case <-heartbeat.C:
			now := d.clock.Now()
			d.setStatus(evaluator.DeriveStatus(lastEvent, now))
			if pending && !inflight && now.Sub(lastWrite) >= d.debounce {
				write()
			}
		}
	}
}

func (d *Detector) setStatus(status domain.PresenceStatus) {
	if d.Status() == status {
		return
	}
	d.status.Store(status)
	if d.onStatus != nil {
		d.onStatus(status)
	}
}

func rearm(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}
