package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/counselor-presence/internal/clock"
	"github.com/spec-kit/counselor-presence/internal/domain"
	"github.com/spec-kit/counselor-presence/internal/events"
	"github.com/spec-kit/counselor-presence/internal/observability"
	"github.com/spec-kit/counselor-presence/internal/repository"
	apperrors "github.com/spec-kit/counselor-presence/pkg/util/errorutil"
)

// PresenceService records login and activity signals and derives status on read.
type PresenceService struct {
	counselors repository.CounselorRepository
	presence   repository.PresenceRepository
	evaluator  domain.PresenceEvaluator
	clock      clock.Clock
	gate       ActivityGate
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
	creditCap  time.Duration
	location   *time.Location
}

// PresenceDependencies bundles collaborators for the presence service.
type PresenceDependencies struct {
	CounselorRepo repository.CounselorRepository
	PresenceRepo  repository.PresenceRepository
	Evaluator     domain.PresenceEvaluator
	Clock         clock.Clock
	Gate          ActivityGate
	Dispatcher    events.Dispatcher
	Logger        *zap.Logger
	Metrics       *observability.Metrics
	// CreditCap bounds active time credited per activity signal; zero means
	// only the offline threshold limits it.
	CreditCap time.Duration
	// Location is used for counselors without a timezone.
	Location *time.Location
}

// NewPresenceService constructs the service.
func NewPresenceService(deps PresenceDependencies) *PresenceService {
	s := &PresenceService{
		counselors: deps.CounselorRepo,
		presence:   deps.PresenceRepo,
		evaluator:  deps.Evaluator,
		clock:      deps.Clock,
		gate:       deps.Gate,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		metrics:    deps.Metrics,
		creditCap:  deps.CreditCap,
		location:   deps.Location,
	}
	if s.clock == nil {
		s.clock = clock.Real()
	}
	if s.gate == nil {
		s.gate = openGate{}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.location == nil {
		s.location = time.UTC
	}
	return s
}

// Evaluator exposes the thresholds used to derive status.
func (s *PresenceService) Evaluator() domain.PresenceEvaluator {
	return s.evaluator
}

// Now reads the service clock.
func (s *PresenceService) Now() time.Time {
	return s.clock.Now()
}

// RecordLogin stamps a login. Login also counts as activity so a fresh login
// is immediately ACTIVE.
func (s *PresenceService) RecordLogin(ctx context.Context, counselorID string) (*domain.Presence, error) {
	counselor, err := s.lookupCounselor(ctx, counselorID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	loc := counselor.Location(s.location)

	saved, err := s.presence.Upsert(ctx, counselorID, func(p *domain.Presence) error {
		rollDay(p, now, loc)
		if now.After(p.LastLoginAt) {
			p.LastLoginAt = now
		}
		if now.After(p.LastActivityAt) {
			p.LastActivityAt = now
		}
		p.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, storeError(err, "counselor", map[string]any{"counselor_id": counselorID})
	}

	if err := publish(ctx, s.dispatcher, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventPresenceLogin,
		SubjectID: counselorID,
		Actor:     events.Actor{Role: domain.RoleCounselor, ID: counselorID},
		Timestamp: now,
		Payload:   events.PresenceLoginPayload{CounselorID: counselorID, LoginAt: now},
	}); err != nil {
		s.logger.Warn("publish login event", zap.String("counselor_id", counselorID), zap.Error(err))
	}

	view := s.view(*saved, loc, now)
	return &view, nil
}

// RecordActivity notes a user interaction. Within the write window of an
// earlier signal the call is accepted without touching the store.
func (s *PresenceService) RecordActivity(ctx context.Context, counselorID string) error {
	counselor, err := s.lookupCounselor(ctx, counselorID)
	if err != nil {
		return err
	}
	if !s.gate.Acquire(ctx, counselorID) {
		s.metrics.RecordActivityWrite("throttled")
		return nil
	}

	now := s.clock.Now()
	loc := counselor.Location(s.location)
	_, err = s.presence.Upsert(ctx, counselorID, func(p *domain.Presence) error {
		s.credit(p, now, loc)
		if now.After(p.LastActivityAt) {
			p.LastActivityAt = now
		}
		p.UpdatedAt = now
		return nil
	})
	if err != nil {
		s.gate.Release(ctx, counselorID)
		s.metrics.RecordActivityWrite("failed")
		return storeError(err, "counselor", map[string]any{"counselor_id": counselorID})
	}
	s.metrics.RecordActivityWrite("written")
	return nil
}

// GetStatus returns the presence record with Status derived at the current
// instant. A counselor with no record is OFFLINE with zero active time.
func (s *PresenceService) GetStatus(ctx context.Context, counselorID string) (*domain.Presence, error) {
	counselor, err := s.lookupCounselor(ctx, counselorID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	record, err := s.presence.Get(ctx, counselorID)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrNotFound):
		record = &domain.Presence{CounselorID: counselorID}
	default:
		return nil, storeError(err, "presence", map[string]any{"counselor_id": counselorID})
	}
	view := s.view(*record, counselor.Location(s.location), now)
	return &view, nil
}

// Snapshot derives presence for many counselors from one batched read.
// Counselors without a record map to an OFFLINE zero record.
func (s *PresenceService) Snapshot(ctx context.Context, counselors []domain.Counselor, now time.Time) (map[string]domain.Presence, error) {
	ids := make([]string, 0, len(counselors))
	for _, c := range counselors {
		ids = append(ids, c.ID)
	}
	records, err := s.presence.List(ctx, ids)
	if err != nil {
		return nil, storeError(err, "presence", nil)
	}
	out := make(map[string]domain.Presence, len(counselors))
	for i := range counselors {
		c := &counselors[i]
		record, ok := records[c.ID]
		if !ok {
			record = domain.Presence{CounselorID: c.ID}
		}
		out[c.ID] = s.view(record, c.Location(s.location), now)
	}
	return out, nil
}

func (s *PresenceService) lookupCounselor(ctx context.Context, counselorID string) (*domain.Counselor, error) {
	if strings.TrimSpace(counselorID) == "" {
		return nil, apperrors.NewValidationError("counselor id is required", nil)
	}
	counselor, err := s.counselors.GetByID(ctx, counselorID)
	if err != nil {
		return nil, storeError(err, "counselor", map[string]any{"counselor_id": counselorID})
	}
	return counselor, nil
}

// view fills in Status and hides a stale day's counter without writing.
func (s *PresenceService) view(p domain.Presence, loc *time.Location, now time.Time) domain.Presence {
	if p.ActiveDay != "" && p.ActiveDay != domain.LocalDay(now, loc) {
		p.ActiveToday = 0
	}
	p.Status = s.evaluator.DeriveStatus(p.LastActivityAt, now)
	return p
}

// credit adds the engaged time since the previous signal. Gaps at or past the
// offline threshold earn nothing; shorter gaps earn at most creditCap. Only
// the share after local midnight counts toward today.
func (s *PresenceService) credit(p *domain.Presence, now time.Time, loc *time.Location) {
	rollDay(p, now, loc)
	if p.LastActivityAt.IsZero() || !now.After(p.LastActivityAt) {
		return
	}
	elapsed := now.Sub(p.LastActivityAt)
	if elapsed >= s.evaluator.OfflineAfter {
		return
	}
	credited := elapsed
	if s.creditCap > 0 && credited > s.creditCap {
		credited = s.creditCap
	}
	p.TotalActive += credited

	today := credited
	if midnight := domain.StartOfLocalDay(now, loc); now.Add(-credited).Before(midnight) {
		today = now.Sub(midnight)
	}
	p.ActiveToday += today
}

// rollDay resets the daily counter when the local day changed.
func rollDay(p *domain.Presence, now time.Time, loc *time.Location) {
	day := domain.LocalDay(now, loc)
	if p.ActiveDay != day {
		p.ActiveToday = 0
		p.ActiveDay = day
	}
}
