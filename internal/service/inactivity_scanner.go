package service

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/counselor-presence/internal/domain"
	"github.com/spec-kit/counselor-presence/internal/observability"
	"github.com/spec-kit/counselor-presence/internal/repository"
)

// InactivityScanner turns presence into alerts for operators.
type InactivityScanner struct {
	counselors repository.CounselorRepository
	workItems  repository.WorkItemRepository
	presence   *PresenceService
	threshold  domain.PresenceStatus
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// ScannerDependencies bundles collaborators for the scanner.
type ScannerDependencies struct {
	CounselorRepo repository.CounselorRepository
	WorkItemRepo  repository.WorkItemRepository
	Presence      *PresenceService
	// Threshold is the least severe status that raises an alert; OFFLINE when unset.
	Threshold domain.PresenceStatus
	Logger    *zap.Logger
	Metrics   *observability.Metrics
}

// NewInactivityScanner constructs the scanner.
func NewInactivityScanner(deps ScannerDependencies) *InactivityScanner {
	s := &InactivityScanner{
		counselors: deps.CounselorRepo,
		workItems:  deps.WorkItemRepo,
		presence:   deps.Presence,
		threshold:  deps.Threshold,
		logger:     deps.Logger,
		metrics:    deps.Metrics,
	}
	if !s.threshold.Valid() || s.threshold == domain.PresenceActive {
		s.threshold = domain.PresenceOffline
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// Threshold returns the configured alert threshold.
func (s *InactivityScanner) Threshold() domain.PresenceStatus {
	return s.threshold
}

// Scan evaluates every available counselor at now. It only reads; repeated
// scans at the same instant return the same alerts. A counselor whose work
// items cannot be loaded is logged and skipped.
func (s *InactivityScanner) Scan(ctx context.Context, now time.Time) ([]domain.Alert, error) {
	active := domain.AvailabilityActive
	counselors, err := s.counselors.List(ctx, repository.CounselorFilter{Availability: &active})
	if err != nil {
		return nil, storeError(err, "counselors", nil)
	}
	presence, err := s.presence.Snapshot(ctx, counselors, now)
	if err != nil {
		return nil, err
	}

	alerts := make([]domain.Alert, 0)
	for _, counselor := range counselors {
		if err := ctx.Err(); err != nil {
			return nil, storeError(err, "counselors", nil)
		}
		p := presence[counselor.ID]
		if !p.Status.AtLeast(s.threshold) {
			continue
		}
		items, err := s.workItems.ListOwnedBy(ctx, counselor.ID)
		if err != nil {
			s.logger.Warn("scan skipped counselor",
				zap.String("counselor_id", counselor.ID),
				zap.Error(err))
			continue
		}
		alerts = append(alerts, domain.Alert{
			CounselorID:          counselor.ID,
			CounselorName:        counselor.Name,
			CurrentStatus:        p.Status,
			InactiveMinutes:      int(p.InactiveFor(now) / time.Minute),
			LastActivityAt:       p.LastActivityAt,
			AffectedWorkItems:    items,
			RequiresReassignment: len(items) > 0,
		})
	}
	sort.Slice(alerts, func(i, j int) bool { return alerts[i].CounselorID < alerts[j].CounselorID })

	s.metrics.RecordScan(now, len(alerts))
	return alerts, nil
}
