package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/counselor-presence/internal/domain"
	"github.com/spec-kit/counselor-presence/internal/events"
	apperrors "github.com/spec-kit/counselor-presence/pkg/util/errorutil"
)

// AutoReassigner moves work away from counselors flagged by a scan, one item
// at a time to the top ranked candidate.
type AutoReassigner struct {
	ranker   *CandidateRanker
	reassign *ReassignmentService
	logger   *zap.Logger
	maxItems int
}

// AutoReassignReport summarizes one pass.
type AutoReassignReport struct {
	Attempted  int `json:"attempted"`
	Reassigned int `json:"reassigned"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`
}

// NewAutoReassigner builds the policy. maxItems caps how many items are moved
// off one counselor per pass; zero means no cap.
func NewAutoReassigner(ranker *CandidateRanker, reassign *ReassignmentService, maxItems int, logger *zap.Logger) *AutoReassigner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AutoReassigner{ranker: ranker, reassign: reassign, logger: logger, maxItems: maxItems}
}

// Handle reassigns the affected items of every alert that requires it.
// Ranking is redone per item so each move sees the load left by the last.
func (a *AutoReassigner) Handle(ctx context.Context, alerts []domain.Alert) AutoReassignReport {
	var report AutoReassignReport
	for _, alert := range alerts {
		if !alert.RequiresReassignment {
			continue
		}
		for i := range alert.AffectedWorkItems {
			if ctx.Err() != nil {
				return report
			}
			if a.maxItems > 0 && i >= a.maxItems {
				report.Skipped += len(alert.AffectedWorkItems) - i
				a.logger.Info("auto reassign cap reached",
					zap.String("counselor_id", alert.CounselorID),
					zap.Int("max_items", a.maxItems))
				break
			}
			item := alert.AffectedWorkItems[i]
			report.Attempted++

			candidates, err := a.ranker.RankFor(ctx, &item, []string{alert.CounselorID})
			if err != nil {
				report.Failed++
				a.logger.Warn("auto reassign ranking failed", zap.String("work_item_id", item.ID), zap.Error(err))
				continue
			}
			if len(candidates) == 0 {
				report.Skipped++
				a.logger.Warn("no eligible counselor for work item", zap.String("work_item_id", item.ID))
				continue
			}

			target := candidates[0].Counselor
			_, err = a.reassign.Reassign(ctx, ReassignInput{
				WorkItemID:    item.ID,
				ToCounselorID: target.ID,
				Reason:        fmt.Sprintf("counselor %s %s for %d minutes", alert.CounselorID, alert.CurrentStatus, alert.InactiveMinutes),
				Trigger:       domain.TriggerAlertDriven,
				ActorID:       events.SystemActor.ID,
				ExpectedOwner: alert.CounselorID,
			})
			if apperrors.CodeOf(err) == apperrors.CodeConflict {
				report.Skipped++
				a.logger.Info("work item moved since scan",
					zap.String("work_item_id", item.ID),
					zap.String("alerted_counselor", alert.CounselorID))
				continue
			}
			if err != nil {
				report.Failed++
				a.logger.Warn("auto reassign failed",
					zap.String("work_item_id", item.ID),
					zap.String("to", target.ID),
					zap.Error(err))
				continue
			}
			report.Reassigned++
		}
	}
	return report
}
