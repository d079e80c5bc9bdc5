package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/counselor-presence/internal/api/dto"
	"github.com/spec-kit/counselor-presence/internal/service"
	apperrors "github.com/spec-kit/counselor-presence/pkg/util/errorutil"
)

// maxBatchSize bounds one reassign-batch request.
const maxBatchSize = 200

// WorkItemsHandler serves reassignment endpoints.
type WorkItemsHandler struct {
	reassign *service.ReassignmentService
	ranker   *service.CandidateRanker
}

// NewWorkItemsHandler constructs handler.
func NewWorkItemsHandler(reassign *service.ReassignmentService, ranker *service.CandidateRanker) *WorkItemsHandler {
	return &WorkItemsHandler{reassign: reassign, ranker: ranker}
}

// Reassign POST /work-items/:id/reassign.
func (h *WorkItemsHandler) Reassign(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.ReassignRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	item, err := h.reassign.Reassign(c.UserContext(), service.ReassignInput{
		WorkItemID:    c.Params("id"),
		ToCounselorID: strings.TrimSpace(req.ToCounselorID),
		Reason:        req.Reason,
		Trigger:       req.Trigger,
		ActorID:       principal.SubjectID,
		ActorRole:     principal.Role,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": workItemResponse(item)})
}

// ReassignBatch POST /work-items/reassign-batch. Responds 207 when any item failed.
func (h *WorkItemsHandler) ReassignBatch(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.BatchReassignRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if len(req.WorkItemIDs) == 0 {
		return apperrors.NewValidationError("work_item_ids must not be empty", nil)
	}
	if len(req.WorkItemIDs) > maxBatchSize {
		return apperrors.NewValidationError("too many work items", map[string]any{"max": maxBatchSize})
	}

	results := h.reassign.ReassignBatch(c.UserContext(), service.BatchReassignInput{
		WorkItemIDs:   req.WorkItemIDs,
		ToCounselorID: strings.TrimSpace(req.ToCounselorID),
		Reason:        req.Reason,
		Trigger:       req.Trigger,
		ActorID:       principal.SubjectID,
		ActorRole:     principal.Role,
	})

	resp := dto.BatchReassignResponse{Results: make([]dto.ItemResultResponse, 0, len(results))}
	for _, r := range results {
		entry := dto.ItemResultResponse{WorkItemID: r.WorkItemID, OK: r.OK()}
		if r.OK() {
			item := workItemResponse(r.WorkItem)
			entry.WorkItem = &item
			resp.Succeeded++
		} else {
			de := apperrors.ToDomainError(r.Err)
			entry.Error = &dto.ErrorBody{Code: de.Code, Message: de.Message}
			resp.Failed++
		}
		resp.Results = append(resp.Results, entry)
	}

	status := http.StatusOK
	if resp.Failed > 0 {
		status = http.StatusMultiStatus
	}
	return c.Status(status).JSON(fiber.Map{"data": resp})
}

// Release POST /work-items/:id/release.
func (h *WorkItemsHandler) Release(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.ReleaseRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, "invalid payload")
		}
	}
	item, err := h.reassign.Release(c.UserContext(), c.Params("id"), req.Reason, principal.SubjectID, principal.Role)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": workItemResponse(item)})
}

// Candidates GET /work-items/:id/candidates?exclude=a,b.
func (h *WorkItemsHandler) Candidates(c *fiber.Ctx) error {
	var exclude []string
	for _, part := range strings.Split(c.Query("exclude"), ",") {
		if part = strings.TrimSpace(part); part != "" {
			exclude = append(exclude, part)
		}
	}
	candidates, err := h.ranker.RankCandidates(c.UserContext(), c.Params("id"), exclude)
	if err != nil {
		return err
	}
	items := make([]dto.CandidateResponse, 0, len(candidates))
	for i := range candidates {
		items = append(items, candidateResponse(&candidates[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Reassignments GET /work-items/:id/reassignments.
func (h *WorkItemsHandler) Reassignments(c *fiber.Ctx) error {
	records, err := h.reassign.ListReassignments(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.ReassignmentRecordResponse, 0, len(records))
	for i := range records {
		items = append(items, recordResponse(&records[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}
