package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/counselor-presence/internal/auth"
	"github.com/spec-kit/counselor-presence/internal/service"
)

// PresenceHandler serves presence and capacity endpoints.
type PresenceHandler struct {
	presence *service.PresenceService
	capacity *service.CapacityModel
}

// NewPresenceHandler constructs handler.
func NewPresenceHandler(presence *service.PresenceService, capacity *service.CapacityModel) *PresenceHandler {
	return &PresenceHandler{presence: presence, capacity: capacity}
}

// Login POST /presence/login.
func (h *PresenceHandler) Login(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	p, err := h.presence.RecordLogin(c.UserContext(), principal.SubjectID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": presenceResponse(p)})
}

// Activity POST /presence/activity.
func (h *PresenceHandler) Activity(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	if err := h.presence.RecordActivity(c.UserContext(), principal.SubjectID); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Get GET /presence/:counselorId.
func (h *PresenceHandler) Get(c *fiber.Ctx) error {
	p, err := h.presence.GetStatus(c.UserContext(), c.Params("counselorId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": presenceResponse(p)})
}

// Capacity GET /counselors/:counselorId/capacity.
func (h *PresenceHandler) Capacity(c *fiber.Ctx) error {
	capacity, err := h.capacity.Capacity(c.UserContext(), c.Params("counselorId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": capacityResponse(capacity)})
}

func currentPrincipal(c *fiber.Ctx) (*auth.Principal, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return nil, fiber.NewError(http.StatusUnauthorized, "authentication required")
	}
	return principal, nil
}
