package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/counselor-presence/internal/api/dto"
	"github.com/spec-kit/counselor-presence/internal/domain"
	"github.com/spec-kit/counselor-presence/internal/service"
)

// AlertsHandler runs on-demand inactivity scans.
type AlertsHandler struct {
	scanner  *service.InactivityScanner
	presence *service.PresenceService
}

// NewAlertsHandler constructs handler.
func NewAlertsHandler(scanner *service.InactivityScanner, presence *service.PresenceService) *AlertsHandler {
	return &AlertsHandler{scanner: scanner, presence: presence}
}

// Scan GET|POST /alerts/scan.
func (h *AlertsHandler) Scan(c *fiber.Ctx) error {
	now := h.presence.Now()
	alerts, err := h.scanner.Scan(c.UserContext(), now)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ScanResult(now, h.scanner.Threshold(), alerts)})
}

// ScanResult renders one scan for transport.
func ScanResult(at time.Time, threshold domain.PresenceStatus, alerts []domain.Alert) dto.ScanResponse {
	resp := dto.ScanResponse{
		ScannedAt: at,
		Threshold: threshold,
		Alerts:    make([]dto.AlertResponse, 0, len(alerts)),
	}
	for i := range alerts {
		resp.Alerts = append(resp.Alerts, alertResponse(&alerts[i]))
	}
	return resp
}
