package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestToDomainError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   string
		wantStatus int
	}{
		{"domain error passes through", NewTerminalItem(nil), CodeTerminalItem, http.StatusConflict},
		{"wrapped domain error", fmt.Errorf("reassign: %w", NewSameOwner(nil)), CodeSameOwner, http.StatusConflict},
		{"ineligible target", NewIneligibleTarget("target offline", nil), CodeIneligibleTarget, http.StatusUnprocessableEntity},
		{"upstream", NewUpstreamUnavailable(errors.New("dial tcp")), CodeUpstreamUnavailable, http.StatusServiceUnavailable},
		{"fiber bad request", fiber.NewError(http.StatusBadRequest, "invalid payload"), CodeValidationFailed, http.StatusBadRequest},
		{"fiber forbidden", fiber.NewError(http.StatusForbidden, "operator role required"), CodeForbidden, http.StatusForbidden},
		{"plain error", errors.New("boom"), CodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToDomainError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.HTTPStatus != tt.wantStatus {
				t.Errorf("HTTPStatus = %d, want %d", got.HTTPStatus, tt.wantStatus)
			}
		})
	}
}

func TestToDomainError_Nil(t *testing.T) {
	if got := ToDomainError(nil); got != nil {
		t.Errorf("ToDomainError(nil) = %v, want nil", got)
	}
	if got := CodeOf(nil); got != "" {
		t.Errorf("CodeOf(nil) = %q, want empty", got)
	}
}

func TestUpstreamUnavailableUnwraps(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewUpstreamUnavailable(cause)
	if !errors.Is(err, cause) {
		t.Error("expected upstream error to unwrap to its cause")
	}
}
