package auth

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/counselor-presence/internal/domain"
)

// RequireCounselor ensures a COUNSELOR token is presented.
func RequireCounselor() fiber.Handler {
	return RequireRole(domain.RoleCounselor)
}

// RequireOperator ensures the caller may scan and reassign work.
func RequireOperator() fiber.Handler {
	return RequireRole(domain.RoleOperator, domain.RoleAdmin)
}

// RequireRole ensures the principal has one of the allowed roles.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[principal.Role]; !exists {
			return fiber.NewError(http.StatusForbidden, "insufficient role")
		}
		return c.Next()
	}
}

// RequireSelfOrOperator allows counselors to read only their own records.
// param names the route parameter holding the counselor id.
func RequireSelfOrOperator(param string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		}
		if principal.Role.CanManageWork() || principal.SubjectID == c.Params(param) {
			return c.Next()
		}
		return fiber.NewError(http.StatusForbidden, "counselors may only read their own presence")
	}
}
