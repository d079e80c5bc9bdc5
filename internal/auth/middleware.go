package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/counselor-presence/internal/domain"
	apperrors "github.com/spec-kit/counselor-presence/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller.
type Principal struct {
	SubjectID string
	Role      domain.Role
}

// IsCounselor reports whether the caller acts as a counselor.
func (p *Principal) IsCounselor() bool {
	return p != nil && p.Role == domain.RoleCounselor
}

// AuthMiddleware validates bearer tokens.
type AuthMiddleware struct {
	tokens *TokenManager
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	principal, err := m.Authenticate(parts[1])
	if err != nil {
		return err
	}
	c.Locals(principalKey, principal)
	return c.Next()
}

// Authenticate turns a raw token into a principal. The websocket listener
// uses it directly since browsers cannot set headers on upgrade requests.
func (m *AuthMiddleware) Authenticate(token string) (*Principal, error) {
	claims, err := m.tokens.ParseToken(strings.TrimSpace(token))
	if err != nil {
		return nil, apperrors.NewUnauthorized("invalid token")
	}
	return &Principal{SubjectID: claims.SubjectID, Role: claims.Role}, nil
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
