package auth

import (
	"strings"

	"asset-tracker/internal/apperr"
	"asset-tracker/internal/models"

	"github.com/gofiber/fiber/v2"
)

const ctxPrincipalKey = "principal"

// Principal is the verified caller attached to every authenticated request.
type Principal struct {
	ID       uint            `json:"id"`
	Username string          `json:"username"`
	Role     models.UserRole `json:"role"`
	Branch   string          `json:"branch,omitempty"`
}

func (p Principal) IsAdmin() bool { return p.Role == models.RoleAdmin }

func JWTMiddleware(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return apperr.Unauthorized("authorization header missing")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
			return apperr.Unauthorized("authorization must be 'Bearer <token>'")
		}

		claims, err := ParseToken(secret, parts[1])
		if err != nil {
			return apperr.Unauthorized("invalid or expired token")
		}

		c.Locals(ctxPrincipalKey, Principal{
			ID:       claims.UserID,
			Username: claims.Username,
			Role:     claims.Role,
			Branch:   claims.Branch,
		})
		return c.Next()
	}
}

// FromCtx returns the principal set by JWTMiddleware.
func FromCtx(c *fiber.Ctx) (Principal, bool) {
	p, ok := c.Locals(ctxPrincipalKey).(Principal)
	return p, ok
}

func MustPrincipal(c *fiber.Ctx) (Principal, error) {
	p, ok := FromCtx(c)
	if !ok {
		return Principal{}, apperr.Unauthorized("not authenticated")
	}
	return p, nil
}

func RequireRole(allowedRoles ...models.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok := FromCtx(c)
		if !ok {
			return apperr.Unauthorized("not authenticated")
		}
		for _, r := range allowedRoles {
			if r == p.Role {
				return c.Next()
			}
		}
		return apperr.Forbidden("insufficient permissions")
	}
}
