package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/repair-service/internal/domain"
	apperrors "github.com/spec-kit/repair-service/pkg/util/errorutil"
)

// RequireRole ensures the principal holds one of the allowed roles.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if _, exists := allowedSet[principal.Role]; !exists {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}

// RequireSelfOrAdmin lets admins through and otherwise requires the route
// parameter param to name the caller's own account.
func RequireSelfOrAdmin(param string, role domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if principal.Role == domain.RoleAdmin {
			return c.Next()
		}
		if principal.Role != role || principal.ID != c.Params(param) {
			return apperrors.NewForbidden("access to another account is not allowed")
		}
		return c.Next()
	}
}
