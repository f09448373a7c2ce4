package auth

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/civicpulse/internal/domain"
)

// RequireUser ensures a citizen is authenticated.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.SubjectType != domain.SubjectTypeUser {
			return fiber.NewError(http.StatusForbidden, "citizen account required")
		}
		return c.Next()
	}
}

// RequireOfficialRole ensures the official principal has one of the allowed roles.
func RequireOfficialRole(allowed ...domain.OfficialRole) fiber.Handler {
	allowedSet := make(map[domain.OfficialRole]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.SubjectType != domain.SubjectTypeOfficial || principal.Official == nil {
			return fiber.NewError(http.StatusForbidden, "official role required")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[principal.Official.Role]; !exists {
			return fiber.NewError(http.StatusForbidden, "insufficient role")
		}
		return c.Next()
	}
}

// RequireAnyRole ensures caller is authenticated (citizen or official).
func RequireAnyRole() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		}
		return c.Next()
	}
}
