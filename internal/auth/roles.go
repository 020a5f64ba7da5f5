package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/ticket-ledger/pkg/util/errorutil"
)

// Role scopes what a caller may record.
type Role string

const (
	// RoleReporter opens tickets and appends change-sets.
	RoleReporter Role = "reporter"
	// RoleAgent additionally links affected entities.
	RoleAgent Role = "agent"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleReporter || r == RoleAgent
}

// RequireRole ensures the principal has one of the allowed roles.
func RequireRole(allowed ...Role) fiber.Handler {
	allowedSet := make(map[Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[principal.Role]; !exists {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}
