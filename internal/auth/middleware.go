package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/ticket-ledger/internal/domain"
	"github.com/spec-kit/ticket-ledger/internal/repository"
	apperrors "github.com/spec-kit/ticket-ledger/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller. User is set when the
// directory knows the subject.
type Principal struct {
	UserID string
	Role   Role
	User   *domain.User
}

// Author returns the reference recorded on the caller's change-sets.
func (p *Principal) Author() domain.Reference[domain.User] {
	if p.User != nil {
		return domain.ResolvedRef(p.UserID, p.User)
	}
	return domain.Ref[domain.User](p.UserID)
}

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	tokens *TokenManager
	users  repository.UserRepository
}

// NewAuthMiddleware constructs middleware. users may be nil.
func NewAuthMiddleware(tokens *TokenManager, users repository.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users}
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

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}
	if !claims.Role.Valid() {
		return apperrors.NewUnauthorized("unknown role")
	}

	principal := &Principal{UserID: claims.Subject, Role: claims.Role}
	if m.users != nil {
		user, err := m.users.GetByID(c.UserContext(), claims.Subject)
		switch {
		case err == nil:
			principal.User = user
		case !errors.Is(err, pgx.ErrNoRows):
			return apperrors.MapError(err)
		}
	}

	c.Locals(principalKey, principal)
	return c.Next()
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
