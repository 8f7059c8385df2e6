package middleware

import (
	"strings"

	"curator/internal/delivery/http/response"
	"curator/internal/usecase"

	"github.com/labstack/echo/v4"
)

// ContextKeyIdentity is where Authenticate stores the resolved identity
// on the echo context.
const ContextKeyIdentity = "identity"

// AuthMiddleware provides middleware for session authentication and
// owner-only authorization.
type AuthMiddleware struct {
	authUC usecase.AuthUsecase
}

// NewAuthMiddleware is the constructor for AuthMiddleware.
func NewAuthMiddleware(authUC usecase.AuthUsecase) *AuthMiddleware {
	return &AuthMiddleware{authUC: authUC}
}

// Authenticate validates the bearer session token. The same lazy
// idle-timeout rule applies as on session restore: an expired session
// is deleted on this read and the request is rejected.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			return response.Unauthorized(c, "MISSING_TOKEN", "Authorization header is missing")
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			return response.Unauthorized(c, "INVALID_TOKEN_FORMAT", "Invalid token format, must be Bearer token")
		}

		identity, err := m.authUC.ValidateToken(c.Request().Context(), token)
		if err != nil {
			return err
		}

		c.Set(ContextKeyIdentity, identity)

		return next(c)
	}
}

// RequireOwner rejects requests from non-owner accounts. It must be
// used AFTER the Authenticate middleware.
func (m *AuthMiddleware) RequireOwner(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		identity, ok := c.Get(ContextKeyIdentity).(*usecase.Identity)
		if !ok || identity.Account == nil {
			return response.Forbidden(c, "FORBIDDEN", "Permission denied: identity missing")
		}

		if !identity.Account.IsOwner {
			return response.Forbidden(c, "FORBIDDEN", "Permission denied: owner account required")
		}

		return next(c)
	}
}
