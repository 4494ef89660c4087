package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"amravatimarket/pkg/errors"
	"amravatimarket/pkg/logger"
	"amravatimarket/pkg/response"
)

// TokenVerifier resolves an ID token to a user id.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (string, error)
}

type AuthMiddleware struct {
	verifier TokenVerifier
}

func NewAuthMiddleware(verifier TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{
		verifier: verifier,
	}
}

// Authenticate requires a Bearer token and stores the verified uid under
// "uid".
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return m.authenticate(next, false)
}

// AuthenticateStream also accepts ?token=, since browsers cannot set headers
// on websocket handshakes.
func (m *AuthMiddleware) AuthenticateStream(next echo.HandlerFunc) echo.HandlerFunc {
	return m.authenticate(next, true)
}

func (m *AuthMiddleware) authenticate(next echo.HandlerFunc, allowQuery bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
		if !ok && allowQuery {
			token = c.QueryParam("token")
			ok = token != ""
		}
		if !ok {
			return response.Error(c, errors.NotAuthenticated("Authorization token is required"))
		}

		uid, err := m.verifier.VerifyToken(c.Request().Context(), token)
		if err != nil || uid == "" {
			logger.Debug("Token rejected", "path", c.Path(), "error", err)
			return response.Error(c, errors.NotAuthenticated("Invalid or expired token"))
		}

		c.Set("uid", uid)
		return next(c)
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

// UserID returns the authenticated uid, or "" outside Authenticate.
func UserID(c echo.Context) string {
	uid, _ := c.Get("uid").(string)
	return uid
}
