package middleware

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	memory "amravatimarket/internal/adapter/repository"
	"amravatimarket/internal/domain/entity"
	"amravatimarket/internal/infrastructure/ratelimit"
	"amravatimarket/pkg/errors"
	"amravatimarket/pkg/response"
)

type staticVerifier map[string]string

func (v staticVerifier) VerifyToken(ctx context.Context, token string) (string, error) {
	if uid, ok := v[token]; ok {
		return uid, nil
	}
	return "", stderrors.New("token rejected")
}

func echoUID(c echo.Context) error {
	return c.String(http.StatusOK, UserID(c))
}

func serve(t *testing.T, h echo.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	require.NoError(t, h(e.NewContext(req, rec)))
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body response.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotNil(t, body.Error)
	return body.Error.Code
}

func TestAuthenticate(t *testing.T) {
	auth := NewAuthMiddleware(staticVerifier{"good": "u1"})
	h := auth.Authenticate(echoUID)

	t.Run("missing header", func(t *testing.T) {
		rec := serve(t, h, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, errors.CodeNotAuthenticated, errorCode(t, rec))
	})

	t.Run("invalid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer bad")
		rec := serve(t, h, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("malformed header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(echo.HeaderAuthorization, "good")
		rec := serve(t, h, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("query token ignored outside streams", func(t *testing.T) {
		rec := serve(t, h, httptest.NewRequest(http.MethodGet, "/?token=good", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid bearer", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer good")
		rec := serve(t, h, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "u1", rec.Body.String())
	})
}

func TestAuthenticateStreamAcceptsQueryToken(t *testing.T) {
	auth := NewAuthMiddleware(staticVerifier{"good": "u1"})
	rec := serve(t, auth.AuthenticateStream(echoUID), httptest.NewRequest(http.MethodGet, "/?token=good", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", rec.Body.String())
}

func TestAdminOnly(t *testing.T) {
	store := memory.NewMemoryStore()
	store.PutUser(&entity.User{ID: "admin", Role: "admin"})
	store.PutUser(&entity.User{ID: "member", Role: "user"})
	admin := NewAdminMiddleware(memory.NewMemoryUserRepository(store))

	run := func(uid string) *httptest.ResponseRecorder {
		e := echo.New()
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)
		if uid != "" {
			c.Set("uid", uid)
		}
		require.NoError(t, admin.AdminOnly(echoUID)(c))
		return rec
	}

	assert.Equal(t, http.StatusOK, run("admin").Code)

	rec := run("member")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, errors.CodeForbidden, errorCode(t, rec))

	assert.Equal(t, http.StatusForbidden, run("ghost").Code)
	assert.Equal(t, http.StatusUnauthorized, run("").Code)
}

func TestRateLimitRejectsWithRetryAfter(t *testing.T) {
	limiter := ratelimit.NewRateLimiter(map[string]ratelimit.Policy{
		ratelimit.ActionHTTP: {Burst: 2, Every: time.Minute},
	})
	h := RateLimit(limiter)(func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	newReq := func() *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(echo.HeaderXRealIP, "10.0.0.7")
		return req
	}

	assert.Equal(t, http.StatusNoContent, serve(t, h, newReq()).Code)
	assert.Equal(t, http.StatusNoContent, serve(t, h, newReq()).Code)

	rec := serve(t, h, newReq())
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, errors.CodeTooManyRequests, errorCode(t, rec))
}
