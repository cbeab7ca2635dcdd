package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"digital-menu/internal/model"
	"digital-menu/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var sessions = service.NewSessions("testsecret", time.Minute, "test")

func issue(t *testing.T, role model.Role) string {
	t.Helper()
	tok, _, err := sessions.Issue(&model.User{ID: "u-" + string(role), Role: role})
	require.NoError(t, err)
	return tok
}

func newContext(auth string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected *echo.HTTPError, got %T", err)
	return he.Code
}

func TestExtractClaims(t *testing.T) {
	// missing header
	ctx, _ := newContext("")
	_, err := extractClaims(ctx, sessions)
	require.Equal(t, http.StatusUnauthorized, statusOf(t, err))

	// bad format
	ctx, _ = newContext("BadHeader")
	_, err = extractClaims(ctx, sessions)
	require.Equal(t, http.StatusUnauthorized, statusOf(t, err))

	// invalid token
	ctx, _ = newContext("Bearer invalid")
	_, err = extractClaims(ctx, sessions)
	require.Equal(t, http.StatusUnauthorized, statusOf(t, err))

	// valid token
	ctx, _ = newContext("Bearer " + issue(t, model.RoleAdmin))
	claims, err := extractClaims(ctx, sessions)
	require.NoError(t, err)
	require.Equal(t, "u-admin", claims.ID)
	require.True(t, claims.IsAdmin())
}

func TestExtractClaimsFromCookie(t *testing.T) {
	ctx, _ := newContext("")
	ctx.Request().AddCookie(&http.Cookie{Name: SessionCookie, Value: issue(t, model.RoleUser)})
	claims, err := extractClaims(ctx, sessions)
	require.NoError(t, err)
	require.Equal(t, model.RoleUser, claims.Role)
}

func TestRequireAuth(t *testing.T) {
	ctx, rec := newContext("Bearer " + issue(t, model.RoleUser))
	called := false
	handler := RequireAuth(sessions)(func(c echo.Context) error {
		called = true
		cl, ok := ClaimsFrom(c)
		require.True(t, ok)
		require.Equal(t, "u-user", cl.ID)
		return c.String(http.StatusOK, "ok")
	})
	require.NoError(t, handler(ctx))
	require.True(t, called)
	require.Equal(t, http.StatusOK, rec.Code)

	// missing token
	ctx, _ = newContext("")
	called = false
	err := RequireAuth(sessions)(func(echo.Context) error { called = true; return nil })(ctx)
	require.Equal(t, http.StatusUnauthorized, statusOf(t, err))
	require.False(t, called)
}

func TestRequireAdmin(t *testing.T) {
	next := func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }

	// 沒有 session -> 401
	ctx, _ := newContext("")
	err := RequireAdmin(sessions)(next)(ctx)
	require.Equal(t, http.StatusUnauthorized, statusOf(t, err))

	// 一般使用者 -> 403
	ctx, _ = newContext("Bearer " + issue(t, model.RoleUser))
	err = RequireAdmin(sessions)(next)(ctx)
	require.Equal(t, http.StatusForbidden, statusOf(t, err))

	// admin -> 放行
	ctx, rec := newContext("Bearer " + issue(t, model.RoleAdmin))
	require.NoError(t, RequireAdmin(sessions)(next)(ctx))
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRequireAdminThroughEcho(t *testing.T) {
	e := echo.New()
	e.GET("/admin", func(c echo.Context) error { return c.String(http.StatusOK, "ok") }, RequireAdmin(sessions))

	cases := []struct {
		name string
		auth string
		want int
	}{
		{"no session", "", http.StatusUnauthorized},
		{"user session", "Bearer " + issue(t, model.RoleUser), http.StatusForbidden},
		{"admin session", "Bearer " + issue(t, model.RoleAdmin), http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tc.auth != "" {
				req.Header.Set("Authorization", tc.auth)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			require.Equal(t, tc.want, rec.Code)
			if tc.want != http.StatusOK {
				var body map[string]string
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				require.NotEmpty(t, body["message"])
			}
		})
	}
}

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)

	e := echo.New()
	e.Use(RequestLogger(log), ContextLogger(log))
	e.GET("/ping", func(c echo.Context) error {
		zerolog.Ctx(c.Request().Context()).Info().Msg("inside")
		return c.NoContent(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Contains(t, buf.String(), `"message":"inside"`)
	require.Contains(t, buf.String(), `"route":"/ping"`)
	require.Contains(t, buf.String(), `"status":204`)
}
