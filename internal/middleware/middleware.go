package middleware

import (
	"net/http"
	"strings"

	"digital-menu/internal/service"

	"github.com/labstack/echo/v4"
)

const (
	ContextUserKey = "user"
	SessionCookie  = "session"
)

// Verifier 驗證 session token，service.Sessions 實作此介面
type Verifier interface {
	Verify(token string) (*service.Claims, error)
}

// tokenFromRequest 先看 Authorization: Bearer，再看 session cookie
func tokenFromRequest(c echo.Context) (string, error) {
	if authHeader := c.Request().Header.Get(echo.HeaderAuthorization); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
			return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header format")
		}
		return strings.TrimSpace(parts[1]), nil
	}
	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}
	return "", echo.NewHTTPError(http.StatusUnauthorized, "missing token")
}

func extractClaims(c echo.Context, v Verifier) (*service.Claims, error) {
	token, err := tokenFromRequest(c)
	if err != nil {
		return nil, err
	}
	claims, err := v.Verify(token)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired session")
	}
	return claims, nil
}

func RequireAuth(v Verifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := extractClaims(c, v)
			if err != nil {
				return err
			}
			c.Set(ContextUserKey, claims)
			return next(c)
		}
	}
}

// RequireAdmin 沒有 session 回 401，角色不是 admin 回 403
func RequireAdmin(v Verifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return RequireAuth(v)(func(c echo.Context) error {
			claims, ok := ClaimsFrom(c)
			if !ok || !claims.IsAdmin() {
				return echo.NewHTTPError(http.StatusForbidden, "admin privileges required")
			}
			return next(c)
		})
	}
}

// ClaimsFrom 取出 RequireAuth 放進 context 的 claims
func ClaimsFrom(c echo.Context) (*service.Claims, bool) {
	claims, ok := c.Get(ContextUserKey).(*service.Claims)
	return claims, ok && claims != nil
}
