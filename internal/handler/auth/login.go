// File: internal/handler/auth/login.go
package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"digital-menu/internal/api"
	"digital-menu/internal/database"
	"digital-menu/internal/handler"
	"digital-menu/internal/middleware"
	"digital-menu/internal/model"
	"digital-menu/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

var login = service.Login

// Issuer 簽發 session token，service.Sessions 實作此介面
type Issuer interface {
	Issue(u *model.User) (string, time.Time, error)
}

// Options 控制登入行為
type Options struct {
	BootstrapEnabled bool
	// SecureCookie 為 true 時 session cookie 只走 HTTPS
	SecureCookie bool
}

func sessionCookie(token string, exp time.Time, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  exp,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func toUserResponse(u *model.User) api.UserResponse {
	return api.UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role.String(),
		CreatedAt: u.CreatedAt,
	}
}

// LoginHandler 使用 Email/Password 驗證並回傳 session token
// @Summary     登入
// @Description 驗證 Email 與密碼，成功時回傳 token 並設定 HttpOnly session cookie。使用者表為空且允許 bootstrap 時，第一次登入會建立 admin
// @Tags        auth
// @Accept      json
// @Accept      application/x-www-form-urlencoded
// @Produce     json
// @Param       body body     api.LoginRequest true "登入資料"
// @Success     200  {object} api.LoginResponse
// @Failure     400  {object} api.ErrorResponse
// @Failure     401  {object} api.ErrorResponse
// @Failure     500  {object} api.ErrorResponse
// @Router      /auth/login [post]
func LoginHandler(db database.DB, sessions Issuer, opts Options) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req api.LoginRequest
		if ok, err := handler.BindAndValidate(c, &req); !ok {
			return err
		}
		email := strings.ToLower(strings.TrimSpace(req.Email))

		user, err := login(c.Request().Context(), db, email, req.Password,
			service.LoginOptions{BootstrapEnabled: opts.BootstrapEnabled})
		if errors.Is(err, service.ErrInvalidCredentials) {
			zerolog.Ctx(c.Request().Context()).Info().Str("email", email).Msg("login rejected")
			return c.JSON(http.StatusUnauthorized, api.ErrorResponse{Message: "invalid credentials"})
		}
		if err != nil {
			return handler.InternalError(c, err, "login failed")
		}

		token, exp, err := sessions.Issue(user)
		if err != nil {
			return handler.InternalError(c, err, "issue session token")
		}
		c.SetCookie(sessionCookie(token, exp, opts.SecureCookie))

		return c.JSON(http.StatusOK, api.LoginResponse{
			AccessToken: token,
			TokenType:   "Bearer",
			ExpiresAt:   exp,
			User:        toUserResponse(user),
		})
	}
}

// LogoutHandler 清除 session cookie
// @Summary     登出
// @Tags        auth
// @Success     204 "No Content"
// @Router      /auth/logout [post]
func LogoutHandler(opts Options) echo.HandlerFunc {
	return func(c echo.Context) error {
		cookie := sessionCookie("", time.Unix(0, 0), opts.SecureCookie)
		cookie.MaxAge = -1
		c.SetCookie(cookie)
		return c.NoContent(http.StatusNoContent)
	}
}

// SessionHandler 回傳目前 session 的使用者 id、角色與到期時間
// @Summary     Current session
// @Tags        auth
// @Produce     json
// @Success     200 {object} api.SessionResponse
// @Failure     401 {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /auth/session [get]
func SessionHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, ok := middleware.ClaimsFrom(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, api.ErrorResponse{Message: "invalid or missing token"})
		}
		resp := api.SessionResponse{ID: claims.ID, Role: claims.Role.String()}
		if claims.ExpiresAt != nil {
			resp.ExpiresAt = claims.ExpiresAt.Time
		}
		return c.JSON(http.StatusOK, resp)
	}
}
