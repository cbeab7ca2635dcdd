package users

import (
	"errors"
	"net/http"
	"strings"

	"digital-menu/internal/api"
	"digital-menu/internal/database"
	"digital-menu/internal/handler"
	"digital-menu/internal/middleware"
	"digital-menu/internal/model"
	"digital-menu/internal/service"
	"digital-menu/internal/store"

	"github.com/labstack/echo/v4"
)

var (
	hashPassword   = service.HashPassword
	changePassword = service.ChangePassword
	createUser     = store.CreateUser
	getUserByID    = store.GetUserByID
	listUsers      = store.ListUsers
	deleteUser     = store.DeleteUser
)

func toUserResponse(u *model.User) api.UserResponse {
	return api.UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role.String(),
		CreatedAt: u.CreatedAt,
	}
}

// @Summary     Create a staff user
// @Description 管理員建立一般使用者帳號 (Email 會自動轉小寫，角色固定為 user)
// @Tags        users
// @Accept      json
// @Accept      application/x-www-form-urlencoded
// @Produce     json
// @Param       body body     api.CreateUserRequest true "使用者資料"
// @Success     201  {object} api.UserResponse
// @Failure     400  {object} api.ErrorResponse
// @Failure     401  {object} api.ErrorResponse
// @Failure     403  {object} api.ErrorResponse
// @Failure     500  {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /admin/users [post]
func CreateUserHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req api.CreateUserRequest
		if ok, err := handler.BindAndValidate(c, &req); !ok {
			return err
		}

		hash, err := hashPassword(req.Password)
		if err != nil {
			return handler.InternalError(c, err, "hash password")
		}

		user, err := createUser(c.Request().Context(), db, &model.User{
			Email:        strings.ToLower(strings.TrimSpace(req.Email)),
			Name:         strings.TrimSpace(req.Name),
			PasswordHash: hash,
			Role:         model.RoleUser,
		})
		if err != nil {
			return handler.InternalError(c, err, "create user")
		}
		return c.JSON(http.StatusCreated, toUserResponse(user))
	}
}

// @Summary     List users
// @Tags        users
// @Produce     json
// @Success     200 {array}  api.UserResponse
// @Failure     500 {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /admin/users [get]
func ListUsersHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		list, err := listUsers(c.Request().Context(), db)
		if err != nil {
			return handler.InternalError(c, err, "list users")
		}
		resp := make([]api.UserResponse, 0, len(list))
		for i := range list {
			resp = append(resp, toUserResponse(&list[i]))
		}
		return c.JSON(http.StatusOK, resp)
	}
}

// @Summary     Get a user by ID
// @Tags        users
// @Produce     json
// @Param       id  path     string true "使用者 ID (uuid)"
// @Success     200 {object} api.UserResponse
// @Failure     400 {object} api.ErrorResponse "參數錯誤"
// @Failure     404 {object} api.ErrorResponse "使用者不存在"
// @Failure     500 {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /admin/users/{id} [get]
func GetUserHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := handler.UUIDParam(c, "id")
		if !ok {
			return handler.BadRequest(c, "invalid user ID")
		}
		user, err := getUserByID(c.Request().Context(), db, id)
		if err != nil {
			return handler.InternalError(c, err, "get user")
		}
		if user == nil {
			return handler.NotFound(c, "user not found")
		}
		return c.JSON(http.StatusOK, toUserResponse(user))
	}
}

// @Summary     Delete a user by ID
// @Description 管理員不能刪除自己的帳號
// @Tags        users
// @Param       id  path string true "使用者 ID (uuid)"
// @Success     204 "No Content"
// @Failure     400 {object} api.ErrorResponse
// @Failure     404 {object} api.ErrorResponse
// @Failure     500 {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /admin/users/{id} [delete]
func DeleteUserHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := handler.UUIDParam(c, "id")
		if !ok {
			return handler.BadRequest(c, "invalid user ID")
		}
		if claims, ok := middleware.ClaimsFrom(c); ok && claims.ID == id {
			return handler.BadRequest(c, "cannot delete your own account")
		}
		deleted, err := deleteUser(c.Request().Context(), db, id)
		if err != nil {
			return handler.InternalError(c, err, "delete user")
		}
		if !deleted {
			return handler.NotFound(c, "user not found")
		}
		return c.NoContent(http.StatusNoContent)
	}
}

// @Summary     Get current user info
// @Description 透過 session 取得當前使用者資料
// @Tags        users
// @Produce     json
// @Success     200 {object} api.UserResponse
// @Failure     401 {object} api.ErrorResponse
// @Failure     404 {object} api.ErrorResponse
// @Failure     500 {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /users/me [get]
func GetMyUserHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, ok := middleware.ClaimsFrom(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, api.ErrorResponse{Message: "invalid or missing token"})
		}
		user, err := getUserByID(c.Request().Context(), db, claims.ID)
		if err != nil {
			return handler.InternalError(c, err, "get current user")
		}
		if user == nil {
			return handler.NotFound(c, "user not found")
		}
		return c.JSON(http.StatusOK, toUserResponse(user))
	}
}

// @Summary     Update own password
// @Description 驗證舊密碼並更新為新密碼
// @Tags        users
// @Accept      json
// @Accept      application/x-www-form-urlencoded
// @Produce     json
// @Param       body body api.UpdateMyPasswordRequest true "新舊密碼"
// @Success     204  "No Content"
// @Failure     400  {object} api.ErrorResponse
// @Failure     401  {object} api.ErrorResponse
// @Failure     404  {object} api.ErrorResponse
// @Failure     500  {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /users/me/password [patch]
func UpdateMyPasswordHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req api.UpdateMyPasswordRequest
		if ok, err := handler.BindAndValidate(c, &req); !ok {
			return err
		}
		claims, ok := middleware.ClaimsFrom(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, api.ErrorResponse{Message: "invalid or missing token"})
		}

		err := changePassword(c.Request().Context(), db, claims.ID, req.OldPassword, req.NewPassword)
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			return c.JSON(http.StatusUnauthorized, api.ErrorResponse{Message: "invalid current password"})
		case errors.Is(err, service.ErrUserNotFound):
			return handler.NotFound(c, "user not found")
		case err != nil:
			return handler.InternalError(c, err, "change password")
		}
		return c.NoContent(http.StatusNoContent)
	}
}
