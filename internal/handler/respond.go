package handler

import (
	"net/http"

	"digital-menu/internal/api"
	"digital-menu/internal/database"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const internalErrorMessage = "internal server error"

// InternalError 把錯誤細節寫進 log，回應只給固定訊息
func InternalError(c echo.Context, err error, msg string) error {
	zerolog.Ctx(c.Request().Context()).Error().
		Err(err).
		Bool("unique_violation", database.IsUniqueViolation(err)).
		Bool("foreign_key_violation", database.IsForeignKeyViolation(err)).
		Msg(msg)
	return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: internalErrorMessage})
}

func BadRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: msg})
}

func NotFound(c echo.Context, msg string) error {
	return c.JSON(http.StatusNotFound, api.ErrorResponse{Message: msg})
}

// UUIDParam 讀取 path 參數並確認是 UUID，格式錯誤時不會打到資料庫
func UUIDParam(c echo.Context, name string) (string, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return "", false
	}
	return id.String(), true
}

// BindAndValidate 先 Bind 再跑 validator，失敗時已寫出 400 回應
func BindAndValidate(c echo.Context, req any) (bool, error) {
	if err := c.Bind(req); err != nil {
		return false, BadRequest(c, "invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return false, BadRequest(c, err.Error())
	}
	return true, nil
}
