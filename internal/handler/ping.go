package handler

import (
	"net/http"

	"digital-menu/internal/api"
	"digital-menu/internal/cache"
	"digital-menu/internal/database"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// PingHandler 健康檢查
// @Summary     Health Check
// @Description 檢查資料庫與 Redis 連線是否正常
// @Tags        health
// @Produce     json
// @Success     200 {object} api.PingResponse
// @Failure     500 {object} api.ErrorResponse
// @Router      /ping [get]
func PingHandler(db database.DB, cch cache.Cache) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := zerolog.Ctx(ctx)

		if err := db.Ping(ctx); err != nil {
			log.Error().Err(err).Msg("database ping failed")
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: "database unhealthy"})
		}
		if err := cch.Ping(ctx).Err(); err != nil {
			log.Error().Err(err).Msg("redis ping failed")
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: "cache unhealthy"})
		}
		return c.JSON(http.StatusOK, api.PingResponse{Database: "ok", Redis: "ok"})
	}
}
