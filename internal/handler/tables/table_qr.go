package tables

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"digital-menu/internal/api"
	"digital-menu/internal/database"
	"digital-menu/internal/handler"
	"digital-menu/internal/model"
	"digital-menu/internal/qrcode"
	"digital-menu/internal/store"
	"digital-menu/internal/worker"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

var (
	listTableQRs       = store.ListTableQRs
	getTableQR         = store.GetTableQR
	getTableQRByNumber = store.GetTableQRByNumber
	createTableQR      = store.CreateTableQR
	updateTableQR      = store.UpdateTableQR
	deleteTableQR      = store.DeleteTableQR
	buildQRURL         = qrcode.BuildURL
)

const prefetchTimeout = 10 * time.Second

// QRConfig 決定 QR code 指向的點餐頁與繪圖服務
type QRConfig struct {
	RenderURL     string
	PublicBaseURL string
}

// ImageFetcher 由 qrcode.Fetcher 實作
type ImageFetcher interface {
	Image(ctx context.Context, qrURL string) ([]byte, error)
	Prefetch(ctx context.Context, qrURL string) error
}

// Submitter 由 worker.Pool 實作
type Submitter interface {
	TrySubmit(worker.Task) bool
}

// schedulePrefetch 在背景把新 QR 圖片放進快取，佇列滿時略過
func schedulePrefetch(c echo.Context, pool Submitter, fetcher ImageFetcher, qrURL string) {
	if pool == nil || fetcher == nil {
		return
	}
	log := zerolog.Ctx(c.Request().Context())
	queued := pool.TrySubmit(func() {
		ctx, cancel := context.WithTimeout(log.WithContext(context.Background()), prefetchTimeout)
		defer cancel()
		if err := fetcher.Prefetch(ctx, qrURL); err != nil {
			log.Warn().Err(err).Str("qr_code_url", qrURL).Msg("qr prefetch failed")
		}
	})
	if !queued {
		log.Debug().Str("qr_code_url", qrURL).Msg("qr prefetch skipped, queue full")
	}
}

// @Summary     Look up a table
// @Description 掃描 QR code 後用桌號查詢桌子資訊，停用中的桌子視為不存在
// @Tags        tables
// @Produce     json
// @Param       table_number path     int true "桌號"
// @Success     200          {object} model.TableQR
// @Failure     400          {object} api.ErrorResponse
// @Failure     404          {object} api.ErrorResponse
// @Failure     500          {object} api.ErrorResponse
// @Router      /tables/{table_number} [get]
func GetTableByNumberHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		number, err := strconv.Atoi(c.Param("table_number"))
		if err != nil || number <= 0 {
			return handler.BadRequest(c, "invalid table number")
		}
		t, err := getTableQRByNumber(c.Request().Context(), db, number)
		if err != nil {
			return handler.InternalError(c, err, "get table by number")
		}
		if t == nil || !t.IsActive {
			return handler.NotFound(c, "table not found")
		}
		return c.JSON(http.StatusOK, t)
	}
}

// @Summary     Table QR image
// @Description 代理繪圖服務回傳的 PNG，結果快取於 Redis；繪圖服務連續失敗時熔斷並回 502
// @Tags        tables
// @Produce     png
// @Param       id  path string true "桌子 ID (uuid)"
// @Success     200 {file} binary
// @Failure     400 {object} api.ErrorResponse
// @Failure     404 {object} api.ErrorResponse
// @Failure     502 {object} api.ErrorResponse
// @Router      /table-qrs/{id}/qr.png [get]
func QRImageHandler(db database.DB, fetcher ImageFetcher) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := handler.UUIDParam(c, "id")
		if !ok {
			return handler.BadRequest(c, "invalid table ID")
		}
		ctx := c.Request().Context()
		t, err := getTableQR(ctx, db, id)
		if err != nil {
			return handler.InternalError(c, err, "get table")
		}
		if t == nil {
			return handler.NotFound(c, "table not found")
		}

		img, err := fetcher.Image(ctx, t.QRCodeURL)
		if errors.Is(err, qrcode.ErrUnavailable) || errors.Is(err, qrcode.ErrUpstream) {
			zerolog.Ctx(ctx).Error().Err(err).Str("qr_code_url", t.QRCodeURL).Msg("qr image fetch failed")
			return c.JSON(http.StatusBadGateway, api.ErrorResponse{Message: "qr code service unavailable"})
		}
		if err != nil {
			return handler.InternalError(c, err, "qr image")
		}
		c.Response().Header().Set("Cache-Control", "public, max-age=3600")
		return c.Blob(http.StatusOK, "image/png", img)
	}
}

// @Summary     List tables
// @Tags        table-qrs
// @Produce     json
// @Success     200 {array}  model.TableQR
// @Failure     500 {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /admin/table-qrs [get]
func ListTableQRsHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		list, err := listTableQRs(c.Request().Context(), db)
		if err != nil {
			return handler.InternalError(c, err, "list tables")
		}
		return c.JSON(http.StatusOK, list)
	}
}

// @Summary     Get a table
// @Tags        table-qrs
// @Produce     json
// @Param       id  path     string true "桌子 ID (uuid)"
// @Success     200 {object} model.TableQR
// @Failure     400 {object} api.ErrorResponse
// @Failure     404 {object} api.ErrorResponse
// @Failure     500 {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /admin/table-qrs/{id} [get]
func GetTableQRHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := handler.UUIDParam(c, "id")
		if !ok {
			return handler.BadRequest(c, "invalid table ID")
		}
		t, err := getTableQR(c.Request().Context(), db, id)
		if err != nil {
			return handler.InternalError(c, err, "get table")
		}
		if t == nil {
			return handler.NotFound(c, "table not found")
		}
		return c.JSON(http.StatusOK, t)
	}
}

// @Summary     Create a table
// @Description 依桌號產生 QR code 網址，新桌子預設啟用；桌號重複時寫入會失敗
// @Tags        table-qrs
// @Accept      json
// @Produce     json
// @Param       body body     api.CreateTableQRRequest true "桌子資料"
// @Success     201  {object} model.TableQR
// @Failure     400  {object} api.ErrorResponse
// @Failure     500  {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /admin/table-qrs [post]
func CreateTableQRHandler(db database.DB, cfg QRConfig, pool Submitter, fetcher ImageFetcher) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req api.CreateTableQRRequest
		if ok, err := handler.BindAndValidate(c, &req); !ok {
			return err
		}
		qrURL, err := buildQRURL(cfg.RenderURL, cfg.PublicBaseURL, req.TableNumber)
		if errors.Is(err, qrcode.ErrInvalidTableNumber) {
			return handler.BadRequest(c, "invalid table number")
		}
		if err != nil {
			return handler.InternalError(c, err, "build qr url")
		}

		created, err := createTableQR(c.Request().Context(), db, &model.TableQR{
			TableNumber: req.TableNumber,
			Capacity:    req.Capacity,
			Location:    req.Location,
			QRCodeURL:   qrURL,
			IsActive:    true,
		})
		if err != nil {
			return handler.InternalError(c, err, "create table")
		}
		schedulePrefetch(c, pool, fetcher, created.QRCodeURL)
		return c.JSON(http.StatusCreated, created)
	}
}

// @Summary     Update a table
// @Description 只更新有帶的欄位；桌號改變時重新產生 QR code 網址
// @Tags        table-qrs
// @Accept      json
// @Produce     json
// @Param       id   path     string                   true "桌子 ID (uuid)"
// @Param       body body     api.UpdateTableQRRequest true "要更新的欄位"
// @Success     200  {object} model.TableQR
// @Failure     400  {object} api.ErrorResponse
// @Failure     404  {object} api.ErrorResponse
// @Failure     500  {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /admin/table-qrs/{id} [put]
func UpdateTableQRHandler(db database.DB, cfg QRConfig, pool Submitter, fetcher ImageFetcher) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := handler.UUIDParam(c, "id")
		if !ok {
			return handler.BadRequest(c, "invalid table ID")
		}
		var req api.UpdateTableQRRequest
		if ok, err := handler.BindAndValidate(c, &req); !ok {
			return err
		}

		patch := store.TableQRPatch{
			TableNumber: req.TableNumber,
			Capacity:    req.Capacity,
			Location:    req.Location,
			IsActive:    req.IsActive,
		}
		if patch == (store.TableQRPatch{}) {
			return handler.BadRequest(c, "no fields to update")
		}
		if req.TableNumber != nil {
			qrURL, err := buildQRURL(cfg.RenderURL, cfg.PublicBaseURL, *req.TableNumber)
			if errors.Is(err, qrcode.ErrInvalidTableNumber) {
				return handler.BadRequest(c, "invalid table number")
			}
			if err != nil {
				return handler.InternalError(c, err, "build qr url")
			}
			patch.QRCodeURL = &qrURL
		}

		updated, err := updateTableQR(c.Request().Context(), db, id, patch)
		if err != nil {
			return handler.InternalError(c, err, "update table")
		}
		if updated == nil {
			return handler.NotFound(c, "table not found")
		}
		if patch.QRCodeURL != nil {
			schedulePrefetch(c, pool, fetcher, updated.QRCodeURL)
		}
		return c.JSON(http.StatusOK, updated)
	}
}

// @Summary     Delete a table
// @Tags        table-qrs
// @Param       id  path string true "桌子 ID (uuid)"
// @Success     204 "No Content"
// @Failure     400 {object} api.ErrorResponse
// @Failure     404 {object} api.ErrorResponse
// @Failure     500 {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /admin/table-qrs/{id} [delete]
func DeleteTableQRHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := handler.UUIDParam(c, "id")
		if !ok {
			return handler.BadRequest(c, "invalid table ID")
		}
		deleted, err := deleteTableQR(c.Request().Context(), db, id)
		if err != nil {
			return handler.InternalError(c, err, "delete table")
		}
		if !deleted {
			return handler.NotFound(c, "table not found")
		}
		return c.NoContent(http.StatusNoContent)
	}
}
