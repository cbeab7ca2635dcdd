package wishlists

import (
	"context"
	"net/http"

	"digital-menu/internal/api"
	"digital-menu/internal/database"
	"digital-menu/internal/handler"
	"digital-menu/internal/model"
	"digital-menu/internal/store"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

var getMenuItem = store.GetMenuItem

// Lists 由 wishlist.Store 實作
type Lists interface {
	Items(ctx context.Context, id uuid.UUID) ([]string, error)
	Add(ctx context.Context, id, itemID uuid.UUID) error
	Remove(ctx context.Context, id uuid.UUID, itemIDs ...string) error
	Clear(ctx context.Context, id uuid.UUID) error
}

func wishlistID(c echo.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("wishlist_id"))
	return id, err == nil
}

// @Summary     Get a wishlist
// @Description 回傳收藏清單內目前可供應的品項；已被刪除的品項會自動移出清單
// @Tags        wishlists
// @Produce     json
// @Param       wishlist_id path     string true "清單 ID (客戶端產生的 uuid)"
// @Success     200         {object} api.WishlistResponse
// @Failure     400         {object} api.ErrorResponse
// @Failure     500         {object} api.ErrorResponse
// @Router      /wishlists/{wishlist_id} [get]
func GetWishlistHandler(db database.DB, lists Lists) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := wishlistID(c)
		if !ok {
			return handler.BadRequest(c, "invalid wishlist ID")
		}
		ctx := c.Request().Context()
		itemIDs, err := lists.Items(ctx, id)
		if err != nil {
			return handler.InternalError(c, err, "read wishlist")
		}

		items := make([]model.MenuItem, 0, len(itemIDs))
		var gone []string
		for _, itemID := range itemIDs {
			item, err := getMenuItem(ctx, db, itemID)
			if err != nil {
				return handler.InternalError(c, err, "get wishlist item")
			}
			if item == nil {
				gone = append(gone, itemID)
				continue
			}
			if item.IsAvailable {
				items = append(items, *item)
			}
		}
		if len(gone) > 0 {
			if err := lists.Remove(ctx, id, gone...); err != nil {
				zerolog.Ctx(ctx).Warn().Err(err).Strs("items", gone).Msg("prune wishlist failed")
			}
		}
		return c.JSON(http.StatusOK, api.WishlistResponse{ID: id.String(), Items: items})
	}
}

// @Summary     Add an item to a wishlist
// @Tags        wishlists
// @Param       wishlist_id path string true "清單 ID (uuid)"
// @Param       item_id     path string true "品項 ID (uuid)"
// @Success     204 "No Content"
// @Failure     400 {object} api.ErrorResponse
// @Failure     404 {object} api.ErrorResponse
// @Failure     500 {object} api.ErrorResponse
// @Router      /wishlists/{wishlist_id}/items/{item_id} [put]
func AddItemHandler(db database.DB, lists Lists) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := wishlistID(c)
		if !ok {
			return handler.BadRequest(c, "invalid wishlist ID")
		}
		itemID, err := uuid.Parse(c.Param("item_id"))
		if err != nil {
			return handler.BadRequest(c, "invalid menu item ID")
		}
		ctx := c.Request().Context()
		item, err := getMenuItem(ctx, db, itemID.String())
		if err != nil {
			return handler.InternalError(c, err, "get menu item")
		}
		if item == nil || !item.IsAvailable {
			return handler.NotFound(c, "menu item not found")
		}
		if err := lists.Add(ctx, id, itemID); err != nil {
			return handler.InternalError(c, err, "add wishlist item")
		}
		return c.NoContent(http.StatusNoContent)
	}
}

// @Summary     Remove an item from a wishlist
// @Tags        wishlists
// @Param       wishlist_id path string true "清單 ID (uuid)"
// @Param       item_id     path string true "品項 ID (uuid)"
// @Success     204 "No Content"
// @Failure     400 {object} api.ErrorResponse
// @Failure     500 {object} api.ErrorResponse
// @Router      /wishlists/{wishlist_id}/items/{item_id} [delete]
func RemoveItemHandler(lists Lists) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := wishlistID(c)
		if !ok {
			return handler.BadRequest(c, "invalid wishlist ID")
		}
		itemID, err := uuid.Parse(c.Param("item_id"))
		if err != nil {
			return handler.BadRequest(c, "invalid menu item ID")
		}
		if err := lists.Remove(c.Request().Context(), id, itemID.String()); err != nil {
			return handler.InternalError(c, err, "remove wishlist item")
		}
		return c.NoContent(http.StatusNoContent)
	}
}

// @Summary     Clear a wishlist
// @Tags        wishlists
// @Param       wishlist_id path string true "清單 ID (uuid)"
// @Success     204 "No Content"
// @Failure     400 {object} api.ErrorResponse
// @Failure     500 {object} api.ErrorResponse
// @Router      /wishlists/{wishlist_id} [delete]
func ClearWishlistHandler(lists Lists) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := wishlistID(c)
		if !ok {
			return handler.BadRequest(c, "invalid wishlist ID")
		}
		if err := lists.Clear(c.Request().Context(), id); err != nil {
			return handler.InternalError(c, err, "clear wishlist")
		}
		return c.NoContent(http.StatusNoContent)
	}
}
