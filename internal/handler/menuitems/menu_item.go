package menuitems

import (
	"net/http"
	"strings"

	"digital-menu/internal/api"
	"digital-menu/internal/database"
	"digital-menu/internal/handler"
	"digital-menu/internal/menu"
	"digital-menu/internal/model"
	"digital-menu/internal/store"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

var (
	listCategories         = store.ListCategories
	listMenuItems          = store.ListMenuItems
	listAvailableMenuItems = store.ListAvailableMenuItems
	getMenuItem            = store.GetMenuItem
	createMenuItem         = store.CreateMenuItem
	updateMenuItem         = store.UpdateMenuItem
	deleteMenuItem         = store.DeleteMenuItem
)

// withCategoryName 寫入後重新讀取，讓回應與 GET 一樣帶 category_name；
// 讀取失敗時退回 RETURNING 的結果
func withCategoryName(c echo.Context, db database.DB, item *model.MenuItem) *model.MenuItem {
	full, err := getMenuItem(c.Request().Context(), db, item.ID)
	if err != nil || full == nil {
		zerolog.Ctx(c.Request().Context()).Warn().Err(err).Str("menu_item_id", item.ID).
			Msg("reload menu item after write failed")
		return item
	}
	return full
}

// @Summary     Public menu items
// @Description 只回傳可供應的品項，可依關鍵字、分類、價格區間篩選並排序
// @Tags        menu
// @Produce     json
// @Param       search    query    string   false "搜尋名稱或描述"
// @Param       category  query    []string false "分類 ID，可重複" collectionFormat(multi)
// @Param       min_price query    number   false "最低價格"
// @Param       max_price query    number   false "最高價格"
// @Param       sort      query    string   false "name 或 price" Enums(name, price)
// @Param       order     query    string   false "asc 或 desc" Enums(asc, desc)
// @Success     200       {array}  model.MenuItem
// @Failure     400       {object} api.ErrorResponse
// @Failure     500       {object} api.ErrorResponse
// @Router      /menu-items [get]
func ListPublicMenuItemsHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		f, err := menu.ParseFilter(c.QueryParams())
		if err != nil {
			return handler.BadRequest(c, err.Error())
		}
		items, err := listAvailableMenuItems(c.Request().Context(), db)
		if err != nil {
			return handler.InternalError(c, err, "list available menu items")
		}
		return c.JSON(http.StatusOK, menu.Apply(items, f))
	}
}

// @Summary     Grouped menu
// @Description 同 /menu-items 的篩選條件，結果依分類分組，沒有品項的分類不回傳
// @Tags        menu
// @Produce     json
// @Param       search    query    string   false "搜尋名稱或描述"
// @Param       category  query    []string false "分類 ID，可重複" collectionFormat(multi)
// @Param       min_price query    number   false "最低價格"
// @Param       max_price query    number   false "最高價格"
// @Param       sort      query    string   false "name 或 price" Enums(name, price)
// @Param       order     query    string   false "asc 或 desc" Enums(asc, desc)
// @Success     200       {object} menu.Menu
// @Failure     400       {object} api.ErrorResponse
// @Failure     500       {object} api.ErrorResponse
// @Router      /menu [get]
func MenuHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		f, err := menu.ParseFilter(c.QueryParams())
		if err != nil {
			return handler.BadRequest(c, err.Error())
		}
		ctx := c.Request().Context()
		categories, err := listCategories(ctx, db)
		if err != nil {
			return handler.InternalError(c, err, "list categories")
		}
		items, err := listAvailableMenuItems(ctx, db)
		if err != nil {
			return handler.InternalError(c, err, "list available menu items")
		}
		return c.JSON(http.StatusOK, menu.Build(categories, items, f))
	}
}

// @Summary     List all menu items
// @Description 管理用，包含不可供應的品項，依分類名稱再依品項名稱排序
// @Tags        menu-items
// @Produce     json
// @Success     200 {array}  model.MenuItem
// @Failure     500 {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /admin/menu-items [get]
func ListMenuItemsHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		items, err := listMenuItems(c.Request().Context(), db)
		if err != nil {
			return handler.InternalError(c, err, "list menu items")
		}
		return c.JSON(http.StatusOK, items)
	}
}

// @Summary     Get a menu item
// @Tags        menu-items
// @Produce     json
// @Param       id  path     string true "品項 ID (uuid)"
// @Success     200 {object} model.MenuItem
// @Failure     400 {object} api.ErrorResponse
// @Failure     404 {object} api.ErrorResponse
// @Failure     500 {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /admin/menu-items/{id} [get]
func GetMenuItemHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := handler.UUIDParam(c, "id")
		if !ok {
			return handler.BadRequest(c, "invalid menu item ID")
		}
		item, err := getMenuItem(c.Request().Context(), db, id)
		if err != nil {
			return handler.InternalError(c, err, "get menu item")
		}
		if item == nil {
			return handler.NotFound(c, "menu item not found")
		}
		return c.JSON(http.StatusOK, item)
	}
}

// @Summary     Create a menu item
// @Description price 必填；is_available 未帶時預設為 true；分類不存在時寫入會失敗
// @Tags        menu-items
// @Accept      json
// @Produce     json
// @Param       body body     api.CreateMenuItemRequest true "品項資料"
// @Success     201  {object} model.MenuItem
// @Failure     400  {object} api.ErrorResponse
// @Failure     500  {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /admin/menu-items [post]
func CreateMenuItemHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req api.CreateMenuItemRequest
		if ok, err := handler.BindAndValidate(c, &req); !ok {
			return err
		}
		if req.Price == nil {
			return handler.BadRequest(c, "price is required")
		}
		if req.Price.IsNegative() {
			return handler.BadRequest(c, "price must not be negative")
		}

		item := &model.MenuItem{
			Name:        strings.TrimSpace(req.Name),
			Description: req.Description,
			Price:       req.Price.Round(2),
			CategoryID:  strings.ToLower(req.CategoryID),
			ImageURL:    req.ImageURL,
			IsAvailable: true,
		}
		if req.IsAvailable != nil {
			item.IsAvailable = *req.IsAvailable
		}

		created, err := createMenuItem(c.Request().Context(), db, item)
		if err != nil {
			return handler.InternalError(c, err, "create menu item")
		}
		return c.JSON(http.StatusCreated, withCategoryName(c, db, created))
	}
}

// @Summary     Update a menu item
// @Description 只更新有帶的欄位
// @Tags        menu-items
// @Accept      json
// @Produce     json
// @Param       id   path     string                    true "品項 ID (uuid)"
// @Param       body body     api.UpdateMenuItemRequest true "要更新的欄位"
// @Success     200  {object} model.MenuItem
// @Failure     400  {object} api.ErrorResponse
// @Failure     404  {object} api.ErrorResponse
// @Failure     500  {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /admin/menu-items/{id} [put]
func UpdateMenuItemHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := handler.UUIDParam(c, "id")
		if !ok {
			return handler.BadRequest(c, "invalid menu item ID")
		}
		var req api.UpdateMenuItemRequest
		if ok, err := handler.BindAndValidate(c, &req); !ok {
			return err
		}
		if req.Price != nil {
			if req.Price.IsNegative() {
				return handler.BadRequest(c, "price must not be negative")
			}
			rounded := req.Price.Round(2)
			req.Price = &rounded
		}

		patch := store.MenuItemPatch{
			Name:        req.Name,
			Description: req.Description,
			Price:       req.Price,
			CategoryID:  req.CategoryID,
			ImageURL:    req.ImageURL,
			IsAvailable: req.IsAvailable,
		}
		if patch == (store.MenuItemPatch{}) {
			return handler.BadRequest(c, "no fields to update")
		}

		updated, err := updateMenuItem(c.Request().Context(), db, id, patch)
		if err != nil {
			return handler.InternalError(c, err, "update menu item")
		}
		if updated == nil {
			return handler.NotFound(c, "menu item not found")
		}
		return c.JSON(http.StatusOK, withCategoryName(c, db, updated))
	}
}

// @Summary     Delete a menu item
// @Tags        menu-items
// @Param       id  path string true "品項 ID (uuid)"
// @Success     204 "No Content"
// @Failure     400 {object} api.ErrorResponse
// @Failure     404 {object} api.ErrorResponse
// @Failure     500 {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /admin/menu-items/{id} [delete]
func DeleteMenuItemHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := handler.UUIDParam(c, "id")
		if !ok {
			return handler.BadRequest(c, "invalid menu item ID")
		}
		deleted, err := deleteMenuItem(c.Request().Context(), db, id)
		if err != nil {
			return handler.InternalError(c, err, "delete menu item")
		}
		if !deleted {
			return handler.NotFound(c, "menu item not found")
		}
		return c.NoContent(http.StatusNoContent)
	}
}
