package categories

import (
	"net/http"

	"digital-menu/internal/api"
	"digital-menu/internal/database"
	"digital-menu/internal/handler"
	"digital-menu/internal/model"
	"digital-menu/internal/store"

	"github.com/labstack/echo/v4"
)

var (
	listCategories = store.ListCategories
	getCategory    = store.GetCategory
	createCategory = store.CreateCategory
	updateCategory = store.UpdateCategory
	deleteCategory = store.DeleteCategory
)

// @Summary     List categories
// @Description 依名稱排序回傳所有分類
// @Tags        categories
// @Produce     json
// @Success     200 {array}  model.Category
// @Failure     500 {object} api.ErrorResponse
// @Router      /categories [get]
// @Router      /admin/categories [get]
func ListCategoriesHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		list, err := listCategories(c.Request().Context(), db)
		if err != nil {
			return handler.InternalError(c, err, "list categories")
		}
		return c.JSON(http.StatusOK, list)
	}
}

// @Summary     Get a category
// @Tags        categories
// @Produce     json
// @Param       id  path     string true "分類 ID (uuid)"
// @Success     200 {object} model.Category
// @Failure     400 {object} api.ErrorResponse
// @Failure     404 {object} api.ErrorResponse
// @Failure     500 {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /admin/categories/{id} [get]
func GetCategoryHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := handler.UUIDParam(c, "id")
		if !ok {
			return handler.BadRequest(c, "invalid category ID")
		}
		cat, err := getCategory(c.Request().Context(), db, id)
		if err != nil {
			return handler.InternalError(c, err, "get category")
		}
		if cat == nil {
			return handler.NotFound(c, "category not found")
		}
		return c.JSON(http.StatusOK, cat)
	}
}

// @Summary     Create a category
// @Tags        categories
// @Accept      json
// @Produce     json
// @Param       body body     api.CreateCategoryRequest true "分類資料"
// @Success     201  {object} model.Category
// @Failure     400  {object} api.ErrorResponse
// @Failure     500  {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /admin/categories [post]
func CreateCategoryHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req api.CreateCategoryRequest
		if ok, err := handler.BindAndValidate(c, &req); !ok {
			return err
		}
		created, err := createCategory(c.Request().Context(), db, &model.Category{
			Name:        req.Name,
			Description: req.Description,
		})
		if err != nil {
			return handler.InternalError(c, err, "create category")
		}
		return c.JSON(http.StatusCreated, created)
	}
}

// @Summary     Update a category
// @Description 只更新有帶的欄位
// @Tags        categories
// @Accept      json
// @Produce     json
// @Param       id   path     string                    true "分類 ID (uuid)"
// @Param       body body     api.UpdateCategoryRequest true "要更新的欄位"
// @Success     200  {object} model.Category
// @Failure     400  {object} api.ErrorResponse
// @Failure     404  {object} api.ErrorResponse
// @Failure     500  {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /admin/categories/{id} [put]
func UpdateCategoryHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := handler.UUIDParam(c, "id")
		if !ok {
			return handler.BadRequest(c, "invalid category ID")
		}
		var req api.UpdateCategoryRequest
		if ok, err := handler.BindAndValidate(c, &req); !ok {
			return err
		}
		patch := store.CategoryPatch{Name: req.Name, Description: req.Description}
		if patch == (store.CategoryPatch{}) {
			return handler.BadRequest(c, "no fields to update")
		}

		updated, err := updateCategory(c.Request().Context(), db, id, patch)
		if err != nil {
			return handler.InternalError(c, err, "update category")
		}
		if updated == nil {
			return handler.NotFound(c, "category not found")
		}
		return c.JSON(http.StatusOK, updated)
	}
}

// @Summary     Delete a category
// @Description 仍有品項屬於此分類時刪除會失敗
// @Tags        categories
// @Param       id  path string true "分類 ID (uuid)"
// @Success     204 "No Content"
// @Failure     400 {object} api.ErrorResponse
// @Failure     404 {object} api.ErrorResponse
// @Failure     500 {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /admin/categories/{id} [delete]
func DeleteCategoryHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := handler.UUIDParam(c, "id")
		if !ok {
			return handler.BadRequest(c, "invalid category ID")
		}
		deleted, err := deleteCategory(c.Request().Context(), db, id)
		if err != nil {
			return handler.InternalError(c, err, "delete category")
		}
		if !deleted {
			return handler.NotFound(c, "category not found")
		}
		return c.NoContent(http.StatusNoContent)
	}
}
