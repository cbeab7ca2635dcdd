package store

import (
	"context"
	"fmt"

	"digital-menu/internal/database"
	"digital-menu/internal/model"
)

var categoriesTable = database.Table{
	Name:    "categories",
	Columns: []string{"name", "description"},
}

// CategoryPatch 只有非 nil 的欄位會被更新
type CategoryPatch struct {
	Name        *string
	Description *string
}

func (p CategoryPatch) values() database.Values {
	v := database.Values{}
	if p.Name != nil {
		v["name"] = *p.Name
	}
	if p.Description != nil {
		v["description"] = *p.Description
	}
	return v
}

func ListCategories(ctx context.Context, db database.DB) ([]model.Category, error) {
	list, err := database.QueryRows[model.Category](ctx, db,
		`SELECT id, name, description, created_at, updated_at
		 FROM categories ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("ListCategories: %w", err)
	}
	return list, nil
}

// GetCategory 找不到時回傳 nil, nil
func GetCategory(ctx context.Context, db database.DB, id string) (*model.Category, error) {
	c, err := database.QueryRow[model.Category](ctx, db,
		`SELECT id, name, description, created_at, updated_at
		 FROM categories WHERE id = $1`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("GetCategory: %w", err)
	}
	return c, nil
}

func CreateCategory(ctx context.Context, db database.DB, c *model.Category) (*model.Category, error) {
	created, err := database.Insert[model.Category](ctx, db, categoriesTable, database.Values{
		"name":        c.Name,
		"description": c.Description,
	})
	if err != nil {
		return nil, fmt.Errorf("CreateCategory: %w", err)
	}
	return created, nil
}

// UpdateCategory 找不到時回傳 nil, nil
func UpdateCategory(ctx context.Context, db database.DB, id string, patch CategoryPatch) (*model.Category, error) {
	updated, err := database.Update[model.Category](ctx, db, categoriesTable, id, patch.values())
	if err != nil {
		return nil, fmt.Errorf("UpdateCategory: %w", err)
	}
	return updated, nil
}

// DeleteCategory 仍有 menu item 參照時會回傳 foreign key 錯誤
func DeleteCategory(ctx context.Context, db database.DB, id string) (bool, error) {
	ok, err := database.Remove(ctx, db, categoriesTable, id)
	if err != nil {
		return false, fmt.Errorf("DeleteCategory: %w", err)
	}
	return ok, nil
}
