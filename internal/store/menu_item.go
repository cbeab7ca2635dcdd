package store

import (
	"context"
	"fmt"

	"digital-menu/internal/database"
	"digital-menu/internal/model"

	"github.com/shopspring/decimal"
)

var menuItemsTable = database.Table{
	Name:    "menu_items",
	Columns: []string{"name", "description", "price", "category_id", "image_url", "is_available"},
}

const selectMenuItems = `SELECT m.id, m.name, m.description, m.price, m.category_id, m.image_url,
		m.is_available, m.created_at, m.updated_at, c.name AS category_name
	 FROM menu_items m
	 JOIN categories c ON m.category_id = c.id`

type MenuItemPatch struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	CategoryID  *string
	ImageURL    *string
	IsAvailable *bool
}

func (p MenuItemPatch) values() database.Values {
	v := database.Values{}
	if p.Name != nil {
		v["name"] = *p.Name
	}
	if p.Description != nil {
		v["description"] = *p.Description
	}
	if p.Price != nil {
		v["price"] = *p.Price
	}
	if p.CategoryID != nil {
		v["category_id"] = *p.CategoryID
	}
	if p.ImageURL != nil {
		v["image_url"] = *p.ImageURL
	}
	if p.IsAvailable != nil {
		v["is_available"] = *p.IsAvailable
	}
	return v
}

func ListMenuItems(ctx context.Context, db database.DB) ([]model.MenuItem, error) {
	list, err := database.QueryRows[model.MenuItem](ctx, db,
		selectMenuItems+` ORDER BY c.name, m.name`,
	)
	if err != nil {
		return nil, fmt.Errorf("ListMenuItems: %w", err)
	}
	return list, nil
}

// ListAvailableMenuItems 公開菜單只看得到 is_available 的品項
func ListAvailableMenuItems(ctx context.Context, db database.DB) ([]model.MenuItem, error) {
	list, err := database.QueryRows[model.MenuItem](ctx, db,
		selectMenuItems+` WHERE m.is_available ORDER BY c.name, m.name`,
	)
	if err != nil {
		return nil, fmt.Errorf("ListAvailableMenuItems: %w", err)
	}
	return list, nil
}

func GetMenuItem(ctx context.Context, db database.DB, id string) (*model.MenuItem, error) {
	item, err := database.QueryRow[model.MenuItem](ctx, db,
		selectMenuItems+` WHERE m.id = $1`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("GetMenuItem: %w", err)
	}
	return item, nil
}

func CreateMenuItem(ctx context.Context, db database.DB, item *model.MenuItem) (*model.MenuItem, error) {
	created, err := database.Insert[model.MenuItem](ctx, db, menuItemsTable, database.Values{
		"name":         item.Name,
		"description":  item.Description,
		"price":        item.Price,
		"category_id":  item.CategoryID,
		"image_url":    item.ImageURL,
		"is_available": item.IsAvailable,
	})
	if err != nil {
		return nil, fmt.Errorf("CreateMenuItem: %w", err)
	}
	return created, nil
}

func UpdateMenuItem(ctx context.Context, db database.DB, id string, patch MenuItemPatch) (*model.MenuItem, error) {
	updated, err := database.Update[model.MenuItem](ctx, db, menuItemsTable, id, patch.values())
	if err != nil {
		return nil, fmt.Errorf("UpdateMenuItem: %w", err)
	}
	return updated, nil
}

func DeleteMenuItem(ctx context.Context, db database.DB, id string) (bool, error) {
	ok, err := database.Remove(ctx, db, menuItemsTable, id)
	if err != nil {
		return false, fmt.Errorf("DeleteMenuItem: %w", err)
	}
	return ok, nil
}
