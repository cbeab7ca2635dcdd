package store

import (
	"context"
	"fmt"

	"digital-menu/internal/database"
	"digital-menu/internal/model"
)

var tableQRsTable = database.Table{
	Name:    "table_qrs",
	Columns: []string{"table_number", "capacity", "location", "qr_code_url", "is_active"},
}

const selectTableQRs = `SELECT id, table_number, capacity, location, qr_code_url, is_active, created_at, updated_at
	 FROM table_qrs`

type TableQRPatch struct {
	TableNumber *int
	Capacity    *int
	Location    *string
	QRCodeURL   *string
	IsActive    *bool
}

func (p TableQRPatch) values() database.Values {
	v := database.Values{}
	if p.TableNumber != nil {
		v["table_number"] = *p.TableNumber
	}
	if p.Capacity != nil {
		v["capacity"] = *p.Capacity
	}
	if p.Location != nil {
		v["location"] = *p.Location
	}
	if p.QRCodeURL != nil {
		v["qr_code_url"] = *p.QRCodeURL
	}
	if p.IsActive != nil {
		v["is_active"] = *p.IsActive
	}
	return v
}

func ListTableQRs(ctx context.Context, db database.DB) ([]model.TableQR, error) {
	list, err := database.QueryRows[model.TableQR](ctx, db, selectTableQRs+` ORDER BY table_number`)
	if err != nil {
		return nil, fmt.Errorf("ListTableQRs: %w", err)
	}
	return list, nil
}

func GetTableQR(ctx context.Context, db database.DB, id string) (*model.TableQR, error) {
	t, err := database.QueryRow[model.TableQR](ctx, db, selectTableQRs+` WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("GetTableQR: %w", err)
	}
	return t, nil
}

func GetTableQRByNumber(ctx context.Context, db database.DB, number int) (*model.TableQR, error) {
	t, err := database.QueryRow[model.TableQR](ctx, db, selectTableQRs+` WHERE table_number = $1`, number)
	if err != nil {
		return nil, fmt.Errorf("GetTableQRByNumber: %w", err)
	}
	return t, nil
}

func CreateTableQR(ctx context.Context, db database.DB, t *model.TableQR) (*model.TableQR, error) {
	created, err := database.Insert[model.TableQR](ctx, db, tableQRsTable, database.Values{
		"table_number": t.TableNumber,
		"capacity":     t.Capacity,
		"location":     t.Location,
		"qr_code_url":  t.QRCodeURL,
		"is_active":    t.IsActive,
	})
	if err != nil {
		return nil, fmt.Errorf("CreateTableQR: %w", err)
	}
	return created, nil
}

func UpdateTableQR(ctx context.Context, db database.DB, id string, patch TableQRPatch) (*model.TableQR, error) {
	updated, err := database.Update[model.TableQR](ctx, db, tableQRsTable, id, patch.values())
	if err != nil {
		return nil, fmt.Errorf("UpdateTableQR: %w", err)
	}
	return updated, nil
}

func DeleteTableQR(ctx context.Context, db database.DB, id string) (bool, error) {
	ok, err := database.Remove(ctx, db, tableQRsTable, id)
	if err != nil {
		return false, fmt.Errorf("DeleteTableQR: %w", err)
	}
	return ok, nil
}
