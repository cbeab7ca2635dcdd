package model

import "time"

// TableQR 對應 table_qrs，一張實體桌子一筆
type TableQR struct {
	ID          string    `db:"id" json:"id"`
	TableNumber int       `db:"table_number" json:"table_number"`
	Capacity    *int      `db:"capacity" json:"capacity"`
	Location    *string   `db:"location" json:"location"`
	QRCodeURL   string    `db:"qr_code_url" json:"qr_code_url"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
