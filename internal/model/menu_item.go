package model

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// 價格以 JSON number 輸出
	decimal.MarshalJSONWithoutQuotes = true
}

type MenuItem struct {
	ID          string          `db:"id" json:"id"`
	Name        string          `db:"name" json:"name"`
	Description string          `db:"description" json:"description"`
	Price       decimal.Decimal `db:"price" json:"price" swaggertype:"number"`
	CategoryID  string          `db:"category_id" json:"category_id"`
	ImageURL    *string         `db:"image_url" json:"image_url"`
	IsAvailable bool            `db:"is_available" json:"is_available"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`

	// 只有 join categories 的查詢會帶
	CategoryName string `db:"category_name" json:"category_name,omitempty"`
}
