package api

import (
	"digital-menu/internal/model"

	"github.com/shopspring/decimal"
)

// swagger:model api.CreateCategoryRequest
type CreateCategoryRequest struct {
	Name        string  `json:"name" form:"name" validate:"required,max=100" example:"Desserts"`
	Description *string `json:"description" form:"description" validate:"omitempty,max=500" example:"Sweet treats"`
}

// swagger:model api.UpdateCategoryRequest
type UpdateCategoryRequest struct {
	Name        *string `json:"name" form:"name" validate:"omitempty,min=1,max=100" example:"Sweets"`
	Description *string `json:"description" form:"description" validate:"omitempty,max=500"`
}

// swagger:model api.CreateMenuItemRequest
type CreateMenuItemRequest struct {
	Name        string           `json:"name" form:"name" validate:"required,max=200" example:"Chocolate cake"`
	Description string           `json:"description" form:"description" validate:"max=2000" example:"Dark chocolate, served warm"`
	Price       *decimal.Decimal `json:"price" validate:"required" swaggertype:"number" example:"6.50"`
	CategoryID  string           `json:"category_id" form:"category_id" validate:"required,uuid" example:"5b0c3f9e-2f7a-4c1e-9a3e-0d6f3f1c2b7a"`
	ImageURL    *string          `json:"image_url" form:"image_url" validate:"omitempty,max=1000" example:"/media/menu/cake.jpg"`
	IsAvailable *bool            `json:"is_available" form:"is_available" example:"true"`
}

// swagger:model api.UpdateMenuItemRequest
type UpdateMenuItemRequest struct {
	Name        *string          `json:"name" form:"name" validate:"omitempty,min=1,max=200"`
	Description *string          `json:"description" form:"description" validate:"omitempty,max=2000"`
	Price       *decimal.Decimal `json:"price" swaggertype:"number"`
	CategoryID  *string          `json:"category_id" form:"category_id" validate:"omitempty,uuid"`
	ImageURL    *string          `json:"image_url" form:"image_url" validate:"omitempty,max=1000"`
	IsAvailable *bool            `json:"is_available" form:"is_available"`
}

// swagger:model api.CreateTableQRRequest
type CreateTableQRRequest struct {
	TableNumber int     `json:"table_number" form:"table_number" validate:"required,gt=0" example:"12"`
	Capacity    *int    `json:"capacity" form:"capacity" validate:"omitempty,gt=0" example:"4"`
	Location    *string `json:"location" form:"location" validate:"omitempty,max=100" example:"Patio"`
}

// swagger:model api.UpdateTableQRRequest
type UpdateTableQRRequest struct {
	TableNumber *int    `json:"table_number" form:"table_number" validate:"omitempty,gt=0"`
	Capacity    *int    `json:"capacity" form:"capacity" validate:"omitempty,gt=0"`
	Location    *string `json:"location" form:"location" validate:"omitempty,max=100"`
	IsActive    *bool   `json:"is_active" form:"is_active"`
}

// swagger:model api.PhotosResponse
type PhotosResponse struct {
	Photos []string `json:"photos" example:"/media/menu/cake.jpg"`
}

// swagger:model api.PingResponse
type PingResponse struct {
	Database string `json:"database" example:"ok"`
	Redis    string `json:"redis" example:"ok"`
}

// swagger:model api.WishlistResponse
type WishlistResponse struct {
	ID    string           `json:"id" example:"9d3c1b8e-3f4a-4b7e-8c2d-1a2b3c4d5e6f"`
	Items []model.MenuItem `json:"items"`
}
