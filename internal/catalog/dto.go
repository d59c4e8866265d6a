package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mkotelnikov/pizzeria-backend/pkg/db/models"
	"github.com/mkotelnikov/pizzeria-backend/pkg/enums"
)

// ProductFilter narrows product listings.
type ProductFilter struct {
	CategoryID    *uuid.UUID
	AvailableOnly bool
}

// CategoryDTO is the API projection of a category.
type CategoryDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Position  int       `json:"position"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ProductDTO is the API projection of a product.
type ProductDTO struct {
	ID          uuid.UUID         `json:"id"`
	CategoryID  uuid.UUID         `json:"categoryId"`
	Name        string            `json:"name"`
	Description *string           `json:"description,omitempty"`
	PriceCents  int               `json:"priceCents"`
	TaxRate     decimal.Decimal   `json:"taxRate"`
	IsAvailable bool              `json:"isAvailable"`
	StockQty    int               `json:"stockQty"`
	Unit        enums.ProductUnit `json:"unit"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

func toCategoryDTO(category *models.Category) *CategoryDTO {
	return &CategoryDTO{
		ID:        category.ID,
		Name:      category.Name,
		Position:  category.Position,
		IsActive:  category.IsActive,
		CreatedAt: category.CreatedAt,
		UpdatedAt: category.UpdatedAt,
	}
}

func toProductDTO(product *models.Product) *ProductDTO {
	return &ProductDTO{
		ID:          product.ID,
		CategoryID:  product.CategoryID,
		Name:        product.Name,
		Description: product.Description,
		PriceCents:  product.PriceCents,
		TaxRate:     product.TaxRate,
		IsAvailable: product.IsAvailable,
		StockQty:    product.StockQty,
		Unit:        product.Unit,
		CreatedAt:   product.CreatedAt,
		UpdatedAt:   product.UpdatedAt,
	}
}
