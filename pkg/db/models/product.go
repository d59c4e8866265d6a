package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mkotelnikov/pizzeria-backend/pkg/enums"
)

// Product is a sellable catalog item. Prices are integer cents; TaxRate is a
// percentage with two decimal places.
type Product struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CategoryID  uuid.UUID         `gorm:"column:category_id;type:uuid;not null;index"`
	Name        string            `gorm:"column:name;not null"`
	Description *string           `gorm:"column:description"`
	PriceCents  int               `gorm:"column:price_cents;not null"`
	TaxRate     decimal.Decimal   `gorm:"column:tax_rate;type:decimal(5,2);not null;default:0"`
	IsAvailable bool              `gorm:"column:is_available;not null;default:true"`
	StockQty    int               `gorm:"column:stock_qty;not null;default:0"`
	Unit        enums.ProductUnit `gorm:"column:unit;type:product_unit;not null;default:'piece'"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
