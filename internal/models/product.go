package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"
)

// Product is a catalog entry. It maps to the products table.
type Product struct {
	ID          int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string      `gorm:"type:varchar(255);not null" json:"name"`
	SKU         string      `gorm:"column:sku;type:varchar(255);uniqueIndex;not null" json:"sku"`
	Brand       string      `gorm:"type:varchar(255);not null" json:"brand"`
	Price       Price       `gorm:"type:decimal(10,2)" json:"price"`
	Description null.String `gorm:"type:text" json:"description"`
	ImageURL    null.String `gorm:"column:image_url;type:varchar(255)" json:"imageUrl"`
	Category    null.String `gorm:"type:varchar(255)" json:"category"`
	IsActive    bool        `gorm:"not null" json:"isActive"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

func (Product) TableName() string {
	return "products"
}

// Price is an optional amount with two fractional digits.
// It is written to JSON as a fixed point string ("3.50") and read from either
// a number or a string.
type Price struct {
	decimal.NullDecimal
}

// NewPrice returns a set price rounded to two places.
func NewPrice(d decimal.Decimal) Price {
	return Price{decimal.NewNullDecimal(d.Round(2))}
}

func (p Price) MarshalJSON() ([]byte, error) {
	if !p.Valid {
		return []byte("null"), nil
	}
	return []byte(`"` + p.Decimal.StringFixed(2) + `"`), nil
}
