package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a sellable catalog entry. Stock counts units on hand;
// it may go negative when concurrent sales outrun restocking, the checkout
// only ever decrements by cart quantity.
type Product struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
	Icon      string          `json:"icon,omitempty"`
	Barcode   string          `json:"barcode,omitempty"`
	ImageMime string          `json:"image_mime,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	DeletedAt *time.Time      `json:"deleted_at,omitempty"`
}
