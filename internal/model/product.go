package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a catalog entry. Stock is only mutated by sale/credit commits,
// refunds, received orders and explicit catalog edits.
type Product struct {
	ID       uuid.UUID       `json:"id"`
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Stock    int             `json:"stock"`
	MinStock int             `json:"min_stock"`
	Price    decimal.Decimal `json:"price"`
	Cost     decimal.Decimal `json:"cost"`
	Supplier string          `json:"supplier"`
	// Barcode is optional; when set it is unique across the catalog.
	Barcode   string    `json:"barcode,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// InStock reports whether at least one unit is available.
func (p Product) InStock() bool { return p.Stock > 0 }

// BelowMinimum reports whether the product reached its reorder threshold.
func (p Product) BelowMinimum() bool { return p.Stock <= p.MinStock }

// Pack is a composite product sold as a single cart line at its own flat price.
// Selling one pack decrements every component by its required quantity.
type Pack struct {
	ID         uuid.UUID       `json:"id"`
	Name       string          `json:"name"`
	Barcode    string          `json:"barcode,omitempty"`
	Price      decimal.Decimal `json:"price"`
	Components []PackComponent `json:"components"`
	CreatedAt  time.Time       `json:"created_at"`
}

type PackComponent struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}
