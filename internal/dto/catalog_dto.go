package dto

import "github.com/shopspring/decimal"

// ─── Products ────────────────────────────────────────────────────────────────

type CreateProductRequest struct {
	Name     string          `json:"name"      validate:"required,max=200"`
	Category string          `json:"category"  validate:"max=80"`
	Stock    int             `json:"stock"     validate:"min=0"`
	MinStock int             `json:"min_stock" validate:"min=0"`
	Price    decimal.Decimal `json:"price"     validate:"min=0"`
	Cost     decimal.Decimal `json:"cost"      validate:"min=0"`
	Supplier string          `json:"supplier"  validate:"max=120"`
	Barcode  string          `json:"barcode"   validate:"max=64"`
}

// UpdateProductRequest: omitted fields keep their current value.
type UpdateProductRequest struct {
	Name     *string          `json:"name"      validate:"omitempty,max=200"`
	Category *string          `json:"category"  validate:"omitempty,max=80"`
	Stock    *int             `json:"stock"     validate:"omitempty,min=0"`
	MinStock *int             `json:"min_stock" validate:"omitempty,min=0"`
	Price    *decimal.Decimal `json:"price"`
	Cost     *decimal.Decimal `json:"cost"`
	Supplier *string          `json:"supplier"  validate:"omitempty,max=120"`
	Barcode  *string          `json:"barcode"   validate:"omitempty,max=64"`
}

// ─── Packs ───────────────────────────────────────────────────────────────────

type PackComponentRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity"   validate:"required,min=1"`
}

type CreatePackRequest struct {
	Name       string                 `json:"name"       validate:"required,max=200"`
	Barcode    string                 `json:"barcode"    validate:"max=64"`
	Price      decimal.Decimal        `json:"price"      validate:"gt=0"`
	Components []PackComponentRequest `json:"components" validate:"required,min=1,dive"`
}

// ─── Orders ──────────────────────────────────────────────────────────────────

type OrderLineRequest struct {
	ProductID string          `json:"product_id" validate:"required,uuid"`
	Quantity  int             `json:"quantity"   validate:"required,min=1"`
	Cost      decimal.Decimal `json:"cost"       validate:"min=0"`
}

type CreateOrderRequest struct {
	Supplier string             `json:"supplier" validate:"required,max=120"`
	Lines    []OrderLineRequest `json:"lines"    validate:"required,min=1,dive"`
}

// ─── Responses ───────────────────────────────────────────────────────────────

// ListResponse wraps the unpaginated ledger listings.
type ListResponse[T any] struct {
	Data  []T `json:"data"`
	Total int `json:"total"`
}

func NewList[T any](items []T) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Data: items, Total: len(items)}
}
