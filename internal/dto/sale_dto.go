package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// CartItemRequest references a product by id, a pack by id, or any product
// by barcode / name through code.
type CartItemRequest struct {
	ProductID string `json:"product_id" validate:"omitempty,uuid"`
	PackID    string `json:"pack_id"    validate:"omitempty,uuid"`
	Code      string `json:"code"       validate:"required_without_all=ProductID PackID"`
	Quantity  int    `json:"quantity"   validate:"omitempty,min=1"`
}

type CartRequest struct {
	Items           []CartItemRequest `json:"items"            validate:"required,min=1,dive"`
	DiscountPercent *decimal.Decimal  `json:"discount_percent" validate:"omitempty,min=0,max=100"`
	CustomTotal     *decimal.Decimal  `json:"custom_total"     validate:"omitempty,gt=0"`
}

type CreateSaleRequest struct {
	CartRequest
	PaymentMethod  string          `json:"payment_method"  validate:"required,oneof=cash card transfer"`
	AmountReceived decimal.Decimal `json:"amount_received" validate:"min=0"`
}

type CreateCreditRequest struct {
	CartRequest
	CustomerName  string `json:"customer_name"  validate:"required,max=120"`
	CustomerPhone string `json:"customer_phone" validate:"required,max=40"`
}

type CreditPaymentRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required,gt=0"`
	Method string          `json:"method" validate:"omitempty,oneof=cash card transfer"`
	Note   string          `json:"note"   validate:"max=300"`
}

type RefundLineRequest struct {
	LineIndex int `json:"line_index" validate:"min=0"`
	Quantity  int `json:"quantity"   validate:"required,min=1"`
}

type RefundRequest struct {
	AuthorizationID string              `json:"authorization_id" validate:"required,uuid"`
	Lines           []RefundLineRequest `json:"lines"            validate:"required,min=1,dive"`
	Reason          string              `json:"reason"           validate:"required,max=300"`
	Method          string              `json:"method"           validate:"omitempty,oneof=cash card transfer"`
}

// LookupQuery is bound from GET /v1/products/lookup?q=.
type LookupQuery struct {
	Q string `form:"q" validate:"required"`
}
