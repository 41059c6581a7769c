package model

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus: "pending" | "received" | "cancelled"
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderReceived  OrderStatus = "received"
	OrderCancelled OrderStatus = "cancelled"
)

// Order is a purchase order placed with a supplier. Receiving it adds the
// ordered quantities to stock.
type Order struct {
	ID         uuid.UUID       `json:"id"`
	Supplier   string          `json:"supplier"`
	Lines      []OrderLine     `json:"lines"`
	Total      decimal.Decimal `json:"total"`
	Status     OrderStatus     `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
	ReceivedAt *time.Time      `json:"received_at,omitempty"`
}

type OrderLine struct {
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Cost      decimal.Decimal `json:"cost"`
}

func (o Order) Clone() Order {
	o.Lines = slices.Clone(o.Lines)
	return o
}
