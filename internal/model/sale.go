package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod: "cash" | "card" | "transfer" | "credit"
// Credit is only used as a shift aggregate key; sales are Cash, Card or Transfer.
type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentCard     PaymentMethod = "card"
	PaymentTransfer PaymentMethod = "transfer"
	PaymentCredit   PaymentMethod = "credit"
)

// PaymentMethods lists every key seeded into Shift.SalesByMethod.
var PaymentMethods = []PaymentMethod{PaymentCash, PaymentCard, PaymentTransfer, PaymentCredit}

// IsSaleMethod reports whether m can settle a sale at the register.
func (m PaymentMethod) IsSaleMethod() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentTransfer:
		return true
	}
	return false
}

// LineItem is an immutable snapshot of a cart line stored on sales and credits.
// Pack lines carry their components so refunds and reports can resolve stock.
type LineItem struct {
	ProductID  *uuid.UUID      `json:"product_id,omitempty"`
	PackID     *uuid.UUID      `json:"pack_id,omitempty"`
	Name       string          `json:"name"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Quantity   int             `json:"quantity"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	Components []PackComponent `json:"components,omitempty"`
}

// Sale is created once by a commit and never mutated. Voiding deletes it
// without touching stock or the shift aggregate.
type Sale struct {
	ID              uuid.UUID       `json:"id"`
	Number          int             `json:"number"`
	Lines           []LineItem      `json:"lines"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	Discount        decimal.Decimal `json:"discount"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	Total           decimal.Decimal `json:"total"`
	PaymentMethod   PaymentMethod   `json:"payment_method"`
	AmountReceived  decimal.Decimal `json:"amount_received"`
	Change          decimal.Decimal `json:"change"`
	ShiftID         uuid.UUID       `json:"shift_id"`
	UserName        string          `json:"user_name"`
	CreatedAt       time.Time       `json:"created_at"`
}
