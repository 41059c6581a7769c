package model

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreditStatus: "pending" | "paid"
type CreditStatus string

const (
	CreditPending CreditStatus = "pending"
	CreditPaid    CreditStatus = "paid"
)

// Credit is a customer tab ("fiado"). AmountPaid + AmountDue == Total holds
// at all times; appending a CreditPayment is the only mutator of both.
type Credit struct {
	ID            uuid.UUID       `json:"id"`
	CustomerName  string          `json:"customer_name"`
	CustomerPhone string          `json:"customer_phone"`
	Lines         []LineItem      `json:"lines"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Discount      decimal.Decimal `json:"discount"`
	Total         decimal.Decimal `json:"total"`
	AmountPaid    decimal.Decimal `json:"amount_paid"`
	AmountDue     decimal.Decimal `json:"amount_due"`
	Status        CreditStatus    `json:"status"`
	DueDate       time.Time       `json:"due_date"`
	Payments      []CreditPayment `json:"payments"`
	ShiftID       uuid.UUID       `json:"shift_id"`
	CreatedAt     time.Time       `json:"created_at"`
}

type CreditPayment struct {
	ID        uuid.UUID       `json:"id"`
	Amount    decimal.Decimal `json:"amount"`
	Method    PaymentMethod   `json:"method"`
	Note      string          `json:"note,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Clone returns a copy that does not share slices with c.
func (c Credit) Clone() Credit {
	c.Lines = slices.Clone(c.Lines)
	c.Payments = slices.Clone(c.Payments)
	return c
}
