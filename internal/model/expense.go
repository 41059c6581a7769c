package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Expense is an outflow recorded in the ledger. FromRegister marks a PaidOut
// taken from the till; those are reconciled through Shift.PaidOuts only.
type Expense struct {
	ID            uuid.UUID       `json:"id"`
	Description   string          `json:"description"`
	Category      string          `json:"category"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	FromRegister  bool            `json:"from_register"`
	AuthorizedBy  string          `json:"authorized_by,omitempty"`
	ShiftID       *uuid.UUID      `json:"shift_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}
