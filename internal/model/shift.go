package model

import (
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Shift is the live aggregate of a cashier's working session. It is only
// mutated through ShiftService.ApplyDelta; every other component reads copies.
type Shift struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey"          json:"id"`
	UserName     string          `gorm:"not null"                      json:"user_name"`
	UserRole     Role            `gorm:"type:varchar(20);not null"     json:"user_role"`
	StartTime    time.Time       `gorm:"not null"                      json:"start_time"`
	InitialCash  decimal.Decimal `gorm:"type:decimal(12,2);not null"   json:"initial_cash"`
	OpeningNotes string          `json:"opening_notes,omitempty"`

	SalesByMethod map[PaymentMethod]decimal.Decimal `gorm:"serializer:json" json:"sales_by_method"`

	TotalSales    decimal.Decimal `gorm:"type:decimal(12,2)" json:"total_sales"`
	TotalExpenses decimal.Decimal `gorm:"type:decimal(12,2)" json:"total_expenses"`
	// TotalPayments sums credit payments received during the shift.
	TotalPayments    decimal.Decimal `gorm:"type:decimal(12,2)" json:"total_payments"`
	Transactions     int             `json:"transactions"`
	CreditsCreated   int             `json:"credits_created"`
	PaymentsReceived int             `json:"payments_received"`
	ProductsSold     int             `json:"products_sold"`

	// Cash-only subtotals used by reconciliation.
	CashSales    decimal.Decimal `gorm:"type:decimal(12,2)" json:"cash_sales"`
	CashExpenses decimal.Decimal `gorm:"type:decimal(12,2)" json:"cash_expenses"`
	CashPayments decimal.Decimal `gorm:"type:decimal(12,2)" json:"cash_payments"`

	PaidIns  []CashMovement `gorm:"serializer:json" json:"paid_ins"`
	PaidOuts []CashMovement `gorm:"serializer:json" json:"paid_outs"`
	Refunds  []Refund       `gorm:"serializer:json" json:"refunds"`
}

// NewShift returns a zeroed shift with every payment method seeded at 0.
func NewShift(user User, initialCash decimal.Decimal, notes string, startTime time.Time) *Shift {
	byMethod := make(map[PaymentMethod]decimal.Decimal, len(PaymentMethods))
	for _, m := range PaymentMethods {
		byMethod[m] = decimal.Zero
	}
	return &Shift{
		ID:            uuid.New(),
		UserName:      user.Name,
		UserRole:      user.Role,
		StartTime:     startTime,
		InitialCash:   initialCash,
		OpeningNotes:  notes,
		SalesByMethod: byMethod,
		PaidIns:       []CashMovement{},
		PaidOuts:      []CashMovement{},
		Refunds:       []Refund{},
	}
}

// Clone returns a deep copy safe to hand out to callers.
func (s *Shift) Clone() *Shift {
	if s == nil {
		return nil
	}
	c := *s
	c.SalesByMethod = maps.Clone(s.SalesByMethod)
	c.PaidIns = slices.Clone(s.PaidIns)
	c.PaidOuts = slices.Clone(s.PaidOuts)
	c.Refunds = slices.Clone(s.Refunds)
	return &c
}

// TotalPaidIn sums every PaidIn movement of the shift.
func (s *Shift) TotalPaidIn() decimal.Decimal { return sumMovements(s.PaidIns) }

// TotalPaidOut sums every PaidOut movement of the shift.
func (s *Shift) TotalPaidOut() decimal.Decimal { return sumMovements(s.PaidOuts) }

func sumMovements(movs []CashMovement) decimal.Decimal {
	total := decimal.Zero
	for _, m := range movs {
		total = total.Add(m.Amount)
	}
	return total
}

// CashMovement is an admin-authorized PaidIn or PaidOut. Immutable once appended.
type CashMovement struct {
	ID           uuid.UUID       `json:"id"`
	Amount       decimal.Decimal `json:"amount"`
	Description  string          `json:"description"`
	Category     string          `json:"category"`
	AuthorizedBy string          `json:"authorized_by"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Refund returns part of a sale. It restores stock but never reverses the
// original sale's contribution to the shift totals.
type Refund struct {
	ID           uuid.UUID       `json:"id"`
	SaleID       uuid.UUID       `json:"sale_id"`
	Lines        []RefundedLine  `json:"lines"`
	Total        decimal.Decimal `json:"total"`
	Reason       string          `json:"reason"`
	Method       PaymentMethod   `json:"method"`
	AuthorizedBy string          `json:"authorized_by"`
	CreatedAt    time.Time       `json:"created_at"`
}

type RefundedLine struct {
	LineIndex int             `json:"line_index"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// Deviation classification of a closed shift.
const (
	DeviationNormal   = "normal"
	DeviationWarning  = "warning"
	DeviationCritical = "critical"
)

// ShiftClose is the history record appended when a shift is reconciled.
// Difference = RealCash - ExpectedCash.
type ShiftClose struct {
	Shift `gorm:"embedded"`

	EndTime         time.Time       `gorm:"not null"                    json:"end_time"`
	DurationMinutes int             `gorm:"not null"                    json:"duration_minutes"`
	ExpectedCash    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"expected_cash"`
	RealCash        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"real_cash"`
	Difference      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"difference"`
	DifferencePct   decimal.Decimal `gorm:"type:decimal(7,2)"           json:"difference_pct"`
	Classification  string          `gorm:"type:varchar(20)"            json:"classification"`
	Justification   string          `json:"justification,omitempty"`
	NotesForNext    string          `json:"notes_for_next,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

func (ShiftClose) TableName() string { return "shift_closes" }
