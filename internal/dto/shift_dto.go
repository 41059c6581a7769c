package dto

import (
	"time"

	"inventorypro/internal/model"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

// OpenShiftRequest: identifier is a name or PIN (may be blank for PIN-only
// login), secret is the PIN or password.
type OpenShiftRequest struct {
	Identifier  string           `json:"identifier"`
	Secret      string           `json:"secret"       validate:"required"`
	Role        string           `json:"role"         validate:"omitempty,oneof=admin cashier"`
	InitialCash *decimal.Decimal `json:"initial_cash"`
	Notes       string           `json:"notes"        validate:"max=500"`
}

type CloseShiftRequest struct {
	RealCash      *decimal.Decimal `json:"real_cash"`
	Justification string           `json:"justification"  validate:"max=1000"`
	NotesForNext  string           `json:"notes_for_next" validate:"max=1000"`
}

type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Secret     string `json:"secret"     validate:"required"`
}

// HistoryFilter is bound from the query string of GET /v1/shift/history.
type HistoryFilter struct {
	Page  int `form:"page,default=1"   validate:"min=1"`
	Limit int `form:"limit,default=20" validate:"min=1,max=100"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type UserResponse struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

type TokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int          `json:"expires_in"`
	User        UserResponse `json:"user"`
}

// SessionResponse describes the caller's token. ShiftID is empty for
// back-office sessions.
type SessionResponse struct {
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	ShiftID   string    `json:"shift_id,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

type OpenShiftResponse struct {
	Shift *model.Shift  `json:"shift"`
	Token TokenResponse `json:"token"`
}

type ExpectedCashResponse struct {
	ShiftID      string          `json:"shift_id"`
	InitialCash  decimal.Decimal `json:"initial_cash"`
	CashSales    decimal.Decimal `json:"cash_sales"`
	CashPayments decimal.Decimal `json:"cash_payments"`
	PaidIn       decimal.Decimal `json:"paid_in"`
	CashExpenses decimal.Decimal `json:"cash_expenses"`
	PaidOut      decimal.Decimal `json:"paid_out"`
	ExpectedCash decimal.Decimal `json:"expected_cash"`
}

type NotesResponse struct {
	NotesForNext string `json:"notes_for_next"`
}

type HistoryResponse struct {
	Data  []model.ShiftClose `json:"data"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}
