package dto

import "github.com/shopspring/decimal"

type AuthorizationRequest struct {
	Action string `json:"action" validate:"required,oneof=paid_in paid_out refund"`
}

type VerifyAuthorizationRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Secret     string `json:"secret"     validate:"required"`
}

type CashMovementRequest struct {
	AuthorizationID string          `json:"authorization_id" validate:"required,uuid"`
	Amount          decimal.Decimal `json:"amount"`
	Description     string          `json:"description"      validate:"max=300"`
	Category        string          `json:"category"         validate:"max=80"`
}

type ExpenseRequest struct {
	Description   string          `json:"description"    validate:"max=300"`
	Category      string          `json:"category"       validate:"max=80"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method" validate:"omitempty,oneof=cash card transfer"`
}
