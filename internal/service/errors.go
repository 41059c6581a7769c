package service

import (
	"errors"
	"fmt"

	"inventorypro/internal/repository"
)

// Every error returned by the register core is recoverable: the caller
// re-prompts and no stock or shift state has been modified.
var (
	ErrValidation            = errors.New("validation error")
	ErrNotFound              = repository.ErrNotFound
	ErrConflict              = repository.ErrDuplicate
	ErrInsufficientStock     = repository.ErrInsufficientStock
	ErrInsufficientPayment   = errors.New("insufficient payment")
	ErrAuth                  = errors.New("authentication failed")
	ErrJustificationRequired = errors.New("justification required")
	ErrNoActiveShift         = errors.New("no active shift")
	ErrShiftAlreadyOpen      = errors.New("a shift is already open")
	ErrShiftClosing          = errors.New("shift is being closed")
)

// Validation cases. All of them match ErrValidation with errors.Is.
var (
	ErrEmptyCart             = fmt.Errorf("%w: cart is empty", ErrValidation)
	ErrMissingPaymentMethod  = fmt.Errorf("%w: missing payment method", ErrValidation)
	ErrMissingCustomerInfo   = fmt.Errorf("%w: customer name and phone are required", ErrValidation)
	ErrInvalidAmount         = fmt.Errorf("%w: amount must be greater than zero", ErrValidation)
	ErrMissingDescription    = fmt.Errorf("%w: description is required", ErrValidation)
	ErrMissingReason         = fmt.Errorf("%w: refund reason is required", ErrValidation)
	ErrNoRefundLines         = fmt.Errorf("%w: select at least one line to refund", ErrValidation)
	ErrInvalidQuantity       = fmt.Errorf("%w: quantity must be at least 1", ErrValidation)
	ErrInvalidDiscount       = fmt.Errorf("%w: discount must be between 0 and 100", ErrValidation)
	ErrInvalidCustomTotal    = fmt.Errorf("%w: custom total must be greater than zero and not exceed the subtotal", ErrValidation)
	ErrNegativeInitialCash   = fmt.Errorf("%w: initial cash must be zero or positive", ErrValidation)
	ErrOverpayment           = fmt.Errorf("%w: payment exceeds the amount due", ErrValidation)
	ErrAuthorizationMismatch = fmt.Errorf("%w: authorization does not cover this action", ErrValidation)
	ErrCreditSettled         = fmt.Errorf("%w: credit is already paid", ErrValidation)
	ErrOrderNotPending       = fmt.Errorf("%w: order is not pending", ErrValidation)
)

// Reasons carried by AuthError.
const (
	AuthReasonCredentials      = "credentials"
	AuthReasonInsufficientRole = "insufficient-role"
	AuthReasonExpired          = "expired"
	AuthReasonNotGranted       = "not-granted"
)

// AuthError reports a failed credential check. It matches ErrAuth.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string { return "authentication failed: " + e.Reason }

func (e *AuthError) Is(target error) bool { return target == ErrAuth }

func authError(reason string) error { return &AuthError{Reason: reason} }
