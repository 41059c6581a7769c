package service

import (
	"fmt"
	"strings"
	"time"

	"inventorypro/internal/model"

	"github.com/shopspring/decimal"
)

// DefaultJustificationThreshold is the absolute variance above which a
// shift cannot be closed without a written justification.
var DefaultJustificationThreshold = decimal.NewFromInt(10)

// ComputeExpectedCash returns the cash the drawer should hold:
//
//	initialCash + cashSales + cashPayments + ΣPaidIn − cashExpenses − ΣPaidOut
//
// PaidIn and PaidOut amounts live only in their movement lists; they never
// feed cashSales or cashExpenses, so each movement is counted exactly once.
func ComputeExpectedCash(shift *model.Shift) decimal.Decimal {
	return shift.InitialCash.
		Add(shift.CashSales).
		Add(shift.CashPayments).
		Add(shift.TotalPaidIn()).
		Sub(shift.CashExpenses).
		Sub(shift.TotalPaidOut())
}

// Reconciler compares counted cash against expected cash at shift close.
type Reconciler struct {
	JustificationThreshold decimal.Decimal
}

func NewReconciler(threshold decimal.Decimal) Reconciler {
	if threshold.IsNegative() || threshold.IsZero() {
		threshold = DefaultJustificationThreshold
	}
	return Reconciler{JustificationThreshold: threshold}
}

// Reconcile builds the ShiftClose record for shift. It fails with
// ErrJustificationRequired when |difference| exceeds the threshold and no
// justification was given; the caller re-prompts and retries.
func (r Reconciler) Reconcile(shift *model.Shift, realCash decimal.Decimal, justification, notesForNext string, now time.Time) (*model.ShiftClose, error) {
	if realCash.IsNegative() {
		return nil, fmt.Errorf("%w: counted cash cannot be negative", ErrValidation)
	}

	expected := ComputeExpectedCash(shift)
	difference := realCash.Sub(expected)
	justification = strings.TrimSpace(justification)

	if difference.Abs().GreaterThan(r.JustificationThreshold) && justification == "" {
		return nil, fmt.Errorf("%w: difference of %s exceeds %s", ErrJustificationRequired,
			difference.StringFixed(2), r.JustificationThreshold.StringFixed(2))
	}

	var pct decimal.Decimal
	if !expected.IsZero() {
		pct = difference.Div(expected).Mul(decimal.NewFromInt(100)).Round(2)
	}

	duration := int(now.Sub(shift.StartTime) / time.Minute)
	if duration < 0 {
		duration = 0
	}

	return &model.ShiftClose{
		Shift:           *shift.Clone(),
		EndTime:         now,
		DurationMinutes: duration,
		ExpectedCash:    expected,
		RealCash:        realCash,
		Difference:      difference,
		DifferencePct:   pct,
		Classification:  classifyDeviation(expected, difference, pct),
		Justification:   justification,
		NotesForNext:    strings.TrimSpace(notesForNext),
		CreatedAt:       now,
	}, nil
}

// classifyDeviation returns "normal" | "warning" | "critical".
// normal: |pct| <= 1%, warning: <= 5%, critical: > 5%
func classifyDeviation(expected, difference, pct decimal.Decimal) string {
	if expected.IsZero() {
		if difference.IsZero() {
			return model.DeviationNormal
		}
		return model.DeviationCritical
	}
	abs := pct.Abs()
	switch {
	case abs.LessThanOrEqual(decimal.NewFromInt(1)):
		return model.DeviationNormal
	case abs.LessThanOrEqual(decimal.NewFromInt(5)):
		return model.DeviationWarning
	default:
		return model.DeviationCritical
	}
}
