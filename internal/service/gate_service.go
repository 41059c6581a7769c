package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"inventorypro/internal/model"
	"inventorypro/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// AuthAction names an operation that needs an administrator's approval.
type AuthAction string

const (
	ActionPaidIn  AuthAction = "paid_in"
	ActionPaidOut AuthAction = "paid_out"
	ActionRefund  AuthAction = "refund"
)

func (a AuthAction) Valid() bool {
	switch a {
	case ActionPaidIn, ActionPaidOut, ActionRefund:
		return true
	}
	return false
}

// AuthorizationState: "pending" | "granted"
type AuthorizationState string

const (
	AuthorizationPending AuthorizationState = "pending"
	AuthorizationGranted AuthorizationState = "granted"
)

// Authorization is a single-use approval for one gated action. It is removed
// as soon as the action consumes it or the cashier cancels it.
type Authorization struct {
	ID          uuid.UUID          `json:"id"`
	Action      AuthAction         `json:"action"`
	State       AuthorizationState `json:"state"`
	Admin       string             `json:"admin,omitempty"`
	RequestedAt time.Time          `json:"requested_at"`
	ExpiresAt   time.Time          `json:"expires_at"`
}

// DefaultAuthorizationTTL bounds how long an unused authorization stays valid.
const DefaultAuthorizationTTL = 5 * time.Minute

// Authorizer consumes granted authorizations; the POS engine depends on it
// for refunds.
type Authorizer interface {
	// Check returns the approving administrator without using the
	// authorization up.
	Check(ctx context.Context, id uuid.UUID, action AuthAction) (admin string, err error)
	Consume(ctx context.Context, id uuid.UUID, action AuthAction) (admin string, err error)
}

type GateService interface {
	Authorizer
	RequestAuthorization(ctx context.Context, action AuthAction) (*Authorization, error)
	// Verify grants a pending authorization when identifier (name or PIN) and
	// secret (password or PIN) match an administrator. On failure the
	// authorization stays pending.
	Verify(ctx context.Context, id uuid.UUID, identifier, secret string) (*Authorization, error)
	Cancel(ctx context.Context, id uuid.UUID) error
	PaidIn(ctx context.Context, authID uuid.UUID, amount decimal.Decimal, description, category string) (*model.CashMovement, error)
	PaidOut(ctx context.Context, authID uuid.UUID, amount decimal.Decimal, description, category string) (*model.CashMovement, error)
}

type gateService struct {
	mu    sync.Mutex
	auths map[uuid.UUID]*Authorization

	users    *UserDirectory
	shifts   ShiftService
	expenses repository.ExpenseRepository
	ttl      time.Duration
	now      func() time.Time
}

func NewGateService(users *UserDirectory, shifts ShiftService, expenses repository.ExpenseRepository, ttl time.Duration) GateService {
	if ttl <= 0 {
		ttl = DefaultAuthorizationTTL
	}
	return &gateService{
		auths:    make(map[uuid.UUID]*Authorization),
		users:    users,
		shifts:   shifts,
		expenses: expenses,
		ttl:      ttl,
		now:      time.Now,
	}
}

// ── Challenge lifecycle ───────────────────────────────────────────────────────

func (g *gateService) RequestAuthorization(_ context.Context, action AuthAction) (*Authorization, error) {
	if !action.Valid() {
		return nil, fmt.Errorf("%w: unknown action %q", ErrValidation, action)
	}
	now := g.now()
	a := &Authorization{
		ID:          uuid.New(),
		Action:      action,
		State:       AuthorizationPending,
		RequestedAt: now,
		ExpiresAt:   now.Add(g.ttl),
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.pruneLocked(now)
	g.auths[a.ID] = a
	cp := *a
	return &cp, nil
}

func (g *gateService) Verify(_ context.Context, id uuid.UUID, identifier, secret string) (*Authorization, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	a, err := g.lookupLocked(id)
	if err != nil {
		return nil, err
	}
	if a.State != AuthorizationPending {
		return nil, fmt.Errorf("%w: authorization already granted", ErrValidation)
	}

	admin, err := g.matchAdmin(identifier, secret)
	if err != nil {
		log.Warn().Str("authorization_id", id.String()).Str("action", string(a.Action)).Err(err).Msg("authorization denied")
		return nil, err
	}
	a.State = AuthorizationGranted
	a.Admin = admin.Name
	log.Info().Str("authorization_id", id.String()).Str("action", string(a.Action)).Str("admin", admin.Name).Msg("authorization granted")
	cp := *a
	return &cp, nil
}

func (g *gateService) Cancel(_ context.Context, id uuid.UUID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.auths[id]; !ok {
		return fmt.Errorf("authorization %s: %w", id, ErrNotFound)
	}
	delete(g.auths, id)
	return nil
}

// Consume removes a granted authorization for action and returns the name of
// the approving administrator.
func (g *gateService) Consume(_ context.Context, id uuid.UUID, action AuthAction) (string, error) {
	a, err := g.take(id, action)
	if err != nil {
		return "", err
	}
	return a.Admin, nil
}

func (g *gateService) Check(_ context.Context, id uuid.UUID, action AuthAction) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	a, err := g.grantedLocked(id, action)
	if err != nil {
		return "", err
	}
	return a.Admin, nil
}

// take removes the authorization; putBack undoes it when the gated action
// fails afterwards.
func (g *gateService) take(id uuid.UUID, action AuthAction) (*Authorization, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	a, err := g.grantedLocked(id, action)
	if err != nil {
		return nil, err
	}
	delete(g.auths, id)
	return a, nil
}

func (g *gateService) putBack(a *Authorization) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.auths[a.ID] = a
}

func (g *gateService) grantedLocked(id uuid.UUID, action AuthAction) (*Authorization, error) {
	a, err := g.lookupLocked(id)
	if err != nil {
		return nil, err
	}
	if a.Action != action {
		return nil, ErrAuthorizationMismatch
	}
	if a.State != AuthorizationGranted {
		return nil, authError(AuthReasonNotGranted)
	}
	return a, nil
}

func (g *gateService) lookupLocked(id uuid.UUID) (*Authorization, error) {
	a, ok := g.auths[id]
	if !ok {
		return nil, fmt.Errorf("authorization %s: %w", id, ErrNotFound)
	}
	if g.now().After(a.ExpiresAt) {
		delete(g.auths, id)
		return nil, authError(AuthReasonExpired)
	}
	return a, nil
}

func (g *gateService) pruneLocked(now time.Time) {
	for id, a := range g.auths {
		if now.After(a.ExpiresAt) {
			delete(g.auths, id)
		}
	}
}

// matchAdmin accepts name or PIN as identifier and password or PIN as secret.
// An administrator match wins over a cashier match for the same input.
func (g *gateService) matchAdmin(identifier, secret string) (model.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || secret == "" {
		return model.User{}, authError(AuthReasonCredentials)
	}
	var nonAdmin bool
	for _, u := range g.users.Users() {
		idOK := strings.EqualFold(identifier, u.Name) || (u.PIN != "" && identifier == u.PIN)
		secretOK := passwordMatches(u.Password, secret) || (u.PIN != "" && equalSecret(u.PIN, secret))
		if !idOK || !secretOK {
			continue
		}
		if u.IsAdmin() {
			return u, nil
		}
		nonAdmin = true
	}
	if nonAdmin {
		return model.User{}, authError(AuthReasonInsufficientRole)
	}
	return model.User{}, authError(AuthReasonCredentials)
}

// ── Cash movements ────────────────────────────────────────────────────────────

func validateMovement(amount decimal.Decimal, description string) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(description) == "" {
		return ErrMissingDescription
	}
	return nil
}

// PaidIn adds cash to the till. It counts as a cash sale-equivalent in
// totalSales and salesByMethod[cash]; expected cash picks it up from the
// PaidIn list only. The authorization is consumed inside the shift commit, so
// a closed or closing shift leaves it usable.
func (g *gateService) PaidIn(ctx context.Context, authID uuid.UUID, amount decimal.Decimal, description, category string) (*model.CashMovement, error) {
	if err := validateMovement(amount, description); err != nil {
		return nil, err
	}

	var mov model.CashMovement
	_, err := g.shifts.Do(ctx, func(*model.Shift) (ShiftDelta, error) {
		a, err := g.take(authID, ActionPaidIn)
		if err != nil {
			return ShiftDelta{}, err
		}
		mov = g.movement(amount, description, category, a.Admin)
		return ShiftDelta{
			TotalSales:    amount,
			SalesByMethod: map[model.PaymentMethod]decimal.Decimal{model.PaymentCash: amount},
			PaidIns:       []model.CashMovement{mov},
		}, nil
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("movement_id", mov.ID.String()).Str("amount", amount.StringFixed(2)).Str("admin", mov.AuthorizedBy).Msg("paid in")
	return &mov, nil
}

// PaidOut takes cash from the till. It is booked as a FromRegister expense
// and reconciled through the PaidOut list only.
func (g *gateService) PaidOut(ctx context.Context, authID uuid.UUID, amount decimal.Decimal, description, category string) (*model.CashMovement, error) {
	if err := validateMovement(amount, description); err != nil {
		return nil, err
	}

	var mov model.CashMovement
	_, err := g.shifts.Do(ctx, func(current *model.Shift) (ShiftDelta, error) {
		a, err := g.take(authID, ActionPaidOut)
		if err != nil {
			return ShiftDelta{}, err
		}
		mov = g.movement(amount, description, category, a.Admin)
		shiftID := current.ID
		exp := &model.Expense{
			Description:   mov.Description,
			Category:      mov.Category,
			Amount:        amount,
			PaymentMethod: model.PaymentCash,
			FromRegister:  true,
			AuthorizedBy:  a.Admin,
			ShiftID:       &shiftID,
			CreatedAt:     mov.CreatedAt,
		}
		if err := g.expenses.Create(ctx, exp); err != nil {
			g.putBack(a)
			return ShiftDelta{}, err
		}
		delta := expenseDelta(exp)
		delta.PaidOuts = []model.CashMovement{mov}
		return delta, nil
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("movement_id", mov.ID.String()).Str("amount", amount.StringFixed(2)).Str("admin", mov.AuthorizedBy).Msg("paid out")
	return &mov, nil
}

func (g *gateService) movement(amount decimal.Decimal, description, category, admin string) model.CashMovement {
	return model.CashMovement{
		ID:           uuid.New(),
		Amount:       amount,
		Description:  strings.TrimSpace(description),
		Category:     strings.TrimSpace(category),
		AuthorizedBy: admin,
		CreatedAt:    g.now(),
	}
}

// expenseDelta is the single accounting path for expenses. Cash expenses
// raise cashExpenses; PaidOut outflows (FromRegister) are reconciled through
// Shift.PaidOuts instead so they are subtracted once.
func expenseDelta(e *model.Expense) ShiftDelta {
	d := ShiftDelta{TotalExpenses: e.Amount}
	if e.PaymentMethod == model.PaymentCash && !e.FromRegister {
		d.CashExpenses = e.Amount
	}
	return d
}
