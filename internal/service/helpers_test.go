package service

import (
	"context"
	"errors"
	"testing"

	"inventorypro/internal/model"
	"inventorypro/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// ── Test register ─────────────────────────────────────────────────────────────

var testUsers = []model.User{
	{Name: "Laura", PIN: "4821", Password: "admin-pass", Role: model.RoleAdmin},
	{Name: "Tomas", PIN: "1357", Role: model.RoleCashier},
	{Name: "Ines", PIN: "2468", Password: "ines-register", Role: model.RoleCashier},
}

type register struct {
	repos   LedgerRepositories
	history repository.ShiftHistoryRepository
	shifts  ShiftService
	gate    GateService
	pos     POSService
	ledger  LedgerService
}

func newRegister(t *testing.T) *register {
	t.Helper()
	return newRegisterWith(t, ShiftConfig{})
}

func newRegisterWith(t *testing.T, cfg ShiftConfig) *register {
	t.Helper()
	users := NewUserDirectory(testUsers)
	repos := NewLedgerRepositories()
	history := repository.NewMemoryShiftHistory()
	shifts := NewShiftService(users, history, cfg)
	gate := NewGateService(users, shifts, repos.Expenses, 0)
	return &register{
		repos:   repos,
		history: history,
		shifts:  shifts,
		gate:    gate,
		pos:     NewPOSService(repos.Products, repos.Packs, repos.Sales, repos.Credits, repos.Refunds, shifts, gate),
		ledger:  NewLedgerService(repos, shifts),
	}
}

func (r *register) open(t *testing.T, initialCash string) *model.Shift {
	t.Helper()
	s, err := r.shifts.OpenShift(context.Background(), Credentials{Secret: "1357"}, dec(initialCash), "")
	require.NoError(t, err)
	return s
}

func (r *register) product(t *testing.T, name, barcode string, stock int, price string) model.Product {
	t.Helper()
	p, err := r.ledger.CreateProduct(context.Background(), &model.Product{
		Name: name, Barcode: barcode, Stock: stock, MinStock: 1, Price: dec(price),
	})
	require.NoError(t, err)
	return *p
}

func (r *register) stock(t *testing.T, id uuid.UUID) int {
	t.Helper()
	p, err := r.repos.Products.FindByID(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func (r *register) sell(t *testing.T, method model.PaymentMethod, received string, items ...CartItem) *model.Sale {
	t.Helper()
	ctx := context.Background()
	cart, err := r.pos.BuildCart(ctx, CartRequest{Items: items})
	require.NoError(t, err)
	sale, err := r.pos.CommitSale(ctx, cart, method, dec(received))
	require.NoError(t, err)
	return sale
}

func (r *register) active(t *testing.T) *model.Shift {
	t.Helper()
	s, err := r.shifts.Active(context.Background())
	require.NoError(t, err)
	return s
}

// grant returns a granted authorization for action, approved by Laura.
func (r *register) grant(t *testing.T, action AuthAction) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	a, err := r.gate.RequestAuthorization(ctx, action)
	require.NoError(t, err)
	_, err = r.gate.Verify(ctx, a.ID, "Laura", "admin-pass")
	require.NoError(t, err)
	return a.ID
}

func item(p model.Product, qty int) CartItem {
	id := p.ID
	return CartItem{ProductID: &id, Quantity: qty}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func requireDec(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	require.Truef(t, dec(want).Equal(got), "want %s, got %s %v", want, got.String(), msgAndArgs)
}

// ── Failing collections ───────────────────────────────────────────────────────

var errStoreDown = errors.New("store unavailable")

type failingRefunds struct{ repository.RefundRepository }

func (failingRefunds) Create(context.Context, *model.Refund) error { return errStoreDown }

type failingExpenses struct{ repository.ExpenseRepository }

func (failingExpenses) Create(context.Context, *model.Expense) error { return errStoreDown }
