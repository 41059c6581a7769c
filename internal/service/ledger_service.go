package service

import (
	"context"
	"errors"
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

// ProductUpdate carries the catalog fields to change; nil fields are kept.
type ProductUpdate struct {
	Name     *string
	Category *string
	Stock    *int
	MinStock *int
	Price    *decimal.Decimal
	Cost     *decimal.Decimal
	Supplier *string
	Barcode  *string
}

// LedgerService is the read/write surface used by catalog, back-office and
// reporting flows. Writes that move cash are routed through the shift.
type LedgerService interface {
	ListProducts(ctx context.Context) ([]model.Product, error)
	ListLowStock(ctx context.Context) ([]model.Product, error)
	ListSales(ctx context.Context) ([]model.Sale, error)
	// ListShiftSales lists the sales of the open shift.
	ListShiftSales(ctx context.Context) ([]model.Sale, error)
	ListExpenses(ctx context.Context) ([]model.Expense, error)
	ListCredits(ctx context.Context) ([]model.Credit, error)
	ListOrders(ctx context.Context) ([]model.Order, error)
	ListPacks(ctx context.Context) ([]model.Pack, error)
	ListRefunds(ctx context.Context) ([]model.Refund, error)

	CreateProduct(ctx context.Context, p *model.Product) (*model.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, upd ProductUpdate) (*model.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error

	AddExpense(ctx context.Context, e *model.Expense) (*model.Expense, error)
	AddPaymentToCredit(ctx context.Context, creditID uuid.UUID, amount decimal.Decimal, method model.PaymentMethod, note string) (*model.Credit, error)
	VoidSale(ctx context.Context, id uuid.UUID) error

	CreateOrder(ctx context.Context, o *model.Order) (*model.Order, error)
	ReceiveOrder(ctx context.Context, id uuid.UUID) (*model.Order, error)
	CancelOrder(ctx context.Context, id uuid.UUID) (*model.Order, error)

	CreatePack(ctx context.Context, p *model.Pack) (*model.Pack, error)
	DeletePack(ctx context.Context, id uuid.UUID) error
}

type ledgerService struct {
	products repository.ProductRepository
	packs    repository.PackRepository
	sales    repository.SaleRepository
	expenses repository.ExpenseRepository
	credits  repository.CreditRepository
	orders   repository.OrderRepository
	refunds  repository.RefundRepository
	shifts   ShiftService
	now      func() time.Time

	// packMu keeps pack creation and product deletion from interleaving, so
	// no pack ends up pointing at a deleted component.
	packMu sync.Mutex
}

// LedgerRepositories groups the collections behind the ledger.
type LedgerRepositories struct {
	Products repository.ProductRepository
	Packs    repository.PackRepository
	Sales    repository.SaleRepository
	Expenses repository.ExpenseRepository
	Credits  repository.CreditRepository
	Orders   repository.OrderRepository
	Refunds  repository.RefundRepository
}

// NewLedgerRepositories returns a fresh set of in-memory collections.
func NewLedgerRepositories() LedgerRepositories {
	return LedgerRepositories{
		Products: repository.NewProductRepository(),
		Packs:    repository.NewPackRepository(),
		Sales:    repository.NewSaleRepository(),
		Expenses: repository.NewExpenseRepository(),
		Credits:  repository.NewCreditRepository(),
		Orders:   repository.NewOrderRepository(),
		Refunds:  repository.NewRefundRepository(),
	}
}

func NewLedgerService(repos LedgerRepositories, shifts ShiftService) LedgerService {
	return &ledgerService{
		products: repos.Products,
		packs:    repos.Packs,
		sales:    repos.Sales,
		expenses: repos.Expenses,
		credits:  repos.Credits,
		orders:   repos.Orders,
		refunds:  repos.Refunds,
		shifts:   shifts,
		now:      time.Now,
	}
}

// ── Reads ─────────────────────────────────────────────────────────────────────

func (s *ledgerService) ListProducts(ctx context.Context) ([]model.Product, error) {
	return s.products.List(ctx)
}

func (s *ledgerService) ListLowStock(ctx context.Context) ([]model.Product, error) {
	all, err := s.products.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.Product, 0)
	for _, p := range all {
		if p.BelowMinimum() {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *ledgerService) ListSales(ctx context.Context) ([]model.Sale, error) {
	return s.sales.List(ctx)
}

func (s *ledgerService) ListShiftSales(ctx context.Context) ([]model.Sale, error) {
	current, err := s.shifts.Active(ctx)
	if err != nil {
		return nil, err
	}
	return s.sales.ListByShift(ctx, current.ID)
}

func (s *ledgerService) ListExpenses(ctx context.Context) ([]model.Expense, error) {
	return s.expenses.List(ctx)
}

func (s *ledgerService) ListCredits(ctx context.Context) ([]model.Credit, error) {
	return s.credits.List(ctx)
}

func (s *ledgerService) ListOrders(ctx context.Context) ([]model.Order, error) {
	return s.orders.List(ctx)
}

func (s *ledgerService) ListPacks(ctx context.Context) ([]model.Pack, error) {
	return s.packs.List(ctx)
}

func (s *ledgerService) ListRefunds(ctx context.Context) ([]model.Refund, error) {
	return s.refunds.List(ctx)
}

// ── Catalog ───────────────────────────────────────────────────────────────────

func validateProduct(p *model.Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: product name is required", ErrValidation)
	}
	if p.Price.IsNegative() || p.Cost.IsNegative() {
		return fmt.Errorf("%w: price and cost cannot be negative", ErrValidation)
	}
	if p.Stock < 0 || p.MinStock < 0 {
		return fmt.Errorf("%w: stock cannot be negative", ErrValidation)
	}
	return nil
}

func (s *ledgerService) CreateProduct(ctx context.Context, p *model.Product) (*model.Product, error) {
	p.Name = strings.TrimSpace(p.Name)
	p.Barcode = strings.TrimSpace(p.Barcode)
	if err := validateProduct(p); err != nil {
		return nil, err
	}
	now := s.now()
	p.ID = uuid.New()
	p.CreatedAt = now
	p.UpdatedAt = now
	if err := s.products.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// UpdateProduct edits the catalog directly, bypassing the POS engine.
func (s *ledgerService) UpdateProduct(ctx context.Context, id uuid.UUID, upd ProductUpdate) (*model.Product, error) {
	return s.products.Modify(ctx, id, func(p *model.Product) error {
		if upd.Name != nil {
			p.Name = strings.TrimSpace(*upd.Name)
		}
		if upd.Category != nil {
			p.Category = *upd.Category
		}
		if upd.Stock != nil {
			p.Stock = *upd.Stock
		}
		if upd.MinStock != nil {
			p.MinStock = *upd.MinStock
		}
		if upd.Price != nil {
			p.Price = *upd.Price
		}
		if upd.Cost != nil {
			p.Cost = *upd.Cost
		}
		if upd.Supplier != nil {
			p.Supplier = *upd.Supplier
		}
		if upd.Barcode != nil {
			p.Barcode = strings.TrimSpace(*upd.Barcode)
		}
		p.UpdatedAt = s.now()
		return validateProduct(p)
	})
}

// DeleteProduct refuses to remove a pack component. Earlier sales keep their
// line snapshots; refunding them later skips the restock.
func (s *ledgerService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	s.packMu.Lock()
	defer s.packMu.Unlock()

	packs, err := s.packs.List(ctx)
	if err != nil {
		return err
	}
	for _, p := range packs {
		for _, c := range p.Components {
			if c.ProductID == id {
				return fmt.Errorf("product %s is part of pack %q: %w", id, p.Name, ErrConflict)
			}
		}
	}
	return s.products.Delete(ctx, id)
}

// ── Expenses ──────────────────────────────────────────────────────────────────

// AddExpense records an expense and, when a shift is open, books it on the
// shift: every expense raises totalExpenses, cash ones raise cashExpenses.
// Till outflows must go through the PaidOut gate instead.
func (s *ledgerService) AddExpense(ctx context.Context, e *model.Expense) (*model.Expense, error) {
	e.Description = strings.TrimSpace(e.Description)
	if !e.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if e.Description == "" {
		return nil, ErrMissingDescription
	}
	if e.PaymentMethod == "" {
		e.PaymentMethod = model.PaymentCash
	}
	if !e.PaymentMethod.IsSaleMethod() {
		return nil, fmt.Errorf("%w: unsupported payment method %q", ErrValidation, e.PaymentMethod)
	}
	e.ID = uuid.New()
	e.FromRegister = false
	e.CreatedAt = s.now()

	_, err := s.shifts.Do(ctx, func(current *model.Shift) (ShiftDelta, error) {
		shiftID := current.ID
		e.ShiftID = &shiftID
		if err := s.expenses.Create(ctx, e); err != nil {
			return ShiftDelta{}, err
		}
		return expenseDelta(e), nil
	})
	if errors.Is(err, ErrNoActiveShift) {
		// Back-office expenses may be entered between shifts.
		e.ShiftID = nil
		err = s.expenses.Create(ctx, e)
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// ── Credits ───────────────────────────────────────────────────────────────────

// AddPaymentToCredit appends a payment and books it on the open shift.
// A payment larger than the amount due is rejected, so amountPaid+amountDue
// always equals the credit total.
func (s *ledgerService) AddPaymentToCredit(ctx context.Context, creditID uuid.UUID, amount decimal.Decimal, method model.PaymentMethod, note string) (*model.Credit, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if method == "" {
		method = model.PaymentCash
	}
	if !method.IsSaleMethod() {
		return nil, fmt.Errorf("%w: unsupported payment method %q", ErrValidation, method)
	}

	var updated *model.Credit
	_, err := s.shifts.Do(ctx, func(*model.Shift) (ShiftDelta, error) {
		c, err := s.credits.FindByID(ctx, creditID)
		if err != nil {
			return ShiftDelta{}, fmt.Errorf("credit %s: %w", creditID, err)
		}
		if c.Status == model.CreditPaid {
			return ShiftDelta{}, ErrCreditSettled
		}
		if amount.GreaterThan(c.AmountDue) {
			return ShiftDelta{}, fmt.Errorf("amount due %s: %w", c.AmountDue.StringFixed(2), ErrOverpayment)
		}

		c.Payments = append(c.Payments, model.CreditPayment{
			ID:        uuid.New(),
			Amount:    amount,
			Method:    method,
			Note:      strings.TrimSpace(note),
			CreatedAt: s.now(),
		})
		c.AmountPaid = c.AmountPaid.Add(amount)
		c.AmountDue = c.Total.Sub(c.AmountPaid)
		if c.AmountDue.IsZero() {
			c.Status = model.CreditPaid
		}
		if err := s.credits.Update(ctx, c); err != nil {
			return ShiftDelta{}, err
		}
		updated = c

		delta := ShiftDelta{TotalPayments: amount, PaymentsReceived: 1}
		if method == model.PaymentCash {
			delta.CashPayments = amount
		}
		return delta, nil
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("credit_id", creditID.String()).Str("amount", amount.StringFixed(2)).Str("status", string(updated.Status)).Msg("credit payment received")
	return updated, nil
}

// ── Sales ─────────────────────────────────────────────────────────────────────

// VoidSale deletes a sale. Stock and the shift aggregate are left as they are.
func (s *ledgerService) VoidSale(ctx context.Context, id uuid.UUID) error {
	if err := s.sales.Delete(ctx, id); err != nil {
		return fmt.Errorf("sale %s: %w", id, err)
	}
	log.Warn().Str("sale_id", id.String()).Msg("sale voided")
	return nil
}

// ── Orders ────────────────────────────────────────────────────────────────────

func (s *ledgerService) CreateOrder(ctx context.Context, o *model.Order) (*model.Order, error) {
	if len(o.Lines) == 0 {
		return nil, fmt.Errorf("%w: order has no lines", ErrValidation)
	}
	total := decimal.Zero
	for _, l := range o.Lines {
		if l.Quantity < 1 {
			return nil, ErrInvalidQuantity
		}
		if l.Cost.IsNegative() {
			return nil, fmt.Errorf("%w: cost cannot be negative", ErrValidation)
		}
		if _, err := s.products.FindByID(ctx, l.ProductID); err != nil {
			return nil, fmt.Errorf("product %s: %w", l.ProductID, err)
		}
		total = total.Add(l.Cost.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	o.ID = uuid.New()
	o.Supplier = strings.TrimSpace(o.Supplier)
	o.Total = total
	o.Status = model.OrderPending
	o.CreatedAt = s.now()
	o.ReceivedAt = nil
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// ReceiveOrder adds every ordered quantity to stock in one batch.
func (s *ledgerService) ReceiveOrder(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("order %s: %w", id, err)
	}
	if o.Status != model.OrderPending {
		return nil, ErrOrderNotPending
	}

	adjustments := make([]repository.StockAdjustment, 0, len(o.Lines))
	for _, l := range o.Lines {
		adjustments = append(adjustments, repository.StockAdjustment{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	if err := s.products.IncrementStock(ctx, adjustments); err != nil {
		return nil, err
	}

	now := s.now()
	o.Status = model.OrderReceived
	o.ReceivedAt = &now
	if err := s.orders.Update(ctx, o); err != nil {
		return nil, err
	}
	log.Info().Str("order_id", id.String()).Str("supplier", o.Supplier).Msg("order received")
	return o, nil
}

func (s *ledgerService) CancelOrder(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("order %s: %w", id, err)
	}
	if o.Status != model.OrderPending {
		return nil, ErrOrderNotPending
	}
	o.Status = model.OrderCancelled
	if err := s.orders.Update(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// ── Packs ─────────────────────────────────────────────────────────────────────

func (s *ledgerService) CreatePack(ctx context.Context, p *model.Pack) (*model.Pack, error) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return nil, fmt.Errorf("%w: pack name is required", ErrValidation)
	}
	if !p.Price.IsPositive() {
		return nil, fmt.Errorf("%w: pack price must be greater than zero", ErrValidation)
	}
	if len(p.Components) == 0 {
		return nil, fmt.Errorf("%w: pack has no components", ErrValidation)
	}
	s.packMu.Lock()
	defer s.packMu.Unlock()
	for _, c := range p.Components {
		if c.Quantity < 1 {
			return nil, ErrInvalidQuantity
		}
		if _, err := s.products.FindByID(ctx, c.ProductID); err != nil {
			return nil, fmt.Errorf("component %s: %w", c.ProductID, err)
		}
	}
	p.ID = uuid.New()
	p.CreatedAt = s.now()
	if err := s.packs.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ledgerService) DeletePack(ctx context.Context, id uuid.UUID) error {
	return s.packs.Delete(ctx, id)
}
