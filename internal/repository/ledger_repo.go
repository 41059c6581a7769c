package repository

import (
	"context"
	"slices"

	"inventorypro/internal/model"

	"github.com/google/uuid"
)

// ── Expenses ──────────────────────────────────────────────────────────────────

type ExpenseRepository interface {
	Create(ctx context.Context, e *model.Expense) error
	List(ctx context.Context) ([]model.Expense, error)
}

type expenseRepo struct{ expenses *collection[model.Expense] }

func NewExpenseRepository() ExpenseRepository {
	return &expenseRepo{expenses: newCollection[model.Expense]()}
}

func (r *expenseRepo) Create(_ context.Context, e *model.Expense) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return r.expenses.insert(e.ID, *e)
}

func (r *expenseRepo) List(_ context.Context) ([]model.Expense, error) {
	return r.expenses.list(), nil
}

// ── Orders ────────────────────────────────────────────────────────────────────

type OrderRepository interface {
	Create(ctx context.Context, o *model.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	List(ctx context.Context) ([]model.Order, error)
	Update(ctx context.Context, o *model.Order) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type orderRepo struct{ orders *collection[model.Order] }

func NewOrderRepository() OrderRepository {
	return &orderRepo{orders: newCollection[model.Order]()}
}

func (r *orderRepo) Create(_ context.Context, o *model.Order) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return r.orders.insert(o.ID, o.Clone())
}

func (r *orderRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Order, error) {
	o, err := r.orders.get(id)
	if err != nil {
		return nil, err
	}
	o = o.Clone()
	return &o, nil
}

func (r *orderRepo) List(_ context.Context) ([]model.Order, error) {
	return r.orders.list(), nil
}

func (r *orderRepo) Update(_ context.Context, o *model.Order) error {
	return r.orders.replace(o.ID, o.Clone())
}

func (r *orderRepo) Delete(_ context.Context, id uuid.UUID) error {
	return r.orders.remove(id)
}

// ── Packs ─────────────────────────────────────────────────────────────────────

type PackRepository interface {
	Create(ctx context.Context, p *model.Pack) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Pack, error)
	List(ctx context.Context) ([]model.Pack, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type packRepo struct{ packs *collection[model.Pack] }

func NewPackRepository() PackRepository {
	return &packRepo{packs: newCollection[model.Pack]()}
}

func (r *packRepo) Create(_ context.Context, p *model.Pack) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	stored := *p
	stored.Components = slices.Clone(p.Components)
	return r.packs.insert(p.ID, stored)
}

func (r *packRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Pack, error) {
	p, err := r.packs.get(id)
	if err != nil {
		return nil, err
	}
	p.Components = slices.Clone(p.Components)
	return &p, nil
}

func (r *packRepo) List(_ context.Context) ([]model.Pack, error) {
	return r.packs.list(), nil
}

func (r *packRepo) Delete(_ context.Context, id uuid.UUID) error {
	return r.packs.remove(id)
}

// ── Refunds ───────────────────────────────────────────────────────────────────

type RefundRepository interface {
	Create(ctx context.Context, r *model.Refund) error
	List(ctx context.Context) ([]model.Refund, error)
	ListBySale(ctx context.Context, saleID uuid.UUID) ([]model.Refund, error)
	// Delete only backs out a refund whose commit did not complete.
	Delete(ctx context.Context, id uuid.UUID) error
}

type refundRepo struct{ refunds *collection[model.Refund] }

func NewRefundRepository() RefundRepository {
	return &refundRepo{refunds: newCollection[model.Refund]()}
}

func (r *refundRepo) Create(_ context.Context, rf *model.Refund) error {
	if rf.ID == uuid.Nil {
		rf.ID = uuid.New()
	}
	stored := *rf
	stored.Lines = slices.Clone(rf.Lines)
	return r.refunds.insert(rf.ID, stored)
}

func (r *refundRepo) List(_ context.Context) ([]model.Refund, error) {
	return r.refunds.list(), nil
}

func (r *refundRepo) ListBySale(_ context.Context, saleID uuid.UUID) ([]model.Refund, error) {
	var out []model.Refund
	for _, rf := range r.refunds.list() {
		if rf.SaleID == saleID {
			out = append(out, rf)
		}
	}
	return out, nil
}

func (r *refundRepo) Delete(_ context.Context, id uuid.UUID) error {
	return r.refunds.remove(id)
}
