package repository

import (
	"context"
	"slices"

	"inventorypro/internal/model"

	"github.com/google/uuid"
)

type SaleRepository interface {
	// Create stores the sale and assigns the next ticket number.
	Create(ctx context.Context, s *model.Sale) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error)
	List(ctx context.Context) ([]model.Sale, error)
	ListByShift(ctx context.Context, shiftID uuid.UUID) ([]model.Sale, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type saleRepo struct {
	sales     *collection[model.Sale]
	ticketSeq int
}

func NewSaleRepository() SaleRepository {
	return &saleRepo{sales: newCollection[model.Sale]()}
}

func (r *saleRepo) Create(_ context.Context, s *model.Sale) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	r.sales.mu.Lock()
	defer r.sales.mu.Unlock()
	if _, ok := r.sales.items[s.ID]; ok {
		return ErrDuplicate
	}
	r.ticketSeq++
	s.Number = r.ticketSeq
	stored := *s
	stored.Lines = slices.Clone(s.Lines)
	return r.sales.insertLocked(s.ID, stored)
}

func (r *saleRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Sale, error) {
	s, err := r.sales.get(id)
	if err != nil {
		return nil, err
	}
	s.Lines = slices.Clone(s.Lines)
	return &s, nil
}

func (r *saleRepo) List(_ context.Context) ([]model.Sale, error) {
	return r.sales.list(), nil
}

func (r *saleRepo) ListByShift(_ context.Context, shiftID uuid.UUID) ([]model.Sale, error) {
	var out []model.Sale
	for _, s := range r.sales.list() {
		if s.ShiftID == shiftID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *saleRepo) Delete(_ context.Context, id uuid.UUID) error {
	return r.sales.remove(id)
}
