package repository

import (
	"context"

	"inventorypro/internal/model"

	"github.com/google/uuid"
)

type CreditRepository interface {
	Create(ctx context.Context, c *model.Credit) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Credit, error)
	List(ctx context.Context) ([]model.Credit, error)
	Update(ctx context.Context, c *model.Credit) error
}

type creditRepo struct{ credits *collection[model.Credit] }

func NewCreditRepository() CreditRepository {
	return &creditRepo{credits: newCollection[model.Credit]()}
}

func (r *creditRepo) Create(_ context.Context, c *model.Credit) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return r.credits.insert(c.ID, c.Clone())
}

func (r *creditRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Credit, error) {
	c, err := r.credits.get(id)
	if err != nil {
		return nil, err
	}
	c = c.Clone()
	return &c, nil
}

func (r *creditRepo) List(_ context.Context) ([]model.Credit, error) {
	return r.credits.list(), nil
}

func (r *creditRepo) Update(_ context.Context, c *model.Credit) error {
	return r.credits.replace(c.ID, c.Clone())
}
