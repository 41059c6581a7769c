package repository

import (
	"context"
	"fmt"
	"strings"

	"inventorypro/internal/model"

	"github.com/google/uuid"
)

// StockAdjustment is one product's share of a stock batch.
type StockAdjustment struct {
	ProductID uuid.UUID
	Quantity  int
}

// ProductRepository defines the data access contract for the catalog.
// Services depend on this interface so tests can swap implementations.
type ProductRepository interface {
	Create(ctx context.Context, p *model.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindByBarcode(ctx context.Context, barcode string) (*model.Product, error)
	List(ctx context.Context) ([]model.Product, error)
	// Modify applies fn to the stored product under the catalog lock, so a
	// concurrent stock batch cannot be overwritten by a catalog edit.
	Modify(ctx context.Context, id uuid.UUID, fn func(p *model.Product) error) (*model.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// DecrementStock validates every adjustment before applying any of them.
	// On ErrInsufficientStock or ErrNotFound no product is modified.
	DecrementStock(ctx context.Context, adjustments []StockAdjustment) error
	// IncrementStock is all-or-nothing on unknown products.
	IncrementStock(ctx context.Context, adjustments []StockAdjustment) error
}

type productRepo struct{ products *collection[model.Product] }

func NewProductRepository() ProductRepository {
	return &productRepo{products: newCollection[model.Product]()}
}

func (r *productRepo) Create(_ context.Context, p *model.Product) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Stock < 0 {
		return fmt.Errorf("product %s: negative stock", p.Name)
	}
	r.products.mu.Lock()
	defer r.products.mu.Unlock()
	if err := r.checkBarcodeLocked(p.ID, p.Barcode); err != nil {
		return err
	}
	return r.products.insertLocked(p.ID, *p)
}

func (r *productRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	p, err := r.products.get(id)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) FindByBarcode(_ context.Context, barcode string) (*model.Product, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, ErrNotFound
	}
	p, err := r.products.find(func(p model.Product) bool { return p.Barcode == barcode })
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) List(_ context.Context) ([]model.Product, error) {
	return r.products.list(), nil
}

func (r *productRepo) Modify(_ context.Context, id uuid.UUID, fn func(p *model.Product) error) (*model.Product, error) {
	r.products.mu.Lock()
	defer r.products.mu.Unlock()
	p, ok := r.products.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	if err := fn(&p); err != nil {
		return nil, err
	}
	p.ID = id
	if p.Stock < 0 {
		return nil, fmt.Errorf("product %s: negative stock", p.Name)
	}
	if err := r.checkBarcodeLocked(id, p.Barcode); err != nil {
		return nil, err
	}
	r.products.items[id] = p
	return &p, nil
}

func (r *productRepo) Delete(_ context.Context, id uuid.UUID) error {
	return r.products.remove(id)
}

func (r *productRepo) DecrementStock(_ context.Context, adjustments []StockAdjustment) error {
	r.products.mu.Lock()
	defer r.products.mu.Unlock()

	demand := make(map[uuid.UUID]int, len(adjustments))
	for _, adj := range adjustments {
		demand[adj.ProductID] += adj.Quantity
	}
	// Validate the whole batch first: nothing is written unless every line fits.
	for id, qty := range demand {
		p, ok := r.products.items[id]
		if !ok {
			return fmt.Errorf("product %s: %w", id, ErrNotFound)
		}
		if qty < 0 || p.Stock < qty {
			return fmt.Errorf("%s (stock %d, requested %d): %w", p.Name, p.Stock, qty, ErrInsufficientStock)
		}
	}
	for id, qty := range demand {
		p := r.products.items[id]
		p.Stock -= qty
		r.products.items[id] = p
	}
	return nil
}

func (r *productRepo) IncrementStock(_ context.Context, adjustments []StockAdjustment) error {
	r.products.mu.Lock()
	defer r.products.mu.Unlock()

	for _, adj := range adjustments {
		if _, ok := r.products.items[adj.ProductID]; !ok {
			return fmt.Errorf("product %s: %w", adj.ProductID, ErrNotFound)
		}
		if adj.Quantity < 0 {
			return fmt.Errorf("negative restock quantity for %s", adj.ProductID)
		}
	}
	for _, adj := range adjustments {
		p := r.products.items[adj.ProductID]
		p.Stock += adj.Quantity
		r.products.items[adj.ProductID] = p
	}
	return nil
}

func (r *productRepo) checkBarcodeLocked(id uuid.UUID, barcode string) error {
	if barcode == "" {
		return nil
	}
	for oid, other := range r.products.items {
		if oid != id && other.Barcode == barcode {
			return fmt.Errorf("barcode %s already assigned to %s: %w", barcode, other.Name, ErrDuplicate)
		}
	}
	return nil
}
