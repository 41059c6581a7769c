package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"inventorypro/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedProduct(t *testing.T, repo ProductRepository, name, barcode string, stock int) *model.Product {
	t.Helper()
	p := &model.Product{Name: name, Barcode: barcode, Stock: stock, Price: decimal.NewFromInt(10)}
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}

func stockOf(t *testing.T, repo ProductRepository, id uuid.UUID) int {
	t.Helper()
	p, err := repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

// ── Products ──────────────────────────────────────────────────────────────────

func TestDecrementStock_AllOrNothing(t *testing.T) {
	repo := NewProductRepository()
	ctx := context.Background()
	a := seedProduct(t, repo, "A", "", 3)
	b := seedProduct(t, repo, "B", "", 1)

	err := repo.DecrementStock(ctx, []StockAdjustment{
		{ProductID: a.ID, Quantity: 2},
		{ProductID: b.ID, Quantity: 1},
		{ProductID: b.ID, Quantity: 1},
	})
	require.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, 3, stockOf(t, repo, a.ID))
	assert.Equal(t, 1, stockOf(t, repo, b.ID))

	err = repo.DecrementStock(ctx, []StockAdjustment{{ProductID: a.ID, Quantity: 1}, {ProductID: uuid.New(), Quantity: 1}})
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 3, stockOf(t, repo, a.ID))

	require.NoError(t, repo.DecrementStock(ctx, []StockAdjustment{{ProductID: a.ID, Quantity: 3}, {ProductID: b.ID, Quantity: 1}}))
	assert.Equal(t, 0, stockOf(t, repo, a.ID))
	assert.Equal(t, 0, stockOf(t, repo, b.ID))
}

func TestDecrementStock_ConcurrentNeverOversells(t *testing.T) {
	repo := NewProductRepository()
	p := seedProduct(t, repo, "Limited", "", 10)

	var wg sync.WaitGroup
	var mu sync.Mutex
	sold := 0
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := repo.DecrementStock(context.Background(), []StockAdjustment{{ProductID: p.ID, Quantity: 1}}); err == nil {
				mu.Lock()
				sold++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 10, sold)
	assert.Equal(t, 0, stockOf(t, repo, p.ID))
}

func TestIncrementStock_RejectsUnknownProduct(t *testing.T) {
	repo := NewProductRepository()
	p := seedProduct(t, repo, "A", "", 1)

	err := repo.IncrementStock(context.Background(), []StockAdjustment{{ProductID: p.ID, Quantity: 4}, {ProductID: uuid.New(), Quantity: 1}})
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, stockOf(t, repo, p.ID))

	require.NoError(t, repo.IncrementStock(context.Background(), []StockAdjustment{{ProductID: p.ID, Quantity: 4}}))
	assert.Equal(t, 5, stockOf(t, repo, p.ID))
}

func TestProductRepo_Barcodes(t *testing.T) {
	repo := NewProductRepository()
	ctx := context.Background()
	a := seedProduct(t, repo, "A", "779001", 1)
	seedProduct(t, repo, "B", "", 1)
	seedProduct(t, repo, "C", "", 1)

	err := repo.Create(ctx, &model.Product{Name: "Dup", Barcode: "779001"})
	assert.ErrorIs(t, err, ErrDuplicate)

	found, err := repo.FindByBarcode(ctx, " 779001 ")
	require.NoError(t, err)
	assert.Equal(t, a.ID, found.ID)
	_, err = repo.FindByBarcode(ctx, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProductRepo_Modify(t *testing.T) {
	repo := NewProductRepository()
	ctx := context.Background()
	a := seedProduct(t, repo, "A", "111", 5)
	b := seedProduct(t, repo, "B", "222", 5)

	_, err := repo.Modify(ctx, b.ID, func(p *model.Product) error { p.Barcode = "111"; return nil })
	assert.ErrorIs(t, err, ErrDuplicate)
	_, err = repo.Modify(ctx, b.ID, func(p *model.Product) error { p.Stock = -1; return nil })
	assert.Error(t, err)
	boom := errors.New("boom")
	_, err = repo.Modify(ctx, b.ID, func(p *model.Product) error { p.Name = "changed"; return boom })
	assert.ErrorIs(t, err, boom)

	got, err := repo.FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "B", got.Name)
	assert.Equal(t, "222", got.Barcode)

	updated, err := repo.Modify(ctx, a.ID, func(p *model.Product) error {
		p.ID = uuid.New()
		p.Name = "A2"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, a.ID, updated.ID)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "A2", list[0].Name, "list keeps insertion order")
}

// ── Sales ─────────────────────────────────────────────────────────────────────

func TestSaleRepo_TicketNumbers(t *testing.T) {
	repo := NewSaleRepository()
	ctx := context.Background()
	shiftA, shiftB := uuid.New(), uuid.New()

	for i, shift := range []uuid.UUID{shiftA, shiftB, shiftA} {
		s := &model.Sale{ShiftID: shift}
		require.NoError(t, repo.Create(ctx, s))
		assert.Equal(t, i+1, s.Number)
	}

	byShift, err := repo.ListByShift(ctx, shiftA)
	require.NoError(t, err)
	assert.Len(t, byShift, 2)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.Delete(ctx, all[0].ID))

	next := &model.Sale{ShiftID: shiftB}
	require.NoError(t, repo.Create(ctx, next))
	assert.Equal(t, 4, next.Number, "numbers are never reused")
}

func TestCreditRepo_StoresCopies(t *testing.T) {
	repo := NewCreditRepository()
	ctx := context.Background()
	c := &model.Credit{Payments: []model.CreditPayment{{Amount: decimal.NewFromInt(1)}}}
	require.NoError(t, repo.Create(ctx, c))

	c.Payments[0].Amount = decimal.NewFromInt(99)
	got, err := repo.FindByID(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, got.Payments[0].Amount.Equal(decimal.NewFromInt(1)))
}

// ── Shift history ─────────────────────────────────────────────────────────────

func TestMemoryShiftHistory_NewestFirst(t *testing.T) {
	repo := NewMemoryShiftHistory()
	ctx := context.Background()

	_, err := repo.Last(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	start := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		s := model.NewShift(model.User{Name: "Tomas", Role: model.RoleCashier}, decimal.Zero, "", start.Add(time.Duration(i)*24*time.Hour))
		require.NoError(t, repo.Append(ctx, &model.ShiftClose{Shift: *s, NotesForNext: string(rune('a' + i))}))
	}

	page, total, err := repo.List(ctx, 1, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	require.Len(t, page, 2)
	assert.Equal(t, "e", page[0].NotesForNext)
	assert.Equal(t, "d", page[1].NotesForNext)

	page, _, err = repo.List(ctx, 3, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "a", page[0].NotesForNext)

	page, _, err = repo.List(ctx, 9, 2)
	require.NoError(t, err)
	assert.Empty(t, page)

	last, err := repo.Last(ctx)
	require.NoError(t, err)
	assert.Equal(t, "e", last.NotesForNext)
}
