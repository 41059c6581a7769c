package service

import (
	"fmt"
	"slices"

	"inventorypro/internal/model"
	"inventorypro/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Cart is the transient, caller-owned state of an in-progress transaction.
// Nothing outside the cart changes until it is committed, so abandoning a
// cart needs no cleanup.
type Cart struct {
	Lines           []model.LineItem
	DiscountPercent decimal.Decimal

	customTotal *decimal.Decimal
}

func NewCart() *Cart { return &Cart{} }

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool { return len(c.Lines) == 0 }

// AddLine adds qty units of p, merging into an existing line. The unit price
// is captured on the first add and never re-read from the catalog.
func (c *Cart) AddLine(p model.Product, qty int) error {
	if qty < 1 {
		return ErrInvalidQuantity
	}
	if reserved := c.reserved(p.ID); reserved+qty > p.Stock {
		return fmt.Errorf("%s (stock %d, in cart %d, requested %d): %w",
			p.Name, p.Stock, reserved, qty, ErrInsufficientStock)
	}

	for i := range c.Lines {
		l := &c.Lines[i]
		if l.ProductID != nil && *l.ProductID == p.ID {
			l.Quantity += qty
			l.Subtotal = l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
			c.linesChanged()
			return nil
		}
	}

	id := p.ID
	c.Lines = append(c.Lines, model.LineItem{
		ProductID: &id,
		Name:      p.Name,
		UnitPrice: p.Price,
		Quantity:  qty,
		Subtotal:  p.Price.Mul(decimal.NewFromInt(int64(qty))),
	})
	c.linesChanged()
	return nil
}

// AddPackLine adds one unit of pack. Every component must be available in
// catalog for the units already reserved by the cart plus this pack; if any
// one falls short the cart is left untouched.
func (c *Cart) AddPackLine(pack model.Pack, catalog []model.Product) error {
	if len(pack.Components) == 0 {
		return fmt.Errorf("%w: pack %s has no components", ErrValidation, pack.Name)
	}

	need := make(map[uuid.UUID]int, len(pack.Components))
	for _, comp := range pack.Components {
		need[comp.ProductID] += comp.Quantity
	}
	for id, qty := range need {
		idx := slices.IndexFunc(catalog, func(p model.Product) bool { return p.ID == id })
		if idx < 0 {
			return fmt.Errorf("pack %s component %s: %w", pack.Name, id, ErrNotFound)
		}
		p := catalog[idx]
		if reserved := c.reserved(id); reserved+qty > p.Stock {
			return fmt.Errorf("pack %s needs %d of %s (stock %d, in cart %d): %w",
				pack.Name, qty, p.Name, p.Stock, reserved, ErrInsufficientStock)
		}
	}

	for i := range c.Lines {
		l := &c.Lines[i]
		if l.PackID != nil && *l.PackID == pack.ID {
			l.Quantity++
			l.Subtotal = l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
			c.linesChanged()
			return nil
		}
	}

	id := pack.ID
	c.Lines = append(c.Lines, model.LineItem{
		PackID:     &id,
		Name:       pack.Name,
		UnitPrice:  pack.Price,
		Quantity:   1,
		Subtotal:   pack.Price,
		Components: slices.Clone(pack.Components),
	})
	c.linesChanged()
	return nil
}

// RemoveLine drops the line at index i.
func (c *Cart) RemoveLine(i int) error {
	if i < 0 || i >= len(c.Lines) {
		return fmt.Errorf("cart line %d: %w", i, ErrNotFound)
	}
	c.Lines = slices.Delete(c.Lines, i, i+1)
	c.linesChanged()
	return nil
}

// ── Discounts ─────────────────────────────────────────────────────────────────
// SetDiscount and SetCustomTotal are mutually exclusive: the last call wins.

func (c *Cart) SetDiscount(percent decimal.Decimal) error {
	if percent.IsNegative() || percent.GreaterThan(hundred) {
		return ErrInvalidDiscount
	}
	c.DiscountPercent = percent
	c.customTotal = nil
	return nil
}

// SetCustomTotal overrides the total and back-computes the equivalent
// discount percent so reports always see a consistent discount.
func (c *Cart) SetCustomTotal(amount decimal.Decimal) error {
	subtotal := c.Subtotal()
	if !amount.IsPositive() || amount.GreaterThan(subtotal) {
		return ErrInvalidCustomTotal
	}
	total := amount
	c.customTotal = &total
	c.DiscountPercent = decimal.NewFromInt(1).Sub(amount.Div(subtotal)).Mul(hundred).Round(2)
	return nil
}

// linesChanged drops a custom total once the lines it was negotiated for
// change; the back-computed percent stays in effect.
func (c *Cart) linesChanged() { c.customTotal = nil }

// ── Totals ────────────────────────────────────────────────────────────────────

func (c *Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range c.Lines {
		sum = sum.Add(l.Subtotal)
	}
	return sum
}

func (c *Cart) Discount() decimal.Decimal {
	return c.Subtotal().Sub(c.Total())
}

func (c *Cart) Total() decimal.Decimal {
	if c.customTotal != nil {
		return *c.customTotal
	}
	subtotal := c.Subtotal()
	discount := subtotal.Mul(c.DiscountPercent).Div(hundred).Round(2)
	return subtotal.Sub(discount)
}

// Units is the number of product units sold; a pack counts once per unit.
func (c *Cart) Units() int {
	n := 0
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

// StockDemand aggregates every line and pack component into one batch.
func (c *Cart) StockDemand() []repository.StockAdjustment {
	return lineDemand(c.Lines, func(l model.LineItem) int { return l.Quantity })
}

func (c *Cart) reserved(productID uuid.UUID) int {
	n := 0
	for _, adj := range c.StockDemand() {
		if adj.ProductID == productID {
			n += adj.Quantity
		}
	}
	return n
}

// lineDemand expands lines into per-product stock adjustments, keeping the
// order in which products first appear.
func lineDemand(lines []model.LineItem, qtyOf func(model.LineItem) int) []repository.StockAdjustment {
	var out []repository.StockAdjustment
	index := make(map[uuid.UUID]int)
	add := func(id uuid.UUID, qty int) {
		if qty == 0 {
			return
		}
		if i, ok := index[id]; ok {
			out[i].Quantity += qty
			return
		}
		index[id] = len(out)
		out = append(out, repository.StockAdjustment{ProductID: id, Quantity: qty})
	}
	for _, l := range lines {
		qty := qtyOf(l)
		if l.ProductID != nil {
			add(*l.ProductID, qty)
			continue
		}
		for _, comp := range l.Components {
			add(comp.ProductID, comp.Quantity*qty)
		}
	}
	return out
}
