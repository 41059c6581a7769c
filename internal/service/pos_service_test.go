package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"inventorypro/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommitSale_CashChange(t *testing.T) {
	reg := newRegister(t)
	soda := reg.product(t, "Soda", "779", 10, "35")
	reg.open(t, "100")

	sale := reg.sell(t, model.PaymentCash, "100", item(soda, 2))
	requireDec(t, "70", sale.Total)
	requireDec(t, "30", sale.Change)
	assert.Equal(t, 1, sale.Number)
	assert.Equal(t, "Tomas", sale.UserName)
	assert.Equal(t, 8, reg.stock(t, soda.ID))

	s := reg.active(t)
	requireDec(t, "70", s.CashSales)
	requireDec(t, "70", s.SalesByMethod[model.PaymentCash])
	assert.Equal(t, 2, s.ProductsSold)
}

func TestCommitSale_InsufficientStockLeavesStockUnchanged(t *testing.T) {
	reg := newRegister(t)
	ctx := context.Background()
	mug := reg.product(t, "Mug", "", 2, "10")
	reg.open(t, "0")

	_, err := reg.pos.BuildCart(ctx, CartRequest{Items: []CartItem{item(mug, 3)}})
	require.ErrorIs(t, err, ErrInsufficientStock)

	// A cart assembled before another till emptied the shelf.
	cart, err := reg.pos.BuildCart(ctx, CartRequest{Items: []CartItem{item(mug, 2)}})
	require.NoError(t, err)
	reg.sell(t, model.PaymentCard, "0", item(mug, 1))
	before := reg.active(t)

	for i := 0; i < 2; i++ {
		_, err = reg.pos.CommitSale(ctx, cart, model.PaymentCash, dec("20"))
		require.ErrorIs(t, err, ErrInsufficientStock)
		assert.Equal(t, 1, reg.stock(t, mug.ID))
		assert.Equal(t, before, reg.active(t))
	}

	sales, err := reg.ledger.ListSales(ctx)
	require.NoError(t, err)
	assert.Len(t, sales, 1)
}

func TestCommitSale_PackFailsAtomically(t *testing.T) {
	reg := newRegister(t)
	ctx := context.Background()
	a := reg.product(t, "Product A", "", 1, "4")
	b := reg.product(t, "Product B", "", 5, "3")
	pack, err := reg.ledger.CreatePack(ctx, &model.Pack{Name: "Combo", Price: dec("9"), Components: []model.PackComponent{
		{ProductID: b.ID, Quantity: 1},
		{ProductID: a.ID, Quantity: 2},
	}})
	require.NoError(t, err)
	reg.open(t, "0")

	packID := pack.ID
	_, err = reg.pos.BuildCart(ctx, CartRequest{Items: []CartItem{{PackID: &packID}}})
	require.ErrorIs(t, err, ErrInsufficientStock)

	// Same outcome when the line reaches the commit unchecked.
	cart := NewCart()
	cart.Lines = append(cart.Lines, model.LineItem{
		PackID: &packID, Name: pack.Name, UnitPrice: pack.Price, Quantity: 1, Subtotal: pack.Price,
		Components: pack.Components,
	})
	_, err = reg.pos.CommitSale(ctx, cart, model.PaymentCash, dec("9"))
	require.ErrorIs(t, err, ErrInsufficientStock)

	assert.Equal(t, 1, reg.stock(t, a.ID))
	assert.Equal(t, 5, reg.stock(t, b.ID))
	assert.Equal(t, 0, reg.active(t).Transactions)
}

func TestCommitSale_PackDecrementsComponents(t *testing.T) {
	reg := newRegister(t)
	ctx := context.Background()
	a := reg.product(t, "Beer", "", 6, "2")
	b := reg.product(t, "Chips", "", 3, "1")
	pack, err := reg.ledger.CreatePack(ctx, &model.Pack{Name: "Six-pack deal", Barcode: "PK1", Price: dec("10"), Components: []model.PackComponent{
		{ProductID: a.ID, Quantity: 3},
		{ProductID: b.ID, Quantity: 1},
	}})
	require.NoError(t, err)
	reg.open(t, "0")

	packID := pack.ID
	sale := reg.sell(t, model.PaymentTransfer, "0", CartItem{PackID: &packID, Quantity: 2})
	requireDec(t, "20", sale.Total)
	assert.Equal(t, 0, reg.stock(t, a.ID))
	assert.Equal(t, 1, reg.stock(t, b.ID))
	require.Len(t, sale.Lines, 1)
	assert.Equal(t, 2, sale.Lines[0].Quantity)
	requireDec(t, "20", reg.active(t).SalesByMethod[model.PaymentTransfer])
}

func TestCommitSale_TotalsMatchShift(t *testing.T) {
	reg := newRegister(t)
	ctx := context.Background()
	p := reg.product(t, "Notebook", "", 100, "7.25")
	q := reg.product(t, "Pencil", "", 100, "1.10")
	reg.open(t, "50")

	type sell struct {
		method   model.PaymentMethod
		items    []CartItem
		discount string
	}
	runs := []sell{
		{model.PaymentCash, []CartItem{item(p, 1)}, ""},
		{model.PaymentCard, []CartItem{item(p, 2), item(q, 3)}, "10"},
		{model.PaymentCash, []CartItem{item(q, 7)}, "15"},
		{model.PaymentTransfer, []CartItem{item(p, 4)}, ""},
		{model.PaymentCash, []CartItem{item(p, 1), item(q, 1)}, "33.33"},
	}
	for _, r := range runs {
		req := CartRequest{Items: r.items}
		if r.discount != "" {
			d := dec(r.discount)
			req.DiscountPercent = &d
		}
		cart, err := reg.pos.BuildCart(ctx, req)
		require.NoError(t, err)
		_, err = reg.pos.CommitSale(ctx, cart, r.method, cart.Total())
		require.NoError(t, err)
	}

	sales, err := reg.ledger.ListSales(ctx)
	require.NoError(t, err)
	require.Len(t, sales, len(runs))

	total, cash := dec("0"), dec("0")
	for _, s := range sales {
		total = total.Add(s.Total)
		if s.PaymentMethod == model.PaymentCash {
			cash = cash.Add(s.Total)
		}
		requireDec(t, s.Subtotal.Sub(s.Discount).String(), s.Total)
	}
	shift := reg.active(t)
	requireDec(t, total.String(), shift.TotalSales)
	requireDec(t, cash.String(), shift.SalesByMethod[model.PaymentCash])
	requireDec(t, cash.String(), shift.CashSales)
	assert.Equal(t, len(runs), shift.Transactions)
}

func TestCommitSale_Rejections(t *testing.T) {
	reg := newRegister(t)
	ctx := context.Background()
	p := reg.product(t, "Battery", "", 4, "12")

	cart, err := reg.pos.BuildCart(ctx, CartRequest{Items: []CartItem{item(p, 1)}})
	require.NoError(t, err)

	_, err = reg.pos.CommitSale(ctx, cart, model.PaymentCash, dec("12"))
	assert.ErrorIs(t, err, ErrNoActiveShift)
	assert.Equal(t, 4, reg.stock(t, p.ID))

	reg.open(t, "0")
	_, err = reg.pos.CommitSale(ctx, NewCart(), model.PaymentCash, dec("12"))
	assert.ErrorIs(t, err, ErrEmptyCart)
	_, err = reg.pos.CommitSale(ctx, cart, "", dec("12"))
	assert.ErrorIs(t, err, ErrMissingPaymentMethod)
	_, err = reg.pos.CommitSale(ctx, cart, model.PaymentCredit, dec("12"))
	assert.ErrorIs(t, err, ErrValidation)
	_, err = reg.pos.CommitSale(ctx, cart, model.PaymentCash, dec("11.99"))
	assert.ErrorIs(t, err, ErrInsufficientPayment)
	assert.Equal(t, 4, reg.stock(t, p.ID))
}

func TestBuildCart_LookupByCodeAndCustomTotal(t *testing.T) {
	reg := newRegister(t)
	ctx := context.Background()
	reg.product(t, "Mouse Logitech", "123", 5, "40")

	custom := dec("70")
	cart, err := reg.pos.BuildCart(ctx, CartRequest{
		Items:       []CartItem{{Code: "123"}, {Code: "mouse"}},
		CustomTotal: &custom,
	})
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, 2, cart.Lines[0].Quantity)
	requireDec(t, "70", cart.Total())
	requireDec(t, "12.5", cart.DiscountPercent)

	_, err = reg.pos.BuildCart(ctx, CartRequest{Items: []CartItem{{Code: "xyz"}}})
	assert.ErrorIs(t, err, ErrNotFound)

	p, err := reg.pos.LookupProduct(ctx, "logitech")
	require.NoError(t, err)
	assert.Equal(t, "Mouse Logitech", p.Name)
}

func TestCommitCredit(t *testing.T) {
	reg := newRegister(t)
	ctx := context.Background()
	p := reg.product(t, "Rice 1kg", "", 10, "15")
	reg.open(t, "100")

	cart, err := reg.pos.BuildCart(ctx, CartRequest{Items: []CartItem{item(p, 4)}})
	require.NoError(t, err)

	_, err = reg.pos.CommitCredit(ctx, cart, "Marta", " ")
	require.ErrorIs(t, err, ErrMissingCustomerInfo)
	assert.Equal(t, 10, reg.stock(t, p.ID))

	credit, err := reg.pos.CommitCredit(ctx, cart, "Marta", "555-0101")
	require.NoError(t, err)
	requireDec(t, "60", credit.Total)
	requireDec(t, "60", credit.AmountDue)
	requireDec(t, "0", credit.AmountPaid)
	assert.Equal(t, model.CreditPending, credit.Status)
	assert.Equal(t, CreditTerm, credit.DueDate.Sub(credit.CreatedAt))
	assert.Equal(t, 6, reg.stock(t, p.ID))

	s := reg.active(t)
	assert.Equal(t, 1, s.CreditsCreated)
	requireDec(t, "60", s.SalesByMethod[model.PaymentCredit])
	requireDec(t, "0", s.TotalSales)
	expected, err := reg.shifts.ExpectedCash(ctx)
	require.NoError(t, err)
	requireDec(t, "100", expected)
}

func TestCommitRefund(t *testing.T) {
	reg := newRegister(t)
	ctx := context.Background()
	p := reg.product(t, "Lamp", "", 5, "25")
	reg.open(t, "0")
	sale := reg.sell(t, model.PaymentCash, "50", item(p, 2))
	require.Equal(t, 3, reg.stock(t, p.ID))

	refund, err := reg.pos.CommitRefund(ctx, RefundRequest{
		AuthorizationID: reg.grant(t, ActionRefund),
		SaleID:          sale.ID,
		Lines:           []RefundLine{{LineIndex: 0, Quantity: 1}},
		Reason:          "broken shade",
	})
	require.NoError(t, err)
	requireDec(t, "25", refund.Total)
	assert.Equal(t, model.PaymentCash, refund.Method)
	assert.Equal(t, "Laura", refund.AuthorizedBy)
	assert.Equal(t, 4, reg.stock(t, p.ID))

	s := reg.active(t)
	require.Len(t, s.Refunds, 1)
	requireDec(t, "50", s.TotalSales)
	assert.Equal(t, 1, s.Transactions)

	// Only one unit is left to refund; the authorization survives the rejection.
	auth := reg.grant(t, ActionRefund)
	_, err = reg.pos.CommitRefund(ctx, RefundRequest{
		AuthorizationID: auth, SaleID: sale.ID, Reason: "second lamp",
		Lines: []RefundLine{{LineIndex: 0, Quantity: 2}},
	})
	require.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, 4, reg.stock(t, p.ID))

	_, err = reg.pos.CommitRefund(ctx, RefundRequest{
		AuthorizationID: auth, SaleID: sale.ID, Reason: "second lamp",
		Lines: []RefundLine{{LineIndex: 0, Quantity: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, 5, reg.stock(t, p.ID))

	refunds, err := reg.ledger.ListRefunds(ctx)
	require.NoError(t, err)
	assert.Len(t, refunds, 2)
}

func TestCommitRefund_Rejections(t *testing.T) {
	reg := newRegister(t)
	ctx := context.Background()
	p := reg.product(t, "Fan", "", 5, "80")
	reg.open(t, "0")
	sale := reg.sell(t, model.PaymentCard, "0", item(p, 1))
	lines := []RefundLine{{LineIndex: 0, Quantity: 1}}

	pending, err := reg.gate.RequestAuthorization(ctx, ActionRefund)
	require.NoError(t, err)
	_, err = reg.pos.CommitRefund(ctx, RefundRequest{AuthorizationID: pending.ID, SaleID: sale.ID, Lines: lines, Reason: "noisy"})
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, AuthReasonNotGranted, authErr.Reason)

	paidIn := reg.grant(t, ActionPaidIn)
	_, err = reg.pos.CommitRefund(ctx, RefundRequest{AuthorizationID: paidIn, SaleID: sale.ID, Lines: lines, Reason: "noisy"})
	assert.ErrorIs(t, err, ErrAuthorizationMismatch)

	ok := reg.grant(t, ActionRefund)
	_, err = reg.pos.CommitRefund(ctx, RefundRequest{AuthorizationID: ok, SaleID: sale.ID, Lines: lines})
	assert.ErrorIs(t, err, ErrMissingReason)
	_, err = reg.pos.CommitRefund(ctx, RefundRequest{AuthorizationID: ok, SaleID: sale.ID, Reason: "noisy"})
	assert.ErrorIs(t, err, ErrNoRefundLines)
	_, err = reg.pos.CommitRefund(ctx, RefundRequest{AuthorizationID: ok, SaleID: uuid.New(), Lines: lines, Reason: "noisy"})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = reg.pos.CommitRefund(ctx, RefundRequest{AuthorizationID: ok, SaleID: sale.ID, Lines: []RefundLine{{LineIndex: 4, Quantity: 1}}, Reason: "noisy"})
	assert.ErrorIs(t, err, ErrValidation)

	assert.Equal(t, 4, reg.stock(t, p.ID))
}

func TestCommitSale_ConcurrentCartsDoNotOversell(t *testing.T) {
	reg := newRegister(t)
	ctx := context.Background()
	p := reg.product(t, "Headphones", "", 10, "5")
	reg.open(t, "0")

	const buyers = 40
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		sold int
	)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cart, err := reg.pos.BuildCart(ctx, CartRequest{Items: []CartItem{item(p, 1)}})
			if err == nil {
				_, err = reg.pos.CommitSale(ctx, cart, model.PaymentCard, dec("0"))
			}
			if err != nil {
				assert.ErrorIs(t, err, ErrInsufficientStock)
				return
			}
			mu.Lock()
			sold++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, sold)
	assert.Equal(t, 0, reg.stock(t, p.ID))
	s := reg.active(t)
	assert.Equal(t, 10, s.Transactions)
	assert.Equal(t, 10, s.ProductsSold)
	requireDec(t, "50", s.TotalSales)
	requireDec(t, "50", s.SalesByMethod[model.PaymentCard])
}

func TestCommitRefund_FailedCommitKeepsAuthorization(t *testing.T) {
	reg := newRegister(t)
	ctx := context.Background()
	p := reg.product(t, "Kettle", "", 3, "30")
	reg.open(t, "0")
	sale := reg.sell(t, model.PaymentCash, "30", item(p, 1))

	broken := NewPOSService(reg.repos.Products, reg.repos.Packs, reg.repos.Sales, reg.repos.Credits,
		failingRefunds{reg.repos.Refunds}, reg.shifts, reg.gate)
	auth := reg.grant(t, ActionRefund)
	req := RefundRequest{AuthorizationID: auth, SaleID: sale.ID, Lines: []RefundLine{{LineIndex: 0, Quantity: 1}}, Reason: "leaks"}

	_, err := broken.CommitRefund(ctx, req)
	require.True(t, errors.Is(err, errStoreDown), err)
	assert.Equal(t, 2, reg.stock(t, p.ID), "restock is undone")
	assert.Empty(t, reg.active(t).Refunds)

	admin, err := reg.gate.Check(ctx, auth, ActionRefund)
	require.NoError(t, err)
	assert.Equal(t, "Laura", admin)

	_, err = reg.pos.CommitRefund(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 3, reg.stock(t, p.ID))
	_, err = reg.gate.Check(ctx, auth, ActionRefund)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCommitRefund_ClosedShiftKeepsAuthorization(t *testing.T) {
	reg := newRegister(t)
	ctx := context.Background()
	p := reg.product(t, "Toaster", "", 2, "20")
	reg.open(t, "0")
	sale := reg.sell(t, model.PaymentCard, "0", item(p, 1))
	_, err := reg.shifts.CloseShift(ctx, dec("0"), "", "")
	require.NoError(t, err)

	auth := reg.grant(t, ActionRefund)
	req := RefundRequest{AuthorizationID: auth, SaleID: sale.ID, Lines: []RefundLine{{LineIndex: 0, Quantity: 1}}, Reason: "burnt"}
	_, err = reg.pos.CommitRefund(ctx, req)
	require.ErrorIs(t, err, ErrNoActiveShift)
	assert.Equal(t, 1, reg.stock(t, p.ID))

	reg.open(t, "0")
	_, err = reg.pos.CommitRefund(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 2, reg.stock(t, p.ID))
}

func TestCommitRefund_DeletedProductIsNotRestocked(t *testing.T) {
	reg := newRegister(t)
	ctx := context.Background()
	gone := reg.product(t, "Seasonal mug", "", 2, "8")
	kept := reg.product(t, "Spoon", "", 2, "2")
	reg.open(t, "0")
	sale := reg.sell(t, model.PaymentCash, "10", item(gone, 1), item(kept, 1))
	require.NoError(t, reg.ledger.DeleteProduct(ctx, gone.ID))

	refund, err := reg.pos.CommitRefund(ctx, RefundRequest{
		AuthorizationID: reg.grant(t, ActionRefund),
		SaleID:          sale.ID,
		Lines:           []RefundLine{{LineIndex: 0, Quantity: 1}, {LineIndex: 1, Quantity: 1}},
		Reason:          "wrong order",
	})
	require.NoError(t, err)
	requireDec(t, "10", refund.Total)
	assert.Equal(t, 2, reg.stock(t, kept.ID))
	_, err = reg.repos.Products.FindByID(ctx, gone.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLookupProduct_ByBarcode(t *testing.T) {
	reg := newRegister(t)
	ctx := context.Background()
	p := reg.product(t, "Batteries AA", "7790001", 0, "3")

	found, err := reg.pos.LookupProduct(ctx, "7790001")
	require.NoError(t, err)
	assert.Equal(t, p.ID, found.ID, "barcode hits ignore stock")

	_, err = reg.pos.LookupProduct(ctx, "batteries")
	assert.ErrorIs(t, err, ErrNotFound, "fuzzy matches need stock")
}
