package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"inventorypro/internal/model"
	"inventorypro/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// CreditTerm is the default time a customer has to settle a credit.
const CreditTerm = 30 * 24 * time.Hour

// CartItem references one catalog entry to put in a cart. Exactly one of
// ProductID, PackID or Code is set; Code goes through LookupProduct.
type CartItem struct {
	ProductID *uuid.UUID
	PackID    *uuid.UUID
	Code      string
	Quantity  int
}

// CartRequest describes a cart to assemble against the current catalog.
type CartRequest struct {
	Items           []CartItem
	DiscountPercent *decimal.Decimal
	CustomTotal     *decimal.Decimal
}

// RefundLine selects Quantity units of the sale line at LineIndex.
type RefundLine struct {
	LineIndex int
	Quantity  int
}

type RefundRequest struct {
	AuthorizationID uuid.UUID
	SaleID          uuid.UUID
	Lines           []RefundLine
	Reason          string
	// Method defaults to the sale's payment method.
	Method model.PaymentMethod
}

type POSService interface {
	LookupProduct(ctx context.Context, query string) (*model.Product, error)
	BuildCart(ctx context.Context, req CartRequest) (*Cart, error)
	CommitSale(ctx context.Context, cart *Cart, method model.PaymentMethod, amountReceived decimal.Decimal) (*model.Sale, error)
	CommitCredit(ctx context.Context, cart *Cart, customerName, customerPhone string) (*model.Credit, error)
	CommitRefund(ctx context.Context, req RefundRequest) (*model.Refund, error)
}

type posService struct {
	products repository.ProductRepository
	packs    repository.PackRepository
	sales    repository.SaleRepository
	credits  repository.CreditRepository
	refunds  repository.RefundRepository
	shifts   ShiftService
	auth     Authorizer
	matcher  Matcher
	now      func() time.Time
}

func NewPOSService(
	products repository.ProductRepository,
	packs repository.PackRepository,
	sales repository.SaleRepository,
	credits repository.CreditRepository,
	refunds repository.RefundRepository,
	shifts ShiftService,
	auth Authorizer,
) POSService {
	return &posService{
		products: products,
		packs:    packs,
		sales:    sales,
		credits:  credits,
		refunds:  refunds,
		shifts:   shifts,
		auth:     auth,
		matcher:  TokenMatcher{},
		now:      time.Now,
	}
}

// ── Lookup & cart assembly ────────────────────────────────────────────────────

func (s *posService) LookupProduct(ctx context.Context, query string) (*model.Product, error) {
	// Scanned barcodes skip the catalog scan.
	p, err := s.products.FindByBarcode(ctx, query)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	catalog, err := s.products.List(ctx)
	if err != nil {
		return nil, err
	}
	p, err = LookupProductWith(s.matcher, query, catalog)
	if err != nil {
		return nil, fmt.Errorf("product %q: %w", query, err)
	}
	return p, nil
}

func (s *posService) BuildCart(ctx context.Context, req CartRequest) (*Cart, error) {
	catalog, err := s.products.List(ctx)
	if err != nil {
		return nil, err
	}

	cart := NewCart()
	for _, item := range req.Items {
		qty := item.Quantity
		if qty == 0 {
			qty = 1
		}
		switch {
		case item.PackID != nil:
			pack, err := s.packs.FindByID(ctx, *item.PackID)
			if err != nil {
				return nil, fmt.Errorf("pack %s: %w", *item.PackID, err)
			}
			if qty < 1 {
				return nil, ErrInvalidQuantity
			}
			for i := 0; i < qty; i++ {
				if err := cart.AddPackLine(*pack, catalog); err != nil {
					return nil, err
				}
			}
		case item.ProductID != nil:
			p, err := s.products.FindByID(ctx, *item.ProductID)
			if err != nil {
				return nil, fmt.Errorf("product %s: %w", *item.ProductID, err)
			}
			if err := cart.AddLine(*p, qty); err != nil {
				return nil, err
			}
		default:
			p, err := LookupProductWith(s.matcher, item.Code, catalog)
			if err != nil {
				return nil, fmt.Errorf("product %q: %w", item.Code, err)
			}
			if err := cart.AddLine(*p, qty); err != nil {
				return nil, err
			}
		}
	}

	if req.DiscountPercent != nil {
		if err := cart.SetDiscount(*req.DiscountPercent); err != nil {
			return nil, err
		}
	}
	if req.CustomTotal != nil {
		if err := cart.SetCustomTotal(*req.CustomTotal); err != nil {
			return nil, err
		}
	}
	return cart, nil
}

// ── CommitSale ────────────────────────────────────────────────────────────────
// The whole commit runs inside ShiftService.Do:
//   1. DecrementStock validates every line and pack component, then writes
//   2. persist the sale (stock is put back if that fails)
//   3. return the shift delta; it is applied only if 1 and 2 succeeded

func (s *posService) CommitSale(ctx context.Context, cart *Cart, method model.PaymentMethod, amountReceived decimal.Decimal) (*model.Sale, error) {
	if cart == nil || cart.IsEmpty() {
		return nil, ErrEmptyCart
	}
	if method == "" {
		return nil, ErrMissingPaymentMethod
	}
	if !method.IsSaleMethod() {
		return nil, fmt.Errorf("%w: unsupported payment method %q", ErrValidation, method)
	}

	total := cart.Total()
	change := decimal.Zero
	if method == model.PaymentCash {
		if amountReceived.LessThan(total) {
			return nil, fmt.Errorf("received %s, total %s: %w",
				amountReceived.StringFixed(2), total.StringFixed(2), ErrInsufficientPayment)
		}
		change = amountReceived.Sub(total)
	} else {
		amountReceived = total
	}

	var sale *model.Sale
	_, err := s.shifts.Do(ctx, func(current *model.Shift) (ShiftDelta, error) {
		demand := cart.StockDemand()
		if err := s.products.DecrementStock(ctx, demand); err != nil {
			return ShiftDelta{}, err
		}

		sale = &model.Sale{
			ID:              uuid.New(),
			Lines:           cloneLines(cart.Lines),
			Subtotal:        cart.Subtotal(),
			Discount:        cart.Discount(),
			DiscountPercent: cart.DiscountPercent,
			Total:           total,
			PaymentMethod:   method,
			AmountReceived:  amountReceived,
			Change:          change,
			ShiftID:         current.ID,
			UserName:        current.UserName,
			CreatedAt:       s.now(),
		}
		if err := s.sales.Create(ctx, sale); err != nil {
			s.restock(ctx, demand)
			return ShiftDelta{}, err
		}

		delta := ShiftDelta{
			TotalSales:    total,
			Transactions:  1,
			ProductsSold:  cart.Units(),
			SalesByMethod: map[model.PaymentMethod]decimal.Decimal{method: total},
		}
		if method == model.PaymentCash {
			delta.CashSales = total
		}
		return delta, nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("sale_id", sale.ID.String()).
		Int("number", sale.Number).
		Str("method", string(method)).
		Str("total", total.StringFixed(2)).
		Msg("sale committed")
	return sale, nil
}

// ── CommitCredit ──────────────────────────────────────────────────────────────

func (s *posService) CommitCredit(ctx context.Context, cart *Cart, customerName, customerPhone string) (*model.Credit, error) {
	customerName = strings.TrimSpace(customerName)
	customerPhone = strings.TrimSpace(customerPhone)
	if customerName == "" || customerPhone == "" {
		return nil, ErrMissingCustomerInfo
	}
	if cart == nil || cart.IsEmpty() {
		return nil, ErrEmptyCart
	}

	total := cart.Total()
	var credit *model.Credit
	_, err := s.shifts.Do(ctx, func(current *model.Shift) (ShiftDelta, error) {
		demand := cart.StockDemand()
		if err := s.products.DecrementStock(ctx, demand); err != nil {
			return ShiftDelta{}, err
		}

		now := s.now()
		credit = &model.Credit{
			ID:            uuid.New(),
			CustomerName:  customerName,
			CustomerPhone: customerPhone,
			Lines:         cloneLines(cart.Lines),
			Subtotal:      cart.Subtotal(),
			Discount:      cart.Discount(),
			Total:         total,
			AmountPaid:    decimal.Zero,
			AmountDue:     total,
			Status:        model.CreditPending,
			DueDate:       now.Add(CreditTerm),
			Payments:      []model.CreditPayment{},
			ShiftID:       current.ID,
			CreatedAt:     now,
		}
		if err := s.credits.Create(ctx, credit); err != nil {
			s.restock(ctx, demand)
			return ShiftDelta{}, err
		}
		return ShiftDelta{
			CreditsCreated: 1,
			SalesByMethod:  map[model.PaymentMethod]decimal.Decimal{model.PaymentCredit: total},
		}, nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("credit_id", credit.ID.String()).
		Str("customer", customerName).
		Str("total", total.StringFixed(2)).
		Msg("credit committed")
	return credit, nil
}

// ── CommitRefund ──────────────────────────────────────────────────────────────
// Refunds restore stock and are appended to the shift. The original sale's
// contribution to the shift totals is never reversed.

func (s *posService) CommitRefund(ctx context.Context, req RefundRequest) (*model.Refund, error) {
	if len(req.Lines) == 0 {
		return nil, ErrNoRefundLines
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, ErrMissingReason
	}

	sale, err := s.sales.FindByID(ctx, req.SaleID)
	if err != nil {
		return nil, fmt.Errorf("sale %s: %w", req.SaleID, err)
	}
	method := req.Method
	if method == "" {
		method = sale.PaymentMethod
	}
	if !method.IsSaleMethod() {
		return nil, fmt.Errorf("%w: unsupported refund method %q", ErrValidation, method)
	}
	if _, err := s.refundableLines(ctx, sale, req.Lines); err != nil {
		return nil, err
	}

	// The authorization is used up last, once everything else in the commit
	// has succeeded; any earlier failure leaves it granted.
	var refund *model.Refund
	_, err = s.shifts.Do(ctx, func(*model.Shift) (ShiftDelta, error) {
		// Re-checked under the shift lock so concurrent refunds cannot exceed
		// the sold quantity.
		lines, err := s.refundableLines(ctx, sale, req.Lines)
		if err != nil {
			return ShiftDelta{}, err
		}
		admin, err := s.auth.Check(ctx, req.AuthorizationID, ActionRefund)
		if err != nil {
			return ShiftDelta{}, err
		}

		restock := make([]model.LineItem, 0, len(lines))
		total := decimal.Zero
		for _, rl := range lines {
			total = total.Add(rl.Subtotal)
			src := sale.Lines[rl.LineIndex]
			src.Quantity = rl.Quantity
			restock = append(restock, src)
		}
		demand, err := s.inCatalog(ctx, lineDemand(restock, func(l model.LineItem) int { return l.Quantity }))
		if err != nil {
			return ShiftDelta{}, err
		}
		if err := s.products.IncrementStock(ctx, demand); err != nil {
			return ShiftDelta{}, err
		}

		refund = &model.Refund{
			ID:           uuid.New(),
			SaleID:       sale.ID,
			Lines:        lines,
			Total:        total,
			Reason:       reason,
			Method:       method,
			AuthorizedBy: admin,
			CreatedAt:    s.now(),
		}
		if err := s.refunds.Create(ctx, refund); err != nil {
			s.unstock(ctx, demand)
			return ShiftDelta{}, err
		}
		if _, err := s.auth.Consume(ctx, req.AuthorizationID, ActionRefund); err != nil {
			if derr := s.refunds.Delete(ctx, refund.ID); derr != nil {
				log.Error().Err(derr).Str("refund_id", refund.ID.String()).Msg("failed to drop refund after lost authorization")
			}
			s.unstock(ctx, demand)
			return ShiftDelta{}, err
		}
		return ShiftDelta{Refunds: []model.Refund{*refund}}, nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("refund_id", refund.ID.String()).
		Str("sale_id", sale.ID.String()).
		Str("total", refund.Total.StringFixed(2)).
		Str("admin", refund.AuthorizedBy).
		Msg("refund committed")
	return refund, nil
}

// refundableLines validates the selection against what is left to refund on
// each sale line and returns the priced refund lines.
func (s *posService) refundableLines(ctx context.Context, sale *model.Sale, selected []RefundLine) ([]model.RefundedLine, error) {
	previous, err := s.refunds.ListBySale(ctx, sale.ID)
	if err != nil {
		return nil, err
	}
	returned := make(map[int]int)
	for _, rf := range previous {
		for _, l := range rf.Lines {
			returned[l.LineIndex] += l.Quantity
		}
	}

	requested := make(map[int]int)
	out := make([]model.RefundedLine, 0, len(selected))
	for _, sel := range selected {
		if sel.LineIndex < 0 || sel.LineIndex >= len(sale.Lines) {
			return nil, fmt.Errorf("%w: sale has no line %d", ErrValidation, sel.LineIndex)
		}
		if sel.Quantity < 1 {
			return nil, ErrInvalidQuantity
		}
		line := sale.Lines[sel.LineIndex]
		requested[sel.LineIndex] += sel.Quantity
		if left := line.Quantity - returned[sel.LineIndex]; requested[sel.LineIndex] > left {
			return nil, fmt.Errorf("%w: line %q has %d unit(s) left to refund", ErrValidation, line.Name, left)
		}
		out = append(out, model.RefundedLine{
			LineIndex: sel.LineIndex,
			Name:      line.Name,
			UnitPrice: line.UnitPrice,
			Quantity:  sel.Quantity,
			Subtotal:  line.UnitPrice.Mul(decimal.NewFromInt(int64(sel.Quantity))),
		})
	}
	return out, nil
}

// restock undoes a stock decrement after a failed persist.
func (s *posService) restock(ctx context.Context, demand []repository.StockAdjustment) {
	if err := s.products.IncrementStock(ctx, demand); err != nil {
		log.Error().Err(err).Msg("failed to restore stock after aborted commit")
	}
}

// inCatalog drops adjustments for products deleted since the sale; their
// units cannot be put back on a shelf that no longer exists.
func (s *posService) inCatalog(ctx context.Context, demand []repository.StockAdjustment) ([]repository.StockAdjustment, error) {
	out := demand[:0:0]
	for _, adj := range demand {
		_, err := s.products.FindByID(ctx, adj.ProductID)
		switch {
		case err == nil:
			out = append(out, adj)
		case errors.Is(err, repository.ErrNotFound):
			log.Warn().Str("product_id", adj.ProductID.String()).Msg("refund: product no longer in catalog, not restocked")
		default:
			return nil, err
		}
	}
	return out, nil
}

// unstock takes back units restored by a refund that did not go through.
func (s *posService) unstock(ctx context.Context, demand []repository.StockAdjustment) {
	if err := s.products.DecrementStock(ctx, demand); err != nil {
		log.Error().Err(err).Msg("failed to undo restock after aborted refund")
	}
}

func cloneLines(lines []model.LineItem) []model.LineItem {
	out := make([]model.LineItem, len(lines))
	for i, l := range lines {
		l.Components = append([]model.PackComponent(nil), l.Components...)
		out[i] = l
	}
	return out
}
