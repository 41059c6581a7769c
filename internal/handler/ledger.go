package handler

import (
	"context"
	"net/http"

	"inventorypro/internal/dto"
	"inventorypro/internal/model"
	"inventorypro/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// LedgerHandler serves the catalog and back-office collections.
type LedgerHandler struct{ svc service.LedgerService }

func NewLedgerHandler(svc service.LedgerService) *LedgerHandler { return &LedgerHandler{svc: svc} }

func list[T any](c *gin.Context, fetch func(context.Context) ([]T, error)) {
	items, err := fetch(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewList(items))
}

// ── Products ──────────────────────────────────────────────────────────────────

// ListProducts godoc
// @Summary Lists the catalog
// @Tags products
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.ListResponse[model.Product]
// @Router /v1/products [get]
func (h *LedgerHandler) ListProducts(c *gin.Context) { list(c, h.svc.ListProducts) }

// ListLowStock godoc
// @Summary Products at or below their minimum stock
// @Tags products
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.ListResponse[model.Product]
// @Router /v1/products/low-stock [get]
func (h *LedgerHandler) ListLowStock(c *gin.Context) { list(c, h.svc.ListLowStock) }

// CreateProduct godoc
// @Summary Adds a product to the catalog
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CreateProductRequest true "Product"
// @Success 201 {object} model.Product
// @Failure 409 {object} apierror.APIError
// @Router /v1/products [post]
func (h *LedgerHandler) CreateProduct(c *gin.Context) {
	var req dto.CreateProductRequest
	if !bindAndValidate(c, &req) {
		return
	}
	p, err := h.svc.CreateProduct(c.Request.Context(), &model.Product{
		Name:     req.Name,
		Category: req.Category,
		Stock:    req.Stock,
		MinStock: req.MinStock,
		Price:    req.Price,
		Cost:     req.Cost,
		Supplier: req.Supplier,
		Barcode:  req.Barcode,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// UpdateProduct godoc
// @Summary Edits catalog fields of a product
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Param body body dto.UpdateProductRequest true "Fields to change"
// @Success 200 {object} model.Product
// @Failure 404 {object} apierror.APIError
// @Router /v1/products/{id} [put]
func (h *LedgerHandler) UpdateProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.UpdateProductRequest
	if !bindAndValidate(c, &req) {
		return
	}
	p, err := h.svc.UpdateProduct(c.Request.Context(), id, service.ProductUpdate{
		Name:     req.Name,
		Category: req.Category,
		Stock:    req.Stock,
		MinStock: req.MinStock,
		Price:    req.Price,
		Cost:     req.Cost,
		Supplier: req.Supplier,
		Barcode:  req.Barcode,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// DeleteProduct godoc
// @Summary Removes a product from the catalog
// @Tags products
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Success 204
// @Failure 404 {object} apierror.APIError
// @Router /v1/products/{id} [delete]
func (h *LedgerHandler) DeleteProduct(c *gin.Context) { h.remove(c, h.svc.DeleteProduct) }

// ── Sales & credits ───────────────────────────────────────────────────────────

// ListSales godoc
// @Summary Lists committed sales
// @Tags sales
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.ListResponse[model.Sale]
// @Router /v1/sales [get]
func (h *LedgerHandler) ListSales(c *gin.Context) { list(c, h.svc.ListSales) }

// ListShiftSales godoc
// @Summary Lists the sales of the open shift
// @Tags shift
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.ListResponse[model.Sale]
// @Failure 409 {object} apierror.APIError
// @Router /v1/shift/sales [get]
func (h *LedgerHandler) ListShiftSales(c *gin.Context) { list(c, h.svc.ListShiftSales) }

// VoidSale godoc
// @Summary Deletes a sale record; stock and shift totals are not touched
// @Tags sales
// @Security BearerAuth
// @Param id path string true "Sale ID"
// @Success 204
// @Failure 404 {object} apierror.APIError
// @Router /v1/sales/{id} [delete]
func (h *LedgerHandler) VoidSale(c *gin.Context) { h.remove(c, h.svc.VoidSale) }

// ListRefunds godoc
// @Summary Lists refunds
// @Tags sales
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.ListResponse[model.Refund]
// @Router /v1/refunds [get]
func (h *LedgerHandler) ListRefunds(c *gin.Context) { list(c, h.svc.ListRefunds) }

// ListCredits godoc
// @Summary Lists customer credits
// @Tags credits
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.ListResponse[model.Credit]
// @Router /v1/credits [get]
func (h *LedgerHandler) ListCredits(c *gin.Context) { list(c, h.svc.ListCredits) }

// AddCreditPayment godoc
// @Summary Records a payment against a credit
// @Tags credits
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Credit ID"
// @Param body body dto.CreditPaymentRequest true "Payment"
// @Success 200 {object} model.Credit
// @Failure 409 {object} apierror.APIError
// @Failure 422 {object} apierror.APIError
// @Router /v1/credits/{id}/payments [post]
func (h *LedgerHandler) AddCreditPayment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.CreditPaymentRequest
	if !bindAndValidate(c, &req) {
		return
	}
	credit, err := h.svc.AddPaymentToCredit(c.Request.Context(), id, req.Amount, model.PaymentMethod(req.Method), req.Note)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, credit)
}

// ── Expenses ──────────────────────────────────────────────────────────────────

// ListExpenses godoc
// @Summary Lists expenses, including register paid-outs
// @Tags expenses
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.ListResponse[model.Expense]
// @Router /v1/expenses [get]
func (h *LedgerHandler) ListExpenses(c *gin.Context) { list(c, h.svc.ListExpenses) }

// CreateExpense godoc
// @Summary Records an expense; books it on the open shift when there is one
// @Tags expenses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.ExpenseRequest true "Expense"
// @Success 201 {object} model.Expense
// @Failure 422 {object} apierror.APIError
// @Router /v1/expenses [post]
func (h *LedgerHandler) CreateExpense(c *gin.Context) {
	var req dto.ExpenseRequest
	if !bindAndValidate(c, &req) {
		return
	}
	e, err := h.svc.AddExpense(c.Request.Context(), &model.Expense{
		Description:   req.Description,
		Category:      req.Category,
		Amount:        req.Amount,
		PaymentMethod: model.PaymentMethod(req.PaymentMethod),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, e)
}

// ── Orders ────────────────────────────────────────────────────────────────────

// ListOrders godoc
// @Summary Lists supplier orders
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.ListResponse[model.Order]
// @Router /v1/orders [get]
func (h *LedgerHandler) ListOrders(c *gin.Context) { list(c, h.svc.ListOrders) }

// CreateOrder godoc
// @Summary Places a supplier order
// @Tags orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CreateOrderRequest true "Order"
// @Success 201 {object} model.Order
// @Failure 404 {object} apierror.APIError
// @Router /v1/orders [post]
func (h *LedgerHandler) CreateOrder(c *gin.Context) {
	var req dto.CreateOrderRequest
	if !bindAndValidate(c, &req) {
		return
	}
	o := &model.Order{Supplier: req.Supplier, Lines: make([]model.OrderLine, 0, len(req.Lines))}
	for _, l := range req.Lines {
		o.Lines = append(o.Lines, model.OrderLine{ProductID: uuid.MustParse(l.ProductID), Quantity: l.Quantity, Cost: l.Cost})
	}
	created, err := h.svc.CreateOrder(c.Request.Context(), o)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// ReceiveOrder godoc
// @Summary Marks an order received and adds its quantities to stock
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Success 200 {object} model.Order
// @Failure 422 {object} apierror.APIError
// @Router /v1/orders/{id}/receive [post]
func (h *LedgerHandler) ReceiveOrder(c *gin.Context) { h.transition(c, h.svc.ReceiveOrder) }

// CancelOrder godoc
// @Summary Cancels a pending order
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Success 200 {object} model.Order
// @Failure 422 {object} apierror.APIError
// @Router /v1/orders/{id}/cancel [post]
func (h *LedgerHandler) CancelOrder(c *gin.Context) { h.transition(c, h.svc.CancelOrder) }

// ── Packs ─────────────────────────────────────────────────────────────────────

// ListPacks godoc
// @Summary Lists packs
// @Tags packs
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.ListResponse[model.Pack]
// @Router /v1/packs [get]
func (h *LedgerHandler) ListPacks(c *gin.Context) { list(c, h.svc.ListPacks) }

// CreatePack godoc
// @Summary Defines a pack of catalog products sold at a flat price
// @Tags packs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CreatePackRequest true "Pack"
// @Success 201 {object} model.Pack
// @Failure 404 {object} apierror.APIError
// @Router /v1/packs [post]
func (h *LedgerHandler) CreatePack(c *gin.Context) {
	var req dto.CreatePackRequest
	if !bindAndValidate(c, &req) {
		return
	}
	p := &model.Pack{Name: req.Name, Barcode: req.Barcode, Price: req.Price, Components: make([]model.PackComponent, 0, len(req.Components))}
	for _, comp := range req.Components {
		p.Components = append(p.Components, model.PackComponent{ProductID: uuid.MustParse(comp.ProductID), Quantity: comp.Quantity})
	}
	created, err := h.svc.CreatePack(c.Request.Context(), p)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// DeletePack godoc
// @Summary Deletes a pack
// @Tags packs
// @Security BearerAuth
// @Param id path string true "Pack ID"
// @Success 204
// @Failure 404 {object} apierror.APIError
// @Router /v1/packs/{id} [delete]
func (h *LedgerHandler) DeletePack(c *gin.Context) { h.remove(c, h.svc.DeletePack) }

// ── Helpers ───────────────────────────────────────────────────────────────────

func (h *LedgerHandler) remove(c *gin.Context, del func(context.Context, uuid.UUID) error) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := del(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *LedgerHandler) transition(c *gin.Context, apply func(context.Context, uuid.UUID) (*model.Order, error)) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	o, err := apply(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}
