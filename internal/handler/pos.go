package handler

import (
	"net/http"

	"inventorypro/internal/dto"
	"inventorypro/internal/model"
	"inventorypro/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type POSHandler struct{ svc service.POSService }

func NewPOSHandler(svc service.POSService) *POSHandler { return &POSHandler{svc: svc} }

// Lookup godoc
// @Summary Finds an in-stock product by barcode, id or name
// @Tags pos
// @Produce json
// @Security BearerAuth
// @Param q query string true "Barcode, id or free text"
// @Success 200 {object} model.Product
// @Failure 404 {object} apierror.APIError
// @Router /v1/products/lookup [get]
func (h *POSHandler) Lookup(c *gin.Context) {
	var q dto.LookupQuery
	if !bindQuery(c, &q) {
		return
	}
	p, err := h.svc.LookupProduct(c.Request.Context(), q.Q)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// CreateSale godoc
// @Summary Commits a cart as a sale on the open shift
// @Tags pos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CreateSaleRequest true "Cart and payment"
// @Success 201 {object} model.Sale
// @Failure 409 {object} apierror.APIError
// @Failure 422 {object} apierror.APIError
// @Router /v1/sales [post]
func (h *POSHandler) CreateSale(c *gin.Context) {
	var req dto.CreateSaleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	ctx := c.Request.Context()
	cart, err := h.svc.BuildCart(ctx, toCartRequest(req.CartRequest))
	if err != nil {
		writeError(c, err)
		return
	}
	sale, err := h.svc.CommitSale(ctx, cart, model.PaymentMethod(req.PaymentMethod), req.AmountReceived)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sale)
}

// CreateCredit godoc
// @Summary Commits a cart as a customer credit
// @Tags pos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CreateCreditRequest true "Cart and customer"
// @Success 201 {object} model.Credit
// @Failure 409 {object} apierror.APIError
// @Failure 422 {object} apierror.APIError
// @Router /v1/credits [post]
func (h *POSHandler) CreateCredit(c *gin.Context) {
	var req dto.CreateCreditRequest
	if !bindAndValidate(c, &req) {
		return
	}
	ctx := c.Request.Context()
	cart, err := h.svc.BuildCart(ctx, toCartRequest(req.CartRequest))
	if err != nil {
		writeError(c, err)
		return
	}
	credit, err := h.svc.CommitCredit(ctx, cart, req.CustomerName, req.CustomerPhone)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, credit)
}

// Refund godoc
// @Summary Refunds sale lines under an admin authorization
// @Tags pos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Sale ID"
// @Param body body dto.RefundRequest true "Lines to refund"
// @Success 201 {object} model.Refund
// @Failure 401 {object} apierror.APIError
// @Failure 422 {object} apierror.APIError
// @Router /v1/sales/{id}/refund [post]
func (h *POSHandler) Refund(c *gin.Context) {
	saleID, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.RefundRequest
	if !bindAndValidate(c, &req) {
		return
	}
	lines := make([]service.RefundLine, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, service.RefundLine{LineIndex: l.LineIndex, Quantity: l.Quantity})
	}
	refund, err := h.svc.CommitRefund(c.Request.Context(), service.RefundRequest{
		AuthorizationID: uuid.MustParse(req.AuthorizationID),
		SaleID:          saleID,
		Lines:           lines,
		Reason:          req.Reason,
		Method:          model.PaymentMethod(req.Method),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, refund)
}
