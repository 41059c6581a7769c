package handler

import (
	"context"
	"net/http"

	"inventorypro/internal/dto"
	"inventorypro/internal/model"
	"inventorypro/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type GateHandler struct{ svc service.GateService }

func NewGateHandler(svc service.GateService) *GateHandler { return &GateHandler{svc: svc} }

// Request godoc
// @Summary Opens a pending authorization for a gated action
// @Tags authorizations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.AuthorizationRequest true "Action to authorize"
// @Success 201 {object} service.Authorization
// @Failure 422 {object} apierror.APIError
// @Router /v1/authorizations [post]
func (h *GateHandler) Request(c *gin.Context) {
	var req dto.AuthorizationRequest
	if !bindAndValidate(c, &req) {
		return
	}
	auth, err := h.svc.RequestAuthorization(c.Request.Context(), service.AuthAction(req.Action))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, auth)
}

// Verify godoc
// @Summary Grants an authorization with administrator credentials
// @Tags authorizations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Authorization ID"
// @Param body body dto.VerifyAuthorizationRequest true "Administrator credentials"
// @Success 200 {object} service.Authorization
// @Failure 401 {object} apierror.APIError
// @Failure 403 {object} apierror.APIError
// @Router /v1/authorizations/{id}/verify [post]
func (h *GateHandler) Verify(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.VerifyAuthorizationRequest
	if !bindAndValidate(c, &req) {
		return
	}
	auth, err := h.svc.Verify(c.Request.Context(), id, req.Identifier, req.Secret)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, auth)
}

// Cancel godoc
// @Summary Discards a pending or granted authorization
// @Tags authorizations
// @Security BearerAuth
// @Param id path string true "Authorization ID"
// @Success 204
// @Failure 404 {object} apierror.APIError
// @Router /v1/authorizations/{id} [delete]
func (h *GateHandler) Cancel(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.svc.Cancel(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// PaidIn godoc
// @Summary Records cash put into the drawer
// @Tags cash
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CashMovementRequest true "Movement"
// @Success 201 {object} model.CashMovement
// @Failure 401 {object} apierror.APIError
// @Failure 422 {object} apierror.APIError
// @Router /v1/cash/paid-in [post]
func (h *GateHandler) PaidIn(c *gin.Context) {
	h.movement(c, h.svc.PaidIn)
}

// PaidOut godoc
// @Summary Records cash taken out of the drawer
// @Tags cash
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CashMovementRequest true "Movement"
// @Success 201 {object} model.CashMovement
// @Failure 401 {object} apierror.APIError
// @Failure 422 {object} apierror.APIError
// @Router /v1/cash/paid-out [post]
func (h *GateHandler) PaidOut(c *gin.Context) {
	h.movement(c, h.svc.PaidOut)
}

type movementFunc func(ctx context.Context, authID uuid.UUID, amount decimal.Decimal, description, category string) (*model.CashMovement, error)

func (h *GateHandler) movement(c *gin.Context, record movementFunc) {
	var req dto.CashMovementRequest
	if !bindAndValidate(c, &req) {
		return
	}
	m, err := record(c.Request.Context(), uuid.MustParse(req.AuthorizationID), req.Amount, req.Description, req.Category)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}
