package handler

import (
	"net/http"

	"inventorypro/internal/apierror"
	"inventorypro/internal/dto"
	"inventorypro/internal/model"
	"inventorypro/internal/service"

	"github.com/gin-gonic/gin"
)

type ShiftHandler struct {
	shifts service.ShiftService
	auth   service.AuthService
}

func NewShiftHandler(shifts service.ShiftService, auth service.AuthService) *ShiftHandler {
	return &ShiftHandler{shifts: shifts, auth: auth}
}

// Open godoc
// @Summary Opens the register shift and returns an access token
// @Tags shift
// @Accept json
// @Produce json
// @Param body body dto.OpenShiftRequest true "Cashier credentials and opening cash"
// @Success 201 {object} dto.OpenShiftResponse
// @Failure 401 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Failure 422 {object} apierror.APIError
// @Router /v1/shift/open [post]
func (h *ShiftHandler) Open(c *gin.Context) {
	var req dto.OpenShiftRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if req.InitialCash == nil {
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(map[string]string{"InitialCash": "required"}))
		return
	}

	creds := service.Credentials{Identifier: req.Identifier, Secret: req.Secret, Role: model.Role(req.Role)}
	shift, err := h.shifts.OpenShift(c.Request.Context(), creds, *req.InitialCash, req.Notes)
	if err != nil {
		writeError(c, err)
		return
	}
	session, err := h.auth.IssueToken(model.User{Name: shift.UserName, Role: shift.UserRole}, shift.ID.String())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.OpenShiftResponse{Shift: shift, Token: tokenResponse(session)})
}

// Notes godoc
// @Summary Notes left by the previous shift for the login screen
// @Tags shift
// @Produce json
// @Success 200 {object} dto.NotesResponse
// @Router /v1/shift/notes [get]
func (h *ShiftHandler) Notes(c *gin.Context) {
	notes, err := h.shifts.LastNotes(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NotesResponse{NotesForNext: notes})
}

// Active godoc
// @Summary Returns the live shift aggregate
// @Tags shift
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.Shift
// @Failure 409 {object} apierror.APIError
// @Router /v1/shift/active [get]
func (h *ShiftHandler) Active(c *gin.Context) {
	shift, err := h.shifts.Active(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, shift)
}

// Expected godoc
// @Summary Breakdown of the cash the drawer should hold
// @Tags shift
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.ExpectedCashResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/shift/expected [get]
func (h *ShiftHandler) Expected(c *gin.Context) {
	shift, err := h.shifts.Active(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ExpectedCashResponse{
		ShiftID:      shift.ID.String(),
		InitialCash:  shift.InitialCash,
		CashSales:    shift.CashSales,
		CashPayments: shift.CashPayments,
		PaidIn:       shift.TotalPaidIn(),
		CashExpenses: shift.CashExpenses,
		PaidOut:      shift.TotalPaidOut(),
		ExpectedCash: service.ComputeExpectedCash(shift),
	})
}

// Close godoc
// @Summary Blind count: reconciles the drawer and closes the shift
// @Tags shift
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CloseShiftRequest true "Counted cash"
// @Success 200 {object} model.ShiftClose
// @Failure 409 {object} apierror.APIError
// @Failure 422 {object} apierror.APIError
// @Router /v1/shift/close [post]
func (h *ShiftHandler) Close(c *gin.Context) {
	var req dto.CloseShiftRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if req.RealCash == nil {
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(map[string]string{"RealCash": "required"}))
		return
	}
	closed, err := h.shifts.CloseShift(c.Request.Context(), *req.RealCash, req.Justification, req.NotesForNext)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, closed)
}

// History godoc
// @Summary Lists closed shifts, newest first
// @Tags shift
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} dto.HistoryResponse
// @Router /v1/shift/history [get]
func (h *ShiftHandler) History(c *gin.Context) {
	var filter dto.HistoryFilter
	if !bindQuery(c, &filter) {
		return
	}
	closes, total, err := h.shifts.History(c.Request.Context(), filter.Page, filter.Limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.HistoryResponse{Data: closes, Total: total, Page: filter.Page, Limit: filter.Limit})
}

func tokenResponse(s *service.Session) dto.TokenResponse {
	return dto.TokenResponse{
		AccessToken: s.AccessToken,
		TokenType:   "bearer",
		ExpiresIn:   s.ExpiresIn,
		User:        dto.UserResponse{Name: s.User.Name, Role: string(s.User.Role)},
	}
}
