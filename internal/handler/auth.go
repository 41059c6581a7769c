package handler

import (
	"net/http"

	"inventorypro/internal/apierror"
	"inventorypro/internal/dto"
	"inventorypro/internal/middleware"
	"inventorypro/internal/service"

	"github.com/gin-gonic/gin"
)

// AuthHandler serves back-office sessions. Cashier tokens come from
// POST /v1/shift/open instead.
type AuthHandler struct{ svc service.AuthService }

func NewAuthHandler(svc service.AuthService) *AuthHandler { return &AuthHandler{svc: svc} }

// Login godoc
// @Summary Back-office login without opening a shift
// @Tags auth
// @Accept json
// @Produce json
// @Param body body dto.LoginRequest true "Credentials"
// @Success 200 {object} dto.TokenResponse
// @Failure 401 {object} apierror.APIError
// @Failure 429 {object} apierror.APIError
// @Router /v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !bindAndValidate(c, &req) {
		return
	}
	session, err := h.svc.Login(c.Request.Context(), req.Identifier, req.Secret)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokenResponse(session))
}

// Me godoc
// @Summary Describe the caller's token
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.SessionResponse
// @Failure 401 {object} apierror.APIError
// @Router /v1/auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, apierror.New("authentication required"))
		return
	}
	resp := dto.SessionResponse{Name: claims.Username, Role: claims.Role, ShiftID: claims.ShiftID}
	if claims.ExpiresAt != nil {
		resp.ExpiresAt = claims.ExpiresAt.Time
	}
	c.JSON(http.StatusOK, resp)
}
