package handler

import (
	"errors"
	"net/http"
	"reflect"

	"inventorypro/internal/apierror"
	"inventorypro/internal/dto"
	"inventorypro/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails;
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid JSON: "+err.Error()))
		return false
	}
	return validateRequest(c, req)
}

// bindQuery is bindAndValidate for query-string filters.
func bindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid query: "+err.Error()))
		return false
	}
	return validateRequest(c, req)
}

func validateRequest(c *gin.Context, req interface{}) bool {
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
			return false
		}
		fields := make(map[string]string)
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// pathID parses the :id route parameter, writing a 400 when it is malformed.
func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return uuid.Nil, false
	}
	return id, true
}

// writeError maps service errors onto HTTP statuses. Anything unrecognised is
// handed to the ErrorHandler middleware, which logs it and answers 500.
func writeError(c *gin.Context, err error) {
	var authErr *service.AuthError
	switch {
	case errors.As(err, &authErr):
		status := http.StatusUnauthorized
		if authErr.Reason == service.AuthReasonInsufficientRole || authErr.Reason == service.AuthReasonNotGranted {
			status = http.StatusForbidden
		}
		c.JSON(status, apierror.WithReason(err.Error(), authErr.Reason))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
	case errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrConflict),
		errors.Is(err, service.ErrNoActiveShift),
		errors.Is(err, service.ErrShiftAlreadyOpen),
		errors.Is(err, service.ErrShiftClosing):
		c.JSON(http.StatusConflict, apierror.New(err.Error()))
	case errors.Is(err, service.ErrInsufficientPayment),
		errors.Is(err, service.ErrJustificationRequired),
		errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusUnprocessableEntity, apierror.New(err.Error()))
	default:
		_ = c.Error(err)
	}
}

// toCartRequest converts the wire cart; ids were already checked by the
// uuid validator tag.
func toCartRequest(req dto.CartRequest) service.CartRequest {
	out := service.CartRequest{
		Items:           make([]service.CartItem, 0, len(req.Items)),
		DiscountPercent: req.DiscountPercent,
		CustomTotal:     req.CustomTotal,
	}
	for _, it := range req.Items {
		item := service.CartItem{Code: it.Code, Quantity: it.Quantity}
		if id, err := uuid.Parse(it.ProductID); err == nil {
			item.ProductID = &id
		}
		if id, err := uuid.Parse(it.PackID); err == nil {
			item.PackID = &id
		}
		out.Items = append(out.Items, item)
	}
	return out
}
