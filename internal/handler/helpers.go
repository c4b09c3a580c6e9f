package handler

import (
	"errors"
	"net/http"
	"reflect"
	"strconv"

	"restopos/internal/apierror"
	"restopos/internal/dto"
	"restopos/internal/middleware"
	"restopos/internal/model"
	"restopos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
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

	// cents runs after the custom type func above, so the field is a float64.
	// Its shortest decimal form tells how many places the client sent.
	_ = validate.RegisterValidation("cents", func(fl validator.FieldLevel) bool {
		return decimal.NewFromFloat(fl.Field().Float()).Exponent() >= -2
	})
	_ = validate.RegisterValidation("order_statuses", func(fl validator.FieldLevel) bool {
		for _, st := range dto.SplitList(fl.Field().String()) {
			if st != model.OrderOpen && st != model.OrderSettled {
				return false
			}
		}
		return true
	})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails;
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(apierror.CodeBadRequest, "JSON invalido: "+err.Error()))
		return false
	}
	return validateStruct(c, req)
}

// bindQuery is bindAndValidate for query strings.
func bindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(apierror.CodeBadRequest, "Parametros invalidos: "+err.Error()))
		return false
	}
	return validateStruct(c, req)
}

func validateStruct(c *gin.Context, req interface{}) bool {
	err := validate.Struct(req)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		c.JSON(http.StatusBadRequest, apierror.New(apierror.CodeBadRequest, err.Error()))
		return false
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Namespace()] = fe.Tag()
	}
	c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
	return false
}

// uintParam parses a positive numeric path parameter, answering 400 otherwise.
func uintParam(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		c.JSON(http.StatusBadRequest, apierror.New(apierror.CodeBadRequest, name+" invalido"))
		return 0, false
	}
	return uint(v), true
}

var statusByCode = map[string]int{
	service.CodeInvalidPayment:     http.StatusBadRequest,
	service.CodePaymentMismatch:    http.StatusBadRequest,
	service.CodeNoPendingItems:     http.StatusBadRequest,
	service.CodeTableMismatch:      http.StatusBadRequest,
	service.CodeOrderNotFound:      http.StatusNotFound,
	service.CodeLineNotFound:       http.StatusNotFound,
	service.CodeInvoiceNotFound:    http.StatusNotFound,
	service.CodeTableNotFound:      http.StatusNotFound,
	service.CodePersistenceFailure: http.StatusInternalServerError,
}

// respondError maps service errors onto the API envelope. Anything that is
// not a DomainError is handed to the ErrorHandler middleware as a 500.
func respondError(c *gin.Context, err error) {
	var de *service.DomainError
	if !errors.As(err, &de) {
		_ = c.Error(err)
		return
	}
	status, ok := statusByCode[de.Code]
	if !ok {
		status = http.StatusBadRequest
	}
	if status >= http.StatusInternalServerError {
		log.Error().
			Str("request_id", c.GetString(middleware.RequestIDKey)).
			Str("code", de.Code).
			Err(de.Cause).
			Msg("request failed")
	}
	c.JSON(status, apierror.WithFields(de.Code, de.Message, de.Fields))
}
