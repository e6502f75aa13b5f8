package orders

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/aristath/bankmirror/internal/domain"
	"github.com/go-playground/validator/v10"
)

// newValidator returns a validator with the order struct rules registered.
// Errors name fields by their json tag.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterStructValidation(orderCreateStructValidation, OrderCreate{})
	return v
}

// orderCreateStructValidation checks the decimal fields the tags cannot reach.
func orderCreateStructValidation(sl validator.StructLevel) {
	req := sl.Current().Interface().(OrderCreate)

	if !req.Quantity.IsPositive() {
		sl.ReportError(req.Quantity, "quantity", "Quantity", "positive", "")
	}
	if req.LimitPrice != nil && !req.LimitPrice.IsPositive() {
		sl.ReportError(req.LimitPrice, "limit_price", "LimitPrice", "positive", "")
	}
	if req.OrderType == "limit" && req.LimitPrice == nil {
		sl.ReportError(req.LimitPrice, "limit_price", "LimitPrice", "required_for_limit", "")
	}
}

// toValidationError flattens validator errors into a domain.ValidationError.
func toValidationError(err error) error {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}

	fields := make([]string, 0, len(ve))
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		fields = append(fields, fe.Field())
		msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return &domain.ValidationError{
		Field:   strings.Join(fields, ","),
		Message: strings.Join(msgs, "; "),
	}
}
