package validator

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"sort"
	"strings"

	"storefront/internal/usecase"

	"github.com/go-playground/validator/v10"
)

// RequestValidator は echo.Validator の実装。
// エラーは 400 VALIDATION_ERROR の HTTPError にする。
type RequestValidator struct {
	v *validator.Validate
}

func New() *RequestValidator {
	v := validator.New()
	// エラーメッセージはjsonのフィールド名で出す
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return f.Name
		}
		return tag
	})
	return &RequestValidator{v: v}
}

func (rv *RequestValidator) Validate(i any) error {
	err := rv.v.Struct(i)
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return usecase.NewHTTPError(http.StatusBadRequest, "validation failed")
	}

	msgs := make([]string, 0, len(errs))
	for _, fe := range errs {
		msgs = append(msgs, fmt.Sprintf("%s %s", fieldPath(fe), validationMessage(fe)))
	}
	sort.Strings(msgs)
	return usecase.NewHTTPError(http.StatusBadRequest, strings.Join(msgs, "; "))
}

// "CreateOrderRequest.order.cartId" -> "order.cartId"
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min", "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max", "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "email":
		return "must be a valid email"
	}
	return "is invalid"
}
