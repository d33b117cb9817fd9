package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jcmexdev/brewery-order-service/internal/order-service/core/apperr"
)

var messages = map[string]string{
	"user_id.required":    "User ID is required",
	"product_id.required": "Product ID is required for each item",
	"quantity.min":        "Quantity must be a positive integer",
	"status.required":     "Invalid status",
	"status.oneof":        "Invalid status",
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decode reads a JSON body into dst and validates it. Every failure comes back
// as an *apperr.ValidationError.
func (h *Handler) decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		msg := "Malformed JSON body"
		if errors.Is(err, io.EOF) {
			msg = "Request body is required"
		}
		return &apperr.ValidationError{Errors: []apperr.FieldError{{Field: "body", Msg: msg}}}
	}
	return toValidationError(h.validate.Struct(dst))
}

func toValidationError(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &apperr.ValidationError{Errors: []apperr.FieldError{{Field: "body", Msg: err.Error()}}}
	}
	out := make([]apperr.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, apperr.FieldError{Field: fieldPath(fe), Msg: fieldMessage(fe)})
	}
	return &apperr.ValidationError{Errors: out}
}

// fieldPath drops the root struct name: "CreateOrderRequest.items[0].quantity"
// becomes "items[0].quantity".
func fieldPath(fe validator.FieldError) string {
	_, path, found := strings.Cut(fe.Namespace(), ".")
	if !found {
		return fe.Field()
	}
	return path
}

func fieldMessage(fe validator.FieldError) string {
	if msg, ok := messages[fe.Field()+"."+fe.Tag()]; ok {
		return msg
	}
	if fe.Tag() == "required" {
		return fmt.Sprintf("%s is required", fe.Field())
	}
	return fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag())
}
