package apperr

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Op names a use case or trigger; each has its own fallback status and message.
type Op string

const (
	OpCreate   Op = "create"
	OpGet      Op = "get"
	OpUpdate   Op = "update"
	OpCancel   Op = "cancel"
	OpList     Op = "list"
	OpPayment  Op = "payment"
	OpShipping Op = "shipping"
	OpNotify   Op = "notify"
)

type opDefault struct {
	status  int
	message string
}

var defaults = map[Op]opDefault{
	OpCreate:   {http.StatusInternalServerError, "Error creating order"},
	OpGet:      {http.StatusNotFound, "Order not found"},
	OpUpdate:   {http.StatusInternalServerError, "Error updating order status"},
	OpCancel:   {http.StatusNotFound, "Order not found"},
	OpList:     {http.StatusInternalServerError, "Error fetching orders"},
	OpPayment:  {http.StatusInternalServerError, "Error processing payment"},
	OpShipping: {http.StatusInternalServerError, "Error creating shipment"},
	OpNotify:   {http.StatusInternalServerError, "Error sending status notification"},
}

func defaultFor(op Op) opDefault {
	if d, ok := defaults[op]; ok {
		return d
	}
	return opDefault{http.StatusInternalServerError, "Internal server error"}
}

// OutcomeError is the only error representation written to clients.
type OutcomeError struct {
	Status  int             `json:"-"`
	Message string          `json:"message"`
	Detail  string          `json:"error,omitempty"`
	Errors  []FieldError    `json:"errors,omitempty"`
	Order   json.RawMessage `json:"order,omitempty"`
}

func (e *OutcomeError) Error() string {
	if e.Detail != "" {
		return e.Message + ": " + e.Detail
	}
	return e.Message
}

// Translate converts err into the outward shape using the defaults of op.
// Unclassified errors never expose their text.
func Translate(op Op, err error) *OutcomeError {
	if err == nil {
		return nil
	}

	var committed *CommittedError
	if errors.As(err, &committed) {
		out := Translate(committed.Op, committed.Err)
		out.Order = committed.Order
		return out
	}

	def := defaultFor(op)

	var (
		outcome    *OutcomeError
		validation *ValidationError
		authz      *AuthorizationError
		notFound   *NotFoundError
		rule       *BusinessRuleError
		conflict   *ConflictError
		downstream *DownstreamError
		transport  *TransportError
	)
	switch {
	case errors.As(err, &outcome):
		return outcome
	case errors.As(err, &validation):
		return &OutcomeError{
			Status:  http.StatusBadRequest,
			Message: "Invalid request",
			Errors:  validation.Errors,
		}
	case errors.As(err, &authz):
		return &OutcomeError{Status: http.StatusForbidden, Message: "Unauthorized"}
	case errors.As(err, &notFound):
		out := &OutcomeError{Status: http.StatusNotFound, Message: notFound.Error()}
		if errors.As(notFound.Err, &downstream) {
			out.Detail = downstream.Detail()
		}
		return out
	case errors.As(err, &rule):
		return &OutcomeError{Status: http.StatusBadRequest, Message: rule.Message}
	case errors.As(err, &conflict):
		return &OutcomeError{Status: http.StatusConflict, Message: conflict.Message}
	case errors.As(err, &downstream):
		out := &OutcomeError{
			Status:  downstream.Status,
			Message: downstream.Message(),
			Detail:  downstream.Detail(),
		}
		if out.Status < 400 || out.Status > 599 {
			out.Status = def.status
		}
		if out.Message == "" {
			out.Message = def.message
		}
		return out
	case errors.As(err, &transport):
		return &OutcomeError{Status: def.status, Message: def.message, Detail: transport.Reason}
	default:
		return &OutcomeError{Status: def.status, Message: def.message}
	}
}
