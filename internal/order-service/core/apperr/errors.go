// Package apperr holds the error taxonomy of the order service and the single
// translation from those errors into the outward response shape.
package apperr

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	ReasonNetwork = "Network error"
	ReasonTimeout = "Request timed out"
)

type FieldError struct {
	Field string `json:"field"`
	Msg   string `json:"msg"`
}

// ValidationError reports a malformed or incomplete request.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fe.Field+": "+fe.Msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// AuthorizationError means the actor is missing or does not own the resource.
type AuthorizationError struct {
	ActorID string
	OwnerID string
}

func (e *AuthorizationError) Error() string {
	if e.ActorID == "" {
		return "unauthorized: no authenticated actor"
	}
	return fmt.Sprintf("unauthorized: actor %s does not own resource of %s", e.ActorID, e.OwnerID)
}

type NotFoundError struct {
	Resource string
	ID       string
	Err      error
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found"
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// BusinessRuleError is a client-fault failure detected by the orchestrator,
// such as an empty cart or insufficient stock.
type BusinessRuleError struct {
	Message string
	Err     error
}

func (e *BusinessRuleError) Error() string { return e.Message }

func (e *BusinessRuleError) Unwrap() error { return e.Err }

func NewBusinessRule(msg string) *BusinessRuleError {
	return &BusinessRuleError{Message: msg}
}

// ConflictError means another request currently holds the same resource,
// such as an idempotency key whose create has not finished yet.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// DownstreamError is a response from another service carrying an error status.
type DownstreamError struct {
	Service string
	Status  int
	Body    []byte
}

func (e *DownstreamError) Error() string {
	return fmt.Sprintf("%s responded with status %d", e.Service, e.Status)
}

// Message returns the body's "message" field, if it has one.
func (e *DownstreamError) Message() string {
	return e.body().message
}

// Detail returns the body's "error" field, if it has one.
func (e *DownstreamError) Detail() string {
	return e.body().detail
}

type errorBody struct {
	message string
	detail  string
}

// body reads the optional message and error fields. Any other shape,
// including a non-JSON body, yields empty fields.
func (e *DownstreamError) body() errorBody {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(e.Body, &fields); err != nil {
		return errorBody{}
	}
	var out errorBody
	for key, raw := range fields {
		switch strings.ToLower(key) {
		case "message":
			_ = json.Unmarshal(raw, &out.message)
		case "error":
			_ = json.Unmarshal(raw, &out.detail)
		}
	}
	return out
}

// TransportError means no response was received from a downstream service.
type TransportError struct {
	Service string
	Reason  string
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Service, e.Reason, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// CommittedError is a failure that happened after an order was already
// written. The order is kept and reported alongside the failure.
type CommittedError struct {
	Op    Op
	Order json.RawMessage
	Err   error
}

func (e *CommittedError) Error() string {
	return fmt.Sprintf("%s after commit: %v", e.Op, e.Err)
}

func (e *CommittedError) Unwrap() error { return e.Err }
