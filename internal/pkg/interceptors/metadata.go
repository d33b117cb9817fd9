// Package interceptors carries per-request metadata (request id, idempotency
// key, caller credentials) through a context so that every outbound call made
// on behalf of a request forwards the same values.
package interceptors

import (
	"context"
	"net/http"

	"github.com/jcmexdev/brewery-order-service/internal/pkg/interceptors/constants"
)

type Metadata struct {
	RequestID      string
	IdempotencyKey string
	Authorization  string
}

// WithMetadata stores md in ctx. Empty fields are stored as well so that a
// nested call can not inherit a stale value from an outer context.
func WithMetadata(ctx context.Context, md Metadata) context.Context {
	ctx = context.WithValue(ctx, constants.ContextKeyRequestID, md.RequestID)
	ctx = context.WithValue(ctx, constants.ContextKeyIdempotencyKey, md.IdempotencyKey)
	return context.WithValue(ctx, constants.ContextKeyAuthorization, md.Authorization)
}

func FromContext(ctx context.Context) Metadata {
	// comma-ok: absent keys yield empty strings
	requestID, _ := ctx.Value(constants.ContextKeyRequestID).(string)
	idempKey, _ := ctx.Value(constants.ContextKeyIdempotencyKey).(string)
	auth, _ := ctx.Value(constants.ContextKeyAuthorization).(string)
	return Metadata{RequestID: requestID, IdempotencyKey: idempKey, Authorization: auth}
}

// Inject writes the non-empty fields of md as outbound HTTP headers.
func (md Metadata) Inject(h http.Header) {
	if md.RequestID != "" {
		h.Set(constants.HeaderXRequestId, md.RequestID)
	}
	if md.IdempotencyKey != "" {
		h.Set(constants.HeaderXIdempotencyKey, md.IdempotencyKey)
	}
	if md.Authorization != "" {
		h.Set(constants.HeaderAuthorization, md.Authorization)
	}
}
