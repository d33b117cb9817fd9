package middlewares

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/jcmexdev/brewery-order-service/internal/pkg/interceptors"
	"github.com/jcmexdev/brewery-order-service/internal/pkg/interceptors/constants"
)

// AttachTracingMetadata copies the request id assigned by middleware.RequestID,
// the idempotency key and the caller's Authorization header into the context
// so that every downstream call forwards them.
func AttachTracingMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := interceptors.WithMetadata(r.Context(), interceptors.Metadata{
			RequestID:      middleware.GetReqID(r.Context()),
			IdempotencyKey: r.Header.Get(constants.HeaderXIdempotencyKey),
			Authorization:  r.Header.Get(constants.HeaderAuthorization),
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Trace wraps each request in an otelhttp server span that continues any
// inbound W3C trace. Spans are named "METHOD pattern" after the chi route.
func Trace(opts ...otelhttp.Option) func(http.Handler) http.Handler {
	opts = append([]otelhttp.Option{otelhttp.WithSpanNameFormatter(spanName)}, opts...)
	return func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(nameByRoute(next), "order-service", opts...)
	}
}

func spanName(_ string, r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
		return r.Method + " " + rctx.RoutePattern()
	}
	return r.Method
}

// nameByRoute renames the span once chi has matched the request; the
// pattern is still unknown when otelhttp starts the span.
func nameByRoute(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)

		rctx := chi.RouteContext(r.Context())
		if rctx == nil || rctx.RoutePattern() == "" {
			return
		}
		span := trace.SpanFromContext(r.Context())
		span.SetName(spanName("", r))
		span.SetAttributes(semconv.HTTPRoute(rctx.RoutePattern()))
	})
}
