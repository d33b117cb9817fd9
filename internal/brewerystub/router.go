package brewerystub

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jcmexdev/brewery-order-service/internal/pkg/interceptors/constants"
)

func NewRouter(b *Brewery) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/cart/{userId}", b.route(b.getCart))
		r.Post("/cart/{userId}", b.route(b.addCartLine))
		r.Delete("/cart/clear/{userId}", b.route(b.clearCart))

		r.Get("/inventory/{id}", b.route(b.getProduct))
		r.Put("/inventory/{id}/stock", b.route(b.adjustStock))

		r.Post("/order", b.route(b.createOrder))
		r.Get("/order/{id}", b.route(b.getOrder))
		r.Put("/order/{id}/status", b.route(b.updateStatus))
		r.Delete("/order/{id}", b.route(b.cancelOrder))
		r.Get("/order/user/{userId}", b.route(b.listOrders))
	})

	r.Post("/payment/process", b.route(b.processPayment))
	r.Post("/shipping/create", b.route(b.createShipment))
	r.Post("/notifications/order-status", b.route(b.notifyStatus))
	return r
}

// route records the call and applies any fault registered for it.
func (b *Brewery) route(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pattern := chi.RouteContext(r.Context()).RoutePattern()

		b.mu.Lock()
		b.calls = append(b.calls, Call{
			Method:         r.Method,
			Pattern:        pattern,
			RequestID:      r.Header.Get(constants.HeaderXRequestId),
			IdempotencyKey: r.Header.Get(constants.HeaderXIdempotencyKey),
			Authorization:  r.Header.Get(constants.HeaderAuthorization),
			Traceparent:    r.Header.Get("traceparent"),
		})
		status, faulty := b.faults[r.Method+" "+pattern]
		b.mu.Unlock()

		if faulty {
			b.logger.WarnContext(r.Context(), "injected fault", "method", r.Method, "pattern", pattern, "status", status)
			writeError(w, status, http.StatusText(status), "injected fault")
			return
		}
		next(w, r)
	}
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg, detail string) {
	writeJSON(w, status, errorBody{Message: msg, Error: detail})
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return false
	}
	return true
}
