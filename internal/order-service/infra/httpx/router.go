package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jcmexdev/brewery-order-service/internal/order-service/infra/httpx/middlewares"
)

type RouterOptions struct {
	JWTSecret string
	// Metrics is mounted on /metrics when set.
	Metrics http.Handler
}

func NewRouter(handler *Handler, opts RouterOptions) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middlewares.Trace())
	r.Use(middlewares.AttachTracingMetadata)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthcheck", handler.Healthcheck)
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	r.Route("/order", func(r chi.Router) {
		r.Use(middlewares.Authenticate(opts.JWTSecret))

		r.Post("/create", handler.CreateOrder)
		r.Get("/{id}", handler.GetOrder)
		r.Put("/{id}/status", handler.UpdateOrderStatus)
		r.Delete("/orders/{id}", handler.CancelOrder)
		r.Get("/user/{user_id}", handler.ListOrdersByUser)
	})
	return r
}
