package httpx

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/jcmexdev/brewery-order-service/internal/order-service/app"
	"github.com/jcmexdev/brewery-order-service/internal/order-service/core/apperr"
	"github.com/jcmexdev/brewery-order-service/internal/order-service/core/domain"
	"github.com/jcmexdev/brewery-order-service/internal/order-service/infra/httpx/middlewares"
	"github.com/jcmexdev/brewery-order-service/internal/pkg/interceptors"
)

const HeaderIdempotentReplay = "Idempotent-Replayed"

// OrderService is the set of use cases the HTTP layer exposes.
type OrderService interface {
	CreateOrder(ctx context.Context, actor *domain.AuthContext, req app.CreateOrderRequest) (*app.CreateOrderResult, error)
	GetOrder(ctx context.Context, actor *domain.AuthContext, id domain.ID) (domain.OrderRecord, error)
	UpdateOrderStatus(ctx context.Context, actor *domain.AuthContext, id domain.ID, status domain.Status) (*app.UpdateStatusResult, error)
	CancelOrder(ctx context.Context, actor *domain.AuthContext, id domain.ID) (domain.OrderRecord, error)
	ListOrdersByUser(ctx context.Context, actor *domain.AuthContext, userID domain.ID, status domain.Status) ([]domain.OrderRecord, error)
}

// Handler maps the order routes onto the OrderService and is the only place
// where errors are turned into responses.
type Handler struct {
	orders   OrderService
	validate *validator.Validate
	logger   *slog.Logger
}

func NewHandler(orders OrderService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		orders:   orders,
		validate: newValidator(),
		logger:   logger,
	}
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, r, apperr.OpCreate, err)
		return
	}

	res, err := h.orders.CreateOrder(r.Context(), middlewares.ActorFromContext(r.Context()), app.CreateOrderRequest{
		UserID:          req.UserID,
		ShippingAddress: req.ShippingAddress.toDomain(),
		IdempotencyKey:  interceptors.FromContext(r.Context()).IdempotencyKey,
	})
	if err != nil {
		h.writeError(w, r, apperr.OpCreate, err)
		return
	}
	if res.Replayed {
		w.Header().Set(HeaderIdempotentReplay, "true")
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id := domain.ID(chi.URLParam(r, "id"))
	order, err := h.orders.GetOrder(r.Context(), middlewares.ActorFromContext(r.Context()), id)
	if err != nil {
		h.writeError(w, r, apperr.OpGet, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, r, apperr.OpUpdate, err)
		return
	}

	id := domain.ID(chi.URLParam(r, "id"))
	res, err := h.orders.UpdateOrderStatus(r.Context(), middlewares.ActorFromContext(r.Context()), id, req.Status)
	if err != nil {
		h.writeError(w, r, apperr.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	id := domain.ID(chi.URLParam(r, "id"))
	order, err := h.orders.CancelOrder(r.Context(), middlewares.ActorFromContext(r.Context()), id)
	if err != nil {
		h.writeError(w, r, apperr.OpCancel, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *Handler) ListOrdersByUser(w http.ResponseWriter, r *http.Request) {
	userID := domain.ID(chi.URLParam(r, "user_id"))
	status := domain.Status(r.URL.Query().Get("status"))

	orders, err := h.orders.ListOrdersByUser(r.Context(), middlewares.ActorFromContext(r.Context()), userID, status)
	if err != nil {
		h.writeError(w, r, apperr.OpList, err)
		return
	}
	if orders == nil {
		orders = []domain.OrderRecord{}
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) Healthcheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("We have Orders working"))
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, op apperr.Op, err error) {
	out := apperr.Translate(op, err)
	if out.Status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed", "op", op, "status", out.Status, "error", err)
	}
	writeJSON(w, out.Status, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
