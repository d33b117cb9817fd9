package brewerystub

import (
	"fmt"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/jcmexdev/brewery-order-service/internal/order-service/core/domain"
)

var transitions = map[domain.Status][]domain.Status{
	domain.StatusPending:    {domain.StatusProcessing, domain.StatusCancelled},
	domain.StatusProcessing: {domain.StatusShipped, domain.StatusCancelled},
	domain.StatusShipped:    {domain.StatusDelivered},
}

func canMove(from, to domain.Status) bool {
	return slices.Contains(transitions[from], to)
}

func (b *Brewery) createOrder(w http.ResponseWriter, r *http.Request) {
	var payload domain.OrderPayload
	if !decode(w, r, &payload) {
		return
	}
	if payload.UserID == "" || len(payload.Items) == 0 {
		writeError(w, http.StatusBadRequest, "UserId and Items are required", "")
		return
	}

	order := &Order{
		ID:              uuid.NewString(),
		UserID:          payload.UserID,
		Items:           payload.Items,
		TotalPrice:      payload.TotalPrice,
		ShippingAddress: payload.ShippingAddress,
		Status:          domain.StatusPending,
		CreatedAt:       b.now().UTC(),
	}

	b.mu.Lock()
	b.orders[order.ID] = order
	b.orderSeq = append(b.orderSeq, order.ID)
	created := *order
	b.mu.Unlock()

	b.logger.InfoContext(r.Context(), "order stored", "order_id", created.ID, "user_id", created.UserID)
	writeJSON(w, http.StatusCreated, created)
}

func (b *Brewery) getOrder(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	order, ok := b.orders[chi.URLParam(r, "id")]
	var found Order
	if ok {
		found = *order
	}
	b.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "Order not found", "")
		return
	}
	writeJSON(w, http.StatusOK, found)
}

type statusUpdate struct {
	Status domain.Status `json:"Status"`
}

func (b *Brewery) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusUpdate
	if !decode(w, r, &req) {
		return
	}
	b.moveTo(w, r, req.Status)
}

func (b *Brewery) cancelOrder(w http.ResponseWriter, r *http.Request) {
	b.moveTo(w, r, domain.StatusCancelled)
}

func (b *Brewery) moveTo(w http.ResponseWriter, r *http.Request, to domain.Status) {
	id := chi.URLParam(r, "id")

	b.mu.Lock()
	order, ok := b.orders[id]
	if !ok {
		b.mu.Unlock()
		writeError(w, http.StatusNotFound, "Order not found", "")
		return
	}
	from := order.Status
	if !canMove(from, to) {
		b.mu.Unlock()
		writeError(w, http.StatusBadRequest, "Invalid status transition",
			fmt.Sprintf("cannot move order from %s to %s", from, to))
		return
	}
	order.Status = to
	updated := *order
	b.mu.Unlock()

	b.logger.InfoContext(r.Context(), "order status changed", "order_id", id, "from", from, "to", to)
	writeJSON(w, http.StatusOK, updated)
}

func (b *Brewery) listOrders(w http.ResponseWriter, r *http.Request) {
	userID := domain.ID(chi.URLParam(r, "userId"))
	status := domain.Status(r.URL.Query().Get("status"))

	out := []Order{}
	for _, o := range b.Orders() {
		if o.UserID != userID {
			continue
		}
		if status != "" && o.Status != status {
			continue
		}
		out = append(out, o)
	}
	writeJSON(w, http.StatusOK, out)
}
