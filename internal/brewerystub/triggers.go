package brewerystub

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jcmexdev/brewery-order-service/internal/order-service/core/domain"
)

type paymentRequest struct {
	OrderID domain.ID       `json:"OrderId"`
	Amount  decimal.Decimal `json:"Amount"`
}

// processPayment declines amounts over the payment limit with 402.
func (b *Brewery) processPayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if !decode(w, r, &req) {
		return
	}

	b.mu.Lock()
	limit := b.paymentLimit
	b.mu.Unlock()

	if req.Amount.GreaterThan(limit) {
		b.logger.InfoContext(r.Context(), "payment declined", "order_id", req.OrderID, "amount", req.Amount.String())
		writeError(w, http.StatusPaymentRequired, "Payment declined", "Amount exceeds limit")
		return
	}

	p := Payment{ID: uuid.NewString(), OrderID: req.OrderID, Amount: req.Amount, Status: "Approved"}
	b.mu.Lock()
	b.payments = append(b.payments, p)
	b.mu.Unlock()

	b.logger.InfoContext(r.Context(), "payment approved", "order_id", req.OrderID, "amount", req.Amount.String())
	writeJSON(w, http.StatusCreated, p)
}

func (b *Brewery) createShipment(w http.ResponseWriter, r *http.Request) {
	var s Shipment
	if !decode(w, r, &s) {
		return
	}
	s.ID = uuid.NewString()
	s.Status = "Created"

	b.mu.Lock()
	b.shipments = append(b.shipments, s)
	b.mu.Unlock()

	writeJSON(w, http.StatusCreated, s)
}

func (b *Brewery) notifyStatus(w http.ResponseWriter, r *http.Request) {
	var n Notification
	if !decode(w, r, &n) {
		return
	}

	b.mu.Lock()
	b.notifications = append(b.notifications, n)
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"message": "Notification sent"})
}
