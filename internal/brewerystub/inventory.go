package brewerystub

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jcmexdev/brewery-order-service/internal/order-service/core/domain"
)

func (b *Brewery) getProduct(w http.ResponseWriter, r *http.Request) {
	id := domain.ID(chi.URLParam(r, "id"))

	b.mu.Lock()
	p, ok := b.products[id]
	var snapshot Product
	if ok {
		snapshot = *p
	}
	b.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "Product not found", "")
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

type stockAdjustment struct {
	Quantity int `json:"Quantity"`
}

// adjustStock applies a signed delta. The check and the write happen under
// one lock, so stock never goes below zero.
func (b *Brewery) adjustStock(w http.ResponseWriter, r *http.Request) {
	id := domain.ID(chi.URLParam(r, "id"))
	var req stockAdjustment
	if !decode(w, r, &req) {
		return
	}

	b.mu.Lock()
	p, ok := b.products[id]
	if !ok {
		b.mu.Unlock()
		writeError(w, http.StatusNotFound, "Product not found", "")
		return
	}
	if p.StockQuantity+req.Quantity < 0 {
		available := p.StockQuantity
		b.mu.Unlock()
		b.logger.InfoContext(r.Context(), "stock decrement refused", "product_id", id, "requested", -req.Quantity, "available", available)
		writeError(w, http.StatusConflict, "Insufficient stock",
			fmt.Sprintf("requested %d, available %d", -req.Quantity, available))
		return
	}
	p.StockQuantity += req.Quantity
	updated := *p
	b.mu.Unlock()

	b.logger.InfoContext(r.Context(), "stock adjusted", "product_id", id, "delta", req.Quantity, "stock", updated.StockQuantity)
	writeJSON(w, http.StatusOK, updated)
}
