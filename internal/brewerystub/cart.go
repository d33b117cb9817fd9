package brewerystub

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jcmexdev/brewery-order-service/internal/order-service/core/domain"
)

func (b *Brewery) getCart(w http.ResponseWriter, r *http.Request) {
	lines := b.Cart(domain.ID(chi.URLParam(r, "userId")))
	if lines == nil {
		lines = []CartLine{}
	}
	writeJSON(w, http.StatusOK, lines)
}

func (b *Brewery) addCartLine(w http.ResponseWriter, r *http.Request) {
	userID := domain.ID(chi.URLParam(r, "userId"))
	var line CartLine
	if !decode(w, r, &line) {
		return
	}
	if line.InventoryID == "" || line.Quantity <= 0 {
		writeError(w, http.StatusBadRequest, "InventoryId and a positive Quantity are required", "")
		return
	}
	b.AddToCart(userID, line.InventoryID, line.Quantity)
	writeJSON(w, http.StatusCreated, b.Cart(userID))
}

func (b *Brewery) clearCart(w http.ResponseWriter, r *http.Request) {
	userID := domain.ID(chi.URLParam(r, "userId"))

	b.mu.Lock()
	delete(b.carts, userID)
	b.mu.Unlock()

	b.logger.InfoContext(r.Context(), "cart cleared", "user_id", userID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Cart cleared"})
}
