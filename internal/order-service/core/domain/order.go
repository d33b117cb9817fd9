package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrEmptyOrder is returned when an order payload would carry no items.
var ErrEmptyOrder = errors.New("order must have at least one item")

type Status string

const (
	StatusPending    Status = "Pending"
	StatusProcessing Status = "Processing"
	StatusShipped    Status = "Shipped"
	StatusDelivered  Status = "Delivered"
	StatusCancelled  Status = "Cancelled"
)

// Updatable reports whether s may be requested through a status update.
// Cancellation has its own operation.
func (s Status) Updatable() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered:
		return true
	}
	return false
}

// Known reports whether s is any lifecycle status, including Cancelled.
func (s Status) Known() bool {
	return s.Updatable() || s == StatusCancelled
}

type ShippingAddress struct {
	Street     string `json:"street,omitempty"`
	City       string `json:"city,omitempty"`
	Province   string `json:"province,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
}

// EnrichedOrderItem is a cart line joined with its inventory snapshot.
// PriceAtOrder is fixed when the item is built.
type EnrichedOrderItem struct {
	ProductID    ID              `json:"ProductId"`
	Quantity     int             `json:"Quantity"`
	ProductName  string          `json:"ProductName"`
	PriceAtOrder decimal.Decimal `json:"PriceAtOrder"`
}

func (i EnrichedOrderItem) Subtotal() decimal.Decimal {
	return i.PriceAtOrder.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// InsufficientStockError reports a snapshot that cannot cover the requested quantity.
type InsufficientStockError struct {
	ProductID ID
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Insufficient stock for product %s", e.ProductID)
}

// Enrich joins a cart line with its snapshot. It refuses to build an item the
// snapshot cannot cover.
func Enrich(item CartItem, snap InventorySnapshot) (EnrichedOrderItem, error) {
	if snap.StockQuantity < item.Quantity {
		return EnrichedOrderItem{}, &InsufficientStockError{
			ProductID: item.InventoryID,
			Requested: item.Quantity,
			Available: snap.StockQuantity,
		}
	}
	return EnrichedOrderItem{
		ProductID:    item.InventoryID,
		Quantity:     item.Quantity,
		ProductName:  snap.Name,
		PriceAtOrder: snap.UnitPrice,
	}, nil
}

// OrderPayload is the body sent to the order store.
type OrderPayload struct {
	UserID          ID                  `json:"UserId"`
	Items           []EnrichedOrderItem `json:"Items"`
	TotalPrice      decimal.Decimal     `json:"TotalPrice"`
	ShippingAddress *ShippingAddress    `json:"ShippingAddress,omitempty"`
}

func NewOrderPayload(userID ID, items []EnrichedOrderItem, addr *ShippingAddress) (OrderPayload, error) {
	if len(items) == 0 {
		return OrderPayload{}, ErrEmptyOrder
	}
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return OrderPayload{
		UserID:          userID,
		Items:           append([]EnrichedOrderItem(nil), items...),
		TotalPrice:      total,
		ShippingAddress: addr,
	}, nil
}

// OrderRecord is the order store's representation of an order. Only the id,
// owner and status are interpreted; the body is passed through untouched.
type OrderRecord struct {
	ID     ID
	UserID ID
	Status Status

	raw json.RawMessage
}

// Field aliases in order of precedence, matched case-insensitively.
var (
	idAliases    = []string{"id", "_id"}
	ownerAliases = []string{"userid", "user_id", "user"}
)

func (r *OrderRecord) UnmarshalJSON(b []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return fmt.Errorf("decode order record: %w", err)
	}
	// Keys differing only by case resolve to the lexically first spelling.
	lower := make(map[string]json.RawMessage, len(fields))
	for _, key := range slices.Sorted(maps.Keys(fields)) {
		k := strings.ToLower(key)
		if _, seen := lower[k]; !seen {
			lower[k] = fields[key]
		}
	}

	r.ID = firstID(lower, idAliases)
	r.UserID = firstID(lower, ownerAliases)
	var s string
	if json.Unmarshal(lower["status"], &s) == nil {
		r.Status = Status(s)
	}
	r.raw = append(json.RawMessage(nil), b...)
	return nil
}

// firstID returns the first alias that decodes to a non-empty ID.
func firstID(fields map[string]json.RawMessage, aliases []string) ID {
	for _, alias := range aliases {
		raw, ok := fields[alias]
		if !ok {
			continue
		}
		var id ID
		if json.Unmarshal(raw, &id) == nil && id != "" {
			return id
		}
	}
	return ""
}

func (r OrderRecord) MarshalJSON() ([]byte, error) {
	if len(r.raw) > 0 {
		return r.raw, nil
	}
	return json.Marshal(struct {
		ID     ID     `json:"id"`
		UserID ID     `json:"UserId"`
		Status Status `json:"Status,omitempty"`
	}{r.ID, r.UserID, r.Status})
}

// PaymentRecord is the payment service's response body, passed through verbatim.
type PaymentRecord = json.RawMessage
