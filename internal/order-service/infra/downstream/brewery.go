package downstream

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/jcmexdev/brewery-order-service/internal/order-service/core/apperr"
	"github.com/jcmexdev/brewery-order-service/internal/order-service/core/domain"
)

const (
	serviceCart       = "cart"
	serviceInventory  = "inventory"
	serviceOrderStore = "order-store"
)

func joinURL(base string, segments ...string) string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(base, "/"))
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(s))
	}
	return b.String()
}

// CartGateway reads and clears carts on the brewery API.
type CartGateway struct {
	client  *Client
	baseURL string
}

func NewCartGateway(client *Client, baseURL string) *CartGateway {
	return &CartGateway{client: client, baseURL: baseURL}
}

func (g *CartGateway) FetchCart(ctx context.Context, userID domain.ID) ([]domain.CartItem, error) {
	var items []domain.CartItem
	u := joinURL(g.baseURL, "api", "cart", userID.String())
	if err := g.client.Do(ctx, serviceCart, http.MethodGet, u, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (g *CartGateway) ClearCart(ctx context.Context, userID domain.ID) error {
	u := joinURL(g.baseURL, "api", "cart", "clear", userID.String())
	return g.client.Do(ctx, serviceCart, http.MethodDelete, u, nil, nil)
}

// InventoryGateway reads product snapshots and adjusts stock.
type InventoryGateway struct {
	client  *Client
	baseURL string
}

func NewInventoryGateway(client *Client, baseURL string) *InventoryGateway {
	return &InventoryGateway{client: client, baseURL: baseURL}
}

func (g *InventoryGateway) FetchSnapshot(ctx context.Context, inventoryID domain.ID) (domain.InventorySnapshot, error) {
	var snap domain.InventorySnapshot
	u := joinURL(g.baseURL, "api", "inventory", inventoryID.String())
	if err := g.client.Do(ctx, serviceInventory, http.MethodGet, u, nil, &snap); err != nil {
		return domain.InventorySnapshot{}, err
	}
	if snap.InventoryID == "" {
		snap.InventoryID = inventoryID
	}
	return snap, nil
}

type stockAdjustment struct {
	Quantity int `json:"Quantity"`
}

// DecrementStock asks the inventory service to take quantity out of stock.
// The service rejects the change when stock would become negative.
func (g *InventoryGateway) DecrementStock(ctx context.Context, productID domain.ID, quantity int) error {
	return g.adjust(ctx, productID, -quantity)
}

func (g *InventoryGateway) RestockItem(ctx context.Context, productID domain.ID, quantity int) error {
	return g.adjust(ctx, productID, quantity)
}

func (g *InventoryGateway) adjust(ctx context.Context, productID domain.ID, delta int) error {
	u := joinURL(g.baseURL, "api", "inventory", productID.String(), "stock")
	return g.client.Do(ctx, serviceInventory, http.MethodPut, u, stockAdjustment{Quantity: delta}, nil)
}

// OrderStoreGateway is a thin pass-through to the order store.
type OrderStoreGateway struct {
	client  *Client
	baseURL string
}

func NewOrderStoreGateway(client *Client, baseURL string) *OrderStoreGateway {
	return &OrderStoreGateway{client: client, baseURL: baseURL}
}

func (g *OrderStoreGateway) CreateOrder(ctx context.Context, payload domain.OrderPayload) (domain.OrderRecord, error) {
	var rec domain.OrderRecord
	u := joinURL(g.baseURL, "api", "order")
	if err := g.client.Do(ctx, serviceOrderStore, http.MethodPost, u, payload, &rec); err != nil {
		return domain.OrderRecord{}, err
	}
	return rec, nil
}

func (g *OrderStoreGateway) GetOrder(ctx context.Context, id domain.ID) (domain.OrderRecord, error) {
	var rec domain.OrderRecord
	u := joinURL(g.baseURL, "api", "order", id.String())
	if err := g.client.Do(ctx, serviceOrderStore, http.MethodGet, u, nil, &rec); err != nil {
		return domain.OrderRecord{}, notFound(id, err)
	}
	return rec, nil
}

type statusUpdate struct {
	Status domain.Status `json:"Status"`
}

func (g *OrderStoreGateway) UpdateStatus(ctx context.Context, id domain.ID, status domain.Status) (domain.OrderRecord, error) {
	var rec domain.OrderRecord
	u := joinURL(g.baseURL, "api", "order", id.String(), "status")
	if err := g.client.Do(ctx, serviceOrderStore, http.MethodPut, u, statusUpdate{Status: status}, &rec); err != nil {
		return domain.OrderRecord{}, notFound(id, err)
	}
	return rec, nil
}

func (g *OrderStoreGateway) CancelOrder(ctx context.Context, id domain.ID) (domain.OrderRecord, error) {
	var rec domain.OrderRecord
	u := joinURL(g.baseURL, "api", "order", id.String())
	if err := g.client.Do(ctx, serviceOrderStore, http.MethodDelete, u, nil, &rec); err != nil {
		return domain.OrderRecord{}, notFound(id, err)
	}
	return rec, nil
}

// ListByUser returns the user's orders, optionally filtered by status.
func (g *OrderStoreGateway) ListByUser(ctx context.Context, userID domain.ID, status domain.Status) ([]domain.OrderRecord, error) {
	u := joinURL(g.baseURL, "api", "order", "user", userID.String())
	if status != "" {
		u += "?" + url.Values{"status": {string(status)}}.Encode()
	}
	records := []domain.OrderRecord{}
	if err := g.client.Do(ctx, serviceOrderStore, http.MethodGet, u, nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// notFound turns a 404 from the order store into a NotFoundError.
func notFound(id domain.ID, err error) error {
	var derr *apperr.DownstreamError
	if errors.As(err, &derr) && derr.Status == http.StatusNotFound {
		return &apperr.NotFoundError{Resource: "Order", ID: id.String(), Err: derr}
	}
	return err
}
