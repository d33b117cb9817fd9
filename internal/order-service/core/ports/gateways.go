package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/brewery-order-service/internal/order-service/core/domain"
)

// Gateways return decoded values, *apperr.DownstreamError, *apperr.TransportError
// or *apperr.NotFoundError. They never retry.

type CartGateway interface {
	FetchCart(ctx context.Context, userID domain.ID) ([]domain.CartItem, error)
	ClearCart(ctx context.Context, userID domain.ID) error
}

type InventoryGateway interface {
	FetchSnapshot(ctx context.Context, inventoryID domain.ID) (domain.InventorySnapshot, error)
}

// StockGateway adjusts stock. The inventory service refuses a decrement that
// would take stock below zero.
type StockGateway interface {
	DecrementStock(ctx context.Context, productID domain.ID, quantity int) error
	RestockItem(ctx context.Context, productID domain.ID, quantity int) error
}

type OrderStoreGateway interface {
	CreateOrder(ctx context.Context, payload domain.OrderPayload) (domain.OrderRecord, error)
	GetOrder(ctx context.Context, id domain.ID) (domain.OrderRecord, error)
	UpdateStatus(ctx context.Context, id domain.ID, status domain.Status) (domain.OrderRecord, error)
	CancelOrder(ctx context.Context, id domain.ID) (domain.OrderRecord, error)
	ListByUser(ctx context.Context, userID domain.ID, status domain.Status) ([]domain.OrderRecord, error)
}

type PaymentGateway interface {
	ProcessPayment(ctx context.Context, orderID domain.ID, amount decimal.Decimal) (domain.PaymentRecord, error)
}

type ShippingGateway interface {
	CreateShipment(ctx context.Context, userID, orderID domain.ID, addr domain.ShippingAddress) error
}

type NotificationGateway interface {
	NotifyStatusChange(ctx context.Context, userID, orderID domain.ID, status domain.Status) error
}

// IdempotencyStore remembers the response of a completed create so a replay
// with the same key returns it unchanged. Reserve atomically claims a key for
// an in-flight create and reports false when someone else already holds it.
type IdempotencyStore interface {
	Lookup(ctx context.Context, userID domain.ID, key string) ([]byte, bool, error)
	Remember(ctx context.Context, userID domain.ID, key string, response []byte, ttl time.Duration) error
	Reserve(ctx context.Context, userID domain.ID, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, userID domain.ID, key string) error
}

// EventPublisher emits order lifecycle events after the fact.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.OrderEvent) error
}
