// Package app implements the order use cases. Each use case authorizes the
// actor, then drives the downstream gateways in a fixed order. Creation runs
// as a saga so a failure after the order is stored undoes what was done.
package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jcmexdev/brewery-order-service/internal/coordinator"
	"github.com/jcmexdev/brewery-order-service/internal/coordinator/sagalog"
	"github.com/jcmexdev/brewery-order-service/internal/order-service/core/domain"
	"github.com/jcmexdev/brewery-order-service/internal/order-service/core/ports"
	"github.com/jcmexdev/brewery-order-service/internal/pkg/interceptors"
)

const (
	sagaCreateOrder = "create_order"

	defaultIdempotencyTTL = 24 * time.Hour
	defaultReservationTTL = time.Minute
	defaultPublishTimeout = 2 * time.Second
)

// Dependencies wires the orchestrator. Payment, Shipping, Notification,
// Idempotency, Events, SagaLog and Observer are optional; a nil value turns
// the matching feature off.
type Dependencies struct {
	Cart      ports.CartGateway
	Inventory ports.InventoryGateway
	Stock     ports.StockGateway
	Orders    ports.OrderStoreGateway

	Payment      ports.PaymentGateway
	Shipping     ports.ShippingGateway
	Notification ports.NotificationGateway

	Idempotency    ports.IdempotencyStore
	IdempotencyTTL time.Duration
	// ReservationTTL bounds how long an unfinished create holds its key.
	ReservationTTL time.Duration
	Events         ports.EventPublisher
	PublishTimeout time.Duration
	SagaLog        sagalog.Repository
	Observer       coordinator.Observer

	Logger    *slog.Logger
	Now       func() time.Time
	NewSagaID func() string
}

type OrderOrchestrator struct {
	cart      ports.CartGateway
	inventory ports.InventoryGateway
	stock     ports.StockGateway
	orders    ports.OrderStoreGateway

	payment      ports.PaymentGateway
	shipping     ports.ShippingGateway
	notification ports.NotificationGateway

	idempotency    ports.IdempotencyStore
	idempotencyTTL time.Duration
	reservationTTL time.Duration
	events         ports.EventPublisher
	publishTimeout time.Duration
	sagaLog        sagalog.Repository
	observer       coordinator.Observer

	logger    *slog.Logger
	now       func() time.Time
	newSagaID func() string
}

func NewOrderOrchestrator(d Dependencies) *OrderOrchestrator {
	o := &OrderOrchestrator{
		cart:           d.Cart,
		inventory:      d.Inventory,
		stock:          d.Stock,
		orders:         d.Orders,
		payment:        d.Payment,
		shipping:       d.Shipping,
		notification:   d.Notification,
		idempotency:    d.Idempotency,
		idempotencyTTL: d.IdempotencyTTL,
		reservationTTL: d.ReservationTTL,
		events:         d.Events,
		publishTimeout: d.PublishTimeout,
		sagaLog:        d.SagaLog,
		observer:       d.Observer,
		logger:         d.Logger,
		now:            d.Now,
		newSagaID:      d.NewSagaID,
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.now == nil {
		o.now = time.Now
	}
	if o.newSagaID == nil {
		o.newSagaID = uuid.NewString
	}
	if o.idempotencyTTL <= 0 {
		o.idempotencyTTL = defaultIdempotencyTTL
	}
	if o.reservationTTL <= 0 {
		o.reservationTTL = defaultReservationTTL
	}
	if o.publishTimeout <= 0 {
		o.publishTimeout = defaultPublishTimeout
	}
	return o
}

// fail logs err with the attributes of the failing call and returns it
// unchanged for translation at the boundary.
func (o *OrderOrchestrator) fail(ctx context.Context, log *slog.Logger, msg string, err error) error {
	log.ErrorContext(ctx, msg, "error", err)
	return err
}

// publish emits event without letting a slow or absent broker hold up the
// caller for longer than publishTimeout. Failures are logged only.
func (o *OrderOrchestrator) publish(ctx context.Context, event domain.OrderEvent) {
	if o.events == nil {
		return
	}
	event.RequestID = interceptors.FromContext(ctx).RequestID
	event.OccurredAt = o.now().UTC()

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.publishTimeout)
	defer cancel()
	if err := o.events.Publish(pubCtx, event); err != nil {
		o.logger.WarnContext(ctx, "failed to publish order event",
			"event", event.Type, "order_id", event.OrderID, "error", err)
	}
}
