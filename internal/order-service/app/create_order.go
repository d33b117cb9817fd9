package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/jcmexdev/brewery-order-service/internal/coordinator"
	"github.com/jcmexdev/brewery-order-service/internal/order-service/core/apperr"
	"github.com/jcmexdev/brewery-order-service/internal/order-service/core/authz"
	"github.com/jcmexdev/brewery-order-service/internal/order-service/core/domain"
)

const (
	msgOrderCreated  = "Order created successfully"
	msgKeyInProgress = "Request with this idempotency key is already in progress"
)

type CreateOrderRequest struct {
	UserID          domain.ID
	ShippingAddress *domain.ShippingAddress
	IdempotencyKey  string
}

type CreateOrderResult struct {
	Message string               `json:"message"`
	Order   domain.OrderRecord   `json:"order"`
	Payment domain.PaymentRecord `json:"payment,omitempty"`

	// Replayed is set when the result was served from the idempotency store.
	Replayed bool `json:"-"`
}

// CreateOrder turns the user's cart into an order.
//
// The cart is read, each distinct product is looked up concurrently and
// checked for stock, and then the saga create-order, decrement-stock per
// item, clear-cart runs. Payment and shipping are triggered only after the
// saga has completed; their failure keeps the order and is reported with it.
func (o *OrderOrchestrator) CreateOrder(ctx context.Context, actor *domain.AuthContext, req CreateOrderRequest) (*CreateOrderResult, error) {
	log := o.logger.With("op", apperr.OpCreate, "user_id", req.UserID)

	if req.UserID == "" {
		log.WarnContext(ctx, "create order rejected: missing user_id")
		return nil, &apperr.ValidationError{Errors: []apperr.FieldError{{Field: "user_id", Msg: "User ID is required"}}}
	}
	if err := authz.Authorize(actor, req.UserID); err != nil {
		log.WarnContext(ctx, "create order rejected", "error", err)
		return nil, err
	}

	if cached := o.replay(ctx, req); cached != nil {
		log.InfoContext(ctx, "create order replayed from idempotency store", "idempotency_key", req.IdempotencyKey)
		return cached, nil
	}

	reserved, err := o.reserve(ctx, req)
	if err != nil {
		if cached := o.replay(ctx, req); cached != nil {
			log.InfoContext(ctx, "create order replayed from idempotency store", "idempotency_key", req.IdempotencyKey)
			return cached, nil
		}
		log.WarnContext(ctx, "create order rejected: idempotency key in use", "idempotency_key", req.IdempotencyKey)
		return nil, err
	}
	if reserved {
		defer o.release(ctx, req)
	}

	cart, err := o.cart.FetchCart(ctx, req.UserID)
	if err != nil {
		return nil, o.fail(ctx, log, "failed to fetch cart", err)
	}
	if len(cart) == 0 {
		log.WarnContext(ctx, "create order rejected: cart is empty")
		return nil, apperr.NewBusinessRule("Cart is empty")
	}

	items, err := o.enrich(ctx, domain.MergeCartLines(cart))
	if err != nil {
		return nil, o.fail(ctx, log, "failed to enrich cart items", err)
	}

	payload, err := domain.NewOrderPayload(req.UserID, items, req.ShippingAddress)
	if err != nil {
		return nil, o.fail(ctx, log, "failed to build order payload", apperr.NewBusinessRule(err.Error()))
	}

	record, err := o.runCreateSaga(ctx, log, payload)
	if err != nil {
		return nil, err
	}
	log = log.With("order_id", record.ID)

	o.publish(ctx, domain.OrderEvent{
		Type:       domain.EventOrderCreated,
		OrderID:    record.ID,
		UserID:     req.UserID,
		Status:     record.Status,
		TotalPrice: &payload.TotalPrice,
	})

	result := &CreateOrderResult{Message: msgOrderCreated, Order: record}

	if o.payment != nil {
		payment, err := o.payment.ProcessPayment(ctx, record.ID, payload.TotalPrice)
		if err != nil {
			return nil, o.fail(ctx, log, "payment failed after order creation", committed(apperr.OpPayment, record, err))
		}
		result.Payment = payment
	}

	if o.shipping != nil && req.ShippingAddress != nil {
		if err := o.shipping.CreateShipment(ctx, req.UserID, record.ID, *req.ShippingAddress); err != nil {
			return nil, o.fail(ctx, log, "shipment failed after order creation", committed(apperr.OpShipping, record, err))
		}
	}

	o.remember(ctx, req, result)
	log.InfoContext(ctx, "order created", "items", len(items), "total", payload.TotalPrice.String())
	return result, nil
}

// enrich fetches one snapshot per line concurrently and joins them, keeping
// the order of lines. The first failure cancels the remaining lookups.
func (o *OrderOrchestrator) enrich(ctx context.Context, lines []domain.CartItem) ([]domain.EnrichedOrderItem, error) {
	items := make([]domain.EnrichedOrderItem, len(lines))

	g, gctx := errgroup.WithContext(ctx)
	for i, line := range lines {
		g.Go(func() error {
			snap, err := o.inventory.FetchSnapshot(gctx, line.InventoryID)
			if err != nil {
				return fmt.Errorf("fetch snapshot of product %s: %w", line.InventoryID, err)
			}
			item, err := domain.Enrich(line, snap)
			if err != nil {
				return &apperr.BusinessRuleError{Message: err.Error(), Err: err}
			}
			items[i] = item
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return items, nil
}

func (o *OrderOrchestrator) runCreateSaga(ctx context.Context, log *slog.Logger, payload domain.OrderPayload) (domain.OrderRecord, error) {
	createStep := coordinator.NewCreateOrderStep(o.orders, payload)
	steps := []coordinator.Step{createStep}
	for _, item := range payload.Items {
		steps = append(steps, coordinator.NewDecrementStockStep(o.stock, item))
	}
	steps = append(steps, coordinator.NewClearCartStep(o.cart, payload.UserID))

	opts := []coordinator.Option{coordinator.WithLogger(o.logger)}
	if b, err := json.Marshal(payload); err == nil {
		opts = append(opts, coordinator.WithPayload(string(b)))
	}
	if o.observer != nil {
		opts = append(opts, coordinator.WithObserver(o.observer))
	}

	sagaID := o.newSagaID()
	saga := coordinator.NewOrchestrator(sagaID, sagaCreateOrder, steps, o.sagaLog, opts...)
	if err := saga.Start(ctx); err != nil {
		log.ErrorContext(ctx, "create order saga failed", "saga_id", sagaID, "error", err)
		return domain.OrderRecord{}, err
	}
	return createStep.Record(), nil
}

func committed(op apperr.Op, record domain.OrderRecord, err error) error {
	order, merr := json.Marshal(record)
	if merr != nil {
		order = nil
	}
	return &apperr.CommittedError{Op: op, Order: order, Err: err}
}

// replay returns the stored result of an earlier create with the same key.
// An unreadable store is treated as a miss.
func (o *OrderOrchestrator) replay(ctx context.Context, req CreateOrderRequest) *CreateOrderResult {
	if o.idempotency == nil || req.IdempotencyKey == "" {
		return nil
	}
	body, found, err := o.idempotency.Lookup(ctx, req.UserID, req.IdempotencyKey)
	if err != nil {
		o.logger.WarnContext(ctx, "idempotency lookup failed", "user_id", req.UserID, "error", err)
		return nil
	}
	if !found {
		return nil
	}
	var result CreateOrderResult
	if err := json.Unmarshal(body, &result); err != nil {
		o.logger.WarnContext(ctx, "discarding unreadable idempotent response", "user_id", req.UserID, "error", err)
		return nil
	}
	result.Replayed = true
	return &result
}

// reserve claims the idempotency key for this create. It reports whether a
// reservation was taken and returns a ConflictError when another create
// already holds the key. An unreachable store is logged and the create
// proceeds unguarded.
func (o *OrderOrchestrator) reserve(ctx context.Context, req CreateOrderRequest) (bool, error) {
	if o.idempotency == nil || req.IdempotencyKey == "" {
		return false, nil
	}
	ok, err := o.idempotency.Reserve(ctx, req.UserID, req.IdempotencyKey, o.reservationTTL)
	if err != nil {
		o.logger.WarnContext(ctx, "idempotency reservation failed", "user_id", req.UserID, "error", err)
		return false, nil
	}
	if !ok {
		return false, &apperr.ConflictError{Message: msgKeyInProgress}
	}
	return true, nil
}

// release drops the reservation once the create has finished. A successful
// create has already stored its response, so later retries replay it.
func (o *OrderOrchestrator) release(ctx context.Context, req CreateOrderRequest) {
	if err := o.idempotency.Release(context.WithoutCancel(ctx), req.UserID, req.IdempotencyKey); err != nil {
		o.logger.WarnContext(ctx, "failed to release idempotency reservation", "user_id", req.UserID, "error", err)
	}
}

func (o *OrderOrchestrator) remember(ctx context.Context, req CreateOrderRequest, result *CreateOrderResult) {
	if o.idempotency == nil || req.IdempotencyKey == "" {
		return
	}
	body, err := json.Marshal(result)
	if err == nil {
		err = o.idempotency.Remember(context.WithoutCancel(ctx), req.UserID, req.IdempotencyKey, body, o.idempotencyTTL)
	}
	if err != nil {
		o.logger.WarnContext(ctx, "failed to store idempotent response", "user_id", req.UserID, "error", err)
	}
}
