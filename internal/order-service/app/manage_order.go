package app

import (
	"context"
	"log/slog"

	"github.com/jcmexdev/brewery-order-service/internal/order-service/core/apperr"
	"github.com/jcmexdev/brewery-order-service/internal/order-service/core/authz"
	"github.com/jcmexdev/brewery-order-service/internal/order-service/core/domain"
)

const msgStatusUpdated = "Order status updated successfully"

type UpdateStatusResult struct {
	Message string             `json:"message"`
	Order   domain.OrderRecord `json:"order"`
}

// GetOrder reads the order and returns it only to its owner.
func (o *OrderOrchestrator) GetOrder(ctx context.Context, actor *domain.AuthContext, id domain.ID) (domain.OrderRecord, error) {
	log := o.logger.With("op", apperr.OpGet, "order_id", id)
	return o.ownedOrder(ctx, log, actor, id)
}

// UpdateOrderStatus forwards status to the order store once the actor is known
// to own the order. Transition legality is left to the store.
func (o *OrderOrchestrator) UpdateOrderStatus(ctx context.Context, actor *domain.AuthContext, id domain.ID, status domain.Status) (*UpdateStatusResult, error) {
	log := o.logger.With("op", apperr.OpUpdate, "order_id", id, "status", status)

	if !status.Updatable() {
		return nil, &apperr.ValidationError{Errors: []apperr.FieldError{{Field: "status", Msg: "Invalid status"}}}
	}
	current, err := o.ownedOrder(ctx, log, actor, id)
	if err != nil {
		return nil, err
	}

	updated, err := o.orders.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, o.fail(ctx, log, "failed to update order status", err)
	}

	o.publish(ctx, domain.OrderEvent{
		Type:    domain.EventOrderStatusChanged,
		OrderID: id,
		UserID:  current.UserID,
		Status:  status,
	})

	if o.notification != nil {
		if err := o.notification.NotifyStatusChange(ctx, current.UserID, id, status); err != nil {
			return nil, o.fail(ctx, log, "status notification failed after update", committed(apperr.OpNotify, updated, err))
		}
	}

	log.InfoContext(ctx, "order status updated")
	return &UpdateStatusResult{Message: msgStatusUpdated, Order: updated}, nil
}

// CancelOrder cancels an order the actor owns. Ownership is checked like for
// any other mutation.
func (o *OrderOrchestrator) CancelOrder(ctx context.Context, actor *domain.AuthContext, id domain.ID) (domain.OrderRecord, error) {
	log := o.logger.With("op", apperr.OpCancel, "order_id", id)

	current, err := o.ownedOrder(ctx, log, actor, id)
	if err != nil {
		return domain.OrderRecord{}, err
	}

	cancelled, err := o.orders.CancelOrder(ctx, id)
	if err != nil {
		return domain.OrderRecord{}, o.fail(ctx, log, "failed to cancel order", err)
	}

	o.publish(ctx, domain.OrderEvent{
		Type:    domain.EventOrderCancelled,
		OrderID: id,
		UserID:  current.UserID,
		Status:  domain.StatusCancelled,
	})
	log.InfoContext(ctx, "order cancelled")
	return cancelled, nil
}

// ListOrdersByUser returns the orders of userID to that same user, optionally
// filtered by status.
func (o *OrderOrchestrator) ListOrdersByUser(ctx context.Context, actor *domain.AuthContext, userID domain.ID, status domain.Status) ([]domain.OrderRecord, error) {
	log := o.logger.With("op", apperr.OpList, "user_id", userID)

	if status != "" && !status.Known() {
		return nil, &apperr.ValidationError{Errors: []apperr.FieldError{{Field: "status", Msg: "Invalid status"}}}
	}
	if err := authz.Authorize(actor, userID); err != nil {
		log.WarnContext(ctx, "list orders rejected", "error", err)
		return nil, err
	}

	records, err := o.orders.ListByUser(ctx, userID, status)
	if err != nil {
		return nil, o.fail(ctx, log, "failed to list orders", err)
	}
	return records, nil
}

// ownedOrder fetches the order to learn its owner and authorizes the actor
// against it. Nothing is read when there is no actor at all.
func (o *OrderOrchestrator) ownedOrder(ctx context.Context, log *slog.Logger, actor *domain.AuthContext, id domain.ID) (domain.OrderRecord, error) {
	if id == "" {
		return domain.OrderRecord{}, &apperr.ValidationError{Errors: []apperr.FieldError{{Field: "id", Msg: "Order ID is required"}}}
	}
	if err := authz.RequireActor(actor); err != nil {
		log.WarnContext(ctx, "request without authenticated actor", "error", err)
		return domain.OrderRecord{}, err
	}

	record, err := o.orders.GetOrder(ctx, id)
	if err != nil {
		return domain.OrderRecord{}, o.fail(ctx, log, "failed to fetch order", err)
	}
	if err := authz.Authorize(actor, record.UserID); err != nil {
		log.WarnContext(ctx, "order access rejected", "owner_id", record.UserID, "error", err)
		return domain.OrderRecord{}, err
	}
	return record, nil
}
