package coordinator

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jcmexdev/brewery-order-service/internal/order-service/core/apperr"
	"github.com/jcmexdev/brewery-order-service/internal/order-service/core/domain"
	"github.com/jcmexdev/brewery-order-service/internal/order-service/core/ports"
)

// --- CreateOrderStep ---

type CreateOrderStep struct {
	store   ports.OrderStoreGateway
	payload domain.OrderPayload
	record  domain.OrderRecord
}

// NewCreateOrderStep is the constructor for CreateOrderStep
func NewCreateOrderStep(store ports.OrderStoreGateway, payload domain.OrderPayload) *CreateOrderStep {
	return &CreateOrderStep{
		store:   store,
		payload: payload,
	}
}

func (s *CreateOrderStep) Name() string { return "Create_Order_Step" }

func (s *CreateOrderStep) Execute(ctx context.Context) error {
	rec, err := s.store.CreateOrder(ctx, s.payload)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	s.record = rec
	return nil
}

// Compensate cancels the order in the store.
func (s *CreateOrderStep) Compensate(ctx context.Context) error {
	if s.record.ID == "" {
		return errors.New("order store returned no order id to cancel")
	}
	_, err := s.store.CancelOrder(ctx, s.record.ID)
	return err
}

// Record is the order created by Execute.
func (s *CreateOrderStep) Record() domain.OrderRecord { return s.record }

// --- DecrementStockStep ---

type DecrementStockStep struct {
	stock ports.StockGateway
	item  domain.EnrichedOrderItem
}

func NewDecrementStockStep(stock ports.StockGateway, item domain.EnrichedOrderItem) *DecrementStockStep {
	return &DecrementStockStep{
		stock: stock,
		item:  item,
	}
}

const kindDecrementStock = "Decrement_Stock_Step"

func (s *DecrementStockStep) Name() string {
	return kindDecrementStock + ":" + s.item.ProductID.String()
}

func (s *DecrementStockStep) Kind() string { return kindDecrementStock }

// Execute debits the item's quantity. A conflict from the inventory service
// means another order took the stock first, which is reported as a stock
// shortage rather than a server failure.
func (s *DecrementStockStep) Execute(ctx context.Context) error {
	err := s.stock.DecrementStock(ctx, s.item.ProductID, s.item.Quantity)
	if err == nil {
		return nil
	}
	var derr *apperr.DownstreamError
	if errors.As(err, &derr) && derr.Status == http.StatusConflict {
		return &apperr.BusinessRuleError{
			Message: fmt.Sprintf("Insufficient stock for product %s", s.item.ProductID),
			Err:     err,
		}
	}
	return fmt.Errorf("failed to decrement stock of product %s: %w", s.item.ProductID, err)
}

// Compensate puts the same quantity back.
func (s *DecrementStockStep) Compensate(ctx context.Context) error {
	return s.stock.RestockItem(ctx, s.item.ProductID, s.item.Quantity)
}

// --- ClearCartStep ---

type ClearCartStep struct {
	cart   ports.CartGateway
	userID domain.ID
}

func NewClearCartStep(cart ports.CartGateway, userID domain.ID) *ClearCartStep {
	return &ClearCartStep{
		cart:   cart,
		userID: userID,
	}
}

func (s *ClearCartStep) Name() string { return "Clear_Cart_Step" }

func (s *ClearCartStep) Execute(ctx context.Context) error {
	if err := s.cart.ClearCart(ctx, s.userID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// Compensate is a no-op: it is the last step, so it is never compensated
// after succeeding.
func (s *ClearCartStep) Compensate(ctx context.Context) error {
	return nil
}
