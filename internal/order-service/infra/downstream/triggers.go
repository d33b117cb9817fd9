package downstream

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/brewery-order-service/internal/order-service/core/domain"
)

const (
	servicePayment      = "payment"
	serviceShipping     = "shipping"
	serviceNotification = "notification"
)

type PaymentGateway struct {
	client  *Client
	baseURL string
}

func NewPaymentGateway(client *Client, baseURL string) *PaymentGateway {
	return &PaymentGateway{client: client, baseURL: baseURL}
}

type paymentRequest struct {
	OrderID domain.ID       `json:"OrderId"`
	Amount  decimal.Decimal `json:"Amount"`
}

func (g *PaymentGateway) ProcessPayment(ctx context.Context, orderID domain.ID, amount decimal.Decimal) (domain.PaymentRecord, error) {
	var rec domain.PaymentRecord
	u := joinURL(g.baseURL, "payment", "process")
	if err := g.client.Do(ctx, servicePayment, http.MethodPost, u, paymentRequest{OrderID: orderID, Amount: amount}, &rec); err != nil {
		return nil, err
	}
	return rec, nil
}

type ShippingGateway struct {
	client  *Client
	baseURL string
}

func NewShippingGateway(client *Client, baseURL string) *ShippingGateway {
	return &ShippingGateway{client: client, baseURL: baseURL}
}

type shipmentRequest struct {
	UserID  domain.ID              `json:"UserId"`
	OrderID domain.ID              `json:"OrderId"`
	Address domain.ShippingAddress `json:"Address"`
}

func (g *ShippingGateway) CreateShipment(ctx context.Context, userID, orderID domain.ID, addr domain.ShippingAddress) error {
	u := joinURL(g.baseURL, "shipping", "create")
	return g.client.Do(ctx, serviceShipping, http.MethodPost, u, shipmentRequest{UserID: userID, OrderID: orderID, Address: addr}, nil)
}

type NotificationGateway struct {
	client  *Client
	baseURL string
}

func NewNotificationGateway(client *Client, baseURL string) *NotificationGateway {
	return &NotificationGateway{client: client, baseURL: baseURL}
}

type statusNotification struct {
	UserID  domain.ID     `json:"UserId"`
	OrderID domain.ID     `json:"OrderId"`
	Status  domain.Status `json:"Status"`
}

func (g *NotificationGateway) NotifyStatusChange(ctx context.Context, userID, orderID domain.ID, status domain.Status) error {
	u := joinURL(g.baseURL, "notifications", "order-status")
	return g.client.Do(ctx, serviceNotification, http.MethodPost, u, statusNotification{UserID: userID, OrderID: orderID, Status: status}, nil)
}
