// Package brewerystub is an in-memory stand-in for the brewery API and the
// payment, shipping and notification services the order service calls. It is
// served by cmd/brewery-stub for local runs and by httptest in tests.
package brewerystub

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jcmexdev/brewery-order-service/internal/order-service/core/domain"
)

type Product struct {
	ID            domain.ID       `json:"Id"`
	Name          string          `json:"Name"`
	StockQuantity int             `json:"StockQuantity"`
	Price         decimal.Decimal `json:"Price"`
}

type CartLine struct {
	ID          string    `json:"Id"`
	UserID      domain.ID `json:"UserId"`
	InventoryID domain.ID `json:"InventoryId"`
	Quantity    int       `json:"Quantity"`
}

type Order struct {
	ID              string                     `json:"id"`
	UserID          domain.ID                  `json:"UserId"`
	Items           []domain.EnrichedOrderItem `json:"Items"`
	TotalPrice      decimal.Decimal            `json:"TotalPrice"`
	ShippingAddress *domain.ShippingAddress    `json:"ShippingAddress,omitempty"`
	Status          domain.Status              `json:"Status"`
	CreatedAt       time.Time                  `json:"CreatedAt"`
}

type Payment struct {
	ID      string          `json:"Id"`
	OrderID domain.ID       `json:"OrderId"`
	Amount  decimal.Decimal `json:"Amount"`
	Status  string          `json:"Status"`
}

type Shipment struct {
	ID      string                 `json:"Id"`
	UserID  domain.ID              `json:"UserId"`
	OrderID domain.ID              `json:"OrderId"`
	Address domain.ShippingAddress `json:"Address"`
	Status  string                 `json:"Status"`
}

type Notification struct {
	UserID  domain.ID     `json:"UserId"`
	OrderID domain.ID     `json:"OrderId"`
	Status  domain.Status `json:"Status"`
}

// Call is one request as the stub saw it.
type Call struct {
	Method         string
	Pattern        string
	RequestID      string
	IdempotencyKey string
	Authorization  string
	Traceparent    string
}

// DefaultPaymentLimit is the largest amount the stub payment service accepts.
var DefaultPaymentLimit = decimal.NewFromInt(500)

type Brewery struct {
	mu sync.Mutex

	products      map[domain.ID]*Product
	carts         map[domain.ID][]CartLine
	orders        map[string]*Order
	orderSeq      []string
	payments      []Payment
	shipments     []Shipment
	notifications []Notification

	paymentLimit decimal.Decimal
	faults       map[string]int
	calls        []Call

	logger *slog.Logger
	now    func() time.Time
}

func New(logger *slog.Logger) *Brewery {
	if logger == nil {
		logger = slog.Default()
	}
	return &Brewery{
		products:     make(map[domain.ID]*Product),
		carts:        make(map[domain.ID][]CartLine),
		orders:       make(map[string]*Order),
		paymentLimit: DefaultPaymentLimit,
		faults:       make(map[string]int),
		logger:       logger,
		now:          time.Now,
	}
}

// Seed fills the catalog with a few beers so a fresh stub is usable.
func (b *Brewery) Seed() {
	b.AddProduct(Product{ID: "1", Name: "Pale Ale", StockQuantity: 15, Price: decimal.RequireFromString("4.50")})
	b.AddProduct(Product{ID: "2", Name: "Stout", StockQuantity: 10, Price: decimal.RequireFromString("5.25")})
	b.AddProduct(Product{ID: "3", Name: "Barley Wine", StockQuantity: 0, Price: decimal.RequireFromString("9.90")})
}

func (b *Brewery) AddProduct(p Product) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.products[p.ID] = &p
}

func (b *Brewery) AddToCart(userID, inventoryID domain.ID, quantity int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.carts[userID] = append(b.carts[userID], CartLine{
		ID:          uuid.NewString(),
		UserID:      userID,
		InventoryID: inventoryID,
		Quantity:    quantity,
	})
}

func (b *Brewery) SetPaymentLimit(limit decimal.Decimal) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.paymentLimit = limit
}

// Fail makes every request matching method and route pattern answer status
// until Recover is called. Patterns are the chi patterns of router.go, for
// example "/api/cart/clear/{userId}".
func (b *Brewery) Fail(method, pattern string, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.faults[method+" "+pattern] = status
}

func (b *Brewery) Recover() {
	b.mu.Lock()
	defer b.mu.Unlock()
	clear(b.faults)
}

func (b *Brewery) Stock(id domain.ID) (int, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.products[id]
	if !ok {
		return 0, false
	}
	return p.StockQuantity, true
}

func (b *Brewery) Cart(userID domain.ID) []CartLine {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]CartLine(nil), b.carts[userID]...)
}

// Orders returns every order in creation order.
func (b *Brewery) Orders() []Order {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Order, 0, len(b.orderSeq))
	for _, id := range b.orderSeq {
		out = append(out, *b.orders[id])
	}
	return out
}

func (b *Brewery) Payments() []Payment {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Payment(nil), b.payments...)
}

func (b *Brewery) Shipments() []Shipment {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Shipment(nil), b.shipments...)
}

func (b *Brewery) Notifications() []Notification {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Notification(nil), b.notifications...)
}

func (b *Brewery) Calls() []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Call(nil), b.calls...)
}
