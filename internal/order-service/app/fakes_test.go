package app

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/brewery-order-service/internal/order-service/core/domain"
)

// fakeBrewery implements every gateway of the brewery API in memory and
// records the calls it receives.
type fakeBrewery struct {
	mu sync.Mutex

	cart      []domain.CartItem
	cartErr   error
	onCart    func()
	clearErr  error
	snapshots map[domain.ID]domain.InventorySnapshot
	snapErr   map[domain.ID]error
	decErr    map[domain.ID]error
	restocked map[domain.ID]int

	createResp string
	createErr  error
	orders     map[domain.ID]string
	getErr     error
	updateErr  error
	cancelErr  error
	listErr    error

	calls []string
}

func newFakeBrewery() *fakeBrewery {
	return &fakeBrewery{
		snapshots:  map[domain.ID]domain.InventorySnapshot{},
		snapErr:    map[domain.ID]error{},
		decErr:     map[domain.ID]error{},
		restocked:  map[domain.ID]int{},
		orders:     map[domain.ID]string{},
		createResp: `{"id":"order1","UserId":1}`,
	}
}

func (f *fakeBrewery) record(format string, args ...any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeBrewery) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeBrewery) FetchCart(_ context.Context, userID domain.ID) ([]domain.CartItem, error) {
	f.record("FetchCart %s", userID)
	if f.onCart != nil {
		f.onCart()
	}
	return f.cart, f.cartErr
}

func (f *fakeBrewery) ClearCart(_ context.Context, userID domain.ID) error {
	f.record("ClearCart %s", userID)
	return f.clearErr
}

func (f *fakeBrewery) FetchSnapshot(ctx context.Context, id domain.ID) (domain.InventorySnapshot, error) {
	f.record("FetchSnapshot %s", id)
	f.mu.Lock()
	err, snap := f.snapErr[id], f.snapshots[id]
	f.mu.Unlock()
	if err != nil {
		return domain.InventorySnapshot{}, err
	}
	return snap, nil
}

func (f *fakeBrewery) DecrementStock(_ context.Context, id domain.ID, q int) error {
	f.record("DecrementStock %s %d", id, q)
	return f.decErr[id]
}

func (f *fakeBrewery) RestockItem(_ context.Context, id domain.ID, q int) error {
	f.record("RestockItem %s %d", id, q)
	f.mu.Lock()
	f.restocked[id] += q
	f.mu.Unlock()
	return nil
}

func (f *fakeBrewery) CreateOrder(_ context.Context, p domain.OrderPayload) (domain.OrderRecord, error) {
	f.record("CreateOrder %s items=%d total=%s", p.UserID, len(p.Items), p.TotalPrice.String())
	if f.createErr != nil {
		return domain.OrderRecord{}, f.createErr
	}
	return decodeRecord(f.createResp), nil
}

func (f *fakeBrewery) GetOrder(_ context.Context, id domain.ID) (domain.OrderRecord, error) {
	f.record("GetOrder %s", id)
	if f.getErr != nil {
		return domain.OrderRecord{}, f.getErr
	}
	return decodeRecord(f.orders[id]), nil
}

func (f *fakeBrewery) UpdateStatus(_ context.Context, id domain.ID, s domain.Status) (domain.OrderRecord, error) {
	f.record("UpdateStatus %s %s", id, s)
	if f.updateErr != nil {
		return domain.OrderRecord{}, f.updateErr
	}
	return decodeRecord(fmt.Sprintf(`{"id":%q,"UserId":1,"Status":%q}`, id, s)), nil
}

func (f *fakeBrewery) CancelOrder(_ context.Context, id domain.ID) (domain.OrderRecord, error) {
	f.record("CancelOrder %s", id)
	if f.cancelErr != nil {
		return domain.OrderRecord{}, f.cancelErr
	}
	return decodeRecord(fmt.Sprintf(`{"id":%q,"UserId":1,"Status":"Cancelled"}`, id)), nil
}

func (f *fakeBrewery) ListByUser(_ context.Context, userID domain.ID, s domain.Status) ([]domain.OrderRecord, error) {
	f.record("ListByUser %s %s", userID, s)
	if f.listErr != nil {
		return nil, f.listErr
	}
	return []domain.OrderRecord{decodeRecord(`{"id":"a","UserId":1}`)}, nil
}

func decodeRecord(raw string) domain.OrderRecord {
	var rec domain.OrderRecord
	if raw == "" {
		return rec
	}
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		panic(err)
	}
	return rec
}

type fakeTriggers struct {
	mu           sync.Mutex
	paymentResp  string
	paymentErr   error
	shippingErr  error
	notifyErr    error
	payments     []string
	shipments    []string
	notification []string
}

func (f *fakeTriggers) ProcessPayment(_ context.Context, orderID domain.ID, amount decimal.Decimal) (domain.PaymentRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payments = append(f.payments, orderID.String()+" "+amount.String())
	if f.paymentErr != nil {
		return nil, f.paymentErr
	}
	return domain.PaymentRecord(f.paymentResp), nil
}

func (f *fakeTriggers) CreateShipment(_ context.Context, userID, orderID domain.ID, addr domain.ShippingAddress) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shipments = append(f.shipments, userID.String()+" "+orderID.String()+" "+addr.City)
	return f.shippingErr
}

func (f *fakeTriggers) NotifyStatusChange(_ context.Context, userID, orderID domain.ID, status domain.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notification = append(f.notification, userID.String()+" "+orderID.String()+" "+string(status))
	return f.notifyErr
}

type memoryIdempotency struct {
	mu    sync.Mutex
	items map[string][]byte
	held  map[string]bool
}

func (m *memoryIdempotency) Lookup(_ context.Context, userID domain.ID, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.items[userID.String()+":"+key]
	return b, ok, nil
}

func (m *memoryIdempotency) Remember(_ context.Context, userID domain.ID, key string, response []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.items == nil {
		m.items = map[string][]byte{}
	}
	m.items[userID.String()+":"+key] = response
	return nil
}

func (m *memoryIdempotency) Reserve(_ context.Context, userID domain.ID, key string, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held == nil {
		m.held = map[string]bool{}
	}
	k := userID.String() + ":" + key
	if m.held[k] {
		return false, nil
	}
	m.held[k] = true
	return true, nil
}

func (m *memoryIdempotency) Release(_ context.Context, userID domain.ID, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.held, userID.String()+":"+key)
	return nil
}

func (m *memoryIdempotency) holding() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.held)
}

type memoryEvents struct {
	mu     sync.Mutex
	events []domain.OrderEvent
}

func (m *memoryEvents) Publish(_ context.Context, e domain.OrderEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

func (m *memoryEvents) types() []domain.EventType {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.EventType, len(m.events))
	for i, e := range m.events {
		out[i] = e.Type
	}
	return out
}
