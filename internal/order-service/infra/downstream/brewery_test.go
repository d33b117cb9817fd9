package downstream

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/jcmexdev/brewery-order-service/internal/order-service/core/apperr"
	"github.com/jcmexdev/brewery-order-service/internal/order-service/core/domain"
	"github.com/jcmexdev/brewery-order-service/internal/pkg/interceptors"
)

type capturedRequest struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   string
}

// newServer answers every request with status and body and records what it saw.
func newServer(t *testing.T, status int, body string) (*httptest.Server, *[]capturedRequest) {
	t.Helper()
	var seen []capturedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		seen = append(seen, capturedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Header: r.Header.Clone(),
			Body:   string(b),
		})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func TestCartGateway_FetchCart(t *testing.T) {
	srv, seen := newServer(t, http.StatusOK, `[{"Id":1,"UserId":1,"InventoryId":101,"Quantity":2}]`)
	g := NewCartGateway(NewClient(time.Second), srv.URL)

	ctx := interceptors.WithMetadata(context.Background(), interceptors.Metadata{
		RequestID:     "req-1",
		Authorization: "Bearer token",
	})
	items, err := g.FetchCart(ctx, "1")

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, domain.CartItem{UserID: "1", InventoryID: "101", Quantity: 2}, items[0])

	require.Len(t, *seen, 1)
	got := (*seen)[0]
	assert.Equal(t, http.MethodGet, got.Method)
	assert.Equal(t, "/api/cart/1", got.Path)
	assert.Equal(t, "Bearer token", got.Header.Get("Authorization"))
	assert.Equal(t, "req-1", got.Header.Get("X-Request-Id"))
}

func TestCartGateway_EmptyCartIsNotAnError(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, `[]`)
	items, err := NewCartGateway(NewClient(time.Second), srv.URL).FetchCart(context.Background(), "1")

	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCartGateway_ClearCart(t *testing.T) {
	srv, seen := newServer(t, http.StatusNoContent, ``)
	require.NoError(t, NewCartGateway(NewClient(time.Second), srv.URL).ClearCart(context.Background(), "7"))

	assert.Equal(t, http.MethodDelete, (*seen)[0].Method)
	assert.Equal(t, "/api/cart/clear/7", (*seen)[0].Path)
}

func TestInventoryGateway_FetchSnapshot(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, `{"StockQuantity":5,"Name":"Beer","Price":5.99}`)
	snap, err := NewInventoryGateway(NewClient(time.Second), srv.URL).FetchSnapshot(context.Background(), "101")

	require.NoError(t, err)
	assert.Equal(t, domain.ID("101"), snap.InventoryID)
	assert.Equal(t, 5, snap.StockQuantity)
	assert.Equal(t, "Beer", snap.Name)
	assert.True(t, snap.UnitPrice.Equal(decimal.RequireFromString("5.99")))
}

func TestInventoryGateway_AdjustStock(t *testing.T) {
	srv, seen := newServer(t, http.StatusOK, `{}`)
	g := NewInventoryGateway(NewClient(time.Second), srv.URL)

	require.NoError(t, g.DecrementStock(context.Background(), "101", 2))
	require.NoError(t, g.RestockItem(context.Background(), "101", 2))

	require.Len(t, *seen, 2)
	assert.Equal(t, http.MethodPut, (*seen)[0].Method)
	assert.Equal(t, "/api/inventory/101/stock", (*seen)[0].Path)
	assert.JSONEq(t, `{"Quantity":-2}`, (*seen)[0].Body)
	assert.JSONEq(t, `{"Quantity":2}`, (*seen)[1].Body)
}

func TestInventoryGateway_ConflictIsDownstreamError(t *testing.T) {
	srv, _ := newServer(t, http.StatusConflict, `{"message":"Insufficient stock"}`)
	err := NewInventoryGateway(NewClient(time.Second), srv.URL).DecrementStock(context.Background(), "101", 9)

	var derr *apperr.DownstreamError
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, http.StatusConflict, derr.Status)
	assert.Equal(t, "Insufficient stock", derr.Message())
}

func TestOrderStoreGateway_CreateOrder(t *testing.T) {
	srv, seen := newServer(t, http.StatusCreated, `{"id":"order1","UserId":1}`)
	g := NewOrderStoreGateway(NewClient(time.Second), srv.URL)

	payload, err := domain.NewOrderPayload("1", []domain.EnrichedOrderItem{
		{ProductID: "101", Quantity: 2, ProductName: "Beer", PriceAtOrder: decimal.RequireFromString("5.99")},
	}, nil)
	require.NoError(t, err)

	rec, err := g.CreateOrder(context.Background(), payload)
	require.NoError(t, err)
	assert.Equal(t, domain.ID("order1"), rec.ID)
	assert.Equal(t, domain.ID("1"), rec.UserID)

	got := (*seen)[0]
	assert.Equal(t, "/api/order", got.Path)
	assert.Equal(t, "application/json", got.Header.Get("Content-Type"))
	assert.JSONEq(t, `{"UserId":"1","Items":[{"ProductId":"101","Quantity":2,"ProductName":"Beer","PriceAtOrder":"5.99"}],"TotalPrice":"11.98"}`, got.Body)
}

func TestOrderStoreGateway_GetOrderNotFound(t *testing.T) {
	srv, _ := newServer(t, http.StatusNotFound, `{"error":"no such order"}`)
	_, err := NewOrderStoreGateway(NewClient(time.Second), srv.URL).GetOrder(context.Background(), "x")

	var nf *apperr.NotFoundError
	require.True(t, errors.As(err, &nf))
	out := apperr.Translate(apperr.OpGet, err)
	assert.Equal(t, http.StatusNotFound, out.Status)
	assert.Equal(t, "Order not found", out.Message)
	assert.Equal(t, "no such order", out.Detail)
}

func TestOrderStoreGateway_UpdateAndCancel(t *testing.T) {
	srv, seen := newServer(t, http.StatusOK, `{"id":"o1","UserId":"1","Status":"Shipped"}`)
	g := NewOrderStoreGateway(NewClient(time.Second), srv.URL)

	rec, err := g.UpdateStatus(context.Background(), "o1", domain.StatusShipped)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusShipped, rec.Status)

	_, err = g.CancelOrder(context.Background(), "o1")
	require.NoError(t, err)

	assert.Equal(t, http.MethodPut, (*seen)[0].Method)
	assert.Equal(t, "/api/order/o1/status", (*seen)[0].Path)
	assert.JSONEq(t, `{"Status":"Shipped"}`, (*seen)[0].Body)
	assert.Equal(t, http.MethodDelete, (*seen)[1].Method)
	assert.Equal(t, "/api/order/o1", (*seen)[1].Path)
}

func TestOrderStoreGateway_ListByUser(t *testing.T) {
	srv, seen := newServer(t, http.StatusOK, `[{"id":"a","UserId":1},{"id":"b","UserId":1}]`)
	records, err := NewOrderStoreGateway(NewClient(time.Second), srv.URL).ListByUser(context.Background(), "1", domain.StatusPending)

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "/api/order/user/1", (*seen)[0].Path)
	assert.Equal(t, "status=Pending", (*seen)[0].Query)

	body, err := json.Marshal(records)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"a","UserId":1},{"id":"b","UserId":1}]`, string(body))
}

func TestTriggers(t *testing.T) {
	srv, seen := newServer(t, http.StatusOK, `{"paymentId":"p1","status":"Paid"}`)
	client := NewClient(time.Second)

	rec, err := NewPaymentGateway(client, srv.URL).ProcessPayment(context.Background(), "o1", decimal.RequireFromString("11.98"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"paymentId":"p1","status":"Paid"}`, string(rec))

	require.NoError(t, NewShippingGateway(client, srv.URL).CreateShipment(context.Background(), "1", "o1", domain.ShippingAddress{City: "Quito"}))
	require.NoError(t, NewNotificationGateway(client, srv.URL).NotifyStatusChange(context.Background(), "1", "o1", domain.StatusShipped))

	require.Len(t, *seen, 3)
	assert.Equal(t, "/payment/process", (*seen)[0].Path)
	assert.JSONEq(t, `{"OrderId":"o1","Amount":"11.98"}`, (*seen)[0].Body)
	assert.Equal(t, "/shipping/create", (*seen)[1].Path)
	assert.JSONEq(t, `{"UserId":"1","OrderId":"o1","Address":{"city":"Quito"}}`, (*seen)[1].Body)
	assert.Equal(t, "/notifications/order-status", (*seen)[2].Path)
	assert.JSONEq(t, `{"UserId":"1","OrderId":"o1","Status":"Shipped"}`, (*seen)[2].Body)
}

func TestClient_TransportFailures(t *testing.T) {
	t.Run("unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		_, err := NewOrderStoreGateway(NewClient(time.Second), url).GetOrder(context.Background(), "1")

		var terr *apperr.TransportError
		require.True(t, errors.As(err, &terr))
		assert.Equal(t, apperr.ReasonNetwork, terr.Reason)
		out := apperr.Translate(apperr.OpGet, err)
		assert.Equal(t, http.StatusNotFound, out.Status)
		assert.Equal(t, "Network error", out.Detail)
	})

	t.Run("timeout", func(t *testing.T) {
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		t.Cleanup(srv.Close)
		t.Cleanup(func() { close(release) })

		_, err := NewCartGateway(NewClient(50*time.Millisecond), srv.URL).FetchCart(context.Background(), "1")

		var terr *apperr.TransportError
		require.True(t, errors.As(err, &terr))
		assert.Equal(t, apperr.ReasonTimeout, terr.Reason)
	})
}

type recorderFunc func(service, method string, code int, d time.Duration)

func (f recorderFunc) ObserveDownstream(service, method string, code int, d time.Duration) {
	f(service, method, code, d)
}

func TestClient_RecordsEveryCall(t *testing.T) {
	srv, _ := newServer(t, http.StatusInternalServerError, `{}`)
	var codes []int
	client := NewClient(time.Second, WithRecorder(recorderFunc(func(service, method string, code int, _ time.Duration) {
		assert.Equal(t, "cart", service)
		codes = append(codes, code)
	})))

	_, err := NewCartGateway(client, srv.URL).FetchCart(context.Background(), "1")
	require.Error(t, err)
	assert.Equal(t, []int{http.StatusInternalServerError}, codes)
}

func TestClient_PropagatesTraceContext(t *testing.T) {
	srv, seen := newServer(t, http.StatusOK, `[]`)
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	client := NewClient(time.Second, WithTracerProvider(tp), WithPropagators(propagation.TraceContext{}))
	ctx, parent := tp.Tracer("test").Start(context.Background(), "create-order")
	_, err := NewCartGateway(client, srv.URL).FetchCart(ctx, "1")
	parent.End()
	require.NoError(t, err)

	require.Len(t, *seen, 1)
	traceparent := (*seen)[0].Header.Get("Traceparent")
	assert.Contains(t, traceparent, parent.SpanContext().TraceID().String())

	var call sdktrace.ReadOnlySpan
	for _, s := range rec.Ended() {
		if s.Name() == "call-cart" {
			call = s
		}
	}
	require.NotNil(t, call, "the transport records a span per call")
	assert.Equal(t, trace.SpanKindClient, call.SpanKind())
	assert.Equal(t, parent.SpanContext().SpanID(), call.Parent().SpanID())
	assert.Contains(t, traceparent, call.SpanContext().SpanID().String(), "the callee continues the client span")
}
