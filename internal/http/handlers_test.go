package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/akashcruz/pos-system-lkvoice/internal/cart"
	"github.com/akashcruz/pos-system-lkvoice/internal/checkout"
	"github.com/akashcruz/pos-system-lkvoice/internal/dashboard"
	"github.com/akashcruz/pos-system-lkvoice/internal/domain"
	"github.com/akashcruz/pos-system-lkvoice/internal/lookup"
	"github.com/akashcruz/pos-system-lkvoice/internal/store/memory"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturingPublisher struct {
	published chan *domain.Sale
}

func (p *capturingPublisher) PublishSaleCompleted(_ context.Context, sale *domain.Sale) error {
	p.published <- sale
	return nil
}

func (p *capturingPublisher) Close() error { return nil }

type testServer struct {
	router    chi.Router
	store     *memory.Store
	publisher *capturingPublisher
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	st := memory.NewStore()
	sessions := cart.NewManager(0)
	t.Cleanup(func() { sessions.Close() })

	lookupSvc := lookup.NewService(st, nil, nil)
	engine := checkout.NewEngine(st, nil)
	publisher := &capturingPublisher{published: make(chan *domain.Sale, 1)}

	router := NewRouter(Handlers{
		Products:  NewProductHandler(st, lookupSvc),
		Carts:     NewCartHandler(sessions, lookupSvc),
		Checkout:  NewCheckoutHandler(sessions, engine, lookupSvc, publisher, nil),
		Dashboard: NewDashboardHandler(dashboard.NewService(st, time.UTC)),
	}, 30*time.Second)

	return &testServer{router: router, store: st, publisher: publisher}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	request := httptest.NewRequest(method, path, &buf)
	recorder := httptest.NewRecorder()
	s.router.ServeHTTP(recorder, request)
	return recorder
}

func decode[T any](t *testing.T, recorder *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&v))
	return v
}

func (s *testServer) seedProduct(t *testing.T, barcode, name string, price float64, stock int) {
	t.Helper()
	recorder := s.do(t, http.MethodPost, "/api/v1/products", UpsertProductRequestDTO{
		Barcode: barcode, Name: name, Price: price, Stock: stock,
	})
	require.Equal(t, http.StatusOK, recorder.Code)
}

func (s *testServer) createSession(t *testing.T) string {
	t.Helper()
	recorder := s.do(t, http.MethodPost, "/api/v1/carts", nil)
	require.Equal(t, http.StatusCreated, recorder.Code)
	return decode[CartResponseDTO](t, recorder).SessionID
}

func TestProductUpsertAndGet(t *testing.T) {
	srv := newTestServer(t)

	srv.seedProduct(t, "4791234567890", "Milk 1L", 350, 12)

	recorder := srv.do(t, http.MethodGet, "/api/v1/products/4791234567890", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	product := decode[domain.Product](t, recorder)
	assert.Equal(t, "Milk 1L", product.Name)
	assert.Equal(t, 350.0, product.Price)
	assert.Equal(t, 12, product.Stock)
}

func TestProductUpsert_Validation(t *testing.T) {
	srv := newTestServer(t)

	cases := []struct {
		name string
		req  UpsertProductRequestDTO
		code string
	}{
		{"missing barcode", UpsertProductRequestDTO{Name: "Milk", Price: 100, Stock: 1}, "invalid_barcode"},
		{"missing name", UpsertProductRequestDTO{Barcode: "123", Price: 100, Stock: 1}, "invalid_name"},
		{"negative price", UpsertProductRequestDTO{Barcode: "123", Name: "Milk", Price: -1, Stock: 1}, "invalid_price"},
		{"negative stock", UpsertProductRequestDTO{Barcode: "123", Name: "Milk", Price: 100, Stock: -1}, "invalid_stock"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			recorder := srv.do(t, http.MethodPost, "/api/v1/products", tc.req)
			assert.Equal(t, http.StatusBadRequest, recorder.Code)
			assert.Equal(t, tc.code, decode[ErrorResponse](t, recorder).Code)
		})
	}
}

func TestProductGet_NotFound(t *testing.T) {
	srv := newTestServer(t)

	recorder := srv.do(t, http.MethodGet, "/api/v1/products/0000000000000", nil)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
	assert.Equal(t, "product_not_found", decode[ErrorResponse](t, recorder).Code)
}

func TestProductList(t *testing.T) {
	srv := newTestServer(t)
	srv.seedProduct(t, "222", "Tea", 50, 5)
	srv.seedProduct(t, "111", "Milk", 100, 5)

	recorder := srv.do(t, http.MethodGet, "/api/v1/products", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	products := decode[[]domain.Product](t, recorder)
	require.Len(t, products, 2)
	assert.Equal(t, "111", products[0].Barcode)
	assert.Equal(t, "222", products[1].Barcode)
}

func TestCart_AddItem(t *testing.T) {
	srv := newTestServer(t)
	srv.seedProduct(t, "123", "Milk", 100, 5)
	sessionID := srv.createSession(t)

	recorder := srv.do(t, http.MethodPost, "/api/v1/carts/"+sessionID+"/items", AddItemRequestDTO{Barcode: "123"})
	require.Equal(t, http.StatusCreated, recorder.Code)

	// Scanning the same barcode again merges into the existing line.
	recorder = srv.do(t, http.MethodPost, "/api/v1/carts/"+sessionID+"/items", AddItemRequestDTO{Barcode: "123"})
	require.Equal(t, http.StatusCreated, recorder.Code)

	resp := decode[CartResponseDTO](t, recorder)
	require.Len(t, resp.Lines, 1)
	assert.Equal(t, 2, resp.Lines[0].Quantity)
	assert.Equal(t, 200.0, resp.Total)
}

func TestCart_AddItem_UnknownProduct(t *testing.T) {
	srv := newTestServer(t)
	sessionID := srv.createSession(t)

	recorder := srv.do(t, http.MethodPost, "/api/v1/carts/"+sessionID+"/items", AddItemRequestDTO{Barcode: "999"})
	assert.Equal(t, http.StatusNotFound, recorder.Code)
	assert.Equal(t, "product_not_found", decode[ErrorResponse](t, recorder).Code)
}

func TestCart_AddItem_OutOfStock(t *testing.T) {
	srv := newTestServer(t)
	srv.seedProduct(t, "123", "Milk", 100, 0)
	sessionID := srv.createSession(t)

	recorder := srv.do(t, http.MethodPost, "/api/v1/carts/"+sessionID+"/items", AddItemRequestDTO{Barcode: "123"})
	assert.Equal(t, http.StatusConflict, recorder.Code)
	assert.Equal(t, "out_of_stock", decode[ErrorResponse](t, recorder).Code)
}

func TestCart_UnknownSession(t *testing.T) {
	srv := newTestServer(t)

	recorder := srv.do(t, http.MethodGet, "/api/v1/carts/no-such-session", nil)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
	assert.Equal(t, "session_not_found", decode[ErrorResponse](t, recorder).Code)
}

func TestCart_UpdateQuantityAndRemove(t *testing.T) {
	srv := newTestServer(t)
	srv.seedProduct(t, "123", "Milk", 100, 5)
	srv.seedProduct(t, "456", "Tea", 50, 5)
	sessionID := srv.createSession(t)

	srv.do(t, http.MethodPost, "/api/v1/carts/"+sessionID+"/items", AddItemRequestDTO{Barcode: "123"})
	srv.do(t, http.MethodPost, "/api/v1/carts/"+sessionID+"/items", AddItemRequestDTO{Barcode: "456"})

	recorder := srv.do(t, http.MethodPut, "/api/v1/carts/"+sessionID+"/items/123", UpdateQuantityRequestDTO{Quantity: 4})
	require.Equal(t, http.StatusOK, recorder.Code)
	resp := decode[CartResponseDTO](t, recorder)
	assert.Equal(t, 450.0, resp.Total)

	recorder = srv.do(t, http.MethodDelete, "/api/v1/carts/"+sessionID+"/items/123", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	resp = decode[CartResponseDTO](t, recorder)
	require.Len(t, resp.Lines, 1)
	assert.Equal(t, "456", resp.Lines[0].Barcode)
}

func TestCart_UpdateQuantity_Invalid(t *testing.T) {
	srv := newTestServer(t)
	srv.seedProduct(t, "123", "Milk", 100, 5)
	sessionID := srv.createSession(t)
	srv.do(t, http.MethodPost, "/api/v1/carts/"+sessionID+"/items", AddItemRequestDTO{Barcode: "123"})

	recorder := srv.do(t, http.MethodPut, "/api/v1/carts/"+sessionID+"/items/123", UpdateQuantityRequestDTO{Quantity: 0})
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestCart_ClearSession(t *testing.T) {
	srv := newTestServer(t)
	sessionID := srv.createSession(t)

	recorder := srv.do(t, http.MethodDelete, "/api/v1/carts/"+sessionID, nil)
	require.Equal(t, http.StatusNoContent, recorder.Code)

	recorder = srv.do(t, http.MethodGet, "/api/v1/carts/"+sessionID, nil)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestCheckout_Success(t *testing.T) {
	srv := newTestServer(t)
	srv.seedProduct(t, "123", "Milk", 100, 5)
	srv.seedProduct(t, "456", "Tea", 50, 5)
	sessionID := srv.createSession(t)

	srv.do(t, http.MethodPost, "/api/v1/carts/"+sessionID+"/items", AddItemRequestDTO{Barcode: "123"})
	srv.do(t, http.MethodPost, "/api/v1/carts/"+sessionID+"/items", AddItemRequestDTO{Barcode: "123"})
	srv.do(t, http.MethodPost, "/api/v1/carts/"+sessionID+"/items", AddItemRequestDTO{Barcode: "456"})

	recorder := srv.do(t, http.MethodPost, "/api/v1/carts/"+sessionID+"/checkout", nil)
	require.Equal(t, http.StatusCreated, recorder.Code)

	sale := decode[domain.Sale](t, recorder)
	assert.NotEmpty(t, sale.ID)
	assert.Equal(t, 250.0, sale.TotalAmount)
	require.Len(t, sale.Items, 2)

	// Stock was decremented atomically.
	milk, err := srv.store.GetProduct(context.Background(), "123")
	require.NoError(t, err)
	assert.Equal(t, 3, milk.Stock)

	// The session survives with an empty cart.
	recorder = srv.do(t, http.MethodGet, "/api/v1/carts/"+sessionID, nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Empty(t, decode[CartResponseDTO](t, recorder).Lines)

	// The committed sale is announced to downstream consumers.
	select {
	case published := <-srv.publisher.published:
		assert.Equal(t, sale.ID, published.ID)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for sale event")
	}
}

func TestCheckout_EmptyCart(t *testing.T) {
	srv := newTestServer(t)
	sessionID := srv.createSession(t)

	recorder := srv.do(t, http.MethodPost, "/api/v1/carts/"+sessionID+"/checkout", nil)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Equal(t, "empty_cart", decode[ErrorResponse](t, recorder).Code)
}

func TestCheckout_InsufficientStock(t *testing.T) {
	srv := newTestServer(t)
	srv.seedProduct(t, "123", "Milk", 100, 2)
	sessionID := srv.createSession(t)

	srv.do(t, http.MethodPost, "/api/v1/carts/"+sessionID+"/items", AddItemRequestDTO{Barcode: "123"})
	srv.do(t, http.MethodPut, "/api/v1/carts/"+sessionID+"/items/123", UpdateQuantityRequestDTO{Quantity: 3})

	recorder := srv.do(t, http.MethodPost, "/api/v1/carts/"+sessionID+"/checkout", nil)
	require.Equal(t, http.StatusConflict, recorder.Code)
	resp := decode[ErrorResponse](t, recorder)
	assert.Equal(t, "insufficient_stock", resp.Code)
	assert.Contains(t, resp.Details, "available=2")
	assert.Contains(t, resp.Details, "requested=3")

	// Nothing was written and the cart still holds the lines for correction.
	milk, err := srv.store.GetProduct(context.Background(), "123")
	require.NoError(t, err)
	assert.Equal(t, 2, milk.Stock)

	cartResp := srv.do(t, http.MethodGet, "/api/v1/carts/"+sessionID, nil)
	assert.Len(t, decode[CartResponseDTO](t, cartResp).Lines, 1)
}

func TestCheckout_UnknownSession(t *testing.T) {
	srv := newTestServer(t)

	recorder := srv.do(t, http.MethodPost, "/api/v1/carts/no-such-session/checkout", nil)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestDashboard_Today(t *testing.T) {
	srv := newTestServer(t)
	srv.seedProduct(t, "123", "Milk", 100, 5)
	sessionID := srv.createSession(t)
	srv.do(t, http.MethodPost, "/api/v1/carts/"+sessionID+"/items", AddItemRequestDTO{Barcode: "123"})
	require.Equal(t, http.StatusCreated, srv.do(t, http.MethodPost, "/api/v1/carts/"+sessionID+"/checkout", nil).Code)

	recorder := srv.do(t, http.MethodGet, "/api/v1/dashboard/today", nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	summary := decode[dashboard.Summary](t, recorder)
	assert.Equal(t, 1, summary.Orders)
	assert.Equal(t, 100.0, summary.TotalAmount)
	require.Len(t, summary.Recent, 1)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	recorder := srv.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, recorder.Code)
}
