package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/andrey-berenda/storefront/internal/pkg/models"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.Client(), srv.URL+"/", "test-key", time.Second)
}

func TestPaymentStatus_SendsRequestIDAndAPIKey(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/webhook/payment-status" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.URL.Query().Get("request_id"); got != "ws_CO_1 2" {
			t.Errorf("expected request_id 'ws_CO_1 2', got %q", got)
		}
		if got := r.Header.Get("x-api-key"); got != "test-key" {
			t.Errorf("expected api key header, got %q", got)
		}
		_, _ = w.Write([]byte(`{"status":"SUCCESS","order_id":"ORD-9","merchant_request_id":"m-1"}`))
	})

	resp, err := c.PaymentStatus(context.Background(), "ws_CO_1 2")
	if err != nil {
		t.Fatalf("PaymentStatus: %v", err)
	}
	if resp.PaymentStatus() != models.PaymentStatusSuccess {
		t.Errorf("expected SUCCESS, got %q", resp.Status)
	}
	if resp.OrderID != "ORD-9" || resp.MerchantRequestID != "m-1" {
		t.Errorf("unexpected payload %+v", resp)
	}
}

func TestCheckout_PostsBodyWithIdempotencyKey(t *testing.T) {
	var got CheckoutRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/webhook/checkout" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Idempotency-Key") == "" {
			t.Error("expected an Idempotency-Key header")
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		_, _ = w.Write([]byte(`{"checkout_request_id":"ws_CO_123"}`))
	})

	resp, err := c.Checkout(context.Background(), CheckoutRequest{
		UserID:      "u-1",
		PhoneNumber: "254712345678",
		Amount:      1500,
		CartItems:   []models.CartLine{{ProductID: "p-1", Quantity: 3, UnitPrice: 500}},
		Timestamp:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if resp.CheckoutRequestID != "ws_CO_123" {
		t.Errorf("expected ws_CO_123, got %q", resp.CheckoutRequestID)
	}
	if got.PhoneNumber != "254712345678" || got.Amount != 1500 || len(got.CartItems) != 1 {
		t.Errorf("unexpected body %+v", got)
	}
}

func TestCheckout_EmptyRequestID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	if _, err := c.Checkout(context.Background(), CheckoutRequest{}); err == nil {
		t.Error("expected an error for an empty checkout_request_id")
	}
}

func TestNon2xx_IsProtocolError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	})

	_, err := c.Products(context.Background())

	var pe *ProtocolError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ProtocolError, got %v", err)
	}
	if pe.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", pe.StatusCode)
	}
	if IsNetwork(err) {
		t.Error("a protocol error must not be classified as a network error")
	}
}

func TestTimeout_IsNetworkError(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := New(srv.Client(), srv.URL, "k", 20*time.Millisecond)
	_, err := c.PaymentStatus(context.Background(), "x")

	if !IsNetwork(err) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded in chain, got %v", err)
	}
}

func TestProductsAndQuote(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/webhook/products":
			_, _ = w.Write([]byte(`{"products":[{"id":"p-1","name":"Maize Flour","category":"food","price":200,"moq":2,"in_stock":true}]}`))
		case "/webhook/pricing":
			var q QuoteRequest
			_ = json.NewDecoder(r.Body).Decode(&q)
			if len(q.Items) != 1 {
				t.Errorf("expected one item, got %d", len(q.Items))
			}
			_, _ = w.Write([]byte(`{"subtotal":400,"delivery_fee":100,"total":500}`))
		default:
			http.NotFound(w, r)
		}
	})

	products, err := c.Products(context.Background())
	if err != nil {
		t.Fatalf("Products: %v", err)
	}
	if len(products) != 1 || products[0].MOQ != 2 || !products[0].InStock {
		t.Errorf("unexpected products %+v", products)
	}

	q, err := c.Quote(context.Background(), []models.CartLine{{ProductID: "p-1", Quantity: 2, UnitPrice: 200}})
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if q.Total != 500 {
		t.Errorf("expected total 500, got %d", q.Total)
	}
}
