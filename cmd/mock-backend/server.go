package main

import (
	"fmt"
	"strings"
	"sync"

	"github.com/fasthttp/router"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/andrey-berenda/storefront/internal/pkg/backend"
	"github.com/andrey-berenda/storefront/internal/pkg/models"
)

const deliveryFee = 200

var catalog = []models.Product{
	{ID: "p-1", Name: "Cooking Oil 1L", Category: "food", Price: 350, MOQ: 1, InStock: true},
	{ID: "p-2", Name: "Maize Flour 2kg", Category: "food", Price: 210, MOQ: 2, InStock: true},
	{ID: "p-3", Name: "Bar Soap", Category: "household", Price: 120, MOQ: 3, InStock: true},
	{ID: "p-4", Name: "Solar Lamp", Category: "electronics", Price: 2400, MOQ: 1, InStock: false},
	{ID: "p-5", Name: "Exercise Book 96pg", Category: "stationery", Price: 60, MOQ: 10, InStock: true},
}

// payment is a fake STK push. The phone suffix picks the outcome:
// 000 fails, 111 is cancelled, 999 never completes, anything else succeeds
// once it has been polled confirmAfter times.
type payment struct {
	phone string
	polls int
}

type server struct {
	apiKey       string
	confirmAfter int
	logger       *zap.SugaredLogger

	mu       sync.Mutex
	payments map[string]*payment
}

func newServer(apiKey string, confirmAfter int, logger *zap.SugaredLogger) *server {
	return &server{
		apiKey:       apiKey,
		confirmAfter: confirmAfter,
		logger:       logger,
		payments:     map[string]*payment{},
	}
}

func (s *server) router() *router.Router {
	r := router.New()
	r.GET("/webhook/products", s.auth(s.products))
	r.POST("/webhook/pricing", s.auth(s.pricing))
	r.POST("/webhook/login", s.auth(s.login))
	r.POST("/webhook/checkout", s.auth(s.checkout))
	r.GET("/webhook/payment-status", s.auth(s.paymentStatus))
	return r
}

func (s *server) auth(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if s.apiKey != "" && string(ctx.Request.Header.Peek("x-api-key")) != s.apiKey {
			writeError(ctx, fasthttp.StatusUnauthorized, "invalid api key")
			return
		}
		next(ctx)
	}
}

func (s *server) products(ctx *fasthttp.RequestCtx) {
	writeJSON(ctx, fasthttp.StatusOK, map[string][]models.Product{"products": catalog})
}

func (s *server) pricing(ctx *fasthttp.RequestCtx) {
	var req backend.QuoteRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "invalid body")
		return
	}
	q := backend.Quote{}
	for _, it := range req.Items {
		q.Subtotal += it.UnitPrice * it.Quantity
	}
	if q.Subtotal > 0 {
		q.DeliveryFee = deliveryFee
	}
	q.Total = q.Subtotal + q.DeliveryFee
	writeJSON(ctx, fasthttp.StatusOK, q)
}

func (s *server) login(ctx *fasthttp.RequestCtx) {
	var req backend.LoginRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil || req.Phone == "" || req.Password == "" {
		writeError(ctx, fasthttp.StatusUnauthorized, "invalid credentials")
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, models.User{
		ID:    "u-" + uuid.NewSHA1(uuid.NameSpaceOID, []byte(req.Phone)).String()[:8],
		Name:  "Shopper",
		Phone: req.Phone,
		Token: uuid.NewString(),
	})
}

func (s *server) checkout(ctx *fasthttp.RequestCtx) {
	var req backend.CheckoutRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "invalid body")
		return
	}
	if req.PhoneNumber == "" || req.Amount <= 0 {
		writeError(ctx, fasthttp.StatusBadRequest, "phone_number and amount are required")
		return
	}
	id := "ws_CO_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:20]

	s.mu.Lock()
	s.payments[id] = &payment{phone: req.PhoneNumber}
	s.mu.Unlock()

	s.logger.Infof("stk push %s: %d KES to %s", id, req.Amount, req.PhoneNumber)
	writeJSON(ctx, fasthttp.StatusOK, backend.CheckoutResponse{CheckoutRequestID: id})
}

func (s *server) paymentStatus(ctx *fasthttp.RequestCtx) {
	id := string(ctx.QueryArgs().Peek("request_id"))

	s.mu.Lock()
	p, ok := s.payments[id]
	if ok {
		p.polls++
	}
	s.mu.Unlock()

	if !ok {
		writeError(ctx, fasthttp.StatusNotFound, "unknown request_id")
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, s.statusOf(id, p))
}

func (s *server) statusOf(id string, p *payment) backend.StatusResponse {
	switch {
	case strings.HasSuffix(p.phone, "000"):
		return backend.StatusResponse{Status: string(models.PaymentStatusFailed), Error: "The balance is insufficient for the transaction."}
	case strings.HasSuffix(p.phone, "111"):
		return backend.StatusResponse{Status: string(models.PaymentStatusCancelled), Error: "Request cancelled by user."}
	case strings.HasSuffix(p.phone, "999"), p.polls < s.confirmAfter:
		return backend.StatusResponse{Status: string(models.PaymentStatusPending)}
	}
	return backend.StatusResponse{
		Status:            string(models.PaymentStatusSuccess),
		OrderID:           fmt.Sprintf("ORD-%s", id[len(id)-6:]),
		MerchantRequestID: "mr-" + id[6:14],
	}
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		writeError(ctx, fasthttp.StatusInternalServerError, "internal error")
		return
	}
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(b)
}

func writeError(ctx *fasthttp.RequestCtx, status int, msg string) {
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBodyString(fmt.Sprintf(`{"error":%q}`, msg))
}
