package main

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/andrey-berenda/storefront/internal/pkg/app"
	"github.com/andrey-berenda/storefront/internal/pkg/checkout"
	"github.com/andrey-berenda/storefront/internal/pkg/config"
	"github.com/andrey-berenda/storefront/internal/pkg/log"
)

type Handler struct {
	cfg    *config.Config
	logger *zap.SugaredLogger
}

// CheckoutForm is the storefront form posted through API Gateway.
type CheckoutForm struct {
	Phone    string
	Password string
	Items    []app.Item
}

func Parse(body string, encoded bool) (CheckoutForm, error) {
	raw := []byte(body)
	if encoded {
		b, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return CheckoutForm{}, fmt.Errorf("base64.DecodeString: %w", err)
		}
		raw = b
	}
	u, err := url.ParseQuery(string(raw))
	if err != nil {
		return CheckoutForm{}, fmt.Errorf("url.ParseQuery: %w", err)
	}
	items, err := app.ParseItems(u["item"])
	if err != nil {
		return CheckoutForm{}, fmt.Errorf("app.ParseItems: %w", err)
	}
	return CheckoutForm{
		Phone:    u.Get("phone"),
		Password: u.Get("password"),
		Items:    items,
	}, nil
}

type response struct {
	RequestID string `json:"request_id,omitempty"`
	Status    string `json:"status"`
	OrderID   string `json:"order_id,omitempty"`
	Message   string `json:"message"`
}

func (h Handler) Invoke(ctx context.Context, payload []byte) ([]byte, error) {
	req := events.APIGatewayProxyRequest{}
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, fmt.Errorf("json.Unmarshal: %w", err)
	}
	form, err := Parse(req.Body, req.IsBase64Encoded)
	if err != nil {
		h.logger.Infof("parse: %v", err)
		return reply(http.StatusBadRequest, response{Status: "INVALID", Message: err.Error()})
	}

	a, err := app.New(ctx, h.cfg, h.logger)
	if err != nil {
		return nil, fmt.Errorf("app.New: %w", err)
	}
	defer a.Close()

	r, err := h.checkout(ctx, a, form)
	if err != nil {
		h.logger.Errorf("checkout: %v", err)
		return reply(http.StatusUnprocessableEntity, response{Status: "ERROR", Message: err.Error()})
	}
	status := http.StatusOK
	if !r.Paid() {
		status = http.StatusPaymentRequired
	}
	return reply(status, response{
		RequestID: r.RequestID,
		Status:    string(r.Status),
		OrderID:   r.OrderID,
		Message:   r.Message,
	})
}

func (h Handler) checkout(ctx context.Context, a *app.App, form CheckoutForm) (checkout.Result, error) {
	sess, err := a.SignIn(ctx, form.Phone, form.Password)
	if err != nil {
		return checkout.Result{}, err
	}
	catalog, err := a.Catalog(ctx)
	if err != nil {
		return checkout.Result{}, err
	}
	if err = app.FillCart(sess, catalog, form.Items); err != nil {
		return checkout.Result{}, err
	}
	c, err := a.Checkout.Start(ctx, sess, nil)
	if err != nil {
		return checkout.Result{}, err
	}
	r, err := c.Wait(ctx)
	if errors.Is(err, checkout.ErrStopped) {
		return r, fmt.Errorf("payment %s: invocation stopped before confirmation", c.Request.RequestID)
	}
	return r, err
}

func reply(status int, body response) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("json.Marshal: %w", err)
	}
	return json.Marshal(events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(b),
	})
}

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}
	logger := log.NewLogger(cfg.Log.Path, cfg.Log.Debug)
	defer func() { _ = logger.Sync() }()

	var h lambda.Handler = Handler{cfg: cfg, logger: logger}
	lambda.Start(h)
}
