package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/andrey-berenda/storefront/internal/pkg/models"
)

const (
	productsPath      = "/webhook/products"
	pricingPath       = "/webhook/pricing"
	loginPath         = "/webhook/login"
	checkoutPath      = "/webhook/checkout"
	paymentStatusPath = "/webhook/payment-status"
)

// Client talks to the storefront webhook backend. Every call carries the
// x-api-key header and is bounded by the per-request timeout.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	timeout    time.Duration
	newKey     func() string
}

func New(httpClient *http.Client, baseURL string, apiKey string, timeout time.Duration) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		timeout:    timeout,
		newKey:     func() string { return uuid.New().String() },
	}
}

func (c *Client) Products(ctx context.Context) ([]models.Product, error) {
	resp := productsResponse{}
	if err := c.do(ctx, http.MethodGet, productsPath, nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Products, nil
}

func (c *Client) Quote(ctx context.Context, items []models.CartLine) (Quote, error) {
	q := Quote{}
	err := c.do(ctx, http.MethodPost, pricingPath, QuoteRequest{Items: items}, nil, &q)
	return q, err
}

func (c *Client) Login(ctx context.Context, phone, password string) (models.User, error) {
	u := models.User{}
	err := c.do(ctx, http.MethodPost, loginPath, LoginRequest{Phone: phone, Password: password}, nil, &u)
	return u, err
}

// Checkout starts an STK push and returns the id the poller consumes.
func (c *Client) Checkout(ctx context.Context, req CheckoutRequest) (CheckoutResponse, error) {
	resp := CheckoutResponse{}
	header := http.Header{}
	header.Set("Idempotency-Key", c.newKey())
	if err := c.do(ctx, http.MethodPost, checkoutPath, req, header, &resp); err != nil {
		return resp, err
	}
	if resp.CheckoutRequestID == "" {
		return resp, fmt.Errorf("checkout: empty checkout_request_id")
	}
	return resp, nil
}

func (c *Client) PaymentStatus(ctx context.Context, requestID string) (StatusResponse, error) {
	resp := StatusResponse{}
	path := paymentStatusPath + "?request_id=" + url.QueryEscape(requestID)
	err := c.do(ctx, http.MethodGet, path, nil, nil, &resp)
	return resp, err
}

func (c *Client) do(
	ctx context.Context,
	method string,
	path string,
	in any,
	header http.Header,
	out any,
) error {
	op := method + " " + strings.SplitN(path, "?", 2)[0]
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("json.Marshal: %w", err)
		}
		body = bytes.NewReader(b)
	}

	httpRequest, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("http.NewRequestWithContext: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			httpRequest.Header.Add(k, v)
		}
	}
	httpRequest.Header.Set("Accept", "application/json")
	if in != nil {
		httpRequest.Header.Set("Content-Type", "application/json")
	}
	httpRequest.Header.Set("x-api-key", c.apiKey)

	response, err := c.httpClient.Do(httpRequest)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	responseBody, err := io.ReadAll(response.Body)
	if err != nil {
		_ = response.Body.Close()
		return &NetworkError{Op: op, Err: fmt.Errorf("io.ReadAll(response.Body): %w", err)}
	}
	if err = response.Body.Close(); err != nil {
		return fmt.Errorf("response.Body.Close: %w", err)
	}

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return &ProtocolError{Op: op, StatusCode: response.StatusCode, Body: string(responseBody)}
	}
	if out == nil || len(bytes.TrimSpace(responseBody)) == 0 {
		return nil
	}
	if err = json.Unmarshal(responseBody, out); err != nil {
		return fmt.Errorf("json.Unmarshal(responseBody): %w", err)
	}
	return nil
}
