package backend

import (
	"time"

	"github.com/andrey-berenda/storefront/internal/pkg/models"
)

type CheckoutRequest struct {
	UserID      string            `json:"user_id"`
	PhoneNumber string            `json:"phone_number"`
	Amount      int               `json:"amount"`
	CartItems   []models.CartLine `json:"cart_items"`
	Timestamp   time.Time         `json:"timestamp"`
}

type CheckoutResponse struct {
	CheckoutRequestID string `json:"checkout_request_id"`
}

type StatusResponse struct {
	Status            string `json:"status"`
	Error             string `json:"error,omitempty"`
	OrderID           string `json:"order_id,omitempty"`
	MerchantRequestID string `json:"merchant_request_id,omitempty"`
}

func (r StatusResponse) PaymentStatus() models.PaymentStatus {
	return models.ParsePaymentStatus(r.Status)
}

type QuoteRequest struct {
	Items []models.CartLine `json:"items"`
}

type Quote struct {
	Subtotal    int `json:"subtotal"`
	DeliveryFee int `json:"delivery_fee"`
	Total       int `json:"total"`
}

type LoginRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type productsResponse struct {
	Products []models.Product `json:"products"`
}
