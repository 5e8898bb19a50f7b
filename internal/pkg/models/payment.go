package models

import (
	"time"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusSuccess   PaymentStatus = "SUCCESS"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
	PaymentStatusTimeout   PaymentStatus = "TIMEOUT"
)

// ParsePaymentStatus maps a status reported by the payment-status webhook.
// Anything it does not recognise is still pending.
func ParsePaymentStatus(s string) PaymentStatus {
	switch PaymentStatus(s) {
	case PaymentStatusSuccess, PaymentStatusFailed, PaymentStatusCancelled:
		return PaymentStatus(s)
	default:
		return PaymentStatusPending
	}
}

func (s PaymentStatus) Terminal() bool {
	return s != PaymentStatusPending && s != ""
}

type CartLine struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name,omitempty"`
	Quantity  int    `json:"quantity"`
	UnitPrice int    `json:"unit_price"`
}

// PaymentRequest is the snapshot taken when an STK push is initiated.
// Amount is in whole KES.
type PaymentRequest struct {
	RequestID    string
	UserID       string
	Phone        string
	Amount       int
	CartSnapshot []CartLine
}

type PaymentRecord struct {
	RequestID         string
	UserID            string
	Phone             string
	Amount            int
	Status            PaymentStatus
	Attempts          int
	OrderID           string
	MerchantRequestID string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
