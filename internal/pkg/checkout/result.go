package checkout

import (
	"fmt"

	"github.com/andrey-berenda/storefront/internal/pkg/models"
	"github.com/andrey-berenda/storefront/internal/pkg/poller"
)

const (
	msgFailed    = "Payment failed. Please try again."
	msgCancelled = "Payment was cancelled on your phone."
	msgTimeout   = "We did not get a payment confirmation in time. " +
		"Check your M-Pesa messages on your phone before trying again."
)

// Result is the user-facing end of a checkout.
type Result struct {
	RequestID string
	Status    models.PaymentStatus
	Attempts  int
	OrderID   string
	Message   string
}

func (r Result) Paid() bool {
	return r.Status == models.PaymentStatusSuccess
}

func resultFrom(o poller.Outcome) Result {
	r := Result{
		RequestID: o.RequestID,
		Status:    o.Status,
		Attempts:  o.Attempts,
		OrderID:   o.Response.OrderID,
	}
	switch o.Status {
	case models.PaymentStatusSuccess:
		r.Message = "Payment received."
		if r.OrderID != "" {
			r.Message = fmt.Sprintf("Payment received. Order %s is confirmed.", r.OrderID)
		}
	case models.PaymentStatusTimeout:
		r.Message = msgTimeout
	case models.PaymentStatusCancelled:
		r.Message = orDefault(o.Response.Error, msgCancelled)
	default:
		r.Message = orDefault(o.Response.Error, msgFailed)
	}
	return r
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
