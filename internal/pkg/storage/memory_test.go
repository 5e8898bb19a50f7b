package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/andrey-berenda/storefront/internal/pkg/models"
)

func TestMemory_CreateAndSetOutcome(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	err := m.PaymentCreate(ctx, models.PaymentRequest{
		RequestID: "ws_CO_1",
		UserID:    "u-1",
		Phone:     "254712345678",
		Amount:    1500,
	})
	if err != nil {
		t.Fatalf("PaymentCreate: %v", err)
	}

	p, err := m.PaymentGet(ctx, "ws_CO_1")
	if err != nil {
		t.Fatalf("PaymentGet: %v", err)
	}
	if p.Status != models.PaymentStatusPending || p.Amount != 1500 {
		t.Errorf("unexpected record %+v", p)
	}

	err = m.PaymentSetOutcome(ctx, "ws_CO_1", Outcome{
		Status:   models.PaymentStatusSuccess,
		Attempts: 3,
		OrderID:  "ORD-1",
	})
	if err != nil {
		t.Fatalf("PaymentSetOutcome: %v", err)
	}
	p, _ = m.PaymentGet(ctx, "ws_CO_1")
	if p.Status != models.PaymentStatusSuccess || p.Attempts != 3 || p.OrderID != "ORD-1" {
		t.Errorf("unexpected record after outcome %+v", p)
	}
}

func TestMemory_NotFound(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if _, err := m.PaymentGet(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := m.PaymentSetOutcome(ctx, "missing", Outcome{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemory_PendingInCreationOrder(t *testing.T) {
	m := NewMemory()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	m.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		_ = m.PaymentCreate(ctx, models.PaymentRequest{RequestID: id})
	}
	_ = m.PaymentSetOutcome(ctx, "b", Outcome{Status: models.PaymentStatusFailed})

	pending, err := m.PaymentsPending(ctx)
	if err != nil {
		t.Fatalf("PaymentsPending: %v", err)
	}
	if len(pending) != 2 || pending[0].RequestID != "a" || pending[1].RequestID != "c" {
		t.Errorf("expected [a c], got %+v", pending)
	}
}
