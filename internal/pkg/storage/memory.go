package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/andrey-berenda/storefront/internal/pkg/models"
)

// Memory keeps payment records in process. Used when no database is
// configured and in tests.
type Memory struct {
	mu       sync.Mutex
	payments map[string]models.PaymentRecord
	now      func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		payments: make(map[string]models.PaymentRecord),
		now:      time.Now,
	}
}

func (m *Memory) PaymentCreate(_ context.Context, p models.PaymentRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	m.payments[p.RequestID] = models.PaymentRecord{
		RequestID: p.RequestID,
		UserID:    p.UserID,
		Phone:     p.Phone,
		Amount:    p.Amount,
		Status:    models.PaymentStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return nil
}

func (m *Memory) PaymentSetOutcome(_ context.Context, requestID string, o Outcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[requestID]
	if !ok {
		return ErrNotFound
	}
	p.Status = o.Status
	p.Attempts = o.Attempts
	p.OrderID = o.OrderID
	p.MerchantRequestID = o.MerchantRequestID
	p.UpdatedAt = m.now()
	m.payments[requestID] = p
	return nil
}

func (m *Memory) PaymentGet(_ context.Context, requestID string) (*models.PaymentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[requestID]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m *Memory) PaymentsPending(_ context.Context) ([]models.PaymentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []models.PaymentRecord
	for _, p := range m.payments {
		if p.Status == models.PaymentStatusPending {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}
