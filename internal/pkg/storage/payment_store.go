package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v4"

	"github.com/andrey-berenda/storefront/internal/pkg/models"
)

const insertPayment = `
INSERT INTO payments (
	request_id,
	user_id,
	phone,
	amount,
	cart,
	status
) VALUES ($1, $2, $3, $4, $5, $6);
`

const setPaymentOutcome = `
UPDATE payments
SET status = $2, attempts = $3, order_id = $4, merchant_request_id = $5, updated_at = now()
WHERE request_id = $1;
`

const selectPaymentByID = `
SELECT request_id, user_id, phone, amount, status, attempts, order_id, merchant_request_id, created_at, updated_at
FROM payments
WHERE request_id = $1;
`

const selectPendingPayments = `
SELECT request_id, user_id, phone, amount, status, attempts, order_id, merchant_request_id, created_at, updated_at
FROM payments
WHERE status = $1
ORDER BY created_at, request_id;
`

// Outcome is the terminal result written back once a poll ends.
type Outcome struct {
	Status            models.PaymentStatus
	Attempts          int
	OrderID           string
	MerchantRequestID string
}

func (s *Store) PaymentCreate(ctx context.Context, p models.PaymentRequest) error {
	cart, err := json.Marshal(p.CartSnapshot)
	if err != nil {
		return fmt.Errorf("json.Marshal(cart): %w", err)
	}
	_, err = s.conn.Exec(
		ctx,
		insertPayment,
		p.RequestID,
		p.UserID,
		p.Phone,
		p.Amount,
		cart,
		models.PaymentStatusPending,
	)
	if err != nil {
		return fmt.Errorf("conn.Exec: %w", err)
	}
	return nil
}

func (s *Store) PaymentSetOutcome(ctx context.Context, requestID string, o Outcome) error {
	result, err := s.conn.Exec(
		ctx,
		setPaymentOutcome,
		requestID,
		o.Status,
		o.Attempts,
		o.OrderID,
		o.MerchantRequestID,
	)
	if err != nil {
		return fmt.Errorf("conn.Exec: %w", err)
	}
	if result.RowsAffected() != 1 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) PaymentGet(ctx context.Context, requestID string) (*models.PaymentRecord, error) {
	rows, err := s.conn.Query(ctx, selectPaymentByID, requestID)
	if err != nil {
		return nil, fmt.Errorf("conn.Query: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, ErrNotFound
	}
	p, err := scanPayment(rows)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// PaymentsPending lists payments whose poll never reached a terminal status,
// typically because the process stopped mid-poll.
func (s *Store) PaymentsPending(ctx context.Context) ([]models.PaymentRecord, error) {
	rows, err := s.conn.Query(ctx, selectPendingPayments, models.PaymentStatusPending)
	if err != nil {
		return nil, fmt.Errorf("conn.Query: %w", err)
	}
	defer rows.Close()

	var result []models.PaymentRecord
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows.Err: %w", err)
	}
	return result, nil
}

func scanPayment(rows pgx.Rows) (models.PaymentRecord, error) {
	p := models.PaymentRecord{}
	var createdAt, updatedAt time.Time
	err := rows.Scan(
		&p.RequestID,
		&p.UserID,
		&p.Phone,
		&p.Amount,
		&p.Status,
		&p.Attempts,
		&p.OrderID,
		&p.MerchantRequestID,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return p, fmt.Errorf("rows.Scan: %w", err)
	}
	p.CreatedAt = createdAt
	p.UpdatedAt = updatedAt
	return p, nil
}
