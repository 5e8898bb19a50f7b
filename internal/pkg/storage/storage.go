package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"go.uber.org/zap"
)

var ErrNotFound = errors.New("not found")

const schema = `
CREATE TABLE IF NOT EXISTS payments (
	request_id          TEXT PRIMARY KEY,
	user_id             TEXT NOT NULL,
	phone               TEXT NOT NULL,
	amount              INTEGER NOT NULL,
	cart                JSONB NOT NULL DEFAULT '[]',
	status              TEXT NOT NULL,
	attempts            INTEGER NOT NULL DEFAULT 0,
	order_id            TEXT NOT NULL DEFAULT '',
	merchant_request_id TEXT NOT NULL DEFAULT '',
	created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

type Store struct {
	conn   *pgxpool.Pool
	logger *zap.SugaredLogger
}

func New(ctx context.Context, databaseURL string, logger *zap.SugaredLogger) (*Store, error) {
	pool, err := pgxpool.Connect(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.Connect: %w", err)
	}
	return &Store{conn: pool, logger: logger}, nil
}

func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.conn.Exec(ctx, schema); err != nil {
		return fmt.Errorf("conn.Exec(schema): %w", err)
	}
	return nil
}

func (s *Store) Close() {
	s.conn.Close()
}
