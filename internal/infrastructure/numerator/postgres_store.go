package numerator

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// DefaultSequenceKey is the sys_sequences key holding the invoice counter.
const DefaultSequenceKey = "INV"

// Querier interface for database operations.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore keeps the counter in sys_sequences.
//
// The querier must be the pool, never the business transaction: the counter
// is a separate resource and its writes commit on their own.
type PostgresStore struct {
	querier Querier
	key     string
}

// NewPostgresStore creates a counter store for key.
func NewPostgresStore(querier Querier, key string) *PostgresStore {
	if key == "" {
		key = DefaultSequenceKey
	}
	return &PostgresStore{querier: querier, key: key}
}

// Load reads the current value for the key.
func (s *PostgresStore) Load(ctx context.Context) (int64, bool, error) {
	var value int64
	err := s.querier.QueryRow(ctx,
		`SELECT current_val FROM sys_sequences WHERE key = $1`, s.key,
	).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("load sequence %s: %w", s.key, err)
	}
	return value, true, nil
}

// Save upserts value for the key.
func (s *PostgresStore) Save(ctx context.Context, value int64) error {
	var stored int64
	err := s.querier.QueryRow(ctx, `
		INSERT INTO sys_sequences (key, current_val)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET current_val = $2
		RETURNING current_val
	`, s.key, value).Scan(&stored)
	if err != nil {
		return fmt.Errorf("save sequence %s: %w", s.key, err)
	}
	return nil
}
