// Package tx provides the unit-of-work abstraction used by the ledger.
// Domain services depend on this interface; the storage adapters
// (postgres, memory) provide the implementations.
package tx

import (
	"context"
)

// Manager runs a function as one atomic unit of work.
//
// If fn returns an error, every write performed through ctx inside fn is
// rolled back. If fn succeeds, all of them become visible together.
// Nested calls reuse the unit of work already carried by ctx.
type Manager interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// ReadOnly runs fn against a committed snapshot. Writes are rejected.
	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}
