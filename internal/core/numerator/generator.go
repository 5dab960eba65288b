package numerator

import (
	"context"
)

// Allocator issues strictly increasing, gap-free invoice numbers.
// Implementations live in the infrastructure layer.
type Allocator interface {
	// Next durably records and returns the next number.
	// On error no number has been issued.
	Next(ctx context.Context) (string, error)

	// Peek returns what Next would produce without changing state.
	Peek(ctx context.Context) string
}

// CounterStore holds the single durable counter behind an Allocator.
// It is a separate resource from the relational store.
type CounterStore interface {
	// Load returns the last issued value. found is false before first use.
	Load(ctx context.Context) (value int64, found bool, err error)

	// Save overwrites the stored value in full.
	Save(ctx context.Context, value int64) error
}
