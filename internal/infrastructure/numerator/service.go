// Package numerator provides the invoice number allocator.
// It implements core/numerator.Allocator over a core/numerator.CounterStore.
package numerator

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"stockledger/internal/core/apperror"
	corenumerator "stockledger/internal/core/numerator"
	"stockledger/pkg/logger"
)

var tracer = otel.Tracer("stockledger/numerator")

// Service allocates invoice numbers from a durable counter.
//
// The counter is loaded once at construction and saved on every allocation.
// Only one process may own a given store: there is no cross-process locking.
type Service struct {
	cfg   corenumerator.Config
	store corenumerator.CounterStore

	mu      sync.Mutex
	counter int64
}

// Ensure compile-time interface compliance.
var _ corenumerator.Allocator = (*Service)(nil)

// New loads the counter from store and returns a ready allocator.
func New(ctx context.Context, cfg corenumerator.Config, store corenumerator.CounterStore) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("numerator: counter store is required")
	}

	value, found, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load invoice counter: %w", err)
	}
	if value < 0 {
		return nil, fmt.Errorf("load invoice counter: negative value %d", value)
	}

	s := &Service{cfg: cfg, store: store, counter: value}

	logger.Info(ctx, "invoice numerator loaded",
		"prefix", cfg.Prefix,
		"counter", value,
		"initialized", found,
	)
	return s, nil
}

// Next increments the counter, persists it and returns the formatted number.
// The in-memory counter only moves once the store accepted the new value, so a
// failed save never hands out a number that could be issued again after a crash.
func (s *Service) Next(ctx context.Context) (string, error) {
	if s == nil {
		return "", fmt.Errorf("numerator service is not initialized")
	}

	ctx, span := tracer.Start(ctx, "numerator.next")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	candidate := s.counter + 1
	if err := s.store.Save(ctx, candidate); err != nil {
		span.RecordError(err)
		logger.Error(ctx, "persist invoice counter failed", "candidate", candidate, "error", err)
		return "", apperror.NewPersistenceFailure("invoice counter", err)
	}

	s.counter = candidate
	span.SetAttributes(attribute.Int64("numerator.counter", candidate))

	return s.cfg.Format(candidate), nil
}

// Peek returns the number Next would produce. It never mutates state.
// A nil service has no number to offer and returns "".
func (s *Service) Peek(ctx context.Context) string {
	if s == nil {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Format(s.counter + 1)
}
