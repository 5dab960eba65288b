package numerator

import (
	"context"
)

// MockAllocator is a test implementation of Allocator.
type MockAllocator struct {
	NextFunc func(ctx context.Context) (string, error)
	PeekFunc func(ctx context.Context) string
}

// Next implements Allocator.
func (m *MockAllocator) Next(ctx context.Context) (string, error) {
	if m.NextFunc != nil {
		return m.NextFunc(ctx)
	}
	return "MOCK-00001", nil
}

// Peek implements Allocator.
func (m *MockAllocator) Peek(ctx context.Context) string {
	if m.PeekFunc != nil {
		return m.PeekFunc(ctx)
	}
	return "MOCK-00001"
}

// Ensure compile-time interface compliance.
var _ Allocator = (*MockAllocator)(nil)
