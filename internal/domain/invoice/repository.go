package invoice

import (
	"context"
)

// Repository stores invoices and their items.
type Repository interface {
	// Create inserts the header. Number must be unique.
	Create(ctx context.Context, inv *Invoice) error

	// CreateItems inserts the item snapshots of one invoice.
	CreateItems(ctx context.Context, items []Item) error

	// GetByNumber returns the invoice with its items, NOT_FOUND when absent.
	GetByNumber(ctx context.Context, number string) (*Invoice, error)

	// List returns invoice headers, without items, ordered by date.
	List(ctx context.Context, filter ListFilter) ([]Invoice, error)

	// UpdatePaymentStatus sets the status, NOT_FOUND when the number is unknown.
	UpdatePaymentStatus(ctx context.Context, number string, status PaymentStatus) error
}
