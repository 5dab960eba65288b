package customer

import (
	"context"

	"stockledger/internal/core/id"
)

// Repository stores customers.
type Repository interface {
	Create(ctx context.Context, c *Customer) error
	GetByID(ctx context.Context, customerID id.ID) (*Customer, error)
	GetByName(ctx context.Context, name string) (*Customer, error)
	List(ctx context.Context) ([]Customer, error)
}
