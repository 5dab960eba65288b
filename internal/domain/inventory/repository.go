package inventory

import (
	"context"

	"stockledger/internal/core/id"
)

// ProductRepository stores products.
type ProductRepository interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, productID id.ID) (*Product, error)
	GetByName(ctx context.Context, name string) (*Product, error)
	List(ctx context.Context) ([]Product, error)

	// Delete removes the product and, by cascade, its inventory record.
	// History records are kept and become orphaned.
	Delete(ctx context.Context, productID id.ID) error
}

// InventoryRepository stores materialized stock.
type InventoryRepository interface {
	// GetForUpdate returns the inventory row locked for the current unit of
	// work, or a NOT_FOUND AppError when the product has none yet.
	GetForUpdate(ctx context.Context, productID id.ID) (*Inventory, error)

	// Get returns the inventory row without locking, NOT_FOUND when absent.
	Get(ctx context.Context, productID id.ID) (*Inventory, error)

	Create(ctx context.Context, inv *Inventory) error
	UpdateStock(ctx context.Context, productID id.ID, stock int64) error

	// List returns every inventory record.
	List(ctx context.Context) ([]Inventory, error)
}

// HistoryRepository is the stock ledger store: append-only.
type HistoryRepository interface {
	// Append inserts rec as is. It does not check the arithmetic.
	Append(ctx context.Context, rec *HistoryRecord) error

	// ListByProduct returns the product's records ordered by (timestamp, id).
	ListByProduct(ctx context.Context, productID id.ID) ([]HistoryRecord, error)

	// ListOrphaned returns ids of records whose product no longer exists.
	ListOrphaned(ctx context.Context) ([]id.ID, error)
}
