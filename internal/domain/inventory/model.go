// Package inventory provides the stock ledger: products, their materialized
// stock and the append-only history of every change to it.
package inventory

import (
	"strings"
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
)

// DefaultLowStockThreshold is used for classification only, never enforcement.
const DefaultLowStockThreshold int64 = 10

// DefaultAdjustReason is recorded when a manual adjustment carries no note.
const DefaultAdjustReason = "Manual adjustment"

// Product is referenced by id from the ledger. Name is unique.
type Product struct {
	ID        id.ID       `db:"id" json:"id"`
	Name      string      `db:"name" json:"name"`
	Price     types.Money `db:"price" json:"price"`
	CreatedAt time.Time   `db:"created_at" json:"createdAt"`
}

// Validate checks product invariants.
func (p *Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return apperror.NewValidation("product name is required")
	}
	if p.Price.IsNegative() {
		return apperror.NewValidation("product price must not be negative")
	}
	return nil
}

// Inventory is the materialized current stock of one product.
// It is mutated exclusively by Service.
type Inventory struct {
	ProductID         id.ID     `db:"product_id" json:"productId"`
	StockQuantity     int64     `db:"stock_quantity" json:"stockQuantity"`
	LowStockThreshold int64     `db:"low_stock_threshold" json:"lowStockThreshold"`
	UpdatedAt         time.Time `db:"updated_at" json:"updatedAt"`
}

// NewInventory returns an empty inventory record for productID.
func NewInventory(productID id.ID) *Inventory {
	return &Inventory{
		ProductID:         productID,
		StockQuantity:     0,
		LowStockThreshold: DefaultLowStockThreshold,
		UpdatedAt:         time.Now().UTC(),
	}
}

// HistoryRecord is one immutable ledger entry.
// Replaying a product's records in (timestamp, id) order and summing
// ChangeQuantity reproduces each NewStock and finally Inventory.StockQuantity.
type HistoryRecord struct {
	ID             id.ID     `db:"id" json:"id"`
	ProductID      id.ID     `db:"product_id" json:"productId"`
	ChangeQuantity int64     `db:"change_quantity" json:"changeQuantity"`
	NewStock       int64     `db:"new_stock" json:"newStock"`
	Reason         string    `db:"reason" json:"reason"`
	UserID         *string   `db:"user_id" json:"userId,omitempty"`
	Timestamp      time.Time `db:"timestamp" json:"timestamp"`
}

// NewHistoryRecord creates a ledger entry stamped with a fresh UUIDv7.
func NewHistoryRecord(productID id.ID, change, newStock int64, reason, userID string) *HistoryRecord {
	rec := &HistoryRecord{
		ID:             id.New(),
		ProductID:      productID,
		ChangeQuantity: change,
		NewStock:       newStock,
		Reason:         reason,
		Timestamp:      time.Now().UTC(),
	}
	if userID != "" {
		rec.UserID = &userID
	}
	return rec
}

// InvoiceReason is the provenance recorded for invoice deductions.
func InvoiceReason(number string) string {
	return "Invoice " + number
}

// StockView pairs a product with its materialized stock and classification.
type StockView struct {
	Product   Product     `json:"product"`
	Stock     int64       `json:"stock"`
	Threshold int64       `json:"lowStockThreshold"`
	Status    StockStatus `json:"status"`
}
