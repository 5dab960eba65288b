// Package audit defines the append-only audit log contract used by ledger mutations.
package audit

import (
	"context"
	"time"
)

// Action names recorded in the audit log.
const (
	ActionCreate      = "CREATE"
	ActionUpdate      = "UPDATE"
	ActionDelete      = "DELETE"
	ActionStockAdjust = "STOCK_ADJUST"
)

// Entity types recorded in the audit log.
const (
	EntityProduct   = "Product"
	EntityInventory = "Inventory"
	EntityInvoice   = "Invoice"
	EntityCustomer  = "Customer"
)

// Entry is one audit log line.
type Entry struct {
	Action     string `json:"action"`
	EntityType string `json:"entityType"`
	EntityID   string `json:"entityId"`
	Details    string `json:"details"`
}

// Record is a stored entry with the operator and time it was written.
type Record struct {
	Entry
	UserID    string    `json:"userId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Sink accepts audit entries. Implementations write through the unit of work
// carried by ctx, so an entry only survives if the mutation it describes commits.
type Sink interface {
	Record(ctx context.Context, entry Entry) error
}

// NopSink discards entries.
type NopSink struct{}

// Record implements Sink.
func (NopSink) Record(context.Context, Entry) error { return nil }

// Reader reads the trail back.
type Reader interface {
	// EntityHistory returns at most limit records of one entity, newest first.
	EntityHistory(ctx context.Context, entityType, entityID string, limit uint64) ([]Record, error)
}
