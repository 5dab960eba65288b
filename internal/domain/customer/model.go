// Package customer manages billed counterparties.
package customer

import (
	"strings"
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
)

// Customer is the billed party of an invoice. Name is unique.
type Customer struct {
	ID        id.ID     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	GSTIN     string    `db:"gstin" json:"gstin,omitempty"`
	State     string    `db:"state" json:"state,omitempty"`
	StateCode string    `db:"state_code" json:"stateCode,omitempty"`
	Address   string    `db:"address" json:"address,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Validate checks customer invariants.
func (c *Customer) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return apperror.NewValidation("customer name is required")
	}
	if c.GSTIN != "" && len(c.GSTIN) != 15 {
		return apperror.NewValidation("GSTIN must be 15 characters").
			WithDetail("gstin", c.GSTIN)
	}
	return nil
}
