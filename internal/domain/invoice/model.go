// Package invoice commits invoices: number allocation, stock deduction and
// item snapshots in a single unit of work.
package invoice

import (
	"time"

	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
)

// PaymentStatus of an invoice.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "Pending"
	PaymentPaid    PaymentStatus = "Paid"
	PaymentOverdue PaymentStatus = "Overdue"
)

// Valid reports whether s is a known status.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentOverdue:
		return true
	}
	return false
}

// Invoice is a committed sale. Number is unique and never reused.
type Invoice struct {
	ID            id.ID         `db:"id" json:"id"`
	Number        string        `db:"number" json:"number"`
	CustomerID    id.ID         `db:"customer_id" json:"customerId"`
	Date          time.Time     `db:"date" json:"date"`
	VehicleNumber string        `db:"vehicle_number" json:"vehicleNumber,omitempty"`
	TotalAmount   types.Money   `db:"total_amount" json:"totalAmount"`
	PaymentStatus PaymentStatus `db:"payment_status" json:"paymentStatus"`
	CreatedAt     time.Time     `db:"created_at" json:"createdAt"`

	Items []Item `db:"-" json:"items"`
}

// Item is a value snapshot of one line. It keeps no reference to the product,
// so later price or name changes never alter a committed invoice.
type Item struct {
	ID           id.ID       `db:"id" json:"id"`
	InvoiceID    id.ID       `db:"invoice_id" json:"invoiceId"`
	LineNo       int         `db:"line_no" json:"lineNo"`
	ProductName  string      `db:"product_name" json:"productName"`
	Quantity     int64       `db:"quantity" json:"quantity"`
	PricePerUnit types.Money `db:"price_per_unit" json:"pricePerUnit"`
}

// Total returns quantity × price of the line.
func (i Item) Total() types.Money {
	return types.LineTotal(i.Quantity, i.PricePerUnit)
}

// CommitRequest describes an invoice to commit.
type CommitRequest struct {
	CustomerID    id.ID      `validate:"uuid_required"`
	Date          time.Time  `validate:"-"`
	VehicleNumber string     `validate:"max=50"`
	Items         []LineItem `validate:"required,min=1,dive"`
}

// LineItem references a product by id or, failing that, by name.
// A nil PricePerUnit takes the product's current price.
type LineItem struct {
	ProductID    *id.ID       `validate:"-"`
	ProductName  string       `validate:"required_without=ProductID,max=255"`
	Quantity     int64        `validate:"gt=0"`
	PricePerUnit *types.Money `validate:"-"`
}

// ListFilter narrows an invoice listing. A zero Status matches every invoice.
// Results are newest first unless OldestFirst is set.
type ListFilter struct {
	Status      PaymentStatus
	OldestFirst bool
}
