package dto

import (
	"fmt"
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/invoice"
)

// --- Request DTOs ---

type CommitInvoiceRequest struct {
	CustomerID    string               `json:"customerId" binding:"required"`
	Date          *time.Time           `json:"date,omitempty"`
	VehicleNumber string               `json:"vehicleNumber,omitempty"`
	Items         []InvoiceLineRequest `json:"items" binding:"required"`
}

// InvoiceLineRequest references a product by productId or by productName.
type InvoiceLineRequest struct {
	ProductID    *string      `json:"productId,omitempty"`
	ProductName  string       `json:"productName,omitempty"`
	Quantity     int64        `json:"quantity"`
	PricePerUnit *types.Money `json:"pricePerUnit,omitempty"`
}

func (r *CommitInvoiceRequest) ToDomain() (invoice.CommitRequest, error) {
	customerID, err := id.Parse(r.CustomerID)
	if err != nil {
		return invoice.CommitRequest{}, apperror.NewValidation("invalid customerId").WithCause(err)
	}

	req := invoice.CommitRequest{
		CustomerID:    customerID,
		VehicleNumber: r.VehicleNumber,
		Items:         make([]invoice.LineItem, 0, len(r.Items)),
	}
	if r.Date != nil {
		req.Date = *r.Date
	}

	for i, line := range r.Items {
		item := invoice.LineItem{
			ProductName:  line.ProductName,
			Quantity:     line.Quantity,
			PricePerUnit: line.PricePerUnit,
		}
		if line.ProductID != nil && *line.ProductID != "" {
			productID, err := id.Parse(*line.ProductID)
			if err != nil {
				return invoice.CommitRequest{}, apperror.NewValidation(fmt.Sprintf("invalid productId on line %d", i+1)).WithCause(err)
			}
			item.ProductID = &productID
		}
		req.Items = append(req.Items, item)
	}
	return req, nil
}

// ListInvoicesQuery filters GET /invoices.
type ListInvoicesQuery struct {
	Status string `form:"status"`
	Order  string `form:"order" binding:"omitempty,oneof=newest oldest"`
}

func (q ListInvoicesQuery) ToDomain() invoice.ListFilter {
	return invoice.ListFilter{
		Status:      invoice.PaymentStatus(q.Status),
		OldestFirst: q.Order == "oldest",
	}
}

type SetPaymentStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// --- Response DTOs ---

type NextNumberResponse struct {
	Number string `json:"number"`
}
