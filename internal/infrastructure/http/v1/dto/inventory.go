package dto

import (
	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/inventory"
)

// --- Request DTOs ---

type CreateProductRequest struct {
	Name              string      `json:"name" binding:"required"`
	Price             types.Money `json:"price"`
	InitialStock      int64       `json:"initialStock"`
	LowStockThreshold *int64      `json:"lowStockThreshold,omitempty"`
}

func (r *CreateProductRequest) ToDomain() inventory.CreateProductRequest {
	return inventory.CreateProductRequest{
		Name:              r.Name,
		Price:             r.Price,
		InitialStock:      r.InitialStock,
		LowStockThreshold: r.LowStockThreshold,
	}
}

// AdjustStockRequest is a manual correction. Delta may be negative.
type AdjustStockRequest struct {
	Delta  int64  `json:"delta"`
	Reason string `json:"reason"`
}

func (r *AdjustStockRequest) ToDomain(productID id.ID) inventory.AdjustRequest {
	return inventory.AdjustRequest{
		ProductID: productID,
		Delta:     r.Delta,
		Reason:    r.Reason,
	}
}

// --- Response DTOs ---

type AdjustStockResponse struct {
	ProductID string                   `json:"productId"`
	OldStock  int64                    `json:"oldStock"`
	NewStock  int64                    `json:"newStock"`
	Record    *inventory.HistoryRecord `json:"record"`
}

func FromAdjustResult(productID id.ID, res *inventory.AdjustResult) AdjustStockResponse {
	return AdjustStockResponse{
		ProductID: productID.String(),
		OldStock:  res.OldStock,
		NewStock:  res.NewStock,
		Record:    res.Record,
	}
}

// IntegrityResponse is the reconciliation report with its verdict.
type IntegrityResponse struct {
	Healthy bool `json:"healthy"`
	*inventory.Report
}

func FromReport(r *inventory.Report) IntegrityResponse {
	if r.Violations == nil {
		r.Violations = []inventory.Violation{}
	}
	if r.Orphans == nil {
		r.Orphans = []id.ID{}
	}
	return IntegrityResponse{Healthy: r.Healthy(), Report: r}
}
