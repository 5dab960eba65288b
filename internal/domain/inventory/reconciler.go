package inventory

import (
	"context"
	"fmt"
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/tx"
	"stockledger/pkg/logger"
)

// ViolationKind classifies an integrity violation.
type ViolationKind string

const (
	// KindStockMismatch: a record's NewStock differs from the running sum.
	KindStockMismatch ViolationKind = "stock_mismatch"
	// KindNegativeStock: the running sum dropped below zero.
	KindNegativeStock ViolationKind = "negative_stock"
	// KindCurrentStockMismatch: the final sum differs from Inventory.StockQuantity.
	KindCurrentStockMismatch ViolationKind = "current_stock_mismatch"
)

// Violation is one failed ledger check.
type Violation struct {
	Kind        ViolationKind `json:"kind"`
	Code        string        `json:"code"`
	ProductID   id.ID         `json:"productId"`
	ProductName string        `json:"productName"`
	RecordID    *id.ID        `json:"recordId,omitempty"`
	Expected    int64         `json:"expected"`
	Got         int64         `json:"got"`
	Message     string        `json:"message"`
}

// Report is the result of a full reconciliation pass.
type Report struct {
	CheckedAt  time.Time   `json:"checkedAt"`
	Products   int         `json:"products"`
	Violations []Violation `json:"violations"`
	Orphans    []id.ID     `json:"orphans"`
}

// Healthy reports whether the pass found nothing.
func (r *Report) Healthy() bool {
	return len(r.Violations) == 0 && len(r.Orphans) == 0
}

// Reconciler replays the ledger and compares it with materialized stock.
// It only reads.
type Reconciler struct {
	products  ProductRepository
	inventory InventoryRepository
	history   HistoryRepository
	txManager tx.Manager
}

// NewReconciler creates a new reconciler.
func NewReconciler(products ProductRepository, inventory InventoryRepository, history HistoryRepository, txManager tx.Manager) *Reconciler {
	return &Reconciler{
		products:  products,
		inventory: inventory,
		history:   history,
		txManager: txManager,
	}
}

// ValidateIntegrity checks every product that has an inventory record.
// An empty result means the ledger and stock agree.
func (r *Reconciler) ValidateIntegrity(ctx context.Context) ([]Violation, error) {
	var violations []Violation
	err := r.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		violations, _, err = r.validate(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	if len(violations) > 0 {
		logger.Warn(ctx, "ledger integrity violations found", "count", len(violations))
	}
	return violations, nil
}

// FindOrphanedHistory returns ids of history records whose product is gone.
func (r *Reconciler) FindOrphanedHistory(ctx context.Context) ([]id.ID, error) {
	var orphans []id.ID
	err := r.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		orphans, err = r.history.ListOrphaned(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list orphaned history: %w", err)
	}
	return orphans, nil
}

// Report runs both checks against one consistent snapshot.
func (r *Reconciler) Report(ctx context.Context) (*Report, error) {
	report := &Report{CheckedAt: time.Now().UTC()}
	err := r.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		violations, checked, err := r.validate(ctx)
		if err != nil {
			return err
		}
		orphans, err := r.history.ListOrphaned(ctx)
		if err != nil {
			return fmt.Errorf("list orphaned history: %w", err)
		}
		report.Violations = violations
		report.Products = checked
		report.Orphans = orphans
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "reconciliation finished",
		"products", report.Products,
		"violations", len(report.Violations),
		"orphans", len(report.Orphans),
	)
	return report, nil
}

func (r *Reconciler) validate(ctx context.Context) ([]Violation, int, error) {
	products, err := r.products.List(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	stock, err := r.inventory.List(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("list inventory: %w", err)
	}

	byProduct := make(map[id.ID]int64, len(stock))
	for _, inv := range stock {
		byProduct[inv.ProductID] = inv.StockQuantity
	}

	violations := make([]Violation, 0)
	checked := 0
	for _, p := range products {
		current, ok := byProduct[p.ID]
		if !ok {
			continue
		}
		checked++

		records, err := r.history.ListByProduct(ctx, p.ID)
		if err != nil {
			return nil, 0, fmt.Errorf("list history for %s: %w", p.ID, err)
		}
		violations = append(violations, replay(p, records, current)...)
	}
	return violations, checked, nil
}

// replay walks records in ledger order. Records must already be sorted.
func replay(p Product, records []HistoryRecord, current int64) []Violation {
	var out []Violation
	var sum int64
	for i := range records {
		rec := records[i]
		sum += rec.ChangeQuantity
		recID := rec.ID

		if rec.NewStock != sum {
			out = append(out, Violation{
				Kind:        KindStockMismatch,
				Code:        apperror.CodeIntegrityViolation,
				ProductID:   p.ID,
				ProductName: p.Name,
				RecordID:    &recID,
				Expected:    sum,
				Got:         rec.NewStock,
				Message: fmt.Sprintf("stock mismatch for product %s at record %s: expected %d, got %d",
					p.Name, rec.ID, sum, rec.NewStock),
			})
		}
		if sum < 0 {
			out = append(out, Violation{
				Kind:        KindNegativeStock,
				Code:        apperror.CodeIntegrityViolation,
				ProductID:   p.ID,
				ProductName: p.Name,
				RecordID:    &recID,
				Expected:    0,
				Got:         sum,
				Message:     fmt.Sprintf("negative stock for product %s at record %s", p.Name, rec.ID),
			})
		}
	}

	if sum != current {
		out = append(out, Violation{
			Kind:        KindCurrentStockMismatch,
			Code:        apperror.CodeIntegrityViolation,
			ProductID:   p.ID,
			ProductName: p.Name,
			Expected:    sum,
			Got:         current,
			Message: fmt.Sprintf("current stock mismatch for product %s: expected %d, got %d",
				p.Name, sum, current),
		})
	}
	return out
}
