package inventory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"stockledger/internal/core/apperror"
	appctx "stockledger/internal/core/context"
	"stockledger/internal/core/id"
	"stockledger/internal/core/tx"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/audit"
	"stockledger/pkg/logger"
	"stockledger/pkg/validator"
)

// Service is the only sanctioned path to change Inventory.StockQuantity.
// Every change writes the new stock and its ledger record in one unit of work.
type Service struct {
	products   ProductRepository
	inventory  InventoryRepository
	history    HistoryRepository
	txManager  tx.Manager
	audit      audit.Sink
	classifier *Classifier
}

// NewService creates a new stock mutation service.
// A nil sink discards audit entries; a nil classifier uses the default rules.
func NewService(
	products ProductRepository,
	inventory InventoryRepository,
	history HistoryRepository,
	txManager tx.Manager,
	sink audit.Sink,
	classifier *Classifier,
) *Service {
	if sink == nil {
		sink = audit.NopSink{}
	}
	if classifier == nil {
		classifier = MustDefaultClassifier()
	}
	return &Service{
		products:   products,
		inventory:  inventory,
		history:    history,
		txManager:  txManager,
		audit:      sink,
		classifier: classifier,
	}
}

// AdjustRequest is a manual stock change.
type AdjustRequest struct {
	ProductID id.ID  `validate:"uuid_required"`
	Delta     int64  `validate:"ne=0"`
	Reason    string `validate:"max=255"`
	// UserID is optional; the authenticated operator is used when empty.
	UserID string
}

// AdjustResult reports the stock before and after a change.
type AdjustResult struct {
	OldStock int64          `json:"oldStock"`
	NewStock int64          `json:"newStock"`
	Record   *HistoryRecord `json:"record"`
}

// Adjust applies a manual stock change. A negative result is allowed here:
// an operator may deliberately correct stock below zero.
func (s *Service) Adjust(ctx context.Context, req AdjustRequest) (*AdjustResult, error) {
	if err := validator.Validate(req); err != nil {
		return nil, err
	}

	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = DefaultAdjustReason
	}
	userID := req.UserID
	if userID == "" {
		userID = appctx.GetUserID(ctx)
	}
	ctx = logger.WithFields(ctx, logger.FieldProductID, req.ProductID)

	var result *AdjustResult
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		result, err = s.apply(ctx, req.ProductID, req.Delta, reason, userID, false)
		return err
	})
	if err != nil {
		return nil, err
	}

	if result.NewStock < 0 {
		logger.Warn(ctx, "manual adjustment left negative stock",
			"new_stock", result.NewStock,
		)
	}
	logger.Info(ctx, "stock adjusted",
		"delta", req.Delta,
		"old_stock", result.OldStock,
		"new_stock", result.NewStock,
		"reason", reason,
	)
	return result, nil
}

// Deduct removes qty units and never drives stock below zero.
// Callers in a larger unit of work (invoice commit) share it through ctx.
func (s *Service) Deduct(ctx context.Context, productID id.ID, qty int64, reason, userID string) (*AdjustResult, error) {
	if qty <= 0 {
		return nil, apperror.NewValidation("deduction quantity must be positive")
	}

	var result *AdjustResult
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		result, err = s.apply(ctx, productID, -qty, reason, userID, true)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// apply must run inside a unit of work.
func (s *Service) apply(ctx context.Context, productID id.ID, delta int64, reason, userID string, guard bool) (*AdjustResult, error) {
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	inv, err := s.lockInventory(ctx, productID)
	if err != nil {
		return nil, err
	}

	oldStock := inv.StockQuantity
	if (delta > 0 && oldStock > math.MaxInt64-delta) || (delta < 0 && oldStock < math.MinInt64-delta) {
		return nil, apperror.NewValidation("stock change out of range").
			WithDetail("product", product.Name).
			WithDetail("stock", oldStock).
			WithDetail("delta", delta)
	}
	newStock := oldStock + delta
	if guard && newStock < 0 {
		return nil, apperror.NewInsufficientStock(product.Name, -delta, oldStock)
	}

	if err := s.inventory.UpdateStock(ctx, productID, newStock); err != nil {
		return nil, fmt.Errorf("update stock: %w", err)
	}

	rec := NewHistoryRecord(productID, delta, newStock, reason, userID)
	if err := s.history.Append(ctx, rec); err != nil {
		return nil, fmt.Errorf("append history: %w", err)
	}

	details := fmt.Sprintf("Stock for '%s' changed by %d. Old: %d, New: %d. Reason: %s",
		product.Name, delta, oldStock, newStock, reason)
	if err := s.audit.Record(ctx, audit.Entry{
		Action:     audit.ActionStockAdjust,
		EntityType: audit.EntityInventory,
		EntityID:   productID.String(),
		Details:    details,
	}); err != nil {
		return nil, fmt.Errorf("record audit: %w", err)
	}

	return &AdjustResult{OldStock: oldStock, NewStock: newStock, Record: rec}, nil
}

// lockInventory returns the locked inventory row, creating it at zero stock
// the first time a product is adjusted.
func (s *Service) lockInventory(ctx context.Context, productID id.ID) (*Inventory, error) {
	inv, err := s.inventory.GetForUpdate(ctx, productID)
	if err == nil {
		return inv, nil
	}
	if !apperror.IsNotFound(err) {
		return nil, fmt.Errorf("lock inventory: %w", err)
	}

	inv = NewInventory(productID)
	if err := s.inventory.Create(ctx, inv); err != nil {
		return nil, fmt.Errorf("create inventory: %w", err)
	}
	return s.inventory.GetForUpdate(ctx, productID)
}

// AvailableForUpdate returns current stock with the row locked for the
// caller's unit of work. Products without inventory have zero stock.
func (s *Service) AvailableForUpdate(ctx context.Context, productID id.ID) (int64, error) {
	inv, err := s.inventory.GetForUpdate(ctx, productID)
	if apperror.IsNotFound(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("lock inventory: %w", err)
	}
	return inv.StockQuantity, nil
}

// CreateProductRequest creates a product with its inventory record.
type CreateProductRequest struct {
	Name              string      `validate:"required,max=255"`
	Price             types.Money `validate:"-"`
	InitialStock      int64       `validate:"gte=0"`
	LowStockThreshold *int64      `validate:"omitempty,gte=0"`
}

// CreateProduct inserts the product and its inventory in one unit of work.
// A positive InitialStock is booked through the ledger like any adjustment.
func (s *Service) CreateProduct(ctx context.Context, req CreateProductRequest) (*Product, error) {
	if err := validator.Validate(req); err != nil {
		return nil, err
	}

	product := &Product{
		ID:        id.New(),
		Name:      strings.TrimSpace(req.Name),
		Price:     req.Price,
		CreatedAt: time.Now().UTC(),
	}
	if err := product.Validate(); err != nil {
		return nil, err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.products.GetByName(ctx, product.Name); err == nil {
			return apperror.NewDuplicate("product", "name", product.Name)
		} else if !apperror.IsNotFound(err) {
			return err
		}

		if err := s.products.Create(ctx, product); err != nil {
			return fmt.Errorf("create product: %w", err)
		}

		inv := NewInventory(product.ID)
		if req.LowStockThreshold != nil {
			inv.LowStockThreshold = *req.LowStockThreshold
		}
		if err := s.inventory.Create(ctx, inv); err != nil {
			return fmt.Errorf("create inventory: %w", err)
		}

		if err := s.audit.Record(ctx, audit.Entry{
			Action:     audit.ActionCreate,
			EntityType: audit.EntityProduct,
			EntityID:   product.ID.String(),
			Details:    fmt.Sprintf("Product '%s' created.", product.Name),
		}); err != nil {
			return fmt.Errorf("record audit: %w", err)
		}

		if req.InitialStock > 0 {
			_, err := s.apply(ctx, product.ID, req.InitialStock, "Initial stock", appctx.GetUserID(ctx), false)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "product created", logger.FieldProductID, product.ID, "name", product.Name)
	return product, nil
}

// DeleteProduct removes a product and its inventory. Its history stays behind
// and is reported by Reconciler.FindOrphanedHistory.
func (s *Service) DeleteProduct(ctx context.Context, productID id.ID) error {
	ctx = logger.WithFields(ctx, logger.FieldProductID, productID)
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		product, err := s.products.GetByID(ctx, productID)
		if err != nil {
			return err
		}
		if err := s.products.Delete(ctx, productID); err != nil {
			return fmt.Errorf("delete product: %w", err)
		}
		return s.audit.Record(ctx, audit.Entry{
			Action:     audit.ActionDelete,
			EntityType: audit.EntityProduct,
			EntityID:   productID.String(),
			Details:    fmt.Sprintf("Product '%s' deleted.", product.Name),
		})
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "product deleted")
	return nil
}

// GetProduct returns the product with its classified stock.
func (s *Service) GetProduct(ctx context.Context, productID id.ID) (*StockView, error) {
	var view *StockView
	err := s.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		product, err := s.products.GetByID(ctx, productID)
		if err != nil {
			return err
		}

		var inv *Inventory
		inv, err = s.inventory.Get(ctx, productID)
		if err != nil && !apperror.IsNotFound(err) {
			return err
		}
		view, err = s.viewOf(*product, inv)
		return err
	})
	return view, err
}

// History returns the product's ledger, oldest first.
func (s *Service) History(ctx context.Context, productID id.ID) ([]HistoryRecord, error) {
	var records []HistoryRecord
	err := s.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		if _, err := s.products.GetByID(ctx, productID); err != nil {
			return err
		}
		var err error
		records, err = s.history.ListByProduct(ctx, productID)
		return err
	})
	return records, err
}

// ListStock returns every product with its classified stock, ordered by name.
func (s *Service) ListStock(ctx context.Context) ([]StockView, error) {
	var views []StockView
	err := s.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		products, err := s.products.List(ctx)
		if err != nil {
			return fmt.Errorf("list products: %w", err)
		}
		records, err := s.inventory.List(ctx)
		if err != nil {
			return fmt.Errorf("list inventory: %w", err)
		}

		byProduct := make(map[id.ID]*Inventory, len(records))
		for i := range records {
			byProduct[records[i].ProductID] = &records[i]
		}

		views = make([]StockView, 0, len(products))
		for _, p := range products {
			v, err := s.viewOf(p, byProduct[p.ID])
			if err != nil {
				return err
			}
			views = append(views, *v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(views, func(i, j int) bool { return views[i].Product.Name < views[j].Product.Name })
	return views, nil
}

// Summary counts products per stock status.
type Summary struct {
	TotalProducts int `json:"totalProducts"`
	InStock       int `json:"inStock"`
	LowStock      int `json:"lowStock"`
	OutOfStock    int `json:"outOfStock"`
}

// Summary returns the stock status counters shown on the dashboard.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	views, err := s.ListStock(ctx)
	if err != nil {
		return nil, err
	}

	sum := &Summary{TotalProducts: len(views)}
	for _, v := range views {
		switch v.Status {
		case StatusOutOfStock:
			sum.OutOfStock++
		case StatusLowStock:
			sum.LowStock++
		default:
			sum.InStock++
		}
	}
	return sum, nil
}

// viewOf treats a missing inventory record as zero stock.
func (s *Service) viewOf(p Product, inv *Inventory) (*StockView, error) {
	stock, threshold := int64(0), DefaultLowStockThreshold
	if inv != nil {
		stock, threshold = inv.StockQuantity, inv.LowStockThreshold
	}

	status, err := s.classifier.Classify(stock, threshold)
	if err != nil {
		return nil, err
	}
	return &StockView{Product: p, Stock: stock, Threshold: threshold, Status: status}, nil
}
