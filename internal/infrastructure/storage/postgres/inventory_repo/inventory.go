// Package inventory_repo provides PostgreSQL implementations of the
// product, inventory and stock ledger repositories.
package inventory_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/domain/inventory"
	"stockledger/internal/infrastructure/storage/postgres"
)

const (
	productsTable  = "products"
	inventoryTable = "inventory"
	historyTable   = "inventory_history"
)

var (
	productColumns   = []string{"id", "name", "price", "created_at"}
	inventoryColumns = []string{"product_id", "stock_quantity", "low_stock_threshold", "updated_at"}
	historyColumns   = []string{"id", "product_id", "change_quantity", "new_stock", "reason", "user_id", `"timestamp"`}
)

// ProductRepo implements inventory.ProductRepository.
type ProductRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

var _ inventory.ProductRepository = (*ProductRepo)(nil)

// NewProductRepo creates a new product repository.
func NewProductRepo(txManager *postgres.TxManager) *ProductRepo {
	return &ProductRepo{txManager: txManager, builder: postgres.Builder()}
}

func (r *ProductRepo) Create(ctx context.Context, p *inventory.Product) error {
	sql, args, err := r.builder.Insert(productsTable).
		Columns(productColumns...).
		Values(p.ID, p.Name, p.Price, p.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewDuplicate("product", "name", p.Name)
		}
		return fmt.Errorf("insert %s: %w", productsTable, err)
	}
	return nil
}

func (r *ProductRepo) GetByID(ctx context.Context, productID id.ID) (*inventory.Product, error) {
	return r.getOne(ctx, squirrel.Eq{"id": productID}, productID.String())
}

func (r *ProductRepo) GetByName(ctx context.Context, name string) (*inventory.Product, error) {
	return r.getOne(ctx, squirrel.Expr("lower(name) = lower(?)", name), name)
}

func (r *ProductRepo) getOne(ctx context.Context, where squirrel.Sqlizer, key string) (*inventory.Product, error) {
	sql, args, err := r.builder.Select(productColumns...).
		From(productsTable).
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var p inventory.Product
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("product", key)
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

func (r *ProductRepo) List(ctx context.Context) ([]inventory.Product, error) {
	sql, args, err := r.builder.Select(productColumns...).
		From(productsTable).
		OrderBy("name", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var out []inventory.Product
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return out, nil
}

// Delete removes the product. The inventory row goes with it (ON DELETE CASCADE).
func (r *ProductRepo) Delete(ctx context.Context, productID id.ID) error {
	sql, args, err := r.builder.Delete(productsTable).
		Where(squirrel.Eq{"id": productID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("product", productID.String())
	}
	return nil
}

// InventoryRepo implements inventory.InventoryRepository.
type InventoryRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

var _ inventory.InventoryRepository = (*InventoryRepo)(nil)

// NewInventoryRepo creates a new inventory repository.
func NewInventoryRepo(txManager *postgres.TxManager) *InventoryRepo {
	return &InventoryRepo{txManager: txManager, builder: postgres.Builder()}
}

func (r *InventoryRepo) selectByProduct(productID id.ID) squirrel.SelectBuilder {
	return r.builder.Select(inventoryColumns...).
		From(inventoryTable).
		Where(squirrel.Eq{"product_id": productID})
}

// GetForUpdate locks the row until the surrounding transaction ends.
func (r *InventoryRepo) GetForUpdate(ctx context.Context, productID id.ID) (*inventory.Inventory, error) {
	return r.get(ctx, r.selectByProduct(productID).Suffix("FOR UPDATE"), productID)
}

func (r *InventoryRepo) Get(ctx context.Context, productID id.ID) (*inventory.Inventory, error) {
	return r.get(ctx, r.selectByProduct(productID), productID)
}

func (r *InventoryRepo) get(ctx context.Context, q squirrel.SelectBuilder, productID id.ID) (*inventory.Inventory, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var inv inventory.Inventory
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &inv, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("inventory", productID.String())
		}
		return nil, fmt.Errorf("get inventory: %w", err)
	}
	return &inv, nil
}

func (r *InventoryRepo) Create(ctx context.Context, inv *inventory.Inventory) error {
	sql, args, err := r.builder.Insert(inventoryTable).
		Columns(inventoryColumns...).
		Values(inv.ProductID, inv.StockQuantity, inv.LowStockThreshold, inv.UpdatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewDuplicate("inventory", "product_id", inv.ProductID.String())
		}
		return fmt.Errorf("insert %s: %w", inventoryTable, err)
	}
	return nil
}

func (r *InventoryRepo) updateStockQuery(productID id.ID, stock int64) squirrel.UpdateBuilder {
	return r.builder.Update(inventoryTable).
		Set("stock_quantity", stock).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"product_id": productID})
}

func (r *InventoryRepo) UpdateStock(ctx context.Context, productID id.ID, stock int64) error {
	sql, args, err := r.updateStockQuery(productID, stock).ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("inventory", productID.String())
	}
	return nil
}

func (r *InventoryRepo) List(ctx context.Context) ([]inventory.Inventory, error) {
	sql, args, err := r.builder.Select(inventoryColumns...).
		From(inventoryTable).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var out []inventory.Inventory
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("list inventory: %w", err)
	}
	return out, nil
}
