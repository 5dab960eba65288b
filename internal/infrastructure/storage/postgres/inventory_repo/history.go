package inventory_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockledger/internal/core/id"
	"stockledger/internal/domain/inventory"
	"stockledger/internal/infrastructure/storage/postgres"
)

// HistoryRepo implements inventory.HistoryRepository. Rows are never
// updated or deleted.
type HistoryRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

var _ inventory.HistoryRepository = (*HistoryRepo)(nil)

// NewHistoryRepo creates a new stock ledger repository.
func NewHistoryRepo(txManager *postgres.TxManager) *HistoryRepo {
	return &HistoryRepo{txManager: txManager, builder: postgres.Builder()}
}

func (r *HistoryRepo) appendQuery(rec *inventory.HistoryRecord) squirrel.InsertBuilder {
	return r.builder.Insert(historyTable).
		Columns(historyColumns...).
		Values(rec.ID, rec.ProductID, rec.ChangeQuantity, rec.NewStock, rec.Reason, rec.UserID, rec.Timestamp)
}

func (r *HistoryRepo) Append(ctx context.Context, rec *inventory.HistoryRecord) error {
	if id.IsNil(rec.ID) {
		rec.ID = id.New()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	sql, args, err := r.appendQuery(rec).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert %s: %w", historyTable, err)
	}
	return nil
}

func (r *HistoryRepo) listByProductQuery(productID id.ID) squirrel.SelectBuilder {
	return r.builder.Select(historyColumns...).
		From(historyTable).
		Where(squirrel.Eq{"product_id": productID}).
		OrderBy(`"timestamp"`, "id")
}

func (r *HistoryRepo) ListByProduct(ctx context.Context, productID id.ID) ([]inventory.HistoryRecord, error) {
	sql, args, err := r.listByProductQuery(productID).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var out []inventory.HistoryRecord
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return out, nil
}

func (r *HistoryRepo) orphanedQuery() squirrel.SelectBuilder {
	return r.builder.Select("h.id").
		From(historyTable + " h").
		LeftJoin(productsTable + " p ON p.id = h.product_id").
		Where("p.id IS NULL").
		OrderBy(`h."timestamp"`, "h.id")
}

func (r *HistoryRepo) ListOrphaned(ctx context.Context) ([]id.ID, error) {
	sql, args, err := r.orphanedQuery().ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var out []id.ID
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("list orphaned history: %w", err)
	}
	return out, nil
}
