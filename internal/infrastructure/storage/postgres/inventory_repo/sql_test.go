package inventory_repo

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/core/id"
	"stockledger/internal/domain/inventory"
)

func TestInventoryRepo_ForUpdateSQL(t *testing.T) {
	repo := NewInventoryRepo(nil)
	productID := id.New()

	sql, args, err := repo.selectByProduct(productID).Suffix("FOR UPDATE").ToSql()
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT product_id, stock_quantity, low_stock_threshold, updated_at FROM inventory WHERE product_id = $1 FOR UPDATE",
		sql)
	require.Len(t, args, 1)
	assert.Equal(t, productID.String(), fmt.Sprint(args[0]))
}

func TestInventoryRepo_UpdateStockSQL(t *testing.T) {
	repo := NewInventoryRepo(nil)
	productID := id.New()

	sql, args, err := repo.updateStockQuery(productID, 6).ToSql()
	require.NoError(t, err)

	assert.Equal(t,
		"UPDATE inventory SET stock_quantity = $1, updated_at = now() WHERE product_id = $2",
		sql)
	require.Len(t, args, 2)
	assert.Equal(t, int64(6), args[0])
	assert.Equal(t, productID.String(), fmt.Sprint(args[1]))
}

func TestHistoryRepo_LedgerOrderSQL(t *testing.T) {
	repo := NewHistoryRepo(nil)
	productID := id.New()

	sql, args, err := repo.listByProductQuery(productID).ToSql()
	require.NoError(t, err)

	assert.Equal(t,
		`SELECT id, product_id, change_quantity, new_stock, reason, user_id, "timestamp" FROM inventory_history WHERE product_id = $1 ORDER BY "timestamp", id`,
		sql)
	require.Len(t, args, 1)
	assert.Equal(t, productID.String(), fmt.Sprint(args[0]))
}

func TestHistoryRepo_AppendSQL(t *testing.T) {
	repo := NewHistoryRepo(nil)
	rec := inventory.NewHistoryRecord(id.New(), -4, 6, "Invoice INV-00001", "")

	sql, args, err := repo.appendQuery(rec).ToSql()
	require.NoError(t, err)

	assert.Equal(t,
		`INSERT INTO inventory_history (id,product_id,change_quantity,new_stock,reason,user_id,"timestamp") VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		sql)
	require.Len(t, args, 7)
	assert.Equal(t, int64(-4), args[2])
	assert.Equal(t, int64(6), args[3])
}

func TestHistoryRepo_OrphanedSQL(t *testing.T) {
	repo := NewHistoryRepo(nil)

	sql, args, err := repo.orphanedQuery().ToSql()
	require.NoError(t, err)

	assert.Equal(t,
		`SELECT h.id FROM inventory_history h LEFT JOIN products p ON p.id = h.product_id WHERE p.id IS NULL ORDER BY h."timestamp", h.id`,
		sql)
	assert.Empty(t, args)
}
