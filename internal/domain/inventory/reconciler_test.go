package inventory_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/domain/inventory"
)

func TestValidateIntegrity_Clean(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Nails", 8)
	_, err := f.svc.Adjust(ctx, inventory.AdjustRequest{ProductID: p.ID, Delta: -2})
	require.NoError(t, err)

	violations, err := f.reconciler.ValidateIntegrity(ctx)
	require.NoError(t, err)
	assert.Empty(t, violations)
}

func TestValidateIntegrity_StoredStockMismatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Screws", 0)

	// Bypass the mutation service: the ledger does not check arithmetic.
	bad := inventory.NewHistoryRecord(p.ID, 5, 6, "tampered", "")
	require.NoError(t, f.store.History().Append(ctx, bad))
	require.NoError(t, f.store.Inventory().UpdateStock(ctx, p.ID, 6))

	violations, err := f.reconciler.ValidateIntegrity(ctx)
	require.NoError(t, err)
	require.Len(t, violations, 2)

	assert.Equal(t, inventory.KindStockMismatch, violations[0].Kind)
	assert.Equal(t, apperror.CodeIntegrityViolation, violations[0].Code)
	assert.Equal(t, int64(5), violations[0].Expected)
	assert.Equal(t, int64(6), violations[0].Got)
	assert.Equal(t,
		fmt.Sprintf("stock mismatch for product Screws at record %s: expected 5, got 6", bad.ID),
		violations[0].Message)

	assert.Equal(t, inventory.KindCurrentStockMismatch, violations[1].Kind)
	assert.Equal(t, "current stock mismatch for product Screws: expected 5, got 6", violations[1].Message)
}

func TestValidateIntegrity_NegativeRunningSum(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Bolts", 2)

	_, err := f.svc.Adjust(ctx, inventory.AdjustRequest{ProductID: p.ID, Delta: -3})
	require.NoError(t, err)

	violations, err := f.reconciler.ValidateIntegrity(ctx)
	require.NoError(t, err)
	require.Len(t, violations, 1)
	assert.Equal(t, inventory.KindNegativeStock, violations[0].Kind)
	assert.Equal(t, int64(-1), violations[0].Got)
	require.NotNil(t, violations[0].RecordID)
	assert.Contains(t, violations[0].Message, "negative stock for product Bolts at record ")
}

func TestValidateIntegrity_ReplaysInLedgerOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Hinges", 0)

	// Appended out of order; replay must follow timestamps.
	base := time.Now().UTC()
	later := inventory.NewHistoryRecord(p.ID, -4, 6, "sale", "")
	later.Timestamp = base.Add(time.Minute)
	earlier := inventory.NewHistoryRecord(p.ID, 10, 10, "restock", "")
	earlier.Timestamp = base

	require.NoError(t, f.store.History().Append(ctx, later))
	require.NoError(t, f.store.History().Append(ctx, earlier))
	require.NoError(t, f.store.Inventory().UpdateStock(ctx, p.ID, 6))

	violations, err := f.reconciler.ValidateIntegrity(ctx)
	require.NoError(t, err)
	assert.Empty(t, violations)
}

func TestFindOrphanedHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	kept := f.product(t, "Kept", 3)
	gone := f.product(t, "Gone", 4)

	goneHistory, err := f.svc.History(ctx, gone.ID)
	require.NoError(t, err)
	require.Len(t, goneHistory, 1)

	require.NoError(t, f.svc.DeleteProduct(ctx, gone.ID))

	orphans, err := f.reconciler.FindOrphanedHistory(ctx)
	require.NoError(t, err)
	assert.Equal(t, []id.ID{goneHistory[0].ID}, orphans)

	// The orphan is reported nowhere else.
	violations, err := f.reconciler.ValidateIntegrity(ctx)
	require.NoError(t, err)
	assert.Empty(t, violations)

	keptHistory, err := f.svc.History(ctx, kept.ID)
	require.NoError(t, err)
	assert.NotContains(t, orphans, keptHistory[0].ID)
}

func TestReport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.product(t, "One", 1)
	gone := f.product(t, "Two", 2)
	require.NoError(t, f.svc.DeleteProduct(ctx, gone.ID))

	report, err := f.reconciler.Report(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Products)
	assert.Empty(t, report.Violations)
	assert.Len(t, report.Orphans, 1)
	assert.False(t, report.Healthy())
	assert.False(t, report.CheckedAt.IsZero())
}
