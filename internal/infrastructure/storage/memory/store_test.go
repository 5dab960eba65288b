package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/inventory"
)

func seedProduct(t *testing.T, s *Store, name string) *inventory.Product {
	t.Helper()
	ctx := context.Background()
	p := &inventory.Product{ID: id.New(), Name: name, Price: types.MustMoney("1")}
	require.NoError(t, s.Products().Create(ctx, p))
	require.NoError(t, s.Inventory().Create(ctx, inventory.NewInventory(p.ID)))
	return p
}

func TestRunInTransaction_RollbackRestoresSnapshot(t *testing.T) {
	s := New()
	ctx := context.Background()
	p := seedProduct(t, s, "Cement")
	boom := errors.New("boom")

	err := s.RunInTransaction(ctx, func(ctx context.Context) error {
		require.NoError(t, s.Inventory().UpdateStock(ctx, p.ID, 42))
		require.NoError(t, s.History().Append(ctx, inventory.NewHistoryRecord(p.ID, 42, 42, "x", "")))
		require.NoError(t, s.Products().Delete(ctx, p.ID))
		return boom
	})
	require.ErrorIs(t, err, boom)

	inv, err := s.Inventory().Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), inv.StockQuantity)

	history, err := s.History().ListByProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestRunInTransaction_PanicRestoresSnapshot(t *testing.T) {
	s := New()
	ctx := context.Background()
	p := seedProduct(t, s, "Lime")

	assert.PanicsWithValue(t, "crash", func() {
		_ = s.RunInTransaction(ctx, func(ctx context.Context) error {
			require.NoError(t, s.Inventory().UpdateStock(ctx, p.ID, 9))
			panic("crash")
		})
	})

	inv, err := s.Inventory().Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), inv.StockQuantity)

	// the lock is released
	require.NoError(t, s.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.Inventory().UpdateStock(ctx, p.ID, 3)
	}))
}

func TestRunInTransaction_NestedReusesUnitOfWork(t *testing.T) {
	s := New()
	ctx := context.Background()
	p := seedProduct(t, s, "Sand")

	err := s.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.RunInTransaction(ctx, func(ctx context.Context) error {
			return s.Inventory().UpdateStock(ctx, p.ID, 5)
		}); err != nil {
			return err
		}
		return errors.New("outer fails")
	})
	require.Error(t, err)

	inv, err := s.Inventory().Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), inv.StockQuantity)
}

func TestReadOnly_RejectsWrites(t *testing.T) {
	s := New()
	p := seedProduct(t, s, "Gravel")

	err := s.ReadOnly(context.Background(), func(ctx context.Context) error {
		return s.Inventory().UpdateStock(ctx, p.ID, 1)
	})
	assert.ErrorIs(t, err, ErrReadOnly)
}

func TestDelete_KeepsHistoryAsOrphan(t *testing.T) {
	s := New()
	ctx := context.Background()
	p := seedProduct(t, s, "Tiles")
	rec := inventory.NewHistoryRecord(p.ID, 3, 3, "restock", "")
	require.NoError(t, s.History().Append(ctx, rec))

	require.NoError(t, s.Products().Delete(ctx, p.ID))

	_, err := s.Inventory().Get(ctx, p.ID)
	assert.True(t, apperror.IsNotFound(err))

	orphans, err := s.History().ListOrphaned(ctx)
	require.NoError(t, err)
	assert.Equal(t, []id.ID{rec.ID}, orphans)
}

func TestAppend_AssignsIdentity(t *testing.T) {
	s := New()
	ctx := context.Background()
	p := seedProduct(t, s, "Wire")

	rec := &inventory.HistoryRecord{ProductID: p.ID, ChangeQuantity: 1, NewStock: 1}
	require.NoError(t, s.History().Append(ctx, rec))
	assert.False(t, id.IsNil(rec.ID))
	assert.False(t, rec.Timestamp.IsZero())
}

func TestUnitsOfWorkAreSerialized(t *testing.T) {
	s := New()
	ctx := context.Background()
	p := seedProduct(t, s, "Nails")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.RunInTransaction(ctx, func(ctx context.Context) error {
				inv, err := s.Inventory().Get(ctx, p.ID)
				if err != nil {
					return err
				}
				return s.Inventory().UpdateStock(ctx, p.ID, inv.StockQuantity+1)
			})
		}()
	}
	wg.Wait()

	inv, err := s.Inventory().Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(50), inv.StockQuantity)
}
