package audit_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/core/apperror"
	appctx "stockledger/internal/core/context"
	"stockledger/internal/domain/audit"
	"stockledger/internal/infrastructure/storage/memory"
)

func record(ctx context.Context, t *testing.T, log audit.Sink, entityType, entityID, details string) {
	t.Helper()
	require.NoError(t, log.Record(ctx, audit.Entry{
		Action:     audit.ActionStockAdjust,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
	}))
}

func TestTrail_NewestFirstForOneEntity(t *testing.T) {
	store := memory.New()
	svc := audit.NewService(store.Audit(), store)
	ctx := appctx.WithUser(context.Background(), &appctx.UserContext{UserID: "op-1"})

	record(ctx, t, store.Audit(), audit.EntityInventory, "p1", "first")
	record(ctx, t, store.Audit(), audit.EntityInventory, "p2", "other product")
	record(ctx, t, store.Audit(), audit.EntityInventory, "p1", "second")

	trail, err := svc.Trail(ctx, "inventory", "p1", 0)
	require.NoError(t, err)
	require.Len(t, trail, 2)
	assert.Equal(t, "second", trail[0].Details)
	assert.Equal(t, "first", trail[1].Details)
	assert.Equal(t, "op-1", trail[0].UserID)
	assert.False(t, trail[0].CreatedAt.IsZero())
}

func TestTrail_Limit(t *testing.T) {
	store := memory.New()
	svc := audit.NewService(store.Audit(), store)
	ctx := context.Background()

	for i := 0; i < audit.MaxTrailLimit+5; i++ {
		record(ctx, t, store.Audit(), audit.EntityProduct, "p1", fmt.Sprintf("entry %d", i))
	}

	tests := []struct {
		name  string
		limit uint64
		want  int
	}{
		{"default", 0, audit.DefaultTrailLimit},
		{"explicit", 3, 3},
		{"capped", audit.MaxTrailLimit + 100, audit.MaxTrailLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trail, err := svc.Trail(ctx, audit.EntityProduct, "p1", tt.limit)
			require.NoError(t, err)
			assert.Len(t, trail, tt.want)
			assert.Equal(t, fmt.Sprintf("entry %d", audit.MaxTrailLimit+4), trail[0].Details)
		})
	}
}

func TestTrail_Rejections(t *testing.T) {
	store := memory.New()
	svc := audit.NewService(store.Audit(), store)

	_, err := svc.Trail(context.Background(), "Warehouse", "p1", 0)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = svc.Trail(context.Background(), audit.EntityInvoice, "  ", 0)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestTrail_UnknownEntityIsEmpty(t *testing.T) {
	store := memory.New()
	svc := audit.NewService(store.Audit(), store)

	trail, err := svc.Trail(context.Background(), audit.EntityCustomer, "missing", 0)
	require.NoError(t, err)
	assert.Empty(t, trail)
}
