package customer_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/domain/audit"
	"stockledger/internal/domain/customer"
	"stockledger/internal/infrastructure/storage/memory"
)

func TestCreate(t *testing.T) {
	store := memory.New()
	svc := customer.NewService(store.Customers(), store, store.Audit())
	ctx := context.Background()

	c, err := svc.Create(ctx, customer.CreateRequest{
		Name:      "  Acme Builders ",
		GSTIN:     "29abcde1234f1z5",
		State:     "Karnataka",
		StateCode: "29",
	})
	require.NoError(t, err)
	assert.Equal(t, "Acme Builders", c.Name)
	assert.Equal(t, "29ABCDE1234F1Z5", c.GSTIN)

	got, err := svc.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.Name, got.Name)

	entries := store.Audit().Entries(ctx)
	require.Len(t, entries, 1)
	assert.Equal(t, audit.EntityCustomer, entries[0].EntityType)
}

func TestCreate_Rejections(t *testing.T) {
	store := memory.New()
	svc := customer.NewService(store.Customers(), store, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, customer.CreateRequest{Name: "Acme"})
	require.NoError(t, err)

	tests := []struct {
		name string
		req  customer.CreateRequest
		code string
	}{
		{"empty name", customer.CreateRequest{}, apperror.CodeValidation},
		{"short gstin", customer.CreateRequest{Name: "Beta", GSTIN: "123"}, apperror.CodeValidation},
		{"duplicate name", customer.CreateRequest{Name: "acme"}, apperror.CodeDuplicate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.req)
			assert.True(t, apperror.HasCode(err, tt.code), "got %v", err)
		})
	}
}

func TestGetByID_NotFound(t *testing.T) {
	store := memory.New()
	svc := customer.NewService(store.Customers(), store, nil)

	_, err := svc.GetByID(context.Background(), id.New())
	assert.True(t, apperror.IsNotFound(err))
}
