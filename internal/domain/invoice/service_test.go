package invoice_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	corenumerator "stockledger/internal/core/numerator"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/audit"
	"stockledger/internal/domain/customer"
	"stockledger/internal/domain/inventory"
	"stockledger/internal/domain/invoice"
	"stockledger/internal/infrastructure/numerator"
	"stockledger/internal/infrastructure/storage/memory"
	"stockledger/internal/infrastructure/storage/postgres"
	"stockledger/pkg/logger"
)

type fixture struct {
	store     *memory.Store
	stock     *inventory.Service
	customers *customer.Service
	numbers   *numerator.Service
	svc       *invoice.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.New()

	numbers, err := numerator.New(ctx, corenumerator.DefaultConfig(),
		numerator.NewFileStore(filepath.Join(t.TempDir(), "invoice_counter.json")))
	require.NoError(t, err)

	return newFixtureWith(t, store, numbers, numbers)
}

func newFixtureWith(t *testing.T, store *memory.Store, numbers *numerator.Service, alloc corenumerator.Allocator) *fixture {
	t.Helper()
	stock := inventory.NewService(store.Products(), store.Inventory(), store.History(), store, store.Audit(), nil)
	return &fixture{
		store:     store,
		stock:     stock,
		customers: customer.NewService(store.Customers(), store, store.Audit()),
		numbers:   numbers,
		svc: invoice.NewService(
			store.Invoices(), store.Customers(), store.Products(),
			stock, alloc, store, store.Audit(),
		),
	}
}

func (f *fixture) product(t *testing.T, name, price string, stock int64) *inventory.Product {
	t.Helper()
	p, err := f.stock.CreateProduct(context.Background(), inventory.CreateProductRequest{
		Name:         name,
		Price:        types.MustMoney(price),
		InitialStock: stock,
	})
	require.NoError(t, err)
	return p
}

func (f *fixture) customer(t *testing.T) *customer.Customer {
	t.Helper()
	c, err := f.customers.Create(context.Background(), customer.CreateRequest{Name: "Acme Builders"})
	require.NoError(t, err)
	return c
}

func (f *fixture) stockOf(t *testing.T, productID id.ID) int64 {
	t.Helper()
	view, err := f.stock.GetProduct(context.Background(), productID)
	require.NoError(t, err)
	return view.Stock
}

func (f *fixture) historyOf(t *testing.T, productID id.ID) []inventory.HistoryRecord {
	t.Helper()
	records, err := f.stock.History(context.Background(), productID)
	require.NoError(t, err)
	return records
}

func line(p *inventory.Product, qty int64) invoice.LineItem {
	pid := p.ID
	return invoice.LineItem{ProductID: &pid, Quantity: qty}
}

func TestCommit_Success(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.customer(t)
	p := f.product(t, "Cement", "350", 10)

	inv, err := f.svc.Commit(ctx, invoice.CommitRequest{
		CustomerID: c.ID,
		Items:      []invoice.LineItem{line(p, 4)},
	})
	require.NoError(t, err)

	assert.Equal(t, "INV-00001", inv.Number)
	assert.Equal(t, invoice.PaymentPending, inv.PaymentStatus)
	assert.True(t, inv.TotalAmount.Equal(types.MustMoney("1400")), "total %s", inv.TotalAmount)
	assert.Equal(t, int64(6), f.stockOf(t, p.ID))

	history := f.historyOf(t, p.ID)
	require.Len(t, history, 2)
	assert.Equal(t, int64(-4), history[1].ChangeQuantity)
	assert.Equal(t, int64(6), history[1].NewStock)
	assert.Equal(t, "Invoice INV-00001", history[1].Reason)

	stored, err := f.svc.GetByNumber(ctx, "INV-00001")
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, "Cement", stored.Items[0].ProductName)
	assert.Equal(t, int64(4), stored.Items[0].Quantity)
	assert.Equal(t, 1, f.store.Invoices().Count(ctx))
}

func TestCommit_InsufficientStockIsAtomic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.customer(t)
	p := f.product(t, "Gravel", "20", 10)
	auditBefore := len(f.store.Audit().Entries(ctx))

	_, err := f.svc.Commit(ctx, invoice.CommitRequest{
		CustomerID: c.ID,
		Items:      []invoice.LineItem{line(p, 15)},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "Gravel", appErr.Details["product"])
	assert.Equal(t, int64(15), appErr.Details["requested"])
	assert.Equal(t, int64(10), appErr.Details["available"])

	assert.Equal(t, int64(10), f.stockOf(t, p.ID))
	assert.Len(t, f.historyOf(t, p.ID), 1, "only the initial stock record")
	assert.Equal(t, 0, f.store.Invoices().Count(ctx))
	assert.Len(t, f.store.Audit().Entries(ctx), auditBefore)

	// The rejected invoice did not consume a number.
	assert.Equal(t, "INV-00001", f.svc.PeekNextNumber(ctx))
}

func TestCommit_RejectedAfterManualSellOut(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.customer(t)
	p := f.product(t, "Sand", "15", 5)

	_, err := f.stock.Adjust(ctx, inventory.AdjustRequest{ProductID: p.ID, Delta: -5, Reason: "sale"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), f.stockOf(t, p.ID))

	_, err = f.svc.Commit(ctx, invoice.CommitRequest{
		CustomerID: c.ID,
		Items:      []invoice.LineItem{line(p, 1)},
	})
	assert.True(t, apperror.IsInsufficientStock(err))
}

func TestCommit_MultiLineRollsBackEverything(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.customer(t)
	enough := f.product(t, "Bricks", "8", 100)
	short := f.product(t, "Tiles", "40", 2)

	_, err := f.svc.Commit(ctx, invoice.CommitRequest{
		CustomerID: c.ID,
		Items:      []invoice.LineItem{line(enough, 50), line(short, 3)},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))

	assert.Equal(t, int64(100), f.stockOf(t, enough.ID))
	assert.Equal(t, int64(2), f.stockOf(t, short.ID))
	assert.Len(t, f.historyOf(t, enough.ID), 1)
}

func TestCommit_DuplicateLinesAreSummed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.customer(t)
	p := f.product(t, "Steel", "500", 5)

	_, err := f.svc.Commit(ctx, invoice.CommitRequest{
		CustomerID: c.ID,
		Items:      []invoice.LineItem{line(p, 3), line(p, 3)},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))
	assert.Equal(t, int64(5), f.stockOf(t, p.ID))

	inv, err := f.svc.Commit(ctx, invoice.CommitRequest{
		CustomerID: c.ID,
		Items:      []invoice.LineItem{line(p, 2), line(p, 3)},
	})
	require.NoError(t, err)
	assert.Len(t, inv.Items, 2)
	assert.Equal(t, int64(0), f.stockOf(t, p.ID))
}

func TestCommit_ResolvesByNameAndSnapshotsPrice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.customer(t)
	f.product(t, "Paint", "120.50", 10)
	override := types.MustMoney("99.99")

	inv, err := f.svc.Commit(ctx, invoice.CommitRequest{
		CustomerID:    c.ID,
		VehicleNumber: " KA-01-1234 ",
		Items: []invoice.LineItem{
			{ProductName: "Paint", Quantity: 2},
			{ProductName: "paint", Quantity: 1, PricePerUnit: &override},
		},
	})
	require.NoError(t, err)

	require.Len(t, inv.Items, 2)
	assert.True(t, inv.Items[0].PricePerUnit.Equal(types.MustMoney("120.50")))
	assert.True(t, inv.Items[1].PricePerUnit.Equal(override))
	assert.True(t, inv.TotalAmount.Equal(types.MustMoney("340.99")), "total %s", inv.TotalAmount)
	assert.Equal(t, "KA-01-1234", inv.VehicleNumber)
}

func TestCommit_NotFound(t *testing.T) {
	f := newFixture(t)
	c := f.customer(t)
	p := f.product(t, "Wire", "10", 10)

	tests := []struct {
		name string
		req  invoice.CommitRequest
	}{
		{"unknown customer", invoice.CommitRequest{CustomerID: id.New(), Items: []invoice.LineItem{line(p, 1)}}},
		{"unknown product name", invoice.CommitRequest{CustomerID: c.ID, Items: []invoice.LineItem{{ProductName: "Nope", Quantity: 1}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Commit(context.Background(), tt.req)
			assert.True(t, apperror.IsNotFound(err), "got %v", err)
		})
	}
	assert.Equal(t, "INV-00001", f.svc.PeekNextNumber(context.Background()))
}

func TestCommit_Validation(t *testing.T) {
	f := newFixture(t)
	c := f.customer(t)
	p := f.product(t, "Pipes", "10", 10)
	negative := types.MustMoney("-1")

	tests := []struct {
		name string
		req  invoice.CommitRequest
	}{
		{"no items", invoice.CommitRequest{CustomerID: c.ID}},
		{"zero quantity", invoice.CommitRequest{CustomerID: c.ID, Items: []invoice.LineItem{line(p, 0)}}},
		{"no product reference", invoice.CommitRequest{CustomerID: c.ID, Items: []invoice.LineItem{{Quantity: 1}}}},
		{"negative price", invoice.CommitRequest{CustomerID: c.ID, Items: []invoice.LineItem{{ProductName: "Pipes", Quantity: 1, PricePerUnit: &negative}}}},
		{"missing customer", invoice.CommitRequest{Items: []invoice.LineItem{line(p, 1)}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Commit(context.Background(), tt.req)
			assert.True(t, apperror.HasCode(err, apperror.CodeValidation), "got %v", err)
		})
	}
}

func TestCommit_NumbersAreSequential(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.customer(t)
	p := f.product(t, "Glass", "10", 10)

	for _, want := range []string{"INV-00001", "INV-00002", "INV-00003"} {
		assert.Equal(t, want, f.svc.PeekNextNumber(ctx))
		inv, err := f.svc.Commit(ctx, invoice.CommitRequest{CustomerID: c.ID, Items: []invoice.LineItem{line(p, 1)}})
		require.NoError(t, err)
		assert.Equal(t, want, inv.Number)
	}
	assert.Equal(t, int64(7), f.stockOf(t, p.ID))
}

func TestCommit_AllocatorFailureRollsBack(t *testing.T) {
	store := memory.New()
	alloc := &corenumerator.MockAllocator{
		NextFunc: func(context.Context) (string, error) {
			return "", apperror.NewPersistenceFailure("invoice counter", errors.New("disk full"))
		},
	}
	f := newFixtureWith(t, store, nil, alloc)
	ctx := context.Background()
	c := f.customer(t)
	p := f.product(t, "Lumber", "10", 10)

	_, err := f.svc.Commit(ctx, invoice.CommitRequest{CustomerID: c.ID, Items: []invoice.LineItem{line(p, 1)}})
	assert.True(t, apperror.IsPersistenceFailure(err))
	assert.Equal(t, int64(10), f.stockOf(t, p.ID))
	assert.Equal(t, 0, store.Invoices().Count(ctx))
}

func TestCommit_AuditEntry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.customer(t)
	p := f.product(t, "Hinges", "3", 10)

	inv, err := f.svc.Commit(ctx, invoice.CommitRequest{CustomerID: c.ID, Items: []invoice.LineItem{line(p, 2)}})
	require.NoError(t, err)

	entries := f.store.Audit().Entries(ctx)
	last := entries[len(entries)-1]
	assert.Equal(t, audit.ActionCreate, last.Action)
	assert.Equal(t, audit.EntityInvoice, last.EntityType)
	assert.Equal(t, inv.ID.String(), last.EntityID)
	assert.Equal(t, "Invoice 'INV-00001' created with total 6.00. Items: 1. Hinges x2 @ 3.00 = 6.00;", last.Details)
}

func TestCommit_LargeInvoiceAuditIsCompressed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.customer(t)

	items := make([]invoice.LineItem, 0, 60)
	for i := 1; i <= 60; i++ {
		p := f.product(t, fmt.Sprintf("Vitrified Floor Tile 600x600 #%02d", i), "45", 10)
		items = append(items, line(p, 2))
	}

	inv, err := f.svc.Commit(ctx, invoice.CommitRequest{CustomerID: c.ID, VehicleNumber: "KA01AB1234", Items: items})
	require.NoError(t, err)

	trail, err := f.store.Audit().EntityHistory(ctx, audit.EntityInvoice, inv.ID.String(), 1)
	require.NoError(t, err)
	require.Len(t, trail, 1)
	details := trail[0].Details
	assert.Contains(t, details, "Vehicle: KA01AB1234.")
	assert.Contains(t, details, "60. Vitrified Floor Tile 600x600 #60 x2 @ 45.00 = 90.00;")
	assert.Greater(t, len(details), postgres.DefaultCompressThreshold)
}

func TestGetByNumber_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.GetByNumber(context.Background(), "INV-99999")
	assert.True(t, apperror.IsNotFound(err))
}

func TestSetPaymentStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.customer(t)
	p := f.product(t, "Cement", "350", 10)

	inv, err := f.svc.Commit(ctx, invoice.CommitRequest{CustomerID: c.ID, Items: []invoice.LineItem{line(p, 1)}})
	require.NoError(t, err)

	updated, err := f.svc.SetPaymentStatus(ctx, " INV-00001 ", invoice.PaymentPaid)
	require.NoError(t, err)
	assert.Equal(t, invoice.PaymentPaid, updated.PaymentStatus)
	require.Len(t, updated.Items, 1)

	stored, err := f.svc.GetByNumber(ctx, inv.Number)
	require.NoError(t, err)
	assert.Equal(t, invoice.PaymentPaid, stored.PaymentStatus)

	trail, err := f.store.Audit().EntityHistory(ctx, audit.EntityInvoice, inv.ID.String(), 10)
	require.NoError(t, err)
	require.Len(t, trail, 2)
	assert.Equal(t, audit.ActionUpdate, trail[0].Action)
	assert.Equal(t, "Invoice 'INV-00001' payment status changed from Pending to Paid.", trail[0].Details)

	// Same status again changes nothing.
	_, err = f.svc.SetPaymentStatus(ctx, inv.Number, invoice.PaymentPaid)
	require.NoError(t, err)
	trail, err = f.store.Audit().EntityHistory(ctx, audit.EntityInvoice, inv.ID.String(), 10)
	require.NoError(t, err)
	assert.Len(t, trail, 2)
}

func TestSetPaymentStatus_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.SetPaymentStatus(ctx, "INV-00001", invoice.PaymentStatus("Partially Paid"))
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = f.svc.SetPaymentStatus(ctx, "INV-00042", invoice.PaymentOverdue)
	assert.True(t, apperror.IsNotFound(err))
}

func TestList_FilterAndOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.customer(t)
	p := f.product(t, "Cement", "350", 100)

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, day := range []int{2, 0, 1} {
		_, err := f.svc.Commit(ctx, invoice.CommitRequest{
			CustomerID: c.ID,
			Date:       base.AddDate(0, 0, day),
			Items:      []invoice.LineItem{line(p, int64(i+1))},
		})
		require.NoError(t, err)
	}
	_, err := f.svc.SetPaymentStatus(ctx, "INV-00002", invoice.PaymentOverdue)
	require.NoError(t, err)

	numbers := func(invoices []invoice.Invoice) []string {
		out := make([]string, 0, len(invoices))
		for _, inv := range invoices {
			out = append(out, inv.Number)
		}
		return out
	}

	all, err := f.svc.List(ctx, invoice.ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"INV-00001", "INV-00003", "INV-00002"}, numbers(all))
	assert.Empty(t, all[0].Items)

	oldest, err := f.svc.List(ctx, invoice.ListFilter{OldestFirst: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"INV-00002", "INV-00003", "INV-00001"}, numbers(oldest))

	pending, err := f.svc.List(ctx, invoice.ListFilter{Status: invoice.PaymentPending})
	require.NoError(t, err)
	assert.Equal(t, []string{"INV-00001", "INV-00003"}, numbers(pending))

	_, err = f.svc.List(ctx, invoice.ListFilter{Status: "Unpaid"})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestCommit_LogsCarryInvoiceNumber(t *testing.T) {
	f := newFixture(t)
	c := f.customer(t)
	cement := f.product(t, "Cement", "350", 10)
	sand := f.product(t, "Sand", "15", 1)

	core, logs := observer.New(zapcore.InfoLevel)
	ctx := logger.WithLogger(context.Background(), &logger.Logger{SugaredLogger: zap.New(core).Sugar()})

	_, err := f.svc.Commit(ctx, invoice.CommitRequest{CustomerID: c.ID, Items: []invoice.LineItem{line(cement, 2)}})
	require.NoError(t, err)
	_, err = f.svc.Commit(ctx, invoice.CommitRequest{CustomerID: c.ID, Items: []invoice.LineItem{line(sand, 5)}})
	require.Error(t, err)

	committed := logs.FilterMessage("invoice committed").All()
	require.Len(t, committed, 1)
	fields := committed[0].ContextMap()
	assert.Equal(t, "INV-00001", fields[logger.FieldInvoiceNumber])
	assert.Equal(t, c.ID.String(), fmt.Sprint(fields[logger.FieldCustomerID]))

	rejected := logs.FilterMessage("invoice rejected: insufficient stock").All()
	require.Len(t, rejected, 1)
	fields = rejected[0].ContextMap()
	assert.Equal(t, sand.ID.String(), fmt.Sprint(fields[logger.FieldProductID]))
	assert.NotContains(t, fields, logger.FieldInvoiceNumber)
}
