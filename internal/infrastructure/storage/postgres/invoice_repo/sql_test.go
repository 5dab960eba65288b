package invoice_repo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/invoice"
)

func TestInvoiceRepo_InsertItemsSQL(t *testing.T) {
	repo := NewInvoiceRepo(nil)
	invoiceID := id.New()
	items := []invoice.Item{
		{ID: id.New(), InvoiceID: invoiceID, LineNo: 1, ProductName: "Cement", Quantity: 4, PricePerUnit: types.MustMoney("350")},
		{ID: id.New(), InvoiceID: invoiceID, LineNo: 2, ProductName: "Sand", Quantity: 1, PricePerUnit: types.MustMoney("15")},
	}

	sql, args, err := repo.insertItemsQuery(items).ToSql()
	require.NoError(t, err)

	assert.Equal(t,
		"INSERT INTO invoice_items (id,invoice_id,line_no,product_name,quantity,price_per_unit) VALUES ($1,$2,$3,$4,$5,$6),($7,$8,$9,$10,$11,$12)",
		sql)
	require.Len(t, args, 12)
	assert.Equal(t, "Sand", args[9])
	assert.Equal(t, int64(1), args[10])
}

func TestItemRows_MatchColumns(t *testing.T) {
	rows := itemRows([]invoice.Item{{ID: id.New(), ProductName: "Tiles", Quantity: 2}})

	require.Len(t, rows, 1)
	assert.Len(t, rows[0], len(itemColumns))
}

func TestNumeric(t *testing.T) {
	n := numeric(types.MustMoney("120.50"))

	assert.True(t, n.Valid)
	assert.Equal(t, int32(-2), n.Exp)
	assert.Equal(t, "12050", n.Int.String())
}

func TestInvoiceRepo_ListSQL(t *testing.T) {
	repo := NewInvoiceRepo(nil)

	tests := []struct {
		name   string
		filter invoice.ListFilter
		want   string
		args   int
	}{
		{
			name: "newest first",
			want: "SELECT id, number, customer_id, date, vehicle_number, total_amount, payment_status, created_at FROM invoices ORDER BY date DESC, number DESC",
		},
		{
			name:   "pending oldest first",
			filter: invoice.ListFilter{Status: invoice.PaymentPending, OldestFirst: true},
			want:   "SELECT id, number, customer_id, date, vehicle_number, total_amount, payment_status, created_at FROM invoices WHERE payment_status = $1 ORDER BY date ASC, number ASC",
			args:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := repo.listQuery(tt.filter).ToSql()
			require.NoError(t, err)
			assert.Equal(t, tt.want, sql)
			assert.Len(t, args, tt.args)
		})
	}
}
