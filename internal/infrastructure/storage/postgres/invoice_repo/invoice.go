// Package invoice_repo provides PostgreSQL implementations of the invoice
// and customer repositories.
package invoice_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/invoice"
	"stockledger/internal/infrastructure/storage/postgres"
)

const (
	invoicesTable = "invoices"
	itemsTable    = "invoice_items"
)

var (
	invoiceColumns = []string{"id", "number", "customer_id", "date", "vehicle_number", "total_amount", "payment_status", "created_at"}
	itemColumns    = []string{"id", "invoice_id", "line_no", "product_name", "quantity", "price_per_unit"}
)

// InvoiceRepo implements invoice.Repository.
type InvoiceRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

var _ invoice.Repository = (*InvoiceRepo)(nil)

// NewInvoiceRepo creates a new invoice repository.
func NewInvoiceRepo(txManager *postgres.TxManager) *InvoiceRepo {
	return &InvoiceRepo{txManager: txManager, builder: postgres.Builder()}
}

func (r *InvoiceRepo) Create(ctx context.Context, inv *invoice.Invoice) error {
	sql, args, err := r.builder.Insert(invoicesTable).
		Columns(invoiceColumns...).
		Values(inv.ID, inv.Number, inv.CustomerID, inv.Date, inv.VehicleNumber,
			inv.TotalAmount, inv.PaymentStatus, inv.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewDuplicate("invoice", "number", inv.Number)
		}
		return fmt.Errorf("insert %s: %w", invoicesTable, err)
	}
	return nil
}

// CreateItems uses COPY inside a transaction and a multi-row INSERT otherwise.
func (r *InvoiceRepo) CreateItems(ctx context.Context, items []invoice.Item) error {
	if len(items) == 0 {
		return nil
	}

	if tx := r.txManager.GetTx(ctx); tx != nil {
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{itemsTable}, itemColumns, pgx.CopyFromRows(itemRows(items))); err != nil {
			return fmt.Errorf("copy invoice items: %w", err)
		}
		return nil
	}

	sql, args, err := r.insertItemsQuery(items).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert invoice items: %w", err)
	}
	return nil
}

func itemRows(items []invoice.Item) [][]any {
	rows := make([][]any, 0, len(items))
	for _, it := range items {
		rows = append(rows, []any{it.ID, it.InvoiceID, it.LineNo, it.ProductName, it.Quantity, numeric(it.PricePerUnit)})
	}
	return rows
}

// numeric converts Money for the binary COPY protocol.
func numeric(m types.Money) pgtype.Numeric {
	return pgtype.Numeric{Int: m.Coefficient(), Exp: m.Exponent(), Valid: true}
}

func (r *InvoiceRepo) insertItemsQuery(items []invoice.Item) squirrel.InsertBuilder {
	q := r.builder.Insert(itemsTable).Columns(itemColumns...)
	for _, row := range itemRows(items) {
		q = q.Values(row...)
	}
	return q
}

func (r *InvoiceRepo) GetByNumber(ctx context.Context, number string) (*invoice.Invoice, error) {
	sql, args, err := r.builder.Select(invoiceColumns...).
		From(invoicesTable).
		Where(squirrel.Eq{"number": number}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)

	var inv invoice.Invoice
	if err := pgxscan.Get(ctx, querier, &inv, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("invoice", number)
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}

	sql, args, err = r.builder.Select(itemColumns...).
		From(itemsTable).
		Where(squirrel.Eq{"invoice_id": inv.ID}).
		OrderBy("line_no").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Select(ctx, querier, &inv.Items, sql, args...); err != nil {
		return nil, fmt.Errorf("list invoice items: %w", err)
	}
	return &inv, nil
}

func (r *InvoiceRepo) List(ctx context.Context, filter invoice.ListFilter) ([]invoice.Invoice, error) {
	sql, args, err := r.listQuery(filter).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var out []invoice.Invoice
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	return out, nil
}

func (r *InvoiceRepo) listQuery(filter invoice.ListFilter) squirrel.SelectBuilder {
	q := r.builder.Select(invoiceColumns...).From(invoicesTable)
	if filter.Status != "" {
		q = q.Where(squirrel.Eq{"payment_status": filter.Status})
	}
	if filter.OldestFirst {
		return q.OrderBy("date ASC", "number ASC")
	}
	return q.OrderBy("date DESC", "number DESC")
}

func (r *InvoiceRepo) UpdatePaymentStatus(ctx context.Context, number string, status invoice.PaymentStatus) error {
	sql, args, err := r.builder.Update(invoicesTable).
		Set("payment_status", status).
		Where(squirrel.Eq{"number": number}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update invoice status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("invoice", number)
	}
	return nil
}
