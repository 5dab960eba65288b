package invoice_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/domain/customer"
	"stockledger/internal/infrastructure/storage/postgres"
)

const customersTable = "customers"

var customerColumns = []string{"id", "name", "gstin", "state", "state_code", "address", "created_at"}

// CustomerRepo implements customer.Repository.
type CustomerRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

var _ customer.Repository = (*CustomerRepo)(nil)

// NewCustomerRepo creates a new customer repository.
func NewCustomerRepo(txManager *postgres.TxManager) *CustomerRepo {
	return &CustomerRepo{txManager: txManager, builder: postgres.Builder()}
}

func (r *CustomerRepo) Create(ctx context.Context, c *customer.Customer) error {
	sql, args, err := r.builder.Insert(customersTable).
		Columns(customerColumns...).
		Values(c.ID, c.Name, c.GSTIN, c.State, c.StateCode, c.Address, c.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewDuplicate("customer", "name", c.Name)
		}
		return fmt.Errorf("insert %s: %w", customersTable, err)
	}
	return nil
}

func (r *CustomerRepo) GetByID(ctx context.Context, customerID id.ID) (*customer.Customer, error) {
	return r.getOne(ctx, squirrel.Eq{"id": customerID}, customerID.String())
}

func (r *CustomerRepo) GetByName(ctx context.Context, name string) (*customer.Customer, error) {
	return r.getOne(ctx, squirrel.Expr("lower(name) = lower(?)", name), name)
}

func (r *CustomerRepo) getOne(ctx context.Context, where squirrel.Sqlizer, key string) (*customer.Customer, error) {
	sql, args, err := r.builder.Select(customerColumns...).
		From(customersTable).
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var c customer.Customer
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &c, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("customer", key)
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return &c, nil
}

func (r *CustomerRepo) List(ctx context.Context) ([]customer.Customer, error) {
	sql, args, err := r.builder.Select(customerColumns...).
		From(customersTable).
		OrderBy("name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var out []customer.Customer
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return out, nil
}
