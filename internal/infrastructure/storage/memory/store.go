// Package memory is a process-local storage adapter.
// It backs STORAGE=memory mode and the domain tests.
//
// A unit of work holds the store's write lock for its whole duration and is
// rolled back by restoring the snapshot taken when it began. Read-only units
// of work share the read lock, so readers never observe uncommitted writes.
package memory

import (
	"context"
	"errors"
	"sync"

	"stockledger/internal/core/id"
	"stockledger/internal/core/tx"
	"stockledger/internal/domain/audit"
	"stockledger/internal/domain/customer"
	"stockledger/internal/domain/inventory"
	"stockledger/internal/domain/invoice"
)

// ErrReadOnly is returned for writes attempted inside a read-only unit of work.
var ErrReadOnly = errors.New("memory store: write in read-only unit of work")

type state struct {
	products  map[id.ID]inventory.Product
	inventory map[id.ID]inventory.Inventory
	history   []inventory.HistoryRecord
	customers map[id.ID]customer.Customer
	invoices  map[string]invoice.Invoice
	items     map[id.ID][]invoice.Item
	audit     []audit.Record
}

func newState() *state {
	return &state{
		products:  make(map[id.ID]inventory.Product),
		inventory: make(map[id.ID]inventory.Inventory),
		customers: make(map[id.ID]customer.Customer),
		invoices:  make(map[string]invoice.Invoice),
		items:     make(map[id.ID][]invoice.Item),
	}
}

func (st *state) clone() *state {
	c := &state{
		products:  make(map[id.ID]inventory.Product, len(st.products)),
		inventory: make(map[id.ID]inventory.Inventory, len(st.inventory)),
		history:   append([]inventory.HistoryRecord(nil), st.history...),
		customers: make(map[id.ID]customer.Customer, len(st.customers)),
		invoices:  make(map[string]invoice.Invoice, len(st.invoices)),
		items:     make(map[id.ID][]invoice.Item, len(st.items)),
		audit:     append([]audit.Record(nil), st.audit...),
	}
	for k, v := range st.products {
		c.products[k] = v
	}
	for k, v := range st.inventory {
		c.inventory[k] = v
	}
	for k, v := range st.customers {
		c.customers[k] = v
	}
	for k, v := range st.invoices {
		c.invoices[k] = v
	}
	for k, v := range st.items {
		c.items[k] = append([]invoice.Item(nil), v...)
	}
	return c
}

// Store holds every table of the ledger in memory.
type Store struct {
	mu    sync.RWMutex
	state *state
}

// Compile-time check that Store implements tx.Manager interface.
var _ tx.Manager = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{state: newState()}
}

// uowKey is the context key for the active unit of work.
type uowKey struct{}

type uow struct {
	readOnly bool
}

func current(ctx context.Context) *uow {
	if u, ok := ctx.Value(uowKey{}).(*uow); ok {
		return u
	}
	return nil
}

// RunInTransaction implements tx.Manager.
// Nested calls reuse the unit of work already carried by ctx.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if u := current(ctx); u != nil {
		if u.readOnly {
			return ErrReadOnly
		}
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	defer func() {
		if p := recover(); p != nil {
			s.state = snapshot
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, uowKey{}, &uow{})); err != nil {
		s.state = snapshot
		return err
	}
	return nil
}

// ReadOnly implements tx.Manager.
func (s *Store) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	if current(ctx) != nil {
		return fn(ctx)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(context.WithValue(ctx, uowKey{}, &uow{readOnly: true}))
}

// Ping implements the readiness check.
func (s *Store) Ping(context.Context) error { return nil }

// read runs fn under the caller's unit of work, or the read lock outside one.
func (s *Store) read(ctx context.Context, fn func(st *state) error) error {
	if current(ctx) != nil {
		return fn(s.state)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.state)
}

// write runs fn under the caller's unit of work, or as a single locked
// operation outside one.
func (s *Store) write(ctx context.Context, fn func(st *state) error) error {
	if u := current(ctx); u != nil {
		if u.readOnly {
			return ErrReadOnly
		}
		return fn(s.state)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.state)
}

// Products returns the product repository.
func (s *Store) Products() *ProductRepo { return &ProductRepo{s: s} }

// Inventory returns the inventory repository.
func (s *Store) Inventory() *InventoryRepo { return &InventoryRepo{s: s} }

// History returns the stock ledger repository.
func (s *Store) History() *HistoryRepo { return &HistoryRepo{s: s} }

// Customers returns the customer repository.
func (s *Store) Customers() *CustomerRepo { return &CustomerRepo{s: s} }

// Invoices returns the invoice repository.
func (s *Store) Invoices() *InvoiceRepo { return &InvoiceRepo{s: s} }

// Audit returns the audit log.
func (s *Store) Audit() *AuditLog { return &AuditLog{s: s} }
