package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"stockledger/internal/core/apperror"
	appctx "stockledger/internal/core/context"
	"stockledger/internal/core/id"
	"stockledger/internal/domain/audit"
	"stockledger/internal/domain/customer"
	"stockledger/internal/domain/invoice"
)

// CustomerRepo implements customer.Repository.
type CustomerRepo struct{ s *Store }

var _ customer.Repository = (*CustomerRepo)(nil)

func (r *CustomerRepo) Create(ctx context.Context, c *customer.Customer) error {
	return r.s.write(ctx, func(st *state) error {
		for _, existing := range st.customers {
			if strings.EqualFold(existing.Name, c.Name) {
				return apperror.NewDuplicate("customer", "name", c.Name)
			}
		}
		st.customers[c.ID] = *c
		return nil
	})
}

func (r *CustomerRepo) GetByID(ctx context.Context, customerID id.ID) (*customer.Customer, error) {
	var out *customer.Customer
	err := r.s.read(ctx, func(st *state) error {
		c, ok := st.customers[customerID]
		if !ok {
			return apperror.NewNotFound("customer", customerID)
		}
		out = &c
		return nil
	})
	return out, err
}

func (r *CustomerRepo) GetByName(ctx context.Context, name string) (*customer.Customer, error) {
	var out *customer.Customer
	err := r.s.read(ctx, func(st *state) error {
		for _, c := range st.customers {
			if strings.EqualFold(c.Name, name) {
				c := c
				out = &c
				return nil
			}
		}
		return apperror.NewNotFound("customer", name)
	})
	return out, err
}

func (r *CustomerRepo) List(ctx context.Context) ([]customer.Customer, error) {
	var out []customer.Customer
	err := r.s.read(ctx, func(st *state) error {
		out = make([]customer.Customer, 0, len(st.customers))
		for _, c := range st.customers {
			out = append(out, c)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}

// InvoiceRepo implements invoice.Repository.
type InvoiceRepo struct{ s *Store }

var _ invoice.Repository = (*InvoiceRepo)(nil)

func (r *InvoiceRepo) Create(ctx context.Context, inv *invoice.Invoice) error {
	return r.s.write(ctx, func(st *state) error {
		if _, ok := st.invoices[inv.Number]; ok {
			return apperror.NewDuplicate("invoice", "number", inv.Number)
		}
		header := *inv
		header.Items = nil
		st.invoices[inv.Number] = header
		return nil
	})
}

func (r *InvoiceRepo) CreateItems(ctx context.Context, items []invoice.Item) error {
	return r.s.write(ctx, func(st *state) error {
		for _, it := range items {
			st.items[it.InvoiceID] = append(st.items[it.InvoiceID], it)
		}
		return nil
	})
}

func (r *InvoiceRepo) GetByNumber(ctx context.Context, number string) (*invoice.Invoice, error) {
	var out *invoice.Invoice
	err := r.s.read(ctx, func(st *state) error {
		inv, ok := st.invoices[number]
		if !ok {
			return apperror.NewNotFound("invoice", number)
		}
		inv.Items = append([]invoice.Item(nil), st.items[inv.ID]...)
		sort.Slice(inv.Items, func(i, j int) bool { return inv.Items[i].LineNo < inv.Items[j].LineNo })
		out = &inv
		return nil
	})
	return out, err
}

func (r *InvoiceRepo) List(ctx context.Context, filter invoice.ListFilter) ([]invoice.Invoice, error) {
	var out []invoice.Invoice
	err := r.s.read(ctx, func(st *state) error {
		out = make([]invoice.Invoice, 0, len(st.invoices))
		for _, inv := range st.invoices {
			if filter.Status != "" && inv.PaymentStatus != filter.Status {
				continue
			}
			out = append(out, inv)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if filter.OldestFirst {
			a, b = b, a
		}
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		return a.Number > b.Number
	})
	return out, err
}

func (r *InvoiceRepo) UpdatePaymentStatus(ctx context.Context, number string, status invoice.PaymentStatus) error {
	return r.s.write(ctx, func(st *state) error {
		inv, ok := st.invoices[number]
		if !ok {
			return apperror.NewNotFound("invoice", number)
		}
		inv.PaymentStatus = status
		st.invoices[number] = inv
		return nil
	})
}

// Count returns the number of stored invoices.
func (r *InvoiceRepo) Count(ctx context.Context) int {
	n := 0
	_ = r.s.read(ctx, func(st *state) error {
		n = len(st.invoices)
		return nil
	})
	return n
}

// AuditLog implements audit.Sink and audit.Reader.
type AuditLog struct{ s *Store }

var (
	_ audit.Sink   = (*AuditLog)(nil)
	_ audit.Reader = (*AuditLog)(nil)
)

// Record appends the entry to the current unit of work.
func (a *AuditLog) Record(ctx context.Context, entry audit.Entry) error {
	return a.s.write(ctx, func(st *state) error {
		st.audit = append(st.audit, audit.Record{
			Entry:     entry,
			UserID:    appctx.GetUserID(ctx),
			CreatedAt: time.Now().UTC(),
		})
		return nil
	})
}

// Entries returns every committed audit record in insertion order.
func (a *AuditLog) Entries(ctx context.Context) []audit.Record {
	var out []audit.Record
	_ = a.s.read(ctx, func(st *state) error {
		out = append([]audit.Record(nil), st.audit...)
		return nil
	})
	return out
}

func (a *AuditLog) EntityHistory(ctx context.Context, entityType, entityID string, limit uint64) ([]audit.Record, error) {
	var out []audit.Record
	err := a.s.read(ctx, func(st *state) error {
		for i := len(st.audit) - 1; i >= 0 && uint64(len(out)) < limit; i-- {
			rec := st.audit[i]
			if rec.EntityType == entityType && rec.EntityID == entityID {
				out = append(out, rec)
			}
		}
		return nil
	})
	return out, err
}
