package memory

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/domain/inventory"
)

// ProductRepo implements inventory.ProductRepository.
type ProductRepo struct{ s *Store }

var _ inventory.ProductRepository = (*ProductRepo)(nil)

func (r *ProductRepo) Create(ctx context.Context, p *inventory.Product) error {
	return r.s.write(ctx, func(st *state) error {
		if _, ok := st.products[p.ID]; ok {
			return apperror.NewDuplicate("product", "id", p.ID.String())
		}
		for _, existing := range st.products {
			if strings.EqualFold(existing.Name, p.Name) {
				return apperror.NewDuplicate("product", "name", p.Name)
			}
		}
		st.products[p.ID] = *p
		return nil
	})
}

func (r *ProductRepo) GetByID(ctx context.Context, productID id.ID) (*inventory.Product, error) {
	var out *inventory.Product
	err := r.s.read(ctx, func(st *state) error {
		p, ok := st.products[productID]
		if !ok {
			return apperror.NewNotFound("product", productID)
		}
		out = &p
		return nil
	})
	return out, err
}

func (r *ProductRepo) GetByName(ctx context.Context, name string) (*inventory.Product, error) {
	var out *inventory.Product
	err := r.s.read(ctx, func(st *state) error {
		for _, p := range st.products {
			if strings.EqualFold(p.Name, name) {
				p := p
				out = &p
				return nil
			}
		}
		return apperror.NewNotFound("product", name)
	})
	return out, err
}

func (r *ProductRepo) List(ctx context.Context) ([]inventory.Product, error) {
	var out []inventory.Product
	err := r.s.read(ctx, func(st *state) error {
		out = make([]inventory.Product, 0, len(st.products))
		for _, p := range st.products {
			out = append(out, p)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}

// Delete cascades to the inventory record and leaves history in place.
func (r *ProductRepo) Delete(ctx context.Context, productID id.ID) error {
	return r.s.write(ctx, func(st *state) error {
		if _, ok := st.products[productID]; !ok {
			return apperror.NewNotFound("product", productID)
		}
		delete(st.products, productID)
		delete(st.inventory, productID)
		return nil
	})
}

// InventoryRepo implements inventory.InventoryRepository.
type InventoryRepo struct{ s *Store }

var _ inventory.InventoryRepository = (*InventoryRepo)(nil)

// GetForUpdate needs no row lock: the unit of work already holds the store.
func (r *InventoryRepo) GetForUpdate(ctx context.Context, productID id.ID) (*inventory.Inventory, error) {
	return r.Get(ctx, productID)
}

func (r *InventoryRepo) Get(ctx context.Context, productID id.ID) (*inventory.Inventory, error) {
	var out *inventory.Inventory
	err := r.s.read(ctx, func(st *state) error {
		inv, ok := st.inventory[productID]
		if !ok {
			return apperror.NewNotFound("inventory", productID)
		}
		out = &inv
		return nil
	})
	return out, err
}

func (r *InventoryRepo) Create(ctx context.Context, inv *inventory.Inventory) error {
	return r.s.write(ctx, func(st *state) error {
		if _, ok := st.products[inv.ProductID]; !ok {
			return apperror.NewNotFound("product", inv.ProductID)
		}
		if _, ok := st.inventory[inv.ProductID]; ok {
			return apperror.NewDuplicate("inventory", "product_id", inv.ProductID.String())
		}
		st.inventory[inv.ProductID] = *inv
		return nil
	})
}

func (r *InventoryRepo) UpdateStock(ctx context.Context, productID id.ID, stock int64) error {
	return r.s.write(ctx, func(st *state) error {
		inv, ok := st.inventory[productID]
		if !ok {
			return apperror.NewNotFound("inventory", productID)
		}
		inv.StockQuantity = stock
		inv.UpdatedAt = time.Now().UTC()
		st.inventory[productID] = inv
		return nil
	})
}

func (r *InventoryRepo) List(ctx context.Context) ([]inventory.Inventory, error) {
	var out []inventory.Inventory
	err := r.s.read(ctx, func(st *state) error {
		out = make([]inventory.Inventory, 0, len(st.inventory))
		for _, inv := range st.inventory {
			out = append(out, inv)
		}
		return nil
	})
	return out, err
}

// HistoryRepo implements inventory.HistoryRepository.
type HistoryRepo struct{ s *Store }

var _ inventory.HistoryRepository = (*HistoryRepo)(nil)

func (r *HistoryRepo) Append(ctx context.Context, rec *inventory.HistoryRecord) error {
	if id.IsNil(rec.ID) {
		rec.ID = id.New()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	return r.s.write(ctx, func(st *state) error {
		st.history = append(st.history, *rec)
		return nil
	})
}

func (r *HistoryRepo) ListByProduct(ctx context.Context, productID id.ID) ([]inventory.HistoryRecord, error) {
	var out []inventory.HistoryRecord
	err := r.s.read(ctx, func(st *state) error {
		for _, rec := range st.history {
			if rec.ProductID == productID {
				out = append(out, rec)
			}
		}
		return nil
	})
	sortLedger(out)
	return out, err
}

func (r *HistoryRepo) ListOrphaned(ctx context.Context) ([]id.ID, error) {
	var orphans []inventory.HistoryRecord
	err := r.s.read(ctx, func(st *state) error {
		for _, rec := range st.history {
			if _, ok := st.products[rec.ProductID]; !ok {
				orphans = append(orphans, rec)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sortLedger(orphans)
	out := make([]id.ID, 0, len(orphans))
	for _, rec := range orphans {
		out = append(out, rec.ID)
	}
	return out, nil
}

// sortLedger orders records by (timestamp, id).
func sortLedger(records []inventory.HistoryRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.Before(b.Timestamp)
		}
		return bytes.Compare(a.ID[:], b.ID[:]) < 0
	})
}
