package invoice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"stockledger/internal/core/apperror"
	appctx "stockledger/internal/core/context"
	"stockledger/internal/core/id"
	"stockledger/internal/core/numerator"
	"stockledger/internal/core/tx"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/audit"
	"stockledger/internal/domain/customer"
	"stockledger/internal/domain/inventory"
	"stockledger/pkg/logger"
	"stockledger/pkg/validator"
)

var tracer = otel.Tracer("stockledger/invoice")

// StockService is the part of the stock mutation service the orchestrator needs.
type StockService interface {
	AvailableForUpdate(ctx context.Context, productID id.ID) (int64, error)
	Deduct(ctx context.Context, productID id.ID, qty int64, reason, userID string) (*inventory.AdjustResult, error)
}

// Service commits invoices.
type Service struct {
	repo      Repository
	customers customer.Repository
	products  inventory.ProductRepository
	stock     StockService
	numbers   numerator.Allocator
	txManager tx.Manager
	audit     audit.Sink
}

// NewService creates a new invoice service.
func NewService(
	repo Repository,
	customers customer.Repository,
	products inventory.ProductRepository,
	stock StockService,
	numbers numerator.Allocator,
	txManager tx.Manager,
	sink audit.Sink,
) *Service {
	if sink == nil {
		sink = audit.NopSink{}
	}
	return &Service{
		repo:      repo,
		customers: customers,
		products:  products,
		stock:     stock,
		numbers:   numbers,
		txManager: txManager,
		audit:     sink,
	}
}

// resolvedLine is a request line bound to its product.
type resolvedLine struct {
	product  *inventory.Product
	quantity int64
	price    types.Money
}

// Commit creates the invoice, deducts stock for every line and stores item
// snapshots. Either all of it commits or none of it does.
//
// The number is allocated after every business check passed, so a rejected
// invoice does not consume one. A failure after allocation leaves a gap in
// the sequence; the number is never handed out twice.
func (s *Service) Commit(ctx context.Context, req CommitRequest) (*Invoice, error) {
	if err := validator.Validate(req); err != nil {
		return nil, err
	}
	for i, li := range req.Items {
		if li.PricePerUnit != nil && li.PricePerUnit.IsNegative() {
			return nil, apperror.NewValidation("price per unit must not be negative").
				WithDetail("line", i+1)
		}
	}

	ctx, span := tracer.Start(ctx, "invoice.commit")
	defer span.End()

	date := req.Date
	if date.IsZero() {
		date = time.Now()
	}
	userID := appctx.GetUserID(ctx)
	ctx = logger.WithFields(ctx, logger.FieldCustomerID, req.CustomerID)

	var inv *Invoice
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.customers.GetByID(ctx, req.CustomerID); err != nil {
			return err
		}

		lines, err := s.resolveLines(ctx, req.Items)
		if err != nil {
			return err
		}
		if err := s.checkStock(ctx, lines); err != nil {
			return err
		}

		number, err := s.numbers.Next(ctx)
		if err != nil {
			return err
		}
		ctx = logger.WithFields(ctx, logger.FieldInvoiceNumber, number)

		inv = &Invoice{
			ID:            id.New(),
			Number:        number,
			CustomerID:    req.CustomerID,
			Date:          date.UTC(),
			VehicleNumber: strings.TrimSpace(req.VehicleNumber),
			TotalAmount:   types.Zero(),
			PaymentStatus: PaymentPending,
			CreatedAt:     time.Now().UTC(),
		}
		for _, l := range lines {
			inv.TotalAmount = inv.TotalAmount.Add(types.LineTotal(l.quantity, l.price))
		}
		if err := s.repo.Create(ctx, inv); err != nil {
			return fmt.Errorf("create invoice: %w", err)
		}

		reason := inventory.InvoiceReason(number)
		inv.Items = make([]Item, 0, len(lines))
		for i, l := range lines {
			if _, err := s.stock.Deduct(ctx, l.product.ID, l.quantity, reason, userID); err != nil {
				return err
			}
			inv.Items = append(inv.Items, Item{
				ID:           id.New(),
				InvoiceID:    inv.ID,
				LineNo:       i + 1,
				ProductName:  l.product.Name,
				Quantity:     l.quantity,
				PricePerUnit: l.price,
			})
		}
		if err := s.repo.CreateItems(ctx, inv.Items); err != nil {
			return fmt.Errorf("create invoice items: %w", err)
		}

		return s.audit.Record(ctx, audit.Entry{
			Action:     audit.ActionCreate,
			EntityType: audit.EntityInvoice,
			EntityID:   inv.ID.String(),
			Details:    creationDetails(inv),
		})
	})
	if err != nil {
		span.RecordError(err)
		if inv != nil {
			logger.Error(logger.WithFields(ctx, logger.FieldInvoiceNumber, inv.Number),
				"invoice commit rolled back after number allocation",
				"error", err,
			)
		}
		return nil, err
	}

	span.SetAttributes(attribute.String("invoice.number", inv.Number))
	logger.Info(logger.WithFields(ctx, logger.FieldInvoiceNumber, inv.Number), "invoice committed",
		"items", len(inv.Items),
		"total", inv.TotalAmount.String(),
	)
	return inv, nil
}

// creationDetails describes the invoice and every item snapshot, so the audit
// trail alone is enough to reconstruct what was sold.
func creationDetails(inv *Invoice) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Invoice '%s' created with total %s.", inv.Number, inv.TotalAmount.StringFixed(2))
	if inv.VehicleNumber != "" {
		fmt.Fprintf(&b, " Vehicle: %s.", inv.VehicleNumber)
	}
	b.WriteString(" Items:")
	for _, it := range inv.Items {
		fmt.Fprintf(&b, " %d. %s x%d @ %s = %s;", it.LineNo, it.ProductName, it.Quantity,
			it.PricePerUnit.StringFixed(2), it.Total().StringFixed(2))
	}
	return b.String()
}

func (s *Service) resolveLines(ctx context.Context, items []LineItem) ([]resolvedLine, error) {
	lines := make([]resolvedLine, 0, len(items))
	for _, li := range items {
		var (
			p   *inventory.Product
			err error
		)
		if li.ProductID != nil && !id.IsNil(*li.ProductID) {
			p, err = s.products.GetByID(ctx, *li.ProductID)
		} else {
			p, err = s.products.GetByName(ctx, strings.TrimSpace(li.ProductName))
		}
		if err != nil {
			return nil, err
		}

		price := p.Price
		if li.PricePerUnit != nil {
			price = *li.PricePerUnit
		}
		lines = append(lines, resolvedLine{product: p, quantity: li.Quantity, price: price})
	}
	return lines, nil
}

// checkStock locks each product's inventory and compares the summed demand
// of all lines naming it against available stock.
func (s *Service) checkStock(ctx context.Context, lines []resolvedLine) error {
	requested := make(map[id.ID]int64, len(lines))
	order := make([]*inventory.Product, 0, len(lines))
	for _, l := range lines {
		if _, seen := requested[l.product.ID]; !seen {
			order = append(order, l.product)
		}
		requested[l.product.ID] += l.quantity
	}

	for _, p := range order {
		available, err := s.stock.AvailableForUpdate(ctx, p.ID)
		if err != nil {
			return err
		}
		if available < requested[p.ID] {
			logger.Warn(logger.WithFields(ctx, logger.FieldProductID, p.ID), "invoice rejected: insufficient stock",
				"product", p.Name,
				"requested", requested[p.ID],
				"available", available,
			)
			return apperror.NewInsufficientStock(p.Name, requested[p.ID], available)
		}
	}
	return nil
}

// PeekNextNumber returns the number the next committed invoice would get.
func (s *Service) PeekNextNumber(ctx context.Context) string {
	return s.numbers.Peek(ctx)
}

// GetByNumber returns a committed invoice with its items.
func (s *Service) GetByNumber(ctx context.Context, number string) (*Invoice, error) {
	var inv *Invoice
	err := s.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		inv, err = s.repo.GetByNumber(ctx, strings.TrimSpace(number))
		return err
	})
	return inv, err
}

// List returns invoice headers matching filter, newest first by default.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Invoice, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apperror.NewValidation("unknown payment status").
			WithDetail("status", filter.Status)
	}

	var out []Invoice
	err := s.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		out, err = s.repo.List(ctx, filter)
		return err
	})
	return out, err
}

// SetPaymentStatus changes the payment status of a committed invoice.
// Setting the current status again is a no-op and writes no audit entry.
func (s *Service) SetPaymentStatus(ctx context.Context, number string, status PaymentStatus) (*Invoice, error) {
	if !status.Valid() {
		return nil, apperror.NewValidation("unknown payment status").
			WithDetail("status", status)
	}
	number = strings.TrimSpace(number)
	ctx = logger.WithFields(ctx, logger.FieldInvoiceNumber, number)

	var (
		inv      *Invoice
		previous PaymentStatus
	)
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		inv, err = s.repo.GetByNumber(ctx, number)
		if err != nil {
			return err
		}
		previous = inv.PaymentStatus
		if previous == status {
			return nil
		}

		if err := s.repo.UpdatePaymentStatus(ctx, number, status); err != nil {
			return err
		}
		inv.PaymentStatus = status

		return s.audit.Record(ctx, audit.Entry{
			Action:     audit.ActionUpdate,
			EntityType: audit.EntityInvoice,
			EntityID:   inv.ID.String(),
			Details:    fmt.Sprintf("Invoice '%s' payment status changed from %s to %s.", number, previous, status),
		})
	})
	if err != nil {
		return nil, err
	}

	if previous != status {
		logger.Info(ctx, "invoice payment status changed", "from", previous, "to", status)
	}
	return inv, nil
}
