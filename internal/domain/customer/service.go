package customer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/tx"
	"stockledger/internal/domain/audit"
	"stockledger/pkg/logger"
	"stockledger/pkg/validator"
)

// Service provides customer operations.
type Service struct {
	repo      Repository
	txManager tx.Manager
	audit     audit.Sink
}

// NewService creates a new customer service.
func NewService(repo Repository, txManager tx.Manager, sink audit.Sink) *Service {
	if sink == nil {
		sink = audit.NopSink{}
	}
	return &Service{repo: repo, txManager: txManager, audit: sink}
}

// CreateRequest holds the fields of a new customer.
type CreateRequest struct {
	Name      string `validate:"required,max=255"`
	GSTIN     string `validate:"omitempty,len=15,alphanum"`
	State     string `validate:"max=100"`
	StateCode string `validate:"max=10"`
	Address   string `validate:"max=1000"`
}

// Create inserts a customer. Names are unique.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Customer, error) {
	if err := validator.Validate(req); err != nil {
		return nil, err
	}

	c := &Customer{
		ID:        id.New(),
		Name:      strings.TrimSpace(req.Name),
		GSTIN:     strings.ToUpper(strings.TrimSpace(req.GSTIN)),
		State:     req.State,
		StateCode: req.StateCode,
		Address:   req.Address,
		CreatedAt: time.Now().UTC(),
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetByName(ctx, c.Name); err == nil {
			return apperror.NewDuplicate("customer", "name", c.Name)
		} else if !apperror.IsNotFound(err) {
			return err
		}
		if err := s.repo.Create(ctx, c); err != nil {
			return fmt.Errorf("create customer: %w", err)
		}
		return s.audit.Record(ctx, audit.Entry{
			Action:     audit.ActionCreate,
			EntityType: audit.EntityCustomer,
			EntityID:   c.ID.String(),
			Details:    fmt.Sprintf("Customer '%s' created.", c.Name),
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "customer created", logger.FieldCustomerID, c.ID, "name", c.Name)
	return c, nil
}

// GetByID returns a customer or NOT_FOUND.
func (s *Service) GetByID(ctx context.Context, customerID id.ID) (*Customer, error) {
	return s.repo.GetByID(ctx, customerID)
}

// List returns all customers ordered by name.
func (s *Service) List(ctx context.Context) ([]Customer, error) {
	return s.repo.List(ctx)
}
