package audit

import (
	"context"
	"strings"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/tx"
)

// Trail limits.
const (
	DefaultTrailLimit = 50
	MaxTrailLimit     = 500
)

var entityTypes = map[string]string{
	strings.ToLower(EntityProduct):   EntityProduct,
	strings.ToLower(EntityInventory): EntityInventory,
	strings.ToLower(EntityInvoice):   EntityInvoice,
	strings.ToLower(EntityCustomer):  EntityCustomer,
}

// Service reads the audit trail.
type Service struct {
	reader    Reader
	txManager tx.Manager
}

// NewService creates a new audit trail service.
func NewService(reader Reader, txManager tx.Manager) *Service {
	return &Service{reader: reader, txManager: txManager}
}

// Trail returns the newest records of one entity. The entity type is matched
// case-insensitively; limit 0 means DefaultTrailLimit and is capped at MaxTrailLimit.
func (s *Service) Trail(ctx context.Context, entityType, entityID string, limit uint64) ([]Record, error) {
	canonical, ok := entityTypes[strings.ToLower(strings.TrimSpace(entityType))]
	if !ok {
		return nil, apperror.NewValidation("unknown entity type").
			WithDetail("entityType", entityType)
	}
	entityID = strings.TrimSpace(entityID)
	if entityID == "" {
		return nil, apperror.NewValidation("entity id is required")
	}

	switch {
	case limit == 0:
		limit = DefaultTrailLimit
	case limit > MaxTrailLimit:
		limit = MaxTrailLimit
	}

	var out []Record
	err := s.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		out, err = s.reader.EntityHistory(ctx, canonical, entityID, limit)
		return err
	})
	return out, err
}
