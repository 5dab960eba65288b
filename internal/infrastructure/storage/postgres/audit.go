package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/klauspost/compress/zstd"

	appctx "stockledger/internal/core/context"
	"stockledger/internal/core/id"
	"stockledger/internal/domain/audit"
)

// CompressionAlgo specifies how audit details are stored.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

const auditTable = "sys_audit"

// DefaultCompressThreshold is the details size above which zstd is used.
const DefaultCompressThreshold = 2 * 1024

// AuditRecord is a stored audit row.
type AuditRecord struct {
	ID                id.ID           `db:"id"`
	Action            string          `db:"action"`
	EntityType        string          `db:"entity_type"`
	EntityID          string          `db:"entity_id"`
	UserID            string          `db:"user_id"`
	Details           *string         `db:"details"`
	DetailsCompressed []byte          `db:"details_compressed"`
	CompressionAlgo   CompressionAlgo `db:"compression_algo"`
	CreatedAt         time.Time       `db:"created_at"`
}

// AuditLog implements audit.Sink on sys_audit. It writes through the
// transaction in ctx, so entries share the fate of the mutation they describe.
type AuditLog struct {
	txManager         *TxManager
	builder           squirrel.StatementBuilderType
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int
}

var (
	_ audit.Sink   = (*AuditLog)(nil)
	_ audit.Reader = (*AuditLog)(nil)
)

// NewAuditLog creates a new audit log.
func NewAuditLog(txManager *TxManager) (*AuditLog, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &AuditLog{
		txManager:         txManager,
		builder:           squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: DefaultCompressThreshold,
	}, nil
}

// Record implements audit.Sink.
func (l *AuditLog) Record(ctx context.Context, entry audit.Entry) error {
	rec := l.encode(entry)
	rec.UserID = appctx.GetUserID(ctx)

	sql, args, err := l.insertQuery(rec).ToSql()
	if err != nil {
		return fmt.Errorf("build audit insert: %w", err)
	}

	if _, err := l.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert audit: %w", err)
	}
	return nil
}

// EntityHistory returns the audit trail of one entity, newest first.
func (l *AuditLog) EntityHistory(ctx context.Context, entityType, entityID string, limit uint64) ([]audit.Record, error) {
	sql, args, err := l.historyQuery(entityType, entityID, limit).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build audit query: %w", err)
	}

	var rows []AuditRecord
	if err := pgxscan.Select(ctx, l.txManager.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("query audit: %w", err)
	}

	out := make([]audit.Record, 0, len(rows))
	for _, rec := range rows {
		entry, err := l.decode(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, audit.Record{Entry: entry, UserID: rec.UserID, CreatedAt: rec.CreatedAt})
	}
	return out, nil
}

// historyQuery orders by id as well: v7 ids break ties between entries
// written in the same instant.
func (l *AuditLog) historyQuery(entityType, entityID string, limit uint64) squirrel.SelectBuilder {
	return l.builder.
		Select("id", "action", "entity_type", "entity_id", "user_id",
			"details", "details_compressed", "compression_algo", "created_at").
		From(auditTable).
		Where(squirrel.Eq{"entity_type": entityType, "entity_id": entityID}).
		OrderBy("created_at DESC", "id DESC").
		Limit(limit)
}

func (l *AuditLog) insertQuery(rec AuditRecord) squirrel.InsertBuilder {
	return l.builder.Insert(auditTable).
		Columns("id", "action", "entity_type", "entity_id", "user_id",
			"details", "details_compressed", "compression_algo", "created_at").
		Values(rec.ID, rec.Action, rec.EntityType, rec.EntityID, rec.UserID,
			rec.Details, rec.DetailsCompressed, rec.CompressionAlgo, rec.CreatedAt)
}

// encode compresses details larger than the threshold.
func (l *AuditLog) encode(entry audit.Entry) AuditRecord {
	rec := AuditRecord{
		ID:              id.New(),
		Action:          entry.Action,
		EntityType:      entry.EntityType,
		EntityID:        entry.EntityID,
		CompressionAlgo: CompressionNone,
		CreatedAt:       time.Now().UTC(),
	}
	if len(entry.Details) > l.compressThreshold {
		rec.DetailsCompressed = l.encoder.EncodeAll([]byte(entry.Details), nil)
		rec.CompressionAlgo = CompressionZstd
		return rec
	}
	details := entry.Details
	rec.Details = &details
	return rec
}

func (l *AuditLog) decode(rec AuditRecord) (audit.Entry, error) {
	entry := audit.Entry{
		Action:     rec.Action,
		EntityType: rec.EntityType,
		EntityID:   rec.EntityID,
	}
	switch rec.CompressionAlgo {
	case CompressionZstd:
		raw, err := l.decoder.DecodeAll(rec.DetailsCompressed, nil)
		if err != nil {
			return entry, fmt.Errorf("decompress audit details: %w", err)
		}
		entry.Details = string(raw)
	default:
		if rec.Details != nil {
			entry.Details = *rec.Details
		}
	}
	return entry, nil
}
