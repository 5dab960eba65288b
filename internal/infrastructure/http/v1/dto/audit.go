package dto

// AuditTrailQuery pages GET /audit/:entityType/:entityId.
type AuditTrailQuery struct {
	Limit uint64 `form:"limit"`
}
