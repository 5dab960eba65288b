package handlers

import (
	"github.com/gin-gonic/gin"

	"stockledger/internal/domain/audit"
	"stockledger/internal/infrastructure/http/v1/dto"
)

type AuditHandler struct {
	BaseHandler
	service *audit.Service
}

func NewAuditHandler(service *audit.Service) *AuditHandler {
	return &AuditHandler{service: service}
}

// Trail handles GET /audit/:entityType/:entityId, newest first.
func (h *AuditHandler) Trail(c *gin.Context) {
	var q dto.AuditTrailQuery
	if !h.BindQuery(c, &q) {
		return
	}

	trail, err := h.service.Trail(c.Request.Context(), c.Param("entityType"), c.Param("entityId"), q.Limit)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(trail))
}
