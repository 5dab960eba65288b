package handlers

import (
	"github.com/gin-gonic/gin"

	"stockledger/internal/domain/invoice"
	"stockledger/internal/infrastructure/http/v1/dto"
)

type InvoiceHandler struct {
	BaseHandler
	service *invoice.Service
}

func NewInvoiceHandler(service *invoice.Service) *InvoiceHandler {
	return &InvoiceHandler{service: service}
}

// Commit handles POST /invoices. Either the whole invoice is stored and
// stock deducted, or nothing changes.
func (h *InvoiceHandler) Commit(c *gin.Context) {
	var req dto.CommitInvoiceRequest
	if !h.BindJSON(c, &req) {
		return
	}

	commit, err := req.ToDomain()
	if err != nil {
		h.Error(c, err)
		return
	}

	inv, err := h.service.Commit(c.Request.Context(), commit)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.CreatedWith(c, inv)
}

// NextNumber handles GET /invoices/next-number. Nothing is consumed.
func (h *InvoiceHandler) NextNumber(c *gin.Context) {
	h.OK(c, dto.NextNumberResponse{Number: h.service.PeekNextNumber(c.Request.Context())})
}

// Get handles GET /invoices/:number.
func (h *InvoiceHandler) Get(c *gin.Context) {
	inv, err := h.service.GetByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, inv)
}

// List handles GET /invoices?status=Pending&order=oldest.
func (h *InvoiceHandler) List(c *gin.Context) {
	var q dto.ListInvoicesQuery
	if !h.BindQuery(c, &q) {
		return
	}

	list, err := h.service.List(c.Request.Context(), q.ToDomain())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(list))
}

// SetStatus handles PATCH /invoices/:number/status.
func (h *InvoiceHandler) SetStatus(c *gin.Context) {
	var req dto.SetPaymentStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}

	inv, err := h.service.SetPaymentStatus(c.Request.Context(), c.Param("number"), invoice.PaymentStatus(req.Status))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, inv)
}
