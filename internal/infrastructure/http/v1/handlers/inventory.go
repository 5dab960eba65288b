package handlers

import (
	"github.com/gin-gonic/gin"

	"stockledger/internal/domain/inventory"
	"stockledger/internal/infrastructure/http/v1/dto"
)

// InventoryHandler serves products, stock adjustments and the ledger.
type InventoryHandler struct {
	BaseHandler
	service    *inventory.Service
	reconciler *inventory.Reconciler
}

func NewInventoryHandler(service *inventory.Service, reconciler *inventory.Reconciler) *InventoryHandler {
	return &InventoryHandler{service: service, reconciler: reconciler}
}

// CreateProduct handles POST /products.
func (h *InventoryHandler) CreateProduct(c *gin.Context) {
	var req dto.CreateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}

	product, err := h.service.CreateProduct(c.Request.Context(), req.ToDomain())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, product.ID.String())
}

// GetProduct handles GET /products/:id.
func (h *InventoryHandler) GetProduct(c *gin.Context) {
	productID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	view, err := h.service.GetProduct(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, view)
}

// DeleteProduct handles DELETE /products/:id. Ledger entries are kept.
func (h *InventoryHandler) DeleteProduct(c *gin.Context) {
	productID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteProduct(c.Request.Context(), productID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// ListStock handles GET /products.
func (h *InventoryHandler) ListStock(c *gin.Context) {
	views, err := h.service.ListStock(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(views))
}

// Adjust handles POST /products/:id/adjustments.
func (h *InventoryHandler) Adjust(c *gin.Context) {
	productID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	var req dto.AdjustStockRequest
	if !h.BindJSON(c, &req) {
		return
	}

	res, err := h.service.Adjust(c.Request.Context(), req.ToDomain(productID))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromAdjustResult(productID, res))
}

// History handles GET /products/:id/history.
func (h *InventoryHandler) History(c *gin.Context) {
	productID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	records, err := h.service.History(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(records))
}

// Summary handles GET /inventory/summary.
func (h *InventoryHandler) Summary(c *gin.Context) {
	summary, err := h.service.Summary(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, summary)
}

// Integrity handles GET /inventory/integrity. Nothing is repaired.
func (h *InventoryHandler) Integrity(c *gin.Context) {
	report, err := h.reconciler.Report(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromReport(report))
}

// Orphans handles GET /inventory/orphans.
func (h *InventoryHandler) Orphans(c *gin.Context) {
	orphans, err := h.reconciler.FindOrphanedHistory(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(orphans))
}
