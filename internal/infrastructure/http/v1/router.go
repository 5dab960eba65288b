// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"stockledger/internal/domain/audit"
	"stockledger/internal/domain/customer"
	"stockledger/internal/domain/inventory"
	"stockledger/internal/domain/invoice"
	"stockledger/internal/infrastructure/http/v1/handlers"
	"stockledger/internal/infrastructure/http/v1/middleware"
	"stockledger/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	Inventory  *inventory.Service
	Reconciler *inventory.Reconciler
	Invoices   *invoice.Service
	Customers  *customer.Service
	Audit      *audit.Service

	// Store backs the readiness probe; Backend names it in the response.
	Store   handlers.Pinger
	Backend string

	Logger *logger.Logger

	// JWTValidator is optional. With RequireAuth unset, a valid token only
	// attributes ledger entries to its operator.
	JWTValidator middleware.JWTValidator
	RequireAuth  bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.Store, cfg.Backend)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	v1 := router.Group("/api/v1")
	if cfg.RequireAuth && cfg.JWTValidator != nil {
		v1.Use(middleware.Auth(cfg.JWTValidator))
	} else {
		v1.Use(middleware.OptionalAuth(cfg.JWTValidator))
	}

	registerInventoryRoutes(v1, cfg)
	registerCustomerRoutes(v1, cfg)
	registerInvoiceRoutes(v1, cfg)
	if cfg.Audit != nil {
		registerAuditRoutes(v1, cfg)
	}

	return router
}

func registerInventoryRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	h := handlers.NewInventoryHandler(cfg.Inventory, cfg.Reconciler)

	products := rg.Group("/products")
	{
		products.GET("", h.ListStock)
		products.POST("", h.CreateProduct)
		products.GET("/:id", h.GetProduct)
		products.DELETE("/:id", h.DeleteProduct)
		products.POST("/:id/adjustments", h.Adjust)
		products.GET("/:id/history", h.History)
	}

	inv := rg.Group("/inventory")
	{
		inv.GET("/summary", h.Summary)
		inv.GET("/integrity", h.Integrity)
		inv.GET("/orphans", h.Orphans)
	}
}

func registerCustomerRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	h := handlers.NewCustomerHandler(cfg.Customers)

	customers := rg.Group("/customers")
	{
		customers.GET("", h.List)
		customers.POST("", h.Create)
		customers.GET("/:id", h.Get)
	}
}

func registerInvoiceRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	h := handlers.NewInvoiceHandler(cfg.Invoices)

	invoices := rg.Group("/invoices")
	{
		invoices.GET("", h.List)
		invoices.POST("", h.Commit)
		invoices.GET("/next-number", h.NextNumber)
		invoices.GET("/:number", h.Get)
		invoices.PATCH("/:number/status", h.SetStatus)
	}
}

func registerAuditRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	h := handlers.NewAuditHandler(cfg.Audit)

	rg.GET("/audit/:entityType/:entityId", h.Trail)
}
