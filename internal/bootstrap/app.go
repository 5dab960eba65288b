package bootstrap

import (
	"context"
	"fmt"

	corenumerator "stockledger/internal/core/numerator"
	"stockledger/internal/core/tx"
	"stockledger/internal/domain/audit"
	"stockledger/internal/domain/auth"
	"stockledger/internal/domain/customer"
	"stockledger/internal/domain/inventory"
	"stockledger/internal/domain/invoice"
	"stockledger/internal/infrastructure/numerator"
	"stockledger/internal/infrastructure/storage/memory"
	"stockledger/internal/infrastructure/storage/postgres"
	"stockledger/internal/infrastructure/storage/postgres/inventory_repo"
	"stockledger/internal/infrastructure/storage/postgres/invoice_repo"
	"stockledger/pkg/logger"
)

// Store is the unit-of-work provider of the selected backend.
type Store interface {
	tx.Manager
	Ping(ctx context.Context) error
}

// App holds the wired services.
type App struct {
	Inventory  *inventory.Service
	Reconciler *inventory.Reconciler
	Invoices   *invoice.Service
	Customers  *customer.Service
	Audit      *audit.Service
	Numbers    *numerator.Service

	// JWT is nil when no secret is configured.
	JWT *auth.JWTService

	Store   Store
	Backend string

	pool *postgres.Pool
}

type repositories struct {
	products  inventory.ProductRepository
	inventory inventory.InventoryRepository
	history   inventory.HistoryRepository
	customers customer.Repository
	invoices  invoice.Repository
	audit     auditLog
}

// auditLog is written by the ledger services and read back by the trail.
type auditLog interface {
	audit.Sink
	audit.Reader
}

// New connects the configured backend and wires every service.
func New(ctx context.Context, cfg Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	app := &App{Backend: cfg.Storage}

	var repos repositories
	switch cfg.Storage {
	case StoragePostgres:
		poolCfg := postgres.DefaultPoolConfig(cfg.DatabaseURL)
		if cfg.MaxConns > 0 {
			poolCfg.MaxConns = int32(cfg.MaxConns)
		}
		pool, err := postgres.NewPool(ctx, poolCfg)
		if err != nil {
			return nil, err
		}
		app.pool = pool

		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			app.Close()
			return nil, err
		}

		txManager := postgres.NewTxManager(pool)
		auditLog, err := postgres.NewAuditLog(txManager)
		if err != nil {
			app.Close()
			return nil, err
		}

		app.Store = txManager
		repos = repositories{
			products:  inventory_repo.NewProductRepo(txManager),
			inventory: inventory_repo.NewInventoryRepo(txManager),
			history:   inventory_repo.NewHistoryRepo(txManager),
			customers: invoice_repo.NewCustomerRepo(txManager),
			invoices:  invoice_repo.NewInvoiceRepo(txManager),
			audit:     auditLog,
		}

	default:
		store := memory.New()
		app.Store = store
		repos = repositories{
			products:  store.Products(),
			inventory: store.Inventory(),
			history:   store.History(),
			customers: store.Customers(),
			invoices:  store.Invoices(),
			audit:     store.Audit(),
		}
	}

	var counter corenumerator.CounterStore
	if cfg.CounterStore == CounterPostgres {
		counter = numerator.NewPostgresStore(app.pool, cfg.Numbering.Prefix)
	} else {
		counter = numerator.NewFileStore(cfg.CounterPath)
	}

	numbers, err := numerator.New(ctx, cfg.Numbering, counter)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Numbers = numbers

	classifier, err := inventory.NewClassifier(cfg.Classifier)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("stock classifier: %w", err)
	}

	if cfg.JWTSecret != "" {
		if app.JWT, err = NewJWTService(cfg); err != nil {
			app.Close()
			return nil, err
		}
	}

	app.Inventory = inventory.NewService(repos.products, repos.inventory, repos.history, app.Store, repos.audit, classifier)
	app.Reconciler = inventory.NewReconciler(repos.products, repos.inventory, repos.history, app.Store)
	app.Customers = customer.NewService(repos.customers, app.Store, repos.audit)
	app.Audit = audit.NewService(repos.audit, app.Store)
	app.Invoices = invoice.NewService(repos.invoices, repos.customers, repos.products,
		app.Inventory, numbers, app.Store, repos.audit)

	logger.Info(ctx, "ledger services wired",
		"storage", cfg.Storage,
		"counter_store", cfg.CounterStore,
		"next_invoice", numbers.Peek(ctx),
	)
	return app, nil
}

// NewJWTService builds the token service from cfg.
func NewJWTService(cfg Config) (*auth.JWTService, error) {
	jwtCfg := auth.DefaultJWTConfig(cfg.JWTSecret)
	if cfg.JWTTTL > 0 {
		jwtCfg.AccessTokenTTL = cfg.JWTTTL
	}
	return auth.NewJWTService(jwtCfg)
}

// LogStats logs connection pool statistics when backed by postgres.
func (a *App) LogStats(ctx context.Context) {
	if a.pool != nil {
		a.pool.LogStats(ctx)
	}
}

// Close releases the database pool, if any.
func (a *App) Close() {
	if a.pool != nil {
		a.pool.Close()
		a.pool = nil
	}
}
