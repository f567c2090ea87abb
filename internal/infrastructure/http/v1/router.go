package v1

import (
	"context"

	"github.com/gin-gonic/gin"

	"taller/internal/domain/auth"
	"taller/internal/domain/catalogs/client"
	"taller/internal/domain/catalogs/product"
	"taller/internal/domain/catalogs/vehicle"
	"taller/internal/domain/ledger"
	"taller/internal/domain/orders"
	"taller/internal/domain/registers/stock"
	"taller/internal/domain/reports"
	"taller/internal/domain/settings"
	"taller/internal/infrastructure/http/v1/handlers"
	"taller/internal/infrastructure/http/v1/middleware"
	"taller/internal/infrastructure/storage/postgres"
	"taller/internal/infrastructure/storage/postgres/catalog_repo"
	"taller/internal/infrastructure/storage/postgres/document_repo"
	"taller/internal/infrastructure/storage/postgres/register_repo"
	"taller/internal/infrastructure/storage/postgres/settings_repo"
	"taller/pkg/logger"
	"taller/pkg/numerator"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	// Pool is the database connection pool (for health checks)
	Pool *postgres.Pool

	// TxManager runs repository operations and transactions
	TxManager *postgres.TxManager

	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// AuthService for authentication endpoints
	AuthService *auth.Service

	// Audit records who changed what
	Audit *postgres.AuditService

	// Numerator for code and document number generation
	Numerator numerator.Generator
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth required)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	baseHandler := handlers.NewBaseHandler()

	// --- Repositories ---
	clientRepo := catalog_repo.NewClientRepo(cfg.TxManager)
	vehicleRepo := catalog_repo.NewVehicleRepo(cfg.TxManager)
	productRepo := catalog_repo.NewProductRepo(cfg.TxManager)
	orderRepo := document_repo.NewOrderRepo(cfg.TxManager)
	stockRepo := register_repo.NewStockRepo(cfg.TxManager)
	ledgerRepo := register_repo.NewLedgerRepo(cfg.TxManager)
	settingsRepo := settings_repo.NewSettingsRepo(cfg.TxManager)

	// --- Services ---
	settingsSvc := settings.NewService(settingsRepo, cfg.TxManager)
	clientSvc := client.NewService(clientRepo, cfg.TxManager, cfg.Numerator)
	vehicleSvc := vehicle.NewService(vehicleRepo, cfg.TxManager, clientSvc, cfg.Numerator)
	productSvc := product.NewService(productRepo, cfg.TxManager, settingsSvc, cfg.Numerator)
	stockSvc := stock.NewService(stockRepo, productRepo)
	ledgerSvc := ledger.NewService(ledgerRepo, cfg.TxManager)
	orderSvc := orders.NewService(
		orderRepo, cfg.TxManager,
		productSvc, stockSvc, ledgerSvc,
		clientSvc, vehicleSvc,
		settingsSvc, cfg.Numerator,
	)
	reportsSvc := reports.NewService(ledgerSvc, productSvc, orderSvc)

	// Writing a pricing setting reprices the whole catalog.
	settingsSvc.OnPricingChange(func(ctx context.Context) {
		result, err := productSvc.RecalculatePrices(ctx, product.RecalcFilter{})
		if err != nil {
			logger.Error(ctx, "price recalculation after settings change failed", "error", err)
			return
		}
		logger.Info(ctx, "prices recalculated after settings change",
			"attempted", result.Attempted,
			"updated", result.Updated,
			"failed", len(result.Errors),
		)
	})

	// API v1
	apiV1 := router.Group("/api/v1")
	{
		authHandler := handlers.NewAuthHandler(baseHandler, cfg.AuthService)
		apiV1.POST("/auth/login", authHandler.Login)

		protected := apiV1.Group("")
		protected.Use(middleware.Auth(cfg.JWTValidator))

		protected.GET("/auth/me", authHandler.Me)

		registerUserRoutes(protected, authHandler)
		registerCatalogRoutes(protected, baseHandler, clientSvc, vehicleSvc, productSvc, stockSvc, cfg.Audit)
		registerOrderRoutes(protected, baseHandler, orderSvc, ledgerSvc, cfg.Audit)
		registerLedgerRoutes(protected, baseHandler, ledgerSvc)
		registerSettingsRoutes(protected, baseHandler, settingsSvc, cfg.Audit)
		registerStockRoutes(protected, baseHandler, stockSvc)
		registerReportRoutes(protected, baseHandler, reportsSvc)
		registerAuditRoutes(protected, baseHandler, cfg.Audit)
	}

	return router
}

// registerUserRoutes registers user management endpoints (admin only).
func registerUserRoutes(rg *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	users := rg.Group("/users")
	users.Use(middleware.RequirePermission(auth.PermUsersManage))
	{
		users.GET("", authHandler.ListUsers)
		users.POST("", authHandler.CreateUser)
		users.GET("/:id", authHandler.GetUser)
		users.POST("/:id/active", authHandler.SetActive)
	}
}

// registerCatalogRoutes registers catalog endpoints.
func registerCatalogRoutes(
	rg *gin.RouterGroup,
	base *handlers.BaseHandler,
	clientSvc *client.Service,
	vehicleSvc *vehicle.Service,
	productSvc *product.Service,
	stockSvc *stock.Service,
	auditSvc *postgres.AuditService,
) {
	catalogs := rg.Group("/catalog")

	// --- CLIENTS ---
	clientHandler := handlers.NewClientHandler(base, clientSvc)
	vehicleHandler := handlers.NewVehicleHandler(base, vehicleSvc)

	clients := catalogs.Group("/clients")
	RegisterCatalogRoutes(clients, clientHandler, auth.PermCatalogRead, auth.PermCatalogWrite)
	clients.GET("/:id/vehicles", middleware.RequirePermission(auth.PermCatalogRead), vehicleHandler.ListByClient)

	// --- VEHICLES ---
	vehicles := catalogs.Group("/vehicles")
	RegisterCatalogRoutes(vehicles, vehicleHandler, auth.PermCatalogRead, auth.PermCatalogWrite)
	vehicles.GET("/by-plate/:plate", middleware.RequirePermission(auth.PermCatalogRead), vehicleHandler.GetByPlate)

	// --- PRODUCTS ---
	productHandler := handlers.NewProductHandler(base, productSvc, auditSvc)
	stockHandler := handlers.NewStockHandler(base, stockSvc)

	products := catalogs.Group("/products")
	RegisterCatalogRoutes(products, productHandler, auth.PermCatalogRead, auth.PermCatalogWrite)
	products.GET("/by-sku/:sku", middleware.RequirePermission(auth.PermCatalogRead), productHandler.GetBySKU)
	products.GET("/low-stock", middleware.RequirePermission(auth.PermCatalogRead), productHandler.ListLowStock)
	products.POST("/recalculate-prices", middleware.RequirePermission(auth.PermCatalogWrite), productHandler.RecalculatePrices)
	products.GET("/:id/stock-movements", middleware.RequirePermission(auth.PermStockRead), stockHandler.MovementHistory)
}

// registerOrderRoutes registers the service order document endpoints.
func registerOrderRoutes(
	rg *gin.RouterGroup,
	base *handlers.BaseHandler,
	orderSvc *orders.Service,
	ledgerSvc *ledger.Service,
	auditSvc *postgres.AuditService,
) {
	orderHandler := handlers.NewOrderHandler(base, orderSvc, auditSvc)
	ledgerHandler := handlers.NewLedgerHandler(base, ledgerSvc)

	read := middleware.RequirePermission(auth.PermOrdersRead)
	write := middleware.RequirePermission(auth.PermOrdersWrite)

	group := rg.Group("/orders")
	{
		group.GET("", read, orderHandler.List)
		group.POST("", write, orderHandler.Create)
		group.GET("/:id", read, orderHandler.Get)
		group.GET("/by-number/:number", read, orderHandler.GetByNumber)
		group.PUT("/:id", write, orderHandler.Update)

		// Completion and cancellation are gated separately: they post to
		// the ledger and touch stock.
		group.POST("/:id/status", middleware.RequirePermission(auth.PermOrdersComplete), orderHandler.ChangeStatus)

		group.PUT("/:id/labor-charge", write, orderHandler.SetLaborCharge)

		group.POST("/:id/service-lines", write, orderHandler.AddServiceLine)
		group.PUT("/:id/service-lines/:lineId", write, orderHandler.UpdateServiceLine)
		group.DELETE("/:id/service-lines/:lineId", write, orderHandler.RemoveServiceLine)

		group.POST("/:id/product-lines", write, orderHandler.AddProductLine)
		group.PUT("/:id/product-lines/:lineId", write, orderHandler.UpdateProductLine)
		group.DELETE("/:id/product-lines/:lineId", write, orderHandler.RemoveProductLine)

		group.POST("/:id/part-lines", write, orderHandler.AddExternalPartLine)
		group.PUT("/:id/part-lines/:lineId", write, orderHandler.UpdateExternalPartLine)
		group.DELETE("/:id/part-lines/:lineId", write, orderHandler.RemoveExternalPartLine)

		group.GET("/:id/ledger-entries", middleware.RequirePermission(auth.PermLedgerRead), ledgerHandler.ListByOrder)
	}
}

// registerLedgerRoutes registers the accounting book endpoints.
func registerLedgerRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, ledgerSvc *ledger.Service) {
	ledgerHandler := handlers.NewLedgerHandler(base, ledgerSvc)

	entries := rg.Group("/ledger/entries")
	{
		entries.GET("", middleware.RequirePermission(auth.PermLedgerRead), ledgerHandler.List)
		entries.POST("", middleware.RequirePermission(auth.PermLedgerWrite), ledgerHandler.Create)
		entries.GET("/:id", middleware.RequirePermission(auth.PermLedgerRead), ledgerHandler.Get)
		entries.DELETE("/:id", middleware.RequirePermission(auth.PermLedgerWrite), ledgerHandler.Delete)
	}
}

// registerSettingsRoutes registers the configuration endpoints.
func registerSettingsRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, settingsSvc *settings.Service, auditSvc *postgres.AuditService) {
	settingsHandler := handlers.NewSettingsHandler(base, settingsSvc, auditSvc)

	group := rg.Group("/settings")
	{
		group.GET("", middleware.RequirePermission(auth.PermSettingsRead), settingsHandler.List)
		group.GET("/:key", middleware.RequirePermission(auth.PermSettingsRead), settingsHandler.Get)
		group.PUT("/:key", middleware.RequirePermission(auth.PermSettingsWrite), settingsHandler.Set)
		group.DELETE("/:key", middleware.RequirePermission(auth.PermSettingsWrite), settingsHandler.Delete)
	}
}

// registerStockRoutes registers the stock register endpoints.
func registerStockRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, stockSvc *stock.Service) {
	stockHandler := handlers.NewStockHandler(base, stockSvc)

	rg.GET("/stock/turnover", middleware.RequirePermission(auth.PermStockRead), stockHandler.Turnover)
}

// registerAuditRoutes registers the change history endpoint (admin only).
func registerAuditRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, auditSvc *postgres.AuditService) {
	auditHandler := handlers.NewAuditHandler(base, auditSvc)

	rg.GET("/audit/:entityType/:entityId",
		middleware.RequirePermission(auth.PermUsersManage), auditHandler.EntityHistory)
}

// registerReportRoutes registers the reporting endpoints.
func registerReportRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, reportsSvc *reports.Service) {
	reportsHandler := handlers.NewReportsHandler(base, reportsSvc)

	read := middleware.RequirePermission(auth.PermReportsRead)

	group := rg.Group("/reports")
	{
		group.GET("/ledger-monthly", read, reportsHandler.MonthlyLedger)
		group.GET("/low-stock", read, reportsHandler.LowStock)
		group.GET("/profitability", read, reportsHandler.Profitability)
	}
}
