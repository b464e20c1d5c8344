package v1

import (
	"time"

	"github.com/gin-gonic/gin"

	"commercia/internal/domain/auth"
	"commercia/internal/domain/cashsession"
	"commercia/internal/domain/catalogs/client"
	"commercia/internal/domain/catalogs/product"
	"commercia/internal/domain/completion"
	"commercia/internal/domain/conversion"
	"commercia/internal/domain/document"
	"commercia/internal/domain/finance"
	"commercia/internal/domain/inventory"
	"commercia/internal/infrastructure/http/v1/handlers"
	"commercia/internal/infrastructure/http/v1/middleware"
	"commercia/internal/infrastructure/storage/postgres"
	"commercia/pkg/logger"
)

// RouterConfig holds everything the HTTP layer needs. Services and
// engines are constructed once at startup and shared across requests.
type RouterConfig struct {
	Pool      *postgres.Pool
	TxManager *postgres.TxManager

	Logger *logger.Logger

	JWTValidator middleware.JWTValidator
	AuthService  *auth.Service

	DocumentService  *document.Service
	CompletionEngine *completion.Engine
	ConversionEngine *conversion.Engine

	SessionService   *cashsession.Service
	InventoryService *inventory.Service
	LedgerService    *finance.Service

	ProductService *product.Service
	ClientService  *client.Service

	// AuditService journals document lifecycle actions; optional.
	AuditService *postgres.AuditService

	// IdempotencyEnabled enables idempotency middleware
	IdempotencyEnabled bool
	IdempotencyTTL     time.Duration
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

	// API v1
	api := router.Group("/api/v1")
	{
		registerAuthRoutes(api, baseHandler, cfg)

		protected := api.Group("")
		protected.Use(middleware.Auth(cfg.JWTValidator))

		if cfg.IdempotencyEnabled {
			ttl := cfg.IdempotencyTTL
			if ttl <= 0 {
				ttl = 10 * time.Minute
			}
			store := postgres.NewIdempotencyStore(cfg.Pool, cfg.TxManager, ttl)
			protected.Use(middleware.Idempotency(store))
		}

		registerCatalogRoutes(protected, baseHandler, cfg)
		registerDocumentRoutes(protected, baseHandler, cfg)
		registerSessionRoutes(protected, baseHandler, cfg)
		registerInventoryRoutes(protected, baseHandler, cfg)
		registerLedgerRoutes(protected, baseHandler, cfg)
	}

	return router
}

// registerAuthRoutes registers authentication endpoints.
func registerAuthRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	if cfg.AuthService == nil {
		return
	}

	authHandler := handlers.NewAuthHandler(base, cfg.AuthService)

	publicAuth := rg.Group("/auth")

	protectedAuth := rg.Group("/auth")
	protectedAuth.Use(middleware.Auth(cfg.JWTValidator))

	authHandler.RegisterRoutes(publicAuth, protectedAuth)
}

// registerCatalogRoutes registers product and client catalog endpoints.
func registerCatalogRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	catalogs := rg.Group("/catalog")

	// --- PRODUCTS ---
	{
		handler := handlers.NewProductHandler(base, cfg.ProductService)
		group := catalogs.Group("/products")
		RegisterCatalogRoutes(group, handler)
		group.GET("/by-sku/:sku", handler.FindBySKU)
	}

	// --- CLIENTS ---
	{
		handler := handlers.NewClientHandler(base, cfg.ClientService)
		group := catalogs.Group("/clients")
		RegisterCatalogRoutes(group, handler)
		group.GET("/by-tax-id/:taxId", handler.FindByTaxID)
	}
}

// registerDocumentRoutes registers commercial document endpoints.
func registerDocumentRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	handler := handlers.NewDocumentHandler(base, cfg.DocumentService, cfg.CompletionEngine, cfg.ConversionEngine, cfg.AuditService)

	docs := rg.Group("/documents")
	{
		docs.GET("", handler.List)
		docs.POST("", handler.Create)
		docs.GET("/:id", handler.Get)
		docs.PUT("/:id", handler.Update)
		docs.DELETE("/:id", handler.Delete)
		docs.POST("/:id/complete", handler.Complete)
		docs.POST("/:id/cancel", handler.Cancel)
		docs.POST("/:id/transition", handler.Transition)
		docs.GET("/:id/receipt", handler.Receipt)
		docs.GET("/:id/history", handler.History)
	}

	// Quote conversion lives under its own prefix.
	rg.POST("/quotes/:id/convert", handler.Convert)
}

// registerSessionRoutes registers cash session endpoints.
func registerSessionRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	handler := handlers.NewCashSessionHandler(base, cfg.SessionService, cfg.AuditService)

	sessions := rg.Group("/cash-sessions")
	{
		sessions.GET("", handler.List)
		sessions.POST("", handler.Open)
		sessions.GET("/:id", handler.Get)
		sessions.POST("/:id/close", handler.Close)
		sessions.GET("/open/:registerId", handler.GetOpenByRegister)
	}
}

// registerInventoryRoutes registers stock endpoints.
func registerInventoryRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	handler := handlers.NewInventoryHandler(base, cfg.InventoryService)

	inv := rg.Group("/inventory")
	{
		inv.GET("/availability/:productId", handler.GetAvailability)
		inv.GET("/balances", handler.GetBalances)
		inv.GET("/movements/:productId", handler.GetMovements)
	}
}

// registerLedgerRoutes registers financial ledger endpoints.
func registerLedgerRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	handler := handlers.NewLedgerHandler(base, cfg.LedgerService)

	ledger := rg.Group("/ledger")
	{
		ledger.GET("/entries", handler.ListEntries)
		ledger.GET("/documents/:id", handler.GetByDocument)
		ledger.GET("/turnover", handler.GetTurnover)
	}
}
