// Package main is the entry point for the Commercia API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"commercia/internal/domain/auth"
	"commercia/internal/domain/cashsession"
	"commercia/internal/domain/catalogs/client"
	"commercia/internal/domain/catalogs/product"
	"commercia/internal/domain/completion"
	"commercia/internal/domain/conversion"
	"commercia/internal/domain/document"
	"commercia/internal/domain/finance"
	"commercia/internal/domain/inventory"
	v1 "commercia/internal/infrastructure/http/v1"
	"commercia/internal/infrastructure/storage/postgres"
	"commercia/internal/infrastructure/storage/postgres/auth_repo"
	"commercia/internal/infrastructure/storage/postgres/catalog_repo"
	"commercia/internal/infrastructure/storage/postgres/document_repo"
	"commercia/internal/infrastructure/storage/postgres/register_repo"
	"commercia/internal/infrastructure/storage/postgres/session_repo"
	"commercia/pkg/logger"
	"commercia/pkg/numerator"
)

func main() {
	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting commercia server")

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(mustEnv("DATABASE_URL"))
	if maxConns := getEnvInt("DB_MAX_CONNS", 0); maxConns > 0 {
		poolCfg.MaxConns = int32(maxConns)
	}

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	// --- JWT Service ---
	jwtSecret := mustEnv("JWT_SECRET")
	jwtService := auth.NewJWTService(auth.DefaultJWTConfig(jwtSecret))

	// --- Auth ---
	userRepo := auth_repo.NewUserRepo(txManager)
	tokenRepo := auth_repo.NewTokenRepo(txManager)
	authService := auth.NewService(userRepo, tokenRepo, txManager, jwtService, auth.DefaultServiceConfig())

	// --- Numerator ---
	numeratorService := numerator.New(pool)

	// --- Catalogs ---
	productRepo := catalog_repo.NewProductRepo(txManager)
	productService := product.NewService(productRepo, txManager, numeratorService)

	clientRepo := catalog_repo.NewClientRepo(txManager)
	clientService := client.NewService(clientRepo, txManager, numeratorService)

	// --- Registers ---
	stockRepo := register_repo.NewStockRepo(txManager)
	inventoryService := inventory.NewService(stockRepo)

	ledgerRepo := register_repo.NewLedgerRepo(txManager)
	ledgerService := finance.NewService(ledgerRepo)

	// --- Cash sessions ---
	sessionRepo := session_repo.NewSessionRepo(txManager)
	sessionService := cashsession.NewService(sessionRepo, txManager)

	// --- Documents & engines ---
	documentRepo := document_repo.NewDocumentRepo(txManager)
	receiptRepo := document_repo.NewReceiptRepo(txManager)

	documentService := document.NewService(documentRepo, txManager, numeratorService, clientNameResolver{clientService})
	completionEngine := completion.NewEngine(
		documentRepo,
		receiptRepo,
		inventoryService,
		ledgerService,
		sessionService,
		productStockChecker{productService},
		txManager,
	)
	conversionEngine := conversion.NewEngine(documentRepo, numeratorService, txManager)

	// --- Router ---
	auditService, err := postgres.NewAuditService(txManager)
	if err != nil {
		log.Fatalw("failed to create audit service", "error", err)
	}

	router := v1.NewRouter(v1.RouterConfig{
		Pool:               pool,
		TxManager:          txManager,
		Logger:             log,
		JWTValidator:       jwtService,
		AuthService:        authService,
		DocumentService:    documentService,
		CompletionEngine:   completionEngine,
		ConversionEngine:   conversionEngine,
		SessionService:     sessionService,
		InventoryService:   inventoryService,
		LedgerService:      ledgerService,
		ProductService:     productService,
		ClientService:      clientService,
		AuditService:       auditService,
		IdempotencyEnabled: getEnv("IDEMPOTENCY_ENABLED", "true") == "true",
		IdempotencyTTL:     getEnvDuration("IDEMPOTENCY_TTL", 10*time.Minute),
	})

	// --- HTTP Server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
