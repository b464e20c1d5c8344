// Package main provides a CLI tool for seeding the database with initial data.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"commercia/internal/core/id"
	"commercia/internal/core/types"
	"commercia/internal/domain/catalogs/client"
	"commercia/internal/domain/catalogs/product"
	"commercia/internal/domain/inventory"
	"commercia/internal/infrastructure/storage/postgres"
	"commercia/internal/infrastructure/storage/postgres/catalog_repo"
	"commercia/internal/infrastructure/storage/postgres/register_repo"
	"commercia/pkg/logger"
	"commercia/pkg/numerator"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	poolCfg := postgres.DefaultPoolConfig(dbURL)
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	if err := seedAdminUser(ctx, pool, log); err != nil {
		log.Fatalw("failed to seed admin user", "error", err)
	}

	if os.Getenv("SEED_DEMO_DATA") == "true" {
		if err := seedDemoData(ctx, pool, log); err != nil {
			log.Fatalw("failed to seed demo data", "error", err)
		}
	}

	log.Info("seeding completed successfully")
}

func seedAdminUser(ctx context.Context, pool *postgres.Pool, log *logger.Logger) error {
	adminEmail := os.Getenv("ADMIN_EMAIL")
	if adminEmail == "" {
		adminEmail = "admin@commercia.local"
	}

	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminPassword == "" {
		adminPassword = "Admin123!"
	}

	var existingID id.ID
	err := pool.QueryRow(ctx,
		`SELECT id FROM users WHERE email = $1 AND deleted_at IS NULL`,
		adminEmail,
	).Scan(&existingID)
	if err == nil {
		log.Infow("admin user already exists", "email", adminEmail, "user_id", existingID)
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("check admin exists: %w", err)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	_, err = pool.Exec(ctx, `
		INSERT INTO users (
			id, email, password_hash, first_name, last_name,
			is_active, is_admin, roles, created_at, updated_at, version
		)
		VALUES ($1, $2, $3, 'System', 'Admin', true, true, '{admin}', $4, $4, 1)
	`, id.New(), adminEmail, string(passwordHash), now)
	if err != nil {
		return fmt.Errorf("insert admin user: %w", err)
	}

	log.Infow("admin user created", "email", adminEmail)
	return nil
}

func seedDemoData(ctx context.Context, pool *postgres.Pool, log *logger.Logger) error {
	txManager := postgres.NewTxManager(pool)
	numeratorService := numerator.New(pool)

	productRepo := catalog_repo.NewProductRepo(txManager)
	productService := product.NewService(productRepo, txManager, numeratorService)

	clientRepo := catalog_repo.NewClientRepo(txManager)
	clientService := client.NewService(clientRepo, txManager, numeratorService)

	stockRepo := register_repo.NewStockRepo(txManager)
	inventoryService := inventory.NewService(stockRepo)

	// --- Products ---
	products := []*product.Product{
		demoProduct("Espresso Machine A300", "EM-A300", "450.00", "310.00"),
		demoProduct("Coffee Grinder G2", "CG-G2", "199.90", "120.00"),
		demoProduct("Arabica Beans 1kg", "AB-1KG", "24.50", "14.00"),
		demoProduct("Ceramic Cup Set", "CC-SET6", "39.00", "18.50"),
	}

	maintenance := product.NewServiceItem("", "Machine Maintenance")
	maintenance.Price = types.MustMoney("75.00")
	products = append(products, maintenance)

	var opening []inventory.Adjustment
	for _, p := range products {
		if err := productService.Create(ctx, p); err != nil {
			return fmt.Errorf("create product %q: %w", p.Name, err)
		}
		log.Infow("product created", "code", p.Code, "name", p.Name)

		if p.IsStocked() {
			opening = append(opening, inventory.Adjustment{
				ProductID: p.ID,
				Quantity:  types.NewQuantityFromFloat64(100),
			})
		}
	}

	// --- Clients ---
	clients := []*client.Client{
		demoClient("Cafe Central", "20100123456", "orders@cafecentral.example"),
		demoClient("Hotel Bellavista", "20100654321", "purchasing@bellavista.example"),
		demoClient("Walk-in Customer", "", ""),
	}
	for _, c := range clients {
		if err := clientService.Create(ctx, c); err != nil {
			return fmt.Errorf("create client %q: %w", c.Name, err)
		}
		log.Infow("client created", "code", c.Code, "name", c.Name)
	}

	// --- Opening stock ---
	if len(opening) > 0 {
		err := txManager.RunInTransaction(ctx, func(ctx context.Context) error {
			return inventoryService.Restock(ctx, id.New(), "opening_balance", time.Now().UTC(), opening)
		})
		if err != nil {
			return fmt.Errorf("opening stock: %w", err)
		}
		log.Infow("opening stock recorded", "products", len(opening))
	}

	return nil
}

func demoProduct(name, sku, price, cost string) *product.Product {
	p := product.New("", name)
	p.SKU = &sku
	p.Price = types.MustMoney(price)
	p.Cost = types.MustMoney(cost)
	return p
}

func demoClient(name, taxID, email string) *client.Client {
	c := client.New("", name)
	if taxID != "" {
		c.TaxID = &taxID
	}
	if email != "" {
		c.Email = &email
	}
	return c
}
