// Package main provides a CLI tool for creating the schema and seeding the
// database with initial data.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	"taller/internal/core/id"
	"taller/internal/domain/auth"
	"taller/internal/domain/catalogs/product"
	"taller/internal/domain/pricing"
	"taller/internal/infrastructure/storage/postgres"
	"taller/internal/infrastructure/storage/postgres/auth_repo"
	"taller/pkg/logger"
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

	if err := applySchema(ctx, pool); err != nil {
		log.Fatalw("failed to apply schema", "error", err)
	}
	log.Info("schema applied")

	txManager := postgres.NewTxManager(pool)

	if err := seedAdminUser(ctx, pool, txManager, log); err != nil {
		log.Fatalw("failed to seed admin user", "error", err)
	}

	if err := seedPricingSettings(ctx, pool, log); err != nil {
		log.Fatalw("failed to seed pricing settings", "error", err)
	}

	if os.Getenv("SEED_DEMO_DATA") == "true" {
		if err := seedDemoData(ctx, pool, txManager, log); err != nil {
			log.Fatalw("failed to seed demo data", "error", err)
		}
	}

	log.Info("seeding completed successfully")
}

// schema is executed statement by statement; everything is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS cat_clients (
		id            UUID PRIMARY KEY,
		deletion_mark BOOLEAN NOT NULL DEFAULT FALSE,
		version       INTEGER NOT NULL DEFAULT 1,
		attributes    JSONB NOT NULL DEFAULT '{}',
		code          TEXT NOT NULL,
		name          TEXT NOT NULL,
		ruc           TEXT,
		tier          TEXT NOT NULL DEFAULT 'retail',
		phone         TEXT,
		email         TEXT,
		address       TEXT,
		comment       TEXT
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_cat_clients_code ON cat_clients (code) WHERE NOT deletion_mark`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_cat_clients_ruc ON cat_clients (ruc) WHERE ruc IS NOT NULL AND NOT deletion_mark`,

	`CREATE TABLE IF NOT EXISTS cat_vehicles (
		id            UUID PRIMARY KEY,
		deletion_mark BOOLEAN NOT NULL DEFAULT FALSE,
		version       INTEGER NOT NULL DEFAULT 1,
		attributes    JSONB NOT NULL DEFAULT '{}',
		code          TEXT NOT NULL,
		name          TEXT NOT NULL,
		client_id     UUID NOT NULL REFERENCES cat_clients (id),
		plate         TEXT NOT NULL,
		brand         TEXT NOT NULL,
		model         TEXT,
		year          INTEGER,
		vin           TEXT,
		mileage       INTEGER,
		comment       TEXT
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_cat_vehicles_code ON cat_vehicles (code) WHERE NOT deletion_mark`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_cat_vehicles_plate ON cat_vehicles (plate) WHERE NOT deletion_mark`,
	`CREATE INDEX IF NOT EXISTS ix_cat_vehicles_client ON cat_vehicles (client_id)`,

	`CREATE TABLE IF NOT EXISTS cat_products (
		id               UUID PRIMARY KEY,
		deletion_mark    BOOLEAN NOT NULL DEFAULT FALSE,
		version          INTEGER NOT NULL DEFAULT 1,
		attributes       JSONB NOT NULL DEFAULT '{}',
		code             TEXT NOT NULL,
		name             TEXT NOT NULL,
		type             TEXT NOT NULL,
		category         TEXT,
		sku              TEXT,
		barcode          TEXT,
		cost             NUMERIC(18,4) NOT NULL,
		tax_applicable   BOOLEAN NOT NULL DEFAULT FALSE,
		sale_price       BIGINT NOT NULL DEFAULT 0,
		retail_price     BIGINT NOT NULL DEFAULT 0,
		wholesale_price  BIGINT NOT NULL DEFAULT 0,
		effective_margin NUMERIC(9,4) NOT NULL DEFAULT 0,
		unit             TEXT NOT NULL DEFAULT 'un',
		stock            BIGINT NOT NULL DEFAULT 0,
		min_stock        BIGINT NOT NULL DEFAULT 0,
		description      TEXT
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_cat_products_code ON cat_products (code) WHERE NOT deletion_mark`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_cat_products_sku ON cat_products (sku) WHERE sku IS NOT NULL AND NOT deletion_mark`,
	`CREATE INDEX IF NOT EXISTS ix_cat_products_type ON cat_products (type)`,

	`CREATE TABLE IF NOT EXISTS doc_service_orders (
		id                UUID PRIMARY KEY,
		deletion_mark     BOOLEAN NOT NULL DEFAULT FALSE,
		version           INTEGER NOT NULL DEFAULT 1,
		attributes        JSONB NOT NULL DEFAULT '{}',
		created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		created_by        TEXT NOT NULL DEFAULT '',
		updated_by        TEXT NOT NULL DEFAULT '',
		number            TEXT NOT NULL,
		date              TIMESTAMPTZ NOT NULL,
		comment           TEXT NOT NULL DEFAULT '',
		client_id         UUID NOT NULL REFERENCES cat_clients (id),
		vehicle_id        UUID NOT NULL REFERENCES cat_vehicles (id),
		mechanic_id       UUID,
		status            TEXT NOT NULL DEFAULT 'open',
		labor_charge      BIGINT NOT NULL DEFAULT 0,
		subtotal_services BIGINT NOT NULL DEFAULT 0,
		subtotal_products BIGINT NOT NULL DEFAULT 0,
		subtotal_parts    BIGINT NOT NULL DEFAULT 0,
		total             BIGINT NOT NULL DEFAULT 0,
		utility           BIGINT NOT NULL DEFAULT 0
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_doc_service_orders_number ON doc_service_orders (number)`,
	`CREATE INDEX IF NOT EXISTS ix_doc_service_orders_status ON doc_service_orders (status)`,
	`CREATE INDEX IF NOT EXISTS ix_doc_service_orders_client ON doc_service_orders (client_id)`,
	`CREATE INDEX IF NOT EXISTS ix_doc_service_orders_date ON doc_service_orders (date)`,

	`CREATE TABLE IF NOT EXISTS doc_order_service_lines (
		line_id     UUID PRIMARY KEY,
		order_id    UUID NOT NULL REFERENCES doc_service_orders (id) ON DELETE CASCADE,
		line_no     INTEGER NOT NULL,
		description TEXT NOT NULL,
		price       BIGINT NOT NULL DEFAULT 0,
		done        BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE INDEX IF NOT EXISTS ix_doc_order_service_lines_order ON doc_order_service_lines (order_id)`,

	`CREATE TABLE IF NOT EXISTS doc_order_product_lines (
		line_id    UUID PRIMARY KEY,
		order_id   UUID NOT NULL REFERENCES doc_service_orders (id) ON DELETE CASCADE,
		line_no    INTEGER NOT NULL,
		product_id UUID NOT NULL REFERENCES cat_products (id),
		quantity   BIGINT NOT NULL,
		tier       TEXT NOT NULL,
		unit_price BIGINT NOT NULL,
		unit_cost  BIGINT NOT NULL,
		subtotal   BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS ix_doc_order_product_lines_order ON doc_order_product_lines (order_id)`,

	`CREATE TABLE IF NOT EXISTS doc_order_part_lines (
		line_id       UUID PRIMARY KEY,
		order_id      UUID NOT NULL REFERENCES doc_service_orders (id) ON DELETE CASCADE,
		line_no       INTEGER NOT NULL,
		name          TEXT NOT NULL,
		description   TEXT,
		quantity      BIGINT NOT NULL,
		purchase_cost BIGINT NOT NULL,
		sale_price    BIGINT NOT NULL,
		subtotal      BIGINT NOT NULL,
		utility       BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS ix_doc_order_part_lines_order ON doc_order_part_lines (order_id)`,

	`CREATE TABLE IF NOT EXISTS reg_stock_movements (
		line_id          UUID PRIMARY KEY,
		recorder_id      UUID NOT NULL,
		recorder_type    TEXT NOT NULL,
		recorder_line_id UUID NOT NULL,
		period           TIMESTAMPTZ NOT NULL,
		record_type      TEXT NOT NULL,
		product_id       UUID NOT NULL REFERENCES cat_products (id),
		quantity         BIGINT NOT NULL,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS ix_reg_stock_movements_product ON reg_stock_movements (product_id, period)`,
	`CREATE INDEX IF NOT EXISTS ix_reg_stock_movements_recorder_line ON reg_stock_movements (recorder_line_id)`,

	`CREATE TABLE IF NOT EXISTS reg_ledger_entries (
		id         UUID PRIMARY KEY,
		entry_type TEXT NOT NULL,
		unit       TEXT NOT NULL,
		concept    TEXT NOT NULL,
		amount     BIGINT NOT NULL,
		date       TIMESTAMPTZ NOT NULL,
		month      INTEGER NOT NULL,
		year       INTEGER NOT NULL,
		order_id   UUID,
		product_id UUID,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		created_by TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS ix_reg_ledger_entries_period ON reg_ledger_entries (year, month, unit)`,
	`CREATE INDEX IF NOT EXISTS ix_reg_ledger_entries_order ON reg_ledger_entries (order_id) WHERE order_id IS NOT NULL`,

	`CREATE TABLE IF NOT EXISTS sys_settings (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_by TEXT
	)`,

	`CREATE TABLE IF NOT EXISTS sys_sequences (
		key         TEXT PRIMARY KEY,
		current_val BIGINT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS sys_audit (
		id                 UUID PRIMARY KEY,
		entity_type        TEXT NOT NULL,
		entity_id          TEXT NOT NULL,
		action             TEXT NOT NULL,
		user_id            TEXT,
		user_email         TEXT,
		changes            JSONB,
		changes_compressed BYTEA,
		compression_algo   TEXT NOT NULL DEFAULT 'none',
		created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS ix_sys_audit_entity ON sys_audit (entity_type, entity_id, created_at)`,

	`CREATE TABLE IF NOT EXISTS users (
		id                    UUID PRIMARY KEY,
		email                 TEXT NOT NULL,
		password_hash         TEXT NOT NULL,
		name                  TEXT NOT NULL DEFAULT '',
		is_active             BOOLEAN NOT NULL DEFAULT TRUE,
		is_admin              BOOLEAN NOT NULL DEFAULT FALSE,
		last_login_at         TIMESTAMPTZ,
		failed_login_attempts INTEGER NOT NULL DEFAULT 0,
		locked_until          TIMESTAMPTZ,
		created_at            TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at            TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		version               INTEGER NOT NULL DEFAULT 1
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_users_email ON users (email)`,

	`CREATE TABLE IF NOT EXISTS user_roles (
		user_id UUID NOT NULL REFERENCES users (id) ON DELETE CASCADE,
		role    TEXT NOT NULL,
		PRIMARY KEY (user_id, role)
	)`,
}

func applySchema(ctx context.Context, pool *postgres.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement: %w", err)
		}
	}
	return nil
}

func seedAdminUser(ctx context.Context, pool *postgres.Pool, txManager *postgres.TxManager, log *logger.Logger) error {
	adminEmail := os.Getenv("ADMIN_EMAIL")
	if adminEmail == "" {
		adminEmail = "admin@taller.local"
	}

	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminPassword == "" {
		adminPassword = "Admin123!"
	}

	var exists bool
	err := pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`,
		adminEmail,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check admin exists: %w", err)
	}
	if exists {
		log.Infow("admin user already exists", "email", adminEmail)
		return nil
	}

	// The seed tool never issues tokens, so the JWT secret is irrelevant.
	jwtService := auth.NewJWTService(auth.DefaultJWTConfig("seed-only"))
	userRepo := auth_repo.NewUserRepo(txManager)
	authService := auth.NewService(userRepo, txManager, jwtService, auth.DefaultServiceConfig())

	user, err := authService.CreateUser(ctx, adminEmail, adminPassword, "System Admin", []string{auth.RoleAdmin})
	if err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}

	log.Infow("admin user created", "email", adminEmail, "user_id", user.ID)
	return nil
}

// seedPricingSettings materializes the built-in pricing defaults so operators
// see and edit real rows instead of implicit fallbacks.
func seedPricingSettings(ctx context.Context, pool *postgres.Pool, log *logger.Logger) error {
	defaults := pricing.DefaultConfig()

	values := map[string]string{
		pricing.KeyExchangeRate: defaults.ExchangeRate.String(),
		pricing.KeyTaxRate:      defaults.TaxRate.String(),
	}

	for key, value := range values {
		_, err := pool.Exec(ctx, `
			INSERT INTO sys_settings (key, value, updated_by)
			VALUES ($1, $2, 'seed')
			ON CONFLICT (key) DO NOTHING
		`, key, value)
		if err != nil {
			return fmt.Errorf("seed setting %s: %w", key, err)
		}
	}

	log.Infow("pricing settings seeded", "keys", len(values))
	return nil
}

func seedDemoData(ctx context.Context, pool *postgres.Pool, txManager *postgres.TxManager, log *logger.Logger) error {
	log.Info("seeding demo data...")

	var productCount int64
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM cat_products`).Scan(&productCount); err != nil {
		return fmt.Errorf("count products: %w", err)
	}
	if productCount > 0 {
		log.Info("demo data already present, skipping")
		return nil
	}

	type productSeed struct {
		code     string
		name     string
		pType    pricing.ProductType
		category string
		cost     int64
		taxed    bool
	}

	seeds := []productSeed{
		{"PR-2026-00001", "Aceite 10W-40 sintético 1L", pricing.TypeLubricantImport, "", 8, true},
		{"PR-2026-00002", "Aceite 15W-40 mineral 1L", pricing.TypeLubricantLocal, "", 32000, false},
		{"PR-2026-00003", "Filtro de aceite", pricing.TypeSparePart, pricing.CategoryFiltros, 45000, false},
		{"PR-2026-00004", "Filtro de aire", pricing.TypeSparePart, pricing.CategoryFiltros, 60000, false},
		{"PR-2026-00005", "Pastillas de freno delanteras", pricing.TypeSparePart, pricing.CategoryRepuestos, 180000, false},
		{"PR-2026-00006", "Bujía NGK", pricing.TypeSparePart, pricing.CategoryRepuestos, 35000, false},
		{"PR-2026-00007", "Juego de llaves combinadas", pricing.TypeHardware, "", 250000, false},
	}

	cfg := pricing.DefaultConfig()

	columns := []string{
		"id", "deletion_mark", "version", "attributes", "code", "name",
		"type", "category", "sku", "barcode", "cost", "tax_applicable",
		"sale_price", "retail_price", "wholesale_price", "effective_margin",
		"unit", "stock", "min_stock", "description",
	}

	rows := make([][]any, 0, len(seeds))
	for _, s := range seeds {
		p := product.NewProduct(s.code, s.name, s.pType, decimal.NewFromInt(s.cost))
		if s.category != "" {
			category := s.category
			p.Category = &category
		}
		p.TaxApplicable = s.taxed

		result, err := pricing.Compute(p.PricingInput(), cfg)
		if err != nil {
			return fmt.Errorf("price demo product %s: %w", s.code, err)
		}
		p.ApplyPrices(result)

		rows = append(rows, []any{
			p.ID, false, 1, []byte(`{}`), p.Code, p.Name,
			string(p.Type), p.Category, nil, nil, p.Cost, p.TaxApplicable,
			p.SalePrice, p.RetailPrice, p.WholesalePrice, p.EffectiveMargin,
			p.Unit, 0, 0, nil,
		})
	}

	inserter := postgres.NewBatchInserter(txManager)

	err := txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		inserted, err := inserter.CopyFromSlice(ctx, "cat_products", columns, rows)
		if err != nil {
			return err
		}
		log.Infow("demo products inserted", "count", inserted)
		return nil
	})
	if err != nil {
		return fmt.Errorf("insert demo products: %w", err)
	}

	// One walk-in client with a vehicle so orders can be opened right away.
	clientID := id.New()
	_, err = pool.Exec(ctx, `
		INSERT INTO cat_clients (id, code, name, tier, phone)
		VALUES ($1, 'CL-2026-00001', 'Cliente Mostrador', 'retail', NULL)
		ON CONFLICT DO NOTHING
	`, clientID)
	if err != nil {
		return fmt.Errorf("insert demo client: %w", err)
	}

	_, err = pool.Exec(ctx, `
		INSERT INTO cat_vehicles (id, code, name, client_id, plate, brand, model, year)
		VALUES ($1, 'VH-2026-00001', 'ABC123 Toyota', $2, 'ABC123', 'Toyota', 'Hilux', 2019)
		ON CONFLICT DO NOTHING
	`, id.New(), clientID)
	if err != nil {
		return fmt.Errorf("insert demo vehicle: %w", err)
	}

	log.Info("demo data seeded")
	return nil
}
