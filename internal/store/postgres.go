package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/catalog-import/internal/config"
	"github.com/JonMunkholm/catalog-import/internal/core"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS products (
	id TEXT PRIMARY KEY,
	code TEXT NOT NULL DEFAULT '',
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	brand TEXT NOT NULL DEFAULT '',
	stock INTEGER NOT NULL DEFAULT 0,
	price_current NUMERIC(14,2) NOT NULL DEFAULT 0,
	price_original NUMERIC(14,2) NOT NULL DEFAULT 0,
	spec_color TEXT NOT NULL DEFAULT '',
	spec_size TEXT NOT NULL DEFAULT '',
	spec_shipping_type TEXT NOT NULL DEFAULT '',
	categories TEXT[] NOT NULL DEFAULT '{}',
	images TEXT[] NOT NULL DEFAULT '{}',
	image TEXT NOT NULL DEFAULT '',
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	source_line INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_products_code ON products(code);
CREATE TABLE IF NOT EXISTS categories (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL UNIQUE
);`

var productColumns = []string{
	"id", "code", "name", "description", "brand", "stock", "price_current",
	"price_original", "spec_color", "spec_size", "spec_shipping_type",
	"categories", "images", "image", "is_active", "source_line", "created_at",
}

// Postgres stores the catalog in PostgreSQL.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects a pool sized from cfg and ensures the schema exists.
func OpenPostgres(ctx context.Context, cfg config.DatabaseConfig) (*Postgres, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

func (p *Postgres) ListProducts(ctx context.Context) ([]core.Product, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, code, name, description, brand, stock, price_current::text,
		       price_original::text, spec_color, spec_size, spec_shipping_type,
		       categories, images, image, is_active, source_line, created_at
		FROM products
		ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []core.Product
	for rows.Next() {
		var (
			prod              core.Product
			current, original string
		)
		err := rows.Scan(&prod.ID, &prod.Code, &prod.Name, &prod.Description, &prod.Brand,
			&prod.Stock, &current, &original, &prod.Specs.Color, &prod.Specs.Size,
			&prod.Specs.ShippingType, &prod.Categories, &prod.Images, &prod.Image,
			&prod.IsActive, &prod.Line, &prod.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		if prod.Price.Current, err = decimal.NewFromString(current); err != nil {
			return nil, fmt.Errorf("product %s price_current: %w", prod.ID, err)
		}
		if prod.Price.Original, err = decimal.NewFromString(original); err != nil {
			return nil, fmt.Errorf("product %s price_original: %w", prod.ID, err)
		}
		products = append(products, prod)
	}
	return products, rows.Err()
}

// InsertProducts bulk-loads products with COPY inside one transaction.
func (p *Postgres) InsertProducts(ctx context.Context, products []core.Product) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	rows := make([][]any, len(products))
	for i, prod := range products {
		rows[i] = []any{
			prod.ID, prod.Code, prod.Name, prod.Description, prod.Brand, prod.Stock,
			toPgNumeric(prod.Price.Current), toPgNumeric(prod.Price.Original),
			prod.Specs.Color, prod.Specs.Size, prod.Specs.ShippingType,
			nonNil(prod.Categories), nonNil(prod.Images), prod.Image, prod.IsActive,
			prod.Line, prod.CreatedAt.UTC().Truncate(time.Microsecond),
		}
	}

	n, err := tx.CopyFrom(ctx, pgx.Identifier{"products"}, productColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("copy products: %w", err)
	}
	if int(n) != len(products) {
		return fmt.Errorf("copy products: wrote %d of %d rows", n, len(products))
	}
	return tx.Commit(ctx)
}

func (p *Postgres) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := p.pool.Query(ctx, `SELECT name FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var categories []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.Name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (p *Postgres) AddCategories(ctx context.Context, names ...string) error {
	batch := &pgx.Batch{}
	for _, n := range cleanNames(names) {
		batch.Queue(`INSERT INTO categories (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, n)
	}
	if batch.Len() == 0 {
		return nil
	}
	if err := p.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert categories: %w", err)
	}
	return nil
}

// toPgNumeric converts a decimal to pgtype.Numeric through its text form.
func toPgNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	if err := n.Scan(d.String()); err != nil {
		return pgtype.Numeric{Valid: false}
	}
	return n
}
