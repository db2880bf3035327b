package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/JonMunkholm/catalog-import/internal/core"
)

var sqliteMigrations = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		code TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		brand TEXT NOT NULL DEFAULT '',
		stock INTEGER NOT NULL DEFAULT 0,
		price_current TEXT NOT NULL DEFAULT '0',
		price_original TEXT NOT NULL DEFAULT '0',
		spec_color TEXT NOT NULL DEFAULT '',
		spec_size TEXT NOT NULL DEFAULT '',
		spec_shipping_type TEXT NOT NULL DEFAULT '',
		categories_json TEXT NOT NULL DEFAULT '[]',
		images_json TEXT NOT NULL DEFAULT '[]',
		image TEXT NOT NULL DEFAULT '',
		is_active INTEGER NOT NULL DEFAULT 1,
		source_line INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_products_code ON products(code)`,
	`CREATE TABLE IF NOT EXISTS categories (
		name TEXT PRIMARY KEY
	)`,
}

// SQLite stores the catalog in a single SQLite file.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and applies migrations.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer at a time; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	s := &SQLite{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLite) migrate(ctx context.Context) error {
	for _, m := range sqliteMigrations {
		if _, err := s.db.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("migration failed: %.40s: %w", m, err)
		}
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) ListProducts(ctx context.Context) ([]core.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, code, name, description, brand, stock, price_current, price_original,
		       spec_color, spec_size, spec_shipping_type, categories_json, images_json,
		       image, is_active, source_line, created_at
		FROM products
		ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []core.Product
	for rows.Next() {
		var (
			p                        core.Product
			current, original        string
			categoriesJSON, imgsJSON string
			createdAt                string
		)
		err := rows.Scan(&p.ID, &p.Code, &p.Name, &p.Description, &p.Brand, &p.Stock,
			&current, &original, &p.Specs.Color, &p.Specs.Size, &p.Specs.ShippingType,
			&categoriesJSON, &imgsJSON, &p.Image, &p.IsActive, &p.Line, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		if p.Price.Current, err = decimal.NewFromString(current); err != nil {
			return nil, fmt.Errorf("product %s price_current: %w", p.ID, err)
		}
		if p.Price.Original, err = decimal.NewFromString(original); err != nil {
			return nil, fmt.Errorf("product %s price_original: %w", p.ID, err)
		}
		if err := json.Unmarshal([]byte(categoriesJSON), &p.Categories); err != nil {
			return nil, fmt.Errorf("product %s categories: %w", p.ID, err)
		}
		if err := json.Unmarshal([]byte(imgsJSON), &p.Images); err != nil {
			return nil, fmt.Errorf("product %s images: %w", p.ID, err)
		}
		if p.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("product %s created_at: %w", p.ID, err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// InsertProducts writes all products in one transaction.
func (s *SQLite) InsertProducts(ctx context.Context, products []core.Product) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO products (id, code, name, description, brand, stock, price_current,
			price_original, spec_color, spec_size, spec_shipping_type, categories_json,
			images_json, image, is_active, source_line, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range products {
		categories, err := json.Marshal(nonNil(p.Categories))
		if err != nil {
			return err
		}
		images, err := json.Marshal(nonNil(p.Images))
		if err != nil {
			return err
		}
		_, err = stmt.ExecContext(ctx, p.ID, p.Code, p.Name, p.Description, p.Brand, p.Stock,
			p.Price.Current.String(), p.Price.Original.String(), p.Specs.Color, p.Specs.Size,
			p.Specs.ShippingType, string(categories), string(images), p.Image, p.IsActive,
			p.Line, p.CreatedAt.UTC().Format(time.RFC3339Nano))
		if err != nil {
			return fmt.Errorf("insert product %s: %w", p.ID, err)
		}
	}
	return tx.Commit()
}

func (s *SQLite) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM categories ORDER BY rowid`)
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

func (s *SQLite) AddCategories(ctx context.Context, names ...string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, n := range cleanNames(names) {
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO categories (name) VALUES (?)`, n); err != nil {
			return fmt.Errorf("insert category %q: %w", n, err)
		}
	}
	return tx.Commit()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
