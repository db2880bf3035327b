// Package store provides CatalogStore and CategoryDirectory implementations:
// an in-memory map, SQLite through database/sql and PostgreSQL through pgx.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/JonMunkholm/catalog-import/internal/config"
	"github.com/JonMunkholm/catalog-import/internal/core"
)

// Store is a catalog plus its category directory.
type Store interface {
	core.CatalogStore
	core.CategoryDirectory

	// AddCategories inserts directory entries, skipping names already present.
	AddCategories(ctx context.Context, names ...string) error
	Close() error
}

// Open returns the store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.DatabaseConfig) (Store, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return NewMemory(), nil
	case config.DriverSQLite:
		return OpenSQLite(ctx, cfg.URL)
	case config.DriverPostgres:
		return OpenPostgres(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// cleanNames trims names and drops blanks and repeats, keeping first spellings.
func cleanNames(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
