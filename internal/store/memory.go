package store

import (
	"context"
	"sync"

	"github.com/JonMunkholm/catalog-import/internal/core"
)

// Memory keeps the catalog in process. It is safe for concurrent use.
type Memory struct {
	mu         sync.RWMutex
	products   []core.Product
	categories []core.Category
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) ListProducts(ctx context.Context) ([]core.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]core.Product, len(m.products))
	copy(out, m.products)
	return out, nil
}

func (m *Memory) InsertProducts(ctx context.Context, products []core.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products = append(m.products, products...)
	return nil
}

func (m *Memory) ListCategories(ctx context.Context) ([]core.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]core.Category, len(m.categories))
	copy(out, m.categories)
	return out, nil
}

func (m *Memory) AddCategories(ctx context.Context, names ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing := make(map[string]bool, len(m.categories))
	for _, c := range m.categories {
		existing[c.Name] = true
	}
	for _, n := range cleanNames(names) {
		if !existing[n] {
			m.categories = append(m.categories, core.Category{Name: n})
		}
	}
	return nil
}

func (m *Memory) Close() error { return nil }
