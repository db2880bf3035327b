package core

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/google/uuid"
)

// fakeCatalog is an in-memory CatalogStore and CategoryDirectory for tests.
type fakeCatalog struct {
	mu         sync.Mutex
	products   []Product
	categories []Category
	inserts    int
	insertErr  error
	listErr    error
}

func (f *fakeCatalog) ListProducts(ctx context.Context) ([]Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]Product(nil), f.products...), nil
}

func (f *fakeCatalog) InsertProducts(ctx context.Context, products []Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserts++
	if f.insertErr != nil {
		return f.insertErr
	}
	f.products = append(f.products, products...)
	return nil
}

func (f *fakeCatalog) ListCategories(ctx context.Context) ([]Category, error) {
	return f.categories, nil
}

func record(line int, name, code string, categories ...string) CandidateRecord {
	return CandidateRecord{Line: line, Name: name, Code: code, Categories: categories, IsActive: true}
}

func TestDedup(t *testing.T) {
	existing := []Product{{ID: "p1", CandidateRecord: record(0, "Old", " D1 ")}}
	records := []CandidateRecord{
		record(2, "Kalem", "K1"),
		record(3, "Kalem 2", "K1"),
		record(4, "Defter", "D1"),
		record(5, "No code A", ""),
		record(6, "No code B", "  "),
		record(7, "Silgi", " S1"),
		record(8, "Silgi 2", "S1 "),
	}

	survivors, rejections := Dedup(records, existing)

	var names []string
	for _, r := range survivors {
		names = append(names, r.Name)
	}
	wantNames := []string{"Kalem", "No code A", "No code B", "Silgi"}
	if !reflect.DeepEqual(names, wantNames) {
		t.Errorf("survivors = %q, want %q", names, wantNames)
	}

	wantRejections := []RowRejection{
		{Line: 3, Name: "Kalem 2", Code: "K1", Reason: RejectDuplicateInBatch},
		{Line: 4, Name: "Defter", Code: "D1", Reason: RejectDuplicateInCatalog},
		{Line: 8, Name: "Silgi 2", Code: "S1", Reason: RejectDuplicateInBatch},
	}
	if !reflect.DeepEqual(rejections, wantRejections) {
		t.Errorf("rejections = %+v, want %+v", rejections, wantRejections)
	}
}

func TestDedup_CaseSensitive(t *testing.T) {
	survivors, rejections := Dedup([]CandidateRecord{record(2, "a", "abc"), record(3, "b", "ABC")}, nil)
	if len(survivors) != 2 || len(rejections) != 0 {
		t.Errorf("got %d survivors %d rejections, want 2 and 0", len(survivors), len(rejections))
	}
}

func TestCommit(t *testing.T) {
	store := &fakeCatalog{}
	records := []CandidateRecord{
		record(2, "Kalem", "K1", "Kırtasiye"),
		record(3, "Defter", "D1", "Kırtasiye", "Okul"),
		record(4, "Kalem", "K1", "Kırtasiye"),
	}

	res, err := Commit(context.Background(), store, records, nil)
	if err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if res.Accepted != 2 || res.Rejected != 1 {
		t.Errorf("Accepted = %d Rejected = %d, want 2 and 1", res.Accepted, res.Rejected)
	}
	wantCounts := map[string]int{"Kırtasiye": 2, "Okul": 1}
	if !reflect.DeepEqual(res.CategoryCounts, wantCounts) {
		t.Errorf("CategoryCounts = %v, want %v", res.CategoryCounts, wantCounts)
	}
	if store.inserts != 1 {
		t.Errorf("InsertProducts called %d times, want 1", store.inserts)
	}

	seen := make(map[string]bool)
	for _, p := range store.products {
		id, err := uuid.Parse(p.ID)
		if err != nil {
			t.Errorf("product ID %q is not a UUID: %v", p.ID, err)
			continue
		}
		if id.Version() != 7 {
			t.Errorf("product ID version = %d, want 7", id.Version())
		}
		if seen[p.ID] {
			t.Errorf("duplicate product ID %q", p.ID)
		}
		seen[p.ID] = true
		if p.CreatedAt.IsZero() || p.CreatedAt.Location().String() != "UTC" {
			t.Errorf("CreatedAt = %v, want UTC timestamp", p.CreatedAt)
		}
	}
}

func TestCommit_NothingToInsert(t *testing.T) {
	store := &fakeCatalog{}
	existing := []Product{{CandidateRecord: record(0, "Kalem", "K1")}}

	res, err := Commit(context.Background(), store, []CandidateRecord{record(2, "Kalem", "K1")}, existing)
	if err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if store.inserts != 0 {
		t.Errorf("InsertProducts called %d times, want 0", store.inserts)
	}
	if res.Accepted != 0 || res.Rejected != 1 || res.CategoryCounts == nil {
		t.Errorf("result = %+v, want 0 accepted, 1 rejected, non-nil counts", res)
	}
}

func TestCommit_StoreFailure(t *testing.T) {
	storeErr := errors.New("disk full")
	store := &fakeCatalog{insertErr: storeErr}

	res, err := Commit(context.Background(), store, []CandidateRecord{record(2, "Kalem", "K1"), record(3, "Silgi", "")}, nil)

	var commitErr *CommitError
	if !errors.As(err, &commitErr) {
		t.Fatalf("Commit() error = %v, want *CommitError", err)
	}
	if commitErr.Attempted != 2 {
		t.Errorf("Attempted = %d, want 2", commitErr.Attempted)
	}
	if !errors.Is(err, storeErr) {
		t.Errorf("Commit() error does not wrap the store error")
	}
	if res.Accepted != 0 {
		t.Errorf("Accepted = %d, want 0 after store failure", res.Accepted)
	}
}

func TestCommit_CancelledBeforeInsert(t *testing.T) {
	store := &fakeCatalog{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Commit(ctx, store, []CandidateRecord{record(2, "Kalem", "K1")}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Commit() error = %v, want context.Canceled", err)
	}
	if store.inserts != 0 {
		t.Errorf("InsertProducts called %d times, want 0", store.inserts)
	}
}

func TestCommit_DuplicateCodeAcrossBatch(t *testing.T) {
	store := &fakeCatalog{}
	records := []CandidateRecord{
		record(2, "Mavi Kalem", "SKU1"),
		record(3, "Kırmızı Kalem", "SKU1"),
	}

	res, err := Commit(context.Background(), store, records, nil)
	if err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if res.Accepted != 1 || res.Rejected != 1 {
		t.Errorf("Accepted = %d Rejected = %d, want 1 and 1", res.Accepted, res.Rejected)
	}
	if len(store.products) != 1 || store.products[0].Name != "Mavi Kalem" {
		t.Errorf("stored = %+v, want only Mavi Kalem", store.products)
	}
}
