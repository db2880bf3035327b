package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Dedup drops records whose code is already in the catalog or already
// accepted earlier in the batch. Records without a code always survive.
func Dedup(records []CandidateRecord, existing []Product) ([]CandidateRecord, []RowRejection) {
	catalog := make(map[string]bool, len(existing))
	for _, p := range existing {
		if code := strings.TrimSpace(p.Code); code != "" {
			catalog[code] = true
		}
	}

	batch := make(map[string]bool)
	survivors := make([]CandidateRecord, 0, len(records))
	var rejections []RowRejection
	for _, rec := range records {
		code := strings.TrimSpace(rec.Code)
		if code == "" {
			survivors = append(survivors, rec)
			continue
		}

		var reason RejectReason
		switch {
		case catalog[code]:
			reason = RejectDuplicateInCatalog
		case batch[code]:
			reason = RejectDuplicateInBatch
		default:
			batch[code] = true
			survivors = append(survivors, rec)
			continue
		}
		rejections = append(rejections, RowRejection{
			Line:   rec.Line,
			Name:   rec.Name,
			Code:   code,
			Reason: reason,
		})
	}
	return survivors, rejections
}

// Commit deduplicates records against existing and inserts the survivors with
// a single InsertProducts call. When ctx is already done nothing is written.
// Once the insert starts it is not interrupted by ctx. A store failure is
// returned as *CommitError and nothing is counted as accepted.
func Commit(ctx context.Context, store CatalogStore, records []CandidateRecord, existing []Product) (Result, error) {
	survivors, rejections := Dedup(records, existing)
	result := Result{
		Rejected:       len(rejections),
		Rejections:     rejections,
		CategoryCounts: map[string]int{},
	}
	if len(survivors) == 0 {
		return result, nil
	}

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("import cancelled before commit: %w", err)
	}

	products := newProducts(survivors, time.Now().UTC())
	if err := store.InsertProducts(context.WithoutCancel(ctx), products); err != nil {
		return result, &CommitError{Attempted: len(products), Err: err}
	}

	result.Accepted = len(products)
	result.CategoryCounts = countCategories(survivors)
	return result, nil
}

func newProducts(records []CandidateRecord, now time.Time) []Product {
	products := make([]Product, len(records))
	for i, rec := range records {
		products[i] = Product{
			ID:              newProductID(),
			CreatedAt:       now,
			CandidateRecord: rec,
		}
	}
	return products
}

func newProductID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func countCategories(records []CandidateRecord) map[string]int {
	counts := make(map[string]int)
	for _, rec := range records {
		for _, c := range rec.Categories {
			counts[c]++
		}
	}
	return counts
}
