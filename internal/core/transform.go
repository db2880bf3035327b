package core

import "strings"

// TransformOptions carries the defaults applied to every record.
type TransformOptions struct {
	DefaultBrand     string
	DefaultCategory  string
	PlaceholderImage string
	Policy           DuplicateTargetPolicy
}

// DefaultTransformOptions returns the stock record defaults.
func DefaultTransformOptions() TransformOptions {
	return TransformOptions{
		DefaultBrand:     DefaultBrand,
		DefaultCategory:  DefaultCategory,
		PlaceholderImage: DefaultPlaceholderImage,
		Policy:           LastWins,
	}
}

// categoryIndex resolves category cells to directory names by folded key.
type categoryIndex map[string]string

func newCategoryIndex(categories []Category) categoryIndex {
	idx := make(categoryIndex, len(categories))
	for _, c := range categories {
		key := Fold(c.Name)
		if _, exists := idx[key]; !exists && key != "" {
			idx[key] = c.Name
		}
	}
	return idx
}

func (idx categoryIndex) resolve(value string) string {
	if name, ok := idx[Fold(value)]; ok {
		return name
	}
	return value
}

// recordBuilder accumulates one row's values before defaults are applied.
type recordBuilder struct {
	rec          CandidateRecord
	categoryKeys map[string]bool
	categories   categoryIndex
}

// fieldApplier writes a non-empty cleaned cell into the record under construction.
type fieldApplier func(b *recordBuilder, value string)

// appliers holds the per-target conversion. Scalar targets overwrite, so
// with LastWins the later header in mapping order decides.
var appliers = map[FieldTarget]fieldApplier{
	TargetName:             func(b *recordBuilder, v string) { b.rec.Name = v },
	TargetDescription:      func(b *recordBuilder, v string) { b.rec.Description = v },
	TargetBrand:            func(b *recordBuilder, v string) { b.rec.Brand = v },
	TargetCode:             func(b *recordBuilder, v string) { b.rec.Code = v },
	TargetStock:            func(b *recordBuilder, v string) { b.rec.Stock = ParseStock(v) },
	TargetPriceCurrent:     func(b *recordBuilder, v string) { b.rec.Price.Current = ParsePrice(v) },
	TargetPriceOriginal:    func(b *recordBuilder, v string) { b.rec.Price.Original = ParsePrice(v) },
	TargetSpecColor:        func(b *recordBuilder, v string) { b.rec.Specs.Color = v },
	TargetSpecSize:         func(b *recordBuilder, v string) { b.rec.Specs.Size = v },
	TargetSpecShippingType: func(b *recordBuilder, v string) { b.rec.Specs.ShippingType = v },
	TargetImageList: func(b *recordBuilder, v string) {
		b.rec.Images = append(b.rec.Images, SplitList(v, ",")...)
	},
	TargetCategoryName: func(b *recordBuilder, v string) {
		name := b.categories.resolve(v)
		key := Fold(name)
		if b.categoryKeys[key] {
			return
		}
		b.categoryKeys[key] = true
		b.rec.Categories = append(b.rec.Categories, name)
	},
}

// Transform converts rows to candidate records using mapping. Rows without a
// name are rejected with RejectEmptyName. categories is the directory used to
// canonicalize category cells.
func Transform(rows []RawRow, mapping FieldMapping, categories []Category, opts TransformOptions) ([]CandidateRecord, []RowRejection) {
	idx := newCategoryIndex(categories)
	entries := mapping.Entries()

	records := make([]CandidateRecord, 0, len(rows))
	var rejections []RowRejection
	for _, row := range rows {
		rec := transformRow(row, entries, idx, opts)
		if rec.Name == "" {
			rejections = append(rejections, RowRejection{
				Line:   row.Line,
				Code:   rec.Code,
				Reason: RejectEmptyName,
			})
			continue
		}
		records = append(records, rec)
	}
	return records, rejections
}

func transformRow(row RawRow, entries []MappingEntry, idx categoryIndex, opts TransformOptions) CandidateRecord {
	b := &recordBuilder{
		rec: CandidateRecord{
			IsActive: true,
			Line:     row.Line,
		},
		categoryKeys: make(map[string]bool),
		categories:   idx,
	}

	for _, e := range entries {
		apply, ok := appliers[e.Target]
		if !ok {
			continue
		}
		value := CleanCell(row.Value(e.Header))
		if value == "" {
			continue
		}
		apply(b, value)
	}

	rec := b.rec
	if rec.Brand == "" {
		rec.Brand = opts.DefaultBrand
	}
	if len(rec.Categories) == 0 {
		rec.Categories = []string{opts.DefaultCategory}
	}
	if len(rec.Images) > 0 {
		rec.Image = rec.Images[0]
	} else {
		rec.Images = []string{}
		rec.Image = opts.PlaceholderImage
	}
	rec.Code = strings.TrimSpace(rec.Code)
	return rec
}
