package core

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Record defaults applied by Transform when the source row leaves a field empty.
const (
	DefaultBrand            = "Diğer"
	DefaultCategory         = "Genel"
	DefaultPlaceholderImage = "https://placehold.co/600x600?text=No+Image"
	DefaultMaxRows          = 5000
)

// FieldTarget names a product attribute a source column can be mapped onto.
// The zero value is TargetIgnore.
type FieldTarget string

const (
	TargetIgnore           FieldTarget = ""
	TargetName             FieldTarget = "name"
	TargetDescription      FieldTarget = "description"
	TargetBrand            FieldTarget = "brand"
	TargetCode             FieldTarget = "code"
	TargetStock            FieldTarget = "stock"
	TargetPriceCurrent     FieldTarget = "price_current"
	TargetPriceOriginal    FieldTarget = "price_original"
	TargetSpecColor        FieldTarget = "spec_color"
	TargetSpecSize         FieldTarget = "spec_size"
	TargetSpecShippingType FieldTarget = "spec_shipping_type"
	TargetCategoryName     FieldTarget = "category_name"
	TargetImageList        FieldTarget = "image_list"
)

// AllTargets lists every mappable target in display order, ignore last.
var AllTargets = []FieldTarget{
	TargetName,
	TargetDescription,
	TargetBrand,
	TargetCode,
	TargetStock,
	TargetPriceCurrent,
	TargetPriceOriginal,
	TargetSpecColor,
	TargetSpecSize,
	TargetSpecShippingType,
	TargetCategoryName,
	TargetImageList,
	TargetIgnore,
}

// String returns the wire name, "ignore" for the zero value.
func (t FieldTarget) String() string {
	if t == TargetIgnore {
		return "ignore"
	}
	return string(t)
}

// Valid reports whether t is one of the known targets.
func (t FieldTarget) Valid() bool {
	for _, known := range AllTargets {
		if t == known {
			return true
		}
	}
	return false
}

// ParseFieldTarget resolves a wire name. "ignore" and "" both map to TargetIgnore.
func ParseFieldTarget(s string) (FieldTarget, error) {
	if s == "ignore" || s == "" {
		return TargetIgnore, nil
	}
	t := FieldTarget(s)
	if !t.Valid() {
		return TargetIgnore, &TargetError{Target: s}
	}
	return t, nil
}

func (t FieldTarget) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *FieldTarget) UnmarshalText(b []byte) error {
	parsed, err := ParseFieldTarget(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// RawRow is one data row of a parsed file, keyed by the table's headers.
// Rows shorter than the header are padded with empty cells; extra cells are dropped.
type RawRow struct {
	Line    int
	headers []string
	cells   []string
}

// NewRawRow aligns cells to headers. headers is shared, not copied.
func NewRawRow(line int, headers, cells []string) RawRow {
	aligned := make([]string, len(headers))
	copy(aligned, cells)
	return RawRow{Line: line, headers: headers, cells: aligned}
}

// Value returns the cell under header, or "" when the header is unknown.
func (r RawRow) Value(header string) string {
	for i, h := range r.headers {
		if h == header {
			return r.cells[i]
		}
	}
	return ""
}

// Cells returns the row values in header order.
func (r RawRow) Cells() []string {
	return r.cells
}

// Empty reports whether every cell is blank after trimming.
func (r RawRow) Empty() bool {
	return isEmptyRow(r.cells)
}

// MarshalJSON encodes the row as an object with keys in header order.
func (r RawRow) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, h := range r.headers {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(h)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r.cells[i])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Table is the parsed form of an uploaded file.
type Table struct {
	Headers   []string
	Rows      []RawRow
	Truncated bool
}

// Price holds current and original (list) price.
type Price struct {
	Current  decimal.Decimal `json:"current"`
	Original decimal.Decimal `json:"original"`
}

// Specs holds optional product attributes.
type Specs struct {
	Color        string `json:"color,omitempty"`
	Size         string `json:"size,omitempty"`
	ShippingType string `json:"shipping_type,omitempty"`
}

// CandidateRecord is a normalized product built from one row, not yet persisted.
type CandidateRecord struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Brand       string   `json:"brand"`
	Code        string   `json:"code"`
	Stock       int      `json:"stock"`
	Price       Price    `json:"price"`
	Specs       Specs    `json:"specs"`
	Categories  []string `json:"categories"`
	Images      []string `json:"images"`
	Image       string   `json:"image"`
	IsActive    bool     `json:"is_active"`

	// Line is the source line the record came from.
	Line int `json:"line"`
}

// Product is a persisted catalog entry.
type Product struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	CandidateRecord
}

// Category is an entry of the category directory.
type Category struct {
	Name string `json:"name"`
}

// RejectReason explains why a row did not become a product.
type RejectReason string

const (
	RejectEmptyName          RejectReason = "empty_name"
	RejectDuplicateInBatch   RejectReason = "duplicate_in_batch"
	RejectDuplicateInCatalog RejectReason = "duplicate_in_catalog"
)

// RowRejection records one rejected row.
type RowRejection struct {
	Line   int          `json:"line"`
	Name   string       `json:"name,omitempty"`
	Code   string       `json:"code,omitempty"`
	Reason RejectReason `json:"reason"`
}

// Result summarizes one import run.
type Result struct {
	Accepted       int            `json:"accepted"`
	Rejected       int            `json:"rejected"`
	Truncated      bool           `json:"truncated"`
	CategoryCounts map[string]int `json:"category_counts"`
	Rejections     []RowRejection `json:"rejections"`
}

// CatalogStore persists products.
type CatalogStore interface {
	ListProducts(ctx context.Context) ([]Product, error)
	// InsertProducts stores all products or none.
	InsertProducts(ctx context.Context, products []Product) error
}

// CategoryDirectory lists the canonical categories.
type CategoryDirectory interface {
	ListCategories(ctx context.Context) ([]Category, error)
}
