package core

import (
	"reflect"
	"testing"

	"github.com/shopspring/decimal"
)

// ----------------------------------------------------------------------------
// ParsePrice Tests
// ----------------------------------------------------------------------------

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain integer", input: "42", want: "42"},
		{name: "dot decimal", input: "19.99", want: "19.99"},
		{name: "decimal comma", input: "12,50", want: "12.50"},
		{name: "single digit after comma", input: "7,5", want: "7.5"},
		{name: "thousands comma", input: "1,000", want: "1000"},
		{name: "repeated thousands comma", input: "1,234,567", want: "1234567"},
		{name: "us grouping", input: "3,999.00", want: "3999"},
		{name: "european grouping", input: "1.234,56", want: "1234.56"},
		{name: "dot alone stays decimal", input: "1.234", want: "1.234"},
		{name: "currency symbol prefix", input: "₺149,90", want: "149.90"},
		{name: "currency code suffix", input: "250 TL", want: "250"},
		{name: "dollar sign", input: "$5.25", want: "5.25"},
		{name: "surrounding whitespace", input: "  10  ", want: "10"},
		{name: "empty", input: "", want: "0"},
		{name: "text", input: "n/a", want: "0"},
		{name: "negative", input: "-5", want: "0"},
		{name: "accounting negative", input: "(12.00)", want: "0"},
		{name: "garbage separators", input: "1.2.3", want: "0"},
		{name: "largest price", input: "999,999,999,999.99", want: "999999999999.99"},
		{name: "thirteen integer digits", input: "1000000000000", want: "0"},
		{name: "rounds past largest price", input: "999999999999.999", want: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParsePrice(tt.input)
			want := decimal.RequireFromString(tt.want)
			if !got.Equal(want) {
				t.Errorf("ParsePrice(%q) = %s, want %s", tt.input, got, want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// ParseStock Tests
// ----------------------------------------------------------------------------

func TestParseStock(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"100", 100},
		{" 7 ", 7},
		{"0", 0},
		{"", 0},
		{"-3", 0},
		{"12.5", 0},
		{"many", 0},
		{"2147483647", 2147483647},
		{"2147483648", 0},
		{"99999999999", 0},
	}

	for _, tt := range tests {
		if got := ParseStock(tt.input); got != tt.want {
			t.Errorf("ParseStock(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

// ----------------------------------------------------------------------------
// SplitList / CleanCell Tests
// ----------------------------------------------------------------------------

func TestSplitList(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"a.jpg, b.jpg", []string{"a.jpg", "b.jpg"}},
		{"a.jpg,,  ,b.jpg,", []string{"a.jpg", "b.jpg"}},
		{"single", []string{"single"}},
		{"  ", nil},
	}

	for _, tt := range tests {
		if got := SplitList(tt.input, ","); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("SplitList(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestCleanCell(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  Kalem  ", "Kalem"},
		{`="0123"`, "0123"},
		{`=" 0042 "`, "0042"},
		{`="`, `="`},
		{"=SUM(A1)", "=SUM(A1)"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := CleanCell(tt.input); got != tt.want {
			t.Errorf("CleanCell(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
