package core

// convert.go turns raw cell text into record values.
//
// Spreadsheet exports are messy: prices carry currency symbols, thousands
// separators and either decimal convention; codes come wrapped in Excel
// formula quoting (="0123"). Conversions never fail; unusable input falls
// back to the field's zero value.

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// CleanCell trims whitespace and unwraps Excel formula text such as ="0123".
func CleanCell(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) && len(s) >= 3 {
		return strings.TrimSpace(s[2 : len(s)-1])
	}
	return s
}

// Values past these bounds do not fit the catalog columns (a 32-bit stock and
// a price with 12 integer digits and 2 decimals) and are coerced to zero.
const MaxStock = math.MaxInt32

var MaxPrice = decimal.RequireFromString("999999999999.99")

// ParsePrice reads a non-negative amount. Characters other than digits,
// '.', ',' and '-' are dropped first. When both '.' and ',' appear, the
// later one is the decimal point. A lone ',' followed by one or two digits is
// a decimal comma; otherwise commas group thousands. Anything unparseable or
// negative, including accounting-style "(12.00)", yields zero, and so does
// anything above MaxPrice once rounded to cents.
func ParsePrice(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		return decimal.Zero
	}

	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' || r == '-' {
			return r
		}
		return -1
	}, s)
	if cleaned == "" {
		return decimal.Zero
	}

	d, err := decimal.NewFromString(normalizeSeparators(cleaned))
	if err != nil || d.IsNegative() || d.Round(2).GreaterThan(MaxPrice) {
		return decimal.Zero
	}
	return d
}

func normalizeSeparators(s string) string {
	lastComma := strings.LastIndexByte(s, ',')
	lastDot := strings.LastIndexByte(s, '.')

	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			return strings.ReplaceAll(s, ",", ".")
		}
		return strings.ReplaceAll(s, ",", "")
	case lastComma >= 0:
		fraction := len(s) - lastComma - 1
		if strings.Count(s, ",") == 1 && (fraction == 1 || fraction == 2) {
			return strings.Replace(s, ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")
	}
	return s
}

// ParseStock reads an integer quantity in [0, MaxStock]; anything else yields zero.
func ParseStock(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 || n > MaxStock {
		return 0
	}
	return n
}

// SplitList splits s on sep, trimming items and dropping empty ones.
func SplitList(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
