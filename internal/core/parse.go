package core

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ContextCheckInterval is how often, in rows, parsing checks for cancellation.
const ContextCheckInterval = 100

// sniffWindow is how much of the file is inspected to pick a delimiter.
const sniffWindow = 16 * 1024

var zipMagic = []byte("PK\x03\x04")

// candidateDelimiters are tried by sniffDelimiter; earlier entries win ties.
var candidateDelimiters = []rune{',', ';', '\t'}

// ParseOptions controls Parse.
type ParseOptions struct {
	// MaxRows caps the number of data rows kept. Zero means DefaultMaxRows.
	MaxRows int

	// Delimiter forces the field separator for delimited text. Zero sniffs it.
	Delimiter rune

	// FileName is used to recognise spreadsheet uploads by extension.
	FileName string
}

// recordSource yields raw records with their 1-based source line.
// It returns io.EOF when exhausted.
type recordSource interface {
	next() (record []string, line int, err error)
	format() string
}

// Parse reads a delimited text or .xlsx file into a Table. The first
// non-empty record is the header row. All-empty rows are skipped and at most
// opts.MaxRows data rows are kept; Table.Truncated reports whether any
// non-empty row was left unread.
func Parse(ctx context.Context, r io.Reader, opts ParseOptions) (*Table, error) {
	if opts.MaxRows <= 0 {
		opts.MaxRows = DefaultMaxRows
	}

	br := bufio.NewReader(r)
	if err := skipBOM(br); err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	head, err := br.Peek(len(zipMagic))
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if isSpreadsheet(opts.FileName, head) {
		return parseSpreadsheet(ctx, br, opts)
	}

	src, err := newCSVSource(br, opts.Delimiter)
	if err != nil {
		return nil, err
	}
	return buildTable(ctx, src, opts.MaxRows)
}

func isSpreadsheet(fileName string, head []byte) bool {
	if strings.EqualFold(filepath.Ext(fileName), ".xlsx") {
		return true
	}
	return bytes.HasPrefix(head, zipMagic)
}

func buildTable(ctx context.Context, src recordSource, maxRows int) (*Table, error) {
	var headers []string
	for headers == nil {
		record, line, err := src.next()
		if err == io.EOF {
			return nil, &ParseError{Format: src.format(), Err: ErrEmptyFile}
		}
		if err != nil {
			return nil, parseFailure(src.format(), line, err)
		}
		if !isEmptyRow(record) {
			headers = normalizeHeaders(record)
		}
	}

	table := &Table{Headers: headers}
	seen := 0
	for {
		seen++
		if seen%ContextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		record, line, err := src.next()
		if err == io.EOF {
			return table, nil
		}
		if err != nil {
			if len(table.Rows) >= maxRows {
				// Malformed content past the cap still counts as unread data.
				table.Truncated = true
				return table, nil
			}
			return nil, parseFailure(src.format(), line, err)
		}
		if isEmptyRow(record) {
			continue
		}
		if len(table.Rows) >= maxRows {
			table.Truncated = true
			return table, nil
		}
		table.Rows = append(table.Rows, NewRawRow(line, headers, record))
	}
}

func parseFailure(format string, line int, err error) error {
	var pe *ParseError
	if errors.As(err, &pe) {
		return err
	}
	var csvErr *csv.ParseError
	if errors.As(err, &csvErr) {
		return &ParseError{Format: format, Line: csvErr.StartLine, Err: csvErr.Err}
	}
	return &ParseError{Format: format, Line: line, Err: err}
}

// normalizeHeaders trims header cells, names blank ones column_<n> and
// suffixes repeats with _<k> so every header is distinct.
func normalizeHeaders(record []string) []string {
	headers := make([]string, len(record))
	used := make(map[string]bool, len(record))
	for i, cell := range record {
		h := strings.TrimSpace(cell)
		if h == "" {
			h = "column_" + strconv.Itoa(i+1)
		}
		base := h
		for k := 2; used[h]; k++ {
			h = base + "_" + strconv.Itoa(k)
		}
		used[h] = true
		headers[i] = h
	}
	return headers
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// csvSource reads delimited text.
type csvSource struct {
	reader    *csv.Reader
	validator *utf8Validator
}

func newCSVSource(r io.Reader, delimiter rune) (*csvSource, error) {
	validator := newUTF8Validator(r)
	br := bufio.NewReaderSize(validator, 64*1024)

	if delimiter == 0 {
		head, err := br.Peek(sniffWindow)
		if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
			if errors.Is(err, ErrInvalidEncoding) {
				return nil, &ParseError{Format: "csv", Err: err}
			}
			return nil, fmt.Errorf("read file: %w", err)
		}
		delimiter = sniffDelimiter(head)
	}

	cr := csv.NewReader(br)
	cr.Comma = delimiter
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = false
	return &csvSource{reader: cr, validator: validator}, nil
}

func (s *csvSource) format() string { return "csv" }

func (s *csvSource) next() ([]string, int, error) {
	record, err := s.reader.Read()
	if err != nil {
		// The validator's error takes precedence over whatever the decoder
		// made of the truncated stream.
		if s.validator.err != nil {
			return nil, 0, s.validator.err
		}
		return nil, 0, err
	}
	line, _ := s.reader.FieldPos(0)
	return record, line, nil
}

// sniffDelimiter counts candidate separators outside quotes on the first line
// and returns the most frequent, defaulting to comma.
func sniffDelimiter(head []byte) rune {
	counts := make(map[rune]int, len(candidateDelimiters))
	inQuotes := false
	for _, b := range head {
		if b == '"' {
			inQuotes = !inQuotes
			continue
		}
		if inQuotes {
			continue
		}
		if b == '\n' || b == '\r' {
			break
		}
		for _, d := range candidateDelimiters {
			if rune(b) == d {
				counts[d]++
			}
		}
	}

	best := candidateDelimiters[0]
	for _, d := range candidateDelimiters[1:] {
		if counts[d] > counts[best] {
			best = d
		}
	}
	return best
}

// sheetSource reads rows from the first worksheet of an .xlsx workbook.
type sheetSource struct {
	rows *excelize.Rows
	line int
}

func (s *sheetSource) format() string { return "xlsx" }

func (s *sheetSource) next() ([]string, int, error) {
	if !s.rows.Next() {
		if err := s.rows.Error(); err != nil {
			return nil, s.line, err
		}
		return nil, s.line, io.EOF
	}
	s.line++
	cols, err := s.rows.Columns()
	if err != nil {
		return nil, s.line, err
	}
	return cols, s.line, nil
}

func parseSpreadsheet(ctx context.Context, r io.Reader, opts ParseOptions) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &ParseError{Format: "xlsx", Err: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &ParseError{Format: "xlsx", Err: ErrEmptyFile}
	}

	rows, err := f.Rows(sheets[0])
	if err != nil {
		return nil, &ParseError{Format: "xlsx", Err: err}
	}
	defer rows.Close()

	return buildTable(ctx, &sheetSource{rows: rows}, opts.MaxRows)
}
