// Package batch reads recipient lists from CSV and Excel uploads.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

var (
	ErrInvalidFormat = errors.New("batch: unsupported or unreadable file")
	ErrMissingColumn = errors.New("batch: column not found")
	ErrNoHeader      = errors.New("batch: file has no header row")
)

// Format identifies a supported file type.
type Format string

const (
	FormatCSV  Format = ".csv"
	FormatXLSX Format = ".xlsx"
	FormatXLS  Format = ".xls"
)

// Extensions lists the accepted upload extensions.
var Extensions = []string{string(FormatXLSX), string(FormatXLS), string(FormatCSV)}

// DetectFormat maps a filename to its Format by extension.
func DetectFormat(filename string) (Format, error) {
	switch f := Format(strings.ToLower(path.Ext(filename))); f {
	case FormatCSV, FormatXLSX, FormatXLS:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidFormat, path.Ext(filename))
}

// Row is one data row. Line is the 1-based position below the header.
// Fields holds the requested extra columns by name. They do not change the
// generated content; the sender passes them on to row observers.
type Row struct {
	Line   int
	Email  string
	Fields map[string]string
}

// Blank reports whether the email cell is empty.
func (r Row) Blank() bool {
	return r.Email == ""
}

// Table is a parsed sheet: trimmed header names and the raw data rows.
// Blank rows between data rows are kept as empty records.
type Table struct {
	Header  []string
	Records [][]string
}

func (t *Table) index() map[string]int {
	idx := make(map[string]int, len(t.Header))
	for i, h := range t.Header {
		if _, dup := idx[h]; !dup && h != "" {
			idx[h] = i
		}
	}
	return idx
}

// Read parses r according to the extension of filename.
func Read(ctx context.Context, filename string, r io.Reader) (*Table, error) {
	format, err := DetectFormat(filename)
	if err != nil {
		return nil, err
	}

	var records [][]string
	switch format {
	case FormatCSV:
		records, err = readCSV(ctx, r)
	case FormatXLSX:
		records, err = readXLSX(ctx, r)
	case FormatXLS:
		records, err = readXLS(ctx, r)
	}
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if len(records) == 0 || isBlank(records[0]) {
		return nil, ErrNoHeader
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	return &Table{Header: header, Records: trimTrailingBlank(records[1:])}, nil
}

// Columns returns the header names of the upload.
func Columns(ctx context.Context, filename string, r io.Reader) ([]string, error) {
	t, err := Read(ctx, filename, r)
	if err != nil {
		return nil, err
	}
	return t.Header, nil
}

// Rows parses the upload and extracts emailColumn plus extraColumns from
// every data row. Every named column must exist in the header.
func Rows(ctx context.Context, filename string, r io.Reader, emailColumn string, extraColumns []string) ([]Row, error) {
	t, err := Read(ctx, filename, r)
	if err != nil {
		return nil, err
	}
	return t.Rows(emailColumn, extraColumns)
}

// Rows extracts the named columns from t.
func (t *Table) Rows(emailColumn string, extraColumns []string) ([]Row, error) {
	idx := t.index()

	emailAt, ok := idx[strings.TrimSpace(emailColumn)]
	if !ok {
		return nil, fmt.Errorf("%w: email column %q", ErrMissingColumn, emailColumn)
	}
	extras := make(map[string]int, len(extraColumns))
	for _, col := range extraColumns {
		i, ok := idx[strings.TrimSpace(col)]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, col)
		}
		extras[col] = i
	}

	rows := make([]Row, len(t.Records))
	for n, rec := range t.Records {
		row := Row{Line: n + 1, Email: cell(rec, emailAt)}
		if len(extras) > 0 {
			row.Fields = make(map[string]string, len(extras))
			for col, i := range extras {
				row.Fields[col] = cell(rec, i)
			}
		}
		rows[n] = row
	}
	return rows, nil
}

func cell(rec []string, i int) string {
	if i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func trimTrailingBlank(records [][]string) [][]string {
	end := len(records)
	for end > 0 && isBlank(records[end-1]) {
		end--
	}
	return records[:end]
}
