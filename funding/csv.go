package funding

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Column headers of the grant tables.
const (
	colFocusArea        = "Focus Area"
	colOrganizationName = "Organization Name"
	colSource           = "Source"
	colCauseArea        = "Cause Area"
	colOrganization     = "Organization"
	colAmount           = "Amount"
)

// ErrMissingColumn is returned when a grant table lacks a required header.
var ErrMissingColumn = errors.New("missing column")

// table is a header-indexed CSV reader.
type table struct {
	name    string
	reader  *csv.Reader
	columns map[string]int
	line    int
}

func openTable(name string, r io.Reader, required ...string) (*table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%s: read headers: %w", name, err)
	}

	t := &table{name: name, reader: reader, columns: make(map[string]int), line: 1}
	for i, h := range headers {
		t.columns[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, col := range required {
		if _, ok := t.columns[col]; !ok {
			return nil, fmt.Errorf("%s: %w %q", name, ErrMissingColumn, col)
		}
	}
	return t, nil
}

// next returns the following row, or io.EOF.
func (t *table) next() ([]string, error) {
	row, err := t.reader.Read()
	t.line++
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s line %d: %w", t.name, t.line, err)
	}
	return row, err
}

func (t *table) get(row []string, col string) string {
	i, ok := t.columns[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
