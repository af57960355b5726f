package helpers

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spektr-org/eadash/engine"
	"github.com/spektr-org/eadash/schema"
)

// ============================================================================
// CSV HELPER — Parses delimited tables into []engine.Record
// ============================================================================
// Callers read the bytes from wherever they live (data dir, fs.FS, upload).
// This helper converts them into generic Records using a schema.
// ============================================================================

// ErrMissingColumn is returned when a schema column is absent from the header.
var ErrMissingColumn = errors.New("missing column")

// ParseOptions controls table parsing.
type ParseOptions struct {
	Delimiter rune // 0 = ','
}

// TSV is the option set for tab-separated survey exports.
var TSV = ParseOptions{Delimiter: '\t'}

func newReader(data []byte, opts []ParseOptions) *csv.Reader {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	if len(opts) > 0 && opts[0].Delimiter != 0 {
		reader.Comma = opts[0].Delimiter
	}
	return reader
}

// ReadHeader returns the trimmed header row of a table.
func ReadHeader(data []byte, opts ...ParseOptions) ([]string, error) {
	headers, err := newReader(data, opts).Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read headers: %w", err)
	}
	for i := range headers {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(headers[i], "\ufeff"))
	}
	return headers, nil
}

// ParseCSV parses table bytes into Records using schema for classification.
// Each row becomes a Record with dimensions (string) and measures (numeric).
// Every schema column must be present in the header.
func ParseCSV(data []byte, sch schema.Config, opts ...ParseOptions) ([]engine.Record, error) {
	reader := newReader(data, opts)

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read headers: %w", err)
	}

	type colMapping struct {
		schemaKey   string
		isDimension bool
		isMeasure   bool
	}

	dimSet := make(map[string]bool)
	for _, d := range sch.Dimensions {
		dimSet[d.Key] = true
	}
	measSet := make(map[string]bool)
	for _, m := range sch.Measures {
		measSet[m.Key] = true
	}

	found := make(map[string]bool)
	mappings := make([]colMapping, len(headers))
	for i, h := range headers {
		key := schema.ToKey(strings.TrimPrefix(h, "\ufeff"))
		switch {
		case dimSet[key]:
			mappings[i] = colMapping{schemaKey: key, isDimension: true}
		case measSet[key]:
			mappings[i] = colMapping{schemaKey: key, isMeasure: true}
		}
		// Unmapped columns are silently skipped
		found[key] = true
	}

	for _, key := range append(sch.DimensionKeys(), sch.MeasureKeys()...) {
		if !found[key] {
			return nil, fmt.Errorf("%s: %w %q", sch.Name, ErrMissingColumn, key)
		}
	}

	var records []engine.Record
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue // skip malformed rows
		}
		if isBlank(row) {
			continue
		}

		rec := engine.Record{
			Dimensions: make(map[string]string),
			Measures:   make(map[string]float64),
		}

		for i, val := range row {
			if i >= len(mappings) {
				break
			}
			m := mappings[i]
			val = strings.TrimSpace(val)

			if m.isDimension {
				rec.Dimensions[m.schemaKey] = val
			} else if m.isMeasure {
				if f, err := ParseNumber(val); err == nil {
					rec.Measures[m.schemaKey] = f
				}
			}
		}

		records = append(records, rec)
	}

	return records, nil
}

// ParseCSVView parses a table into a RecordView keyed in schema order.
func ParseCSVView(data []byte, sch schema.Config, opts ...ParseOptions) (engine.RecordView, error) {
	records, err := ParseCSV(data, sch, opts...)
	if err != nil {
		return nil, err
	}
	return engine.NewSliceViewWithKeys(records, sch.DimensionKeys(), sch.MeasureKeys()), nil
}

// ParseNumber parses survey and grant figures: "5%", "$1,250,000", "1,204".
func ParseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimSuffix(s, "%")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, fmt.Errorf("empty number")
	}
	return strconv.ParseFloat(s, 64)
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
