package schema

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// ============================================================================
// AUTO-DISCOVERY — Heuristic column classification
// ============================================================================
// Survey exports change shape between survey rounds: extra count columns,
// renamed headers, a different category column. Discovery inspects the
// values and builds a Config instead of hard-coding one per file.
//
// Classification per column:
//   1. Sample values → detect type (numeric, string)
//   2. Type → role (dimension, measure, skip)
//   3. Value suffix/prefix → measure unit (percent, currency, count)
// ============================================================================

// ErrNoRows is returned for a table with a header but no data.
var ErrNoRows = errors.New("table has no data rows")

// DiscoverOptions controls discovery behavior.
type DiscoverOptions struct {
	Name       string   // schema name
	Delimiter  rune     // 0 = ','
	SampleSize int      // max rows to inspect (0 = all)
	Dimensions []string // headers always classified as dimensions
}

// SkippedColumn records a column discovery left out of the schema.
type SkippedColumn struct {
	Header string `json:"header"`
	Reason string `json:"reason"`
}

// Discovered is a discovered schema plus the columns it left out.
type Discovered struct {
	Config
	Skipped []SkippedColumn `json:"skipped,omitempty"`
}

type columnRole int

const (
	roleDimension columnRole = iota
	roleMeasure
	roleSkipped
)

type columnAnalysis struct {
	header     string
	role       columnRole
	unit       string
	skipReason string
}

// DiscoverFromCSV generates a Config by inspecting delimited table data.
func DiscoverFromCSV(data []byte, opt DiscoverOptions) (*Discovered, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	if opt.Delimiter != 0 {
		reader.Comma = opt.Delimiter
	}

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read headers: %w", err)
	}
	for i := range headers {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(headers[i], "\ufeff"))
	}

	var rows [][]string
	for opt.SampleSize <= 0 || len(rows) < opt.SampleSize {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue // skip malformed rows
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: %w", opt.Name, ErrNoRows)
	}

	forced := make(map[string]bool, len(opt.Dimensions))
	for _, h := range opt.Dimensions {
		forced[strings.ToLower(h)] = true
	}

	out := &Discovered{Config: Config{Name: opt.Name}}
	for i, header := range headers {
		if header == "" {
			out.Skipped = append(out.Skipped, SkippedColumn{Header: header, Reason: "empty header"})
			continue
		}
		col := analyzeColumn(header, i, rows)
		if forced[strings.ToLower(header)] {
			col.role = roleDimension
		}

		switch col.role {
		case roleDimension:
			out.Dimensions = append(out.Dimensions, DefaultDimension(header))
		case roleMeasure:
			out.Measures = append(out.Measures, DefaultMeasure(header, col.unit))
		case roleSkipped:
			out.Skipped = append(out.Skipped, SkippedColumn{Header: header, Reason: col.skipReason})
		}
	}
	return out, nil
}

// analyzeColumn inspects all values in a column and classifies it.
func analyzeColumn(header string, index int, rows [][]string) columnAnalysis {
	col := columnAnalysis{header: header}

	values := make([]string, 0, len(rows))
	for _, row := range rows {
		if index >= len(row) {
			continue
		}
		val := strings.TrimSpace(row[index])
		if val == "" || val == "N/A" || val == "n/a" || val == "-" {
			continue
		}
		values = append(values, val)
	}
	if len(values) == 0 {
		col.role = roleSkipped
		col.skipReason = "all values are empty"
		return col
	}

	if !mostlyNumeric(values) {
		col.role = roleDimension
		return col
	}
	col.role = roleMeasure
	col.unit = detectUnit(values)
	return col
}

// mostlyNumeric requires 80%+ of non-empty values to parse as numbers.
func mostlyNumeric(values []string) bool {
	n := 0
	for _, v := range values {
		if isNumeric(v) {
			n++
		}
	}
	return n >= int(float64(len(values))*0.8) && n > 0
}

func isNumeric(s string) bool {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "") // handle "1,234.56"
	s = strings.TrimSuffix(s, "%")
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimPrefix(s, "£")
	s = strings.TrimPrefix(s, "-")
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// detectUnit picks the most common value decoration.
func detectUnit(values []string) string {
	counts := map[string]int{}
	for _, v := range values {
		switch {
		case strings.HasSuffix(v, "%"):
			counts["percent"]++
		case strings.HasPrefix(v, "$"), strings.HasPrefix(v, "£"):
			counts["currency"]++
		default:
			counts["count"]++
		}
	}
	units := make([]string, 0, len(counts))
	for u := range counts {
		units = append(units, u)
	}
	sort.Slice(units, func(i, j int) bool {
		if counts[units[i]] != counts[units[j]] {
			return counts[units[i]] > counts[units[j]]
		}
		return units[i] < units[j]
	})
	return units[0]
}
