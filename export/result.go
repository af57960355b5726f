package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spektr-org/eadash/engine"
)

// ============================================================================
// RESULT OUTPUT — engine.Result → spreadsheet-ready rows
// ============================================================================

// WriteResult encodes a section result in the given format.
func WriteResult(w io.Writer, result *engine.Result, format Format) error {
	switch format {
	case JSON, Pretty:
		return WriteJSON(w, result, format)
	case CSV:
		cw := csv.NewWriter(w)
		if err := cw.WriteAll(ResultRows(result)); err != nil {
			return err
		}
		return cw.Error()
	case Text:
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, row := range ResultRows(result) {
			fmt.Fprintln(tw, strings.Join(row, "\t"))
		}
		return tw.Flush()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, string(format))
	}
}

// ResultRows flattens a result into a header row plus data rows. Charts
// come first, then tables, then the summary line.
func ResultRows(result *engine.Result) [][]string {
	if result == nil {
		return [][]string{{"Result", "No data"}}
	}
	if rows := chartRows(result.ChartConfig); rows != nil {
		return rows
	}
	if rows := tableRows(result.TableData); rows != nil {
		return rows
	}
	return [][]string{{"Summary", "Unit"}, {result.Summary, result.DisplayUnit}}
}

func chartRows(chart *engine.ChartConfig) [][]string {
	if chart == nil || len(chart.Series) == 0 {
		return nil
	}
	xLabel, yLabel := chart.XAxis, chart.YAxis
	if xLabel == "" {
		xLabel = "Label"
	}
	if yLabel == "" {
		yLabel = "Value"
	}

	// Single series → two columns
	if len(chart.Series) == 1 {
		rows := [][]string{{xLabel, yLabel}}
		for _, d := range chart.Series[0].Data {
			rows = append(rows, []string{d.Label, fmtNum(d.Value)})
		}
		return rows
	}

	// Multi-series → label + one column per series
	header := []string{xLabel}
	for _, s := range chart.Series {
		header = append(header, s.Name)
	}
	rows := [][]string{header}
	for i, d := range chart.Series[0].Data {
		row := []string{d.Label}
		for _, s := range chart.Series {
			if i < len(s.Data) {
				row = append(row, fmtNum(s.Data[i].Value))
			} else {
				row = append(row, "")
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func tableRows(table *engine.TableData) [][]string {
	if table == nil || len(table.Columns) == 0 {
		return nil
	}
	header := make([]string, len(table.Columns))
	for i, c := range table.Columns {
		header[i] = c.Label
	}
	return append([][]string{header}, table.Rows...)
}

// fmtNum prints whole numbers without decimals, others with two.
func fmtNum(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}
