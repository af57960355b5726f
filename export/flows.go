// Package export writes dashboard data to files: the funding flow list and
// chart data as JSON, CSV or a text table, and the whole dashboard as an XLSX
// workbook.
package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spektr-org/eadash/engine"
	"github.com/spektr-org/eadash/funding"
)

// ErrUnknownFormat is returned for an output format this package cannot write.
var ErrUnknownFormat = errors.New("unknown output format")

// Format is an output encoding.
type Format string

// Formats:
//
//	json      compact JSON
//	pretty    indented JSON
//	csv       spreadsheet-ready rows
//	text      aligned text table
const (
	JSON   Format = "json"
	Pretty Format = "pretty"
	CSV    Format = "csv"
	Text   Format = "text"
)

// ParseFormat validates a --format value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case JSON, Pretty, CSV, Text:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q (want json, pretty, csv or text)", ErrUnknownFormat, s)
	}
}

// WriteJSON encodes v compactly, or indented for Pretty.
func WriteJSON(w io.Writer, v any, format Format) error {
	enc := json.NewEncoder(w)
	if format == Pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

var flowHeader = []string{"From", "To", "Amount", "Source"}

// WriteFlows encodes flows to w.
func WriteFlows(w io.Writer, flows []funding.Flow, format Format) error {
	switch format {
	case JSON, Pretty:
		if flows == nil {
			flows = []funding.Flow{}
		}
		return WriteJSON(w, flows, format)
	case CSV:
		return writeFlowsCSV(w, flows)
	case Text:
		return writeFlowsTable(w, flows)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, string(format))
	}
}

func writeFlowsCSV(w io.Writer, flows []funding.Flow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(flowHeader); err != nil {
		return err
	}
	for _, f := range flows {
		if err := cw.Write([]string{f.From, f.To, f.Amount.String(), f.Source}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeFlowsTable(w io.Writer, flows []funding.Flow) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "FROM\tTO\tAMOUNT\tSOURCE\t")
	for _, f := range flows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n", f.From, f.To, engine.FormatCurrency(f.Amount.InexactFloat64(), "USD"), f.Source)
	}
	return tw.Flush()
}
