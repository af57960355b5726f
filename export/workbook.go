package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/spektr-org/eadash/funding"
	"github.com/spektr-org/eadash/survey"
)

// Sheet names of the exported workbook.
const (
	SheetFlows     = "Flows"
	SheetTotals    = "Totals"
	SheetCountries = "Countries"
)

// Tables is the data written to a workbook.
type Tables struct {
	Flows     []funding.Flow
	Totals    funding.Totals
	Countries []survey.Country
}

// Workbook writes tables to w as an XLSX file with one sheet per table.
func Workbook(w io.Writer, t Tables) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetFlows); err != nil {
		return err
	}
	flowRows := make([][]any, 0, len(t.Flows))
	for _, fl := range t.Flows {
		flowRows = append(flowRows, []any{fl.From, fl.To, fl.Amount.InexactFloat64(), fl.Source})
	}
	if err := writeSheet(f, SheetFlows, []string{"From", "To", "Amount", "Source"}, flowRows); err != nil {
		return err
	}

	totalRows := make([][]any, 0, len(t.Totals.BySource)+1)
	for _, s := range t.Totals.BySource {
		totalRows = append(totalRows, []any{s.Source, s.Grants, s.Amount.InexactFloat64()})
	}
	totalRows = append(totalRows, []any{"Total", t.Totals.Grants, t.Totals.Total.InexactFloat64()})
	if err := writeSheet(f, SheetTotals, []string{"Source", "Grants", "Amount"}, totalRows); err != nil {
		return err
	}

	countryRows := make([][]any, 0, len(t.Countries))
	for _, c := range t.Countries {
		countryRows = append(countryRows, []any{c.Name, c.Responses, c.Population, c.Density})
	}
	if err := writeSheet(f, SheetCountries, []string{"Country", "Responses", "Population", "Density (per million)"}, countryRows); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, header []string, rows [][]any) error {
	if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("add sheet %s: %w", sheet, err)
		}
	}
	for i, h := range header {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, 24); err != nil {
			return err
		}
	}
	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}
	return nil
}
