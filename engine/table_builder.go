package engine

import (
	"fmt"
	"sort"
)

// ============================================================================
// TABLE BUILDER — Produces TableData from QuerySpec + Groups
// ============================================================================

// BuildTable produces a TableData from a QuerySpec, groups, filtered view, and display unit.
func BuildTable(spec QuerySpec, groups []Group, view RecordView, measure string, unit string) *TableData {
	if spec.Aggregation == "list" {
		return buildListTable(spec, view, measure, unit)
	}
	return buildAggregatedTable(spec, groups, unit)
}

// ============================================================================
// LIST TABLE — Row per record
// ============================================================================
// Used for the grant list: every dimension of the view, then the measure.
// SortBy value_desc/value_asc orders rows by the measure and Limit keeps the
// first rows; the summary always covers every record in the view.
// ============================================================================

func buildListTable(spec QuerySpec, view RecordView, measure string, unit string) *TableData {
	dimKeys := view.DimensionKeys()
	columns := make([]Column, 0, len(dimKeys)+1)
	for _, key := range dimKeys {
		columns = append(columns, Column{Key: key, Label: LabelForDimension(key), Type: "text", Align: "left"})
	}
	columns = append(columns, Column{Key: measure, Label: LabelForDimension(measure), Type: "number", Align: "right"})

	order := listOrder(view, measure, spec.SortBy)
	var total float64
	for _, i := range order {
		total += view.Measure(i, measure)
	}
	if spec.Limit > 0 && len(order) > spec.Limit {
		order = order[:spec.Limit]
	}

	rows := make([][]string, 0, len(order))
	for _, i := range order {
		row := make([]string, 0, len(columns))
		for _, key := range dimKeys {
			row = append(row, view.Dimension(i, key))
		}
		rows = append(rows, append(row, fmt.Sprintf("%.2f", view.Measure(i, measure))))
	}

	return &TableData{
		Title:   spec.Title,
		Columns: columns,
		Rows:    rows,
		Summary: &Summary{
			Label:  fmt.Sprintf("Total (%d records)", view.Len()),
			Values: map[string]string{measure: FormatCurrency(total, unit)},
		},
	}
}

// listOrder returns record indices in the requested order.
func listOrder(view RecordView, measure, sortBy string) []int {
	order := make([]int, view.Len())
	for i := range order {
		order[i] = i
	}
	switch sortBy {
	case "value_desc":
		sort.SliceStable(order, func(a, b int) bool { return view.Measure(order[a], measure) > view.Measure(order[b], measure) })
	case "value_asc":
		sort.SliceStable(order, func(a, b int) bool { return view.Measure(order[a], measure) < view.Measure(order[b], measure) })
	}
	return order
}

// ============================================================================
// AGGREGATED TABLE — Summary rows
// ============================================================================

func buildAggregatedTable(spec QuerySpec, groups []Group, unit string) *TableData {
	if len(groups) == 0 {
		return &TableData{Title: spec.Title, Columns: []Column{}, Rows: [][]string{}}
	}

	groupLabel := "Group"
	if len(spec.GroupBy) > 0 {
		groupLabel = LabelForDimension(spec.GroupBy[0])
	}
	columns := []Column{
		{Key: "group", Label: groupLabel, Type: "text", Align: "left"},
		{Key: "value", Label: LabelForAggregation(spec.Aggregation), Type: "number", Align: "right"},
		{Key: "count", Label: "Count", Type: "number", Align: "center"},
	}

	rows := make([][]string, 0, len(groups))
	var totalValue float64
	var totalCount int
	for _, g := range groups {
		rows = append(rows, []string{g.Label, fmt.Sprintf("%.2f", g.Value), fmt.Sprintf("%d", g.Count)})
		totalValue += g.Value
		totalCount += g.Count
	}

	return &TableData{
		Title:   spec.Title,
		Columns: columns,
		Rows:    rows,
		Summary: &Summary{
			Label: "Total",
			Values: map[string]string{
				"value": FormatCurrency(totalValue, unit),
				"count": fmt.Sprintf("%d", totalCount),
			},
		},
	}
}
