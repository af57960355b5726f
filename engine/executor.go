package engine

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ============================================================================
// EXECUTOR — Dispatcher
// ============================================================================
// Entry point: Execute(spec, view, opts...)
//
// Pipeline:
//   1. Apply include filters, then exclusions → SubView
//   2. Group and aggregate
//   3. Dispatch to builder (chart / table)
// ============================================================================

// ErrUnknownIntent is returned when QuerySpec.Intent names no builder.
var ErrUnknownIntent = errors.New("unknown intent")

// DefaultMeasure is aggregated when QuerySpec.Measure is empty.
const DefaultMeasure = "amount"

// Execute runs a QuerySpec against a RecordView and returns a render-ready Result.
//
// Options:
//   - WithUnit(unit) — display unit for table summaries
//   - WithChartID(id) — identifier copied onto the ChartConfig
//   - WithLogger(logger) — debug logging
func Execute(spec QuerySpec, view RecordView, opts ...Option) (*Result, error) {
	cfg := applyOptions(opts)
	spec = NormalizeQuerySpec(spec)

	measure := spec.Measure
	if measure == "" {
		measure = DefaultMeasure
	}

	if view.Len() == 0 {
		return &Result{
			ID:      cfg.ChartID,
			Type:    "empty",
			Title:   spec.Title,
			Summary: "No data available.",
		}, nil
	}

	// 1. Filters → SubView (zero-copy)
	filtered := ApplyFilters(view, spec.Filters)
	filtered = ExcludeValues(filtered, spec.Exclude)

	cfg.Logger.Debug("executing query",
		zap.String("title", spec.Title),
		zap.String("intent", spec.Intent),
		zap.String("measure", measure),
		zap.Strings("groupBy", spec.GroupBy),
		zap.Int("records", view.Len()),
		zap.Int("filtered", filtered.Len()),
	)

	if filtered.Len() == 0 {
		return &Result{
			ID:      cfg.ChartID,
			Type:    "empty",
			Title:   spec.Title,
			Summary: "No records match the section filters.",
		}, nil
	}

	// 2. Group and aggregate
	groups := GroupAndAggregate(filtered, spec.GroupBy, measure, spec.Aggregation, spec.SortBy, spec.Limit)

	// 3. Dispatch to builder
	result := &Result{
		ID:          cfg.ChartID,
		Title:       spec.Title,
		DisplayUnit: cfg.Unit,
		Records:     filtered.Len(),
	}

	switch spec.Intent {
	case "chart":
		result.Type = "chart"
		result.ChartConfig = BuildChart(spec, groups)
		if result.ChartConfig == nil {
			result.Type = "empty"
			result.Summary = "Not enough data to generate a chart."
			return result, nil
		}
		result.ChartConfig.ID = cfg.ChartID

	case "table":
		result.Type = "table"
		result.TableData = BuildTable(spec, groups, filtered, measure, cfg.Unit)

	default:
		return nil, fmt.Errorf("execute %q: %w: %q", spec.Title, ErrUnknownIntent, spec.Intent)
	}

	result.Summary = fmt.Sprintf("%d records in %d groups.", filtered.Len(), len(groups))
	return result, nil
}

// ============================================================================
// QUERYSPEC NORMALIZATION
// ============================================================================

// NormalizeQuerySpec applies deterministic rules to keep specs consistent.
func NormalizeQuerySpec(spec QuerySpec) QuerySpec {
	// Rule 1: "list" aggregation must be a table
	if spec.Aggregation == "list" {
		spec.Intent = "table"
		spec.Visualize = "table"
	}

	// Rule 2: Charts must have a groupBy dimension
	if spec.Intent == "chart" && len(spec.GroupBy) == 0 {
		spec.Intent = "table"
		spec.Visualize = "table"
	}

	// Rule 3: pies cannot show nested groups
	if spec.Visualize == "pie" && len(spec.GroupBy) > 1 {
		spec.GroupBy = spec.GroupBy[:1]
	}

	if spec.Aggregation == "" {
		spec.Aggregation = "sum"
	}

	return spec
}
