// Package survey turns the community survey exports into dashboard sections:
// one pie chart per demographic table, and the per-country map and bar charts.
package survey

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"

	"go.uber.org/zap"

	"github.com/spektr-org/eadash/engine"
	"github.com/spektr-org/eadash/helpers"
	"github.com/spektr-org/eadash/schema"
)

// DefaultTables lists the demographic tables shown on the dashboard.
var DefaultTables = []string{"age_group", "diet", "gender", "employment", "ethnicity", "subject"}

// ErrNoTitle is returned for a demographic table without a first header cell.
var ErrNoTitle = errors.New("table has no title column")

// ErrNoPercent is returned for a demographic table without a Percent column.
var ErrNoPercent = errors.New("table has no Percent column")

const percentKey = "percent"

// totalRows are summary rows dropped from every demographic table.
var totalRows = []string{"Total", "Total respondents"}

// Demographic is one rendered demographic table.
type Demographic struct {
	Table  string         `json:"table"`
	Title  string         `json:"title"`
	Result *engine.Result `json:"result"`
}

// ParseDemographic builds the pie chart of a tab-separated table. The first
// column names the category and titles the chart; Percent holds the slice
// size ("5%"). Other columns are discovered from their values and ignored.
func ParseDemographic(table string, data []byte, logger *zap.Logger) (*Demographic, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	headers, err := helpers.ReadHeader(data, helpers.TSV)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", table, err)
	}
	if len(headers) == 0 || headers[0] == "" {
		return nil, fmt.Errorf("%s: %w", table, ErrNoTitle)
	}
	title := headers[0]

	discovered, err := schema.DiscoverFromCSV(data, schema.DiscoverOptions{
		Name:       table,
		Delimiter:  helpers.TSV.Delimiter,
		Dimensions: []string{title},
	})
	if err != nil {
		return nil, err
	}
	if !slices.Contains(discovered.MeasureKeys(), percentKey) {
		return nil, fmt.Errorf("%s: %w", table, ErrNoPercent)
	}
	for _, col := range discovered.Skipped {
		logger.Debug("demographic column ignored",
			zap.String("table", table), zap.String("column", col.Header), zap.String("reason", col.Reason))
	}
	sch := discovered.Config
	if err := sch.Validate(); err != nil {
		return nil, err
	}
	view, err := helpers.ParseCSVView(data, sch, helpers.TSV)
	if err != nil {
		return nil, err
	}

	category := schema.ToKey(title)
	spec := engine.QuerySpec{
		Intent:     "chart",
		Visualize:  "pie",
		GroupBy:    []string{category},
		Measure:    percentKey,
		Exclude:    engine.Filters{Dimensions: map[string][]string{category: totalRows}},
		Title:      title,
		TextFormat: "percent",
	}
	result, err := engine.Execute(spec, view,
		engine.WithChartID("demographics-"+table),
		engine.WithUnit("%"),
		engine.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}
	return &Demographic{Table: table, Title: title, Result: result}, nil
}

// LoadDemographics reads "<dir>/<table>.csv" for every table. Missing tables
// are skipped with a warning.
func LoadDemographics(fsys fs.FS, dir string, tables []string, logger *zap.Logger) ([]*Demographic, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var out []*Demographic
	for _, table := range tables {
		name := path.Join(dir, table+".csv")
		data, err := fs.ReadFile(fsys, name)
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warn("demographic table missing", zap.String("file", name))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		demo, err := ParseDemographic(table, data, logger)
		if err != nil {
			return nil, err
		}
		logger.Debug("demographic table loaded", zap.String("table", table), zap.Int("records", demo.Result.Records))
		out = append(out, demo)
	}
	return out, nil
}
