package engine

// ============================================================================
// ENGINE TYPES — Dataset-Agnostic Aggregation
// ============================================================================
// Records are generic dimension/measure maps. Every dashboard section (survey
// tables, country counts, funding rows) is read through a RecordView and turned
// into render-ready ChartConfig / TableData.
// ============================================================================

// ============================================================================
// RECORD — Generic data row
// ============================================================================

// Record is a single data row with string dimensions and numeric measures.
//
// Survey row: Record{Dimensions["gender"]="Female", Measures["percent"]=26.6}
type Record struct {
	Dimensions map[string]string  `json:"dimensions"`
	Measures   map[string]float64 `json:"measures"`
}

// ============================================================================
// QUERYSPEC — What a dashboard section wants computed
// ============================================================================

// QuerySpec defines what the engine should compute.
type QuerySpec struct {
	Intent      string   `json:"intent"`      // "chart", "table"
	Filters     Filters  `json:"filters"`     // Which records to include
	Exclude     Filters  `json:"exclude"`     // Which records to drop (e.g. "Total" rows)
	Aggregation string   `json:"aggregation"` // "sum", "count", "list", "none"
	Measure     string   `json:"measure"`     // Which measure to aggregate (empty → use default)
	GroupBy     []string `json:"groupBy"`     // Dimension keys: ["country"], ["source", "cause_area"]
	SortBy      string   `json:"sortBy"`      // "value_desc", "value_asc", "label_asc", "label_desc"
	Limit       int      `json:"limit"`       // 0 = all
	Visualize   string   `json:"visualize"`   // "bar", "pie", "table"
	Title       string   `json:"title"`       // Chart/table title
	TextFormat  string   `json:"textFormat"`  // Point text: "" (none), "int", "1dp", "percent"
	BarHeight   int      `json:"barHeight"`   // Pixels per bar; chart height = BarHeight × bars
}

// Filters define which records to include (or exclude).
// Keys are dimension names. Values are matched case-insensitively.
// OR within a dimension, AND across dimensions. Empty = all.
type Filters struct {
	Dimensions map[string][]string `json:"dimensions"`
}

// IsEmpty returns true if no filters are set.
func (f Filters) IsEmpty() bool {
	if f.Dimensions == nil {
		return true
	}
	for _, vals := range f.Dimensions {
		if len(vals) > 0 {
			return false
		}
	}
	return true
}

// ============================================================================
// RESULT — Render-ready output
// ============================================================================

// Result is the engine's render-ready output.
type Result struct {
	ID      string `json:"id,omitempty"`
	Type    string `json:"type"` // "chart", "table", "empty"
	Title   string `json:"title"`
	Summary string `json:"summary"`

	// Exactly one of these is populated based on Type:
	ChartConfig *ChartConfig `json:"chartConfig,omitempty"`
	TableData   *TableData   `json:"tableData,omitempty"`

	DisplayUnit string `json:"displayUnit,omitempty"`
	Records     int    `json:"records"`
}

// ============================================================================
// GROUP — Intermediate computation result
// ============================================================================

// Group represents a grouped/aggregated result.
// Builders convert these into ChartConfig or TableData.
type Group struct {
	Key       string     `json:"key"`
	Label     string     `json:"label"`
	Value     float64    `json:"value"`
	Count     int        `json:"count"`
	SubGroups []Group    `json:"subGroups,omitempty"`
	View      RecordView `json:"-"` // Sub-view for records in this group (zero-copy)
}

// ============================================================================
// CHART TYPES
// ============================================================================

// ChartConfig defines how to render a chart.
type ChartConfig struct {
	ID         string        `json:"id,omitempty"`
	ChartType  string        `json:"chartType"`
	Title      string        `json:"title"`
	XAxis      string        `json:"xAxis,omitempty"`
	YAxis      string        `json:"yAxis,omitempty"`
	Series     []ChartSeries `json:"series"`
	Colors     []string      `json:"colors,omitempty"`
	ShowLegend bool          `json:"showLegend"`
	ShowGrid   bool          `json:"showGrid"`
	Height     int           `json:"height,omitempty"`
}

// ChartSeries represents a data series in a chart.
type ChartSeries struct {
	Name  string       `json:"name"`
	Data  []ChartPoint `json:"data"`
	Color string       `json:"color,omitempty"`
}

// ChartPoint represents a single data point.
type ChartPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Text  string  `json:"text,omitempty"`
}

// Points returns the points of the first series, or nil.
func (c *ChartConfig) Points() []ChartPoint {
	if c == nil || len(c.Series) == 0 {
		return nil
	}
	return c.Series[0].Data
}

// ============================================================================
// TABLE TYPES
// ============================================================================

// TableData defines how to render a table.
type TableData struct {
	Title   string     `json:"title"`
	Columns []Column   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Summary *Summary   `json:"summary,omitempty"`
}

// Column defines a table column.
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Type  string `json:"type"`  // "text", "number", "currency"
	Align string `json:"align"` // "left", "center", "right"
}

// Summary provides totals or aggregations for a table.
type Summary struct {
	Label  string            `json:"label"`
	Values map[string]string `json:"values"`
}
