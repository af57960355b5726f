package render

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/eadash/engine"
)

func pieConfig() *engine.ChartConfig {
	return &engine.ChartConfig{
		ChartType: "pie",
		Title:     "Gender",
		Colors:    []string{"#007A8F", "#DFE3EE", "#36859A"},
		Series: []engine.ChartSeries{{Name: "Gender", Data: []engine.ChartPoint{
			{Label: "Male", Value: 71.1, Text: "71.1%"},
			{Label: "Female", Value: 26.6, Text: "26.6%"},
			{Label: "Other", Value: 2.3, Text: "2.3%"},
		}}},
	}
}

func barConfig() *engine.ChartConfig {
	return &engine.ChartConfig{
		ChartType: "bar",
		Title:     "Number of EAs",
		Colors:    []string{"#007A8F"},
		Height:    3 * 23,
		Series: []engine.ChartSeries{{Name: "Number of EAs", Data: []engine.ChartPoint{
			{Label: "Germany", Value: 157, Text: "157"},
			{Label: "United Kingdom", Value: 431, Text: "431"},
			{Label: "United States", Value: 1204, Text: "1,204"},
		}}},
	}
}

func causeSourceConfig() *engine.ChartConfig {
	return &engine.ChartConfig{
		ChartType: "bar",
		Title:     "Funding by Cause Area",
		Colors:    []string{"#007A8F", "#E8A33D"},
		Series: []engine.ChartSeries{
			{Name: "Open Philanthropy", Data: []engine.ChartPoint{
				{Label: "Global Poverty", Value: 45_000_000},
				{Label: "Animal Welfare", Value: 8_000_000},
			}},
			{Name: "GWWC", Data: []engine.ChartPoint{
				{Label: "Global Poverty", Value: 12_000_000},
				{Label: "Animal Welfare", Value: 0},
			}},
		},
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(".PNG")
	require.NoError(t, err)
	assert.Equal(t, PNG, f)
	assert.Equal(t, "image/png", f.ContentType())

	f, err = ParseFormat("svg")
	require.NoError(t, err)
	assert.Equal(t, "image/svg+xml", f.ContentType())

	_, err = ParseFormat("gif")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestChartPNG(t *testing.T) {
	for _, cfg := range []*engine.ChartConfig{pieConfig(), barConfig()} {
		t.Run(cfg.ChartType, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Chart(&buf, cfg, PNG, Options{}))
			assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")))
		})
	}
}

func TestChartSVG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Chart(&buf, barConfig(), SVG, Options{Width: 400, Height: 300}))
	assert.Contains(t, buf.String(), "<svg")
}

func TestChartErrors(t *testing.T) {
	var buf bytes.Buffer

	err := Chart(&buf, &engine.ChartConfig{ChartType: "pie"}, PNG, Options{})
	assert.ErrorIs(t, err, ErrEmptyChart)

	zero := pieConfig()
	for i := range zero.Series[0].Data {
		zero.Series[0].Data[i].Value = 0
	}
	assert.ErrorIs(t, Chart(&buf, zero, PNG, Options{}), ErrEmptyChart)

	line := barConfig()
	line.ChartType = "line"
	assert.ErrorIs(t, Chart(&buf, line, PNG, Options{}), ErrUnsupportedChart)

	assert.ErrorIs(t, Chart(&buf, barConfig(), Format("gif"), Options{}), ErrUnknownFormat)
}

func TestBarValuesGroupsSeries(t *testing.T) {
	bars := barValues(causeSourceConfig())
	require.Len(t, bars, 3, "zero values are left out")

	labels := make([]string, len(bars))
	for i, b := range bars {
		labels[i] = b.Label
	}
	assert.Equal(t, []string{
		"Global Poverty / Open Philanthropy",
		"Global Poverty / GWWC",
		"Animal Welfare / Open Philanthropy",
	}, labels)
	assert.Equal(t, 12_000_000.0, bars[1].Value)
	assert.NotEqual(t, bars[0].Style.FillColor, bars[1].Style.FillColor)

	assert.Len(t, barValues(barConfig()), 3)
	assert.Equal(t, "United States (1,204)", barValues(barConfig())[2].Label)
}

func TestChartDrawsEverySeries(t *testing.T) {
	both := causeSourceConfig()
	first := causeSourceConfig()
	first.Series = first.Series[:1]

	var all, one bytes.Buffer
	require.NoError(t, Chart(&all, both, SVG, Options{Width: 600, Height: 400}))
	require.NoError(t, Chart(&one, first, SVG, Options{Width: 600, Height: 400}))

	assert.NotEqual(t, one.String(), all.String())
	assert.Contains(t, all.String(), "GWWC")
	assert.NotContains(t, one.String(), "GWWC")
}

func TestChartSingleBar(t *testing.T) {
	cfg := barConfig()
	cfg.Series[0].Data = cfg.Series[0].Data[:1]

	var buf bytes.Buffer
	require.NoError(t, Chart(&buf, cfg, SVG, Options{}))
}
