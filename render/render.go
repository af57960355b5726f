// Package render draws engine charts as PNG or SVG images.
package render

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/spektr-org/eadash/engine"
)

// ============================================================================
// RENDER — ChartConfig → image
// ============================================================================
// Pie and bar configs are handed to go-chart. Layout beyond size and colour
// is left to the library.
// ============================================================================

// Format is an image encoding.
type Format string

const (
	PNG Format = "png"
	SVG Format = "svg"
)

var (
	// ErrUnknownFormat is returned for an image format other than png or svg.
	ErrUnknownFormat = errors.New("unknown image format")
	// ErrEmptyChart is returned for a chart with nothing to draw.
	ErrEmptyChart = errors.New("chart has no data")
	// ErrUnsupportedChart is returned for chart types without a renderer.
	ErrUnsupportedChart = errors.New("unsupported chart type")
)

// ParseFormat accepts "png", "svg" and their dotted forms.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimPrefix(s, "."))) {
	case PNG:
		return PNG, nil
	case SVG:
		return SVG, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	if f == SVG {
		return "image/svg+xml"
	}
	return "image/png"
}

func (f Format) provider() (chart.RendererProvider, error) {
	switch f {
	case PNG:
		return chart.PNG, nil
	case SVG:
		return chart.SVG, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
	}
}

// Options sets the canvas size. Zero values use the defaults.
type Options struct {
	Width  int
	Height int
}

const (
	DefaultWidth  = 640
	DefaultHeight = 480

	barSpacing = 4
	barPadding = 80
)

// Chart writes cfg to w in the given format.
func Chart(w io.Writer, cfg *engine.ChartConfig, format Format, opts Options) error {
	rp, err := format.provider()
	if err != nil {
		return err
	}
	points := cfg.Points()
	if len(points) == 0 {
		return ErrEmptyChart
	}
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = DefaultHeight
	}

	switch cfg.ChartType {
	case "pie":
		return pie(w, rp, cfg, points, opts)
	case "bar":
		return bar(w, rp, cfg, opts)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedChart, cfg.ChartType)
	}
}

func pie(w io.Writer, rp chart.RendererProvider, cfg *engine.ChartConfig, points []engine.ChartPoint, opts Options) error {
	var total float64
	values := make([]chart.Value, 0, len(points))
	for i, p := range points {
		total += p.Value
		label := p.Label
		if p.Text != "" {
			label = p.Label + " " + p.Text
		}
		values = append(values, chart.Value{
			Value: p.Value,
			Label: label,
			Style: chart.Style{FillColor: color(cfg.Colors, i), StrokeColor: drawing.ColorWhite},
		})
	}
	if total <= 0 {
		return ErrEmptyChart
	}

	pc := chart.PieChart{
		Title:  cfg.Title,
		Width:  opts.Width,
		Height: opts.Height,
		Values: values,
	}
	if err := pc.Render(rp, w); err != nil {
		return fmt.Errorf("render pie %q: %w", cfg.Title, err)
	}
	return nil
}

func bar(w io.Writer, rp chart.RendererProvider, cfg *engine.ChartConfig, opts Options) error {
	bars := barValues(cfg)
	if len(bars) == 0 {
		return ErrEmptyChart
	}
	peak := 0.0
	for _, b := range bars {
		peak = math.Max(peak, b.Value)
	}
	if peak <= 0 {
		peak = 1
	}

	bc := chart.BarChart{
		Title:      cfg.Title,
		Width:      opts.Width,
		Height:     opts.Height,
		Bars:       bars,
		BarSpacing: barSpacing,
		XAxis:      chart.Style{FontSize: 8},
		YAxis:      chart.YAxis{Name: cfg.YAxis, Range: &chart.ContinuousRange{Min: 0, Max: peak}},
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
	}
	// Height is the pixel budget of the bar stack; go-chart draws bars
	// vertically, so it becomes the chart width.
	if cfg.Height > 0 {
		if per := cfg.Height / len(bars); per > barSpacing {
			bc.BarWidth = per - barSpacing
		}
		if width := cfg.Height + barPadding; width > bc.Width {
			bc.Width = width
		}
	}

	if err := bc.Render(rp, w); err != nil {
		return fmt.Errorf("render bar %q: %w", cfg.Title, err)
	}
	return nil
}

// barValues lays the series out as bars. A single series gives one bar per
// label. Several series give a group per label with one bar per series that
// has a positive value, coloured by series and labelled "label / series".
func barValues(cfg *engine.ChartConfig) []chart.Value {
	if len(cfg.Series) == 1 {
		fill := color(cfg.Colors, 0)
		bars := make([]chart.Value, 0, len(cfg.Series[0].Data))
		for _, p := range cfg.Series[0].Data {
			label := p.Label
			if p.Text != "" {
				label = p.Label + " (" + p.Text + ")"
			}
			bars = append(bars, chart.Value{
				Value: p.Value,
				Label: label,
				Style: chart.Style{FillColor: fill, StrokeColor: fill},
			})
		}
		return bars
	}

	var bars []chart.Value
	for i, p := range cfg.Points() {
		for si, series := range cfg.Series {
			if i >= len(series.Data) || series.Data[i].Value <= 0 {
				continue
			}
			fill := color(cfg.Colors, si)
			if series.Color != "" {
				fill = color([]string{series.Color}, 0)
			}
			bars = append(bars, chart.Value{
				Value: series.Data[i].Value,
				Label: p.Label + " / " + series.Name,
				Style: chart.Style{FillColor: fill, StrokeColor: fill},
			})
		}
	}
	return bars
}

func color(palette []string, i int) drawing.Color {
	if len(palette) == 0 {
		return chart.ColorBlue
	}
	return drawing.ColorFromHex(strings.TrimPrefix(palette[i%len(palette)], "#"))
}
