package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spektr-org/eadash/config"
	"github.com/spektr-org/eadash/dashboard"
	"github.com/spektr-org/eadash/export"
	"github.com/spektr-org/eadash/funding"
	"github.com/spektr-org/eadash/render"
)

var (
	flowsFormat  string
	flowsOut     string
	threshold    config.Amount
	strictFunds  bool
	buildOut     string
	svgCharts    bool
	renderWidth  int
	renderHeight int
	exportOut    string
	chartsFormat string
)

// flowsCmd prints the funding flow list
var flowsCmd = &cobra.Command{
	Use:   "flows",
	Short: "Compute the funding flow list",
	Long: `Loads every funding source, groups grants by source and cause area and
prints one edge per source → cause area and cause area → organization.
Organizations below the threshold are folded into the Others bucket.

Example:
  eadash flows --format csv --out flows.csv --threshold 10,000,000`,
	RunE: runFlows,
}

// buildCmd writes dashboard.json and chart images
var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the dashboard payload and chart images",
	RunE:  runBuild,
}

// exportCmd writes the dashboard tables to a workbook
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export flows, totals and countries to an XLSX workbook",
	RunE:  runExport,
}

// chartsCmd lists charts or prints one chart's data
var chartsCmd = &cobra.Command{
	Use:   "charts [id]",
	Short: "List dashboard charts and tables, or print the data behind one",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCharts,
}

func init() {
	flowsCmd.Flags().StringVarP(&flowsFormat, "format", "f", "json", "Output format: json, pretty, csv, text")
	flowsCmd.Flags().StringVarP(&flowsOut, "out", "o", "", "Write output to file instead of stdout")
	flowsCmd.Flags().Var(&threshold, "threshold", "Smallest organization total drawn as its own node (default 30,000,000)")
	flowsCmd.Flags().BoolVar(&strictFunds, "strict", false, "Fail on unrecognised EA Funds lines")

	buildCmd.Flags().StringVarP(&buildOut, "out", "o", "dist", "Output directory")
	buildCmd.Flags().BoolVar(&svgCharts, "svg", false, "Render charts as SVG instead of PNG")
	buildCmd.Flags().IntVar(&renderWidth, "width", render.DefaultWidth, "Chart image width")
	buildCmd.Flags().IntVar(&renderHeight, "height", render.DefaultHeight, "Chart image height")

	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "eadash.xlsx", "Workbook path")

	chartsCmd.Flags().StringVarP(&chartsFormat, "format", "f", "text", "Output format: json, pretty, csv, text")
}

func runFlows(cmd *cobra.Command, args []string) error {
	format, err := export.ParseFormat(flowsFormat)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("threshold") {
		cfg.Funding.Threshold = threshold
	}
	if cmd.Flags().Changed("strict") {
		cfg.Funding.Strict = strictFunds
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	opts := cfg.FundingOptions()
	opts.Logger = logger
	grants, err := funding.Load(cmd.Context(), cfg.FS(), opts)
	if err != nil {
		return err
	}
	flows := funding.BuildFlows(grants, cfg.FlowOptions())
	logger.Info("flows computed",
		zap.Int("grants", len(grants)),
		zap.Int("flows", len(flows)),
		zap.Int("nodes", len(funding.Nodes(flows))),
	)

	w, closeOut, err := openOutput(cmd, flowsOut)
	if err != nil {
		return err
	}
	if err := export.WriteFlows(w, flows, format); err != nil {
		closeOut()
		return err
	}
	return closeOut()
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	d, err := dashboard.Build(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(buildOut, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := writeFile(filepath.Join(buildOut, "dashboard.json"), func(f *os.File) error {
		return export.WriteJSON(f, d, export.Pretty)
	}); err != nil {
		return err
	}

	format := render.PNG
	if svgCharts {
		format = render.SVG
	}
	opts := render.Options{Width: renderWidth, Height: renderHeight}
	written := 0
	for _, chart := range d.Charts() {
		name := filepath.Join(buildOut, chart.ID+"."+string(format))
		err := writeFile(name, func(f *os.File) error {
			return render.Chart(f, chart, format, opts)
		})
		if err != nil {
			logger.Warn("chart skipped", zap.String("chart", chart.ID), zap.Error(err))
			os.Remove(name)
			continue
		}
		written++
	}

	logger.Info("dashboard written",
		zap.String("dir", buildOut),
		zap.String("buildId", d.BuildID),
		zap.Int("charts", written),
	)
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	d, err := dashboard.Build(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}

	tables := export.Tables{
		Flows:  d.Funding.Graph.Flows,
		Totals: d.Funding.Totals,
	}
	if d.Countries != nil {
		tables.Countries = d.Countries.Countries
	}
	if err := writeFile(exportOut, func(f *os.File) error { return export.Workbook(f, tables) }); err != nil {
		return err
	}
	logger.Info("workbook written", zap.String("path", exportOut))
	return nil
}

func runCharts(cmd *cobra.Command, args []string) error {
	format, err := export.ParseFormat(chartsFormat)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	d, err := dashboard.Build(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(args) == 0 {
		for _, r := range d.Results() {
			kind := r.Type
			if r.ChartConfig != nil {
				kind = r.ChartConfig.ChartType
			}
			fmt.Fprintf(out, "%-24s %-5s %s\n", r.ID, kind, r.Title)
		}
		return nil
	}

	result, ok := d.Result(args[0])
	if !ok {
		return fmt.Errorf("no chart or table %q (run `eadash charts` for the list)", args[0])
	}
	return export.WriteResult(out, result, format)
}

// writeFile creates path and hands it to write.
func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
