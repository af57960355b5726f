// Package dashboard assembles every section of the dashboard into one
// snapshot and serves it over HTTP.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spektr-org/eadash/config"
	"github.com/spektr-org/eadash/engine"
	"github.com/spektr-org/eadash/funding"
	"github.com/spektr-org/eadash/survey"
)

// Chart identifiers of the funding section.
const (
	ChartFundingByCause = "funding-by-cause"
	TableFundingSources = "funding-by-source"
	TableFundingGrants  = "funding-grants"
)

// grantListLimit caps the grant list to the largest grants.
const grantListLimit = 50

// Dashboard is an immutable snapshot of every computed section.
type Dashboard struct {
	BuildID      string                `json:"buildId"`
	BuiltAt      time.Time             `json:"builtAt"`
	Funding      *Funding              `json:"funding"`
	Demographics []*survey.Demographic `json:"demographics"`
	Countries    *survey.Countries     `json:"countries,omitempty"`
}

// Funding is the funding section.
type Funding struct {
	Totals   funding.Totals `json:"totals"`
	Graph    funding.Graph  `json:"graph"`
	ByCause  *engine.Result `json:"byCause"`
	BySource *engine.Result `json:"bySource"`
	Grants   *engine.Result `json:"grants"`
}

// Results returns every chart and table of the snapshot in page order.
func (d *Dashboard) Results() []*engine.Result {
	var results []*engine.Result
	add := func(rs ...*engine.Result) {
		for _, r := range rs {
			if r != nil {
				results = append(results, r)
			}
		}
	}
	for _, demo := range d.Demographics {
		add(demo.Result)
	}
	if d.Countries != nil {
		add(d.Countries.Responses, d.Countries.PerCapita)
	}
	if d.Funding != nil {
		add(d.Funding.ByCause, d.Funding.BySource, d.Funding.Grants)
	}
	return results
}

// Result looks a chart or table up by ID.
func (d *Dashboard) Result(id string) (*engine.Result, bool) {
	for _, r := range d.Results() {
		if r.ID == id {
			return r, true
		}
	}
	return nil, false
}

// Charts returns every chart of the snapshot in page order.
func (d *Dashboard) Charts() []*engine.ChartConfig {
	var charts []*engine.ChartConfig
	for _, r := range d.Results() {
		if r.ChartConfig != nil {
			charts = append(charts, r.ChartConfig)
		}
	}
	return charts
}

// Chart looks a chart up by ID.
func (d *Dashboard) Chart(id string) (*engine.ChartConfig, bool) {
	for _, c := range d.Charts() {
		if c.ID == id {
			return c, true
		}
	}
	return nil, false
}

// Builder loads and assembles dashboards from one configuration.
type Builder struct {
	Config  *config.Config
	FS      fs.FS // defaults to Config.FS()
	Logger  *zap.Logger
	Metrics *Metrics
	Now     func() time.Time
}

// Build assembles a dashboard from cfg's data directory.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dashboard, error) {
	b := &Builder{Config: cfg, Logger: logger}
	return b.Build(ctx)
}

// Build loads the funding and survey sources concurrently. A missing survey
// file drops its section with a warning; any funding failure fails the build.
func (b *Builder) Build(ctx context.Context) (*Dashboard, error) {
	logger := b.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	fsys := b.FS
	if fsys == nil {
		fsys = b.Config.FS()
	}
	now := b.Now
	if now == nil {
		now = time.Now
	}
	start := time.Now()

	d := &Dashboard{BuildID: uuid.NewString()}
	logger = logger.With(zap.String("buildId", d.BuildID))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		section, err := b.buildFunding(gctx, fsys, logger)
		if err != nil {
			return fmt.Errorf("funding: %w", err)
		}
		d.Funding = section
		return nil
	})
	g.Go(func() error {
		demos, err := survey.LoadDemographics(fsys, b.Config.Survey.Dir, b.Config.Survey.Tables, logger)
		if err != nil {
			return fmt.Errorf("demographics: %w", err)
		}
		d.Demographics = demos
		return nil
	})
	g.Go(func() error {
		opts := b.Config.CountryOptions()
		opts.Logger = logger
		section, err := survey.LoadCountries(fsys, opts)
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warn("country table missing, skipping geography", zap.String("file", opts.File))
			return nil
		}
		if err != nil {
			return fmt.Errorf("countries: %w", err)
		}
		d.Countries = section
		return nil
	})

	err := g.Wait()
	b.Metrics.observeBuild(time.Since(start), err)
	if err != nil {
		logger.Error("dashboard build failed", zap.Error(err))
		return nil, err
	}

	d.BuiltAt = now().UTC()
	logger.Info("dashboard built",
		zap.Int("charts", len(d.Charts())),
		zap.Int("flows", len(d.Funding.Graph.Flows)),
		zap.Duration("took", time.Since(start)),
	)
	return d, nil
}

var grantAdapter = engine.NewDomainAdapter[funding.Grant]().
	Dimension("source", func(g funding.Grant) string { return g.Source }).
	Dimension("cause_area", func(g funding.Grant) string { return g.CauseArea }).
	Dimension("organization", func(g funding.Grant) string { return g.Organization }).
	Measure("amount", func(g funding.Grant) float64 { return g.Amount.InexactFloat64() })

func (b *Builder) buildFunding(ctx context.Context, fsys fs.FS, logger *zap.Logger) (*Funding, error) {
	opts := b.Config.FundingOptions()
	opts.Logger = logger
	grants, err := funding.Load(ctx, fsys, opts)
	if err != nil {
		return nil, err
	}

	flows := funding.BuildFlows(grants, b.Config.FlowOptions())
	view := grantAdapter.Bind(grants)

	byCause, err := engine.Execute(engine.QuerySpec{
		Intent:    "chart",
		Visualize: "bar",
		GroupBy:   []string{"cause_area", "source"},
		SortBy:    "value_desc",
		Title:     "Funding by Cause Area",
	}, view, engine.WithChartID(ChartFundingByCause), engine.WithUnit("USD"), engine.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	bySource, err := engine.Execute(engine.QuerySpec{
		Intent:    "table",
		Visualize: "table",
		GroupBy:   []string{"source"},
		SortBy:    "value_desc",
		Title:     "Funding by Source",
	}, view, engine.WithChartID(TableFundingSources), engine.WithUnit("USD"), engine.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	grantList, err := engine.Execute(engine.QuerySpec{
		Intent:      "table",
		Aggregation: "list",
		SortBy:      "value_desc",
		Limit:       grantListLimit,
		Title:       "Largest Grants",
	}, view, engine.WithChartID(TableFundingGrants), engine.WithUnit("USD"), engine.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	return &Funding{
		Totals:   funding.Summarize(grants),
		Graph:    funding.NewGraph(flows),
		ByCause:  byCause,
		BySource: bySource,
		Grants:   grantList,
	}, nil
}
