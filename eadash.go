// Package eadash builds the data behind the Effective Altruism dashboard.
//
// Usage:
//
//	import "github.com/spektr-org/eadash/dashboard"
//
//	cfg, err := config.NewLoader(logger).Load("eadash.yaml")
//	d, err := dashboard.Build(ctx, cfg, logger)
//
// Funding grants (Open Philanthropy, EA Funds payout lists, other pledges)
// are summed into a Sankey flow graph by the funding package. Survey tables
// become pie and bar charts through the survey package, which feeds the
// generic engine. Rendering to PNG/SVG, CSV/XLSX export and the HTTP API
// live in render, export and dashboard.
package eadash
