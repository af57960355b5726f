package engine

import "go.uber.org/zap"

// ============================================================================
// ENGINE OPTIONS — Functional options for Execute()
// ============================================================================

// Option configures engine behavior via functional options pattern.
type Option func(*config)

type config struct {
	Unit    string // display unit for currency formatting ("USD", "%")
	ChartID string
	Logger  *zap.Logger
}

// WithUnit sets the display unit used in table summaries.
func WithUnit(unit string) Option {
	return func(c *config) {
		c.Unit = unit
	}
}

// WithChartID stamps the Result, and its ChartConfig, with an identifier.
func WithChartID(id string) Option {
	return func(c *config) {
		c.ChartID = id
	}
}

// WithLogger routes engine debug logs to logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

func applyOptions(opts []Option) *config {
	cfg := &config{Logger: zap.NewNop()}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
