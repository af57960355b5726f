// Package config provides configuration loading for eadash.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/spektr-org/eadash/funding"
	"github.com/spektr-org/eadash/survey"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid config")

// Config represents the complete eadash configuration
type Config struct {
	// DataDir is the directory every data file path is relative to
	DataDir string        `yaml:"dataDir"`
	Funding FundingConfig `yaml:"funding"`
	Survey  SurveyConfig  `yaml:"survey"`
	Server  ServerConfig  `yaml:"server"`
}

// FundingConfig configures the grant sources and the flow graph
type FundingConfig struct {
	OpenPhilFile string `yaml:"openPhilFile"`
	EAFundsGlob  string `yaml:"eaFundsGlob"`
	MiscFile     string `yaml:"miscFile"`
	// Threshold is the smallest organization total drawn as its own node
	Threshold   Amount `yaml:"threshold"`
	OthersLabel string `yaml:"othersLabel"`
	// Strict fails the build on unrecognised EA Funds lines
	Strict bool `yaml:"strict"`

	// Entries here are added to or replace the built-in rename tables
	CauseAreas     map[string]string `yaml:"causeAreas"`
	Organizations  map[string]string `yaml:"organizations"`
	FundCauseAreas map[string]string `yaml:"fundCauseAreas"`
}

// SurveyConfig configures the survey tables
type SurveyConfig struct {
	Dir            string            `yaml:"dir"`
	Tables         []string          `yaml:"tables"`
	CountryFile    string            `yaml:"countryFile"`
	CountryRenames map[string]string `yaml:"countryRenames"`
	BarHeight      int               `yaml:"barHeight"`
}

// ServerConfig configures `eadash serve`
type ServerConfig struct {
	Addr string `yaml:"addr"`
	// Watch rebuilds the dashboard when the data directory changes
	Watch    bool          `yaml:"watch"`
	Debounce time.Duration `yaml:"debounce"`
}

// Amount is a decimal that reads "30000000", "30,000,000" or "$30,000,000".
type Amount struct {
	decimal.Decimal
}

// Set parses s into a. Amount also serves as a command-line flag value.
func (a *Amount) Set(s string) error {
	d, err := funding.ParseAmount(s)
	if err != nil {
		return fmt.Errorf("amount %q: %w", s, err)
	}
	a.Decimal = d
	return nil
}

// Type names the flag value type.
func (a *Amount) Type() string { return "amount" }

// UnmarshalYAML parses a scalar amount.
func (a *Amount) UnmarshalYAML(node *yaml.Node) error {
	if err := a.Set(node.Value); err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	return nil
}

// MarshalYAML writes the amount as a plain number string.
func (a Amount) MarshalYAML() (any, error) {
	return a.Decimal.String(), nil
}

// DefaultConfig returns a Config with the published data layout
func DefaultConfig() *Config {
	fopts := funding.DefaultOptions()
	return &Config{
		DataDir: "data",
		Funding: FundingConfig{
			OpenPhilFile: fopts.OpenPhilFile,
			EAFundsGlob:  fopts.EAFundsGlob,
			MiscFile:     fopts.MiscFile,
			Threshold:    Amount{funding.DefaultThreshold},
			OthersLabel:  funding.DefaultOthersLabel,
		},
		Survey: SurveyConfig{
			Dir:         "rp_survey_data",
			Tables:      append([]string(nil), survey.DefaultTables...),
			CountryFile: "country2.csv",
			BarHeight:   survey.DefaultBarHeight,
		},
		Server: ServerConfig{
			Addr:     ":8050",
			Debounce: 500 * time.Millisecond,
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("%w: dataDir is required", ErrInvalid)
	}
	if c.Funding.OpenPhilFile == "" && c.Funding.EAFundsGlob == "" && c.Funding.MiscFile == "" {
		return fmt.Errorf("%w: at least one funding source is required", ErrInvalid)
	}
	if c.Funding.Threshold.IsNegative() {
		return fmt.Errorf("%w: funding.threshold must not be negative", ErrInvalid)
	}
	if c.Survey.BarHeight < 0 {
		return fmt.Errorf("%w: survey.barHeight must not be negative", ErrInvalid)
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("%w: server.addr is required", ErrInvalid)
	}
	if c.Server.Debounce < 0 {
		return fmt.Errorf("%w: server.debounce must not be negative", ErrInvalid)
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file over the defaults.
// Unknown keys are rejected.
func LoadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	defer f.Close()

	config := DefaultConfig()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(config); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// FS returns the data directory as a file system.
func (c *Config) FS() fs.FS {
	return os.DirFS(c.DataDir)
}

// FundingOptions converts the funding section into loader options.
func (c *Config) FundingOptions() funding.Options {
	opts := funding.DefaultOptions()
	opts.OpenPhilFile = c.Funding.OpenPhilFile
	opts.EAFundsGlob = c.Funding.EAFundsGlob
	opts.MiscFile = c.Funding.MiscFile
	opts.Strict = c.Funding.Strict
	opts.CauseAreas = opts.CauseAreas.Merge(c.Funding.CauseAreas)
	opts.Organizations = opts.Organizations.Merge(c.Funding.Organizations)
	opts.FundCauseAreas = opts.FundCauseAreas.Merge(c.Funding.FundCauseAreas)
	return opts
}

// FlowOptions converts the funding section into flow graph options.
func (c *Config) FlowOptions() funding.FlowOptions {
	return funding.FlowOptions{
		Threshold:   c.Funding.Threshold.Decimal,
		OthersLabel: c.Funding.OthersLabel,
	}
}

// CountryOptions converts the survey section into country loader options.
func (c *Config) CountryOptions() survey.CountryOptions {
	renames := survey.DefaultCountryRenames()
	for k, v := range c.Survey.CountryRenames {
		renames[k] = v
	}
	return survey.CountryOptions{
		File:      filepath.ToSlash(filepath.Join(c.Survey.Dir, c.Survey.CountryFile)),
		Renames:   renames,
		BarHeight: c.Survey.BarHeight,
	}
}
