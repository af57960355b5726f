package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Environment variables that override file values.
const (
	EnvDataDir   = "EADASH_DATA_DIR"
	EnvAddr      = "EADASH_ADDR"
	EnvThreshold = "EADASH_THRESHOLD"
)

// DefaultEnvFile is read before the environment is consulted.
const DefaultEnvFile = ".env"

// Loader handles configuration loading with layered precedence
type Loader struct {
	logger  *zap.Logger
	EnvFile string
	Lookup  func(string) (string, bool)
}

// NewLoader creates a new configuration loader
func NewLoader(logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{logger: logger, EnvFile: DefaultEnvFile, Lookup: os.LookupEnv}
}

// Load loads configuration with layered precedence:
// 1. Default config
// 2. YAML file at path (skipped when path is empty)
// 3. .env file, then environment variables
//
// CLI flags are applied by the caller on top of the result.
func (l *Loader) Load(path string) (*Config, error) {
	config := DefaultConfig()
	if path != "" {
		fileConfig, err := LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		l.logger.Debug("loaded config file", zap.String("path", path))
		config = fileConfig
	}

	if l.EnvFile != "" {
		// godotenv never overrides variables that are already set.
		err := godotenv.Load(l.EnvFile)
		switch {
		case err == nil:
			l.logger.Debug("loaded env file", zap.String("path", l.EnvFile))
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	}

	if err := config.ApplyEnv(l.Lookup); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// ApplyEnv overrides file values with EADASH_* variables.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if lookup == nil {
		return nil
	}
	if v, ok := lookup(EnvDataDir); ok && v != "" {
		c.DataDir = v
	}
	if v, ok := lookup(EnvAddr); ok && v != "" {
		c.Server.Addr = v
	}
	if v, ok := lookup(EnvThreshold); ok && v != "" {
		var a Amount
		if err := a.Set(v); err != nil {
			return fmt.Errorf("%s: %w", EnvThreshold, err)
		}
		c.Funding.Threshold = a
	}
	return nil
}
