package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ============================================================================
// SCHEMA — Describes the shape of an input table
// ============================================================================
// Every data file the dashboard reads has a fixed layout. A Config names the
// columns that become dimensions (grouping) and measures (aggregation); other
// columns are ignored by the parser.
// ============================================================================

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid schema")

// Config describes the shape of a table.
type Config struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	Dimensions []DimensionMeta `json:"dimensions" yaml:"dimensions"`
	Measures   []MeasureMeta   `json:"measures" yaml:"measures"`
}

// DimensionMeta describes a string column used for grouping/filtering.
type DimensionMeta struct {
	Key         string `json:"key" yaml:"key"`
	DisplayName string `json:"displayName" yaml:"displayName"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Groupable   bool   `json:"groupable" yaml:"groupable"`
	Filterable  bool   `json:"filterable" yaml:"filterable"`
}

// MeasureMeta describes a numeric column used for aggregation.
type MeasureMeta struct {
	Key                string `json:"key" yaml:"key"`
	DisplayName        string `json:"displayName" yaml:"displayName"`
	Unit               string `json:"unit,omitempty" yaml:"unit,omitempty"` // "currency", "percent", "count"
	DefaultAggregation string `json:"defaultAggregation,omitempty" yaml:"defaultAggregation,omitempty"`
}

// DefaultDimension creates a DimensionMeta keyed by the snake_case form of displayName.
func DefaultDimension(displayName string) DimensionMeta {
	return DimensionMeta{
		Key:         ToKey(displayName),
		DisplayName: displayName,
		Groupable:   true,
		Filterable:  true,
	}
}

// DefaultMeasure creates a summed MeasureMeta keyed by the snake_case form of displayName.
func DefaultMeasure(displayName, unit string) MeasureMeta {
	return MeasureMeta{
		Key:                ToKey(displayName),
		DisplayName:        displayName,
		Unit:               unit,
		DefaultAggregation: "sum",
	}
}

// GetDefaultMeasure returns the first measure's key, or "amount" as fallback.
func (c Config) GetDefaultMeasure() string {
	if len(c.Measures) > 0 {
		return c.Measures[0].Key
	}
	return "amount"
}

// DimensionKeys returns all dimension keys.
func (c Config) DimensionKeys() []string {
	keys := make([]string, len(c.Dimensions))
	for i, d := range c.Dimensions {
		keys[i] = d.Key
	}
	return keys
}

// MeasureKeys returns all measure keys.
func (c Config) MeasureKeys() []string {
	keys := make([]string, len(c.Measures))
	for i, m := range c.Measures {
		keys[i] = m.Key
	}
	return keys
}

// Validate checks that every column key is set and used once.
func (c Config) Validate() error {
	if len(c.Dimensions) == 0 && len(c.Measures) == 0 {
		return fmt.Errorf("%w: %q has no columns", ErrInvalid, c.Name)
	}
	seen := make(map[string]bool)
	for _, key := range append(c.DimensionKeys(), c.MeasureKeys()...) {
		if key == "" {
			return fmt.Errorf("%w: %q has an empty column key", ErrInvalid, c.Name)
		}
		if seen[key] {
			return fmt.Errorf("%w: %q declares %q twice", ErrInvalid, c.Name, key)
		}
		seen[key] = true
	}
	return nil
}

// ToKey converts a column header into a schema key: "Cause Area" → "cause_area".
func ToKey(header string) string {
	s := strings.ToLower(strings.TrimSpace(header))
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	return s
}
