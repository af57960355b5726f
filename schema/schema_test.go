package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToKey(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Cause Area", "cause_area"},
		{" Organization Name ", "organization_name"},
		{"Age-Group", "age_group"},
		{"Percent", "percent"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ToKey(tt.input))
		})
	}
}

func TestDefaults(t *testing.T) {
	d := DefaultDimension("Cause Area")
	assert.Equal(t, "cause_area", d.Key)
	assert.True(t, d.Groupable)
	assert.True(t, d.Filterable)

	m := DefaultMeasure("Percent", "percent")
	assert.Equal(t, "percent", m.Key)
	assert.Equal(t, "sum", m.DefaultAggregation)

	cfg := Config{Dimensions: []DimensionMeta{d}, Measures: []MeasureMeta{m}}
	assert.Equal(t, "percent", cfg.GetDefaultMeasure())
	assert.Equal(t, "amount", Config{}.GetDefaultMeasure())
	assert.Equal(t, []string{"cause_area"}, cfg.DimensionKeys())
	assert.Equal(t, []string{"percent"}, cfg.MeasureKeys())
}

func TestValidate(t *testing.T) {
	ok := Config{
		Name:       "countries",
		Dimensions: []DimensionMeta{DefaultDimension("Country")},
		Measures:   []MeasureMeta{DefaultMeasure("Responses", "count")},
	}
	require.NoError(t, ok.Validate())

	tests := []struct {
		name string
		cfg  Config
	}{
		{"no columns", Config{Name: "empty"}},
		{"empty key", Config{Dimensions: []DimensionMeta{{Key: ""}}}},
		{"duplicate", Config{
			Dimensions: []DimensionMeta{DefaultDimension("Country")},
			Measures:   []MeasureMeta{{Key: "country"}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.cfg.Validate(), ErrInvalid)
		})
	}
}
