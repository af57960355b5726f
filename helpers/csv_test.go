package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/eadash/schema"
)

var dietTSV = []byte("Diet\tResponses\tPercent\n" +
	"Vegan\t412\t22.4%\n" +
	"Vegetarian\t367\t19.9%\n" +
	"Omnivore\t1062\t57.7%\n" +
	"\t\t\n" +
	"Total respondents\t1841\t100%\n")

var countriesCSV = []byte(`Country,Responses
United States of America,"1,204"
United Kingdom,431
Germany,157
`)

func dietSchema() schema.Config {
	return schema.Config{
		Name:       "Diet",
		Dimensions: []schema.DimensionMeta{schema.DefaultDimension("Diet")},
		Measures:   []schema.MeasureMeta{schema.DefaultMeasure("Percent", "percent")},
	}
}

func TestReadHeader(t *testing.T) {
	headers, err := ReadHeader(dietTSV, TSV)
	require.NoError(t, err)
	assert.Equal(t, []string{"Diet", "Responses", "Percent"}, headers)

	_, err = ReadHeader(nil)
	assert.Error(t, err)
}

func TestParseCSVTabSeparated(t *testing.T) {
	records, err := ParseCSV(dietTSV, dietSchema(), TSV)
	require.NoError(t, err)
	require.Len(t, records, 4, "blank rows are skipped")

	assert.Equal(t, "Vegan", records[0].Dimensions["diet"])
	assert.Equal(t, 22.4, records[0].Measures["percent"])
	_, hasResponses := records[0].Measures["responses"]
	assert.False(t, hasResponses, "unmapped columns are ignored")
	assert.Equal(t, "Total respondents", records[3].Dimensions["diet"])
}

func TestParseCSVViewKeyOrder(t *testing.T) {
	sch := schema.Config{
		Name:       "countries",
		Dimensions: []schema.DimensionMeta{schema.DefaultDimension("Country")},
		Measures:   []schema.MeasureMeta{schema.DefaultMeasure("Responses", "count")},
	}
	view, err := ParseCSVView(countriesCSV, sch)
	require.NoError(t, err)
	require.Equal(t, 3, view.Len())
	assert.Equal(t, []string{"country"}, view.DimensionKeys())
	assert.Equal(t, 1204.0, view.Measure(0, "responses"))
}

func TestParseCSVMissingColumn(t *testing.T) {
	_, err := ParseCSV(countriesCSV, dietSchema())
	require.ErrorIs(t, err, ErrMissingColumn)
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		input   string
		want    float64
		wantErr bool
	}{
		{"5%", 5, false},
		{" 12.5% ", 12.5, false},
		{"$1,250,000", 1250000, false},
		{"1,204", 1204, false},
		{"", 0, true},
		{"n/a", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseNumber(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
