package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dietTSV = "Diet\tResponses\tPercent\tNotes\n" +
	"Vegan\t412\t22.4%\t\n" +
	"Vegetarian\t370\t20.1%\t\n" +
	"Omnivore\t1,058\t57.5%\t\n"

func TestDiscoverSurveyTable(t *testing.T) {
	got, err := DiscoverFromCSV([]byte(dietTSV), DiscoverOptions{Name: "diet", Delimiter: '\t'})
	require.NoError(t, err)

	assert.Equal(t, "diet", got.Name)
	require.Len(t, got.Dimensions, 1)
	assert.Equal(t, "diet", got.Dimensions[0].Key)

	require.Len(t, got.Measures, 2)
	assert.Equal(t, MeasureMeta{Key: "responses", DisplayName: "Responses", Unit: "count", DefaultAggregation: "sum"}, got.Measures[0])
	assert.Equal(t, "percent", got.Measures[1].Key)
	assert.Equal(t, "percent", got.Measures[1].Unit)

	require.Len(t, got.Skipped, 1)
	assert.Equal(t, "Notes", got.Skipped[0].Header)
	require.NoError(t, got.Validate())
}

func TestDiscoverForcedDimension(t *testing.T) {
	data := []byte("Year,Amount\n2019,\"$1,000\"\n2020,$250\n")

	got, err := DiscoverFromCSV(data, DiscoverOptions{})
	require.NoError(t, err)
	assert.Empty(t, got.Dimensions, "numeric column is a measure by default")
	require.Len(t, got.Measures, 2)
	assert.Equal(t, "currency", got.Measures[1].Unit)

	got, err = DiscoverFromCSV(data, DiscoverOptions{Dimensions: []string{"year"}})
	require.NoError(t, err)
	require.Len(t, got.Dimensions, 1)
	assert.Equal(t, "year", got.Dimensions[0].Key)
	assert.Len(t, got.Measures, 1)
}

func TestDiscoverNoRows(t *testing.T) {
	_, err := DiscoverFromCSV([]byte("Gender\tPercent\n"), DiscoverOptions{Name: "gender", Delimiter: '\t'})
	require.ErrorIs(t, err, ErrNoRows)
}

func TestIsNumeric(t *testing.T) {
	for _, s := range []string{"1,234", "$5", "12.5%", "-3", "£10"} {
		assert.True(t, isNumeric(s), s)
	}
	for _, s := range []string{"18-24", "65+", "Vegan", ""} {
		assert.False(t, isNumeric(s), s)
	}
}
