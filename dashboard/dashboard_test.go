package dashboard

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/spektr-org/eadash/config"
	"github.com/spektr-org/eadash/funding"
)

var dataFiles = map[string]string{
	"openphil_grants.csv": "Grant,Organization Name,Focus Area,Amount\n" +
		"Nets,Against Malaria Foundation,Global Health & Development,\"$45,000,000\"\n" +
		"Deworming,Schistosomiasis Control Initiative,Global Health & Development,\"$10,000,000\"\n" +
		"Research,Machine Intelligence Research Institute,Potential Risks from Advanced Artificial Intelligence,\"$7,703,750\"\n",
	"misc.csv": "Source,Cause Area,Organization,Amount\n" +
		"Giving What We Can,Global Poverty,AMF,12000000\n",
	"ea_funds/far_future.txt":       "$488,994.00 - July 2018: Machine Intelligence Research Institute\n",
	"rp_survey_data/gender.csv":     "Gender\tPercent\nMale\t71.1%\nFemale\t26.6%\nOther\t2.3%\nTotal\t100%\n",
	"rp_survey_data/diet.csv":       "Diet\tPercent\nVegan\t22.4%\nOmnivore\t77.6%\nTotal respondents\t100%\n",
	"rp_survey_data/country2.csv":   "Country,Responses\nUnited States of America,1204\nUK,431\nGermany,157\n",
	"rp_survey_data/notes/todo.txt": "ignored",
}

func writeDataDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range dataFiles {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func testConfig(dir string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.DataDir = dir
	cfg.Survey.Tables = []string{"gender", "diet", "employment"}
	return cfg
}

func TestBuild(t *testing.T) {
	cfg := testConfig(writeDataDir(t))
	fixed := time.Date(2020, 5, 1, 12, 0, 0, 0, time.UTC)
	b := &Builder{Config: cfg, Logger: zaptest.NewLogger(t), Now: func() time.Time { return fixed }}

	d, err := b.Build(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, d.BuildID)
	assert.Equal(t, fixed, d.BuiltAt)

	require.Len(t, d.Demographics, 2, "missing employment table is skipped")
	assert.Equal(t, "Gender", d.Demographics[0].Title)

	require.NotNil(t, d.Countries)
	assert.Len(t, d.Countries.Countries, 3)

	graph := d.Funding.Graph
	assert.Equal(t, []string{
		"Giving What We Can", "Global Poverty", "Others",
		"EA Funds", "Far Future",
		"Open Philanthropy", "AMF", "AI",
	}, graph.Nodes)
	assert.Len(t, graph.Flows, 9)
	assert.Equal(t, 5, d.Funding.Totals.Grants)

	var ids []string
	for _, c := range d.Charts() {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []string{
		"demographics-gender", "demographics-diet",
		"countries-responses", "countries-per-capita",
		ChartFundingByCause,
	}, ids)

	byCause, ok := d.Chart(ChartFundingByCause)
	require.True(t, ok)
	assert.True(t, byCause.ShowLegend, "one series per source")
	assert.Equal(t, "table", d.Funding.BySource.Type)

	grants, ok := d.Result(TableFundingGrants)
	require.True(t, ok)
	require.Len(t, grants.TableData.Rows, 5)
	assert.Equal(t, []string{"Open Philanthropy", "Global Poverty", "AMF", "45000000.00"}, grants.TableData.Rows[0])
	assert.Len(t, d.Results(), 7, "five charts plus two funding tables")
}

func TestBuildMissingCountriesIsSkipped(t *testing.T) {
	dir := writeDataDir(t)
	require.NoError(t, os.Remove(filepath.Join(dir, "rp_survey_data", "country2.csv")))

	d, err := Build(context.Background(), testConfig(dir), zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Nil(t, d.Countries)
	_, ok := d.Chart("countries-responses")
	assert.False(t, ok)
}

func TestBuildMissingFundingFails(t *testing.T) {
	dir := writeDataDir(t)
	require.NoError(t, os.Remove(filepath.Join(dir, "misc.csv")))

	metrics := NewMetrics()
	b := &Builder{Config: testConfig(dir), Metrics: metrics}
	_, err := b.Build(context.Background())
	require.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), "funding")

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.builds.WithLabelValues("error")))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.builds.WithLabelValues("ok")))
}

func TestBuildThresholdFromConfig(t *testing.T) {
	cfg := testConfig(writeDataDir(t))
	cfg.Funding.Threshold = config.Amount{Decimal: funding.DefaultThreshold.Div(funding.DefaultThreshold)}
	cfg.Funding.OthersLabel = "Smaller grantees"

	d, err := Build(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.NotContains(t, d.Funding.Graph.Nodes, "Smaller grantees", "every organization clears a threshold of 1")
	assert.Contains(t, d.Funding.Graph.Nodes, "Schistosomiasis Control Initiative")
}
