package funding

import (
	"context"
	"errors"
	"io/fs"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

const openPhilCSV = `Grant,Organization Name,Focus Area,Amount,Date
Malaria nets,Against Malaria Foundation,Global Health & Development,"$25,000,000",01/2019
AI safety,Machine Intelligence Research Institute,Potential Risks from Advanced Artificial Intelligence,"$7,703,750",02/2020
Cage-free campaigns,The Humane League,Farm Animal Welfare,"$10,000,000",03/2019
Unlisted,Georgetown University,Biosecurity and Pandemic Preparedness,,04/2019
`

const miscCSV = `Source,Cause Area,Organization,Amount
Giving What We Can,Global Poverty,AMF,12000000
Founders Pledge,Catastrophic Risks,Others,"4,500,000"
`

const farFutureTxt = `$488,994.00 - July 2018: Machine Intelligence Research Institute
$174,021.00 - November 2018: Berkeley Existential Risk Initiative

$14,838.00 - March 2019: AI Safety Camp
`

func dataFS() fstest.MapFS {
	return fstest.MapFS{
		"openphil_grants.csv":         {Data: []byte(openPhilCSV)},
		"misc.csv":                    {Data: []byte(miscCSV)},
		"ea_funds/far_future.txt":     {Data: []byte(farFutureTxt)},
		"ea_funds/ea_community.txt":   {Data: []byte("$1,000.00 - May 2019: Centre for Effective Altruism\n")},
		"ea_funds/notes.md":           {Data: []byte("not a fund")},
		"rp_survey_data/country2.csv": {Data: []byte("Country,Responses\n")},
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input   string
		want    int64
		wantErr bool
	}{
		{"$1,250,000", 1250000, false},
		{"488,994.00", 488994, false},
		{"£10", 10, false},
		{"", 0, false},
		{"  ", 0, false},
		{"12.99", 12, false},
		{"$1.2.3", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.NewFromInt(tt.want)), "got %s", got)
		})
	}
}

func TestFundTitle(t *testing.T) {
	assert.Equal(t, "Ea Community", FundTitle("ea_funds/ea_community.txt"))
	assert.Equal(t, "Global Development", FundTitle("global_development.txt"))
	assert.Equal(t, "Far Future", FundTitle("FAR_FUTURE.txt"))
}

func TestParseOpenPhilRenames(t *testing.T) {
	grants, err := ParseOpenPhil(strings.NewReader(openPhilCSV), DefaultCauseAreas(), DefaultOrganizations())
	require.NoError(t, err)
	require.Len(t, grants, 4)

	assert.Equal(t, SourceOpenPhil, grants[0].Source)
	assert.Equal(t, "Global Poverty", grants[0].CauseArea)
	assert.Equal(t, "AMF", grants[0].Organization)
	assert.Equal(t, "25000000", grants[0].Amount.String())

	assert.Equal(t, "AI", grants[1].CauseArea)
	assert.Equal(t, "Machine Intelligence Research Institute", grants[1].Organization, "unmapped names pass through")
	assert.Equal(t, "Animal Welfare", grants[2].CauseArea)

	assert.Equal(t, "GU", grants[3].Organization)
	assert.True(t, grants[3].Amount.IsZero(), "missing amount is zero")
}

func TestParseOpenPhilMissingColumn(t *testing.T) {
	_, err := ParseOpenPhil(strings.NewReader("Organization Name,Amount\nX,$1\n"), nil, nil)
	require.ErrorIs(t, err, ErrMissingColumn)
}

func TestParseOpenPhilBadAmount(t *testing.T) {
	_, err := ParseOpenPhil(strings.NewReader("Organization Name,Focus Area,Amount\nX,Y,$1.2.3\n"), nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestParseEAFunds(t *testing.T) {
	grants, skipped, err := ParseEAFunds("ea_funds/far_future.txt", strings.NewReader(farFutureTxt), DefaultFundCauseAreas(), false)
	require.NoError(t, err)
	assert.Empty(t, skipped)
	require.Len(t, grants, 3, "every announcement line is a grant")

	assert.Equal(t, Grant{
		Source:       SourceEAFunds,
		CauseArea:    "Far Future",
		Organization: "Machine Intelligence Research Institute",
		Amount:       grants[0].Amount,
		Date:         "July 2018",
	}, grants[0])
	assert.Equal(t, "488994", grants[0].Amount.String())
	assert.Equal(t, "AI Safety Camp", grants[2].Organization)
}

func TestParseEAFundsUnknownFundKeepsTitle(t *testing.T) {
	grants, _, err := ParseEAFunds("ea_funds/patient_philanthropy.txt",
		strings.NewReader("$5.00 - June 2020: Someone\n"), DefaultFundCauseAreas(), true)
	require.NoError(t, err)
	require.Len(t, grants, 1)
	assert.Equal(t, "Patient Philanthropy", grants[0].CauseArea)
}

func TestParseEAFundsBadLines(t *testing.T) {
	input := "$10.00 - May 2019: Good Org\nTotal paid out this round\n"

	grants, skipped, err := ParseEAFunds("meta.txt", strings.NewReader(input), nil, false)
	require.NoError(t, err)
	assert.Len(t, grants, 1)
	require.Len(t, skipped, 1)
	assert.Equal(t, 2, skipped[0].Line)

	_, _, err = ParseEAFunds("meta.txt", strings.NewReader(input), nil, true)
	var lerr *LineError
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, "meta.txt", lerr.File)
	assert.Equal(t, "Total paid out this round", lerr.Text)
}

func TestParseMisc(t *testing.T) {
	grants, skipped, err := ParseMisc("misc.csv", strings.NewReader(miscCSV))
	require.NoError(t, err)
	assert.Empty(t, skipped)
	require.Len(t, grants, 2)
	assert.Equal(t, "Founders Pledge", grants[1].Source)
	assert.Equal(t, "4500000", grants[1].Amount.String())
}

func TestParseMiscSkipsRowsWithoutSource(t *testing.T) {
	input := miscCSV + ",Animal Welfare,The Humane League,250000\n"
	grants, skipped, err := ParseMisc("misc.csv", strings.NewReader(input))
	require.NoError(t, err)
	assert.Len(t, grants, 2)
	require.Len(t, skipped, 1)
	assert.Equal(t, "misc.csv", skipped[0].File)
	assert.Equal(t, 4, skipped[0].Line)
	assert.Contains(t, skipped[0].Text, "The Humane League")
}

func TestLoadWarnsOnPledgeWithoutSource(t *testing.T) {
	fsys := dataFS()
	fsys["misc.csv"] = &fstest.MapFile{Data: []byte(miscCSV + ",Animal Welfare,The Humane League,250000\n")}

	core, logs := observer.New(zapcore.WarnLevel)
	opts := DefaultOptions()
	opts.Logger = zap.New(core)
	_, err := Load(context.Background(), fsys, opts)
	require.NoError(t, err)

	entries := logs.FilterMessage("skipping pledge without source").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(4), entries[0].ContextMap()["line"])
}

func TestLoadConcatenationOrder(t *testing.T) {
	opts := DefaultOptions()
	opts.Logger = zaptest.NewLogger(t)

	grants, err := Load(context.Background(), dataFS(), opts)
	require.NoError(t, err)
	require.Len(t, grants, 2+4+4)

	assert.Equal(t, "Giving What We Can", grants[0].Source)
	assert.Equal(t, SourceEAFunds, grants[2].Source)
	assert.Equal(t, "Meta", grants[2].CauseArea, "ea_community sorts before far_future")
	assert.Equal(t, "Far Future", grants[3].CauseArea)
	assert.Equal(t, SourceOpenPhil, grants[6].Source)
}

func TestLoadStrictFailsOnBadLine(t *testing.T) {
	fsys := dataFS()
	fsys["ea_funds/animal_welfare.txt"] = &fstest.MapFile{Data: []byte("garbage\n")}

	opts := DefaultOptions()
	opts.Strict = true
	_, err := Load(context.Background(), fsys, opts)
	var lerr *LineError
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, "ea_funds/animal_welfare.txt", lerr.File)
}

func TestLoadMissingFile(t *testing.T) {
	fsys := dataFS()
	delete(fsys, "openphil_grants.csv")
	_, err := Load(context.Background(), fsys, DefaultOptions())
	require.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestLoadNoGrants(t *testing.T) {
	opts := Options{EAFundsGlob: "ea_funds/*.txt"}
	_, err := Load(context.Background(), fstest.MapFS{}, opts)
	require.ErrorIs(t, err, ErrNoGrants)
}

func TestLoadCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Load(ctx, dataFS(), DefaultOptions())
	require.ErrorIs(t, err, context.Canceled)
}

func TestRenamesMerge(t *testing.T) {
	base := DefaultOrganizations()
	merged := base.Merge(Renames{"Georgetown University": "Georgetown", "GiveWell": "GW"})
	assert.Equal(t, "Georgetown", merged.Apply("Georgetown University"))
	assert.Equal(t, "AMF", merged.Apply("Against Malaria Foundation"))
	assert.Equal(t, "GW", merged.Apply("GiveWell"))
	assert.Equal(t, "GU", base.Apply("Georgetown University"), "merge does not modify the receiver")
	assert.Equal(t, "Unlisted Org", base.Apply("Unlisted Org"))
}
