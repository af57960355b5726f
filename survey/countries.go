package survey

import (
	"fmt"
	"io/fs"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/spektr-org/eadash/engine"
	"github.com/spektr-org/eadash/helpers"
	"github.com/spektr-org/eadash/schema"
)

// DefaultBarHeight is the pixel height of one country bar.
const DefaultBarHeight = 23

// DefaultCountryRenames maps survey spellings onto population table names.
func DefaultCountryRenames() map[string]string {
	return map[string]string{
		"United States of America": "United States",
		"USA":                      "United States",
		"UK":                       "United Kingdom",
		"Czechia":                  "Czech Republic",
		"Republic of Korea":        "South Korea",
		"Russian Federation":       "Russia",
		"Viet Nam":                 "Vietnam",
		"Côte d'Ivoire":            "Ivory Coast",
		"Timor-Leste":              "East Timor",
	}
}

// droppedCountries are summary rows, not countries.
var droppedCountries = map[string]bool{
	"total":                      true,
	"total respondents":          true,
	"all other stated countries": true,
}

var countrySchema = schema.Config{
	Name:       "countries",
	Dimensions: []schema.DimensionMeta{schema.DefaultDimension("Country")},
	Measures:   []schema.MeasureMeta{schema.DefaultMeasure("Responses", "count")},
}

// Country is one surveyed country.
type Country struct {
	Name       string  `json:"country"`
	Responses  int     `json:"responses"`
	Population float64 `json:"population"`
	Density    float64 `json:"densityPerMillion"`
	LogDensity float64 `json:"logDensity"`
}

// MapPoint is one location of the choropleth payload.
type MapPoint struct {
	Country    string  `json:"country"`
	Responses  int     `json:"responses"`
	Density    float64 `json:"densityPerMillion"`
	LogDensity float64 `json:"logDensity"`
}

// Countries is the geography section.
type Countries struct {
	Countries []Country      `json:"countries"`
	Map       []MapPoint     `json:"map"`
	Responses *engine.Result `json:"responses"`
	PerCapita *engine.Result `json:"perCapita"`
}

// ParseCountries reads "Country,Responses" rows. Names are normalized through
// renames, summary rows dropped and duplicate names merged. The result is
// sorted by ascending responses.
func ParseCountries(data []byte, renames map[string]string, pops *Populations) ([]Country, error) {
	records, err := helpers.ParseCSV(data, countrySchema)
	if err != nil {
		return nil, fmt.Errorf("parse countries: %w", err)
	}

	index := make(map[string]int)
	var countries []Country
	for _, rec := range records {
		name := strings.TrimSpace(rec.Dimensions["country"])
		if name == "" || droppedCountries[strings.ToLower(name)] {
			continue
		}
		if to, ok := renames[name]; ok {
			name = to
		}
		responses := int(math.Round(rec.Measures["responses"]))

		if i, ok := index[name]; ok {
			countries[i].Responses += responses
			continue
		}
		index[name] = len(countries)
		countries = append(countries, Country{Name: name, Responses: responses})
	}

	for i := range countries {
		c := &countries[i]
		c.Population = pops.Lookup(c.Name)
		c.Density = Density(c.Responses, c.Population)
		c.LogDensity = LogDensity(c.Density)
	}
	sort.SliceStable(countries, func(i, j int) bool {
		return countries[i].Responses < countries[j].Responses
	})
	return countries, nil
}

// Density returns respondents per million people, rounded to 2 decimals.
func Density(responses int, population float64) float64 {
	if population <= 0 {
		return 0
	}
	return engine.RoundTo2(float64(responses) / population * 1e6)
}

// LogDensity compresses density for the map colour scale: 1 + ln(d + 1).
func LogDensity(density float64) float64 {
	return 1 + math.Log(density+1)
}

// MapPoints returns every surveyed country followed by every known country
// absent from the survey, zero-filled. Names are compared case-insensitively.
func MapPoints(countries []Country, pops *Populations) []MapPoint {
	surveyed := make(map[string]bool, len(countries))
	points := make([]MapPoint, 0, len(countries)+len(pops.Names()))
	for _, c := range countries {
		surveyed[strings.ToLower(c.Name)] = true
		points = append(points, MapPoint{
			Country:    c.Name,
			Responses:  c.Responses,
			Density:    c.Density,
			LogDensity: c.LogDensity,
		})
	}
	for _, name := range pops.Names() {
		if surveyed[strings.ToLower(name)] {
			continue
		}
		points = append(points, MapPoint{Country: name})
	}
	return points
}

var countryAdapter = engine.NewDomainAdapter[Country]().
	Dimension("country", func(c Country) string { return c.Name }).
	Measure("responses", func(c Country) float64 { return float64(c.Responses) }).
	Measure("density", func(c Country) float64 { return c.Density })

// BuildCountries assembles the geography section: map payload plus the
// "Number of EAs" and "EAs per Million People" bar charts.
func BuildCountries(countries []Country, pops *Populations, barHeight int, logger *zap.Logger) (*Countries, error) {
	if barHeight <= 0 {
		barHeight = DefaultBarHeight
	}
	view := countryAdapter.Bind(countries)

	bar := func(id, title, measure, textFormat string) (*engine.Result, error) {
		spec := engine.QuerySpec{
			Intent:     "chart",
			Visualize:  "bar",
			GroupBy:    []string{"country"},
			Measure:    measure,
			SortBy:     "value_asc",
			Title:      title,
			TextFormat: textFormat,
			BarHeight:  barHeight,
		}
		return engine.Execute(spec, view, engine.WithChartID(id), engine.WithLogger(logger))
	}

	responses, err := bar("countries-responses", "Number of EAs", "responses", "int")
	if err != nil {
		return nil, err
	}
	perCapita, err := bar("countries-per-capita", "EAs per Million People", "density", "1dp")
	if err != nil {
		return nil, err
	}

	return &Countries{
		Countries: countries,
		Map:       MapPoints(countries, pops),
		Responses: responses,
		PerCapita: perCapita,
	}, nil
}

// CountryOptions locates the country table.
type CountryOptions struct {
	File        string
	Renames     map[string]string
	Populations *Populations
	BarHeight   int
	Logger      *zap.Logger
}

// LoadCountries reads and builds the geography section from fsys.
func LoadCountries(fsys fs.FS, opts CountryOptions) (*Countries, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	pops := opts.Populations
	if pops == nil {
		pops = DefaultPopulations()
	}
	renames := opts.Renames
	if renames == nil {
		renames = DefaultCountryRenames()
	}

	data, err := fs.ReadFile(fsys, opts.File)
	if err != nil {
		return nil, fmt.Errorf("read country table: %w", err)
	}
	countries, err := ParseCountries(data, renames, pops)
	if err != nil {
		return nil, err
	}
	for _, c := range countries {
		if c.Population == UnknownPopulation {
			logger.Debug("no population for country", zap.String("country", c.Name))
		}
	}
	logger.Debug("country table loaded", zap.String("file", opts.File), zap.Int("countries", len(countries)))
	return BuildCountries(countries, pops, opts.BarHeight, logger)
}
