package survey

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/spektr-org/eadash/helpers"
	"github.com/spektr-org/eadash/schema"
)

// UnknownPopulation is used for countries missing from the table. It is
// large enough to push their density to zero.
const UnknownPopulation = 1e9

//go:embed populations.csv
var populationsCSV []byte

var populationSchema = schema.Config{
	Name:       "populations",
	Dimensions: []schema.DimensionMeta{schema.DefaultDimension("Country")},
	Measures:   []schema.MeasureMeta{schema.DefaultMeasure("Population", "count")},
}

// Populations maps country names to head counts. Lookups ignore case.
type Populations struct {
	names  []string
	counts map[string]float64
}

// ParsePopulations reads a "Country,Population" table.
func ParsePopulations(data []byte) (*Populations, error) {
	records, err := helpers.ParseCSV(data, populationSchema)
	if err != nil {
		return nil, fmt.Errorf("parse populations: %w", err)
	}
	p := &Populations{counts: make(map[string]float64, len(records))}
	for _, rec := range records {
		name := rec.Dimensions["country"]
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if _, dup := p.counts[key]; !dup {
			p.names = append(p.names, name)
		}
		p.counts[key] = rec.Measures["population"]
	}
	return p, nil
}

var defaultPopulations = sync.OnceValues(func() (*Populations, error) {
	return ParsePopulations(populationsCSV)
})

// DefaultPopulations returns the embedded population table.
func DefaultPopulations() *Populations {
	p, err := defaultPopulations()
	if err != nil {
		panic(err)
	}
	return p
}

// Lookup returns the population of name, or UnknownPopulation.
func (p *Populations) Lookup(name string) float64 {
	if p == nil {
		return UnknownPopulation
	}
	if n, ok := p.counts[strings.ToLower(name)]; ok && n > 0 {
		return n
	}
	return UnknownPopulation
}

// Names returns every known country in table order.
func (p *Populations) Names() []string {
	if p == nil {
		return nil
	}
	return p.names
}
