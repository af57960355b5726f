// Package funding loads grant data from the community's funding sources into
// one schema and reshapes it into a weighted funding-flow graph.
package funding

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Source names as they appear on the flow graph.
const (
	SourceOpenPhil = "Open Philanthropy"
	SourceEAFunds  = "EA Funds"
)

// ErrNoGrants is returned when every funding source is empty.
var ErrNoGrants = errors.New("no grants loaded")

// Grant is one funding row in the unified schema.
type Grant struct {
	Source       string          `json:"source"`
	CauseArea    string          `json:"causeArea"`
	Organization string          `json:"organization"`
	Amount       decimal.Decimal `json:"amount"`
	Date         string          `json:"date,omitempty"`
}

// SourceTotal is the amount granted by one source.
type SourceTotal struct {
	Source string          `json:"source"`
	Amount decimal.Decimal `json:"amount"`
	Grants int             `json:"grants"`
}

// Totals summarises grants per source, in first-appearance order.
type Totals struct {
	BySource []SourceTotal  `json:"bySource"`
	Total    decimal.Decimal `json:"total"`
	Grants   int             `json:"grants"`
}

// Summarize computes per-source and overall totals.
func Summarize(grants []Grant) Totals {
	index := make(map[string]int)
	totals := Totals{Total: decimal.Zero}
	for _, g := range grants {
		i, ok := index[g.Source]
		if !ok {
			i = len(totals.BySource)
			index[g.Source] = i
			totals.BySource = append(totals.BySource, SourceTotal{Source: g.Source, Amount: decimal.Zero})
		}
		totals.BySource[i].Amount = totals.BySource[i].Amount.Add(g.Amount)
		totals.BySource[i].Grants++
		totals.Total = totals.Total.Add(g.Amount)
		totals.Grants++
	}
	return totals
}
