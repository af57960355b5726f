package funding

import (
	"github.com/shopspring/decimal"
)

// DefaultThreshold is the smallest per-organization total drawn as its own
// Sankey node; smaller grantees are folded into the Others bucket.
var DefaultThreshold = decimal.NewFromInt(30_000_000)

// DefaultOthersLabel names the bucket for grantees below the threshold.
const DefaultOthersLabel = "Others"

// Flow is one weighted edge of the funding graph. Source is the funder the
// money originates from and is used to colour the edge.
type Flow struct {
	From   string          `json:"from"`
	To     string          `json:"to"`
	Amount decimal.Decimal `json:"amount"`
	Source string          `json:"source"`
}

// FlowOptions tunes BuildFlows.
type FlowOptions struct {
	Threshold   decimal.Decimal
	OthersLabel string
}

// DefaultFlowOptions returns the dashboard's flow settings.
func DefaultFlowOptions() FlowOptions {
	return FlowOptions{Threshold: DefaultThreshold, OthersLabel: DefaultOthersLabel}
}

// BuildFlows sums grants into source → cause area and cause area →
// organization edges.
//
//	Open Philanthropy, Global Poverty, AMF, 100
//	Open Philanthropy, Global Poverty, SCI,  80
//
// becomes
//
//	Open Philanthropy → Global Poverty 180 (Open Philanthropy)
//	Global Poverty    → AMF            100 (Open Philanthropy)
//	Global Poverty    → SCI             80 (Open Philanthropy)
//
// Organizations whose total inside a (source, cause area) group is below the
// threshold are summed into one Others edge, emitted only when positive.
// Groups and organizations keep their first-appearance order.
func BuildFlows(grants []Grant, opts FlowOptions) []Flow {
	if opts.OthersLabel == "" {
		opts.OthersLabel = DefaultOthersLabel
	}

	type orgTotal struct {
		name   string
		amount decimal.Decimal
	}
	type group struct {
		source, cause string
		total         decimal.Decimal
		orgs          []orgTotal
		orgIndex      map[string]int
	}

	var groups []*group
	index := make(map[[2]string]*group)
	for _, g := range grants {
		key := [2]string{g.Source, g.CauseArea}
		grp, ok := index[key]
		if !ok {
			grp = &group{source: g.Source, cause: g.CauseArea, total: decimal.Zero, orgIndex: make(map[string]int)}
			index[key] = grp
			groups = append(groups, grp)
		}
		grp.total = grp.total.Add(g.Amount)

		i, ok := grp.orgIndex[g.Organization]
		if !ok {
			i = len(grp.orgs)
			grp.orgIndex[g.Organization] = i
			grp.orgs = append(grp.orgs, orgTotal{name: g.Organization, amount: decimal.Zero})
		}
		grp.orgs[i].amount = grp.orgs[i].amount.Add(g.Amount)
	}

	var flows []Flow
	for _, grp := range groups {
		flows = append(flows, Flow{From: grp.source, To: grp.cause, Amount: grp.total, Source: grp.source})

		others := decimal.Zero
		for _, org := range grp.orgs {
			if org.amount.LessThan(opts.Threshold) {
				others = others.Add(org.amount)
				continue
			}
			flows = append(flows, Flow{From: grp.cause, To: org.name, Amount: org.amount, Source: grp.source})
		}
		if others.IsPositive() {
			flows = append(flows, Flow{From: grp.cause, To: opts.OthersLabel, Amount: others, Source: grp.source})
		}
	}
	return flows
}

// Link is an index-based Sankey edge.
type Link struct {
	Source int     `json:"source"`
	Target int     `json:"target"`
	Value  float64 `json:"value"`
	Group  string  `json:"group"`
}

// Graph is the renderer-facing form of a flow list.
type Graph struct {
	Nodes []string `json:"nodes"`
	Links []Link   `json:"links"`
	Flows []Flow   `json:"flows"`
}

// Nodes returns every entity named by flows, deduplicated, in order of first
// appearance (From before To on each edge).
func Nodes(flows []Flow) []string {
	seen := make(map[string]bool)
	var nodes []string
	for _, f := range flows {
		for _, name := range [2]string{f.From, f.To} {
			if !seen[name] {
				seen[name] = true
				nodes = append(nodes, name)
			}
		}
	}
	return nodes
}

// NewGraph converts flows into node and index-link lists.
func NewGraph(flows []Flow) Graph {
	nodes := Nodes(flows)
	idx := make(map[string]int, len(nodes))
	for i, n := range nodes {
		idx[n] = i
	}

	links := make([]Link, 0, len(flows))
	for _, f := range flows {
		links = append(links, Link{
			Source: idx[f.From],
			Target: idx[f.To],
			Value:  f.Amount.InexactFloat64(),
			Group:  f.Source,
		})
	}
	return Graph{Nodes: nodes, Links: links, Flows: flows}
}
