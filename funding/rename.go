package funding

// Renames maps raw labels to display labels. Labels without an entry pass
// through unchanged.
type Renames map[string]string

// Apply returns the display label for raw.
func (r Renames) Apply(raw string) string {
	if v, ok := r[raw]; ok {
		return v
	}
	return raw
}

// Merge returns a copy of r with override's entries added or replaced.
func (r Renames) Merge(override Renames) Renames {
	out := make(Renames, len(r)+len(override))
	for k, v := range r {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}

// DefaultCauseAreas collapses Open Philanthropy focus areas into the
// standard cause-area names used across the dashboard.
func DefaultCauseAreas() Renames {
	return Renames{
		"Potential Risks from Advanced Artificial Intelligence": "AI",
		"History of Philanthropy":                               "Other",
		"Immigration Policy":                                    "Policy",
		"Macroeconomic Stabilization Policy":                    "Policy",
		"Land Use Reform":                                       "Policy",
		"Criminal Justice Reform":                               "Policy",
		"U.S. Policy":                                           "Policy",
		"Other areas":                                           "Other",
		"Biosecurity and Pandemic Preparedness":                 "Biosecurity",
		"Farm Animal Welfare":                                   "Animal Welfare",
		"Global Catastrophic Risks":                             "Catastrophic Risks",
		"Global Health & Development":                           "Global Poverty",
	}
}

// DefaultOrganizations abbreviates long grantee names so Sankey labels fit.
func DefaultOrganizations() Renames {
	return Renames{
		"Johns Hopkins Center for Health Security": "JHCHS",
		"Against Malaria Foundation":               "AMF",
		"Georgetown University":                    "GU",
	}
}

// DefaultFundCauseAreas maps EA Funds fund titles to cause areas.
func DefaultFundCauseAreas() Renames {
	return Renames{
		"Ea Community":       "Meta",
		"Global Development": "Global Poverty",
		"Far Future":         "Far Future",
		"Animal Welfare":     "Animal Welfare",
	}
}
