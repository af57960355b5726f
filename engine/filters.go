package engine

import (
	"sort"
	"strings"
)

// ============================================================================
// FILTERS — Dimension-Based Include/Exclude via RecordView
// ============================================================================
// Single pass per call. Returns a SubView (index list into parent).
// ============================================================================

// ApplyFilters returns a view of records matching all dimension filters.
// Dimensions are AND-combined; values within a dimension are OR-combined.
// Empty filter = no restriction (returns original view).
func ApplyFilters(view RecordView, filters Filters) RecordView {
	return selectRecords(view, filters, true)
}

// ExcludeValues returns a view without the records ApplyFilters would keep.
// Used to drop summary rows such as "Total respondents" from survey tables.
func ExcludeValues(view RecordView, exclude Filters) RecordView {
	return selectRecords(view, exclude, false)
}

func selectRecords(view RecordView, filters Filters, include bool) RecordView {
	if filters.IsEmpty() {
		return view
	}

	sets := make(map[string]map[string]bool)
	for dim, allowed := range filters.Dimensions {
		if len(allowed) > 0 {
			sets[dim] = toLowerSet(allowed)
		}
	}

	n := view.Len()
	indices := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if matchesAll(view, i, sets) == include {
			indices = append(indices, i)
		}
	}

	return newSubView(view, indices)
}

// matchesAll reports whether record i has an allowed value for every dimension.
func matchesAll(view RecordView, i int, sets map[string]map[string]bool) bool {
	for dim, set := range sets {
		if !set[strings.ToLower(view.Dimension(i, dim))] {
			return false
		}
	}
	return true
}

// toLowerSet converts a string slice to a lowercase lookup set.
func toLowerSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[strings.ToLower(item)] = true
	}
	return set
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
