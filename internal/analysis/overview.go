// Package analysis derives the dashboard metrics and the cross-dataset
// reports from classified tables. Input tables are never modified.
package analysis

import (
	"cmp"
	"slices"

	"ctox-dashboard/internal/dataset"
	"ctox-dashboard/internal/tabular"
)

const topStates = 5

// BuildOverview computes the headline metrics
func BuildOverview(companies, labs *tabular.Table) Overview {
	o := Overview{
		Labs:                 Summarize(labs),
		Companies:            Summarize(companies),
		TotalCollections:     sum(labs, dataset.ColCollections),
		TotalVouchers:        sum(companies, dataset.ColVouchers),
		States:               len(distinct(labs, dataset.ColState)),
		Cities:               len(distinct(labs, dataset.ColCity)),
		TopStatesByLabs:      TopGroups(labs, dataset.ColState, topStates),
		TopStatesByCompanies: TopGroups(companies, dataset.ColState, topStates),
	}
	if o.Labs.Total > 0 {
		o.CollectionsPerLab = o.TotalCollections / float64(o.Labs.Total)
	}
	if o.Companies.Total > 0 {
		o.VouchersPerCompany = o.TotalVouchers / float64(o.Companies.Total)
		o.LabsPerCompany = float64(o.Labs.Total) / float64(o.Companies.Total)
	}
	return o
}

// Summarize counts the active and inactive records of a table
func Summarize(t *tabular.Table) StatusSummary {
	s := StatusSummary{Total: t.Len()}
	if t.Empty() {
		return s
	}
	for _, r := range t.Rows {
		if isActive(r) {
			s.Active++
		}
	}
	s.Inactive = s.Total - s.Active
	s.ActivePercent = float64(s.Active) / float64(s.Total) * 100
	return s
}

// TopGroups returns the n largest groups of a column, largest first.
// Equal counts are ordered by key.
func TopGroups(t *tabular.Table, column string, n int) []Count {
	counts := []Count{}
	if !t.Has(column) {
		return counts
	}
	for key, c := range countBy(t, column, nil) {
		counts = append(counts, Count{Key: key, Count: c})
	}
	slices.SortFunc(counts, func(a, b Count) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Key, b.Key)
	})
	if n > 0 && len(counts) > n {
		counts = counts[:n]
	}
	return counts
}

// FilterOptions lists the sorted states and cities of the lab roster
func FilterOptions(labs *tabular.Table) Options {
	return Options{
		States: append([]string{dataset.AllStates}, sortedKeys(distinct(labs, dataset.ColState))...),
		Cities: append([]string{dataset.AllCities}, sortedKeys(distinct(labs, dataset.ColCity))...),
	}
}

// StatusByState counts active and inactive records per state, keeping the
// limit states with the most records
func StatusByState(t *tabular.Table, limit int) []StateStatus {
	out := []StateStatus{}
	if !t.Has(dataset.ColState) {
		return out
	}

	index := map[string]int{}
	for _, r := range t.Rows {
		state := tabular.String(r[dataset.ColState])
		if state == "" {
			continue
		}
		i, ok := index[state]
		if !ok {
			i = len(out)
			index[state] = i
			out = append(out, StateStatus{State: state})
		}
		if isActive(r) {
			out[i].Active++
		} else {
			out[i].Inactive++
		}
		out[i].Total++
	}

	slices.SortFunc(out, func(a, b StateStatus) int {
		if c := cmp.Compare(b.Total, a.Total); c != 0 {
			return c
		}
		return cmp.Compare(a.State, b.State)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func isActive(r tabular.Row) bool {
	return r[dataset.ColStatus] == dataset.StatusActive
}

func sum(t *tabular.Table, column string) float64 {
	if !t.Has(column) {
		return 0
	}
	total := 0.0
	for _, r := range t.Rows {
		total += tabular.NumberOr(r[column], 0)
	}
	return total
}

// distinct returns the set of non-empty values of a column
func distinct(t *tabular.Table, column string) map[string]struct{} {
	set := map[string]struct{}{}
	if !t.Has(column) {
		return set
	}
	for _, r := range t.Rows {
		if v := tabular.String(r[column]); v != "" {
			set[v] = struct{}{}
		}
	}
	return set
}

// countBy counts rows per non-empty column value, restricted to rows
// accepted by keep when it is non-nil
func countBy(t *tabular.Table, column string, keep func(tabular.Row) bool) map[string]int {
	counts := map[string]int{}
	if !t.Has(column) {
		return counts
	}
	for _, r := range t.Rows {
		if keep != nil && !keep(r) {
			continue
		}
		if v := tabular.String(r[column]); v != "" {
			counts[v]++
		}
	}
	return counts
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
