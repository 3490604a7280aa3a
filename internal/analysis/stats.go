package analysis

import (
	"cmp"
	"slices"

	"ctox-dashboard/internal/dataset"
	"ctox-dashboard/internal/tabular"
)

// Collections summarizes lab collection volumes overall and per state,
// states ordered by total collections
func Collections(labs *tabular.Table) CollectionStats {
	stats := CollectionStats{ByState: []StateCollections{}}
	if labs.Empty() || !labs.Has(dataset.ColCollections) {
		return stats
	}

	values := make([]float64, 0, labs.Len())
	byState := map[string]*StateCollections{}
	for _, r := range labs.Rows {
		v := tabular.NumberOr(r[dataset.ColCollections], 0)
		values = append(values, v)
		stats.Total += v
		if v > 0 {
			stats.LabsWithAny++
		}

		state := tabular.String(r[dataset.ColState])
		if state == "" {
			continue
		}
		s, ok := byState[state]
		if !ok {
			s = &StateCollections{State: state}
			byState[state] = s
		}
		s.Total += v
		s.Labs++
	}

	stats.Mean = stats.Total / float64(len(values))
	stats.Median = median(values)
	stats.Max = slices.Max(values)

	for _, s := range byState {
		s.Mean = s.Total / float64(s.Labs)
		stats.ByState = append(stats.ByState, *s)
	}
	slices.SortFunc(stats.ByState, func(a, b StateCollections) int {
		if c := cmp.Compare(b.Total, a.Total); c != 0 {
			return c
		}
		return cmp.Compare(a.State, b.State)
	})
	return stats
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
