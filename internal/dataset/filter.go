package dataset

import "ctox-dashboard/internal/tabular"

// Filter sentinels selecting every state or city
const (
	AllStates = "Todos"
	AllCities = "Todas"
)

// ApplyFilters keeps the rows matching state and city. A sentinel or empty
// value, or a table without the column, skips that filter.
func ApplyFilters(t *tabular.Table, state, city string) *tabular.Table {
	filterState := state != "" && state != AllStates && t.Has(ColState)
	filterCity := city != "" && city != AllCities && t.Has(ColCity)
	if !filterState && !filterCity {
		return t.Filter(func(tabular.Row) bool { return true })
	}

	return t.Filter(func(r tabular.Row) bool {
		if filterState && tabular.String(r[ColState]) != state {
			return false
		}
		if filterCity && tabular.String(r[ColCity]) != city {
			return false
		}
		return true
	})
}
