package dataset

import (
	"testing"

	"ctox-dashboard/internal/tabular"

	"github.com/stretchr/testify/assert"
)

func TestApplyFilters(t *testing.T) {
	labs := table([]string{ColCNPJ, ColState, ColCity},
		[]any{"1", "SP", "Campinas"},
		[]any{"2", "SP", "Santos"},
		[]any{"3", "RJ", "Niterói"},
	)

	all := ApplyFilters(labs, AllStates, AllCities)
	assert.Equal(t, labs.Columns, all.Columns)
	assert.Equal(t, labs.Rows, all.Rows)

	sp := ApplyFilters(labs, "SP", AllCities)
	assert.Equal(t, 2, sp.Len())

	santos := ApplyFilters(labs, "SP", "Santos")
	assert.Equal(t, []any{"2"}, santos.Column(ColCNPJ))

	assert.True(t, ApplyFilters(labs, "RJ", "Santos").Empty(), "filters compose with AND")
	assert.Equal(t, 3, ApplyFilters(labs, "", "").Len())
}

func TestApplyFilters_MissingColumnSkips(t *testing.T) {
	noState := table([]string{ColCNPJ, ColCity}, []any{"1", "Campinas"}, []any{"2", "Santos"})
	assert.Equal(t, 1, ApplyFilters(noState, "SP", "Santos").Len())

	bare := tabular.New(ColCNPJ)
	bare.Rows = append(bare.Rows, tabular.Row{ColCNPJ: "1"})
	assert.Equal(t, 1, ApplyFilters(bare, "SP", "Santos").Len())
}
