package dataset

import (
	"testing"
	"time"

	"ctox-dashboard/internal/tabular"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func table(columns []string, rows ...[]any) *tabular.Table {
	t := tabular.New(columns...)
	for _, values := range rows {
		r := tabular.Row{}
		for i, c := range columns {
			r[c] = values[i]
		}
		t.Rows = append(t.Rows, r)
	}
	return t
}

func assertDate(t *testing.T, want time.Time, got any) {
	t.Helper()
	d, ok := got.(time.Time)
	require.True(t, ok, "expected a time.Time, got %T", got)
	assert.WithinDuration(t, want, d, time.Second)
}

func TestProcessLabs_DaysWithoutCollection(t *testing.T) {
	raw := table([]string{"Razão Social", "Dias sem coleta", "Acumulado de Coletas"},
		[]any{"A", "91", "10"},
		[]any{"B", "90", "0"},
		[]any{"C", nil, "10"},
	)

	got := ProcessLabs(raw)
	assert.Equal(t, StatusInactive, got.Rows[0][ColStatus])
	assert.Equal(t, StatusActive, got.Rows[1][ColStatus])
	assert.Equal(t, StatusInactive, got.Rows[2][ColStatus], "missing days count as 9999")
}

func TestProcessLabs_FlagOverridesDays(t *testing.T) {
	raw := table([]string{"Ativo em Coletas", "Dias sem coleta"},
		[]any{"True", "500"},
		[]any{"false", "1"},
		[]any{"1", nil},
		[]any{true, nil},
	)

	got := ProcessLabs(raw)
	assert.Equal(t, StatusActive, got.Rows[0][ColStatus])
	assert.Equal(t, StatusInactive, got.Rows[1][ColStatus])
	assert.Equal(t, StatusActive, got.Rows[2][ColStatus])
	assert.Equal(t, StatusActive, got.Rows[3][ColStatus])
}

func TestProcessLabs_CumulativeFallbackAndYear(t *testing.T) {
	raw := table([]string{"Acumulado de Coletas"},
		[]any{"12"},
		[]any{"abc"},
	)

	got := ProcessLabs(raw)
	assert.Equal(t, StatusActive, got.Rows[0][ColStatus])
	assert.Equal(t, StatusInactive, got.Rows[1][ColStatus])
	assert.Equal(t, 0.0, got.Rows[1][ColCollections])
	assert.Equal(t, 12.0, got.Rows[0][ColCollectionsYear], "lifetime count stands in for the year count")

	withYear := ProcessLabs(table([]string{"Acumulado de Coletas", "Total de Coletas 2025"}, []any{"12", "3"}))
	assert.Equal(t, 3.0, withYear.Rows[0][ColCollectionsYear])
}

func TestProcessLabs_MissingCumulative(t *testing.T) {
	got := ProcessLabs(table([]string{"Cidade"}, []any{"Campinas"}))
	assert.Equal(t, 0.0, got.Rows[0][ColCollections])
	assert.Equal(t, StatusInactive, got.Rows[0][ColStatus])
}

func TestProcessCompanies_Override(t *testing.T) {
	raw := table([]string{"Dias sem coleta (voucher)", "Dias sem coleta (não-voucher)", "Acumulado coletas voucher", "Acumulado coletas não-voucher"},
		[]any{"9999", "9999", "3", "2"},
		[]any{"9999", "9999", "0", "0"},
		[]any{nil, nil, nil, nil},
	)

	got := ProcessCompanies(raw)
	assert.Equal(t, 5.0, got.Rows[0][ColTotal])
	assert.Equal(t, StatusActive, got.Rows[0][ColStatus], "accumulated collections re-activate")
	assert.Equal(t, StatusInactive, got.Rows[1][ColStatus])
	assert.Equal(t, StatusInactive, got.Rows[2][ColStatus])
	assert.Equal(t, 9999.0, got.Rows[2][ColDaysMin])
}

func TestProcessCompanies_MinimumOfBothChannels(t *testing.T) {
	raw := table([]string{"Dias sem coleta (voucher)", "Dias sem coleta (não-voucher)"},
		[]any{"400", "365"},
		[]any{"366", "x"},
	)

	got := ProcessCompanies(raw)
	assert.Equal(t, 365.0, got.Rows[0][ColDaysMin])
	assert.Equal(t, StatusActive, got.Rows[0][ColStatus])
	assert.Equal(t, 366.0, got.Rows[1][ColDaysMin])
	assert.Equal(t, StatusInactive, got.Rows[1][ColStatus])
	assert.Equal(t, 0.0, got.Rows[0][ColTotal])
}

func TestProcessCompanies_CollectionsThisYear(t *testing.T) {
	got := ProcessCompanies(table([]string{"Total coletas voucher 2025", "Total coletas não-voucher 2025"}, []any{"4", "1,5"}))
	assert.Equal(t, 5.5, got.Rows[0][ColCollections2025])

	got = ProcessCompanies(table([]string{"Cidade"}, []any{"Campinas"}))
	assert.Equal(t, 0.0, got.Rows[0][ColCollections2025])
}

func TestProcessCompanies_LastCollection(t *testing.T) {
	raw := table([]string{"Última Coleta (Voucher)", "Última Coleta (Não-Voucher)"},
		[]any{"05/03/2024", "01/02/2024"},
		[]any{"garbage", "10/01/2024"},
		[]any{nil, nil},
	)

	got := ProcessCompanies(raw)
	require.True(t, got.Has(ColLastCollection))
	assertDate(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), got.Rows[0][ColLastCollection])
	assert.Nil(t, got.Rows[1][ColLastVoucher], "unparsable dates become empty")
	assertDate(t, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), got.Rows[1][ColLastCollection])
	assert.Nil(t, got.Rows[2][ColLastCollection])

	single := ProcessCompanies(table([]string{"Última Coleta (Não-Voucher)"}, []any{"45292"}))
	assertDate(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), single.Rows[0][ColLastCollection])

	none := ProcessCompanies(table([]string{"Cidade"}, []any{"Campinas"}))
	assert.False(t, none.Has(ColLastCollection))
}

func TestProcess_EmptyInput(t *testing.T) {
	assert.True(t, ProcessCompanies(tabular.New()).Empty())
	assert.True(t, ProcessLabs(nil).Empty())
	assert.NotNil(t, ProcessLabs(nil))
}

func TestProcess_HeaderOnlyTableIsNormalized(t *testing.T) {
	labs := ProcessLabs(tabular.New("Razão Social", " UF ", "Acumulado de Coletas"))
	assert.True(t, labs.Empty())
	assert.Equal(t, []string{ColLegalName, ColState, ColCollections}, labs.Columns)

	companies := ProcessCompanies(tabular.New("CNPJ", "Cidade"))
	assert.True(t, companies.Empty())
	assert.Equal(t, []string{ColCNPJ, ColCity}, companies.Columns)
}

func TestProcessLabs_DoesNotModifyInput(t *testing.T) {
	raw := table([]string{"Acumulado de Coletas"}, []any{"12"})
	_ = ProcessLabs(raw)
	assert.Equal(t, []string{"Acumulado de Coletas"}, raw.Columns)
	assert.Equal(t, "12", raw.Rows[0]["Acumulado de Coletas"])
}
