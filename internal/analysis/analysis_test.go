package analysis

import (
	"testing"

	"ctox-dashboard/internal/dataset"
	"ctox-dashboard/internal/tabular"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	active   = dataset.StatusActive
	inactive = dataset.StatusInactive
)

func labsFixture() *tabular.Table {
	t := tabular.New(dataset.ColCNPJ, dataset.ColCity, dataset.ColState, dataset.ColStatus, dataset.ColCollections)
	add := func(cnpj, city, state, status string, collections float64) {
		t.Rows = append(t.Rows, tabular.Row{
			dataset.ColCNPJ: cnpj, dataset.ColCity: city, dataset.ColState: state,
			dataset.ColStatus: status, dataset.ColCollections: collections,
		})
	}
	add("L1", "Campinas", "SP", active, 10)
	add("L2", "Campinas", "SP", inactive, 0)
	add("L3", "Santos", "SP", inactive, 5)
	add("L4", "Niterói", "RJ", active, 30)
	add("L5", "Manaus", "AM", inactive, 0)
	return t
}

func companiesFixture() *tabular.Table {
	t := tabular.New(dataset.ColCNPJ, dataset.ColCity, dataset.ColState, dataset.ColStatus, dataset.ColVouchers)
	add := func(cnpj, city, state, status string, vouchers float64) {
		t.Rows = append(t.Rows, tabular.Row{
			dataset.ColCNPJ: cnpj, dataset.ColCity: city, dataset.ColState: state,
			dataset.ColStatus: status, dataset.ColVouchers: vouchers,
		})
	}
	add("E1", "Campinas", "SP", active, 4)
	add("E2", "Santos", "SP", inactive, 0)
	add("E3", "Santos", "SP", inactive, 2)
	add("E4", "Manaus", "AM", active, 1)
	add("E5", "Recife", "PE", inactive, 0)
	return t
}

func TestBuildOverview(t *testing.T) {
	o := BuildOverview(companiesFixture(), labsFixture())

	assert.Equal(t, StatusSummary{Total: 5, Active: 2, Inactive: 3, ActivePercent: 40}, o.Labs)
	assert.Equal(t, StatusSummary{Total: 5, Active: 2, Inactive: 3, ActivePercent: 40}, o.Companies)
	assert.Equal(t, 45.0, o.TotalCollections)
	assert.Equal(t, 7.0, o.TotalVouchers)
	assert.Equal(t, 9.0, o.CollectionsPerLab)
	assert.Equal(t, 3, o.States)
	assert.Equal(t, 4, o.Cities)
	assert.Equal(t, 1.0, o.LabsPerCompany)
	assert.Equal(t, []Count{{"SP", 3}, {"AM", 1}, {"RJ", 1}}, o.TopStatesByLabs)
}

func TestBuildOverview_Empty(t *testing.T) {
	o := BuildOverview(tabular.New(), tabular.New())
	assert.Zero(t, o.Labs.Total)
	assert.Zero(t, o.CollectionsPerLab)
	assert.Empty(t, o.TopStatesByLabs)
}

func TestFilterOptions(t *testing.T) {
	opts := FilterOptions(labsFixture())
	assert.Equal(t, []string{"Todos", "AM", "RJ", "SP"}, opts.States)
	assert.Equal(t, []string{"Todas", "Campinas", "Manaus", "Niterói", "Santos"}, opts.Cities)

	none := FilterOptions(tabular.New())
	assert.Equal(t, []string{"Todos"}, none.States)
}

func TestStatusByState(t *testing.T) {
	got := StatusByState(labsFixture(), 2)
	assert.Equal(t, []StateStatus{
		{State: "SP", Active: 1, Inactive: 2, Total: 3},
		{State: "AM", Active: 0, Inactive: 1, Total: 1},
	}, got)
}

func TestLabsWithoutCompanies(t *testing.T) {
	got, err := Run(LabsWithoutCompanies, companiesFixture(), labsFixture())
	require.NoError(t, err)
	assert.Equal(t, []any{"L4"}, got.Column(dataset.ColCNPJ))
	assert.NotContains(t, got.Columns, dataset.ColTradeName, "missing display columns are skipped")
}

func TestLabsInCitiesWithOnlyInactiveCompanies(t *testing.T) {
	got, err := Run(LabsInactiveCompanies, companiesFixture(), labsFixture())
	require.NoError(t, err)
	assert.Equal(t, []any{"L3"}, got.Column(dataset.ColCNPJ))
	assert.Equal(t, []any{2}, got.Column(colInactiveCompaniesInCity))
}

func TestCompaniesWithoutLabs(t *testing.T) {
	got, err := Run(CompaniesWithoutLabs, companiesFixture(), labsFixture())
	require.NoError(t, err)
	assert.Equal(t, []any{"E5"}, got.Column(dataset.ColCNPJ))
}

func TestCompaniesInCitiesWithOnlyInactiveLabs(t *testing.T) {
	got, err := Run(CompaniesInactiveLabs, companiesFixture(), labsFixture())
	require.NoError(t, err)
	assert.Equal(t, []any{"E2", "E3", "E4"}, got.Column(dataset.ColCNPJ))
	assert.Equal(t, []any{1, 1, 1}, got.Column(colInactiveLabsInCity))
}

func TestCrossAnalyses_RequireBothDatasets(t *testing.T) {
	for _, kind := range []string{LabsWithoutCompanies, LabsInactiveCompanies, CompaniesWithoutLabs, CompaniesInactiveLabs} {
		_, err := Run(kind, tabular.New(), labsFixture())
		assert.ErrorIs(t, err, ErrInsufficientData, kind)
	}
}

func TestRun_UnknownKind(t *testing.T) {
	_, err := Run("nope", companiesFixture(), labsFixture())
	assert.ErrorIs(t, err, ErrUnknownAnalysis)
}

func TestTopLabsByCollections(t *testing.T) {
	labs := labsFixture()
	got, err := TopLabsByCollections(labs, 3)
	require.NoError(t, err)
	assert.Equal(t, []any{"L4", "L1", "L3"}, got.Column(dataset.ColCNPJ))
	assert.Equal(t, "L1", labs.Rows[0][dataset.ColCNPJ], "input order is kept")

	ties, err := TopLabsByCollections(labs, 0)
	require.NoError(t, err)
	assert.Equal(t, []any{"L4", "L1", "L3", "L2", "L5"}, ties.Column(dataset.ColCNPJ))
}

func TestCoverageByState(t *testing.T) {
	got, err := CoverageByState(labsFixture())
	require.NoError(t, err)
	assert.Equal(t, []any{"AM", "RJ", "SP"}, got.Column(dataset.ColState))
	assert.Equal(t, []any{1, 1, 2}, got.Column(colCitiesServed))
	assert.Equal(t, []any{0.0, 30.0, 15.0}, got.Column(colCollectionsTotal))

	_, err = CoverageByState(tabular.New())
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestCollections(t *testing.T) {
	stats := Collections(labsFixture())
	assert.Equal(t, 45.0, stats.Total)
	assert.Equal(t, 9.0, stats.Mean)
	assert.Equal(t, 5.0, stats.Median)
	assert.Equal(t, 30.0, stats.Max)
	assert.Equal(t, 3, stats.LabsWithAny)
	require.Len(t, stats.ByState, 3)
	assert.Equal(t, StateCollections{State: "RJ", Total: 30, Mean: 30, Labs: 1}, stats.ByState[0])
	assert.Equal(t, StateCollections{State: "SP", Total: 15, Mean: 5, Labs: 3}, stats.ByState[1])
}

func TestLabListing(t *testing.T) {
	labs := labsFixture()
	got := LabListing(labs, companiesFixture())

	santos := got.Rows[2]
	assert.Equal(t, "Santos-SP", santos[ColCityState])
	assert.Equal(t, 2, santos[ColCompaniesInCity])
	assert.Equal(t, 0, santos[ColActiveCompaniesInCity])
	assert.Equal(t, 2, santos[ColIdleCompaniesInCity])
	assert.Equal(t, 1, santos[ColVoucherUsersInCity])
	assert.Equal(t, 1, santos[ColNeverVoucherInCity])
	assert.Equal(t, 0, got.Rows[3][ColCompaniesInCity], "Niterói has no companies")

	assert.False(t, labs.Has(ColCompaniesInCity), "input is not modified")
}

func TestCompanyListing(t *testing.T) {
	got := CompanyListing(companiesFixture(), labsFixture())

	assert.Equal(t, 2, got.Rows[0][ColLabsInCity])
	assert.Equal(t, "Sim", got.Rows[0][ColLabInCity])
	assert.Equal(t, 1, got.Rows[0][ColActiveLabsInCity])
	assert.Equal(t, 1, got.Rows[0][ColIdleLabsInCity])
	assert.Equal(t, "Não", got.Rows[4][ColLabInCity])

	alone := CompanyListing(companiesFixture(), tabular.New())
	assert.False(t, alone.Has(ColLabsInCity))
}
