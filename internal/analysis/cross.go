package analysis

import (
	"cmp"
	"fmt"
	"slices"

	"ctox-dashboard/internal/dataset"
	"ctox-dashboard/internal/tabular"
)

// Analysis kinds
const (
	LabsWithoutCompanies  = "labs-without-companies"
	LabsInactiveCompanies = "labs-inactive-companies"
	CompaniesWithoutLabs  = "companies-without-labs"
	CompaniesInactiveLabs = "companies-inactive-labs"
	TopLabs               = "top-labs"
	StateCoverage         = "state-coverage"
)

const (
	colInactiveCompaniesInCity = "empresas_inativas_cidade"
	colInactiveLabsInCity      = "pcls_inativos_cidade"
	colCitiesServed            = "cidades_atendidas"
	colCollectionsTotal        = "total_coletas"

	// DefaultTopLabs is the size of the top labs ranking
	DefaultTopLabs = 50
)

var (
	labColumns = []string{
		dataset.ColCNPJ, dataset.ColLegalName, dataset.ColTradeName, dataset.ColCity, dataset.ColState,
		dataset.ColStatus, dataset.ColCollections, dataset.ColLastCollectionDate,
	}
	companyColumns = []string{
		dataset.ColCNPJ, dataset.ColLegalName, dataset.ColTradeName, dataset.ColCity, dataset.ColState,
		dataset.ColStatus, dataset.ColVouchers, dataset.ColLastCollection,
	}
)

// Report describes one analysis
type Report struct {
	Kind        string `json:"kind"`
	Title       string `json:"title"`
	Description string `json:"description"`
	// Sheet is the worksheet name used when the result is exported
	Sheet       string `json:"sheet"`
	// FilePrefix names exported files, <prefix>_<yyyymmdd>.xlsx
	FilePrefix  string `json:"file_prefix"`

	run func(companies, labs *tabular.Table) (*tabular.Table, error)
}

// Reports lists the available analyses in display order
var Reports = []Report{
	{
		Kind:        LabsWithoutCompanies,
		Title:       "Labs in cities without accredited companies",
		Description: "Labs located in cities where no company is accredited.",
		Sheet:       "PCLs sem Empresas",
		FilePrefix:  "pcls_sem_empresas",
		run:         labsWithoutCompanies,
	},
	{
		Kind:        LabsInactiveCompanies,
		Title:       "Labs in cities whose companies are all inactive",
		Description: "Labs located in cities with accredited companies where every company is inactive (over 365 days).",
		Sheet:       "PCLs Empresas Inativas",
		FilePrefix:  "pcls_empresas_inativas",
		run:         labsInactiveCompanies,
	},
	{
		Kind:        CompaniesWithoutLabs,
		Title:       "Companies in cities without accredited labs",
		Description: "Companies located in cities where no lab is accredited.",
		Sheet:       "Empresas sem PCL",
		FilePrefix:  "empresas_sem_pcl",
		run:         companiesWithoutLabs,
	},
	{
		Kind:        CompaniesInactiveLabs,
		Title:       "Companies in cities whose labs are all inactive",
		Description: "Companies located in cities with accredited labs where every lab is inactive (over 90 days).",
		Sheet:       "Empresas PCLs Inativos",
		FilePrefix:  "empresas_pcls_inativos",
		run:         companiesInactiveLabs,
	},
	{
		Kind:        TopLabs,
		Title:       "Top labs by collection volume",
		Description: fmt.Sprintf("The %d labs with the most accumulated collections.", DefaultTopLabs),
		Sheet:       "Top PCLs",
		FilePrefix:  "top_pcls",
		run: func(_, labs *tabular.Table) (*tabular.Table, error) {
			return TopLabsByCollections(labs, DefaultTopLabs)
		},
	},
	{
		Kind:        StateCoverage,
		Title:       "States with the lowest coverage",
		Description: "Cities served and collections per state, fewest cities first.",
		Sheet:       "Cobertura por Estado",
		FilePrefix:  "cobertura_estados",
		run: func(_, labs *tabular.Table) (*tabular.Table, error) {
			return CoverageByState(labs)
		},
	},
}

// Lookup finds an analysis by kind
func Lookup(kind string) (Report, error) {
	for _, r := range Reports {
		if r.Kind == kind {
			return r, nil
		}
	}
	return Report{}, fmt.Errorf("%w: %q", ErrUnknownAnalysis, kind)
}

// Run executes the analysis against the classified tables
func (r Report) Run(companies, labs *tabular.Table) (*tabular.Table, error) {
	return r.run(companies, labs)
}

// Run looks up and executes an analysis
func Run(kind string, companies, labs *tabular.Table) (*tabular.Table, error) {
	r, err := Lookup(kind)
	if err != nil {
		return nil, err
	}
	return r.Run(companies, labs)
}

func requireBoth(companies, labs *tabular.Table) error {
	if companies.Empty() || labs.Empty() {
		return fmt.Errorf("%w: both labs and companies are required", ErrInsufficientData)
	}
	return nil
}

func requireColumns(t *tabular.Table, columns ...string) error {
	for _, c := range columns {
		if !t.Has(c) {
			return fmt.Errorf("%w: column %q not found", ErrInsufficientData, c)
		}
	}
	return nil
}

// inCities keeps the rows whose city is (or is not) in cities
func inCities(t *tabular.Table, cities map[string]struct{}, want bool) *tabular.Table {
	if !t.Has(dataset.ColCity) {
		return tabular.New()
	}
	return t.Filter(func(r tabular.Row) bool {
		_, ok := cities[tabular.String(r[dataset.ColCity])]
		return ok == want
	})
}

// citiesWithoutActive returns the cities of t where no record is active
func citiesWithoutActive(t *tabular.Table) map[string]struct{} {
	active := countBy(t, dataset.ColCity, isActive)
	out := map[string]struct{}{}
	for city := range distinct(t, dataset.ColCity) {
		if active[city] == 0 {
			out[city] = struct{}{}
		}
	}
	return out
}

func labsWithoutCompanies(companies, labs *tabular.Table) (*tabular.Table, error) {
	if err := requireBoth(companies, labs); err != nil {
		return nil, err
	}
	return inCities(labs, distinct(companies, dataset.ColCity), false).Select(labColumns...), nil
}

func companiesWithoutLabs(companies, labs *tabular.Table) (*tabular.Table, error) {
	if err := requireBoth(companies, labs); err != nil {
		return nil, err
	}
	return inCities(companies, distinct(labs, dataset.ColCity), false).Select(companyColumns...), nil
}

func labsInactiveCompanies(companies, labs *tabular.Table) (*tabular.Table, error) {
	if err := requireBoth(companies, labs); err != nil {
		return nil, err
	}
	if err := requireColumns(companies, dataset.ColCity, dataset.ColStatus); err != nil {
		return nil, err
	}
	cities := citiesWithoutActive(companies)
	return withCityCount(inCities(labs, cities, true).Select(labColumns...), countBy(companies, dataset.ColCity, nil), colInactiveCompaniesInCity), nil
}

func companiesInactiveLabs(companies, labs *tabular.Table) (*tabular.Table, error) {
	if err := requireBoth(companies, labs); err != nil {
		return nil, err
	}
	if err := requireColumns(labs, dataset.ColCity, dataset.ColStatus); err != nil {
		return nil, err
	}
	cities := citiesWithoutActive(labs)
	return withCityCount(inCities(companies, cities, true).Select(companyColumns...), countBy(labs, dataset.ColCity, nil), colInactiveLabsInCity), nil
}

// withCityCount adds a column holding counts[city] for every row. t must own
// its rows.
func withCityCount(t *tabular.Table, counts map[string]int, column string) *tabular.Table {
	t.Set(column, func(r tabular.Row) any {
		return counts[tabular.String(r[dataset.ColCity])]
	})
	return t
}

// TopLabsByCollections ranks labs by accumulated collections, keeping the
// first n. Ties keep roster order.
func TopLabsByCollections(labs *tabular.Table, n int) (*tabular.Table, error) {
	if labs.Empty() {
		return nil, fmt.Errorf("%w: no labs loaded", ErrInsufficientData)
	}
	if err := requireColumns(labs, dataset.ColCollections); err != nil {
		return nil, err
	}

	ranked := labs.Filter(func(tabular.Row) bool { return true })
	slices.SortStableFunc(ranked.Rows, func(a, b tabular.Row) int {
		return cmp.Compare(tabular.NumberOr(b[dataset.ColCollections], 0), tabular.NumberOr(a[dataset.ColCollections], 0))
	})
	if n > 0 && len(ranked.Rows) > n {
		ranked.Rows = ranked.Rows[:n]
	}
	return ranked.Select(dataset.ColCNPJ, dataset.ColLegalName, dataset.ColCity, dataset.ColState, dataset.ColCollections, dataset.ColStatus), nil
}

// CoverageByState counts the distinct cities and the collections of every
// state, fewest cities first
func CoverageByState(labs *tabular.Table) (*tabular.Table, error) {
	if labs.Empty() {
		return nil, fmt.Errorf("%w: no labs loaded", ErrInsufficientData)
	}
	if err := requireColumns(labs, dataset.ColState); err != nil {
		return nil, err
	}

	type coverage struct {
		state       string
		cities      map[string]struct{}
		collections float64
	}
	byState := map[string]*coverage{}
	for _, r := range labs.Rows {
		state := tabular.String(r[dataset.ColState])
		if state == "" {
			continue
		}
		c, ok := byState[state]
		if !ok {
			c = &coverage{state: state, cities: map[string]struct{}{}}
			byState[state] = c
		}
		if city := tabular.String(r[dataset.ColCity]); city != "" {
			c.cities[city] = struct{}{}
		}
		if labs.Has(dataset.ColCollections) {
			c.collections += tabular.NumberOr(r[dataset.ColCollections], 0)
		} else {
			c.collections++
		}
	}

	rows := make([]*coverage, 0, len(byState))
	for _, c := range byState {
		rows = append(rows, c)
	}
	slices.SortFunc(rows, func(a, b *coverage) int {
		if c := cmp.Compare(len(a.cities), len(b.cities)); c != 0 {
			return c
		}
		return cmp.Compare(a.state, b.state)
	})

	out := tabular.New(dataset.ColState, colCitiesServed, colCollectionsTotal)
	for _, c := range rows {
		out.Rows = append(out.Rows, tabular.Row{
			dataset.ColState:    c.state,
			colCitiesServed:     len(c.cities),
			colCollectionsTotal: c.collections,
		})
	}
	return out, nil
}
