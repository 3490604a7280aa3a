package analysis

import (
	"ctox-dashboard/internal/dataset"
	"ctox-dashboard/internal/tabular"
)

// Columns added to the listings
const (
	ColCityState             = "cidade_uf"
	ColCompaniesInCity       = "qtd_empresas_cidade"
	ColActiveCompaniesInCity = "qtd_empresas_ativas_cidade"
	ColIdleCompaniesInCity   = "qtd_empresas_inativas_cidade"
	ColVoucherUsersInCity    = "qtd_empresas_usaram_voucher"
	ColNeverVoucherInCity    = "qtd_empresas_nunca_voucher"
	ColLabsInCity            = "qtd_pcls_cidade"
	ColLabInCity             = "pcl_na_cidade"
	ColActiveLabsInCity      = "qtd_pcls_ativos_cidade"
	ColIdleLabsInCity        = "qtd_pcls_inativos_cidade"
)

// LabListing copies labs and adds the company counts of each lab's city.
// The counts come from the whole company roster.
func LabListing(labs, companies *tabular.Table) *tabular.Table {
	out := labs.Clone()
	if out.Has(dataset.ColCity) && out.Has(dataset.ColState) {
		out.Set(ColCityState, func(r tabular.Row) any {
			return tabular.String(r[dataset.ColCity]) + "-" + tabular.String(r[dataset.ColState])
		})
	}
	if !out.Has(dataset.ColCity) || companies.Empty() || !companies.Has(dataset.ColCity) {
		return out
	}

	total := countBy(companies, dataset.ColCity, nil)
	active := countBy(companies, dataset.ColCity, isActive)
	out.Set(ColCompaniesInCity, cityCount(total))
	out.Set(ColActiveCompaniesInCity, cityCount(active))
	out.Set(ColIdleCompaniesInCity, func(r tabular.Row) any {
		return r[ColCompaniesInCity].(int) - r[ColActiveCompaniesInCity].(int)
	})

	if companies.Has(dataset.ColVouchers) {
		used := countBy(companies, dataset.ColCity, func(r tabular.Row) bool {
			return tabular.NumberOr(r[dataset.ColVouchers], 0) > 0
		})
		never := countBy(companies, dataset.ColCity, func(r tabular.Row) bool {
			return tabular.NumberOr(r[dataset.ColVouchers], 0) == 0
		})
		out.Set(ColVoucherUsersInCity, cityCount(used))
		out.Set(ColNeverVoucherInCity, cityCount(never))
	}
	return out
}

// CompanyListing copies companies and adds the lab counts of each company's
// city. The counts come from the whole lab roster.
func CompanyListing(companies, labs *tabular.Table) *tabular.Table {
	out := companies.Clone()
	if !out.Has(dataset.ColCity) || labs.Empty() || !labs.Has(dataset.ColCity) {
		return out
	}

	total := countBy(labs, dataset.ColCity, nil)
	out.Set(ColLabsInCity, cityCount(total))
	out.Set(ColLabInCity, func(r tabular.Row) any {
		if r[ColLabsInCity].(int) > 0 {
			return "Sim"
		}
		return "Não"
	})

	if labs.Has(dataset.ColStatus) {
		active := countBy(labs, dataset.ColCity, isActive)
		out.Set(ColActiveLabsInCity, cityCount(active))
		out.Set(ColIdleLabsInCity, func(r tabular.Row) any {
			return r[ColLabsInCity].(int) - r[ColActiveLabsInCity].(int)
		})
	}
	return out
}

func cityCount(counts map[string]int) func(tabular.Row) any {
	return func(r tabular.Row) any {
		return counts[tabular.String(r[dataset.ColCity])]
	}
}
