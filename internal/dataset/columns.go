package dataset

import (
	"strings"

	"ctox-dashboard/internal/tabular"
)

// Synonym maps a lower-cased source header to its canonical column name
type Synonym struct {
	Source    string
	Canonical string
}

// ColumnSynonyms is consulted in order for every source column after trimming
// and lower-casing. Headers without an entry keep their lower-cased name.
var ColumnSynonyms = []Synonym{
	// identification
	{"cnpj da empresa", ColCNPJ},
	{"cnpj", ColCNPJ},
	{"nome da empresa", ColLegalName},
	{"razao social", ColLegalName},
	{"razão social", ColLegalName},
	{"nome fantasia", ColTradeName},

	// dates
	{"data de credenciamento", ColAccreditedAt},
	{"data credenciamento", ColAccreditedAt},
	{"data da última coleta", ColLastCollectionDate},
	{"data última coleta", ColLastCollectionDate},
	{"última coleta (voucher)", ColLastVoucher},
	{"última coleta (não-voucher)", ColLastNonVoucher},

	// days without collection
	{"dias sem coleta (voucher)", ColDaysVoucher},
	{"dias sem coleta (não-voucher)", ColDaysNonVoucher},

	// location
	{"cidade", ColCity},
	{"estado", ColState},
	{"uf", ColState},
	{"representante", ColRepresentative},

	// company counters
	{"acumulado coletas voucher", ColVouchers},
	{"acumulado coletas não-voucher", ColNonVoucher},
	{"total coletas voucher 2024", ColVouchers2024},
	{"total coletas voucher 2025", ColVouchers2025},
	{"total coletas não-voucher 2024", ColNonVoucher2024},
	{"total coletas não-voucher 2025", ColNonVoucher2025},

	// lab counters
	{"acumulado de coletas", ColCollections},
	{"total de coletas 2024", ColCollections2024},
	{"total de coletas 2025", ColCollections2025},
}

var synonymIndex = buildSynonymIndex(ColumnSynonyms)

func buildSynonymIndex(synonyms []Synonym) map[string]string {
	index := make(map[string]string, len(synonyms))
	for _, s := range synonyms {
		if _, ok := index[s.Source]; !ok {
			index[s.Source] = s.Canonical
		}
	}
	return index
}

func lowerName(column string) string {
	return strings.ToLower(strings.TrimSpace(column))
}

// canonicalName resolves the synonym of a lower-cased header
func canonicalName(name string) string {
	if canonical, ok := synonymIndex[name]; ok {
		return canonical
	}
	return name
}

// NormalizeColumns returns a copy of t with canonical column names. When two
// source columns resolve to the same name the first one keeps it. Applying it
// to an already normalized table is a no-op.
func NormalizeColumns(t *tabular.Table) *tabular.Table {
	out := t.Clone()
	out.RenameColumns(lowerName)
	out.RenameColumns(canonicalName)
	return out
}
