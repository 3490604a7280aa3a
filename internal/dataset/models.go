package dataset

import (
	"time"

	"ctox-dashboard/internal/tabular"
)

// Canonical column names
const (
	ColCNPJ               = "cnpj"
	ColLegalName          = "razao_social"
	ColTradeName          = "nome_fantasia"
	ColAccreditedAt       = "data_credenciamento"
	ColLastCollectionDate = "data_ultima_coleta"
	ColLastVoucher        = "ultima_coleta_voucher"
	ColLastNonVoucher     = "ultima_coleta_nao_voucher"
	ColDaysVoucher        = "dias_sem_coleta_voucher"
	ColDaysNonVoucher     = "dias_sem_coleta_nao_voucher"
	ColCity               = "cidade"
	ColState              = "uf"
	ColRepresentative     = "representante"
	ColVouchers           = "acumulado_vouchers"
	ColNonVoucher         = "acumulado_coletas_nao_voucher"
	ColVouchers2024       = "vouchers_2024"
	ColVouchers2025       = "vouchers_2025"
	ColNonVoucher2024     = "coletas_nao_voucher_2024"
	ColNonVoucher2025     = "coletas_nao_voucher_2025"
	ColCollections        = "acumulado_coletas"
	ColCollections2024    = "coletas_2024"
	ColCollections2025    = "coletas_2025"

	// lab source columns that keep their lower-cased header
	ColActiveFlag      = "ativo em coletas"
	ColDaysWithoutColl = "dias sem coleta"

	// derived
	ColTotal           = "acumulado_coletas_total"
	ColDaysMin         = "dias_sem_coleta_min"
	ColLastCollection  = "ultima_coleta"
	ColCollectionsYear = "acumulado_coletas_ano"
	ColStatus          = "status"
)

// Status values
const (
	StatusActive   = "Ativo"
	StatusInactive = "Inativo"
)

// Kind identifies one of the two datasets
type Kind string

const (
	Companies Kind = "companies"
	Labs      Kind = "labs"
)

// Folder names of the remote library and of the local fallback
const (
	ParentFolder    = "Data Analysis"
	CompaniesFolder = "Acumulado de Coletas - Empresas"
	LabsFolder      = "Acumulado de Coletas - Labs"
)

// Kinds lists the datasets in load order
var Kinds = []Kind{Companies, Labs}

// Folder returns the folder name holding the dataset's spreadsheets
func (k Kind) Folder() string {
	if k == Labs {
		return LabsFolder
	}
	return CompaniesFolder
}

// RemotePath returns the folder path relative to the library root
func (k Kind) RemotePath() string {
	return ParentFolder + "/" + k.Folder()
}

// ParseKind accepts the dataset names used in URLs
func ParseKind(s string) (Kind, bool) {
	switch Kind(s) {
	case Companies, Labs:
		return Kind(s), true
	}
	return "", false
}

// Origin tells where a dataset file came from
type Origin string

const (
	OriginRemote Origin = "sharepoint"
	OriginLocal  Origin = "local"
)

// FileInfo describes the file a dataset was read from
type FileInfo struct {
	Name         string `json:"name"`
	Path         string `json:"path"`
	Origin       Origin `json:"origin"`
	LastModified string `json:"last_modified,omitempty"`
}

// SourceInfo records the file used for each dataset, nil when unresolved
type SourceInfo struct {
	Companies *FileInfo `json:"companies"`
	Labs      *FileInfo `json:"labs"`
}

// Result is the raw outcome of one load. Tables are never nil.
type Result struct {
	Companies *tabular.Table
	Labs      *tabular.Table
	Warnings  []string
	Sources   SourceInfo
}

// Dataset is a classified load result as served by the Cache
type Dataset struct {
	Companies *tabular.Table `json:"-"`
	Labs      *tabular.Table `json:"-"`
	Warnings  []string       `json:"warnings"`
	Sources   SourceInfo     `json:"sources"`
	LoadedAt  time.Time      `json:"loaded_at"`
}

// Empty reports whether neither dataset could be resolved
func (d *Dataset) Empty() bool {
	return d == nil || (d.Companies.Empty() && d.Labs.Empty())
}

// Table returns the table of a dataset kind
func (d *Dataset) Table(kind Kind) *tabular.Table {
	if kind == Labs {
		return d.Labs
	}
	return d.Companies
}
