package dashboard

import (
	"ctox-dashboard/internal/analysis"
	"ctox-dashboard/internal/tabular"
)

// Filter selects a state and a city; sentinels or empty values select all
type Filter struct {
	State string
	City  string
}

// TableResponse is a listing with its row count
type TableResponse struct {
	Total int `json:"total"`
	*tabular.Table
}

// AnalysisResponse is the result of one cross analysis
type AnalysisResponse struct {
	Report analysis.Report `json:"report"`
	TableResponse
}

// NoDataResponse is returned while neither dataset is available
type NoDataResponse struct {
	Error    string   `json:"error"`
	Warnings []string `json:"warnings"`
}

// Export is a named table ready to be written as a spreadsheet
type Export struct {
	FilePrefix string
	Sheet      string
	Table      *tabular.Table
}
