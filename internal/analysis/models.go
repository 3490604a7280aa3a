package analysis

// StatusSummary counts the records of one dataset by status
type StatusSummary struct {
	Total         int     `json:"total"`
	Active        int     `json:"active"`
	Inactive      int     `json:"inactive"`
	ActivePercent float64 `json:"active_percent"`
}

// Count is a grouped record count
type Count struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// Overview holds the headline metrics of both datasets
type Overview struct {
	Labs                 StatusSummary `json:"labs"`
	Companies            StatusSummary `json:"companies"`
	TotalCollections     float64       `json:"total_collections"`
	TotalVouchers        float64       `json:"total_vouchers"`
	CollectionsPerLab    float64       `json:"collections_per_lab"`
	VouchersPerCompany   float64       `json:"vouchers_per_company"`
	States               int           `json:"states"`
	Cities               int           `json:"cities"`
	LabsPerCompany       float64       `json:"labs_per_company"`
	TopStatesByLabs      []Count       `json:"top_states_by_labs"`
	TopStatesByCompanies []Count       `json:"top_states_by_companies"`
}

// Options are the values offered by the state and city filters, each
// starting with its "all" sentinel
type Options struct {
	States []string `json:"states"`
	Cities []string `json:"cities"`
}

// StateStatus counts active and inactive records of one state
type StateStatus struct {
	State    string `json:"uf"`
	Active   int    `json:"active"`
	Inactive int    `json:"inactive"`
	Total    int    `json:"total"`
}

// StateCollections aggregates lab collections of one state
type StateCollections struct {
	State string  `json:"uf"`
	Total float64 `json:"total"`
	Mean  float64 `json:"mean"`
	Labs  int     `json:"labs"`
}

// CollectionStats summarizes lab collection volumes
type CollectionStats struct {
	Total       float64            `json:"total"`
	Mean        float64            `json:"mean"`
	Median      float64            `json:"median"`
	Max         float64            `json:"max"`
	LabsWithAny int                `json:"labs_with_collections"`
	ByState     []StateCollections `json:"by_state"`
}
