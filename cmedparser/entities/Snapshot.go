package entities

// Metadata describes one complete materialization of the CMED dataset.
type Metadata struct {
	Source            string `json:"source"`
	URL               string `json:"url"`
	LastUpdate        string `json:"lastUpdate"`
	TotalSubstancias  int    `json:"totalSubstances"`
	TotalWithGenerics int    `json:"totalWithGenerics"`
	TotalWithSimilars int    `json:"totalWithSimilars"`
	TotalCategories   int    `json:"totalCategories"`
}

// Snapshot is the immutable result of one refresh run. It is written
// to disk as a whole and superseded, never mutated in place.
// The JSON keys match the persisted snapshot file format.
type Snapshot struct {
	Metadata     Metadata      `json:"metadata"`
	Categories   []string      `json:"categories"`
	Medicamentos []Medicamento `json:"medicines"`
}

// Pagination is the page envelope returned by every list query.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// RefreshResult reports the outcome of one refresh run.
type RefreshResult struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	Substancias int    `json:"substancias,omitempty"`
}
