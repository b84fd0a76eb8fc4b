package domain

// StageError is one failure recorded against a pipeline stage.
type StageError struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

// Stats are the run statistics persisted with every checkpoint and in the report file.
type Stats struct {
	ItemsScraped         int            `json:"items_scraped"`
	BrandsDiscovered     int            `json:"brands_discovered"`
	DiscussionsCollected int            `json:"discussions_collected"`
	Sources              map[string]int `json:"sources"`
	Errors               []StageError   `json:"errors"`
}

// NewStats returns zeroed stats with non-nil collections.
func NewStats() Stats {
	return Stats{Sources: map[string]int{}, Errors: []StageError{}}
}

// Summary is the operator-facing roll-up of a pipeline state.
type Summary struct {
	TotalItems       int            `json:"total_items"`
	TotalBrands      int            `json:"total_brands"`
	TotalDiscussions int            `json:"total_discussions"`
	UniqueBrands     int            `json:"unique_brands"`
	Sources          map[string]int `json:"sources"`
	Errors           int            `json:"errors"`
}
