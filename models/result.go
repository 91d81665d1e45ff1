package models

// SearchResult is the envelope returned for one search call.
type SearchResult struct {
	Listings        []Listing `json:"listings"`
	TotalFound      int       `json:"total_found"`
	SourcesSearched []string  `json:"sources_searched"`
	FromCache       bool      `json:"from_cache"`
	ExecutionTimeMS int64     `json:"execution_time_ms"`
	Errors          []string  `json:"errors"`
	Synthesis       string    `json:"synthesis,omitempty"`
}
