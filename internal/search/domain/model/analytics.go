package model

// PopularSearch is one entry in the popular-searches ranking: a query
// and how many times it was searched inside the aggregation window.
type PopularSearch struct {
	Query       string `json:"query"`
	SearchCount int    `json:"search_count"`
}
