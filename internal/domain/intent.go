package domain

import "strings"

// Intent is the classifier's decision about which retrieval strategies a query needs.
type Intent string

// Intent values. The classifier contract allows exactly these three; anything else
// from the model is a contract violation handled by the fallback, not a new branch.
const (
	IntentSemanticSearch  Intent = "semantic_search"
	IntentStructuredQuery Intent = "structured_query"
	IntentHybrid          Intent = "hybrid"
)

// Valid reports whether the intent is one of the three enumerated values.
func (i Intent) Valid() bool {
	switch i {
	case IntentSemanticSearch, IntentStructuredQuery, IntentHybrid:
		return true
	}
	return false
}

// Filters holds the structured filters extracted from a query.
// Absent filters are nil; presence drives which lookups the orchestrator runs.
type Filters struct {
	Title     *string  `json:"title,omitempty"`
	Director  *string  `json:"director,omitempty"`
	Year      *int     `json:"year,omitempty"`
	Genre     *string  `json:"genre,omitempty"`
	Actor     *string  `json:"actor,omitempty"`
	MinRating *float64 `json:"min_rating,omitempty"`
}

// IntentAnalysis is the classifier output. Produced once per query, never mutated.
type IntentAnalysis struct {
	Intent          Intent   `json:"intent"`
	Filters         Filters  `json:"filters"`
	Keywords        []string `json:"keywords"`
	NeedsStatistics bool     `json:"needs_statistics"`
}

// FallbackAnalysis is the fixed safe default used when the classifier response
// cannot be decoded: hybrid retrieval over the whitespace-split query.
func FallbackAnalysis(query string) IntentAnalysis {
	return IntentAnalysis{
		Intent:   IntentHybrid,
		Keywords: strings.Fields(query),
	}
}
