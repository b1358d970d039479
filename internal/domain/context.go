package domain

// RetrievalContext holds everything gathered for one query. Built fresh per
// request and owned exclusively by the orchestrator until formatting.
type RetrievalContext struct {
	SemanticMovies   []ScoredMovie
	SemanticReviews  []ScoredReview
	StructuredMovies []Movie
	Statistics       *Statistics
}

// Empty reports whether retrieval produced nothing at all.
func (rc *RetrievalContext) Empty() bool {
	return len(rc.SemanticMovies) == 0 &&
		len(rc.SemanticReviews) == 0 &&
		len(rc.StructuredMovies) == 0 &&
		rc.Statistics == nil
}

// SourceCounts is the provenance metadata returned with each answer.
type SourceCounts struct {
	VectorMatches  int  `json:"vector_matches"`
	SQLMatches     int  `json:"sql_matches"`
	UsedStatistics bool `json:"used_statistics"`
}

// Sources summarizes where the context came from.
func (rc *RetrievalContext) Sources() SourceCounts {
	return SourceCounts{
		VectorMatches:  len(rc.SemanticMovies) + len(rc.SemanticReviews),
		SQLMatches:     len(rc.StructuredMovies),
		UsedStatistics: rc.Statistics != nil,
	}
}
