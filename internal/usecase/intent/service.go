// Package intent classifies user queries into retrieval strategies.
package intent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/cinerag/internal/domain"
)

const classifierPrompt = `You are a query analyzer for a movie database. Analyze the user's query and return a JSON object with:
- "intent": one of ["semantic_search", "structured_query", "hybrid"]
- "filters": object with any extracted filters like {"year": 1994, "director": "name", "genre": "action", "actor": "name", "min_rating": 8.0}
- "keywords": array of important keywords for search
- "needs_statistics": boolean if they're asking for stats/counts

Examples:
- "movies about space travel" -> {"intent": "semantic_search", "filters": {}, "keywords": ["space", "travel"]}
- "Nolan movies" -> {"intent": "structured_query", "filters": {"director": "Nolan"}, "keywords": ["Nolan"]}
- "movies with Tom Hanks" -> {"intent": "structured_query", "filters": {"actor": "Tom Hanks"}, "keywords": ["Tom Hanks"]}
- "Leonardo DiCaprio sci-fi movies" -> {"intent": "hybrid", "filters": {"actor": "Leonardo DiCaprio", "genre": "sci-fi"}, "keywords": ["DiCaprio", "sci-fi"]}
- "how many movies are in the database" -> {"intent": "structured_query", "filters": {}, "keywords": [], "needs_statistics": true}

Return ONLY valid JSON, no markdown or explanation.`

// Service turns a free-text query into an IntentAnalysis via the language model.
type Service struct {
	llm    domain.Completer
	logger *zap.Logger
}

// New creates an intent classification service.
func New(llm domain.Completer, logger *zap.Logger) *Service {
	return &Service{llm: llm, logger: logger}
}

// Classify asks the model for a structured analysis of the query.
// A malformed model response never fails the request: it falls back to
// hybrid retrieval over the whitespace-split query. Transport errors propagate.
func (s *Service) Classify(ctx context.Context, query string) (domain.IntentAnalysis, domain.TokenUsage, error) {
	result, err := s.llm.Complete(ctx, domain.CompletionRequest{
		SystemPrompt: classifierPrompt,
		Messages: []domain.Message{
			{Role: domain.RoleUser, Content: query},
		},
		Temperature: 0,
	})
	if err != nil {
		return domain.IntentAnalysis{}, domain.TokenUsage{}, fmt.Errorf("classify query: %w", err)
	}

	analysis, ok := decodeAnalysis(result.Text)
	if !ok {
		s.logger.Warn("Unparseable classifier output, falling back to hybrid",
			zap.String("output", result.Text))
		return domain.FallbackAnalysis(query), result.Usage, nil
	}

	return analysis, result.Usage, nil
}

// decodeAnalysis strictly decodes the classifier JSON. Unknown fields, type
// mismatches, and out-of-enum intents all reject the output as a whole; there
// is exactly one fallback path, not per-field repair.
func decodeAnalysis(text string) (domain.IntentAnalysis, bool) {
	var analysis domain.IntentAnalysis

	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&analysis); err != nil {
		return domain.IntentAnalysis{}, false
	}
	if !analysis.Intent.Valid() {
		return domain.IntentAnalysis{}, false
	}
	return analysis, true
}
