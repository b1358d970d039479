// Package chat composes intent classification, retrieval, and answer
// synthesis into the conversational entry point.
package chat

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/cinerag/internal/domain"
)

const assistantPrompt = `You are a helpful movie database assistant. You have access to a database of movies with plot summaries and reviews.

Use the provided context to answer questions about movies. When discussing movies:
- Cite specific movies from the context
- Mention relevant details like year, director, rating when helpful
- If the context doesn't contain enough information, say so honestly
- Be conversational and engaging

If asked about movies not in the context, be honest that you can only discuss movies in the database.`

const (
	synthesisTemperature = 0.7
	synthesisMaxTokens   = 1000

	// historyLimit bounds how many prior turns are replayed to the model.
	historyLimit = 6
)

// Classifier is the consumer interface for intent analysis (ISP).
type Classifier interface {
	Classify(ctx context.Context, query string) (domain.IntentAnalysis, domain.TokenUsage, error)
}

// Gatherer is the consumer interface for context retrieval (ISP).
type Gatherer interface {
	Gather(ctx context.Context, query string, analysis domain.IntentAnalysis) (domain.RetrievalContext, domain.TokenUsage)
}

// Usage is the per-request token accounting breakdown.
type Usage struct {
	IntentAnalysis     domain.TokenUsage `json:"intent_analysis"`
	ResponseGeneration domain.TokenUsage `json:"response_generation"`
	Total              domain.TokenUsage `json:"total"`
}

// Result is the full outcome of one chat message.
type Result struct {
	Answer  string              `json:"response"`
	Intent  domain.Intent       `json:"intent"`
	Sources domain.SourceCounts `json:"sources"`
	Usage   Usage               `json:"token_usage"`
}

// Service handles chat messages end to end.
type Service struct {
	classifier Classifier
	gatherer   Gatherer
	llm        domain.Completer
	logger     *zap.Logger
}

// New creates a chat service.
func New(classifier Classifier, gatherer Gatherer, llm domain.Completer, logger *zap.Logger) *Service {
	return &Service{classifier: classifier, gatherer: gatherer, llm: llm, logger: logger}
}

// ProcessMessage classifies the query, gathers context, and synthesizes an
// answer. Retrieval failures degrade to partial or empty context; a synthesis
// failure is fatal for the request.
func (s *Service) ProcessMessage(ctx context.Context, query string, history []domain.Message) (Result, error) {
	analysis, intentUsage, err := s.classifier.Classify(ctx, query)
	if err != nil {
		return Result{}, fmt.Errorf("analyze intent: %w", err)
	}

	rc, retrievalUsage := s.gatherer.Gather(ctx, query, analysis)
	if retrievalUsage.TotalTokens > 0 {
		s.logger.Debug("Retrieval token usage", zap.Int("total_tokens", retrievalUsage.TotalTokens))
	}

	answer, synthUsage, err := s.Synthesize(ctx, query, FormatContext(rc), history)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Answer:  answer,
		Intent:  analysis.Intent,
		Sources: rc.Sources(),
		Usage: Usage{
			IntentAnalysis:     intentUsage,
			ResponseGeneration: synthUsage,
			Total:              intentUsage.Add(synthUsage),
		},
	}, nil
}

// Synthesize generates the final answer from the formatted context and the
// recent conversation history.
func (s *Service) Synthesize(ctx context.Context, query, contextText string, history []domain.Message) (string, domain.TokenUsage, error) {
	if len(history) > historyLimit {
		history = history[len(history)-historyLimit:]
	}

	messages := make([]domain.Message, 0, len(history)+1)
	messages = append(messages, history...)
	messages = append(messages, domain.Message{
		Role:    domain.RoleUser,
		Content: fmt.Sprintf("Context from database:\n%s\n\nUser question: %s", contextText, query),
	})

	result, err := s.llm.Complete(ctx, domain.CompletionRequest{
		SystemPrompt: assistantPrompt,
		Messages:     messages,
		Temperature:  synthesisTemperature,
		MaxTokens:    synthesisMaxTokens,
	})
	if err != nil {
		return "", domain.TokenUsage{}, fmt.Errorf("%w: %w", domain.ErrSynthesisFailed, err)
	}

	return result.Text, result.Usage, nil
}
