package intent

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/cinerag/internal/domain"
)

type mockCompleter struct {
	text  string
	usage domain.TokenUsage
	err   error

	lastReq domain.CompletionRequest
}

func (m *mockCompleter) Complete(_ context.Context, req domain.CompletionRequest) (domain.CompletionResult, error) {
	m.lastReq = req
	if m.err != nil {
		return domain.CompletionResult{}, m.err
	}
	return domain.CompletionResult{Text: m.text, Usage: m.usage}, nil
}

func TestClassify_ValidOutput(t *testing.T) {
	llm := &mockCompleter{
		text:  `{"intent": "structured_query", "filters": {"director": "Nolan"}, "keywords": ["Nolan"], "needs_statistics": false}`,
		usage: domain.TokenUsage{PromptTokens: 100, CompletionTokens: 20, TotalTokens: 120},
	}
	svc := New(llm, zap.NewNop())

	analysis, usage, err := svc.Classify(context.Background(), "Nolan movies")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if analysis.Intent != domain.IntentStructuredQuery {
		t.Errorf("unexpected intent: %s", analysis.Intent)
	}
	if analysis.Filters.Director == nil || *analysis.Filters.Director != "Nolan" {
		t.Errorf("expected director filter, got %+v", analysis.Filters)
	}
	if usage.TotalTokens != 120 {
		t.Errorf("unexpected usage: %+v", usage)
	}
}

func TestClassify_UsesDeterministicTemperature(t *testing.T) {
	llm := &mockCompleter{text: `{"intent": "hybrid", "filters": {}, "keywords": []}`}
	svc := New(llm, zap.NewNop())

	if _, _, err := svc.Classify(context.Background(), "anything"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if llm.lastReq.Temperature != 0 {
		t.Errorf("classifier must run at temperature 0, got %f", llm.lastReq.Temperature)
	}
	if len(llm.lastReq.Messages) != 1 || llm.lastReq.Messages[0].Content != "anything" {
		t.Errorf("unexpected messages: %+v", llm.lastReq.Messages)
	}
}

func TestClassify_InvalidJSONFallsBack(t *testing.T) {
	llm := &mockCompleter{
		text:  "Sure! Here is the analysis you asked for...",
		usage: domain.TokenUsage{TotalTokens: 50},
	}
	svc := New(llm, zap.NewNop())

	analysis, usage, err := svc.Classify(context.Background(), "best space movies")
	if err != nil {
		t.Fatalf("malformed output must not fail: %v", err)
	}
	if analysis.Intent != domain.IntentHybrid {
		t.Errorf("expected hybrid fallback, got %s", analysis.Intent)
	}
	if len(analysis.Keywords) != 3 || analysis.Keywords[0] != "best" {
		t.Errorf("expected whitespace-split keywords, got %v", analysis.Keywords)
	}
	if usage.TotalTokens != 50 {
		t.Errorf("usage must survive the fallback, got %+v", usage)
	}
}

func TestClassify_UnknownIntentFallsBack(t *testing.T) {
	llm := &mockCompleter{
		text: `{"intent": "general_question", "filters": {}, "keywords": [], "needs_statistics": true}`,
	}
	svc := New(llm, zap.NewNop())

	analysis, _, err := svc.Classify(context.Background(), "how are you")
	if err != nil {
		t.Fatalf("out-of-enum intent must not fail: %v", err)
	}
	if analysis.Intent != domain.IntentHybrid {
		t.Errorf("expected hybrid fallback, got %s", analysis.Intent)
	}
	if analysis.NeedsStatistics {
		t.Error("fallback must not keep fields from the rejected output")
	}
}

func TestClassify_UnknownFieldFallsBack(t *testing.T) {
	llm := &mockCompleter{
		text: `{"intent": "hybrid", "filters": {}, "keywords": [], "year_range": [1990, 1999]}`,
	}
	svc := New(llm, zap.NewNop())

	analysis, _, err := svc.Classify(context.Background(), "90s movies")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(analysis.Keywords) != 2 {
		t.Errorf("expected fallback keywords, got %v", analysis.Keywords)
	}
}

func TestClassify_TransportErrorPropagates(t *testing.T) {
	llm := &mockCompleter{err: domain.ErrCompletionProviderError}
	svc := New(llm, zap.NewNop())

	_, _, err := svc.Classify(context.Background(), "anything")
	if !errors.Is(err, domain.ErrCompletionProviderError) {
		t.Fatalf("expected provider error, got %v", err)
	}
}
