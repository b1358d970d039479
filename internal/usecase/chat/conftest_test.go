package chat

import (
	"context"

	"go.uber.org/zap"

	"github.com/kailas-cloud/cinerag/internal/domain"
)

type mockClassifier struct {
	analysis domain.IntentAnalysis
	usage    domain.TokenUsage
	err      error
}

func (m *mockClassifier) Classify(_ context.Context, _ string) (domain.IntentAnalysis, domain.TokenUsage, error) {
	return m.analysis, m.usage, m.err
}

type mockGatherer struct {
	rc    domain.RetrievalContext
	usage domain.TokenUsage

	lastAnalysis domain.IntentAnalysis
}

func (m *mockGatherer) Gather(_ context.Context, _ string, analysis domain.IntentAnalysis) (domain.RetrievalContext, domain.TokenUsage) {
	m.lastAnalysis = analysis
	return m.rc, m.usage
}

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

func newTestService(c *mockClassifier, g *mockGatherer, llm *mockCompleter) *Service {
	return New(c, g, llm, zap.NewNop())
}
