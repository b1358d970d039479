package openai

import (
	"context"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/cinerag/internal/domain"
	"github.com/kailas-cloud/cinerag/internal/metrics"
)

// Completer is a chat completion provider using the OpenAI-compatible API.
type Completer struct {
	client   *openai.Client
	model    string
	provider string
	logger   *zap.Logger
}

// CompleterConfig holds the completion provider settings.
type CompleterConfig struct {
	APIKey   string
	BaseURL  string
	Model    string
	Provider string
	Timeout  time.Duration
	Logger   *zap.Logger
}

// NewCompleter creates an OpenAI-compatible chat completion provider.
func NewCompleter(cfg *CompleterConfig) *Completer {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	// The default client has no timeout; a hung provider would pin the request.
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Completer{
		client:   openai.NewClientWithConfig(clientCfg),
		model:    cfg.Model,
		provider: cfg.Provider,
		logger:   cfg.Logger,
	}
}

// Complete implements domain.Completer. The system prompt is prepended to the
// conversation turns.
func (c *Completer) Complete(ctx context.Context, req domain.CompletionRequest) (domain.CompletionResult, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	start := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})

	duration := time.Since(start)

	if err != nil {
		metrics.CompletionRequestsTotal.WithLabelValues(c.provider, c.model, "error").Inc()
		return domain.CompletionResult{}, parseAPIError("completion", err, domain.ErrCompletionProviderError)
	}

	if len(resp.Choices) == 0 {
		metrics.CompletionRequestsTotal.WithLabelValues(c.provider, c.model, "error").Inc()
		return domain.CompletionResult{}, fmt.Errorf("empty completion response: %w", domain.ErrCompletionProviderError)
	}

	metrics.CompletionRequestsTotal.WithLabelValues(c.provider, c.model, "success").Inc()
	metrics.CompletionRequestDuration.WithLabelValues(c.provider, c.model).Observe(duration.Seconds())

	if resp.Usage.TotalTokens > 0 {
		metrics.TokensTotal.WithLabelValues(c.provider, c.model, "prompt").Add(float64(resp.Usage.PromptTokens))
		metrics.TokensTotal.WithLabelValues(c.provider, c.model, "completion").Add(float64(resp.Usage.CompletionTokens))
		metrics.TokensTotal.WithLabelValues(c.provider, c.model, "total").Add(float64(resp.Usage.TotalTokens))
	}

	return domain.CompletionResult{
		Text: resp.Choices[0].Message.Content,
		Usage: domain.TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}
