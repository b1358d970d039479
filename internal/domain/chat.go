package domain

import "context"

// Message roles for conversation turns.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single conversation turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest describes one chat completion call.
type CompletionRequest struct {
	SystemPrompt string
	Messages     []Message
	Temperature  float32
	MaxTokens    int
}

// CompletionResult carries the generated text and its token accounting.
type CompletionResult struct {
	Text  string
	Usage TokenUsage
}

// Completer is the shared language-model contract between layers.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error)
}
