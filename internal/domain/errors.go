package domain

import "errors"

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrCompletionProviderError signals a chat completion provider failure.
	ErrCompletionProviderError = errors.New("completion provider error")
	// ErrSynthesisFailed signals that the final answer could not be generated.
	// Unlike retrieval path failures this is fatal for the request.
	ErrSynthesisFailed = errors.New("answer synthesis failed")
)
