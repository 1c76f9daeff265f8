// Package llm talks to a local Ollama instance for chat completions,
// embeddings, and model management.
package llm

import (
	"context"
	"time"
)

// Message is a single chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client is the interface services use to reach the model runtime.
type Client interface {
	// Chat sends the messages to the named model and returns the full
	// (non-streamed) response content.
	Chat(ctx context.Context, model string, messages []Message) (string, error)

	// Embed returns the embedding vector for the input text.
	Embed(ctx context.Context, model, input string) ([]float32, error)

	// ListModels returns the names of locally available models.
	ListModels(ctx context.Context) ([]string, error)

	// Pull downloads a model. Blocks until the pull completes.
	Pull(ctx context.Context, model string) error
}

// Recorder observes completed LLM calls. Implemented by the metrics package.
type Recorder interface {
	ObserveLLMRequest(model, operation string, success bool, duration time.Duration)
}

// Factory builds a Client for a host URL. Settings changes can point the
// engine at a different Ollama instance without a restart, so services hold
// a Factory rather than a fixed Client.
type Factory func(host string) Client
