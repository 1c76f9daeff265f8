package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"
	"go.uber.org/zap"
)

// DefaultHost is used when the configured host URL cannot be parsed.
const DefaultHost = "http://localhost:11434"

type ollamaClient struct {
	client   *api.Client
	logger   *zap.Logger
	recorder Recorder
}

// NewOllamaClient creates a Client backed by the Ollama HTTP API at host.
// recorder may be nil.
func NewOllamaClient(host string, logger *zap.Logger, recorder Recorder) Client {
	parsedURL, err := url.Parse(host)
	if err != nil || parsedURL.Scheme == "" {
		parsedURL, _ = url.Parse(DefaultHost)
	}

	return &ollamaClient{
		client:   api.NewClient(parsedURL, http.DefaultClient),
		logger:   logger,
		recorder: recorder,
	}
}

// NewFactory returns a Factory producing Ollama-backed clients with each
// call bounded by timeout.
func NewFactory(logger *zap.Logger, recorder Recorder, timeout time.Duration) Factory {
	return func(host string) Client {
		return WithTimeout(NewOllamaClient(host, logger, recorder), timeout)
	}
}

func (c *ollamaClient) observe(model, operation string, success bool, start time.Time) {
	if c.recorder != nil {
		c.recorder.ObserveLLMRequest(model, operation, success, time.Since(start))
	}
}

func (c *ollamaClient) Chat(ctx context.Context, model string, messages []Message) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("message list cannot be empty")
	}

	apiMessages := make([]api.Message, 0, len(messages))
	for _, msg := range messages {
		apiMessages = append(apiMessages, api.Message{Role: msg.Role, Content: msg.Content})
	}

	stream := false
	req := &api.ChatRequest{
		Model:    model,
		Messages: apiMessages,
		Stream:   &stream,
	}

	start := time.Now()
	var content string
	err := c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		content = resp.Message.Content
		return nil
	})
	c.observe(model, "chat", err == nil, start)
	if err != nil {
		c.logger.Warn("chat request failed", zap.String("model", model), zap.Error(err))
		return "", classifyError(err)
	}

	return content, nil
}

func (c *ollamaClient) Embed(ctx context.Context, model, input string) ([]float32, error) {
	start := time.Now()
	resp, err := c.client.Embed(ctx, &api.EmbedRequest{Model: model, Input: input})
	c.observe(model, "embed", err == nil, start)
	if err != nil {
		return nil, classifyError(err)
	}
	if len(resp.Embeddings) == 0 {
		return nil, fmt.Errorf("embedding response contained no vectors")
	}
	return resp.Embeddings[0], nil
}

func (c *ollamaClient) ListModels(ctx context.Context) ([]string, error) {
	resp, err := c.client.List(ctx)
	if err != nil {
		return nil, classifyError(err)
	}

	names := make([]string, 0, len(resp.Models))
	for _, m := range resp.Models {
		names = append(names, m.Model)
	}
	return names, nil
}

func (c *ollamaClient) Pull(ctx context.Context, model string) error {
	c.logger.Info("pulling model", zap.String("model", model))
	start := time.Now()
	err := c.client.Pull(ctx, &api.PullRequest{Model: model}, func(resp api.ProgressResponse) error {
		return nil
	})
	c.observe(model, "pull", err == nil, start)
	if err != nil {
		return classifyError(err)
	}
	c.logger.Info("model pull complete", zap.String("model", model))
	return nil
}

var _ Client = (*ollamaClient)(nil)
