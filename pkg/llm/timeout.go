package llm

import (
	"context"
	"time"
)

type timeoutClient struct {
	inner   Client
	timeout time.Duration
}

// WithTimeout wraps a Client so each Chat, Embed, and ListModels call is
// bounded by timeout on top of whatever deadline the caller's context
// carries. Pull is left unbounded: model downloads routinely take minutes
// and are already cancelable through ctx. A non-positive timeout returns
// the client unchanged.
func WithTimeout(inner Client, timeout time.Duration) Client {
	if timeout <= 0 {
		return inner
	}
	return &timeoutClient{inner: inner, timeout: timeout}
}

func (c *timeoutClient) Chat(ctx context.Context, model string, messages []Message) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.inner.Chat(ctx, model, messages)
}

func (c *timeoutClient) Embed(ctx context.Context, model, input string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.inner.Embed(ctx, model, input)
}

func (c *timeoutClient) ListModels(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.inner.ListModels(ctx)
}

func (c *timeoutClient) Pull(ctx context.Context, model string) error {
	return c.inner.Pull(ctx, model)
}

var _ Client = (*timeoutClient)(nil)
