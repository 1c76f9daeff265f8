package llm

import (
	"context"
	"sync"
)

// MockClient is a test double with per-method function fields and call
// counters.
type MockClient struct {
	mu sync.Mutex

	ChatFunc       func(ctx context.Context, model string, messages []Message) (string, error)
	EmbedFunc      func(ctx context.Context, model, input string) ([]float32, error)
	ListModelsFunc func(ctx context.Context) ([]string, error)
	PullFunc       func(ctx context.Context, model string) error

	ChatCalls       int
	EmbedCalls      int
	ListModelsCalls int
	PullCalls       int

	// LastChatMessages records the messages of the most recent Chat call so
	// tests can assert on prompt construction.
	LastChatMessages []Message
	LastChatModel    string
}

// NewMockClient returns a mock whose methods succeed with zero values.
func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) Chat(ctx context.Context, model string, messages []Message) (string, error) {
	m.mu.Lock()
	m.ChatCalls++
	m.LastChatModel = model
	m.LastChatMessages = messages
	fn := m.ChatFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, model, messages)
	}
	return "", nil
}

func (m *MockClient) Embed(ctx context.Context, model, input string) ([]float32, error) {
	m.mu.Lock()
	m.EmbedCalls++
	fn := m.EmbedFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, model, input)
	}
	return []float32{0}, nil
}

func (m *MockClient) ListModels(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	m.ListModelsCalls++
	fn := m.ListModelsFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx)
	}
	return nil, nil
}

func (m *MockClient) Pull(ctx context.Context, model string) error {
	m.mu.Lock()
	m.PullCalls++
	fn := m.PullFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, model)
	}
	return nil
}

var _ Client = (*MockClient)(nil)
