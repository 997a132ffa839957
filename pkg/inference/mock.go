package inference

import (
	"context"
	"sync"
	"time"
)

// Mock implements Provider for testing.
type Mock struct {
	// ChatFunc is called when Chat is invoked.
	ChatFunc func(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// HealthFunc is called when Health is invoked.
	HealthFunc func(ctx context.Context) error

	// CloseFunc is called when Close is invoked.
	CloseFunc func() error

	mu    sync.Mutex
	calls []MockCall
}

// MockCall records a method invocation.
type MockCall struct {
	Method   string
	Model    string
	Messages []Message
	Time     time.Time
}

// NewMock creates a new mock provider with sensible defaults.
func NewMock() *Mock {
	return &Mock{
		ChatFunc: func(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
			return &ChatResponse{
				Message:      NewAssistantMessage("Mock response"),
				FinishReason: "stop",
				Model:        req.Model,
				Usage:        Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
			}, nil
		},
		HealthFunc: func(ctx context.Context) error {
			return nil
		},
	}
}

// Replying returns a mock whose Chat answers with each reply in order,
// repeating the last one once the list is used up.
func Replying(replies ...string) *Mock {
	var mu sync.Mutex
	i := 0
	return &Mock{
		ChatFunc: func(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
			mu.Lock()
			defer mu.Unlock()
			text := ""
			if len(replies) > 0 {
				text = replies[min(i, len(replies)-1)]
			}
			i++
			return &ChatResponse{Message: NewAssistantMessage(text), FinishReason: "stop", Model: req.Model}, nil
		},
	}
}

// Chat calls ChatFunc and records the call.
func (m *Mock) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	m.record(MockCall{Method: "Chat", Model: req.Model, Messages: append([]Message(nil), req.Messages...)})
	if m.ChatFunc != nil {
		return m.ChatFunc(ctx, req)
	}
	return nil, &APIError{Kind: KindHTTPStatus, StatusCode: 503, Message: "mock has no ChatFunc", Provider: "mock"}
}

// Health calls HealthFunc and records the call.
func (m *Mock) Health(ctx context.Context) error {
	m.record(MockCall{Method: "Health"})
	if m.HealthFunc != nil {
		return m.HealthFunc(ctx)
	}
	return nil
}

// Close calls CloseFunc and records the call.
func (m *Mock) Close() error {
	m.record(MockCall{Method: "Close"})
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// record adds a call to the tracking list.
func (m *Mock) record(call MockCall) {
	m.mu.Lock()
	defer m.mu.Unlock()
	call.Time = time.Now()
	m.calls = append(m.calls, call)
}

// Calls returns all recorded method calls.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]MockCall, len(m.calls))
	copy(result, m.calls)
	return result
}

// CallCount returns the number of times a method was called.
func (m *Mock) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, c := range m.calls {
		if c.Method == method {
			count++
		}
	}
	return count
}

// ModelCalls returns how many Chat requests named model.
func (m *Mock) ModelCalls(model string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, c := range m.calls {
		if c.Method == "Chat" && c.Model == model {
			count++
		}
	}
	return count
}

// LastCall returns the most recent call, or nil if none.
func (m *Mock) LastCall() *MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return nil
	}
	call := m.calls[len(m.calls)-1]
	return &call
}

// Reset clears all recorded calls.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

// WithError returns a mock that always returns the given error.
func WithError(err error) *Mock {
	return &Mock{
		ChatFunc: func(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
			return nil, err
		},
		HealthFunc: func(ctx context.Context) error {
			return err
		},
	}
}

// Verify Mock implements Provider at compile time.
var _ Provider = (*Mock)(nil)
