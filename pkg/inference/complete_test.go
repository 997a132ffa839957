package inference

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// sleepRecorder records backoff waits without sleeping.
type sleepRecorder struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.waits = append(s.waits, d)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *sleepRecorder) recorded() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.waits...)
}

func newTestCompleter(t *testing.T, p Provider, rec *sleepRecorder, models ...string) *Completer {
	t.Helper()
	c, err := NewCompleter(p,
		WithCandidates(models...),
		WithBackoff(time.Second, rec.sleep),
	)
	if err != nil {
		t.Fatalf("NewCompleter: %v", err)
	}
	return c
}

func statusErr(kind ErrorKind, status int, model string) error {
	return &APIError{Kind: kind, StatusCode: status, Model: model, Provider: "test"}
}

func TestCompleteFallsThroughOnServerError(t *testing.T) {
	mock := &Mock{ChatFunc: func(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
		if req.Model == "first" {
			return nil, statusErr(KindHTTPStatus, 500, req.Model)
		}
		return &ChatResponse{Message: NewAssistantMessage("  respuesta del segundo \n")}, nil
	}}
	rec := &sleepRecorder{}
	c := newTestCompleter(t, mock, rec, "first", "second")

	got, err := c.Complete(context.Background(), "sistema", nil, 0.4, 3)
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if got != "respuesta del segundo" {
		t.Errorf("Expected trimmed content of second candidate, got %q", got)
	}
	if n := mock.ModelCalls("first"); n != 1 {
		t.Errorf("Expected first candidate called once, got %d", n)
	}
	if n := mock.ModelCalls("second"); n != 1 {
		t.Errorf("Expected second candidate called once, got %d", n)
	}
	if len(rec.recorded()) != 0 {
		t.Errorf("Expected no backoff, got %v", rec.recorded())
	}
}

func TestCompleteBacksOffOnRateLimit(t *testing.T) {
	calls := 0
	mock := &Mock{ChatFunc: func(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
		calls++
		if calls <= 2 {
			return nil, statusErr(KindRateLimited, 429, req.Model)
		}
		return &ChatResponse{Message: NewAssistantMessage("por fin")}, nil
	}}
	rec := &sleepRecorder{}
	c := newTestCompleter(t, mock, rec, "only", "unused")

	got, err := c.Complete(context.Background(), "sistema", nil, 0.4, 3)
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if got != "por fin" {
		t.Errorf("Expected 'por fin', got %q", got)
	}

	waits := rec.recorded()
	if len(waits) != 2 || waits[0] != time.Second || waits[1] != 2*time.Second {
		t.Errorf("Expected waits [1s 2s], got %v", waits)
	}
	if mock.ModelCalls("only") != 3 {
		t.Errorf("Expected 3 calls to the same candidate, got %d", mock.ModelCalls("only"))
	}
	if mock.ModelCalls("unused") != 0 {
		t.Error("Next candidate should not be tried after success")
	}
}

func TestCompleteRateLimitExhaustsRetries(t *testing.T) {
	mock := &Mock{ChatFunc: func(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
		if req.Model == "busy" {
			return nil, statusErr(KindRateLimited, 429, req.Model)
		}
		return &ChatResponse{Message: NewAssistantMessage("ok")}, nil
	}}
	rec := &sleepRecorder{}
	c := newTestCompleter(t, mock, rec, "busy", "free")

	got, err := c.Complete(context.Background(), "", nil, 0.4, 2)
	if err != nil || got != "ok" {
		t.Fatalf("Expected fallback to free model, got %q, %v", got, err)
	}
	if mock.ModelCalls("busy") != 3 {
		t.Errorf("Expected 1 try + 2 retries, got %d", mock.ModelCalls("busy"))
	}
	waits := rec.recorded()
	if len(waits) != 2 || waits[1] != 2*time.Second {
		t.Errorf("Unexpected waits %v", waits)
	}
}

func TestCompleteTransportAborts(t *testing.T) {
	cause := errors.New("connection refused")
	mock := &Mock{ChatFunc: func(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
		return nil, &APIError{Kind: KindTransport, Model: req.Model, Provider: "test", Err: cause}
	}}
	rec := &sleepRecorder{}
	c := newTestCompleter(t, mock, rec, "a", "b")

	_, err := c.Complete(context.Background(), "", nil, 0.4, 3)
	if KindOf(err) != KindTransport {
		t.Fatalf("Expected transport error, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Error("Expected the cause to be preserved")
	}
	if mock.ModelCalls("b") != 0 {
		t.Error("Transport failure must not advance to the next candidate")
	}
}

func TestCompleteExhausted(t *testing.T) {
	mock := &Mock{ChatFunc: func(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
		return nil, statusErr(KindHTTPStatus, 404, req.Model)
	}}
	c := newTestCompleter(t, mock, &sleepRecorder{}, "a", "b", "c")

	_, err := c.Complete(context.Background(), "", nil, 0.4, 3)
	apiErr, ok := AsAPIError(err)
	if !ok || apiErr.Kind != KindExhausted {
		t.Fatalf("Expected exhausted error, got %v", err)
	}
	last, ok := AsAPIError(apiErr.Err)
	if !ok || last.Model != "c" {
		t.Errorf("Expected last cause from model c, got %v", apiErr.Err)
	}
	if mock.CallCount("Chat") != 3 {
		t.Errorf("Expected one call per candidate, got %d", mock.CallCount("Chat"))
	}
}

func TestCompleteEmptyContentFallsThrough(t *testing.T) {
	mock := &Mock{ChatFunc: func(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
		if req.Model == "a" {
			return &ChatResponse{Message: NewAssistantMessage("   ")}, nil
		}
		return &ChatResponse{Message: NewAssistantMessage("hola")}, nil
	}}
	c := newTestCompleter(t, mock, &sleepRecorder{}, "a", "b")

	got, err := c.Complete(context.Background(), "", nil, 0.4, 3)
	if err != nil || got != "hola" {
		t.Errorf("Expected 'hola', got %q, %v", got, err)
	}
}

func TestCompleteCancelled(t *testing.T) {
	mock := NewMock()
	c := newTestCompleter(t, mock, &sleepRecorder{}, "a")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Complete(ctx, "", nil, 0.4, 3)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if mock.CallCount("Chat") != 0 {
		t.Error("No request should be issued after cancellation")
	}
}

func TestCompleteCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	mock := &Mock{ChatFunc: func(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
		cancel()
		return nil, statusErr(KindRateLimited, 429, req.Model)
	}}
	c := newTestCompleter(t, mock, &sleepRecorder{}, "a", "b")

	_, err := c.Complete(ctx, "", nil, 0.4, 3)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if mock.CallCount("Chat") != 1 {
		t.Errorf("Expected a single request, got %d", mock.CallCount("Chat"))
	}
}

func TestCompleteBuildsMessages(t *testing.T) {
	mock := NewMock()
	c := newTestCompleter(t, mock, &sleepRecorder{}, "a")

	history := []Message{
		NewSystemMessage("ignored"),
		NewUserMessage("Hola profesora"),
		NewAssistantMessage("Hola Carlos"),
	}
	if _, err := c.Complete(context.Background(), "Eres profesora", history, 0.4, 3); err != nil {
		t.Fatal(err)
	}

	sent := mock.LastCall().Messages
	if len(sent) != 3 {
		t.Fatalf("Expected 3 messages, got %d", len(sent))
	}
	if sent[0].Role != RoleSystem || sent[0].Content != "Eres profesora" {
		t.Errorf("Expected prompt first, got %+v", sent[0])
	}
	if sent[1].Content != "Hola profesora" || sent[2].Content != "Hola Carlos" {
		t.Errorf("History order not preserved: %+v", sent)
	}
}

func TestCompleteNoCandidates(t *testing.T) {
	_, err := NewCompleter(NewMock(), WithCandidates())
	if !errors.Is(err, ErrNoCandidates) {
		t.Errorf("Expected ErrNoCandidates, got %v", err)
	}
}

func TestCompleteAgainstHTTP(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]int{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Model string `json:"model"`
		}
		json.NewDecoder(r.Body).Decode(&body)

		mu.Lock()
		seen[body.Model]++
		mu.Unlock()

		if body.Model == "broken" {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error": {"message": "internal"}}`))
			return
		}
		w.Write([]byte(`{"choices": [{"message": {"role": "assistant", "content": "La fotosíntesis es..."}}]}`))
	}))
	defer server.Close()

	client, _ := NewClient(WithBaseURL(server.URL), WithAPIKey("k"))
	c := newTestCompleter(t, client, &sleepRecorder{}, "broken", "healthy")

	got, err := c.Complete(context.Background(), "", []Message{NewUserMessage("¿Qué es la fotosíntesis?")}, 0.4, 3)
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if got != "La fotosíntesis es..." {
		t.Errorf("Unexpected reply %q", got)
	}
	if seen["broken"] != 1 || seen["healthy"] != 1 {
		t.Errorf("Unexpected request counts %v", seen)
	}
}
