// Package inference provides chat completions against OpenAI-compatible APIs.
//
// Client issues single requests to any OpenAI-compatible endpoint (Groq by
// default). Completer layers the call policy on top of a Provider: an
// ordered list of candidate models, exponential backoff on rate limiting,
// and an immediate abort on transport failures.
//
// Example usage:
//
//	client, _ := inference.NewClient(
//	    inference.WithAPIKey(os.Getenv("GROQ_API_KEY")),
//	)
//	defer client.Close()
//
//	completer, _ := inference.NewCompleter(client,
//	    inference.WithModelOverride(os.Getenv("GROQ_MODEL")),
//	)
//
//	reply, err := completer.Complete(ctx, systemPrompt, history, 0.4, 3)
package inference

import "context"

// Provider is a chat completion backend.
type Provider interface {
	// Chat issues exactly one completion request.
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// Health checks provider connectivity and API key validity.
	Health(ctx context.Context) error

	// Close releases any resources held by the provider.
	Close() error
}

// ChatRequest for chat completions.
type ChatRequest struct {
	// Messages is the conversation history, system prompt first.
	Messages []Message

	// Model overrides the default model.
	Model string

	// MaxTokens limits the response length.
	MaxTokens int

	// Temperature controls randomness (0.0-2.0). Nil uses the client
	// default; use Temp to ask for an exact value, including 0.
	Temperature *float64
}

// Temp returns a pointer to t for ChatRequest.Temperature.
func Temp(t float64) *float64 {
	return &t
}

// ChatResponse from chat completion.
type ChatResponse struct {
	// Message is the assistant's response.
	Message Message

	// FinishReason indicates why generation stopped.
	FinishReason string

	// Usage tracks token consumption.
	Usage Usage

	// Model used for generation.
	Model string

	// LatencyMs is the response time in milliseconds.
	LatencyMs int64
}

// Usage tracks token consumption for billing and limits.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}
