package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ArmandoCS23/Hackaton-CallCenter/internal/httpc"
)

const providerClient = "client"

// Client is the standard HTTP-based inference provider.
// Works with any OpenAI-compatible API (Groq, OpenAI, Ollama, vLLM, Together, etc.).
// Each Chat call issues exactly one request; retry policy lives in Completer.
type Client struct {
	baseURL string
	apiKey  string
	config  *Config
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates a new inference client.
func NewClient(opts ...Option) (*Client, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = httpc.NewClient(cfg.Timeout)
	}

	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		config:  cfg,
		http:    hc,
		logger:  cfg.Logger.With("component", "inference.client"),
	}, nil
}

// Chat generates a chat completion.
func (c *Client) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	start := time.Now()

	model := req.Model
	if model == "" {
		model = c.config.Model
	}

	resp, err := c.post(ctx, "/chat/completions", c.buildChatPayload(req, model))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, c.transportError(model, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp, model)
	}

	var result chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &APIError{
			Kind:       KindHTTPStatus,
			StatusCode: resp.StatusCode,
			Message:    "decode response",
			Model:      model,
			Provider:   providerClient,
			Err:        err,
		}
	}

	if len(result.Choices) == 0 {
		return nil, &APIError{
			Kind:       KindHTTPStatus,
			StatusCode: resp.StatusCode,
			Message:    "no choices returned",
			Model:      model,
			Provider:   providerClient,
			Err:        ErrEmptyResponse,
		}
	}

	choice := result.Choices[0]

	c.logger.Debug("completion received",
		"model", model,
		"chars", len(choice.Message.Content),
		"latency_ms", time.Since(start).Milliseconds(),
	)

	return &ChatResponse{
		Message:      NewAssistantMessage(choice.Message.Content),
		FinishReason: choice.FinishReason,
		Usage: Usage{
			PromptTokens:     result.Usage.PromptTokens,
			CompletionTokens: result.Usage.CompletionTokens,
			TotalTokens:      result.Usage.TotalTokens,
		},
		Model:     result.Model,
		LatencyMs: time.Since(start).Milliseconds(),
	}, nil
}

// Health checks API connectivity.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return fmt.Errorf("inference [%s]: create request: %w", providerClient, err)
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return c.transportError("", fmt.Errorf("health check: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.parseError(resp, "")
	}
	return nil
}

// Close releases resources.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

// buildChatPayload constructs the API request payload.
func (c *Client) buildChatPayload(req *ChatRequest, model string) chatCompletionRequest {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.config.MaxTokens
	}

	temp := c.config.Temperature
	if req.Temperature != nil {
		temp = *req.Temperature
	}

	return chatCompletionRequest{
		Model:       model,
		Messages:    req.Messages,
		Temperature: temp,
		MaxTokens:   maxTokens,
	}
}

// post makes a single POST request.
func (c *Client) post(ctx context.Context, path string, payload interface{}) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	return c.http.Do(req)
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

func (c *Client) transportError(model string, err error) error {
	msg := ""
	if httpc.IsTimeout(err) {
		msg = fmt.Sprintf("no response within %s", c.config.Timeout)
	}
	return &APIError{
		Kind:     KindTransport,
		Message:  msg,
		Model:    model,
		Provider: providerClient,
		Err:      err,
	}
}

// parseError reads and parses an error response.
func (c *Client) parseError(resp *http.Response, model string) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	// Try to parse OpenAI-style error
	var errResp struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
			Code    string `json:"code"`
		} `json:"error"`
	}

	message := strings.TrimSpace(string(body))
	code := ""
	if json.Unmarshal(body, &errResp) == nil && errResp.Error.Message != "" {
		message = errResp.Error.Message
		code = errResp.Error.Code
	}

	kind := KindHTTPStatus
	if resp.StatusCode == http.StatusTooManyRequests {
		kind = KindRateLimited
	}

	return &APIError{
		Kind:       kind,
		StatusCode: resp.StatusCode,
		Message:    message,
		Code:       code,
		Model:      model,
		Provider:   providerClient,
	}
}

// API wire types
type chatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type chatCompletionResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Verify Client implements Provider at compile time.
var _ Provider = (*Client)(nil)
