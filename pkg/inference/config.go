package inference

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Groq defaults.
const (
	DefaultBaseURL     = "https://api.groq.com/openai/v1"
	DefaultModel       = "llama-3.1-8b-instant"
	DefaultMaxTokens   = 150
	DefaultTimeout     = 10 * time.Second
	DefaultBackoffBase = time.Second
)

// FallbackModels is tried in order after the environment override.
var FallbackModels = []string{
	"llama-3.3-70b-versatile",
	"llama-3.1-8b-instant",
	"openai/gpt-oss-20b",
	"openai/gpt-oss-120b",
}

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Config holds provider configuration.
type Config struct {
	// Connection
	BaseURL string // API base URL
	APIKey  string // Bearer token

	// Models
	Model      string   // Default chat model for bare Chat calls
	Candidates []string // Ordered candidate models for Completer

	// Request defaults
	MaxTokens   int
	Temperature float64

	// Timeouts
	Timeout time.Duration

	// Backoff on rate limiting: BackoffBase * 2^attempt.
	BackoffBase time.Duration
	Sleep       SleepFunc

	// HTTPClient overrides the client built from Timeout.
	HTTPClient *http.Client

	// Observability
	Logger *slog.Logger
}

// Option is a functional option for configuring providers.
type Option func(*Config)

// WithBaseURL sets the API base URL.
// Examples: "https://api.groq.com/openai/v1", "http://localhost:11434/v1"
func WithBaseURL(url string) Option {
	return func(c *Config) { c.BaseURL = url }
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) Option {
	return func(c *Config) { c.APIKey = key }
}

// WithModel sets the default chat model.
func WithModel(model string) Option {
	return func(c *Config) { c.Model = model }
}

// WithCandidates replaces the candidate model list.
func WithCandidates(models ...string) Option {
	return func(c *Config) { c.Candidates = CandidateModels("", models...) }
}

// WithModelOverride puts model ahead of the current candidates.
// An empty override is ignored.
func WithModelOverride(model string) Option {
	return func(c *Config) { c.Candidates = CandidateModels(model, c.Candidates...) }
}

// WithMaxTokens sets the default max tokens.
func WithMaxTokens(n int) Option {
	return func(c *Config) { c.MaxTokens = n }
}

// WithTemperature sets the default temperature.
func WithTemperature(t float64) Option {
	return func(c *Config) { c.Temperature = t }
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) { c.Timeout = d }
}

// WithBackoff sets the rate limit backoff base and sleep function.
// A nil sleep keeps the current one.
func WithBackoff(base time.Duration, sleep SleepFunc) Option {
	return func(c *Config) {
		c.BackoffBase = base
		if sleep != nil {
			c.Sleep = sleep
		}
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Config) { c.HTTPClient = hc }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// DefaultConfig returns sensible defaults for Groq.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:     DefaultBaseURL,
		Model:       DefaultModel,
		Candidates:  CandidateModels("", FallbackModels...),
		MaxTokens:   DefaultMaxTokens,
		Temperature: 0.5,
		Timeout:     DefaultTimeout,
		BackoffBase: DefaultBackoffBase,
		Sleep:       sleepContext,
		Logger:      slog.Default(),
	}
}

// Apply applies functional options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrNoAPIKey
	}
	return nil
}

// CandidateModels returns override followed by models, skipping blanks and
// repeats while keeping order.
func CandidateModels(override string, models ...string) []string {
	seen := make(map[string]bool, len(models)+1)
	out := make([]string, 0, len(models)+1)
	for _, m := range append([]string{override}, models...) {
		m = strings.TrimSpace(m)
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
