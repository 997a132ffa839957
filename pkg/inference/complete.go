package inference

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
)

// outcome tags the result of a single candidate attempt.
type outcome int

const (
	outcomeOK          outcome = iota // content available
	outcomeRateLimited                // 429, same request may be retried
	outcomeNextModel                  // model-level failure, try next candidate
	outcomeAbort                      // transport failure or cancellation
)

// attempt is the result of one request against one candidate.
type attempt struct {
	outcome outcome
	content string
	err     error
}

// Completer runs the candidate/backoff policy over a Provider.
// It keeps no state between calls.
type Completer struct {
	provider   Provider
	candidates []string
	maxTokens  int
	base       time.Duration
	sleep      SleepFunc
	logger     *slog.Logger
}

// NewCompleter wraps p with the candidate list from opts.
func NewCompleter(p Provider, opts ...Option) (*Completer, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	if len(cfg.Candidates) == 0 {
		return nil, ErrNoCandidates
	}
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	return &Completer{
		provider:   p,
		candidates: append([]string(nil), cfg.Candidates...),
		maxTokens:  cfg.MaxTokens,
		base:       cfg.BackoffBase,
		sleep:      sleep,
		logger:     cfg.Logger.With("component", "inference.completer"),
	}, nil
}

// Candidates returns the ordered candidate models.
func (c *Completer) Candidates() []string {
	return append([]string(nil), c.candidates...)
}

// Complete asks each candidate model in turn for a reply to history.
//
// A 429 answer is retried on the same candidate up to maxRetries times,
// waiting base*2^attempt between tries. Other status errors move on to the
// next candidate. A transport error aborts the call. When every candidate
// has failed the returned APIError has KindExhausted.
func (c *Completer) Complete(ctx context.Context, systemPrompt string, history []Message, temperature float64, maxRetries int) (string, error) {
	messages := make([]Message, 0, len(history)+1)
	if systemPrompt != "" {
		messages = append(messages, NewSystemMessage(systemPrompt))
	}
	for _, m := range history {
		if m.Role == RoleSystem && systemPrompt != "" {
			continue
		}
		messages = append(messages, m)
	}

	if maxRetries < 0 {
		maxRetries = 0
	}

	var last error
	for _, model := range c.candidates {
		req := &ChatRequest{
			Messages:    messages,
			Model:       model,
			MaxTokens:   c.maxTokens,
			Temperature: Temp(temperature),
		}

		res := c.runCandidate(ctx, req, maxRetries)
		switch res.outcome {
		case outcomeOK:
			return res.content, nil
		case outcomeAbort:
			return "", res.err
		default:
			last = res.err
			c.logger.Warn("candidate failed, trying next", "model", model, "error", res.err)
		}
	}

	return "", &APIError{
		Kind:     KindExhausted,
		Message:  "all candidate models failed",
		Provider: "completer",
		Err:      last,
	}
}

// runCandidate tries one model, retrying on rate limits.
func (c *Completer) runCandidate(ctx context.Context, req *ChatRequest, maxRetries int) attempt {
	for try := 0; ; try++ {
		if err := ctx.Err(); err != nil {
			return attempt{outcome: outcomeAbort, err: err}
		}

		res := c.tryOnce(ctx, req)
		if res.outcome != outcomeRateLimited {
			return res
		}
		if try >= maxRetries {
			return attempt{outcome: outcomeNextModel, err: res.err}
		}

		wait := c.base * time.Duration(1<<uint(try))
		c.logger.Info("rate limited, backing off", "model", req.Model, "attempt", try, "wait", wait)
		if err := c.sleep(ctx, wait); err != nil {
			return attempt{outcome: outcomeAbort, err: err}
		}
	}
}

// tryOnce issues a single request and tags the result.
func (c *Completer) tryOnce(ctx context.Context, req *ChatRequest) attempt {
	resp, err := c.provider.Chat(ctx, req)
	if err == nil {
		content := strings.TrimSpace(resp.Message.Content)
		if content == "" {
			return attempt{outcome: outcomeNextModel, err: &APIError{
				Kind:       KindHTTPStatus,
				StatusCode: 200,
				Message:    "empty content",
				Model:      req.Model,
				Provider:   "completer",
				Err:        ErrEmptyResponse,
			}}
		}
		return attempt{outcome: outcomeOK, content: content}
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		if ctx.Err() != nil {
			return attempt{outcome: outcomeAbort, err: err}
		}
	}

	switch KindOf(err) {
	case KindRateLimited:
		return attempt{outcome: outcomeRateLimited, err: err}
	case KindTransport:
		return attempt{outcome: outcomeAbort, err: err}
	default:
		return attempt{outcome: outcomeNextModel, err: err}
	}
}
