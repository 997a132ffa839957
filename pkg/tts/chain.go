package tts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ArmandoCS23/Hackaton-CallCenter/pkg/persona"
)

// Chain is one speaker's voice backed by several engines, e.g. an
// ElevenLabs voice that falls back to OpenAI when the quota runs out.
type Chain struct {
	speaker persona.Speaker
	engines []Provider
	logger  *slog.Logger
}

// NewChain builds the voice of speaker from engines, tried in order.
func NewChain(speaker persona.Speaker, logger *slog.Logger, engines ...Provider) (*Chain, error) {
	if len(engines) == 0 {
		return nil, ErrProviderUnavailable
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{
		speaker: speaker,
		engines: engines,
		logger:  logger.With("component", "tts.chain", "speaker", string(speaker)),
	}, nil
}

// Speaker returns whose voice this chain is.
func (c *Chain) Speaker() persona.Speaker {
	return c.speaker
}

// Synthesize returns the first engine's clip that succeeds.
func (c *Chain) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	errs := make([]error, 0, len(c.engines))
	for i, e := range c.engines {
		res, err := e.Synthesize(ctx, text)
		if err == nil {
			if i > 0 {
				c.logger.Info("fallback voice used", "engine", i, "chars", len(text))
			}
			return res, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		errs = append(errs, err)
		c.logger.Warn("voice engine failed", "engine", i, "error", err)
	}
	return nil, &ChainError{Speaker: c.speaker, Errors: errs}
}

// Health succeeds while at least one engine is healthy.
func (c *Chain) Health(ctx context.Context) error {
	var last error
	for _, e := range c.engines {
		err := e.Health(ctx)
		if err == nil {
			return nil
		}
		last = err
	}
	return fmt.Errorf("tts chain %s: no healthy engine: %w", c.speaker, last)
}

// Close closes every engine.
func (c *Chain) Close() error {
	errs := make([]error, 0, len(c.engines))
	for _, e := range c.engines {
		errs = append(errs, e.Close())
	}
	return errors.Join(errs...)
}

// ChainError is returned when every engine of a voice failed.
type ChainError struct {
	Speaker persona.Speaker
	Errors  []error
}

func (e *ChainError) Error() string {
	switch len(e.Errors) {
	case 0:
		return fmt.Sprintf("tts chain %s: no engines", e.Speaker)
	case 1:
		return fmt.Sprintf("tts chain %s: %v", e.Speaker, e.Errors[0])
	}
	return fmt.Sprintf("tts chain %s: %d engines failed, last: %v", e.Speaker, len(e.Errors), e.Errors[len(e.Errors)-1])
}

// Unwrap returns the last engine's error.
func (e *ChainError) Unwrap() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e.Errors[len(e.Errors)-1]
}

var _ Provider = (*Chain)(nil)
