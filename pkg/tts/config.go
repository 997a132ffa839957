package tts

import (
	"log/slog"
	"time"

	"github.com/ArmandoCS23/Hackaton-CallCenter/pkg/persona"
)

// Config configures one speech engine voice.
type Config struct {
	APIKey  string
	BaseURL string // empty uses the engine's public endpoint

	// Speaker owns the voice. It only labels logs.
	Speaker persona.Speaker

	VoiceID       string
	ModelID       string
	VoiceSettings VoiceSettings
	OutputFormat  Encoding

	Timeout time.Duration

	// 429 and 5xx answers are retried MaxRetries times, waiting
	// RetryDelay*attempt in between.
	MaxRetries int
	RetryDelay time.Duration

	Logger *slog.Logger
}

// Option sets a Config field.
type Option func(*Config)

func WithAPIKey(key string) Option {
	return func(c *Config) { c.APIKey = key }
}

func WithBaseURL(url string) Option {
	return func(c *Config) { c.BaseURL = url }
}

// WithSpeaker tags the engine's logs with the speaker it voices.
func WithSpeaker(s persona.Speaker) Option {
	return func(c *Config) { c.Speaker = s }
}

// WithVoice sets the voice, a preset name or an engine voice ID.
func WithVoice(voiceID string) Option {
	return func(c *Config) { c.VoiceID = voiceID }
}

func WithModel(modelID string) Option {
	return func(c *Config) { c.ModelID = modelID }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Config) { c.Timeout = d }
}

func WithRetry(maxRetries int, delay time.Duration) Option {
	return func(c *Config) {
		c.MaxRetries = maxRetries
		c.RetryDelay = delay
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

// DefaultConfig returns the settings shared by both engines. Lines are
// Spanish, so the ElevenLabs model is the multilingual one.
func DefaultConfig() *Config {
	return &Config{
		ModelID:       ModelMultilingualV2,
		OutputFormat:  EncodingMP3,
		VoiceSettings: DefaultVoiceSettings(),
		Timeout:       30 * time.Second,
		MaxRetries:    2,
		RetryDelay:    250 * time.Millisecond,
		Logger:        slog.Default(),
	}
}

// Apply runs opts against c.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// Validate requires an API key.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrNoAPIKey
	}
	return nil
}

// ValidateWithVoice requires an API key and a voice.
func (c *Config) ValidateWithVoice() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.VoiceID == "" {
		return ErrNoVoiceID
	}
	return nil
}

// engineLogger labels an engine's logs with its voice and speaker.
func (c *Config) engineLogger(component string) *slog.Logger {
	l := c.Logger.With("component", component, "voice", c.VoiceID)
	if c.Speaker != "" {
		l = l.With("speaker", string(c.Speaker))
	}
	return l
}
