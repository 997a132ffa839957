package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/ArmandoCS23/Hackaton-CallCenter/internal/httpc"
)

const (
	openAITTSURL   = "https://api.openai.com/v1/audio/speech"
	providerOpenAI = "openai"
)

// OpenAI voice options
const (
	VoiceAlloy   = "alloy"   // Neutral voice
	VoiceEcho    = "echo"    // Male voice
	VoiceFable   = "fable"   // British accent
	VoiceOnyx    = "onyx"    // Deep male voice
	VoiceNova    = "nova"    // Female voice
	VoiceShimmer = "shimmer" // Soft female voice
)

// OpenAI model options
const (
	ModelTTS1   = "tts-1"    // Standard quality, faster
	ModelTTS1HD = "tts-1-hd" // Higher quality, slower
)

// OpenAI implements Provider for OpenAI TTS.
type OpenAI struct {
	config  *Config
	client  *http.Client
	logger  *slog.Logger
	baseURL string
}

// NewOpenAI creates a new OpenAI TTS provider.
func NewOpenAI(opts ...Option) (*OpenAI, error) {
	cfg := DefaultConfig()
	cfg.ModelID = ModelTTS1
	cfg.VoiceID = VoiceNova
	cfg.Apply(opts...)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.VoiceID == "" {
		cfg.VoiceID = VoiceNova
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = openAITTSURL
	}

	return &OpenAI{
		config:  cfg,
		client:  httpc.NewClient(cfg.Timeout),
		logger:  cfg.engineLogger("tts.openai"),
		baseURL: baseURL,
	}, nil
}

// Synthesize converts text to MP3 audio.
func (o *OpenAI) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	start := time.Now()

	body, err := json.Marshal(map[string]interface{}{
		"model":           o.config.ModelID,
		"voice":           o.config.VoiceID,
		"input":           text,
		"response_format": "mp3",
	})
	if err != nil {
		return nil, WrapError(providerOpenAI, fmt.Errorf("marshal payload: %w", err))
	}

	resp, err := o.doWithRetry(ctx, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	latency := time.Since(start).Milliseconds()

	if resp.StatusCode != http.StatusOK {
		return nil, o.parseError(resp)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, WrapError(providerOpenAI, fmt.Errorf("read response: %w", err))
	}

	o.logger.Debug("synthesized audio",
		"chars", len(text),
		"bytes", len(audio),
		"latency_ms", latency,
	)

	return &AudioResult{
		Audio: audio,
		Format: AudioFormat{
			Encoding:   EncodingMP3,
			SampleRate: 44100,
			Channels:   1,
		},
		CharCount: len(text),
		LatencyMs: latency,
	}, nil
}

// Health checks API connectivity.
func (o *OpenAI) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", "https://api.openai.com/v1/models", nil)
	if err != nil {
		return WrapError(providerOpenAI, err)
	}

	req.Header.Set("Authorization", "Bearer "+o.config.APIKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return WrapError(providerOpenAI, fmt.Errorf("health check: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return o.parseError(resp)
	}

	return nil
}

// Close releases resources.
func (o *OpenAI) Close() error {
	o.client.CloseIdleConnections()
	return nil
}

// doWithRetry posts body, retrying on 429 and 5xx.
func (o *OpenAI) doWithRetry(ctx context.Context, body []byte) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= o.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(o.config.RetryDelay * time.Duration(attempt)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, "POST", o.baseURL, bytes.NewReader(body))
		if err != nil {
			return nil, WrapError(providerOpenAI, fmt.Errorf("create request: %w", err))
		}
		req.Header.Set("Authorization", "Bearer "+o.config.APIKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := o.client.Do(req)
		if err != nil {
			lastErr = WrapError(providerOpenAI, err)
			continue
		}

		if resp.StatusCode == 429 || resp.StatusCode >= 500 {
			lastErr = o.parseError(resp)
			resp.Body.Close()
			o.logger.Warn("retrying request",
				"attempt", attempt+1,
				"status", resp.StatusCode,
			)
			continue
		}

		return resp, nil
	}

	return nil, lastErr
}

// parseError reads and parses an error response.
func (o *OpenAI) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var errResp struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
			Code    string `json:"code"`
		} `json:"error"`
	}

	message := string(body)
	code := ""
	if json.Unmarshal(body, &errResp) == nil && errResp.Error.Message != "" {
		message = errResp.Error.Message
		code = errResp.Error.Code
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    message,
		Code:       code,
		Provider:   providerOpenAI,
	}
}

// Verify OpenAI implements Provider at compile time.
var _ Provider = (*OpenAI)(nil)
