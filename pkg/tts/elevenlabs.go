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
	elevenLabsBaseURL  = "https://api.elevenlabs.io/v1"
	providerElevenLabs = "elevenlabs"
)

// ElevenLabs model IDs
const (
	// ModelFlashV2_5 is the fastest multilingual model (~150ms latency).
	ModelFlashV2_5 = "eleven_flash_v2_5"

	// ModelMultilingualV2 is the highest quality multilingual model (~300ms latency).
	ModelMultilingualV2 = "eleven_multilingual_v2"
)

// ElevenLabs implements Provider for ElevenLabs TTS.
type ElevenLabs struct {
	config  *Config
	client  *http.Client
	logger  *slog.Logger
	baseURL string
}

// NewElevenLabs creates a new ElevenLabs TTS provider.
// Voice may be a preset name from ElevenLabsVoices or a raw voice ID.
func NewElevenLabs(opts ...Option) (*ElevenLabs, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	if err := cfg.ValidateWithVoice(); err != nil {
		return nil, err
	}
	cfg.VoiceID = ResolveElevenLabsVoice(cfg.VoiceID)

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = elevenLabsBaseURL
	}

	return &ElevenLabs{
		config:  cfg,
		client:  httpc.NewClient(cfg.Timeout),
		logger:  cfg.engineLogger("tts.elevenlabs"),
		baseURL: baseURL,
	}, nil
}

// Synthesize converts text to audio, returning the complete audio buffer.
func (e *ElevenLabs) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	start := time.Now()

	url := fmt.Sprintf("%s/text-to-speech/%s?output_format=%s", e.baseURL, e.config.VoiceID, e.config.OutputFormat)

	body, err := json.Marshal(e.buildPayload(text))
	if err != nil {
		return nil, WrapError(providerElevenLabs, fmt.Errorf("marshal payload: %w", err))
	}

	resp, err := e.doWithRetry(ctx, url, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	latency := time.Since(start).Milliseconds()

	if resp.StatusCode != http.StatusOK {
		return nil, e.parseError(resp)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, WrapError(providerElevenLabs, fmt.Errorf("read response: %w", err))
	}

	e.logger.Debug("synthesized audio",
		"chars", len(text),
		"bytes", len(audio),
		"latency_ms", latency,
		"model", e.config.ModelID,
	)

	return &AudioResult{
		Audio: audio,
		Format: AudioFormat{
			Encoding:   e.config.OutputFormat,
			SampleRate: SampleRateFromEncoding(e.config.OutputFormat),
			Channels:   1,
		},
		CharCount: len(text),
		LatencyMs: latency,
	}, nil
}

// Health checks API connectivity and API key validity.
func (e *ElevenLabs) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", e.baseURL+"/user", nil)
	if err != nil {
		return WrapError(providerElevenLabs, err)
	}

	req.Header.Set("xi-api-key", e.config.APIKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return WrapError(providerElevenLabs, fmt.Errorf("health check: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return e.parseError(resp)
	}

	return nil
}

// Close releases resources held by the provider.
func (e *ElevenLabs) Close() error {
	e.client.CloseIdleConnections()
	return nil
}

// buildPayload constructs the API request payload.
func (e *ElevenLabs) buildPayload(text string) map[string]interface{} {
	return map[string]interface{}{
		"text":          text,
		"model_id":      e.config.ModelID,
		"language_code": "es",
		"voice_settings": map[string]interface{}{
			"stability":         e.config.VoiceSettings.Stability,
			"similarity_boost":  e.config.VoiceSettings.SimilarityBoost,
			"style":             e.config.VoiceSettings.Style,
			"use_speaker_boost": e.config.VoiceSettings.SpeakerBoost,
		},
	}
}

// doWithRetry posts body to url, retrying on 429 and 5xx.
func (e *ElevenLabs) doWithRetry(ctx context.Context, url string, body []byte) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= e.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(e.config.RetryDelay * time.Duration(attempt)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
		if err != nil {
			return nil, WrapError(providerElevenLabs, fmt.Errorf("create request: %w", err))
		}
		req.Header.Set("xi-api-key", e.config.APIKey)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "audio/mpeg")

		resp, err := e.client.Do(req)
		if err != nil {
			lastErr = WrapError(providerElevenLabs, err)
			continue
		}

		if resp.StatusCode == 429 || resp.StatusCode >= 500 {
			lastErr = e.parseError(resp)
			resp.Body.Close()
			e.logger.Warn("retrying request",
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
func (e *ElevenLabs) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var errResp struct {
		Detail struct {
			Message string `json:"message"`
			Status  string `json:"status"`
		} `json:"detail"`
	}

	message := string(body)
	code := ""
	if json.Unmarshal(body, &errResp) == nil && errResp.Detail.Message != "" {
		message = errResp.Detail.Message
		code = errResp.Detail.Status
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    message,
		Code:       code,
		Provider:   providerElevenLabs,
	}
}

// Verify ElevenLabs implements Provider at compile time.
var _ Provider = (*ElevenLabs)(nil)
