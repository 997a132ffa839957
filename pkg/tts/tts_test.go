package tts_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ArmandoCS23/Hackaton-CallCenter/pkg/persona"
	"github.com/ArmandoCS23/Hackaton-CallCenter/pkg/tts"
)

func TestMockProvider(t *testing.T) {
	mock := tts.NewMock()
	ctx := context.Background()

	t.Run("Synthesize returns audio", func(t *testing.T) {
		result, err := mock.Synthesize(ctx, "Hola Carlos")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(result.Audio) == 0 {
			t.Error("expected audio data")
		}
		if result.CharCount != 11 {
			t.Errorf("expected 11 chars, got %d", result.CharCount)
		}
		if result.Format.Encoding != tts.EncodingMP3 {
			t.Errorf("expected mp3, got %s", result.Format.Encoding)
		}
	})

	t.Run("Health returns nil", func(t *testing.T) {
		if err := mock.Health(ctx); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("Calls are tracked", func(t *testing.T) {
		if len(mock.Calls()) != 2 {
			t.Errorf("expected 2 calls, got %d", len(mock.Calls()))
		}
		if mock.CallCount("Synthesize") != 1 {
			t.Errorf("expected 1 Synthesize call, got %d", mock.CallCount("Synthesize"))
		}
		if last := mock.LastCall(); last == nil || last.Method != "Health" {
			t.Errorf("unexpected last call %+v", last)
		}
	})

	t.Run("Reset clears calls", func(t *testing.T) {
		mock.Reset()
		if len(mock.Calls()) != 0 {
			t.Error("expected calls to be cleared")
		}
	})
}

func TestMockClipMatchesSpeakingTime(t *testing.T) {
	mock := tts.NewMock()
	line := "Bueno Carlos, creo que por hoy es suficiente."

	result, err := mock.Synthesize(context.Background(), line)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := tts.SpeakingTime(line, 150)
	if result.Duration != want {
		t.Errorf("Duration = %v, want %v", result.Duration, want)
	}
	if size := len(result.Audio); size < int(want.Seconds()*tts.MockBitrate) {
		t.Errorf("clip of %d bytes is too short for %v", size, want)
	}
	if got := mock.Spoken(); len(got) != 1 || got[0] != line {
		t.Errorf("Spoken() = %v", got)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := mock.Synthesize(ctx, line); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestMockWithError(t *testing.T) {
	testErr := errors.New("test error")
	mock := tts.WithError(testErr)
	ctx := context.Background()

	if _, err := mock.Synthesize(ctx, "Hola"); !errors.Is(err, testErr) {
		t.Errorf("expected test error, got %v", err)
	}
	if err := mock.Health(ctx); err == nil {
		t.Error("expected error")
	}
}

func TestMockWithLatency(t *testing.T) {
	mock := tts.WithLatency(tts.NewMock(), 50*time.Millisecond)

	t.Run("Synthesize has latency", func(t *testing.T) {
		start := time.Now()
		if _, err := mock.Synthesize(context.Background(), "Hola"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
			t.Errorf("expected at least 50ms latency, got %v", elapsed)
		}
	})

	t.Run("Context cancellation works", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		if _, err := mock.Synthesize(ctx, "Hola"); err == nil {
			t.Error("expected context deadline error")
		}
	})
}

func TestDefaultVoiceSettings(t *testing.T) {
	s := tts.DefaultVoiceSettings()
	if s.Stability != 0.5 || s.SimilarityBoost != 0.75 || !s.SpeakerBoost {
		t.Errorf("unexpected defaults: %+v", s)
	}
}

func TestFunctionalOptions(t *testing.T) {
	cfg := tts.DefaultConfig()
	cfg.Apply(
		tts.WithAPIKey("key"),
		tts.WithVoice("nova"),
		tts.WithModel("tts-1-hd"),
		tts.WithTimeout(5*time.Second),
		tts.WithRetry(1, time.Millisecond),
	)

	if cfg.APIKey != "key" || cfg.VoiceID != "nova" || cfg.ModelID != "tts-1-hd" {
		t.Errorf("options not applied: %+v", cfg)
	}
	if cfg.Timeout != 5*time.Second || cfg.MaxRetries != 1 {
		t.Errorf("timeouts not applied: %+v", cfg)
	}
	if cfg.OutputFormat != tts.EncodingMP3 {
		t.Errorf("expected mp3 default, got %s", cfg.OutputFormat)
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		opts    []tts.Option
		wantErr error
	}{
		{"missing key", nil, tts.ErrNoAPIKey},
		{"missing voice", []tts.Option{tts.WithAPIKey("k")}, tts.ErrNoVoiceID},
		{"valid", []tts.Option{tts.WithAPIKey("k"), tts.WithVoice("v")}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tts.DefaultConfig()
			cfg.Apply(tt.opts...)
			if err := cfg.ValidateWithVoice(); err != tt.wantErr {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestAPIError(t *testing.T) {
	tests := []struct {
		status    int
		retryable bool
	}{
		{429, true},
		{500, true},
		{503, true},
		{401, false},
		{400, false},
	}

	for _, tt := range tests {
		err := &tts.APIError{StatusCode: tt.status, Message: "x", Provider: "openai"}
		if err.IsRetryable() != tt.retryable {
			t.Errorf("status %d: expected retryable=%v", tt.status, tt.retryable)
		}
	}

	err := &tts.APIError{StatusCode: 401, Message: "bad key", Code: "invalid_api_key", Provider: "openai"}
	if !err.IsUnauthorized() {
		t.Error("expected unauthorized")
	}
	if err.Error() != "tts [openai]: API error 401 (invalid_api_key): bad key" {
		t.Errorf("unexpected message: %s", err.Error())
	}
}

func TestChain(t *testing.T) {
	ctx := context.Background()

	t.Run("NewChain requires providers", func(t *testing.T) {
		_, err := tts.NewChain(persona.Teacher, nil)
		if err != tts.ErrProviderUnavailable {
			t.Errorf("expected ErrProviderUnavailable, got %v", err)
		}
	})

	t.Run("First provider succeeds", func(t *testing.T) {
		mock1 := tts.NewMock()
		mock2 := tts.NewMock()

		chain, err := tts.NewChain(persona.Teacher, nil, mock1, mock2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer chain.Close()

		if _, err := chain.Synthesize(ctx, "Hola"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if mock1.CallCount("Synthesize") != 1 {
			t.Error("expected first provider to be called")
		}
		if mock2.CallCount("Synthesize") != 0 {
			t.Error("expected second provider not to be called")
		}
	})

	t.Run("Fallback on failure", func(t *testing.T) {
		chain, _ := tts.NewChain(persona.Student, nil, tts.WithError(errors.New("quota exceeded")), tts.NewMock())
		defer chain.Close()

		result, err := chain.Synthesize(ctx, "Hola")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result == nil {
			t.Error("expected result from fallback provider")
		}
	})

	t.Run("All providers fail", func(t *testing.T) {
		last := errors.New("fail 2")
		chain, _ := tts.NewChain(persona.Teacher, nil, tts.WithError(errors.New("fail 1")), tts.WithError(last))
		defer chain.Close()

		_, err := chain.Synthesize(ctx, "Hola")
		var ce *tts.ChainError
		if !errors.As(err, &ce) || len(ce.Errors) != 2 {
			t.Fatalf("expected ChainError with 2 errors, got %v", err)
		}
		if !errors.Is(err, last) {
			t.Error("expected Unwrap to return the last error")
		}
		if ce.Speaker != persona.Teacher || !strings.Contains(err.Error(), "Profesora García") {
			t.Errorf("expected the error to name the speaker, got %q", err)
		}
	})

	t.Run("Health checks all providers", func(t *testing.T) {
		chain, _ := tts.NewChain(persona.Teacher, nil, tts.WithError(errors.New("down")), tts.NewMock())
		if err := chain.Health(ctx); err != nil {
			t.Fatalf("one healthy provider should be enough: %v", err)
		}
	})
}

func TestProviderError(t *testing.T) {
	inner := errors.New("connection failed")
	err := tts.WrapError("elevenlabs", inner)

	if err.Error() != "tts [elevenlabs]: connection failed" {
		t.Errorf("unexpected error message: %s", err.Error())
	}

	var pe *tts.ProviderError
	if !errors.As(err, &pe) || pe.Provider != "elevenlabs" {
		t.Error("expected ProviderError for elevenlabs")
	}
	if !errors.Is(err, inner) {
		t.Error("expected Unwrap to expose inner error")
	}
	if tts.WrapError("x", nil) != nil {
		t.Error("wrapping nil should give nil")
	}
}
