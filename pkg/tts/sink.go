package tts

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/ArmandoCS23/Hackaton-CallCenter/pkg/audio"
	"github.com/ArmandoCS23/Hackaton-CallCenter/pkg/persona"
)

// Sink speaks a line for a speaker and blocks until it has been heard.
//
// Speak returns the elapsed wall-clock seconds. Failures are logged, never
// returned: a call keeps going without audio.
type Sink interface {
	Speak(ctx context.Context, text string, speaker persona.Speaker) float64
	Close() error
}

// Player is the playback side of a PlaybackSink.
type Player interface {
	Play(ctx context.Context, clip []byte) error
	Stop()
}

// PlaybackSink synthesizes with a per-speaker engine and plays the result.
type PlaybackSink struct {
	engines map[persona.Speaker]Provider
	player  Player
	logger  *slog.Logger

	// OnError, if set, sees every synthesis or playback failure.
	OnError func(*SynthesisError)
}

// NewPlaybackSink creates a sink from one engine per speaker.
func NewPlaybackSink(engines map[persona.Speaker]Provider, player Player, logger *slog.Logger) *PlaybackSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &PlaybackSink{
		engines: engines,
		player:  player,
		logger:  logger.With("component", "tts.sink"),
	}
}

// Speak implements Sink.
func (s *PlaybackSink) Speak(ctx context.Context, text string, speaker persona.Speaker) float64 {
	start := time.Now()

	clean := Sanitize(text)
	if clean == "" {
		return 0
	}

	engine, ok := s.engines[speaker]
	if !ok {
		s.fail(&SynthesisError{Speaker: speaker, Stage: "synthesize", Err: ErrNoVoice})
		return time.Since(start).Seconds()
	}

	result, err := engine.Synthesize(ctx, clean)
	if err != nil {
		s.fail(&SynthesisError{Speaker: speaker, Stage: "synthesize", Err: err})
		return time.Since(start).Seconds()
	}

	if err := s.player.Play(ctx, result.Audio); err != nil {
		s.fail(&SynthesisError{Speaker: speaker, Stage: "play", Err: err})
	}
	return time.Since(start).Seconds()
}

func (s *PlaybackSink) fail(err *SynthesisError) {
	s.logger.Warn("speech failed", "speaker", string(err.Speaker), "stage", err.Stage, "error", err.Err)
	if s.OnError != nil {
		s.OnError(err)
	}
}

// Close stops playback and closes every distinct engine.
func (s *PlaybackSink) Close() error {
	s.player.Stop()

	var lastErr error
	seen := make(map[Provider]bool)
	for _, e := range s.engines {
		if seen[e] {
			continue
		}
		seen[e] = true
		if err := e.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// PacedSink prints each line and waits roughly as long as saying it would take.
// It is the console engine used when no TTS key is configured.
type PacedSink struct {
	out    io.Writer
	voices Voices
	pace   bool

	mu     sync.Mutex
	closed bool
}

// NewPacedSink writes to out (stdout when nil). With pace false it returns
// immediately after printing.
func NewPacedSink(out io.Writer, voices Voices, pace bool) *PacedSink {
	if out == nil {
		out = os.Stdout
	}
	if voices == nil {
		voices = DefaultVoices("console")
	}
	return &PacedSink{out: out, voices: voices, pace: pace}
}

// Speak implements Sink.
func (s *PacedSink) Speak(ctx context.Context, text string, speaker persona.Speaker) float64 {
	start := time.Now()

	clean := Sanitize(text)
	if clean == "" {
		return 0
	}

	s.mu.Lock()
	closed := s.closed
	if !closed {
		fmt.Fprintf(s.out, "%s: %s\n", speaker, clean)
	}
	s.mu.Unlock()

	if s.pace && !closed {
		t := time.NewTimer(SpeakingTime(clean, s.voices.Rate(speaker)))
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
		}
	}
	return time.Since(start).Seconds()
}

// Close implements Sink.
func (s *PacedSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// SpeakingTime estimates how long text takes to say at wpm words per minute.
func SpeakingTime(text string, wpm int) time.Duration {
	if wpm <= 0 {
		wpm = 150
	}
	words := len(strings.Fields(text))
	return time.Duration(words) * time.Minute / time.Duration(wpm)
}

// SinkConfig selects and configures a speech engine.
type SinkConfig struct {
	Engine        string // "console", "none", "openai", "elevenlabs"
	OpenAIKey     string
	ElevenLabsKey string
	Voices        Voices
	Pace          bool      // console engine only
	Out           io.Writer // console engine only
	Logger        *slog.Logger
}

// NewSink builds the sink for cfg.Engine.
//
// ElevenLabs falls back to OpenAI voices when an OpenAI key is also set.
// "none" prints nothing and does not pace.
func NewSink(cfg SinkConfig) (Sink, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	voices := cfg.Voices
	if voices == nil {
		voices = DefaultVoices(cfg.Engine)
	}

	switch cfg.Engine {
	case "", "console":
		return NewPacedSink(cfg.Out, voices, cfg.Pace), nil
	case "none":
		return NewPacedSink(io.Discard, voices, false), nil
	case "openai":
		engines, err := openAIEngines(cfg.OpenAIKey, voices, logger)
		if err != nil {
			return nil, err
		}
		return NewPlaybackSink(engines, audio.NewPlayer(logger), logger), nil
	case "elevenlabs":
		engines := make(map[persona.Speaker]Provider, len(voices))
		var fallback map[persona.Speaker]Provider
		if cfg.OpenAIKey != "" {
			var err error
			fallback, err = openAIEngines(cfg.OpenAIKey, DefaultVoices("openai"), logger)
			if err != nil {
				return nil, err
			}
		}
		for speaker, v := range voices {
			el, err := NewElevenLabs(WithAPIKey(cfg.ElevenLabsKey), WithVoice(v.Voice), WithSpeaker(speaker), WithLogger(logger))
			if err != nil {
				return nil, err
			}
			if fb, ok := fallback[speaker]; ok {
				chain, _ := NewChain(speaker, logger, el, fb)
				engines[speaker] = chain
				continue
			}
			engines[speaker] = el
		}
		return NewPlaybackSink(engines, audio.NewPlayer(logger), logger), nil
	default:
		return nil, fmt.Errorf("tts: unknown engine %q", cfg.Engine)
	}
}

func openAIEngines(key string, voices Voices, logger *slog.Logger) (map[persona.Speaker]Provider, error) {
	engines := make(map[persona.Speaker]Provider, len(voices))
	for speaker, v := range voices {
		p, err := NewOpenAI(WithAPIKey(key), WithVoice(v.Voice), WithSpeaker(speaker), WithLogger(logger))
		if err != nil {
			return nil, err
		}
		engines[speaker] = p
	}
	return engines, nil
}

var (
	_ Sink = (*PlaybackSink)(nil)
	_ Sink = (*PacedSink)(nil)
)
