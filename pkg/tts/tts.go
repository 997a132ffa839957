// Package tts turns persona replies into audible speech.
//
// Engines (OpenAI, ElevenLabs) implement Provider and return MP3 audio.
// A Sink sits on top of the engines: it sanitizes the text, picks the voice
// configured for the speaker, plays the audio to completion and reports how
// long that took.
//
// Example usage:
//
//	teacher, _ := tts.NewOpenAI(
//	    tts.WithAPIKey(os.Getenv("OPENAI_API_KEY")),
//	    tts.WithVoice(tts.VoiceNova),
//	)
//	sink := tts.NewPlaybackSink(map[persona.Speaker]tts.Provider{
//	    persona.Teacher: teacher,
//	}, audio.NewPlayer())
//	defer sink.Close()
//
//	seconds := sink.Speak(ctx, "¡Hola Carlos!", persona.Teacher)
package tts

import (
	"context"
	"time"
)

// Provider defines the TTS engine interface.
type Provider interface {
	// Synthesize converts text to audio, returning the complete audio buffer.
	Synthesize(ctx context.Context, text string) (*AudioResult, error)

	// Health checks provider connectivity and API key validity.
	Health(ctx context.Context) error

	// Close releases any resources held by the provider.
	Close() error
}

// AudioResult represents a complete audio synthesis result.
type AudioResult struct {
	// Audio contains the raw audio data in the specified format.
	Audio []byte

	// Format describes the audio encoding and sample rate.
	Format AudioFormat

	// Duration is the estimated audio playback duration.
	Duration time.Duration

	// CharCount is the number of characters synthesized.
	CharCount int

	// LatencyMs is the time to first byte in milliseconds.
	LatencyMs int64
}

// AudioFormat describes the audio encoding parameters.
type AudioFormat struct {
	// Encoding specifies the audio codec (e.g., mp3_44100_128).
	Encoding Encoding

	// SampleRate in Hz (e.g., 24000, 44100, 22050).
	SampleRate int

	// Channels is 1 for mono, 2 for stereo.
	Channels int
}

// Encoding represents audio encoding types.
// These match ElevenLabs output format options.
type Encoding string

const (
	EncodingMP3    Encoding = "mp3_44100_128" // MP3 128kbps
	EncodingMP3Low Encoding = "mp3_22050_32"  // MP3 32kbps, smaller downloads
)

// VoiceSettings controls voice characteristics for providers that support it.
type VoiceSettings struct {
	// Stability controls voice consistency (0.0-1.0).
	// Lower values = more expressive/variable, higher = more consistent.
	Stability float64

	// SimilarityBoost controls how closely the voice matches the original (0.0-1.0).
	SimilarityBoost float64

	// Style controls style exaggeration (0.0-1.0).
	Style float64

	// SpeakerBoost enhances speaker clarity.
	SpeakerBoost bool
}

// DefaultVoiceSettings returns sensible defaults for voice synthesis.
func DefaultVoiceSettings() VoiceSettings {
	return VoiceSettings{
		Stability:       0.5,
		SimilarityBoost: 0.75,
		Style:           0.0,
		SpeakerBoost:    true,
	}
}

// SampleRateFromEncoding extracts the sample rate from an encoding type.
func SampleRateFromEncoding(enc Encoding) int {
	switch enc {
	case EncodingMP3Low:
		return 22050
	default:
		return 44100
	}
}
