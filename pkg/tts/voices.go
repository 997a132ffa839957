package tts

import "github.com/ArmandoCS23/Hackaton-CallCenter/pkg/persona"

// VoiceProfile describes how one speaker sounds.
type VoiceProfile struct {
	// Voice is the engine-specific voice name or ID.
	Voice string

	// Rate is the speaking rate in words per minute. Used for pacing
	// when the engine cannot report a duration.
	Rate int

	// Accent is a regional hint (e.g. "com.mx") for engines that take one.
	Accent string
}

// Voices maps each speaker to a voice. It is resolved once at startup.
type Voices map[persona.Speaker]VoiceProfile

// DefaultVoices returns the voice map for an engine name
// ("openai", "elevenlabs", anything else gets console defaults).
func DefaultVoices(engine string) Voices {
	teacher, student := VoiceNova, VoiceEcho
	if engine == "elevenlabs" {
		teacher, student = "aria", "josh"
	}
	return Voices{
		persona.Teacher: {Voice: teacher, Rate: 150, Accent: "com.mx"},
		persona.Student: {Voice: student, Rate: 165, Accent: "es"},
	}
}

// With returns a copy of v with non-empty overrides applied.
func (v Voices) With(teacherVoice, studentVoice string) Voices {
	out := make(Voices, len(v))
	for k, p := range v {
		out[k] = p
	}
	if teacherVoice != "" {
		p := out[persona.Teacher]
		p.Voice = teacherVoice
		out[persona.Teacher] = p
	}
	if studentVoice != "" {
		p := out[persona.Student]
		p.Voice = studentVoice
		out[persona.Student] = p
	}
	return out
}

// Rate returns the speaking rate for s, or 150 wpm when unset.
func (v Voices) Rate(s persona.Speaker) int {
	if p, ok := v[s]; ok && p.Rate > 0 {
		return p.Rate
	}
	return 150
}

// ElevenLabsVoices maps friendly preset names to ElevenLabs voice IDs.
// Use ResolveElevenLabsVoice to look up a voice by name or pass through raw IDs.
var ElevenLabsVoices = map[string]string{
	"aria":  "9BWtsMINqrJLrRacOk9x", // female, expressive
	"sarah": "EXAVITQu4vr4xnSDxMaL", // female, soft
	"lily":  "pFZP5JQG7iQjIQuC4Bku", // female, warm
	"josh":  "TxGEqnHWrfWFTfGW9XjX", // male, deep
	"adam":  "pNInz6obpgDQGcFmaJgB", // male, deep
	"sam":   "yoZ06aMxZJJ28mfd3POQ", // male, raspy
}

// ResolveElevenLabsVoice returns the voice ID for a preset name,
// or the input unchanged if it's already a voice ID.
func ResolveElevenLabsVoice(name string) string {
	if id, ok := ElevenLabsVoices[name]; ok {
		return id
	}
	return name // Assume it's already a voice ID
}
