// Package classroom is the interactive variant of the call: a real student
// talks to Profesora García, who answers only school questions.
//
// Each utterance goes through the keyword gate first. Farewells end the
// call, off-topic questions get a fixed refusal and everything else is sent
// to the model with the running history.
package classroom

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/ArmandoCS23/Hackaton-CallCenter/pkg/call"
	"github.com/ArmandoCS23/Hackaton-CallCenter/pkg/classify"
	"github.com/ArmandoCS23/Hackaton-CallCenter/pkg/inference"
	"github.com/ArmandoCS23/Hackaton-CallCenter/pkg/persona"
	"github.com/ArmandoCS23/Hackaton-CallCenter/pkg/transcript"
	"github.com/ArmandoCS23/Hackaton-CallCenter/pkg/tts"
)

// Reply is the teacher's answer to one utterance.
type Reply struct {
	Text  string         `json:"reply"`
	Class classify.Class `json:"-"`
	End   bool           `json:"end"`

	// FromModel is false for the fixed refusal and farewell lines.
	FromModel bool `json:"-"`
}

// Config holds Teacher configuration.
type Config struct {
	Persona    persona.Persona
	Classifier *classify.Classifier
	Sink       tts.Sink
	Recorder   call.Recorder
	CallID     string

	// Out receives the printed dialogue. Defaults to stdout.
	Out io.Writer

	// Commands enables /mute and /unmute in typed input.
	Commands bool

	Logger *slog.Logger
}

// Option configures a Teacher.
type Option func(*Config)

// WithSink speaks every teacher line through s.
func WithSink(s tts.Sink) Option {
	return func(c *Config) { c.Sink = s }
}

// WithRecorder persists the dialogue.
func WithRecorder(r call.Recorder, callID string) Option {
	return func(c *Config) {
		c.Recorder = r
		c.CallID = callID
	}
}

// WithOutput sets where the dialogue is printed.
func WithOutput(w io.Writer) Option {
	return func(c *Config) { c.Out = w }
}

// WithCommands enables slash commands.
func WithCommands(enabled bool) Option {
	return func(c *Config) { c.Commands = enabled }
}

// WithPersona replaces the classroom persona.
func WithPersona(p persona.Persona) Option {
	return func(c *Config) { c.Persona = p }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) {
		if l != nil {
			c.Logger = l
		}
	}
}

// Teacher answers one student. It keeps the conversation history and is
// not safe for concurrent use.
type Teacher struct {
	cfg       Config
	completer call.Completer
	logger    *slog.Logger

	history []inference.Message
	index   int
	muted   bool
}

// NewTeacher creates a Teacher backed by completer.
func NewTeacher(completer call.Completer, opts ...Option) *Teacher {
	cfg := Config{
		Persona:    persona.ProfesoraGarciaClassroom(),
		Classifier: classify.New(),
		Out:        os.Stdout,
		Logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Teacher{
		cfg:       cfg,
		completer: completer,
		logger:    cfg.Logger.With("component", "classroom.teacher"),
		history:   []inference.Message{inference.NewSystemMessage(cfg.Persona.Prompt)},
	}
}

// History returns a copy of the conversation so far.
func (t *Teacher) History() []inference.Message {
	out := make([]inference.Message, len(t.history))
	copy(out, t.history)
	return out
}

// Respond answers one utterance. Only model answers are added to the
// history; refusals and the farewell are not.
func (t *Teacher) Respond(ctx context.Context, utterance string) (Reply, error) {
	class := t.cfg.Classifier.Gate(utterance)
	switch class {
	case classify.Farewell:
		return Reply{Text: persona.ClassroomFarewell, Class: class, End: true}, nil
	case classify.OffTopic:
		return Reply{Text: persona.ClassroomRefusal, Class: class}, nil
	}

	p := t.cfg.Persona
	history := append(t.History(), inference.NewUserMessage(utterance))
	text, err := t.completer.Complete(ctx, p.Prompt, history, p.Temperature, p.MaxRetries)
	if err != nil {
		return Reply{Class: class}, err
	}

	t.history = append(history, inference.NewAssistantMessage(text))
	return Reply{Text: text, Class: class, FromModel: true}, nil
}

// Run greets the student and answers until they say goodbye, hang up or
// ctx is cancelled.
func (t *Teacher) Run(ctx context.Context, rec Recognizer) error {
	t.say(ctx, persona.ClassroomGreeting)

	for {
		if ctx.Err() != nil {
			t.print(persona.ClassroomHangUp)
			return nil
		}

		utterance, err := rec.Listen(ctx)
		if err != nil {
			var recErr *RecognitionError
			switch {
			case errors.Is(err, io.EOF), errors.Is(err, context.Canceled):
				t.print(persona.ClassroomHangUp)
				return nil
			case errors.As(err, &recErr):
				t.logger.Debug("recognition failed", "kind", recErr.Kind)
				t.say(ctx, persona.ClassroomReprompt)
				continue
			default:
				return err
			}
		}

		if t.cfg.Commands && strings.HasPrefix(utterance, "/") {
			t.command(strings.TrimPrefix(utterance, "/"))
			continue
		}
		t.record(ctx, persona.Student, utterance, 0)

		reply, err := t.Respond(ctx, utterance)
		if err != nil {
			if ctx.Err() != nil {
				t.print(persona.ClassroomHangUp)
				return nil
			}
			t.logger.Warn("completion failed", "error", err)
			t.say(ctx, persona.ClassroomAPIError)
			continue
		}

		t.say(ctx, reply.Text)
		if reply.End {
			return nil
		}
	}
}

// Mute turns speech off or back on. Lines are still printed and recorded.
func (t *Teacher) Mute(muted bool) {
	t.muted = muted
}

func (t *Teacher) command(cmd string) {
	cmd = strings.ToLower(strings.TrimSpace(cmd))
	switch cmd {
	case "mute", "silencio":
		t.muted = true
		t.print("Voz desactivada.")
	case "unmute", "voz":
		t.muted = false
		t.print("Voz activada.")
	default:
		t.print("Comando no reconocido. Usa /mute o /unmute.")
	}
}

// say prints, speaks and records a teacher line.
func (t *Teacher) say(ctx context.Context, text string) {
	t.print(text)

	start := time.Now()
	if !t.muted && t.cfg.Sink != nil {
		t.cfg.Sink.Speak(ctx, text, persona.Teacher)
	}
	t.record(ctx, persona.Teacher, text, time.Since(start).Seconds())
}

func (t *Teacher) print(text string) {
	fmt.Fprintf(t.cfg.Out, "%s: %s\n", persona.Teacher, text)
}

func (t *Teacher) record(ctx context.Context, speaker persona.Speaker, text string, seconds float64) {
	if t.cfg.Recorder == nil {
		return
	}
	t.cfg.Recorder.Append(context.WithoutCancel(ctx), transcript.Turn{
		CallID:    t.cfg.CallID,
		Speaker:   speaker,
		Message:   text,
		Index:     t.index,
		Duration:  seconds,
		Timestamp: time.Now(),
	})
	t.index++
}
