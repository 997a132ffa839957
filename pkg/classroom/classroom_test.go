package classroom

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ArmandoCS23/Hackaton-CallCenter/pkg/inference"
	"github.com/ArmandoCS23/Hackaton-CallCenter/pkg/persona"
	"github.com/ArmandoCS23/Hackaton-CallCenter/pkg/transcript"
)

type fakeCompleter struct {
	reply string
	err   error

	mu      sync.Mutex
	calls   int
	lastLen int
}

func (f *fakeCompleter) Complete(ctx context.Context, systemPrompt string, history []inference.Message, temperature float64, maxRetries int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastLen = len(history)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

type countingSink struct {
	mu    sync.Mutex
	lines []string
}

func (s *countingSink) Speak(ctx context.Context, text string, speaker persona.Speaker) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = append(s.lines, text)
	return 0
}

func (s *countingSink) Close() error { return nil }

type memRecorder struct {
	turns []transcript.Turn
}

func (r *memRecorder) Append(ctx context.Context, t transcript.Turn) bool {
	r.turns = append(r.turns, t)
	return true
}

func (r *memRecorder) Close() error { return nil }

func TestRespondFarewell(t *testing.T) {
	fc := &fakeCompleter{reply: "no debería usarse"}
	teacher := NewTeacher(fc, WithOutput(&bytes.Buffer{}))

	reply, err := teacher.Respond(context.Background(), "Bueno, adiós profesora")
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if !reply.End || reply.Text != persona.ClassroomFarewell || reply.FromModel {
		t.Errorf("Unexpected farewell reply %+v", reply)
	}
	if fc.calls != 0 {
		t.Errorf("Farewell should not call the model, got %d calls", fc.calls)
	}
}

func TestRespondRefusesOffTopic(t *testing.T) {
	fc := &fakeCompleter{reply: "no debería usarse"}
	teacher := NewTeacher(fc, WithOutput(&bytes.Buffer{}))

	for _, q := range []string{
		"¿Dónde consigo una droga?",
		"Quiero saber cuál es el mejor restaurante de comida rápida del centro",
	} {
		reply, err := teacher.Respond(context.Background(), q)
		if err != nil {
			t.Fatalf("Respond(%q): %v", q, err)
		}
		if reply.Text != persona.ClassroomRefusal || reply.End {
			t.Errorf("Respond(%q) = %+v, want refusal", q, reply)
		}
	}
	if fc.calls != 0 {
		t.Errorf("Refusals should not call the model, got %d calls", fc.calls)
	}
	if n := len(teacher.History()); n != 1 {
		t.Errorf("History length = %d, want only the system prompt", n)
	}
}

func TestRespondGrowsHistory(t *testing.T) {
	fc := &fakeCompleter{reply: "La fotosíntesis convierte luz en energía."}
	teacher := NewTeacher(fc, WithOutput(&bytes.Buffer{}))

	reply, err := teacher.Respond(context.Background(), "¿Qué es la fotosíntesis?")
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if !reply.FromModel || reply.Text != fc.reply {
		t.Errorf("Unexpected reply %+v", reply)
	}

	h := teacher.History()
	if len(h) != 3 {
		t.Fatalf("History length = %d, want 3", len(h))
	}
	if h[0].Role != inference.RoleSystem || h[1].Role != inference.RoleUser || h[2].Role != inference.RoleAssistant {
		t.Errorf("Unexpected roles %s/%s/%s", h[0].Role, h[1].Role, h[2].Role)
	}

	if _, err := teacher.Respond(context.Background(), "¿Y en las plantas de sombra?"); err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if fc.lastLen != 4 {
		t.Errorf("Second call sent %d messages, want 4", fc.lastLen)
	}
}

func TestRespondErrorKeepsHistory(t *testing.T) {
	fc := &fakeCompleter{err: errors.New("boom")}
	teacher := NewTeacher(fc, WithOutput(&bytes.Buffer{}))

	if _, err := teacher.Respond(context.Background(), "¿Cómo hago la tarea?"); err == nil {
		t.Fatal("Expected completion error")
	}
	if n := len(teacher.History()); n != 1 {
		t.Errorf("History length = %d after failure, want 1", n)
	}
}

func TestRunSession(t *testing.T) {
	fc := &fakeCompleter{reply: "Es el proceso con el que las plantas hacen su alimento."}
	sink := &countingSink{}
	rec := &memRecorder{}
	var out bytes.Buffer

	teacher := NewTeacher(fc,
		WithOutput(&out),
		WithSink(sink),
		WithRecorder(rec, "call-1"),
		WithCommands(true),
	)
	input := strings.NewReader("¿Qué es la fotosíntesis?\n\n/mute\nadiós\n")

	if err := teacher.Run(context.Background(), NewLineRecognizer(input, time.Second, nil, "")); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []string{persona.ClassroomGreeting, fc.reply, persona.ClassroomReprompt}
	if len(sink.lines) != len(want) {
		t.Fatalf("Spoke %d lines, want %d: %q", len(sink.lines), len(want), sink.lines)
	}
	for i := range want {
		if sink.lines[i] != want[i] {
			t.Errorf("Line %d = %q, want %q", i, sink.lines[i], want[i])
		}
	}

	text := out.String()
	if !strings.Contains(text, "Voz desactivada.") {
		t.Error("Mute command should be acknowledged")
	}
	if !strings.Contains(text, persona.ClassroomFarewell) {
		t.Error("Farewell should still be printed while muted")
	}

	if len(rec.turns) != 6 {
		t.Fatalf("Recorded %d turns, want 6", len(rec.turns))
	}
	for i, turn := range rec.turns {
		if turn.Index != i || turn.CallID != "call-1" {
			t.Errorf("Turn %d has index %d call %q", i, turn.Index, turn.CallID)
		}
	}
	if rec.turns[1].Speaker != persona.Student || rec.turns[4].Message != "adiós" {
		t.Errorf("Student turns not recorded: %+v", rec.turns)
	}
}

func TestRunHangUp(t *testing.T) {
	var out bytes.Buffer
	teacher := NewTeacher(&fakeCompleter{}, WithOutput(&out))

	if err := teacher.Run(context.Background(), NewLineRecognizer(strings.NewReader(""), time.Second, nil, "")); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(out.String(), persona.ClassroomHangUp) {
		t.Errorf("Hang-up line missing from %q", out.String())
	}
}

func TestRunAPIError(t *testing.T) {
	var out bytes.Buffer
	teacher := NewTeacher(&fakeCompleter{err: errors.New("boom")}, WithOutput(&out))

	input := strings.NewReader("¿Cómo hago la tarea?\n")
	if err := teacher.Run(context.Background(), NewLineRecognizer(input, time.Second, nil, "")); err != nil {
		t.Fatalf("Run: %v", err)
	}
	text := out.String()
	if !strings.Contains(text, persona.ClassroomAPIError) {
		t.Errorf("API error line missing from %q", text)
	}
	if !strings.Contains(text, persona.ClassroomHangUp) {
		t.Errorf("Hang-up line missing from %q", text)
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	teacher := NewTeacher(&fakeCompleter{}, WithOutput(&out))
	if err := teacher.Run(ctx, NewLineRecognizer(strings.NewReader("hola\n"), time.Second, nil, "")); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(out.String(), persona.ClassroomHangUp) {
		t.Error("Cancelled session should hang up politely")
	}
}
