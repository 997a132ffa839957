// Package call runs a scripted phone call between Profesora García and
// Carlos.
//
// A Controller alternates the two personas through a small state machine:
//
//	Greeting → TeacherTurn → StudentTurn → … → Closing → Terminated
//
// Each reply is produced by a Completer, spoken through a tts.Sink and
// persisted through a Recorder. Every state change and turn is published
// to an optional Observer.
//
// Example usage:
//
//	ctrl, err := call.New(completer, sink, store,
//	    call.WithMaxTurns(6),
//	    call.WithObserver(func(e call.Event) { fmt.Println(e.Type, e.Text) }),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	session := ctrl.Run(ctx)
//	fmt.Println(session.Status, session.Reason)
package call

import (
	"context"
	"time"

	"github.com/ArmandoCS23/Hackaton-CallCenter/pkg/inference"
	"github.com/ArmandoCS23/Hackaton-CallCenter/pkg/persona"
	"github.com/ArmandoCS23/Hackaton-CallCenter/pkg/transcript"
)

// Completer produces a persona's next reply. *inference.Completer
// implements it.
type Completer interface {
	Complete(ctx context.Context, systemPrompt string, history []inference.Message, temperature float64, maxRetries int) (string, error)
}

// Recorder persists turns. *transcript.Store implements it.
type Recorder interface {
	Append(ctx context.Context, t transcript.Turn) bool
	Close() error
}

// State is a step of the call state machine.
type State string

const (
	StateGreeting    State = "greeting"
	StateTeacherTurn State = "teacher_turn"
	StateStudentTurn State = "student_turn"
	StateClosing     State = "closing"
	StateTerminated  State = "terminated"
)

// Status is the coarse outcome of a session.
type Status string

const (
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusError   Status = "error"
)

// Reason explains why a call terminated.
type Reason string

const (
	ReasonFarewell    Reason = "farewell"
	ReasonTurnLimit   Reason = "turn_limit"
	ReasonAborted     Reason = "aborted"
	ReasonInterrupted Reason = "interrupted"
)

// Session is the state of one call.
type Session struct {
	ID     string
	Status Status
	State  State

	// TurnCount counts completed Teacher/Student pairs.
	TurnCount int
	MaxTurns  int
	NextIndex int

	Histories Histories
	Turns     []transcript.Turn

	Reason Reason
	Err    error

	StartedAt time.Time
	EndedAt   time.Time
}

// EventType identifies an Event.
type EventType string

const (
	EventState EventType = "state"
	EventTurn  EventType = "turn"
	EventRetry EventType = "retry"
	EventDone  EventType = "call_done"
)

// Event is published for every state change, turn and retry.
type Event struct {
	Type     EventType       `json:"type"`
	CallID   string          `json:"call_id"`
	State    State           `json:"state,omitempty"`
	Speaker  persona.Speaker `json:"speaker,omitempty"`
	Text     string          `json:"text,omitempty"`
	Index    int             `json:"index"`
	Duration float64         `json:"duration,omitempty"`
	Saved    bool            `json:"saved,omitempty"`
	Status   Status          `json:"status,omitempty"`
	Reason   Reason          `json:"reason,omitempty"`
	Error    string          `json:"error,omitempty"`
	Time     time.Time       `json:"time"`
}

// Observer receives events synchronously from the call goroutine.
type Observer func(Event)
