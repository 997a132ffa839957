package call

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ArmandoCS23/Hackaton-CallCenter/pkg/classify"
	"github.com/ArmandoCS23/Hackaton-CallCenter/pkg/persona"
	"github.com/ArmandoCS23/Hackaton-CallCenter/pkg/transcript"
	"github.com/ArmandoCS23/Hackaton-CallCenter/pkg/tts"
)

// Controller drives one call at a time. It is not safe for concurrent Run
// calls; create one Controller per session.
type Controller struct {
	config    *Config
	completer Completer
	sink      tts.Sink
	recorder  Recorder
	logger    *slog.Logger

	session  *Session
	failures map[persona.Speaker]int
	asked    bool
}

// New creates a Controller.
func New(completer Completer, sink tts.Sink, recorder Recorder, opts ...Option) (*Controller, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch {
	case completer == nil:
		return nil, ErrNoCompleter
	case sink == nil:
		return nil, ErrNoSink
	case recorder == nil:
		return nil, ErrNoRecorder
	}
	if cfg.CallID == "" {
		cfg.CallID = uuid.NewString()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Controller{
		config:    cfg,
		completer: completer,
		sink:      sink,
		recorder:  recorder,
		logger:    cfg.Logger.With("component", "call.controller", "call_id", cfg.CallID),
	}, nil
}

// ID returns the call identifier.
func (c *Controller) ID() string {
	return c.config.CallID
}

// Run plays the call to completion and returns the final session.
// Cancelling ctx interrupts the call at the next state transition.
func (c *Controller) Run(ctx context.Context) *Session {
	c.session = &Session{
		ID:        c.config.CallID,
		Status:    StatusRunning,
		MaxTurns:  c.config.MaxTurns,
		Histories: NewHistories(c.config.Teacher, c.config.Student),
		StartedAt: time.Now(),
	}
	c.failures = make(map[persona.Speaker]int)
	c.asked = false

	c.logger.Info("call started", "max_turns", c.config.MaxTurns)
	c.loop(ctx)

	if c.config.CloseOnExit {
		if err := c.sink.Close(); err != nil {
			c.logger.Warn("sink close failed", "error", err)
		}
		if err := c.recorder.Close(); err != nil {
			c.logger.Warn("recorder close failed", "error", err)
		}
	}

	s := c.session
	c.logger.Info("call finished",
		"status", s.Status, "reason", s.Reason, "turns", s.TurnCount, "messages", s.NextIndex)
	c.emit(Event{Type: EventDone, Status: s.Status, Reason: s.Reason, Error: errString(s.Err), Index: s.NextIndex})
	return s
}

func (c *Controller) loop(ctx context.Context) {
	c.enter(StateGreeting)
	if ctx.Err() != nil {
		c.interrupt(ctx.Err())
		return
	}
	c.say(ctx, persona.Student, persona.Pick(persona.Greetings))
	c.enter(StateTeacherTurn)

	for {
		if ctx.Err() != nil {
			c.interrupt(ctx.Err())
			return
		}
		if !c.pause(ctx, c.config.TurnPause) {
			continue
		}

		switch c.session.State {
		case StateTeacherTurn:
			text, ok := c.turn(ctx, c.config.Teacher)
			if !ok {
				return
			}
			if ctx.Err() != nil {
				c.interrupt(ctx.Err())
				return
			}
			if classify.ContainsAny(text, c.config.Teacher.Farewells) {
				c.logger.Info("teacher said goodbye")
				c.enter(StateClosing)
				c.finish(StatusDone, ReasonFarewell, nil)
				return
			}
			c.enter(StateStudentTurn)

		case StateStudentTurn:
			var text string
			if c.config.OpeningQuestion && !c.asked {
				text = persona.Pick(persona.Questions)
				c.say(ctx, persona.Student, text)
			} else {
				var ok bool
				if text, ok = c.turn(ctx, c.config.Student); !ok {
					return
				}
			}
			c.asked = true
			c.session.TurnCount++
			if ctx.Err() != nil {
				c.interrupt(ctx.Err())
				return
			}

			if classify.ContainsAny(text, c.config.Student.Farewells) {
				c.logger.Info("student said goodbye")
				c.enter(StateClosing)
				c.say(ctx, persona.Teacher, persona.TeacherGoodbye)
				c.finish(StatusDone, ReasonFarewell, nil)
				return
			}
			if c.session.TurnCount >= c.config.MaxTurns {
				c.logger.Info("turn limit reached", "turns", c.session.TurnCount)
				c.enter(StateClosing)
				c.say(ctx, persona.Teacher, persona.TurnLimitLine)
				c.finish(StatusDone, ReasonTurnLimit, nil)
				return
			}
			c.enter(StateTeacherTurn)
		}
	}
}

// turn obtains and delivers one reply for p, retrying failed completions.
// It returns false when the call has terminated.
func (c *Controller) turn(ctx context.Context, p persona.Persona) (string, bool) {
	for {
		if ctx.Err() != nil {
			c.interrupt(ctx.Err())
			return "", false
		}

		history := c.session.Histories.For(p.Speaker).Messages()
		text, err := c.completer.Complete(ctx, p.Prompt, history, p.Temperature, p.MaxRetries)
		if err == nil {
			c.failures[p.Speaker] = 0
			c.say(ctx, p.Speaker, text)
			return text, true
		}

		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			c.interrupt(err)
			return "", false
		}

		c.failures[p.Speaker]++
		n := c.failures[p.Speaker]
		c.logger.Warn("completion failed", "speaker", string(p.Speaker), "failures", n, "error", err)

		if n >= c.config.MaxFailures {
			c.finish(StatusError, ReasonAborted, fmt.Errorf("%w: %s: %w", ErrAborted, p.Speaker, err))
			return "", false
		}

		c.emit(Event{Type: EventRetry, Speaker: p.Speaker, Error: err.Error(), Index: c.session.NextIndex})
		if !c.pause(ctx, c.config.RetryDelay) {
			c.interrupt(ctx.Err())
			return "", false
		}
	}
}

// say speaks text, persists it with the next index and mirrors it into
// both histories.
func (c *Controller) say(ctx context.Context, speaker persona.Speaker, text string) {
	duration := c.sink.Speak(ctx, text, speaker)

	t := transcript.Turn{
		CallID:    c.session.ID,
		Speaker:   speaker,
		Message:   text,
		Index:     c.session.NextIndex,
		Duration:  duration,
		Timestamp: time.Now(),
	}
	// The turn was spoken; keep it even if the call is being interrupted.
	saved := c.recorder.Append(context.WithoutCancel(ctx), t)
	if !saved {
		c.logger.Error("turn not saved", "speaker", string(speaker), "turn", t.Index)
	}

	c.session.Histories.Record(speaker, text)
	c.session.Turns = append(c.session.Turns, t)
	c.session.NextIndex++

	c.emit(Event{Type: EventTurn, Speaker: speaker, Text: text, Index: t.Index, Duration: duration, Saved: saved})
}

func (c *Controller) enter(s State) {
	c.session.State = s
	c.emit(Event{Type: EventState, State: s, Index: c.session.NextIndex})
}

func (c *Controller) finish(status Status, reason Reason, err error) {
	c.session.Status = status
	c.session.Reason = reason
	c.session.Err = err
	c.session.EndedAt = time.Now()
	c.enter(StateTerminated)
}

func (c *Controller) interrupt(err error) {
	c.logger.Info("call interrupted")
	if err == nil {
		err = context.Canceled
	}
	c.finish(StatusError, ReasonInterrupted, err)
}

// pause waits d or until ctx is done. It reports whether the full pause
// elapsed.
func (c *Controller) pause(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func (c *Controller) emit(e Event) {
	if c.config.Observer == nil {
		return
	}
	e.CallID = c.session.ID
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	if e.Type != EventState && e.State == "" {
		e.State = c.session.State
	}
	c.config.Observer(e)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
