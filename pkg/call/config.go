package call

import (
	"log/slog"
	"time"

	"github.com/ArmandoCS23/Hackaton-CallCenter/pkg/persona"
)

// Config holds configuration for a Controller.
type Config struct {
	// CallID keys the transcript rows of this call. Generated when empty.
	CallID string

	// MaxTurns is the number of Teacher/Student pairs before the teacher
	// closes the call.
	MaxTurns int

	// MaxFailures is the number of consecutive failed completions a persona
	// may produce before the call is aborted.
	MaxFailures int

	// RetryDelay is the pause before a failed turn is retried.
	RetryDelay time.Duration

	// TurnPause is the pause between turns.
	TurnPause time.Duration

	// OpeningQuestion makes the student's first turn a scripted question
	// from persona.Questions instead of a completion.
	OpeningQuestion bool

	// CloseOnExit closes the sink and the recorder when Run returns.
	CloseOnExit bool

	Teacher persona.Persona
	Student persona.Persona

	Observer Observer
	Logger   *slog.Logger
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		MaxTurns:        6,
		MaxFailures:     2,
		RetryDelay:      time.Second,
		OpeningQuestion: true,
		Teacher:         persona.ProfesoraGarcia(),
		Student:         persona.Carlos(),
		Logger:          slog.Default(),
	}
}

// Apply applies functional options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.MaxTurns < 1 {
		return ErrInvalidMaxTurns
	}
	if c.MaxFailures < 1 {
		return ErrInvalidMaxFailures
	}
	if c.Teacher.Speaker != persona.Teacher || c.Student.Speaker != persona.Student {
		return ErrInvalidPersonas
	}
	return nil
}

// Option configures a Controller.
type Option func(*Config)

// WithCallID sets the call identifier.
func WithCallID(id string) Option {
	return func(c *Config) {
		c.CallID = id
	}
}

// WithMaxTurns sets the pair limit.
func WithMaxTurns(n int) Option {
	return func(c *Config) {
		c.MaxTurns = n
	}
}

// WithMaxFailures sets the consecutive failure limit per persona.
func WithMaxFailures(n int) Option {
	return func(c *Config) {
		c.MaxFailures = n
	}
}

// WithRetryDelay sets the pause before retrying a failed turn.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Config) {
		c.RetryDelay = d
	}
}

// WithTurnPause sets the pause between turns.
func WithTurnPause(d time.Duration) Option {
	return func(c *Config) {
		c.TurnPause = d
	}
}

// WithOpeningQuestion toggles the scripted first question.
func WithOpeningQuestion(enabled bool) Option {
	return func(c *Config) {
		c.OpeningQuestion = enabled
	}
}

// WithCloseOnExit makes Run close the sink and the recorder.
func WithCloseOnExit(enabled bool) Option {
	return func(c *Config) {
		c.CloseOnExit = enabled
	}
}

// WithPersonas replaces the default personas.
func WithPersonas(teacher, student persona.Persona) Option {
	return func(c *Config) {
		c.Teacher = teacher
		c.Student = student
	}
}

// WithObserver sets the event observer.
func WithObserver(o Observer) Option {
	return func(c *Config) {
		c.Observer = o
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		if logger != nil {
			c.Logger = logger
		}
	}
}
