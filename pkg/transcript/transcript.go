// Package transcript persists the turns of a call.
//
// A Store writes to a primary Backend (normally SQL) and falls back to an
// in-memory Backend the first time the primary fails. The fallback is
// one-way: once demoted, a Store never writes to the primary again.
package transcript

import (
	"context"
	"time"

	"github.com/ArmandoCS23/Hackaton-CallCenter/pkg/persona"
)

// Turn is one persisted utterance.
type Turn struct {
	ID        int64           `json:"id"`
	CallID    string          `json:"call_id,omitempty"`
	Speaker   persona.Speaker `json:"personaje"`
	Message   string          `json:"mensaje"`
	Index     int             `json:"turno"`
	Duration  float64         `json:"duracion_segundos"` // seconds spent speaking
	Timestamp time.Time       `json:"timestamp"`
}

// Stats summarises everything in a backend.
type Stats struct {
	TotalMessages        int                     `json:"total_mensajes"`
	MessagesPerSpeaker   map[persona.Speaker]int `json:"mensajes_por_personaje"`
	TotalDurationSeconds float64                 `json:"duracion_total_segundos"`
}

// Backend defines the interface for transcript persistence.
type Backend interface {
	// Insert stores t and sets its ID.
	Insert(ctx context.Context, t *Turn) error

	// Recent returns up to limit turns, newest first. A limit <= 0 means all.
	Recent(ctx context.Context, limit int) ([]Turn, error)

	// Stats aggregates the stored turns.
	Stats(ctx context.Context) (Stats, error)

	// Close releases any resources held by the backend.
	Close() error
}

// Mode names the backend a Store is currently writing to.
type Mode string

const (
	ModePrimary Mode = "primary"
	ModeMemory  Mode = "memory"
)

// StoreError describes a failed backend operation.
type StoreError struct {
	Op  string // "open", "insert", "recent", "stats", "dump"
	Err error
}

func (e *StoreError) Error() string {
	return "transcript: " + e.Op + ": " + e.Err.Error()
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
