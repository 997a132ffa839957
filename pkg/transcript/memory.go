package transcript

import (
	"context"
	"sync"

	"github.com/ArmandoCS23/Hackaton-CallCenter/pkg/persona"
)

// MemoryBackend keeps turns in a slice. It is the fallback of every Store.
type MemoryBackend struct {
	mu     sync.RWMutex
	turns  []Turn
	nextID int64
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{nextID: 1}
}

// Insert implements Backend.
func (m *MemoryBackend) Insert(_ context.Context, t *Turn) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t.ID = m.nextID
	m.nextID++
	m.turns = append(m.turns, *t)
	return nil
}

// Recent implements Backend.
func (m *MemoryBackend) Recent(_ context.Context, limit int) ([]Turn, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := len(m.turns)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Turn, 0, n)
	for i := len(m.turns) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, m.turns[i])
	}
	return out, nil
}

// Stats implements Backend.
func (m *MemoryBackend) Stats(_ context.Context) (Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st := Stats{MessagesPerSpeaker: make(map[persona.Speaker]int)}
	for _, t := range m.turns {
		st.TotalMessages++
		st.MessagesPerSpeaker[t.Speaker]++
		st.TotalDurationSeconds += t.Duration
	}
	return st, nil
}

// Turns returns a copy of every turn in insertion order.
func (m *MemoryBackend) Turns() []Turn {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Turn, len(m.turns))
	copy(out, m.turns)
	return out
}

// Len returns the number of stored turns.
func (m *MemoryBackend) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.turns)
}

// Close implements Backend.
func (m *MemoryBackend) Close() error {
	return nil
}

var _ Backend = (*MemoryBackend)(nil)
