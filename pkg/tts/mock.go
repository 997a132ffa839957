package tts

import (
	"context"
	"sync"
	"time"
)

// MockBitrate is the bitrate, in bytes per second, the Mock sizes its
// clips at. It matches the 128 kbps MP3 the speech engines return.
const MockBitrate = 128_000 / 8

// Mock is an offline Provider for tests. By default each line becomes a
// silent MP3-sized clip as long as saying it at Rate would take.
type Mock struct {
	// Rate is the speaking rate in words per minute. Zero means 150.
	Rate int

	// Optional overrides.
	SynthesizeFunc func(ctx context.Context, text string) (*AudioResult, error)
	HealthFunc     func(ctx context.Context) error
	CloseFunc      func() error

	mu    sync.Mutex
	calls []MockCall
}

// MockCall is one recorded method call.
type MockCall struct {
	Method string
	Text   string
	Time   time.Time
}

// NewMock returns a healthy mock speaking at 150 wpm.
func NewMock() *Mock {
	return &Mock{Rate: 150}
}

// Synthesize implements Provider.
func (m *Mock) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	m.record("Synthesize", text)
	if m.SynthesizeFunc != nil {
		return m.SynthesizeFunc(ctx, text)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m.clip(text), nil
}

func (m *Mock) clip(text string) *AudioResult {
	d := SpeakingTime(text, m.Rate)
	return &AudioResult{
		Audio: make([]byte, int(d.Seconds()*MockBitrate)+1),
		Format: AudioFormat{
			Encoding:   EncodingMP3,
			SampleRate: 44100,
			Channels:   1,
		},
		CharCount: len(text),
		Duration:  d,
	}
}

// Health implements Provider.
func (m *Mock) Health(ctx context.Context) error {
	m.record("Health", "")
	if m.HealthFunc != nil {
		return m.HealthFunc(ctx)
	}
	return nil
}

// Close implements Provider.
func (m *Mock) Close() error {
	m.record("Close", "")
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

func (m *Mock) record(method, text string) {
	m.mu.Lock()
	m.calls = append(m.calls, MockCall{Method: method, Text: text, Time: time.Now()})
	m.mu.Unlock()
}

// Calls returns a copy of the recorded calls.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockCall(nil), m.calls...)
}

// CallCount counts the recorded calls of method.
func (m *Mock) CallCount(method string) int {
	n := 0
	for _, c := range m.Calls() {
		if c.Method == method {
			n++
		}
	}
	return n
}

// LastCall returns the most recent call, or nil.
func (m *Mock) LastCall() *MockCall {
	calls := m.Calls()
	if len(calls) == 0 {
		return nil
	}
	return &calls[len(calls)-1]
}

// Spoken returns the lines passed to Synthesize, in order.
func (m *Mock) Spoken() []string {
	var lines []string
	for _, c := range m.Calls() {
		if c.Method == "Synthesize" {
			lines = append(lines, c.Text)
		}
	}
	return lines
}

// Reset forgets the recorded calls.
func (m *Mock) Reset() {
	m.mu.Lock()
	m.calls = nil
	m.mu.Unlock()
}

// WithError returns a mock whose synthesis and health checks fail with err.
func WithError(err error) *Mock {
	m := NewMock()
	m.SynthesizeFunc = func(context.Context, string) (*AudioResult, error) { return nil, err }
	m.HealthFunc = func(context.Context) error { return err }
	return m
}

// WithLatency delays every synthesis of m by delay.
func WithLatency(m *Mock, delay time.Duration) *Mock {
	next := m.SynthesizeFunc
	m.SynthesizeFunc = func(ctx context.Context, text string) (*AudioResult, error) {
		t := time.NewTimer(delay)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if next != nil {
			return next(ctx, text)
		}
		return m.clip(text), nil
	}
	return m
}

var _ Provider = (*Mock)(nil)
