package transcript

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// DumpTimeFormat is the timestamp layout of the memory-mode dump file.
const DumpTimeFormat = "2006-01-02 15:04:05"

// Store writes turns to a primary backend and demotes itself to memory on
// the first primary failure.
type Store struct {
	mu       sync.Mutex
	primary  Backend
	memory   *MemoryBackend
	mode     Mode
	dumpPath string
	logger   *slog.Logger

	// OnDemote, if set, is called once with the failure that caused the
	// switch to memory.
	OnDemote func(*StoreError)
}

// Option configures a Store.
type Option func(*Store)

// WithDumpPath sets the file written on Close while in memory mode.
func WithDumpPath(path string) Option {
	return func(s *Store) {
		s.dumpPath = path
	}
}

// WithLogger sets the store logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewStore wraps primary. A nil primary starts the store in memory mode.
func NewStore(primary Backend, opts ...Option) *Store {
	s := &Store{
		primary: primary,
		memory:  NewMemoryBackend(),
		mode:    ModePrimary,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "transcript.store")
	if primary == nil {
		s.mode = ModeMemory
	}
	return s
}

// Open connects to the SQL backend and wraps it in a Store. If the database
// cannot be opened the store starts in memory mode; Open itself never fails.
func Open(ctx context.Context, driver, dsn string, opts ...Option) *Store {
	s := NewStore(nil, opts...)

	b, err := OpenSQL(ctx, driver, dsn, s.logger)
	if err != nil {
		s.logger.Warn("database unavailable, keeping transcripts in memory",
			"driver", driver, "error", &StoreError{Op: "open", Err: err})
		return s
	}
	s.primary = b
	s.mode = ModePrimary
	s.logger.Info("transcript store ready", "driver", driver)
	return s
}

// Mode reports which backend receives new turns.
func (s *Store) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Append persists t. It reports whether the turn was stored anywhere and
// never returns an error: a primary failure demotes the store and the turn
// is written to memory instead.
func (s *Store) Append(ctx context.Context, t Turn) (ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("transcript append panicked", "panic", r)
			ok = false
		}
	}()

	if t.Timestamp.IsZero() {
		t.Timestamp = time.Now()
	}

	if s.mode == ModePrimary {
		err := s.primary.Insert(ctx, &t)
		if err == nil {
			s.logger.Debug("turn saved", "speaker", string(t.Speaker), "turn", t.Index)
			return true
		}
		s.demote(&StoreError{Op: "insert", Err: err})
	}

	if err := s.memory.Insert(ctx, &t); err != nil {
		s.logger.Error("memory insert failed", "error", err)
		return false
	}
	s.logger.Debug("turn saved in memory", "speaker", string(t.Speaker), "turn", t.Index)
	return true
}

func (s *Store) demote(err *StoreError) {
	s.logger.Error("primary store failed, switching to memory", "error", err)
	s.mode = ModeMemory
	if s.OnDemote != nil {
		s.OnDemote(err)
	}
}

func (s *Store) active() Backend {
	if s.mode == ModePrimary {
		return s.primary
	}
	return s.memory
}

// Recent returns up to limit turns from the active backend, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Turn, error) {
	s.mu.Lock()
	b := s.active()
	s.mu.Unlock()

	turns, err := b.Recent(ctx, limit)
	if err != nil {
		return nil, &StoreError{Op: "recent", Err: err}
	}
	return turns, nil
}

// Stats aggregates the active backend.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	s.mu.Lock()
	b := s.active()
	s.mu.Unlock()

	st, err := b.Stats(ctx)
	if err != nil {
		return st, &StoreError{Op: "stats", Err: err}
	}
	return st, nil
}

// Close dumps in-memory turns when a dump path is set and closes the primary.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	if s.mode == ModeMemory && s.dumpPath != "" && s.memory.Len() > 0 {
		if err := writeDump(s.dumpPath, s.memory.Turns()); err != nil {
			errs = append(errs, &StoreError{Op: "dump", Err: err})
		} else {
			s.logger.Info("transcripts written to file", "path", s.dumpPath)
		}
	}
	if s.primary != nil {
		if err := s.primary.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// FormatDumpLine renders a turn the way the dump file stores it.
func FormatDumpLine(t Turn) string {
	return fmt.Sprintf("%s | %s | Turno %d: %s", t.Timestamp.Format(DumpTimeFormat), t.Speaker, t.Index, t.Message)
}

func writeDump(path string, turns []Turn) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}

	var sb strings.Builder
	for _, t := range turns {
		sb.WriteString(FormatDumpLine(t))
		sb.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}
