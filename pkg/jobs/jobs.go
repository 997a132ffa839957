// Package jobs tracks calls started through the HTTP surface.
//
// A Registry owns every job: it records each job's events so late stream
// readers can replay them, fans new events out to live subscribers and
// forgets finished jobs once nobody is reading them and the retention
// period has passed.
package jobs

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ArmandoCS23/Hackaton-CallCenter/pkg/call"
	"github.com/ArmandoCS23/Hackaton-CallCenter/pkg/transcript"
)

// Status is the lifecycle state of a job.
type Status string

const (
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusError   Status = "error"
)

// EventJobDone is the last event of every job stream.
const EventJobDone call.EventType = "job_done"

// ErrNotFound is returned for unknown or reaped job IDs.
var ErrNotFound = errors.New("jobs: job not found")

// Snapshot is a read-only copy of a job.
type Snapshot struct {
	ID         string            `json:"id"`
	Status     Status            `json:"status"`
	Reason     call.Reason       `json:"reason,omitempty"`
	Error      string            `json:"error,omitempty"`
	Events     int               `json:"events"`
	Turns      []transcript.Turn `json:"turns"`
	CreatedAt  time.Time         `json:"created_at"`
	FinishedAt *time.Time        `json:"finished_at,omitempty"`
}

// Func runs the work of a job, publishing call events through emit.
type Func func(ctx context.Context, emit call.Observer) *call.Session

type job struct {
	id         string
	status     Status
	reason     call.Reason
	err        string
	events     []call.Event
	turns      []transcript.Turn
	subs       map[chan call.Event]struct{}
	readers    int
	detachedAt time.Time
	cancel     context.CancelFunc
	createdAt  time.Time
	finishedAt time.Time
}

// DefaultRetention is how long finished jobs are kept by default.
const DefaultRetention = 10 * time.Minute

// Config holds Registry configuration.
type Config struct {
	// Retention is how long a finished job stays queryable after its last
	// stream reader detaches.
	Retention time.Duration

	// Buffer is the per-subscriber channel size.
	Buffer int

	// Listener, if set, sees every event of every job.
	Listener func(jobID string, e call.Event)

	Logger *slog.Logger
}

// Option configures a Registry.
type Option func(*Config)

// WithRetention sets how long finished jobs are kept.
func WithRetention(d time.Duration) Option {
	return func(c *Config) { c.Retention = d }
}

// WithBuffer sets the per-subscriber buffer.
func WithBuffer(n int) Option {
	return func(c *Config) { c.Buffer = n }
}

// WithListener taps every event of every job.
func WithListener(fn func(jobID string, e call.Event)) Option {
	return func(c *Config) { c.Listener = fn }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) {
		if l != nil {
			c.Logger = l
		}
	}
}

// Registry is a goroutine-safe set of jobs.
type Registry struct {
	cfg    Config
	logger *slog.Logger
	now    func() time.Time

	mu   sync.Mutex
	jobs map[string]*job
}

// New creates an empty Registry.
func New(opts ...Option) *Registry {
	cfg := Config{
		Retention: DefaultRetention,
		Buffer:    256,
		Logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Registry{
		cfg:    cfg,
		logger: cfg.Logger.With("component", "jobs.registry"),
		now:    time.Now,
		jobs:   make(map[string]*job),
	}
}

// Start runs fn in a new goroutine under a fresh job and returns its ID.
// The job's context is derived from ctx and is cancelled by Cancel.
func (r *Registry) Start(ctx context.Context, fn Func) string {
	ctx, cancel := context.WithCancel(ctx)
	id := r.create(cancel)

	go func() {
		defer cancel()
		var session *call.Session
		defer func() {
			if p := recover(); p != nil {
				r.logger.Error("job panicked", "job_id", id, "panic", p)
				r.finish(id, nil, errors.New("job panicked"))
			}
		}()
		session = fn(ctx, func(e call.Event) { r.publish(id, e) })
		r.finish(id, session, nil)
	}()
	return id
}

func (r *Registry) create(cancel context.CancelFunc) string {
	id := uuid.NewString()
	r.mu.Lock()
	r.jobs[id] = &job{
		id:        id,
		status:    StatusRunning,
		subs:      make(map[chan call.Event]struct{}),
		cancel:    cancel,
		createdAt: r.now(),
	}
	r.mu.Unlock()
	r.logger.Info("job started", "job_id", id)
	return id
}

func (r *Registry) publish(id string, e call.Event) {
	r.mu.Lock()
	j, ok := r.jobs[id]
	if !ok {
		r.mu.Unlock()
		return
	}
	j.events = append(j.events, e)
	if e.Type == call.EventTurn {
		j.turns = append(j.turns, transcript.Turn{
			CallID:    e.CallID,
			Speaker:   e.Speaker,
			Message:   e.Text,
			Index:     e.Index,
			Duration:  e.Duration,
			Timestamp: e.Time,
		})
	}
	r.fanOut(j, e)
	r.mu.Unlock()

	if r.cfg.Listener != nil {
		r.cfg.Listener(id, e)
	}
}

// fanOut must be called with r.mu held.
func (r *Registry) fanOut(j *job, e call.Event) {
	for ch := range j.subs {
		select {
		case ch <- e:
		default:
			r.logger.Warn("subscriber too slow, dropping event", "job_id", j.id, "type", e.Type)
		}
	}
}

func (r *Registry) finish(id string, session *call.Session, failure error) {
	status := StatusError
	var reason call.Reason
	errText := ""
	switch {
	case failure != nil:
		errText = failure.Error()
	case session == nil:
		errText = "job returned no session"
	default:
		reason = session.Reason
		if session.Status == call.StatusDone {
			status = StatusDone
		}
		if session.Err != nil {
			errText = session.Err.Error()
		}
	}

	done := call.Event{Type: EventJobDone, Status: call.Status(status), Reason: reason, Error: errText, Time: r.now()}

	r.mu.Lock()
	j, ok := r.jobs[id]
	if !ok || j.status != StatusRunning {
		r.mu.Unlock()
		return
	}
	j.status = status
	j.reason = reason
	j.err = errText
	j.finishedAt = r.now()
	done.CallID = callID(j)
	j.events = append(j.events, done)
	r.fanOut(j, done)
	for ch := range j.subs {
		close(ch)
	}
	j.subs = make(map[chan call.Event]struct{})
	r.mu.Unlock()

	if r.cfg.Listener != nil {
		r.cfg.Listener(id, done)
	}
	r.logger.Info("job finished", "job_id", id, "status", status, "reason", reason)
}

func callID(j *job) string {
	for _, e := range j.events {
		if e.CallID != "" {
			return e.CallID
		}
	}
	return ""
}

// Subscribe returns the events published so far and a channel of the
// events that follow. The channel is closed after the job_done event, or
// immediately when the job has already finished. Call the returned
// function to detach.
func (r *Registry) Subscribe(id string) ([]call.Event, <-chan call.Event, func(), error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, ok := r.jobs[id]
	if !ok {
		return nil, nil, nil, ErrNotFound
	}
	replay := make([]call.Event, len(j.events))
	copy(replay, j.events)

	ch := make(chan call.Event, r.cfg.Buffer)
	if j.status == StatusRunning {
		j.subs[ch] = struct{}{}
	} else {
		close(ch)
	}
	j.readers++

	var once sync.Once
	detach := func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			if _, ok := j.subs[ch]; ok {
				delete(j.subs, ch)
				close(ch)
			}
			j.readers--
			j.detachedAt = r.now()
		})
	}
	return replay, ch, detach, nil
}

// Get returns a snapshot of a job.
func (r *Registry) Get(id string) (Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, ok := r.jobs[id]
	if !ok {
		return Snapshot{}, ErrNotFound
	}
	s := Snapshot{
		ID:        j.id,
		Status:    j.status,
		Reason:    j.reason,
		Error:     j.err,
		Events:    len(j.events),
		Turns:     append([]transcript.Turn(nil), j.turns...),
		CreatedAt: j.createdAt,
	}
	if !j.finishedAt.IsZero() {
		t := j.finishedAt
		s.FinishedAt = &t
	}
	return s, nil
}

// Cancel interrupts a running job. It reports whether the job was running.
func (r *Registry) Cancel(id string) bool {
	r.mu.Lock()
	j, ok := r.jobs[id]
	running := ok && j.status == StatusRunning
	r.mu.Unlock()
	if running {
		j.cancel()
	}
	return running
}

// Counts returns the number of jobs per status.
func (r *Registry) Counts() map[Status]int {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := map[Status]int{StatusRunning: 0, StatusDone: 0, StatusError: 0}
	for _, j := range r.jobs {
		out[j.status]++
	}
	return out
}

// Len returns the number of known jobs.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.jobs)
}

// Reap forgets finished jobs that have no attached readers and whose
// retention has passed since they finished or were last read. It returns the number removed.
func (r *Registry) Reap() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	n := 0
	for id, j := range r.jobs {
		if j.status == StatusRunning || j.readers > 0 {
			continue
		}
		last := j.finishedAt
		if j.detachedAt.After(last) {
			last = j.detachedAt
		}
		if now.Sub(last) < r.cfg.Retention {
			continue
		}
		delete(r.jobs, id)
		n++
	}
	if n > 0 {
		r.logger.Debug("jobs reaped", "count", n)
	}
	return n
}

// RunReaper calls Reap every interval until ctx is done.
func (r *Registry) RunReaper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Reap()
		}
	}
}

// CancelAll interrupts every running job.
func (r *Registry) CancelAll() {
	r.mu.Lock()
	var cancels []context.CancelFunc
	for _, j := range r.jobs {
		if j.status == StatusRunning {
			cancels = append(cancels, j.cancel)
		}
	}
	r.mu.Unlock()
	for _, c := range cancels {
		c()
	}
}
