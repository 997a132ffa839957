package call

import "errors"

// Sentinel errors for the call package.
var (
	ErrNoCompleter        = errors.New("call: completer is required")
	ErrNoSink             = errors.New("call: speech sink is required")
	ErrNoRecorder         = errors.New("call: transcript recorder is required")
	ErrInvalidMaxTurns    = errors.New("call: max turns must be at least 1")
	ErrInvalidMaxFailures = errors.New("call: max failures must be at least 1")
	ErrInvalidPersonas    = errors.New("call: teacher and student personas are required")

	// ErrAborted is wrapped by Session.Err when a persona fails too many
	// times in a row.
	ErrAborted = errors.New("call: aborted after consecutive failures")
)
