package session

import "errors"

// Error kinds surfaced by session operations. Callers match them with
// errors.Is; wrapped errors carry the underlying detail.
var (
	// ErrNotFound means the session id is unknown.
	ErrNotFound = errors.New("session not found")
	// ErrInvalidArgument means a parameter was rejected before any state changed.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrCommandNotAllowed means the command whitelist rejected the spawn.
	ErrCommandNotAllowed = errors.New("command not allowed")
	// ErrSpawnFailed means the PTY or child process could not be created.
	ErrSpawnFailed = errors.New("spawn failed")
	// ErrIO means a PTY read, write, or resize failed.
	ErrIO = errors.New("pty i/o error")
	// ErrTimeout means a wait or settle deadline expired.
	ErrTimeout = errors.New("timeout")
	// ErrSessionClosed means the session was closed or the child exited.
	ErrSessionClosed = errors.New("session closed")
	// ErrResourceExhausted means the session limit was reached.
	ErrResourceExhausted = errors.New("session limit reached")
	// ErrInternal marks an invariant violation.
	ErrInternal = errors.New("internal error")
)
