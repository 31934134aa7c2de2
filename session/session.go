package session

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/danielgatis/terminal-mcp/term"
)

// Mode selects whether a session is purely in-memory or mirrored to a native
// terminal window.
type Mode string

const (
	ModeHeadless Mode = "headless"
	ModeVisual   Mode = "visual"
)

// Config describes the child process and terminal geometry of a session.
type Config struct {
	Command string            `json:"command"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
	Rows    int               `json:"rows"`
	Cols    int               `json:"cols"`
	Mode    Mode              `json:"mode"`
	Dir     string            `json:"cwd,omitempty"`

	// TerminalEmulator overrides auto-detection of the mirror window program
	// in visual mode.
	TerminalEmulator string `json:"terminal_emulator,omitempty"`

	// Record, when set, writes an asciinema v2 cast of all output to this path.
	Record string `json:"record,omitempty"`
}

// Session is one live PTY-backed terminal. The per-session mutex serializes
// tool calls against the output pump; the embedded terminal has its own
// internal locking for grid reads.
type Session struct {
	ID string

	mu   sync.Mutex
	cfg  Config
	proc *ptyProc
	term *term.Terminal
	ring *ring
	rec  *recorder
	mir  *mirror

	createdAt     time.Time
	lastOutput    atomic.Int64 // unix nanos of the last PTY read
	exited        atomic.Bool
	closed        chan struct{}
	closeOnce     sync.Once
	snapshotIndex int
}

func newSession(id string, cfg Config, proc *ptyProc, t *term.Terminal, ringCapacity int) *Session {
	s := &Session{
		ID:        id,
		cfg:       cfg,
		proc:      proc,
		term:      t,
		ring:      newRing(ringCapacity),
		createdAt: time.Now(),
		closed:    make(chan struct{}),
	}
	s.lastOutput.Store(time.Now().UnixNano())
	return s
}

// pump reads PTY output and feeds the recorder, the raw ring, the mirror, and
// the terminal until the PTY closes. Runs on its own goroutine per session.
func (s *Session) pump(onExit func(*Session)) {
	buf := make([]byte, 32*1024)

	for {
		n, err := s.proc.Read(buf)
		if n > 0 {
			chunk := buf[:n]

			if s.rec != nil {
				s.rec.WriteOutput(chunk)
			}
			if s.mir != nil {
				s.mir.Write(chunk)
			}

			s.mu.Lock()
			s.ring.write(chunk)
			_, _ = s.term.Write(chunk)
			s.mu.Unlock()

			s.lastOutput.Store(time.Now().UnixNano())
		}
		if err != nil {
			break
		}
	}

	// Child exited or the PTY failed: the grid stays queryable until close.
	s.exited.Store(true)
	if onExit != nil {
		onExit(s)
	}
}

// lastOutputTime returns when the pump last saw output.
func (s *Session) lastOutputTime() time.Time {
	return time.Unix(0, s.lastOutput.Load())
}

// Alive returns true while the child process is running.
func (s *Session) Alive() bool {
	return !s.exited.Load()
}

// settle waits up to max for the output stream to go quiet, so a snapshot
// taken right after an input reflects the response it produced.
func (s *Session) settle(max, quiet time.Duration) {
	deadline := time.Now().Add(max)
	for time.Now().Before(deadline) {
		if time.Since(s.lastOutputTime()) >= quiet {
			return
		}
		time.Sleep(quiet / 2)
	}
}

// shutdown kills the child and releases session resources. Safe to call more
// than once: closeOnce makes every call after the first a no-op.
func (s *Session) shutdown() {
	s.closeOnce.Do(func() {
		close(s.closed)
		s.proc.Kill()
		if s.rec != nil {
			_ = s.rec.Close()
		}
		if s.mir != nil {
			s.mir.Close()
		}
	})
}
