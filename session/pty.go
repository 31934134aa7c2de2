package session

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/creack/pty"
)

const killGracePeriod = 500 * time.Millisecond

// ptyProc is a child process attached to a pseudoterminal.
type ptyProc struct {
	file *os.File
	cmd  *exec.Cmd
	done chan struct{} // closed when the child has been reaped
}

// spawnPTY starts the command attached to a new PTY of the given size.
// TERM defaults to xterm-256color unless the caller overrides it.
func spawnPTY(cfg Config) (*ptyProc, error) {
	cmd := exec.Command(cfg.Command, cfg.Args...)
	cmd.Dir = cfg.Dir

	env := os.Environ()
	hasTerm := false
	for key, value := range cfg.Env {
		if key == "TERM" {
			hasTerm = true
		}
		env = append(env, key+"="+value)
	}
	if !hasTerm {
		env = append(env, "TERM=xterm-256color")
	}
	cmd.Env = env

	file, err := pty.StartWithSize(cmd, &pty.Winsize{
		Rows: uint16(cfg.Rows),
		Cols: uint16(cfg.Cols),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSpawnFailed, err)
	}

	p := &ptyProc{
		file: file,
		cmd:  cmd,
		done: make(chan struct{}),
	}

	go func() {
		_ = cmd.Wait()
		close(p.done)
	}()

	return p, nil
}

// Read reads output from the child. Blocks until data is available or the
// PTY closes.
func (p *ptyProc) Read(buf []byte) (int, error) {
	return p.file.Read(buf)
}

// Write sends input to the child.
func (p *ptyProc) Write(data []byte) (int, error) {
	n, err := p.file.Write(data)
	if err != nil {
		return n, fmt.Errorf("%w: %v", ErrIO, err)
	}
	return n, nil
}

// Resize changes the PTY dimensions; the kernel delivers SIGWINCH to the child.
func (p *ptyProc) Resize(rows, cols int) error {
	err := pty.Setsize(p.file, &pty.Winsize{
		Rows: uint16(rows),
		Cols: uint16(cols),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	return nil
}

// Pid returns the child process id, or 0 if unknown.
func (p *ptyProc) Pid() int {
	if p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

// Alive returns true while the child has not been reaped.
func (p *ptyProc) Alive() bool {
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

// Kill terminates the child gracefully: SIGTERM, a short grace period, then
// SIGKILL. The PTY file is closed afterwards.
func (p *ptyProc) Kill() {
	if p.cmd.Process != nil {
		_ = p.cmd.Process.Signal(syscall.SIGTERM)

		select {
		case <-p.done:
		case <-time.After(killGracePeriod):
			_ = p.cmd.Process.Kill()
			<-p.done
		}
	}

	_ = p.file.Close()
}
