package session

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
)

// mirror streams raw session output to a file that an external terminal
// window follows. The window is a read-only observer: input never routes
// through it, and its failure never breaks the session.
type mirror struct {
	mu  sync.Mutex
	f   *os.File
	cmd *exec.Cmd
}

// linuxEmulators are tried in order when no emulator is configured. Each
// entry is the binary plus the flag that introduces the command to run.
var linuxEmulators = [][]string{
	{"gnome-terminal", "--"},
	{"konsole", "-e"},
	{"alacritty", "-e"},
	{"kitty", "-e"},
	{"xterm", "-e"},
}

// startMirror creates the stream file and spawns a terminal window tailing it.
func startMirror(id, emulator string) (*mirror, error) {
	path := filepath.Join(os.TempDir(), "terminal-mcp-"+id+".stream")
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("mirror stream: %w", err)
	}

	cmd, err := mirrorCommand(path, emulator)
	if err != nil {
		f.Close()
		os.Remove(path)
		return nil, err
	}

	if err := cmd.Start(); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("mirror window: %w", err)
	}

	go func() { _ = cmd.Wait() }()

	return &mirror{f: f, cmd: cmd}, nil
}

func mirrorCommand(path, emulator string) (*exec.Cmd, error) {
	follow := "tail -f " + path

	if runtime.GOOS == "darwin" {
		switch emulator {
		case "", "Terminal.app", "terminal":
			script := fmt.Sprintf(`tell application "Terminal" to do script %q`, follow)
			return exec.Command("osascript", "-e", script), nil
		case "iTerm2", "iterm2":
			script := fmt.Sprintf(
				`tell application "iTerm2" to create window with default profile command %q`, follow)
			return exec.Command("osascript", "-e", script), nil
		}
	}

	if emulator != "" {
		if bin, err := exec.LookPath(emulator); err == nil {
			return exec.Command(bin, "-e", "sh", "-c", follow), nil
		}
		return nil, fmt.Errorf("terminal emulator %q not found", emulator)
	}

	// WSL exposes the Windows Terminal launcher.
	if bin, err := exec.LookPath("wt.exe"); err == nil {
		return exec.Command(bin, "sh", "-c", follow), nil
	}

	if os.Getenv("DISPLAY") == "" && os.Getenv("WAYLAND_DISPLAY") == "" {
		return nil, fmt.Errorf("no display available for visual mode")
	}

	for _, entry := range linuxEmulators {
		if bin, err := exec.LookPath(entry[0]); err == nil {
			args := append([]string{}, entry[1:]...)
			args = append(args, "sh", "-c", follow)
			return exec.Command(bin, args...), nil
		}
	}

	return nil, fmt.Errorf("no terminal emulator found")
}

// Write appends an output chunk to the stream file.
func (mr *mirror) Write(p []byte) {
	mr.mu.Lock()
	defer mr.mu.Unlock()

	if mr.f != nil {
		_, _ = mr.f.Write(p)
	}
}

// Close stops streaming and removes the file. The window, if any, is left to
// the user to dismiss.
func (mr *mirror) Close() {
	mr.mu.Lock()
	defer mr.mu.Unlock()

	if mr.f == nil {
		return
	}
	name := mr.f.Name()
	_ = mr.f.Close()
	mr.f = nil
	_ = os.Remove(name)
}
