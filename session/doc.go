// Package session manages PTY-backed terminal sessions: spawning child
// processes, pumping their output through the emulator, synchronizing on
// conditions, capturing state trees, and synthesizing input.
//
// A [Manager] owns the registry and exposes the tool surface; each [Session]
// couples a PTY, a raw-output ring, and a term.Terminal behind a per-session
// mutex that serializes tool calls against the output pump.
package session
