// Package term provides a headless xterm-compatible terminal emulator.
//
// The emulator has no display: it parses an ANSI/VT escape-sequence byte
// stream into a 2D cell grid that can be inspected programmatically. It is
// the grid behind every terminal-mcp session.
//
// # Quick Start
//
// Create a terminal and write ANSI sequences to it:
//
//	trm := term.New(term.WithSize(24, 80))
//	trm.WriteString("\x1b[31mHello \x1b[32mWorld\x1b[0m!")
//	fmt.Println(trm.LineContent(0)) // "Hello World!"
//
// # Architecture
//
// The package is organized around these core types:
//
//   - [Terminal]: the emulator; owns both buffers, the cursor, and the modes
//   - [Decoder]: the escape-sequence state machine feeding a [Handler]
//   - [Buffer]: a 2D grid of cells with tab stops and wrap tracking
//   - [Cell]: a single character with colors and attributes
//
// Terminal implements [io.Writer], so PTY output can be piped straight in:
//
//	cmd := exec.Command("ls", "--color")
//	cmd.Stdout = trm
//	cmd.Run()
//
// # Dual Buffers
//
// Terminal maintains a primary and an alternate buffer. Full-screen
// applications switch via CSI ?1049h/l (also legacy ?47/?1047/?1048); a
// matched enter/exit pair leaves the primary buffer untouched. Check which
// buffer is active with [Terminal.IsAlternateScreen].
//
// Lines scrolled off the top of the primary buffer are discarded: the
// emulator keeps no scrollback.
//
// # Device Responses
//
// Some sequences (DA, DSR) require a reply to the application. Replies go to
// the writer configured with [WithResponse] — typically the PTY input — and
// never into the grid.
//
// # Snapshots
//
// Capture the screen with [Terminal.Snapshot] at three detail levels: plain
// text, styled segments, or full per-cell data. Snapshots are plain data and
// safe to hold after the terminal moves on.
package term
