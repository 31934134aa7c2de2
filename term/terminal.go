package term

import (
	"image/color"
	"io"
	"strings"
	"sync"
)

// TerminalMode is a bitmask of terminal behavior flags.
// Multiple modes can be active simultaneously.
type TerminalMode uint32

const (
	// ModeCursorKeysApplication enables application cursor key mode (DECCKM).
	ModeCursorKeysApplication TerminalMode = 1 << iota
	// ModeInsert enables insert mode (characters shift right instead of overwrite).
	ModeInsert
	// ModeOrigin enables origin mode (cursor positioning relative to scroll region).
	ModeOrigin
	// ModeLineWrap enables automatic line wrapping at column boundaries.
	ModeLineWrap
	// ModeBlinkingCursor enables blinking cursor.
	ModeBlinkingCursor
	// ModeLineFeedNewLine makes line feed also move to column 0.
	ModeLineFeedNewLine
	// ModeShowCursor makes the cursor visible.
	ModeShowCursor
	// ModeReportMouseClicks enables mouse click reporting.
	ModeReportMouseClicks
	// ModeReportCellMouseMotion enables mouse motion reporting (cell-based).
	ModeReportCellMouseMotion
	// ModeReportAllMouseMotion enables reporting of all mouse motion events.
	ModeReportAllMouseMotion
	// ModeReportFocusInOut enables focus in/out event reporting.
	ModeReportFocusInOut
	// ModeUTF8Mouse enables UTF-8 mouse encoding.
	ModeUTF8Mouse
	// ModeSGRMouse enables SGR mouse encoding.
	ModeSGRMouse
	// ModeAlternateScreen is set while the alternate buffer is active.
	ModeAlternateScreen
	// ModeBracketedPaste enables bracketed paste mode.
	ModeBracketedPaste
	// ModeKeypadApplication enables application keypad mode.
	ModeKeypadApplication
)

const (
	// DefaultRows is the default number of terminal rows.
	DefaultRows = 24
	// DefaultCols is the default number of terminal columns.
	DefaultCols = 80
)

// Terminal emulates an xterm-compatible terminal without a display.
// It maintains two buffers: primary and alternate. The active buffer switches
// when entering/exiting alternate screen mode.
// Accessors and handler callbacks take an internal RWMutex. Write does not:
// the decoder state it drives is unguarded, so concurrent Write calls are not
// safe.
type Terminal struct {
	mu sync.RWMutex

	// Dimensions
	rows int
	cols int

	// Buffers
	primaryBuffer   *Buffer
	alternateBuffer *Buffer
	activeBuffer    *Buffer

	// Cursor
	cursor      *Cursor
	savedCursor *SavedCursor
	pendingWrap bool

	// Current cell attributes
	template CellTemplate

	// Charsets
	charsets      [4]Charset
	activeCharset int

	// Scrolling region
	scrollTop    int
	scrollBottom int

	// Modes
	modes TerminalMode

	// Title
	title string

	// Palette overrides (OSC 4)
	colors map[int]color.Color

	// Hyperlink
	currentHyperlink *Hyperlink

	// Internal escape sequence decoder
	decoder *Decoder

	// Device responses (DA, DSR) are written here, never to the grid.
	response io.Writer
}

// Option configures a Terminal during construction.
type Option func(*Terminal)

// WithSize sets the terminal dimensions.
// Values <= 0 are replaced with defaults (24x80).
func WithSize(rows, cols int) Option {
	if rows <= 0 {
		rows = DefaultRows
	}
	if cols <= 0 {
		cols = DefaultCols
	}

	return func(t *Terminal) {
		t.rows = rows
		t.cols = cols
	}
}

// WithResponse sets the writer for terminal responses (e.g., cursor position reports).
// Typically the PTY input. If nil, responses are discarded.
func WithResponse(w io.Writer) Option {
	return func(t *Terminal) {
		t.response = w
	}
}

// New creates a terminal with the given options.
// Defaults to 24x80 with line wrap and cursor visible.
func New(opts ...Option) *Terminal {
	t := &Terminal{
		rows:   DefaultRows,
		cols:   DefaultCols,
		colors: make(map[int]color.Color),
	}

	for _, opt := range opts {
		opt(t)
	}

	t.primaryBuffer = NewBuffer(t.rows, t.cols)
	t.alternateBuffer = NewBuffer(t.rows, t.cols)
	t.activeBuffer = t.primaryBuffer

	t.cursor = NewCursor()
	t.template = NewCellTemplate()

	t.scrollTop = 0
	t.scrollBottom = t.rows

	t.modes = ModeLineWrap | ModeShowCursor

	t.decoder = NewDecoder(t)

	return t
}

// Rows returns the terminal height in character rows.
func (t *Terminal) Rows() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.rows
}

// Cols returns the terminal width in character columns.
func (t *Terminal) Cols() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.cols
}

// Cell returns the cell at (row, col) in the active buffer.
// Returns nil if coordinates are out of bounds.
func (t *Terminal) Cell(row, col int) *Cell {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.activeBuffer.Cell(row, col)
}

// CursorPos returns the current cursor position (0-based).
func (t *Terminal) CursorPos() (row, col int) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.cursor.Row, t.cursor.Col
}

// CursorVisible returns true if the cursor is currently visible.
func (t *Terminal) CursorVisible() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.cursor.Visible
}

// Title returns the window title set via OSC 0/1/2.
func (t *Terminal) Title() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.title
}

// HasMode returns true if all the given mode flags are active.
func (t *Terminal) HasMode(mode TerminalMode) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.modes&mode == mode
}

// MouseReportingEnabled returns true if the application asked for any form
// of mouse reporting.
func (t *Terminal) MouseReportingEnabled() bool {
	return t.HasMode(ModeReportMouseClicks) ||
		t.HasMode(ModeReportCellMouseMotion) ||
		t.HasMode(ModeReportAllMouseMotion)
}

// Resize changes the terminal dimensions, preserving the top-left content of
// both buffers. The cursor is clamped and the scroll region is intersected
// with the new bounds.
func (t *Terminal) Resize(rows, cols int) {
	if rows <= 0 || cols <= 0 {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.primaryBuffer.Resize(rows, cols)
	t.alternateBuffer.Resize(rows, cols)
	t.rows = rows
	t.cols = cols

	if t.cursor.Row >= rows {
		t.cursor.Row = rows - 1
	}
	if t.cursor.Col >= cols {
		t.cursor.Col = cols - 1
	}
	t.pendingWrap = false

	if t.scrollBottom > rows {
		t.scrollBottom = rows
	}
	if t.scrollTop >= t.scrollBottom {
		t.scrollTop = 0
		t.scrollBottom = rows
	}
}

// Write processes raw bytes, parsing escape sequences and updating the
// terminal state. Implements io.Writer.
func (t *Terminal) Write(data []byte) (int, error) {
	return t.decoder.Write(data)
}

// WriteString is a convenience method that converts the string to bytes and calls Write.
func (t *Terminal) WriteString(s string) (int, error) {
	return t.Write([]byte(s))
}

// SetResponse sets the writer for terminal responses at runtime.
func (t *Terminal) SetResponse(w io.Writer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.response = w
}

// writeResponseString writes a device response if a writer is configured.
func (t *Terminal) writeResponseString(s string) {
	t.mu.RLock()
	w := t.response
	t.mu.RUnlock()

	if w != nil {
		_, _ = w.Write([]byte(s))
	}
}

// LineContent returns the text content of a row in the active buffer,
// trimming trailing spaces.
func (t *Terminal) LineContent(row int) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.activeBuffer.LineContent(row)
}

// String renders the whole active buffer as text, one line per row.
func (t *Terminal) String() string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var sb strings.Builder
	for row := 0; row < t.rows; row++ {
		sb.WriteString(t.activeBuffer.LineContent(row))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// IsAlternateScreen returns true if the alternate buffer is active.
func (t *Terminal) IsAlternateScreen() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.activeBuffer == t.alternateBuffer
}

// ScrollRegion returns the current scroll region as [top, bottom) rows.
func (t *Terminal) ScrollRegion() (top, bottom int) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.scrollTop, t.scrollBottom
}

// IsWrapped returns true if the row was soft-wrapped due to column overflow.
func (t *Terminal) IsWrapped(row int) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.activeBuffer.IsWrapped(row)
}

// clamp ensures the value is within the given range.
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// effectiveRow returns the effective row considering origin mode.
func (t *Terminal) effectiveRow(row int) int {
	if t.modes&ModeOrigin != 0 {
		return row + t.scrollTop
	}
	return row
}

// scrollIfNeeded performs scrolling if the cursor moved outside the scroll region.
func (t *Terminal) scrollIfNeeded() {
	if t.cursor.Row >= t.scrollBottom {
		linesToScroll := t.cursor.Row - t.scrollBottom + 1
		t.activeBuffer.ScrollUp(t.scrollTop, t.scrollBottom, linesToScroll)
		t.cursor.Row = t.scrollBottom - 1
	} else if t.cursor.Row < t.scrollTop {
		linesToScroll := t.scrollTop - t.cursor.Row
		t.activeBuffer.ScrollDown(t.scrollTop, t.scrollBottom, linesToScroll)
		t.cursor.Row = t.scrollTop
	}
}
