package session

import (
	"time"

	"github.com/danielgatis/terminal-mcp/detect"
	"github.com/danielgatis/terminal-mcp/term"
)

// CursorPos is the cursor location reported in a state tree.
type CursorPos struct {
	Row     int  `json:"row"`
	Col     int  `json:"col"`
	Visible bool `json:"visible"`
}

// StateTree is the result of a snapshot: the rendered grid, the cursor, and
// the detected UI elements. SnapshotIndex increases by one per snapshot taken
// on the session.
type StateTree struct {
	SessionID     string                   `json:"session_id"`
	Rows          int                      `json:"rows"`
	Cols          int                      `json:"cols"`
	Cursor        CursorPos                `json:"cursor"`
	Title         string                   `json:"title,omitempty"`
	AltScreen     bool                     `json:"alt_screen,omitempty"`
	Lines         []string                 `json:"lines"`
	Runs          [][]term.SnapshotSegment `json:"runs,omitempty"`
	Elements      []detect.Element         `json:"elements"`
	SnapshotIndex int                      `json:"snapshot_index"`
	Alive         bool                     `json:"alive"`
}

// SnapshotOptions tunes what a snapshot includes.
type SnapshotOptions struct {
	// IncludeRaw adds per-line styled runs (lossless rendering).
	IncludeRaw bool `json:"include_raw,omitempty"`
	// Region restricts detection to a sub-rectangle of the grid.
	Region *detect.Region `json:"region,omitempty"`
}

// SessionInfo is one row of a session listing.
type SessionInfo struct {
	ID        string    `json:"session_id"`
	Command   string    `json:"command"`
	Args      []string  `json:"args,omitempty"`
	Rows      int       `json:"rows"`
	Cols      int       `json:"cols"`
	Mode      Mode      `json:"mode"`
	Alive     bool      `json:"alive"`
	CreatedAt time.Time `json:"created_at"`
}

// ClickStrategy names how a click was synthesized.
type ClickStrategy string

const (
	// StrategyMouse sent a mouse escape sequence at the element's center.
	StrategyMouse ClickStrategy = "mouse"
	// StrategyArrows navigated a menu with arrow keys and pressed Enter.
	StrategyArrows ClickStrategy = "arrows"
	// StrategyTab pressed Tab to the button's tab-order index and then Enter.
	StrategyTab ClickStrategy = "tab"
	// StrategyEnter pressed Enter hoping the element is focused.
	StrategyEnter ClickStrategy = "enter"
)

// ClickResult reports which element was clicked and the strategy used, so
// callers can adapt when the synthesis was best-effort.
type ClickResult struct {
	RefID    string        `json:"ref_id"`
	Element  detect.Element `json:"element"`
	Strategy ClickStrategy `json:"strategy"`
}

// WaitStatus is the outcome discriminator of wait_for.
type WaitStatus string

const (
	WaitMatched WaitStatus = "matched"
	WaitTimeout WaitStatus = "timeout"
	WaitClosed  WaitStatus = "closed"
)

// ElementQuery matches a detected element by type and optional text substring.
type ElementQuery struct {
	Type detect.ElementType `json:"type"`
	Text string             `json:"text,omitempty"`
}

// WaitCondition is one of: text substring, regex, element query, or idle
// (no output for IdleMS milliseconds).
type WaitCondition struct {
	Text    string        `json:"text,omitempty"`
	Regex   string        `json:"regex,omitempty"`
	Element *ElementQuery `json:"element,omitempty"`
	IdleMS  int           `json:"idle_ms,omitempty"`
}

// WaitOutcome is the result of wait_for. Snapshot is set when Status is
// WaitMatched.
type WaitOutcome struct {
	Status   WaitStatus `json:"status"`
	Snapshot *StateTree `json:"snapshot,omitempty"`
}
