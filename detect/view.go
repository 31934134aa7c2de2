package detect

import (
	"strings"

	"github.com/danielgatis/terminal-mcp/term"
)

// View is an immutable, detector-facing window onto a grid snapshot.
// Cell (r, c) maps to rune index c of row r, so rune offsets within a row's
// text are grid columns (wide-character spacers read as spaces); regexp match
// offsets are byte offsets and need converting to rune counts first.
type View struct {
	rows, cols int
	cells      [][]term.SnapshotCell
	runes      [][]rune
	wrapped    []bool
	cursorRow  int
	cursorCol  int

	// Offset of this view inside the full grid (non-zero for sub-views).
	offRow, offCol int
}

// NewView builds a view from a full-detail snapshot.
func NewView(snap *term.Snapshot) *View {
	v := &View{
		rows:      snap.Size.Rows,
		cols:      snap.Size.Cols,
		cells:     make([][]term.SnapshotCell, snap.Size.Rows),
		runes:     make([][]rune, snap.Size.Rows),
		wrapped:   make([]bool, snap.Size.Rows),
		cursorRow: snap.Cursor.Row,
		cursorCol: snap.Cursor.Col,
	}

	for r := 0; r < v.rows; r++ {
		runes := make([]rune, v.cols)
		for c := range runes {
			runes[c] = ' '
		}
		v.runes[r] = runes

		if r >= len(snap.Lines) {
			continue
		}
		line := snap.Lines[r]
		v.cells[r] = line.Cells
		v.wrapped[r] = line.Wrapped

		for c := 0; c < v.cols && c < len(line.Cells); c++ {
			cell := &line.Cells[c]
			if !cell.WideSpacer && cell.Char != "" {
				if rs := []rune(cell.Char); len(rs) > 0 {
					runes[c] = rs[0]
				}
			}
		}
	}

	return v
}

// Sub returns a view restricted to the given region. The sub-view remembers
// its offset so element regions can be reported in full-grid coordinates.
func (v *View) Sub(reg Region) *View {
	top := clampInt(reg.Row, 0, v.rows)
	left := clampInt(reg.Col, 0, v.cols)
	bottom := clampInt(reg.Row+reg.Rows, top, v.rows)
	right := clampInt(reg.Col+reg.Cols, left, v.cols)

	sub := &View{
		rows:      bottom - top,
		cols:      right - left,
		cells:     make([][]term.SnapshotCell, bottom-top),
		runes:     make([][]rune, bottom-top),
		wrapped:   make([]bool, bottom-top),
		cursorRow: v.cursorRow - top,
		cursorCol: v.cursorCol - left,
		offRow:    v.offRow + top,
		offCol:    v.offCol + left,
	}

	for r := top; r < bottom; r++ {
		if right <= len(v.cells[r]) {
			sub.cells[r-top] = v.cells[r][left:right]
		}
		sub.runes[r-top] = v.runes[r][left:right]
		sub.wrapped[r-top] = v.wrapped[r]
	}

	return sub
}

func clampInt(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// Rows returns the view height.
func (v *View) Rows() int { return v.rows }

// Cols returns the view width.
func (v *View) Cols() int { return v.cols }

// Offset returns the view's origin within the full grid.
func (v *View) Offset() (row, col int) { return v.offRow, v.offCol }

// Cell returns the snapshot cell at (row, col), or nil when out of bounds.
func (v *View) Cell(row, col int) *term.SnapshotCell {
	if row < 0 || row >= v.rows || col < 0 || col >= len(v.cells[row]) {
		return nil
	}
	return &v.cells[row][col]
}

// Rune returns the displayed rune at (row, col), or space when out of bounds.
func (v *View) Rune(row, col int) rune {
	if row < 0 || row >= v.rows || col < 0 || col >= v.cols {
		return ' '
	}
	return v.runes[row][col]
}

// RowRunes returns the full row as runes, one per column.
func (v *View) RowRunes(row int) []rune {
	if row < 0 || row >= v.rows {
		return nil
	}
	return v.runes[row]
}

// Line returns the row text with trailing whitespace trimmed.
func (v *View) Line(row int) string {
	if row < 0 || row >= v.rows {
		return ""
	}
	return strings.TrimRight(string(v.runes[row]), " ")
}

// Wrapped returns true if the row soft-wraps into the next one.
func (v *View) Wrapped(row int) bool {
	if row < 0 || row >= v.rows {
		return false
	}
	return v.wrapped[row]
}

// Cursor returns the cursor position in view coordinates.
func (v *View) Cursor() (row, col int) {
	return v.cursorRow, v.cursorCol
}

// LogicalLine is one or more grid rows joined across soft wraps.
type LogicalLine struct {
	Row  int    // first grid row
	Span int    // number of grid rows
	Text string // joined text, trailing whitespace trimmed
}

// LogicalLines joins soft-wrapped rows: a row whose content reaches the
// rightmost column and carries the wrapped flag continues into the next row.
func (v *View) LogicalLines() []LogicalLine {
	var out []LogicalLine

	for r := 0; r < v.rows; {
		start := r
		var sb strings.Builder
		for {
			if v.Wrapped(r) && r+1 < v.rows {
				sb.WriteString(string(v.runes[r]))
				r++
				continue
			}
			sb.WriteString(strings.TrimRight(string(v.runes[r]), " "))
			r++
			break
		}
		out = append(out, LogicalLine{
			Row:  start,
			Span: r - start,
			Text: sb.String(),
		})
	}

	return out
}
