package term

import (
	"fmt"
	"image/color"
)

// Ensure Terminal implements Handler.
var _ Handler = (*Terminal)(nil)

// Input writes a character to the buffer at the cursor position.
// Handles wide characters, deferred line wrapping, insert mode, and charset
// translation.
func (t *Terminal) Input(r rune) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.activeCharset >= 0 && t.activeCharset < 4 && t.charsets[t.activeCharset] == CharsetLineDrawing {
		r = translateLineDrawing(r)
	}

	width := runeWidth(r)

	// Zero-width characters (combining marks) are not stored separately.
	if width == 0 {
		return
	}

	// Deferred autowrap: the previous write reached the right margin.
	if t.pendingWrap {
		t.pendingWrap = false
		if t.modes&ModeLineWrap != 0 {
			t.activeBuffer.SetWrapped(t.cursor.Row, true)
			t.cursor.Col = 0
			t.cursor.Row++
			t.scrollIfNeeded()
		}
	}

	// A wide character that does not fit before the margin wraps early.
	if width == 2 && t.cursor.Col+2 > t.cols {
		if t.modes&ModeLineWrap == 0 {
			return
		}
		t.activeBuffer.SetWrapped(t.cursor.Row, true)
		t.cursor.Col = 0
		t.cursor.Row++
		t.scrollIfNeeded()
	}

	if t.modes&ModeInsert != 0 {
		t.activeBuffer.InsertBlanks(t.cursor.Row, t.cursor.Col, width)
	}

	cell := t.activeBuffer.Cell(t.cursor.Row, t.cursor.Col)
	if cell == nil {
		return
	}

	cell.Char = r
	cell.Fg = t.template.Fg
	cell.Bg = t.template.Bg
	cell.Flags = t.template.Flags
	cell.Hyperlink = t.currentHyperlink

	if width == 2 {
		cell.SetFlag(CellFlagWideChar)
		if spacer := t.activeBuffer.Cell(t.cursor.Row, t.cursor.Col+1); spacer != nil {
			spacer.Reset()
			spacer.Fg = t.template.Fg
			spacer.Bg = t.template.Bg
			spacer.SetFlag(CellFlagWideCharSpacer)
		}
	} else {
		cell.ClearFlag(CellFlagWideChar | CellFlagWideCharSpacer)
	}

	if t.cursor.Col+width >= t.cols {
		t.cursor.Col = t.cols - 1
		t.pendingWrap = t.modes&ModeLineWrap != 0
	} else {
		t.cursor.Col += width
	}
}

// translateLineDrawing translates characters for the DEC line drawing charset.
func translateLineDrawing(r rune) rune {
	switch r {
	case 'j':
		return '┘'
	case 'k':
		return '┐'
	case 'l':
		return '┌'
	case 'm':
		return '└'
	case 'n':
		return '┼'
	case 'q':
		return '─'
	case 't':
		return '├'
	case 'u':
		return '┤'
	case 'v':
		return '┴'
	case 'w':
		return '┬'
	case 'x':
		return '│'
	default:
		return r
	}
}

// Bell handles BEL. The headless terminal has nowhere to ring.
func (t *Terminal) Bell() {}

// Backspace moves the cursor one column left, stopping at column 0.
func (t *Terminal) Backspace() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.pendingWrap = false
	if t.cursor.Col > 0 {
		t.cursor.Col--
	}
}

// Tab moves the cursor right to the next n tab stops.
func (t *Terminal) Tab(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.pendingWrap = false
	for i := 0; i < n; i++ {
		t.cursor.Col = t.activeBuffer.NextTabStop(t.cursor.Col)
	}
}

// LineFeed moves the cursor down one row, scrolling the region if needed.
// If ModeLineFeedNewLine is set, also moves to column 0.
func (t *Terminal) LineFeed() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.pendingWrap = false
	t.activeBuffer.SetWrapped(t.cursor.Row, false)

	if t.modes&ModeLineFeedNewLine != 0 {
		t.cursor.Col = 0
	}

	t.cursor.Row++
	t.scrollIfNeeded()
}

// CarriageReturn moves the cursor to column 0 of the current row.
func (t *Terminal) CarriageReturn() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.pendingWrap = false
	t.cursor.Col = 0
}

// Substitute replaces the character at the cursor with '?' (used for error indication).
func (t *Terminal) Substitute() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if cell := t.activeBuffer.Cell(t.cursor.Row, t.cursor.Col); cell != nil {
		cell.Char = '?'
	}
}

// Goto moves the cursor to (row, col), adjusting for origin mode if enabled.
func (t *Terminal) Goto(row, col int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.pendingWrap = false
	row = t.effectiveRow(row)
	t.cursor.Row = clamp(row, 0, t.rows-1)
	t.cursor.Col = clamp(col, 0, t.cols-1)
}

// GotoCol moves the cursor to the specified column, keeping the current row.
func (t *Terminal) GotoCol(col int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.pendingWrap = false
	t.cursor.Col = clamp(col, 0, t.cols-1)
}

// GotoLine moves the cursor to the specified row, adjusting for origin mode if enabled.
func (t *Terminal) GotoLine(row int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.pendingWrap = false
	row = t.effectiveRow(row)
	t.cursor.Row = clamp(row, 0, t.rows-1)
}

// MoveUp moves the cursor up n rows, stopping at row 0.
func (t *Terminal) MoveUp(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.pendingWrap = false
	t.cursor.Row = clamp(t.cursor.Row-n, 0, t.rows-1)
}

// MoveDown moves the cursor down n rows, stopping at the last row.
func (t *Terminal) MoveDown(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.pendingWrap = false
	t.cursor.Row = clamp(t.cursor.Row+n, 0, t.rows-1)
}

// MoveForward moves the cursor right n columns, stopping at the last column.
func (t *Terminal) MoveForward(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.pendingWrap = false
	t.cursor.Col = clamp(t.cursor.Col+n, 0, t.cols-1)
}

// MoveBackward moves the cursor left n columns, stopping at column 0.
func (t *Terminal) MoveBackward(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.pendingWrap = false
	t.cursor.Col = clamp(t.cursor.Col-n, 0, t.cols-1)
}

// MoveDownCr moves the cursor down n rows and to column 0.
func (t *Terminal) MoveDownCr(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.pendingWrap = false
	t.cursor.Row = clamp(t.cursor.Row+n, 0, t.rows-1)
	t.cursor.Col = 0
}

// MoveUpCr moves the cursor up n rows and to column 0.
func (t *Terminal) MoveUpCr(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.pendingWrap = false
	t.cursor.Row = clamp(t.cursor.Row-n, 0, t.rows-1)
	t.cursor.Col = 0
}

// MoveForwardTabs moves the cursor right to the next n tab stops.
func (t *Terminal) MoveForwardTabs(n int) {
	t.Tab(n)
}

// MoveBackwardTabs moves the cursor left to the previous n tab stops.
func (t *Terminal) MoveBackwardTabs(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.pendingWrap = false
	for i := 0; i < n; i++ {
		t.cursor.Col = t.activeBuffer.PrevTabStop(t.cursor.Col)
	}
}

// ClearScreen clears screen regions based on mode (below cursor, above cursor,
// or the entire screen). ClearModeSaved is a no-op: the grid keeps no scrollback.
func (t *Terminal) ClearScreen(mode ClearMode) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch mode {
	case ClearModeBelow:
		t.activeBuffer.ClearRowRange(t.cursor.Row, t.cursor.Col, t.cols)
		for row := t.cursor.Row + 1; row < t.rows; row++ {
			t.activeBuffer.ClearRow(row)
		}
	case ClearModeAbove:
		for row := 0; row < t.cursor.Row; row++ {
			t.activeBuffer.ClearRow(row)
		}
		t.activeBuffer.ClearRowRange(t.cursor.Row, 0, t.cursor.Col+1)
	case ClearModeAll:
		t.activeBuffer.ClearAll()
	case ClearModeSaved:
	}
}

// ClearLine clears portions of the current line based on mode (right of cursor,
// left of cursor, or entire line).
func (t *Terminal) ClearLine(mode LineClearMode) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch mode {
	case LineClearModeRight:
		t.activeBuffer.ClearRowRange(t.cursor.Row, t.cursor.Col, t.cols)
	case LineClearModeLeft:
		t.activeBuffer.ClearRowRange(t.cursor.Row, 0, t.cursor.Col+1)
	case LineClearModeAll:
		t.activeBuffer.ClearRow(t.cursor.Row)
	}
}

// ClearTabs removes tab stops at the current column or all columns based on mode.
func (t *Terminal) ClearTabs(mode TabulationClearMode) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch mode {
	case TabulationClearModeCurrent:
		t.activeBuffer.ClearTabStop(t.cursor.Col)
	case TabulationClearModeAll:
		t.activeBuffer.ClearAllTabStops()
	}
}

// HorizontalTabSet enables a tab stop at the current column.
func (t *Terminal) HorizontalTabSet() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.activeBuffer.SetTabStop(t.cursor.Col)
}

// InsertBlank inserts n blank cells at the cursor, shifting existing characters right.
func (t *Terminal) InsertBlank(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.activeBuffer.InsertBlanks(t.cursor.Row, t.cursor.Col, n)
}

// InsertBlankLines inserts n blank lines at the cursor within the scroll
// region, shifting remaining lines down.
func (t *Terminal) InsertBlankLines(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cursor.Row >= t.scrollTop && t.cursor.Row < t.scrollBottom {
		t.activeBuffer.InsertLines(t.cursor.Row, n, t.scrollBottom)
	}
}

// DeleteChars removes n characters at the cursor, shifting remaining characters left.
func (t *Terminal) DeleteChars(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.activeBuffer.DeleteChars(t.cursor.Row, t.cursor.Col, n)
}

// DeleteLines removes n lines at the cursor within the scroll region,
// shifting remaining lines up.
func (t *Terminal) DeleteLines(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cursor.Row >= t.scrollTop && t.cursor.Row < t.scrollBottom {
		t.activeBuffer.DeleteLines(t.cursor.Row, n, t.scrollBottom)
	}
}

// EraseChars resets n characters at the cursor to default state without shifting.
func (t *Terminal) EraseChars(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := 0; i < n && t.cursor.Col+i < t.cols; i++ {
		if cell := t.activeBuffer.Cell(t.cursor.Row, t.cursor.Col+i); cell != nil {
			cell.Reset()
		}
	}
}

// ScrollUp shifts lines up within the scroll region, clearing bottom lines.
func (t *Terminal) ScrollUp(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.activeBuffer.ScrollUp(t.scrollTop, t.scrollBottom, n)
}

// ScrollDown shifts lines down within the scroll region, clearing top lines.
func (t *Terminal) ScrollDown(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.activeBuffer.ScrollDown(t.scrollTop, t.scrollBottom, n)
}

// SetScrollingRegion sets the scroll boundaries (1-based, converted to
// 0-based internally). Moves the cursor to the home position.
func (t *Terminal) SetScrollingRegion(top, bottom int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	// The 1-based inclusive bottom row is the 0-based exclusive bound.
	top--

	if top < 0 {
		top = 0
	}
	if bottom <= 0 || bottom > t.rows {
		bottom = t.rows
	}
	if top >= bottom-1 {
		return
	}

	t.scrollTop = top
	t.scrollBottom = bottom

	t.pendingWrap = false
	if t.modes&ModeOrigin != 0 {
		t.cursor.Row = t.scrollTop
	} else {
		t.cursor.Row = 0
	}
	t.cursor.Col = 0
}

// SaveCursorPosition saves cursor position, attributes, charset state, and
// origin mode for later restoration (DECSC).
func (t *Terminal) SaveCursorPosition() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.saveCursorPositionLocked()
}

func (t *Terminal) saveCursorPositionLocked() {
	t.savedCursor = &SavedCursor{
		Row:          t.cursor.Row,
		Col:          t.cursor.Col,
		Attrs:        t.template,
		OriginMode:   t.modes&ModeOrigin != 0,
		CharsetIndex: t.activeCharset,
		Charsets:     t.charsets,
	}
}

// RestoreCursorPosition restores cursor position, attributes, and charset
// state from the saved cursor (DECRC).
func (t *Terminal) RestoreCursorPosition() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.restoreCursorPositionLocked()
}

func (t *Terminal) restoreCursorPositionLocked() {
	if t.savedCursor == nil {
		return
	}

	t.pendingWrap = false
	t.cursor.Row = clamp(t.savedCursor.Row, 0, t.rows-1)
	t.cursor.Col = clamp(t.savedCursor.Col, 0, t.cols-1)
	t.template = t.savedCursor.Attrs

	if t.savedCursor.OriginMode {
		t.modes |= ModeOrigin
	} else {
		t.modes &^= ModeOrigin
	}

	t.activeCharset = t.savedCursor.CharsetIndex
	t.charsets = t.savedCursor.Charsets
}

// ReverseIndex moves the cursor up one row. If at the top of the scroll
// region, scrolls down instead.
func (t *Terminal) ReverseIndex() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.pendingWrap = false
	if t.cursor.Row == t.scrollTop {
		t.activeBuffer.ScrollDown(t.scrollTop, t.scrollBottom, 1)
	} else if t.cursor.Row > 0 {
		t.cursor.Row--
	}
}

// SetMode enables a terminal mode flag.
func (t *Terminal) SetMode(mode Mode) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.setModeLocked(mode, true)
}

// UnsetMode disables a terminal mode flag.
func (t *Terminal) UnsetMode(mode Mode) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.setModeLocked(mode, false)
}

// setModeLocked sets or unsets a terminal mode (caller must hold lock).
// Some modes have side effects: origin mode homes the cursor, the alternate
// screen modes switch buffers.
func (t *Terminal) setModeLocked(mode Mode, set bool) {
	var m TerminalMode

	switch mode {
	case ModeCursorKeys:
		m = ModeCursorKeysApplication
	case ModeInsertReplace:
		m = ModeInsert
	case ModeOriginMode:
		m = ModeOrigin
		if set {
			t.cursor.Row = t.scrollTop
			t.cursor.Col = 0
		}
	case ModeAutowrap:
		m = ModeLineWrap
	case ModeBlinkCursor:
		m = ModeBlinkingCursor
	case ModeLineFeedNewLineMode:
		m = ModeLineFeedNewLine
	case ModeCursorVisible:
		m = ModeShowCursor
		t.cursor.Visible = set
	case ModeMouseClicks:
		m = ModeReportMouseClicks
	case ModeMouseCellMotion:
		m = ModeReportCellMouseMotion
	case ModeMouseAllMotion:
		m = ModeReportAllMouseMotion
	case ModeFocusReporting:
		m = ModeReportFocusInOut
	case ModeMouseUTF8:
		m = ModeUTF8Mouse
	case ModeMouseSGR:
		m = ModeSGRMouse
	case ModeAltScreen:
		// Legacy ?47 / ?1047: switch buffers without touching the cursor.
		m = ModeAlternateScreen
		if set {
			t.activeBuffer = t.alternateBuffer
			t.activeBuffer.ClearAll()
		} else {
			t.activeBuffer = t.primaryBuffer
		}
	case ModeSaveRestoreCursor:
		// ?1048 carries only the cursor save/restore half of ?1049.
		if set {
			t.saveCursorPositionLocked()
		} else {
			t.restoreCursorPositionLocked()
		}
		return
	case ModeAltScreenSaveCursor:
		m = ModeAlternateScreen
		if set {
			t.saveCursorPositionLocked()
			t.activeBuffer = t.alternateBuffer
			t.activeBuffer.ClearAll()
		} else {
			t.activeBuffer = t.primaryBuffer
			t.restoreCursorPositionLocked()
		}
	case ModeBracketedPasteMode:
		m = ModeBracketedPaste
	default:
		return
	}

	if set {
		t.modes |= m
	} else {
		t.modes &^= m
	}
}

// SetTerminalCharAttribute applies an SGR attribute to the cell template.
func (t *Terminal) SetTerminalCharAttribute(attr TerminalCharAttribute) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch attr.Attr {
	case CharAttributeReset:
		t.template = NewCellTemplate()
	case CharAttributeBold:
		t.template.SetFlag(CellFlagBold)
	case CharAttributeDim:
		t.template.SetFlag(CellFlagDim)
	case CharAttributeItalic:
		t.template.SetFlag(CellFlagItalic)
	case CharAttributeUnderline:
		t.template.SetFlag(CellFlagUnderline)
	case CharAttributeBlink:
		t.template.SetFlag(CellFlagBlink)
	case CharAttributeReverse:
		t.template.SetFlag(CellFlagReverse)
	case CharAttributeHidden:
		t.template.SetFlag(CellFlagHidden)
	case CharAttributeStrike:
		t.template.SetFlag(CellFlagStrike)
	case CharAttributeCancelBold:
		t.template.ClearFlag(CellFlagBold)
	case CharAttributeCancelBoldDim:
		t.template.ClearFlag(CellFlagBold | CellFlagDim)
	case CharAttributeCancelItalic:
		t.template.ClearFlag(CellFlagItalic)
	case CharAttributeCancelUnderline:
		t.template.ClearFlag(CellFlagUnderline)
	case CharAttributeCancelBlink:
		t.template.ClearFlag(CellFlagBlink)
	case CharAttributeCancelReverse:
		t.template.ClearFlag(CellFlagReverse)
	case CharAttributeCancelHidden:
		t.template.ClearFlag(CellFlagHidden)
	case CharAttributeCancelStrike:
		t.template.ClearFlag(CellFlagStrike)
	case CharAttributeForeground:
		t.template.Fg = resolveAttrColor(attr, NamedColorForeground)
	case CharAttributeBackground:
		t.template.Bg = resolveAttrColor(attr, NamedColorBackground)
	}
}

// resolveAttrColor resolves the color payload of an SGR attribute.
func resolveAttrColor(attr TerminalCharAttribute, defaultName int) color.Color {
	if attr.RGBColor != nil {
		return color.RGBA{
			R: attr.RGBColor.R,
			G: attr.RGBColor.G,
			B: attr.RGBColor.B,
			A: 255,
		}
	}

	if attr.IndexedColor != nil {
		return &IndexedColor{Index: *attr.IndexedColor}
	}

	if attr.NamedColor != nil {
		return &NamedColor{Name: *attr.NamedColor}
	}

	return &NamedColor{Name: defaultName}
}

// SetTitle updates the window title (OSC 0/1/2).
func (t *Terminal) SetTitle(title string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.title = title
}

// SetHyperlink sets the active hyperlink (OSC 8) for subsequently written
// characters. Pass nil to clear the hyperlink.
func (t *Terminal) SetHyperlink(hyperlink *Hyperlink) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.currentHyperlink = hyperlink
}

// SetColor stores a palette override at the given index (OSC 4).
func (t *Terminal) SetColor(index int, c color.Color) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.colors[index] = c
}

// ResetColor removes a palette override at the given index (OSC 104).
func (t *Terminal) ResetColor(index int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.colors, index)
}

// SetActiveCharset selects which charset slot (0-3, G0-G3) is currently active.
func (t *Terminal) SetActiveCharset(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if n >= 0 && n < 4 {
		t.activeCharset = n
	}
}

// ConfigureCharset sets the character set for one of the four slots (G0-G3).
func (t *Terminal) ConfigureCharset(index CharsetIndex, charset Charset) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if index >= 0 && index <= CharsetIndexG3 {
		t.charsets[index] = charset
	}
}

// SetKeypadApplicationMode enables application keypad mode.
func (t *Terminal) SetKeypadApplicationMode() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.modes |= ModeKeypadApplication
}

// UnsetKeypadApplicationMode disables application keypad mode.
func (t *Terminal) UnsetKeypadApplicationMode() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.modes &^= ModeKeypadApplication
}

// IdentifyTerminal sends a device attributes response (DA).
func (t *Terminal) IdentifyTerminal(b byte) {
	t.writeResponseString("\x1b[?6c")
}

// DeviceStatus sends a device status report (DSR) response: ready (n=5) or
// cursor position (n=6).
func (t *Terminal) DeviceStatus(n int) {
	t.mu.RLock()
	row := t.cursor.Row
	col := t.cursor.Col
	t.mu.RUnlock()

	var response string
	switch n {
	case 5:
		response = "\x1b[0n"
	case 6:
		response = fmt.Sprintf("\x1b[%d;%dR", row+1, col+1)
	}

	if response != "" {
		t.writeResponseString(response)
	}
}

// Decaln fills the entire screen with 'E' characters (DEC screen alignment test).
func (t *Terminal) Decaln() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.activeBuffer.FillWithE()
}

// ResetState clears the screen, resets cursor to (0,0), and restores default
// modes and attributes (RIS / DECSTR).
func (t *Terminal) ResetState() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.activeBuffer = t.primaryBuffer
	t.activeBuffer.ClearAll()
	t.cursor.Row = 0
	t.cursor.Col = 0
	t.cursor.Visible = true
	t.pendingWrap = false
	t.savedCursor = nil

	t.template = NewCellTemplate()
	t.scrollTop = 0
	t.scrollBottom = t.rows
	t.modes = ModeLineWrap | ModeShowCursor

	t.charsets = [4]Charset{CharsetASCII, CharsetASCII, CharsetASCII, CharsetASCII}
	t.activeCharset = 0

	t.colors = make(map[int]color.Color)
	t.currentHyperlink = nil
	t.title = ""
}
