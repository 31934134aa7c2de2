package term

import "testing"

func TestParserCursorMovementDefaults(t *testing.T) {
	term := New(WithSize(24, 80))

	term.WriteString("\x1b[5;10H") // CUP to (4,9)
	term.WriteString("\x1b[A")     // CUU default 1
	term.WriteString("\x1b[2B")    // CUD 2
	term.WriteString("\x1b[3C")    // CUF 3
	term.WriteString("\x1b[D")     // CUB default 1

	row, col := term.CursorPos()
	if row != 5 || col != 11 {
		t.Errorf("expected cursor at (5, 11), got (%d, %d)", row, col)
	}
}

func TestParserCursorClamped(t *testing.T) {
	term := New(WithSize(10, 10))

	term.WriteString("\x1b[99;99H")
	row, col := term.CursorPos()
	if row != 9 || col != 9 {
		t.Errorf("expected clamp to (9, 9), got (%d, %d)", row, col)
	}

	term.WriteString("\x1b[99A\x1b[99D")
	row, col = term.CursorPos()
	if row != 0 || col != 0 {
		t.Errorf("expected clamp to (0, 0), got (%d, %d)", row, col)
	}
}

func TestParserCHAandVPA(t *testing.T) {
	term := New(WithSize(24, 80))

	term.WriteString("\x1b[7G")
	if _, col := term.CursorPos(); col != 6 {
		t.Errorf("CHA: expected col 6, got %d", col)
	}

	term.WriteString("\x1b[12d")
	if row, _ := term.CursorPos(); row != 11 {
		t.Errorf("VPA: expected row 11, got %d", row)
	}
}

func TestParserEraseLine(t *testing.T) {
	term := New(WithSize(1, 10))

	term.WriteString("0123456789\x1b[1;5H\x1b[K")
	if content := term.LineContent(0); content != "0123" {
		t.Errorf("EL 0: expected '0123', got %q", content)
	}

	term.WriteString("\x1b[1;3H\x1b[1K")
	if content := term.LineContent(0); content != "   3" {
		t.Errorf("EL 1: expected '   3', got %q", content)
	}

	term.WriteString("\x1b[2K")
	if content := term.LineContent(0); content != "" {
		t.Errorf("EL 2: expected empty line, got %q", content)
	}
}

func TestParserEraseScreenBelowAbove(t *testing.T) {
	term := New(WithSize(3, 5))

	term.WriteString("aaaaa\r\nbbbbb\r\nccccc")
	term.WriteString("\x1b[2;3H\x1b[J") // clear from cursor down

	if content := term.LineContent(0); content != "aaaaa" {
		t.Errorf("ED 0: row 0 should survive, got %q", content)
	}
	if content := term.LineContent(1); content != "bb" {
		t.Errorf("ED 0: expected 'bb', got %q", content)
	}
	if content := term.LineContent(2); content != "" {
		t.Errorf("ED 0: row 2 should be cleared, got %q", content)
	}

	term.WriteString("\x1b[1J") // clear from top through cursor
	if content := term.LineContent(0); content != "" {
		t.Errorf("ED 1: row 0 should be cleared, got %q", content)
	}
}

func TestParserInsertDeleteLines(t *testing.T) {
	term := New(WithSize(4, 10))

	term.WriteString("a\r\nb\r\nc\r\nd")
	term.WriteString("\x1b[2;1H\x1b[L") // insert one line at row 1

	want := []string{"a", "", "b", "c"}
	for r, expected := range want {
		if content := term.LineContent(r); content != expected {
			t.Errorf("after IL row %d: expected %q, got %q", r, expected, content)
		}
	}

	term.WriteString("\x1b[M") // delete it again
	want = []string{"a", "b", "c", ""}
	for r, expected := range want {
		if content := term.LineContent(r); content != expected {
			t.Errorf("after DL row %d: expected %q, got %q", r, expected, content)
		}
	}
}

func TestParserICHDCHECH(t *testing.T) {
	term := New(WithSize(1, 10))

	term.WriteString("abcdef")
	term.WriteString("\x1b[1;3H\x1b[2@") // insert 2 blanks at col 2
	if content := term.LineContent(0); content != "ab  cdef" {
		t.Errorf("ICH: expected 'ab  cdef', got %q", content)
	}

	term.WriteString("\x1b[2P") // delete them
	if content := term.LineContent(0); content != "abcdef" {
		t.Errorf("DCH: expected 'abcdef', got %q", content)
	}

	term.WriteString("\x1b[2X") // erase without shifting
	if content := term.LineContent(0); content != "ab  ef" {
		t.Errorf("ECH: expected 'ab  ef', got %q", content)
	}
}

func TestParserDECSCDECRC(t *testing.T) {
	term := New(WithSize(24, 80))

	term.WriteString("\x1b[5;5H\x1b7")     // save at (4,4)
	term.WriteString("\x1b[1;1Hsomething") // move away
	term.WriteString("\x1b8")              // restore

	row, col := term.CursorPos()
	if row != 4 || col != 4 {
		t.Errorf("DECRC: expected (4, 4), got (%d, %d)", row, col)
	}
}

func TestParserSCPRCP(t *testing.T) {
	term := New(WithSize(24, 80))

	term.WriteString("\x1b[8;3H\x1b[s\x1b[1;1H\x1b[u")

	row, col := term.CursorPos()
	if row != 7 || col != 2 {
		t.Errorf("RCP: expected (7, 2), got (%d, %d)", row, col)
	}
}

func TestParserIndexReverseIndex(t *testing.T) {
	term := New(WithSize(3, 10))

	term.WriteString("top\r\nmid\r\nbot")
	term.WriteString("\x1b[1;1H\x1bM") // RI at the top scrolls down

	if content := term.LineContent(0); content != "" {
		t.Errorf("RI: expected blank top row, got %q", content)
	}
	if content := term.LineContent(1); content != "top" {
		t.Errorf("RI: expected 'top' pushed to row 1, got %q", content)
	}
}

func TestParserNEL(t *testing.T) {
	term := New(WithSize(24, 80))

	term.WriteString("abc\x1bE")
	row, col := term.CursorPos()
	if row != 1 || col != 0 {
		t.Errorf("NEL: expected (1, 0), got (%d, %d)", row, col)
	}
}

func TestParserDECALN(t *testing.T) {
	term := New(WithSize(3, 4))

	term.WriteString("\x1b#8")
	for r := 0; r < 3; r++ {
		if content := term.LineContent(r); content != "EEEE" {
			t.Errorf("DECALN row %d: expected 'EEEE', got %q", r, content)
		}
	}
}

func TestParserLineDrawingCharset(t *testing.T) {
	term := New(WithSize(24, 80))

	term.WriteString("\x1b(0lqk\x1b(B")
	if content := term.LineContent(0); content != "┌─┐" {
		t.Errorf("expected box drawing '┌─┐', got %q", content)
	}

	term.WriteString("x")
	if ch := term.Cell(0, 3).Char; ch != 'x' {
		t.Errorf("expected plain 'x' after ESC(B, got %q", ch)
	}
}

func TestParserTabStops(t *testing.T) {
	term := New(WithSize(24, 80))

	term.WriteString("\tx")
	if ch := term.Cell(0, 8).Char; ch != 'x' {
		t.Errorf("expected 'x' at col 8 after tab, got %q", ch)
	}

	// Set a custom stop at the current column, clear all, then tab again.
	term.WriteString("\r\x1b[3C\x1bH\r\t")
	if _, col := term.CursorPos(); col != 3 {
		t.Errorf("expected tab to custom stop 3, got col %d", col)
	}

	term.WriteString("\x1b[3g\r\t")
	if _, col := term.CursorPos(); col != 79 {
		t.Errorf("expected tab to last column with no stops, got col %d", col)
	}
}

func TestParserOSCHyperlink(t *testing.T) {
	term := New(WithSize(24, 80))

	term.WriteString("\x1b]8;;https://example.com\x07link\x1b]8;;\x07plain")

	cell := term.Cell(0, 0)
	if cell.Hyperlink == nil || cell.Hyperlink.URI != "https://example.com" {
		t.Errorf("expected hyperlink on 'l', got %#v", cell.Hyperlink)
	}

	plain := term.Cell(0, 4)
	if plain.Hyperlink != nil {
		t.Error("expected hyperlink cleared after OSC 8 ;;")
	}
}

func TestParserInsertMode(t *testing.T) {
	term := New(WithSize(1, 10))

	term.WriteString("abc\x1b[1;1H\x1b[4hX\x1b[4l")
	if content := term.LineContent(0); content != "Xabc" {
		t.Errorf("IRM: expected 'Xabc', got %q", content)
	}
}

func TestParserOriginMode(t *testing.T) {
	term := New(WithSize(10, 20))

	term.WriteString("\x1b[3;8r\x1b[?6h\x1b[1;1H")
	if row, _ := term.CursorPos(); row != 2 {
		t.Errorf("origin mode: expected home at scroll top (row 2), got %d", row)
	}

	term.WriteString("\x1b[?6l")
}

func TestParserSoftReset(t *testing.T) {
	term := New(WithSize(10, 20))

	term.WriteString("\x1b[?25l\x1b[3;8r\x1b[1m")
	term.WriteString("\x1b[!p")

	if !term.CursorVisible() {
		t.Error("DECSTR should restore cursor visibility")
	}
	if top, bottom := term.ScrollRegion(); top != 0 || bottom != 10 {
		t.Errorf("DECSTR should reset scroll region, got [%d,%d)", top, bottom)
	}
}

func TestParserControlsInsideCSI(t *testing.T) {
	term := New(WithSize(24, 80))

	// A backspace in the middle of a CSI executes immediately.
	term.WriteString("ab\x1b[\x081C")
	row, col := term.CursorPos()
	if row != 0 || col != 2 {
		t.Errorf("expected cursor at (0, 2), got (%d, %d)", row, col)
	}
}
