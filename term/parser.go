package term

import (
	"image/color"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ClearMode selects which part of the screen ED (CSI J) erases.
type ClearMode int

const (
	ClearModeBelow ClearMode = iota
	ClearModeAbove
	ClearModeAll
	ClearModeSaved
)

// LineClearMode selects which part of the line EL (CSI K) erases.
type LineClearMode int

const (
	LineClearModeRight LineClearMode = iota
	LineClearModeLeft
	LineClearModeAll
)

// TabulationClearMode selects which tab stops TBC (CSI g) clears.
type TabulationClearMode int

const (
	TabulationClearModeCurrent TabulationClearMode = iota
	TabulationClearModeAll
)

// Mode identifies a terminal mode toggled by CSI h / CSI l.
type Mode int

const (
	ModeUnknown Mode = iota
	ModeCursorKeys
	ModeInsertReplace
	ModeOriginMode
	ModeAutowrap
	ModeBlinkCursor
	ModeLineFeedNewLineMode
	ModeCursorVisible
	ModeMouseClicks
	ModeMouseCellMotion
	ModeMouseAllMotion
	ModeFocusReporting
	ModeMouseUTF8
	ModeMouseSGR
	ModeAltScreen
	ModeSaveRestoreCursor
	ModeAltScreenSaveCursor
	ModeBracketedPasteMode
)

// CharAttribute identifies a single SGR attribute.
type CharAttribute int

const (
	CharAttributeReset CharAttribute = iota
	CharAttributeBold
	CharAttributeDim
	CharAttributeItalic
	CharAttributeUnderline
	CharAttributeBlink
	CharAttributeReverse
	CharAttributeHidden
	CharAttributeStrike
	CharAttributeCancelBold
	CharAttributeCancelBoldDim
	CharAttributeCancelItalic
	CharAttributeCancelUnderline
	CharAttributeCancelBlink
	CharAttributeCancelReverse
	CharAttributeCancelHidden
	CharAttributeCancelStrike
	CharAttributeForeground
	CharAttributeBackground
)

// RGBColor is a 24-bit color carried by an SGR 38;2 / 48;2 sequence.
type RGBColor struct {
	R, G, B uint8
}

// TerminalCharAttribute is one decoded SGR attribute with its optional color payload.
type TerminalCharAttribute struct {
	Attr         CharAttribute
	NamedColor   *int // base-16 index or NamedColorForeground/NamedColorBackground
	IndexedColor *int // 256-color palette index
	RGBColor     *RGBColor
}

// Handler receives decoded terminal events. Terminal implements it; the
// decoder never touches the grid directly.
type Handler interface {
	Input(r rune)
	Bell()
	Backspace()
	Tab(n int)
	LineFeed()
	CarriageReturn()
	Substitute()
	Goto(row, col int)
	GotoCol(col int)
	GotoLine(row int)
	MoveUp(n int)
	MoveDown(n int)
	MoveForward(n int)
	MoveBackward(n int)
	MoveDownCr(n int)
	MoveUpCr(n int)
	MoveForwardTabs(n int)
	MoveBackwardTabs(n int)
	ClearScreen(mode ClearMode)
	ClearLine(mode LineClearMode)
	ClearTabs(mode TabulationClearMode)
	HorizontalTabSet()
	InsertBlank(n int)
	InsertBlankLines(n int)
	DeleteChars(n int)
	DeleteLines(n int)
	EraseChars(n int)
	ScrollUp(n int)
	ScrollDown(n int)
	SetScrollingRegion(top, bottom int)
	SaveCursorPosition()
	RestoreCursorPosition()
	ReverseIndex()
	SetMode(mode Mode)
	UnsetMode(mode Mode)
	SetTerminalCharAttribute(attr TerminalCharAttribute)
	SetTitle(title string)
	SetHyperlink(hyperlink *Hyperlink)
	SetColor(index int, c color.Color)
	ResetColor(index int)
	SetActiveCharset(n int)
	ConfigureCharset(index CharsetIndex, charset Charset)
	SetKeypadApplicationMode()
	UnsetKeypadApplicationMode()
	IdentifyTerminal(b byte)
	DeviceStatus(n int)
	Decaln()
	ResetState()
}

type decoderState int

const (
	stateGround decoderState = iota
	stateEscape
	stateEscapeIntermediate
	stateCsiEntry
	stateCsiParam
	stateCsiIntermediate
	stateCsiIgnore
	stateOscString
	stateDcsString
	stateSosPmApcString
)

const (
	maxParams    = 32
	maxOscLength = 4096
)

// Decoder is an incremental VT500-series escape sequence parser.
// Feed it arbitrary chunks via Write; events are emitted to the Handler.
type Decoder struct {
	handler Handler

	state         decoderState
	params        []int
	param         int
	hasParam      bool
	private       byte
	intermediates []byte
	osc           []byte
	oscEsc        bool // saw ESC inside a string state (possible ST)

	utf8Buf  [4]byte
	utf8Len  int
	utf8Need int
}

// NewDecoder creates a decoder that dispatches events to handler.
func NewDecoder(handler Handler) *Decoder {
	return &Decoder{
		handler: handler,
		params:  make([]int, 0, maxParams),
	}
}

// Write processes a chunk of bytes. It always consumes the full chunk;
// malformed sequences are discarded without emitting events.
// Implements io.Writer.
func (d *Decoder) Write(data []byte) (int, error) {
	for _, b := range data {
		d.advance(b)
	}
	return len(data), nil
}

func (d *Decoder) advance(b byte) {
	// String states swallow everything until BEL or ST.
	switch d.state {
	case stateOscString, stateDcsString, stateSosPmApcString:
		d.advanceString(b)
		return
	}

	// C0 controls execute from any non-string state. ESC, CAN and SUB
	// additionally abort a sequence in progress.
	if b < 0x20 {
		switch b {
		case 0x1b:
			d.utf8Reset()
			d.enterEscape()
		case 0x18: // CAN
			d.state = stateGround
		case 0x1a: // SUB
			d.handler.Substitute()
			d.state = stateGround
		default:
			d.execute(b)
		}
		return
	}

	switch d.state {
	case stateGround:
		d.print(b)
	case stateEscape:
		d.escapeDispatch(b)
	case stateEscapeIntermediate:
		if b >= 0x20 && b <= 0x2f {
			d.intermediates = append(d.intermediates, b)
			return
		}
		d.escapeIntermediateDispatch(b)
	case stateCsiEntry, stateCsiParam, stateCsiIntermediate:
		d.advanceCsi(b)
	case stateCsiIgnore:
		if b >= 0x40 && b <= 0x7e {
			d.state = stateGround
		}
	}
}

// execute handles a C0 control character.
func (d *Decoder) execute(b byte) {
	switch b {
	case 0x07:
		d.handler.Bell()
	case 0x08:
		d.handler.Backspace()
	case 0x09:
		d.handler.Tab(1)
	case 0x0a, 0x0b, 0x0c:
		d.handler.LineFeed()
	case 0x0d:
		d.handler.CarriageReturn()
	case 0x0e: // SO: invoke G1
		d.handler.SetActiveCharset(1)
	case 0x0f: // SI: invoke G0
		d.handler.SetActiveCharset(0)
	}
}

// print decodes UTF-8 incrementally and emits complete runes.
// Invalid sequences yield U+FFFD.
func (d *Decoder) print(b byte) {
	if d.utf8Need == 0 {
		switch {
		case b < 0x80:
			d.handler.Input(rune(b))
		case b >= 0xc2 && b <= 0xdf:
			d.utf8Buf[0] = b
			d.utf8Len = 1
			d.utf8Need = 2
		case b >= 0xe0 && b <= 0xef:
			d.utf8Buf[0] = b
			d.utf8Len = 1
			d.utf8Need = 3
		case b >= 0xf0 && b <= 0xf4:
			d.utf8Buf[0] = b
			d.utf8Len = 1
			d.utf8Need = 4
		default:
			d.handler.Input(utf8.RuneError)
		}
		return
	}

	if b&0xc0 != 0x80 {
		// Broken continuation: emit replacement and reprocess the byte.
		d.utf8Reset()
		d.handler.Input(utf8.RuneError)
		d.print(b)
		return
	}

	d.utf8Buf[d.utf8Len] = b
	d.utf8Len++
	if d.utf8Len == d.utf8Need {
		r, _ := utf8.DecodeRune(d.utf8Buf[:d.utf8Len])
		d.utf8Reset()
		d.handler.Input(r)
	}
}

func (d *Decoder) utf8Reset() {
	d.utf8Len = 0
	d.utf8Need = 0
}

func (d *Decoder) enterEscape() {
	d.state = stateEscape
	d.intermediates = d.intermediates[:0]
}

func (d *Decoder) enterCsi() {
	d.state = stateCsiEntry
	d.params = d.params[:0]
	d.param = 0
	d.hasParam = false
	d.private = 0
	d.intermediates = d.intermediates[:0]
}

func (d *Decoder) enterString(state decoderState) {
	d.state = state
	d.osc = d.osc[:0]
	d.oscEsc = false
}

func (d *Decoder) escapeDispatch(b byte) {
	if b >= 0x20 && b <= 0x2f {
		d.intermediates = append(d.intermediates, b)
		d.state = stateEscapeIntermediate
		return
	}

	d.state = stateGround
	switch b {
	case '[':
		d.enterCsi()
	case ']':
		d.enterString(stateOscString)
	case 'P':
		d.enterString(stateDcsString)
	case 'X', '^', '_':
		d.enterString(stateSosPmApcString)
	case '7':
		d.handler.SaveCursorPosition()
	case '8':
		d.handler.RestoreCursorPosition()
	case 'D': // IND
		d.handler.LineFeed()
	case 'E': // NEL
		d.handler.MoveDownCr(1)
	case 'H': // HTS
		d.handler.HorizontalTabSet()
	case 'M': // RI
		d.handler.ReverseIndex()
	case 'Z': // DECID
		d.handler.IdentifyTerminal(0)
	case 'c': // RIS
		d.handler.ResetState()
	case '=':
		d.handler.SetKeypadApplicationMode()
	case '>':
		d.handler.UnsetKeypadApplicationMode()
	case '\\': // stray ST
	default:
		// Unknown two-byte escape: discard.
	}
}

func (d *Decoder) escapeIntermediateDispatch(b byte) {
	d.state = stateGround

	if len(d.intermediates) != 1 {
		return
	}

	switch d.intermediates[0] {
	case '#':
		if b == '8' {
			d.handler.Decaln()
		}
	case '(':
		d.handler.ConfigureCharset(CharsetIndexG0, charsetFromByte(b))
	case ')':
		d.handler.ConfigureCharset(CharsetIndexG1, charsetFromByte(b))
	case '*':
		d.handler.ConfigureCharset(CharsetIndexG2, charsetFromByte(b))
	case '+':
		d.handler.ConfigureCharset(CharsetIndexG3, charsetFromByte(b))
	}
}

func charsetFromByte(b byte) Charset {
	if b == '0' {
		return CharsetLineDrawing
	}
	return CharsetASCII
}

func (d *Decoder) advanceCsi(b byte) {
	switch {
	case b >= '0' && b <= '9':
		if d.state == stateCsiIntermediate {
			d.state = stateCsiIgnore
			return
		}
		d.state = stateCsiParam
		d.param = d.param*10 + int(b-'0')
		if d.param > 65535 {
			d.param = 65535
		}
		d.hasParam = true
	case b == ';' || b == ':':
		// Colon sub-parameters are treated as parameter separators.
		if d.state == stateCsiIntermediate {
			d.state = stateCsiIgnore
			return
		}
		d.state = stateCsiParam
		d.pushParam()
	case b == '?' || b == '>' || b == '<' || b == '=':
		if d.state != stateCsiEntry {
			d.state = stateCsiIgnore
			return
		}
		d.private = b
		d.state = stateCsiParam
	case b >= 0x20 && b <= 0x2f:
		d.intermediates = append(d.intermediates, b)
		d.state = stateCsiIntermediate
	case b >= 0x40 && b <= 0x7e:
		d.pushParam()
		d.csiDispatch(b)
		d.state = stateGround
	default:
		d.state = stateCsiIgnore
	}
}

func (d *Decoder) pushParam() {
	if len(d.params) < maxParams {
		if d.hasParam {
			d.params = append(d.params, d.param)
		} else {
			d.params = append(d.params, -1) // default marker
		}
	}
	d.param = 0
	d.hasParam = false
}

// paramAt returns the parameter at index i, or def when absent or defaulted.
func (d *Decoder) paramAt(i, def int) int {
	if i >= len(d.params) || d.params[i] < 0 {
		return def
	}
	return d.params[i]
}

// paramAtMin returns paramAt clamped to at least min.
func (d *Decoder) paramAtMin(i, def, min int) int {
	p := d.paramAt(i, def)
	if p < min {
		return min
	}
	return p
}

func (d *Decoder) csiDispatch(final byte) {
	if len(d.intermediates) > 0 {
		// DECSTR (CSI ! p) is the only intermediate form handled.
		if len(d.intermediates) == 1 && d.intermediates[0] == '!' && final == 'p' {
			d.handler.ResetState()
		}
		return
	}

	if d.private == '>' || d.private == '<' || d.private == '=' {
		// Secondary/tertiary device attribute queries and xterm extensions
		// are consumed without effect.
		return
	}

	h := d.handler
	switch final {
	case 'A':
		h.MoveUp(d.paramAtMin(0, 1, 1))
	case 'B', 'e':
		h.MoveDown(d.paramAtMin(0, 1, 1))
	case 'C', 'a':
		h.MoveForward(d.paramAtMin(0, 1, 1))
	case 'D':
		h.MoveBackward(d.paramAtMin(0, 1, 1))
	case 'E':
		h.MoveDownCr(d.paramAtMin(0, 1, 1))
	case 'F':
		h.MoveUpCr(d.paramAtMin(0, 1, 1))
	case 'G', '`':
		h.GotoCol(d.paramAtMin(0, 1, 1) - 1)
	case 'H', 'f':
		h.Goto(d.paramAtMin(0, 1, 1)-1, d.paramAtMin(1, 1, 1)-1)
	case 'd':
		h.GotoLine(d.paramAtMin(0, 1, 1) - 1)
	case 'I':
		h.MoveForwardTabs(d.paramAtMin(0, 1, 1))
	case 'Z':
		h.MoveBackwardTabs(d.paramAtMin(0, 1, 1))
	case 'J':
		switch d.paramAt(0, 0) {
		case 0:
			h.ClearScreen(ClearModeBelow)
		case 1:
			h.ClearScreen(ClearModeAbove)
		case 2:
			h.ClearScreen(ClearModeAll)
		case 3:
			h.ClearScreen(ClearModeSaved)
		}
	case 'K':
		switch d.paramAt(0, 0) {
		case 0:
			h.ClearLine(LineClearModeRight)
		case 1:
			h.ClearLine(LineClearModeLeft)
		case 2:
			h.ClearLine(LineClearModeAll)
		}
	case 'L':
		h.InsertBlankLines(d.paramAtMin(0, 1, 1))
	case 'M':
		h.DeleteLines(d.paramAtMin(0, 1, 1))
	case '@':
		h.InsertBlank(d.paramAtMin(0, 1, 1))
	case 'P':
		h.DeleteChars(d.paramAtMin(0, 1, 1))
	case 'X':
		h.EraseChars(d.paramAtMin(0, 1, 1))
	case 'S':
		h.ScrollUp(d.paramAtMin(0, 1, 1))
	case 'T':
		h.ScrollDown(d.paramAtMin(0, 1, 1))
	case 'r':
		h.SetScrollingRegion(d.paramAt(0, 1), d.paramAt(1, 0))
	case 's':
		h.SaveCursorPosition()
	case 'u':
		h.RestoreCursorPosition()
	case 'g':
		switch d.paramAt(0, 0) {
		case 0:
			h.ClearTabs(TabulationClearModeCurrent)
		case 3:
			h.ClearTabs(TabulationClearModeAll)
		}
	case 'm':
		d.dispatchSgr()
	case 'h':
		d.dispatchMode(true)
	case 'l':
		d.dispatchMode(false)
	case 'c':
		h.IdentifyTerminal(0)
	case 'n':
		h.DeviceStatus(d.paramAt(0, 0))
	default:
		// Unknown final byte: discard.
	}
}

func (d *Decoder) dispatchMode(set bool) {
	for i := 0; i < len(d.params) || i == 0; i++ {
		var mode Mode
		if d.private == '?' {
			mode = privateMode(d.paramAt(i, 0))
		} else {
			mode = ansiMode(d.paramAt(i, 0))
		}
		if mode == ModeUnknown {
			if len(d.params) == 0 {
				return
			}
			continue
		}
		if set {
			d.handler.SetMode(mode)
		} else {
			d.handler.UnsetMode(mode)
		}
		if len(d.params) == 0 {
			return
		}
	}
}

func privateMode(n int) Mode {
	switch n {
	case 1:
		return ModeCursorKeys
	case 6:
		return ModeOriginMode
	case 7:
		return ModeAutowrap
	case 12:
		return ModeBlinkCursor
	case 25:
		return ModeCursorVisible
	case 47, 1047:
		return ModeAltScreen
	case 1000:
		return ModeMouseClicks
	case 1002:
		return ModeMouseCellMotion
	case 1003:
		return ModeMouseAllMotion
	case 1004:
		return ModeFocusReporting
	case 1005:
		return ModeMouseUTF8
	case 1006:
		return ModeMouseSGR
	case 1048:
		return ModeSaveRestoreCursor
	case 1049:
		return ModeAltScreenSaveCursor
	case 2004:
		return ModeBracketedPasteMode
	default:
		return ModeUnknown
	}
}

func ansiMode(n int) Mode {
	switch n {
	case 4:
		return ModeInsertReplace
	case 20:
		return ModeLineFeedNewLineMode
	default:
		return ModeUnknown
	}
}

func (d *Decoder) dispatchSgr() {
	if len(d.params) == 0 {
		d.handler.SetTerminalCharAttribute(TerminalCharAttribute{Attr: CharAttributeReset})
		return
	}

	for i := 0; i < len(d.params); i++ {
		p := d.paramAt(i, 0)
		switch {
		case p == 0:
			d.emitAttr(CharAttributeReset)
		case p == 1:
			d.emitAttr(CharAttributeBold)
		case p == 2:
			d.emitAttr(CharAttributeDim)
		case p == 3:
			d.emitAttr(CharAttributeItalic)
		case p == 4:
			d.emitAttr(CharAttributeUnderline)
		case p == 5 || p == 6:
			d.emitAttr(CharAttributeBlink)
		case p == 7:
			d.emitAttr(CharAttributeReverse)
		case p == 8:
			d.emitAttr(CharAttributeHidden)
		case p == 9:
			d.emitAttr(CharAttributeStrike)
		case p == 21:
			d.emitAttr(CharAttributeCancelBold)
		case p == 22:
			d.emitAttr(CharAttributeCancelBoldDim)
		case p == 23:
			d.emitAttr(CharAttributeCancelItalic)
		case p == 24:
			d.emitAttr(CharAttributeCancelUnderline)
		case p == 25:
			d.emitAttr(CharAttributeCancelBlink)
		case p == 27:
			d.emitAttr(CharAttributeCancelReverse)
		case p == 28:
			d.emitAttr(CharAttributeCancelHidden)
		case p == 29:
			d.emitAttr(CharAttributeCancelStrike)
		case p >= 30 && p <= 37:
			d.emitNamed(CharAttributeForeground, p-30)
		case p == 38:
			i += d.emitExtendedColor(CharAttributeForeground, i)
		case p == 39:
			d.emitNamed(CharAttributeForeground, NamedColorForeground)
		case p >= 40 && p <= 47:
			d.emitNamed(CharAttributeBackground, p-40)
		case p == 48:
			i += d.emitExtendedColor(CharAttributeBackground, i)
		case p == 49:
			d.emitNamed(CharAttributeBackground, NamedColorBackground)
		case p >= 90 && p <= 97:
			d.emitNamed(CharAttributeForeground, p-90+8)
		case p >= 100 && p <= 107:
			d.emitNamed(CharAttributeBackground, p-100+8)
		}
	}
}

func (d *Decoder) emitAttr(attr CharAttribute) {
	d.handler.SetTerminalCharAttribute(TerminalCharAttribute{Attr: attr})
}

func (d *Decoder) emitNamed(attr CharAttribute, name int) {
	n := name
	d.handler.SetTerminalCharAttribute(TerminalCharAttribute{Attr: attr, NamedColor: &n})
}

// emitExtendedColor handles 38/48 ; 5 ; n and 38/48 ; 2 ; r ; g ; b.
// Returns how many extra parameters were consumed.
func (d *Decoder) emitExtendedColor(attr CharAttribute, i int) int {
	switch d.paramAt(i+1, -1) {
	case 5:
		idx := d.paramAt(i+2, 0)
		if idx >= 0 && idx < 256 {
			d.handler.SetTerminalCharAttribute(TerminalCharAttribute{Attr: attr, IndexedColor: &idx})
		}
		return 2
	case 2:
		rgb := RGBColor{
			R: uint8(clampInt(d.paramAt(i+2, 0), 0, 255)),
			G: uint8(clampInt(d.paramAt(i+3, 0), 0, 255)),
			B: uint8(clampInt(d.paramAt(i+4, 0), 0, 255)),
		}
		d.handler.SetTerminalCharAttribute(TerminalCharAttribute{Attr: attr, RGBColor: &rgb})
		return 4
	default:
		return 1
	}
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

func (d *Decoder) advanceString(b byte) {
	if d.oscEsc {
		d.oscEsc = false
		if b == '\\' {
			d.stringDispatch()
			d.state = stateGround
			return
		}
		// Not an ST: the ESC aborts the string.
		d.state = stateGround
		d.advance(0x1b)
		d.advance(b)
		return
	}

	switch b {
	case 0x07:
		d.stringDispatch()
		d.state = stateGround
	case 0x1b:
		d.oscEsc = true
	case 0x18, 0x1a: // CAN / SUB abort
		d.state = stateGround
	default:
		if len(d.osc) < maxOscLength {
			d.osc = append(d.osc, b)
		}
	}
}

func (d *Decoder) stringDispatch() {
	if d.state != stateOscString {
		// DCS / SOS / PM / APC payloads are consumed and discarded.
		return
	}
	d.oscDispatch(string(d.osc))
}

func (d *Decoder) oscDispatch(s string) {
	cmd, rest, _ := strings.Cut(s, ";")
	switch cmd {
	case "0", "1", "2":
		d.handler.SetTitle(rest)
	case "4":
		d.oscSetColor(rest)
	case "104":
		if rest == "" {
			for i := 0; i < 256; i++ {
				d.handler.ResetColor(i)
			}
			return
		}
		for _, part := range strings.Split(rest, ";") {
			if idx, err := strconv.Atoi(part); err == nil && idx >= 0 && idx < 256 {
				d.handler.ResetColor(idx)
			}
		}
	case "8":
		d.oscHyperlink(rest)
	default:
		// Other OSC commands (titles stacks, clipboard, palettes queries)
		// are acknowledged by consuming them.
	}
}

// oscSetColor parses OSC 4 payloads: index;spec pairs where spec is
// rgb:rr/gg/bb or #rrggbb.
func (d *Decoder) oscSetColor(rest string) {
	parts := strings.Split(rest, ";")
	for i := 0; i+1 < len(parts); i += 2 {
		idx, err := strconv.Atoi(parts[i])
		if err != nil || idx < 0 || idx >= 256 {
			continue
		}
		if c, ok := parseColorSpec(parts[i+1]); ok {
			d.handler.SetColor(idx, c)
		}
	}
}

func parseColorSpec(spec string) (color.Color, bool) {
	if hex, ok := strings.CutPrefix(spec, "#"); ok && len(hex) == 6 {
		v, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return nil, false
		}
		return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, true
	}

	if body, ok := strings.CutPrefix(spec, "rgb:"); ok {
		parts := strings.Split(body, "/")
		if len(parts) != 3 {
			return nil, false
		}
		var ch [3]uint8
		for i, p := range parts {
			v, err := strconv.ParseUint(p, 16, 16)
			if err != nil {
				return nil, false
			}
			// Scale 4/8/12/16-bit components down to 8 bits.
			switch len(p) {
			case 1:
				v *= 17
			case 3:
				v >>= 4
			case 4:
				v >>= 8
			}
			ch[i] = uint8(v)
		}
		return color.RGBA{R: ch[0], G: ch[1], B: ch[2], A: 255}, true
	}

	return nil, false
}

// oscHyperlink parses OSC 8 payloads: params;uri. An empty URI ends the link.
func (d *Decoder) oscHyperlink(rest string) {
	params, uri, ok := strings.Cut(rest, ";")
	if !ok {
		return
	}

	if uri == "" {
		d.handler.SetHyperlink(nil)
		return
	}

	var id string
	for _, kv := range strings.Split(params, ":") {
		if v, found := strings.CutPrefix(kv, "id="); found {
			id = v
		}
	}
	d.handler.SetHyperlink(&Hyperlink{ID: id, URI: uri})
}
