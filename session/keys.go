package session

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Key modifiers, combined as a bitmask in the order xterm expects.
type keyMod int

const (
	modShift keyMod = 1 << iota
	modAlt
	modCtrl
	modMeta
)

// xtermModCode returns the parameter xterm uses for a modifier combination:
// 1 + shift(1) + alt(2) + ctrl(4) + meta(8).
func (m keyMod) xtermModCode() int {
	code := 1
	if m&modShift != 0 {
		code += 1
	}
	if m&modAlt != 0 {
		code += 2
	}
	if m&modCtrl != 0 {
		code += 4
	}
	if m&modMeta != 0 {
		code += 8
	}
	return code
}

// namedKey describes the xterm encoding of a named key: either a tilde
// sequence (CSI num ~) or a letter sequence. Cursor keys switch between CSI
// and SS3 with DECCKM; F1-F4 are SS3 regardless of mode.
type namedKey struct {
	tilde  int
	letter byte
	app    bool // use SS3 instead of CSI when application cursor keys are on
	ss3    bool // always use SS3 (F1-F4)
}

var namedKeys = map[string]namedKey{
	"up":       {letter: 'A', app: true},
	"down":     {letter: 'B', app: true},
	"right":    {letter: 'C', app: true},
	"left":     {letter: 'D', app: true},
	"home":     {letter: 'H', app: true},
	"end":      {letter: 'F', app: true},
	"insert":   {tilde: 2},
	"delete":   {tilde: 3},
	"pageup":   {tilde: 5},
	"pagedown": {tilde: 6},
}

// fKeys maps F1..F12. F1-F4 use SS3 letters, F5+ use tilde sequences.
// F13..F24 encode as Shift+F1..F12.
var fKeys = map[string]namedKey{
	"f1":  {letter: 'P', ss3: true},
	"f2":  {letter: 'Q', ss3: true},
	"f3":  {letter: 'R', ss3: true},
	"f4":  {letter: 'S', ss3: true},
	"f5":  {tilde: 15},
	"f6":  {tilde: 17},
	"f7":  {tilde: 18},
	"f8":  {tilde: 19},
	"f9":  {tilde: 20},
	"f10": {tilde: 21},
	"f11": {tilde: 23},
	"f12": {tilde: 24},
}

// ParseKey parses a key spec (`[mod(+|-)]*name`) and encodes it to the byte
// sequence an xterm-compatible terminal would send. appCursor selects SS3
// encodings for cursor keys (DECCKM).
func ParseKey(spec string, appCursor bool) ([]byte, error) {
	if spec == "" {
		return nil, fmt.Errorf("%w: empty key spec", ErrInvalidArgument)
	}

	mods, name, err := splitKeySpec(spec)
	if err != nil {
		return nil, err
	}

	return encodeKey(mods, name, appCursor)
}

// splitKeySpec separates leading modifiers from the key name. Modifiers are
// case-insensitive and may be joined with + or -. A trailing one-rune token is
// the key itself, so "Ctrl++" means Ctrl and the + character.
func splitKeySpec(spec string) (keyMod, string, error) {
	var mods keyMod

	rest := spec
	for {
		sep := strings.IndexAny(rest, "+-")
		if sep <= 0 || sep == len(rest)-1 {
			// No separator, a leading separator (the name itself), or a
			// trailing one with nothing behind it.
			break
		}

		mod, ok := parseMod(rest[:sep])
		if !ok {
			break
		}
		mods |= mod
		rest = rest[sep+1:]
	}

	if rest == "" {
		return 0, "", fmt.Errorf("%w: key spec %q has no key name", ErrInvalidArgument, spec)
	}

	return mods, rest, nil
}

func parseMod(s string) (keyMod, bool) {
	switch strings.ToLower(s) {
	case "ctrl", "control":
		return modCtrl, true
	case "shift":
		return modShift, true
	case "alt", "option":
		return modAlt, true
	case "meta":
		return modMeta, true
	default:
		return 0, false
	}
}

func encodeKey(mods keyMod, name string, appCursor bool) ([]byte, error) {
	lower := strings.ToLower(name)

	// Simple named keys with dedicated control bytes.
	switch lower {
	case "enter":
		return modifyByte('\r', mods), nil
	case "tab":
		if mods&modShift != 0 {
			return []byte("\x1b[Z"), nil // back-tab
		}
		return modifyByte('\t', mods), nil
	case "backspace":
		return modifyByte(0x7f, mods), nil
	case "escape", "esc":
		return modifyByte(0x1b, mods), nil
	case "space":
		if mods&modCtrl != 0 {
			return []byte{0x00}, nil
		}
		return modifyByte(' ', mods), nil
	}

	if nk, ok := namedKeys[lower]; ok {
		return encodeNamed(nk, mods, appCursor), nil
	}
	if nk, ok := fKeys[lower]; ok {
		return encodeNamed(nk, mods, appCursor), nil
	}

	// F13..F24 are Shift+F1..F12.
	if n, ok := highFKey(lower); ok {
		return encodeNamed(fKeys[fmt.Sprintf("f%d", n-12)], mods|modShift, appCursor), nil
	}

	// Single printable character.
	if utf8.RuneCountInString(name) == 1 {
		r, _ := utf8.DecodeRuneInString(name)
		return encodeChar(r, mods), nil
	}

	return nil, fmt.Errorf("%w: unknown key %q", ErrInvalidArgument, name)
}

func highFKey(lower string) (int, bool) {
	var n int
	if _, err := fmt.Sscanf(lower, "f%d", &n); err != nil {
		return 0, false
	}
	if n >= 13 && n <= 24 {
		return n, true
	}
	return 0, false
}

// encodeNamed renders a named key with optional modifiers per xterm rules.
func encodeNamed(nk namedKey, mods keyMod, appCursor bool) []byte {
	code := mods.xtermModCode()

	if nk.tilde != 0 {
		if code > 1 {
			return []byte(fmt.Sprintf("\x1b[%d;%d~", nk.tilde, code))
		}
		return []byte(fmt.Sprintf("\x1b[%d~", nk.tilde))
	}

	if code > 1 {
		return []byte(fmt.Sprintf("\x1b[1;%d%c", code, nk.letter))
	}
	if nk.ss3 || (nk.app && appCursor) {
		return []byte{0x1b, 'O', nk.letter}
	}
	return []byte{0x1b, '[', nk.letter}
}

// modifyByte applies Alt (ESC prefix) to a control byte.
func modifyByte(b byte, mods keyMod) []byte {
	if mods&(modAlt|modMeta) != 0 {
		return []byte{0x1b, b}
	}
	return []byte{b}
}

// encodeChar renders a printable character with modifiers: Ctrl maps letters
// into the C0 range, Alt prefixes ESC, Shift upcases.
func encodeChar(r rune, mods keyMod) []byte {
	if mods&modShift != 0 && r >= 'a' && r <= 'z' {
		r = r - 'a' + 'A'
	}

	var body []byte
	if mods&modCtrl != 0 {
		switch {
		case r >= 'a' && r <= 'z':
			body = []byte{byte(r-'a') + 1}
		case r >= 'A' && r <= 'Z':
			body = []byte{byte(r-'A') + 1}
		case r == '@':
			body = []byte{0}
		case r == '[':
			body = []byte{0x1b}
		case r == '\\':
			body = []byte{0x1c}
		case r == ']':
			body = []byte{0x1d}
		case r == '^':
			body = []byte{0x1e}
		case r == '_':
			body = []byte{0x1f}
		default:
			body = []byte(string(r))
		}
	} else {
		body = []byte(string(r))
	}

	if mods&(modAlt|modMeta) != 0 {
		return append([]byte{0x1b}, body...)
	}
	return body
}
