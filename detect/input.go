package detect

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// InputDetector finds labeled input fields: a label followed on the same line
// by a bracketed field, an underlined run of spaces, or the cursor parked
// after a colon-terminated label.
type InputDetector struct{}

func (InputDetector) Name() string  { return "input" }
func (InputDetector) Priority() int { return 70 }

var inputBracketRe = regexp.MustCompile(`\[([^\[\]]*)\]`)

func (d InputDetector) Detect(v *View) []Candidate {
	var out []Candidate

	for r := 0; r < v.Rows(); r++ {
		line := string(v.RowRunes(r))
		out = append(out, bracketedFields(line, r)...)
		if cand, ok := underlineField(v, r); ok {
			out = append(out, cand)
		}
	}

	if cand, ok := cursorField(v); ok {
		out = append(out, cand)
	}

	return out
}

// bracketedFields matches `label [value]` and `label: [____]` forms.
func bracketedFields(line string, row int) []Candidate {
	var out []Candidate

	for _, m := range inputBracketRe.FindAllStringSubmatchIndex(line, -1) {
		label := strings.TrimSpace(line[:m[0]])
		// A real label is plain text; leftover bracket fragments mean the
		// preceding content is another widget, not a label.
		if label == "" || strings.ContainsAny(label, "[]()") {
			continue
		}

		labelStart := indexOfContent(line)
		value := strings.TrimSpace(line[m[2]:m[3]])
		if strings.Trim(value, "_") == "" {
			value = ""
		}

		// Regexp offsets are bytes; region columns are runes.
		endCol := utf8.RuneCountInString(line[:m[1]])

		out = append(out, Candidate{
			Type: TypeInput,
			Region: Region{
				Row:  row,
				Col:  labelStart,
				Rows: 1,
				Cols: endCol - labelStart,
			},
			Text: strings.TrimSpace(line[byteIndexOfRune(line, labelStart):m[1]]),
			Attributes: map[string]any{
				"label": strings.TrimSuffix(label, ":"),
				"value": value,
			},
		})
	}

	return out
}

// underlineField matches a label followed by a run of underlined blank cells.
func underlineField(v *View, row int) (Candidate, bool) {
	line := v.RowRunes(row)

	start := -1
	for c := 0; c < v.Cols(); c++ {
		cell := v.Cell(row, c)
		underlined := cell != nil && cell.Attributes.Underline && line[c] == ' '
		if underlined && start < 0 {
			start = c
		}
		if !underlined && start >= 0 {
			if cand, ok := underlineCandidate(line, row, start, c); ok {
				return cand, true
			}
			start = -1
		}
	}
	if start >= 0 {
		return underlineCandidate(line, row, start, v.Cols())
	}

	return Candidate{}, false
}

func underlineCandidate(line []rune, row, start, end int) (Candidate, bool) {
	if end-start < 2 {
		return Candidate{}, false
	}

	label := strings.TrimSpace(string(line[:start]))
	if label == "" {
		return Candidate{}, false
	}

	labelStart := indexOfContent(string(line))
	return Candidate{
		Type: TypeInput,
		Region: Region{
			Row:  row,
			Col:  labelStart,
			Rows: 1,
			Cols: end - labelStart,
		},
		Text: label,
		Attributes: map[string]any{
			"label": strings.TrimSuffix(label, ":"),
			"value": "",
		},
	}, true
}

// cursorField matches the cursor parked on the trailing whitespace of a
// colon-terminated label (a prompt waiting for typed input).
func cursorField(v *View) (Candidate, bool) {
	row, col := v.Cursor()
	if row < 0 || row >= v.Rows() || col <= 0 {
		return Candidate{}, false
	}

	line := v.RowRunes(row)
	before := strings.TrimRight(string(line[:minInt(col, len(line))]), " ")
	if before == "" || !strings.HasSuffix(before, ":") {
		return Candidate{}, false
	}

	labelStart := indexOfContent(string(line))
	label := strings.TrimSuffix(before[labelStart:], ":")

	return Candidate{
		Type: TypeInput,
		Region: Region{
			Row:  row,
			Col:  labelStart,
			Rows: 1,
			Cols: col - labelStart + 1,
		},
		Text: before[labelStart:],
		Attributes: map[string]any{
			"label": label,
			"value": "",
		},
	}, true
}

// indexOfContent returns the rune index of the first non-space character.
// Leading cells are always single-byte spaces, so bytes and runes agree here.
func indexOfContent(line string) int {
	return len(line) - len(strings.TrimLeft(line, " "))
}

// byteIndexOfRune converts a rune index into the byte offset of that rune.
func byteIndexOfRune(s string, runeIdx int) int {
	count := 0
	for i := range s {
		if count == runeIdx {
			return i
		}
		count++
	}
	return len(s)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
