package detect

import (
	"regexp"
	"strings"
)

// MenuDetector finds contiguous vertical blocks of short lines that share a
// common label margin, where at least one line carries a selection indicator,
// a bracketed index, or a TUI highlight background.
type MenuDetector struct{}

func (MenuDetector) Name() string  { return "menu" }
func (MenuDetector) Priority() int { return 80 }

const (
	menuIndicators  = ">*→▶●"
	menuMaxLabelLen = 40
)

var menuBracketRe = regexp.MustCompile(`^(\[\w+\]|\(\w\))\s+`)

type menuLine struct {
	ll          LogicalLine
	indent      int // column of the first non-space rune
	labelCol    int // column where the item label starts
	endCol      int // column just past the last non-space rune
	label       string
	indicated   bool // selection indicator or bracketed index prefix
	highlighted bool // uniform non-default background
	ok          bool // usable as a menu item line
}

func (MenuDetector) Detect(v *View) []Candidate {
	lines := v.LogicalLines()
	infos := make([]menuLine, len(lines))
	for i, ll := range lines {
		infos[i] = classifyMenuLine(v, ll)
	}

	var out []Candidate
	for i := 0; i < len(infos); {
		if !infos[i].ok {
			i++
			continue
		}

		// Grow a block of consecutive usable lines sharing the label margin.
		j := i + 1
		for j < len(infos) && infos[j].ok && infos[j].labelCol == infos[i].labelCol {
			j++
		}

		block := infos[i:j]
		if cand, ok := buildMenu(block); ok {
			out = append(out, cand)
		}
		i = j
	}

	return out
}

func classifyMenuLine(v *View, ll LogicalLine) menuLine {
	info := menuLine{ll: ll}

	// Vertical frame glyphs read as padding so menus inside borders keep
	// clean labels.
	text := strings.Map(func(r rune) rune {
		if r == '│' || r == '┃' || r == '║' {
			return ' '
		}
		return r
	}, ll.Text)
	trimmed := strings.TrimLeft(text, " ")
	if trimmed == "" {
		return info
	}
	info.indent = len(text) - len(trimmed)
	info.endCol = runesLen(strings.TrimRight(text, " "))

	rest := trimmed
	switch {
	case strings.ContainsRune(menuIndicators, []rune(trimmed)[0]) &&
		len([]rune(trimmed)) > 1 && []rune(trimmed)[1] == ' ':
		info.indicated = true
		first := []rune(trimmed)[0]
		rest = strings.TrimLeft(trimmed[len(string(first)):], " ")
		info.labelCol = info.indent + runesLen(trimmed) - runesLen(rest)
	case menuBracketRe.MatchString(trimmed):
		m := menuBracketRe.FindString(trimmed)
		info.indicated = true
		rest = trimmed[len(m):]
		info.labelCol = info.indent + runesLen(m)
	default:
		info.labelCol = info.indent
	}

	info.label = strings.TrimRight(rest, " ")
	info.highlighted = rowHighlighted(v, ll.Row, info.indent, info.endCol)
	info.ok = info.label != "" && runesLen(info.label) <= menuMaxLabelLen && ll.Span <= 2

	return info
}

func runesLen(s string) int {
	return len([]rune(s))
}

// rowHighlighted reports whether every content cell of the row shares the
// same non-default background (a TUI selection bar).
func rowHighlighted(v *View, row, start, end int) bool {
	if end <= start {
		return false
	}

	var bg string
	for c := start; c < end && c < v.Cols(); c++ {
		cell := v.Cell(row, c)
		if cell == nil || cell.DefaultBg {
			return false
		}
		if bg == "" {
			bg = cell.Bg
		} else if cell.Bg != bg {
			return false
		}
	}
	return bg != ""
}

func buildMenu(block []menuLine) (Candidate, bool) {
	if len(block) < 2 {
		return Candidate{}, false
	}

	anyMarked := false
	for _, info := range block {
		if info.indicated || info.highlighted {
			anyMarked = true
			break
		}
	}
	if !anyMarked {
		return Candidate{}, false
	}

	left := block[0].indent
	right := block[0].endCol
	for _, info := range block {
		if info.indent < left {
			left = info.indent
		}
		if info.endCol > right {
			right = info.endCol
		}
	}

	topRow := block[0].ll.Row
	last := block[len(block)-1].ll
	bottomRow := last.Row + last.Span - 1

	items := make([]string, 0, len(block))
	children := make([]Candidate, 0, len(block))
	selected := -1
	for idx, info := range block {
		items = append(items, info.label)
		if selected < 0 && (info.indicated || info.highlighted) {
			selected = idx
		}
		children = append(children, Candidate{
			Type: TypeMenuItem,
			Region: Region{
				Row:  info.ll.Row,
				Col:  info.indent,
				Rows: info.ll.Span,
				Cols: info.endCol - info.indent,
			},
			Text: info.label,
			Attributes: map[string]any{
				"index": idx,
			},
		})
	}

	attrs := map[string]any{
		"items": items,
	}
	if selected >= 0 {
		attrs["selected_index"] = selected
	}

	return Candidate{
		Type: TypeMenu,
		Region: Region{
			Row:  topRow,
			Col:  left,
			Rows: bottomRow - topRow + 1,
			Cols: right - left,
		},
		Text:       strings.Join(items, "\n"),
		Attributes: attrs,
		Children:   children,
	}, true
}
