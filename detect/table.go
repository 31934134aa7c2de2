package detect

import "strings"

// TableDetector finds blocks of consecutive lines whose whitespace columns
// align into at least two inter-column gaps of width >= 2. The first line is
// the header when it is visually distinct or followed by a horizontal rule.
type TableDetector struct{}

func (TableDetector) Name() string  { return "table" }
func (TableDetector) Priority() int { return 80 }

func (TableDetector) Detect(v *View) []Candidate {
	var out []Candidate

	for r := 0; r < v.Rows(); {
		if v.Line(r) == "" {
			r++
			continue
		}

		// Maximal run of non-empty rows.
		end := r
		for end < v.Rows() && v.Line(end) != "" {
			end++
		}

		if cand, ok := buildTable(v, r, end); ok {
			out = append(out, cand)
		}
		r = end
	}

	return out
}

// isRuleRow reports whether the row is a horizontal separator between header
// and body.
func isRuleRow(line string) bool {
	line = strings.TrimSpace(line)
	if len(line) < 2 {
		return false
	}
	for _, r := range line {
		if !strings.ContainsRune("─-=━═┄┅ ", r) {
			return false
		}
	}
	return true
}

func buildTable(v *View, top, end int) (Candidate, bool) {
	if end-top < 2 {
		return Candidate{}, false
	}

	// Content rows exclude rule rows; a rule directly below the first row
	// marks it as a header.
	var rows []int
	ruleAfterHeader := false
	for r := top; r < end; r++ {
		if isRuleRow(v.Line(r)) {
			if r == top+1 {
				ruleAfterHeader = true
			}
			continue
		}
		rows = append(rows, r)
	}
	if len(rows) < 2 {
		return Candidate{}, false
	}

	left, right := contentExtent(v, rows)
	if right-left < 5 {
		return Candidate{}, false
	}

	gaps := alignedGaps(v, rows, left, right)
	if len(gaps) < 2 {
		return Candidate{}, false
	}

	// Column segments between the gaps.
	type span struct{ start, end int }
	var cols []span
	prev := left
	for _, g := range gaps {
		cols = append(cols, span{prev, g.start})
		prev = g.end
	}
	cols = append(cols, span{prev, right})

	header := ruleAfterHeader || rowDistinct(v, rows[0], left, right)

	var headers []string
	children := make([]Candidate, 0, len(rows))
	for i, r := range rows {
		rowText := v.Line(r)
		cells := make([]Candidate, 0, len(cols))
		var texts []string
		for _, cs := range cols {
			text := strings.TrimSpace(sliceRunes(v.RowRunes(r), cs.start, cs.end))
			texts = append(texts, text)
			cells = append(cells, Candidate{
				Type: TypeTableCell,
				Region: Region{
					Row:  r,
					Col:  cs.start,
					Rows: 1,
					Cols: cs.end - cs.start,
				},
				Text: text,
			})
		}

		if i == 0 && header {
			headers = texts
		}

		children = append(children, Candidate{
			Type: TypeTableRow,
			Region: Region{
				Row:  r,
				Col:  left,
				Rows: 1,
				Cols: right - left,
			},
			Text:       rowText,
			Attributes: map[string]any{"cells": texts},
			Children:   cells,
		})
	}

	attrs := map[string]any{
		"row_count": len(rows),
		"col_count": len(cols),
	}
	if header {
		attrs["headers"] = headers
	}

	var lines []string
	for _, r := range rows {
		lines = append(lines, v.Line(r))
	}

	return Candidate{
		Type: TypeTable,
		Region: Region{
			Row:  top,
			Col:  left,
			Rows: end - top,
			Cols: right - left,
		},
		Text:       strings.Join(lines, "\n"),
		Attributes: attrs,
		Children:   children,
	}, true
}

func contentExtent(v *View, rows []int) (left, right int) {
	left = v.Cols()
	for _, r := range rows {
		line := v.Line(r)
		trimmed := strings.TrimLeft(line, " ")
		if trimmed == "" {
			continue
		}
		if l := len(line) - len(trimmed); l < left {
			left = l
		}
		if len([]rune(line)) > right {
			right = len([]rune(line))
		}
	}
	return left, right
}

type gap struct{ start, end int }

// alignedGaps returns maximal runs of columns in (left, right) that are
// whitespace on every row, at least 2 columns wide.
func alignedGaps(v *View, rows []int, left, right int) []gap {
	var gaps []gap

	c := left
	for c < right {
		if !gapColumn(v, rows, c) {
			c++
			continue
		}
		start := c
		for c < right && gapColumn(v, rows, c) {
			c++
		}
		// Interior gaps only; edges are padding, not separators.
		if start > left && c < right && c-start >= 2 {
			gaps = append(gaps, gap{start, c})
		}
	}

	return gaps
}

func gapColumn(v *View, rows []int, c int) bool {
	for _, r := range rows {
		if v.Rune(r, c) != ' ' {
			return false
		}
	}
	return true
}

// rowDistinct reports whether the row carries a distinct visual style
// (bold, underline, or reverse on any content cell).
func rowDistinct(v *View, row, left, right int) bool {
	for c := left; c < right && c < v.Cols(); c++ {
		cell := v.Cell(row, c)
		if cell == nil {
			continue
		}
		if cell.Attributes.Bold || cell.Attributes.Underline || cell.Attributes.Reverse {
			return true
		}
	}
	return false
}

func sliceRunes(runes []rune, start, end int) string {
	if start < 0 {
		start = 0
	}
	if end > len(runes) {
		end = len(runes)
	}
	if start >= end {
		return ""
	}
	return string(runes[start:end])
}
