package detect

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ButtonDetector finds short bracketed labels `[OK]`, angle-bracketed labels
// `< Cancel >`, and reverse-video spans. Parenthesized fragments are never
// buttons, which keeps shell prompts like `(main)` out of the element list.
type ButtonDetector struct{}

func (ButtonDetector) Name() string  { return "button" }
func (ButtonDetector) Priority() int { return 60 }

const (
	buttonMaxRun   = 30
	buttonMaxLabel = 20
)

var (
	buttonBracketRe = regexp.MustCompile(`\[([^\[\]]+)\]`)
	buttonAngleRe   = regexp.MustCompile(`<([^<>]+)>`)
)

func (d ButtonDetector) Detect(v *View) []Candidate {
	var out []Candidate

	for r := 0; r < v.Rows(); r++ {
		line := string(v.RowRunes(r))
		out = append(out, matchButtons(line, r, buttonBracketRe)...)
		out = append(out, matchButtons(line, r, buttonAngleRe)...)
		out = append(out, reverseSpans(v, r)...)
	}

	return out
}

func matchButtons(line string, row int, re *regexp.Regexp) []Candidate {
	var out []Candidate

	for _, m := range re.FindAllStringSubmatchIndex(line, -1) {
		runLen := utf8.RuneCountInString(line[m[0]:m[1]])
		if runLen > buttonMaxRun {
			continue
		}

		label := strings.TrimSpace(line[m[2]:m[3]])
		if label == "" {
			continue
		}

		out = append(out, Candidate{
			Type: TypeButton,
			Region: Region{
				Row:  row,
				Col:  utf8.RuneCountInString(line[:m[0]]),
				Rows: 1,
				Cols: runLen,
			},
			Text: label,
			Attributes: map[string]any{
				"label": label,
			},
		})
	}

	return out
}

// reverseSpans finds maximal runs of reverse-video cells whose text looks
// like a button label: short and free of punctuation other than space.
func reverseSpans(v *View, row int) []Candidate {
	var out []Candidate

	start := -1
	for c := 0; c <= v.Cols(); c++ {
		cell := v.Cell(row, c)
		reversed := c < v.Cols() && cell != nil && cell.Attributes.Reverse
		if reversed && start < 0 {
			start = c
		}
		if !reversed && start >= 0 {
			if cand, ok := reverseButton(v, row, start, c); ok {
				out = append(out, cand)
			}
			start = -1
		}
	}

	return out
}

func reverseButton(v *View, row, start, end int) (Candidate, bool) {
	if end-start > buttonMaxRun {
		return Candidate{}, false
	}

	text := strings.TrimSpace(string(v.RowRunes(row)[start:end]))
	if text == "" || utf8.RuneCountInString(text) > buttonMaxLabel {
		return Candidate{}, false
	}

	for _, r := range text {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != ' ' {
			return Candidate{}, false
		}
	}

	return Candidate{
		Type: TypeButton,
		Region: Region{
			Row:  row,
			Col:  start,
			Rows: 1,
			Cols: end - start,
		},
		Text: text,
		Attributes: map[string]any{
			"label": text,
		},
	}, true
}
