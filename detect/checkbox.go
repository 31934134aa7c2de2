package detect

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// CheckboxDetector finds `[ ]` / `[x]` / `[✓]` / `( )` / `(*)` markers
// directly followed by a label of at most 40 characters.
type CheckboxDetector struct{}

func (CheckboxDetector) Name() string  { return "checkbox" }
func (CheckboxDetector) Priority() int { return 60 }

const checkboxMaxLabel = 40

var checkboxRe = regexp.MustCompile(`(\[[ xX✓]\]|\([ *]\)) +(\S[^\[\]()]*)`)

func (CheckboxDetector) Detect(v *View) []Candidate {
	var out []Candidate

	for r := 0; r < v.Rows(); r++ {
		line := string(v.RowRunes(r))

		for _, m := range checkboxRe.FindAllStringSubmatchIndex(line, -1) {
			box := line[m[2]:m[3]]
			label := strings.TrimSpace(line[m[4]:m[5]])
			if label == "" || utf8.RuneCountInString(label) > checkboxMaxLabel {
				continue
			}

			interior := []rune(box)[1]
			startCol := utf8.RuneCountInString(line[:m[0]])
			endCol := utf8.RuneCountInString(line[:m[4]]) + utf8.RuneCountInString(strings.TrimRight(line[m[4]:m[5]], " "))

			out = append(out, Candidate{
				Type: TypeCheckbox,
				Region: Region{
					Row:  r,
					Col:  startCol,
					Rows: 1,
					Cols: endCol - startCol,
				},
				Text: label,
				Attributes: map[string]any{
					"label":   label,
					"checked": interior != ' ',
				},
			})
		}
	}

	return out
}
