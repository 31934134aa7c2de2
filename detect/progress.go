package detect

import (
	"math"
	"strings"
)

// ProgressDetector finds horizontal runs of Unicode block-element characters.
// ASCII art (`....`, `----`, `****`) is explicitly not a progress bar.
type ProgressDetector struct{}

func (ProgressDetector) Name() string  { return "progress" }
func (ProgressDetector) Priority() int { return 60 }

const progressMinRun = 4

const (
	blockChars  = "█▓▒░"
	filledChars = "█▓"
)

func (ProgressDetector) Detect(v *View) []Candidate {
	var out []Candidate

	for r := 0; r < v.Rows(); r++ {
		runes := v.RowRunes(r)

		start := -1
		for c := 0; c <= len(runes); c++ {
			inRun := c < len(runes) && runes[c] != ' '
			if inRun && start < 0 {
				start = c
			}
			if !inRun && start >= 0 {
				if cand, ok := progressRun(runes, r, start, c); ok {
					out = append(out, cand)
				}
				start = -1
			}
		}
	}

	return out
}

func progressRun(runes []rune, row, start, end int) (Candidate, bool) {
	length := end - start
	if length < progressMinRun {
		return Candidate{}, false
	}

	blocks := 0
	filled := 0
	for _, r := range runes[start:end] {
		if strings.ContainsRune(blockChars, r) {
			blocks++
		}
		if strings.ContainsRune(filledChars, r) {
			filled++
		}
	}

	if blocks == 0 || blocks*5 < length*4 { // at least 80% block elements
		return Candidate{}, false
	}

	percent := int(math.Round(float64(filled) / float64(length) * 100))

	return Candidate{
		Type: TypeProgress,
		Region: Region{
			Row:  row,
			Col:  start,
			Rows: 1,
			Cols: length,
		},
		Text: string(runes[start:end]),
		Attributes: map[string]any{
			"percent": percent,
		},
	}, true
}
