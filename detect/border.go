package detect

import "strings"

// BorderDetector finds closed rectangles drawn with box-drawing characters
// (U+2500–U+257F) or their ASCII equivalents (+ - |). A border claims only its
// perimeter, so elements inside the frame remain detectable.
type BorderDetector struct{}

func (BorderDetector) Name() string  { return "border" }
func (BorderDetector) Priority() int { return 100 }

const (
	cornersTopLeft     = "┌┏╔╭+"
	cornersTopRight    = "┐┓╗╮+"
	cornersBottomLeft  = "└┗╚╰+"
	cornersBottomRight = "┘┛╝╯+"
)

func isBoxRune(r rune) bool {
	return (r >= 0x2500 && r <= 0x257f) || r == '+' || r == '-' || r == '|'
}

func isHorizontalEdge(r rune) bool {
	return isBoxRune(r) && r != '|'
}

func isVerticalEdge(r rune) bool {
	return isBoxRune(r) && r != '-'
}

func (BorderDetector) Detect(v *View) []Candidate {
	var out []Candidate

	for r := 0; r < v.Rows(); r++ {
		for c := 0; c < v.Cols(); c++ {
			if !strings.ContainsRune(cornersTopLeft, v.Rune(r, c)) {
				continue
			}
			if reg, ok := findRectangle(v, r, c); ok {
				out = append(out, Candidate{
					Type:           TypeBorder,
					Region:         reg,
					PerimeterClaim: true,
				})
			}
		}
	}

	return out
}

// findRectangle walks right from a top-left corner looking for a top-right
// corner, then tries to close the rectangle downward. Height and width must
// both be at least 3 and all four corners present.
func findRectangle(v *View, top, left int) (Region, bool) {
	for right := left + 1; right < v.Cols(); right++ {
		ch := v.Rune(top, right)
		if right-left >= 2 && strings.ContainsRune(cornersTopRight, ch) {
			if reg, ok := closeRectangle(v, top, left, right); ok {
				return reg, true
			}
		}
		if !isHorizontalEdge(ch) {
			return Region{}, false
		}
	}
	return Region{}, false
}

func closeRectangle(v *View, top, left, right int) (Region, bool) {
	for bottom := top + 1; bottom < v.Rows(); bottom++ {
		lc := v.Rune(bottom, left)
		rc := v.Rune(bottom, right)

		if bottom-top >= 2 &&
			strings.ContainsRune(cornersBottomLeft, lc) &&
			strings.ContainsRune(cornersBottomRight, rc) {
			if bottomEdgeClosed(v, bottom, left, right) {
				return Region{
					Row:  top,
					Col:  left,
					Rows: bottom - top + 1,
					Cols: right - left + 1,
				}, true
			}
			return Region{}, false
		}

		if !isVerticalEdge(lc) || !isVerticalEdge(rc) {
			return Region{}, false
		}
	}
	return Region{}, false
}

func bottomEdgeClosed(v *View, row, left, right int) bool {
	for c := left + 1; c < right; c++ {
		if !isHorizontalEdge(v.Rune(row, c)) {
			return false
		}
	}
	return true
}
