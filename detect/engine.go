package detect

import (
	"fmt"
	"sort"
)

// Engine runs registered detectors in descending priority order and resolves
// spatial conflicts through a coverage set of claimed cells.
type Engine struct {
	detectors []Detector
}

// NewEngine creates an engine with the default detector set registered.
func NewEngine() *Engine {
	e := &Engine{}
	e.Register(BorderDetector{})
	e.Register(MenuDetector{})
	e.Register(TableDetector{})
	e.Register(InputDetector{})
	e.Register(ButtonDetector{})
	e.Register(CheckboxDetector{})
	e.Register(ProgressDetector{})
	e.Register(StatusBarDetector{})
	return e
}

// Register adds a detector. Registration order breaks priority ties between
// detectors only; candidate ordering is resolved by region geometry.
func (e *Engine) Register(d Detector) {
	e.detectors = append(e.detectors, d)
	sort.SliceStable(e.detectors, func(i, j int) bool {
		return e.detectors[i].Priority() > e.detectors[j].Priority()
	})
}

// Detect runs all detectors over the view and returns accepted elements in
// reading order with per-type ref IDs assigned. It never fails: a nil or
// empty view yields an empty list.
func (e *Engine) Detect(v *View) []Element {
	if v == nil || v.rows == 0 || v.cols == 0 {
		return []Element{}
	}

	coverage := make(map[int]struct{})
	var accepted []Candidate

	for i := 0; i < len(e.detectors); {
		// Candidates of equal priority compete as one group.
		j := i
		prio := e.detectors[i].Priority()
		var group []Candidate
		for j < len(e.detectors) && e.detectors[j].Priority() == prio {
			group = append(group, e.detectors[j].Detect(v)...)
			j++
		}
		i = j

		sort.SliceStable(group, func(a, b int) bool {
			ra, rb := group[a].Region, group[b].Region
			if ra.Area() != rb.Area() {
				return ra.Area() > rb.Area()
			}
			if ra.Row != rb.Row {
				return ra.Row < rb.Row
			}
			return ra.Col < rb.Col
		})

		for _, cand := range group {
			cells := claimCells(v, cand)
			if overlaps(coverage, cells) {
				continue
			}
			for _, key := range cells {
				coverage[key] = struct{}{}
			}
			accepted = append(accepted, cand)
		}
	}

	return e.finalize(v, accepted)
}

// claimCells returns the coverage keys a candidate claims: the full region,
// or just the outline for perimeter claims.
func claimCells(v *View, cand Candidate) []int {
	reg := cand.Region
	var cells []int

	if cand.PerimeterClaim {
		for c := reg.Col; c < reg.Col+reg.Cols; c++ {
			cells = append(cells, reg.Row*v.cols+c)
			cells = append(cells, (reg.Row+reg.Rows-1)*v.cols+c)
		}
		for r := reg.Row + 1; r < reg.Row+reg.Rows-1; r++ {
			cells = append(cells, r*v.cols+reg.Col)
			cells = append(cells, r*v.cols+reg.Col+reg.Cols-1)
		}
		return cells
	}

	for r := reg.Row; r < reg.Row+reg.Rows; r++ {
		for c := reg.Col; c < reg.Col+reg.Cols; c++ {
			cells = append(cells, r*v.cols+c)
		}
	}
	return cells
}

func overlaps(coverage map[int]struct{}, cells []int) bool {
	for _, key := range cells {
		if _, claimed := coverage[key]; claimed {
			return true
		}
	}
	return false
}

// finalize flattens accepted candidates with their children, orders everything
// in reading order, offsets regions into full-grid coordinates, and assigns
// ref IDs counted per type.
func (e *Engine) finalize(v *View, accepted []Candidate) []Element {
	var flat []Candidate
	var appendTree func(c Candidate)
	appendTree = func(c Candidate) {
		children := c.Children
		c.Children = nil
		flat = append(flat, c)
		for _, child := range children {
			appendTree(child)
		}
	}
	for _, c := range accepted {
		appendTree(c)
	}

	sort.SliceStable(flat, func(a, b int) bool {
		ra, rb := flat[a].Region, flat[b].Region
		if ra.Row != rb.Row {
			return ra.Row < rb.Row
		}
		if ra.Col != rb.Col {
			return ra.Col < rb.Col
		}
		// Keep a parent ahead of a child starting at the same cell.
		return ra.Area() > rb.Area()
	})

	offRow, offCol := v.Offset()
	counts := make(map[ElementType]int)
	elements := make([]Element, 0, len(flat))
	for _, c := range flat {
		counts[c.Type]++
		elements = append(elements, Element{
			RefID: fmt.Sprintf("%s%d", typeAbbrev[c.Type], counts[c.Type]),
			Type:  c.Type,
			Region: Region{
				Row:  c.Region.Row + offRow,
				Col:  c.Region.Col + offCol,
				Rows: c.Region.Rows,
				Cols: c.Region.Cols,
			},
			Text:       c.Text,
			Attributes: c.Attributes,
		})
	}

	return elements
}
