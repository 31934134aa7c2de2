package detect

import (
	"strings"
	"testing"

	"github.com/danielgatis/terminal-mcp/term"
)

// viewFrom renders escape-sequence-laden lines through the real emulator and
// wraps the resulting snapshot.
func viewFrom(t *testing.T, rows, cols int, content string) *View {
	t.Helper()

	trm := term.New(term.WithSize(rows, cols))
	trm.WriteString(content)
	return NewView(trm.Snapshot(term.SnapshotDetailFull))
}

func elementsFrom(t *testing.T, rows, cols int, content string) []Element {
	t.Helper()
	return NewEngine().Detect(viewFrom(t, rows, cols, content))
}

func findByType(elements []Element, typ ElementType) []Element {
	var out []Element
	for _, el := range elements {
		if el.Type == typ {
			out = append(out, el)
		}
	}
	return out
}

func TestDetectEmptyGrid(t *testing.T) {
	elements := elementsFrom(t, 24, 80, "")
	if len(elements) != 0 {
		t.Errorf("expected no elements on an empty grid, got %d", len(elements))
	}
}

func TestDetectNilView(t *testing.T) {
	elements := NewEngine().Detect(nil)
	if elements == nil || len(elements) != 0 {
		t.Errorf("expected empty (non-nil) element list, got %#v", elements)
	}
}

func TestDetectPlainTextNoElements(t *testing.T) {
	elements := elementsFrom(t, 24, 80, "hello")
	if len(elements) != 0 {
		t.Errorf("expected no elements for plain 'hello', got %#v", elements)
	}
}

func TestDetectMenu(t *testing.T) {
	elements := elementsFrom(t, 24, 80, "> Option A\r\n  Option B\r\n  Option C\r\n")

	menus := findByType(elements, TypeMenu)
	if len(menus) != 1 {
		t.Fatalf("expected one menu, got %d", len(menus))
	}

	menu := menus[0]
	if menu.RefID != "menu1" {
		t.Errorf("expected ref_id 'menu1', got %q", menu.RefID)
	}

	items, ok := menu.Attributes["items"].([]string)
	if !ok {
		t.Fatalf("expected items attribute, got %#v", menu.Attributes)
	}
	want := []string{"Option A", "Option B", "Option C"}
	if len(items) != len(want) {
		t.Fatalf("expected %d items, got %d", len(want), len(items))
	}
	for i, item := range want {
		if items[i] != item {
			t.Errorf("item %d: expected %q, got %q", i, item, items[i])
		}
	}

	if sel, ok := menu.Attributes["selected_index"].(int); !ok || sel != 0 {
		t.Errorf("expected selected_index 0, got %v", menu.Attributes["selected_index"])
	}

	menuItems := findByType(elements, TypeMenuItem)
	if len(menuItems) != 3 {
		t.Errorf("expected 3 menu items, got %d", len(menuItems))
	}
}

func TestDetectMenuHighlightSelection(t *testing.T) {
	content := "  First\r\n\x1b[44m  Second  \x1b[0m\r\n  Third\r\n"
	elements := elementsFrom(t, 24, 80, content)

	menus := findByType(elements, TypeMenu)
	if len(menus) != 1 {
		t.Fatalf("expected one menu, got %d", len(menus))
	}
	if sel, ok := menus[0].Attributes["selected_index"].(int); !ok || sel != 1 {
		t.Errorf("expected highlighted item 1 selected, got %v", menus[0].Attributes["selected_index"])
	}
}

func TestDetectButtonExclusion(t *testing.T) {
	elements := elementsFrom(t, 24, 80, "user@host:~/repo (main)$ ")

	if buttons := findByType(elements, TypeButton); len(buttons) != 0 {
		t.Errorf("shell prompt must not produce buttons, got %#v", buttons)
	}
}

func TestDetectButton(t *testing.T) {
	elements := elementsFrom(t, 24, 80, "[ OK ]")

	buttons := findByType(elements, TypeButton)
	if len(buttons) != 1 {
		t.Fatalf("expected one button, got %d", len(buttons))
	}
	if buttons[0].RefID != "btn1" {
		t.Errorf("expected ref_id 'btn1', got %q", buttons[0].RefID)
	}
	if label := buttons[0].Attributes["label"]; label != "OK" {
		t.Errorf("expected label 'OK', got %v", label)
	}
}

func TestDetectReverseVideoButton(t *testing.T) {
	elements := elementsFrom(t, 24, 80, "   \x1b[7m Submit \x1b[0m   ")

	buttons := findByType(elements, TypeButton)
	if len(buttons) != 1 {
		t.Fatalf("expected one reverse-video button, got %d", len(buttons))
	}
	if buttons[0].Text != "Submit" {
		t.Errorf("expected 'Submit', got %q", buttons[0].Text)
	}
}

func TestDetectProgress(t *testing.T) {
	elements := elementsFrom(t, 24, 80, "Loading: ████████░░░░░░░░")

	bars := findByType(elements, TypeProgress)
	if len(bars) != 1 {
		t.Fatalf("expected one progress bar, got %d", len(bars))
	}

	percent, ok := bars[0].Attributes["percent"].(int)
	if !ok {
		t.Fatalf("expected percent attribute, got %#v", bars[0].Attributes)
	}
	if percent < 44 || percent > 52 {
		t.Errorf("expected percent in [44,52], got %d", percent)
	}
}

func TestDetectProgressRejectsASCII(t *testing.T) {
	elements := elementsFrom(t, 24, 80, "....------****....")

	if bars := findByType(elements, TypeProgress); len(bars) != 0 {
		t.Errorf("ASCII punctuation must not be a progress bar, got %#v", bars)
	}
}

func TestDetectCheckbox(t *testing.T) {
	elements := elementsFrom(t, 24, 80, "[x] Enable logging\r\n[ ] Verbose mode")

	boxes := findByType(elements, TypeCheckbox)
	if len(boxes) != 2 {
		t.Fatalf("expected two checkboxes, got %d", len(boxes))
	}

	if checked, _ := boxes[0].Attributes["checked"].(bool); !checked {
		t.Error("first checkbox should be checked")
	}
	if label := boxes[0].Attributes["label"]; label != "Enable logging" {
		t.Errorf("expected label 'Enable logging', got %v", label)
	}
	if checked, _ := boxes[1].Attributes["checked"].(bool); checked {
		t.Error("second checkbox should be unchecked")
	}
}

func TestDetectBorder(t *testing.T) {
	content := strings.Join([]string{
		"┌────────┐",
		"│        │",
		"│        │",
		"└────────┘",
	}, "\r\n")
	elements := elementsFrom(t, 24, 80, content)

	borders := findByType(elements, TypeBorder)
	if len(borders) != 1 {
		t.Fatalf("expected one border, got %d", len(borders))
	}

	reg := borders[0].Region
	if reg.Row != 0 || reg.Col != 0 || reg.Rows != 4 || reg.Cols != 10 {
		t.Errorf("unexpected border region: %+v", reg)
	}
}

func TestDetectBorderKeepsChildren(t *testing.T) {
	content := strings.Join([]string{
		"┌────────────┐",
		"│ > Save     │",
		"│   Quit     │",
		"└────────────┘",
	}, "\r\n")
	elements := elementsFrom(t, 24, 80, content)

	if borders := findByType(elements, TypeBorder); len(borders) != 1 {
		t.Fatalf("expected one border, got %d", len(borders))
	}
	menus := findByType(elements, TypeMenu)
	if len(menus) != 1 {
		t.Fatalf("expected the menu inside the border to survive, got %d menus", len(menus))
	}

	items, _ := menus[0].Attributes["items"].([]string)
	if len(items) != 2 || items[0] != "Save" || items[1] != "Quit" {
		t.Errorf("unexpected menu items inside border: %#v", items)
	}
}

func TestDetectASCIIBorder(t *testing.T) {
	content := strings.Join([]string{
		"+------+",
		"|      |",
		"+------+",
	}, "\r\n")
	elements := elementsFrom(t, 24, 80, content)

	if borders := findByType(elements, TypeBorder); len(borders) != 1 {
		t.Fatalf("expected one ASCII border, got %d", len(borders))
	}
}

func TestDetectTable(t *testing.T) {
	content := strings.Join([]string{
		"NAME      AGE    CITY",
		"alice     31     berlin",
		"bob       45     lisbon",
	}, "\r\n")
	elements := elementsFrom(t, 24, 80, content)

	tables := findByType(elements, TypeTable)
	if len(tables) != 1 {
		t.Fatalf("expected one table, got %d", len(tables))
	}

	if cols, _ := tables[0].Attributes["col_count"].(int); cols != 3 {
		t.Errorf("expected 3 columns, got %v", tables[0].Attributes["col_count"])
	}

	rows := findByType(elements, TypeTableRow)
	if len(rows) != 3 {
		t.Errorf("expected 3 table rows, got %d", len(rows))
	}
	cells := findByType(elements, TypeTableCell)
	if len(cells) != 9 {
		t.Errorf("expected 9 table cells, got %d", len(cells))
	}
}

func TestDetectTableWithRule(t *testing.T) {
	content := strings.Join([]string{
		"NAME      AGE    CITY",
		"────────────────────────",
		"alice     31     berlin",
	}, "\r\n")
	elements := elementsFrom(t, 24, 80, content)

	tables := findByType(elements, TypeTable)
	if len(tables) != 1 {
		t.Fatalf("expected one table, got %d", len(tables))
	}

	headers, ok := tables[0].Attributes["headers"].([]string)
	if !ok || len(headers) != 3 || headers[0] != "NAME" {
		t.Errorf("expected NAME/AGE/CITY headers, got %#v", tables[0].Attributes["headers"])
	}
}

func TestDetectInputBracketed(t *testing.T) {
	elements := elementsFrom(t, 24, 80, "Name: [John]")

	inputs := findByType(elements, TypeInput)
	if len(inputs) != 1 {
		t.Fatalf("expected one input, got %d", len(inputs))
	}
	if label := inputs[0].Attributes["label"]; label != "Name" {
		t.Errorf("expected label 'Name', got %v", label)
	}
	if value := inputs[0].Attributes["value"]; value != "John" {
		t.Errorf("expected value 'John', got %v", value)
	}
}

func TestDetectInputPlaceholderUnderscores(t *testing.T) {
	elements := elementsFrom(t, 24, 80, "Email: [________]")

	inputs := findByType(elements, TypeInput)
	if len(inputs) != 1 {
		t.Fatalf("expected one input, got %d", len(inputs))
	}
	if value := inputs[0].Attributes["value"]; value != "" {
		t.Errorf("placeholder underscores should read as empty value, got %v", value)
	}
}

func TestDetectInputBeatsButton(t *testing.T) {
	elements := elementsFrom(t, 24, 80, "Name: [John]")

	if buttons := findByType(elements, TypeButton); len(buttons) != 0 {
		t.Errorf("a labeled field must not double as a button, got %#v", buttons)
	}
}

func TestDetectInputCursorAfterLabel(t *testing.T) {
	elements := elementsFrom(t, 24, 80, "Password: ")

	inputs := findByType(elements, TypeInput)
	if len(inputs) != 1 {
		t.Fatalf("expected one cursor-based input, got %d", len(inputs))
	}
	if label := inputs[0].Attributes["label"]; label != "Password" {
		t.Errorf("expected label 'Password', got %v", label)
	}
}

func TestDetectStatusBar(t *testing.T) {
	trm := term.New(term.WithSize(5, 20))
	trm.WriteString("content here\r\n")
	trm.WriteString("\x1b[5;1H\x1b[7m NORMAL | main.go \x1b[0m")
	elements := NewEngine().Detect(NewView(trm.Snapshot(term.SnapshotDetailFull)))

	bars := findByType(elements, TypeStatusBar)
	if len(bars) != 1 {
		t.Fatalf("expected one status bar, got %d", len(bars))
	}
	if bars[0].Region.Row != 4 {
		t.Errorf("expected status bar on the last row, got row %d", bars[0].Region.Row)
	}
}

func TestDetectRefIDsUnique(t *testing.T) {
	content := "> One\r\n  Two\r\n\r\n[ OK ]  [ Cancel ]\r\n[x] opt\r\nLoading: █████░░░░░"
	elements := elementsFrom(t, 24, 80, content)

	seen := make(map[string]bool)
	for _, el := range elements {
		if el.RefID == "" {
			t.Errorf("element %v has empty ref_id", el.Type)
		}
		if seen[el.RefID] {
			t.Errorf("duplicate ref_id %q", el.RefID)
		}
		seen[el.RefID] = true
	}
}

func TestDetectNoOverlapExceptBorderChildren(t *testing.T) {
	content := "> One\r\n  Two\r\n\r\n[ OK ]  [ Cancel ]\r\n[x] opt\r\nLoading: █████░░░░░"
	elements := elementsFrom(t, 24, 80, content)

	// Parent/child types share cells by design; compare only top-level kinds.
	topLevel := map[ElementType]bool{
		TypeBorder: true, TypeMenu: true, TypeTable: true, TypeButton: true,
		TypeInput: true, TypeCheckbox: true, TypeProgress: true, TypeStatusBar: true,
	}

	var regions []Region
	for _, el := range elements {
		if !topLevel[el.Type] {
			continue
		}
		for _, other := range regions {
			if regionsOverlap(el.Region, other) {
				t.Errorf("top-level regions overlap: %+v vs %+v", el.Region, other)
			}
		}
		regions = append(regions, el.Region)
	}
}

func regionsOverlap(a, b Region) bool {
	return a.Row < b.Row+b.Rows && b.Row < a.Row+a.Rows &&
		a.Col < b.Col+b.Cols && b.Col < a.Col+a.Cols
}

func TestDetectRegionRestriction(t *testing.T) {
	full := viewFrom(t, 24, 80, "[ OK ]\r\n\r\n\r\n\r\n\r\n\r\n\r\n\r\n\r\n\r\n[ Later ]")

	sub := full.Sub(Region{Row: 0, Col: 0, Rows: 5, Cols: 80})
	elements := NewEngine().Detect(sub)

	buttons := findByType(elements, TypeButton)
	if len(buttons) != 1 {
		t.Fatalf("expected only the button inside the region, got %d", len(buttons))
	}
	if buttons[0].Region.Row != 0 {
		t.Errorf("expected absolute coordinates, got row %d", buttons[0].Region.Row)
	}
}
