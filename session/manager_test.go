package session

import (
	"context"
	"errors"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/danielgatis/terminal-mcp/detect"
)

func newTestManager(t *testing.T, opts Options) *Manager {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("PTY tests require a Unix platform")
	}

	mgr := NewManager(opts)
	t.Cleanup(mgr.CloseAll)
	return mgr
}

func createShell(t *testing.T, mgr *Manager, script string) SessionInfo {
	t.Helper()

	info, err := mgr.Create(Config{
		Command: "sh",
		Args:    []string{"-c", script},
		Rows:    24,
		Cols:    80,
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	return info
}

func TestManagerCreateAndSnapshot(t *testing.T) {
	mgr := newTestManager(t, Options{})
	info := createShell(t, mgr, `printf 'hello\n'; sleep 3`)

	outcome, err := mgr.WaitFor(context.Background(), info.ID,
		WaitCondition{Text: "hello"}, 3*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Status != WaitMatched {
		t.Fatalf("expected match, got %s", outcome.Status)
	}

	tree, err := mgr.Snapshot(info.ID, SnapshotOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if tree.Lines[0] != "hello" {
		t.Errorf("expected 'hello' on row 0, got %q", tree.Lines[0])
	}
	if tree.Cursor.Row != 1 || tree.Cursor.Col != 0 {
		t.Errorf("expected cursor at (1, 0), got (%d, %d)", tree.Cursor.Row, tree.Cursor.Col)
	}
	if len(tree.Elements) != 0 {
		t.Errorf("expected no elements, got %#v", tree.Elements)
	}
	if tree.Rows != 24 || tree.Cols != 80 {
		t.Errorf("expected 24x80, got %dx%d", tree.Rows, tree.Cols)
	}
}

func TestManagerSnapshotIndexMonotonic(t *testing.T) {
	mgr := newTestManager(t, Options{})
	info := createShell(t, mgr, `sleep 3`)

	first, err := mgr.Snapshot(info.ID, SnapshotOptions{})
	if err != nil {
		t.Fatal(err)
	}
	second, err := mgr.Snapshot(info.ID, SnapshotOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if second.SnapshotIndex != first.SnapshotIndex+1 {
		t.Errorf("expected monotonic snapshot index, got %d then %d",
			first.SnapshotIndex, second.SnapshotIndex)
	}
}

func TestManagerChildEnvironment(t *testing.T) {
	mgr := newTestManager(t, Options{})
	info := createShell(t, mgr, `echo "TERM=$TERM"; sleep 3`)

	outcome, err := mgr.WaitFor(context.Background(), info.ID,
		WaitCondition{Text: "TERM=xterm-256color"}, 3*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Status != WaitMatched {
		t.Errorf("expected TERM=xterm-256color in child env, got %s", outcome.Status)
	}
}

func TestManagerCloseIdempotence(t *testing.T) {
	mgr := newTestManager(t, Options{})
	info := createShell(t, mgr, `sleep 10`)

	if err := mgr.Close(info.ID); err != nil {
		t.Fatalf("first close: %v", err)
	}
	if err := mgr.Close(info.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second close: expected ErrNotFound, got %v", err)
	}
}

func TestManagerUnknownSession(t *testing.T) {
	mgr := newTestManager(t, Options{})

	if _, err := mgr.Snapshot("no-such-id", SnapshotOptions{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := mgr.TypeText("no-such-id", "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestManagerWhitelist(t *testing.T) {
	mgr := newTestManager(t, Options{CommandWhitelist: []string{"sh"}})

	if _, err := mgr.Create(Config{Command: "python3"}); !errors.Is(err, ErrCommandNotAllowed) {
		t.Errorf("expected ErrCommandNotAllowed, got %v", err)
	}

	info := createShell(t, mgr, `sleep 2`)
	if info.ID == "" {
		t.Error("whitelisted command should spawn")
	}
}

func TestManagerMaxSessions(t *testing.T) {
	mgr := newTestManager(t, Options{MaxSessions: 1})
	createShell(t, mgr, `sleep 10`)

	_, err := mgr.Create(Config{Command: "sh", Args: []string{"-c", "sleep 10"}})
	if !errors.Is(err, ErrResourceExhausted) {
		t.Errorf("expected ErrResourceExhausted, got %v", err)
	}
}

func TestManagerSpawnFailed(t *testing.T) {
	mgr := newTestManager(t, Options{})

	_, err := mgr.Create(Config{Command: "/no/such/binary-at-all"})
	if !errors.Is(err, ErrSpawnFailed) {
		t.Errorf("expected ErrSpawnFailed, got %v", err)
	}
}

func TestManagerCreateValidation(t *testing.T) {
	mgr := newTestManager(t, Options{})

	if _, err := mgr.Create(Config{}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("missing command: expected ErrInvalidArgument, got %v", err)
	}
	if _, err := mgr.Create(Config{Command: "sh", Rows: 5000}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("absurd rows: expected ErrInvalidArgument, got %v", err)
	}
}

func TestManagerWaitReadyThenInterrupt(t *testing.T) {
	mgr := newTestManager(t, Options{})
	info := createShell(t, mgr, `sleep 0.1; echo READY; sleep 30`)

	outcome, err := mgr.WaitFor(context.Background(), info.ID,
		WaitCondition{Text: "READY"}, 2*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Status != WaitMatched {
		t.Fatalf("expected READY match, got %s", outcome.Status)
	}

	if err := mgr.PressKey(info.ID, "Ctrl+C", 0); err != nil {
		t.Fatal(err)
	}

	outcome, err = mgr.WaitFor(context.Background(), info.ID,
		WaitCondition{IdleMS: 200}, 3*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Status != WaitMatched {
		t.Errorf("expected idle after interrupt, got %s", outcome.Status)
	}
}

func TestManagerWaitTimeout(t *testing.T) {
	mgr := newTestManager(t, Options{})
	info := createShell(t, mgr, `sleep 5`)

	outcome, err := mgr.WaitFor(context.Background(), info.ID,
		WaitCondition{Text: "NEVER-PRINTED"}, 150*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Status != WaitTimeout {
		t.Errorf("expected timeout, got %s", outcome.Status)
	}
}

func TestManagerWaitRegex(t *testing.T) {
	mgr := newTestManager(t, Options{})
	info := createShell(t, mgr, `echo code-1234; sleep 3`)

	outcome, err := mgr.WaitFor(context.Background(), info.ID,
		WaitCondition{Regex: `code-\d+`}, 3*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Status != WaitMatched {
		t.Errorf("expected regex match, got %s", outcome.Status)
	}
}

func TestManagerWaitValidation(t *testing.T) {
	mgr := newTestManager(t, Options{})
	info := createShell(t, mgr, `sleep 2`)

	_, err := mgr.WaitFor(context.Background(), info.ID,
		WaitCondition{Text: "a", Regex: "b"}, time.Second)
	if !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("two conditions: expected ErrInvalidArgument, got %v", err)
	}

	_, err = mgr.WaitFor(context.Background(), info.ID,
		WaitCondition{Regex: "("}, time.Second)
	if !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("bad regex: expected ErrInvalidArgument, got %v", err)
	}

	_, err = mgr.WaitFor(context.Background(), info.ID, WaitCondition{}, time.Second)
	if !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("no condition: expected ErrInvalidArgument, got %v", err)
	}
}

func TestManagerWaitClosedMidWait(t *testing.T) {
	mgr := newTestManager(t, Options{})
	info := createShell(t, mgr, `sleep 10`)

	done := make(chan WaitOutcome, 1)
	go func() {
		outcome, _ := mgr.WaitFor(context.Background(), info.ID,
			WaitCondition{Text: "NEVER"}, 5*time.Second)
		done <- outcome
	}()

	time.Sleep(100 * time.Millisecond)
	if err := mgr.Close(info.ID); err != nil {
		t.Fatal(err)
	}

	select {
	case outcome := <-done:
		if outcome.Status != WaitClosed {
			t.Errorf("expected closed outcome, got %s", outcome.Status)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("wait did not return after close")
	}
}

func TestManagerReadOutput(t *testing.T) {
	mgr := newTestManager(t, Options{})
	info := createShell(t, mgr, `echo raw-output-probe; sleep 3`)

	outcome, err := mgr.WaitFor(context.Background(), info.ID,
		WaitCondition{Text: "raw-output-probe"}, 3*time.Second)
	if err != nil || outcome.Status != WaitMatched {
		t.Fatalf("wait failed: %v %v", outcome.Status, err)
	}

	text, err := mgr.ReadOutput(info.ID, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(text, "raw-output-probe") {
		t.Errorf("expected raw output to contain probe, got %q", text)
	}

	// The ring drains: a second read returns nothing new.
	text, err = mgr.ReadOutput(info.ID, 0)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(text, "raw-output-probe") {
		t.Error("expected ring to be drained by the first read")
	}
}

func TestManagerResize(t *testing.T) {
	mgr := newTestManager(t, Options{})
	info := createShell(t, mgr, `sleep 5`)

	if err := mgr.Resize(info.ID, 10, 40); err != nil {
		t.Fatal(err)
	}

	tree, err := mgr.Snapshot(info.ID, SnapshotOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if tree.Rows != 10 || tree.Cols != 40 {
		t.Errorf("expected 10x40 after resize, got %dx%d", tree.Rows, tree.Cols)
	}

	if err := mgr.Resize(info.ID, 0, 40); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("zero rows: expected ErrInvalidArgument, got %v", err)
	}
}

func TestManagerRemainOnExit(t *testing.T) {
	mgr := newTestManager(t, Options{})
	info := createShell(t, mgr, `echo finished`)

	outcome, err := mgr.WaitFor(context.Background(), info.ID,
		WaitCondition{IdleMS: 150}, 3*time.Second)
	if err != nil || outcome.Status != WaitMatched {
		t.Fatalf("idle wait failed: %v %v", outcome.Status, err)
	}

	// The child is gone, but the grid stays queryable.
	tree, err := mgr.Snapshot(info.ID, SnapshotOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if tree.Lines[0] != "finished" {
		t.Errorf("expected frozen grid content, got %q", tree.Lines[0])
	}

	// Writes now fail.
	deadline := time.Now().Add(2 * time.Second)
	for {
		if err = mgr.TypeText(info.ID, "x"); errors.Is(err, ErrSessionClosed) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected ErrSessionClosed for writes after exit, got %v", err)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestManagerTypeEcho(t *testing.T) {
	mgr := newTestManager(t, Options{})
	info := createShell(t, mgr, `read line; echo "got:$line"; sleep 3`)

	if err := mgr.TypeText(info.ID, "ping\r"); err != nil {
		t.Fatal(err)
	}

	outcome, err := mgr.WaitFor(context.Background(), info.ID,
		WaitCondition{Text: "got:ping"}, 3*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Status != WaitMatched {
		t.Errorf("expected echoed input, got %s", outcome.Status)
	}
}

func TestManagerClickMenuItem(t *testing.T) {
	mgr := newTestManager(t, Options{})
	info := createShell(t, mgr, `printf '> Option A\n  Option B\n  Option C\n'; sleep 5`)

	outcome, err := mgr.WaitFor(context.Background(), info.ID,
		WaitCondition{Element: &ElementQuery{Type: detect.TypeMenu}}, 3*time.Second)
	if err != nil || outcome.Status != WaitMatched {
		t.Fatalf("menu wait failed: %v %v", outcome.Status, err)
	}

	var target string
	for _, el := range outcome.Snapshot.Elements {
		if el.Type == detect.TypeMenuItem && el.Text == "Option C" {
			target = el.RefID
		}
	}
	if target == "" {
		t.Fatalf("no menu item for Option C in %#v", outcome.Snapshot.Elements)
	}

	result, err := mgr.Click(info.ID, target)
	if err != nil {
		t.Fatal(err)
	}
	if result.Strategy != StrategyArrows {
		t.Errorf("expected arrow-key strategy without mouse reporting, got %s", result.Strategy)
	}
}

func TestManagerClickButtonTabOrder(t *testing.T) {
	mgr := newTestManager(t, Options{})
	info := createShell(t, mgr, `printf '[ OK ]  [ Cancel ]\n'; sleep 5`)

	outcome, err := mgr.WaitFor(context.Background(), info.ID,
		WaitCondition{Element: &ElementQuery{Type: detect.TypeButton, Text: "Cancel"}}, 3*time.Second)
	if err != nil || outcome.Status != WaitMatched {
		t.Fatalf("button wait failed: %v %v", outcome.Status, err)
	}

	var target string
	for _, el := range outcome.Snapshot.Elements {
		if el.Type == detect.TypeButton && el.Text == "Cancel" {
			target = el.RefID
		}
	}
	if target == "" {
		t.Fatalf("no Cancel button in %#v", outcome.Snapshot.Elements)
	}

	result, err := mgr.Click(info.ID, target)
	if err != nil {
		t.Fatal(err)
	}
	if result.Strategy != StrategyTab {
		t.Errorf("expected tab strategy for the second button, got %s", result.Strategy)
	}
}

func TestManagerClickLoneButtonFallsBackToEnter(t *testing.T) {
	mgr := newTestManager(t, Options{})
	info := createShell(t, mgr, `printf '[ OK ]\n'; sleep 5`)

	outcome, err := mgr.WaitFor(context.Background(), info.ID,
		WaitCondition{Element: &ElementQuery{Type: detect.TypeButton}}, 3*time.Second)
	if err != nil || outcome.Status != WaitMatched {
		t.Fatalf("button wait failed: %v %v", outcome.Status, err)
	}

	result, err := mgr.Click(info.ID, "btn1")
	if err != nil {
		t.Fatal(err)
	}
	if result.Strategy != StrategyEnter {
		t.Errorf("expected enter fallback for a lone button, got %s", result.Strategy)
	}
}

func TestManagerClickUnknownRef(t *testing.T) {
	mgr := newTestManager(t, Options{})
	info := createShell(t, mgr, `sleep 3`)

	if _, err := mgr.Click(info.ID, "btn99"); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for unknown ref, got %v", err)
	}
}

func TestManagerList(t *testing.T) {
	mgr := newTestManager(t, Options{})
	a := createShell(t, mgr, `sleep 5`)
	b := createShell(t, mgr, `sleep 5`)

	infos := mgr.List()
	if len(infos) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(infos))
	}
	if infos[0].ID != a.ID || infos[1].ID != b.ID {
		t.Error("expected sessions listed oldest first")
	}
	for _, info := range infos {
		if !info.Alive {
			t.Errorf("session %s should be alive", info.ID)
		}
	}
}

func TestManagerRecording(t *testing.T) {
	dir := t.TempDir()
	mgr := newTestManager(t, Options{RecordingDir: dir})
	info := createShell(t, mgr, `echo recorded; sleep 0.2`)

	outcome, err := mgr.WaitFor(context.Background(), info.ID,
		WaitCondition{Text: "recorded"}, 3*time.Second)
	if err != nil || outcome.Status != WaitMatched {
		t.Fatalf("wait failed: %v %v", outcome.Status, err)
	}
	if err := mgr.Close(info.ID); err != nil {
		t.Fatal(err)
	}

	data, err := readFile(dir, info.ID+".cast")
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(data), "\n")
	if len(lines) < 2 {
		t.Fatalf("expected header plus events, got %d lines", len(lines))
	}
	if !strings.Contains(lines[0], `"version":2`) {
		t.Errorf("expected asciinema v2 header, got %q", lines[0])
	}
	if !strings.Contains(data, "recorded") {
		t.Error("expected recorded output in the cast file")
	}
}
