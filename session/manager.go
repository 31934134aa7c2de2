package session

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"pkt.systems/pslog"

	"github.com/danielgatis/terminal-mcp/detect"
	"github.com/danielgatis/terminal-mcp/term"
)

const (
	defaultMaxSessions    = 16
	defaultRingCapacity   = 1 << 20 // 1 MiB
	defaultSettleTimeout  = 50 * time.Millisecond
	defaultPollInterval   = 20 * time.Millisecond
	defaultWaitTimeout    = 10 * time.Second
	defaultMaxWaitTimeout = 5 * time.Minute
	settleQuiet           = 10 * time.Millisecond
	maxDimension          = 1000
	maxKeyRepeat          = 100
)

// Options configures a Manager. Zero values select the defaults above.
type Options struct {
	MaxSessions    int
	RingCapacity   int
	SettleTimeout  time.Duration
	PollInterval   time.Duration
	MaxWaitTimeout time.Duration

	// CommandWhitelist, when non-empty, restricts which commands may be
	// spawned (matched against the bare command and its base name).
	CommandWhitelist []string

	// ReapOnExit removes a session from the registry as soon as its child
	// exits instead of keeping the frozen grid queryable.
	ReapOnExit bool

	// ForceHeadless downgrades every session to headless mode regardless of
	// its per-session configuration.
	ForceHeadless bool

	// RecordingDir, when set, records every session to <dir>/<id>.cast
	// unless the session config names its own path.
	RecordingDir string

	// TerminalEmulator overrides mirror window auto-detection for visual
	// sessions that do not set their own.
	TerminalEmulator string

	Logger pslog.Logger
}

func (o Options) withDefaults() Options {
	if o.MaxSessions <= 0 {
		o.MaxSessions = defaultMaxSessions
	}
	if o.RingCapacity <= 0 {
		o.RingCapacity = defaultRingCapacity
	}
	if o.SettleTimeout <= 0 {
		o.SettleTimeout = defaultSettleTimeout
	}
	if o.PollInterval <= 0 {
		o.PollInterval = defaultPollInterval
	}
	if o.MaxWaitTimeout <= 0 {
		o.MaxWaitTimeout = defaultMaxWaitTimeout
	}
	return o
}

// Manager owns the session registry and implements the tool surface: create,
// list, close, resize, type, press_key, click, snapshot, wait_for,
// read_output.
type Manager struct {
	opts   Options
	engine *detect.Engine

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a manager with the default detection engine.
func NewManager(opts Options) *Manager {
	return &Manager{
		opts:     opts.withDefaults(),
		engine:   detect.NewEngine(),
		sessions: make(map[string]*Session),
	}
}

func (m *Manager) log() pslog.Logger {
	return m.opts.Logger
}

// Create validates the config, spawns the PTY child, starts the output pump,
// and registers the session. In visual mode a mirror window is attempted;
// mirror failure downgrades to headless with a warning.
func (m *Manager) Create(cfg Config) (SessionInfo, error) {
	if cfg.Command == "" {
		return SessionInfo{}, fmt.Errorf("%w: command is required", ErrInvalidArgument)
	}
	if cfg.Rows < 0 || cfg.Cols < 0 || cfg.Rows > maxDimension || cfg.Cols > maxDimension {
		return SessionInfo{}, fmt.Errorf("%w: dimensions %dx%d", ErrInvalidArgument, cfg.Rows, cfg.Cols)
	}
	if cfg.Rows == 0 {
		cfg.Rows = term.DefaultRows
	}
	if cfg.Cols == 0 {
		cfg.Cols = term.DefaultCols
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeHeadless
	}
	if cfg.Mode != ModeHeadless && cfg.Mode != ModeVisual {
		return SessionInfo{}, fmt.Errorf("%w: unknown mode %q", ErrInvalidArgument, cfg.Mode)
	}
	if m.opts.ForceHeadless {
		cfg.Mode = ModeHeadless
	}
	if !m.commandAllowed(cfg.Command) {
		return SessionInfo{}, fmt.Errorf("%w: %s", ErrCommandNotAllowed, cfg.Command)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.sessions) >= m.opts.MaxSessions {
		return SessionInfo{}, fmt.Errorf("%w: max %d", ErrResourceExhausted, m.opts.MaxSessions)
	}

	proc, err := spawnPTY(cfg)
	if err != nil {
		return SessionInfo{}, err
	}

	id := uuid.NewString()
	t := term.New(term.WithSize(cfg.Rows, cfg.Cols), term.WithResponse(proc))
	s := newSession(id, cfg, proc, t, m.opts.RingCapacity)

	if path := m.recordingPath(cfg, id); path != "" {
		rec, err := newRecorder(path, cfg.Rows, cfg.Cols)
		if err != nil {
			if m.log() != nil {
				m.log().Warn("recording disabled", "session", id, "err", err)
			}
		} else {
			s.rec = rec
		}
	}

	if cfg.Mode == ModeVisual {
		emulator := cfg.TerminalEmulator
		if emulator == "" {
			emulator = m.opts.TerminalEmulator
		}
		mir, err := startMirror(id, emulator)
		if err != nil {
			if m.log() != nil {
				m.log().Warn("mirror window failed, running headless", "session", id, "err", err)
			}
			cfg.Mode = ModeHeadless
			s.cfg.Mode = ModeHeadless
		} else {
			s.mir = mir
		}
	}

	m.sessions[id] = s
	go s.pump(m.onSessionExit)

	if m.log() != nil {
		m.log().Info("session created",
			"session", id, "command", cfg.Command, "rows", cfg.Rows, "cols", cfg.Cols, "mode", cfg.Mode)
	}

	return m.infoLocked(s), nil
}

func (m *Manager) recordingPath(cfg Config, id string) string {
	if cfg.Record != "" {
		return cfg.Record
	}
	if m.opts.RecordingDir != "" {
		return filepath.Join(m.opts.RecordingDir, id+".cast")
	}
	return ""
}

func (m *Manager) commandAllowed(command string) bool {
	if len(m.opts.CommandWhitelist) == 0 {
		return true
	}
	base := filepath.Base(command)
	for _, allowed := range m.opts.CommandWhitelist {
		if command == allowed || base == allowed {
			return true
		}
	}
	return false
}

// onSessionExit runs on the pump goroutine when the child dies. The session
// stays queryable unless ReapOnExit is set.
func (m *Manager) onSessionExit(s *Session) {
	if m.log() != nil {
		m.log().Debug("session child exited", "session", s.ID)
	}
	if m.opts.ReapOnExit {
		_ = m.Close(s.ID)
	}
}

// List returns a point-in-time view of all sessions, oldest first.
func (m *Manager) List() []SessionInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make([]SessionInfo, 0, len(m.sessions))
	for _, s := range m.sessions {
		infos = append(infos, m.infoLocked(s))
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].CreatedAt.Before(infos[j].CreatedAt)
	})
	return infos
}

func (m *Manager) infoLocked(s *Session) SessionInfo {
	return SessionInfo{
		ID:        s.ID,
		Command:   s.cfg.Command,
		Args:      s.cfg.Args,
		Rows:      s.term.Rows(),
		Cols:      s.term.Cols(),
		Mode:      s.cfg.Mode,
		Alive:     s.Alive(),
		CreatedAt: s.createdAt,
	}
}

// Close kills the child, stops the pump, and removes the session. A second
// close of the same id returns ErrNotFound: the registry no longer knows it.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(m.sessions, id)
	m.mu.Unlock()

	s.shutdown()

	if m.log() != nil {
		m.log().Info("session closed", "session", id)
	}
	return nil
}

// CloseAll closes every session. Used on shutdown.
func (m *Manager) CloseAll() {
	for _, info := range m.List() {
		_ = m.Close(info.ID)
	}
}

func (m *Manager) get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s, nil
}

// Resize updates the PTY and the grid; the kernel signals the child.
func (m *Manager) Resize(id string, rows, cols int) error {
	if rows < 1 || cols < 1 || rows > maxDimension || cols > maxDimension {
		return fmt.Errorf("%w: dimensions %dx%d", ErrInvalidArgument, rows, cols)
	}

	s, err := m.get(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Alive() {
		if err := s.proc.Resize(rows, cols); err != nil {
			return err
		}
	}
	s.term.Resize(rows, cols)
	return nil
}

// TypeText writes the text to the PTY as UTF-8.
func (m *Manager) TypeText(id, text string) error {
	s, err := m.get(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.writeLocked([]byte(text))
}

// PressKey parses the key spec, encodes it per xterm conventions, and writes
// it count times (count <= 0 means once).
func (m *Manager) PressKey(id, keySpec string, count int) error {
	s, err := m.get(id)
	if err != nil {
		return err
	}

	if count <= 0 {
		count = 1
	}
	if count > maxKeyRepeat {
		return fmt.Errorf("%w: count %d exceeds %d", ErrInvalidArgument, count, maxKeyRepeat)
	}

	appCursor := s.term.HasMode(term.ModeCursorKeysApplication)
	encoded, err := ParseKey(keySpec, appCursor)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := 0; i < count; i++ {
		if err := s.writeLocked(encoded); err != nil {
			return err
		}
	}
	return nil
}

// writeLocked writes to the PTY. Caller holds s.mu.
func (s *Session) writeLocked(data []byte) error {
	if !s.Alive() {
		return fmt.Errorf("%w: %s", ErrSessionClosed, s.ID)
	}
	_, err := s.proc.Write(data)
	return err
}

// Snapshot settles briefly, captures the grid, and runs detection.
func (m *Manager) Snapshot(id string, opts SnapshotOptions) (*StateTree, error) {
	s, err := m.get(id)
	if err != nil {
		return nil, err
	}

	s.settle(m.opts.SettleTimeout, settleQuiet)

	s.mu.Lock()
	defer s.mu.Unlock()

	return m.stateTreeLocked(s, opts), nil
}

// stateTreeLocked builds the full snapshot result. Caller holds s.mu, which
// keeps the pump from mutating the grid mid-capture.
func (m *Manager) stateTreeLocked(s *Session, opts SnapshotOptions) *StateTree {
	snap := s.term.Snapshot(term.SnapshotDetailFull)

	view := detect.NewView(snap)
	if opts.Region != nil {
		view = view.Sub(*opts.Region)
	}
	elements := m.engine.Detect(view)

	s.snapshotIndex++

	lines := make([]string, len(snap.Lines))
	for i, line := range snap.Lines {
		lines[i] = line.Text
	}

	tree := &StateTree{
		SessionID: s.ID,
		Rows:      snap.Size.Rows,
		Cols:      snap.Size.Cols,
		Cursor: CursorPos{
			Row:     snap.Cursor.Row,
			Col:     snap.Cursor.Col,
			Visible: snap.Cursor.Visible,
		},
		Title:         snap.Title,
		AltScreen:     snap.AltScreen,
		Lines:         lines,
		Elements:      elements,
		SnapshotIndex: s.snapshotIndex,
		Alive:         s.Alive(),
	}

	if opts.IncludeRaw {
		styled := s.term.Snapshot(term.SnapshotDetailStyled)
		runs := make([][]term.SnapshotSegment, len(styled.Lines))
		for i, line := range styled.Lines {
			runs[i] = line.Segments
		}
		tree.Runs = runs
	}

	return tree
}

// ReadOutput drains up to maxBytes from the raw output ring (0 drains all)
// and returns it as UTF-8 text with invalid bytes replaced.
func (m *Manager) ReadOutput(id string, maxBytes int) (string, error) {
	if maxBytes < 0 {
		return "", fmt.Errorf("%w: max_bytes %d", ErrInvalidArgument, maxBytes)
	}

	s, err := m.get(id)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	data := s.ring.drain(maxBytes)
	s.mu.Unlock()

	return strings.ToValidUTF8(string(data), "�"), nil
}

// Click re-detects against the current grid under the session mutex (the
// ref_id is only meaningful against the detection it came from), then
// synthesizes a click using the best available strategy.
func (m *Manager) Click(id, refID string) (*ClickResult, error) {
	s, err := m.get(id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.term.Snapshot(term.SnapshotDetailFull)
	elements := m.engine.Detect(detect.NewView(snap))

	var target *detect.Element
	for i := range elements {
		if elements[i].RefID == refID {
			target = &elements[i]
			break
		}
	}
	if target == nil {
		return nil, fmt.Errorf("%w: unknown ref_id %q", ErrInvalidArgument, refID)
	}

	strategy, input := m.clickInput(s, elements, target)
	if err := s.writeLocked(input); err != nil {
		return nil, err
	}

	return &ClickResult{
		RefID:    refID,
		Element:  *target,
		Strategy: strategy,
	}, nil
}

// clickInput picks the synthesis strategy: a real mouse report when the app
// asked for mouse events, arrow-key navigation for menu items, Tab to a
// button's tab-order index, and a best-effort Enter otherwise.
func (m *Manager) clickInput(s *Session, elements []detect.Element, target *detect.Element) (ClickStrategy, []byte) {
	if s.term.MouseReportingEnabled() {
		row, col := target.Region.Center()
		return StrategyMouse, encodeMouseClick(s.term.HasMode(term.ModeSGRMouse), row, col)
	}

	if target.Type == detect.TypeMenuItem {
		if input, ok := menuNavigation(elements, target); ok {
			return StrategyArrows, input
		}
	}

	if target.Type == detect.TypeButton {
		if input, ok := buttonNavigation(elements, target); ok {
			return StrategyTab, input
		}
	}

	return StrategyEnter, []byte{'\r'}
}

// encodeMouseClick renders a press+release pair at (row, col), SGR-encoded
// when the app enabled mode 1006, legacy X10 otherwise.
func encodeMouseClick(sgr bool, row, col int) []byte {
	if sgr {
		return []byte(fmt.Sprintf("\x1b[<0;%d;%dM\x1b[<0;%d;%dm", col+1, row+1, col+1, row+1))
	}
	return []byte{
		0x1b, '[', 'M', 32, byte(32 + col + 1), byte(32 + row + 1),
		0x1b, '[', 'M', 32 + 3, byte(32 + col + 1), byte(32 + row + 1),
	}
}

// buttonNavigation synthesizes Tab presses to reach the target button,
// followed by Enter. Tab order is approximated by the buttons' reading-order
// position on screen. A lone button is assumed already focused; the caller
// falls back to plain Enter.
func buttonNavigation(elements []detect.Element, target *detect.Element) ([]byte, bool) {
	index := -1
	count := 0
	for _, el := range elements {
		if el.Type != detect.TypeButton {
			continue
		}
		if el.RefID == target.RefID {
			index = count
		}
		count++
	}
	if index < 0 || count < 2 {
		return nil, false
	}

	var input []byte
	for i := 0; i < index; i++ {
		input = append(input, '\t')
	}
	input = append(input, '\r')
	return input, true
}

// menuNavigation synthesizes arrow presses from the menu's current selection
// to the target item, followed by Enter.
func menuNavigation(elements []detect.Element, target *detect.Element) ([]byte, bool) {
	targetIdx, ok := target.Attributes["index"].(int)
	if !ok {
		return nil, false
	}

	// The owning menu is the Menu element whose region contains the item.
	for _, el := range elements {
		if el.Type != detect.TypeMenu {
			continue
		}
		if !el.Region.Contains(target.Region.Row, target.Region.Col) {
			continue
		}

		selected := 0
		if sel, ok := el.Attributes["selected_index"].(int); ok {
			selected = sel
		}

		var input []byte
		for i := selected; i < targetIdx; i++ {
			input = append(input, 0x1b, '[', 'B')
		}
		for i := selected; i > targetIdx; i-- {
			input = append(input, 0x1b, '[', 'A')
		}
		input = append(input, '\r')
		return input, true
	}

	return nil, false
}
