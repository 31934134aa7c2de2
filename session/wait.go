package session

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/danielgatis/terminal-mcp/detect"
	"github.com/danielgatis/terminal-mcp/term"
)

// WaitFor blocks until the condition matches, the timeout fires, or the
// session closes, whichever happens first. The condition is checked against
// the grid once up front and then on every poll interval tick.
func (m *Manager) WaitFor(ctx context.Context, id string, cond WaitCondition, timeout time.Duration) (WaitOutcome, error) {
	if err := validateCondition(cond); err != nil {
		return WaitOutcome{}, err
	}

	var re *regexp.Regexp
	if cond.Regex != "" {
		var err error
		re, err = regexp.Compile(cond.Regex)
		if err != nil {
			return WaitOutcome{}, fmt.Errorf("%w: regex: %v", ErrInvalidArgument, err)
		}
	}

	if timeout <= 0 {
		timeout = defaultWaitTimeout
	}
	if timeout > m.opts.MaxWaitTimeout {
		timeout = m.opts.MaxWaitTimeout
	}

	s, err := m.get(id)
	if err != nil {
		return WaitOutcome{}, err
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	tick := time.NewTicker(m.opts.PollInterval)
	defer tick.Stop()

	for {
		if tree, matched := m.checkCondition(s, cond, re); matched {
			return WaitOutcome{Status: WaitMatched, Snapshot: tree}, nil
		}

		select {
		case <-tick.C:
		case <-deadline.C:
			return WaitOutcome{Status: WaitTimeout}, nil
		case <-s.closed:
			return WaitOutcome{Status: WaitClosed}, nil
		case <-ctx.Done():
			return WaitOutcome{Status: WaitTimeout}, nil
		}
	}
}

func validateCondition(cond WaitCondition) error {
	set := 0
	if cond.Text != "" {
		set++
	}
	if cond.Regex != "" {
		set++
	}
	if cond.Element != nil {
		set++
	}
	if cond.IdleMS > 0 {
		set++
	}
	if set != 1 {
		return fmt.Errorf("%w: exactly one of text, regex, element, idle_ms is required", ErrInvalidArgument)
	}
	return nil
}

func (m *Manager) checkCondition(s *Session, cond WaitCondition, re *regexp.Regexp) (*StateTree, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := false
	switch {
	case cond.Text != "":
		matched = strings.Contains(s.term.String(), cond.Text)
	case re != nil:
		matched = re.MatchString(s.term.String())
	case cond.Element != nil:
		snap := s.term.Snapshot(term.SnapshotDetailFull)
		for _, el := range m.engine.Detect(detect.NewView(snap)) {
			if el.Type != cond.Element.Type {
				continue
			}
			if cond.Element.Text == "" || strings.Contains(el.Text, cond.Element.Text) {
				matched = true
				break
			}
		}
	case cond.IdleMS > 0:
		matched = time.Since(s.lastOutputTime()) >= time.Duration(cond.IdleMS)*time.Millisecond
	}

	if !matched {
		return nil, false
	}
	return m.stateTreeLocked(s, SnapshotOptions{}), true
}
