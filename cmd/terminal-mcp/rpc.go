package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"pkt.systems/pslog"

	"github.com/danielgatis/terminal-mcp/detect"
	"github.com/danielgatis/terminal-mcp/session"
)

// JSON-RPC error codes: the standard ones plus one application code per
// session error kind that has no standard counterpart (invalid arguments use
// the invalid-params code, internal errors the internal-error code).
const (
	codeParse          = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternal       = -32603

	codeNotFound          = -32001
	codeCommandNotAllowed = -32002
	codeSpawnFailed       = -32003
	codeIO                = -32004
	codeTimeout           = -32005
	codeSessionClosed     = -32006
	codeResourceExhausted = -32007
)

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

// rpcServer dispatches tool calls to the session manager, one request at a
// time in arrival order.
type rpcServer struct {
	mgr *session.Manager
	log pslog.Logger

	writeMu sync.Mutex
	out     io.Writer
}

func newRPCServer(mgr *session.Manager, log pslog.Logger) *rpcServer {
	return &rpcServer{mgr: mgr, log: log}
}

// serve reads line-delimited JSON-RPC requests until EOF.
func (srv *rpcServer) serve(in io.Reader, out io.Writer) error {
	srv.out = out

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req rpcRequest
		if err := json.Unmarshal(line, &req); err != nil {
			srv.reply(rpcResponse{JSONRPC: "2.0", Error: &rpcError{Code: codeParse, Message: "parse error"}})
			continue
		}

		result, rpcErr := srv.dispatch(req.Method, req.Params)
		if req.ID == nil {
			continue // notification
		}
		srv.reply(rpcResponse{JSONRPC: "2.0", ID: req.ID, Result: result, Error: rpcErr})
	}

	return scanner.Err()
}

func (srv *rpcServer) reply(resp rpcResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		srv.log.Error("marshal response", "err", err)
		return
	}

	srv.writeMu.Lock()
	defer srv.writeMu.Unlock()
	_, _ = srv.out.Write(append(data, '\n'))
}

type createParams struct {
	Command          string            `json:"command"`
	Args             []string          `json:"args"`
	Rows             int               `json:"rows"`
	Cols             int               `json:"cols"`
	Visual           bool              `json:"visual"`
	Cwd              string            `json:"cwd"`
	Env              map[string]string `json:"env"`
	TerminalEmulator string            `json:"terminal_emulator"`
}

type sessionParams struct {
	SessionID string `json:"session_id"`
}

type resizeParams struct {
	SessionID string `json:"session_id"`
	Rows      int    `json:"rows"`
	Cols      int    `json:"cols"`
}

type snapshotParams struct {
	SessionID  string         `json:"session_id"`
	IncludeRaw bool           `json:"include_raw"`
	Region     *detect.Region `json:"region"`
}

type typeParams struct {
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
}

type pressKeyParams struct {
	SessionID string `json:"session_id"`
	Key       string `json:"key"`
	Count     int    `json:"count"`
}

type clickParams struct {
	SessionID string `json:"session_id"`
	RefID     string `json:"ref_id"`
}

type waitForParams struct {
	SessionID string                 `json:"session_id"`
	Text      string                 `json:"text"`
	Regex     string                 `json:"regex"`
	Element   *session.ElementQuery  `json:"element"`
	IdleMS    int                    `json:"idle_ms"`
	TimeoutMS int                    `json:"timeout_ms"`
}

type readOutputParams struct {
	SessionID string `json:"session_id"`
	MaxBytes  int    `json:"max_bytes"`
}

func (srv *rpcServer) dispatch(method string, raw json.RawMessage) (any, *rpcError) {
	switch method {
	case "terminal_session_create":
		var p createParams
		if err := parseParams(raw, &p); err != nil {
			return nil, err
		}
		mode := session.ModeHeadless
		if p.Visual {
			mode = session.ModeVisual
		}
		info, err := srv.mgr.Create(session.Config{
			Command:          p.Command,
			Args:             p.Args,
			Rows:             p.Rows,
			Cols:             p.Cols,
			Mode:             mode,
			Dir:              p.Cwd,
			Env:              p.Env,
			TerminalEmulator: p.TerminalEmulator,
		})
		if err != nil {
			return nil, toRPCError(err)
		}
		return info, nil

	case "terminal_session_list":
		return srv.mgr.List(), nil

	case "terminal_session_close":
		var p sessionParams
		if err := parseParams(raw, &p); err != nil {
			return nil, err
		}
		if err := srv.mgr.Close(p.SessionID); err != nil {
			return nil, toRPCError(err)
		}
		return okResult{}, nil

	case "terminal_session_resize":
		var p resizeParams
		if err := parseParams(raw, &p); err != nil {
			return nil, err
		}
		if err := srv.mgr.Resize(p.SessionID, p.Rows, p.Cols); err != nil {
			return nil, toRPCError(err)
		}
		return okResult{}, nil

	case "terminal_snapshot":
		var p snapshotParams
		if err := parseParams(raw, &p); err != nil {
			return nil, err
		}
		tree, err := srv.mgr.Snapshot(p.SessionID, session.SnapshotOptions{
			IncludeRaw: p.IncludeRaw,
			Region:     p.Region,
		})
		if err != nil {
			return nil, toRPCError(err)
		}
		return tree, nil

	case "terminal_type":
		var p typeParams
		if err := parseParams(raw, &p); err != nil {
			return nil, err
		}
		if err := srv.mgr.TypeText(p.SessionID, p.Text); err != nil {
			return nil, toRPCError(err)
		}
		return okResult{}, nil

	case "terminal_press_key":
		var p pressKeyParams
		if err := parseParams(raw, &p); err != nil {
			return nil, err
		}
		if err := srv.mgr.PressKey(p.SessionID, p.Key, p.Count); err != nil {
			return nil, toRPCError(err)
		}
		return okResult{}, nil

	case "terminal_click":
		var p clickParams
		if err := parseParams(raw, &p); err != nil {
			return nil, err
		}
		result, err := srv.mgr.Click(p.SessionID, p.RefID)
		if err != nil {
			return nil, toRPCError(err)
		}
		return result, nil

	case "terminal_wait_for":
		var p waitForParams
		if err := parseParams(raw, &p); err != nil {
			return nil, err
		}
		outcome, err := srv.mgr.WaitFor(context.Background(), p.SessionID, session.WaitCondition{
			Text:    p.Text,
			Regex:   p.Regex,
			Element: p.Element,
			IdleMS:  p.IdleMS,
		}, time.Duration(p.TimeoutMS)*time.Millisecond)
		if err != nil {
			return nil, toRPCError(err)
		}
		return outcome, nil

	case "terminal_read_output":
		var p readOutputParams
		if err := parseParams(raw, &p); err != nil {
			return nil, err
		}
		text, err := srv.mgr.ReadOutput(p.SessionID, p.MaxBytes)
		if err != nil {
			return nil, toRPCError(err)
		}
		return map[string]string{"output": text}, nil

	default:
		return nil, &rpcError{Code: codeMethodNotFound, Message: fmt.Sprintf("unknown method %q", method)}
	}
}

type okResult struct{}

func (okResult) MarshalJSON() ([]byte, error) {
	return []byte(`{"ok":true}`), nil
}

func parseParams(raw json.RawMessage, dst any) *rpcError {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return &rpcError{Code: codeInvalidParams, Message: err.Error()}
	}
	return nil
}

// toRPCError maps session error kinds onto JSON-RPC error codes.
func toRPCError(err error) *rpcError {
	if err == nil {
		return nil
	}

	code := codeInternal
	switch {
	case errors.Is(err, session.ErrInvalidArgument):
		code = codeInvalidParams
	case errors.Is(err, session.ErrNotFound):
		code = codeNotFound
	case errors.Is(err, session.ErrCommandNotAllowed):
		code = codeCommandNotAllowed
	case errors.Is(err, session.ErrSpawnFailed):
		code = codeSpawnFailed
	case errors.Is(err, session.ErrIO):
		code = codeIO
	case errors.Is(err, session.ErrTimeout):
		code = codeTimeout
	case errors.Is(err, session.ErrSessionClosed):
		code = codeSessionClosed
	case errors.Is(err, session.ErrResourceExhausted):
		code = codeResourceExhausted
	}

	return &rpcError{Code: code, Message: err.Error()}
}
