package session

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// castHeader is the first line of an asciinema v2 recording.
type castHeader struct {
	Version   int   `json:"version"`
	Width     int   `json:"width"`
	Height    int   `json:"height"`
	Timestamp int64 `json:"timestamp"`
}

// recorder writes terminal output as an asciinema v2 cast file: a JSON header
// line followed by one `[elapsed, "o", text]` event per output chunk.
type recorder struct {
	mu    sync.Mutex
	f     *os.File
	start time.Time
}

// newRecorder creates the cast file and writes the header.
func newRecorder(path string, rows, cols int) (*recorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create recording: %w", err)
	}

	header, err := json.Marshal(castHeader{
		Version:   2,
		Width:     cols,
		Height:    rows,
		Timestamp: time.Now().Unix(),
	})
	if err != nil {
		f.Close()
		return nil, err
	}

	if _, err := f.Write(append(header, '\n')); err != nil {
		f.Close()
		return nil, fmt.Errorf("write recording header: %w", err)
	}

	return &recorder{f: f, start: time.Now()}, nil
}

// WriteOutput appends one output event. Invalid UTF-8 is replaced so the
// event line stays valid JSON.
func (r *recorder) WriteOutput(data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.f == nil {
		return
	}

	elapsed := time.Since(r.start).Seconds()
	event, err := json.Marshal([]any{elapsed, "o", string(data)})
	if err != nil {
		return
	}
	_, _ = r.f.Write(append(event, '\n'))
}

// Close flushes and closes the cast file. Safe to call more than once.
func (r *recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.f == nil {
		return nil
	}
	err := r.f.Close()
	r.f = nil
	return err
}
