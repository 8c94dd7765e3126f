package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"metaselect/internal/options"
)

const (
	eventPicked     = "selection.picked"
	eventCleared    = "selection.cleared"
	eventCorrected  = "selection.corrected"
	eventUnresolved = "selection.unresolved"
)

type selectionEvent struct {
	SessionID string    `json:"session_id"`
	Seq       uint64    `json:"seq"`
	Timestamp time.Time `json:"timestamp"`
	Event     string    `json:"event"`
	Selector  string    `json:"selector"`
	State     string    `json:"state"`
	Value     any       `json:"value,omitempty"`
}

// eventLogger appends selection events as JSON lines. A nil logger drops
// events.
type eventLogger struct {
	path      string
	sessionID string
	seq       uint64
	mu        sync.Mutex
}

func newEventLogger(path string) *eventLogger {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	_ = os.MkdirAll(filepath.Dir(path), 0o755)
	return &eventLogger{
		path:      path,
		sessionID: uuid.NewString(),
	}
}

func (l *eventLogger) Emit(event, selector string, sel options.Selection[any]) {
	if l == nil || strings.TrimSpace(event) == "" {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	l.seq++
	record := selectionEvent{
		SessionID: l.sessionID,
		Seq:       l.seq,
		Timestamp: time.Now().UTC(),
		Event:     event,
		Selector:  selector,
		State:     selectionState(sel),
	}
	if v, ok := sel.Value(); ok {
		record.Value = v
	}
	data, err := json.Marshal(record)
	if err != nil {
		return
	}
	data = append(data, '\n')
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = f.Write(data)
}

func selectionState(sel options.Selection[any]) string {
	switch {
	case sel.IsNone():
		return "none"
	case sel.IsUnresolved():
		return "unresolved"
	}
	return "some"
}
