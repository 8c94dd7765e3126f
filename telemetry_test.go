package main

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"metaselect/internal/options"
)

func TestEventLoggerAppendsJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "events.jsonl")
	l := newEventLogger(path)
	l.Emit(eventPicked, "model", options.Some[any]("CanESM2"))
	l.Emit(eventUnresolved, "emissions", options.Unresolved[any]())
	l.Emit(eventCleared, "variable", options.None[any]())

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	var events []selectionEvent
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var ev selectionEvent
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			t.Fatalf("decode %q: %v", scanner.Text(), err)
		}
		events = append(events, ev)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	for i, ev := range events {
		if ev.Seq != uint64(i+1) {
			t.Errorf("event %d seq = %d", i, ev.Seq)
		}
		if ev.SessionID == "" || ev.SessionID != events[0].SessionID {
			t.Errorf("event %d session = %q", i, ev.SessionID)
		}
	}
	if events[0].Value != "CanESM2" || events[0].State != "some" {
		t.Errorf("first event = %+v", events[0])
	}
	if events[1].State != "unresolved" || events[1].Value != nil {
		t.Errorf("second event = %+v", events[1])
	}
	if events[2].State != "none" {
		t.Errorf("third event = %+v", events[2])
	}
}

func TestNilEventLoggerDropsEvents(t *testing.T) {
	l := newEventLogger("  ")
	if l != nil {
		t.Fatal("blank path should disable the event log")
	}
	l.Emit(eventPicked, "model", options.Some[any]("CanESM2"))
}
