package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"
)

type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordingSink) Emit(_ context.Context, event Event) {
	s.mu.Lock()
	s.events = append(s.events, event)
	s.mu.Unlock()
}

func (s *recordingSink) types() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.EventType)
	}
	return out
}

func TestDisabledDispatcherIsNil(t *testing.T) {
	d := NewDispatcher(Config{Enabled: false}, &recordingSink{})
	if d != nil {
		t.Fatal("expected nil dispatcher when disabled")
	}
	d.Emit(context.Background(), Event{EventType: "login"})
	d.Close()
	if d.Dropped() != 0 || d.Stats() != (Stats{}) {
		t.Fatal("nil dispatcher should report zero stats")
	}
}

func TestDispatcherDeliversInOrderAndDrainsOnClose(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 16}, sink)

	for _, typ := range []string{"renewal_started", "renewal_succeeded", "logout"} {
		d.Emit(context.Background(), Event{EventType: typ})
	}
	d.Close()

	got := strings.Join(sink.types(), ",")
	if got != "renewal_started,renewal_succeeded,logout" {
		t.Fatalf("unexpected delivery order %q", got)
	}
	if d.Stats().Delivered != 3 {
		t.Fatalf("expected 3 delivered, got %+v", d.Stats())
	}

	d.Emit(context.Background(), Event{EventType: "late"})
	if len(sink.types()) != 3 {
		t.Fatal("emit after close must be ignored")
	}
}

func TestDispatcherDropIfFull(t *testing.T) {
	gate := make(chan struct{})
	sink := SinkFunc(func(context.Context, Event) { <-gate })
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)
	defer func() {
		close(gate)
		d.Close()
	}()

	start := time.Now()
	for i := 0; i < 50; i++ {
		d.Emit(context.Background(), Event{EventType: "renewal_failed"})
	}
	if time.Since(start) > time.Second {
		t.Fatal("drop-if-full emit must not block")
	}
	if d.Dropped() == 0 {
		t.Fatal("expected dropped events with a blocked sink")
	}
}

func TestDispatcherBlockingEmitHonorsContext(t *testing.T) {
	gate := make(chan struct{})
	sink := SinkFunc(func(context.Context, Event) { <-gate })
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1}, sink)
	defer func() {
		close(gate)
		d.Close()
	}()

	d.Emit(context.Background(), Event{EventType: "a"})
	d.Emit(context.Background(), Event{EventType: "b"})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	d.Emit(ctx, Event{EventType: "c"})
	if d.Dropped() != 1 {
		t.Fatalf("expected context-cancelled emit to count as dropped, got %d", d.Dropped())
	}
}

func TestJSONWriterSinkWritesOneLinePerEvent(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)
	sink.Emit(context.Background(), Event{EventType: "login", Success: true, RequestID: "rid-1"})
	sink.Emit(context.Background(), Event{EventType: "session_expired", Error: "session_expired"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	var first Event
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("decode line: %v", err)
	}
	if first.EventType != "login" || first.RequestID != "rid-1" || !first.Success {
		t.Fatalf("unexpected event %+v", first)
	}
}

func TestMultiSinkFansOut(t *testing.T) {
	a, b := &recordingSink{}, &recordingSink{}
	MultiSink{a, nil, b}.Emit(context.Background(), Event{EventType: "logout"})
	if len(a.types()) != 1 || len(b.types()) != 1 {
		t.Fatal("expected both sinks to receive the event")
	}
}

func TestChannelSink(t *testing.T) {
	sink := NewChannelSink(0)
	sink.Emit(context.Background(), Event{EventType: "credentials_set"})
	select {
	case e := <-sink.Events():
		if e.EventType != "credentials_set" {
			t.Fatalf("unexpected event %+v", e)
		}
	default:
		t.Fatal("expected buffered event")
	}
}
