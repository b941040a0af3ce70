package authcore

import (
	"bytes"
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"
)

type countingSink struct {
	count atomic.Int64
}

func (s *countingSink) Emit(context.Context, AuditEvent) {
	s.count.Add(1)
}

type gateSink struct {
	gate chan struct{}
}

func (s *gateSink) Emit(context.Context, AuditEvent) {
	<-s.gate
}

func TestDispatcherDeliversEvents(t *testing.T) {
	sink := &countingSink{}
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 8}, sink)

	for i := 0; i < 5; i++ {
		d.Emit(context.Background(), AuditEvent{EventType: "token_revoke"})
	}
	d.Close()

	if got := sink.count.Load(); got != 5 {
		t.Fatalf("expected 5 delivered events, got %d", got)
	}
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	sink := &gateSink{gate: make(chan struct{})}
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)
	defer d.Close()
	defer close(sink.gate)

	// The worker blocks inside the gated sink and the buffer holds one
	// more event, so sustained emission must eventually drop.
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) && d.Dropped() == 0 {
		d.Emit(context.Background(), AuditEvent{EventType: "session_issue"})
	}

	if d.Dropped() == 0 {
		t.Fatal("expected dropped events under backpressure")
	}
}

func TestDispatcherDisabled(t *testing.T) {
	if d := newAuditDispatcher(AuditConfig{Enabled: false}, &countingSink{}); d != nil {
		t.Fatal("expected nil dispatcher when audit is disabled")
	}

	// A nil dispatcher is safe to use.
	var d *auditDispatcher
	d.Emit(context.Background(), AuditEvent{})
	d.Close()
	if d.Dropped() != 0 {
		t.Fatal("expected zero drops on nil dispatcher")
	}
}

func TestJSONWriterSinkWritesLines(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)

	sink.Emit(context.Background(), AuditEvent{EventType: "session_issue", Subject: "user-1", Success: true})

	var event AuditEvent
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &event); err != nil {
		t.Fatalf("expected one JSON line, got %q: %v", buf.String(), err)
	}
	if event.EventType != "session_issue" || event.Subject != "user-1" || !event.Success {
		t.Fatalf("unexpected event %+v", event)
	}
}
