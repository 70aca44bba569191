package otel

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for i, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("line %d: invalid JSON: %v", i, err)
		}
		out = append(out, m)
	}
	return out
}

func TestEmitWritesJSONL(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)

	l.Emit(Event{Kind: KindPollAttempt, Level: LevelInfo, Comp: "poller", ParcelID: "SPR-0042", Attempt: 3})
	l.Close()

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	got := lines[0]
	if got["kind"] != "poll.attempt" {
		t.Errorf("kind=%v, want poll.attempt", got["kind"])
	}
	if got["parcel_id"] != "SPR-0042" {
		t.Errorf("parcel_id=%v", got["parcel_id"])
	}
	if got["attempt"] != float64(3) {
		t.Errorf("attempt=%v, want 3", got["attempt"])
	}
}

func TestEmitStampsTimeAndSession(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)

	before := time.Now()
	l.Emit(Event{Kind: KindStartup})
	l.Emit(Event{Kind: KindShutdown, SessionID: "spoofed"})
	l.Close()
	after := time.Now()

	var evs []Event
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var ev Event
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		evs = append(evs, ev)
	}
	if len(evs) != 2 {
		t.Fatalf("expected 2 events, got %d", len(evs))
	}
	if evs[0].Time.Before(before) || evs[0].Time.After(after) {
		t.Errorf("time %v outside [%v, %v]", evs[0].Time, before, after)
	}
	if evs[0].SessionID != l.SessionID() || evs[1].SessionID != l.SessionID() {
		t.Errorf("session ids %q/%q, want %q", evs[0].SessionID, evs[1].SessionID, l.SessionID())
	}
}

func TestDurRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)
	l.Emit(Event{Kind: KindSearchComplete, Dur: 1500 * time.Millisecond})
	l.Close()

	lines := decodeLines(t, &buf)
	if lines[0]["dur_ms"] != float64(1500) {
		t.Errorf("dur_ms=%v, want 1500", lines[0]["dur_ms"])
	}

	var ev Event
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &ev); err != nil {
		t.Fatal(err)
	}
	if ev.Dur != 1500*time.Millisecond {
		t.Errorf("Dur=%v after decode, want 1.5s", ev.Dur)
	}
}

func TestOmitEmptyFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)
	l.Emit(Event{Kind: KindStartup})
	l.Close()

	line := strings.TrimSpace(buf.String())
	for _, field := range []string{"dur_ms", "count", "query", "parcel_id", "status", "attempt", "progress", "err", "msg", "extra", "qid"} {
		if strings.Contains(line, `"`+field+`"`) {
			t.Errorf("field %q should be omitted: %s", field, line)
		}
	}
}

func TestConcurrentEmit(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Emit(Event{Kind: KindSearchStart, Comp: "test"})
		}()
	}
	wg.Wait()
	l.Close()

	if n := len(decodeLines(t, &buf)); n != 100 {
		t.Errorf("expected 100 lines, got %d", n)
	}
}

func TestCloseIdempotentAndDropsLateEvents(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)

	l.Emit(Event{Kind: KindStartup})
	l.Close()
	l.Close()

	l.Emit(Event{Kind: KindShutdown})
	if l.Dropped() != 1 {
		t.Errorf("Dropped()=%d, want 1 for emit after close", l.Dropped())
	}
	if n := len(decodeLines(t, &buf)); n != 1 {
		t.Errorf("expected 1 line, got %d", n)
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	var l *Logger
	l.Emit(Event{Kind: KindStartup})
	l.Info(KindStartup, "main", "hi")

	var em Emitter
	em.Emit(Event{Kind: KindStartup})
}

type blockingWriter struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (w *blockingWriter) Write(p []byte) (int, error) {
	w.once.Do(func() {
		close(w.started)
		<-w.release
	})
	return len(p), nil
}

func TestDropCounterWhenQueueFull(t *testing.T) {
	bw := &blockingWriter{started: make(chan struct{}), release: make(chan struct{})}
	l := NewLogger(bw)

	l.Emit(Event{Kind: KindPollAttempt})
	<-bw.started

	for i := 0; i < queueSize+10; i++ {
		l.Emit(Event{Kind: KindPollAttempt})
	}
	if l.Dropped() == 0 {
		t.Error("expected drops once the queue is full")
	}

	close(bw.release)
	l.Close()
}

func TestLevelHelpers(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)

	l.Info(KindStartup, "main", "starting")
	l.Warn(KindPollTransient, "poller", "status 503")
	l.Error(KindResolveError, "session", errors.New("no parcel"))
	l.Close()

	lines := decodeLines(t, &buf)
	want := []struct{ level, kind, comp string }{
		{"info", "sys.startup", "main"},
		{"warn", "poll.transient", "poller"},
		{"error", "resolve.error", "session"},
	}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d", len(want), len(lines))
	}
	for i, w := range want {
		if lines[i]["level"] != w.level || lines[i]["kind"] != w.kind || lines[i]["comp"] != w.comp {
			t.Errorf("line %d = %v, want %+v", i, lines[i], w)
		}
	}
	if lines[2]["err"] != "no parcel" {
		t.Errorf("err=%v", lines[2]["err"])
	}
}

func TestEmitterStampsComponent(t *testing.T) {
	ring := NewRingBuffer(8)
	l := NewNullLogger()
	l.SetRingBuffer(ring)

	em := l.Component("autocomplete")
	em.Emit(Event{Kind: KindSearchStart, Query: "742"})
	em.Emit(Event{Kind: KindSearchStart, Comp: "override"})
	em.Since(time.Now().Add(-time.Second), Event{Kind: KindSearchComplete})
	l.Close()

	evs := ring.Snapshot()
	if len(evs) != 3 {
		t.Fatalf("expected 3 events, got %d", len(evs))
	}
	if evs[0].Comp != "autocomplete" || evs[0].Level != LevelInfo {
		t.Errorf("event 0 = %+v", evs[0])
	}
	if evs[1].Comp != "override" {
		t.Errorf("explicit comp replaced: %q", evs[1].Comp)
	}
	if evs[2].Dur < time.Second {
		t.Errorf("Since recorded %v, want >= 1s", evs[2].Dur)
	}
}
