// Package otel records structured workflow events for parcelscout.
//
// Each Event is written as one JSONL line by a Logger that buffers through a
// channel and a single drain goroutine. A RingBuffer attached to the Logger
// keeps recent events in memory for the TUI debug overlay.
package otel

import (
	"encoding/json"
	"time"
)

// Level defines event severity for filtering.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// EventKind identifies the category of an event.
// Dot-delimited: "<subsystem>.<action>".
type EventKind string

const (
	// Autocomplete
	KindSearchStart    EventKind = "search.start"
	KindSearchComplete EventKind = "search.complete"
	KindSearchError    EventKind = "search.error"
	KindSearchCancel   EventKind = "search.cancel"

	// Parcel resolution
	KindResolveStart    EventKind = "resolve.start"
	KindResolveComplete EventKind = "resolve.complete"
	KindResolveError    EventKind = "resolve.error"

	// Status polling
	KindPollAttempt   EventKind = "poll.attempt"
	KindPollProgress  EventKind = "poll.progress"
	KindPollTransient EventKind = "poll.transient"
	KindPollComplete  EventKind = "poll.complete"
	KindPollFailed    EventKind = "poll.failed"
	KindPollTimeout   EventKind = "poll.timeout"

	// Orchestration
	KindHandoff        EventKind = "session.handoff"
	KindSuperseded     EventKind = "session.superseded"
	KindSubmitRejected EventKind = "session.submit_rejected"

	// Report loading
	KindReportLoad  EventKind = "report.load"
	KindReportError EventKind = "report.error"

	// Store
	KindStoreError EventKind = "store.error"

	// UI
	KindKeyPress EventKind = "ui.key"

	// System
	KindStartup  EventKind = "sys.startup"
	KindShutdown EventKind = "sys.shutdown"
	KindError    EventKind = "sys.error"

	// Trace (PARCELSCOUT_TRACE)
	KindMsgReceived EventKind = "trace.msg_received"
)

// Event is the universal record. Only Kind is required; Time and SessionID
// are filled in by the Logger.
type Event struct {
	Time      time.Time      `json:"t"`
	Level     Level          `json:"level,omitempty"`
	Kind      EventKind      `json:"kind"`
	Comp      string         `json:"comp,omitempty"` // "autocomplete", "poller", "session", "ui", "main"
	SessionID string         `json:"session_id,omitempty"`
	QueryID   string         `json:"qid,omitempty"` // correlates one search or one resolution
	Dur       time.Duration  `json:"-"`
	DurMs     float64        `json:"dur_ms,omitempty"`
	Count     int            `json:"count,omitempty"`
	Query     string         `json:"query,omitempty"`
	ParcelID  string         `json:"parcel_id,omitempty"`
	Status    string         `json:"status,omitempty"`
	Attempt   int            `json:"attempt,omitempty"`
	Progress  float64        `json:"progress,omitempty"`
	Err       string         `json:"err,omitempty"`
	Msg       string         `json:"msg,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// MarshalJSON converts Dur to DurMs.
func (e Event) MarshalJSON() ([]byte, error) {
	type alias Event
	a := alias(e)
	if e.Dur > 0 {
		a.DurMs = float64(e.Dur) / float64(time.Millisecond)
	}
	return json.Marshal(a)
}

// UnmarshalJSON restores Dur from DurMs so events read back from disk
// compare equal to the ones emitted.
func (e *Event) UnmarshalJSON(data []byte) error {
	type alias Event
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*e = Event(a)
	if e.DurMs > 0 {
		e.Dur = time.Duration(e.DurMs * float64(time.Millisecond))
	}
	return nil
}
