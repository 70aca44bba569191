package otel

import (
	"os"
	"sync/atomic"
)

// TraceEnv enables per-message tracing in the TUI when set to any value.
const TraceEnv = "PARCELSCOUT_TRACE"

var traceEnabled atomic.Bool

func init() {
	traceEnabled.Store(os.Getenv(TraceEnv) != "")
}

// TraceEnabled reports whether message tracing is on.
func TraceEnabled() bool {
	return traceEnabled.Load()
}

// SetTraceEnabled overrides the env-derived setting (used by --trace).
func SetTraceEnabled(v bool) {
	traceEnabled.Store(v)
}
