package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleLog = `{"t":"2026-10-19T10:00:00Z","level":"info","kind":"search.start","comp":"autocomplete","qid":"abc","query":"742"}
{"t":"2026-10-19T10:00:01Z","level":"info","kind":"resolve.complete","comp":"session","parcel_id":"SPR-0042","dur_ms":120.5}
not json
{"t":"2026-10-19T10:00:02Z","level":"debug","kind":"poll.attempt","comp":"poller","parcel_id":"SPR-0042","attempt":1}
{"t":"2026-10-19T10:00:03Z","level":"warn","kind":"poll.transient","comp":"poller","parcel_id":"SPR-0042","attempt":2,"err":"502"}

{"t":"2026-10-19T10:00:05Z","level":"info","kind":"poll.complete","comp":"poller","parcel_id":"SPR-0042","status":"completed","progress":100}
`

func TestReadTailLinesKeepsLastN(t *testing.T) {
	all := func(eventRecord) bool { return true }
	lines := readTailLines(strings.NewReader(sampleLog), 2, all)

	require.Len(t, lines, 2)
	assert.Equal(t, "poll.transient", lines[0].ev.Kind)
	assert.Equal(t, "poll.complete", lines[1].ev.Kind)
}

func TestReadTailLinesZero(t *testing.T) {
	assert.Empty(t, readTailLines(strings.NewReader(sampleLog), 0, func(eventRecord) bool { return true }))
}

func TestEventFilter(t *testing.T) {
	tests := []struct {
		name   string
		filter eventFilter
		want   []string
	}{
		{"kind prefix", eventFilter{Kind: "poll"}, []string{"poll.attempt", "poll.transient", "poll.complete"}},
		{"min level", eventFilter{Level: "warn"}, []string{"poll.transient"}},
		{"component", eventFilter{Comp: "session"}, []string{"resolve.complete"}},
		{"query id", eventFilter{QueryID: "abc"}, []string{"search.start"}},
		{"parcel and kind", eventFilter{ParcelID: "SPR-0042", Kind: "resolve"}, []string{"resolve.complete"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, l := range readTailLines(strings.NewReader(sampleLog), 50, tt.filter.match) {
				got = append(got, l.ev.Kind)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatEvent(t *testing.T) {
	lines := readTailLines(strings.NewReader(sampleLog), 50, func(eventRecord) bool { return true })
	require.Len(t, lines, 5)

	resolve := formatEvent(lines[1].ev, lines[1].raw, false)
	assert.Contains(t, resolve, "INFO")
	assert.Contains(t, resolve, "resolve.complete")
	assert.Contains(t, resolve, "parcel=SPR-0042")
	assert.Contains(t, resolve, "(120ms)")

	transient := formatEvent(lines[3].ev, lines[3].raw, false)
	assert.Contains(t, transient, "attempt=2")
	assert.Contains(t, transient, "err=502")

	done := formatEvent(lines[4].ev, lines[4].raw, false)
	assert.Contains(t, done, "status=completed")
	assert.Contains(t, done, "100%")

	assert.Equal(t, string(lines[0].raw), formatEvent(lines[0].ev, lines[0].raw, true))
}

func TestDurPrecision(t *testing.T) {
	assert.Equal(t, 0, durPrecision(150))
	assert.Equal(t, 1, durPrecision(12.3))
	assert.Equal(t, 2, durPrecision(0.5))
}
