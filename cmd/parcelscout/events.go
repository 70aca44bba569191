package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// eventRecord mirrors otel.Event for JSON decoding. Decoding from JSONL
// rather than importing otel keeps this viewer usable across schema changes.
type eventRecord struct {
	Time     time.Time      `json:"t"`
	Level    string         `json:"level"`
	Kind     string         `json:"kind"`
	Comp     string         `json:"comp"`
	QueryID  string         `json:"qid"`
	DurMs    float64        `json:"dur_ms"`
	Count    int            `json:"count"`
	Query    string         `json:"query"`
	ParcelID string         `json:"parcel_id"`
	Status   string         `json:"status"`
	Attempt  int            `json:"attempt"`
	Progress float64        `json:"progress"`
	Err      string         `json:"err"`
	Msg      string         `json:"msg"`
	Extra    map[string]any `json:"extra"`
}

// eventFilter selects events for display.
type eventFilter struct {
	Kind     string // prefix, e.g. "poll"
	Level    string // minimum level
	Comp     string
	QueryID  string
	ParcelID string
}

func (f eventFilter) match(ev eventRecord) bool {
	if f.Kind != "" && !strings.HasPrefix(ev.Kind, f.Kind) {
		return false
	}
	if f.Level != "" && levelRank(ev.Level) < levelRank(f.Level) {
		return false
	}
	if f.Comp != "" && ev.Comp != f.Comp {
		return false
	}
	if f.QueryID != "" && ev.QueryID != f.QueryID {
		return false
	}
	if f.ParcelID != "" && ev.ParcelID != f.ParcelID {
		return false
	}
	return true
}

var (
	eventsFilter eventFilter
	eventsTail   int
	eventsFollow bool
	eventsJSON   bool
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show the JSONL event log",
	Args:  cobra.NoArgs,
	RunE:  runEvents,
}

func init() {
	f := eventsCmd.Flags()
	f.IntVarP(&eventsTail, "last", "n", 50, "number of recent lines to show")
	f.BoolVarP(&eventsFollow, "follow", "f", false, "follow mode (like tail -f)")
	f.StringVar(&eventsFilter.Kind, "kind", "", "filter by event kind prefix (e.g. 'poll')")
	f.StringVar(&eventsFilter.Level, "level", "", "minimum level: debug, info, warn, error")
	f.StringVar(&eventsFilter.Comp, "comp", "", "filter by component name")
	f.StringVar(&eventsFilter.QueryID, "qid", "", "filter by query ID")
	f.StringVar(&eventsFilter.ParcelID, "parcel", "", "filter by parcel ID")
	f.BoolVar(&eventsJSON, "json", false, "output raw JSON lines")
}

// levelRank returns a numeric rank for filtering (higher = more severe).
func levelRank(level string) int {
	switch level {
	case "info":
		return 1
	case "warn":
		return 2
	case "error":
		return 3
	default:
		return 0
	}
}

func runEvents(cmd *cobra.Command, _ []string) error {
	logPath := cfg.EventLogPath()
	out := cmd.OutOrStdout()

	f, err := os.Open(logPath)
	if err != nil {
		return fmt.Errorf("%w\n  Run parcelscout first to generate events", err)
	}
	defer f.Close()

	for _, l := range readTailLines(f, eventsTail, eventsFilter.match) {
		fmt.Fprintln(out, formatEvent(l.ev, l.raw, eventsJSON))
	}
	if !eventsFollow {
		return nil
	}

	// Follow mode: poll for new lines until interrupted.
	ctx := cmd.Context()
	reader := bufio.NewReader(f)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			if err != io.EOF {
				return err
			}
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(100 * time.Millisecond):
			}
			continue
		}
		line = trimLine(line)
		if len(line) == 0 {
			continue
		}
		var ev eventRecord
		if json.Unmarshal(line, &ev) != nil {
			continue
		}
		if eventsFilter.match(ev) {
			fmt.Fprintln(out, formatEvent(ev, line, eventsJSON))
		}
	}
}

func formatEvent(ev eventRecord, raw []byte, rawJSON bool) string {
	if rawJSON {
		return string(raw)
	}
	lvl := strings.ToUpper(ev.Level)
	if lvl == "" {
		lvl = "?"
	}

	parts := []string{fmt.Sprintf("%s %-5s [%-12s] %-24s", ev.Time.Format("15:04:05.000"), lvl, ev.Comp, ev.Kind)}
	if ev.Msg != "" {
		parts = append(parts, "- "+ev.Msg)
	}
	if ev.ParcelID != "" {
		parts = append(parts, "parcel="+ev.ParcelID)
	}
	if ev.Status != "" {
		parts = append(parts, "status="+ev.Status)
	}
	if ev.Attempt > 0 {
		parts = append(parts, fmt.Sprintf("attempt=%d", ev.Attempt))
	}
	if ev.Progress > 0 {
		parts = append(parts, fmt.Sprintf("%.0f%%", ev.Progress))
	}
	if ev.DurMs > 0 {
		parts = append(parts, fmt.Sprintf("(%.*fms)", durPrecision(ev.DurMs), ev.DurMs))
	}
	if ev.Count > 0 {
		parts = append(parts, fmt.Sprintf("n=%d", ev.Count))
	}
	if ev.Query != "" {
		parts = append(parts, fmt.Sprintf("q=%q", ev.Query))
	}
	if ev.Err != "" {
		parts = append(parts, "err="+ev.Err)
	}
	return strings.Join(parts, " ")
}

type parsedLine struct {
	ev  eventRecord
	raw []byte
}

// readTailLines returns the last n lines of r matching the filter.
func readTailLines(r io.Reader, n int, match func(eventRecord) bool) []parsedLine {
	scanner := bufio.NewScanner(r)
	// Allow large lines (some events may have big Extra maps)
	scanner.Buffer(make([]byte, 0, 64*1024), 256*1024)

	if n <= 0 {
		return nil
	}
	ring := make([]parsedLine, 0, n)

	for scanner.Scan() {
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var ev eventRecord
		if json.Unmarshal(raw, &ev) != nil {
			continue
		}
		if !match(ev) {
			continue
		}
		// scanner reuses its buffer
		rawCopy := make([]byte, len(raw))
		copy(rawCopy, raw)

		if len(ring) < n {
			ring = append(ring, parsedLine{ev: ev, raw: rawCopy})
		} else {
			copy(ring, ring[1:])
			ring[n-1] = parsedLine{ev: ev, raw: rawCopy}
		}
	}
	return ring
}

func trimLine(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}

func durPrecision(ms float64) int {
	if ms >= 100 {
		return 0
	}
	if ms >= 1 {
		return 1
	}
	return 2
}
