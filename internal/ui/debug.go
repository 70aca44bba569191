package ui

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/abelbrown/parcelscout/internal/otel"
)

// debugPanelChrome is the number of lines DebugPanel's border and vertical
// padding take. Keep in sync with the DebugPanel style.
const debugPanelChrome = 4

// debugOverlay renders workflow counters and recent events. Returns "" if
// ring is nil.
func debugOverlay(ring *otel.RingBuffer, width, height int) string {
	if ring == nil {
		return ""
	}

	stats := ring.Stats()
	recent := ring.Last(20)

	var lines []string
	lines = append(lines, DebugHeaderStyle.Render("Workflow Stats"))
	lines = append(lines, fmt.Sprintf("  Searches:   %d started, %d complete, %d cancelled, %d errors",
		stats[otel.KindSearchStart], stats[otel.KindSearchComplete], stats[otel.KindSearchCancel], stats[otel.KindSearchError]))
	lines = append(lines, fmt.Sprintf("  Resolves:   %d started, %d complete, %d errors",
		stats[otel.KindResolveStart], stats[otel.KindResolveComplete], stats[otel.KindResolveError]))
	lines = append(lines, fmt.Sprintf("  Polls:      %d attempts, %d retried, %d timeouts",
		stats[otel.KindPollAttempt], stats[otel.KindPollTransient], stats[otel.KindPollTimeout]))
	lines = append(lines, fmt.Sprintf("  Hand-offs:  %d, %d superseded, %d rejected",
		stats[otel.KindHandoff], stats[otel.KindSuperseded], stats[otel.KindSubmitRejected]))
	lines = append(lines, fmt.Sprintf("  Buffer:     %d / %d events", ring.Len(), ring.Cap()))
	lines = append(lines, "")

	lines = append(lines, DebugHeaderStyle.Render("Recent Events"))
	for _, e := range recent {
		line := fmt.Sprintf("  %6s  %-24s", formatAge(time.Since(e.Time)), string(e.Kind))
		if e.ParcelID != "" {
			line += "  " + e.ParcelID
		}
		if e.Msg != "" {
			line += "  " + truncateRunes(e.Msg, 40)
		}
		if e.Err != "" {
			line += "  ERR:" + truncateRunes(e.Err, 30)
		}
		if e.QueryID != "" {
			qid := e.QueryID
			if len(qid) > 8 {
				qid = qid[:8]
			}
			line += "  qid:" + qid
		}
		lines = append(lines, line)
	}

	maxHeight := max(height-debugPanelChrome, 1)
	if len(lines) > maxHeight {
		lines = lines[:maxHeight]
	}

	panelWidth := max(min(76, width-4), 20)
	return DebugPanel.Width(panelWidth).Render(strings.Join(lines, "\n"))
}

// formatAge formats a duration compactly. Negative durations (clock skew)
// clamp to "0ms".
func formatAge(d time.Duration) string {
	if d < 0 {
		return "0ms"
	}
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return fmt.Sprintf("%.0fm", d.Minutes())
	}
}

// truncateRunes cuts s to n runes, marking the cut with an ellipsis.
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}

// debugStatusBar renders the status bar while the overlay is open.
func debugStatusBar(width int) string {
	keys := StatusBarKey.Render("ctrl+d") + StatusBarText.Render(":close")
	return StatusBar.Width(width).Render("  [DEBUG]  " + keys)
}
