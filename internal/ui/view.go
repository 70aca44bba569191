package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/abelbrown/parcelscout/internal/apperr"
	"github.com/abelbrown/parcelscout/internal/poller"
	"github.com/abelbrown/parcelscout/internal/report"
	"github.com/abelbrown/parcelscout/internal/session"
)

var printer = message.NewPrinter(language.English)

// View renders the UI.
func (a App) View() string {
	if !a.ready {
		return "Loading..."
	}
	if a.debugVisible {
		return debugOverlay(a.cfg.Obs.Ring, a.width, a.height-1) + "\n" + debugStatusBar(a.width)
	}

	var lines []string
	lines = append(lines, TitleStyle.Render(a.cfg.Title))
	lines = append(lines, InputStyle.Render(a.input.View()))

	if a.listOpen {
		lines = append(lines, a.renderSuggestions()...)
	}
	if a.ac.Loading {
		lines = append(lines, MutedStyle.Render(a.spinner.View()+" Searching addresses..."))
	}
	if msg := a.ac.ErrMessage(); msg != "" && !a.listOpen {
		lines = append(lines, ErrorStyle.Render(msg))
	}

	if block := a.renderSession(); block != "" {
		lines = append(lines, block)
	}
	if block := a.renderReport(); block != "" {
		lines = append(lines, block)
	}
	if !a.listOpen && !a.sess.Processing() && a.report == nil && !a.reportLoading && len(a.recent) > 0 {
		lines = append(lines, a.renderRecent()...)
	}

	content := strings.Join(lines, "\n")
	used := lipgloss.Height(content)
	if pad := a.height - 1 - used; pad > 0 {
		content += strings.Repeat("\n", pad)
	}
	return content + "\n" + a.renderStatusBar()
}

func (a App) renderSuggestions() []string {
	sel, _ := a.nav.Selected()
	width := max(a.width-4, 20)
	out := make([]string, 0, len(a.ac.Suggestions))
	for i, s := range a.ac.Suggestions {
		text := s.Display()
		if loc := s.Locality(); loc != "" && !strings.Contains(text, loc) {
			text += "  " + LocalityStyle.Render(loc)
		}
		text = truncateRunes(text, width)
		if i == sel {
			out = append(out, SelectedItem.Render(text))
		} else {
			out = append(out, NormalItem.Render(text))
		}
	}
	return out
}

func (a App) renderSession() string {
	st := a.sess
	switch st.Phase {
	case session.PhaseResolving:
		return MutedStyle.Render(a.spinner.View() + " Finding parcel for " + st.Text + "...")

	case session.PhasePolling:
		return ProgressPanel.Render(a.renderProgress(st.Progress))

	case session.PhaseFailed:
		if msg := st.ErrMessage(); msg != "" {
			return ErrorStyle.Render(msg)
		}

	case session.PhaseDone:
		return SuccessStyle.Render("✓ Parcel " + st.ParcelID + " ready")
	}
	return ""
}

// renderProgress draws the polling panel: percent, bar, step and counter.
func (a App) renderProgress(p poller.Progress) string {
	header := fmt.Sprintf("Processing Property Data  %3.0f%%", p.Percent)
	lines := []string{
		header,
		a.bar.ViewAs(p.Percent / 100),
		fmt.Sprintf("%-40s %s", p.StepLabel(), p.Counter()),
	}
	if note := p.Note(); note != "" {
		lines = append(lines, LocalityStyle.Render(note))
	}
	if p.Transient {
		lines = append(lines, WarnStyle.Render(fmt.Sprintf("Connection problem, retrying (attempt %d/%d)", p.Attempt, p.MaxAttempts)))
	}
	return strings.Join(lines, "\n")
}

func (a App) renderReport() string {
	if a.reportLoading {
		return MutedStyle.Render(a.spinner.View() + " Loading report for " + a.reportFor + "...")
	}
	if a.reportErr != nil {
		return ErrorStyle.Render(apperr.UserMessage(a.reportErr))
	}
	if a.report == nil {
		return ""
	}
	return ReportCard.Render(RenderReport(*a.report))
}

// RenderReport formats a report summary as plain lines.
func RenderReport(r report.Report) string {
	lines := []string{SectionHeader.UnsetMarginTop().Render("Parcel " + r.ParcelID)}

	if v := r.Valuation; v != nil {
		lines = append(lines,
			"Market value     "+money(r.MarketValue()),
			fmt.Sprintf("Value range      %s - %s (%s comps)", money(float64(v.RangeLow)), money(float64(v.RangeHigh)), printer.Sprintf("%.0f", float64(v.NumComps))),
		)
		if v.MedianPricePerSqft > 0 {
			lines = append(lines, "Median $/sqft    "+money(float64(v.MedianPricePerSqft)))
		}
	} else if r.ValuationErr != nil {
		lines = append(lines, "Valuation unavailable: "+apperr.UserMessage(r.ValuationErr))
	}

	if roi := r.ROI; roi != nil {
		pct := r.ROIPercent()
		lines = append(lines,
			fmt.Sprintf("ROI potential    %.2f%% (%s)", pct, report.Rating(pct)),
			"Est. monthly     "+money(r.MonthlyIncome()),
		)
		if roi.MarketPosition != "" {
			lines = append(lines, "Market position  "+roi.MarketPosition)
		}
		if roi.RiskCategory != "" {
			lines = append(lines, "Risk             "+roi.RiskCategory)
		}
	} else if r.ROIErr != nil {
		lines = append(lines, "ROI unavailable: "+apperr.UserMessage(r.ROIErr))
	}

	if z, ok := r.FloodZone(); ok {
		zone := z.Zone
		if z.SpecialHazard() {
			zone += " (special flood hazard area)"
		}
		lines = append(lines, "Flood zone       "+zone)
	} else if r.FloodErr != nil {
		lines = append(lines, "Flood risk unavailable: "+apperr.UserMessage(r.FloodErr))
	} else if r.Flood != nil {
		lines = append(lines, "Flood zone       none mapped")
	}

	for _, h := range r.Hazards() {
		line := fmt.Sprintf("%-17s%.0f", h.Name, h.Score)
		if h.Rating != "" {
			line += " (" + h.Rating + ")"
		}
		lines = append(lines, line)
	}
	if r.DisasterErr != nil {
		lines = append(lines, "Disaster risk unavailable: "+apperr.UserMessage(r.DisasterErr))
	}
	return strings.Join(lines, "\n")
}

func money(v float64) string {
	return printer.Sprintf("$%.0f", v)
}

func (a App) renderRecent() []string {
	sel, _ := a.recentNav.Selected()
	out := []string{SectionHeader.Render("Recent")}
	for i, p := range a.recent {
		text := truncateRunes(p.Label(), max(a.width-20, 20)) + "  " + LocalityStyle.Render(p.ParcelID)
		if i == sel {
			out = append(out, SelectedItem.Render(text))
		} else {
			out = append(out, NormalItem.Render(text))
		}
	}
	return out
}

func (a App) renderStatusBar() string {
	var left string
	switch {
	case a.sess.Processing():
		left = " " + a.sess.Phase.String() + " "
	case a.reportFor != "":
		left = " " + a.reportFor + " "
	default:
		left = fmt.Sprintf(" %d suggestions ", len(a.ac.Suggestions))
	}

	keys := []string{
		StatusBarKey.Render("↑/↓") + StatusBarText.Render(":nav"),
		StatusBarKey.Render("Enter") + StatusBarText.Render(":select"),
		StatusBarKey.Render("Esc") + StatusBarText.Render(":close"),
	}
	if len(a.recent) > 0 {
		keys = append(keys, StatusBarKey.Render("ctrl+r")+StatusBarText.Render(":recent"))
	}
	keys = append(keys,
		StatusBarKey.Render("ctrl+d")+StatusBarText.Render(":debug"),
		StatusBarKey.Render("ctrl+c")+StatusBarText.Render(":quit"),
	)
	hints := strings.Join(keys, " ")

	pad := max(a.width-lipgloss.Width(left)-lipgloss.Width(hints)-2, 0)
	return StatusBar.Width(a.width).Render(left + strings.Repeat(" ", pad) + hints)
}
