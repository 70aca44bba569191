package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/parcelscout/internal/api"
	"github.com/abelbrown/parcelscout/internal/autocomplete"
	"github.com/abelbrown/parcelscout/internal/otel"
	"github.com/abelbrown/parcelscout/internal/report"
	"github.com/abelbrown/parcelscout/internal/session"
	"github.com/abelbrown/parcelscout/internal/store"
)

// BlurGrace is how long the suggestion list stays open after the input
// loses focus, so a click on a row lands before the list closes.
const BlurGrace = 200 * time.Millisecond

// listTop is the screen row of the first suggestion: title, then input.
const listTop = 2

// DefaultRecentLimit is how many recent parcels are listed.
const DefaultRecentLimit = 5

// ObsConfig wires observability into the App.
type ObsConfig struct {
	Ring   *otel.RingBuffer
	Events otel.Emitter
}

// AppConfig holds the App's collaborators. The App never holds the
// session, client or store itself: it calls these and gets results back
// as messages. Nil funcs are skipped.
type AppConfig struct {
	Title       string
	Placeholder string
	RecentLimit int

	SetText    func(text string)
	Select     func(s api.AddressSuggestion)
	Submit     func() (string, error)
	OpenRecent func(parcelID, address string) error

	LoadReport   func(parcelID string) tea.Cmd
	LoadRecent   func() tea.Cmd
	RecordParcel func(parcelID, display, query string) tea.Cmd

	Obs ObsConfig
}

// App is the root Bubble Tea model.
type App struct {
	cfg AppConfig

	input   textinput.Model
	spinner spinner.Model
	bar     progress.Model

	ac       autocomplete.State
	sess     session.State
	listOpen bool
	nav      listNav
	focused  bool
	blurGen  int

	// query is the text typed before the last pick; saved with the parcel.
	query string

	recent    []store.Parcel
	recentNav listNav

	reportFor     string
	report        *report.Report
	reportErr     error
	reportLoading bool

	debugVisible bool
	width        int
	height       int
	ready        bool
}

// NewAppWithConfig creates an App.
func NewAppWithConfig(cfg AppConfig) App {
	if cfg.Title == "" {
		cfg.Title = "parcelscout"
	}
	if cfg.Placeholder == "" {
		cfg.Placeholder = "Enter the property address you'd like to analyze..."
	}
	if cfg.RecentLimit <= 0 {
		cfg.RecentLimit = DefaultRecentLimit
	}

	ti := textinput.New()
	ti.Placeholder = cfg.Placeholder
	ti.Prompt = "› "
	ti.CharLimit = 200
	ti.Focus()

	s := spinner.New()
	s.Spinner = spinner.Dot

	return App{
		cfg:       cfg,
		input:     ti,
		spinner:   s,
		bar:       progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		nav:       newListNav(),
		recentNav: newListNav(),
		focused:   true,
	}
}

// Init starts the cursor blink and spinner and loads recent parcels.
func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, a.spinner.Tick}
	if a.cfg.LoadRecent != nil {
		cmds = append(cmds, a.cfg.LoadRecent())
	}
	return tea.Batch(cmds...)
}

// Update handles messages and returns the updated model and any commands.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if otel.TraceEnabled() {
		if _, tick := msg.(spinner.TickMsg); !tick {
			a.cfg.Obs.Events.Emit(otel.Event{Kind: otel.KindMsgReceived, Level: otel.LevelDebug, Msg: fmt.Sprintf("%T", msg)})
		}
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		a.input.Width = max(msg.Width-8, 10)
		a.bar.Width = max(min(msg.Width-10, 60), 10)
		return a, nil

	case tea.FocusMsg:
		a.focused = true
		a.blurGen++
		return a, a.input.Focus()

	case tea.BlurMsg:
		a.focused = false
		a.blurGen++
		gen := a.blurGen
		return a, tea.Tick(BlurGrace, func(time.Time) tea.Msg { return blurExpired{gen: gen} })

	case blurExpired:
		if msg.gen == a.blurGen && !a.focused {
			a.closeList()
		}
		return a, nil

	case tea.MouseMsg:
		return a.handleMouse(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case SuggestionsChanged:
		a.applySuggestions(msg.State)
		return a, nil

	case SessionChanged:
		if msg.State.Gen < a.sess.Gen {
			return a, nil
		}
		a.sess = msg.State
		return a, nil

	case HandedOff:
		if msg.Gen < a.sess.Gen {
			return a, nil
		}
		return a, a.startReport(msg.ParcelID)

	case ReportLoaded:
		if msg.ParcelID != a.reportFor {
			return a, nil
		}
		a.reportLoading = false
		a.reportErr = msg.Err
		if msg.Err == nil {
			r := msg.Report
			a.report = &r
		}
		return a, nil

	case RecentLoaded:
		if msg.Err == nil {
			a.recent = msg.Parcels
			if len(a.recent) > a.cfg.RecentLimit {
				a.recent = a.recent[:a.cfg.RecentLimit]
			}
			a.recentNav.Reset(len(a.recent))
		}
		return a, nil

	case ParcelRecorded:
		if msg.Err == nil && a.cfg.LoadRecent != nil {
			return a, a.cfg.LoadRecent()
		}
		return a, nil
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

// applySuggestions installs an autocomplete snapshot unless it is stale.
// A fresh result set reopens the list with nothing highlighted.
func (a *App) applySuggestions(st autocomplete.State) {
	if st.Gen < a.ac.Gen {
		return
	}
	fresh := st.Gen != a.ac.Gen || (a.ac.Loading && !st.Loading)
	a.ac = st
	if fresh {
		a.nav.Reset(len(st.Suggestions))
		a.listOpen = len(st.Suggestions) > 0
	}
}

func (a *App) closeList() {
	a.listOpen = false
	a.nav.Clear()
}

// handleKeyMsg processes keyboard input.
func (a App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "ctrl+c":
		return a, tea.Quit

	case "ctrl+d":
		a.debugVisible = !a.debugVisible
		return a, nil
	}

	if a.debugVisible {
		if key == "esc" {
			a.debugVisible = false
		}
		return a, nil
	}

	switch key {
	case "down":
		a.emitKey(key)
		if a.listOpen {
			a.nav.Down()
		}
		return a, nil

	case "up":
		a.emitKey(key)
		if a.listOpen {
			a.nav.Up()
		}
		return a, nil

	case "enter":
		a.emitKey(key)
		if i, ok := a.nav.Selected(); a.listOpen && ok {
			return a.selectSuggestion(i)
		}
		if i, ok := a.recentNav.Selected(); ok {
			return a.openRecent(i)
		}
		if a.cfg.Submit != nil {
			a.cfg.Submit()
		}
		return a, nil

	case "esc":
		a.emitKey(key)
		if a.listOpen {
			a.closeList()
		} else {
			a.recentNav.Clear()
		}
		return a, nil

	case "ctrl+r":
		a.emitKey(key)
		if len(a.recent) > 0 {
			a.closeList()
			a.recentNav.Down()
		}
		return a, nil
	}

	before := a.input.Value()
	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	if v := a.input.Value(); v != before {
		a.query = v
		a.recentNav.Clear()
		if a.cfg.SetText != nil {
			a.cfg.SetText(v)
		}
	}
	return a, cmd
}

// handleMouse selects a suggestion on a left click. Any press also
// cancels a pending blur close.
func (a App) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return a, nil
	}
	a.blurGen++
	row := msg.Y - listTop
	if a.listOpen && row >= 0 && row < len(a.ac.Suggestions) {
		return a.selectSuggestion(row)
	}
	return a, nil
}

func (a App) selectSuggestion(i int) (tea.Model, tea.Cmd) {
	if i < 0 || i >= len(a.ac.Suggestions) {
		return a, nil
	}
	s := a.ac.Suggestions[i]
	a.input.SetValue(s.Display())
	a.input.CursorEnd()
	a.closeList()
	a.nav.Reset(0)
	a.clearReport()
	if a.cfg.Select != nil {
		a.cfg.Select(s)
	}
	return a, nil
}

func (a App) openRecent(i int) (tea.Model, tea.Cmd) {
	if i < 0 || i >= len(a.recent) {
		return a, nil
	}
	p := a.recent[i]
	a.input.SetValue(p.Label())
	a.input.CursorEnd()
	a.query = p.Query
	a.recentNav.Clear()
	a.clearReport()
	if a.cfg.OpenRecent != nil {
		if err := a.cfg.OpenRecent(p.ParcelID, p.Display); err != nil {
			a.reportErr = err
		}
	}
	return a, nil
}

func (a *App) clearReport() {
	a.reportFor = ""
	a.report = nil
	a.reportErr = nil
	a.reportLoading = false
}

// startReport records the parcel and loads its report.
func (a *App) startReport(parcelID string) tea.Cmd {
	a.reportFor = parcelID
	a.report = nil
	a.reportErr = nil

	var cmds []tea.Cmd
	if a.cfg.RecordParcel != nil {
		display := a.sess.Address
		if display == "" {
			display = a.input.Value()
		}
		cmds = append(cmds, a.cfg.RecordParcel(parcelID, display, a.query))
	}
	if a.cfg.LoadReport != nil {
		a.reportLoading = true
		cmds = append(cmds, a.cfg.LoadReport(parcelID))
	}
	return tea.Batch(cmds...)
}

func (a App) emitKey(key string) {
	a.cfg.Obs.Events.Emit(otel.Event{Kind: otel.KindKeyPress, Level: otel.LevelDebug, Msg: key})
}

// Value returns the input text (for testing).
func (a App) Value() string { return a.input.Value() }

// ListOpen reports whether the suggestion list is shown (for testing).
func (a App) ListOpen() bool { return a.listOpen }

// Highlighted returns the highlighted suggestion index, or -1.
func (a App) Highlighted() int {
	if i, ok := a.nav.Selected(); ok {
		return i
	}
	return -1
}
