// Package session sequences one address lookup: typed or transcribed
// text, suggestion pick, parcel resolution, status polling, and the
// hand-off of a validated parcel id.
//
// Every resolution runs under a generation number. Anything that starts a
// new one (a pick, new text, Close) cancels the previous run and bumps the
// generation; results from an older generation are dropped before they
// touch state, so a late poll can never hand off a superseded parcel.
package session

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/abelbrown/parcelscout/internal/api"
	"github.com/abelbrown/parcelscout/internal/apperr"
	"github.com/abelbrown/parcelscout/internal/autocomplete"
	"github.com/abelbrown/parcelscout/internal/logging"
	"github.com/abelbrown/parcelscout/internal/otel"
	"github.com/abelbrown/parcelscout/internal/poller"
	"github.com/abelbrown/parcelscout/internal/validate"
)

// MsgNoValidProperty rejects a submit that has no resolved parcel behind it.
const MsgNoValidProperty = "Could not find a valid property for this address. Please try another address."

// Resolver maps an address to a parcel id.
type Resolver interface {
	ResolveParcel(ctx context.Context, address string) (string, error)
}

// Backend is everything a session needs from the API. *api.Client
// satisfies it.
type Backend interface {
	autocomplete.Searcher
	Resolver
	poller.StatusGetter
}

// Phase is where the current lookup stands.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseResolving
	PhasePolling
	PhaseDone
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseResolving:
		return "resolving"
	case PhasePolling:
		return "polling"
	case PhaseDone:
		return "done"
	case PhaseFailed:
		return "failed"
	}
	return "unknown"
}

// State is a snapshot of the session.
type State struct {
	Gen   uint64
	Text  string
	Phase Phase

	// Address is the display string sent for resolution and ParcelID the
	// id it resolved to. Both are empty until a resolution succeeds.
	Address  string
	ParcelID string

	Progress poller.Progress
	Err      error
}

// Processing reports whether a resolution or poll is in flight.
func (s State) Processing() bool {
	return s.Phase == PhaseResolving || s.Phase == PhasePolling
}

// ErrMessage returns the inline text for Err, or "".
func (s State) ErrMessage() string {
	return apperr.UserMessage(s.Err)
}

// Options configures an Orchestrator.
type Options struct {
	Autocomplete autocomplete.Options
	Poller       poller.Options

	// OnChange receives every new snapshot; OnHandoff receives each parcel
	// id that is ready for reporting, with the generation it belongs to.
	// Both run without locks held.
	OnChange  func(State)
	OnHandoff func(parcelID string, gen uint64)

	Events otel.Emitter
}

// Orchestrator owns the state of one lookup session. Safe for concurrent
// use; construct one per session and Close it on teardown.
type Orchestrator struct {
	backend Backend
	ac      *autocomplete.Engine
	poll    *poller.Poller
	opts    Options

	ctx  context.Context
	stop context.CancelFunc
	wg   sync.WaitGroup

	mu        sync.Mutex
	state     State
	cancelRun context.CancelFunc
	handedOff uint64
	closed    bool
}

// New creates an Orchestrator over b.
func New(b Backend, opts Options) *Orchestrator {
	ctx, stop := context.WithCancel(context.Background())
	return &Orchestrator{
		backend: b,
		ac:      autocomplete.New(b, opts.Autocomplete),
		poll:    poller.New(b, opts.Poller),
		opts:    opts,
		ctx:     ctx,
		stop:    stop,
	}
}

// State returns the current snapshot.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Suggestions returns the autocomplete snapshot.
func (o *Orchestrator) Suggestions() autocomplete.State {
	return o.ac.State()
}

// SetText handles edited input. Changed text supersedes any running
// resolution and feeds the autocomplete engine.
func (o *Orchestrator) SetText(text string) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	if text == o.state.Text {
		o.mu.Unlock()
		return
	}
	if o.state.Processing() {
		o.supersedeLocked("text changed")
		o.state.Phase = PhaseIdle
		o.state.Address = ""
		o.state.ParcelID = ""
		o.state.Progress = poller.Progress{}
	}
	o.state.Text = text
	o.state.Err = nil
	if o.state.Phase == PhaseFailed {
		o.state.Phase = PhaseIdle
	}
	snap := o.state
	o.mu.Unlock()

	o.ac.QueryChanged(text)
	o.notify(snap)
}

// SetTranscript takes speech-to-text output. The transcript is cleaned,
// any resolved parcel is forgotten, and the result is treated as typed
// text.
func (o *Orchestrator) SetTranscript(raw string) {
	o.mu.Lock()
	o.state.Address = ""
	o.state.ParcelID = ""
	o.mu.Unlock()
	o.SetText(CleanTranscript(raw))
}

// CleanTranscript strips punctuation and symbols from a transcript,
// keeping letters, digits, underscores and whitespace.
func CleanTranscript(raw string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) || r == '_' {
			return r
		}
		return -1
	}, raw)
	return strings.TrimSpace(cleaned)
}

// Select starts resolving s. The previous run, if any, is canceled first;
// selections are strictly serialized.
func (o *Orchestrator) Select(s api.AddressSuggestion) {
	display := s.Display()

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.supersedeLocked("new selection")
	o.state = State{
		Gen:      o.state.Gen,
		Text:     display,
		Phase:    PhaseResolving,
		Progress: poller.Progress{TotalSteps: api.DefaultTotalSteps},
	}
	ctx, cancel := context.WithCancel(o.ctx)
	o.cancelRun = cancel
	gen := o.state.Gen
	o.wg.Add(1)
	snap := o.state
	o.mu.Unlock()

	o.ac.Select(s)
	o.notify(snap)
	go o.run(ctx, gen, display)
}

// Submit hands off the resolved parcel when the current text still refers
// to it. Free text that was never resolved is rejected; it is never
// treated as a parcel id. Submitting while a resolution is running does
// nothing.
func (o *Orchestrator) Submit() (string, error) {
	o.mu.Lock()
	if o.closed || o.state.Processing() {
		o.mu.Unlock()
		return "", nil
	}
	text := strings.TrimSpace(o.state.Text)
	id := o.state.ParcelID
	gen := o.state.Gen
	if id != "" && (text == o.state.Address || text == id) {
		o.mu.Unlock()
		o.opts.Events.Emit(otel.Event{Kind: otel.KindHandoff, ParcelID: id, Msg: "submit"})
		o.handoff(id, gen)
		return id, nil
	}

	err := apperr.Validation(MsgNoValidProperty).WithOp("session.submit")
	o.state.Phase = PhaseFailed
	o.state.Err = err
	snap := o.state
	o.mu.Unlock()

	o.opts.Events.Emit(otel.Event{Kind: otel.KindSubmitRejected, Level: otel.LevelWarn, Query: text})
	o.notify(snap)
	return "", err
}

// OpenRecent hands off a previously resolved parcel without resolving it
// again.
func (o *Orchestrator) OpenRecent(parcelID, address string) error {
	if !validate.ParcelID(parcelID) {
		return apperr.Validation(api.MsgNoValidParcelID).WithOp("session.recent")
	}
	text := address
	if strings.TrimSpace(text) == "" {
		text = parcelID
	}

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil
	}
	o.supersedeLocked("recent parcel")
	o.state = State{
		Gen:      o.state.Gen,
		Text:     text,
		Phase:    PhaseDone,
		Address:  strings.TrimSpace(address),
		ParcelID: parcelID,
	}
	o.handedOff = o.state.Gen
	snap := o.state
	o.mu.Unlock()

	o.ac.Clear()
	o.notify(snap)
	o.opts.Events.Emit(otel.Event{Kind: otel.KindHandoff, ParcelID: parcelID, Msg: "recent"})
	o.handoff(parcelID, snap.Gen)
	return nil
}

// Close cancels all work and waits for it. No callback runs after Close
// returns.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	o.supersedeLocked("")
	o.mu.Unlock()

	o.ac.Close()
	o.stop()
	o.wg.Wait()
}

func (o *Orchestrator) supersedeLocked(reason string) {
	o.state.Gen++
	if o.cancelRun != nil {
		o.cancelRun()
		o.cancelRun = nil
		if reason != "" {
			o.opts.Events.Emit(otel.Event{Kind: otel.KindSuperseded, ParcelID: o.state.ParcelID, Msg: reason})
		}
	}
}

func (o *Orchestrator) releaseRunLocked() {
	if o.cancelRun != nil {
		o.cancelRun()
		o.cancelRun = nil
	}
}

// run resolves address and polls the result. Every state write checks gen.
func (o *Orchestrator) run(ctx context.Context, gen uint64, address string) {
	defer o.wg.Done()

	start := time.Now()
	o.opts.Events.Emit(otel.Event{Kind: otel.KindResolveStart, Query: address})

	id, err := o.backend.ResolveParcel(ctx, address)
	if err != nil {
		o.opts.Events.Since(start, otel.Event{Kind: otel.KindResolveError, Level: otel.LevelWarn, Query: address, Err: err.Error()})
		o.fail(gen, err)
		return
	}
	o.opts.Events.Since(start, otel.Event{Kind: otel.KindResolveComplete, Query: address, ParcelID: id})

	if !o.update(gen, func(s *State) {
		s.Phase = PhasePolling
		s.Address = address
		s.ParcelID = id
		s.Progress.ParcelID = id
	}) {
		return
	}

	_, err = o.poll.Poll(ctx, id, func(p poller.Progress) {
		o.update(gen, func(s *State) { s.Progress = p })
	})
	if err != nil {
		o.fail(gen, err)
		return
	}

	o.mu.Lock()
	if o.closed || gen != o.state.Gen || o.handedOff == gen {
		o.mu.Unlock()
		return
	}
	o.handedOff = gen
	o.state.Phase = PhaseDone
	o.releaseRunLocked()
	snap := o.state
	o.mu.Unlock()

	o.notify(snap)

	// OnChange may have started a new selection.
	if !o.current(gen) {
		o.opts.Events.Emit(otel.Event{Kind: otel.KindSuperseded, ParcelID: id, Msg: "superseded before hand-off"})
		return
	}
	o.opts.Events.Since(start, otel.Event{Kind: otel.KindHandoff, ParcelID: id, Query: address})
	o.handoff(id, gen)
}

func (o *Orchestrator) current(gen uint64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return !o.closed && gen == o.state.Gen
}

// update applies fn when gen is still current and reports whether it did.
func (o *Orchestrator) update(gen uint64, fn func(*State)) bool {
	o.mu.Lock()
	if o.closed || gen != o.state.Gen {
		o.mu.Unlock()
		return false
	}
	fn(&o.state)
	snap := o.state
	o.mu.Unlock()
	o.notify(snap)
	return true
}

func (o *Orchestrator) fail(gen uint64, err error) {
	if apperr.IsCanceled(err) {
		return
	}
	logging.Warn("parcel lookup failed", "gen", gen, "err", err)
	o.update(gen, func(s *State) {
		s.Phase = PhaseFailed
		s.Err = err
		s.ParcelID = ""
		s.Address = ""
		o.releaseRunLocked()
	})
}

func (o *Orchestrator) notify(s State) {
	if o.opts.OnChange != nil {
		o.opts.OnChange(s)
	}
}

func (o *Orchestrator) handoff(id string, gen uint64) {
	if o.opts.OnHandoff != nil {
		o.opts.OnHandoff(id, gen)
	}
}
