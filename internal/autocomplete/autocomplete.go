// Package autocomplete owns the suggestion list for a free-text address
// field: min-length gating, debounced lookups, result capping and
// last-response-wins ordering.
package autocomplete

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/abelbrown/parcelscout/internal/api"
	"github.com/abelbrown/parcelscout/internal/apperr"
	"github.com/abelbrown/parcelscout/internal/debounce"
	"github.com/abelbrown/parcelscout/internal/logging"
	"github.com/abelbrown/parcelscout/internal/otel"
)

// Defaults used when Options leaves a field zero.
const (
	DefaultMinLength  = 2
	DefaultMaxResults = 8
	DefaultDebounce   = 300 * time.Millisecond
)

// Searcher looks up address candidates. *api.Client satisfies it.
type Searcher interface {
	SearchAddresses(ctx context.Context, query string) ([]api.AddressSuggestion, error)
}

// State is an immutable snapshot of the machine.
type State struct {
	Gen         uint64 // increases on every input; consumers drop snapshots older than the last seen
	Query       string
	Suggestions []api.AddressSuggestion
	Loading     bool
	Err         error
}

// ErrMessage returns the inline text for Err, or "".
func (s State) ErrMessage() string {
	return apperr.UserMessage(s.Err)
}

// Options configures an Engine.
type Options struct {
	MinLength  int
	MaxResults int
	Debounce   time.Duration // a negative value disables the delay
	// OnChange receives every new snapshot. Called without internal locks
	// held, possibly from a timer goroutine.
	OnChange func(State)
	Events   otel.Emitter
}

// Engine is the autocomplete state machine. Safe for concurrent use.
type Engine struct {
	searcher Searcher
	opts     Options
	deb      *debounce.Debouncer

	ctx      context.Context
	stop     context.CancelFunc
	wg       sync.WaitGroup
	mu       sync.Mutex
	state    State
	inflight context.CancelFunc
	closed   bool
}

// New creates an Engine.
func New(s Searcher, opts Options) *Engine {
	if opts.MinLength <= 0 {
		opts.MinLength = DefaultMinLength
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = DefaultMaxResults
	}
	switch {
	case opts.Debounce == 0:
		opts.Debounce = DefaultDebounce
	case opts.Debounce < 0:
		opts.Debounce = 0
	}

	ctx, stop := context.WithCancel(context.Background())
	return &Engine{
		searcher: s,
		opts:     opts,
		deb:      debounce.New(opts.Debounce),
		ctx:      ctx,
		stop:     stop,
	}
}

// State returns the current snapshot.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// QueryChanged handles new text in the field. Queries shorter than
// MinLength (after trimming) clear the list without a lookup; anything
// longer schedules a debounced search that supersedes every earlier one.
func (e *Engine) QueryChanged(query string) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.supersedeLocked()
	e.state.Query = query

	if utf8.RuneCountInString(strings.TrimSpace(query)) < e.opts.MinLength {
		e.state.Suggestions = nil
		e.state.Loading = false
		e.state.Err = nil
		snap := e.state
		e.mu.Unlock()
		e.notify(snap)
		return
	}

	gen := e.state.Gen
	e.mu.Unlock()
	e.deb.Call(func() { e.search(gen, query) })
}

// Select records that the user picked s. The list and transient state are
// cleared; resolution is the caller's job.
func (e *Engine) Select(s api.AddressSuggestion) {
	e.reset(s.Display())
}

// Clear empties the field state.
func (e *Engine) Clear() {
	e.reset("")
}

func (e *Engine) reset(query string) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.supersedeLocked()
	e.state = State{Gen: e.state.Gen, Query: query}
	snap := e.state
	e.mu.Unlock()
	e.notify(snap)
}

// Close cancels pending and in-flight lookups and waits for them to
// return. No OnChange call happens after Close returns.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.supersedeLocked()
	e.mu.Unlock()

	e.stop()
	e.wg.Wait()
}

// supersedeLocked bumps the generation and cancels pending work.
func (e *Engine) supersedeLocked() {
	e.state.Gen++
	e.deb.Cancel()
	if e.inflight != nil {
		e.inflight()
		e.inflight = nil
	}
}

func (e *Engine) search(gen uint64, query string) {
	e.mu.Lock()
	if e.closed || gen != e.state.Gen {
		e.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(e.ctx)
	e.inflight = cancel
	e.state.Loading = true
	e.state.Err = nil
	e.wg.Add(1)
	snap := e.state
	e.mu.Unlock()
	defer e.wg.Done()
	defer cancel()

	e.notify(snap)

	qid := uuid.NewString()
	start := time.Now()
	e.opts.Events.Emit(otel.Event{Kind: otel.KindSearchStart, QueryID: qid, Query: query})

	results, err := e.searcher.SearchAddresses(ctx, query)

	e.mu.Lock()
	if e.closed || gen != e.state.Gen {
		e.mu.Unlock()
		e.opts.Events.Emit(otel.Event{Kind: otel.KindSearchCancel, QueryID: qid, Query: query})
		return
	}
	e.inflight = nil
	e.state.Loading = false
	if err != nil {
		e.state.Suggestions = nil
		e.state.Err = err
	} else {
		e.state.Suggestions = capResults(results, e.opts.MaxResults)
		e.state.Err = nil
	}
	snap = e.state
	e.mu.Unlock()

	if err != nil {
		logging.Warn("address search failed", "query", query, "err", err)
		e.opts.Events.Since(start, otel.Event{Kind: otel.KindSearchError, Level: otel.LevelWarn, QueryID: qid, Query: query, Err: err.Error()})
	} else {
		e.opts.Events.Since(start, otel.Event{Kind: otel.KindSearchComplete, QueryID: qid, Query: query, Count: len(snap.Suggestions)})
	}
	e.notify(snap)
}

func (e *Engine) notify(s State) {
	if e.opts.OnChange != nil {
		e.opts.OnChange(s)
	}
}

// capResults returns at most n results in their original order, copied so
// the caller's slice is never aliased.
func capResults(in []api.AddressSuggestion, n int) []api.AddressSuggestion {
	if len(in) == 0 {
		return nil
	}
	if len(in) > n {
		in = in[:n]
	}
	out := make([]api.AddressSuggestion, len(in))
	copy(out, in)
	return out
}
