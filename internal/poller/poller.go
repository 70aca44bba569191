// Package poller drives the parcel processing-status loop: a fixed budget
// of sequential attempts, transient failures retried, terminal statuses
// mapped onto apperr kinds.
package poller

import (
	"context"
	"time"

	"github.com/abelbrown/parcelscout/internal/api"
	"github.com/abelbrown/parcelscout/internal/apperr"
	"github.com/abelbrown/parcelscout/internal/logging"
	"github.com/abelbrown/parcelscout/internal/otel"
	"github.com/abelbrown/parcelscout/internal/validate"
)

// Poll budget. Not user-configurable; Options exists for tests.
const (
	DefaultMaxAttempts = 60
	DefaultInterval    = 2 * time.Second
	DefaultGrace       = time.Second
)

// User-facing outcome messages.
const (
	MsgFailed   = "Property data processing failed. Please try again or contact support."
	MsgNotFound = "No property data found for this address. Please check the address and try again."
	MsgTimeout  = "Property data processing is taking too long. Please try again later or contact support."
)

// StatusGetter fetches one status. *api.Client satisfies it.
type StatusGetter interface {
	ParcelStatus(ctx context.Context, parcelID string) (api.ProcessingStatus, error)
}

// Progress is the observable state after an attempt. Fields absent from a
// response keep their previous value.
type Progress struct {
	ParcelID    string
	Attempt     int
	MaxAttempts int
	Status      api.Status
	Percent     float64
	CurrentStep string
	TotalSteps  int
	Message     string

	// Transient is set when the attempt failed without a status; Err holds
	// the cause and the other fields are unchanged.
	Transient bool
	Err       error
}

// StepLabel is the friendly name of the current backend step.
func (p Progress) StepLabel() string { return StepMessage(p.CurrentStep) }

// Counter renders "done / total" steps.
func (p Progress) Counter() string { return StepCounter(p.Percent, p.TotalSteps) }

// Note is the backend message when it is meant for the user.
func (p Progress) Note() string { return VisibleMessage(p.Message) }

// SleepFunc waits d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Options tunes a Poller. Zero values take the defaults.
type Options struct {
	MaxAttempts int
	Interval    time.Duration
	Grace       time.Duration
	Sleep       SleepFunc
	Events      otel.Emitter
}

// Poller runs status loops. A single Poller may serve many sequential or
// concurrent Poll calls; it holds no per-call state.
type Poller struct {
	getter StatusGetter
	opts   Options
}

// New creates a Poller.
func New(g StatusGetter, opts Options) *Poller {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Grace < 0 {
		opts.Grace = 0
	} else if opts.Grace == 0 {
		opts.Grace = DefaultGrace
	}
	if opts.Sleep == nil {
		opts.Sleep = Sleep
	}
	return &Poller{getter: g, opts: opts}
}

// Sleep is the default SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Poll queries parcelID until the backend reports a terminal status or the
// attempt budget runs out. onProgress, if non-nil, is called synchronously
// after every attempt.
//
// On completion Poll waits the grace delay and returns parcelID. Errors are
// apperr values: Terminal for failed and not_found, BudgetExhausted for the
// timeout, Canceled when ctx ends first.
func (p *Poller) Poll(ctx context.Context, parcelID string, onProgress func(Progress)) (string, error) {
	if !validate.ParcelID(parcelID) {
		return "", apperr.Validation(api.MsgParcelIDRequired).WithOp("poller.poll")
	}
	emit := func(e otel.Event) {
		e.ParcelID = parcelID
		p.opts.Events.Emit(e)
	}
	report := func(pr Progress) {
		if onProgress != nil {
			onProgress(pr)
		}
	}

	start := time.Now()
	cur := Progress{
		ParcelID:    parcelID,
		MaxAttempts: p.opts.MaxAttempts,
		Status:      api.StatusRunning,
		TotalSteps:  api.DefaultTotalSteps,
	}

	for attempt := 1; attempt <= p.opts.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", apperr.Canceled(err)
		}
		cur.Attempt = attempt
		emit(otel.Event{Kind: otel.KindPollAttempt, Attempt: attempt})

		st, err := p.getter.ParcelStatus(ctx, parcelID)
		switch {
		case err != nil && (apperr.IsCanceled(err) || ctx.Err() != nil):
			return "", apperr.Canceled(err)

		case err != nil:
			logging.Debug("status poll failed, retrying", "parcel", parcelID, "attempt", attempt, "err", err)
			emit(otel.Event{Kind: otel.KindPollTransient, Level: otel.LevelWarn, Attempt: attempt, Err: err.Error()})
			tr := cur
			tr.Transient = true
			tr.Err = err
			report(tr)

		default:
			cur = merge(cur, st)
			report(cur)

			switch st.Status {
			case api.StatusCompleted:
				p.opts.Events.Since(start, otel.Event{Kind: otel.KindPollComplete, ParcelID: parcelID, Attempt: attempt, Status: string(st.Status)})
				if err := p.opts.Sleep(ctx, p.opts.Grace); err != nil {
					return "", apperr.Canceled(err)
				}
				return parcelID, nil
			case api.StatusFailed:
				p.opts.Events.Since(start, otel.Event{Kind: otel.KindPollFailed, Level: otel.LevelWarn, ParcelID: parcelID, Attempt: attempt, Status: string(st.Status)})
				return "", apperr.Terminal(MsgFailed).WithOp("poller.poll")
			case api.StatusNotFound:
				p.opts.Events.Since(start, otel.Event{Kind: otel.KindPollFailed, Level: otel.LevelWarn, ParcelID: parcelID, Attempt: attempt, Status: string(st.Status)})
				return "", apperr.Terminal(MsgNotFound).WithOp("poller.poll")
			case api.StatusRunning:
			default:
				logging.Debug("unknown processing status", "parcel", parcelID, "status", st.Status)
			}
			emit(otel.Event{Kind: otel.KindPollProgress, Attempt: attempt, Status: string(st.Status), Progress: cur.Percent})
		}

		if attempt < p.opts.MaxAttempts {
			if err := p.opts.Sleep(ctx, p.opts.Interval); err != nil {
				return "", apperr.Canceled(err)
			}
		}
	}

	p.opts.Events.Since(start, otel.Event{Kind: otel.KindPollTimeout, Level: otel.LevelWarn, ParcelID: parcelID, Attempt: p.opts.MaxAttempts})
	return "", apperr.BudgetExhausted(MsgTimeout).WithOp("poller.poll")
}

// merge folds a status response into the running Progress.
func merge(cur Progress, st api.ProcessingStatus) Progress {
	cur.Transient = false
	cur.Err = nil
	if st.Status != "" {
		cur.Status = st.Status
	}
	if st.Progress != nil {
		cur.Percent = st.ProgressPercent()
	}
	if st.CurrentScript != "" {
		cur.CurrentStep = st.CurrentScript
	}
	if st.TotalScripts > 0 {
		cur.TotalSteps = st.TotalScripts
	}
	if st.Message != "" {
		cur.Message = st.Message
	}
	return cur
}
