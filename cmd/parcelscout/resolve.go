package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/abelbrown/parcelscout/internal/api"
	"github.com/abelbrown/parcelscout/internal/apperr"
	"github.com/abelbrown/parcelscout/internal/autocomplete"
	"github.com/abelbrown/parcelscout/internal/logging"
	"github.com/abelbrown/parcelscout/internal/otel"
	"github.com/abelbrown/parcelscout/internal/poller"
	"github.com/abelbrown/parcelscout/internal/session"
)

var (
	resolveJSON       bool
	resolveTranscript bool
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <address>",
	Short: "Resolve an address to a parcel and wait until its data is ready",
	Long: `Resolves the address to a parcel id, then polls the backend (every 2s,
at most 60 times) until the parcel data is ready. Prints the parcel id.

With --transcript the argument is treated as speech-to-text output and
punctuation is stripped first.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().BoolVar(&resolveJSON, "json", false, "print a {success, data, error} envelope")
	resolveCmd.Flags().BoolVar(&resolveTranscript, "transcript", false, "clean the address as a voice transcript")
}

// pollSleep replaces the poller's wait between attempts; nil uses the
// real clock. Tests shorten it.
var pollSleep poller.SleepFunc

// resolveResult is the --json payload.
type resolveResult struct {
	ParcelID string `json:"parcel_id"`
	Address  string `json:"address"`
}

func runResolve(cmd *cobra.Command, args []string) error {
	address := strings.Join(args, " ")
	if resolveTranscript {
		address = session.CleanTranscript(address)
	}

	events, closeEvents, err := openEventLog(cfg)
	if err != nil {
		return err
	}
	defer closeEvents()

	var bar *progressbar.ProgressBar
	if !resolveJSON && isatty.IsTerminal(os.Stderr.Fd()) {
		bar = progressbar.NewOptions(100,
			progressbar.OptionSetDescription("Resolving "+truncate(address, 40)),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionClearOnFinish(),
		)
	}

	popts := poller.Options{Sleep: pollSleep, Events: events.Component("poller")}
	st, err := resolveAddress(cmd.Context(), newClient(cfg), address, popts, events, func(p poller.Progress) {
		if bar != nil {
			bar.Describe(fmt.Sprintf("%s %s", p.StepLabel(), p.Counter()))
			_ = bar.Set(int(p.Percent))
			return
		}
		if p.Transient {
			logging.Warn("status check failed, retrying", "attempt", p.Attempt, "err", p.Err)
			return
		}
		logging.Debug("processing", "attempt", p.Attempt, "percent", p.Percent, "step", p.StepLabel())
	})
	if bar != nil {
		_ = bar.Finish()
	}

	if err == nil {
		recordResolution(st.ParcelID, st.Address, address, events)
	}

	out := cmd.OutOrStdout()
	if resolveJSON {
		if err := writeJSON(out, api.Wrap(resolveResult{ParcelID: st.ParcelID, Address: st.Address}, err)); err != nil {
			return err
		}
		if err != nil {
			return errReported
		}
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(out, st.ParcelID)
	return nil
}

// resolveAddress drives one session from selection to hand-off and
// returns the final state. onProgress sees each polling update.
func resolveAddress(ctx context.Context, b session.Backend, address string, popts poller.Options, events *otel.Logger, onProgress func(poller.Progress)) (session.State, error) {
	if err := ctx.Err(); err != nil {
		return session.State{}, apperr.Canceled(err)
	}

	done := make(chan session.State, 1)
	orch := session.New(b, session.Options{
		Autocomplete: autocomplete.Options{Debounce: -1},
		Poller:       popts,
		OnChange: func(s session.State) {
			switch s.Phase {
			case session.PhasePolling:
				if onProgress != nil && s.Progress.Attempt > 0 {
					onProgress(s.Progress)
				}
			case session.PhaseDone, session.PhaseFailed:
				select {
				case done <- s:
				default:
				}
			}
		},
		Events: events.Component("session"),
	})
	defer orch.Close()

	orch.Select(api.AddressSuggestion{Address: address})

	select {
	case s := <-done:
		if s.Phase == session.PhaseFailed {
			return s, s.Err
		}
		return s, nil
	case <-ctx.Done():
		return session.State{}, apperr.Canceled(ctx.Err())
	}
}

// recordResolution saves the parcel to history. Failures only log.
func recordResolution(id, display, query string, events *otel.Logger) {
	st, err := openStore(cfg)
	if err != nil {
		logging.Warn("history unavailable", "err", err)
		return
	}
	defer st.Close()
	if err := st.RecordResolution(id, display, query); err != nil {
		events.Error(otel.KindStoreError, "store", err)
		logging.Warn("could not save parcel", "parcel_id", id, "err", err)
	}
}
