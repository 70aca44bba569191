// Command parcelscout looks up a property by street address, waits for the
// backend to prepare its data, and shows the valuation summary.
//
// Usage:
//
//	parcelscout                       Interactive lookup (TUI)
//	parcelscout search <text>         Address suggestions
//	parcelscout resolve <address>     Resolve an address and wait for its data
//	parcelscout report <parcel-id>    Valuation and ROI summary
//	parcelscout recent                Recently resolved parcels
//	parcelscout events                JSONL event log viewer
//	parcelscout mock                  Local fixture backend
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/abelbrown/parcelscout/internal/apperr"
	"github.com/abelbrown/parcelscout/internal/config"
	"github.com/abelbrown/parcelscout/internal/logging"
)

var (
	// Global flags
	homeDir string
	debug   bool

	cfg *config.Config
)

// errReported means the command already wrote its failure (e.g. as a JSON
// envelope) and only the exit status is left to set.
var errReported = errors.New("reported")

var rootCmd = &cobra.Command{
	Use:   "parcelscout",
	Short: "Property lookup by street address",
	Long: `parcelscout finds a property by address, waits while the backend
prepares its parcel data, and shows the valuation and ROI summary.

Run without arguments to start the interactive lookup.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runTUI,
}

func init() {
	// Assigned here rather than in the literal: loadConfig refers to rootCmd.
	rootCmd.PersistentPreRunE = loadConfig

	rootCmd.PersistentFlags().StringVar(&homeDir, "home", "", "data directory (default $PARCELSCOUT_HOME or ~/.parcelscout)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(searchCmd, resolveCmd, reportCmd, recentCmd, eventsCmd, mockCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, "error:", errorText(err))
		}
		stop()
		os.Exit(1)
	}
}

// loadConfig runs before every command. Subcommands log to stderr; the TUI
// opens its own log file since it owns the terminal.
func loadConfig(cmd *cobra.Command, _ []string) error {
	c, err := config.Load(homeDir)
	if err != nil {
		return err
	}
	if debug {
		c.Debug = true
	}
	cfg = c

	if cmd != rootCmd {
		logging.InitWriter(cmd.ErrOrStderr(), cfg.Debug)
		for _, w := range cfg.Warnings() {
			logging.Debug(w)
		}
	}
	return nil
}

// errorText prefers the user-facing message for classified errors.
func errorText(err error) string {
	var e *apperr.Error
	if errors.As(err, &e) {
		return apperr.UserMessage(err)
	}
	return err.Error()
}
