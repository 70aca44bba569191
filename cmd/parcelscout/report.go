package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abelbrown/parcelscout/internal/api"
	"github.com/abelbrown/parcelscout/internal/report"
	"github.com/abelbrown/parcelscout/internal/ui"
)

var reportJSON bool

var reportCmd = &cobra.Command{
	Use:   "report <parcel-id>",
	Short: "Show the valuation, ROI and risk summary for a parcel",
	Args:  cobra.ExactArgs(1),
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().BoolVar(&reportJSON, "json", false, "print a {success, data, error} envelope")
}

func runReport(cmd *cobra.Command, args []string) error {
	id := strings.TrimSpace(args[0])

	events, closeEvents, err := openEventLog(cfg)
	if err != nil {
		return err
	}
	defer closeEvents()

	loader := report.NewLoader(newClient(cfg), events.Component("report"), 0)
	r, err := loader.Load(cmd.Context(), id)

	out := cmd.OutOrStdout()
	if reportJSON {
		if err := writeJSON(out, api.Wrap(r, err)); err != nil {
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
	fmt.Fprintln(out, ui.RenderReport(r))
	return nil
}
