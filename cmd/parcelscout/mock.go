package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/abelbrown/parcelscout/internal/mockapi"
)

var (
	mockAddr    string
	mockLatency time.Duration
	mockAuth    bool
)

var mockCmd = &cobra.Command{
	Use:   "mock",
	Short: "Serve the fixture backend locally",
	Long: `Serves a fake backend with scripted parcels, for demos and tests.

Try "742 Evergreen Terrace" (completes after a few polls), "404 Nowhere
Lane" (not found), "13 Broken Pipe Road" (fails), or "1 Echo Court" (no
valid id).

Point the client at it with PARCELSCOUT_API_BASE_URL=http://localhost:3000.`,
	Args: cobra.NoArgs,
	RunE: runMock,
}

func init() {
	mockCmd.Flags().StringVar(&mockAddr, "addr", ":3000", "listen address")
	mockCmd.Flags().DurationVar(&mockLatency, "latency", 0, "delay added to every request")
	mockCmd.Flags().BoolVar(&mockAuth, "auth", false, "require the configured bearer token and API key")
}

func runMock(cmd *cobra.Command, _ []string) error {
	opts := mockapi.Options{Latency: mockLatency}
	if mockAuth {
		opts.BearerToken = cfg.API.BearerToken
		opts.APIKey = cfg.API.APIKey
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "mock backend on %s (ctrl+c to stop)\n", mockAddr)
	return mockapi.New(opts).ListenAndServe(cmd.Context(), mockAddr)
}
