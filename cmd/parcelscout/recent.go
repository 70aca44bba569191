package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	recentLimit  int
	recentForget string
)

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List recently resolved parcels",
	Args:  cobra.NoArgs,
	RunE:  runRecent,
}

func init() {
	recentCmd.Flags().IntVarP(&recentLimit, "limit", "n", 10, "number of parcels to show")
	recentCmd.Flags().StringVar(&recentForget, "forget", "", "remove a parcel id from history")
}

func runRecent(cmd *cobra.Command, _ []string) error {
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	out := cmd.OutOrStdout()
	if recentForget != "" {
		if err := st.Forget(recentForget); err != nil {
			return err
		}
		fmt.Fprintf(out, "Forgot %s\n", recentForget)
		return nil
	}

	parcels, err := st.Recent(recentLimit)
	if err != nil {
		return err
	}
	if len(parcels) == 0 {
		fmt.Fprintln(out, "No parcels yet. Run 'parcelscout resolve <address>' or the interactive lookup.")
		return nil
	}

	now := time.Now()
	for _, p := range parcels {
		fmt.Fprintf(out, "%-14s %-50s %8s  x%d\n", p.ParcelID, truncate(p.Label(), 50), ago(now.Sub(p.ResolvedAt)), p.Opened)
	}
	return nil
}

// ago formats d as a coarse age ("45s", "12m", "3h", "2d").
func ago(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}
