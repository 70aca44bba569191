package main

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/abelbrown/parcelscout/internal/api"
	"github.com/abelbrown/parcelscout/internal/apperr"
)

var searchJSON bool

var searchCmd = &cobra.Command{
	Use:   "search <text>",
	Short: "List address suggestions for partial text",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "print a {success, data, error} envelope")
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.TrimSpace(strings.Join(args, " "))
	out := cmd.OutOrStdout()

	var res []api.AddressSuggestion
	var err error
	if n := cfg.Autocomplete.MinSearchLength; utf8.RuneCountInString(query) < n {
		err = apperr.Validation(fmt.Sprintf("Enter at least %d characters to search", n)).WithOp("cli.search")
	} else {
		res, err = newClient(cfg).SearchAddresses(cmd.Context(), query)
		if limit := cfg.Autocomplete.MaxResults; len(res) > limit {
			res = res[:limit]
		}
	}

	if searchJSON {
		if err := writeJSON(out, api.Wrap(res, err)); err != nil {
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

	if len(res) == 0 {
		fmt.Fprintln(out, "No addresses found.")
		return nil
	}
	for i, s := range res {
		line := fmt.Sprintf("%2d. %s", i+1, truncate(s.Display(), 70))
		if loc := s.Locality(); loc != "" && !strings.Contains(s.Display(), loc) {
			line += "  (" + loc + ")"
		}
		fmt.Fprintln(out, line)
	}
	return nil
}
