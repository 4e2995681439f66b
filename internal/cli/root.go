// Package cli implements the liststore command line.
package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Org        string
	Pretty     bool
}

// NewRootCommand creates the root command for the liststore CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "liststore",
		Short: "Query issue lists and tags through the liststore caches",
		Long: `liststore loads issue lists and organization tags from the monitoring API
through the same caches, loaders and alert store used by long-running clients,
and prints the results as JSON.

Settings come from --config (YAML) and LISTSTORE_ environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to a YAML config file")
	cmd.PersistentFlags().StringVar(&opts.Org, "org", "", "organization slug (overrides api.org)")
	cmd.PersistentFlags().BoolVar(&opts.Pretty, "pretty", true, "indent JSON output")

	cmd.AddCommand(NewTagsCommand(opts))
	cmd.AddCommand(NewTagValuesCommand(opts))
	cmd.AddCommand(NewIssuesCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))

	return cmd
}

// validSorts lists the sort orders accepted for tag values.
var validSorts = []string{"", "-last_seen", "-count"}

func checkSort(sort string) error {
	if !slices.Contains(validSorts, sort) {
		return fmt.Errorf("invalid sort %q: must be -last_seen or -count", sort)
	}
	return nil
}
