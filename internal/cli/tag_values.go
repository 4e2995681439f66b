package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/liststore/api"
)

type tagValuesOptions struct {
	selection           selectionFlags
	search              string
	sort                string
	dataset             string
	includeTransactions bool
	includeSessions     bool
	includeReplays      bool
}

// NewTagValuesCommand creates the tag-values command.
func NewTagValuesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &tagValuesOptions{}

	cmd := &cobra.Command{
		Use:   "tag-values <key>",
		Short: "List the observed values of one tag key",
		Args:  cobra.ExactArgs(1),
		PreRunE: func(*cobra.Command, []string) error {
			return checkSort(opts.sort)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTagValues(cmd, rootOpts, opts, args[0])
		},
	}
	opts.selection.register(cmd)
	cmd.Flags().StringVarP(&opts.search, "search", "s", "", "substring to match values against")
	cmd.Flags().StringVar(&opts.sort, "sort", "", "sort order (-last_seen|-count)")
	cmd.Flags().StringVar(&opts.dataset, "dataset", "", "dataset to query")
	cmd.Flags().BoolVar(&opts.includeTransactions, "include-transactions", false, "include transaction events")
	cmd.Flags().BoolVar(&opts.includeSessions, "include-sessions", false, "include session data")
	cmd.Flags().BoolVar(&opts.includeReplays, "include-replays", false, "include replay data")

	return cmd
}

func runTagValues(cmd *cobra.Command, rootOpts *RootOptions, opts *tagValuesOptions, key string) (err error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := newApp(ctx, rootOpts)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.close(context.WithoutCancel(ctx)); err == nil {
			err = cerr
		}
	}()

	values, err := a.client.FetchTagValues(ctx, a.cfg.API.Org, api.TagValuesRequest{
		Key:                 key,
		Search:              opts.search,
		Selection:           opts.selection.selection(),
		IncludeTransactions: opts.includeTransactions,
		IncludeSessions:     opts.includeSessions,
		IncludeReplays:      opts.includeReplays,
		Sort:                opts.sort,
		Dataset:             opts.dataset,
	})
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), rootOpts.Pretty, values)
}
