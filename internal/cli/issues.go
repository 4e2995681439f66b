package cli

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/liststore/api"
	"github.com/jonwraymond/liststore/issuecache"
	"github.com/jonwraymond/liststore/query"
)

type issuesOptions struct {
	search      string
	sort        string
	projects    []string
	environment []string
	period      string
	limit       int
	cursor      string
	refresh     bool
}

func (o *issuesOptions) query() query.Query {
	q := query.Query{}
	if o.search != "" {
		q["query"] = o.search
	}
	if o.sort != "" {
		q["sort"] = o.sort
	}
	if len(o.projects) > 0 {
		q["project"] = o.projects
	}
	if len(o.environment) > 0 {
		q["environment"] = o.environment
	}
	if o.period != "" {
		q["statsPeriod"] = o.period
	}
	if o.limit > 0 {
		q["limit"] = strconv.Itoa(o.limit)
	}
	if o.cursor != "" {
		q["cursor"] = o.cursor
	}
	return q
}

// IssuesResult is the output of the issues command. Each invocation starts
// with an empty cache, so whether the entry was served from cache is not
// reported.
type IssuesResult struct {
	Key        string           `json:"key"`
	Capped     bool             `json:"capped"`
	NextCursor string           `json:"nextCursor,omitempty"`
	Entry      issuecache.Entry `json:"entry"`
}

// NewIssuesCommand creates the issues command.
func NewIssuesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &issuesOptions{}

	cmd := &cobra.Command{
		Use:   "issues",
		Short: "Run an issue list query through the issue cache",
		Long: `Run an issue list query through the read-through issue cache and print
the cached entry. Equivalent queries share one cache entry regardless of
flag order.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runIssues(cmd, rootOpts, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.search, "query", "q", "is:unresolved", "issue search query")
	cmd.Flags().StringVar(&opts.sort, "sort", "date", "sort order (date|new|freq|user)")
	cmd.Flags().StringSliceVarP(&opts.projects, "project", "p", nil, "project IDs to include (repeatable)")
	cmd.Flags().StringSliceVarP(&opts.environment, "environment", "e", nil, "environments to include (repeatable)")
	cmd.Flags().StringVar(&opts.period, "period", "", "relative time range, e.g. 14d")
	cmd.Flags().IntVar(&opts.limit, "limit", 25, "page size")
	cmd.Flags().StringVar(&opts.cursor, "cursor", "", "pagination cursor from a previous nextCursor")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass the cache and refetch")

	return cmd
}

func runIssues(cmd *cobra.Command, rootOpts *RootOptions, opts *issuesOptions) (err error) {
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

	q := opts.query()
	var entry issuecache.Entry
	if opts.refresh {
		entry, err = a.issueLoader.Refresh(ctx, q)
	} else {
		entry, _, err = a.issueLoader.Load(ctx, q)
	}
	if err != nil {
		return err
	}

	return writeJSON(cmd.OutOrStdout(), rootOpts.Pretty, IssuesResult{
		Key:        query.Normalize(q),
		Capped:     entry.Capped(),
		NextCursor: api.NextCursor(entry.PageLinks),
		Entry:      entry,
	})
}
