package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/liststore/api"
	"github.com/jonwraymond/liststore/tags"
)

type selectionFlags struct {
	projects     []string
	environments []string
	period       string
}

func (f *selectionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&f.projects, "project", "p", nil, "project IDs to include (repeatable)")
	cmd.Flags().StringSliceVarP(&f.environments, "environment", "e", nil, "environments to include (repeatable)")
	cmd.Flags().StringVar(&f.period, "period", "", "relative time range, e.g. 14d")
}

func (f *selectionFlags) selection() api.Selection {
	return api.Selection{
		Projects:     f.projects,
		Environments: f.environments,
		StatsPeriod:  f.period,
	}
}

// TagsResult is the output of the tags command.
type TagsResult struct {
	Org    string      `json:"org"`
	Count  int         `json:"count"`
	Tags   []tags.Tag  `json:"tags"`
	Alerts []alertView `json:"alerts"`
}

// NewTagsCommand creates the tags command.
func NewTagsCommand(rootOpts *RootOptions) *cobra.Command {
	sel := &selectionFlags{}

	cmd := &cobra.Command{
		Use:   "tags",
		Short: "Load the organization's tag keys",
		Long: `Load the organization's tag keys into the tag store and print them.

Loads larger than tags.max are truncated and reported as a warning alert.
A failed load is reported as an error alert and a non-zero exit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTags(cmd, rootOpts, sel.selection())
		},
	}
	sel.register(cmd)

	return cmd
}

func runTags(cmd *cobra.Command, opts *RootOptions, sel api.Selection) (err error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := newApp(ctx, opts)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.close(context.WithoutCancel(ctx)); err == nil {
			err = cerr
		}
	}()

	loadErr := a.tagLoader.LoadOrganizationTags(ctx, a.cfg.API.Org, sel)

	result := TagsResult{
		Org:    a.cfg.API.Org,
		Count:  a.tags.State().Len(),
		Tags:   a.tags.Tags(),
		Alerts: openAlerts(a.alerts),
	}
	if result.Tags == nil {
		result.Tags = []tags.Tag{}
	}
	if err := writeJSON(cmd.OutOrStdout(), opts.Pretty, result); err != nil {
		return err
	}
	return loadErr
}
