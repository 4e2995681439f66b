package cli

import (
	"context"
	"errors"
	"maps"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/liststore/health"
	"github.com/jonwraymond/liststore/query"
)

// StatusResult is the output of the status command.
type StatusResult struct {
	Status string                   `json:"status"`
	Checks map[string]health.Result `json:"checks"`
}

// errUnhealthy makes the status command exit non-zero.
var errUnhealthy = errors.New("liststore is unhealthy")

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check API reachability and the state of the stores",
		Long: `Run one-page issue fetches through the fetch policy, then report the API,
the circuit breaker, the issue cache and any open alerts. Exits non-zero
when any check is unhealthy.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd, rootOpts, timeout)
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "overall time limit for the checks")

	return cmd
}

func runStatus(cmd *cobra.Command, opts *RootOptions, timeout time.Duration) (err error) {
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

	// The ping runs first so the other checks see its effect on the
	// breaker and the cache.
	probe := health.NewAggregator(timeout)
	probe.Register(health.PingCheck("api", func(ctx context.Context) error {
		_, _, err := a.issueLoader.Load(ctx, query.Query{"limit": "1"})
		return err
	}))
	results := probe.CheckAll(ctx)

	agg := health.NewAggregator(timeout)
	if b := a.policy.Breaker(); b != nil {
		agg.Register(health.BreakerCheck(b))
	}
	agg.Register(health.CacheCheck(a.issues))
	agg.Register(health.AlertsCheck(a.alerts))
	maps.Copy(results, agg.CheckAll(ctx))

	overall := health.Overall(results)
	if err := writeJSON(cmd.OutOrStdout(), opts.Pretty, StatusResult{
		Status: overall.String(),
		Checks: results,
	}); err != nil {
		return err
	}
	if overall == health.StatusUnhealthy {
		return errUnhealthy
	}
	return nil
}
