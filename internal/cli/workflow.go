package cli

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.temporal.io/sdk/client"

	"github.com/samirrijal/isstrack/internal/workflows"
)

// RunWorkflowOptions holds flags for the run-workflow command.
type RunWorkflowOptions struct {
	*RootOptions
	Reason    string
	SkipNowCheck bool
	Wait      bool
}

// NewRunWorkflowCommand creates the run-workflow command.
func NewRunWorkflowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunWorkflowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run-workflow",
		Short: "Start a one-off refresh on the Temporal worker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorkflow(opts, cmd)
		},
	}
	cmd.Flags().StringVar(&opts.Reason, "reason", "manual", "reason recorded in the workflow log")
	cmd.Flags().BoolVar(&opts.SkipNowCheck, "skip-now-check", false, "skip the nearest-to-now check after refreshing")
	cmd.Flags().BoolVar(&opts.Wait, "wait", true, "wait for the workflow result")
	return cmd
}

func runWorkflow(opts *RunWorkflowOptions, cmd *cobra.Command) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), opts.Timeout)
	defer cancel()

	c, taskQueue, err := opts.Env.Temporal()
	if err != nil {
		return err
	}
	defer c.Close()

	run, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        "isstrack-feed-refresh-" + uuid.NewString(),
		TaskQueue: taskQueue,
	}, workflows.RefreshFeedWorkflow, workflows.RefreshInput{Reason: opts.Reason, SkipNowCheck: opts.SkipNowCheck})
	if err != nil {
		return fmt.Errorf("start workflow: %w", err)
	}

	out := cmd.OutOrStdout()
	if !opts.Wait {
		fmt.Fprintf(out, "started %s (run %s)\n", run.GetID(), run.GetRunID())
		return nil
	}

	var res workflows.RefreshResult
	if err := run.Get(ctx, &res); err != nil {
		return fmt.Errorf("workflow %s: %w", run.GetID(), err)
	}
	if opts.Format == "json" {
		return writeJSON(out, res)
	}
	fmt.Fprintf(out, "refreshed %d vectors (%s .. %s), nearest now %s\n",
		res.StateVectors, res.FirstEpoch, res.LastEpoch, res.NowEpoch)
	return nil
}
