package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// NewRefreshCommand creates the refresh command.
func NewRefreshCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Fetch the feed and replace the cached snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), rootOpts.Timeout)
			defer cancel()

			svc, closeFn, err := rootOpts.Env.Service(ctx, false)
			if err != nil {
				return err
			}
			defer closeFn()

			snap, err := svc.Refresh(ctx)
			if err != nil {
				return err
			}
			return printSummary(cmd, rootOpts, summarize(snap))
		},
	}
}
