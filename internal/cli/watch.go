package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/samirrijal/isstrack/internal/core/domain"
)

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	var durable string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print feed refresh events as they are published",
		Long: `Subscribe to ephemeris.feed.refreshed on NATS JetStream and print each
event until interrupted. With --durable the consumer resumes where it
last stopped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			closeFn, err := rootOpts.Env.Subscribe(ctx, durable, func(_ context.Context, ev *domain.FeedRefreshed) error {
				if rootOpts.Format == "json" {
					return writeJSON(out, ev)
				}
				_, err := fmt.Fprintf(out, "%s  %d vectors  %s .. %s  (%s)\n",
					ev.FetchedAt.Format(time.RFC3339), ev.StateVectors, ev.FirstEpoch, ev.LastEpoch, ev.ID)
				return err
			})
			if err != nil {
				return err
			}
			defer closeFn()

			<-ctx.Done()
			return nil
		},
	}
	cmd.Flags().StringVar(&durable, "durable", "", "durable consumer name")
	return cmd
}
