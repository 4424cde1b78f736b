package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/samirrijal/isstrack/internal/core/domain"
)

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	Offset int
	Limit  int
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cached state vectors",
		Long: `List state vectors in feed order, loading the feed on a cache miss.

Examples:
  issctl list --limit 5
  issctl list --offset 100 --limit 10 --format text`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			page := domain.Page{Offset: opts.Offset}
			if cmd.Flags().Changed("limit") {
				limit := opts.Limit
				page.Limit = &limit
			}
			return runList(opts, cmd, page)
		},
	}
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "records to skip")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum records to print (default all)")
	return cmd
}

func runList(opts *ListOptions, cmd *cobra.Command, page domain.Page) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), opts.Timeout)
	defer cancel()

	svc, closeFn, err := opts.Env.Service(ctx, false)
	if err != nil {
		return err
	}
	defer closeFn()

	vectors, _, err := svc.List(ctx, page)
	if err != nil {
		return err
	}
	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), vectors)
	}
	return writeVectorsText(cmd.OutOrStdout(), vectors)
}

// EpochOptions holds flags for the epoch command.
type EpochOptions struct {
	*RootOptions
	Speed    bool
	Location bool
}

// NewEpochCommand creates the epoch command.
func NewEpochCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EpochOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "epoch EPOCH",
		Short: "Show one state vector, its speed or its ground location",
		Long: `Look up a state vector by its exact epoch string.

Examples:
  issctl epoch 2024-100T12:04:00.000Z
  issctl epoch 2024-100T12:04:00.000Z --speed
  issctl epoch 2024-100T12:04:00.000Z --location`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Speed && opts.Location {
				return fmt.Errorf("--speed and --location are mutually exclusive")
			}
			return runEpoch(opts, cmd, args[0])
		},
	}
	cmd.Flags().BoolVar(&opts.Speed, "speed", false, "print the instantaneous speed")
	cmd.Flags().BoolVar(&opts.Location, "location", false, "print latitude, longitude, altitude and geoposition")
	return cmd
}

func runEpoch(opts *EpochOptions, cmd *cobra.Command, epoch string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), opts.Timeout)
	defer cancel()

	svc, closeFn, err := opts.Env.Service(ctx, opts.Location)
	if err != nil {
		return err
	}
	defer closeFn()

	out := cmd.OutOrStdout()
	switch {
	case opts.Speed:
		rep, err := svc.Speed(ctx, epoch)
		if err != nil {
			return err
		}
		if opts.Format == "json" {
			return writeJSON(out, rep)
		}
		fmt.Fprintf(out, "%s  %.6f km/s\n", rep.Epoch, rep.Speed)
	case opts.Location:
		rep, err := svc.Location(ctx, epoch)
		if err != nil {
			return err
		}
		if opts.Format == "json" {
			return writeJSON(out, rep)
		}
		fmt.Fprintf(out, "%s  lat %.4f  lon %.4f  alt %.2f km  %s\n",
			rep.Epoch, rep.Latitude, rep.Longitude, rep.Altitude, rep.Geoposition)
	default:
		sv, err := svc.GetByEpoch(ctx, epoch)
		if err != nil {
			return err
		}
		if opts.Format == "json" {
			return writeJSON(out, sv)
		}
		return writeVectorsText(out, []domain.StateVector{*sv})
	}
	return nil
}

// NewNowCommand creates the now command.
func NewNowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "now",
		Short: "Show the state vector nearest to the current time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), rootOpts.Timeout)
			defer cancel()

			svc, closeFn, err := rootOpts.Env.Service(ctx, true)
			if err != nil {
				return err
			}
			defer closeFn()

			rep, err := svc.Now(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if rootOpts.Format == "json" {
				return writeJSON(out, rep)
			}
			fmt.Fprintf(out, "epoch:       %s\n", rep.Epoch)
			fmt.Fprintf(out, "speed:       %.6f km/s\n", rep.Speed)
			fmt.Fprintf(out, "position:    lat %.4f  lon %.4f  alt %.2f km\n", rep.Latitude, rep.Longitude, rep.Altitude)
			fmt.Fprintf(out, "geoposition: %s\n", rep.Geoposition)
			return nil
		},
	}
}
