// Package cli implements issctl, the operator command line for isstrack.
package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Format  string // "json" | "text"
	Timeout time.Duration
	Env     *Env
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"json", "text"}

// NewRootCommand creates the issctl root command. A nil env uses the
// configuration-backed default.
func NewRootCommand(env *Env) *cobra.Command {
	if env == nil {
		env = DefaultEnv()
	}
	opts := &RootOptions{Env: env}

	cmd := &cobra.Command{
		Use:   "issctl",
		Short: "Inspect and refresh the ISS ephemeris cache",
		Long: `issctl talks to the same cache, feed and broker as the isstrack API.
Configuration is read from config.yaml and ISSTRACK_* environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "json", "output format (json|text)")
	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", time.Minute, "overall command timeout")

	cmd.AddCommand(NewFetchCommand(opts))
	cmd.AddCommand(NewRefreshCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewEpochCommand(opts))
	cmd.AddCommand(NewNowCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))
	cmd.AddCommand(NewRunWorkflowCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
