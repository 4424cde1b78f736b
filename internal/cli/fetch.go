package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/samirrijal/isstrack/internal/adapters/oem"
	"github.com/samirrijal/isstrack/internal/core/domain"
)

// FetchOptions holds flags for the fetch command.
type FetchOptions struct {
	*RootOptions
	Raw bool
}

// FeedSummary describes a parsed or refreshed snapshot.
type FeedSummary struct {
	Source       string          `json:"source"`
	StateVectors int             `json:"state_vectors"`
	Duplicates   int             `json:"duplicates"`
	FirstEpoch   string          `json:"first_epoch,omitempty"`
	LastEpoch    string          `json:"last_epoch,omitempty"`
	Header       domain.Header   `json:"header"`
	Metadata     domain.Metadata `json:"metadata"`
}

func summarize(snap *domain.Snapshot) FeedSummary {
	s := FeedSummary{
		Source:       snap.Source,
		StateVectors: snap.Len(),
		Duplicates:   domain.DuplicateEpochs(snap.StateVectors),
		Header:       snap.Header,
		Metadata:     snap.Metadata,
	}
	if n := snap.Len(); n > 0 {
		s.FirstEpoch = snap.StateVectors[0].Epoch
		s.LastEpoch = snap.StateVectors[n-1].Epoch
	}
	return s
}

// NewFetchCommand creates the fetch command.
func NewFetchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FetchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download the upstream feed without touching the cache",
		Long: `Download the OEM document and report what it contains.

Examples:
  issctl fetch
  issctl fetch --raw > ISS.OEM_J2K_EPH.xml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(opts, cmd)
		},
	}
	cmd.Flags().BoolVar(&opts.Raw, "raw", false, "print the document as downloaded")
	return cmd
}

func runFetch(opts *FetchOptions, cmd *cobra.Command) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), opts.Timeout)
	defer cancel()

	feed, err := opts.Env.Feed()
	if err != nil {
		return err
	}
	raw, err := feed.FetchRaw(ctx)
	if err != nil {
		return err
	}
	if opts.Raw {
		_, err := cmd.OutOrStdout().Write(raw)
		return err
	}

	snap, err := oem.Parse(raw)
	if err != nil {
		return err
	}
	snap.Source = feed.URL()
	return printSummary(cmd, opts.RootOptions, summarize(snap))
}

func printSummary(cmd *cobra.Command, opts *RootOptions, s FeedSummary) error {
	out := cmd.OutOrStdout()
	if opts.Format == "json" {
		return writeJSON(out, s)
	}
	fmt.Fprintf(out, "source:        %s\n", s.Source)
	fmt.Fprintf(out, "object:        %s (%s)\n", s.Metadata.ObjectName, s.Metadata.ObjectID)
	fmt.Fprintf(out, "state vectors: %d (%d duplicate epochs)\n", s.StateVectors, s.Duplicates)
	fmt.Fprintf(out, "span:          %s .. %s\n", s.FirstEpoch, s.LastEpoch)
	return nil
}
