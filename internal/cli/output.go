package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/samirrijal/isstrack/internal/core/domain"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeVectorsText(w io.Writer, vectors []domain.StateVector) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "EPOCH\tX\tY\tZ\tX_DOT\tY_DOT\tZ_DOT")
	for _, sv := range vectors {
		fmt.Fprintf(tw, "%s\t%.3f\t%.3f\t%.3f\t%.6f\t%.6f\t%.6f\n",
			sv.Epoch, sv.X, sv.Y, sv.Z, sv.XDot, sv.YDot, sv.ZDot)
	}
	return tw.Flush()
}
