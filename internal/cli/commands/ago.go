package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/pixgram-dev/pixgram/internal/timefmt"
)

// NewAgoCmd creates the ago command
func NewAgoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ago <timestamp>...",
		Short: "Print timestamps the way post dates are shown",
		Example: `  $ pixgram ago 2026-10-19T10:30:00Z
  $ pixgram ago "2026-10-01 08:00:00"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runAgo(cmd.OutOrStdout(), args, time.Now())
			return nil
		},
	}
}

func runAgo(w io.Writer, values []string, now time.Time) {
	for _, formatted := range timefmt.FormatAll(values, now) {
		fmt.Fprintln(w, formatted)
	}
}
