package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(version, buildDate, gitCommit string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "rideinsights %s\n", version)
			if buildDate != "" {
				_, _ = fmt.Fprintf(out, "  build date: %s\n", buildDate)
			}
			if gitCommit != "" {
				_, _ = fmt.Fprintf(out, "  commit:     %s\n", gitCommit)
			}
		},
	}
}
