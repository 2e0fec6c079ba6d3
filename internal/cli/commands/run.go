package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rideinsights-labs/rideinsights/internal/pipeline"
	"github.com/spf13/cobra"
)

const summaryPrecision = time.Millisecond

// RunOptions holds options for the run command.
type RunOptions struct {
	Optimize bool
}

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Load the bookings workbook and rebuild the database",
		Long: `Run the full ingestion pipeline: read the xlsx workbook, clean and
normalize the rows, derive analysis columns, and rebuild the ride tables
and aggregates in the SQLite database.

The rebuild replaces the previous contents atomically; a failed run leaves
the prior database state intact.`,
		Example: `  # Rebuild from the configured workbook
  rideinsights run

  # Rebuild from a specific workbook and sheet
  rideinsights run --source bookings.xlsx --sheet July

  # Compact and re-analyze the database afterwards
  rideinsights run --optimize`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPipeline(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Optimize, "optimize", false, "Run VACUUM and ANALYZE after the rebuild")

	return cmd
}

func runPipeline(cmd *cobra.Command, opts *RunOptions) error {
	cmdCtx := FromCommand(cmd)
	cfg := cmdCtx.Cfg

	if err := ensureParentDir(cfg.DatabasePath); err != nil {
		return err
	}

	summary, err := pipeline.Run(cmd.Context(), pipeline.Config{
		SourcePath:      cfg.SourcePath,
		Sheet:           cfg.Sheet,
		DatabasePath:    cfg.DatabasePath,
		PaymentFallback: cfg.PaymentFallback,
		MaxRows:         cfg.MaxRows,
		Optimize:        opts.Optimize,
		Logger:          cmdCtx.Logger,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Run %s completed in %s\n", summary.RunID, summary.Elapsed.Round(summaryPrecision))
	_, _ = fmt.Fprintf(out, "  input rows:   %d\n", summary.InputRows)
	_, _ = fmt.Fprintf(out, "  cleaned rows: %d\n", summary.CleanedRows)
	_, _ = fmt.Fprintf(out, "  dropped rows: %d\n", summary.DroppedRows)
	return nil
}

func ensureParentDir(path string) error {
	if path == ":memory:" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("creating database directory: %w", err)
	}
	return nil
}
