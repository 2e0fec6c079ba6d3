package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rideinsights-labs/rideinsights/internal/store"
	"github.com/spf13/cobra"
)

// RunsOptions holds options for the runs command.
type RunsOptions struct {
	Limit int
}

// NewRunsCommand creates the runs command.
func NewRunsCommand() *cobra.Command {
	opts := &RunsOptions{}

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show recent pipeline run history",
		Example: `  rideinsights runs
  rideinsights runs --limit 5`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return listRuns(cmd, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "Maximum number of runs to show")

	return cmd
}

func listRuns(cmd *cobra.Command, opts *RunsOptions) error {
	cmdCtx := FromCommand(cmd)
	dbPath := cmdCtx.Cfg.DatabasePath

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return fmt.Errorf("database not found at %s (run 'rideinsights run' first)", dbPath)
	}

	db, err := store.OpenReadOnly(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	st := store.NewWithDB(db, cmdCtx.Logger)
	runs, err := st.ListRuns(cmd.Context(), opts.Limit)
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Started", "Status", "Input", "Cleaned", "Dropped", "Error"})
	for _, r := range runs {
		t.AppendRow(table.Row{
			r.ID,
			r.StartedAt.Format(time.RFC3339),
			r.Status,
			r.InputRows,
			r.CleanedRows,
			r.DroppedRows,
			r.Error,
		})
	}
	t.Render()
	return nil
}
