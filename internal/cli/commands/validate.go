package commands

import (
	"fmt"
	"os"

	"github.com/rideinsights-labs/rideinsights/internal/query"
	"github.com/rideinsights-labs/rideinsights/internal/store"
	"github.com/spf13/cobra"
)

// ValidateOptions holds options for the validate command.
type ValidateOptions struct {
	Format string
}

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	opts := &ValidateOptions{}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Run data quality checks against the ride database",
		Long: `Check the persisted fact table for integrity problems: duplicate or
missing booking ids, missing dimension values, negative amounts and
out-of-range ratings. Exits non-zero when any check fails.`,
		Example: `  rideinsights validate
  rideinsights validate --format json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runValidate(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "table", "Output format: table, json, csv, md")

	return cmd
}

func runValidate(cmd *cobra.Command, opts *ValidateOptions) error {
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

	catalog := query.NewCatalog(db)
	rs, err := catalog.Execute(cmd.Context(), "quality", 0)
	if err != nil {
		return err
	}
	if err := renderResultSet(cmd.OutOrStdout(), rs, opts.Format); err != nil {
		return err
	}

	report, err := catalog.Quality(cmd.Context())
	if err != nil {
		return err
	}

	failures := report.DuplicateBookingIDs() +
		report.MissingBookingIDs + report.MissingCustomerIDs +
		report.MissingVehicleTypes + report.MissingStatuses +
		report.NegativeBookingValues + report.NegativeDistances
	if failures > 0 {
		return fmt.Errorf("%d integrity check failures", failures)
	}

	if flagged := report.InvalidDriverRatings + report.InvalidCustomerRatings; flagged > 0 {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Warning: %d rows carry out-of-range ratings\n", flagged)
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "All integrity checks passed")
	return nil
}
