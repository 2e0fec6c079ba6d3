package commands

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rideinsights-labs/rideinsights/internal/query"
	"github.com/rideinsights-labs/rideinsights/internal/store"
	"github.com/spf13/cobra"
)

// QueryOptions holds options for the query command.
type QueryOptions struct {
	Format string
	Limit  int
}

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query [NAME]",
		Short: "Run a named analytics query against the ride database",
		Long: `Run one of the built-in analytics queries against the ride database.

Named queries read from the rebuilt aggregate tables and the fact table,
so results are consistent with the most recent pipeline run. Use the sql
subcommand for ad-hoc read-only SQL, or invoke without arguments on a
terminal to enter the interactive REPL.`,
		Example: `  # List available queries
  rideinsights query list

  # Headline figures
  rideinsights query overview

  # Five highest-spending customers as JSON
  rideinsights query top-customers --limit 5 --format json

  # Ad-hoc SQL
  rideinsights query sql "SELECT vehicle_type, COUNT(*) FROM rides GROUP BY 1"

  # Interactive mode
  rideinsights query`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNamedQuery(cmd, args, opts)
		},
	}

	// Persistent so the sql and tables subcommands honor them too.
	cmd.PersistentFlags().StringVarP(&opts.Format, "format", "f", "table", "Output format: table, json, csv, md")
	cmd.PersistentFlags().IntVarP(&opts.Limit, "limit", "n", 10, "Row limit for queries that take one")

	cmd.AddCommand(newQueryListCommand())
	cmd.AddCommand(newQuerySQLCommand(opts))
	cmd.AddCommand(newQueryTablesCommand(opts))

	return cmd
}

func runNamedQuery(cmd *cobra.Command, args []string, opts *QueryOptions) error {
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

	if len(args) == 0 {
		if !isTerminal(os.Stdin) {
			return fmt.Errorf("no query name given (see 'rideinsights query list')")
		}
		return runQueryREPL(cmd, db, dbPath, opts)
	}

	catalog := query.NewCatalog(db)
	rs, err := catalog.Execute(cmd.Context(), args[0], opts.Limit)
	if err != nil {
		return err
	}
	return renderResultSet(cmd.OutOrStdout(), rs, opts.Format)
}

// newQueryListCommand creates the list subcommand.
func newQueryListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the available named queries",
		RunE: func(cmd *cobra.Command, _ []string) error {
			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Name", "Description", "Takes --limit"})
			for _, s := range query.Specs() {
				limit := ""
				if s.TakesLimit {
					limit = "yes"
				}
				t.AppendRow(table.Row{s.Name, s.Description, limit})
			}
			t.Render()
			return nil
		},
	}
}

// newQuerySQLCommand creates the sql subcommand for ad-hoc read-only SQL.
func newQuerySQLCommand(opts *QueryOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sql <SQL>",
		Short: "Execute ad-hoc read-only SQL against the ride database",
		Example: `  rideinsights query sql "SELECT * FROM vehicle_summary"
  cat report.sql | rideinsights query sql -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx := FromCommand(cmd)
			dbPath := cmdCtx.Cfg.DatabasePath

			sqlQuery := args[0]
			if sqlQuery == "-" {
				content, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("failed to read stdin: %w", err)
				}
				sqlQuery = string(content)
			}
			if strings.TrimSpace(sqlQuery) == "" {
				return fmt.Errorf("empty SQL statement")
			}

			db, err := store.OpenReadOnly(dbPath)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer func() { _ = db.Close() }()

			return executeAndRenderSQL(cmd.Context(), cmd.OutOrStdout(), db, sqlQuery, opts.Format)
		},
	}
}

// newQueryTablesCommand creates the tables subcommand.
func newQueryTablesCommand(opts *QueryOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List the tables in the ride database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx := FromCommand(cmd)

			db, err := store.OpenReadOnly(cmdCtx.Cfg.DatabasePath)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer func() { _ = db.Close() }()

			return listTablesFromDB(cmd.Context(), cmd.OutOrStdout(), db, opts.Format)
		},
	}
}

func executeAndRenderSQL(ctx context.Context, w io.Writer, db *sql.DB, sqlQuery, format string) error {
	rows, err := db.QueryContext(ctx, sqlQuery)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return renderSQLRows(w, rows, format)
}

func listTablesFromDB(ctx context.Context, w io.Writer, db *sql.DB, format string) error {
	rows, err := db.QueryContext(ctx, `
		SELECT name, type
		FROM sqlite_master
		WHERE type = 'table'
		AND name NOT LIKE 'sqlite_%'
		AND name NOT LIKE 'goose_%'
		ORDER BY name`)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	return renderSQLRows(w, rows, format)
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
