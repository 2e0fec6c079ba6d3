package commands

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/rideinsights-labs/rideinsights/internal/query"
	"github.com/spf13/cobra"
)

func runQueryREPL(cmd *cobra.Command, db *sql.DB, dbPath string, opts *QueryOptions) error {
	ctx := cmd.Context()
	catalog := query.NewCatalog(db)

	historyFile := filepath.Join(filepath.Dir(dbPath), "query_history")
	completer := newREPLCompleter(ctx, db)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "rideinsights> ",
		HistoryFile:     historyFile,
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Ride Insights Query REPL (database: %s)\n", dbPath)
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(cmd.OutOrStdout())

	var multiLineBuffer strings.Builder
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			multiLineBuffer.Reset()
			rl.SetPrompt("rideinsights> ")
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ".") {
			if handled := handleDotCommand(ctx, cmd, db, catalog, line, opts); handled {
				if line == ".quit" || line == ".exit" {
					break
				}
				continue
			}
		}

		// Accumulate multi-line SQL until semicolon
		multiLineBuffer.WriteString(line)
		if !strings.HasSuffix(line, ";") {
			multiLineBuffer.WriteString(" ")
			rl.SetPrompt("       ...> ")
			continue
		}
		rl.SetPrompt("rideinsights> ")

		sqlQuery := strings.TrimSuffix(multiLineBuffer.String(), ";")
		multiLineBuffer.Reset()

		if err := executeAndRenderSQL(ctx, cmd.OutOrStdout(), db, sqlQuery, opts.Format); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout())
	}

	return nil
}

func handleDotCommand(ctx context.Context, cmd *cobra.Command, db *sql.DB, catalog *query.Catalog, line string, opts *QueryOptions) bool {
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])

	switch command {
	case ".quit", ".exit":
		return true

	case ".help":
		printREPLHelp(cmd.OutOrStdout())
		return true

	case ".tables":
		if err := listTablesFromDB(ctx, cmd.OutOrStdout(), db, opts.Format); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
		return true

	case ".queries":
		for _, s := range query.Specs() {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  %-24s %s\n", s.Name, s.Description)
		}
		return true

	case ".run":
		if len(parts) < 2 {
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Usage: .run <query-name>")
			return true
		}
		rs, err := catalog.Execute(ctx, parts[1], opts.Limit)
		if err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			return true
		}
		if err := renderResultSet(cmd.OutOrStdout(), rs, opts.Format); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
		return true

	case ".clear":
		fmt.Print("\033[H\033[2J")
		return true

	default:
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Unknown command: %s (type .help for commands)\n", command)
		return true
	}
}

func printREPLHelp(w io.Writer) {
	help := `
Commands:
  .help           Show this help message
  .tables         List the tables in the database
  .queries        List the named analytics queries
  .run <name>     Run a named analytics query
  .clear          Clear the screen
  .quit / .exit   Exit the REPL

Tips:
  - SQL statements must end with a semicolon (;)
  - Use arrow keys to navigate history
  - Tab completion works for table and query names
`
	_, _ = fmt.Fprintln(w, help)
}

// newREPLCompleter creates a readline completer for table and query names.
func newREPLCompleter(ctx context.Context, db *sql.DB) *readline.PrefixCompleter {
	var items []readline.PrefixCompleterInterface

	rows, err := db.QueryContext(ctx, `
		SELECT name FROM sqlite_master
		WHERE type = 'table'
		AND name NOT LIKE 'sqlite_%'
		ORDER BY name`)
	if err == nil {
		defer func() { _ = rows.Close() }()
		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err == nil {
				items = append(items, readline.PcItem(name))
			}
		}
		// Ignore rows.Err() as this is for autocomplete, not critical
		_ = rows.Err()
	}

	runItems := make([]readline.PrefixCompleterInterface, 0, len(query.Specs()))
	for _, s := range query.Specs() {
		runItems = append(runItems, readline.PcItem(s.Name))
	}

	items = append(items,
		readline.PcItem(".help"),
		readline.PcItem(".tables"),
		readline.PcItem(".queries"),
		readline.PcItem(".run", runItems...),
		readline.PcItem(".clear"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)

	return readline.NewPrefixCompleter(items...)
}
