package commands

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rideinsights-labs/rideinsights/internal/query"
)

func renderResultSet(w io.Writer, rs *query.ResultSet, format string) error {
	switch format {
	case "json":
		return renderJSON(w, rs.Columns, rs.Rows)
	case "csv":
		return renderCSV(w, rs.Columns, rs.Rows)
	case "md", "markdown":
		return renderMarkdown(w, rs.Columns, rs.Rows)
	default:
		return renderTable(w, rs.Columns, rs.Rows)
	}
}

// renderSQLRows renders a generic sql.Rows result, used by ad-hoc SQL.
func renderSQLRows(w io.Writer, rows *sql.Rows, format string) error {
	cols, err := rows.Columns()
	if err != nil {
		return err
	}

	var results [][]any
	for rows.Next() {
		values := make([]any, len(cols))
		valuePtrs := make([]any, len(cols))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return err
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		results = append(results, values)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	switch format {
	case "json":
		return renderJSON(w, cols, results)
	case "csv":
		return renderCSV(w, cols, results)
	case "md", "markdown":
		return renderMarkdown(w, cols, results)
	default:
		return renderTable(w, cols, results)
	}
}

func renderTable(w io.Writer, cols []string, results [][]any) error {
	if len(results) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	headerRow := make(table.Row, len(cols))
	for i, col := range cols {
		headerRow[i] = col
	}
	t.AppendHeader(headerRow)

	for _, result := range results {
		row := make(table.Row, len(cols))
		for i := range cols {
			row[i] = formatValue(result[i])
		}
		t.AppendRow(row)
	}

	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", len(results))
	return nil
}

func renderJSON(w io.Writer, cols []string, results [][]any) error {
	objects := make([]map[string]any, 0, len(results))
	for _, result := range results {
		obj := make(map[string]any, len(cols))
		for i, col := range cols {
			obj[col] = result[i]
		}
		objects = append(objects, obj)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(objects)
}

func renderCSV(w io.Writer, cols []string, results [][]any) error {
	_, _ = fmt.Fprintln(w, strings.Join(cols, ","))
	for _, result := range results {
		values := make([]string, len(cols))
		for i := range cols {
			values[i] = escapeCSV(formatValue(result[i]))
		}
		_, _ = fmt.Fprintln(w, strings.Join(values, ","))
	}
	return nil
}

func renderMarkdown(w io.Writer, cols []string, results [][]any) error {
	if len(results) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(cols, " | "))
	seps := make([]string, len(cols))
	for i := range seps {
		seps[i] = "---"
	}
	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(seps, " | "))

	for _, result := range results {
		values := make([]string, len(cols))
		for i := range cols {
			values[i] = formatValue(result[i])
		}
		_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(values, " | "))
	}
	return nil
}

func formatValue(v any) string {
	if v == nil {
		return "NULL"
	}
	return fmt.Sprintf("%v", v)
}

func escapeCSV(s string) string {
	if strings.ContainsAny(s, ",\"\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}
