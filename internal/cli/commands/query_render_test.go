package commands

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rideinsights-labs/rideinsights/internal/query"
)

func sampleResultSet() *query.ResultSet {
	return &query.ResultSet{
		Columns: []string{"vehicle_type", "total_bookings", "total_revenue"},
		Rows: [][]any{
			{"Prime Sedan", 12, 4300.5},
			{"Bike", 8, nil},
		},
	}
}

func TestRenderTable(t *testing.T) {
	var buf strings.Builder
	require.NoError(t, renderResultSet(&buf, sampleResultSet(), "table"))

	out := buf.String()
	assert.Contains(t, out, "VEHICLE_TYPE")
	assert.Contains(t, out, "Prime Sedan")
	assert.Contains(t, out, "NULL")
	assert.Contains(t, out, "(2 rows)")
}

func TestRenderTableEmpty(t *testing.T) {
	var buf strings.Builder
	rs := &query.ResultSet{Columns: []string{"a"}}
	require.NoError(t, renderResultSet(&buf, rs, "table"))
	assert.Equal(t, "(0 rows)\n", buf.String())
}

func TestRenderJSON(t *testing.T) {
	var buf strings.Builder
	require.NoError(t, renderResultSet(&buf, sampleResultSet(), "json"))

	out := buf.String()
	assert.Contains(t, out, `"vehicle_type": "Prime Sedan"`)
	assert.Contains(t, out, `"total_revenue": null`)
}

func TestRenderCSV(t *testing.T) {
	var buf strings.Builder
	require.NoError(t, renderResultSet(&buf, sampleResultSet(), "csv"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "vehicle_type,total_bookings,total_revenue", lines[0])
	assert.Equal(t, "Prime Sedan,12,4300.5", lines[1])
	assert.Equal(t, "Bike,8,NULL", lines[2])
}

func TestRenderCSVEscaping(t *testing.T) {
	rs := &query.ResultSet{
		Columns: []string{"reason", "count"},
		Rows:    [][]any{{`Driver said "no, too far"`, 3}},
	}
	var buf strings.Builder
	require.NoError(t, renderResultSet(&buf, rs, "csv"))
	assert.Contains(t, buf.String(), `"Driver said ""no, too far"""`)
}

func TestRenderMarkdown(t *testing.T) {
	var buf strings.Builder
	require.NoError(t, renderResultSet(&buf, sampleResultSet(), "md"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "| vehicle_type | total_bookings | total_revenue |", lines[0])
	assert.Equal(t, "| --- | --- | --- |", lines[1])
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "NULL", formatValue(nil))
	assert.Equal(t, "42", formatValue(42))
	assert.Equal(t, "abc", formatValue("abc"))
}
