package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T) string {
	t.Helper()

	header := []any{
		"Booking_ID", "Date", "Time", "Customer_ID", "Vehicle_Type",
		"Pickup_Location", "Drop_Location", "Booking_Status", "V_TAT", "C_TAT",
		"Canceled_Rides_by_Customer", "Canceled_Rides_by_Driver",
		"Incomplete_Rides_Reason", "Booking_Value", "Payment_Method",
		"Ride_Distance", "Driver_Ratings", "Customer_Rating",
	}
	rows := [][]any{
		header,
		{"CNR1", "2024-07-01", "09:15:00", "CID1", "Bike", "A", "B", "Success", "4", "8", "null", "null", "null", "120", "UPI", "6", "4.5", "4.7"},
		{"CNR2", "2024-07-02", "10:00:00", "CID2", "Auto", "B", "C", "Canceled by Driver", "null", "null", "null", "Personal issue", "null", "null", "null", "null", "null", "null"},
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	idx, err := f.NewSheet("July")
	require.NoError(t, err)
	f.SetActiveSheet(idx)
	for r, row := range rows {
		for c, v := range row {
			cellName, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("July", cellName, v))
		}
	}

	path := filepath.Join(t.TempDir(), "rides.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRunThenQuery(t *testing.T) {
	t.Chdir(t.TempDir())
	source := writeWorkbook(t)
	dbPath := filepath.Join(t.TempDir(), "rides.db")

	out, err := execute(t, "run", "--source", source, "--sheet", "July", "--database", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "input rows:   2")
	assert.Contains(t, out, "cleaned rows: 2")

	out, err = execute(t, "query", "total-bookings", "--database", dbPath, "--format", "csv")
	require.NoError(t, err)
	assert.Contains(t, out, "total_bookings")
	assert.Contains(t, out, "2")

	out, err = execute(t, "query", "sql", "SELECT booking_id FROM rides ORDER BY booking_id", "--database", dbPath, "--format", "csv")
	require.NoError(t, err)
	assert.Contains(t, out, "CNR1")
	assert.Contains(t, out, "CNR2")

	out, err = execute(t, "runs", "--database", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "completed")

	out, err = execute(t, "validate", "--database", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "All integrity checks passed")
}

func TestQueryWithoutDatabase(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := execute(t, "query", "overview",
		"--database", filepath.Join(t.TempDir(), "missing.db"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database not found")
}

func TestQueryList(t *testing.T) {
	t.Chdir(t.TempDir())

	out, err := execute(t, "query", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "top-customers")
	assert.Contains(t, out, "overview")
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "rideinsights")
}
