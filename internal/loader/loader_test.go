package loader

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var workbookHeader = []any{
	"Booking_ID", "Date", "Time", "Customer_ID", "Vehicle_Type",
	"Pickup_Location", "Drop_Location", "Booking_Status", "V_TAT", "C_TAT",
	"Canceled_Rides_by_Customer", "Canceled_Rides_by_Driver",
	"Incomplete_Rides_Reason", "Booking_Value", "Payment_Method",
	"Ride_Distance", "Driver_Ratings", "Customer_Rating",
}

func writeWorkbook(t *testing.T, sheet string, rows [][]any) string {
	t.Helper()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	idx, err := f.NewSheet(sheet)
	require.NoError(t, err)
	f.SetActiveSheet(idx)

	for r, row := range rows {
		for c, v := range row {
			cellName, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, cellName, v))
		}
	}

	path := filepath.Join(t.TempDir(), "rides.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func dataRow(id, status string) []any {
	return []any{
		id, "2024-07-15", "18:30:00", "CID4321", "Prime Sedan",
		"HSR Layout", "Indiranagar", status, "5", "10",
		"null", "null", "null", "450.5", "UPI", "12.3", "4.5", "4.8",
	}
}

func TestLoadReadsRows(t *testing.T) {
	path := writeWorkbook(t, "July", [][]any{
		workbookHeader,
		dataRow("CNR100001", "Success"),
		dataRow("CNR100002", "Canceled by Driver"),
	})

	records, err := Load(path, Options{Sheet: "July"})
	require.NoError(t, err)
	require.Len(t, records, 2)

	r := records[0]
	assert.Equal(t, "CNR100001", r.BookingID)
	assert.Equal(t, "2024-07-15", r.Date)
	assert.Equal(t, "Prime Sedan", r.VehicleType)
	assert.Equal(t, "Success", r.BookingStatus)
	assert.Equal(t, "450.5", r.BookingValue)
	assert.Equal(t, "null", r.CustomerCancelReason)
	assert.Equal(t, "Canceled by Driver", records[1].BookingStatus)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.xlsx"), Options{Sheet: "July"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLoad)
}

func TestLoadMissingSheet(t *testing.T) {
	path := writeWorkbook(t, "July", [][]any{workbookHeader, dataRow("CNR1", "Success")})

	_, err := Load(path, Options{Sheet: "August"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLoad)
}

func TestLoadMissingRequiredColumn(t *testing.T) {
	header := make([]any, 0, len(workbookHeader))
	for _, h := range workbookHeader {
		if h == "Booking_Status" {
			continue
		}
		header = append(header, h)
	}
	path := writeWorkbook(t, "July", [][]any{header, dataRow("CNR1", "Success")})

	_, err := Load(path, Options{Sheet: "July"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLoad)
	assert.Contains(t, err.Error(), "Booking_Status")
}

func TestLoadHeaderWithoutDataRows(t *testing.T) {
	path := writeWorkbook(t, "July", [][]any{workbookHeader})

	_, err := Load(path, Options{Sheet: "July"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLoad)
}

func TestLoadSkipsBlankRows(t *testing.T) {
	blank := make([]any, len(workbookHeader))
	for i := range blank {
		blank[i] = ""
	}
	path := writeWorkbook(t, "July", [][]any{
		workbookHeader,
		dataRow("CNR100001", "Success"),
		blank,
		dataRow("CNR100002", "Success"),
	})

	records, err := Load(path, Options{Sheet: "July"})
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestLoadOnlyBlankRows(t *testing.T) {
	blank := make([]any, len(workbookHeader))
	for i := range blank {
		blank[i] = ""
	}
	path := writeWorkbook(t, "July", [][]any{workbookHeader, blank, blank})

	_, err := Load(path, Options{Sheet: "July"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLoad)
}

func TestLoadMaxRows(t *testing.T) {
	path := writeWorkbook(t, "July", [][]any{
		workbookHeader,
		dataRow("CNR100001", "Success"),
		dataRow("CNR100002", "Success"),
	})

	_, err := Load(path, Options{Sheet: "July", MaxRows: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLoad)

	records, err := Load(path, Options{Sheet: "July", MaxRows: 2})
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestLoadRaggedRow(t *testing.T) {
	// Trailing cells omitted entirely; excelize also trims them on read.
	short := []any{"CNR100001", "2024-07-15", "18:30:00", "CID4321", "Prime Sedan"}
	path := writeWorkbook(t, "July", [][]any{workbookHeader, short})

	records, err := Load(path, Options{Sheet: "July"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "CNR100001", records[0].BookingID)
	assert.Empty(t, records[0].BookingStatus)
	assert.Empty(t, records[0].CustomerRating)
}
