// Package loader reads the ride bookings workbook into raw in-memory records.
package loader

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/rideinsights-labs/rideinsights/internal/model"
)

// ErrLoad marks terminal source-loading failures. A run that hits one aborts
// before anything is written to the store.
var ErrLoad = errors.New("load error")

// DefaultMaxRows caps the number of data rows accepted from a workbook before
// committing to full processing.
const DefaultMaxRows = 5_000_000

// Logical column headers expected in the source sheet. Cancellation-reason
// and incomplete-ride columns are optional: older exports lack them.
var requiredColumns = []string{
	"Booking_ID",
	"Date",
	"Time",
	"Customer_ID",
	"Vehicle_Type",
	"Booking_Status",
	"Booking_Value",
	"Payment_Method",
	"Ride_Distance",
	"Driver_Ratings",
	"Customer_Rating",
}

// Options configures a workbook load.
type Options struct {
	// Sheet is the worksheet holding the reporting period, e.g. "July".
	Sheet string

	// MaxRows rejects workbooks with more data rows than this.
	// Zero means DefaultMaxRows.
	MaxRows int

	// Logger receives load progress. Nil discards.
	Logger *slog.Logger
}

// Load reads one sheet of an xlsx workbook into raw booking records.
// Every cell is kept as its string form; no cleaning happens here.
//
// It fails with an error wrapping ErrLoad when the file is missing or
// unreadable, the sheet does not exist, a required header is absent, or the
// sheet has zero data rows.
func Load(path string, opts Options) ([]model.RawBooking, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	maxRows := opts.MaxRows
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", ErrLoad, path, err)
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(opts.Sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: reading sheet %q: %v", ErrLoad, opts.Sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: sheet %q is empty", ErrLoad, opts.Sheet)
	}

	colIndex, err := mapHeader(rows[0])
	if err != nil {
		return nil, err
	}

	dataRows := rows[1:]
	if len(dataRows) == 0 {
		return nil, fmt.Errorf("%w: sheet %q has a header but zero data rows", ErrLoad, opts.Sheet)
	}
	if len(dataRows) > maxRows {
		return nil, fmt.Errorf("%w: sheet %q has %d rows, refusing more than %d", ErrLoad, opts.Sheet, len(dataRows), maxRows)
	}

	records := make([]model.RawBooking, 0, len(dataRows))
	for _, row := range dataRows {
		if isBlankRow(row) {
			continue
		}
		records = append(records, model.RawBooking{
			BookingID:            cell(row, colIndex, "Booking_ID"),
			Date:                 cell(row, colIndex, "Date"),
			Time:                 cell(row, colIndex, "Time"),
			CustomerID:           cell(row, colIndex, "Customer_ID"),
			VehicleType:          cell(row, colIndex, "Vehicle_Type"),
			PickupLocation:       cell(row, colIndex, "Pickup_Location"),
			DropLocation:         cell(row, colIndex, "Drop_Location"),
			BookingStatus:        cell(row, colIndex, "Booking_Status"),
			VehicleTAT:           cell(row, colIndex, "V_TAT"),
			CustomerTAT:          cell(row, colIndex, "C_TAT"),
			CustomerCancelReason: cell(row, colIndex, "Canceled_Rides_by_Customer"),
			DriverCancelReason:   cell(row, colIndex, "Canceled_Rides_by_Driver"),
			IncompleteReason:     cell(row, colIndex, "Incomplete_Rides_Reason"),
			BookingValue:         cell(row, colIndex, "Booking_Value"),
			PaymentMethod:        cell(row, colIndex, "Payment_Method"),
			RideDistance:         cell(row, colIndex, "Ride_Distance"),
			DriverRating:         cell(row, colIndex, "Driver_Ratings"),
			CustomerRating:       cell(row, colIndex, "Customer_Rating"),
		})
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("%w: sheet %q contains only blank rows", ErrLoad, opts.Sheet)
	}

	logger.Info("workbook loaded",
		slog.String("path", path),
		slog.String("sheet", opts.Sheet),
		slog.Int("rows", len(records)))

	return records, nil
}

// mapHeader maps logical column names to their positions in the header row.
func mapHeader(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("%w: required column %q missing from header", ErrLoad, col)
		}
	}
	return idx, nil
}

// cell returns the trimmed value at the named column, or "" when the column
// is absent or the row is ragged (excelize drops trailing empty cells).
func cell(row []string, colIndex map[string]int, name string) string {
	i, ok := colIndex[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func isBlankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
