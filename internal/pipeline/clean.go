// Package pipeline implements the batch transformation from raw workbook
// rows to cleaned, derived booking records, and orchestrates a full run
// against the store.
package pipeline

import (
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/rideinsights-labs/rideinsights/internal/model"
)

// nullSentinel is the textual value the source uses for missing data.
// After normalization it is indistinguishable from a truly empty cell.
const nullSentinel = "null"

// DefaultPaymentFallback is assumed for successful rides with no recorded
// payment method.
const DefaultPaymentFallback = "Cash"

// Date layouts accepted from the workbook, tried in order.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01-02-2006",
	"02-01-2006 15:04:05",
}

// Time-of-day layouts accepted from the workbook.
var timeLayouts = []string{
	"15:04:05",
	"15:04",
	"3:04:05 PM",
	"3:04 PM",
}

// CleanOptions tunes the cleaning pass.
type CleanOptions struct {
	// PaymentFallback replaces an absent payment method on successful rows.
	// Empty means DefaultPaymentFallback.
	PaymentFallback string

	// Logger receives drop accounting. Nil discards.
	Logger *slog.Logger
}

// CleanResult is the outcome of a cleaning pass. Conservation holds:
// len(Bookings) + Dropped equals the input row count.
type CleanResult struct {
	Bookings []model.Booking
	Dropped  int

	// Drop accounting by cause, for logging and run history.
	DroppedNegativeValue    int
	DroppedNegativeDistance int
	DroppedBadDate          int
	DroppedDuplicateID      int
}

// Clean applies sentinel normalization, type coercion, business null-filling
// and row validation to raw records, in that order. It is deterministic and
// idempotent: cleaning already-clean data drops nothing and changes nothing.
//
// Rows are dropped, never repaired, when booking value or ride distance is
// present and negative, when the date cannot be coerced to a calendar date,
// or when the booking id repeats an earlier row's (the first occurrence is
// kept). Dropped rows are counted, not errors.
func Clean(raw []model.RawBooking, opts CleanOptions) CleanResult {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	fallback := opts.PaymentFallback
	if fallback == "" {
		fallback = DefaultPaymentFallback
	}

	res := CleanResult{Bookings: make([]model.Booking, 0, len(raw))}
	seen := make(map[string]struct{}, len(raw))

	for _, r := range raw {
		b, ok, cause := cleanRow(r, fallback)
		if !ok {
			res.Dropped++
			switch cause {
			case dropNegativeValue:
				res.DroppedNegativeValue++
			case dropNegativeDistance:
				res.DroppedNegativeDistance++
			case dropBadDate:
				res.DroppedBadDate++
			}
			continue
		}
		if _, dup := seen[b.BookingID]; dup {
			res.Dropped++
			res.DroppedDuplicateID++
			continue
		}
		seen[b.BookingID] = struct{}{}
		res.Bookings = append(res.Bookings, b)
	}

	if res.Dropped > 0 {
		logger.Info("rows dropped during cleaning",
			slog.Int("dropped", res.Dropped),
			slog.Int("negative_value", res.DroppedNegativeValue),
			slog.Int("negative_distance", res.DroppedNegativeDistance),
			slog.Int("bad_date", res.DroppedBadDate),
			slog.Int("duplicate_id", res.DroppedDuplicateID))
	}

	return res
}

type dropCause int

const (
	dropNone dropCause = iota
	dropNegativeValue
	dropNegativeDistance
	dropBadDate
)

func cleanRow(r model.RawBooking, paymentFallback string) (model.Booking, bool, dropCause) {
	b := model.Booking{
		BookingID:            normalize(r.BookingID),
		CustomerID:           normalize(r.CustomerID),
		VehicleType:          normalize(r.VehicleType),
		BookingStatus:        normalize(r.BookingStatus),
		Time:                 optString(r.Time),
		PickupLocation:       optString(r.PickupLocation),
		DropLocation:         optString(r.DropLocation),
		CustomerCancelReason: optString(r.CustomerCancelReason),
		DriverCancelReason:   optString(r.DriverCancelReason),
		IncompleteReason:     optString(r.IncompleteReason),
		PaymentMethod:        optString(r.PaymentMethod),
		VehicleTAT:           optFloat(r.VehicleTAT),
		CustomerTAT:          optFloat(r.CustomerTAT),
		BookingValue:         optFloat(r.BookingValue),
		RideDistance:         optFloat(r.RideDistance),
		DriverRating:         optFloat(r.DriverRating),
		CustomerRating:       optFloat(r.CustomerRating),
	}

	date, ok := parseDate(normalize(r.Date))
	if !ok {
		return model.Booking{}, false, dropBadDate
	}
	b.Date = date

	// Business null-filling. A cancelled or incomplete ride with no recorded
	// distance travelled none; a completed ride paid somehow.
	if b.BookingStatus != model.StatusSuccess && b.RideDistance == nil {
		b.RideDistance = model.Float(0)
	}
	if b.BookingStatus == model.StatusSuccess && b.PaymentMethod == nil {
		b.PaymentMethod = model.String(paymentFallback)
	}

	// Present-and-negative values invalidate the row. Absent passes.
	if b.BookingValue != nil && *b.BookingValue < 0 {
		return model.Booking{}, false, dropNegativeValue
	}
	if b.RideDistance != nil && *b.RideDistance < 0 {
		return model.Booking{}, false, dropNegativeDistance
	}

	return b, true, dropNone
}

// normalize trims whitespace and maps the "null" sentinel to empty.
func normalize(s string) string {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, nullSentinel) {
		return ""
	}
	return s
}

func optString(s string) *string {
	s = normalize(s)
	if s == "" {
		return nil
	}
	return &s
}

// optFloat coerces a cell to a number, mapping unparsable values to absent
// rather than failing.
func optFloat(s string) *float64 {
	s = normalize(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			// Truncate to the calendar date.
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

func parseTimeOfDay(s string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
