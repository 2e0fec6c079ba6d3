package pipeline

import (
	"strings"

	"github.com/rideinsights-labs/rideinsights/internal/model"
)

// Derive computes the derived columns for a cleaned booking and returns the
// enriched copy. It is a pure function: the input is not mutated and no
// derived field depends on anything outside the row.
func Derive(b model.Booking) model.Booking {
	b.Year = b.Date.Year()
	b.Month = int(b.Date.Month())
	b.Day = b.Date.Day()
	b.Weekday = b.Date.Weekday().String()

	// Hour-of-day is undefined when the time cell was absent or unparsable.
	b.Hour = nil
	if b.Time != nil {
		if t, ok := parseTimeOfDay(*b.Time); ok {
			b.Hour = model.Int(t.Hour())
		}
	}

	b.IsSuccessful = b.BookingStatus == model.StatusSuccess

	// Independent substring tests; a status naming both parties sets both
	// flags. Reports count such rows in both breakdowns.
	b.IsCustomerCancel = strings.Contains(b.BookingStatus, model.TokenCustomer)
	b.IsDriverCancel = strings.Contains(b.BookingStatus, model.TokenDriver)

	// Revenue per distance unit is defined only for successful rides that
	// actually covered distance. The distance > 0 check doubles as the
	// division-by-zero guard.
	b.RevenuePerKM = nil
	if b.IsSuccessful && b.BookingValue != nil && b.RideDistance != nil && *b.RideDistance > 0 {
		b.RevenuePerKM = model.Float(*b.BookingValue / *b.RideDistance)
	}

	return b
}

// DeriveAll maps Derive over a cleaned table.
func DeriveAll(bookings []model.Booking) []model.Booking {
	out := make([]model.Booking, len(bookings))
	for i, b := range bookings {
		out[i] = Derive(b)
	}
	return out
}
