package pipeline

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rideinsights-labs/rideinsights/internal/model"
)

func validRaw() model.RawBooking {
	return model.RawBooking{
		BookingID:      "CNR100001",
		Date:           "2024-07-15",
		Time:           "18:30:00",
		CustomerID:     "CID4321",
		VehicleType:    "Prime Sedan",
		PickupLocation: "HSR Layout",
		DropLocation:   "Indiranagar",
		BookingStatus:  "Success",
		BookingValue:   "450.5",
		PaymentMethod:  "UPI",
		RideDistance:   "12.3",
		DriverRating:   "4.5",
		CustomerRating: "4.8",
	}
}

func TestCleanValidRow(t *testing.T) {
	res := Clean([]model.RawBooking{validRaw()}, CleanOptions{})
	require.Len(t, res.Bookings, 1)
	require.Zero(t, res.Dropped)

	b := res.Bookings[0]
	assert.Equal(t, "CNR100001", b.BookingID)
	assert.Equal(t, "2024-07-15", b.Date.Format("2006-01-02"))
	require.NotNil(t, b.Time)
	assert.Equal(t, "18:30:00", *b.Time)
	assert.Equal(t, "Success", b.BookingStatus)
	require.NotNil(t, b.BookingValue)
	assert.InDelta(t, 450.5, *b.BookingValue, 1e-9)
	require.NotNil(t, b.PaymentMethod)
	assert.Equal(t, "UPI", *b.PaymentMethod)
}

func TestCleanNullSentinel(t *testing.T) {
	raw := validRaw()
	raw.DriverRating = "null"
	raw.CustomerRating = "NULL"
	raw.PickupLocation = "  null  "

	res := Clean([]model.RawBooking{raw}, CleanOptions{})
	require.Len(t, res.Bookings, 1)

	b := res.Bookings[0]
	assert.Nil(t, b.DriverRating)
	assert.Nil(t, b.CustomerRating)
	assert.Nil(t, b.PickupLocation)
}

func TestCleanUnparsableNumberBecomesAbsent(t *testing.T) {
	raw := validRaw()
	raw.BookingValue = "not-a-number"

	res := Clean([]model.RawBooking{raw}, CleanOptions{})
	require.Len(t, res.Bookings, 1)
	assert.Nil(t, res.Bookings[0].BookingValue)
}

func TestCleanDistanceFillForNonSuccess(t *testing.T) {
	raw := validRaw()
	raw.BookingStatus = "Canceled by Driver"
	raw.RideDistance = "null"
	raw.PaymentMethod = "null"

	res := Clean([]model.RawBooking{raw}, CleanOptions{})
	require.Len(t, res.Bookings, 1)

	b := res.Bookings[0]
	require.NotNil(t, b.RideDistance)
	assert.Zero(t, *b.RideDistance)
	// Payment fill only applies to successful rides.
	assert.Nil(t, b.PaymentMethod)
}

func TestCleanPaymentFillForSuccess(t *testing.T) {
	raw := validRaw()
	raw.PaymentMethod = ""

	res := Clean([]model.RawBooking{raw}, CleanOptions{})
	require.Len(t, res.Bookings, 1)
	require.NotNil(t, res.Bookings[0].PaymentMethod)
	assert.Equal(t, "Cash", *res.Bookings[0].PaymentMethod)

	res = Clean([]model.RawBooking{raw}, CleanOptions{PaymentFallback: "Unknown"})
	require.Len(t, res.Bookings, 1)
	assert.Equal(t, "Unknown", *res.Bookings[0].PaymentMethod)
}

func TestCleanDropsNegativeValues(t *testing.T) {
	negValue := validRaw()
	negValue.BookingValue = "-10"

	negDistance := validRaw()
	negDistance.RideDistance = "-1.5"

	res := Clean([]model.RawBooking{validRaw(), negValue, negDistance}, CleanOptions{})
	assert.Len(t, res.Bookings, 1)
	assert.Equal(t, 2, res.Dropped)
	assert.Equal(t, 1, res.DroppedNegativeValue)
	assert.Equal(t, 1, res.DroppedNegativeDistance)
}

func TestCleanDropsUnparsableDate(t *testing.T) {
	badDate := validRaw()
	badDate.Date = "yesterday"

	noDate := validRaw()
	noDate.Date = "null"

	res := Clean([]model.RawBooking{badDate, noDate}, CleanOptions{})
	assert.Empty(t, res.Bookings)
	assert.Equal(t, 2, res.Dropped)
	assert.Equal(t, 2, res.DroppedBadDate)
}

func TestCleanDropsDuplicateBookingIDs(t *testing.T) {
	first := validRaw()
	first.VehicleType = "Bike"

	repeat := validRaw()
	repeat.VehicleType = "Auto"

	other := validRaw()
	other.BookingID = "CNR100002"

	res := Clean([]model.RawBooking{first, repeat, other}, CleanOptions{})
	require.Len(t, res.Bookings, 2)
	assert.Equal(t, 1, res.Dropped)
	assert.Equal(t, 1, res.DroppedDuplicateID)

	// The first occurrence wins.
	assert.Equal(t, "CNR100001", res.Bookings[0].BookingID)
	assert.Equal(t, "Bike", res.Bookings[0].VehicleType)
	assert.Equal(t, "CNR100002", res.Bookings[1].BookingID)
}

func TestCleanConservation(t *testing.T) {
	rows := []model.RawBooking{validRaw(), validRaw(), validRaw(), validRaw()}
	rows[1].BookingValue = "-5"
	rows[2].Date = "bogus"
	rows[3].BookingID = rows[0].BookingID

	res := Clean(rows, CleanOptions{})
	assert.Equal(t, len(rows), len(res.Bookings)+res.Dropped)
	assert.Equal(t, res.Dropped,
		res.DroppedNegativeValue+res.DroppedNegativeDistance+
			res.DroppedBadDate+res.DroppedDuplicateID)
}

// rawify renders a cleaned booking back into source form, so a second
// cleaning pass can run over already-clean data.
func rawify(b model.Booking) model.RawBooking {
	str := func(p *string) string {
		if p == nil {
			return ""
		}
		return *p
	}
	num := func(p *float64) string {
		if p == nil {
			return ""
		}
		return strconv.FormatFloat(*p, 'f', -1, 64)
	}
	return model.RawBooking{
		BookingID:            b.BookingID,
		Date:                 b.Date.Format("2006-01-02"),
		Time:                 str(b.Time),
		CustomerID:           b.CustomerID,
		VehicleType:          b.VehicleType,
		PickupLocation:       str(b.PickupLocation),
		DropLocation:         str(b.DropLocation),
		BookingStatus:        b.BookingStatus,
		VehicleTAT:           num(b.VehicleTAT),
		CustomerTAT:          num(b.CustomerTAT),
		CustomerCancelReason: str(b.CustomerCancelReason),
		DriverCancelReason:   str(b.DriverCancelReason),
		IncompleteReason:     str(b.IncompleteReason),
		BookingValue:         num(b.BookingValue),
		PaymentMethod:        str(b.PaymentMethod),
		RideDistance:         num(b.RideDistance),
		DriverRating:         num(b.DriverRating),
		CustomerRating:       num(b.CustomerRating),
	}
}

func TestCleanIdempotent(t *testing.T) {
	rows := []model.RawBooking{validRaw(), validRaw(), validRaw()}
	rows[1].BookingID = "CNR100002"
	rows[2].BookingID = "CNR100003"
	rows[1].BookingStatus = "Canceled by Customer"
	rows[1].CustomerCancelReason = "Driver asked to cancel"
	rows[1].RideDistance = "null"
	rows[1].PaymentMethod = "null"
	rows[2].PaymentMethod = ""
	rows[2].DriverRating = "null"

	first := Clean(rows, CleanOptions{})
	require.Zero(t, first.Dropped)

	again := make([]model.RawBooking, len(first.Bookings))
	for i, b := range first.Bookings {
		again[i] = rawify(b)
	}

	second := Clean(again, CleanOptions{})
	require.Zero(t, second.Dropped)
	assert.Equal(t, first.Bookings, second.Bookings)
}
