// Package model defines the booking record types shared across the pipeline.
package model

import "time"

// Booking status values as they appear in the source data.
const (
	StatusSuccess = "Success"

	// Substring tokens used to derive cancellation flags. A status may
	// contain both tokens; both flags are set in that case.
	TokenCustomer = "Customer"
	TokenDriver   = "Driver"
)

// RawBooking is one row as read from the source workbook. Every cell is kept
// as a string; the textual sentinel "null" has not been normalized yet and
// nothing has been type-coerced.
type RawBooking struct {
	BookingID      string
	Date           string
	Time           string
	CustomerID     string
	VehicleType    string
	PickupLocation string
	DropLocation   string
	BookingStatus  string
	VehicleTAT     string
	CustomerTAT    string
	CustomerCancelReason string
	DriverCancelReason   string
	IncompleteReason     string
	BookingValue   string
	PaymentMethod  string
	RideDistance   string
	DriverRating   string
	CustomerRating string
}

// Booking is a cleaned, typed record. Pointer fields are legitimately absent
// when the source had no value (or had the "null" sentinel, or failed
// coercion). Derived fields are computed by the pipeline and never read from
// the source.
type Booking struct {
	BookingID      string
	Date           time.Time
	Time           *string
	CustomerID     string
	VehicleType    string
	PickupLocation *string
	DropLocation   *string
	BookingStatus  string
	VehicleTAT     *float64
	CustomerTAT    *float64
	CustomerCancelReason *string
	DriverCancelReason   *string
	IncompleteReason     *string
	BookingValue   *float64
	PaymentMethod  *string
	RideDistance   *float64
	DriverRating   *float64
	CustomerRating *float64

	// Derived columns.
	Year             int
	Month            int
	Day              int
	Weekday          string
	Hour             *int
	IsSuccessful     bool
	IsCustomerCancel bool
	IsDriverCancel   bool
	RevenuePerKM     *float64
}

// Float returns a pointer to v. Convenience for building optional fields.
func Float(v float64) *float64 { return &v }

// String returns a pointer to s.
func String(s string) *string { return &s }

// Int returns a pointer to i.
func Int(i int) *int { return &i }
