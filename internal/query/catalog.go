// Package query is the fixed catalog of read-only reporting queries over the
// persisted store. Every query is a pure function of current persisted state;
// none mutates anything. Parameter validation fails fast before touching the
// database.
package query

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrInvalidParam marks a malformed query parameter, e.g. a non-positive
// row limit.
var ErrInvalidParam = errors.New("invalid query parameter")

// Catalog executes the reporting queries against an open store database.
// Consumers normally pass a read-only connection (store.OpenReadOnly).
type Catalog struct {
	db *sql.DB
}

// NewCatalog wraps db in the query catalog.
func NewCatalog(db *sql.DB) *Catalog {
	return &Catalog{db: db}
}

// TotalBookings returns the number of rows in the fact table.
func (c *Catalog) TotalBookings(ctx context.Context) (int, error) {
	var n int
	err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM rides`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("total bookings: %w", err)
	}
	return n, nil
}

// SuccessRate returns the share of successful bookings in percent, rounded
// to 2 decimal places. Zero rows yields a zero rate.
func (c *Catalog) SuccessRate(ctx context.Context) (float64, error) {
	var rate sql.NullFloat64
	err := c.db.QueryRowContext(ctx,
		`SELECT ROUND(AVG(is_successful) * 100.0, 2) FROM rides`).Scan(&rate)
	if err != nil {
		return 0, fmt.Errorf("success rate: %w", err)
	}
	return rate.Float64, nil
}

// VehiclePerformance is one row of the per-vehicle-type report.
type VehiclePerformance struct {
	VehicleType        string
	TotalBookings      int
	SuccessfulBookings int
	SuccessRate        float64
	TotalRevenue       float64
	AvgBookingValue    *float64
	AvgDistance        *float64
	AvgDriverRating    *float64
	AvgCustomerRating  *float64
}

// VehiclePerformance reports the precomputed vehicle aggregates, highest
// revenue first.
func (c *Catalog) VehiclePerformance(ctx context.Context) ([]VehiclePerformance, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT
			vehicle_type,
			total_bookings,
			successful_bookings,
			ROUND(successful_bookings * 100.0 / total_bookings, 2),
			COALESCE(total_revenue, 0),
			avg_booking_value,
			avg_distance,
			avg_driver_rating,
			avg_customer_rating
		FROM vehicle_summary
		ORDER BY total_revenue DESC, vehicle_type`)
	if err != nil {
		return nil, fmt.Errorf("vehicle performance: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []VehiclePerformance
	for rows.Next() {
		var v VehiclePerformance
		if err := rows.Scan(&v.VehicleType, &v.TotalBookings, &v.SuccessfulBookings,
			&v.SuccessRate, &v.TotalRevenue, &v.AvgBookingValue, &v.AvgDistance,
			&v.AvgDriverRating, &v.AvgCustomerRating); err != nil {
			return nil, fmt.Errorf("vehicle performance: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// CustomerSpend is one row of the top-customers report.
type CustomerSpend struct {
	CustomerID         string
	TotalBookings      int
	SuccessfulBookings int
	TotalSpent         float64
	AvgRatingGiven     *float64
	LastBookingDate    string
}

// TopCustomers returns the limit highest-spending customers. Ties on spend
// break deterministically on customer id so repeated runs return the same
// rows. A non-positive limit fails fast.
func (c *Catalog) TopCustomers(ctx context.Context, limit int) ([]CustomerSpend, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive, got %d", ErrInvalidParam, limit)
	}

	rows, err := c.db.QueryContext(ctx, `
		SELECT
			customer_id,
			total_bookings,
			successful_bookings,
			COALESCE(total_spent, 0),
			avg_rating_given,
			last_booking_date
		FROM customer_summary
		WHERE total_spent > 0
		ORDER BY total_spent DESC, customer_id ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("top customers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []CustomerSpend
	for rows.Next() {
		var cs CustomerSpend
		if err := rows.Scan(&cs.CustomerID, &cs.TotalBookings, &cs.SuccessfulBookings,
			&cs.TotalSpent, &cs.AvgRatingGiven, &cs.LastBookingDate); err != nil {
			return nil, fmt.Errorf("top customers: %w", err)
		}
		out = append(out, cs)
	}
	return out, rows.Err()
}

// StatusCount is one row of the cancellation breakdown.
type StatusCount struct {
	Category   string
	Count      int
	Percentage float64
}

// CancellationBreakdown groups bookings into successful / cancelled-by-
// customer / cancelled-by-driver / other. Flags are not mutually exclusive
// in the source; a status naming both parties is bucketed as customer here,
// while the flag-based reason reports count it on both sides.
func (c *Catalog) CancellationBreakdown(ctx context.Context) ([]StatusCount, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT
			CASE
				WHEN is_successful = 1 THEN 'Successful'
				WHEN is_customer_cancel = 1 THEN 'Cancelled by Customer'
				WHEN is_driver_cancel = 1 THEN 'Cancelled by Driver'
				ELSE 'Other'
			END AS category,
			COUNT(*) AS cnt,
			ROUND(COUNT(*) * 100.0 / (SELECT COUNT(*) FROM rides), 2) AS pct
		FROM rides
		GROUP BY category
		ORDER BY cnt DESC, category`)
	if err != nil {
		return nil, fmt.Errorf("cancellation breakdown: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []StatusCount
	for rows.Next() {
		var sc StatusCount
		if err := rows.Scan(&sc.Category, &sc.Count, &sc.Percentage); err != nil {
			return nil, fmt.Errorf("cancellation breakdown: %w", err)
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

// ReasonCount is one row of a cancellation-reason report.
type ReasonCount struct {
	Reason string
	Count  int
}

// CustomerCancelReasons counts cancellation reasons over rows flagged as
// customer cancellations. Missing reasons report as "Not Specified".
func (c *Catalog) CustomerCancelReasons(ctx context.Context) ([]ReasonCount, error) {
	return c.reasonCounts(ctx, "customer_cancel_reason", "is_customer_cancel")
}

// DriverCancelReasons counts cancellation reasons over rows flagged as
// driver cancellations.
func (c *Catalog) DriverCancelReasons(ctx context.Context) ([]ReasonCount, error) {
	return c.reasonCounts(ctx, "driver_cancel_reason", "is_driver_cancel")
}

func (c *Catalog) reasonCounts(ctx context.Context, reasonCol, flagCol string) ([]ReasonCount, error) {
	// Column names come from the two callers above, never from input.
	q := fmt.Sprintf(`
		SELECT COALESCE(%s, 'Not Specified') AS reason, COUNT(*) AS cnt
		FROM rides
		WHERE %s = 1
		GROUP BY reason
		ORDER BY cnt DESC, reason`, reasonCol, flagCol)

	rows, err := c.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("cancel reasons: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []ReasonCount
	for rows.Next() {
		var rc ReasonCount
		if err := rows.Scan(&rc.Reason, &rc.Count); err != nil {
			return nil, fmt.Errorf("cancel reasons: %w", err)
		}
		out = append(out, rc)
	}
	return out, rows.Err()
}

// PaymentShare is one row of the payment-method revenue report.
type PaymentShare struct {
	PaymentMethod   string
	Transactions    int
	TotalRevenue    float64
	AvgTransaction  float64
	RevenueSharePct float64
}

// PaymentRevenueShare reports successful-ride revenue per payment method and
// each method's share of that revenue. A group whose rides all lack a booking
// value reports zero revenue; successful rows with an absent value are legal
// pipeline output.
func (c *Catalog) PaymentRevenueShare(ctx context.Context) ([]PaymentShare, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT
			payment_method,
			COUNT(*) AS transactions,
			ROUND(COALESCE(SUM(booking_value), 0), 2) AS total_revenue,
			ROUND(COALESCE(AVG(booking_value), 0), 2) AS avg_transaction,
			ROUND(COALESCE(SUM(booking_value) * 100.0 /
				(SELECT SUM(booking_value) FROM rides WHERE is_successful = 1), 0), 2) AS share_pct
		FROM rides
		WHERE is_successful = 1 AND payment_method IS NOT NULL
		GROUP BY payment_method
		ORDER BY total_revenue DESC, payment_method`)
	if err != nil {
		return nil, fmt.Errorf("payment revenue share: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []PaymentShare
	for rows.Next() {
		var ps PaymentShare
		if err := rows.Scan(&ps.PaymentMethod, &ps.Transactions, &ps.TotalRevenue,
			&ps.AvgTransaction, &ps.RevenueSharePct); err != nil {
			return nil, fmt.Errorf("payment revenue share: %w", err)
		}
		out = append(out, ps)
	}
	return out, rows.Err()
}

// RatingBucket is one row of a rating distribution.
type RatingBucket struct {
	VehicleType       string
	AvgDriverRating   *float64
	AvgCustomerRating *float64
	RatedRides        int
}

// RatingsByVehicle reports average driver and customer ratings over
// successful rides, per vehicle type.
func (c *Catalog) RatingsByVehicle(ctx context.Context) ([]RatingBucket, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT
			vehicle_type,
			ROUND(AVG(driver_rating), 2) AS avg_driver,
			ROUND(AVG(customer_rating), 2) AS avg_customer,
			COUNT(driver_rating) AS rated
		FROM rides
		WHERE is_successful = 1
		GROUP BY vehicle_type
		ORDER BY avg_driver DESC, vehicle_type`)
	if err != nil {
		return nil, fmt.Errorf("ratings by vehicle: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []RatingBucket
	for rows.Next() {
		var rb RatingBucket
		if err := rows.Scan(&rb.VehicleType, &rb.AvgDriverRating, &rb.AvgCustomerRating, &rb.RatedRides); err != nil {
			return nil, fmt.Errorf("ratings by vehicle: %w", err)
		}
		out = append(out, rb)
	}
	return out, rows.Err()
}

// DailyTrend is one row of the daily booking/revenue trend.
type DailyTrend struct {
	Date               string
	TotalBookings      int
	SuccessfulBookings int
	TotalRevenue       float64
	TotalDistance      float64
}

// DailyTrends reports the per-day aggregates in date order.
func (c *Catalog) DailyTrends(ctx context.Context) ([]DailyTrend, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT ride_date, total_bookings, successful_bookings,
			COALESCE(total_revenue, 0), COALESCE(total_distance, 0)
		FROM daily_summary
		ORDER BY ride_date`)
	if err != nil {
		return nil, fmt.Errorf("daily trends: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []DailyTrend
	for rows.Next() {
		var dt DailyTrend
		if err := rows.Scan(&dt.Date, &dt.TotalBookings, &dt.SuccessfulBookings,
			&dt.TotalRevenue, &dt.TotalDistance); err != nil {
			return nil, fmt.Errorf("daily trends: %w", err)
		}
		out = append(out, dt)
	}
	return out, rows.Err()
}

// Overview summarizes the whole persisted period.
type Overview struct {
	TotalBookings      int
	SuccessfulBookings int
	UniqueCustomers    int
	VehicleTypes       int
	TotalRevenue       float64
	EarliestDate       string
	LatestDate         string
}

// Overview reports headline figures across the fact table.
func (c *Catalog) Overview(ctx context.Context) (*Overview, error) {
	var o Overview
	var earliest, latest sql.NullString
	err := c.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(is_successful), 0),
			COUNT(DISTINCT customer_id),
			COUNT(DISTINCT vehicle_type),
			ROUND(COALESCE(SUM(CASE WHEN is_successful = 1 THEN booking_value ELSE 0 END), 0), 2),
			MIN(ride_date),
			MAX(ride_date)
		FROM rides`).Scan(&o.TotalBookings, &o.SuccessfulBookings, &o.UniqueCustomers,
		&o.VehicleTypes, &o.TotalRevenue, &earliest, &latest)
	if err != nil {
		return nil, fmt.Errorf("overview: %w", err)
	}
	o.EarliestDate = earliest.String
	o.LatestDate = latest.String
	return &o, nil
}
