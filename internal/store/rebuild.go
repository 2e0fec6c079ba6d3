package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/rideinsights-labs/rideinsights/internal/model"
)

const insertRideSQL = `
	INSERT INTO rides (
		booking_id, ride_date, ride_time, customer_id, vehicle_type,
		pickup_location, drop_location, booking_status, v_tat, c_tat,
		customer_cancel_reason, driver_cancel_reason, incomplete_reason,
		booking_value, payment_method, ride_distance, driver_rating,
		customer_rating, year, month, day, weekday, hour,
		is_successful, is_customer_cancel, is_driver_cancel, revenue_per_km
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// Aggregate tables are rebuilt from scratch with conditional aggregates so
// rate denominators stay the full group count. Currency, distance and rating
// outputs round to 2 decimal places; the fact table keeps full precision.
var aggregateDDL = []struct {
	name string
	sql  string
}{
	{TableVehicleSummary, `
		CREATE TABLE vehicle_summary AS
		SELECT
			vehicle_type,
			COUNT(*) AS total_bookings,
			SUM(is_successful) AS successful_bookings,
			ROUND(AVG(CASE WHEN is_successful = 1 THEN booking_value END), 2) AS avg_booking_value,
			ROUND(SUM(CASE WHEN is_successful = 1 THEN booking_value ELSE 0 END), 2) AS total_revenue,
			ROUND(AVG(CASE WHEN is_successful = 1 THEN ride_distance END), 2) AS avg_distance,
			ROUND(SUM(CASE WHEN is_successful = 1 THEN ride_distance ELSE 0 END), 2) AS total_distance,
			ROUND(AVG(CASE WHEN is_successful = 1 THEN driver_rating END), 2) AS avg_driver_rating,
			ROUND(AVG(CASE WHEN is_successful = 1 THEN customer_rating END), 2) AS avg_customer_rating
		FROM rides
		GROUP BY vehicle_type`},
	{TableDailySummary, `
		CREATE TABLE daily_summary AS
		SELECT
			ride_date,
			COUNT(*) AS total_bookings,
			SUM(is_successful) AS successful_bookings,
			ROUND(SUM(CASE WHEN is_successful = 1 THEN booking_value ELSE 0 END), 2) AS total_revenue,
			ROUND(AVG(CASE WHEN is_successful = 1 THEN booking_value END), 2) AS avg_booking_value,
			ROUND(SUM(CASE WHEN is_successful = 1 THEN ride_distance ELSE 0 END), 2) AS total_distance
		FROM rides
		GROUP BY ride_date
		ORDER BY ride_date`},
	{TableCustomerSummary, `
		CREATE TABLE customer_summary AS
		SELECT
			customer_id,
			COUNT(*) AS total_bookings,
			SUM(is_successful) AS successful_bookings,
			ROUND(SUM(CASE WHEN is_successful = 1 THEN booking_value ELSE 0 END), 2) AS total_spent,
			ROUND(AVG(CASE WHEN is_successful = 1 THEN customer_rating END), 2) AS avg_rating_given,
			MAX(ride_date) AS last_booking_date
		FROM rides
		GROUP BY customer_id`},
}

// Rebuild replaces the fact table contents and recreates the three aggregate
// tables from the given cleaned, derived bookings. The whole rebuild runs in
// one transaction: on any failure the transaction is rolled back and the
// prior persisted state is untouched.
func (s *Store) Rebuild(ctx context.Context, bookings []model.Booking) error {
	if s.db == nil {
		return fmt.Errorf("%w: database not opened", ErrPersistence)
	}

	started := time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: beginning rebuild: %v", ErrPersistence, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM rides`); err != nil {
		return fmt.Errorf("%w: clearing fact table: %v", ErrPersistence, err)
	}

	if err := insertRides(ctx, tx, bookings); err != nil {
		return err
	}

	for _, agg := range aggregateDDL {
		if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS `+agg.name); err != nil {
			return fmt.Errorf("%w: dropping %s: %v", ErrPersistence, agg.name, err)
		}
		if _, err := tx.ExecContext(ctx, agg.sql); err != nil {
			return fmt.Errorf("%w: building %s: %v", ErrPersistence, agg.name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing rebuild: %v", ErrPersistence, err)
	}

	s.logger.Info("store rebuilt",
		slog.Int("rides", len(bookings)),
		slog.Duration("elapsed", time.Since(started)))

	return nil
}

func insertRides(ctx context.Context, tx *sql.Tx, bookings []model.Booking) error {
	stmt, err := tx.PrepareContext(ctx, insertRideSQL)
	if err != nil {
		return fmt.Errorf("%w: preparing insert: %v", ErrPersistence, err)
	}
	defer func() { _ = stmt.Close() }()

	for _, b := range bookings {
		_, err := stmt.ExecContext(ctx,
			b.BookingID,
			b.Date.Format("2006-01-02"),
			b.Time,
			b.CustomerID,
			b.VehicleType,
			b.PickupLocation,
			b.DropLocation,
			b.BookingStatus,
			b.VehicleTAT,
			b.CustomerTAT,
			b.CustomerCancelReason,
			b.DriverCancelReason,
			b.IncompleteReason,
			b.BookingValue,
			b.PaymentMethod,
			b.RideDistance,
			b.DriverRating,
			b.CustomerRating,
			b.Year,
			b.Month,
			b.Day,
			b.Weekday,
			b.Hour,
			boolToInt(b.IsSuccessful),
			boolToInt(b.IsCustomerCancel),
			boolToInt(b.IsDriverCancel),
			b.RevenuePerKM,
		)
		if err != nil {
			return fmt.Errorf("%w: inserting booking %s: %v", ErrPersistence, b.BookingID, err)
		}
	}

	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
