package query

import (
	"context"
	"fmt"
)

// QualityReport carries the data-quality validation counts. Out-of-range
// ratings are flagged here, never auto-corrected by the pipeline.
type QualityReport struct {
	TotalRows              int
	UniqueBookingIDs       int
	MissingBookingIDs      int
	MissingCustomerIDs     int
	MissingVehicleTypes    int
	MissingStatuses        int
	NegativeBookingValues  int
	NegativeDistances      int
	InvalidDriverRatings   int
	InvalidCustomerRatings int
}

// DuplicateBookingIDs reports how many fact rows share a booking id with
// another row. Zero when the uniqueness invariant holds.
func (q *QualityReport) DuplicateBookingIDs() int {
	return q.TotalRows - q.UniqueBookingIDs
}

// Quality runs the integrity checks over the fact table.
func (c *Catalog) Quality(ctx context.Context) (*QualityReport, error) {
	var q QualityReport
	err := c.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(DISTINCT booking_id),
			COALESCE(SUM(CASE WHEN booking_id IS NULL OR booking_id = '' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN customer_id IS NULL OR customer_id = '' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN vehicle_type IS NULL OR vehicle_type = '' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN booking_status IS NULL OR booking_status = '' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN booking_value < 0 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN ride_distance < 0 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN driver_rating < 1 OR driver_rating > 5 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN customer_rating < 1 OR customer_rating > 5 THEN 1 ELSE 0 END), 0)
		FROM rides`).Scan(
		&q.TotalRows, &q.UniqueBookingIDs,
		&q.MissingBookingIDs, &q.MissingCustomerIDs,
		&q.MissingVehicleTypes, &q.MissingStatuses,
		&q.NegativeBookingValues, &q.NegativeDistances,
		&q.InvalidDriverRatings, &q.InvalidCustomerRatings)
	if err != nil {
		return nil, fmt.Errorf("quality report: %w", err)
	}
	return &q, nil
}

// Tables returns the user tables present in the store, alphabetically.
func (c *Catalog) Tables(ctx context.Context) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT name FROM sqlite_master
		WHERE type = 'table'
		AND name NOT LIKE 'sqlite_%'
		AND name NOT LIKE 'goose_%'
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("listing tables: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
