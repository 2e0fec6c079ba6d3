package query

import (
	"context"
	"fmt"
	"sort"
)

// ResultSet is the tabular form of a catalog query, used by the CLI renderer
// and any other external consumer that wants rows rather than typed structs.
type ResultSet struct {
	Columns []string
	Rows    [][]any
}

// Spec describes one named catalog entry.
type Spec struct {
	Name        string
	Description string
	TakesLimit  bool
}

var catalogSpecs = map[string]Spec{
	"overview":                {Name: "overview", Description: "Headline figures for the persisted period"},
	"total-bookings":          {Name: "total-bookings", Description: "Row count of the fact table"},
	"success-rate":            {Name: "success-rate", Description: "Share of successful bookings (%)"},
	"vehicle-performance":     {Name: "vehicle-performance", Description: "Per-vehicle-type bookings, revenue and ratings"},
	"top-customers":           {Name: "top-customers", Description: "Highest-spending customers", TakesLimit: true},
	"cancellations":           {Name: "cancellations", Description: "Booking outcome breakdown"},
	"customer-cancel-reasons": {Name: "customer-cancel-reasons", Description: "Reasons for customer cancellations"},
	"driver-cancel-reasons":   {Name: "driver-cancel-reasons", Description: "Reasons for driver cancellations"},
	"payment-share":           {Name: "payment-share", Description: "Revenue share per payment method"},
	"ratings":                 {Name: "ratings", Description: "Average ratings per vehicle type"},
	"daily-trends":            {Name: "daily-trends", Description: "Bookings and revenue per day"},
	"quality":                 {Name: "quality", Description: "Data quality validation counts"},
}

// Specs returns the catalog entries sorted by name.
func Specs() []Spec {
	out := make([]Spec, 0, len(catalogSpecs))
	for _, s := range catalogSpecs {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Execute runs the named catalog query and returns its tabular result.
// limit is only consulted by queries that take one.
func (c *Catalog) Execute(ctx context.Context, name string, limit int) (*ResultSet, error) {
	switch name {
	case "overview":
		o, err := c.Overview(ctx)
		if err != nil {
			return nil, err
		}
		return &ResultSet{
			Columns: []string{"total_bookings", "successful_bookings", "unique_customers", "vehicle_types", "total_revenue", "earliest_date", "latest_date"},
			Rows: [][]any{{o.TotalBookings, o.SuccessfulBookings, o.UniqueCustomers,
				o.VehicleTypes, o.TotalRevenue, o.EarliestDate, o.LatestDate}},
		}, nil

	case "total-bookings":
		n, err := c.TotalBookings(ctx)
		if err != nil {
			return nil, err
		}
		return &ResultSet{Columns: []string{"total_bookings"}, Rows: [][]any{{n}}}, nil

	case "success-rate":
		rate, err := c.SuccessRate(ctx)
		if err != nil {
			return nil, err
		}
		return &ResultSet{Columns: []string{"success_rate_pct"}, Rows: [][]any{{rate}}}, nil

	case "vehicle-performance":
		vs, err := c.VehiclePerformance(ctx)
		if err != nil {
			return nil, err
		}
		rs := &ResultSet{Columns: []string{"vehicle_type", "total_bookings", "successful_bookings", "success_rate_pct", "total_revenue", "avg_booking_value", "avg_distance", "avg_driver_rating", "avg_customer_rating"}}
		for _, v := range vs {
			rs.Rows = append(rs.Rows, []any{v.VehicleType, v.TotalBookings, v.SuccessfulBookings,
				v.SuccessRate, v.TotalRevenue, deref(v.AvgBookingValue), deref(v.AvgDistance),
				deref(v.AvgDriverRating), deref(v.AvgCustomerRating)})
		}
		return rs, nil

	case "top-customers":
		cs, err := c.TopCustomers(ctx, limit)
		if err != nil {
			return nil, err
		}
		rs := &ResultSet{Columns: []string{"customer_id", "total_bookings", "successful_bookings", "total_spent", "avg_rating_given", "last_booking_date"}}
		for _, v := range cs {
			rs.Rows = append(rs.Rows, []any{v.CustomerID, v.TotalBookings, v.SuccessfulBookings,
				v.TotalSpent, deref(v.AvgRatingGiven), v.LastBookingDate})
		}
		return rs, nil

	case "cancellations":
		scs, err := c.CancellationBreakdown(ctx)
		if err != nil {
			return nil, err
		}
		rs := &ResultSet{Columns: []string{"category", "count", "percentage"}}
		for _, v := range scs {
			rs.Rows = append(rs.Rows, []any{v.Category, v.Count, v.Percentage})
		}
		return rs, nil

	case "customer-cancel-reasons", "driver-cancel-reasons":
		var rcs []ReasonCount
		var err error
		if name == "customer-cancel-reasons" {
			rcs, err = c.CustomerCancelReasons(ctx)
		} else {
			rcs, err = c.DriverCancelReasons(ctx)
		}
		if err != nil {
			return nil, err
		}
		rs := &ResultSet{Columns: []string{"reason", "count"}}
		for _, v := range rcs {
			rs.Rows = append(rs.Rows, []any{v.Reason, v.Count})
		}
		return rs, nil

	case "payment-share":
		pss, err := c.PaymentRevenueShare(ctx)
		if err != nil {
			return nil, err
		}
		rs := &ResultSet{Columns: []string{"payment_method", "transactions", "total_revenue", "avg_transaction", "revenue_share_pct"}}
		for _, v := range pss {
			rs.Rows = append(rs.Rows, []any{v.PaymentMethod, v.Transactions, v.TotalRevenue,
				v.AvgTransaction, v.RevenueSharePct})
		}
		return rs, nil

	case "ratings":
		rbs, err := c.RatingsByVehicle(ctx)
		if err != nil {
			return nil, err
		}
		rs := &ResultSet{Columns: []string{"vehicle_type", "avg_driver_rating", "avg_customer_rating", "rated_rides"}}
		for _, v := range rbs {
			rs.Rows = append(rs.Rows, []any{v.VehicleType, deref(v.AvgDriverRating),
				deref(v.AvgCustomerRating), v.RatedRides})
		}
		return rs, nil

	case "daily-trends":
		dts, err := c.DailyTrends(ctx)
		if err != nil {
			return nil, err
		}
		rs := &ResultSet{Columns: []string{"ride_date", "total_bookings", "successful_bookings", "total_revenue", "total_distance"}}
		for _, v := range dts {
			rs.Rows = append(rs.Rows, []any{v.Date, v.TotalBookings, v.SuccessfulBookings,
				v.TotalRevenue, v.TotalDistance})
		}
		return rs, nil

	case "quality":
		q, err := c.Quality(ctx)
		if err != nil {
			return nil, err
		}
		return &ResultSet{
			Columns: []string{"check", "count"},
			Rows: [][]any{
				{"total_rows", q.TotalRows},
				{"duplicate_booking_ids", q.DuplicateBookingIDs()},
				{"missing_booking_ids", q.MissingBookingIDs},
				{"missing_customer_ids", q.MissingCustomerIDs},
				{"missing_vehicle_types", q.MissingVehicleTypes},
				{"missing_statuses", q.MissingStatuses},
				{"negative_booking_values", q.NegativeBookingValues},
				{"negative_distances", q.NegativeDistances},
				{"invalid_driver_ratings", q.InvalidDriverRatings},
				{"invalid_customer_ratings", q.InvalidCustomerRatings},
			},
		}, nil

	default:
		return nil, fmt.Errorf("%w: unknown query %q", ErrInvalidParam, name)
	}
}

func deref(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}
