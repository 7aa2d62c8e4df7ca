//-------------------------------------------------------------------------
//
// pgEdge Mart Generator
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package marts

import (
	"context"
	"sort"
	"time"

	"github.com/pgEdge/pgedge-martgen/internal/derive"
	"github.com/pgEdge/pgedge-martgen/internal/pipeline"
	"github.com/pgEdge/pgedge-martgen/internal/pipeline/staging"
	"github.com/pgEdge/pgedge-martgen/internal/warehouse"
)

// MonthlyRevenueStageName identifies the monthly revenue mart.
const MonthlyRevenueStageName = "monthly_revenue"

// MonthlyRevenueRow is one calendar month's revenue summary, including
// the ordered month-over-month comparison. PrevMonthRevenue and
// RevenueGrowthPct are undefined for the first month in the sequence
// and whenever the previous month's revenue is zero.
type MonthlyRevenueRow struct {
	Year                    int
	Month                   int
	TotalOrders             int
	TotalItems              int
	UniqueCustomers         int
	TotalRevenue            float64
	TotalRevenueWithFreight float64
	AvgOrderValue           float64
	AvgDeliveryDays         *float64
	OnTimeDeliveries        int
	LateDeliveries          int
	OnTimePct               *float64
	PrevMonthRevenue        *float64
	RevenueGrowthPct        *float64
	ProcessedAt             time.Time
}

const createMonthlyRevenueSQL = `
CREATE TABLE %s (
    year                       INTEGER NOT NULL,
    month                      INTEGER NOT NULL,
    total_orders               INTEGER NOT NULL,
    total_items                INTEGER NOT NULL,
    unique_customers           INTEGER NOT NULL,
    total_revenue              NUMERIC(14,2) NOT NULL,
    total_revenue_with_freight NUMERIC(14,2) NOT NULL,
    avg_order_value            NUMERIC(10,2) NOT NULL,
    avg_delivery_days          NUMERIC(6,1),
    on_time_deliveries         INTEGER NOT NULL,
    late_deliveries            INTEGER NOT NULL,
    on_time_pct                NUMERIC(5,1),
    prev_month_revenue         NUMERIC(14,2),
    revenue_growth_pct         NUMERIC(8,1),
    processed_at               TIMESTAMP NOT NULL
)`

var monthlyRevenueColumns = []string{
	"year", "month", "total_orders", "total_items", "unique_customers",
	"total_revenue", "total_revenue_with_freight", "avg_order_value",
	"avg_delivery_days", "on_time_deliveries", "late_deliveries",
	"on_time_pct", "prev_month_revenue", "revenue_growth_pct",
	"processed_at",
}

// MonthlyRevenueStage aggregates staged orders per calendar month.
type MonthlyRevenueStage struct{}

// Name returns the stage name.
func (s *MonthlyRevenueStage) Name() string { return MonthlyRevenueStageName }

// Layer returns the pipeline layer.
func (s *MonthlyRevenueStage) Layer() pipeline.Layer { return pipeline.LayerMarts }

// Description returns a human-readable description.
func (s *MonthlyRevenueStage) Description() string {
	return "Monthly revenue trend with month-over-month growth"
}

// Inputs returns the staging tables this mart reads. The calendar
// dimension is read from the warehouse directly.
func (s *MonthlyRevenueStage) Inputs() []string {
	return []string{staging.OrdersStageName}
}

// Table returns the output table name.
func (s *MonthlyRevenueStage) Table() string { return "monthly_revenue" }

// Build joins staged orders with the calendar dimension, aggregates
// per (year, month) and materializes the mart.
func (s *MonthlyRevenueStage) Build(ctx context.Context, run *pipeline.Run) (int64, error) {
	orders, err := staging.LoadOrders(ctx, run.Pool, run.Pipeline.StagingSchema)
	if err != nil {
		return 0, err
	}
	dates, err := warehouse.LoadDates(ctx, run.Pool, run.Warehouse.Schema)
	if err != nil {
		return 0, err
	}

	calendar := make(map[int64]warehouse.CalendarDate, len(dates))
	for _, d := range dates {
		calendar[d.DateKey] = d
	}

	months := AggregateMonths(orders, calendar, run.StartedAt)

	rows := make([][]any, len(months))
	for i, m := range months {
		rows[i] = []any{
			m.Year, m.Month, m.TotalOrders, m.TotalItems, m.UniqueCustomers,
			m.TotalRevenue, m.TotalRevenueWithFreight, m.AvgOrderValue,
			m.AvgDeliveryDays, m.OnTimeDeliveries, m.LateDeliveries,
			m.OnTimePct, m.PrevMonthRevenue, m.RevenueGrowthPct,
			m.ProcessedAt,
		}
	}

	return pipeline.Materialize(ctx, run.Pool,
		run.SchemaFor(s.Layer()), s.Table(), createMonthlyRevenueSQL,
		monthlyRevenueColumns, rows)
}

type monthKey struct {
	year  int
	month int
}

type monthGroup struct {
	lines        []staging.OrderRow
	orderStatus  map[string]*string
	customers    map[int64]struct{}
	deliveryDays []float64
}

// AggregateMonths inner-joins staged orders with the calendar
// dimension and aggregates per (year, month). Groups are produced in
// ascending (year, month) order; each group's prev_month_revenue is
// the total_revenue of the group immediately before it in that
// ordering.
func AggregateMonths(orders []staging.OrderRow, calendar map[int64]warehouse.CalendarDate,
	processedAt time.Time) []MonthlyRevenueRow {

	groups := make(map[monthKey]*monthGroup)
	for _, o := range orders {
		date, ok := calendar[o.DateKey]
		if !ok {
			// Inner join: lines without a calendar row are excluded.
			continue
		}
		key := monthKey{year: date.Year, month: date.Month}
		g, ok := groups[key]
		if !ok {
			g = &monthGroup{
				orderStatus: make(map[string]*string),
				customers:   make(map[int64]struct{}),
			}
			groups[key] = g
		}
		g.lines = append(g.lines, o)
		g.customers[o.CustomerKey] = struct{}{}
		if _, seen := g.orderStatus[o.OrderID]; !seen {
			g.orderStatus[o.OrderID] = o.DeliveryStatus
		}
		if o.DeliveryDays != nil {
			g.deliveryDays = append(g.deliveryDays, float64(*o.DeliveryDays))
		}
	}

	keys := make([]monthKey, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year < keys[j].year
		}
		return keys[i].month < keys[j].month
	})

	months := make([]MonthlyRevenueRow, 0, len(keys))
	for _, key := range keys {
		g := groups[key]
		row := MonthlyRevenueRow{
			Year:            key.year,
			Month:           key.month,
			TotalOrders:     len(g.orderStatus),
			TotalItems:      len(g.lines),
			UniqueCustomers: len(g.customers),
			ProcessedAt:     processedAt,
		}

		for _, line := range g.lines {
			row.TotalRevenue += line.Price
			row.TotalRevenueWithFreight += line.TotalAmount
		}
		row.TotalRevenue = derive.Round2(row.TotalRevenue)
		row.TotalRevenueWithFreight = derive.Round2(row.TotalRevenueWithFreight)
		row.AvgOrderValue = derive.Round2(row.TotalRevenueWithFreight / float64(row.TotalOrders))

		for _, status := range g.orderStatus {
			if status == nil {
				continue
			}
			switch *status {
			case derive.DeliveryOnTime:
				row.OnTimeDeliveries++
			case derive.DeliveryLate:
				row.LateDeliveries++
			}
		}
		row.AvgDeliveryDays = derive.Avg(g.deliveryDays, derive.Round1)
		row.OnTimePct = derive.Pct(row.OnTimeDeliveries, row.TotalOrders)

		// Offset-by-one over the ordered sequence of months.
		if len(months) > 0 {
			prev := months[len(months)-1].TotalRevenue
			row.PrevMonthRevenue = &prev
			row.RevenueGrowthPct = derive.GrowthPct(row.TotalRevenue, &prev)
		}

		months = append(months, row)
	}

	return months
}

func init() {
	pipeline.Register(&MonthlyRevenueStage{})
}
