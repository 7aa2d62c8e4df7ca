//-------------------------------------------------------------------------
//
// pgEdge Mart Generator
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package marts implements the mart layer: per-subject aggregations
// over the staging layer, materialized as reporting tables.
package marts

import (
	"context"
	"sort"
	"time"

	"github.com/pgEdge/pgedge-martgen/internal/derive"
	"github.com/pgEdge/pgedge-martgen/internal/pipeline"
	"github.com/pgEdge/pgedge-martgen/internal/pipeline/staging"
)

// CustomerMetricsStageName identifies the customer metrics mart.
const CustomerMetricsStageName = "customer_metrics"

// CustomerMetricsRow is one customer's lifetime summary. Only
// customers with at least one delivered order appear.
type CustomerMetricsRow struct {
	CustomerKey      int64
	CustomerID       string
	City             string
	State            string
	TotalOrders      int
	TotalItems       int
	TotalSpent       float64
	AvgItemPrice     float64
	TotalAmount      float64
	AvgItemAmount    float64
	TotalFreight     float64
	AvgFreight       float64
	AvgDeliveryDays  *float64
	OnTimeDeliveries int
	LateDeliveries   int
	OnTimePct        *float64
	FirstOrderAt     time.Time
	LastOrderAt      time.Time
	LifetimeDays     int
	Segment          string
	ProcessedAt      time.Time
}

const createCustomerMetricsSQL = `
CREATE TABLE %s (
    customer_key       BIGINT NOT NULL,
    customer_id        TEXT NOT NULL,
    customer_city      TEXT NOT NULL,
    customer_state     VARCHAR(2) NOT NULL,
    total_orders       INTEGER NOT NULL,
    total_items        INTEGER NOT NULL,
    total_spent        NUMERIC(12,2) NOT NULL,
    avg_item_price     NUMERIC(10,2) NOT NULL,
    total_amount       NUMERIC(12,2) NOT NULL,
    avg_item_amount    NUMERIC(10,2) NOT NULL,
    total_freight      NUMERIC(12,2) NOT NULL,
    avg_freight        NUMERIC(10,2) NOT NULL,
    avg_delivery_days  NUMERIC(6,1),
    on_time_deliveries INTEGER NOT NULL,
    late_deliveries    INTEGER NOT NULL,
    on_time_pct        NUMERIC(5,1),
    first_order_at     TIMESTAMP NOT NULL,
    last_order_at      TIMESTAMP NOT NULL,
    lifetime_days      INTEGER NOT NULL,
    customer_segment   VARCHAR(12) NOT NULL,
    processed_at       TIMESTAMP NOT NULL
)`

var customerMetricsColumns = []string{
	"customer_key", "customer_id", "customer_city", "customer_state",
	"total_orders", "total_items", "total_spent", "avg_item_price",
	"total_amount", "avg_item_amount", "total_freight", "avg_freight",
	"avg_delivery_days", "on_time_deliveries", "late_deliveries",
	"on_time_pct", "first_order_at", "last_order_at", "lifetime_days",
	"customer_segment", "processed_at",
}

// CustomerMetricsStage aggregates staged orders per customer.
type CustomerMetricsStage struct{}

// Name returns the stage name.
func (s *CustomerMetricsStage) Name() string { return CustomerMetricsStageName }

// Layer returns the pipeline layer.
func (s *CustomerMetricsStage) Layer() pipeline.Layer { return pipeline.LayerMarts }

// Description returns a human-readable description.
func (s *CustomerMetricsStage) Description() string {
	return "Per-customer lifetime value, delivery performance and segmentation"
}

// Inputs returns the staging tables this mart reads.
func (s *CustomerMetricsStage) Inputs() []string {
	return []string{staging.OrdersStageName, staging.CustomersStageName}
}

// Table returns the output table name.
func (s *CustomerMetricsStage) Table() string { return "customer_metrics" }

// Build aggregates staged orders per customer and materializes the mart.
func (s *CustomerMetricsStage) Build(ctx context.Context, run *pipeline.Run) (int64, error) {
	orders, err := staging.LoadOrders(ctx, run.Pool, run.Pipeline.StagingSchema)
	if err != nil {
		return 0, err
	}
	customers, err := staging.LoadCustomers(ctx, run.Pool, run.Pipeline.StagingSchema)
	if err != nil {
		return 0, err
	}

	metrics := AggregateCustomers(orders, customers, run.StartedAt)

	rows := make([][]any, len(metrics))
	for i, m := range metrics {
		rows[i] = []any{
			m.CustomerKey, m.CustomerID, m.City, m.State,
			m.TotalOrders, m.TotalItems, m.TotalSpent, m.AvgItemPrice,
			m.TotalAmount, m.AvgItemAmount, m.TotalFreight, m.AvgFreight,
			m.AvgDeliveryDays, m.OnTimeDeliveries, m.LateDeliveries,
			m.OnTimePct, m.FirstOrderAt, m.LastOrderAt, m.LifetimeDays,
			m.Segment, m.ProcessedAt,
		}
	}

	return pipeline.Materialize(ctx, run.Pool,
		run.SchemaFor(s.Layer()), s.Table(), createCustomerMetricsSQL,
		customerMetricsColumns, rows)
}

type customerGroup struct {
	lines        []staging.OrderRow
	orderStatus  map[string]*string
	deliveryDays []float64
}

// AggregateCustomers groups staged orders by customer and joins the
// staged customers (inner join: customers without delivered orders are
// excluded). Output is ordered by customer key.
func AggregateCustomers(orders []staging.OrderRow, customers []staging.CustomerRow,
	processedAt time.Time) []CustomerMetricsRow {

	groups := make(map[int64]*customerGroup)
	for _, o := range orders {
		g, ok := groups[o.CustomerKey]
		if !ok {
			g = &customerGroup{orderStatus: make(map[string]*string)}
			groups[o.CustomerKey] = g
		}
		g.lines = append(g.lines, o)
		if _, seen := g.orderStatus[o.OrderID]; !seen {
			g.orderStatus[o.OrderID] = o.DeliveryStatus
		}
		if o.DeliveryDays != nil {
			g.deliveryDays = append(g.deliveryDays, float64(*o.DeliveryDays))
		}
	}

	metrics := make([]CustomerMetricsRow, 0, len(groups))
	for _, c := range customers {
		g, ok := groups[c.CustomerKey]
		if !ok {
			continue
		}

		row := CustomerMetricsRow{
			CustomerKey: c.CustomerKey,
			CustomerID:  c.CustomerID,
			City:        c.City,
			State:       c.State,
			TotalOrders: len(g.orderStatus),
			TotalItems:  len(g.lines),
			ProcessedAt: processedAt,
		}

		first, last := g.lines[0].PurchasedAt, g.lines[0].PurchasedAt
		for _, line := range g.lines {
			row.TotalSpent += line.Price
			row.TotalAmount += line.TotalAmount
			row.TotalFreight += line.FreightValue
			if line.PurchasedAt.Before(first) {
				first = line.PurchasedAt
			}
			if line.PurchasedAt.After(last) {
				last = line.PurchasedAt
			}
		}
		row.TotalSpent = derive.Round2(row.TotalSpent)
		row.TotalAmount = derive.Round2(row.TotalAmount)
		row.TotalFreight = derive.Round2(row.TotalFreight)
		row.AvgItemPrice = derive.Round2(row.TotalSpent / float64(row.TotalItems))
		row.AvgItemAmount = derive.Round2(row.TotalAmount / float64(row.TotalItems))
		row.AvgFreight = derive.Round2(row.TotalFreight / float64(row.TotalItems))

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

		row.FirstOrderAt = first
		row.LastOrderAt = last
		row.LifetimeDays = derive.DayDiff(first, last)
		row.Segment = derive.CustomerSegment(row.TotalOrders)

		metrics = append(metrics, row)
	}

	sort.Slice(metrics, func(i, j int) bool {
		return metrics[i].CustomerKey < metrics[j].CustomerKey
	})
	return metrics
}

func init() {
	pipeline.Register(&CustomerMetricsStage{})
}
