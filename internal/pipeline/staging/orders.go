//-------------------------------------------------------------------------
//
// pgEdge Mart Generator
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package staging implements the staging layer: per-entity enrichment
// stages that read the warehouse store and materialize cleaned,
// derived row sets for the mart layer.
package staging

import (
	"context"
	"fmt"
	"time"

	"github.com/pgEdge/pgedge-martgen/internal/derive"
	"github.com/pgEdge/pgedge-martgen/internal/logging"
	"github.com/pgEdge/pgedge-martgen/internal/pipeline"
	"github.com/pgEdge/pgedge-martgen/internal/warehouse"
)

// OrdersStageName identifies the staged orders stage.
const OrdersStageName = "stg_orders"

// OrderRow is one staged order line: a delivered fact row enriched
// with delivery and approval derivations. Nil pointer fields mean the
// derivation is undefined for the row, never zero.
type OrderRow struct {
	OrderLineKey        int64
	OrderID             string
	CustomerKey         int64
	ProductKey          int64
	DateKey             int64
	OrderItemID         int
	Price               float64
	FreightValue        float64
	TotalAmount         float64
	PurchasedAt         time.Time
	ApprovedAt          *time.Time
	DeliveredAt         *time.Time
	EstimatedDeliveryAt time.Time
	DeliveryDays        *int
	DeliveryStatus      *string
	ApprovalHours       *float64
	ProcessedAt         time.Time
}

const createOrdersSQL = `
CREATE TABLE %s (
    order_line_key                BIGINT NOT NULL,
    order_id                      TEXT NOT NULL,
    customer_key                  BIGINT NOT NULL,
    product_key                   BIGINT NOT NULL,
    date_key                      BIGINT NOT NULL,
    order_item_id                 INTEGER NOT NULL,
    price                         NUMERIC(10,2) NOT NULL,
    freight_value                 NUMERIC(10,2) NOT NULL,
    total_amount                  NUMERIC(10,2) NOT NULL,
    order_purchase_timestamp      TIMESTAMP NOT NULL,
    order_approved_at             TIMESTAMP,
    order_delivered_customer_date TIMESTAMP,
    order_estimated_delivery_date TIMESTAMP NOT NULL,
    delivery_days                 INTEGER,
    delivery_status               VARCHAR(10),
    approval_hours                NUMERIC(10,2),
    processed_at                  TIMESTAMP NOT NULL
)`

var ordersColumns = []string{
	"order_line_key", "order_id", "customer_key", "product_key", "date_key",
	"order_item_id", "price", "freight_value", "total_amount",
	"order_purchase_timestamp", "order_approved_at",
	"order_delivered_customer_date", "order_estimated_delivery_date",
	"delivery_days", "delivery_status", "approval_hours", "processed_at",
}

// OrdersStage stages delivered order lines.
type OrdersStage struct{}

// Name returns the stage name.
func (s *OrdersStage) Name() string { return OrdersStageName }

// Layer returns the pipeline layer.
func (s *OrdersStage) Layer() pipeline.Layer { return pipeline.LayerStaging }

// Description returns a human-readable description.
func (s *OrdersStage) Description() string {
	return "Delivered order lines with delivery-time and approval derivations"
}

// Inputs returns upstream stage names; stg_orders reads the warehouse only.
func (s *OrdersStage) Inputs() []string { return nil }

// Table returns the output table name.
func (s *OrdersStage) Table() string { return "stg_orders" }

// Build reads fact_orders, keeps delivered lines whose dimension keys
// resolve, derives per-row fields and materializes the result.
func (s *OrdersStage) Build(ctx context.Context, run *pipeline.Run) (int64, error) {
	lines, err := warehouse.LoadOrderLines(ctx, run.Pool, run.Warehouse.Schema)
	if err != nil {
		return 0, err
	}
	keys, err := warehouse.LoadKeySets(ctx, run.Pool, run.Warehouse.Schema)
	if err != nil {
		return 0, err
	}

	staged, gaps := TransformOrders(lines, keys, run.StartedAt)
	if gaps > 0 {
		logging.Warn().
			Int("rows", gaps).
			Msg("Excluded order lines referencing missing dimension keys")
	}

	rows := make([][]any, len(staged))
	for i, r := range staged {
		rows[i] = []any{
			r.OrderLineKey, r.OrderID, r.CustomerKey, r.ProductKey, r.DateKey,
			r.OrderItemID, r.Price, r.FreightValue, r.TotalAmount,
			r.PurchasedAt, r.ApprovedAt, r.DeliveredAt, r.EstimatedDeliveryAt,
			r.DeliveryDays, r.DeliveryStatus, r.ApprovalHours, r.ProcessedAt,
		}
	}

	return pipeline.Materialize(ctx, run.Pool,
		run.SchemaFor(s.Layer()), s.Table(), createOrdersSQL, ordersColumns, rows)
}

// TransformOrders derives the staged order rows from raw fact lines.
// Only lines with status "delivered" are retained; lines referencing a
// missing dimension key are excluded and counted, not zero-filled.
func TransformOrders(lines []warehouse.OrderLine, keys *warehouse.KeySets,
	processedAt time.Time) ([]OrderRow, int) {

	staged := make([]OrderRow, 0, len(lines))
	gaps := 0

	for _, line := range lines {
		if line.Status != warehouse.OrderStatusDelivered {
			continue
		}
		if !keys.Valid(line) {
			gaps++
			continue
		}

		row := OrderRow{
			OrderLineKey:        line.OrderLineKey,
			OrderID:             line.OrderID,
			CustomerKey:         line.CustomerKey,
			ProductKey:          line.ProductKey,
			DateKey:             line.DateKey,
			OrderItemID:         line.OrderItemID,
			Price:               line.Price,
			FreightValue:        line.FreightValue,
			TotalAmount:         line.Price + line.FreightValue,
			PurchasedAt:         line.PurchasedAt,
			ApprovedAt:          line.ApprovedAt,
			DeliveredAt:         line.DeliveredAt,
			EstimatedDeliveryAt: line.EstimatedDeliveryAt,
			ProcessedAt:         processedAt,
		}

		if line.DeliveredAt != nil {
			days := derive.DayDiff(line.PurchasedAt, *line.DeliveredAt)
			status := derive.DeliveryStatus(*line.DeliveredAt, line.EstimatedDeliveryAt)
			row.DeliveryDays = &days
			row.DeliveryStatus = &status
		}
		if line.ApprovedAt != nil {
			hours := derive.HoursBetween(line.PurchasedAt, *line.ApprovedAt)
			row.ApprovalHours = &hours
		}

		staged = append(staged, row)
	}

	return staged, gaps
}

// LoadOrders reads the materialized staged orders table.
func LoadOrders(ctx context.Context, db warehouse.DB, schema string) ([]OrderRow, error) {
	rows, err := db.Query(ctx, fmt.Sprintf(`
        SELECT order_line_key, order_id, customer_key, product_key, date_key,
               order_item_id, price, freight_value, total_amount,
               order_purchase_timestamp, order_approved_at,
               order_delivered_customer_date, order_estimated_delivery_date,
               delivery_days, delivery_status, approval_hours, processed_at
        FROM %s.stg_orders
        ORDER BY order_line_key
    `, schema))
	if err != nil {
		return nil, fmt.Errorf("failed to read stg_orders: %w", err)
	}
	defer rows.Close()

	var staged []OrderRow
	for rows.Next() {
		var r OrderRow
		if err := rows.Scan(&r.OrderLineKey, &r.OrderID, &r.CustomerKey,
			&r.ProductKey, &r.DateKey, &r.OrderItemID, &r.Price, &r.FreightValue,
			&r.TotalAmount, &r.PurchasedAt, &r.ApprovedAt, &r.DeliveredAt,
			&r.EstimatedDeliveryAt, &r.DeliveryDays, &r.DeliveryStatus,
			&r.ApprovalHours, &r.ProcessedAt); err != nil {
			return nil, fmt.Errorf("failed to scan stg_orders row: %w", err)
		}
		staged = append(staged, r)
	}
	return staged, rows.Err()
}

func init() {
	pipeline.Register(&OrdersStage{})
}
