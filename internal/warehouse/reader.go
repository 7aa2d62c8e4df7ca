//-------------------------------------------------------------------------
//
// pgEdge Mart Generator
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package warehouse

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// DB is the read-only query surface the warehouse layer needs. Both
// *pgxpool.Pool and pgx.Tx satisfy it.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// LoadCustomers reads all rows of dim_customers.
func LoadCustomers(ctx context.Context, db DB, schema string) ([]Customer, error) {
	rows, err := db.Query(ctx, fmt.Sprintf(`
        SELECT customer_key, customer_id, customer_city, customer_state,
               COALESCE(customer_zip_code_prefix, '')
        FROM %s.dim_customers
        ORDER BY customer_key
    `, schema))
	if err != nil {
		return nil, fmt.Errorf("failed to read dim_customers: %w", err)
	}
	defer rows.Close()

	var customers []Customer
	for rows.Next() {
		var c Customer
		var city, state *string
		if err := rows.Scan(&c.CustomerKey, &c.CustomerID, &city, &state, &c.ZipPrefix); err != nil {
			return nil, fmt.Errorf("failed to scan dim_customers row: %w", err)
		}
		if city != nil {
			c.City = *city
		}
		if state != nil {
			c.State = *state
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

// LoadProducts reads all rows of dim_products.
func LoadProducts(ctx context.Context, db DB, schema string) ([]Product, error) {
	rows, err := db.Query(ctx, fmt.Sprintf(`
        SELECT product_key, product_id, product_category_name,
               product_weight_g, product_length_cm, product_height_cm, product_width_cm
        FROM %s.dim_products
        ORDER BY product_key
    `, schema))
	if err != nil {
		return nil, fmt.Errorf("failed to read dim_products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ProductKey, &p.ProductID, &p.Category,
			&p.WeightG, &p.LengthCM, &p.HeightCM, &p.WidthCM); err != nil {
			return nil, fmt.Errorf("failed to scan dim_products row: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// LoadDates reads all rows of dim_date.
func LoadDates(ctx context.Context, db DB, schema string) ([]CalendarDate, error) {
	rows, err := db.Query(ctx, fmt.Sprintf(`
        SELECT date_key, full_date, year, quarter, month, month_name,
               day, day_of_week, day_name, week_of_year, is_weekend
        FROM %s.dim_date
        ORDER BY date_key
    `, schema))
	if err != nil {
		return nil, fmt.Errorf("failed to read dim_date: %w", err)
	}
	defer rows.Close()

	var dates []CalendarDate
	for rows.Next() {
		var d CalendarDate
		if err := rows.Scan(&d.DateKey, &d.Date, &d.Year, &d.Quarter, &d.Month,
			&d.MonthName, &d.Day, &d.DayOfWeek, &d.DayName, &d.WeekOfYear,
			&d.IsWeekend); err != nil {
			return nil, fmt.Errorf("failed to scan dim_date row: %w", err)
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

// LoadOrderLines reads all rows of fact_orders.
func LoadOrderLines(ctx context.Context, db DB, schema string) ([]OrderLine, error) {
	rows, err := db.Query(ctx, fmt.Sprintf(`
        SELECT order_line_key, order_id, customer_key, product_key, date_key,
               order_item_id, price, freight_value, order_status,
               order_purchase_timestamp, order_approved_at,
               order_delivered_customer_date, order_estimated_delivery_date
        FROM %s.fact_orders
        ORDER BY order_line_key
    `, schema))
	if err != nil {
		return nil, fmt.Errorf("failed to read fact_orders: %w", err)
	}
	defer rows.Close()

	var lines []OrderLine
	for rows.Next() {
		var l OrderLine
		if err := rows.Scan(&l.OrderLineKey, &l.OrderID, &l.CustomerKey,
			&l.ProductKey, &l.DateKey, &l.OrderItemID, &l.Price, &l.FreightValue,
			&l.Status, &l.PurchasedAt, &l.ApprovedAt, &l.DeliveredAt,
			&l.EstimatedDeliveryAt); err != nil {
			return nil, fmt.Errorf("failed to scan fact_orders row: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// KeySets holds the surrogate keys present in each dimension, used for
// referential-integrity checks in the staging layer.
type KeySets struct {
	Customers map[int64]struct{}
	Products  map[int64]struct{}
	Dates     map[int64]struct{}
}

// LoadKeySets reads the surrogate key sets of all three dimensions.
func LoadKeySets(ctx context.Context, db DB, schema string) (*KeySets, error) {
	ks := &KeySets{
		Customers: make(map[int64]struct{}),
		Products:  make(map[int64]struct{}),
		Dates:     make(map[int64]struct{}),
	}

	for _, tbl := range []struct {
		table  string
		column string
		set    map[int64]struct{}
	}{
		{"dim_customers", "customer_key", ks.Customers},
		{"dim_products", "product_key", ks.Products},
		{"dim_date", "date_key", ks.Dates},
	} {
		rows, err := db.Query(ctx, fmt.Sprintf(
			"SELECT %s FROM %s.%s", tbl.column, schema, tbl.table))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s keys: %w", tbl.table, err)
		}
		for rows.Next() {
			var key int64
			if err := rows.Scan(&key); err != nil {
				rows.Close()
				return nil, fmt.Errorf("failed to scan %s key: %w", tbl.table, err)
			}
			tbl.set[key] = struct{}{}
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to read %s keys: %w", tbl.table, err)
		}
	}

	return ks, nil
}

// Valid reports whether an order line references existing rows in all
// three dimensions.
func (ks *KeySets) Valid(line OrderLine) bool {
	if _, ok := ks.Customers[line.CustomerKey]; !ok {
		return false
	}
	if _, ok := ks.Products[line.ProductKey]; !ok {
		return false
	}
	if _, ok := ks.Dates[line.DateKey]; !ok {
		return false
	}
	return true
}
