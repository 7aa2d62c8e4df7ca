//-------------------------------------------------------------------------
//
// pgEdge Mart Generator
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package warehouse provides the star-schema dimension and fact store:
// DDL for the warehouse tables and a read-only access layer used by the
// staging stages. The pipeline never mutates these tables; only the
// init and seed commands write here.
package warehouse

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema SQL template for the warehouse star schema. Uses %s for the
// target schema name.
const createSchemaSQLTemplate = `
-- dim_customers: customer dimension
CREATE TABLE IF NOT EXISTS %[1]s.dim_customers (
    customer_key             BIGSERIAL PRIMARY KEY,
    customer_id              TEXT NOT NULL UNIQUE,
    customer_city            TEXT,
    customer_state           VARCHAR(2),
    customer_zip_code_prefix VARCHAR(8)
);

-- dim_products: product dimension
CREATE TABLE IF NOT EXISTS %[1]s.dim_products (
    product_key           BIGSERIAL PRIMARY KEY,
    product_id            TEXT NOT NULL UNIQUE,
    product_category_name TEXT,
    product_weight_g      NUMERIC(10,2),
    product_length_cm     NUMERIC(10,2),
    product_height_cm     NUMERIC(10,2),
    product_width_cm      NUMERIC(10,2)
);

-- dim_date: calendar dimension
CREATE TABLE IF NOT EXISTS %[1]s.dim_date (
    date_key     BIGSERIAL PRIMARY KEY,
    full_date    DATE NOT NULL UNIQUE,
    year         INTEGER NOT NULL,
    quarter      INTEGER NOT NULL,
    month        INTEGER NOT NULL,
    month_name   TEXT NOT NULL,
    day          INTEGER NOT NULL,
    day_of_week  INTEGER NOT NULL,
    day_name     TEXT NOT NULL,
    week_of_year INTEGER NOT NULL,
    is_weekend   BOOLEAN NOT NULL
);

-- fact_orders: one row per order line item
CREATE TABLE IF NOT EXISTS %[1]s.fact_orders (
    order_line_key                BIGSERIAL PRIMARY KEY,
    order_id                      TEXT NOT NULL,
    customer_key                  BIGINT NOT NULL REFERENCES %[1]s.dim_customers(customer_key),
    product_key                   BIGINT NOT NULL REFERENCES %[1]s.dim_products(product_key),
    date_key                      BIGINT NOT NULL REFERENCES %[1]s.dim_date(date_key),
    order_item_id                 INTEGER NOT NULL,
    price                         NUMERIC(10,2) NOT NULL,
    freight_value                 NUMERIC(10,2) NOT NULL,
    order_status                  VARCHAR(20) NOT NULL,
    order_purchase_timestamp      TIMESTAMP NOT NULL,
    order_approved_at             TIMESTAMP,
    order_delivered_customer_date TIMESTAMP,
    order_estimated_delivery_date TIMESTAMP NOT NULL
);

-- Indexes on the join keys used by the staging and mart layers
CREATE INDEX IF NOT EXISTS idx_fact_orders_customer ON %[1]s.fact_orders(customer_key);
CREATE INDEX IF NOT EXISTS idx_fact_orders_product ON %[1]s.fact_orders(product_key);
CREATE INDEX IF NOT EXISTS idx_fact_orders_date ON %[1]s.fact_orders(date_key);
CREATE INDEX IF NOT EXISTS idx_fact_orders_status ON %[1]s.fact_orders(order_status);
`

// Drop schema SQL
const dropSchemaSQLTemplate = `
DROP TABLE IF EXISTS %[1]s.fact_orders CASCADE;
DROP TABLE IF EXISTS %[1]s.dim_date CASCADE;
DROP TABLE IF EXISTS %[1]s.dim_products CASCADE;
DROP TABLE IF EXISTS %[1]s.dim_customers CASCADE;
`

// CreateSchema creates the warehouse star schema.
func CreateSchema(ctx context.Context, pool *pgxpool.Pool, schema string) error {
	if _, err := pool.Exec(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schema)); err != nil {
		return fmt.Errorf("failed to create schema %s: %w", schema, err)
	}
	_, err := pool.Exec(ctx, fmt.Sprintf(createSchemaSQLTemplate, schema))
	return err
}

// DropSchema drops the warehouse star schema tables.
func DropSchema(ctx context.Context, pool *pgxpool.Pool, schema string) error {
	_, err := pool.Exec(ctx, fmt.Sprintf(dropSchemaSQLTemplate, schema))
	return err
}
