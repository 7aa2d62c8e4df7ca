//-------------------------------------------------------------------------
//
// pgEdge Mart Generator
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

//go:build integration
// +build integration

// Integration test for the full pipeline.
// Run with: go test -tags=integration ./internal/pipeline/...
// Requires PostgreSQL to be available.
// Set MARTGEN_TEST_CONN environment variable to override connection string.

package pipeline_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/pgEdge/pgedge-martgen/internal/config"
	"github.com/pgEdge/pgedge-martgen/internal/pipeline"
	"github.com/pgEdge/pgedge-martgen/internal/seed"
	"github.com/pgEdge/pgedge-martgen/internal/testutil"
	"github.com/pgEdge/pgedge-martgen/internal/warehouse"

	// Import stage packages to trigger their init() functions which register the stages
	_ "github.com/pgEdge/pgedge-martgen/internal/pipeline/marts"
	_ "github.com/pgEdge/pgedge-martgen/internal/pipeline/staging"
)

// TestPipelineIntegration seeds a small warehouse, runs every stage and
// checks the materialized staging and mart tables.
func TestPipelineIntegration(t *testing.T) {
	baseConnStr := testutil.SkipIfNoPostgres(t)

	testConnStr := testutil.CreateTestDB(t, baseConnStr, "pipeline")
	dbName := testutil.GetDBNameFromConnStr(testConnStr)

	cleanup := testutil.NewTestCleanup(t, baseConnStr, dbName)
	t.Cleanup(cleanup.Cleanup)

	pool := testutil.ConnectTestDB(t, testConnStr)
	cleanup.SetPool(pool)

	ctx := context.Background()
	cfg := config.DefaultConfig()
	cfg.Seed.Customers = 200
	cfg.Seed.Products = 50
	cfg.Seed.Orders = 1000
	cfg.Seed.StartDate = "2017-01-01"
	cfg.Seed.EndDate = "2017-12-31"

	t.Run("CreateSchema", func(t *testing.T) {
		if err := warehouse.CreateSchema(ctx, pool, cfg.Warehouse.Schema); err != nil {
			t.Fatalf("CreateSchema failed: %v", err)
		}
	})

	t.Run("Seed", func(t *testing.T) {
		generator, err := seed.New(cfg.Seed)
		if err != nil {
			t.Fatalf("seed.New failed: %v", err)
		}
		summary, err := generator.Run(ctx, pool, cfg.Warehouse.Schema)
		if err != nil {
			t.Fatalf("Seeding failed: %v", err)
		}
		if summary.OrderLines == 0 {
			t.Fatal("Seed produced no order lines")
		}
	})

	t.Run("Run", func(t *testing.T) {
		stages, err := pipeline.Sort(pipeline.All())
		if err != nil {
			t.Fatalf("Sort failed: %v", err)
		}

		run := &pipeline.Run{
			Pool:      pool,
			Warehouse: cfg.Warehouse,
			Pipeline:  cfg.Pipeline,
			StartedAt: time.Now().UTC(),
		}
		if err := pipeline.NewScheduler(run).Execute(ctx, stages); err != nil {
			t.Fatalf("Execute failed: %v", err)
		}
	})

	staging := cfg.Pipeline.StagingSchema
	marts := cfg.Pipeline.MartsSchema

	t.Run("StagedOrdersDeliveredOnly", func(t *testing.T) {
		var count int
		err := pool.QueryRow(ctx, fmt.Sprintf(
			"SELECT COUNT(*) FROM %s.stg_orders", staging)).Scan(&count)
		if err != nil {
			t.Fatalf("Query failed: %v", err)
		}
		if count == 0 {
			t.Fatal("No staged orders")
		}

		// Every staged line must come from a delivered fact line.
		var nonDelivered int
		err = pool.QueryRow(ctx, fmt.Sprintf(`
            SELECT COUNT(*) FROM %s.stg_orders s
            JOIN %s.fact_orders f
              ON s.order_id = f.order_id AND s.order_item_id = f.order_item_id
            WHERE f.order_status <> 'delivered'`, staging, cfg.Warehouse.Schema)).Scan(&nonDelivered)
		if err != nil {
			t.Fatalf("Query failed: %v", err)
		}
		if nonDelivered != 0 {
			t.Errorf("%d staged lines come from non-delivered orders", nonDelivered)
		}
	})

	t.Run("StagedOrdersDeliveryInvariant", func(t *testing.T) {
		// delivery_days and delivery_status are defined together.
		var mismatched int
		err := pool.QueryRow(ctx, fmt.Sprintf(`
            SELECT COUNT(*) FROM %s.stg_orders
            WHERE (delivery_days IS NULL) <> (delivery_status IS NULL)`, staging)).Scan(&mismatched)
		if err != nil {
			t.Fatalf("Query failed: %v", err)
		}
		if mismatched != 0 {
			t.Errorf("%d lines have delivery_days/delivery_status mismatch", mismatched)
		}
	})

	t.Run("CustomerMetricsJoinsOrders", func(t *testing.T) {
		// Every metrics row has at least one staged order; nobody else appears.
		var orphans int
		err := pool.QueryRow(ctx, fmt.Sprintf(`
            SELECT COUNT(*) FROM %s.customer_metrics m
            WHERE NOT EXISTS (
                SELECT 1 FROM %s.stg_orders o WHERE o.customer_key = m.customer_key
            )`, marts, staging)).Scan(&orphans)
		if err != nil {
			t.Fatalf("Query failed: %v", err)
		}
		if orphans != 0 {
			t.Errorf("%d customer metrics rows have no staged orders", orphans)
		}

		var badPct int
		err = pool.QueryRow(ctx, fmt.Sprintf(`
            SELECT COUNT(*) FROM %s.customer_metrics
            WHERE on_time_pct < 0 OR on_time_pct > 100`, marts)).Scan(&badPct)
		if err != nil {
			t.Fatalf("Query failed: %v", err)
		}
		if badPct != 0 {
			t.Errorf("%d rows have on_time_pct outside [0, 100]", badPct)
		}
	})

	t.Run("ProductPerformanceCoversAllProducts", func(t *testing.T) {
		var stagedProducts, performanceRows int
		err := pool.QueryRow(ctx, fmt.Sprintf(
			"SELECT COUNT(*) FROM %s.stg_products", staging)).Scan(&stagedProducts)
		if err != nil {
			t.Fatalf("Query failed: %v", err)
		}
		err = pool.QueryRow(ctx, fmt.Sprintf(
			"SELECT COUNT(*) FROM %s.product_performance", marts)).Scan(&performanceRows)
		if err != nil {
			t.Fatalf("Query failed: %v", err)
		}
		if stagedProducts != performanceRows {
			t.Errorf("product_performance has %d rows, staged products %d",
				performanceRows, stagedProducts)
		}

		var badTier int
		err = pool.QueryRow(ctx, fmt.Sprintf(`
            SELECT COUNT(*) FROM %s.product_performance
            WHERE (times_ordered = 0) <> (performance_category = 'NeverSold')`, marts)).Scan(&badTier)
		if err != nil {
			t.Fatalf("Query failed: %v", err)
		}
		if badTier != 0 {
			t.Errorf("%d rows have times_ordered/NeverSold mismatch", badTier)
		}
	})

	t.Run("MonthlyRevenueSequence", func(t *testing.T) {
		rows, err := pool.Query(ctx, fmt.Sprintf(`
            SELECT year, month, total_revenue, prev_month_revenue
            FROM %s.monthly_revenue ORDER BY year, month`, marts))
		if err != nil {
			t.Fatalf("Query failed: %v", err)
		}
		defer rows.Close()

		var prevRevenue *float64
		first := true
		for rows.Next() {
			var year, month int
			var total float64
			var prev *float64
			if err := rows.Scan(&year, &month, &total, &prev); err != nil {
				t.Fatalf("Scan failed: %v", err)
			}
			if first {
				if prev != nil {
					t.Errorf("First month %d-%d has prev_month_revenue %v", year, month, *prev)
				}
				first = false
			} else {
				if prev == nil {
					t.Errorf("Month %d-%d missing prev_month_revenue", year, month)
				} else if prevRevenue != nil && *prev != *prevRevenue {
					t.Errorf("Month %d-%d prev_month_revenue = %v, want %v",
						year, month, *prev, *prevRevenue)
				}
			}
			prevRevenue = &total
		}
		if err := rows.Err(); err != nil {
			t.Fatalf("Rows error: %v", err)
		}
		if first {
			t.Fatal("No monthly revenue rows")
		}
	})

	t.Run("Rerun", func(t *testing.T) {
		// A second run replaces every table without error.
		stages, err := pipeline.Sort(pipeline.All())
		if err != nil {
			t.Fatalf("Sort failed: %v", err)
		}
		run := &pipeline.Run{
			Pool:      pool,
			Warehouse: cfg.Warehouse,
			Pipeline:  cfg.Pipeline,
			StartedAt: time.Now().UTC(),
		}
		if err := pipeline.NewScheduler(run).Execute(ctx, stages); err != nil {
			t.Fatalf("Second Execute failed: %v", err)
		}
	})
}
