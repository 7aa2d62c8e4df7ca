//-------------------------------------------------------------------------
//
// pgEdge Mart Generator
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-martgen/internal/db"
	"github.com/pgEdge/pgedge-martgen/internal/logging"
	"github.com/pgEdge/pgedge-martgen/internal/seed"
)

var (
	seedCustomers int
	seedProducts  int
	seedOrders    int
	seedStartDate string
	seedEndDate   string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Populate the warehouse with generated order history",
	Long: `Generate customers, products, a calendar and order line items and
load them into the warehouse tables created by 'init'.

Example:
  pgedge-martgen seed --customers 5000 --orders 20000 --connection "postgres://..."`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().IntVar(&seedCustomers, "customers", 0,
		"number of customers to generate")
	seedCmd.Flags().IntVar(&seedProducts, "products", 0,
		"number of products to generate")
	seedCmd.Flags().IntVar(&seedOrders, "orders", 0,
		"number of orders to generate")
	seedCmd.Flags().StringVar(&seedStartDate, "start-date", "",
		"first order date (YYYY-MM-DD)")
	seedCmd.Flags().StringVar(&seedEndDate, "end-date", "",
		"last order date (YYYY-MM-DD)")
}

func runSeed(cmd *cobra.Command, args []string) error {
	// Override config with CLI flags
	if seedCustomers > 0 {
		cfg.Seed.Customers = seedCustomers
	}
	if seedProducts > 0 {
		cfg.Seed.Products = seedProducts
	}
	if seedOrders > 0 {
		cfg.Seed.Orders = seedOrders
	}
	if seedStartDate != "" {
		cfg.Seed.StartDate = seedStartDate
	}
	if seedEndDate != "" {
		cfg.Seed.EndDate = seedEndDate
	}

	if err := cfg.ValidateSeed(); err != nil {
		return err
	}

	generator, err := seed.New(cfg.Seed)
	if err != nil {
		return err
	}

	logging.Info().
		Int("customers", cfg.Seed.Customers).
		Int("products", cfg.Seed.Products).
		Int("orders", cfg.Seed.Orders).
		Str("start_date", cfg.Seed.StartDate).
		Str("end_date", cfg.Seed.EndDate).
		Msg("Seeding warehouse")

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.Connection)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	summary, err := generator.Run(ctx, pool, cfg.Warehouse.Schema)
	if err != nil {
		return err
	}

	if err := db.SaveSeedMetadata(ctx, pool,
		int(summary.Customers), int(summary.Products), int(summary.OrderLines)); err != nil {
		return fmt.Errorf("failed to save metadata: %w", err)
	}

	logging.Info().
		Int64("customers", summary.Customers).
		Int64("products", summary.Products).
		Int64("dates", summary.Dates).
		Int64("order_lines", summary.OrderLines).
		Msg("Warehouse seeding complete")
	return nil
}
