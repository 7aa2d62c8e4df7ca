//-------------------------------------------------------------------------
//
// pgEdge Mart Generator
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package seed populates the warehouse star schema with generated
// order history so the pipeline has something to transform.
package seed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pgEdge/pgedge-martgen/internal/config"
	"github.com/pgEdge/pgedge-martgen/internal/datagen"
	"github.com/pgEdge/pgedge-martgen/internal/logging"
	"github.com/pgEdge/pgedge-martgen/internal/warehouse"
)

// Order statuses generated for fact_orders. The staging layer only
// keeps delivered orders, so delivered dominates.
var orderStatuses = []string{warehouse.OrderStatusDelivered, "shipped", "processing", "canceled", "unavailable"}
var orderStatusWeights = []int{90, 4, 3, 2, 1}

// Product categories in the source system's snake_case convention. An
// empty slot stands in for the missing categories present in real
// product catalogs.
var productCategories = []string{
	"bed_bath_table", "health_beauty", "sports_leisure", "furniture_decor",
	"computers_accessories", "housewares", "watches_gifts", "telephony",
	"garden_tools", "auto", "toys", "cool_stuff", "perfumery",
	"baby", "electronics", "stationery", "office_furniture",
	"pet_shop", "home_appliances", "musical_instruments",
	"",
}

// Generator seeds the warehouse tables.
type Generator struct {
	faker *datagen.Faker
	cfg   config.SeedConfig

	startDate time.Time
	endDate   time.Time
}

// Summary reports how many rows the generator wrote per table.
type Summary struct {
	Customers  int64
	Products   int64
	Dates      int64
	OrderLines int64
}

// New creates a Generator for the given seed configuration.
func New(cfg config.SeedConfig) (*Generator, error) {
	startDate, err := time.Parse("2006-01-02", cfg.StartDate)
	if err != nil {
		return nil, fmt.Errorf("invalid start date %q: %w", cfg.StartDate, err)
	}
	endDate, err := time.Parse("2006-01-02", cfg.EndDate)
	if err != nil {
		return nil, fmt.Errorf("invalid end date %q: %w", cfg.EndDate, err)
	}
	if !endDate.After(startDate) {
		return nil, fmt.Errorf("end date %s must be after start date %s", cfg.EndDate, cfg.StartDate)
	}

	return &Generator{
		faker:     datagen.NewFaker(),
		cfg:       cfg,
		startDate: startDate,
		endDate:   endDate,
	}, nil
}

// Run seeds all four warehouse tables in dependency order and returns
// per-table row counts.
func (g *Generator) Run(ctx context.Context, pool *pgxpool.Pool, schema string) (*Summary, error) {
	summary := &Summary{}

	var err error
	if summary.Customers, err = g.seedCustomers(ctx, pool, schema); err != nil {
		return nil, fmt.Errorf("seeding dim_customers: %w", err)
	}
	if summary.Products, err = g.seedProducts(ctx, pool, schema); err != nil {
		return nil, fmt.Errorf("seeding dim_products: %w", err)
	}
	if summary.Dates, err = g.seedDates(ctx, pool, schema); err != nil {
		return nil, fmt.Errorf("seeding dim_date: %w", err)
	}
	if summary.OrderLines, err = g.seedOrders(ctx, pool, schema); err != nil {
		return nil, fmt.Errorf("seeding fact_orders: %w", err)
	}

	return summary, nil
}

func (g *Generator) seedCustomers(ctx context.Context, pool *pgxpool.Pool, schema string) (int64, error) {
	rows := make([][]any, g.cfg.Customers)
	for i := range rows {
		city := g.faker.City()
		state := g.faker.State()
		// The staging layer normalizes case; make sure there is
		// something to normalize.
		if g.faker.Probability(0.3) {
			city = strings.ToLower(city)
		}
		if g.faker.Probability(0.3) {
			state = strings.ToLower(state)
		}
		rows[i] = []any{uuid.NewString(), city, state, g.faker.Digits(5)}
	}

	n, err := pool.CopyFrom(ctx,
		pgx.Identifier{schema, "dim_customers"},
		[]string{"customer_id", "customer_city", "customer_state", "customer_zip_code_prefix"},
		pgx.CopyFromRows(rows))
	if err != nil {
		return 0, err
	}

	logging.Info().Str("table", "dim_customers").Int64("rows", n).Msg("Seeded table")
	return n, nil
}

func (g *Generator) seedProducts(ctx context.Context, pool *pgxpool.Pool, schema string) (int64, error) {
	rows := make([][]any, g.cfg.Products)
	for i := range rows {
		var category *string
		if c := datagen.Choose(g.faker, productCategories); c != "" {
			category = &c
		}

		var weight, length, height, width *float64
		// A slice of the catalog has no physical measurements.
		if !g.faker.Probability(0.05) {
			w := g.faker.Float64(50, 15000)
			l := g.faker.Float64(5, 100)
			h := g.faker.Float64(2, 60)
			d := g.faker.Float64(5, 80)
			weight, length, height, width = &w, &l, &h, &d
		}

		rows[i] = []any{uuid.NewString(), category, weight, length, height, width}
	}

	n, err := pool.CopyFrom(ctx,
		pgx.Identifier{schema, "dim_products"},
		[]string{"product_id", "product_category_name", "product_weight_g",
			"product_length_cm", "product_height_cm", "product_width_cm"},
		pgx.CopyFromRows(rows))
	if err != nil {
		return 0, err
	}

	logging.Info().Str("table", "dim_products").Int64("rows", n).Msg("Seeded table")
	return n, nil
}

func (g *Generator) seedDates(ctx context.Context, pool *pgxpool.Pool, schema string) (int64, error) {
	var rows [][]any
	for d := g.startDate; !d.After(g.endDate); d = d.AddDate(0, 0, 1) {
		_, week := d.ISOWeek()
		weekday := d.Weekday()
		rows = append(rows, []any{
			d,
			d.Year(),
			(int(d.Month())-1)/3 + 1,
			int(d.Month()),
			d.Month().String(),
			d.Day(),
			int(weekday),
			weekday.String(),
			week,
			weekday == time.Saturday || weekday == time.Sunday,
		})
	}

	n, err := pool.CopyFrom(ctx,
		pgx.Identifier{schema, "dim_date"},
		[]string{"full_date", "year", "quarter", "month", "month_name",
			"day", "day_of_week", "day_name", "week_of_year", "is_weekend"},
		pgx.CopyFromRows(rows))
	if err != nil {
		return 0, err
	}

	logging.Info().Str("table", "dim_date").Int64("rows", n).Msg("Seeded table")
	return n, nil
}

func (g *Generator) seedOrders(ctx context.Context, pool *pgxpool.Pool, schema string) (int64, error) {
	customerKeys, err := loadKeys(ctx, pool,
		fmt.Sprintf("SELECT customer_key FROM %s.dim_customers", schema))
	if err != nil {
		return 0, err
	}
	productKeys, err := loadKeys(ctx, pool,
		fmt.Sprintf("SELECT product_key FROM %s.dim_products", schema))
	if err != nil {
		return 0, err
	}
	dateKeys, err := loadDateKeys(ctx, pool, schema)
	if err != nil {
		return 0, err
	}
	if len(customerKeys) == 0 || len(productKeys) == 0 || len(dateKeys) == 0 {
		return 0, fmt.Errorf("dimensions are empty; seed them first")
	}

	var rows [][]any
	for i := 0; i < g.cfg.Orders; i++ {
		orderID := uuid.NewString()
		customerKey := datagen.Choose(g.faker, customerKeys)
		status := datagen.ChooseWeighted(g.faker, orderStatuses, orderStatusWeights)

		purchasedAt := g.faker.DateRange(g.startDate, g.endDate)
		dateKey, ok := dateKeys[dateOnly(purchasedAt)]
		if !ok {
			continue
		}

		var approvedAt *time.Time
		if !g.faker.Probability(0.02) {
			t := purchasedAt.Add(time.Duration(g.faker.Int(1, 72)) * time.Hour)
			approvedAt = &t
		}

		estimatedAt := purchasedAt.AddDate(0, 0, g.faker.Int(10, 30))

		var deliveredAt *time.Time
		if status == warehouse.OrderStatusDelivered && !g.faker.Probability(0.03) {
			// Roughly a quarter of deliveries miss the estimate.
			t := purchasedAt.AddDate(0, 0, g.faker.Int(3, 25))
			if g.faker.Probability(0.25) {
				t = estimatedAt.AddDate(0, 0, g.faker.Int(1, 10))
			}
			deliveredAt = &t
		}

		lineCount := datagen.ChooseWeighted(g.faker, []int{1, 2, 3}, []int{80, 15, 5})
		for item := 1; item <= lineCount; item++ {
			rows = append(rows, []any{
				orderID,
				customerKey,
				datagen.Choose(g.faker, productKeys),
				dateKey,
				item,
				g.faker.Price(10, 500),
				g.faker.Price(5, 50),
				status,
				purchasedAt,
				approvedAt,
				deliveredAt,
				estimatedAt,
			})
		}
	}

	n, err := pool.CopyFrom(ctx,
		pgx.Identifier{schema, "fact_orders"},
		[]string{"order_id", "customer_key", "product_key", "date_key",
			"order_item_id", "price", "freight_value", "order_status",
			"order_purchase_timestamp", "order_approved_at",
			"order_delivered_customer_date", "order_estimated_delivery_date"},
		pgx.CopyFromRows(rows))
	if err != nil {
		return 0, err
	}

	logging.Info().Str("table", "fact_orders").Int64("rows", n).Msg("Seeded table")
	return n, nil
}

func loadKeys(ctx context.Context, pool *pgxpool.Pool, query string) ([]int64, error) {
	rows, err := pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []int64
	for rows.Next() {
		var key int64
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

func loadDateKeys(ctx context.Context, pool *pgxpool.Pool, schema string) (map[string]int64, error) {
	rows, err := pool.Query(ctx,
		fmt.Sprintf("SELECT date_key, full_date FROM %s.dim_date", schema))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := make(map[string]int64)
	for rows.Next() {
		var key int64
		var date time.Time
		if err := rows.Scan(&key, &date); err != nil {
			return nil, err
		}
		keys[dateOnly(date)] = key
	}
	return keys, rows.Err()
}

func dateOnly(t time.Time) string {
	return t.Format("2006-01-02")
}
