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
)

// ProductPerformanceStageName identifies the product performance mart.
const ProductPerformanceStageName = "product_performance"

// ProductPerformanceRow is one product's sales summary. Every staged
// product appears; sales metrics of never-sold products stay zero or
// undefined.
type ProductPerformanceRow struct {
	ProductKey          int64
	ProductID           string
	Category            string
	CategoryDisplay     string
	WeightCategory      *string
	SizeCategory        *string
	TimesOrdered        int
	TotalUnits          int
	TotalRevenue        float64
	AvgPrice            *float64
	MinPrice            *float64
	MaxPrice            *float64
	AvgDeliveryDays     *float64
	FirstSoldAt         *time.Time
	LastSoldAt          *time.Time
	PerformanceCategory string
	ProcessedAt         time.Time
}

const createProductPerformanceSQL = `
CREATE TABLE %s (
    product_key          BIGINT NOT NULL,
    product_id           TEXT NOT NULL,
    category             TEXT NOT NULL,
    category_display     TEXT NOT NULL,
    weight_category      VARCHAR(10),
    size_category        VARCHAR(10),
    times_ordered        INTEGER NOT NULL,
    total_units          INTEGER NOT NULL,
    total_revenue        NUMERIC(12,2) NOT NULL,
    avg_price            NUMERIC(10,2),
    min_price            NUMERIC(10,2),
    max_price            NUMERIC(10,2),
    avg_delivery_days    NUMERIC(6,1),
    first_sold_at        TIMESTAMP,
    last_sold_at         TIMESTAMP,
    performance_category VARCHAR(12) NOT NULL,
    processed_at         TIMESTAMP NOT NULL
)`

var productPerformanceColumns = []string{
	"product_key", "product_id", "category", "category_display",
	"weight_category", "size_category", "times_ordered", "total_units",
	"total_revenue", "avg_price", "min_price", "max_price",
	"avg_delivery_days", "first_sold_at", "last_sold_at",
	"performance_category", "processed_at",
}

// ProductPerformanceStage aggregates staged orders per product.
type ProductPerformanceStage struct{}

// Name returns the stage name.
func (s *ProductPerformanceStage) Name() string { return ProductPerformanceStageName }

// Layer returns the pipeline layer.
func (s *ProductPerformanceStage) Layer() pipeline.Layer { return pipeline.LayerMarts }

// Description returns a human-readable description.
func (s *ProductPerformanceStage) Description() string {
	return "Per-product sales volume, pricing and performance tiers"
}

// Inputs returns the staging tables this mart reads.
func (s *ProductPerformanceStage) Inputs() []string {
	return []string{staging.OrdersStageName, staging.ProductsStageName}
}

// Table returns the output table name.
func (s *ProductPerformanceStage) Table() string { return "product_performance" }

// Build aggregates staged orders per product and materializes the mart.
func (s *ProductPerformanceStage) Build(ctx context.Context, run *pipeline.Run) (int64, error) {
	orders, err := staging.LoadOrders(ctx, run.Pool, run.Pipeline.StagingSchema)
	if err != nil {
		return 0, err
	}
	products, err := staging.LoadProducts(ctx, run.Pool, run.Pipeline.StagingSchema)
	if err != nil {
		return 0, err
	}

	performance := AggregateProducts(orders, products, run.StartedAt)

	rows := make([][]any, len(performance))
	for i, p := range performance {
		rows[i] = []any{
			p.ProductKey, p.ProductID, p.Category, p.CategoryDisplay,
			p.WeightCategory, p.SizeCategory, p.TimesOrdered, p.TotalUnits,
			p.TotalRevenue, p.AvgPrice, p.MinPrice, p.MaxPrice,
			p.AvgDeliveryDays, p.FirstSoldAt, p.LastSoldAt,
			p.PerformanceCategory, p.ProcessedAt,
		}
	}

	return pipeline.Materialize(ctx, run.Pool,
		run.SchemaFor(s.Layer()), s.Table(), createProductPerformanceSQL,
		productPerformanceColumns, rows)
}

type productGroup struct {
	lines        []staging.OrderRow
	orderIDs     map[string]struct{}
	deliveryDays []float64
}

// AggregateProducts groups staged orders by product and left-joins
// onto the staged products: every product appears even with zero
// sales. Output is ordered by product key.
func AggregateProducts(orders []staging.OrderRow, products []staging.ProductRow,
	processedAt time.Time) []ProductPerformanceRow {

	groups := make(map[int64]*productGroup)
	for _, o := range orders {
		g, ok := groups[o.ProductKey]
		if !ok {
			g = &productGroup{orderIDs: make(map[string]struct{})}
			groups[o.ProductKey] = g
		}
		g.lines = append(g.lines, o)
		g.orderIDs[o.OrderID] = struct{}{}
		if o.DeliveryDays != nil {
			g.deliveryDays = append(g.deliveryDays, float64(*o.DeliveryDays))
		}
	}

	performance := make([]ProductPerformanceRow, 0, len(products))
	for _, p := range products {
		row := ProductPerformanceRow{
			ProductKey:      p.ProductKey,
			ProductID:       p.ProductID,
			Category:        p.Category,
			CategoryDisplay: p.CategoryDisplay,
			WeightCategory:  p.WeightCategory,
			SizeCategory:    p.SizeCategory,
			ProcessedAt:     processedAt,
		}

		if g, ok := groups[p.ProductKey]; ok {
			row.TimesOrdered = len(g.orderIDs)

			minPrice, maxPrice := g.lines[0].Price, g.lines[0].Price
			first, last := g.lines[0].PurchasedAt, g.lines[0].PurchasedAt
			var priceSum float64
			for _, line := range g.lines {
				row.TotalUnits += line.OrderItemID
				row.TotalRevenue += line.Price
				priceSum += line.Price
				if line.Price < minPrice {
					minPrice = line.Price
				}
				if line.Price > maxPrice {
					maxPrice = line.Price
				}
				if line.PurchasedAt.Before(first) {
					first = line.PurchasedAt
				}
				if line.PurchasedAt.After(last) {
					last = line.PurchasedAt
				}
			}
			row.TotalRevenue = derive.Round2(row.TotalRevenue)
			avgPrice := derive.Round2(priceSum / float64(len(g.lines)))
			row.AvgPrice = &avgPrice
			row.MinPrice = &minPrice
			row.MaxPrice = &maxPrice
			row.AvgDeliveryDays = derive.Avg(g.deliveryDays, derive.Round1)
			row.FirstSoldAt = &first
			row.LastSoldAt = &last
		}

		row.PerformanceCategory = derive.PerformanceTier(row.TimesOrdered)
		performance = append(performance, row)
	}

	sort.Slice(performance, func(i, j int) bool {
		return performance[i].ProductKey < performance[j].ProductKey
	})
	return performance
}

func init() {
	pipeline.Register(&ProductPerformanceStage{})
}
