//-------------------------------------------------------------------------
//
// pgEdge Mart Generator
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

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

// ProductsStageName identifies the staged products stage.
const ProductsStageName = "stg_products"

// ProductRow is one staged product with display category, derived
// volume and weight/size classifications. Nil fields mean the source
// measurement was missing and the derivation is undefined.
type ProductRow struct {
	ProductKey      int64
	ProductID       string
	Category        string
	CategoryDisplay string
	WeightG         *float64
	LengthCM        *float64
	HeightCM        *float64
	WidthCM         *float64
	VolumeCM3       *float64
	WeightCategory  *string
	SizeCategory    *string
	ProcessedAt     time.Time
}

const createProductsSQL = `
CREATE TABLE %s (
    product_key      BIGINT NOT NULL,
    product_id       TEXT NOT NULL,
    category         TEXT NOT NULL,
    category_display TEXT NOT NULL,
    weight_g         NUMERIC(10,2),
    length_cm        NUMERIC(10,2),
    height_cm        NUMERIC(10,2),
    width_cm         NUMERIC(10,2),
    volume_cm3       NUMERIC(14,2),
    weight_category  VARCHAR(10),
    size_category    VARCHAR(10),
    processed_at     TIMESTAMP NOT NULL
)`

var productsColumns = []string{
	"product_key", "product_id", "category", "category_display",
	"weight_g", "length_cm", "height_cm", "width_cm", "volume_cm3",
	"weight_category", "size_category", "processed_at",
}

// ProductsStage stages the product dimension.
type ProductsStage struct{}

// Name returns the stage name.
func (s *ProductsStage) Name() string { return ProductsStageName }

// Layer returns the pipeline layer.
func (s *ProductsStage) Layer() pipeline.Layer { return pipeline.LayerStaging }

// Description returns a human-readable description.
func (s *ProductsStage) Description() string {
	return "Products with display categories, volume and weight/size tiers"
}

// Inputs returns upstream stage names; stg_products reads the warehouse only.
func (s *ProductsStage) Inputs() []string { return nil }

// Table returns the output table name.
func (s *ProductsStage) Table() string { return "stg_products" }

// Build reads dim_products, drops rows with a missing category,
// derives display and classification fields and materializes the
// result.
func (s *ProductsStage) Build(ctx context.Context, run *pipeline.Run) (int64, error) {
	products, err := warehouse.LoadProducts(ctx, run.Pool, run.Warehouse.Schema)
	if err != nil {
		return 0, err
	}

	staged, dropped := TransformProducts(products, run.StartedAt)
	if dropped > 0 {
		logging.Debug().
			Int("rows", dropped).
			Msg("Dropped products with missing category")
	}

	rows := make([][]any, len(staged))
	for i, r := range staged {
		rows[i] = []any{
			r.ProductKey, r.ProductID, r.Category, r.CategoryDisplay,
			r.WeightG, r.LengthCM, r.HeightCM, r.WidthCM, r.VolumeCM3,
			r.WeightCategory, r.SizeCategory, r.ProcessedAt,
		}
	}

	return pipeline.Materialize(ctx, run.Pool,
		run.SchemaFor(s.Layer()), s.Table(), createProductsSQL, productsColumns, rows)
}

// TransformProducts derives staged product rows. Products without a
// category are dropped and counted. Volume and the size category are
// undefined unless all three dimensions are present; the weight
// category is undefined when the weight is missing.
func TransformProducts(products []warehouse.Product, processedAt time.Time) ([]ProductRow, int) {
	staged := make([]ProductRow, 0, len(products))
	dropped := 0

	for _, p := range products {
		if p.Category == nil || *p.Category == "" {
			dropped++
			continue
		}

		row := ProductRow{
			ProductKey:      p.ProductKey,
			ProductID:       p.ProductID,
			Category:        *p.Category,
			CategoryDisplay: derive.CategoryDisplay(*p.Category),
			WeightG:         p.WeightG,
			LengthCM:        p.LengthCM,
			HeightCM:        p.HeightCM,
			WidthCM:         p.WidthCM,
			ProcessedAt:     processedAt,
		}

		if p.WeightG != nil {
			category := derive.WeightCategory(*p.WeightG)
			row.WeightCategory = &category
		}
		if p.LengthCM != nil && p.HeightCM != nil && p.WidthCM != nil {
			volume := *p.LengthCM * *p.HeightCM * *p.WidthCM
			size := derive.SizeCategory(volume)
			row.VolumeCM3 = &volume
			row.SizeCategory = &size
		}

		staged = append(staged, row)
	}

	return staged, dropped
}

// LoadProducts reads the materialized staged products table.
func LoadProducts(ctx context.Context, db warehouse.DB, schema string) ([]ProductRow, error) {
	rows, err := db.Query(ctx, fmt.Sprintf(`
        SELECT product_key, product_id, category, category_display,
               weight_g, length_cm, height_cm, width_cm, volume_cm3,
               weight_category, size_category, processed_at
        FROM %s.stg_products
        ORDER BY product_key
    `, schema))
	if err != nil {
		return nil, fmt.Errorf("failed to read stg_products: %w", err)
	}
	defer rows.Close()

	var staged []ProductRow
	for rows.Next() {
		var r ProductRow
		if err := rows.Scan(&r.ProductKey, &r.ProductID, &r.Category,
			&r.CategoryDisplay, &r.WeightG, &r.LengthCM, &r.HeightCM, &r.WidthCM,
			&r.VolumeCM3, &r.WeightCategory, &r.SizeCategory, &r.ProcessedAt); err != nil {
			return nil, fmt.Errorf("failed to scan stg_products row: %w", err)
		}
		staged = append(staged, r)
	}
	return staged, rows.Err()
}

func init() {
	pipeline.Register(&ProductsStage{})
}
