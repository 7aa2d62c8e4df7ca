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
	"strings"
	"time"

	"github.com/pgEdge/pgedge-martgen/internal/config"
	"github.com/pgEdge/pgedge-martgen/internal/derive"
	"github.com/pgEdge/pgedge-martgen/internal/pipeline"
	"github.com/pgEdge/pgedge-martgen/internal/warehouse"
)

// CustomersStageName identifies the staged customers stage.
const CustomersStageName = "stg_customers"

// CustomerRow is one staged customer with normalized location fields
// and region flags.
type CustomerRow struct {
	CustomerKey      int64
	CustomerID       string
	City             string
	State            string
	IsPrimaryRegion  bool
	IsTopRegionGroup bool
	ProcessedAt      time.Time
}

const createCustomersSQL = `
CREATE TABLE %s (
    customer_key        BIGINT NOT NULL,
    customer_id         TEXT NOT NULL,
    customer_city       TEXT NOT NULL,
    customer_state      VARCHAR(2) NOT NULL,
    is_primary_region   BOOLEAN NOT NULL,
    is_top_region_group BOOLEAN NOT NULL,
    processed_at        TIMESTAMP NOT NULL
)`

var customersColumns = []string{
	"customer_key", "customer_id", "customer_city", "customer_state",
	"is_primary_region", "is_top_region_group", "processed_at",
}

// CustomersStage stages the customer dimension.
type CustomersStage struct{}

// Name returns the stage name.
func (s *CustomersStage) Name() string { return CustomersStageName }

// Layer returns the pipeline layer.
func (s *CustomersStage) Layer() pipeline.Layer { return pipeline.LayerStaging }

// Description returns a human-readable description.
func (s *CustomersStage) Description() string {
	return "Customers with normalized locations and region flags"
}

// Inputs returns upstream stage names; stg_customers reads the warehouse only.
func (s *CustomersStage) Inputs() []string { return nil }

// Table returns the output table name.
func (s *CustomersStage) Table() string { return "stg_customers" }

// Build reads dim_customers, normalizes locations, derives region
// flags and materializes the result.
func (s *CustomersStage) Build(ctx context.Context, run *pipeline.Run) (int64, error) {
	customers, err := warehouse.LoadCustomers(ctx, run.Pool, run.Warehouse.Schema)
	if err != nil {
		return 0, err
	}

	staged := TransformCustomers(customers, run.Pipeline, run.StartedAt)

	rows := make([][]any, len(staged))
	for i, r := range staged {
		rows[i] = []any{
			r.CustomerKey, r.CustomerID, r.City, r.State,
			r.IsPrimaryRegion, r.IsTopRegionGroup, r.ProcessedAt,
		}
	}

	return pipeline.Materialize(ctx, run.Pool,
		run.SchemaFor(s.Layer()), s.Table(), createCustomersSQL, customersColumns, rows)
}

// TransformCustomers normalizes customer locations and derives region
// flags. Normalization is idempotent: re-running on already-normalized
// input yields identical output.
func TransformCustomers(customers []warehouse.Customer, cfg config.PipelineConfig,
	processedAt time.Time) []CustomerRow {

	primary := strings.ToUpper(cfg.PrimaryRegion)
	topRegions := make(map[string]struct{}, len(cfg.TopRegions))
	for _, region := range cfg.TopRegions {
		topRegions[strings.ToUpper(region)] = struct{}{}
	}

	staged := make([]CustomerRow, 0, len(customers))
	for _, c := range customers {
		state := strings.ToUpper(c.State)
		_, inTopGroup := topRegions[state]

		staged = append(staged, CustomerRow{
			CustomerKey:      c.CustomerKey,
			CustomerID:       c.CustomerID,
			City:             derive.TitleCase(c.City),
			State:            state,
			IsPrimaryRegion:  state != "" && state == primary,
			IsTopRegionGroup: inTopGroup,
			ProcessedAt:      processedAt,
		})
	}
	return staged
}

// LoadCustomers reads the materialized staged customers table.
func LoadCustomers(ctx context.Context, db warehouse.DB, schema string) ([]CustomerRow, error) {
	rows, err := db.Query(ctx, fmt.Sprintf(`
        SELECT customer_key, customer_id, customer_city, customer_state,
               is_primary_region, is_top_region_group, processed_at
        FROM %s.stg_customers
        ORDER BY customer_key
    `, schema))
	if err != nil {
		return nil, fmt.Errorf("failed to read stg_customers: %w", err)
	}
	defer rows.Close()

	var staged []CustomerRow
	for rows.Next() {
		var r CustomerRow
		if err := rows.Scan(&r.CustomerKey, &r.CustomerID, &r.City, &r.State,
			&r.IsPrimaryRegion, &r.IsTopRegionGroup, &r.ProcessedAt); err != nil {
			return nil, fmt.Errorf("failed to scan stg_customers row: %w", err)
		}
		staged = append(staged, r)
	}
	return staged, rows.Err()
}

func init() {
	pipeline.Register(&CustomersStage{})
}
