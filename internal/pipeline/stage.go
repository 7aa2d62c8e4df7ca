//-------------------------------------------------------------------------
//
// pgEdge Mart Generator
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package pipeline defines the dependency-ordered view graph of the
// warehouse transformation: named stages declaring their upstream
// inputs, a topological scheduler, and replace-on-success
// materialization of stage output tables.
package pipeline

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pgEdge/pgedge-martgen/internal/config"
)

// Layer identifies where a stage sits in the pipeline.
type Layer string

const (
	// LayerStaging stages read the warehouse store and produce
	// enriched per-entity tables.
	LayerStaging Layer = "staging"

	// LayerMarts stages read staging tables and produce aggregated
	// reporting tables.
	LayerMarts Layer = "marts"
)

// Run carries the shared state of one pipeline execution. StartedAt is
// the lineage timestamp stamped onto every row produced by the run.
type Run struct {
	Pool      *pgxpool.Pool
	Warehouse config.WarehouseConfig
	Pipeline  config.PipelineConfig
	StartedAt time.Time
}

// SchemaFor returns the target schema for a layer.
func (r *Run) SchemaFor(layer Layer) string {
	if layer == LayerMarts {
		return r.Pipeline.MartsSchema
	}
	return r.Pipeline.StagingSchema
}

// Stage is one node of the transformation graph. Implementations must
// fully materialize their output table before returning; downstream
// stages read it only after Build succeeds.
type Stage interface {
	// Name is the unique stage identifier (e.g. "stg_orders").
	Name() string

	// Layer returns the pipeline layer the stage belongs to.
	Layer() Layer

	// Description returns a human-readable description.
	Description() string

	// Inputs returns the names of upstream stages whose output tables
	// this stage reads. Warehouse reads are implicit and not listed.
	Inputs() []string

	// Table returns the unqualified output table name.
	Table() string

	// Build computes and materializes the stage output, returning the
	// number of rows produced.
	Build(ctx context.Context, run *Run) (int64, error)
}
