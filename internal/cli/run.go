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
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-martgen/internal/db"
	"github.com/pgEdge/pgedge-martgen/internal/logging"
	"github.com/pgEdge/pgedge-martgen/internal/pipeline"
)

var runSelect []string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the transformation pipeline",
	Long: `Run the staging and mart stages against the warehouse. Stages run in
dependency order; each output table is rebuilt atomically and the
previous version stays queryable until its replacement commits.

With --select, only the named stages and their upstream dependencies
run.

Example:
  pgedge-martgen run --connection "postgres://..."
  pgedge-martgen run --select customer_metrics`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringSliceVar(&runSelect, "select", nil,
		"stages to run (with their dependencies); default: all")
}

func runRun(cmd *cobra.Command, args []string) error {
	if err := cfg.ValidateRun(); err != nil {
		return err
	}

	var stages []pipeline.Stage
	var err error
	if len(runSelect) > 0 {
		stages, err = pipeline.Closure(runSelect)
	} else {
		stages, err = pipeline.Sort(pipeline.All())
	}
	if err != nil {
		return err
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.Connection)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	// Handle shutdown signals
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logging.Info().
			Str("signal", sig.String()).
			Msg("Received shutdown signal")
		cancel()
	}()

	run := &pipeline.Run{
		Pool:      pool,
		Warehouse: cfg.Warehouse,
		Pipeline:  cfg.Pipeline,
		StartedAt: time.Now().UTC(),
	}

	logging.Info().
		Int("stages", len(stages)).
		Str("staging_schema", cfg.Pipeline.StagingSchema).
		Str("marts_schema", cfg.Pipeline.MartsSchema).
		Msg("Starting pipeline run")

	scheduler := pipeline.NewScheduler(run)
	if err := scheduler.Execute(ctx, stages); err != nil {
		return err
	}

	if err := db.SaveRunMetadata(ctx, pool, run.StartedAt, len(stages)); err != nil {
		return fmt.Errorf("failed to save metadata: %w", err)
	}

	logging.Info().
		Int("stages", len(stages)).
		Dur("elapsed", time.Since(run.StartedAt)).
		Msg("Pipeline run complete")
	return nil
}
