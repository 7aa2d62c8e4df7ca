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
	"github.com/pgEdge/pgedge-martgen/internal/warehouse"
)

var initDropExisting bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the warehouse star schema",
	Long: `Create the warehouse dimension and fact tables in the configured
warehouse schema. The tables start empty; populate them with the 'seed'
command or by loading real order history.

Example:
  pgedge-martgen init --connection "postgres://..."`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initDropExisting, "drop-existing", false,
		"drop existing warehouse tables before initialization")
}

func runInit(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.Connection)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	if initDropExisting {
		logging.Info().
			Str("schema", cfg.Warehouse.Schema).
			Msg("Dropping existing warehouse tables")
		if err := warehouse.DropSchema(ctx, pool, cfg.Warehouse.Schema); err != nil {
			return fmt.Errorf("failed to drop warehouse tables: %w", err)
		}
		if err := db.DropMetadata(ctx, pool); err != nil {
			logging.Debug().Err(err).Msg("No metadata table to drop")
		}
	}

	logging.Info().
		Str("schema", cfg.Warehouse.Schema).
		Msg("Creating warehouse star schema")
	if err := warehouse.CreateSchema(ctx, pool, cfg.Warehouse.Schema); err != nil {
		return fmt.Errorf("failed to create warehouse schema: %w", err)
	}

	logging.Info().Msg("Warehouse initialization complete")
	return nil
}
