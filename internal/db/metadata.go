//-------------------------------------------------------------------------
//
// pgEdge Mart Generator
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pgEdge/pgedge-martgen/internal/logging"
	"github.com/pgEdge/pgedge-martgen/pkg/version"
)

const metadataTable = "martgen_metadata"

// createMetadataTableSQL creates the metadata table if it doesn't exist.
const createMetadataTableSQL = `
CREATE TABLE IF NOT EXISTS martgen_metadata (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
)`

// SaveRunMetadata records a completed pipeline run.
func SaveRunMetadata(ctx context.Context, pool *pgxpool.Pool, startedAt time.Time, stages int) error {
	metadata := map[string]string{
		"version":     version.Short(),
		"last_run_at": startedAt.UTC().Format(time.RFC3339),
		"last_run_stages": fmt.Sprintf("%d", stages),
	}
	return saveMetadata(ctx, pool, metadata)
}

// SaveSeedMetadata records a completed warehouse seed.
func SaveSeedMetadata(ctx context.Context, pool *pgxpool.Pool, customers, products, orders int) error {
	metadata := map[string]string{
		"version":        version.Short(),
		"seeded_at":      time.Now().UTC().Format(time.RFC3339),
		"seed_customers": fmt.Sprintf("%d", customers),
		"seed_products":  fmt.Sprintf("%d", products),
		"seed_orders":    fmt.Sprintf("%d", orders),
	}
	return saveMetadata(ctx, pool, metadata)
}

func saveMetadata(ctx context.Context, pool *pgxpool.Pool, metadata map[string]string) error {
	_, err := pool.Exec(ctx, createMetadataTableSQL)
	if err != nil {
		return fmt.Errorf("failed to create metadata table: %w", err)
	}

	for key, value := range metadata {
		_, err := pool.Exec(ctx, `
            INSERT INTO martgen_metadata (key, value) VALUES ($1, $2)
            ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
        `, key, value)
		if err != nil {
			return fmt.Errorf("failed to save metadata %s: %w", key, err)
		}
	}

	logging.Debug().Msg("Saved metadata")
	return nil
}

// GetMetadataValue retrieves a single metadata value by key.
func GetMetadataValue(ctx context.Context, pool *pgxpool.Pool, key string) (string, error) {
	var value string
	err := pool.QueryRow(ctx, `
        SELECT value FROM martgen_metadata WHERE key = $1
    `, key).Scan(&value)
	if err != nil {
		return "", err
	}
	return value, nil
}

// GetAllMetadata retrieves all metadata as a map.
func GetAllMetadata(ctx context.Context, pool *pgxpool.Pool) (map[string]string, error) {
	rows, err := pool.Query(ctx, `SELECT key, value FROM martgen_metadata`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	metadata := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		metadata[key] = value
	}

	return metadata, rows.Err()
}

// DropMetadata drops the metadata table.
func DropMetadata(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", metadataTable))
	return err
}
