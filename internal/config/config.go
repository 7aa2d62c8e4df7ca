//-------------------------------------------------------------------------
//
// pgEdge Mart Generator
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package config handles configuration management for pgedge-martgen.
// Configuration is loaded from config files and CLI flags (no environment
// variables). CLI flags take precedence over config file values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all configuration for pgedge-martgen.
type Config struct {
	// Connection is the PostgreSQL connection string for the warehouse.
	Connection string `mapstructure:"connection"`

	// LogLevel controls logging verbosity (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level"`

	// Warehouse holds the source star-schema configuration.
	Warehouse WarehouseConfig `mapstructure:"warehouse"`

	// Pipeline holds configuration for the transformation pipeline.
	Pipeline PipelineConfig `mapstructure:"pipeline"`

	// Seed holds configuration for the seed subcommand.
	Seed SeedConfig `mapstructure:"seed"`
}

// WarehouseConfig identifies where the dimension and fact tables live.
type WarehouseConfig struct {
	// Schema is the schema containing dim_* and fact_orders tables.
	Schema string `mapstructure:"schema"`
}

// PipelineConfig holds configuration for the staging and mart layers.
type PipelineConfig struct {
	// StagingSchema is the schema that staging tables are materialized into.
	StagingSchema string `mapstructure:"staging_schema"`

	// MartsSchema is the schema that mart tables are materialized into.
	MartsSchema string `mapstructure:"marts_schema"`

	// PrimaryRegion is the state code treated as the primary sales region.
	PrimaryRegion string `mapstructure:"primary_region"`

	// TopRegions is the set of state codes treated as high-volume regions.
	TopRegions []string `mapstructure:"top_regions"`
}

// SeedConfig holds configuration for sample data generation.
type SeedConfig struct {
	// Customers is the number of customers to generate.
	Customers int `mapstructure:"customers"`

	// Products is the number of products to generate.
	Products int `mapstructure:"products"`

	// Orders is the number of orders to generate.
	Orders int `mapstructure:"orders"`

	// StartDate is the first day of the date dimension (YYYY-MM-DD).
	StartDate string `mapstructure:"start_date"`

	// EndDate is the last day of the date dimension (YYYY-MM-DD).
	EndDate string `mapstructure:"end_date"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Warehouse: WarehouseConfig{
			Schema: "public",
		},
		Pipeline: PipelineConfig{
			StagingSchema: "staging",
			MartsSchema:   "marts",
			PrimaryRegion: "CA",
			TopRegions:    []string{"CA", "NY", "TX"},
		},
		Seed: SeedConfig{
			Customers: 5000,
			Products:  1000,
			Orders:    20000,
			StartDate: "2016-01-01",
			EndDate:   "2018-12-31",
		},
	}
}

// Load reads configuration from config files.
// Config file locations (in order of precedence):
// 1. Path specified by configFile parameter
// 2. ./pgedge-martgen.yaml
// 3. ~/.config/pgedge-martgen/config.yaml
func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("pgedge-martgen")
	v.SetConfigType("yaml")

	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "pgedge-martgen"))
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	}

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.Connection == "" {
		return fmt.Errorf("connection string is required")
	}
	if c.Warehouse.Schema == "" {
		return fmt.Errorf("warehouse schema is required")
	}
	return nil
}

// ValidateRun checks configuration required for the run command.
func (c *Config) ValidateRun() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Pipeline.StagingSchema == "" {
		return fmt.Errorf("staging schema is required")
	}
	if c.Pipeline.MartsSchema == "" {
		return fmt.Errorf("marts schema is required")
	}
	if c.Pipeline.StagingSchema == c.Pipeline.MartsSchema {
		return fmt.Errorf("staging and marts schemas must differ")
	}
	if c.Pipeline.PrimaryRegion == "" {
		return fmt.Errorf("primary region is required")
	}
	return nil
}

// ValidateSeed checks configuration required for the seed command.
func (c *Config) ValidateSeed() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Seed.Customers < 1 {
		return fmt.Errorf("seed customers must be at least 1")
	}
	if c.Seed.Products < 1 {
		return fmt.Errorf("seed products must be at least 1")
	}
	if c.Seed.Orders < 1 {
		return fmt.Errorf("seed orders must be at least 1")
	}
	if c.Seed.StartDate == "" || c.Seed.EndDate == "" {
		return fmt.Errorf("seed start_date and end_date are required")
	}
	return nil
}
