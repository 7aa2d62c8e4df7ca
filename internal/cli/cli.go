//-------------------------------------------------------------------------
//
// pgEdge Mart Generator
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package cli implements the command-line interface for pgedge-martgen.
package cli

import (
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-martgen/internal/config"
	"github.com/pgEdge/pgedge-martgen/internal/logging"
	"github.com/pgEdge/pgedge-martgen/internal/pipeline"
	"github.com/pgEdge/pgedge-martgen/pkg/version"
)

var (
	// Global flags
	cfgFile    string
	connection string
	logLevel   string

	// Global config
	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:   "pgedge-martgen",
		Short: "PostgreSQL data mart generator for e-commerce order history",
		Long: `pgedge-martgen transforms an e-commerce star-schema warehouse into
cleaned staging tables and aggregated data marts.

The pipeline reads dimension and fact tables, stages delivered orders
with derived delivery metrics, and builds customer, product and monthly
revenue marts. Each table is rebuilt atomically: the previous version
stays queryable until its replacement is complete.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: ./pgedge-martgen.yaml)")
	rootCmd.PersistentFlags().StringVar(&connection, "connection", "",
		"PostgreSQL connection string")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"log level (debug, info, warn, error)")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(stagesCmd)
}

func initConfig() error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return err
	}

	// Override with CLI flags
	if connection != "" {
		cfg.Connection = connection
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	// Reinitialize logger with config
	logging.Init(logging.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
	})

	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println(version.Info())
	},
}

var stagesCmd = &cobra.Command{
	Use:   "stages",
	Short: "List pipeline stages",
	Long: `List all registered pipeline stages in dependency order, with the
layer each stage writes to and the stages it reads from.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		stages, err := pipeline.Sort(pipeline.All())
		if err != nil {
			return err
		}

		cmd.Println("Pipeline stages (dependency order):")
		cmd.Println()
		for _, s := range stages {
			inputs := "warehouse"
			if len(s.Inputs()) > 0 {
				names := append([]string(nil), s.Inputs()...)
				sort.Strings(names)
				inputs = strings.Join(names, ", ")
			}
			cmd.Printf("  %-20s %-8s reads: %s\n", s.Name(), s.Layer(), inputs)
			cmd.Printf("  %20s %s\n", "", s.Description())
		}
		return nil
	},
}
