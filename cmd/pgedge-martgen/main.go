//-------------------------------------------------------------------------
//
// pgEdge Mart Generator
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package main is the entry point for pgedge-martgen.
package main

import (
	"fmt"
	"os"

	"github.com/pgEdge/pgedge-martgen/internal/cli"

	// Register pipeline stages
	_ "github.com/pgEdge/pgedge-martgen/internal/pipeline/marts"
	_ "github.com/pgEdge/pgedge-martgen/internal/pipeline/staging"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
