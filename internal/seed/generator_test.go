//-------------------------------------------------------------------------
//
// pgEdge Mart Generator
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package seed

import (
	"testing"
	"time"

	"github.com/pgEdge/pgedge-martgen/internal/config"
)

func TestNewGenerator(t *testing.T) {
	cfg := config.DefaultConfig().Seed
	g, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed with defaults: %v", err)
	}
	if !g.endDate.After(g.startDate) {
		t.Error("Parsed dates out of order")
	}
}

func TestNewGeneratorInvalidDates(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.SeedConfig)
	}{
		{
			name:   "bad start date",
			mutate: func(c *config.SeedConfig) { c.StartDate = "not-a-date" },
		},
		{
			name:   "bad end date",
			mutate: func(c *config.SeedConfig) { c.EndDate = "2017-13-45" },
		},
		{
			name: "end before start",
			mutate: func(c *config.SeedConfig) {
				c.StartDate = "2018-01-01"
				c.EndDate = "2017-01-01"
			},
		},
		{
			name: "end equals start",
			mutate: func(c *config.SeedConfig) {
				c.StartDate = "2017-01-01"
				c.EndDate = "2017-01-01"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig().Seed
			tt.mutate(&cfg)
			if _, err := New(cfg); err == nil {
				t.Error("Expected error, got nil")
			}
		})
	}
}

func TestDateOnly(t *testing.T) {
	ts := time.Date(2017, 3, 5, 23, 59, 59, 0, time.UTC)
	if got := dateOnly(ts); got != "2017-03-05" {
		t.Errorf("dateOnly = %q", got)
	}
}

func TestOrderStatusWeightsAligned(t *testing.T) {
	if len(orderStatuses) != len(orderStatusWeights) {
		t.Fatalf("statuses (%d) and weights (%d) differ in length",
			len(orderStatuses), len(orderStatusWeights))
	}
	if orderStatuses[0] != "delivered" || orderStatusWeights[0] < 50 {
		t.Error("delivered should dominate the generated statuses")
	}
}
