//-------------------------------------------------------------------------
//
// pgEdge Mart Generator
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/pgEdge/pgedge-martgen/internal/logging"
)

// Sort orders stages so every stage appears after all of its inputs.
// Ties are broken by name so the execution order is deterministic.
// Returns an error on unknown inputs or dependency cycles.
func Sort(stages []Stage) ([]Stage, error) {
	byName := make(map[string]Stage, len(stages))
	for _, s := range stages {
		byName[s.Name()] = s
	}

	for _, s := range stages {
		for _, in := range s.Inputs() {
			if _, ok := byName[in]; !ok {
				return nil, fmt.Errorf("stage %s depends on unknown stage %s", s.Name(), in)
			}
		}
	}

	names := make([]string, 0, len(stages))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)

	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[string]int, len(stages))
	ordered := make([]Stage, 0, len(stages))

	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("dependency cycle involving stage %s", name)
		}
		state[name] = visiting

		inputs := append([]string(nil), byName[name].Inputs()...)
		sort.Strings(inputs)
		for _, in := range inputs {
			if err := visit(in); err != nil {
				return err
			}
		}

		state[name] = done
		ordered = append(ordered, byName[name])
		return nil
	}

	for _, name := range names {
		if err := visit(name); err != nil {
			return nil, err
		}
	}

	return ordered, nil
}

// Closure returns the selected stages plus the transitive closure of
// their inputs, in dependency order.
func Closure(selected []string) ([]Stage, error) {
	needed := make(map[string]struct{})

	var include func(name string) error
	include = func(name string) error {
		if _, ok := needed[name]; ok {
			return nil
		}
		stage, err := Get(name)
		if err != nil {
			return err
		}
		needed[name] = struct{}{}
		for _, in := range stage.Inputs() {
			if err := include(in); err != nil {
				return err
			}
		}
		return nil
	}

	for _, name := range selected {
		if err := include(name); err != nil {
			return nil, err
		}
	}

	stages := make([]Stage, 0, len(needed))
	for name := range needed {
		stage, _ := Get(name)
		stages = append(stages, stage)
	}
	return Sort(stages)
}

// Scheduler executes stages in dependency order.
type Scheduler struct {
	run *Run
}

// NewScheduler creates a scheduler for one pipeline run.
func NewScheduler(run *Run) *Scheduler {
	return &Scheduler{run: run}
}

// Execute builds the given stages sequentially in the order provided.
// The first failing stage aborts the run; its output table is left
// untouched from the previous successful run.
func (s *Scheduler) Execute(ctx context.Context, stages []Stage) error {
	for _, stage := range stages {
		log := logging.Stage(stage.Name())
		log.Info().
			Str("layer", string(stage.Layer())).
			Str("table", fmt.Sprintf("%s.%s", s.run.SchemaFor(stage.Layer()), stage.Table())).
			Msg("Building stage")

		start := time.Now()
		rows, err := stage.Build(ctx, s.run)
		if err != nil {
			return fmt.Errorf("stage %s failed: %w", stage.Name(), err)
		}

		log.Info().
			Int64("rows", rows).
			Dur("elapsed", time.Since(start)).
			Msg("Stage complete")
	}
	return nil
}
