package planner

import (
	"context"
	"fmt"

	"github.com/bakeplan/bakeplan/pkg/domain/entities"
	"github.com/bakeplan/bakeplan/pkg/solver"
)

// Engine runs the full planning pipeline: validate and index the
// entity model, generate the campaign warmstart, build the MIP, invoke
// the solver, extract and validate the plan. An Engine is stateless
// between solves; every solve owns a freshly built model, so separate
// solves may run concurrently over the same read-only scenario.
type Engine struct {
	cfg Config
}

// New creates an engine with the given configuration, applying
// defaults for zero values.
func New(cfg Config) *Engine {
	if cfg.IntegralityTol == 0 {
		cfg.IntegralityTol = 1e-4
	}
	return &Engine{cfg: cfg}
}

// Config returns the effective configuration of the engine.
func (e *Engine) Config() Config {
	return e.cfg
}

// Validate checks a scenario without solving it: entity validation,
// network construction and model assembly all run, and any lenient
// calendar or reachability warnings are returned.
func (e *Engine) Validate(sc *Scenario) ([]string, error) {
	n, err := buildNetwork(sc, e.cfg)
	if err != nil {
		return nil, err
	}
	if _, err := buildModel(n, e.cfg); err != nil {
		return nil, err
	}
	return n.warnings, nil
}

// Solve produces a validated plan for the scenario.
//
// DataError and ModelBuildError abort before the solver runs. An
// infeasible model or an exhausted budget without an incumbent is a
// legitimate outcome, returned as a PlanSolution with the matching
// status and no error.
func (e *Engine) Solve(ctx context.Context, sc *Scenario) (*entities.PlanSolution, error) {
	n, err := buildNetwork(sc, e.cfg)
	if err != nil {
		return nil, err
	}

	idx, err := buildModel(n, e.cfg)
	if err != nil {
		return nil, err
	}

	if e.cfg.UseWarmstart {
		applyWarmstart(n, idx, GenerateWarmstart(n, e.cfg.TargetSKUsPerDay))
	}

	res, err := solver.Solve(ctx, idx.model, solver.Options{
		TimeLimit:    e.cfg.TimeLimit,
		MIPGap:       e.cfg.MIPGap,
		UseWarmstart: e.cfg.UseWarmstart,
	})
	if err != nil {
		return nil, fmt.Errorf("solver invocation: %w", err)
	}

	return extractSolution(n, idx, res, e.cfg)
}
