package dto

import (
	"time"

	"github.com/bakeplan/bakeplan/pkg/domain/entities"
)

// PlanResult contains the complete output of a planning run
type PlanResult struct {
	Solution *entities.PlanSolution `json:"solution"`
	Duration time.Duration          `json:"duration"`
}

// Summary aggregates headline figures for display.
type Summary struct {
	Status         string  `json:"status"`
	TotalCost      string  `json:"total_cost"`
	FillRate       float64 `json:"fill_rate"`
	ProducedUnits  float64 `json:"produced_units"`
	ShortageUnits  float64 `json:"shortage_units"`
	Batches        int     `json:"batches"`
	Shipments      int     `json:"shipments"`
	Warnings       int     `json:"warnings"`
	SolverNodes    int     `json:"solver_nodes"`
	SolverGap      float64 `json:"solver_gap"`
	DurationMillis int64   `json:"duration_ms"`
}

// Summarize builds the headline summary for a result.
func (r *PlanResult) Summarize() Summary {
	s := r.Solution
	return Summary{
		Status:         s.Status.String(),
		TotalCost:      s.TotalCost.StringFixed(2),
		FillRate:       s.FillRate,
		ProducedUnits:  s.TotalProducedUnits(),
		ShortageUnits:  s.TotalShortageUnits(),
		Batches:        len(s.Batches),
		Shipments:      len(s.Shipments),
		Warnings:       len(s.Warnings),
		SolverNodes:    s.Stats.Nodes,
		SolverGap:      s.Stats.Gap,
		DurationMillis: r.Duration.Milliseconds(),
	}
}
