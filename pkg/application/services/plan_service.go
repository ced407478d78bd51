package services

import (
	"context"
	"fmt"
	"time"

	"github.com/bakeplan/bakeplan/pkg/application/dto"
	"github.com/bakeplan/bakeplan/pkg/infrastructure/events"
	"github.com/bakeplan/bakeplan/pkg/infrastructure/metrics"
	"github.com/bakeplan/bakeplan/pkg/planner"
)

// PlanService orchestrates a planning run: it drives the engine,
// records the solve to the audit trail and reports metrics. The event
// store and collector are optional; a nil dependency is skipped.
type PlanService struct {
	engine  *planner.Engine
	store   *events.InMemoryEventStore
	metrics *metrics.Collector
}

// NewPlanService creates a plan service around a configured engine.
func NewPlanService(engine *planner.Engine, store *events.InMemoryEventStore, collector *metrics.Collector) *PlanService {
	return &PlanService{
		engine:  engine,
		store:   store,
		metrics: collector,
	}
}

// Solve runs the full planning pipeline for one scenario.
func (s *PlanService) Solve(ctx context.Context, sc *planner.Scenario) (*dto.PlanResult, error) {
	streamID := fmt.Sprintf("plan-%d", time.Now().UnixNano())
	s.append(streamID, events.SolveStartedEvent, events.SolveStarted{
		Products:  len(sc.Products),
		Locations: len(sc.Locations),
		Forecast:  len(sc.Forecast),
	})

	start := time.Now()
	sol, err := s.engine.Solve(ctx, sc)
	elapsed := time.Since(start)

	if err != nil {
		s.append(streamID, events.SolveFailedEvent, events.SolveFailed{Reason: err.Error()})
		s.metrics.RecordSolve("error", elapsed.Seconds(), 0)
		return nil, err
	}

	for _, w := range sol.Warnings {
		s.append(streamID, events.WarningRaisedEvent, events.WarningRaised{Message: w})
	}
	s.append(streamID, events.SolveCompletedEvent, events.SolveCompleted{
		Status:   sol.Status,
		FillRate: sol.FillRate,
		Duration: elapsed,
	})
	s.metrics.RecordSolve(sol.Status.String(), elapsed.Seconds(), sol.Stats.Nodes)
	s.metrics.RecordModelSize(sol.Stats.Variables, sol.Stats.Constraints)

	return &dto.PlanResult{Solution: sol, Duration: elapsed}, nil
}

// Events returns the audit trail of a given plan stream.
func (s *PlanService) Events(streamID string) ([]events.Event, error) {
	if s.store == nil {
		return nil, nil
	}
	return s.store.ReadEvents(streamID)
}

func (s *PlanService) append(streamID, eventType string, data interface{}) {
	if s.store == nil {
		return
	}
	// The in-memory store cannot fail; keep the error surface anyway
	// so a persistent store can slot in later.
	_ = s.store.AppendEvent(streamID, events.NewEvent(eventType, streamID, data))
}
