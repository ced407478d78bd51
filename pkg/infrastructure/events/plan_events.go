package events

import (
	"time"

	"github.com/bakeplan/bakeplan/pkg/domain/entities"
)

const (
	SolveStartedEvent   = "solve.started"
	SolveCompletedEvent = "solve.completed"
	SolveFailedEvent    = "solve.failed"
	WarningRaisedEvent  = "solve.warning.raised"
)

type SolveStarted struct {
	Products  int `json:"products"`
	Locations int `json:"locations"`
	Forecast  int `json:"forecast_entries"`
}

type SolveCompleted struct {
	Status   entities.PlanStatus `json:"status"`
	FillRate float64             `json:"fill_rate"`
	Duration time.Duration       `json:"duration"`
}

type SolveFailed struct {
	Reason string `json:"reason"`
}

type WarningRaised struct {
	Message string `json:"message"`
}
