package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PlanStatus represents the outcome of a solve
type PlanStatus int

const (
	PlanOptimal PlanStatus = iota
	PlanFeasible
	PlanInfeasible
	PlanFailed
)

// String method for PlanStatus enum
func (s PlanStatus) String() string {
	switch s {
	case PlanOptimal:
		return "Optimal"
	case PlanFeasible:
		return "Feasible"
	case PlanInfeasible:
		return "Infeasible"
	case PlanFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// ProductionBatch represents solved production at one (location,
// product, date). Units is derived: MixCount times the product's
// units-per-mix, never stored independently elsewhere.
type ProductionBatch struct {
	Location LocationID `json:"location"`
	Product  ProductID  `json:"product"`
	Date     time.Time  `json:"date"`
	MixCount int64      `json:"mix_count"`
	Units    float64    `json:"units"`
}

// LaborUsage represents the labor-hours breakdown for one
// manufacturing date.
type LaborUsage struct {
	Location      LocationID      `json:"location"`
	Date          time.Time       `json:"date"`
	Hours         float64         `json:"hours"`
	OvertimeHours float64         `json:"overtime_hours"`
	NonFixedDay   bool            `json:"non_fixed_day"`
	Cost          decimal.Decimal `json:"cost"`
}

// InventoryCohort represents surviving inventory of a product at a
// location on a date, tagged by the date it entered its current storage
// state. A thaw event starts a new cohort: StateDate is the thaw date
// and the after-thaw limit applies from there.
type InventoryCohort struct {
	Location  LocationID   `json:"location"`
	Product   ProductID    `json:"product"`
	State     StorageState `json:"state"`
	StateDate time.Time    `json:"state_date"`
	Date      time.Time    `json:"date"`
	Units     float64      `json:"units"`
}

// AgeDays returns the cohort's age in its current state.
func (c *InventoryCohort) AgeDays() int {
	return int(c.Date.Sub(c.StateDate).Hours() / 24)
}

// Shipment represents solved flow on one route leg, tagged by the
// source cohort it draws from.
type Shipment struct {
	LegID       string     `json:"leg_id"`
	Origin      LocationID `json:"origin"`
	Destination LocationID `json:"destination"`
	Product     ProductID  `json:"product"`
	DepartDate  time.Time  `json:"depart_date"`
	ArriveDate  time.Time  `json:"arrive_date"`
	CohortDate  time.Time  `json:"cohort_date"`
	Units       float64    `json:"units"`
}

// Shortage represents forecast demand left unmet by the plan.
type Shortage struct {
	Location LocationID `json:"location"`
	Product  ProductID  `json:"product"`
	Date     time.Time  `json:"date"`
	Units    float64    `json:"units"`
}

// SolveStats carries solver diagnostics for the run that produced a
// plan.
type SolveStats struct {
	Gap         float64 `json:"gap"`
	Nodes       int     `json:"nodes"`
	Variables   int     `json:"variables"`
	Constraints int     `json:"constraints"`
}

// PlanSolution is the complete, immutable output of one solve. All
// computed entities are owned by the solve that produced them; a new
// solve produces a disjoint set under a fresh PlanID.
type PlanSolution struct {
	PlanID    uuid.UUID         `json:"plan_id"`
	Status    PlanStatus        `json:"status"`
	Batches   []ProductionBatch `json:"batches"`
	Labor     []LaborUsage      `json:"labor"`
	Cohorts   []InventoryCohort `json:"cohorts"`
	Shipments []Shipment        `json:"shipments"`
	Shortages []Shortage        `json:"shortages"`
	TotalCost decimal.Decimal   `json:"total_cost"`
	// FillRate is delivered over forecast across the whole horizon.
	FillRate float64    `json:"fill_rate"`
	Warnings []string   `json:"warnings"`
	Stats    SolveStats `json:"stats"`
}

// TotalProducedUnits sums derived units over all batches.
func (s *PlanSolution) TotalProducedUnits() float64 {
	var total float64
	for _, b := range s.Batches {
		total += b.Units
	}
	return total
}

// TotalShortageUnits sums unmet demand over the horizon.
func (s *PlanSolution) TotalShortageUnits() float64 {
	var total float64
	for _, sh := range s.Shortages {
		total += sh.Units
	}
	return total
}
