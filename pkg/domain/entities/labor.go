package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// Day normalizes a calendar date to midnight UTC. All planner dates are
// day-granular; times of day never appear in the model.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// IsWeekend reports whether the date falls on Saturday or Sunday.
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// LaborDay represents the labor availability and rates for one calendar
// date. Every manufacturing date within the horizon must resolve to
// exactly one labor day, either explicit or defaulted.
type LaborDay struct {
	Date             time.Time `validate:"required"`
	FixedHours       float64   `validate:"gte=0"`
	MaxOvertimeHours float64   `validate:"gte=0"`
	RegularRate      decimal.Decimal
	OvertimeRate     decimal.Decimal
	NonFixedRate     decimal.Decimal
	MinHoursNonFixed float64 `validate:"gte=0"`
	IsFixedDay       bool
}

// NewLaborDay validates and returns an immutable LaborDay, with the
// date normalized to midnight UTC.
func NewLaborDay(d LaborDay) (*LaborDay, error) {
	if err := checkStruct("labor_day", d); err != nil {
		return nil, err
	}
	if d.RegularRate.IsNegative() || d.OvertimeRate.IsNegative() || d.NonFixedRate.IsNegative() {
		return nil, NewDataError("labor_day", "rates", "labor rates must be non-negative")
	}
	d.Date = Day(d.Date)
	return &d, nil
}

// AvailableHours returns the hard labor-hour ceiling for the date. On
// non-fixed days labor is unbounded (cost-penalized instead), signalled
// by a negative return.
func (d *LaborDay) AvailableHours() float64 {
	if !d.IsFixedDay {
		return -1
	}
	return d.FixedHours + d.MaxOvertimeHours
}
