package entities

import "time"

// DepartureSlot represents the time slot of a truck departure
type DepartureSlot int

const (
	Morning DepartureSlot = iota
	Afternoon
)

// String method for DepartureSlot enum
func (s DepartureSlot) String() string {
	switch s {
	case Morning:
		return "Morning"
	case Afternoon:
		return "Afternoon"
	default:
		return "Unknown"
	}
}

// TruckDeparture represents a scheduled truck. A departure is either
// recurring (DayOfWeek, zero Date) or a one-off (specific Date). A zero
// Destination means the truck is flexible and may serve any first-leg
// destination from its origin.
type TruckDeparture struct {
	ID             string     `validate:"required"`
	Origin         LocationID `validate:"required"`
	Destination    LocationID // empty = flexible
	DayOfWeek      time.Weekday
	Date           time.Time // optional specific date
	Slot           DepartureSlot
	UnitCapacity   float64 `validate:"gt=0"`
	PalletCapacity int     `validate:"gt=0"`
	UnitsPerPallet int     `validate:"gt=0"`
	UnitsPerCase   int     `validate:"gt=0"`
}

// NewTruckDeparture validates and returns an immutable TruckDeparture.
func NewTruckDeparture(t TruckDeparture) (*TruckDeparture, error) {
	if err := checkStruct("truck_departure", t); err != nil {
		return nil, err
	}
	if !t.Date.IsZero() {
		t.Date = Day(t.Date)
	}
	return &t, nil
}

// DepartsOn reports whether this truck runs on the given date.
func (t *TruckDeparture) DepartsOn(date time.Time) bool {
	date = Day(date)
	if !t.Date.IsZero() {
		return t.Date.Equal(date)
	}
	return t.DayOfWeek == date.Weekday()
}

// Serves reports whether this truck may carry freight to the given
// first-leg destination.
func (t *TruckDeparture) Serves(dest LocationID) bool {
	return t.Destination == "" || t.Destination == dest
}
