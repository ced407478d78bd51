package entities

import "github.com/shopspring/decimal"

// TransportMode represents the temperature regime of a route leg
type TransportMode int

const (
	ModeAmbient TransportMode = iota
	ModeFrozen
)

// String method for TransportMode enum
func (m TransportMode) String() string {
	switch m {
	case ModeAmbient:
		return "Ambient"
	case ModeFrozen:
		return "Frozen"
	default:
		return "Unknown"
	}
}

// RouteLeg represents a single directed transport leg between two
// nodes. Legs compose into multi-leg paths; the first leg's destination
// determines which truck departures a shipment is eligible for.
type RouteLeg struct {
	ID            string     `validate:"required"`
	Origin        LocationID `validate:"required"`
	Destination   LocationID `validate:"required"`
	Mode          TransportMode
	TransitDays   int `validate:"gte=0"`
	CostPerUnit   decimal.Decimal
	CapacityUnits float64 `validate:"gte=0"` // 0 = uncapped
}

// NewRouteLeg validates and returns an immutable RouteLeg.
func NewRouteLeg(r RouteLeg) (*RouteLeg, error) {
	if err := checkStruct("route_leg", r); err != nil {
		return nil, err
	}
	if r.Origin == r.Destination {
		return nil, NewDataError("route_leg", "Destination", "leg origin and destination must differ")
	}
	if r.CostPerUnit.IsNegative() {
		return nil, NewDataError("route_leg", "CostPerUnit", "per-unit cost must be non-negative")
	}
	return &r, nil
}
