package entities

import "github.com/shopspring/decimal"

// CostRates holds the objective cost coefficients that are not carried
// on another entity (labor rates live on LaborDay, transport cost on
// RouteLeg).
type CostRates struct {
	ProductionPerUnit decimal.Decimal
	ShortagePerUnit   decimal.Decimal
	WastePerUnit      decimal.Decimal
	// FreshnessPerUnitDay prices each remaining shelf-life day of a
	// shipped or consumed cohort. A small positive value makes the
	// objective prefer older cohorts (soft FEFO).
	FreshnessPerUnitDay decimal.Decimal
}

// NewCostRates validates and returns immutable CostRates.
func NewCostRates(c CostRates) (*CostRates, error) {
	for name, d := range map[string]decimal.Decimal{
		"ProductionPerUnit":   c.ProductionPerUnit,
		"ShortagePerUnit":     c.ShortagePerUnit,
		"WastePerUnit":        c.WastePerUnit,
		"FreshnessPerUnitDay": c.FreshnessPerUnitDay,
	} {
		if d.IsNegative() {
			return nil, NewDataError("cost_rates", name, "cost rate must be non-negative")
		}
	}
	return &c, nil
}
