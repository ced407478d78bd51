package planner

import (
	"fmt"
	"sort"
	"time"

	"github.com/bakeplan/bakeplan/pkg/domain/entities"
)

// FEFOMode selects how first-expired-first-out forwarding is encoded
type FEFOMode int

const (
	// FEFOSoft prices younger cohorts at a freshness premium so the
	// objective prefers shipping older stock.
	FEFOSoft FEFOMode = iota
	// FEFOHard forbids drawing from a cohort while an older cohort at
	// the same node still holds stock.
	FEFOHard
)

// String method for FEFOMode enum
func (m FEFOMode) String() string {
	switch m {
	case FEFOSoft:
		return "Soft"
	case FEFOHard:
		return "Hard"
	default:
		return "Unknown"
	}
}

// Config holds the knobs of one solve. Zero values select the
// defaults applied by New.
type Config struct {
	TimeLimit                time.Duration
	MIPGap                   float64
	UseWarmstart             bool
	StrictCalendarValidation bool
	FEFO                     FEFOMode
	// HorizonLeadDays extends the horizon before the first forecast
	// date to leave room for production and transit. Zero derives it
	// from route transit times.
	HorizonLeadDays int
	// IntegralityTol is the tolerance for the extractor's integrality
	// check.
	IntegralityTol float64
	// TargetSKUsPerDay caps how many distinct products the warmstart
	// schedules per weekday. Zero means the smallest manufacturing
	// site per-day SKU limit.
	TargetSKUsPerDay int
}

// Scenario is the complete entity model consumed by one solve. Input
// data is read-only for the duration of the solve.
type Scenario struct {
	Products  []*entities.Product
	Locations []*entities.Location
	Routes    []*entities.RouteLeg
	Calendar  []*entities.LaborDay
	Trucks    []*entities.TruckDeparture
	Forecast  []*entities.ForecastEntry
	Costs     *entities.CostRates
}

// network is the validated, indexed form of a Scenario over a concrete
// date horizon.
type network struct {
	products  map[entities.ProductID]*entities.Product
	locations map[entities.LocationID]*entities.Location
	mfg       []*entities.Location
	legs      []*entities.RouteLeg
	legsFrom  map[entities.LocationID][]int
	trucks    []*entities.TruckDeparture
	calendar  map[time.Time]*entities.LaborDay
	demand    map[entities.ForecastKey]float64
	costs     *entities.CostRates

	dates   []time.Time
	dateIdx map[time.Time]int

	warnings []string
}

func (n *network) warnf(format string, args ...interface{}) {
	n.warnings = append(n.warnings, fmt.Sprintf(format, args...))
}

// date returns the horizon date at index i.
func (n *network) date(i int) time.Time { return n.dates[i] }

// productionState returns the storage state a product enters when
// produced at the given site. Frozen-capable sites freeze their output;
// thaw happens downstream.
func productionState(loc *entities.Location) entities.StorageState {
	if loc.Storage.SupportsFrozen() {
		return entities.StateFrozen
	}
	return entities.StateAmbient
}

// buildNetwork validates the scenario and indexes it over the horizon.
// Validation failures surface as DataError or ModelBuildError before
// any solver work happens.
func buildNetwork(sc *Scenario, cfg Config) (*network, error) {
	if len(sc.Products) == 0 {
		return nil, entities.NewDataError("scenario", "Products", "at least one product is required")
	}
	if len(sc.Forecast) == 0 {
		return nil, entities.NewDataError("scenario", "Forecast", "at least one forecast entry is required")
	}
	if sc.Costs == nil {
		return nil, entities.NewDataError("scenario", "Costs", "cost rates are required")
	}

	n := &network{
		products:  make(map[entities.ProductID]*entities.Product),
		locations: make(map[entities.LocationID]*entities.Location),
		legsFrom:  make(map[entities.LocationID][]int),
		calendar:  make(map[time.Time]*entities.LaborDay),
		demand:    make(map[entities.ForecastKey]float64),
		dateIdx:   make(map[time.Time]int),
		costs:     sc.Costs,
	}

	for _, p := range sc.Products {
		if p.UnitsPerMix <= 0 {
			return nil, entities.NewDataError("product", "UnitsPerMix", fmt.Sprintf("product %s: units-per-mix must be positive", p.ID))
		}
		if _, dup := n.products[p.ID]; dup {
			return nil, entities.NewDataError("product", "ID", fmt.Sprintf("duplicate product %s", p.ID))
		}
		n.products[p.ID] = p
	}
	for _, l := range sc.Locations {
		if _, dup := n.locations[l.ID]; dup {
			return nil, entities.NewDataError("location", "ID", fmt.Sprintf("duplicate location %s", l.ID))
		}
		n.locations[l.ID] = l
		if l.IsManufacturing() {
			if l.Manufacturing == nil {
				return nil, entities.NewDataError("location", "Manufacturing", fmt.Sprintf("manufacturing location %s has no manufacturing spec", l.ID))
			}
			n.mfg = append(n.mfg, l)
		}
	}
	sort.Slice(n.mfg, func(i, j int) bool { return n.mfg[i].ID < n.mfg[j].ID })

	maxTransit := 0
	for _, leg := range sc.Routes {
		if _, ok := n.locations[leg.Origin]; !ok {
			return nil, newBuildError("routes", "leg %s references undefined origin %s", leg.ID, leg.Origin)
		}
		if _, ok := n.locations[leg.Destination]; !ok {
			return nil, newBuildError("routes", "leg %s references undefined destination %s", leg.ID, leg.Destination)
		}
		if leg.Mode == entities.ModeFrozen && !n.locations[leg.Origin].Storage.SupportsFrozen() {
			return nil, newBuildError("routes", "frozen leg %s departs origin %s without frozen storage", leg.ID, leg.Origin)
		}
		idx := len(n.legs)
		n.legs = append(n.legs, leg)
		n.legsFrom[leg.Origin] = append(n.legsFrom[leg.Origin], idx)
		if leg.TransitDays > maxTransit {
			maxTransit = leg.TransitDays
		}
	}
	for _, t := range sc.Trucks {
		if _, ok := n.locations[t.Origin]; !ok {
			return nil, newBuildError("trucks", "departure %s references undefined origin %s", t.ID, t.Origin)
		}
		if t.Destination != "" {
			if _, ok := n.locations[t.Destination]; !ok {
				return nil, newBuildError("trucks", "departure %s references undefined destination %s", t.ID, t.Destination)
			}
		}
		n.trucks = append(n.trucks, t)
	}

	var first, last time.Time
	for _, f := range sc.Forecast {
		if _, ok := n.locations[f.Location]; !ok {
			return nil, entities.NewDataError("forecast_entry", "Location", fmt.Sprintf("forecast references undefined location %s", f.Location))
		}
		if _, ok := n.products[f.Product]; !ok {
			return nil, entities.NewDataError("forecast_entry", "Product", fmt.Sprintf("forecast references undefined product %s", f.Product))
		}
		d := entities.Day(f.Date)
		if first.IsZero() || d.Before(first) {
			first = d
		}
		if d.After(last) {
			last = d
		}
		n.demand[f.Key()] += f.Units
	}

	lead := cfg.HorizonLeadDays
	if lead == 0 {
		// Room for a two-echelon path (plant, hub, spoke) plus one
		// production day.
		lead = 2*maxTransit + 1
	}
	start := first.AddDate(0, 0, -lead)
	for d := start; !d.After(last); d = d.AddDate(0, 0, 1) {
		n.dateIdx[d] = len(n.dates)
		n.dates = append(n.dates, d)
	}

	if err := n.resolveCalendar(sc.Calendar, cfg.StrictCalendarValidation); err != nil {
		return nil, err
	}
	return n, nil
}

// resolveCalendar maps every horizon date to exactly one labor day.
// Gaps are fatal under strict validation; otherwise they are defaulted
// to weekday/weekend conventions derived from the explicit entries,
// with a warning per defaulted date.
func (n *network) resolveCalendar(days []*entities.LaborDay, strict bool) error {
	for _, d := range days {
		key := entities.Day(d.Date)
		if _, dup := n.calendar[key]; dup {
			return entities.NewDataError("labor_day", "Date", fmt.Sprintf("duplicate labor day %s", key.Format("2006-01-02")))
		}
		n.calendar[key] = d
	}
	if len(n.mfg) == 0 {
		return nil
	}

	var template *entities.LaborDay
	for _, d := range n.dates {
		if ld, ok := n.calendar[d]; ok && ld.IsFixedDay {
			template = ld
			break
		}
	}

	for _, d := range n.dates {
		if _, ok := n.calendar[d]; ok {
			continue
		}
		if strict {
			return entities.NewDataError("labor_day", "Date", fmt.Sprintf("no labor day covers %s within the horizon", d.Format("2006-01-02")))
		}
		if template == nil {
			return entities.NewDataError("labor_day", "Date", "labor calendar has no fixed-day entry to default from")
		}
		def := *template
		def.Date = d
		if entities.IsWeekend(d) {
			def.IsFixedDay = false
			def.FixedHours = 0
			def.MaxOvertimeHours = 0
		}
		n.calendar[d] = &def
		n.warnf("labor calendar date defaulted: %s", d.Format("2006-01-02"))
	}
	return nil
}

// totalDemand sums forecast units over the horizon.
func (n *network) totalDemand() float64 {
	var total float64
	for _, q := range n.demand {
		total += q
	}
	return total
}

// demandByProduct aggregates forecast units per product.
func (n *network) demandByProduct() map[entities.ProductID]float64 {
	out := make(map[entities.ProductID]float64)
	for k, q := range n.demand {
		out[k.Product] += q
	}
	return out
}
