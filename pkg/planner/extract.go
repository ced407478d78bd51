package planner

import (
	"math"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bakeplan/bakeplan/pkg/domain/entities"
	"github.com/bakeplan/bakeplan/pkg/solver"
)

// nearCapacityThreshold is the utilization above which the extractor
// warns about a resource running close to its limit.
const nearCapacityThreshold = 0.95

// extractSolution reads solved variable values back into computed
// entities and validates the invariants the builder promised. A
// violation beyond tolerance is an ExtractionError: it means the
// builder and solver disagree, not that the data was bad.
//
// Variables the solver left unassigned read as zero. That is the
// documented meaning of an untouched variable in a sparse model, not
// an error.
func extractSolution(n *network, idx *modelIndex, res *solver.Result, cfg Config) (*entities.PlanSolution, error) {
	val := func(v solver.Var) float64 {
		x, ok := res.Value(v)
		if !ok {
			return 0
		}
		return x
	}
	tol := cfg.IntegralityTol

	sol := &entities.PlanSolution{
		PlanID:   uuid.New(),
		Status:   planStatus(res.Status),
		Warnings: append([]string{}, n.warnings...),
		Stats: entities.SolveStats{
			Gap:         res.Gap,
			Nodes:       res.Nodes,
			Variables:   idx.model.NumVars(),
			Constraints: idx.model.NumConstraints(),
		},
	}
	if !res.Status.HasSolution() {
		return sol, nil
	}

	if err := extractBatches(n, idx, val, tol, sol); err != nil {
		return nil, err
	}
	if err := checkSKUCeiling(n, idx, val, tol); err != nil {
		return nil, err
	}
	extractLabor(n, idx, val, sol)
	if err := extractCohorts(n, idx, val, tol, sol); err != nil {
		return nil, err
	}
	extractShipments(n, idx, val, tol, sol)
	extractShortages(n, idx, val, tol, sol)
	if err := checkDemandAccounting(n, idx, val, sol); err != nil {
		return nil, err
	}

	// The declared total is the solver's objective, not a recomputed
	// sum of sub-components: recomputing would mask terms the model
	// carries but the report does not.
	sol.TotalCost = decimal.NewFromFloat(res.Objective)
	sol.FillRate = fillRate(n, sol)
	return sol, nil
}

func planStatus(s solver.Status) entities.PlanStatus {
	switch s {
	case solver.StatusOptimal:
		return entities.PlanOptimal
	case solver.StatusFeasible:
		return entities.PlanFeasible
	case solver.StatusInfeasible:
		return entities.PlanInfeasible
	default:
		return entities.PlanFailed
	}
}

func extractBatches(n *network, idx *modelIndex, val func(solver.Var) float64, tol float64, sol *entities.PlanSolution) error {
	keys := make([]mixKey, 0, len(idx.mix))
	for k := range idx.mix {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, z := keys[i], keys[j]
		if a.Loc != z.Loc {
			return a.Loc < z.Loc
		}
		if a.T != z.T {
			return a.T < z.T
		}
		return a.Prod < z.Prod
	})
	for _, k := range keys {
		raw := val(idx.mix[k])
		rounded := math.Round(raw)
		if math.Abs(raw-rounded) > tol {
			return newExtractionError("integrality", "mix count %s=%g is not integral", idx.model.VarName(idx.mix[k]), raw)
		}
		if rounded < 0.5 {
			continue
		}
		upm := float64(n.products[k.Prod].UnitsPerMix)
		sol.Batches = append(sol.Batches, entities.ProductionBatch{
			Location: k.Loc,
			Product:  k.Prod,
			Date:     n.date(k.T),
			MixCount: int64(rounded),
			Units:    rounded * upm,
		})
	}
	return nil
}

func checkSKUCeiling(n *network, idx *modelIndex, val func(solver.Var) float64, tol float64) error {
	counts := make(map[laborKey]float64)
	for k, v := range idx.produced {
		counts[laborKey{Loc: k.Loc, T: k.T}] += math.Round(val(v))
	}
	for lk, count := range counts {
		limit := float64(n.locations[lk.Loc].Manufacturing.MaxProductsPerDay)
		if count > limit+tol {
			return newExtractionError("sku ceiling", "%s on %s produces %g distinct products, limit %g",
				lk.Loc, n.date(lk.T).Format("2006-01-02"), count, limit)
		}
	}
	return nil
}

func extractLabor(n *network, idx *modelIndex, val func(solver.Var) float64, sol *entities.PlanSolution) {
	type siteDay struct {
		loc *entities.Location
		lk  laborKey
		ld  *entities.LaborDay
	}
	var days []siteDay
	for lk := range idx.anyProduction {
		days = append(days, siteDay{loc: n.locations[lk.Loc], lk: lk, ld: n.calendar[n.date(lk.T)]})
	}
	sort.Slice(days, func(i, j int) bool {
		if days[i].lk.Loc != days[j].lk.Loc {
			return days[i].lk.Loc < days[j].lk.Loc
		}
		return days[i].lk.T < days[j].lk.T
	})

	for _, d := range days {
		spec := d.loc.Manufacturing
		charges, minCharge := changeoverCharges(spec, n.products)
		hours := val(idx.anyProduction[d.lk]) * (spec.StartupHours + spec.ShutdownHours - minCharge)
		for pid, p := range n.products {
			mk := mixKey{Loc: d.lk.Loc, Prod: pid, T: d.lk.T}
			if mv, ok := idx.mix[mk]; ok {
				hours += val(mv) * float64(p.UnitsPerMix) / spec.RateUnitsPerHour
			}
			if pv, ok := idx.produced[mk]; ok {
				hours += math.Round(val(pv)) * charges[pid]
			}
		}
		if hours <= 0 {
			continue
		}

		usage := entities.LaborUsage{
			Location:    d.lk.Loc,
			Date:        n.date(d.lk.T),
			Hours:       hours,
			NonFixedDay: !d.ld.IsFixedDay,
		}
		if d.ld.IsFixedDay {
			ot := val(idx.overtime[d.lk])
			usage.OvertimeHours = ot
			usage.Cost = d.ld.RegularRate.Mul(decimal.NewFromFloat(d.ld.FixedHours)).
				Add(d.ld.OvertimeRate.Mul(decimal.NewFromFloat(ot)))
			avail := d.ld.FixedHours + d.ld.MaxOvertimeHours
			if avail > 0 && hours/avail >= nearCapacityThreshold {
				sol.Warnings = append(sol.Warnings, "labor near capacity: "+string(d.lk.Loc)+" "+usage.Date.Format("2006-01-02"))
			}
		} else {
			paid := val(idx.nonFixedHours[d.lk])
			usage.Cost = d.ld.NonFixedRate.Mul(decimal.NewFromFloat(paid))
			sol.Warnings = append(sol.Warnings, "weekend capacity engaged: "+string(d.lk.Loc)+" "+usage.Date.Format("2006-01-02"))
		}
		sol.Labor = append(sol.Labor, usage)
	}
}

func extractCohorts(n *network, idx *modelIndex, val func(solver.Var) float64, tol float64, sol *entities.PlanSolution) error {
	keys := make([]cohortKey, 0, len(idx.cohort))
	for k := range idx.cohort {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, z := keys[i], keys[j]
		if a.Loc != z.Loc {
			return a.Loc < z.Loc
		}
		if a.Prod != z.Prod {
			return a.Prod < z.Prod
		}
		if a.T != z.T {
			return a.T < z.T
		}
		return a.SD < z.SD
	})
	for _, k := range keys {
		units := val(idx.cohort[k])
		if units <= tol {
			continue
		}
		age := k.T - k.SD
		life := n.products[k.Prod].ShelfLifeDays(k.State)
		if age > life {
			return newExtractionError("shelf life", "cohort %s/%s %s aged %d days exceeds %d-day limit",
				k.Loc, k.Prod, k.State, age, life)
		}
		sol.Cohorts = append(sol.Cohorts, entities.InventoryCohort{
			Location:  k.Loc,
			Product:   k.Prod,
			State:     k.State,
			StateDate: n.date(k.SD),
			Date:      n.date(k.T),
			Units:     units,
		})
	}
	return nil
}

func extractShipments(n *network, idx *modelIndex, val func(solver.Var) float64, tol float64, sol *entities.PlanSolution) {
	keys := make([]shipKey, 0, len(idx.ship))
	for k := range idx.ship {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, z := keys[i], keys[j]
		if a.Leg != z.Leg {
			return a.Leg < z.Leg
		}
		if a.Prod != z.Prod {
			return a.Prod < z.Prod
		}
		if a.T != z.T {
			return a.T < z.T
		}
		return a.SD < z.SD
	})
	for _, k := range keys {
		units := val(idx.ship[k])
		if units <= tol {
			continue
		}
		leg := n.legs[k.Leg]
		sol.Shipments = append(sol.Shipments, entities.Shipment{
			LegID:       leg.ID,
			Origin:      leg.Origin,
			Destination: leg.Destination,
			Product:     k.Prod,
			DepartDate:  n.date(k.T),
			ArriveDate:  n.date(k.T).AddDate(0, 0, leg.TransitDays),
			CohortDate:  n.date(k.SD),
			Units:       units,
		})
	}
}

func extractShortages(n *network, idx *modelIndex, val func(solver.Var) float64, tol float64, sol *entities.PlanSolution) {
	keys := make([]demandKey, 0, len(idx.shortage))
	for k := range idx.shortage {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, z := keys[i], keys[j]
		if a.Loc != z.Loc {
			return a.Loc < z.Loc
		}
		if a.Prod != z.Prod {
			return a.Prod < z.Prod
		}
		return a.T < z.T
	})
	for _, k := range keys {
		units := val(idx.shortage[k])
		if units <= tol {
			continue
		}
		sol.Shortages = append(sol.Shortages, entities.Shortage{
			Location: k.Loc,
			Product:  k.Prod,
			Date:     n.date(k.T),
			Units:    units,
		})
	}
}

// checkDemandAccounting verifies fulfilled plus shortage equals
// forecast for every demand cell.
func checkDemandAccounting(n *network, idx *modelIndex, val func(solver.Var) float64, sol *entities.PlanSolution) error {
	const feasTol = 1e-4
	for key, qty := range n.demand {
		t, ok := n.dateIdx[key.Date]
		if !ok {
			continue
		}
		total := val(idx.shortage[demandKey{Loc: key.Location, Prod: key.Product, T: t}])
		for ck, v := range idx.consume {
			if ck.Loc == key.Location && ck.Prod == key.Product && ck.T == t {
				total += val(v)
			}
		}
		if math.Abs(total-qty) > feasTol*math.Max(1, qty) {
			return newExtractionError("demand accounting", "%s/%s on %s: delivered+shortage %g != forecast %g",
				key.Location, key.Product, key.Date.Format("2006-01-02"), total, qty)
		}
	}
	return nil
}

func fillRate(n *network, sol *entities.PlanSolution) float64 {
	total := n.totalDemand()
	if total <= 0 {
		return 1
	}
	return (total - sol.TotalShortageUnits()) / total
}
