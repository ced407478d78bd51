package planner

import (
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/bakeplan/bakeplan/pkg/domain/entities"
	"github.com/bakeplan/bakeplan/pkg/solver"
)

// chainKey identifies one inventory cohort chain: stock of a product
// at a location in a storage state, tagged by the date index on which
// it entered that state.
type chainKey struct {
	Loc   entities.LocationID
	Prod  entities.ProductID
	State entities.StorageState
	SD    int
}

// cohortKey is a chain observed on a specific date index.
type cohortKey struct {
	chainKey
	T int
}

type mixKey struct {
	Loc  entities.LocationID
	Prod entities.ProductID
	T    int
}

type laborKey struct {
	Loc entities.LocationID
	T   int
}

type demandKey struct {
	Loc  entities.LocationID
	Prod entities.ProductID
	T    int
}

type shipKey struct {
	Leg int
	chainKey
	T int
}

type truckShipKey struct {
	Truck int
	Leg   int
	Prod  entities.ProductID
	T     int
}

type palletKey struct {
	Truck int
	Prod  entities.ProductID
	T     int
}

// modelIndex maps solver variables back to the planning quantities
// they encode. The extractor reads solved values through it.
type modelIndex struct {
	model *solver.Model

	mix           map[mixKey]solver.Var
	produced      map[mixKey]solver.Var
	numProducts   map[laborKey]solver.Var
	anyProduction map[laborKey]solver.Var
	overtime      map[laborKey]solver.Var
	nonFixedHours map[laborKey]solver.Var
	cohort        map[cohortKey]solver.Var
	consume       map[cohortKey]solver.Var
	ship          map[shipKey]solver.Var
	shortage      map[demandKey]solver.Var
	truckShip     map[truckShipKey]solver.Var
	pallets       map[palletKey]solver.Var
}

type builder struct {
	n   *network
	cfg Config
	idx *modelIndex

	chains     map[chainKey]struct{}
	arrivals   map[cohortKey][]solver.Var
	departures map[cohortKey][]solver.Var
	bigM       float64
}

// buildModel assembles the MIP for the network. It fails fast with a
// ModelBuildError or DataError before any solver work when the entity
// model cannot support a well-formed program.
func buildModel(n *network, cfg Config) (*modelIndex, error) {
	b := &builder{
		n:   n,
		cfg: cfg,
		idx: &modelIndex{
			model:         solver.NewModel(),
			mix:           make(map[mixKey]solver.Var),
			produced:      make(map[mixKey]solver.Var),
			numProducts:   make(map[laborKey]solver.Var),
			anyProduction: make(map[laborKey]solver.Var),
			overtime:      make(map[laborKey]solver.Var),
			nonFixedHours: make(map[laborKey]solver.Var),
			cohort:        make(map[cohortKey]solver.Var),
			consume:       make(map[cohortKey]solver.Var),
			ship:          make(map[shipKey]solver.Var),
			shortage:      make(map[demandKey]solver.Var),
			truckShip:     make(map[truckShipKey]solver.Var),
			pallets:       make(map[palletKey]solver.Var),
		},
		chains:     make(map[chainKey]struct{}),
		arrivals:   make(map[cohortKey][]solver.Var),
		departures: make(map[cohortKey][]solver.Var),
	}
	b.bigM = b.supplyBound()

	if err := b.checkModes(); err != nil {
		return nil, err
	}
	b.traceCohortChains()
	if err := b.addProduction(); err != nil {
		return nil, err
	}
	b.addCohorts()
	b.addShipments()
	b.addDemand()
	b.addConservation()
	b.addTrucks()
	b.addStorageCapacity()
	if b.cfg.FEFO == FEFOHard {
		b.addHardFEFO()
	}
	return b.idx, nil
}

// supplyBound is a big-M valid for any single flow quantity: total
// production capacity over the horizon plus total demand.
func (b *builder) supplyBound() float64 {
	var m float64
	for _, site := range b.n.mfg {
		m += site.Manufacturing.MaxDailyUnits * float64(len(b.n.dates))
	}
	return m + b.n.totalDemand() + 1
}

// checkModes rejects legs whose mode cannot draw any cohort at the
// origin.
func (b *builder) checkModes() error {
	for _, leg := range b.n.legs {
		origin := b.n.locations[leg.Origin]
		if leg.Mode == entities.ModeAmbient && !origin.Storage.SupportsAmbient() && origin.IsManufacturing() {
			return newBuildError("routes", "ambient leg %s departs frozen-only origin %s with no thawed stock", leg.ID, leg.Origin)
		}
	}
	return nil
}

// traceCohortChains computes the closure of cohort chains reachable
// from production through the route network. Only reachable chains get
// variables; everything else is structurally zero.
func (b *builder) traceCohortChains() {
	end := len(b.n.dates) - 1
	var queue []chainKey
	push := func(c chainKey) {
		if _, seen := b.chains[c]; seen {
			return
		}
		b.chains[c] = struct{}{}
		queue = append(queue, c)
	}

	for _, site := range b.n.mfg {
		state := productionState(site)
		for pid := range b.n.products {
			for sd := 0; sd <= end; sd++ {
				push(chainKey{Loc: site.ID, Prod: pid, State: state, SD: sd})
			}
		}
	}

	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		life := b.n.products[c.Prod].ShelfLifeDays(c.State)
		lastT := min(c.SD+life, end)
		for _, legIdx := range b.n.legsFrom[c.Loc] {
			leg := b.n.legs[legIdx]
			if !legCarries(leg.Mode, c.State) {
				continue
			}
			for t := c.SD; t <= lastT; t++ {
				a := t + leg.TransitDays
				if a > end {
					continue
				}
				if dest, ok := b.arrivalChain(leg, c, a); ok {
					push(dest)
				}
			}
		}
	}
}

// legCarries reports whether a leg of the given mode can carry cohorts
// in the given state.
func legCarries(mode entities.TransportMode, state entities.StorageState) bool {
	if mode == entities.ModeFrozen {
		return state == entities.StateFrozen
	}
	return state == entities.StateAmbient || state == entities.StateThawed
}

// arrivalChain maps a departing cohort onto the chain it joins at the
// destination. A frozen shipment arriving at a node without frozen
// storage thaws on arrival: the cohort's age baseline resets to the
// arrival date and the after-thaw limit applies from there.
func (b *builder) arrivalChain(leg *entities.RouteLeg, src chainKey, arrival int) (chainKey, bool) {
	dest := b.n.locations[leg.Destination]
	if src.State == entities.StateFrozen {
		if dest.Storage.SupportsFrozen() {
			life := b.n.products[src.Prod].ShelfLifeFrozenDays
			if arrival > src.SD+life {
				return chainKey{}, false
			}
			return chainKey{Loc: dest.ID, Prod: src.Prod, State: entities.StateFrozen, SD: src.SD}, true
		}
		return chainKey{Loc: dest.ID, Prod: src.Prod, State: entities.StateThawed, SD: arrival}, true
	}
	if !dest.Storage.SupportsAmbient() {
		return chainKey{}, false
	}
	life := b.n.products[src.Prod].ShelfLifeDays(src.State)
	if arrival > src.SD+life {
		return chainKey{}, false
	}
	return chainKey{Loc: dest.ID, Prod: src.Prod, State: src.State, SD: src.SD}, true
}

// changeoverCharges prices the transitions a day's product set implies
// without modeling the sequence: each scheduled product is charged its
// worst incoming changeover from the site's pair matrix, and the
// cheapest charge is refunded once because a campaign of n products has
// only n-1 transitions.
func changeoverCharges(spec *entities.ManufacturingSpec, products map[entities.ProductID]*entities.Product) (map[entities.ProductID]float64, float64) {
	charges := make(map[entities.ProductID]float64, len(products))
	minCharge := math.Inf(1)
	for pid := range products {
		w := spec.DefaultChangeoverHours
		for qid := range products {
			if qid == pid {
				continue
			}
			if h := spec.ChangeoverFor(qid, pid); h > w {
				w = h
			}
		}
		charges[pid] = w
		if w < minCharge {
			minCharge = w
		}
	}
	if math.IsInf(minCharge, 1) {
		minCharge = spec.DefaultChangeoverHours
	}
	return charges, minCharge
}

// addProduction creates mix-count and produced-indicator variables and
// the labor model for every manufacturing site and date.
func (b *builder) addProduction() error {
	for _, site := range b.n.mfg {
		spec := site.Manufacturing
		charges, minCharge := changeoverCharges(spec, b.n.products)
		for t := range b.n.dates {
			date := b.n.date(t)
			ld, ok := b.n.calendar[date]
			if !ok {
				return entities.NewDataError("labor_day", "Date", fmt.Sprintf("no labor day covers %s", date.Format("2006-01-02")))
			}
			lk := laborKey{Loc: site.ID, T: t}

			anyVar := b.idx.model.AddBinVar(fmt.Sprintf("any[%s,%d]", site.ID, t), 0)
			numVar := b.idx.model.AddIntVar(fmt.Sprintf("nprod[%s,%d]", site.ID, t), 0, float64(spec.MaxProductsPerDay), 0)
			b.idx.anyProduction[lk] = anyVar
			b.idx.numProducts[lk] = numVar

			prodCost, _ := b.n.costs.ProductionPerUnit.Float64()
			var numLink []solver.Term
			var capacity []solver.Term
			hours := []solver.Term{
				{Var: anyVar, Coef: spec.StartupHours + spec.ShutdownHours - minCharge},
			}

			for _, pid := range b.sortedProducts() {
				p := b.n.products[pid]
				mk := mixKey{Loc: site.ID, Prod: pid, T: t}
				upm := float64(p.UnitsPerMix)
				maxMix := math.Floor(spec.MaxDailyUnits / upm)

				mixVar := b.idx.model.AddIntVar(fmt.Sprintf("mix[%s,%s,%d]", site.ID, pid, t), 0, maxMix, upm*prodCost)
				prodVar := b.idx.model.AddBinVar(fmt.Sprintf("prod[%s,%s,%d]", site.ID, pid, t), 0)
				b.idx.mix[mk] = mixVar
				b.idx.produced[mk] = prodVar

				// mix >= 1 forces the indicator on; the indicator off
				// forces mix to zero.
				b.idx.model.AddConstraint(fmt.Sprintf("link[%s,%s,%d]", site.ID, pid, t),
					[]solver.Term{{Var: mixVar, Coef: 1}, {Var: prodVar, Coef: -maxMix}}, solver.LessEq, 0)
				b.idx.model.AddConstraint(fmt.Sprintf("ind[%s,%s,%d]", site.ID, pid, t),
					[]solver.Term{{Var: prodVar, Coef: 1}, {Var: anyVar, Coef: -1}}, solver.LessEq, 0)

				numLink = append(numLink, solver.Term{Var: prodVar, Coef: 1})
				capacity = append(capacity, solver.Term{Var: mixVar, Coef: upm})
				hours = append(hours, solver.Term{Var: mixVar, Coef: upm / spec.RateUnitsPerHour})
				hours = append(hours, solver.Term{Var: prodVar, Coef: charges[pid]})
			}

			b.idx.model.AddConstraint(fmt.Sprintf("nprod_link[%s,%d]", site.ID, t),
				append([]solver.Term{{Var: numVar, Coef: 1}}, negate(numLink)...), solver.Equal, 0)
			b.idx.model.AddConstraint(fmt.Sprintf("any_link[%s,%d]", site.ID, t),
				append([]solver.Term{{Var: anyVar, Coef: 1}}, negate(numLink)...), solver.LessEq, 0)
			b.idx.model.AddConstraint(fmt.Sprintf("cap[%s,%d]", site.ID, t),
				capacity, solver.LessEq, spec.MaxDailyUnits)

			b.addLabor(lk, ld, hours)
		}
	}
	return nil
}

// addLabor bounds the hour expression by the calendar's availability
// and prices the hours. Fixed days carry the fixed crew cost as a
// constant plus overtime; non-fixed days price every hour at the
// non-fixed rate with a minimum payable block once engaged.
func (b *builder) addLabor(lk laborKey, ld *entities.LaborDay, hours []solver.Term) {
	if ld.IsFixedDay {
		otVar := b.idx.model.AddContVar(fmt.Sprintf("ot[%s,%d]", lk.Loc, lk.T), 0, ld.MaxOvertimeHours, rate(ld.OvertimeRate))
		b.idx.overtime[lk] = otVar
		b.idx.model.AddConstraint(fmt.Sprintf("labor[%s,%d]", lk.Loc, lk.T),
			append(append([]solver.Term{}, hours...), solver.Term{Var: otVar, Coef: -1}), solver.LessEq, ld.FixedHours)
		b.idx.model.AddObjectiveOffset(rate(ld.RegularRate) * ld.FixedHours)
		return
	}

	hVar := b.idx.model.AddContVar(fmt.Sprintf("wkndh[%s,%d]", lk.Loc, lk.T), 0, 24, rate(ld.NonFixedRate))
	b.idx.nonFixedHours[lk] = hVar
	b.idx.model.AddConstraint(fmt.Sprintf("labor[%s,%d]", lk.Loc, lk.T),
		append(append([]solver.Term{}, hours...), solver.Term{Var: hVar, Coef: -1}), solver.LessEq, 0)
	if ld.MinHoursNonFixed > 0 {
		anyVar := b.idx.anyProduction[lk]
		b.idx.model.AddConstraint(fmt.Sprintf("labor_min[%s,%d]", lk.Loc, lk.T),
			[]solver.Term{{Var: anyVar, Coef: ld.MinHoursNonFixed}, {Var: hVar, Coef: -1}}, solver.LessEq, 0)
	}
}

// addCohorts creates one continuous variable per reachable cohort and
// date within shelf life. Beyond the limit no variable exists, which
// is the structural zero the shelf-life cutoff requires. Cohorts that
// expire inside the horizon carry the waste penalty on their final
// surviving value.
func (b *builder) addCohorts() {
	end := len(b.n.dates) - 1
	waste := rate(b.n.costs.WastePerUnit)
	for _, c := range b.sortedChains() {
		life := b.n.products[c.Prod].ShelfLifeDays(c.State)
		lastT := min(c.SD+life, end)
		for t := c.SD; t <= lastT; t++ {
			obj := 0.0
			if t == lastT && c.SD+life <= end {
				obj = waste
			}
			v := b.idx.model.AddContVar(
				fmt.Sprintf("coh[%s,%s,%s,%d,%d]", c.Loc, c.Prod, c.State, c.SD, t),
				0, math.Inf(1), obj)
			b.idx.cohort[cohortKey{chainKey: c, T: t}] = v
		}
	}
}

// addShipments creates cohort-apportioned shipment variables for every
// leg, departure date and eligible source chain, records the arrival
// inflow for conservation, and applies transport cost plus the soft
// FEFO freshness premium.
func (b *builder) addShipments() {
	end := len(b.n.dates) - 1
	fresh := rate(b.n.costs.FreshnessPerUnitDay)
	for legIdx, leg := range b.n.legs {
		cost := rate(leg.CostPerUnit)
		for _, c := range b.sortedChains() {
			if c.Loc != leg.Origin || !legCarries(leg.Mode, c.State) {
				continue
			}
			life := b.n.products[c.Prod].ShelfLifeDays(c.State)
			lastT := min(c.SD+life, end)
			for t := c.SD; t <= lastT; t++ {
				a := t + leg.TransitDays
				if a > end {
					continue
				}
				destChain, ok := b.arrivalChain(leg, c, a)
				if !ok {
					continue
				}
				obj := cost
				if b.cfg.FEFO == FEFOSoft && fresh > 0 {
					obj += fresh * float64(c.SD+life-t)
				}
				v := b.idx.model.AddContVar(
					fmt.Sprintf("ship[%s,%s,%s,%d,%d]", leg.ID, c.Prod, c.State, c.SD, t),
					0, math.Inf(1), obj)
				b.idx.ship[shipKey{Leg: legIdx, chainKey: c, T: t}] = v
				b.arrivals[cohortKey{chainKey: destChain, T: a}] = append(b.arrivals[cohortKey{chainKey: destChain, T: a}], v)
				b.departures[cohortKey{chainKey: c, T: t}] = append(b.departures[cohortKey{chainKey: c, T: t}], v)
			}
		}

		if leg.CapacityUnits > 0 {
			b.addLegCapacity(legIdx, leg)
		}
	}
}

func (b *builder) addLegCapacity(legIdx int, leg *entities.RouteLeg) {
	byDate := make(map[int][]solver.Term)
	for k, v := range b.idx.ship {
		if k.Leg == legIdx {
			byDate[k.T] = append(byDate[k.T], solver.Term{Var: v, Coef: 1})
		}
	}
	for t, terms := range byDate {
		b.idx.model.AddConstraint(fmt.Sprintf("legcap[%s,%d]", leg.ID, t), terms, solver.LessEq, leg.CapacityUnits)
	}
}

// addDemand creates consumption and shortage variables and the demand
// satisfaction constraint for every forecast cell. Consumption draws
// from ambient and thawed cohorts at the forecast location; frozen
// stock must thaw before it can sell.
func (b *builder) addDemand() {
	fresh := rate(b.n.costs.FreshnessPerUnitDay)
	shortCost := rate(b.n.costs.ShortagePerUnit)
	keys := make([]entities.ForecastKey, 0, len(b.n.demand))
	for key := range b.n.demand {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Location != keys[j].Location {
			return keys[i].Location < keys[j].Location
		}
		if keys[i].Product != keys[j].Product {
			return keys[i].Product < keys[j].Product
		}
		return keys[i].Date.Before(keys[j].Date)
	})
	for _, key := range keys {
		qty := b.n.demand[key]
		t, ok := b.n.dateIdx[key.Date]
		if !ok {
			continue
		}
		dk := demandKey{Loc: key.Location, Prod: key.Product, T: t}
		shortVar := b.idx.model.AddContVar(fmt.Sprintf("short[%s,%s,%d]", key.Location, key.Product, t), 0, qty, shortCost)
		b.idx.shortage[dk] = shortVar

		terms := []solver.Term{{Var: shortVar, Coef: 1}}
		served := false
		for _, c := range b.sortedChains() {
			if c.Loc != key.Location || c.Prod != key.Product {
				continue
			}
			if c.State != entities.StateAmbient && c.State != entities.StateThawed {
				continue
			}
			life := b.n.products[c.Prod].ShelfLifeDays(c.State)
			if t < c.SD || t > min(c.SD+life, len(b.n.dates)-1) {
				continue
			}
			obj := 0.0
			if b.cfg.FEFO == FEFOSoft && fresh > 0 {
				obj = fresh * float64(c.SD+life-t)
			}
			v := b.idx.model.AddContVar(
				fmt.Sprintf("cons[%s,%s,%s,%d,%d]", c.Loc, c.Prod, c.State, c.SD, t),
				0, math.Inf(1), obj)
			b.idx.consume[cohortKey{chainKey: c, T: t}] = v
			terms = append(terms, solver.Term{Var: v, Coef: 1})
			served = true
		}
		if !served {
			b.n.warnf("demand at %s for %s on %s is unreachable by any cohort", key.Location, key.Product, key.Date.Format("2006-01-02"))
		}
		b.idx.model.AddConstraint(fmt.Sprintf("demand[%s,%s,%d]", key.Location, key.Product, t), terms, solver.Equal, qty)
	}
}

// addConservation ties every cohort to its carry-over, production
// inflow, arriving shipments, departures and consumption:
// cohort[t] = cohort[t-1] + production + arrivals - departures - consumption.
func (b *builder) addConservation() {
	end := len(b.n.dates) - 1
	for _, c := range b.sortedChains() {
		life := b.n.products[c.Prod].ShelfLifeDays(c.State)
		lastT := min(c.SD+life, end)
		loc := b.n.locations[c.Loc]
		for t := c.SD; t <= lastT; t++ {
			ck := cohortKey{chainKey: c, T: t}
			terms := []solver.Term{{Var: b.idx.cohort[ck], Coef: 1}}
			if t > c.SD {
				terms = append(terms, solver.Term{Var: b.idx.cohort[cohortKey{chainKey: c, T: t - 1}], Coef: -1})
			}
			if t == c.SD && loc.IsManufacturing() && c.State == productionState(loc) {
				if mixVar, ok := b.idx.mix[mixKey{Loc: c.Loc, Prod: c.Prod, T: t}]; ok {
					upm := float64(b.n.products[c.Prod].UnitsPerMix)
					terms = append(terms, solver.Term{Var: mixVar, Coef: -upm})
				}
			}
			for _, v := range b.arrivals[ck] {
				terms = append(terms, solver.Term{Var: v, Coef: -1})
			}
			for _, v := range b.departures[ck] {
				terms = append(terms, solver.Term{Var: v, Coef: 1})
			}
			if consVar, ok := b.idx.consume[ck]; ok {
				terms = append(terms, solver.Term{Var: consVar, Coef: 1})
			}
			b.idx.model.AddConstraint(
				fmt.Sprintf("flow[%s,%s,%s,%d,%d]", c.Loc, c.Prod, c.State, c.SD, t),
				terms, solver.Equal, 0)
		}
	}
}

// addTrucks assigns first-leg shipments to truck departures and caps
// each departure by unit and pallet capacity. The pallet ceiling is
// linearized with an integer pallet-count variable per departure and
// product. Origins with no trucks at all are left unconstrained.
func (b *builder) addTrucks() {
	trucksAt := make(map[entities.LocationID]bool)
	for _, tr := range b.n.trucks {
		trucksAt[tr.Origin] = true
	}

	type occKey struct {
		Truck int
		T     int
	}
	occLoad := make(map[occKey][]solver.Term)
	var occOrder []occKey

	for legIdx, leg := range b.n.legs {
		origin := b.n.locations[leg.Origin]
		if !origin.IsManufacturing() || !trucksAt[leg.Origin] {
			continue
		}
		// Shipments per (leg, product, date) must ride some departure
		// serving the leg's destination that day.
		byCell := make(map[demandKey][]solver.Term)
		var cells []demandKey
		for k, v := range b.idx.ship {
			if k.Leg != legIdx {
				continue
			}
			cell := demandKey{Loc: leg.Origin, Prod: k.Prod, T: k.T}
			if _, seen := byCell[cell]; !seen {
				cells = append(cells, cell)
			}
			byCell[cell] = append(byCell[cell], solver.Term{Var: v, Coef: 1})
		}
		sort.Slice(cells, func(i, j int) bool {
			if cells[i].Prod != cells[j].Prod {
				return cells[i].Prod < cells[j].Prod
			}
			return cells[i].T < cells[j].T
		})
		for _, cell := range cells {
			date := b.n.date(cell.T)
			terms := append([]solver.Term{}, byCell[cell]...)
			for trIdx, tr := range b.n.trucks {
				if tr.Origin != leg.Origin || !tr.Serves(leg.Destination) || !tr.DepartsOn(date) {
					continue
				}
				tsk := truckShipKey{Truck: trIdx, Leg: legIdx, Prod: cell.Prod, T: cell.T}
				v := b.idx.model.AddContVar(
					fmt.Sprintf("load[%s,%s,%s,%d]", tr.ID, leg.ID, cell.Prod, cell.T),
					0, tr.UnitCapacity, 0)
				b.idx.truckShip[tsk] = v
				terms = append(terms, solver.Term{Var: v, Coef: -1})
				ok := occKey{Truck: trIdx, T: cell.T}
				if _, seen := occLoad[ok]; !seen {
					occOrder = append(occOrder, ok)
				}
				occLoad[ok] = append(occLoad[ok], solver.Term{Var: v, Coef: 1})
			}
			b.idx.model.AddConstraint(
				fmt.Sprintf("truck_assign[%s,%s,%d]", leg.ID, cell.Prod, cell.T),
				terms, solver.Equal, 0)
		}
	}

	sort.Slice(occOrder, func(i, j int) bool {
		if occOrder[i].Truck != occOrder[j].Truck {
			return occOrder[i].Truck < occOrder[j].Truck
		}
		return occOrder[i].T < occOrder[j].T
	})
	for _, ok := range occOrder {
		tr := b.n.trucks[ok.Truck]
		b.idx.model.AddConstraint(fmt.Sprintf("truck_units[%s,%d]", tr.ID, ok.T), occLoad[ok], solver.LessEq, tr.UnitCapacity)

		// Pallet count per product: pallets >= load / units_per_pallet.
		perProduct := make(map[entities.ProductID][]solver.Term)
		for k, v := range b.idx.truckShip {
			if k.Truck == ok.Truck && k.T == ok.T {
				perProduct[k.Prod] = append(perProduct[k.Prod], solver.Term{Var: v, Coef: 1})
			}
		}
		var pids []entities.ProductID
		for pid := range perProduct {
			pids = append(pids, pid)
		}
		sort.Slice(pids, func(i, j int) bool { return pids[i] < pids[j] })
		var palletTerms []solver.Term
		maxPallets := math.Ceil(tr.UnitCapacity / float64(tr.UnitsPerPallet))
		for _, pid := range pids {
			pk := palletKey{Truck: ok.Truck, Prod: pid, T: ok.T}
			pv := b.idx.model.AddIntVar(fmt.Sprintf("pallets[%s,%s,%d]", tr.ID, pid, ok.T), 0, maxPallets, 0)
			b.idx.pallets[pk] = pv
			row := append([]solver.Term{}, perProduct[pid]...)
			row = append(row, solver.Term{Var: pv, Coef: -float64(tr.UnitsPerPallet)})
			b.idx.model.AddConstraint(fmt.Sprintf("pallet_ceil[%s,%s,%d]", tr.ID, pid, ok.T), row, solver.LessEq, 0)
			palletTerms = append(palletTerms, solver.Term{Var: pv, Coef: 1})
		}
		if len(palletTerms) > 0 {
			b.idx.model.AddConstraint(fmt.Sprintf("truck_pallets[%s,%d]", tr.ID, ok.T), palletTerms, solver.LessEq, float64(tr.PalletCapacity))
		}
	}
}

// addStorageCapacity caps total held units per capacitated location
// and date.
func (b *builder) addStorageCapacity() {
	byLocDate := make(map[laborKey][]solver.Term)
	for k, v := range b.idx.cohort {
		loc := b.n.locations[k.Loc]
		if loc.CapacityUnits <= 0 {
			continue
		}
		lk := laborKey{Loc: k.Loc, T: k.T}
		byLocDate[lk] = append(byLocDate[lk], solver.Term{Var: v, Coef: 1})
	}
	for lk, terms := range byLocDate {
		loc := b.n.locations[lk.Loc]
		b.idx.model.AddConstraint(fmt.Sprintf("storecap[%s,%d]", lk.Loc, lk.T), terms, solver.LessEq, loc.CapacityUnits)
	}
}

// addHardFEFO forbids outflow from a cohort while any older cohort of
// the same product at the same node still holds stock at the end of
// the day. One binary per cohort and date gates the draw.
func (b *builder) addHardFEFO() {
	type nodeProd struct {
		Loc  entities.LocationID
		Prod entities.ProductID
	}
	grouped := make(map[nodeProd][]chainKey)
	var order []nodeProd
	for _, c := range b.sortedChains() {
		np := nodeProd{Loc: c.Loc, Prod: c.Prod}
		if _, seen := grouped[np]; !seen {
			order = append(order, np)
		}
		grouped[np] = append(grouped[np], c)
	}
	for _, np := range order {
		chains := grouped[np]
		if len(chains) < 2 {
			continue
		}
		// Older (earlier expiry) first.
		sort.Slice(chains, func(i, j int) bool {
			ei := chains[i].SD + b.n.products[chains[i].Prod].ShelfLifeDays(chains[i].State)
			ej := chains[j].SD + b.n.products[chains[j].Prod].ShelfLifeDays(chains[j].State)
			if ei != ej {
				return ei < ej
			}
			return chains[i].SD < chains[j].SD
		})
		for t := range b.n.dates {
			for i := 1; i < len(chains); i++ {
				outflow := b.outflowTerms(chains[i], t)
				if len(outflow) == 0 {
					continue
				}
				var older []solver.Term
				for j := 0; j < i; j++ {
					if v, ok := b.idx.cohort[cohortKey{chainKey: chains[j], T: t}]; ok {
						older = append(older, solver.Term{Var: v, Coef: 1})
					}
				}
				if len(older) == 0 {
					continue
				}
				gate := b.idx.model.AddBinVar(fmt.Sprintf("fefo[%s,%s,%d,%d]", chains[i].Loc, chains[i].Prod, chains[i].SD, t), 0)
				row := append([]solver.Term{}, outflow...)
				row = append(row, solver.Term{Var: gate, Coef: -b.bigM})
				b.idx.model.AddConstraint(fmt.Sprintf("fefo_draw[%s,%s,%d,%d]", chains[i].Loc, chains[i].Prod, chains[i].SD, t), row, solver.LessEq, 0)
				older = append(older, solver.Term{Var: gate, Coef: b.bigM})
				b.idx.model.AddConstraint(fmt.Sprintf("fefo_empty[%s,%s,%d,%d]", chains[i].Loc, chains[i].Prod, chains[i].SD, t), older, solver.LessEq, b.bigM)
			}
		}
	}
}

func (b *builder) outflowTerms(c chainKey, t int) []solver.Term {
	var terms []solver.Term
	for _, v := range b.departures[cohortKey{chainKey: c, T: t}] {
		terms = append(terms, solver.Term{Var: v, Coef: 1})
	}
	if v, ok := b.idx.consume[cohortKey{chainKey: c, T: t}]; ok {
		terms = append(terms, solver.Term{Var: v, Coef: 1})
	}
	return terms
}

// applyWarmstart attaches the campaign assignment to the produced
// indicators. Present keys start at one, absent keys at zero, so the
// solver's incumbent check sees a complete binary pattern.
func applyWarmstart(n *network, idx *modelIndex, assignment map[WarmstartKey]bool) {
	if len(assignment) == 0 {
		return
	}
	for mk, v := range idx.produced {
		key := WarmstartKey{Location: mk.Loc, Product: mk.Prod, Date: n.date(mk.T)}
		if assignment[key] {
			idx.model.SetWarmstart(v, 1)
		} else {
			idx.model.SetWarmstart(v, 0)
		}
	}
}

func (b *builder) sortedProducts() []entities.ProductID {
	ids := make([]entities.ProductID, 0, len(b.n.products))
	for id := range b.n.products {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (b *builder) sortedChains() []chainKey {
	chains := make([]chainKey, 0, len(b.chains))
	for c := range b.chains {
		chains = append(chains, c)
	}
	sort.Slice(chains, func(i, j int) bool {
		a, z := chains[i], chains[j]
		if a.Loc != z.Loc {
			return a.Loc < z.Loc
		}
		if a.Prod != z.Prod {
			return a.Prod < z.Prod
		}
		if a.State != z.State {
			return a.State < z.State
		}
		return a.SD < z.SD
	})
	return chains
}

func negate(terms []solver.Term) []solver.Term {
	out := make([]solver.Term, len(terms))
	for i, t := range terms {
		out[i] = solver.Term{Var: t.Var, Coef: -t.Coef}
	}
	return out
}

func rate(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
