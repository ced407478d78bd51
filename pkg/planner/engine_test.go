package planner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bakeplan/bakeplan/pkg/domain/entities"
)

func TestSolveSingleSiteRoundTrip(t *testing.T) {
	engine := New(Config{MIPGap: 1e-6})
	sol, err := engine.Solve(context.Background(), baseScenario(t))
	require.NoError(t, err)
	require.Equal(t, entities.PlanOptimal, sol.Status)

	// 800 units of demand against a 415-unit mix: two mixes, no
	// shortage, up to 30 units of slack left behind.
	var mixes int64
	for _, b := range sol.Batches {
		assert.InDelta(t, float64(b.MixCount)*415, b.Units, 1e-6)
		mixes += b.MixCount
	}
	assert.Equal(t, int64(2), mixes)
	assert.Empty(t, sol.Shortages)
	assert.InDelta(t, 1.0, sol.FillRate, 1e-9)
	assert.InDelta(t, 800, shippedUnits(sol), 1e-4)
	assert.NotEmpty(t, sol.Labor)
	assert.Positive(t, sol.Stats.Variables)
}

func shippedUnits(sol *entities.PlanSolution) float64 {
	var total float64
	for _, sh := range sol.Shipments {
		total += sh.Units
	}
	return total
}

// sevenDayScenario stretches the base network to a week of flat
// thousand-unit daily demand.
func sevenDayScenario(t *testing.T) *Scenario {
	t.Helper()
	sc := baseScenario(t)
	sc.Calendar = fullCalendar(t, "2026-03-02", "2026-03-13", 10, 2)
	sc.Forecast = nil
	for d := day(t, "2026-03-07"); !d.After(day(t, "2026-03-13")); d = d.AddDate(0, 0, 1) {
		sc.Forecast = append(sc.Forecast, &entities.ForecastEntry{
			Location: "BR1",
			Product:  "SOUR",
			Date:     d,
			Units:    1000,
		})
	}
	return sc
}

func TestSolveSevenDayFlatDemand(t *testing.T) {
	engine := New(Config{MIPGap: 0.02, TimeLimit: 2 * time.Minute})
	sol, err := engine.Solve(context.Background(), sevenDayScenario(t))
	require.NoError(t, err)
	require.True(t, sol.Status == entities.PlanOptimal || sol.Status == entities.PlanFeasible,
		"got %v", sol.Status)

	assert.Empty(t, sol.Shortages)
	assert.InDelta(t, 1.0, sol.FillRate, 1e-9)
	var mixes int64
	for _, b := range sol.Batches {
		assert.InDelta(t, float64(b.MixCount)*415, b.Units, 1e-6)
		mixes += b.MixCount
	}
	assert.GreaterOrEqual(t, mixes, int64(17), "seventeen mixes cover 7000 units")
	assert.GreaterOrEqual(t, shippedUnits(sol), 7000.0-1e-4)
}

func TestSolvePlanConservesFlow(t *testing.T) {
	sol, err := New(Config{MIPGap: 1e-6}).Solve(context.Background(), baseScenario(t))
	require.NoError(t, err)
	require.Equal(t, entities.PlanOptimal, sol.Status)

	last := day(t, "2026-03-06")
	endAt := func(loc entities.LocationID) float64 {
		var total float64
		for _, c := range sol.Cohorts {
			if c.Location == loc && c.Date.Equal(last) {
				total += c.Units
			}
		}
		return total
	}
	var produced, fromPlant, toBreadroom float64
	for _, b := range sol.Batches {
		produced += b.Units
	}
	for _, sh := range sol.Shipments {
		if sh.Origin == "PLANT" {
			fromPlant += sh.Units
		}
		if sh.Destination == "BR1" {
			toBreadroom += sh.Units
		}
	}
	consumed := 800 - sol.TotalShortageUnits()
	assert.InDelta(t, produced, fromPlant+endAt("PLANT"), 1e-4,
		"production either ships out or closes as plant inventory")
	assert.InDelta(t, toBreadroom, consumed+endAt("BR1"), 1e-4,
		"arrivals either sell or close as breadroom inventory")
}

func TestSolveZeroLaborMeansAllShortage(t *testing.T) {
	sc := baseScenario(t)
	sc.Calendar = fullCalendar(t, "2026-03-03", "2026-03-06", 0, 0)

	engine := New(Config{})
	sol, err := engine.Solve(context.Background(), sc)
	require.NoError(t, err)
	require.Equal(t, entities.PlanOptimal, sol.Status)

	assert.Empty(t, sol.Batches)
	assert.InDelta(t, 800, sol.TotalShortageUnits(), 1e-6)
	assert.InDelta(t, 0, sol.FillRate, 1e-9)
}

func TestSolveWarmstartMatchesColdObjective(t *testing.T) {
	cold, err := New(Config{MIPGap: 1e-6}).Solve(context.Background(), baseScenario(t))
	require.NoError(t, err)
	warm, err := New(Config{MIPGap: 1e-6, UseWarmstart: true}).Solve(context.Background(), baseScenario(t))
	require.NoError(t, err)

	require.Equal(t, entities.PlanOptimal, cold.Status)
	require.Equal(t, entities.PlanOptimal, warm.Status)
	coldCost, _ := cold.TotalCost.Float64()
	warmCost, _ := warm.TotalCost.Float64()
	assert.InDelta(t, coldCost, warmCost, 1e-4)
}

func TestSolveTruckCapacityCapsDeliveries(t *testing.T) {
	sc := baseScenario(t)
	// The only departure serving the leg runs Thursday with room for
	// 500 units; the remaining 300 go short.
	sc.Trucks = []*entities.TruckDeparture{{
		ID:             "T1",
		Origin:         "PLANT",
		DayOfWeek:      day(t, "2026-03-05").Weekday(),
		Slot:           entities.Morning,
		UnitCapacity:   500,
		PalletCapacity: 26,
		UnitsPerPallet: 160,
		UnitsPerCase:   16,
	}}

	engine := New(Config{})
	sol, err := engine.Solve(context.Background(), sc)
	require.NoError(t, err)
	require.True(t, sol.Status == entities.PlanOptimal || sol.Status == entities.PlanFeasible)

	assert.InDelta(t, 300, sol.TotalShortageUnits(), 1e-4)
	assert.LessOrEqual(t, shippedUnits(sol), 500+1e-6)
}

func TestSolvePalletCapacityCapsDeliveries(t *testing.T) {
	sc := baseScenario(t)
	// Units fit, pallets do not: five pallets of one hundred cap the
	// Thursday departure at 500 units.
	sc.Trucks = []*entities.TruckDeparture{{
		ID:             "T1",
		Origin:         "PLANT",
		DayOfWeek:      day(t, "2026-03-05").Weekday(),
		Slot:           entities.Morning,
		UnitCapacity:   1000,
		PalletCapacity: 5,
		UnitsPerPallet: 100,
		UnitsPerCase:   16,
	}}

	sol, err := New(Config{}).Solve(context.Background(), sc)
	require.NoError(t, err)
	require.True(t, sol.Status == entities.PlanOptimal || sol.Status == entities.PlanFeasible)

	assert.InDelta(t, 300, sol.TotalShortageUnits(), 1e-3)
	assert.InDelta(t, 500, shippedUnits(sol), 1e-3)
}

func TestSolveFrozenLegThawsAtBreadroom(t *testing.T) {
	sc := baseScenario(t)
	sc.Locations[0] = testPlant("PLANT", entities.FrozenOnly)
	sc.Routes[0].Mode = entities.ModeFrozen

	engine := New(Config{})
	sol, err := engine.Solve(context.Background(), sc)
	require.NoError(t, err)
	require.Equal(t, entities.PlanOptimal, sol.Status)
	assert.Empty(t, sol.Shortages)

	for _, c := range sol.Cohorts {
		if c.Location == "BR1" {
			assert.Equal(t, entities.StateThawed, c.State)
			assert.LessOrEqual(t, c.AgeDays(), sc.Products[0].ShelfLifeThawedDays)
		}
	}
}

func TestSolveTwoEchelonHubDemandIsIndependent(t *testing.T) {
	sc := baseScenario(t)
	hub := &entities.Location{
		ID:      "HUB",
		Name:    "HUB",
		Type:    entities.Storage,
		Storage: entities.AmbientOnly,
	}
	sc.Locations = append(sc.Locations, hub)
	sc.Routes = []*entities.RouteLeg{
		{ID: "L1", Origin: "PLANT", Destination: "HUB", Mode: entities.ModeAmbient, TransitDays: 1},
		{ID: "L2", Origin: "HUB", Destination: "BR1", Mode: entities.ModeAmbient, TransitDays: 1},
	}
	// The hub's own forecast does not include its spoke: both cells
	// must be met in full.
	sc.Forecast = []*entities.ForecastEntry{
		{Location: "HUB", Product: "SOUR", Date: day(t, "2026-03-06"), Units: 300},
		{Location: "BR1", Product: "SOUR", Date: day(t, "2026-03-06"), Units: 400},
	}

	engine := New(Config{})
	sol, err := engine.Solve(context.Background(), sc)
	require.NoError(t, err)
	require.Equal(t, entities.PlanOptimal, sol.Status)
	assert.Empty(t, sol.Shortages)
	assert.InDelta(t, 1.0, sol.FillRate, 1e-9)

	var toBreadroom float64
	for _, sh := range sol.Shipments {
		if sh.Destination == "BR1" {
			toBreadroom += sh.Units
		}
	}
	assert.InDelta(t, 400, toBreadroom, 1e-4)
}

func TestSolveReportsCalendarWarnings(t *testing.T) {
	sc := baseScenario(t)
	sc.Calendar = sc.Calendar[:1]

	sol, err := New(Config{}).Solve(context.Background(), sc)
	require.NoError(t, err)
	require.NotEmpty(t, sol.Warnings)
	assert.Contains(t, sol.Warnings[0], "labor calendar date defaulted")
}

func TestValidateReturnsWarningsWithoutSolving(t *testing.T) {
	sc := baseScenario(t)
	sc.Routes = nil

	warnings, err := New(Config{}).Validate(sc)
	require.NoError(t, err)
	require.NotEmpty(t, warnings)
	assert.Contains(t, warnings[len(warnings)-1], "unreachable")
}

func TestSolvePropagatesBuildErrors(t *testing.T) {
	sc := baseScenario(t)
	sc.Routes[0].Origin = "NOWHERE"

	var buildErr *ModelBuildError
	_, err := New(Config{}).Solve(context.Background(), sc)
	require.ErrorAs(t, err, &buildErr)
}
