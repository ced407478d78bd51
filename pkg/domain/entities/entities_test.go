package entities_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bakeplan/bakeplan/pkg/domain/entities"
)

func validProduct() entities.Product {
	return entities.Product{
		ID:                   "SOUR",
		Name:                 "Sourdough",
		ShelfLifeAmbientDays: 5,
		ShelfLifeFrozenDays:  30,
		ShelfLifeThawedDays:  2,
		UnitsPerMix:          415,
	}
}

func TestNewProductValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*entities.Product)
		wantErr bool
	}{
		{"valid", func(p *entities.Product) {}, false},
		{"missing id", func(p *entities.Product) { p.ID = "" }, true},
		{"zero ambient life", func(p *entities.Product) { p.ShelfLifeAmbientDays = 0 }, true},
		{"zero units per mix", func(p *entities.Product) { p.UnitsPerMix = 0 }, true},
		{"negative frozen life", func(p *entities.Product) { p.ShelfLifeFrozenDays = -1 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validProduct()
			tt.mutate(&p)
			_, err := entities.NewProduct(p)
			if tt.wantErr {
				var dataErr *entities.DataError
				require.ErrorAs(t, err, &dataErr)
				assert.Equal(t, "product", dataErr.Entity)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestProductShelfLifeByState(t *testing.T) {
	p, err := entities.NewProduct(validProduct())
	require.NoError(t, err)
	assert.Equal(t, 5, p.ShelfLifeDays(entities.StateAmbient))
	assert.Equal(t, 30, p.ShelfLifeDays(entities.StateFrozen))
	assert.Equal(t, 2, p.ShelfLifeDays(entities.StateThawed))
}

func TestNewLocationManufacturingSpecRules(t *testing.T) {
	spec := &entities.ManufacturingSpec{
		RateUnitsPerHour:       500,
		MaxDailyUnits:          2000,
		DefaultChangeoverHours: 0.25,
		MaxProductsPerDay:      3,
	}

	_, err := entities.NewLocation(entities.Location{ID: "PLANT", Type: entities.Manufacturing})
	var dataErr *entities.DataError
	require.ErrorAs(t, err, &dataErr)

	_, err = entities.NewLocation(entities.Location{ID: "BR1", Type: entities.Breadroom, Manufacturing: spec})
	require.ErrorAs(t, err, &dataErr)

	loc, err := entities.NewLocation(entities.Location{ID: "PLANT", Type: entities.Manufacturing, Manufacturing: spec})
	require.NoError(t, err)
	assert.True(t, loc.IsManufacturing())
}

func TestChangeoverFallsBackToDefault(t *testing.T) {
	spec := entities.ManufacturingSpec{
		DefaultChangeoverHours: 0.25,
		ChangeoverHours: map[entities.ChangeoverKey]float64{
			{From: "SOUR", To: "RYE"}: 0.75,
		},
	}
	assert.Equal(t, 0.75, spec.ChangeoverFor("SOUR", "RYE"))
	assert.Equal(t, 0.25, spec.ChangeoverFor("RYE", "SOUR"))
}

func TestStorageCapability(t *testing.T) {
	assert.True(t, entities.AmbientOnly.SupportsAmbient())
	assert.False(t, entities.AmbientOnly.SupportsFrozen())
	assert.True(t, entities.FrozenOnly.SupportsFrozen())
	assert.False(t, entities.FrozenOnly.SupportsAmbient())
	assert.True(t, entities.AmbientAndFrozen.SupportsAmbient())
	assert.True(t, entities.AmbientAndFrozen.SupportsFrozen())
}

func TestNewRouteLegRejectsSelfLoopAndNegativeCost(t *testing.T) {
	leg := entities.RouteLeg{ID: "L1", Origin: "A", Destination: "A", TransitDays: 1}
	_, err := entities.NewRouteLeg(leg)
	var dataErr *entities.DataError
	require.ErrorAs(t, err, &dataErr)

	leg.Destination = "B"
	leg.CostPerUnit = decimal.NewFromFloat(-0.1)
	_, err = entities.NewRouteLeg(leg)
	require.ErrorAs(t, err, &dataErr)
	assert.Equal(t, "CostPerUnit", dataErr.Field)
}

func TestNewLaborDayNormalizesDate(t *testing.T) {
	noon := time.Date(2026, 3, 5, 12, 30, 0, 0, time.UTC)
	ld, err := entities.NewLaborDay(entities.LaborDay{
		Date:       noon,
		FixedHours: 8,
		IsFixedDay: true,
	})
	require.NoError(t, err)
	assert.Equal(t, entities.Day(noon), ld.Date)
	assert.Equal(t, 0, ld.Date.Hour())
}

func TestLaborDayAvailableHours(t *testing.T) {
	fixed := entities.LaborDay{FixedHours: 8, MaxOvertimeHours: 2, IsFixedDay: true}
	assert.Equal(t, float64(10), fixed.AvailableHours())

	weekend := entities.LaborDay{IsFixedDay: false}
	assert.Negative(t, weekend.AvailableHours())
}

func TestNewLaborDayRejectsNegativeRates(t *testing.T) {
	_, err := entities.NewLaborDay(entities.LaborDay{
		Date:        time.Now(),
		RegularRate: decimal.NewFromInt(-1),
	})
	var dataErr *entities.DataError
	require.ErrorAs(t, err, &dataErr)
}

func TestTruckDepartureSchedule(t *testing.T) {
	weekly, err := entities.NewTruckDeparture(entities.TruckDeparture{
		ID:             "T1",
		Origin:         "PLANT",
		DayOfWeek:      time.Thursday,
		UnitCapacity:   4000,
		PalletCapacity: 26,
		UnitsPerPallet: 160,
		UnitsPerCase:   16,
	})
	require.NoError(t, err)
	thursday := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	assert.True(t, weekly.DepartsOn(thursday))
	assert.False(t, weekly.DepartsOn(thursday.AddDate(0, 0, 1)))

	oneOff, err := entities.NewTruckDeparture(entities.TruckDeparture{
		ID:             "T2",
		Origin:         "PLANT",
		Date:           thursday,
		UnitCapacity:   4000,
		PalletCapacity: 26,
		UnitsPerPallet: 160,
		UnitsPerCase:   16,
	})
	require.NoError(t, err)
	assert.True(t, oneOff.DepartsOn(thursday))
	assert.False(t, oneOff.DepartsOn(thursday.AddDate(0, 0, 7)))
}

func TestTruckDepartureServes(t *testing.T) {
	flexible := entities.TruckDeparture{Origin: "PLANT"}
	assert.True(t, flexible.Serves("HUB"))
	assert.True(t, flexible.Serves("BR1"))

	pinned := entities.TruckDeparture{Origin: "PLANT", Destination: "HUB"}
	assert.True(t, pinned.Serves("HUB"))
	assert.False(t, pinned.Serves("BR1"))
}

func TestForecastEntryKeyNormalizesDate(t *testing.T) {
	noon := time.Date(2026, 3, 6, 12, 0, 0, 0, time.UTC)
	entry, err := entities.NewForecastEntry(entities.ForecastEntry{
		Location: "BR1",
		Product:  "SOUR",
		Date:     noon,
		Units:    120,
	})
	require.NoError(t, err)
	assert.Equal(t, entities.Day(noon), entry.Key().Date)
}

func TestNewForecastEntryRejectsBadConfidence(t *testing.T) {
	_, err := entities.NewForecastEntry(entities.ForecastEntry{
		Location:   "BR1",
		Product:    "SOUR",
		Date:       time.Now(),
		Units:      10,
		Confidence: 1.5,
	})
	var dataErr *entities.DataError
	require.ErrorAs(t, err, &dataErr)
	assert.Equal(t, "Confidence", dataErr.Field)
}

func TestNewCostRatesRejectsNegatives(t *testing.T) {
	_, err := entities.NewCostRates(entities.CostRates{
		ShortagePerUnit: decimal.NewFromInt(-5),
	})
	var dataErr *entities.DataError
	require.ErrorAs(t, err, &dataErr)
	assert.Equal(t, "ShortagePerUnit", dataErr.Field)
}

func TestInventoryCohortAge(t *testing.T) {
	c := entities.InventoryCohort{
		StateDate: time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC),
		Date:      time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC),
	}
	assert.Equal(t, 3, c.AgeDays())
}

func TestPlanSolutionTotals(t *testing.T) {
	sol := entities.PlanSolution{
		Batches: []entities.ProductionBatch{
			{MixCount: 2, Units: 830},
			{MixCount: 1, Units: 415},
		},
		Shortages: []entities.Shortage{{Units: 120}, {Units: 30}},
	}
	assert.InDelta(t, 1245, sol.TotalProducedUnits(), 1e-9)
	assert.InDelta(t, 150, sol.TotalShortageUnits(), 1e-9)
}
