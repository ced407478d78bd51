package planner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bakeplan/bakeplan/pkg/domain/entities"
)

// multiProductScenario spreads demand for three products unevenly so
// the campaign heuristic has shares to allocate.
func multiProductScenario(t *testing.T) *Scenario {
	t.Helper()
	sc := baseScenario(t)
	sc.Products = []*entities.Product{
		testProduct("SOUR", 415),
		testProduct("RYE", 200),
		testProduct("BAGUETTE", 120),
	}
	sc.Calendar = fullCalendar(t, "2026-03-02", "2026-03-13", 8, 2)
	sc.Forecast = []*entities.ForecastEntry{
		{Location: "BR1", Product: "SOUR", Date: day(t, "2026-03-11"), Units: 900},
		{Location: "BR1", Product: "RYE", Date: day(t, "2026-03-12"), Units: 300},
		{Location: "BR1", Product: "BAGUETTE", Date: day(t, "2026-03-13"), Units: 100},
	}
	return sc
}

func TestGenerateWarmstartDeterministic(t *testing.T) {
	n, err := buildNetwork(multiProductScenario(t), Config{})
	require.NoError(t, err)

	first := GenerateWarmstart(n, 2)
	second := GenerateWarmstart(n, 2)
	assert.Equal(t, first, second)
	assert.NotEmpty(t, first)
}

func TestGenerateWarmstartRespectsDailySKUTarget(t *testing.T) {
	n, err := buildNetwork(multiProductScenario(t), Config{})
	require.NoError(t, err)

	assignment := GenerateWarmstart(n, 2)
	perDay := make(map[time.Time]int)
	for key := range assignment {
		assert.Equal(t, entities.LocationID("PLANT"), key.Location)
		perDay[key.Date]++
	}
	for date, count := range perDay {
		if !entities.IsWeekend(date) {
			assert.LessOrEqual(t, count, 2, "weekday %s schedules too many products", date.Format("2006-01-02"))
		}
	}
}

func TestGenerateWarmstartCoversEveryProduct(t *testing.T) {
	n, err := buildNetwork(multiProductScenario(t), Config{})
	require.NoError(t, err)

	assignment := GenerateWarmstart(n, 2)
	seen := make(map[entities.ProductID]bool)
	for key := range assignment {
		seen[key.Product] = true
	}
	// The one-slot floor keeps low-demand products fresh.
	assert.True(t, seen["SOUR"])
	assert.True(t, seen["RYE"])
	assert.True(t, seen["BAGUETTE"])
}

func TestGenerateWarmstartSkipsWeekendsUnderLowDemand(t *testing.T) {
	n, err := buildNetwork(multiProductScenario(t), Config{})
	require.NoError(t, err)

	assignment := GenerateWarmstart(n, 2)
	for key := range assignment {
		assert.False(t, entities.IsWeekend(key.Date), "weekend slot scheduled without demand pressure")
	}
}

func TestGenerateWarmstartEngagesWeekendUnderPressure(t *testing.T) {
	sc := multiProductScenario(t)
	// Demand near the plant's weekday ceiling forces the weekend slot.
	sc.Forecast[0].Units = 19500
	n, err := buildNetwork(sc, Config{})
	require.NoError(t, err)

	assignment := GenerateWarmstart(n, 2)
	weekend := false
	for key := range assignment {
		if entities.IsWeekend(key.Date) {
			weekend = true
			assert.Equal(t, entities.ProductID("SOUR"), key.Product)
		}
	}
	assert.True(t, weekend)
}

func TestGenerateWarmstartZeroDemand(t *testing.T) {
	sc := baseScenario(t)
	sc.Forecast[0].Units = 0
	n, err := buildNetwork(sc, Config{})
	require.NoError(t, err)

	assert.Empty(t, GenerateWarmstart(n, 2))
}
