package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bakeplan/bakeplan/pkg/domain/entities"
	"github.com/bakeplan/bakeplan/pkg/solver"
)

// stubResult builds a result shell where only the listed variables are
// assigned; everything else stays untouched and must read as zero.
func stubResult(idx *modelIndex, status solver.Status) *solver.Result {
	return solver.NewResult(status, idx.model.NumVars())
}

func TestExtractUnassignedVariablesReadAsZero(t *testing.T) {
	cfg := Config{IntegralityTol: 1e-4}
	n, idx := buildTestModel(t, baseScenario(t), cfg)

	res := stubResult(idx, solver.StatusOptimal)
	// Only the shortage variables are assigned, absorbing the full
	// forecast; every other variable is left untouched.
	for dk, v := range idx.shortage {
		key := entities.ForecastKey{Location: dk.Loc, Product: dk.Prod, Date: n.date(dk.T)}
		res.SetValue(v, n.demand[key])
	}

	sol, err := extractSolution(n, idx, res, cfg)
	require.NoError(t, err)
	assert.Empty(t, sol.Batches)
	assert.Empty(t, sol.Cohorts)
	assert.Empty(t, sol.Shipments)
	assert.InDelta(t, 800, sol.TotalShortageUnits(), 1e-9)
	assert.InDelta(t, 0, sol.FillRate, 1e-9)
}

func TestExtractLaborChargesPairChangeovers(t *testing.T) {
	cfg := Config{IntegralityTol: 1e-4}
	sc := baseScenario(t)
	sc.Products = append(sc.Products, testProduct("RYE", 200))
	sc.Locations[0].Manufacturing.ChangeoverHours = map[entities.ChangeoverKey]float64{
		{From: "SOUR", To: "RYE"}: 2,
		{From: "RYE", To: "SOUR"}: 2,
	}
	n, idx := buildTestModel(t, sc, cfg)

	res := stubResult(idx, solver.StatusOptimal)
	for dk, v := range idx.shortage {
		key := entities.ForecastKey{Location: dk.Loc, Product: dk.Prod, Date: n.date(dk.T)}
		res.SetValue(v, n.demand[key])
	}
	lk := laborKey{Loc: "PLANT", T: 0}
	res.SetValue(idx.anyProduction[lk], 1)
	for _, pid := range []entities.ProductID{"SOUR", "RYE"} {
		mk := mixKey{Loc: "PLANT", Prod: pid, T: 0}
		res.SetValue(idx.mix[mk], 1)
		res.SetValue(idx.produced[mk], 1)
	}

	sol, err := extractSolution(n, idx, res, cfg)
	require.NoError(t, err)
	require.Len(t, sol.Labor, 1)
	// Startup+shutdown minus the one refunded changeover, mix time for
	// both products, and a two-hour charge per product produced:
	// (0.5+0.5-2) + 415/500 + 200/500 + 2 + 2.
	assert.InDelta(t, 4.23, sol.Labor[0].Hours, 1e-9)
}

func TestExtractRejectsFractionalMixCounts(t *testing.T) {
	cfg := Config{IntegralityTol: 1e-4}
	n, idx := buildTestModel(t, baseScenario(t), cfg)

	res := stubResult(idx, solver.StatusOptimal)
	for _, v := range idx.mix {
		res.SetValue(v, 0.4)
		break
	}

	var exErr *ExtractionError
	_, err := extractSolution(n, idx, res, cfg)
	require.ErrorAs(t, err, &exErr)
	assert.Equal(t, "integrality", exErr.Invariant)
}

func TestExtractRejectsBrokenDemandAccounting(t *testing.T) {
	cfg := Config{IntegralityTol: 1e-4}
	n, idx := buildTestModel(t, baseScenario(t), cfg)

	// Nothing assigned at all: delivered + shortage = 0 against a
	// forecast of 800.
	res := stubResult(idx, solver.StatusOptimal)

	var exErr *ExtractionError
	_, err := extractSolution(n, idx, res, cfg)
	require.ErrorAs(t, err, &exErr)
	assert.Equal(t, "demand accounting", exErr.Invariant)
}

func TestExtractInfeasibleReturnsShell(t *testing.T) {
	cfg := Config{IntegralityTol: 1e-4}
	sc := baseScenario(t)
	sc.Calendar = sc.Calendar[:1]
	n, err := buildNetwork(sc, cfg)
	require.NoError(t, err)
	idx, err := buildModel(n, cfg)
	require.NoError(t, err)

	res := stubResult(idx, solver.StatusInfeasible)
	sol, err := extractSolution(n, idx, res, cfg)
	require.NoError(t, err)
	assert.Equal(t, entities.PlanInfeasible, sol.Status)
	assert.Empty(t, sol.Batches)
	// Network warnings survive even without a solution.
	assert.NotEmpty(t, sol.Warnings)
}

func TestPlanStatusMapping(t *testing.T) {
	assert.Equal(t, entities.PlanOptimal, planStatus(solver.StatusOptimal))
	assert.Equal(t, entities.PlanFeasible, planStatus(solver.StatusFeasible))
	assert.Equal(t, entities.PlanInfeasible, planStatus(solver.StatusInfeasible))
	assert.Equal(t, entities.PlanFailed, planStatus(solver.StatusNoSolution))
}
