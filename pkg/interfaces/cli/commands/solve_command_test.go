package commands_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bakeplan/bakeplan/pkg/application/dto"
	"github.com/bakeplan/bakeplan/pkg/domain/entities"
	"github.com/bakeplan/bakeplan/pkg/interfaces/cli/commands"
)

const commandScenario = `
products:
  - id: SOUR
    shelf_life_ambient_days: 5
    units_per_mix: 415
locations:
  - id: PLANT
    type: manufacturing
    storage: ambient
    manufacturing:
      rate_units_per_hour: 500
      max_daily_units: 2000
      default_changeover_hours: 0.25
      max_products_per_day: 3
  - id: BR1
    type: breadroom
    storage: ambient
routes:
  - id: L1
    origin: PLANT
    destination: BR1
    transit_days: 1
calendar:
  - date: 2026-03-03
    fixed_hours: 8
    regular_rate: "20"
    overtime_rate: "30"
    non_fixed_rate: "40"
    fixed_day: true
  - date: 2026-03-04
    fixed_hours: 8
    regular_rate: "20"
    overtime_rate: "30"
    non_fixed_rate: "40"
    fixed_day: true
  - date: 2026-03-05
    fixed_hours: 8
    regular_rate: "20"
    overtime_rate: "30"
    non_fixed_rate: "40"
    fixed_day: true
  - date: 2026-03-06
    fixed_hours: 8
    regular_rate: "20"
    overtime_rate: "30"
    non_fixed_rate: "40"
    fixed_day: true
forecast:
  - location: BR1
    product: SOUR
    date: 2026-03-06
    units: 400
costs:
  production_per_unit: "0.10"
  shortage_per_unit: "10"
`

func writeScenario(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(commandScenario), 0o644))
	return path
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := commands.NewRootCommand()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestSolveCommandJSON(t *testing.T) {
	out, err := runCommand(t, "solve", writeScenario(t), "--format", "json", "--warmstart=false")
	require.NoError(t, err)

	var result dto.PlanResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.NotNil(t, result.Solution)
	assert.Equal(t, entities.PlanOptimal, result.Solution.Status)
	assert.Empty(t, result.Solution.Shortages)
}

func TestSolveCommandText(t *testing.T) {
	out, err := runCommand(t, "solve", writeScenario(t))
	require.NoError(t, err)
	assert.Contains(t, out, "Status:    Optimal")
	assert.Contains(t, out, "Production batches:")
}

func TestSolveCommandRejectsBadFEFO(t *testing.T) {
	_, err := runCommand(t, "solve", writeScenario(t), "--fefo", "strict")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid fefo mode")
}

func TestSolveCommandMissingFile(t *testing.T) {
	_, err := runCommand(t, "solve", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestValidateCommand(t *testing.T) {
	out, err := runCommand(t, "validate", writeScenario(t))
	require.NoError(t, err)
	assert.Contains(t, out, "scenario OK")
}

func TestValidateCommandStrictCalendarGap(t *testing.T) {
	// Keep only the first calendar day so the horizon has gaps.
	gappy := strings.Replace(commandScenario, `  - date: 2026-03-04
    fixed_hours: 8
    regular_rate: "20"
    overtime_rate: "30"
    non_fixed_rate: "40"
    fixed_day: true
  - date: 2026-03-05
    fixed_hours: 8
    regular_rate: "20"
    overtime_rate: "30"
    non_fixed_rate: "40"
    fixed_day: true
  - date: 2026-03-06
    fixed_hours: 8
    regular_rate: "20"
    overtime_rate: "30"
    non_fixed_rate: "40"
    fixed_day: true
`, "", 1)
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(gappy), 0o644))

	_, err := runCommand(t, "validate", path, "--strict-calendar")
	require.Error(t, err)

	out, err := runCommand(t, "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "labor calendar date defaulted")
}
