package output_test

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bakeplan/bakeplan/pkg/application/dto"
	"github.com/bakeplan/bakeplan/pkg/domain/entities"
	"github.com/bakeplan/bakeplan/pkg/interfaces/cli/output"
)

func sampleResult() *dto.PlanResult {
	date := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	return &dto.PlanResult{
		Solution: &entities.PlanSolution{
			PlanID: uuid.New(),
			Status: entities.PlanOptimal,
			Batches: []entities.ProductionBatch{
				{Location: "PLANT", Product: "SOUR", Date: date, MixCount: 2, Units: 830},
			},
			Shipments: []entities.Shipment{
				{LegID: "L1", Origin: "PLANT", Destination: "BR1", Product: "SOUR",
					DepartDate: date, ArriveDate: date.AddDate(0, 0, 1), Units: 800},
			},
			Labor: []entities.LaborUsage{
				{Location: "PLANT", Date: date, Hours: 2.7, OvertimeHours: 0, Cost: decimal.NewFromInt(160)},
			},
			TotalCost: decimal.NewFromFloat(283.5),
			FillRate:  1,
			Warnings:  []string{"labor calendar date defaulted: 2026-03-04"},
		},
		Duration: 120 * time.Millisecond,
	}
}

func TestGenerateTextOutput(t *testing.T) {
	var buf bytes.Buffer
	err := output.Generate(&buf, sampleResult(), output.Config{Format: "text"})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Status:    Optimal")
	assert.Contains(t, out, "Cost:      283.50")
	assert.Contains(t, out, "Production batches:")
	assert.Contains(t, out, "PLANT")
	assert.Contains(t, out, "Shipments:")
	assert.Contains(t, out, "labor calendar date defaulted")
	assert.NotContains(t, out, "Labor:", "labor detail requires verbose mode")
}

func TestGenerateTextOutputVerboseIncludesLabor(t *testing.T) {
	var buf bytes.Buffer
	err := output.Generate(&buf, sampleResult(), output.Config{Format: "text", Verbose: true})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Labor:")
}

func TestGenerateJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	err := output.Generate(&buf, sampleResult(), output.Config{Format: "json"})
	require.NoError(t, err)

	var decoded dto.PlanResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.NotNil(t, decoded.Solution)
	assert.Equal(t, entities.PlanOptimal, decoded.Solution.Status)
	assert.Len(t, decoded.Solution.Batches, 1)
}

func TestGenerateRejectsUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	err := output.Generate(&buf, sampleResult(), output.Config{Format: "xml"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")
}

func TestSummarize(t *testing.T) {
	s := sampleResult().Summarize()
	assert.Equal(t, "Optimal", s.Status)
	assert.Equal(t, "283.50", s.TotalCost)
	assert.Equal(t, float64(830), s.ProducedUnits)
	assert.Equal(t, 1, s.Batches)
	assert.Equal(t, int64(120), s.DurationMillis)
}
