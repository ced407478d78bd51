package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/bakeplan/bakeplan/pkg/application/dto"
)

// Config holds configuration for output generation
type Config struct {
	Format  string
	Verbose bool
}

// Generate writes the plan in the requested format.
func Generate(w io.Writer, result *dto.PlanResult, config Config) error {
	switch config.Format {
	case "", "text":
		return generateTextOutput(w, result, config)
	case "json":
		return generateJSONOutput(w, result)
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
}

func generateTextOutput(w io.Writer, result *dto.PlanResult, config Config) error {
	sol := result.Solution
	summary := result.Summarize()

	fmt.Fprintf(w, "Plan %s\n", sol.PlanID)
	fmt.Fprintf(w, "Status:    %s\n", summary.Status)
	fmt.Fprintf(w, "Cost:      %s\n", summary.TotalCost)
	fmt.Fprintf(w, "Fill rate: %.1f%%\n", summary.FillRate*100)
	fmt.Fprintf(w, "Produced:  %.0f units   Short: %.0f units\n", summary.ProducedUnits, summary.ShortageUnits)
	fmt.Fprintf(w, "Solver:    %d nodes, gap %.4f, %v\n\n", summary.SolverNodes, summary.SolverGap, result.Duration)

	if len(sol.Batches) > 0 {
		fmt.Fprintf(w, "Production batches:\n")
		fmt.Fprintf(w, "%-12s %-12s %-12s %8s %10s\n",
			"Location", "Product", "Date", "Mixes", "Units")
		for _, b := range sol.Batches {
			fmt.Fprintf(w, "%-12s %-12s %-12s %8d %10.0f\n",
				b.Location, b.Product, b.Date.Format("2006-01-02"), b.MixCount, b.Units)
		}
		fmt.Fprintln(w)
	}

	if len(sol.Shipments) > 0 {
		fmt.Fprintf(w, "Shipments:\n")
		fmt.Fprintf(w, "%-10s %-12s %-12s %-12s %-12s %10s\n",
			"Leg", "Origin", "Destination", "Product", "Departs", "Units")
		for _, sh := range sol.Shipments {
			fmt.Fprintf(w, "%-10s %-12s %-12s %-12s %-12s %10.0f\n",
				sh.LegID, sh.Origin, sh.Destination, sh.Product,
				sh.DepartDate.Format("2006-01-02"), sh.Units)
		}
		fmt.Fprintln(w)
	}

	if len(sol.Shortages) > 0 {
		fmt.Fprintf(w, "Shortages:\n")
		fmt.Fprintf(w, "%-12s %-12s %-12s %10s\n",
			"Location", "Product", "Date", "Units")
		for _, sh := range sol.Shortages {
			fmt.Fprintf(w, "%-12s %-12s %-12s %10.0f\n",
				sh.Location, sh.Product, sh.Date.Format("2006-01-02"), sh.Units)
		}
		fmt.Fprintln(w)
	}

	if config.Verbose && len(sol.Labor) > 0 {
		fmt.Fprintf(w, "Labor:\n")
		fmt.Fprintf(w, "%-12s %-12s %8s %8s %10s\n",
			"Location", "Date", "Hours", "OT", "Cost")
		for _, l := range sol.Labor {
			fmt.Fprintf(w, "%-12s %-12s %8.1f %8.1f %10s\n",
				l.Location, l.Date.Format("2006-01-02"), l.Hours, l.OvertimeHours, l.Cost.StringFixed(2))
		}
		fmt.Fprintln(w)
	}

	if len(sol.Warnings) > 0 {
		fmt.Fprintf(w, "Warnings:\n")
		for _, warn := range sol.Warnings {
			fmt.Fprintf(w, "  - %s\n", warn)
		}
	}

	return nil
}

func generateJSONOutput(w io.Writer, result *dto.PlanResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
