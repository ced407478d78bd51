package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"

	"github.com/bakeplan/bakeplan/pkg/application/services"
	"github.com/bakeplan/bakeplan/pkg/infrastructure/events"
	"github.com/bakeplan/bakeplan/pkg/infrastructure/metrics"
	"github.com/bakeplan/bakeplan/pkg/infrastructure/repositories/memory"
	"github.com/bakeplan/bakeplan/pkg/infrastructure/repositories/yamlrepo"
	"github.com/bakeplan/bakeplan/pkg/interfaces/cli/output"
	"github.com/bakeplan/bakeplan/pkg/planner"
)

// Defaults are the flag defaults, overridable via BAKEPLAN_* variables
// before flags are parsed.
type Defaults struct {
	TimeLimit      time.Duration `envconfig:"TIME_LIMIT" default:"60s"`
	MIPGap         float64       `envconfig:"MIP_GAP" default:"0.01"`
	Warmstart      bool          `envconfig:"WARMSTART" default:"true"`
	StrictCalendar bool          `envconfig:"STRICT_CALENDAR" default:"false"`
	FEFO           string        `envconfig:"FEFO" default:"soft"`
	Format         string        `envconfig:"FORMAT" default:"text"`
}

type solveOptions struct {
	timeLimit      time.Duration
	mipGap         float64
	warmstart      bool
	strictCalendar bool
	fefo           string
	format         string
	verbose        bool
}

// NewSolveCommand builds the solve subcommand.
func NewSolveCommand() *cobra.Command {
	var defaults Defaults
	if err := envconfig.Process("bakeplan", &defaults); err != nil {
		fmt.Fprintf(os.Stderr, "warning: ignoring environment defaults: %v\n", err)
		defaults = Defaults{TimeLimit: 60 * time.Second, MIPGap: 0.01, Warmstart: true, FEFO: "soft", Format: "text"}
	}

	opts := solveOptions{}
	cmd := &cobra.Command{
		Use:   "solve <scenario.yaml>",
		Short: "Solve a production and distribution plan for a scenario file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSolve(cmd, args[0], opts)
		},
	}

	cmd.Flags().DurationVar(&opts.timeLimit, "time-limit", defaults.TimeLimit, "solver wall-clock budget")
	cmd.Flags().Float64Var(&opts.mipGap, "mip-gap", defaults.MIPGap, "relative optimality gap to stop at")
	cmd.Flags().BoolVar(&opts.warmstart, "warmstart", defaults.Warmstart, "seed the solver with the campaign heuristic")
	cmd.Flags().BoolVar(&opts.strictCalendar, "strict-calendar", defaults.StrictCalendar, "reject horizons with labor calendar gaps")
	cmd.Flags().StringVar(&opts.fefo, "fefo", defaults.FEFO, "first-expired-first-out mode: soft or hard")
	cmd.Flags().StringVar(&opts.format, "format", defaults.Format, "output format: text or json")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "include labor detail in text output")

	return cmd
}

func runSolve(cmd *cobra.Command, scenarioFile string, opts solveOptions) error {
	fefo, err := parseFEFO(opts.fefo)
	if err != nil {
		return err
	}

	scenario, err := yamlrepo.NewLoader().LoadScenario(scenarioFile)
	if err != nil {
		return fmt.Errorf("error loading scenario: %w", err)
	}

	// Stage calendar and forecast through the repositories so duplicate
	// dates surface here, with the file name, rather than deep in the
	// solve.
	calendarRepo := memory.NewCalendarRepository()
	for _, d := range scenario.Calendar {
		if err := calendarRepo.Put(d); err != nil {
			return fmt.Errorf("error loading scenario: %w", err)
		}
	}
	scenario.Calendar = calendarRepo.All()

	forecastRepo := memory.NewForecastRepository()
	forecastRepo.Add(scenario.Forecast...)
	scenario.Forecast = forecastRepo.Entries()

	engine := planner.New(planner.Config{
		TimeLimit:                opts.timeLimit,
		MIPGap:                   opts.mipGap,
		UseWarmstart:             opts.warmstart,
		StrictCalendarValidation: opts.strictCalendar,
		FEFO:                     fefo,
	})
	service := services.NewPlanService(engine, events.NewInMemoryEventStore(), metrics.NewCollector())

	result, err := service.Solve(cmd.Context(), scenario)
	if err != nil {
		return fmt.Errorf("solve failed: %w", err)
	}

	return output.Generate(cmd.OutOrStdout(), result, output.Config{
		Format:  opts.format,
		Verbose: opts.verbose,
	})
}

func parseFEFO(s string) (planner.FEFOMode, error) {
	switch s {
	case "", "soft":
		return planner.FEFOSoft, nil
	case "hard":
		return planner.FEFOHard, nil
	default:
		return 0, fmt.Errorf("invalid fefo mode %q (want soft or hard)", s)
	}
}
