package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bakeplan/bakeplan/pkg/infrastructure/repositories/yamlrepo"
	"github.com/bakeplan/bakeplan/pkg/planner"
)

// NewValidateCommand builds the validate subcommand, a dry run that
// loads a scenario and assembles the model without solving it.
func NewValidateCommand() *cobra.Command {
	var strictCalendar bool

	cmd := &cobra.Command{
		Use:   "validate <scenario.yaml>",
		Short: "Check a scenario file without solving it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scenario, err := yamlrepo.NewLoader().LoadScenario(args[0])
			if err != nil {
				return fmt.Errorf("error loading scenario: %w", err)
			}

			engine := planner.New(planner.Config{
				StrictCalendarValidation: strictCalendar,
			})
			warnings, err := engine.Validate(scenario)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "scenario OK: %d products, %d locations, %d forecast entries\n",
				len(scenario.Products), len(scenario.Locations), len(scenario.Forecast))
			for _, w := range warnings {
				fmt.Fprintf(out, "warning: %s\n", w)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strictCalendar, "strict-calendar", false, "reject horizons with labor calendar gaps")
	return cmd
}
