package cmd

import (
	"github.com/spf13/cobra"

	"github.com/armadaproject/uilatency/internal/common/config"
	"github.com/armadaproject/uilatency/internal/uilatency"
)

// Load and validate a scenario without running it.
func validateCmd(app *uilatency.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a scenario file and print the measurements it defines.",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initParams(cmd.Flags(), app)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			err := app.Validate()
			if err != nil {
				config.LogValidationErrors(err)
			}
			return err
		},
	}
	addScenarioFlags(cmd)
	return cmd
}
