package cmd

import (
	"github.com/spf13/cobra"

	"github.com/armadaproject/uilatency/internal/common/app"
	"github.com/armadaproject/uilatency/internal/common/config"
	"github.com/armadaproject/uilatency/internal/common/latencyerrors"
	"github.com/armadaproject/uilatency/internal/common/logging"
	"github.com/armadaproject/uilatency/internal/uilatency"
)

// Run a scenario and write the results.
// Exits non-zero only if the scenario can't be loaded or run; failed measurements are
// recorded in the report.
func runCmd(a *uilatency.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a scenario and write a JSON report of its latencies.",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initParams(cmd.Flags(), a)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// Cancelled on SIGINT/SIGTERM; runs completed so far are still reported.
			ctx := app.CreateContextWithShutdown()
			err := a.Run(ctx)
			if latencyerrors.IsConfigurationError(err) {
				config.LogValidationErrors(err)
			} else if err != nil {
				logging.WithStacktrace(err).Debug("run failed")
			}
			return err
		},
	}

	addScenarioFlags(cmd)
	cmd.Flags().String("out", "results.json", "Where to write the JSON report.")
	cmd.Flags().String("junit", "", "If set, also write a JUnit XML report here.")
	cmd.Flags().String("metrics-out", "", "If set, also write Prometheus metrics here in the textfile collector format.")

	return cmd
}
