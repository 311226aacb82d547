package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/armadaproject/uilatency/internal/common/logging"
	"github.com/armadaproject/uilatency/internal/uilatency"
	"github.com/armadaproject/uilatency/internal/uilatency/scenario"
)

// RootCmd is the root Cobra command that gets called from the main func.
// All other sub-commands should be registered here.
func RootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "uilatency",
		Short: "uilatency measures how long a web UI takes to react to user interactions.",
		Long: `uilatency measures how long a web UI takes to react to user interactions.

A scenario file lists measurements, each made of a trigger (an action such as a click)
and a target (a condition such as an element becoming visible). Every measurement is
timed from just before the trigger until the target is reached, over many runs.

Example scenario:
name: todo-app
url: http://localhost:8080/
runs: 20
measurements:
  - name: add_item
    trigger: {type: click, selector: "#add"}
    target: {type: wait_count_increase, selector: "li.item"}

Flags can also be set through UILATENCY_* environment variables, e.g. UILATENCY_RUNS=5.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := cmd.Flags().GetString("log-level")
			if err != nil || level == "" {
				return err
			}
			return logging.SetLevel(level)
		},
	}
	cmd.PersistentFlags().String("log-level", "", "Log level, e.g. debug. Overrides the logging config.")

	cmd.AddCommand(
		versionCmd(uilatency.New()),
		runCmd(uilatency.New()),
		validateCmd(uilatency.New()),
	)

	return cmd
}

// Print version info and exit.
func versionCmd(app *uilatency.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Version()
		},
	}
	return cmd
}

func addScenarioFlags(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "Scenario file (.json, .yaml or .yml).")
	cmd.Flags().Int("runs", 0, "Number of runs. Overrides the scenario.")
	cmd.Flags().Int("timeout-ms", 0, "Default target timeout in milliseconds. Overrides the scenario.")
	cmd.Flags().Bool("headed", false, "Show the browser window. Overrides the scenario.")
	cmd.Flags().String("url", "", "Page to test. Overrides the scenario.")
}

// initParams reads flags, falling back to UILATENCY_* environment variables, into app.Params.
func initParams(flags *pflag.FlagSet, app *uilatency.App) error {
	v := viper.New()
	v.SetEnvPrefix(scenario.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(flags); err != nil {
		return err
	}

	app.Params.ScenarioPath = v.GetString("config")
	app.Params.OutputPath = v.GetString("out")
	app.Params.JUnitPath = v.GetString("junit")
	app.Params.MetricsPath = v.GetString("metrics-out")
	app.Params.Overrides = scenario.Overrides{
		URL:       v.GetString("url"),
		Runs:      v.GetInt("runs"),
		TimeoutMs: v.GetInt("timeout-ms"),
	}
	if v.IsSet("headed") {
		headed := v.GetBool("headed")
		app.Params.Overrides.Headed = &headed
	}
	return nil
}
