package cmd

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armadaproject/uilatency/internal/uilatency"
)

func parsedRunCmd(t *testing.T, app *uilatency.App, args ...string) *cobra.Command {
	t.Helper()
	cmd := runCmd(app)
	require.NoError(t, cmd.ParseFlags(args))
	require.NoError(t, initParams(cmd.Flags(), app))
	return cmd
}

func TestInitParams(t *testing.T) {
	app := uilatency.New()
	parsedRunCmd(t, app, "--config", "s.yaml", "--out", "r.json", "--runs", "3", "--headed")

	assert.Equal(t, "s.yaml", app.Params.ScenarioPath)
	assert.Equal(t, "r.json", app.Params.OutputPath)
	assert.Equal(t, 3, app.Params.Overrides.Runs)
	require.NotNil(t, app.Params.Overrides.Headed)
	assert.True(t, *app.Params.Overrides.Headed)
	assert.Equal(t, 0, app.Params.Overrides.TimeoutMs)
}

func TestInitParams_Defaults(t *testing.T) {
	app := uilatency.New()
	parsedRunCmd(t, app)

	assert.Equal(t, "results.json", app.Params.OutputPath)
	assert.Nil(t, app.Params.Overrides.Headed)
	assert.Empty(t, app.Params.JUnitPath)
}

func TestInitParams_Environment(t *testing.T) {
	t.Setenv("UILATENCY_TIMEOUT_MS", "2500")
	t.Setenv("UILATENCY_METRICS_OUT", "m.prom")
	app := uilatency.New()
	parsedRunCmd(t, app, "--timeout-ms", "100")

	assert.Equal(t, 100, app.Params.Overrides.TimeoutMs)
	assert.Equal(t, "m.prom", app.Params.MetricsPath)
}

func TestVersionCmd(t *testing.T) {
	app := uilatency.New()
	out := &bytes.Buffer{}
	app.Out = out

	cmd := versionCmd(app)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "Version:")
}
