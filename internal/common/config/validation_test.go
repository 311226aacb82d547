package config

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armadaproject/uilatency/internal/common/latencyerrors"
	"github.com/armadaproject/uilatency/internal/common/logging"
)

type testConfig struct {
	Runs      int `mapstructure:"runs" validate:"gt=0"`
	TimeoutMs int `mapstructure:"timeout_ms" validate:"gt=0"`
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(testConfig{Runs: 1, TimeoutMs: 10}))

	err := Validate(testConfig{})
	require.Error(t, err)
	assert.True(t, latencyerrors.IsConfigurationError(err))
	assert.Contains(t, err.Error(), "runs")
	assert.Contains(t, err.Error(), "timeout_ms")
}

func TestLogValidationErrors(t *testing.T) {
	l, hook := test.NewNullLogger()
	previous := logging.StdLogger()
	logging.ReplaceStdLogger(logging.FromLogrus(l))
	t.Cleanup(func() { logging.ReplaceStdLogger(previous) })

	LogValidationErrors(Validate(testConfig{}))

	entries := hook.AllEntries()
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, logrus.ErrorLevel, e.Level)
		assert.Regexp(t, `^ConfigError: `, e.Message)
	}
}
