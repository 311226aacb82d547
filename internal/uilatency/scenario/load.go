package scenario

import (
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/armadaproject/uilatency/internal/common/config"
	"github.com/armadaproject/uilatency/internal/common/latencyerrors"
)

// EnvPrefix is the prefix of environment variables that override runs, timeout_ms and headed,
// e.g. UILATENCY_RUNS=3.
const EnvPrefix = "UILATENCY"

// Only these keys can be set from the environment; the rest of a scenario comes from its file.
var envKeys = []string{"runs", "timeout_ms", "headed"}

// Overrides replace top-level scenario fields after the file and environment are read.
// Zero values leave the field untouched.
type Overrides struct {
	URL       string
	Runs      int
	TimeoutMs int
	Headed    *bool
}

// Load reads the scenario at path, which must be a .json, .yaml, or .yml file,
// and compiles it. Environment variables and overrides take precedence over the file.
func Load(path string, overrides Overrides) (*Scenario, error) {
	f, err := Read(path, overrides)
	if err != nil {
		return nil, err
	}
	return f.Compile()
}

// Read decodes the scenario file at path without validating it.
func Read(path string, overrides Overrides) (*File, error) {
	v := viper.New()
	v.SetDefault("runs", DefaultRuns)
	v.SetDefault("timeout_ms", DefaultTimeout.Milliseconds())
	v.SetDefault("headed", false)
	v.SetEnvPrefix(EnvPrefix)
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, errors.WithStack(err)
		}
	}

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.WithStack(&latencyerrors.ErrInvalidArgument{
			Name:    "config",
			Value:   path,
			Message: err.Error(),
		})
	}
	if overrides.URL != "" {
		v.Set("url", overrides.URL)
	}
	if overrides.Runs != 0 {
		v.Set("runs", overrides.Runs)
	}
	if overrides.TimeoutMs != 0 {
		v.Set("timeout_ms", overrides.TimeoutMs)
	}
	if overrides.Headed != nil {
		v.Set("headed", *overrides.Headed)
	}

	var f File
	if err := v.Unmarshal(&f, config.CustomHooks...); err != nil {
		return nil, errors.WithStack(&latencyerrors.ErrInvalidArgument{
			Name:    "config",
			Value:   path,
			Message: err.Error(),
		})
	}
	return &f, nil
}
