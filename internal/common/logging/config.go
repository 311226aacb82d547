package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v2"
)

const (
	logConfigPathEnvVar = "UILATENCY_LOG_CONFIG"
	RFC3339Milli        = "2006-01-02T15:04:05.000Z07:00"
)

type LogFormat string

const (
	// FormatCommandLine prints bare messages; the default for interactive use.
	FormatCommandLine LogFormat = "cli"
	FormatText        LogFormat = "text"
	FormatColourful   LogFormat = "colourful"
	FormatJSON        LogFormat = "json"
)

var validLogFormats = map[LogFormat]bool{
	FormatCommandLine: true,
	FormatText:        true,
	FormatColourful:   true,
	FormatJSON:        true,
}

// Config defines logging configuration.
type Config struct {
	// Log level, e.g. info, debug etc
	Level string `yaml:"level"`
	// Logging format, one of cli, text, colourful or json
	Format LogFormat `yaml:"format"`
	// Whether to count log lines per level as a Prometheus metric.
	CountLogLines bool `yaml:"countLogLines"`
}

// DefaultConfig returns the configuration used when no logging config file is provided.
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Format: FormatCommandLine,
	}
}

func (c Config) Validate() error {
	if _, err := logrus.ParseLevel(c.Level); err != nil {
		return errors.WithStack(err)
	}
	if !validLogFormats[c.Format] {
		formats := maps.Keys(validLogFormats)
		slices.Sort(formats)
		return errors.Errorf("unknown log format: %s.  Valid formats are %s", c.Format, formats)
	}
	return nil
}

// ReadConfig reads a YAML logging config from path. Fields missing from the file keep their default values.
func ReadConfig(path string) (Config, error) {
	config := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return config, errors.Wrapf(err, "error reading log config from %s", path)
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, errors.Wrapf(err, "error parsing log config from %s", path)
	}
	config.Level = strings.ToLower(config.Level)
	return config, config.Validate()
}

// NewLogger builds a Logger writing to out according to config.
func NewLogger(config Config, out io.Writer) (*Logger, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	level, _ := logrus.ParseLevel(config.Level)

	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(level)
	switch config.Format {
	case FormatCommandLine:
		l.SetFormatter(&CommandLineFormatter{})
	case FormatJSON:
		l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: RFC3339Milli})
	default:
		l.SetFormatter(&logrus.TextFormatter{
			ForceColors:     config.Format == FormatColourful,
			DisableColors:   config.Format == FormatText,
			FullTimestamp:   true,
			TimestampFormat: RFC3339Milli,
		})
	}
	if config.CountLogLines {
		if err := addPrometheusHook(l); err != nil {
			return nil, err
		}
	}
	return FromLogrus(l), nil
}

// ConfigureCommandLineLogging sets up logging for the CLI. Logging configuration is loaded from a filepath
// given by the UILATENCY_LOG_CONFIG environmental variable; if this var is unset DefaultConfig is used.
// Note that this function will immediately shut down the application if it fails.
func ConfigureCommandLineLogging() {
	config := DefaultConfig()
	if path, ok := os.LookupEnv(logConfigPathEnvVar); ok && path != "" {
		var err error
		config, err = ReadConfig(path)
		if err != nil {
			_, _ = fmt.Fprintln(os.Stderr, "Error initializing logging: "+err.Error())
			os.Exit(1)
		}
	}
	logger, err := NewLogger(config, os.Stdout)
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "Error initializing logging: "+err.Error())
		os.Exit(1)
	}
	ReplaceStdLogger(logger)
}

// SetLevel changes the level of the standard logger, e.g. in response to a --verbose flag.
func SetLevel(level string) error {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return errors.WithStack(err)
	}
	stdLogger.underlying.Logger.SetLevel(parsed)
	return nil
}
