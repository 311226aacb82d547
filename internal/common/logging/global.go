package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// stdLogger backs the package-level functions. It logs everything to stdout until the CLI
// installs its own logger with ConfigureCommandLineLogging.
var stdLogger = FromLogrus(newDefaultLogrus())

// ReplaceStdLogger swaps the package-level logger. Tests use it to capture output.
func ReplaceStdLogger(l *Logger) {
	stdLogger = l
}

func StdLogger() *Logger {
	return stdLogger
}

func Infof(format string, args ...any) {
	stdLogger.Infof(format, args...)
}

func Warnf(format string, args ...any) {
	stdLogger.Warnf(format, args...)
}

func Errorf(format string, args ...any) {
	stdLogger.Errorf(format, args...)
}

func WithField(key string, value any) *Logger {
	return stdLogger.WithField(key, value)
}

func WithError(err error) *Logger {
	return stdLogger.WithError(err)
}

// WithStacktrace attaches err and, when err carries one, its pkg/errors stack trace.
func WithStacktrace(err error) *Logger {
	return stdLogger.WithStacktrace(err)
}

func newDefaultLogrus() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetLevel(logrus.DebugLevel)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: RFC3339Milli,
	})
	return l
}
