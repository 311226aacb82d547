package logging

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/weaveworks/promrus"
)

// addPrometheusHook makes l count its log lines by level in the default Prometheus registry.
func addPrometheusHook(l *logrus.Logger) error {
	hook, err := promrus.NewPrometheusHook()
	if err != nil {
		return errors.WithMessage(err, "error creating prometheus logging hook")
	}
	l.AddHook(hook)
	return nil
}
