package config

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/armadaproject/uilatency/internal/common/latencyerrors"
	"github.com/armadaproject/uilatency/internal/common/logging"
)

// Validate checks the `validate` struct tags of c. Field names in the returned errors
// are taken from the mapstructure tags, i.e. they match the names used in configuration files.
// Each violated constraint is returned as an *latencyerrors.ErrInvalidArgument.
func Validate(c interface{}) error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return errors.WithStack(err)
	}
	var result *multierror.Error
	for _, fieldErr := range validationErrors {
		result = multierror.Append(result, errors.WithStack(&latencyerrors.ErrInvalidArgument{
			Name:    stripPrefix(fieldErr.Namespace()),
			Value:   fieldErr.Value(),
			Message: describe(fieldErr),
		}))
	}
	return result.ErrorOrNil()
}

// LogValidationErrors logs each aggregated configuration problem on its own line.
func LogValidationErrors(err error) {
	var merr *multierror.Error
	if !errors.As(err, &merr) {
		if err != nil {
			logging.Errorf("ConfigError: %s", err)
		}
		return
	}
	for _, err := range merr.Errors {
		logging.Errorf("ConfigError: %s", err)
	}
}

func describe(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "field is required but was not found"
	case "gt":
		return fmt.Sprintf("must be greater than %s", err.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", err.Param())
	case "min":
		return fmt.Sprintf("must have at least %s entries", err.Param())
	default:
		return fmt.Sprintf("failed %s validation", err.Tag())
	}
}

func stripPrefix(s string) string {
	if idx := strings.Index(s, "."); idx != -1 {
		return s[idx+1:]
	}
	return s
}
