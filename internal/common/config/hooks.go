package config

import (
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Milliseconds is a duration written in configuration files as a whole number of milliseconds.
// Duration strings such as "1.5s" are accepted too.
type Milliseconds int64

func (m Milliseconds) Duration() time.Duration {
	return time.Duration(m) * time.Millisecond
}

// CustomHooks must be passed to viper.Unmarshal when decoding scenario files.
// viper keeps only the last DecodeHook option, so every hook is composed into one.
var CustomHooks = []viper.DecoderConfigOption{
	viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		MillisecondsHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
	)),
}

func MillisecondsHookFunc() mapstructure.DecodeHookFuncType {
	return func(
		f reflect.Type,
		t reflect.Type,
		data interface{},
	) (interface{}, error) {
		if t != reflect.TypeOf(Milliseconds(0)) {
			return data, nil
		}
		switch f.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return Milliseconds(reflect.ValueOf(data).Int()), nil
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return Milliseconds(reflect.ValueOf(data).Uint()), nil
		case reflect.Float32, reflect.Float64:
			return Milliseconds(reflect.ValueOf(data).Float()), nil
		case reflect.String:
			return ParseMilliseconds(data.(string))
		}
		return data, nil
	}
}

// ParseMilliseconds parses either a plain millisecond count or a Go duration string.
func ParseMilliseconds(s string) (Milliseconds, error) {
	s = strings.TrimSpace(s)
	if ms, err := strconv.ParseFloat(s, 64); err == nil {
		return Milliseconds(ms), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, errors.Errorf("%q is neither a number of milliseconds nor a duration", s)
	}
	return Milliseconds(d / time.Millisecond), nil
}
