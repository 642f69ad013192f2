// Package parameters handles generic configuration Params, a map[string]string
// populated from a configuration file and command-line overrides.
package parameters

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Params represent generic configuration parameters.
type Params map[string]string

// NewFromConfigString creates params from a comma-separated configuration
// string of key=value pairs. A key without '=' maps to the empty string.
func NewFromConfigString(config string) Params {
	params := make(Params)
	for _, part := range strings.Split(config, ",") {
		subParts := strings.SplitN(part, "=", 2) // Split into up to 2 parts to handle '=' in values
		if len(subParts) == 1 {
			params[subParts[0]] = ""
		} else {
			params[subParts[0]] = subParts[1]
		}
	}
	return params
}

// NewFromConfigFile reads key=value lines from a configuration file.
// '#' starts a comment, whitespace is stripped, and malformed lines are
// skipped with a warning.
func NewFromConfigFile(path string) (Params, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open configuration file %q", path)
	}
	defer f.Close()

	params := make(Params)
	sc := bufio.NewScanner(f)
	for lineno := 1; sc.Scan(); lineno++ {
		line := sc.Text()
		if pos := strings.IndexByte(line, '#'); pos >= 0 {
			line = line[:pos]
		}
		line = strings.Join(strings.Fields(line), "")
		if line == "" {
			continue
		}
		pos := strings.IndexByte(line, '=')
		if pos < 0 {
			klog.Warningf("%s:%d: skipping line without '='", path, lineno)
			continue
		}
		key, value := line[:pos], line[pos+1:]
		if key == "" {
			klog.Warningf("%s:%d: skipping line without a key", path, lineno)
			continue
		}
		if value == "" {
			klog.Warningf("%s:%d: skipping line without a value", path, lineno)
			continue
		}
		params[key] = value
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to read configuration file %q", path)
	}
	return params, nil
}

// Merge copies every entry of other into params, overriding existing keys.
func (params Params) Merge(other Params) {
	for key, value := range other {
		params[key] = value
	}
}

// Keys returns the parameter names, for error reporting.
func (params Params) Keys() []string {
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	return keys
}

// Has reports whether the key is present.
func (params Params) Has(key string) bool {
	_, exists := params[key]
	return exists
}

// PopParamOr is like GetParamOr, but it also deletes from the params map the
// retrieved parameter.
func PopParamOr[T interface {
	bool | int | float64 | string
}](params Params, key string, defaultValue T) (T, error) {
	value, err := GetParamOr(params, key, defaultValue)
	if err != nil {
		return value, err
	}
	delete(params, key)
	return value, nil
}

// GetParamOr attempts to parse a parameter to the given type if the key is
// present, or returns the defaultValue if not.
//
// For bool types, a key without a value is interpreted as true.
func GetParamOr[T interface {
	bool | int | float64 | string
}](params Params, key string, defaultValue T) (T, error) {
	vAny := (any)(defaultValue)
	var t T
	toT := func(v any) T { return v.(T) }
	switch vAny.(type) {
	case string:
		if value, exists := params[key]; exists {
			return toT(value), nil
		}
	case int:
		if value, exists := params[key]; exists && value != "" {
			parsedValue, err := strconv.Atoi(value)
			if err != nil {
				return t, errors.Wrapf(err, "failed to parse configuration %s=%q to int", key, value)
			}
			return toT(parsedValue), nil
		}
	case float64:
		if value, exists := params[key]; exists && value != "" {
			parsedValue, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return t, errors.Wrapf(err, "failed to parse configuration %s=%q to float", key, value)
			}
			return toT(parsedValue), nil
		}
	case bool:
		if value, exists := params[key]; exists {
			if value == "" || strings.ToLower(value) == "true" || value == "1" {
				return toT(true), nil
			}
			if strings.ToLower(value) == "false" || value == "0" {
				return toT(false), nil
			}
			return defaultValue, errors.Errorf("failed to parse configuration %s=%q to bool", key, value)
		}
	}
	return defaultValue, nil
}
