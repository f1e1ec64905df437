// Package params coerces inbound primitive arguments before they reach
// the facade. The remote protocol is strict about numeric types, so
// string-typed numbers are converted here and anything unconvertible fails
// fast as a validation error without a remote call being issued.
package params

import (
	"strconv"
	"strings"

	"github.com/armgate-dev/armgate/pkg/gateway/apierr"
)

// Float coerces value to float64. An empty value yields fallback.
func Float(name, value string, fallback float64) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, apierr.Newf(apierr.KindValidation, "parameter %q must be numeric, got %q", name, value)
	}
	return f, nil
}

// Int coerces value to int. An empty value yields fallback.
func Int(name, value string, fallback int) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, apierr.Newf(apierr.KindValidation, "parameter %q must be an integer, got %q", name, value)
	}
	return n, nil
}

// Bool interprets the toggle encodings the web tier sends ("1"/"0",
// "true"/"false", "on"/"off").
func Bool(name, value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "on", "yes":
		return true, nil
	case "0", "false", "off", "no", "":
		return false, nil
	}
	return false, apierr.Newf(apierr.KindValidation, "parameter %q must be a boolean toggle, got %q", name, value)
}

// ID coerces value to a positive integer identifier.
func ID(name, value string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, apierr.Newf(apierr.KindValidation, "parameter %q is required", name)
	}
	id, err := strconv.Atoi(value)
	if err != nil || id < 1 {
		return 0, apierr.Newf(apierr.KindValidation, "parameter %q must be a positive integer, got %q", name, value)
	}
	return id, nil
}
