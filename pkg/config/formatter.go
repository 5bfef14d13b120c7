package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

func formatValidationError(err validator.FieldError) string {
	field := err.Field()
	envName := envPrefix + strings.ToUpper(field)

	switch err.Tag() {
	case "required":
		return fmt.Sprintf("missing required config: set %s or %q in the config file", envName, field)
	case "url":
		return fmt.Sprintf("invalid config %q: %q is not a valid url", field, err.Value())
	case "min", "gte":
		return fmt.Sprintf("invalid config %q: must be at least %s", field, err.Param())
	case "max":
		return fmt.Sprintf("invalid config %q: must be at most %s", field, err.Param())
	case "gt":
		return fmt.Sprintf("invalid config %q: must be greater than %s", field, err.Param())
	case "startswith":
		return fmt.Sprintf("invalid config %q: %q must start with %q", field, err.Value(), err.Param())
	default:
		return fmt.Sprintf("invalid config %q: failed %q validation", field, err.Tag())
	}
}
