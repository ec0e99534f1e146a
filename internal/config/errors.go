package config

import (
	"errors"
	"fmt"
)

// ErrInvalid matches every *ConfigError with errors.Is.
var ErrInvalid = errors.New("invalid configuration")

// ConfigError reports the environment variable that failed validation.
type ConfigError struct {
	Field   string
	Message string
}

// NewConfigError creates a ConfigError for an environment variable.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Is reports whether target is ErrInvalid.
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalid
}
