package common

import "fmt"

// ValidationError reports malformed user input (CLI arguments, measurement requests)
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("Validation Error: %s", e.Message)
	}
	return fmt.Sprintf("Validation Error: %s: %s", e.Field, e.Message)
}

// ConfigError reports an invalid configuration
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("Configuration Error: %s", e.Message)
}

func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func NewConfigError(message string) error {
	return &ConfigError{Message: message}
}
