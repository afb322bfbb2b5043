package config

import "errors"

var (
	// ErrConfigNotFound is returned when an explicitly named config file does not exist.
	ErrConfigNotFound = errors.New("config file not found")

	// ErrInvalidConfig is returned when a config file fails validation.
	ErrInvalidConfig = errors.New("invalid config")
)
